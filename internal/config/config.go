// Package config содержит логику чтения конфигурации сервиса рассрочек.
package config

import (
	"flag"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config содержит параметры конфигурации сервиса рассрочек.
type Config struct {
	RunAddress     string        `env:"RUN_ADDRESS"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	NotifyAddress  string        `env:"NOTIFY_ADDRESS"`
	AuthSecret     string        `env:"AUTH_SECRET"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"`
	SweepWorkers   int           `env:"SWEEP_WORKERS"`
	OutboxInterval time.Duration `env:"OUTBOX_INTERVAL"`
}

// Parse считывает конфигурацию из флагов командной строки и переменных окружения.
func Parse() (*Config, error) {
	cfg := &Config{}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	envRunAddress := cfg.RunAddress
	envDatabaseURI := cfg.DatabaseURI
	envNotifyAddress := cfg.NotifyAddress
	envAuthSecret := cfg.AuthSecret
	envSweepInterval := cfg.SweepInterval
	envSweepWorkers := cfg.SweepWorkers
	envOutboxInterval := cfg.OutboxInterval

	flag.StringVar(&cfg.RunAddress, "a", "localhost:8080", "address and port for HTTP server")
	flag.StringVar(&cfg.DatabaseURI, "d", "", "database URI")
	flag.StringVar(&cfg.NotifyAddress, "n", "", "notification gateway address")
	flag.StringVar(&cfg.AuthSecret, "s", "", "secret key for auth cookies")
	flag.DurationVar(&cfg.SweepInterval, "sweep", 24*time.Hour, "reminder sweep interval")
	flag.IntVar(&cfg.SweepWorkers, "workers", 4, "concurrent reminder dispatches")
	flag.DurationVar(&cfg.OutboxInterval, "outbox", time.Second, "schedule outbox poll interval")

	flag.Parse()

	if envRunAddress != "" {
		cfg.RunAddress = envRunAddress
	}
	if envDatabaseURI != "" {
		cfg.DatabaseURI = envDatabaseURI
	}
	if envNotifyAddress != "" {
		cfg.NotifyAddress = envNotifyAddress
	}
	if envAuthSecret != "" {
		cfg.AuthSecret = envAuthSecret
	}
	if envSweepInterval != 0 {
		cfg.SweepInterval = envSweepInterval
	}
	if envSweepWorkers != 0 {
		cfg.SweepWorkers = envSweepWorkers
	}
	if envOutboxInterval != 0 {
		cfg.OutboxInterval = envOutboxInterval
	}

	if cfg.RunAddress == "" {
		cfg.RunAddress = "localhost:8080"
	}
	if cfg.AuthSecret == "" {
		cfg.AuthSecret = "installments-secret"
	}
	if cfg.SweepWorkers < 1 {
		cfg.SweepWorkers = 1
	}

	return cfg, nil
}
