package service

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
	"github.com/mmeshcher/installment-system/internal/schedule"
)

const scheduleJobBatch = 10

// StartScheduleWorker запускает фоновый обработчик очереди генерации
// графиков. Задача ставится в очередь в одной транзакции с одобрением
// заказа, поэтому график будет создан даже если обработчик в момент
// одобрения был недоступен.
func (s *Service) StartScheduleWorker(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.processScheduleBatch(ctx)
			}
		}
	}()
}

func (s *Service) processScheduleBatch(ctx context.Context) {
	jobs, err := s.repo.NextScheduleJobs(ctx, scheduleJobBatch)
	if err != nil {
		s.logger.Error("select schedule jobs error", zap.Error(err))
		return
	}

	for _, job := range jobs {
		if ctx.Err() != nil {
			return
		}
		s.runScheduleJob(ctx, job)
	}
}

func (s *Service) runScheduleJob(ctx context.Context, job model.ScheduleJob) {
	backoff := retry.WithMaxRetries(3, retry.NewExponential(500*time.Millisecond))

	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		if err := s.repo.GenerateSchedule(ctx, job.OrderID); err != nil {
			if isPermanentScheduleError(err) {
				return err
			}
			return retry.RetryableError(err)
		}
		return nil
	})
	if err == nil {
		if err := s.repo.CompleteScheduleJob(ctx, job.ID); err != nil {
			s.logger.Error("complete schedule job error", zap.Error(err), zap.String("job", job.ID))
		}
		return
	}

	if isPermanentScheduleError(err) {
		// Задача не сможет выполниться никогда: заказ удалён или его
		// условия некорректны. Снимаем её с очереди, оставив след в логе.
		s.logger.Error("schedule job dropped", zap.Error(err),
			zap.String("job", job.ID), zap.Int64("order", job.OrderID))
		if err := s.repo.CompleteScheduleJob(ctx, job.ID); err != nil {
			s.logger.Error("complete schedule job error", zap.Error(err), zap.String("job", job.ID))
		}
		return
	}

	delay := time.Duration(job.Attempts+1) * time.Minute
	s.logger.Warn("schedule job deferred", zap.Error(err),
		zap.String("job", job.ID), zap.Int64("order", job.OrderID), zap.Duration("delay", delay))
	if err := s.repo.FailScheduleJob(ctx, job.ID, delay); err != nil {
		s.logger.Error("defer schedule job error", zap.Error(err), zap.String("job", job.ID))
	}
}

func isPermanentScheduleError(err error) bool {
	return errors.Is(err, repository.ErrOrderNotFound) ||
		errors.Is(err, repository.ErrScheduleNotStarted) ||
		errors.Is(err, schedule.ErrInvalidTerms)
}
