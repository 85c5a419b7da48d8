// Package repository содержит реализацию доступа к данным в PostgreSQL.
package repository

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/installment-system/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// ErrSellerExists возвращается при попытке создать продавца с уже существующим логином.
var (
	ErrSellerExists = errors.New("seller already exists")
	// ErrSellerNotFound возвращается, если продавец не найден.
	ErrSellerNotFound = errors.New("seller not found")
	// ErrCustomerNotFound возвращается, если покупатель не найден у продавца.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден у продавца.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден у продавца.
	ErrOrderNotFound = errors.New("order not found")
	// ErrInstallmentNotFound возвращается, если взнос не принадлежит заказу.
	ErrInstallmentNotFound = errors.New("installment not found")
	// ErrInvalidTransition возвращается при недопустимом переходе статуса заказа.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrScheduleNotStarted возвращается при генерации графика для заказа без даты старта.
	ErrScheduleNotStarted = errors.New("order has no start date")
)

// PostgresRepository предоставляет доступ к хранилищу данных в PostgreSQL.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository создаёт новый репозиторий и инициализирует схему БД через миграции.
func NewPostgresRepository(dsn string) (*PostgresRepository, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse pool config: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	r := &PostgresRepository{pool: pool}

	if err := r.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return r, nil
}

func (r *PostgresRepository) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDBFromPool(r.pool)
	defer db.Close()

	goose.SetBaseFS(migrationsFS)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("set dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	return nil
}

// withRetry повторяет fn при ошибках сериализации, дедлоках и сетевых сбоях.
func (r *PostgresRepository) withRetry(ctx context.Context, fn func() error) error {
	var err error
	delays := []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

	for i := 0; i <= len(delays); i++ {
		err = fn()
		if err == nil {
			return nil
		}

		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}

		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			if pgErr.Code == pgerrcode.SerializationFailure || pgErr.Code == pgerrcode.DeadlockDetected {
				if i < len(delays) {
					time.Sleep(delays[i])
					continue
				}
			}
		}

		if isConnectionError(err) {
			if i < len(delays) {
				time.Sleep(delays[i])
				continue
			}
		}

		break
	}
	return err
}

func isConnectionError(err error) bool {
	return strings.Contains(err.Error(), "connection refused") ||
		strings.Contains(err.Error(), "broken pipe") ||
		strings.Contains(err.Error(), "connection reset by peer")
}

// Денежные значения пересекают границу pgx в текстовом виде: NUMERIC
// выбирается с приведением ::text и разбирается в decimal без потери точности.
func parseDecimal(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, fmt.Errorf("parse numeric %q: %w", s, err)
	}
	return d, nil
}

// Close закрывает пул соединений с БД.
func (r *PostgresRepository) Close() error {
	r.pool.Close()
	return nil
}

// CreateSeller создаёт нового продавца.
func (r *PostgresRepository) CreateSeller(ctx context.Context, login string, passwordHash []byte, businessName, email string) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO sellers (login, password_hash, business_name, email) VALUES ($1, $2, $3, $4) RETURNING id`,
		login, passwordHash, businessName, email,
	).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
			return 0, fmt.Errorf("%w: %s", ErrSellerExists, login)
		}
		return 0, fmt.Errorf("create seller: %w", err)
	}
	return id, nil
}

// GetSellerByLogin возвращает продавца по логину.
func (r *PostgresRepository) GetSellerByLogin(ctx context.Context, login string) (*model.Seller, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, login, password_hash, business_name, email, created_at FROM sellers WHERE login = $1`,
		login,
	)

	var s model.Seller
	err := row.Scan(&s.ID, &s.Login, &s.PasswordHash, &s.BusinessName, &s.Email, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSellerNotFound
		}
		return nil, fmt.Errorf("get seller: %w", err)
	}

	return &s, nil
}

// CreateCustomer создаёт покупателя у продавца.
func (r *PostgresRepository) CreateCustomer(ctx context.Context, c model.Customer) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO customers (seller_id, first_name, last_name, email, phone_number)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`,
		c.SellerID, c.FirstName, c.LastName, c.Email, c.PhoneNumber,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create customer: %w", err)
	}
	return id, nil
}

// GetCustomer возвращает покупателя продавца по идентификатору.
func (r *PostgresRepository) GetCustomer(ctx context.Context, sellerID, customerID int64) (*model.Customer, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, seller_id, first_name, last_name, email, phone_number, created_at
		 FROM customers
		 WHERE id = $1 AND seller_id = $2`,
		customerID, sellerID,
	)

	var c model.Customer
	err := row.Scan(&c.ID, &c.SellerID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("get customer: %w", err)
	}

	return &c, nil
}

// ListCustomers возвращает покупателей продавца.
func (r *PostgresRepository) ListCustomers(ctx context.Context, sellerID int64) ([]model.Customer, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, seller_id, first_name, last_name, email, phone_number, created_at
		 FROM customers
		 WHERE seller_id = $1
		 ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select customers: %w", err)
	}
	defer rows.Close()

	var res []model.Customer
	for rows.Next() {
		var c model.Customer
		if err := rows.Scan(&c.ID, &c.SellerID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan customer: %w", err)
		}
		res = append(res, c)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}

// CreateProduct создаёт товар у продавца.
func (r *PostgresRepository) CreateProduct(ctx context.Context, p model.Product) (int64, error) {
	var id int64
	err := r.pool.QueryRow(ctx,
		`INSERT INTO products (seller_id, name, sku, price, min_installments, max_installments, active)
		 VALUES ($1, $2, $3, $4::numeric, $5, $6, $7)
		 RETURNING id`,
		p.SellerID, p.Name, p.SKU, p.Price.String(), p.MinInstallments, p.MaxInstallments, p.Active,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create product: %w", err)
	}
	return id, nil
}

// GetProduct возвращает товар продавца по идентификатору.
func (r *PostgresRepository) GetProduct(ctx context.Context, sellerID, productID int64) (*model.Product, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT id, seller_id, name, sku, price::text, min_installments, max_installments, active, created_at
		 FROM products
		 WHERE id = $1 AND seller_id = $2`,
		productID, sellerID,
	)

	var (
		p        model.Product
		priceRaw string
	)
	err := row.Scan(&p.ID, &p.SellerID, &p.Name, &p.SKU, &priceRaw, &p.MinInstallments, &p.MaxInstallments, &p.Active, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("get product: %w", err)
	}

	if p.Price, err = parseDecimal(priceRaw); err != nil {
		return nil, err
	}

	return &p, nil
}

// ListProducts возвращает товары продавца.
func (r *PostgresRepository) ListProducts(ctx context.Context, sellerID int64) ([]model.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, seller_id, name, sku, price::text, min_installments, max_installments, active, created_at
		 FROM products
		 WHERE seller_id = $1
		 ORDER BY created_at DESC`,
		sellerID,
	)
	if err != nil {
		return nil, fmt.Errorf("select products: %w", err)
	}
	defer rows.Close()

	var res []model.Product
	for rows.Next() {
		var (
			p        model.Product
			priceRaw string
		)
		if err := rows.Scan(&p.ID, &p.SellerID, &p.Name, &p.SKU, &priceRaw, &p.MinInstallments, &p.MaxInstallments, &p.Active, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		if p.Price, err = parseDecimal(priceRaw); err != nil {
			return nil, err
		}
		res = append(res, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}

	return res, nil
}
