// Package service реализует бизнес-логику сервиса рассрочек: жизненный цикл
// заказа, реконсиляцию платежей, производные показатели и обход напоминаний.
package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
)

// ErrInvalidAmount возвращается при неположительной сумме платежа.
var (
	ErrInvalidAmount = errors.New("payment amount must be positive")
	// ErrInvalidMethod возвращается при неизвестном способе оплаты.
	ErrInvalidMethod = errors.New("unknown payment method")
	// ErrInvalidReference возвращается при недопустимом номере платёжного документа.
	ErrInvalidReference = errors.New("invalid reference number")
	// ErrInvalidCredentials возвращается при неверном логине или пароле.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrInstallmentCountOutOfRange возвращается, когда количество взносов
	// выходит за пределы, допустимые для товара.
	ErrInstallmentCountOutOfRange = errors.New("installment count out of product range")
)

// Repository описывает контракт доступа к данным, используемый сервисом.
type Repository interface {
	Close() error

	CreateSeller(ctx context.Context, login string, passwordHash []byte, businessName, email string) (int64, error)
	GetSellerByLogin(ctx context.Context, login string) (*model.Seller, error)

	CreateCustomer(ctx context.Context, c model.Customer) (int64, error)
	GetCustomer(ctx context.Context, sellerID, customerID int64) (*model.Customer, error)
	ListCustomers(ctx context.Context, sellerID int64) ([]model.Customer, error)
	ListCustomerOrders(ctx context.Context, sellerID, customerID int64) ([]model.Order, error)
	ListCustomerInstallments(ctx context.Context, sellerID, customerID int64) ([]model.Installment, error)
	ListCustomerPayments(ctx context.Context, sellerID, customerID int64) ([]model.Payment, error)

	CreateProduct(ctx context.Context, p model.Product) (int64, error)
	GetProduct(ctx context.Context, sellerID, productID int64) (*model.Product, error)
	ListProducts(ctx context.Context, sellerID int64) ([]model.Product, error)

	CreateOrder(ctx context.Context, o model.Order) (*model.Order, error)
	GetOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context, sellerID int64, status model.OrderStatus) ([]model.Order, error)
	ApproveOrder(ctx context.Context, sellerID, orderID int64, jobID string, now time.Time) (*model.Order, error)
	CancelOrder(ctx context.Context, sellerID, orderID int64) error
	GenerateSchedule(ctx context.Context, orderID int64) error

	RecordPayment(ctx context.Context, p repository.RecordPaymentParams) (*model.Payment, error)
	RemainingBalance(ctx context.Context, sellerID, orderID int64) (decimal.Decimal, error)
	IsOverdue(ctx context.Context, sellerID, orderID int64, asOf time.Time) (bool, error)
	ListInstallments(ctx context.Context, sellerID, orderID int64) ([]model.Installment, error)
	DueInstallments(ctx context.Context, sellerID int64, asOf time.Time) (dueToday, overdue []model.Installment, err error)
	ListPayments(ctx context.Context, sellerID int64, orderID *int64) ([]model.Payment, error)
	GetDashboardStats(ctx context.Context, sellerID int64, asOf time.Time) (*repository.DashboardStats, error)

	MarkOverdue(ctx context.Context, asOf time.Time) (int64, error)
	SweepInstallments(ctx context.Context, asOf time.Time) ([]repository.SweepItem, error)
	ReserveReminder(ctx context.Context, installmentID int64, typ model.ReminderType, day time.Time) (int64, bool, error)
	MarkReminderSent(ctx context.Context, reminderID int64, message string, sentAt time.Time) error
	MarkReminderFailed(ctx context.Context, reminderID int64, message string) error
	ListReminders(ctx context.Context, sellerID int64) ([]model.PaymentReminder, error)

	NextScheduleJobs(ctx context.Context, limit int) ([]model.ScheduleJob, error)
	CompleteScheduleJob(ctx context.Context, jobID string) error
	FailScheduleJob(ctx context.Context, jobID string, delay time.Duration) error
}

// Notifier описывает внешний шлюз доставки уведомлений.
type Notifier interface {
	Send(ctx context.Context, channel, recipient, subject, body string) error
}

// Service содержит бизнес-логику сервиса рассрочек.
type Service struct {
	repo         Repository
	notifier     Notifier
	logger       *zap.Logger
	sweepWorkers int
}

// NewService создаёт сервис с указанным репозиторием и шлюзом уведомлений.
// notifier может быть nil: тогда email-напоминания не формируются.
func NewService(repo Repository, notifier Notifier, logger *zap.Logger, sweepWorkers int) *Service {
	if sweepWorkers < 1 {
		sweepWorkers = 1
	}
	return &Service{
		repo:         repo,
		notifier:     notifier,
		logger:       logger,
		sweepWorkers: sweepWorkers,
	}
}

// Close закрывает ресурсы сервиса.
func (s *Service) Close() error {
	if s.repo != nil {
		return s.repo.Close()
	}
	return nil
}

// RegisterSeller регистрирует нового продавца.
func (s *Service) RegisterSeller(ctx context.Context, login, password, businessName, email string) (int64, error) {
	hashed := hashPassword(login, password)
	id, err := s.repo.CreateSeller(ctx, login, hashed, businessName, email)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// AuthenticateSeller проверяет логин и пароль продавца и возвращает его идентификатор.
func (s *Service) AuthenticateSeller(ctx context.Context, login, password string) (int64, error) {
	seller, err := s.repo.GetSellerByLogin(ctx, login)
	if err != nil {
		return 0, err
	}

	hashed := hashPassword(login, password)
	if hex.EncodeToString(hashed) != hex.EncodeToString(seller.PasswordHash) {
		return 0, ErrInvalidCredentials
	}

	return seller.ID, nil
}

func hashPassword(login, password string) []byte {
	sum := sha256.Sum256([]byte(login + ":" + password))
	return sum[:]
}

// CreateCustomer создаёт покупателя у продавца.
func (s *Service) CreateCustomer(ctx context.Context, c model.Customer) (int64, error) {
	return s.repo.CreateCustomer(ctx, c)
}

// ListCustomers возвращает покупателей продавца.
func (s *Service) ListCustomers(ctx context.Context, sellerID int64) ([]model.Customer, error) {
	return s.repo.ListCustomers(ctx, sellerID)
}

// CreateProduct создаёт товар у продавца.
func (s *Service) CreateProduct(ctx context.Context, p model.Product) (int64, error) {
	if p.MinInstallments < 1 {
		p.MinInstallments = 1
	}
	if p.MaxInstallments < p.MinInstallments {
		p.MaxInstallments = p.MinInstallments
	}
	return s.repo.CreateProduct(ctx, p)
}

// ListProducts возвращает товары продавца.
func (s *Service) ListProducts(ctx context.Context, sellerID int64) ([]model.Product, error) {
	return s.repo.ListProducts(ctx, sellerID)
}

// ListReminders возвращает напоминания продавца.
func (s *Service) ListReminders(ctx context.Context, sellerID int64) ([]model.PaymentReminder, error) {
	return s.repo.ListReminders(ctx, sellerID)
}
