package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
	"github.com/mmeshcher/installment-system/internal/schedule"
)

func TestHashPasswordDeterministic(t *testing.T) {
	a := hashPassword("seller", "pass")
	b := hashPassword("seller", "pass")
	c := hashPassword("seller", "other")

	if string(a) != string(b) {
		t.Fatalf("hashPassword must be deterministic, got %x and %x", a, b)
	}
	if string(a) == string(c) {
		t.Fatalf("different passwords must produce different hashes")
	}
}

type stubRepo struct {
	createSellerID  int64
	createSellerErr error

	getSeller    *model.Seller
	getSellerErr error

	product    *model.Product
	productErr error

	customer         *model.Customer
	customerOrders   []model.Order
	customerPayments []model.Payment

	createdOrder   *model.Order
	createOrderErr error

	approveCalls []string

	generateErr error

	recordedPayment *repository.RecordPaymentParams
	paymentResp     *model.Payment
	paymentErr      error

	installments []model.Installment

	markedOverdue int64
	sweepItems    []repository.SweepItem

	reserveReserved bool
	reserveID       int64
	reserveTypes    []model.ReminderType
	reserveErr      error

	sentMessages   []string
	failedMessages []string

	scheduleJobs  []model.ScheduleJob
	completedJobs []string
	failedJobs    []string
	failDelays    []time.Duration
}

func (s *stubRepo) Close() error { return nil }

func (s *stubRepo) CreateSeller(ctx context.Context, login string, passwordHash []byte, businessName, email string) (int64, error) {
	return s.createSellerID, s.createSellerErr
}

func (s *stubRepo) GetSellerByLogin(ctx context.Context, login string) (*model.Seller, error) {
	return s.getSeller, s.getSellerErr
}

func (s *stubRepo) CreateCustomer(ctx context.Context, c model.Customer) (int64, error) {
	return 0, nil
}

func (s *stubRepo) GetCustomer(ctx context.Context, sellerID, customerID int64) (*model.Customer, error) {
	if s.customer == nil {
		return nil, repository.ErrCustomerNotFound
	}
	return s.customer, nil
}

func (s *stubRepo) ListCustomerOrders(ctx context.Context, sellerID, customerID int64) ([]model.Order, error) {
	return s.customerOrders, nil
}

func (s *stubRepo) ListCustomerInstallments(ctx context.Context, sellerID, customerID int64) ([]model.Installment, error) {
	return s.installments, nil
}

func (s *stubRepo) ListCustomerPayments(ctx context.Context, sellerID, customerID int64) ([]model.Payment, error) {
	return s.customerPayments, nil
}

func (s *stubRepo) ListCustomers(ctx context.Context, sellerID int64) ([]model.Customer, error) {
	return nil, nil
}

func (s *stubRepo) CreateProduct(ctx context.Context, p model.Product) (int64, error) {
	return 0, nil
}

func (s *stubRepo) GetProduct(ctx context.Context, sellerID, productID int64) (*model.Product, error) {
	return s.product, s.productErr
}

func (s *stubRepo) ListProducts(ctx context.Context, sellerID int64) ([]model.Product, error) {
	return nil, nil
}

func (s *stubRepo) CreateOrder(ctx context.Context, o model.Order) (*model.Order, error) {
	if s.createOrderErr != nil {
		return nil, s.createOrderErr
	}
	if s.createdOrder != nil {
		return s.createdOrder, nil
	}
	out := o
	out.ID = 1
	return &out, nil
}

func (s *stubRepo) GetOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error) {
	return s.createdOrder, nil
}

func (s *stubRepo) ListOrders(ctx context.Context, sellerID int64, status model.OrderStatus) ([]model.Order, error) {
	return nil, nil
}

func (s *stubRepo) ApproveOrder(ctx context.Context, sellerID, orderID int64, jobID string, now time.Time) (*model.Order, error) {
	s.approveCalls = append(s.approveCalls, jobID)
	return s.createdOrder, nil
}

func (s *stubRepo) CancelOrder(ctx context.Context, sellerID, orderID int64) error {
	return nil
}

func (s *stubRepo) GenerateSchedule(ctx context.Context, orderID int64) error {
	return s.generateErr
}

func (s *stubRepo) RecordPayment(ctx context.Context, p repository.RecordPaymentParams) (*model.Payment, error) {
	s.recordedPayment = &p
	return s.paymentResp, s.paymentErr
}

func (s *stubRepo) RemainingBalance(ctx context.Context, sellerID, orderID int64) (decimal.Decimal, error) {
	return decimal.Zero, nil
}

func (s *stubRepo) IsOverdue(ctx context.Context, sellerID, orderID int64, asOf time.Time) (bool, error) {
	return false, nil
}

func (s *stubRepo) ListInstallments(ctx context.Context, sellerID, orderID int64) ([]model.Installment, error) {
	return s.installments, nil
}

func (s *stubRepo) DueInstallments(ctx context.Context, sellerID int64, asOf time.Time) ([]model.Installment, []model.Installment, error) {
	return nil, nil, nil
}

func (s *stubRepo) ListPayments(ctx context.Context, sellerID int64, orderID *int64) ([]model.Payment, error) {
	return nil, nil
}

func (s *stubRepo) GetDashboardStats(ctx context.Context, sellerID int64, asOf time.Time) (*repository.DashboardStats, error) {
	return nil, nil
}

func (s *stubRepo) MarkOverdue(ctx context.Context, asOf time.Time) (int64, error) {
	return s.markedOverdue, nil
}

func (s *stubRepo) SweepInstallments(ctx context.Context, asOf time.Time) ([]repository.SweepItem, error) {
	return s.sweepItems, nil
}

func (s *stubRepo) ReserveReminder(ctx context.Context, installmentID int64, typ model.ReminderType, day time.Time) (int64, bool, error) {
	s.reserveTypes = append(s.reserveTypes, typ)
	return s.reserveID, s.reserveReserved, s.reserveErr
}

func (s *stubRepo) MarkReminderSent(ctx context.Context, reminderID int64, message string, sentAt time.Time) error {
	s.sentMessages = append(s.sentMessages, message)
	return nil
}

func (s *stubRepo) MarkReminderFailed(ctx context.Context, reminderID int64, message string) error {
	s.failedMessages = append(s.failedMessages, message)
	return nil
}

func (s *stubRepo) ListReminders(ctx context.Context, sellerID int64) ([]model.PaymentReminder, error) {
	return nil, nil
}

func (s *stubRepo) NextScheduleJobs(ctx context.Context, limit int) ([]model.ScheduleJob, error) {
	return s.scheduleJobs, nil
}

func (s *stubRepo) CompleteScheduleJob(ctx context.Context, jobID string) error {
	s.completedJobs = append(s.completedJobs, jobID)
	return nil
}

func (s *stubRepo) FailScheduleJob(ctx context.Context, jobID string, delay time.Duration) error {
	s.failedJobs = append(s.failedJobs, jobID)
	s.failDelays = append(s.failDelays, delay)
	return nil
}

func newTestService(repo Repository, notifier Notifier) *Service {
	return NewService(repo, notifier, zap.NewNop(), 2)
}

func TestRegisterSeller_PropagatesDuplicateError(t *testing.T) {
	repo := &stubRepo{
		createSellerErr: repository.ErrSellerExists,
	}
	svc := newTestService(repo, nil)

	_, err := svc.RegisterSeller(context.Background(), "shop", "pass", "Shop LLC", "shop@example.com")
	if !errors.Is(err, repository.ErrSellerExists) {
		t.Fatalf("expected ErrSellerExists, got %v", err)
	}
}

func TestAuthenticateSeller_InvalidCredentials(t *testing.T) {
	hashed := hashPassword("shop", "correct")
	repo := &stubRepo{
		getSeller: &model.Seller{
			ID:           1,
			Login:        "shop",
			PasswordHash: hashed,
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.AuthenticateSeller(context.Background(), "shop", "wrong")
	if !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials, got %v", err)
	}
}

func TestCreateOrder_RejectsDownPaymentAboveTotal(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	_, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{
		CustomerID:       1,
		ProductID:        1,
		TotalAmount:      decimal.NewFromInt(100),
		DownPayment:      decimal.NewFromInt(100),
		InstallmentCount: 6,
	})
	if !errors.Is(err, schedule.ErrInvalidTerms) {
		t.Fatalf("expected ErrInvalidTerms, got %v", err)
	}
}

func TestCreateOrder_CountOutOfProductRange(t *testing.T) {
	repo := &stubRepo{
		product: &model.Product{
			ID:              1,
			MinInstallments: 3,
			MaxInstallments: 12,
		},
	}
	svc := newTestService(repo, nil)

	_, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{
		CustomerID:       1,
		ProductID:        1,
		TotalAmount:      decimal.NewFromInt(1200),
		DownPayment:      decimal.NewFromInt(200),
		InstallmentCount: 24,
	})
	if !errors.Is(err, ErrInstallmentCountOutOfRange) {
		t.Fatalf("expected ErrInstallmentCountOutOfRange, got %v", err)
	}
}

func TestCreateOrder_ComputesMonthlyPayment(t *testing.T) {
	repo := &stubRepo{
		product: &model.Product{
			ID:              1,
			MinInstallments: 1,
			MaxInstallments: 24,
		},
	}
	svc := newTestService(repo, nil)

	order, err := svc.CreateOrder(context.Background(), 1, CreateOrderInput{
		CustomerID:       1,
		ProductID:        1,
		Quantity:         1,
		TotalAmount:      decimal.RequireFromString("1200.00"),
		DownPayment:      decimal.RequireFromString("300.00"),
		InstallmentCount: 6,
	})
	if err != nil {
		t.Fatalf("CreateOrder error: %v", err)
	}

	want := decimal.RequireFromString("150")
	if !order.MonthlyPayment.Equal(want) {
		t.Fatalf("MonthlyPayment = %s, want %s", order.MonthlyPayment, want)
	}
}

func TestRecordPayment_RejectsNonPositiveAmount(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	_, err := svc.RecordPayment(context.Background(), 1, RecordPaymentInput{
		OrderID: 1,
		Amount:  decimal.Zero,
		Method:  "cash",
	})
	if !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestRecordPayment_RejectsUnknownMethod(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	_, err := svc.RecordPayment(context.Background(), 1, RecordPaymentInput{
		OrderID: 1,
		Amount:  decimal.NewFromInt(10),
		Method:  "crypto",
	})
	if !errors.Is(err, ErrInvalidMethod) {
		t.Fatalf("expected ErrInvalidMethod, got %v", err)
	}
}

func TestRecordPayment_RejectsMalformedReference(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	_, err := svc.RecordPayment(context.Background(), 1, RecordPaymentInput{
		OrderID:   1,
		Amount:    decimal.NewFromInt(10),
		Method:    "cash",
		Reference: "ref with spaces!",
	})
	if !errors.Is(err, ErrInvalidReference) {
		t.Fatalf("expected ErrInvalidReference, got %v", err)
	}
}

func TestRecordPayment_GeneratesReference(t *testing.T) {
	repo := &stubRepo{
		paymentResp: &model.Payment{ID: 1},
	}
	svc := newTestService(repo, nil)

	_, err := svc.RecordPayment(context.Background(), 1, RecordPaymentInput{
		OrderID: 1,
		Amount:  decimal.NewFromInt(10),
		Method:  "cash",
	})
	if err != nil {
		t.Fatalf("RecordPayment error: %v", err)
	}
	if repo.recordedPayment == nil {
		t.Fatal("expected payment to reach repository")
	}
	if repo.recordedPayment.Reference == "" {
		t.Fatal("expected generated reference number")
	}
}

func TestListInstallments_DerivesOverdue(t *testing.T) {
	repo := &stubRepo{
		installments: []model.Installment{
			{
				ID:      1,
				Number:  1,
				DueDate: time.Now().AddDate(0, 0, -5),
				Status:  model.InstallmentStatusPending,
			},
			{
				ID:      2,
				Number:  2,
				DueDate: time.Now().AddDate(0, 0, 25),
				Status:  model.InstallmentStatusPending,
			},
		},
	}
	svc := newTestService(repo, nil)

	installments, err := svc.ListInstallments(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("ListInstallments error: %v", err)
	}

	if installments[0].Status != model.InstallmentStatusOverdue {
		t.Fatalf("installment 1 status = %s, want overdue", installments[0].Status)
	}
	if installments[1].Status != model.InstallmentStatusPending {
		t.Fatalf("installment 2 status = %s, want pending", installments[1].Status)
	}
}

func TestCustomerPortalData_NotFound(t *testing.T) {
	svc := newTestService(&stubRepo{}, nil)

	_, err := svc.CustomerPortalData(context.Background(), 1, 99)
	if !errors.Is(err, repository.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}
}

func TestCustomerPortalData_DerivesInstallmentStatuses(t *testing.T) {
	repo := &stubRepo{
		customer: &model.Customer{ID: 3, FirstName: "John", LastName: "Doe"},
		customerOrders: []model.Order{
			{ID: 7, CustomerID: 3, Status: model.OrderStatusActive},
		},
		installments: []model.Installment{
			{ID: 1, OrderID: 7, Number: 1, DueDate: time.Now().AddDate(0, 0, -10), Status: model.InstallmentStatusPending},
			{ID: 2, OrderID: 7, Number: 2, DueDate: time.Now().AddDate(0, 0, 20), Status: model.InstallmentStatusPending},
		},
		customerPayments: []model.Payment{
			{ID: 5, OrderID: 7},
		},
	}
	svc := newTestService(repo, nil)

	portal, err := svc.CustomerPortalData(context.Background(), 1, 3)
	if err != nil {
		t.Fatalf("CustomerPortalData error: %v", err)
	}

	if portal.Customer.ID != 3 {
		t.Fatalf("customer id = %d, want 3", portal.Customer.ID)
	}
	if len(portal.Orders) != 1 || len(portal.Payments) != 1 {
		t.Fatalf("orders/payments = %d/%d, want 1/1", len(portal.Orders), len(portal.Payments))
	}
	if portal.Installments[0].Status != model.InstallmentStatusOverdue {
		t.Fatalf("installment 1 status = %s, want overdue", portal.Installments[0].Status)
	}
	if portal.Installments[1].Status != model.InstallmentStatusPending {
		t.Fatalf("installment 2 status = %s, want pending", portal.Installments[1].Status)
	}
}

func TestApproveOrder_GeneratesJobID(t *testing.T) {
	repo := &stubRepo{
		createdOrder: &model.Order{ID: 1, Status: model.OrderStatusApproved},
	}
	svc := newTestService(repo, nil)

	_, err := svc.ApproveOrder(context.Background(), 1, 1)
	if err != nil {
		t.Fatalf("ApproveOrder error: %v", err)
	}
	if len(repo.approveCalls) != 1 || repo.approveCalls[0] == "" {
		t.Fatalf("expected one approve call with non-empty job id, got %v", repo.approveCalls)
	}
}
