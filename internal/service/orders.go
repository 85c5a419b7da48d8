package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
	"github.com/mmeshcher/installment-system/internal/schedule"
	"github.com/mmeshcher/installment-system/internal/validation"
)

// CreateOrderInput описывает параметры создания заказа.
type CreateOrderInput struct {
	CustomerID       int64
	ProductID        int64
	Quantity         int
	TotalAmount      decimal.Decimal
	DownPayment      decimal.Decimal
	InstallmentCount int
	Notes            string
}

// CreateOrder создаёт заказ в статусе pending с вычисленным ежемесячным
// взносом. Количество взносов дополнительно ограничено пределами товара.
func (s *Service) CreateOrder(ctx context.Context, sellerID int64, in CreateOrderInput) (*model.Order, error) {
	if in.Quantity < 1 {
		in.Quantity = 1
	}

	monthly, err := schedule.MonthlyPayment(in.TotalAmount, in.DownPayment, in.InstallmentCount)
	if err != nil {
		return nil, err
	}

	product, err := s.repo.GetProduct(ctx, sellerID, in.ProductID)
	if err != nil {
		return nil, err
	}
	if in.InstallmentCount < product.MinInstallments || in.InstallmentCount > product.MaxInstallments {
		return nil, ErrInstallmentCountOutOfRange
	}

	return s.repo.CreateOrder(ctx, model.Order{
		SellerID:         sellerID,
		CustomerID:       in.CustomerID,
		ProductID:        in.ProductID,
		Quantity:         in.Quantity,
		TotalAmount:      in.TotalAmount,
		DownPayment:      in.DownPayment,
		InstallmentCount: in.InstallmentCount,
		MonthlyPayment:   monthly,
		Notes:            in.Notes,
	})
}

// GetOrder возвращает заказ продавца.
func (s *Service) GetOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error) {
	return s.repo.GetOrder(ctx, sellerID, orderID)
}

// ListOrders возвращает заказы продавца с необязательным фильтром по статусу.
func (s *Service) ListOrders(ctx context.Context, sellerID int64, status model.OrderStatus) ([]model.Order, error) {
	return s.repo.ListOrders(ctx, sellerID, status)
}

// ApproveOrder одобряет заказ: переход pending -> approved, фиксация дат и
// постановка генерации графика в очередь происходят одной транзакцией.
// График создаёт фоновый обработчик очереди.
func (s *Service) ApproveOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error) {
	return s.repo.ApproveOrder(ctx, sellerID, orderID, uuid.NewString(), time.Now())
}

// CancelOrder отменяет заказ в любом неконечном статусе.
func (s *Service) CancelOrder(ctx context.Context, sellerID, orderID int64) error {
	return s.repo.CancelOrder(ctx, sellerID, orderID)
}

// RecordPaymentInput описывает параметры фиксации платежа.
type RecordPaymentInput struct {
	OrderID       int64
	InstallmentID *int64
	Amount        decimal.Decimal
	Method        string
	Reference     string
	Notes         string
	RecordedBy    *int64
}

// RecordPayment фиксирует платёж по заказу. Сумма должна быть строго
// положительной; при отсутствии внешнего номера документа генерируется
// собственный. Частичный платёж не помечает взнос оплаченным и не
// накапливается с другими частичными платежами.
func (s *Service) RecordPayment(ctx context.Context, sellerID int64, in RecordPaymentInput) (*model.Payment, error) {
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !validation.IsValidPaymentMethod(in.Method) {
		return nil, ErrInvalidMethod
	}
	if !validation.IsValidReference(in.Reference) {
		return nil, ErrInvalidReference
	}

	reference := in.Reference
	if reference == "" {
		reference = uuid.NewString()
	}

	return s.repo.RecordPayment(ctx, repository.RecordPaymentParams{
		SellerID:      sellerID,
		OrderID:       in.OrderID,
		InstallmentID: in.InstallmentID,
		Amount:        in.Amount,
		Method:        in.Method,
		Reference:     reference,
		Notes:         in.Notes,
		RecordedBy:    in.RecordedBy,
		At:            time.Now(),
	})
}

// RemainingBalance возвращает остаток по заказу; отрицательное значение
// означает переплату и не обрезается.
func (s *Service) RemainingBalance(ctx context.Context, sellerID, orderID int64) (decimal.Decimal, error) {
	return s.repo.RemainingBalance(ctx, sellerID, orderID)
}

// IsOverdue сообщает, есть ли у заказа просроченные взносы на сегодня.
func (s *Service) IsOverdue(ctx context.Context, sellerID, orderID int64) (bool, error) {
	return s.repo.IsOverdue(ctx, sellerID, orderID, time.Now())
}

// ListInstallments возвращает взносы заказа; статусы отдаются производными
// на текущую дату, хранимое состояние при этом не меняется.
func (s *Service) ListInstallments(ctx context.Context, sellerID, orderID int64) ([]model.Installment, error) {
	installments, err := s.repo.ListInstallments(ctx, sellerID, orderID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range installments {
		installments[i].Status = model.DeriveInstallmentStatus(installments[i], now)
	}
	return installments, nil
}

// DueInstallments возвращает взносы продавца со сроком сегодня и просроченные.
func (s *Service) DueInstallments(ctx context.Context, sellerID int64) (dueToday, overdue []model.Installment, err error) {
	return s.repo.DueInstallments(ctx, sellerID, time.Now())
}

// CustomerPortal содержит данные портала покупателя: его заказы, график
// взносов по ним и историю платежей.
type CustomerPortal struct {
	Customer     model.Customer
	Orders       []model.Order
	Installments []model.Installment
	Payments     []model.Payment
}

// CustomerPortalData собирает данные портала одного покупателя продавца.
// Статусы взносов отдаются производными на текущую дату.
func (s *Service) CustomerPortalData(ctx context.Context, sellerID, customerID int64) (*CustomerPortal, error) {
	customer, err := s.repo.GetCustomer(ctx, sellerID, customerID)
	if err != nil {
		return nil, err
	}

	orders, err := s.repo.ListCustomerOrders(ctx, sellerID, customerID)
	if err != nil {
		return nil, err
	}

	installments, err := s.repo.ListCustomerInstallments(ctx, sellerID, customerID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	for i := range installments {
		installments[i].Status = model.DeriveInstallmentStatus(installments[i], now)
	}

	payments, err := s.repo.ListCustomerPayments(ctx, sellerID, customerID)
	if err != nil {
		return nil, err
	}

	return &CustomerPortal{
		Customer:     *customer,
		Orders:       orders,
		Installments: installments,
		Payments:     payments,
	}, nil
}

// ListPayments возвращает платежи продавца, опционально по одному заказу.
func (s *Service) ListPayments(ctx context.Context, sellerID int64, orderID *int64) ([]model.Payment, error) {
	return s.repo.ListPayments(ctx, sellerID, orderID)
}

// GetDashboardStats возвращает сводные показатели продавца.
func (s *Service) GetDashboardStats(ctx context.Context, sellerID int64) (*repository.DashboardStats, error) {
	return s.repo.GetDashboardStats(ctx, sellerID, time.Now())
}
