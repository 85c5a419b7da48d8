// Package model содержит доменные сущности сервиса рассрочек.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Seller представляет продавца — арендатора системы, в рамках которого
// изолированы все данные.
type Seller struct {
	ID           int64
	Login        string
	PasswordHash []byte
	BusinessName string
	Email        string
	CreatedAt    time.Time
}

// Customer представляет покупателя продавца.
type Customer struct {
	ID          int64
	SellerID    int64
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber string
	CreatedAt   time.Time
}

// FullName возвращает полное имя покупателя.
func (c Customer) FullName() string {
	return c.FirstName + " " + c.LastName
}

// Product представляет товар, который продавец предлагает в рассрочку.
type Product struct {
	ID              int64
	SellerID        int64
	Name            string
	SKU             string
	Price           decimal.Decimal
	MinInstallments int
	MaxInstallments int
	Active          bool
	CreatedAt       time.Time
}

// OrderStatus описывает состояние заказа в жизненном цикле.
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusApproved  OrderStatus = "approved"
	OrderStatusActive    OrderStatus = "active"
	OrderStatusCompleted OrderStatus = "completed"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Terminal сообщает, является ли состояние заказа конечным.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCancelled
}

// Order описывает заказ с планом платежей.
// MonthlyPayment всегда вычисляется из TotalAmount, DownPayment и
// InstallmentCount и не меняется независимо от них.
type Order struct {
	ID               int64
	SellerID         int64
	CustomerID       int64
	ProductID        int64
	Quantity         int
	TotalAmount      decimal.Decimal
	DownPayment      decimal.Decimal
	InstallmentCount int
	MonthlyPayment   decimal.Decimal
	Status           OrderStatus
	OrderDate        time.Time
	ApprovedDate     *time.Time
	StartDate        *time.Time
	Notes            string
}

// InstallmentStatus описывает состояние отдельного взноса плана.
type InstallmentStatus string

const (
	InstallmentStatusPending InstallmentStatus = "pending"
	InstallmentStatusPaid    InstallmentStatus = "paid"
	InstallmentStatusOverdue InstallmentStatus = "overdue"
)

// Installment описывает один запланированный взнос заказа.
type Installment struct {
	ID       int64
	OrderID  int64
	Number   int
	Amount   decimal.Decimal
	DueDate  time.Time
	Status   InstallmentStatus
	PaidDate *time.Time
}

// DeriveInstallmentStatus возвращает статус взноса на дату asOf: ожидающий
// взнос с прошедшим сроком считается просроченным. Оплаченный статус конечен
// и не пересматривается. Функция чистая: хранимый статус меняют только
// реконсиляция платежа и явная материализация в обходе напоминаний.
func DeriveInstallmentStatus(ins Installment, asOf time.Time) InstallmentStatus {
	if ins.Status == InstallmentStatusPending && calendarDay(ins.DueDate).Before(calendarDay(asOf)) {
		return InstallmentStatusOverdue
	}
	return ins.Status
}

// calendarDay нормализует момент времени к его календарной дате в UTC.
// Сроки сравниваются по датам, а не по моментам, поэтому временная зона
// хоста на результат не влияет.
func calendarDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// Payment описывает зафиксированный платёж по заказу. Платежи неизменяемы
// после создания; привязка к конкретному взносу необязательна.
type Payment struct {
	ID              int64
	OrderID         int64
	InstallmentID   *int64
	Amount          decimal.Decimal
	Method          string
	PaymentDate     time.Time
	ReferenceNumber string
	Notes           string
	RecordedBy      *int64
}

// ReminderType описывает канал доставки напоминания.
type ReminderType string

const (
	ReminderTypeEmail ReminderType = "email"
	ReminderTypeSMS   ReminderType = "sms"
	ReminderTypeInApp ReminderType = "in_app"
)

// ReminderStatus описывает состояние напоминания.
type ReminderStatus string

const (
	ReminderStatusPending ReminderStatus = "pending"
	ReminderStatusSent    ReminderStatus = "sent"
	ReminderStatusFailed  ReminderStatus = "failed"
)

// PaymentReminder описывает напоминание о платеже. Логически существует не
// более одного напоминания на тройку (взнос, канал, календарный день).
type PaymentReminder struct {
	ID            int64
	InstallmentID int64
	Type          ReminderType
	ScheduledDate time.Time
	SentDate      *time.Time
	Status        ReminderStatus
	Message       string
}

// ScheduleJob описывает отложенную задачу генерации графика платежей,
// записанную в одной транзакции с одобрением заказа.
type ScheduleJob struct {
	ID        string
	OrderID   int64
	Attempts  int
	CreatedAt time.Time
}
