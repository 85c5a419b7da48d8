// Package handler содержит HTTP-обработчики API сервиса рассрочек.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/mmeshcher/installment-system/internal/middleware"
	"github.com/mmeshcher/installment-system/internal/model"
	"github.com/mmeshcher/installment-system/internal/repository"
	"github.com/mmeshcher/installment-system/internal/schedule"
	"github.com/mmeshcher/installment-system/internal/service"
)

// Service определяет контракт бизнес-логики, используемой HTTP-обработчиками.
type Service interface {
	RegisterSeller(ctx context.Context, login, password, businessName, email string) (int64, error)
	AuthenticateSeller(ctx context.Context, login, password string) (int64, error)

	CreateCustomer(ctx context.Context, c model.Customer) (int64, error)
	ListCustomers(ctx context.Context, sellerID int64) ([]model.Customer, error)
	CustomerPortalData(ctx context.Context, sellerID, customerID int64) (*service.CustomerPortal, error)
	CreateProduct(ctx context.Context, p model.Product) (int64, error)
	ListProducts(ctx context.Context, sellerID int64) ([]model.Product, error)

	CreateOrder(ctx context.Context, sellerID int64, in service.CreateOrderInput) (*model.Order, error)
	GetOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context, sellerID int64, status model.OrderStatus) ([]model.Order, error)
	ApproveOrder(ctx context.Context, sellerID, orderID int64) (*model.Order, error)
	CancelOrder(ctx context.Context, sellerID, orderID int64) error

	RecordPayment(ctx context.Context, sellerID int64, in service.RecordPaymentInput) (*model.Payment, error)
	RemainingBalance(ctx context.Context, sellerID, orderID int64) (decimal.Decimal, error)
	IsOverdue(ctx context.Context, sellerID, orderID int64) (bool, error)
	ListInstallments(ctx context.Context, sellerID, orderID int64) ([]model.Installment, error)
	DueInstallments(ctx context.Context, sellerID int64) (dueToday, overdue []model.Installment, err error)
	ListPayments(ctx context.Context, sellerID int64, orderID *int64) ([]model.Payment, error)
	GetDashboardStats(ctx context.Context, sellerID int64) (*repository.DashboardStats, error)
	ListReminders(ctx context.Context, sellerID int64) ([]model.PaymentReminder, error)
	ExportPayments(ctx context.Context, sellerID int64, orderID *int64) (*excelize.File, error)
}

// Handler реализует HTTP-обработчики API сервиса рассрочек.
type Handler struct {
	service        Service
	logger         *zap.Logger
	authMiddleware *middleware.AuthMiddleware
}

// NewHandler создаёт новый экземпляр обработчика HTTP-запросов.
func NewHandler(s Service, logger *zap.Logger, auth *middleware.AuthMiddleware) *Handler {
	return &Handler{
		service:        s,
		logger:         logger,
		authMiddleware: auth,
	}
}

type registerRequest struct {
	Login        string `json:"login"`
	Password     string `json:"password"`
	BusinessName string `json:"business_name"`
	Email        string `json:"email"`
}

// Register обрабатывает регистрацию нового продавца.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sellerID, err := h.service.RegisterSeller(r.Context(), req.Login, req.Password, req.BusinessName, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrSellerExists) {
			http.Error(w, http.StatusText(http.StatusConflict), http.StatusConflict)
			return
		}
		h.logger.Error("register seller error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, sellerID)
	w.WriteHeader(http.StatusOK)
}

type credentialsRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

// Login выполняет аутентификацию продавца и установку cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	if req.Login == "" || req.Password == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	sellerID, err := h.service.AuthenticateSeller(r.Context(), req.Login, req.Password)
	if err != nil {
		if errors.Is(err, repository.ErrSellerNotFound) || errors.Is(err, service.ErrInvalidCredentials) {
			http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
			return
		}
		h.logger.Error("login seller error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.authMiddleware.SetAuthCookie(w, sellerID)
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) sellerID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	sellerID, ok := middleware.GetSellerIDFromContext(r.Context())
	if !ok {
		http.Error(w, http.StatusText(http.StatusUnauthorized), http.StatusUnauthorized)
		return 0, false
	}
	return sellerID, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("encode response error", zap.Error(err))
	}
}

type customerRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number"`
}

// CreateCustomer создаёт покупателя текущего продавца.
func (h *Handler) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var req customerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.FirstName == "" || req.LastName == "" || req.Email == "" {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateCustomer(r.Context(), model.Customer{
		SellerID:    sellerID,
		FirstName:   req.FirstName,
		LastName:    req.LastName,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
	})
	if err != nil {
		h.logger.Error("create customer error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type customerResponse struct {
	ID          int64  `json:"id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	PhoneNumber string `json:"phone_number,omitempty"`
}

// ListCustomers возвращает покупателей текущего продавца.
func (h *Handler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	customers, err := h.service.ListCustomers(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("list customers error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(customers) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]customerResponse, 0, len(customers))
	for _, c := range customers {
		resp = append(resp, customerResponse{
			ID:          c.ID,
			FirstName:   c.FirstName,
			LastName:    c.LastName,
			Email:       c.Email,
			PhoneNumber: c.PhoneNumber,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type customerPortalResponse struct {
	Customer     customerResponse      `json:"customer"`
	Orders       []orderResponse       `json:"orders"`
	Installments []installmentResponse `json:"installments"`
	Payments     []paymentResponse     `json:"payments"`
}

// GetCustomerPortal возвращает портальные данные одного покупателя: его
// заказы, график взносов и историю платежей.
func (h *Handler) GetCustomerPortal(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	customerID, err := strconv.ParseInt(chi.URLParam(r, "customerID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	portal, err := h.service.CustomerPortalData(r.Context(), sellerID, customerID)
	if err != nil {
		if errors.Is(err, repository.ErrCustomerNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("customer portal error", zap.Error(err), zap.Int64("customerID", customerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	resp := customerPortalResponse{
		Customer: customerResponse{
			ID:          portal.Customer.ID,
			FirstName:   portal.Customer.FirstName,
			LastName:    portal.Customer.LastName,
			Email:       portal.Customer.Email,
			PhoneNumber: portal.Customer.PhoneNumber,
		},
		Orders:       make([]orderResponse, 0, len(portal.Orders)),
		Installments: toInstallmentResponses(portal.Installments),
		Payments:     make([]paymentResponse, 0, len(portal.Payments)),
	}
	for i := range portal.Orders {
		resp.Orders = append(resp.Orders, toOrderResponse(&portal.Orders[i]))
	}
	for i := range portal.Payments {
		resp.Payments = append(resp.Payments, toPaymentResponse(&portal.Payments[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type productRequest struct {
	Name            string          `json:"name"`
	SKU             string          `json:"sku"`
	Price           decimal.Decimal `json:"price"`
	MinInstallments int             `json:"min_installments"`
	MaxInstallments int             `json:"max_installments"`
}

// CreateProduct создаёт товар текущего продавца.
func (h *Handler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var req productRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.SKU == "" || req.Price.IsNegative() {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	id, err := h.service.CreateProduct(r.Context(), model.Product{
		SellerID:        sellerID,
		Name:            req.Name,
		SKU:             req.SKU,
		Price:           req.Price,
		MinInstallments: req.MinInstallments,
		MaxInstallments: req.MaxInstallments,
		Active:          true,
	})
	if err != nil {
		h.logger.Error("create product error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusCreated, map[string]int64{"id": id})
}

type productResponse struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	SKU             string `json:"sku"`
	Price           string `json:"price"`
	MinInstallments int    `json:"min_installments"`
	MaxInstallments int    `json:"max_installments"`
	Active          bool   `json:"active"`
}

// ListProducts возвращает товары текущего продавца.
func (h *Handler) ListProducts(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	products, err := h.service.ListProducts(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("list products error", zap.Error(err))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(products) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]productResponse, 0, len(products))
	for _, p := range products {
		resp = append(resp, productResponse{
			ID:              p.ID,
			Name:            p.Name,
			SKU:             p.SKU,
			Price:           p.Price.String(),
			MinInstallments: p.MinInstallments,
			MaxInstallments: p.MaxInstallments,
			Active:          p.Active,
		})
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type orderRequest struct {
	CustomerID       int64           `json:"customer_id"`
	ProductID        int64           `json:"product_id"`
	Quantity         int             `json:"quantity"`
	TotalAmount      decimal.Decimal `json:"total_amount"`
	DownPayment      decimal.Decimal `json:"down_payment"`
	InstallmentCount int             `json:"installment_count"`
	Notes            string          `json:"notes"`
}

type orderResponse struct {
	ID               int64  `json:"id"`
	CustomerID       int64  `json:"customer_id"`
	ProductID        int64  `json:"product_id"`
	Quantity         int    `json:"quantity"`
	TotalAmount      string `json:"total_amount"`
	DownPayment      string `json:"down_payment"`
	InstallmentCount int    `json:"installment_count"`
	MonthlyPayment   string `json:"monthly_payment"`
	Status           string `json:"status"`
	OrderDate        string `json:"order_date"`
	ApprovedDate     string `json:"approved_date,omitempty"`
	StartDate        string `json:"start_date,omitempty"`
	Notes            string `json:"notes,omitempty"`
}

func toOrderResponse(o *model.Order) orderResponse {
	resp := orderResponse{
		ID:               o.ID,
		CustomerID:       o.CustomerID,
		ProductID:        o.ProductID,
		Quantity:         o.Quantity,
		TotalAmount:      o.TotalAmount.String(),
		DownPayment:      o.DownPayment.String(),
		InstallmentCount: o.InstallmentCount,
		MonthlyPayment:   o.MonthlyPayment.String(),
		Status:           string(o.Status),
		OrderDate:        o.OrderDate.Format(time.RFC3339),
		Notes:            o.Notes,
	}
	if o.ApprovedDate != nil {
		resp.ApprovedDate = o.ApprovedDate.Format(time.RFC3339)
	}
	if o.StartDate != nil {
		resp.StartDate = o.StartDate.Format("2006-01-02")
	}
	return resp
}

// CreateOrder создаёт заказ текущего продавца.
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var req orderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	order, err := h.service.CreateOrder(r.Context(), sellerID, service.CreateOrderInput{
		CustomerID:       req.CustomerID,
		ProductID:        req.ProductID,
		Quantity:         req.Quantity,
		TotalAmount:      req.TotalAmount,
		DownPayment:      req.DownPayment,
		InstallmentCount: req.InstallmentCount,
		Notes:            req.Notes,
	})
	if err != nil {
		switch {
		case errors.Is(err, schedule.ErrInvalidTerms), errors.Is(err, service.ErrInstallmentCountOutOfRange):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, repository.ErrCustomerNotFound), errors.Is(err, repository.ErrProductNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		default:
			h.logger.Error("create order error", zap.Error(err))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, toOrderResponse(order))
}

// ListOrders возвращает заказы текущего продавца.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	status := model.OrderStatus(r.URL.Query().Get("status"))

	orders, err := h.service.ListOrders(r.Context(), sellerID, status)
	if err != nil {
		h.logger.Error("list orders error", zap.Error(err), zap.Int64("sellerID", sellerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(orders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]orderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) orderID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "orderID"), 10, 64)
	if err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

type installmentResponse struct {
	ID       int64  `json:"id"`
	Number   int    `json:"installment_number"`
	Amount   string `json:"amount"`
	DueDate  string `json:"due_date"`
	Status   string `json:"status"`
	PaidDate string `json:"paid_date,omitempty"`
}

func toInstallmentResponses(installments []model.Installment) []installmentResponse {
	resp := make([]installmentResponse, 0, len(installments))
	for _, ins := range installments {
		ir := installmentResponse{
			ID:      ins.ID,
			Number:  ins.Number,
			Amount:  ins.Amount.String(),
			DueDate: ins.DueDate.Format("2006-01-02"),
			Status:  string(ins.Status),
		}
		if ins.PaidDate != nil {
			ir.PaidDate = ins.PaidDate.Format("2006-01-02")
		}
		resp = append(resp, ir)
	}
	return resp
}

type orderDetailResponse struct {
	orderResponse
	RemainingBalance string                `json:"remaining_balance"`
	IsOverdue        bool                  `json:"is_overdue"`
	Installments     []installmentResponse `json:"installments"`
}

// GetOrder возвращает заказ с производными показателями и графиком взносов.
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.GetOrder(r.Context(), sellerID, orderID)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
			return
		}
		h.logger.Error("get order error", zap.Error(err), zap.Int64("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	balance, err := h.service.RemainingBalance(r.Context(), sellerID, orderID)
	if err != nil {
		h.logger.Error("remaining balance error", zap.Error(err), zap.Int64("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	overdue, err := h.service.IsOverdue(r.Context(), sellerID, orderID)
	if err != nil {
		h.logger.Error("is overdue error", zap.Error(err), zap.Int64("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	installments, err := h.service.ListInstallments(r.Context(), sellerID, orderID)
	if err != nil {
		h.logger.Error("list installments error", zap.Error(err), zap.Int64("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, orderDetailResponse{
		orderResponse:    toOrderResponse(order),
		RemainingBalance: balance.String(),
		IsOverdue:        overdue,
		Installments:     toInstallmentResponses(installments),
	})
}

// ApproveOrder одобряет заказ текущего продавца.
func (h *Handler) ApproveOrder(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	order, err := h.service.ApproveOrder(r.Context(), sellerID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("approve order error", zap.Error(err), zap.Int64("orderID", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusOK, toOrderResponse(order))
}

// CancelOrder отменяет заказ текущего продавца.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	err := h.service.CancelOrder(r.Context(), sellerID, orderID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrOrderNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		case errors.Is(err, repository.ErrInvalidTransition):
			http.Error(w, err.Error(), http.StatusConflict)
		default:
			h.logger.Error("cancel order error", zap.Error(err), zap.Int64("orderID", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	w.WriteHeader(http.StatusOK)
}

type paymentRequest struct {
	InstallmentID   *int64          `json:"installment_id"`
	Amount          decimal.Decimal `json:"amount"`
	Method          string          `json:"method"`
	ReferenceNumber string          `json:"reference_number"`
	Notes           string          `json:"notes"`
}

type paymentResponse struct {
	ID              int64  `json:"id"`
	OrderID         int64  `json:"order_id"`
	InstallmentID   *int64 `json:"installment_id,omitempty"`
	Amount          string `json:"amount"`
	Method          string `json:"method"`
	PaymentDate     string `json:"payment_date"`
	ReferenceNumber string `json:"reference_number"`
	Notes           string `json:"notes,omitempty"`
}

func toPaymentResponse(p *model.Payment) paymentResponse {
	return paymentResponse{
		ID:              p.ID,
		OrderID:         p.OrderID,
		InstallmentID:   p.InstallmentID,
		Amount:          p.Amount.String(),
		Method:          p.Method,
		PaymentDate:     p.PaymentDate.Format(time.RFC3339),
		ReferenceNumber: p.ReferenceNumber,
		Notes:           p.Notes,
	}
}

// RecordPayment фиксирует платёж по заказу текущего продавца.
func (h *Handler) RecordPayment(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	var req paymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
		return
	}

	payment, err := h.service.RecordPayment(r.Context(), sellerID, service.RecordPaymentInput{
		OrderID:       orderID,
		InstallmentID: req.InstallmentID,
		Amount:        req.Amount,
		Method:        req.Method,
		Reference:     req.ReferenceNumber,
		Notes:         req.Notes,
		RecordedBy:    &sellerID,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAmount), errors.Is(err, service.ErrInvalidMethod),
			errors.Is(err, service.ErrInvalidReference):
			http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		case errors.Is(err, repository.ErrOrderNotFound), errors.Is(err, repository.ErrInstallmentNotFound):
			http.Error(w, http.StatusText(http.StatusNotFound), http.StatusNotFound)
		default:
			h.logger.Error("record payment error", zap.Error(err), zap.Int64("orderID", orderID))
			http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		}
		return
	}

	h.writeJSON(w, http.StatusCreated, toPaymentResponse(payment))
}

// ListOrderPayments возвращает платежи одного заказа.
func (h *Handler) ListOrderPayments(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}
	orderID, ok := h.orderID(w, r)
	if !ok {
		return
	}

	payments, err := h.service.ListPayments(r.Context(), sellerID, &orderID)
	if err != nil {
		h.logger.Error("list payments error", zap.Error(err), zap.Int64("orderID", orderID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(payments) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]paymentResponse, 0, len(payments))
	for i := range payments {
		resp = append(resp, toPaymentResponse(&payments[i]))
	}

	h.writeJSON(w, http.StatusOK, resp)
}

type dueInstallmentsResponse struct {
	DueToday []installmentResponse `json:"due_today"`
	Overdue  []installmentResponse `json:"overdue"`
}

// DueInstallments возвращает взносы со сроком сегодня и просроченные.
func (h *Handler) DueInstallments(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	dueToday, overdue, err := h.service.DueInstallments(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("due installments error", zap.Error(err), zap.Int64("sellerID", sellerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	h.writeJSON(w, http.StatusOK, dueInstallmentsResponse{
		DueToday: toInstallmentResponses(dueToday),
		Overdue:  toInstallmentResponses(overdue),
	})
}

type dashboardResponse struct {
	Orders struct {
		Total   int `json:"total"`
		Pending int `json:"pending"`
		Active  int `json:"active"`
	} `json:"orders"`
	Payments struct {
		TotalRevenue string `json:"total_revenue"`
	} `json:"payments"`
	Installments struct {
		DueToday           int    `json:"due_today"`
		Overdue            int    `json:"overdue"`
		OutstandingBalance string `json:"outstanding_balance"`
	} `json:"installments"`
}

// Dashboard возвращает сводные показатели текущего продавца.
func (h *Handler) Dashboard(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	stats, err := h.service.GetDashboardStats(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("dashboard stats error", zap.Error(err), zap.Int64("sellerID", sellerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var resp dashboardResponse
	resp.Orders.Total = stats.TotalOrders
	resp.Orders.Pending = stats.PendingOrders
	resp.Orders.Active = stats.ActiveOrders
	resp.Payments.TotalRevenue = stats.TotalRevenue.String()
	resp.Installments.DueToday = stats.DueTodayCount
	resp.Installments.Overdue = stats.OverdueCount
	resp.Installments.OutstandingBalance = stats.OutstandingBalance.String()

	h.writeJSON(w, http.StatusOK, resp)
}

type reminderResponse struct {
	ID            int64  `json:"id"`
	InstallmentID int64  `json:"installment_id"`
	Type          string `json:"reminder_type"`
	ScheduledDate string `json:"scheduled_date"`
	SentDate      string `json:"sent_date,omitempty"`
	Status        string `json:"status"`
	Message       string `json:"message"`
}

// ListReminders возвращает напоминания текущего продавца.
func (h *Handler) ListReminders(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	reminders, err := h.service.ListReminders(r.Context(), sellerID)
	if err != nil {
		h.logger.Error("list reminders error", zap.Error(err), zap.Int64("sellerID", sellerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	if len(reminders) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	resp := make([]reminderResponse, 0, len(reminders))
	for _, rem := range reminders {
		rr := reminderResponse{
			ID:            rem.ID,
			InstallmentID: rem.InstallmentID,
			Type:          string(rem.Type),
			ScheduledDate: rem.ScheduledDate.Format(time.RFC3339),
			Status:        string(rem.Status),
			Message:       rem.Message,
		}
		if rem.SentDate != nil {
			rr.SentDate = rem.SentDate.Format(time.RFC3339)
		}
		resp = append(resp, rr)
	}

	h.writeJSON(w, http.StatusOK, resp)
}

// ExportPayments отдаёт XLSX-отчёт по платежам текущего продавца.
func (h *Handler) ExportPayments(w http.ResponseWriter, r *http.Request) {
	sellerID, ok := h.sellerID(w, r)
	if !ok {
		return
	}

	var orderID *int64
	if raw := r.URL.Query().Get("order_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, http.StatusText(http.StatusBadRequest), http.StatusBadRequest)
			return
		}
		orderID = &id
	}

	f, err := h.service.ExportPayments(r.Context(), sellerID, orderID)
	if err != nil {
		h.logger.Error("export payments error", zap.Error(err), zap.Int64("sellerID", sellerID))
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="payments.xlsx"`)

	if err := f.Write(w); err != nil {
		h.logger.Error("write workbook error", zap.Error(err))
	}
}
