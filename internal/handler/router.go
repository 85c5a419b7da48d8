package handler

import (
	"github.com/go-chi/chi/v5"

	"github.com/mmeshcher/installment-system/internal/middleware"
)

// SetupRouter настраивает маршруты API и подключает middleware.
func (h *Handler) SetupRouter() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.GzipMiddleware)

	r.Route("/api", func(r chi.Router) {
		r.Post("/seller/register", h.Register)
		r.Post("/seller/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(h.authMiddleware.Middleware)

			r.Post("/customers", h.CreateCustomer)
			r.Get("/customers", h.ListCustomers)
			r.Get("/customers/{customerID}/portal", h.GetCustomerPortal)

			r.Post("/products", h.CreateProduct)
			r.Get("/products", h.ListProducts)

			r.Post("/orders", h.CreateOrder)
			r.Get("/orders", h.ListOrders)
			r.Route("/orders/{orderID}", func(r chi.Router) {
				r.Get("/", h.GetOrder)
				r.Post("/approve", h.ApproveOrder)
				r.Post("/cancel", h.CancelOrder)
				r.Post("/payments", h.RecordPayment)
				r.Get("/payments", h.ListOrderPayments)
			})

			r.Get("/installments/due", h.DueInstallments)
			r.Get("/dashboard", h.Dashboard)
			r.Get("/reminders", h.ListReminders)
			r.Get("/payments/export", h.ExportPayments)
		})
	})

	return r
}
