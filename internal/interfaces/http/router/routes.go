package router

import (
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/interfaces/http/handler"
	"github.com/synexa/sis/internal/interfaces/http/middleware"
)

// Role guards per route; the services enforce the same sets
var (
	managers = middleware.RequireRoles(finance.BillingManagerRoles...)
	readers  = middleware.RequireRoles(finance.BillingReaderRoles...)
	analysts = middleware.RequireRoles(finance.ReportReaderRoles...)
)

// InvoiceRoutes declares /invoices
func InvoiceRoutes(h *handler.InvoiceHandler) *Resource {
	g := NewResource("invoices", "/invoices")
	g.POST("", managers, h.CreateInvoice)
	g.GET("", readers, h.ListInvoices)
	g.GET("/:id", readers, h.GetInvoice)
	g.POST("/:id/cancel", managers, h.CancelInvoice)
	g.POST("/:id/pay", managers, h.PayInvoice)
	return g
}

// PaymentRoutes declares /payments
func PaymentRoutes(h *handler.PaymentHandler) *Resource {
	g := NewResource("payments", "/payments")
	g.GET("/:id", readers, h.GetPayment)
	g.POST("/:id/cancel", managers, h.CancelPayment)
	return g
}

// PlanRoutes declares /payment-plans
func PlanRoutes(h *handler.PlanHandler) *Resource {
	g := NewResource("payment-plans", "/payment-plans")
	g.POST("", managers, h.CreatePlan)
	g.GET("", readers, h.ListPlans)
	g.GET("/:id", readers, h.GetPlan)
	g.PUT("/:id", managers, h.UpdatePlan)
	g.POST("/:id/activate", managers, h.ActivatePlan)
	g.POST("/:id/deactivate", managers, h.DeactivatePlan)
	g.POST("/:id/generate", managers, h.GenerateInvoices)
	return g
}

// ReportRoutes declares /financial
func ReportRoutes(h *handler.ReportHandler) *Resource {
	g := NewResource("reports", "/financial").Use(analysts)
	g.GET("/defaulters", h.ListDefaulters)
	g.POST("/defaulters/export", h.ExportDefaulters)
	g.GET("/summary", h.RevenueSummary)
	return g
}
