package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

// InvoiceService is implemented by appfinance.InvoiceService
type InvoiceService interface {
	CreateInvoice(ctx context.Context, rc finance.RequestContext, in appfinance.CreateInvoiceInput) (*appfinance.InvoiceResponse, error)
	CancelInvoice(ctx context.Context, rc finance.RequestContext, invoiceID uuid.UUID, reason string) (*appfinance.InvoiceResponse, error)
	GetInvoice(ctx context.Context, rc finance.RequestContext, invoiceID uuid.UUID) (*appfinance.InvoiceDetailResponse, error)
	ListInvoices(ctx context.Context, rc finance.RequestContext, q appfinance.InvoiceListQuery) (*shared.Paginated[appfinance.InvoiceResponse], error)
}

// PaymentService is implemented by appfinance.PaymentRecorder
type PaymentService interface {
	RecordPayment(ctx context.Context, rc finance.RequestContext, in appfinance.RecordPaymentInput) (*appfinance.PaymentResult, error)
	CancelPayment(ctx context.Context, rc finance.RequestContext, paymentID uuid.UUID, reason string) (*appfinance.PaymentResult, error)
	GetPayment(ctx context.Context, rc finance.RequestContext, paymentID uuid.UUID) (*appfinance.PaymentResponse, error)
}

// PlanService is implemented by appfinance.InvoicingService
type PlanService interface {
	CreatePlan(ctx context.Context, rc finance.RequestContext, in appfinance.PlanInput) (*appfinance.PlanResponse, error)
	UpdatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID, in appfinance.PlanInput) (*appfinance.PlanResponse, error)
	ActivatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID) (*appfinance.PlanResponse, error)
	DeactivatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID) (*appfinance.PlanResponse, error)
	GetPlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID) (*appfinance.PlanResponse, error)
	ListPlans(ctx context.Context, rc finance.RequestContext, q appfinance.PlanListQuery) (*shared.Paginated[appfinance.PlanResponse], error)
	GenerateInvoices(ctx context.Context, rc finance.RequestContext, in appfinance.GenerateInvoicesInput) (*appfinance.GenerateInvoicesResult, error)
}

// ReportService is implemented by appfinance.ReportingService
type ReportService interface {
	ListDefaulters(ctx context.Context, rc finance.RequestContext, asOf time.Time) (*appfinance.DefaulterListResponse, error)
	RevenueSummary(ctx context.Context, rc finance.RequestContext, from, to time.Time) (*appfinance.RevenueSummaryResponse, error)
	ExportDefaulters(ctx context.Context, rc finance.RequestContext, asOf time.Time) (*appfinance.ExportResult, error)
}

var (
	_ InvoiceService = (*appfinance.InvoiceService)(nil)
	_ PaymentService = (*appfinance.PaymentRecorder)(nil)
	_ PlanService    = (*appfinance.InvoicingService)(nil)
	_ ReportService  = (*appfinance.ReportingService)(nil)
)
