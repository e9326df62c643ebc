package handler

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

type mockInvoiceService struct{ mock.Mock }

func (m *mockInvoiceService) CreateInvoice(ctx context.Context, rc finance.RequestContext, in appfinance.CreateInvoiceInput) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, rc, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) CancelInvoice(ctx context.Context, rc finance.RequestContext, id uuid.UUID, reason string) (*appfinance.InvoiceResponse, error) {
	args := m.Called(ctx, rc, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.InvoiceResponse), args.Error(1)
}

func (m *mockInvoiceService) GetInvoice(ctx context.Context, rc finance.RequestContext, id uuid.UUID) (*appfinance.InvoiceDetailResponse, error) {
	args := m.Called(ctx, rc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.InvoiceDetailResponse), args.Error(1)
}

func (m *mockInvoiceService) ListInvoices(ctx context.Context, rc finance.RequestContext, q appfinance.InvoiceListQuery) (*shared.Paginated[appfinance.InvoiceResponse], error) {
	args := m.Called(ctx, rc, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appfinance.InvoiceResponse]), args.Error(1)
}

type mockPaymentService struct{ mock.Mock }

func (m *mockPaymentService) RecordPayment(ctx context.Context, rc finance.RequestContext, in appfinance.RecordPaymentInput) (*appfinance.PaymentResult, error) {
	args := m.Called(ctx, rc, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.PaymentResult), args.Error(1)
}

func (m *mockPaymentService) CancelPayment(ctx context.Context, rc finance.RequestContext, id uuid.UUID, reason string) (*appfinance.PaymentResult, error) {
	args := m.Called(ctx, rc, id, reason)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.PaymentResult), args.Error(1)
}

func (m *mockPaymentService) GetPayment(ctx context.Context, rc finance.RequestContext, id uuid.UUID) (*appfinance.PaymentResponse, error) {
	args := m.Called(ctx, rc, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.PaymentResponse), args.Error(1)
}

type mockPlanService struct{ mock.Mock }

func (m *mockPlanService) plan(args mock.Arguments) (*appfinance.PlanResponse, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.PlanResponse), args.Error(1)
}

func (m *mockPlanService) CreatePlan(ctx context.Context, rc finance.RequestContext, in appfinance.PlanInput) (*appfinance.PlanResponse, error) {
	return m.plan(m.Called(ctx, rc, in))
}

func (m *mockPlanService) UpdatePlan(ctx context.Context, rc finance.RequestContext, id uuid.UUID, in appfinance.PlanInput) (*appfinance.PlanResponse, error) {
	return m.plan(m.Called(ctx, rc, id, in))
}

func (m *mockPlanService) ActivatePlan(ctx context.Context, rc finance.RequestContext, id uuid.UUID) (*appfinance.PlanResponse, error) {
	return m.plan(m.Called(ctx, rc, id))
}

func (m *mockPlanService) DeactivatePlan(ctx context.Context, rc finance.RequestContext, id uuid.UUID) (*appfinance.PlanResponse, error) {
	return m.plan(m.Called(ctx, rc, id))
}

func (m *mockPlanService) GetPlan(ctx context.Context, rc finance.RequestContext, id uuid.UUID) (*appfinance.PlanResponse, error) {
	return m.plan(m.Called(ctx, rc, id))
}

func (m *mockPlanService) ListPlans(ctx context.Context, rc finance.RequestContext, q appfinance.PlanListQuery) (*shared.Paginated[appfinance.PlanResponse], error) {
	args := m.Called(ctx, rc, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shared.Paginated[appfinance.PlanResponse]), args.Error(1)
}

func (m *mockPlanService) GenerateInvoices(ctx context.Context, rc finance.RequestContext, in appfinance.GenerateInvoicesInput) (*appfinance.GenerateInvoicesResult, error) {
	args := m.Called(ctx, rc, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.GenerateInvoicesResult), args.Error(1)
}

type mockReportService struct{ mock.Mock }

func (m *mockReportService) ListDefaulters(ctx context.Context, rc finance.RequestContext, asOf time.Time) (*appfinance.DefaulterListResponse, error) {
	args := m.Called(ctx, rc, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.DefaulterListResponse), args.Error(1)
}

func (m *mockReportService) RevenueSummary(ctx context.Context, rc finance.RequestContext, from, to time.Time) (*appfinance.RevenueSummaryResponse, error) {
	args := m.Called(ctx, rc, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.RevenueSummaryResponse), args.Error(1)
}

func (m *mockReportService) ExportDefaulters(ctx context.Context, rc finance.RequestContext, asOf time.Time) (*appfinance.ExportResult, error) {
	args := m.Called(ctx, rc, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*appfinance.ExportResult), args.Error(1)
}
