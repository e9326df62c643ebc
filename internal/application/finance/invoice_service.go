package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// InvoiceService issues, cancels and reads invoices
type InvoiceService struct {
	txScope      TransactionScope
	invoiceRepo  finance.InvoiceRepository
	paymentRepo  finance.PaymentRepository
	students     finance.StudentDirectory
	events       shared.EventPublisher
	clock        Clock
	policy       finance.Policy
	numberPrefix string
	logger       *zap.Logger
}

// InvoiceServiceConfig holds InvoiceService dependencies
type InvoiceServiceConfig struct {
	TxScope      TransactionScope
	InvoiceRepo  finance.InvoiceRepository
	PaymentRepo  finance.PaymentRepository
	Students     finance.StudentDirectory
	Events       shared.EventPublisher
	Clock        Clock
	Policy       finance.Policy
	NumberPrefix string
	Logger       *zap.Logger
}

// NewInvoiceService creates an InvoiceService
func NewInvoiceService(cfg InvoiceServiceConfig) *InvoiceService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = DefaultInvoiceNumberPrefix
	}
	return &InvoiceService{
		txScope:      cfg.TxScope,
		invoiceRepo:  cfg.InvoiceRepo,
		paymentRepo:  cfg.PaymentRepo,
		students:     cfg.Students,
		events:       cfg.Events,
		clock:        cfg.Clock,
		policy:       cfg.Policy,
		numberPrefix: cfg.NumberPrefix,
		logger:       cfg.Logger,
	}
}

// DefaultInvoiceNumberPrefix prefixes invoice numbers (FT = factura)
const DefaultInvoiceNumberPrefix = "FT"

// CreateInvoice issues a single invoice outside any payment plan
func (s *InvoiceService) CreateInvoice(ctx context.Context, rc finance.RequestContext, in CreateInvoiceInput) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "create_invoice")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, rc.TenantID,
		telemetry.SpanAttrStudentID, in.StudentID,
		telemetry.SpanAttrAmount, in.Amount,
	)

	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := nowFor(rc, s.clock)

	if in.StudentID != uuid.Nil && s.students != nil {
		found, err := s.students.FindByIDs(ctx, rc.TenantID, []uuid.UUID{in.StudentID})
		if err != nil {
			return nil, fmt.Errorf("failed to resolve student: %w", err)
		}
		if len(found) == 0 {
			return nil, finance.ErrStudentNotFound.WithDetail("student_id", in.StudentID.String())
		}
	}

	academicYear := strings.TrimSpace(in.AcademicYear)
	if academicYear == "" {
		academicYear = rc.AcademicYear
	}

	var invoice *finance.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		number, err := repos.InvoiceRepo().NextInvoiceNumber(ctx, rc.TenantID, s.numberPrefix, in.DueDate)
		if err != nil {
			return fmt.Errorf("failed to allocate invoice number: %w", err)
		}
		inv, err := finance.NewInvoice(finance.NewInvoiceInput{
			TenantID:          rc.TenantID,
			StudentID:         in.StudentID,
			InvoiceNumber:     number,
			Type:              finance.InvoiceType(strings.ToUpper(strings.TrimSpace(in.Type))),
			Description:       in.Description,
			Amount:            in.Amount,
			DueDate:           in.DueDate,
			BillingMonth:      in.BillingMonth,
			BillingYear:       in.BillingYear,
			AcademicYear:      academicYear,
			LateFeePercent:    in.LateFeePercent,
			DailyInterestRate: in.DailyInterestRate,
			CreatedBy:         rc.UserID,
			Now:               now,
		})
		if err != nil {
			return err
		}
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return fmt.Errorf("failed to save invoice: %w", err)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoice.ID)
	s.logger.Info("Invoice created",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("invoice_number", invoice.InvoiceNumber),
	)
	publishEvents(ctx, s.events, s.logger, invoice)

	resp := toInvoiceResponse(invoice, now, s.policy)
	return &resp, nil
}

// CancelInvoice cancels an invoice. Active payments must be cancelled first.
func (s *InvoiceService) CancelInvoice(ctx context.Context, rc finance.RequestContext, invoiceID uuid.UUID, reason string) (*InvoiceResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "cancel_invoice")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, rc.TenantID,
		telemetry.SpanAttrInvoiceID, invoiceID,
	)

	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := nowFor(rc, s.clock)

	var invoice *finance.Invoice
	err := s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, rc.TenantID, invoiceID)
		if err != nil {
			return err
		}
		if inv.IsCancelled() {
			return finance.ErrInvoiceAlreadyCancelled
		}
		totals, err := repos.PaymentRepo().SumActiveByInvoice(ctx, rc.TenantID, invoiceID)
		if err != nil {
			return fmt.Errorf("failed to sum payments: %w", err)
		}
		if totals.Count > 0 {
			return finance.ErrInvoiceHasPayments.WithDetail("active_payments", totals.Count)
		}
		if err := inv.Cancel(rc.UserID, reason, now); err != nil {
			return err
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		invoice = inv
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Invoice cancelled",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("reason", invoice.CancelReason),
	)
	publishEvents(ctx, s.events, s.logger, invoice)

	resp := toInvoiceResponse(invoice, now, s.policy)
	return &resp, nil
}

// GetInvoice returns an invoice with its payments and accrual ledger
func (s *InvoiceService) GetInvoice(ctx context.Context, rc finance.RequestContext, invoiceID uuid.UUID) (*InvoiceDetailResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "get_invoice")
	defer span.End()

	if err := rc.Require(finance.BillingReaderRoles...); err != nil {
		return nil, err
	}
	now := nowFor(rc, s.clock)

	inv, err := s.invoiceRepo.FindByID(ctx, rc.TenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	payments, err := s.paymentRepo.FindByInvoice(ctx, rc.TenantID, invoiceID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}

	acc := finance.ComputeAccrual(inv, now, s.policy)
	return &InvoiceDetailResponse{
		InvoiceResponse: toInvoiceResponse(inv, now, s.policy),
		Payments:        toPaymentResponses(payments),
		Ledger:          toLedgerResponses(acc.Lines),
	}, nil
}

// ListInvoices returns one page of invoices with status derived at the
// request's current date
func (s *InvoiceService) ListInvoices(ctx context.Context, rc finance.RequestContext, q InvoiceListQuery) (*shared.Paginated[InvoiceResponse], error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoice", "list_invoices")
	defer span.End()

	if err := rc.Require(finance.BillingReaderRoles...); err != nil {
		return nil, err
	}
	now := nowFor(rc, s.clock)

	filter := finance.InvoiceFilter{
		Filter: shared.Filter{
			Page:     q.Page,
			PageSize: q.PageSize,
			OrderBy:  q.OrderBy,
			OrderDir: q.OrderDir,
		}.Normalize(),
		StudentID:         q.StudentID,
		PlanID:            q.PlanID,
		Month:             q.Month,
		Year:              q.Year,
		AcademicYear:      strings.TrimSpace(q.AcademicYear),
		AsOf:              now,
		OverduePrecedence: s.policy.OverduePrecedence,
	}
	if q.Status != "" {
		status := finance.InvoiceStatus(strings.ToUpper(strings.TrimSpace(q.Status)))
		if !status.IsValid() {
			return nil, finance.NewValidationError("status", "Estado de factura inválido")
		}
		filter.Status = &status
	}
	if q.Month != nil && (*q.Month < 1 || *q.Month > 12) {
		return nil, finance.NewValidationError("month", "O mês deve estar entre 1 e 12")
	}

	invoices, total, err := s.invoiceRepo.FindAll(ctx, rc.TenantID, filter)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to list invoices: %w", err)
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, len(invoices))

	page := shared.NewPaginated(toInvoiceResponses(invoices, now, s.policy), total, filter.Page, filter.PageSize)
	return &page, nil
}
