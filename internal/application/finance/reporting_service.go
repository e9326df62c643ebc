package finance

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/domain/shared/valueobject"
	"github.com/synexa/sis/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// CodeStorageUnavailable is returned when report export has no backing store
const CodeStorageUnavailable = "STORAGE_UNAVAILABLE"

// ErrStorageUnavailable means report export is not configured
var ErrStorageUnavailable = shared.NewDomainError(CodeStorageUnavailable, "O armazenamento de relatórios não está configurado")

// ReportStorage stores exported reports and hands out time-limited links
type ReportStorage interface {
	Put(ctx context.Context, key, contentType string, body []byte) error
	PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// ReportingService computes defaulter and revenue statistics on demand.
// It never writes billing data.
type ReportingService struct {
	invoiceRepo finance.InvoiceRepository
	paymentRepo finance.PaymentRepository
	students    finance.StudentDirectory
	storage     ReportStorage
	clock       Clock
	policy      finance.Policy
	linkTTL     time.Duration
	logger      *zap.Logger
}

// ReportingServiceConfig holds ReportingService dependencies
type ReportingServiceConfig struct {
	InvoiceRepo finance.InvoiceRepository
	PaymentRepo finance.PaymentRepository
	Students    finance.StudentDirectory
	Storage     ReportStorage
	Clock       Clock
	Policy      finance.Policy
	LinkTTL     time.Duration
	Logger      *zap.Logger
}

// NewReportingService creates a ReportingService
func NewReportingService(cfg ReportingServiceConfig) *ReportingService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.LinkTTL <= 0 {
		cfg.LinkTTL = 15 * time.Minute
	}
	return &ReportingService{
		invoiceRepo: cfg.InvoiceRepo,
		paymentRepo: cfg.PaymentRepo,
		students:    cfg.Students,
		storage:     cfg.Storage,
		clock:       cfg.Clock,
		policy:      cfg.Policy,
		linkTTL:     cfg.LinkTTL,
		logger:      cfg.Logger,
	}
}

// ListDefaulters returns students with at least one OVERDUE invoice at asOf,
// largest overdue total first, then oldest due date first. A zero asOf means
// the request's current date.
func (s *ReportingService) ListDefaulters(ctx context.Context, rc finance.RequestContext, asOf time.Time) (*DefaulterListResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "list_defaulters")
	defer span.End()

	if err := rc.Require(finance.ReportReaderRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if asOf.IsZero() {
		asOf = nowFor(rc, s.clock)
	}

	defaulters, err := s.defaulters(ctx, rc.TenantID, asOf)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	directory, err := s.lookupStudents(ctx, rc.TenantID, defaulters)
	if err != nil {
		// names are optional in the report
		s.logger.Warn("Failed to resolve defaulter students", zap.Error(err))
	}

	resp := &DefaulterListResponse{
		AsOf:       formatDate(finance.DateOf(asOf)),
		Count:      len(defaulters),
		Defaulters: make([]DefaulterResponse, len(defaulters)),
	}
	total := decimal.Zero
	for i, d := range defaulters {
		total = total.Add(d.TotalOverdue)
		row := DefaulterResponse{
			StudentID:     d.StudentID,
			TotalOverdue:  valueobject.Kwanza(d.TotalOverdue),
			TotalAccrued:  valueobject.Kwanza(d.TotalAccrued),
			TotalDue:      valueobject.Kwanza(d.TotalDue()),
			OverdueCount:  d.OverdueCount,
			OldestDueDate: formatDate(d.OldestDueDate),
			DaysOverdue:   finance.DaysPastDue(d.OldestDueDate, asOf),
			InvoiceIDs:    d.InvoiceIDs,
		}
		if st, ok := directory[d.StudentID]; ok {
			row.StudentName = st.Name
			row.StudentNumber = st.StudentNumber
			row.ClassName = st.ClassName
		}
		resp.Defaulters[i] = row
	}
	resp.TotalOverdue = valueobject.Kwanza(total)
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, resp.Count)
	return resp, nil
}

func (s *ReportingService) defaulters(ctx context.Context, tenantID uuid.UUID, asOf time.Time) ([]finance.Defaulter, error) {
	invoices, err := s.invoiceRepo.FindUnpaidDueBefore(ctx, tenantID, finance.DateOf(asOf))
	if err != nil {
		return nil, fmt.Errorf("failed to load overdue invoices: %w", err)
	}
	return finance.BuildDefaulters(invoices, asOf, s.policy), nil
}

func (s *ReportingService) lookupStudents(ctx context.Context, tenantID uuid.UUID, defaulters []finance.Defaulter) (map[uuid.UUID]finance.Student, error) {
	out := make(map[uuid.UUID]finance.Student, len(defaulters))
	if s.students == nil || len(defaulters) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(defaulters))
	for i, d := range defaulters {
		ids[i] = d.StudentID
	}
	students, err := s.students.FindByIDs(ctx, tenantID, ids)
	if err != nil {
		return out, err
	}
	for _, st := range students {
		out[st.ID] = st
	}
	return out, nil
}

// RevenueSummary compares what fell due in [from, to] with what was collected
// in the same range. Zero bounds default to the current calendar month.
func (s *ReportingService) RevenueSummary(ctx context.Context, rc finance.RequestContext, from, to time.Time) (*RevenueSummaryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "revenue_summary")
	defer span.End()

	if err := rc.Require(finance.ReportReaderRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	var period finance.Period
	if from.IsZero() && to.IsZero() {
		now := nowFor(rc, s.clock)
		period = finance.MonthPeriod(now.Year(), int(now.Month()))
	} else {
		p, err := finance.NewPeriod(from, to)
		if err != nil {
			return nil, err
		}
		period = p
	}

	payments, err := s.paymentRepo.FindActiveInPeriod(ctx, rc.TenantID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load payments: %w", err)
	}
	invoices, err := s.invoiceRepo.FindDueBetween(ctx, rc.TenantID, period)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	sum := finance.SummarizeRevenue(period, payments, invoices)
	resp := &RevenueSummaryResponse{
		From:           formatDate(sum.Period.From),
		To:             formatDate(sum.Period.To),
		Collected:      valueobject.Kwanza(sum.Collected),
		Expected:       valueobject.Kwanza(sum.Expected),
		CollectionRate: collectionRate(sum.Collected, sum.Expected),
		ByMonth:        make([]MonthlyRevenueResponse, len(sum.ByMonth)),
		ByMethod:       make([]MethodRevenueResponse, len(sum.ByMethod)),
	}
	for i, m := range sum.ByMonth {
		resp.ByMonth[i] = MonthlyRevenueResponse{
			Year:      m.Year,
			Month:     m.Month,
			Collected: valueobject.Kwanza(m.Collected),
			Expected:  valueobject.Kwanza(m.Expected),
		}
	}
	for i, m := range sum.ByMethod {
		resp.ByMethod[i] = MethodRevenueResponse{
			Method: string(m.Method),
			Amount: valueobject.Kwanza(m.Amount),
			Count:  m.Count,
		}
	}
	return resp, nil
}

func collectionRate(collected, expected decimal.Decimal) string {
	if !expected.IsPositive() {
		return "0.00"
	}
	return collected.Div(expected).Mul(decimal.NewFromInt(100)).Round(2).StringFixed(2)
}

// ExportDefaulters writes the defaulter report as CSV to report storage and
// returns a presigned download link.
func (s *ReportingService) ExportDefaulters(ctx context.Context, rc finance.RequestContext, asOf time.Time) (*ExportResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "reporting", "export_defaulters")
	defer span.End()

	if err := rc.Require(finance.ReportReaderRoles...); err != nil {
		return nil, err
	}
	if s.storage == nil {
		return nil, ErrStorageUnavailable
	}
	now := nowFor(rc, s.clock)

	report, err := s.ListDefaulters(ctx, rc, asOf)
	if err != nil {
		return nil, err
	}

	body, err := defaultersCSV(report)
	if err != nil {
		return nil, fmt.Errorf("failed to encode report: %w", err)
	}

	key := fmt.Sprintf("reports/%s/defaulters-%s-%s.csv", rc.TenantID, report.AsOf, uuid.NewString()[:8])
	if err := s.storage.Put(ctx, key, "text/csv; charset=utf-8", body); err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}
	url, err := s.storage.PresignGet(ctx, key, s.linkTTL)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, fmt.Errorf("failed to sign report link: %w", err)
	}

	s.logger.Info("Defaulter report exported",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("key", key),
		zap.Int("rows", report.Count),
	)
	return &ExportResult{
		Key:       key,
		URL:       url,
		ExpiresAt: now.Add(s.linkTTL),
		Rows:      report.Count,
	}, nil
}

func defaultersCSV(report *DefaulterListResponse) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{
		"student_id", "student_number", "student_name", "class",
		"overdue_count", "oldest_due_date", "days_overdue",
		"total_overdue", "total_accrued", "total_due",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}
	for _, d := range report.Defaulters {
		row := []string{
			d.StudentID.String(),
			d.StudentNumber,
			d.StudentName,
			d.ClassName,
			strconv.Itoa(d.OverdueCount),
			d.OldestDueDate,
			strconv.Itoa(d.DaysOverdue),
			d.TotalOverdue.StringFixed(),
			d.TotalAccrued.StringFixed(),
			d.TotalDue.StringFixed(),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

// TenantLister lists schools that have billing data
type TenantLister interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// DefaulterStats adapts the defaulter computation to periodic metric
// collection.
type DefaulterStats struct {
	tenants  TenantLister
	invoices finance.InvoiceRepository
	clock    Clock
	policy   finance.Policy
}

// NewDefaulterStats creates a DefaulterStats
func NewDefaulterStats(tenants TenantLister, invoices finance.InvoiceRepository, clock Clock, policy finance.Policy) *DefaulterStats {
	return &DefaulterStats{tenants: tenants, invoices: invoices, clock: clock, policy: policy}
}

// ActiveTenantIDs implements telemetry.DefaulterStatsProvider
func (d *DefaulterStats) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	if d.tenants == nil {
		return nil, errors.New("no tenant lister configured")
	}
	return d.tenants.ActiveTenantIDs(ctx)
}

// DefaulterStats implements telemetry.DefaulterStatsProvider
func (d *DefaulterStats) DefaulterStats(ctx context.Context, tenantID uuid.UUID) (int64, decimal.Decimal, error) {
	now := d.clock.Now()
	invoices, err := d.invoices.FindUnpaidDueBefore(ctx, tenantID, finance.DateOf(now))
	if err != nil {
		return 0, decimal.Zero, err
	}
	defaulters := finance.BuildDefaulters(invoices, now, d.policy)
	total := decimal.Zero
	for _, df := range defaulters {
		total = total.Add(df.TotalOverdue)
	}
	return int64(len(defaulters)), total, nil
}

var _ telemetry.DefaulterStatsProvider = (*DefaulterStats)(nil)
