package finance

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"go.uber.org/zap"
)

// MetricsRecorder is the slice of telemetry.FinanceMetrics the handlers use
type MetricsRecorder interface {
	RecordInvoiceCreated(ctx context.Context, tenantID uuid.UUID, invoiceType string, amount decimal.Decimal)
	RecordInvoiceCancelled(ctx context.Context, tenantID uuid.UUID)
	RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal)
	RecordPaymentCancelled(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal)
}

// MetricsEventHandler counts invoices and payments as their events are published
type MetricsEventHandler struct {
	metrics MetricsRecorder
	logger  *zap.Logger
}

// NewMetricsEventHandler creates a MetricsEventHandler
func NewMetricsEventHandler(metrics MetricsRecorder, logger *zap.Logger) *MetricsEventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MetricsEventHandler{metrics: metrics, logger: logger}
}

// EventTypes returns the billing events
func (h *MetricsEventHandler) EventTypes() []string {
	return []string{
		finance.EventTypeInvoiceCreated,
		finance.EventTypeInvoiceCancelled,
		finance.EventTypePaymentRecorded,
		finance.EventTypePaymentCancelled,
	}
}

// Handle records the metric matching the event
func (h *MetricsEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	switch e := event.(type) {
	case *finance.InvoiceCreatedEvent:
		h.metrics.RecordInvoiceCreated(ctx, e.TenantID(), string(e.InvoiceType), e.Amount)
	case *finance.InvoiceCancelledEvent:
		h.metrics.RecordInvoiceCancelled(ctx, e.TenantID())
	case *finance.PaymentRecordedEvent:
		h.metrics.RecordPayment(ctx, e.TenantID(), string(e.Method), e.Amount)
	case *finance.PaymentCancelledEvent:
		h.metrics.RecordPaymentCancelled(ctx, e.TenantID(), string(e.Method), e.Amount)
	default:
		h.logger.Debug("Ignoring event", zap.String("event_type", event.EventType()))
	}
	return nil
}

// AuditLogHandler writes one structured audit line per billing event
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates an AuditLogHandler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes subscribes to every event
func (h *AuditLogHandler) EventTypes() []string {
	return nil
}

// Handle logs the event
func (h *AuditLogHandler) Handle(_ context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("event_type", event.EventType()),
		zap.String("tenant_id", event.TenantID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *finance.InvoiceCreatedEvent:
		fields = append(fields,
			zap.String("invoice_number", e.InvoiceNumber),
			zap.String("student_id", e.StudentID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
		)
	case *finance.InvoiceCancelledEvent:
		fields = append(fields,
			zap.String("invoice_number", e.InvoiceNumber),
			zap.String("reason", e.Reason),
		)
	case *finance.PaymentRecordedEvent:
		fields = append(fields,
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("method", string(e.Method)),
			zap.String("status", string(e.Status)),
		)
	case *finance.PaymentCancelledEvent:
		fields = append(fields,
			zap.String("payment_id", e.PaymentID.String()),
			zap.String("amount", e.Amount.StringFixed(2)),
			zap.String("status", string(e.Status)),
			zap.String("reason", e.Reason),
		)
	default:
		fields = append(fields, zap.String("payload", fmt.Sprintf("%T", event)))
	}

	h.logger.Info("billing event", fields...)
	return nil
}

var (
	_ shared.EventHandler = (*MetricsEventHandler)(nil)
	_ shared.EventHandler = (*AuditLogHandler)(nil)
)
