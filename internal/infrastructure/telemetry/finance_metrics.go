package telemetry

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// DefaulterStatsProvider supplies defaulter figures for periodic collection.
type DefaulterStatsProvider interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
	DefaulterStats(ctx context.Context, tenantID uuid.UUID) (count int64, overdue decimal.Decimal, err error)
}

// FinanceMetricsConfig holds configuration for FinanceMetrics.
type FinanceMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration
	StatsProvider   DefaulterStatsProvider
}

// FinanceMetrics tracks invoicing and payment activity.
type FinanceMetrics struct {
	logger *zap.Logger

	invoicesCreated   *Counter
	invoicesCancelled *Counter
	invoicedAmount    *AmountCounter
	paymentsRecorded  *Counter
	paymentsCancelled *Counter
	collectedAmount   *AmountCounter
	reversedAmount    *AmountCounter

	defaulters      *Gauge
	overdueKwanzas  *Gauge
	collectInterval time.Duration
	stats           DefaulterStatsProvider
	stopChan        chan struct{}
	stopOnce        sync.Once
	collectOnce     sync.Once
}

// NewFinanceMetrics registers the finance instruments on cfg.Meter.
func NewFinanceMetrics(cfg FinanceMetricsConfig) (*FinanceMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	interval := cfg.CollectInterval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	fm := &FinanceMetrics{
		logger:          logger,
		collectInterval: interval,
		stats:           cfg.StatsProvider,
		stopChan:        make(chan struct{}),
	}

	var err error
	if fm.invoicesCreated, err = NewCounter(cfg.Meter, "sis_invoice_created_total", "Total number of invoices issued", "{invoices}"); err != nil {
		return nil, err
	}
	if fm.invoicesCancelled, err = NewCounter(cfg.Meter, "sis_invoice_cancelled_total", "Total number of invoices cancelled", "{invoices}"); err != nil {
		return nil, err
	}
	if fm.invoicedAmount, err = NewAmountCounter(cfg.Meter, "sis_invoice_amount_total", "Total amount invoiced"); err != nil {
		return nil, err
	}
	if fm.paymentsRecorded, err = NewCounter(cfg.Meter, "sis_payment_recorded_total", "Total number of payments recorded", "{payments}"); err != nil {
		return nil, err
	}
	if fm.paymentsCancelled, err = NewCounter(cfg.Meter, "sis_payment_cancelled_total", "Total number of payments cancelled", "{payments}"); err != nil {
		return nil, err
	}
	if fm.collectedAmount, err = NewAmountCounter(cfg.Meter, "sis_payment_amount_total", "Total amount collected"); err != nil {
		return nil, err
	}
	if fm.reversedAmount, err = NewAmountCounter(cfg.Meter, "sis_payment_reversed_amount_total", "Total amount of cancelled payments"); err != nil {
		return nil, err
	}
	if fm.defaulters, err = NewGauge(cfg.Meter, "sis_defaulters_count", "Students with at least one overdue invoice", "{students}"); err != nil {
		return nil, err
	}
	if fm.overdueKwanzas, err = NewGauge(cfg.Meter, "sis_overdue_amount", "Outstanding overdue balance in whole kwanzas", "{AOA}"); err != nil {
		return nil, err
	}
	return fm, nil
}

// RecordInvoiceCreated counts an issued invoice.
func (fm *FinanceMetrics) RecordInvoiceCreated(ctx context.Context, tenantID uuid.UUID, invoiceType string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("invoice_type", invoiceType),
	}
	fm.invoicesCreated.Inc(ctx, attrs...)
	fm.invoicedAmount.Add(ctx, amount.InexactFloat64(), attrs...)
}

// RecordInvoiceCancelled counts a cancelled invoice.
func (fm *FinanceMetrics) RecordInvoiceCancelled(ctx context.Context, tenantID uuid.UUID) {
	fm.invoicesCancelled.Inc(ctx, attribute.String("tenant_id", tenantID.String()))
}

// RecordPayment counts a recorded payment and its amount.
func (fm *FinanceMetrics) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("payment_method", method),
	}
	fm.paymentsRecorded.Inc(ctx, attrs...)
	fm.collectedAmount.Add(ctx, amount.InexactFloat64(), attrs...)
}

// RecordPaymentCancelled counts a reversed payment.
func (fm *FinanceMetrics) RecordPaymentCancelled(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	attrs := []attribute.KeyValue{
		attribute.String("tenant_id", tenantID.String()),
		attribute.String("payment_method", method),
	}
	fm.paymentsCancelled.Inc(ctx, attrs...)
	fm.reversedAmount.Add(ctx, amount.InexactFloat64(), attrs...)
}

// RecordDefaulters stores the latest defaulter figures for a tenant.
func (fm *FinanceMetrics) RecordDefaulters(tenantID uuid.UUID, count int64, overdue decimal.Decimal) {
	attr := attribute.String("tenant_id", tenantID.String())
	fm.defaulters.Set(count, attr)
	fm.overdueKwanzas.Set(overdue.IntPart(), attr)
}

// DefaulterCount returns the last recorded defaulter count for a tenant.
func (fm *FinanceMetrics) DefaulterCount(tenantID uuid.UUID) (int64, bool) {
	return fm.defaulters.Get(attribute.String("tenant_id", tenantID.String()))
}

// StartPeriodicCollection refreshes the defaulter gauges every collect
// interval until Stop is called. It runs at most once.
func (fm *FinanceMetrics) StartPeriodicCollection(ctx context.Context) {
	if fm.stats == nil {
		fm.logger.Debug("No defaulter stats provider, periodic collection skipped")
		return
	}
	fm.collectOnce.Do(func() {
		go fm.run(ctx)
	})
}

func (fm *FinanceMetrics) run(ctx context.Context) {
	ticker := time.NewTicker(fm.collectInterval)
	defer ticker.Stop()

	fm.collect(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-fm.stopChan:
			return
		case <-ticker.C:
			fm.collect(ctx)
		}
	}
}

func (fm *FinanceMetrics) collect(ctx context.Context) {
	tenants, err := fm.stats.ActiveTenantIDs(ctx)
	if err != nil {
		fm.logger.Warn("Failed to list tenants for defaulter metrics", zap.Error(err))
		return
	}
	for _, tenantID := range tenants {
		count, overdue, err := fm.stats.DefaulterStats(ctx, tenantID)
		if err != nil {
			fm.logger.Warn("Failed to collect defaulter metrics",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		fm.RecordDefaulters(tenantID, count, overdue)
	}
}

// Stop ends periodic collection. Safe to call more than once.
func (fm *FinanceMetrics) Stop() {
	fm.stopOnce.Do(func() {
		close(fm.stopChan)
	})
}
