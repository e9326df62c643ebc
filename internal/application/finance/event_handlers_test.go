package finance

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func billingEvents(t *testing.T) (*finance.Invoice, []shared.DomainEvent) {
	t.Helper()
	now := date(2024, time.January, 5)
	inv, err := finance.NewInvoice(finance.NewInvoiceInput{
		TenantID:      uuid.New(),
		StudentID:     uuid.New(),
		InvoiceNumber: "FT-202401-00007",
		Amount:        dec("15000.00"),
		DueDate:       date(2024, time.January, 10),
		BillingMonth:  1,
		BillingYear:   2024,
		AcademicYear:  "2023/2024",
		Now:           now,
	})
	require.NoError(t, err)

	p, err := finance.NewPayment(finance.NewPaymentInput{
		Invoice: inv, Amount: dec("5000.00"), Method: finance.PaymentMethodMobileMoney, Now: now,
	})
	require.NoError(t, err)
	require.NoError(t, inv.ApplyPayment(p, finance.DefaultPolicy(), now))
	require.NoError(t, p.Cancel(uuid.New(), "estorno", now))
	require.NoError(t, inv.RevertPayment(p, finance.DefaultPolicy(), now))
	require.NoError(t, inv.Cancel(uuid.New(), "duplicada", now))

	events := inv.GetDomainEvents()
	require.Len(t, events, 4)
	return inv, events
}

func TestMetricsEventHandler(t *testing.T) {
	inv, events := billingEvents(t)
	metrics := new(MockMetricsRecorder)
	metrics.On("RecordInvoiceCreated", mock.Anything, inv.TenantID, "TUITION", mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(dec("15000"))
	})).Once()
	metrics.On("RecordPayment", mock.Anything, inv.TenantID, "MOBILE_MONEY", mock.Anything).Once()
	metrics.On("RecordPaymentCancelled", mock.Anything, inv.TenantID, "MOBILE_MONEY", mock.Anything).Once()
	metrics.On("RecordInvoiceCancelled", mock.Anything, inv.TenantID).Once()

	h := NewMetricsEventHandler(metrics, nil)
	assert.Len(t, h.EventTypes(), 4)
	for _, e := range events {
		require.NoError(t, h.Handle(context.Background(), e))
	}
	metrics.AssertExpectations(t)
}

func TestAuditLogHandler(t *testing.T) {
	inv, events := billingEvents(t)
	core, logs := observer.New(zapcore.InfoLevel)

	h := NewAuditLogHandler(zap.New(core))
	assert.Nil(t, h.EventTypes())
	for _, e := range events {
		require.NoError(t, h.Handle(context.Background(), e))
	}

	entries := logs.FilterMessage("billing event").All()
	require.Len(t, entries, 4)
	assert.Equal(t, "audit", entries[0].LoggerName)

	first := entries[0].ContextMap()
	assert.Equal(t, finance.EventTypeInvoiceCreated, first["event_type"])
	assert.Equal(t, inv.InvoiceNumber, first["invoice_number"])
	assert.Equal(t, "15000.00", first["amount"])

	last := entries[3].ContextMap()
	assert.Equal(t, finance.EventTypeInvoiceCancelled, last["event_type"])
	assert.Equal(t, "duplicada", last["reason"])
}
