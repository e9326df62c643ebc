package finance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// PaymentRecorder records and cancels payments. Each mutation locks the
// invoice row first, so payments against one invoice are serialized and the
// payment row and the invoice paid amount commit together.
type PaymentRecorder struct {
	txScope     TransactionScope
	paymentRepo finance.PaymentRepository
	events      shared.EventPublisher
	clock       Clock
	policy      finance.Policy
	logger      *zap.Logger
}

// NewPaymentRecorder creates a PaymentRecorder
func NewPaymentRecorder(
	txScope TransactionScope,
	paymentRepo finance.PaymentRepository,
	events shared.EventPublisher,
	clock Clock,
	policy finance.Policy,
	logger *zap.Logger,
) *PaymentRecorder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaymentRecorder{
		txScope:     txScope,
		paymentRepo: paymentRepo,
		events:      events,
		clock:       clock,
		policy:      policy,
		logger:      logger,
	}
}

// RecordPayment applies a payment to an invoice.
//
// Fails with INVALID_STATE when the invoice is cancelled, VALIDATION_ERROR
// for a non-positive amount or unknown method, and OVERPAYMENT when the
// payment exceeds the balance and overpayment is not allowed.
func (r *PaymentRecorder) RecordPayment(ctx context.Context, rc finance.RequestContext, in RecordPaymentInput) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "record_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, rc.TenantID,
		telemetry.SpanAttrInvoiceID, in.InvoiceID,
		telemetry.SpanAttrAmount, in.Amount,
		telemetry.SpanAttrMethod, in.Method,
	)

	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := nowFor(rc, r.clock)

	var (
		invoice *finance.Invoice
		payment *finance.Payment
		runErr  error
	)
	telemetry.WithProfilingLabels(ctx, map[string]string{
		telemetry.ProfilingLabelOperation: "record_payment",
		telemetry.ProfilingLabelTenantID:  rc.TenantID.String(),
	}, func(ctx context.Context) {
		runErr = r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
			inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, rc.TenantID, in.InvoiceID)
			if err != nil {
				return err
			}

			p, err := finance.NewPayment(finance.NewPaymentInput{
				Invoice:     inv,
				Amount:      in.Amount,
				Method:      finance.PaymentMethod(in.Method),
				Reference:   in.Reference,
				PaymentDate: in.PaymentDate,
				CreatedBy:   rc.UserID,
				Now:         now,
			})
			if err != nil {
				return err
			}
			if err := inv.ApplyPayment(p, r.policy, now); err != nil {
				return err
			}

			if err := repos.PaymentRepo().Create(ctx, p); err != nil {
				return fmt.Errorf("failed to save payment: %w", err)
			}
			if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
				return fmt.Errorf("failed to update invoice: %w", err)
			}
			invoice, payment = inv, p
			return nil
		})
	})
	if runErr != nil {
		telemetry.RecordError(span, runErr)
		return nil, runErr
	}

	status := invoice.Status(now, r.policy)
	telemetry.SetAttributes(span,
		telemetry.SpanAttrPaymentID, payment.ID,
		telemetry.SpanAttrStatus, status,
	)
	telemetry.AddEvent(span, "payment_applied", "paid_amount", invoice.PaidAmount, "status", status)

	r.logger.Info("Payment recorded",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("amount", payment.Amount.StringFixed(2)),
		zap.String("status", string(status)),
	)
	publishEvents(ctx, r.events, r.logger, invoice)

	return &PaymentResult{
		Payment: toPaymentResponse(payment),
		Invoice: toInvoiceResponse(invoice, now, r.policy),
	}, nil
}

// CancelPayment reverses a payment. The invoice row is locked before the
// payment row so that it takes locks in the same order as RecordPayment.
//
// Fails with NOT_FOUND when the payment does not exist and ALREADY_CANCELLED
// when it was cancelled before.
func (r *PaymentRecorder) CancelPayment(ctx context.Context, rc finance.RequestContext, paymentID uuid.UUID, reason string) (*PaymentResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "payment", "cancel_payment")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, rc.TenantID,
		telemetry.SpanAttrPaymentID, paymentID,
	)

	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := nowFor(rc, r.clock)

	existing, err := r.paymentRepo.FindByID(ctx, rc.TenantID, paymentID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !existing.IsActive() {
		telemetry.RecordError(span, finance.ErrPaymentAlreadyCancelled)
		return nil, finance.ErrPaymentAlreadyCancelled
	}

	var (
		invoice *finance.Invoice
		payment *finance.Payment
	)
	err = r.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		inv, err := repos.InvoiceRepo().FindByIDForUpdate(ctx, rc.TenantID, existing.InvoiceID)
		if err != nil {
			return err
		}
		p, err := repos.PaymentRepo().FindByIDForUpdate(ctx, rc.TenantID, paymentID)
		if err != nil {
			return err
		}

		if err := p.Cancel(rc.UserID, reason, now); err != nil {
			return err
		}
		if err := inv.RevertPayment(p, r.policy, now); err != nil {
			return err
		}

		if err := repos.PaymentRepo().SaveWithLock(ctx, p); err != nil {
			return fmt.Errorf("failed to update payment: %w", err)
		}
		if err := repos.InvoiceRepo().SaveWithLock(ctx, inv); err != nil {
			return fmt.Errorf("failed to update invoice: %w", err)
		}
		invoice, payment = inv, p
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	telemetry.SetAttributes(span, telemetry.SpanAttrInvoiceID, invoice.ID)
	r.logger.Info("Payment cancelled",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("invoice_id", invoice.ID.String()),
		zap.String("payment_id", payment.ID.String()),
		zap.String("reason", payment.CancelReason),
	)
	publishEvents(ctx, r.events, r.logger, invoice)

	return &PaymentResult{
		Payment: toPaymentResponse(payment),
		Invoice: toInvoiceResponse(invoice, now, r.policy),
	}, nil
}

// GetPayment returns one payment
func (r *PaymentRecorder) GetPayment(ctx context.Context, rc finance.RequestContext, paymentID uuid.UUID) (*PaymentResponse, error) {
	if err := rc.Require(finance.BillingReaderRoles...); err != nil {
		return nil, err
	}
	p, err := r.paymentRepo.FindByID(ctx, rc.TenantID, paymentID)
	if err != nil {
		return nil, err
	}
	resp := toPaymentResponse(p)
	return &resp, nil
}

func nowFor(rc finance.RequestContext, clock Clock) time.Time {
	if !rc.Now.IsZero() {
		return rc.Now
	}
	return clock.Now()
}

// publishEvents hands pending events to the bus after commit. A publish
// failure is logged; the committed write stands.
func publishEvents(ctx context.Context, publisher shared.EventPublisher, logger *zap.Logger, aggregates ...shared.AggregateRoot) {
	var events []shared.DomainEvent
	for _, agg := range aggregates {
		events = append(events, agg.GetDomainEvents()...)
		agg.ClearDomainEvents()
	}
	if publisher == nil || len(events) == 0 {
		return
	}
	if err := publisher.Publish(ctx, events...); err != nil {
		logger.Warn("Failed to publish domain events", zap.Int("count", len(events)), zap.Error(err))
	}
}
