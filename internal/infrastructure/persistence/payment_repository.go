package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/persistence/models"
	"github.com/synexa/sis/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPaymentRepository implements finance.PaymentRepository using GORM
type GormPaymentRepository struct {
	db *gorm.DB
}

// NewGormPaymentRepository creates a new GormPaymentRepository
func NewGormPaymentRepository(db *gorm.DB) *GormPaymentRepository {
	return &GormPaymentRepository{db: db}
}

// FindByID finds a payment by ID within a tenant
func (r *GormPaymentRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, finance.ErrPaymentNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads a payment and locks its row. Callers lock the
// invoice first and the payment second.
func (r *GormPaymentRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	var model models.PaymentModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, finance.ErrPaymentNotFound)
	}
	return model.ToDomain(), nil
}

// FindByInvoice lists an invoice's payments, cancelled ones included, oldest first
func (r *GormPaymentRepository) FindByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]*finance.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("invoice_id = ?", invoiceID).
		Order("payment_date ASC, created_at ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoice payments: %w", err)
	}
	return toPayments(paymentModels), nil
}

// FindActiveInPeriod returns active payments whose payment date falls in the period
func (r *GormPaymentRepository) FindActiveInPeriod(ctx context.Context, tenantID uuid.UUID, period finance.Period) ([]*finance.Payment, error) {
	var paymentModels []models.PaymentModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("status = ?", finance.PaymentStatusActive).
		Where("payment_date >= ? AND payment_date < ?", period.From, period.End()).
		Order("payment_date ASC").
		Find(&paymentModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load payments in period: %w", err)
	}
	return toPayments(paymentModels), nil
}

// SumActiveByInvoice recomputes the paid amount from the payment rows
func (r *GormPaymentRepository) SumActiveByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) (finance.PaymentTotals, error) {
	var row struct {
		Count  int64
		Amount decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Scopes(tenant.Scope(tenantID)).
		Select("COUNT(*) AS count, SUM(amount) AS amount").
		Where("invoice_id = ? AND status = ?", invoiceID, finance.PaymentStatusActive).
		Scan(&row).Error; err != nil {
		return finance.PaymentTotals{}, fmt.Errorf("failed to sum payments: %w", err)
	}
	totals := finance.PaymentTotals{Count: row.Count, Amount: decimal.Zero}
	if row.Amount.Valid {
		totals.Amount = row.Amount.Decimal
	}
	return totals, nil
}

// Create inserts a new payment
func (r *GormPaymentRepository) Create(ctx context.Context, p *finance.Payment) error {
	if err := r.db.WithContext(ctx).Create(models.PaymentModelFromDomain(p)).Error; err != nil {
		return translateError(err, nil)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version). Only the
// cancellation columns ever change after a payment is recorded.
func (r *GormPaymentRepository) SaveWithLock(ctx context.Context, p *finance.Payment) error {
	result := r.db.WithContext(ctx).
		Model(&models.PaymentModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", p.ID, p.TenantID, p.Version-1).
		Updates(map[string]any{
			"status":        p.Status,
			"cancelled_at":  p.CancelledAt,
			"cancelled_by":  p.CancelledBy,
			"cancel_reason": p.CancelReason,
			"version":       p.Version,
			"updated_at":    p.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

func toPayments(paymentModels []models.PaymentModel) []*finance.Payment {
	payments := make([]*finance.Payment, len(paymentModels))
	for i := range paymentModels {
		payments[i] = paymentModels[i].ToDomain()
	}
	return payments
}

// Ensure GormPaymentRepository implements finance.PaymentRepository
var _ finance.PaymentRepository = (*GormPaymentRepository)(nil)
