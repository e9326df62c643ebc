package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/persistence/models"
	"github.com/synexa/sis/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormPaymentPlanRepository implements finance.PaymentPlanRepository using GORM
type GormPaymentPlanRepository struct {
	db *gorm.DB
}

// NewGormPaymentPlanRepository creates a new GormPaymentPlanRepository
func NewGormPaymentPlanRepository(db *gorm.DB) *GormPaymentPlanRepository {
	return &GormPaymentPlanRepository{db: db}
}

// FindByID finds a payment plan by ID within a tenant
func (r *GormPaymentPlanRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.PaymentPlan, error) {
	var model models.PaymentPlanModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, finance.ErrPlanNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of plans and the total count
func (r *GormPaymentPlanRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.PaymentPlanFilter) ([]*finance.PaymentPlan, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PaymentPlanModel{}).Scopes(tenant.Scope(tenantID))
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.ClassID != nil {
		query = query.Where("class_id = ?", *filter.ClassID)
	}
	if filter.Active != nil {
		query = query.Where("active = ?", *filter.Active)
	}
	query = query.Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count payment plans: %w", err)
	}

	page := filter.Filter.Normalize()
	var planModels []models.PaymentPlanModel
	if err := query.
		Order(planSort.clause(page.OrderBy, page.OrderDir)).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&planModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list payment plans: %w", err)
	}

	plans := make([]*finance.PaymentPlan, len(planModels))
	for i := range planModels {
		plans[i] = planModels[i].ToDomain()
	}
	return plans, total, nil
}

// Create inserts a new payment plan
func (r *GormPaymentPlanRepository) Create(ctx context.Context, plan *finance.PaymentPlan) error {
	if err := r.db.WithContext(ctx).Create(models.PaymentPlanModelFromDomain(plan)).Error; err != nil {
		return translateError(err, nil)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version). Select("*")
// makes GORM write zero values too, so deactivating a plan persists.
func (r *GormPaymentPlanRepository) SaveWithLock(ctx context.Context, plan *finance.PaymentPlan) error {
	model := models.PaymentPlanModelFromDomain(plan)
	result := r.db.WithContext(ctx).
		Model(&models.PaymentPlanModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", plan.ID, plan.TenantID, plan.Version-1).
		Select("*").
		Omit("id", "tenant_id", "created_at", "created_by").
		Updates(model)
	if result.Error != nil {
		return translateError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// Ensure GormPaymentPlanRepository implements finance.PaymentPlanRepository
var _ finance.PaymentPlanRepository = (*GormPaymentPlanRepository)(nil)
