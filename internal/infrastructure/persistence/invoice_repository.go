package persistence

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/persistence/models"
	"github.com/synexa/sis/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Status predicates over the invoice columns. They mirror ComputeStatus: the
// due date is stored as a date and a row is past due once the as-of day is
// strictly after it.
const (
	sqlCancelled     = "cancelled_at IS NOT NULL"
	sqlNotCancelled  = "cancelled_at IS NULL"
	sqlPaidInFull    = "paid_amount >= amount"
	sqlHasBalance    = "paid_amount < amount"
	sqlNothingPaid   = "paid_amount = 0"
	sqlSomethingPaid = "paid_amount > 0"
	sqlPastDue       = "due_date < ?"
	sqlNotPastDue    = "due_date >= ?"
)

// GormInvoiceRepository implements finance.InvoiceRepository using GORM
type GormInvoiceRepository struct {
	db *gorm.DB
}

// NewGormInvoiceRepository creates a new GormInvoiceRepository
func NewGormInvoiceRepository(db *gorm.DB) *GormInvoiceRepository {
	return &GormInvoiceRepository{db: db}
}

// FindByID finds an invoice by ID within a tenant
func (r *GormInvoiceRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, finance.ErrInvoiceNotFound)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate loads an invoice with SELECT ... FOR UPDATE. The row stays
// locked until the surrounding transaction commits or rolls back, so every
// payment against the same invoice is serialised here.
func (r *GormInvoiceRepository) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	var model models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(tenantID)).
		Where("id = ?", id).
		First(&model).Error; err != nil {
		return nil, translateError(err, finance.ErrInvoiceNotFound)
	}
	return model.ToDomain(), nil
}

// FindAll returns one page of invoices matching the filter and the total count
func (r *GormInvoiceRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.InvoiceFilter) ([]*finance.Invoice, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.InvoiceModel{}).Scopes(tenant.Scope(tenantID))
	query = r.applyInvoiceFilter(query, filter).Session(&gorm.Session{})

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count invoices: %w", err)
	}

	page := filter.Filter.Normalize()
	var invoiceModels []models.InvoiceModel
	if err := query.
		Order(invoiceSort.clause(page.OrderBy, page.OrderDir)).
		Offset(page.Offset()).
		Limit(page.PageSize).
		Find(&invoiceModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	return toInvoices(invoiceModels), total, nil
}

// FindUnpaidDueBefore returns open invoices whose due date is before day
func (r *GormInvoiceRepository) FindUnpaidDueBefore(ctx context.Context, tenantID uuid.UUID, day time.Time) ([]*finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where(sqlNotCancelled).
		Where(sqlHasBalance).
		Where(sqlPastDue, finance.DateOf(day)).
		Order("student_id ASC, due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load unpaid invoices: %w", err)
	}
	return toInvoices(invoiceModels), nil
}

// FindDueBetween returns every invoice due inside the period, cancelled included
func (r *GormInvoiceRepository) FindDueBetween(ctx context.Context, tenantID uuid.UUID, period finance.Period) ([]*finance.Invoice, error) {
	var invoiceModels []models.InvoiceModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("due_date >= ? AND due_date < ?", period.From, period.End()).
		Order("due_date ASC").
		Find(&invoiceModels).Error; err != nil {
		return nil, fmt.Errorf("failed to load invoices due in period: %w", err)
	}
	return toInvoices(invoiceModels), nil
}

// ExistingKeys returns the plan slots already invoiced for the given students
func (r *GormInvoiceRepository) ExistingKeys(ctx context.Context, tenantID, planID uuid.UUID, studentIDs []uuid.UUID) (map[finance.DedupeKey]bool, error) {
	keys := make(map[finance.DedupeKey]bool)
	if len(studentIDs) == 0 {
		return keys, nil
	}

	var rows []struct {
		StudentID    uuid.UUID
		BillingMonth int
		BillingYear  int
	}
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(tenantID)).
		Select("student_id, billing_month, billing_year").
		Where("plan_id = ? AND student_id IN ?", planID, studentIDs).
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load plan slots: %w", err)
	}
	for _, row := range rows {
		keys[finance.DedupeKey{
			StudentID: row.StudentID,
			PlanID:    planID,
			Month:     row.BillingMonth,
			Year:      row.BillingYear,
		}] = true
	}
	return keys, nil
}

// Create inserts a new invoice
func (r *GormInvoiceRepository) Create(ctx context.Context, inv *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return translateError(err, nil)
	}
	return nil
}

// SaveWithLock saves with optimistic locking (checks version)
func (r *GormInvoiceRepository) SaveWithLock(ctx context.Context, inv *finance.Invoice) error {
	model := models.InvoiceModelFromDomain(inv)
	result := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where("id = ? AND tenant_id = ? AND version = ?", inv.ID, inv.TenantID, inv.Version-1).
		Updates(map[string]any{
			"paid_amount":   model.PaidAmount,
			"description":   model.Description,
			"paid_at":       model.PaidAt,
			"cancelled_at":  model.CancelledAt,
			"cancelled_by":  model.CancelledBy,
			"cancel_reason": model.CancelReason,
			"version":       model.Version,
			"updated_at":    model.UpdatedAt,
		})
	if result.Error != nil {
		return translateError(result.Error, nil)
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict
	}
	return nil
}

// NextInvoiceNumber returns PREFIX-YYYYMM-NNNNN, one past the highest number
// already issued to the tenant for that month. The counter widens past five
// digits, so the highest number is the longest suffix, not the greatest string.
// On PostgreSQL an advisory lock held until commit keeps two transactions from
// taking the same number.
func (r *GormInvoiceRepository) NextInvoiceNumber(ctx context.Context, tenantID uuid.UUID, prefix string, at time.Time) (string, error) {
	stem := fmt.Sprintf("%s-%04d%02d-", prefix, at.Year(), int(at.Month()))
	db := r.db.WithContext(ctx)

	if db.Dialector.Name() == "postgres" {
		if err := db.Exec("SELECT pg_advisory_xact_lock(hashtext(?))", tenantID.String()+stem).Error; err != nil {
			return "", translateError(err, nil)
		}
	}

	var last []string
	if err := db.Model(&models.InvoiceModel{}).
		Scopes(tenant.Scope(tenantID)).
		Where("invoice_number LIKE ?", stem+"%").
		Order("LENGTH(invoice_number) DESC").
		Order("invoice_number DESC").
		Limit(1).
		Pluck("invoice_number", &last).Error; err != nil {
		return "", fmt.Errorf("failed to read last invoice number: %w", err)
	}

	next := 1
	if len(last) > 0 {
		n, err := strconv.Atoi(strings.TrimPrefix(last[0], stem))
		if err != nil {
			return "", fmt.Errorf("malformed invoice number %q: %w", last[0], err)
		}
		next = n + 1
	}
	return fmt.Sprintf("%s%05d", stem, next), nil
}

// ActiveTenantIDs lists the schools that have at least one open invoice.
// The defaulter gauges are refreshed for these tenants only.
func (r *GormInvoiceRepository) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).
		Model(&models.InvoiceModel{}).
		Where(sqlNotCancelled).
		Where(sqlHasBalance).
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list tenants: %w", err)
	}
	return ids, nil
}

// applyInvoiceFilter applies the non-paging parts of the filter
func (r *GormInvoiceRepository) applyInvoiceFilter(query *gorm.DB, filter finance.InvoiceFilter) *gorm.DB {
	if filter.StudentID != nil {
		query = query.Where("student_id = ?", *filter.StudentID)
	}
	if filter.PlanID != nil {
		query = query.Where("plan_id = ?", *filter.PlanID)
	}
	if filter.Month != nil {
		query = query.Where("billing_month = ?", *filter.Month)
	}
	if filter.Year != nil {
		query = query.Where("billing_year = ?", *filter.Year)
	}
	if filter.AcademicYear != "" {
		query = query.Where("academic_year = ?", filter.AcademicYear)
	}
	if filter.Status != nil {
		query = applyStatusFilter(query, *filter.Status, filter.AsOf, filter.OverduePrecedence)
	}
	return query
}

// applyStatusFilter translates a derived status into column predicates
func applyStatusFilter(query *gorm.DB, status finance.InvoiceStatus, asOf time.Time, overduePrecedence bool) *gorm.DB {
	day := finance.DateOf(asOf)
	switch status {
	case finance.InvoiceStatusCancelled:
		return query.Where(sqlCancelled)
	case finance.InvoiceStatusPaid:
		return query.Where(sqlNotCancelled).Where(sqlPaidInFull)
	case finance.InvoiceStatusOverdue:
		query = query.Where(sqlNotCancelled).Where(sqlHasBalance).Where(sqlPastDue, day)
		if !overduePrecedence {
			query = query.Where(sqlNothingPaid)
		}
		return query
	case finance.InvoiceStatusPartial:
		query = query.Where(sqlNotCancelled).Where(sqlHasBalance).Where(sqlSomethingPaid)
		if overduePrecedence {
			query = query.Where(sqlNotPastDue, day)
		}
		return query
	case finance.InvoiceStatusPending:
		return query.Where(sqlNotCancelled).Where(sqlNothingPaid).Where(sqlNotPastDue, day)
	}
	return query
}

func toInvoices(invoiceModels []models.InvoiceModel) []*finance.Invoice {
	invoices := make([]*finance.Invoice, len(invoiceModels))
	for i := range invoiceModels {
		invoices[i] = invoiceModels[i].ToDomain()
	}
	return invoices
}

// Ensure GormInvoiceRepository implements finance.InvoiceRepository
var _ finance.InvoiceRepository = (*GormInvoiceRepository)(nil)
