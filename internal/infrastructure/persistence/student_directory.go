package persistence

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/infrastructure/persistence/models"
	"github.com/synexa/sis/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormStudentDirectory reads the students table maintained by the enrollment
// module. It never writes.
type GormStudentDirectory struct {
	db *gorm.DB
}

// NewGormStudentDirectory creates a new GormStudentDirectory
func NewGormStudentDirectory(db *gorm.DB) *GormStudentDirectory {
	return &GormStudentDirectory{db: db}
}

// FindByIDs returns the students that exist among ids, in name order.
// Missing ids are simply absent from the result.
func (d *GormStudentDirectory) FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]finance.Student, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []models.StudentModel
	if err := d.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("id IN ?", ids).
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to load students: %w", err)
	}
	return toStudents(rows), nil
}

// ListByClass returns the students of a class
func (d *GormStudentDirectory) ListByClass(ctx context.Context, tenantID, classID uuid.UUID, activeOnly bool) ([]finance.Student, error) {
	query := d.db.WithContext(ctx).
		Scopes(tenant.Scope(tenantID)).
		Where("class_id = ?", classID)
	if activeOnly {
		query = query.Where("active = ?", true)
	}
	var rows []models.StudentModel
	if err := query.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to list class students: %w", err)
	}
	return toStudents(rows), nil
}

func toStudents(rows []models.StudentModel) []finance.Student {
	students := make([]finance.Student, len(rows))
	for i := range rows {
		students[i] = rows[i].ToDomain()
	}
	return students
}

// Ensure GormStudentDirectory implements finance.StudentDirectory
var _ finance.StudentDirectory = (*GormStudentDirectory)(nil)
