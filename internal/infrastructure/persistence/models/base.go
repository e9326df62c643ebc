package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/shared"
)

// BaseModel holds the columns every billing table shares
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// TenantAggregateModel adds ownership and the optimistic-lock version.
// Repositories compare Version in the WHERE clause of SaveWithLock.
type TenantAggregateModel struct {
	BaseModel
	TenantID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	CreatedBy *uuid.UUID `gorm:"type:uuid"`
	Version   int        `gorm:"not null;default:1"`
}

// setRoot copies the aggregate header into the row
func (m *TenantAggregateModel) setRoot(root shared.TenantAggregateRoot) {
	m.ID = root.ID
	m.CreatedAt = root.CreatedAt
	m.UpdatedAt = root.UpdatedAt
	m.TenantID = root.TenantID
	m.CreatedBy = root.CreatedBy
	m.Version = root.Version
}

// root rebuilds the aggregate header with an empty event buffer
func (m *TenantAggregateModel) root() shared.TenantAggregateRoot {
	var root shared.TenantAggregateRoot
	root.ID = m.ID
	root.CreatedAt = m.CreatedAt
	root.UpdatedAt = m.UpdatedAt
	root.TenantID = m.TenantID
	root.CreatedBy = m.CreatedBy
	root.Version = m.Version
	return root
}
