package finance

import (
	"context"

	"github.com/google/uuid"
)

// Student is the slice of the student directory the billing core needs
type Student struct {
	ID            uuid.UUID
	Name          string
	StudentNumber string
	ClassID       *uuid.UUID
	ClassName     string
	Active        bool
}

// StudentDirectory resolves students owned by the enrollment module.
// The billing core only reads from it.
type StudentDirectory interface {
	FindByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) ([]Student, error)
	ListByClass(ctx context.Context, tenantID, classID uuid.UUID, activeOnly bool) ([]Student, error)
}
