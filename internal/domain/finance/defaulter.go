package finance

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Defaulter aggregates a student's overdue invoices. It is computed on demand
// and never persisted.
type Defaulter struct {
	StudentID     uuid.UUID
	TotalOverdue  decimal.Decimal
	TotalAccrued  decimal.Decimal
	OverdueCount  int
	OldestDueDate time.Time
	InvoiceIDs    []uuid.UUID
}

// TotalDue is overdue balance plus accrued charges
func (d Defaulter) TotalDue() decimal.Decimal {
	return d.TotalOverdue.Add(d.TotalAccrued)
}

// BuildDefaulters groups the invoices that are OVERDUE at asOf by student.
// Invoices in any other status are ignored, so PAID and CANCELLED invoices
// can never contribute. The result is sorted by total overdue descending,
// then by oldest due date ascending, then by student id for a stable order.
func BuildDefaulters(invoices []*Invoice, asOf time.Time, policy Policy) []Defaulter {
	byStudent := make(map[uuid.UUID]*Defaulter)
	order := make([]uuid.UUID, 0)

	for _, inv := range invoices {
		if inv == nil || inv.Status(asOf, policy) != InvoiceStatusOverdue {
			continue
		}
		d, ok := byStudent[inv.StudentID]
		if !ok {
			d = &Defaulter{
				StudentID:     inv.StudentID,
				TotalOverdue:  decimal.Zero,
				TotalAccrued:  decimal.Zero,
				OldestDueDate: inv.DueDate,
			}
			byStudent[inv.StudentID] = d
			order = append(order, inv.StudentID)
		}
		acc := ComputeAccrual(inv, asOf, policy)
		d.TotalOverdue = d.TotalOverdue.Add(acc.Balance)
		d.TotalAccrued = d.TotalAccrued.Add(acc.LateFee).Add(acc.Interest)
		d.OverdueCount++
		d.InvoiceIDs = append(d.InvoiceIDs, inv.ID)
		if inv.DueDate.Before(d.OldestDueDate) {
			d.OldestDueDate = inv.DueDate
		}
	}

	result := make([]Defaulter, 0, len(order))
	for _, id := range order {
		result = append(result, *byStudent[id])
	}
	sort.SliceStable(result, func(i, j int) bool {
		if c := result[i].TotalOverdue.Cmp(result[j].TotalOverdue); c != 0 {
			return c > 0
		}
		if !result[i].OldestDueDate.Equal(result[j].OldestDueDate) {
			return result[i].OldestDueDate.Before(result[j].OldestDueDate)
		}
		return result[i].StudentID.String() < result[j].StudentID.String()
	})
	return result
}
