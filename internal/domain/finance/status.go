package finance

import (
	"time"

	"github.com/shopspring/decimal"
)

// InvoiceStatus is always derived from an invoice's facts; it is never stored.
type InvoiceStatus string

const (
	InvoiceStatusPending   InvoiceStatus = "PENDING"   // nothing paid, not yet due
	InvoiceStatusPartial   InvoiceStatus = "PARTIAL"   // something paid, balance remains
	InvoiceStatusPaid      InvoiceStatus = "PAID"      // balance is zero
	InvoiceStatusOverdue   InvoiceStatus = "OVERDUE"   // balance remains past the due date
	InvoiceStatusCancelled InvoiceStatus = "CANCELLED" // terminal
)

// IsValid checks if the status is a known InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	switch s {
	case InvoiceStatusPending, InvoiceStatusPartial, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

func (s InvoiceStatus) String() string {
	return string(s)
}

// IsOpen returns true while the invoice still expects money
func (s InvoiceStatus) IsOpen() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPartial || s == InvoiceStatusOverdue
}

// Policy holds the school-configurable rules of the billing core.
type Policy struct {
	// OverduePrecedence makes a partially paid invoice past its due date
	// report OVERDUE instead of PARTIAL.
	OverduePrecedence bool
	// AllowOverpayment lets paid amount exceed the invoice amount.
	AllowOverpayment bool
	// AccrualEnabled turns late-fee and interest ledger lines on.
	AccrualEnabled bool
}

// DefaultPolicy returns the rules used when nothing is configured
func DefaultPolicy() Policy {
	return Policy{
		OverduePrecedence: true,
		AllowOverpayment:  false,
		AccrualEnabled:    true,
	}
}

// ComputeStatus derives the status of an invoice under DefaultPolicy.
func ComputeStatus(amount, paidAmount decimal.Decimal, dueDate time.Time, isCancelled bool, now time.Time) InvoiceStatus {
	return DefaultPolicy().ComputeStatus(amount, paidAmount, dueDate, isCancelled, now)
}

// ComputeStatus derives the status of an invoice. It is pure: the same inputs
// always give the same status.
func (p Policy) ComputeStatus(amount, paidAmount decimal.Decimal, dueDate time.Time, isCancelled bool, now time.Time) InvoiceStatus {
	if isCancelled {
		return InvoiceStatusCancelled
	}
	if paidAmount.GreaterThanOrEqual(amount) {
		return InvoiceStatusPaid
	}
	pastDue := IsPastDue(dueDate, now)
	if paidAmount.IsPositive() {
		if pastDue && p.OverduePrecedence {
			return InvoiceStatusOverdue
		}
		return InvoiceStatusPartial
	}
	if pastDue {
		return InvoiceStatusOverdue
	}
	return InvoiceStatusPending
}

// Balance returns amount - paidAmount, floored at zero.
func Balance(amount, paidAmount decimal.Decimal) decimal.Decimal {
	b := amount.Sub(paidAmount)
	if b.IsNegative() {
		return decimal.Zero
	}
	return b
}

// IsPastDue reports whether now falls on a calendar day after dueDate.
// The due day itself is still payable without becoming overdue.
func IsPastDue(dueDate, now time.Time) bool {
	return DateOf(now).After(DateOf(dueDate))
}

// DaysPastDue returns the number of whole calendar days since the due date,
// zero when not past due.
func DaysPastDue(dueDate, now time.Time) int {
	if !IsPastDue(dueDate, now) {
		return 0
	}
	return int(DateOf(now).Sub(DateOf(dueDate)).Hours() / 24)
}

// DateOf returns the calendar date of t, as seen in t's own location, as
// midnight UTC. All due dates and payment dates are kept in this form so that
// comparisons never depend on the server's zone.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
