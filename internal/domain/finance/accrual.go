package finance

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/synexa/sis/internal/domain/shared/valueobject"
)

// LedgerLineKind names a charge that sits beside the original invoice amount
type LedgerLineKind string

const (
	LedgerLineLateFee  LedgerLineKind = "LATE_FEE"
	LedgerLineInterest LedgerLineKind = "INTEREST"
)

// LedgerLine is a derived charge. It is never written back into Invoice.Amount
// so the billed amount stays auditable.
type LedgerLine struct {
	Kind        LedgerLineKind
	Amount      decimal.Decimal
	Description string
	Since       time.Time
	Days        int
}

// Accrual is what an invoice owes at a given instant, charges included
type Accrual struct {
	Balance  decimal.Decimal
	LateFee  decimal.Decimal
	Interest decimal.Decimal
	Lines    []LedgerLine
}

// TotalDue is balance plus accrued charges
func (a Accrual) TotalDue() decimal.Decimal {
	return a.Balance.Add(a.LateFee).Add(a.Interest)
}

// ComputeAccrual derives late fee and interest for an invoice at now.
//
//	lateFee  = amount * lateFeePercent / 100, once the invoice is OVERDUE
//	interest = balance * dailyInterestRate * daysOverdue
//
// Both are rounded half-up to cêntimos. Nothing accrues unless the derived
// status is OVERDUE.
func ComputeAccrual(inv *Invoice, now time.Time, policy Policy) Accrual {
	acc := Accrual{
		Balance:  inv.Balance(),
		LateFee:  decimal.Zero,
		Interest: decimal.Zero,
	}
	if !policy.AccrualEnabled || inv.Status(now, policy) != InvoiceStatusOverdue {
		return acc
	}

	since := DateOf(inv.DueDate).AddDate(0, 0, 1)
	if inv.LateFeePercent.IsPositive() {
		acc.LateFee = valueobject.Kwanza(inv.Amount).CalculatePercentage(inv.LateFeePercent).Amount()
		acc.Lines = append(acc.Lines, LedgerLine{
			Kind:        LedgerLineLateFee,
			Amount:      acc.LateFee,
			Description: "Multa por atraso",
			Since:       since,
		})
	}

	days := inv.DaysOverdue(now)
	if inv.DailyInterestRate.IsPositive() && days > 0 {
		acc.Interest = acc.Balance.
			Mul(inv.DailyInterestRate).
			Mul(decimal.NewFromInt(int64(days))).
			Round(valueobject.MinorUnits)
		acc.Lines = append(acc.Lines, LedgerLine{
			Kind:        LedgerLineInterest,
			Amount:      acc.Interest,
			Description: "Juros de mora",
			Since:       since,
			Days:        days,
		})
	}
	return acc
}
