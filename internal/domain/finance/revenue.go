package finance

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Period is an inclusive range of calendar days
type Period struct {
	From time.Time
	To   time.Time
}

// NewPeriod validates and normalises a reporting period to whole days
func NewPeriod(from, to time.Time) (Period, error) {
	if from.IsZero() || to.IsZero() {
		return Period{}, NewValidationError("period", "O período deve ter data inicial e final")
	}
	from, to = DateOf(from), DateOf(to)
	if to.Before(from) {
		return Period{}, NewValidationError("period", "A data final não pode ser anterior à data inicial")
	}
	return Period{From: from, To: to}, nil
}

// MonthPeriod covers one calendar month
func MonthPeriod(year, month int) Period {
	from := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	return Period{From: from, To: from.AddDate(0, 1, -1)}
}

// Contains reports whether t falls on a day inside the period
func (p Period) Contains(t time.Time) bool {
	d := DateOf(t)
	return !d.Before(p.From) && !d.After(p.To)
}

// End returns the first instant after the period, for half-open SQL ranges
func (p Period) End() time.Time {
	return p.To.AddDate(0, 0, 1)
}

// MonthlyRevenue is collected vs expected for one calendar month
type MonthlyRevenue struct {
	Year      int
	Month     int
	Collected decimal.Decimal
	Expected  decimal.Decimal
}

// MethodRevenue is collected money for one payment method
type MethodRevenue struct {
	Method PaymentMethod
	Amount decimal.Decimal
	Count  int
}

// RevenueSummary compares what fell due in a period with what was collected
type RevenueSummary struct {
	Period    Period
	Collected decimal.Decimal
	Expected  decimal.Decimal
	ByMonth   []MonthlyRevenue
	ByMethod  []MethodRevenue
}

// SummarizeRevenue sums active payments dated inside the period (collected)
// and the amount of non-cancelled invoices due inside the period (expected),
// whatever their payment status.
func SummarizeRevenue(period Period, payments []*Payment, invoices []*Invoice) RevenueSummary {
	sum := RevenueSummary{
		Period:    period,
		Collected: decimal.Zero,
		Expected:  decimal.Zero,
	}
	months := make(map[[2]int]*MonthlyRevenue)
	monthOf := func(t time.Time) *MonthlyRevenue {
		key := [2]int{t.Year(), int(t.Month())}
		m, ok := months[key]
		if !ok {
			m = &MonthlyRevenue{Year: key[0], Month: key[1], Collected: decimal.Zero, Expected: decimal.Zero}
			months[key] = m
		}
		return m
	}
	methods := make(map[PaymentMethod]*MethodRevenue)

	for _, p := range payments {
		if p == nil || !p.IsActive() || !period.Contains(p.PaymentDate) {
			continue
		}
		sum.Collected = sum.Collected.Add(p.Amount)
		m := monthOf(p.PaymentDate)
		m.Collected = m.Collected.Add(p.Amount)

		mr, ok := methods[p.Method]
		if !ok {
			mr = &MethodRevenue{Method: p.Method, Amount: decimal.Zero}
			methods[p.Method] = mr
		}
		mr.Amount = mr.Amount.Add(p.Amount)
		mr.Count++
	}

	for _, inv := range invoices {
		if inv == nil || inv.IsCancelled() || !period.Contains(inv.DueDate) {
			continue
		}
		sum.Expected = sum.Expected.Add(inv.Amount)
		m := monthOf(inv.DueDate)
		m.Expected = m.Expected.Add(inv.Amount)
	}

	sum.ByMonth = make([]MonthlyRevenue, 0, len(months))
	for _, m := range months {
		sum.ByMonth = append(sum.ByMonth, *m)
	}
	sort.Slice(sum.ByMonth, func(i, j int) bool {
		if sum.ByMonth[i].Year != sum.ByMonth[j].Year {
			return sum.ByMonth[i].Year < sum.ByMonth[j].Year
		}
		return sum.ByMonth[i].Month < sum.ByMonth[j].Month
	})

	sum.ByMethod = make([]MethodRevenue, 0, len(methods))
	for _, mr := range methods {
		sum.ByMethod = append(sum.ByMethod, *mr)
	}
	sort.Slice(sum.ByMethod, func(i, j int) bool {
		if c := sum.ByMethod[i].Amount.Cmp(sum.ByMethod[j].Amount); c != 0 {
			return c > 0
		}
		return sum.ByMethod[i].Method < sum.ByMethod[j].Method
	})
	return sum
}
