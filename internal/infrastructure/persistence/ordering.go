package persistence

import "strings"

// sortSpec whitelists the columns a list endpoint may order by. User input
// never reaches ORDER BY unless it names one of them.
type sortSpec struct {
	columns  map[string]bool
	fallback string
}

var (
	invoiceSort = sortSpec{
		columns: map[string]bool{
			"created_at": true, "invoice_number": true, "due_date": true,
			"amount": true, "paid_amount": true, "billing_year": true, "billing_month": true,
		},
		fallback: "due_date",
	}
	planSort = sortSpec{
		columns:  map[string]bool{"created_at": true, "name": true, "academic_year": true, "monthly_amount": true},
		fallback: "created_at",
	}
)

// clause builds "<column> <ASC|DESC>, id ASC". The id tie-break keeps pages
// stable when many rows share a due date.
func (s sortSpec) clause(column, direction string) string {
	column = strings.TrimSpace(column)
	if !s.columns[column] {
		column = s.fallback
	}
	dir := "DESC"
	if strings.EqualFold(strings.TrimSpace(direction), "asc") {
		dir = "ASC"
	}
	return column + " " + dir + ", id ASC"
}
