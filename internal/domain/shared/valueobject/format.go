package valueobject

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// angolanPortuguese is the locale used for amounts shown to school staff
var angolanPortuguese = language.MustParse("pt-AO")

// FormatKwanza renders an amount with the pt-AO CLDR conventions: a
// no-break space (U+00A0) groups thousands and a comma separates the
// centimos, e.g. "15\u00a0000,00 Kz". Only the integer part goes through the
// locale printer so no precision is lost converting to float.
func FormatKwanza(m Money) string {
	rounded := m.Round(MinorUnits)
	abs := rounded.Amount().Abs()
	_, frac, _ := strings.Cut(abs.StringFixed(MinorUnits), ".")

	var b strings.Builder
	if rounded.IsNegative() {
		b.WriteString("-")
	}
	p := message.NewPrinter(angolanPortuguese)
	b.WriteString(p.Sprintf("%d", abs.Truncate(0).IntPart()))
	b.WriteString(",")
	b.WriteString(frac)
	b.WriteString(" Kz")
	return b.String()
}
