package finance

import (
	"fmt"
	"strconv"
	"strings"
)

// AcademicYear is a school year spanning two calendar years, written "2024/2025".
type AcademicYear struct {
	StartYear int
	EndYear   int
}

// ParseAcademicYear accepts "YYYY/YYYY+1" only
func ParseAcademicYear(s string) (AcademicYear, error) {
	invalid := NewValidationError("academic_year", "Ano lectivo inválido, use o formato AAAA/AAAA")
	start, end, ok := strings.Cut(strings.TrimSpace(s), "/")
	if !ok || len(start) != 4 || len(end) != 4 {
		return AcademicYear{}, invalid
	}
	sy, err := strconv.Atoi(start)
	if err != nil {
		return AcademicYear{}, invalid
	}
	ey, err := strconv.Atoi(end)
	if err != nil || ey != sy+1 {
		return AcademicYear{}, invalid
	}
	return AcademicYear{StartYear: sy, EndYear: ey}, nil
}

func (y AcademicYear) String() string {
	return fmt.Sprintf("%04d/%04d", y.StartYear, y.EndYear)
}
