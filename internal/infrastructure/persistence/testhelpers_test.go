package persistence

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/infrastructure/persistence/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB opens a private in-memory SQLite database with the billing tables
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		SkipDefaultTransaction: true,
		TranslateError:         true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(models.AllModels()...))
	return db
}

// setupMockDB opens GORM over sqlmock with the postgres dialector
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type invoiceSeed struct {
	tenantID  uuid.UUID
	studentID uuid.UUID
	planID    *uuid.UUID
	number    string
	amount    string
	due       time.Time
	month     int
	year      int
}

func newTestInvoice(t *testing.T, s invoiceSeed) *finance.Invoice {
	t.Helper()
	if s.studentID == uuid.Nil {
		s.studentID = uuid.New()
	}
	if s.month == 0 {
		s.month, s.year = int(s.due.Month()), s.due.Year()
	}
	inv, err := finance.NewInvoice(finance.NewInvoiceInput{
		TenantID:      s.tenantID,
		StudentID:     s.studentID,
		PlanID:        s.planID,
		InvoiceNumber: s.number,
		Amount:        dec(s.amount),
		DueDate:       s.due,
		BillingMonth:  s.month,
		BillingYear:   s.year,
		AcademicYear:  "2023/2024",
		Now:           day(2023, time.September, 1),
	})
	require.NoError(t, err)
	return inv
}
