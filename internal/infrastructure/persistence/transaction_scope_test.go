package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	appfinance "github.com/synexa/sis/internal/application/finance"
	"github.com/synexa/sis/internal/domain/finance"
)

func TestGormTransactionScope_RollsBack(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, 5*time.Second)
	ctx := context.Background()
	tenantID := uuid.New()
	boom := errors.New("boom")

	inv := newTestInvoice(t, invoiceSeed{tenantID: tenantID, number: "FT-202401-00001", amount: "100", due: day(2024, time.January, 10)})
	err := scope.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	_, err = NewGormInvoiceRepository(db).FindByID(ctx, tenantID, inv.ID)
	assert.ErrorIs(t, err, finance.ErrInvoiceNotFound)
}

func TestGormTransactionScope_Commits(t *testing.T) {
	db := setupTestDB(t)
	scope := NewGormTransactionScope(db, 0)
	ctx := context.Background()
	tenantID := uuid.New()

	inv := newTestInvoice(t, invoiceSeed{tenantID: tenantID, number: "FT-202401-00001", amount: "100", due: day(2024, time.January, 10)})
	require.NoError(t, scope.Execute(ctx, func(repos appfinance.TransactionalRepositories) error {
		if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
			return err
		}
		p, err := finance.NewPayment(finance.NewPaymentInput{Invoice: inv, Amount: dec("40"), Method: finance.PaymentMethodCash, Now: day(2024, time.January, 2)})
		if err != nil {
			return err
		}
		return repos.PaymentRepo().Create(ctx, p)
	}))

	totals, err := NewGormPaymentRepository(db).SumActiveByInvoice(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), totals.Count)
}

func TestGormTransactionScope_SetsLockTimeoutOnPostgres(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	scope := NewGormTransactionScope(db, 5*time.Second)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET LOCAL lock_timeout = '5000ms'")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectCommit()

	called := false
	err := scope.Execute(context.Background(), func(repos appfinance.TransactionalRepositories) error {
		called = true
		assert.NotNil(t, repos.PlanRepo())
		return nil
	})
	require.NoError(t, err)
	assert.True(t, called)
	assert.NoError(t, mock.ExpectationsWereMet())
}
