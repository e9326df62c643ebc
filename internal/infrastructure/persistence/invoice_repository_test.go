package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

func TestInvoiceRepository_CreateAndFind(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	inv := newTestInvoice(t, invoiceSeed{
		tenantID: tenantID, number: "FT-202401-00001", amount: "15000.50", due: day(2024, time.January, 10),
	})
	require.NoError(t, repo.Create(ctx, inv))

	got, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.InvoiceNumber, got.InvoiceNumber)
	assert.True(t, got.Amount.Equal(dec("15000.50")))
	assert.True(t, got.PaidAmount.IsZero())
	assert.Equal(t, day(2024, time.January, 10), got.DueDate)
	assert.Equal(t, 1, got.Version)

	t.Run("other tenant cannot see it", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), inv.ID)
		assert.ErrorIs(t, err, finance.ErrInvoiceNotFound)
	})

	t.Run("locked read on sqlite", func(t *testing.T) {
		locked, err := repo.FindByIDForUpdate(ctx, tenantID, inv.ID)
		require.NoError(t, err)
		assert.Equal(t, inv.ID, locked.ID)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := repo.FindByIDForUpdate(ctx, tenantID, uuid.New())
		assert.ErrorIs(t, err, finance.ErrInvoiceNotFound)
	})
}

func TestInvoiceRepository_SaveWithLock(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := day(2024, time.January, 5)

	inv := newTestInvoice(t, invoiceSeed{
		tenantID: tenantID, number: "FT-202401-00001", amount: "10000", due: day(2024, time.January, 10),
	})
	require.NoError(t, repo.Create(ctx, inv))

	first, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	second, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)

	p, err := finance.NewPayment(finance.NewPaymentInput{Invoice: first, Amount: dec("10000"), Method: "CASH", Now: now})
	require.NoError(t, err)
	require.NoError(t, first.ApplyPayment(p, finance.DefaultPolicy(), now))
	require.NoError(t, repo.SaveWithLock(ctx, first))

	stored, err := repo.FindByID(ctx, tenantID, inv.ID)
	require.NoError(t, err)
	assert.True(t, stored.PaidAmount.Equal(dec("10000")))
	assert.Equal(t, 2, stored.Version)
	require.NotNil(t, stored.PaidAt)

	// the second copy was loaded at version 1 and is now stale
	require.NoError(t, second.Cancel(uuid.New(), "duplicada", now))
	err = repo.SaveWithLock(ctx, second)
	assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
}

func TestInvoiceRepository_StatusFilter(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	asOf := day(2024, time.February, 15)
	now := day(2024, time.February, 1)

	seed := func(number, amount string, due time.Time, paid string) *finance.Invoice {
		inv := newTestInvoice(t, invoiceSeed{tenantID: tenantID, number: number, amount: amount, due: due})
		inv.PaidAmount = dec(paid)
		require.NoError(t, repo.Create(ctx, inv))
		return inv
	}
	pending := seed("FT-1", "1000", day(2024, time.February, 20), "0")
	dueToday := seed("FT-2", "1000", asOf, "0")
	overdue := seed("FT-3", "1000", day(2024, time.January, 10), "0")
	partialLate := seed("FT-4", "1000", day(2024, time.January, 10), "400")
	partial := seed("FT-5", "1000", day(2024, time.March, 10), "400")
	paid := seed("FT-6", "1000", day(2024, time.January, 10), "1000")

	cancelled := newTestInvoice(t, invoiceSeed{tenantID: tenantID, number: "FT-7", amount: "1000", due: day(2024, time.January, 10)})
	require.NoError(t, cancelled.Cancel(uuid.New(), "erro", now))
	require.NoError(t, repo.Create(ctx, cancelled))

	ids := func(status finance.InvoiceStatus, precedence bool) []uuid.UUID {
		s := status
		found, total, err := repo.FindAll(ctx, tenantID, finance.InvoiceFilter{
			Filter: shared.Filter{Page: 1, PageSize: 50}, Status: &s, AsOf: asOf, OverduePrecedence: precedence,
		})
		require.NoError(t, err)
		require.Equal(t, int64(len(found)), total)
		out := make([]uuid.UUID, len(found))
		for i, inv := range found {
			out[i] = inv.ID
		}
		return out
	}

	assert.ElementsMatch(t, []uuid.UUID{pending.ID, dueToday.ID}, ids(finance.InvoiceStatusPending, true))
	assert.ElementsMatch(t, []uuid.UUID{overdue.ID, partialLate.ID}, ids(finance.InvoiceStatusOverdue, true))
	assert.ElementsMatch(t, []uuid.UUID{partial.ID}, ids(finance.InvoiceStatusPartial, true))
	assert.ElementsMatch(t, []uuid.UUID{paid.ID}, ids(finance.InvoiceStatusPaid, true))
	assert.ElementsMatch(t, []uuid.UUID{cancelled.ID}, ids(finance.InvoiceStatusCancelled, true))

	// without precedence a late partial invoice stays PARTIAL
	assert.ElementsMatch(t, []uuid.UUID{overdue.ID}, ids(finance.InvoiceStatusOverdue, false))
	assert.ElementsMatch(t, []uuid.UUID{partial.ID, partialLate.ID}, ids(finance.InvoiceStatusPartial, false))

	t.Run("status filter agrees with ComputeStatus", func(t *testing.T) {
		policy := finance.DefaultPolicy()
		all, _, err := repo.FindAll(ctx, tenantID, finance.InvoiceFilter{Filter: shared.Filter{PageSize: 50}})
		require.NoError(t, err)
		for _, inv := range all {
			assert.Contains(t, ids(inv.Status(asOf, policy), true), inv.ID, inv.InvoiceNumber)
		}
	})

	t.Run("paging and ordering", func(t *testing.T) {
		page, total, err := repo.FindAll(ctx, tenantID, finance.InvoiceFilter{
			Filter: shared.Filter{Page: 2, PageSize: 3, OrderBy: "invoice_number", OrderDir: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		require.Len(t, page, 3)
		assert.Equal(t, "FT-4", page[0].InvoiceNumber)
	})
}

func TestInvoiceRepository_Queries(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	student := uuid.New()
	planID := uuid.New()

	jan := newTestInvoice(t, invoiceSeed{tenantID: tenantID, studentID: student, planID: &planID, number: "FT-202401-00001", amount: "100", due: day(2024, time.January, 10)})
	feb := newTestInvoice(t, invoiceSeed{tenantID: tenantID, studentID: student, planID: &planID, number: "FT-202402-00001", amount: "100", due: day(2024, time.February, 10)})
	mar := newTestInvoice(t, invoiceSeed{tenantID: tenantID, studentID: student, planID: &planID, number: "FT-202403-00001", amount: "100", due: day(2024, time.March, 10)})
	for _, inv := range []*finance.Invoice{jan, feb, mar} {
		require.NoError(t, repo.Create(ctx, inv))
	}

	t.Run("unpaid before a day", func(t *testing.T) {
		found, err := repo.FindUnpaidDueBefore(ctx, tenantID, day(2024, time.February, 10))
		require.NoError(t, err)
		require.Len(t, found, 1)
		assert.Equal(t, jan.ID, found[0].ID)
	})

	t.Run("due inside a period", func(t *testing.T) {
		found, err := repo.FindDueBetween(ctx, tenantID, finance.Period{From: day(2024, time.February, 1), To: day(2024, time.March, 10)})
		require.NoError(t, err)
		assert.Len(t, found, 2)
	})

	t.Run("existing plan slots", func(t *testing.T) {
		keys, err := repo.ExistingKeys(ctx, tenantID, planID, []uuid.UUID{student, uuid.New()})
		require.NoError(t, err)
		assert.Len(t, keys, 3)
		assert.True(t, keys[finance.DedupeKey{StudentID: student, PlanID: planID, Month: 2, Year: 2024}])
	})

	t.Run("plan slot is unique", func(t *testing.T) {
		dup := newTestInvoice(t, invoiceSeed{tenantID: tenantID, studentID: student, planID: &planID, number: "FT-202401-00009", amount: "100", due: day(2024, time.January, 10)})
		err := repo.Create(ctx, dup)
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
	})

	t.Run("tenants with open invoices", func(t *testing.T) {
		ids, err := repo.ActiveTenantIDs(ctx)
		require.NoError(t, err)
		assert.Equal(t, []uuid.UUID{tenantID}, ids)
	})
}

func TestInvoiceRepository_NextInvoiceNumber(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGormInvoiceRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	at := day(2024, time.January, 15)

	first, err := repo.NextInvoiceNumber(ctx, tenantID, "FT", at)
	require.NoError(t, err)
	assert.Equal(t, "FT-202401-00001", first)

	require.NoError(t, repo.Create(ctx, newTestInvoice(t, invoiceSeed{tenantID: tenantID, number: first, amount: "1", due: at})))
	require.NoError(t, repo.Create(ctx, newTestInvoice(t, invoiceSeed{tenantID: tenantID, number: "FT-202401-00041", amount: "1", due: at})))

	next, err := repo.NextInvoiceNumber(ctx, tenantID, "FT", at)
	require.NoError(t, err)
	assert.Equal(t, "FT-202401-00042", next)

	other, err := repo.NextInvoiceNumber(ctx, tenantID, "FT", day(2024, time.February, 1))
	require.NoError(t, err)
	assert.Equal(t, "FT-202402-00001", other)

	fresh, err := repo.NextInvoiceNumber(ctx, uuid.New(), "FT", at)
	require.NoError(t, err)
	assert.Equal(t, "FT-202401-00001", fresh)

	t.Run("counter keeps growing past five digits", func(t *testing.T) {
		busy := uuid.New()
		march := day(2024, time.March, 1)
		for _, number := range []string{"FT-202403-99999", "FT-202403-100000"} {
			require.NoError(t, repo.Create(ctx, newTestInvoice(t, invoiceSeed{tenantID: busy, number: number, amount: "1", due: march})))
		}

		next, err := repo.NextInvoiceNumber(ctx, busy, "FT", march)
		require.NoError(t, err)
		assert.Equal(t, "FT-202403-100001", next)
	})
}

func TestInvoiceRepository_ForUpdateSQL(t *testing.T) {
	db, mock, mockDB := setupMockDB(t)
	defer mockDB.Close()
	repo := NewGormInvoiceRepository(db)
	tenantID, id := uuid.New(), uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "invoices" WHERE .+ FOR UPDATE`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tenant_id", "invoice_number", "amount", "paid_amount", "version"}).
			AddRow(id, tenantID, "FT-202401-00001", "100.00", "0.00", 3))

	inv, err := repo.FindByIDForUpdate(context.Background(), tenantID, id)
	require.NoError(t, err)
	assert.Equal(t, 3, inv.Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}
