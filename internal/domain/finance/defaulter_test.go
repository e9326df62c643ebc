package finance

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func invoiceFor(t *testing.T, student uuid.UUID, amount string, due time.Time) *Invoice {
	inv := newTestInvoice(t, amount, due)
	inv.StudentID = student
	return inv
}

func TestBuildDefaulters(t *testing.T) {
	asOf := day(2024, 3, 1)
	alice, bruno, carla, diogo := uuid.New(), uuid.New(), uuid.New(), uuid.New()

	aliceJan := invoiceFor(t, alice, "15000", day(2024, 1, 10))
	aliceFeb := invoiceFor(t, alice, "15000", day(2024, 2, 10))
	aliceMar := invoiceFor(t, alice, "15000", day(2024, 3, 10)) // not yet due

	brunoJan := invoiceFor(t, bruno, "20000", day(2024, 1, 5))
	require.NoError(t, brunoJan.ApplyPayment(newTestPayment(t, brunoJan, "5000", day(2024, 1, 2)), DefaultPolicy(), day(2024, 1, 2)))
	brunoFeb := invoiceFor(t, bruno, "15000", day(2024, 2, 5))

	carlaPaid := invoiceFor(t, carla, "15000", day(2024, 1, 10))
	require.NoError(t, carlaPaid.ApplyPayment(newTestPayment(t, carlaPaid, "15000", day(2024, 1, 2)), DefaultPolicy(), day(2024, 1, 2)))
	carlaCancelled := invoiceFor(t, carla, "15000", day(2024, 1, 10))
	require.NoError(t, carlaCancelled.Cancel(uuid.New(), "erro", day(2024, 1, 2)))

	diogoJan := invoiceFor(t, diogo, "30000", day(2024, 2, 1))

	all := []*Invoice{aliceJan, aliceFeb, aliceMar, brunoJan, brunoFeb, carlaPaid, carlaCancelled, diogoJan, nil}
	got := BuildDefaulters(all, asOf, DefaultPolicy())

	require.Len(t, got, 3, "carla has only paid/cancelled invoices")

	// alice and bruno and diogo all owe 30000; ties break on oldest due date
	assert.Equal(t, bruno, got[0].StudentID)
	assert.True(t, got[0].TotalOverdue.Equal(d("30000")))
	assert.Equal(t, 2, got[0].OverdueCount)
	assert.Equal(t, day(2024, 1, 5), got[0].OldestDueDate)

	assert.Equal(t, alice, got[1].StudentID)
	assert.Equal(t, 2, got[1].OverdueCount)
	assert.Equal(t, day(2024, 1, 10), got[1].OldestDueDate)
	assert.ElementsMatch(t, []uuid.UUID{aliceJan.ID, aliceFeb.ID}, got[1].InvoiceIDs)

	assert.Equal(t, diogo, got[2].StudentID)
	assert.Equal(t, 1, got[2].OverdueCount)

	for _, def := range got {
		assert.NotEqual(t, carla, def.StudentID)
	}
}

func TestBuildDefaulters_SortsByAmountFirst(t *testing.T) {
	asOf := day(2024, 3, 1)
	small, big := uuid.New(), uuid.New()

	got := BuildDefaulters([]*Invoice{
		invoiceFor(t, small, "1000", day(2023, 9, 10)),
		invoiceFor(t, big, "50000", day(2024, 2, 10)),
	}, asOf, DefaultPolicy())

	require.Len(t, got, 2)
	assert.Equal(t, big, got[0].StudentID)
	assert.Equal(t, small, got[1].StudentID)
}

func TestBuildDefaulters_IncludesAccrual(t *testing.T) {
	inv := invoiceFor(t, uuid.New(), "10000", day(2024, 1, 10))
	inv.LateFeePercent = d("5")

	got := BuildDefaulters([]*Invoice{inv}, day(2024, 1, 20), DefaultPolicy())
	require.Len(t, got, 1)
	assert.True(t, got[0].TotalAccrued.Equal(d("500")))
	assert.True(t, got[0].TotalDue().Equal(d("10500")))
}

func TestBuildDefaulters_PartialPrecedenceOff(t *testing.T) {
	policy := DefaultPolicy()
	policy.OverduePrecedence = false
	inv := invoiceFor(t, uuid.New(), "10000", day(2024, 1, 10))
	require.NoError(t, inv.ApplyPayment(newTestPayment(t, inv, "4000", day(2024, 1, 2)), policy, day(2024, 1, 2)))

	assert.Empty(t, BuildDefaulters([]*Invoice{inv}, day(2024, 3, 1), policy))
	assert.Len(t, BuildDefaulters([]*Invoice{inv}, day(2024, 3, 1), DefaultPolicy()), 1)
}
