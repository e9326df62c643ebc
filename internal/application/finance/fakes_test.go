package finance

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
)

// =============================================================================
// In-memory repositories
// =============================================================================

type memInvoices struct {
	mu      sync.Mutex
	rows    map[uuid.UUID]finance.Invoice
	counter map[string]int
	saveErr error
}

func newMemInvoices() *memInvoices {
	return &memInvoices{rows: map[uuid.UUID]finance.Invoice{}, counter: map[string]int{}}
}

func (m *memInvoices) put(inv *finance.Invoice) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c := *inv
	c.ClearDomainEvents()
	m.rows[inv.ID] = c
}

func (m *memInvoices) get(id uuid.UUID) *finance.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil
	}
	return &c
}

func (m *memInvoices) FindByID(_ context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	inv := m.get(id)
	if inv == nil || inv.TenantID != tenantID {
		return nil, finance.ErrInvoiceNotFound
	}
	return inv, nil
}

func (m *memInvoices) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Invoice, error) {
	return m.FindByID(ctx, tenantID, id)
}

func (m *memInvoices) all(tenantID uuid.UUID) []*finance.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*finance.Invoice, 0, len(m.rows))
	for _, row := range m.rows {
		if row.TenantID == tenantID {
			c := row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].InvoiceNumber < out[j].InvoiceNumber })
	return out
}

func (m *memInvoices) FindAll(_ context.Context, tenantID uuid.UUID, f finance.InvoiceFilter) ([]*finance.Invoice, int64, error) {
	policy := finance.Policy{OverduePrecedence: f.OverduePrecedence}
	var out []*finance.Invoice
	for _, inv := range m.all(tenantID) {
		if f.Status != nil && inv.Status(f.AsOf, policy) != *f.Status {
			continue
		}
		if f.StudentID != nil && inv.StudentID != *f.StudentID {
			continue
		}
		if f.Month != nil && inv.BillingMonth != *f.Month {
			continue
		}
		if f.Year != nil && inv.BillingYear != *f.Year {
			continue
		}
		out = append(out, inv)
	}
	return out, int64(len(out)), nil
}

func (m *memInvoices) FindUnpaidDueBefore(_ context.Context, tenantID uuid.UUID, d time.Time) ([]*finance.Invoice, error) {
	var out []*finance.Invoice
	for _, inv := range m.all(tenantID) {
		if !inv.IsCancelled() && inv.Balance().IsPositive() && inv.DueDate.Before(d) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memInvoices) FindDueBetween(_ context.Context, tenantID uuid.UUID, p finance.Period) ([]*finance.Invoice, error) {
	var out []*finance.Invoice
	for _, inv := range m.all(tenantID) {
		if p.Contains(inv.DueDate) {
			out = append(out, inv)
		}
	}
	return out, nil
}

func (m *memInvoices) ExistingKeys(_ context.Context, tenantID, planID uuid.UUID, studentIDs []uuid.UUID) (map[finance.DedupeKey]bool, error) {
	want := make(map[uuid.UUID]bool, len(studentIDs))
	for _, id := range studentIDs {
		want[id] = true
	}
	out := map[finance.DedupeKey]bool{}
	for _, inv := range m.all(tenantID) {
		if inv.PlanID != nil && *inv.PlanID == planID && want[inv.StudentID] {
			out[inv.DedupeKey()] = true
		}
	}
	return out, nil
}

func (m *memInvoices) Create(_ context.Context, inv *finance.Invoice) error {
	for _, existing := range m.all(inv.TenantID) {
		if inv.PlanID != nil && existing.PlanID != nil && existing.DedupeKey() == inv.DedupeKey() {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	m.put(inv)
	return nil
}

func (m *memInvoices) SaveWithLock(_ context.Context, inv *finance.Invoice) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	stored := m.get(inv.ID)
	if stored == nil || stored.Version != inv.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	m.put(inv)
	return nil
}

func (m *memInvoices) NextInvoiceNumber(_ context.Context, tenantID uuid.UUID, prefix string, at time.Time) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := fmt.Sprintf("%s-%s-%04d%02d", tenantID, prefix, at.Year(), at.Month())
	m.counter[key]++
	return fmt.Sprintf("%s-%04d%02d-%05d", prefix, at.Year(), at.Month(), m.counter[key]), nil
}

type memPayments struct {
	mu   sync.Mutex
	rows map[uuid.UUID]finance.Payment
}

func newMemPayments() *memPayments {
	return &memPayments{rows: map[uuid.UUID]finance.Payment{}}
}

func (m *memPayments) get(id uuid.UUID) *finance.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.rows[id]
	if !ok {
		return nil
	}
	return &c
}

func (m *memPayments) put(p *finance.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = *p
}

func (m *memPayments) list(tenantID uuid.UUID) []*finance.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*finance.Payment
	for _, row := range m.rows {
		if row.TenantID == tenantID {
			c := row
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

func (m *memPayments) FindByID(_ context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	p := m.get(id)
	if p == nil || p.TenantID != tenantID {
		return nil, finance.ErrPaymentNotFound
	}
	return p, nil
}

func (m *memPayments) FindByIDForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*finance.Payment, error) {
	return m.FindByID(ctx, tenantID, id)
}

func (m *memPayments) FindByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]*finance.Payment, error) {
	var out []*finance.Payment
	for _, p := range m.list(tenantID) {
		if p.InvoiceID == invoiceID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayments) FindActiveInPeriod(_ context.Context, tenantID uuid.UUID, period finance.Period) ([]*finance.Payment, error) {
	var out []*finance.Payment
	for _, p := range m.list(tenantID) {
		if p.IsActive() && period.Contains(p.PaymentDate) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memPayments) SumActiveByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) (finance.PaymentTotals, error) {
	totals := finance.PaymentTotals{Amount: decimal.Zero}
	for _, p := range m.list(tenantID) {
		if p.InvoiceID == invoiceID && p.IsActive() {
			totals.Count++
			totals.Amount = totals.Amount.Add(p.Amount)
		}
	}
	return totals, nil
}

func (m *memPayments) Create(_ context.Context, p *finance.Payment) error {
	m.put(p)
	return nil
}

func (m *memPayments) SaveWithLock(_ context.Context, p *finance.Payment) error {
	stored := m.get(p.ID)
	if stored == nil || stored.Version != p.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	m.put(p)
	return nil
}

type memPlans struct {
	mu   sync.Mutex
	rows map[uuid.UUID]finance.PaymentPlan
}

func newMemPlans() *memPlans {
	return &memPlans{rows: map[uuid.UUID]finance.PaymentPlan{}}
}

func (m *memPlans) FindByID(_ context.Context, tenantID, id uuid.UUID) (*finance.PaymentPlan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.rows[id]
	if !ok || p.TenantID != tenantID {
		return nil, finance.ErrPlanNotFound
	}
	return &p, nil
}

func (m *memPlans) FindAll(_ context.Context, tenantID uuid.UUID, f finance.PaymentPlanFilter) ([]*finance.PaymentPlan, int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*finance.PaymentPlan
	for _, row := range m.rows {
		if row.TenantID != tenantID {
			continue
		}
		if f.Active != nil && row.Active != *f.Active {
			continue
		}
		c := row
		out = append(out, &c)
	}
	return out, int64(len(out)), nil
}

func (m *memPlans) Create(_ context.Context, p *finance.PaymentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[p.ID] = *p
	return nil
}

func (m *memPlans) SaveWithLock(_ context.Context, p *finance.PaymentPlan) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rows[p.ID]
	if !ok || stored.Version != p.Version-1 {
		return shared.ErrConcurrencyConflict
	}
	m.rows[p.ID] = *p
	return nil
}

type memStudents struct {
	rows []finance.Student
	err  error
}

func (m *memStudents) FindByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) ([]finance.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	want := make(map[uuid.UUID]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []finance.Student
	for _, st := range m.rows {
		if want[st.ID] {
			out = append(out, st)
		}
	}
	return out, nil
}

func (m *memStudents) ListByClass(_ context.Context, _ uuid.UUID, classID uuid.UUID, activeOnly bool) ([]finance.Student, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []finance.Student
	for _, st := range m.rows {
		if st.ClassID != nil && *st.ClassID == classID && (!activeOnly || st.Active) {
			out = append(out, st)
		}
	}
	return out, nil
}

// =============================================================================
// Mocks
// =============================================================================

type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type MockReportStorage struct {
	mock.Mock
}

func (m *MockReportStorage) Put(ctx context.Context, key, contentType string, body []byte) error {
	args := m.Called(ctx, key, contentType, body)
	return args.Error(0)
}

func (m *MockReportStorage) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	args := m.Called(ctx, key, ttl)
	return args.String(0), args.Error(1)
}

type MockMetricsRecorder struct {
	mock.Mock
}

func (m *MockMetricsRecorder) RecordInvoiceCreated(ctx context.Context, tenantID uuid.UUID, invoiceType string, amount decimal.Decimal) {
	m.Called(ctx, tenantID, invoiceType, amount)
}

func (m *MockMetricsRecorder) RecordInvoiceCancelled(ctx context.Context, tenantID uuid.UUID) {
	m.Called(ctx, tenantID)
}

func (m *MockMetricsRecorder) RecordPayment(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	m.Called(ctx, tenantID, method, amount)
}

func (m *MockMetricsRecorder) RecordPaymentCancelled(ctx context.Context, tenantID uuid.UUID, method string, amount decimal.Decimal) {
	m.Called(ctx, tenantID, method, amount)
}

// =============================================================================
// Fixture
// =============================================================================

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type fixture struct {
	tenantID  uuid.UUID
	userID    uuid.UUID
	invoices  *memInvoices
	payments  *memPayments
	plans     *memPlans
	students  *memStudents
	publisher *MockEventPublisher
	scope     *NoOpTransactionScope
	clock     FixedClock
	policy    finance.Policy

	recorder  *PaymentRecorder
	invoice   *InvoiceService
	invoicing *InvoicingService
	reporting *ReportingService
}

func newFixture(t *testing.T, now time.Time) *fixture {
	t.Helper()
	f := &fixture{
		tenantID:  uuid.New(),
		userID:    uuid.New(),
		invoices:  newMemInvoices(),
		payments:  newMemPayments(),
		plans:     newMemPlans(),
		students:  &memStudents{},
		publisher: new(MockEventPublisher),
		clock:     FixedClock(now),
		policy:    finance.DefaultPolicy(),
	}
	f.publisher.On("Publish", mock.Anything, mock.Anything).Return(nil).Maybe()
	f.scope = NewNoOpTransactionScope(f.invoices, f.payments, f.plans)
	f.build()
	return f
}

func (f *fixture) build() {
	f.recorder = NewPaymentRecorder(f.scope, f.payments, f.publisher, f.clock, f.policy, nil)
	f.invoice = NewInvoiceService(InvoiceServiceConfig{
		TxScope:     f.scope,
		InvoiceRepo: f.invoices,
		PaymentRepo: f.payments,
		Students:    f.students,
		Events:      f.publisher,
		Clock:       f.clock,
		Policy:      f.policy,
	})
	f.invoicing = NewInvoicingService(InvoicingServiceConfig{
		TxScope:  f.scope,
		PlanRepo: f.plans,
		Students: f.students,
		Events:   f.publisher,
		Clock:    f.clock,
		Policy:   f.policy,
	})
	f.reporting = NewReportingService(ReportingServiceConfig{
		InvoiceRepo: f.invoices,
		PaymentRepo: f.payments,
		Students:    f.students,
		Clock:       f.clock,
		Policy:      f.policy,
	})
}

func (f *fixture) rc(role finance.Role, now time.Time) finance.RequestContext {
	return finance.RequestContext{
		TenantID:     f.tenantID,
		UserID:       f.userID,
		Role:         role,
		Now:          now,
		AcademicYear: "2023/2024",
	}
}

func (f *fixture) addStudent(classID *uuid.UUID) finance.Student {
	st := finance.Student{
		ID:            uuid.New(),
		Name:          "Aluno " + fmt.Sprint(len(f.students.rows)+1),
		StudentNumber: fmt.Sprintf("2024%04d", len(f.students.rows)+1),
		ClassID:       classID,
		ClassName:     "10ª A",
		Active:        true,
	}
	f.students.rows = append(f.students.rows, st)
	return st
}

// seedInvoice stores an invoice directly
func (f *fixture) seedInvoice(t *testing.T, studentID uuid.UUID, amount string, due time.Time) *finance.Invoice {
	t.Helper()
	number, err := f.invoices.NextInvoiceNumber(context.Background(), f.tenantID, "FT", due)
	require.NoError(t, err)
	inv, err := finance.NewInvoice(finance.NewInvoiceInput{
		TenantID:      f.tenantID,
		StudentID:     studentID,
		InvoiceNumber: number,
		Amount:        dec(amount),
		DueDate:       due,
		BillingMonth:  int(due.Month()),
		BillingYear:   due.Year(),
		AcademicYear:  "2023/2024",
		CreatedBy:     f.userID,
		Now:           due.AddDate(0, -1, 0),
	})
	require.NoError(t, err)
	f.invoices.put(inv)
	return f.invoices.get(inv.ID)
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var de *shared.DomainError
	require.True(t, errors.As(err, &de), "expected DomainError, got %T: %v", err, err)
	assert.Equal(t, code, de.Code)
}
