package finance

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/synexa/sis/internal/domain/finance"
	"github.com/synexa/sis/internal/domain/shared"
	"github.com/synexa/sis/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

var monthNames = [...]string{
	"Janeiro", "Fevereiro", "Março", "Abril", "Maio", "Junho",
	"Julho", "Agosto", "Setembro", "Outubro", "Novembro", "Dezembro",
}

// InvoicingService manages payment plans and materializes their invoices
type InvoicingService struct {
	txScope      TransactionScope
	planRepo     finance.PaymentPlanRepository
	students     finance.StudentDirectory
	events       shared.EventPublisher
	clock        Clock
	policy       finance.Policy
	numberPrefix string
	logger       *zap.Logger
}

// InvoicingServiceConfig holds InvoicingService dependencies
type InvoicingServiceConfig struct {
	TxScope      TransactionScope
	PlanRepo     finance.PaymentPlanRepository
	Students     finance.StudentDirectory
	Events       shared.EventPublisher
	Clock        Clock
	Policy       finance.Policy
	NumberPrefix string
	Logger       *zap.Logger
}

// NewInvoicingService creates an InvoicingService
func NewInvoicingService(cfg InvoicingServiceConfig) *InvoicingService {
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NumberPrefix == "" {
		cfg.NumberPrefix = DefaultInvoiceNumberPrefix
	}
	return &InvoicingService{
		txScope:      cfg.TxScope,
		planRepo:     cfg.PlanRepo,
		students:     cfg.Students,
		events:       cfg.Events,
		clock:        cfg.Clock,
		policy:       cfg.Policy,
		numberPrefix: cfg.NumberPrefix,
		logger:       cfg.Logger,
	}
}

// ===================== Payment plans =====================

// CreatePlan creates an active payment plan
func (s *InvoicingService) CreatePlan(ctx context.Context, rc finance.RequestContext, in PlanInput) (*PlanResponse, error) {
	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		return nil, err
	}
	plan, err := finance.NewPaymentPlan(rc.TenantID, rc.UserID, in.terms(), nowFor(rc, s.clock))
	if err != nil {
		return nil, err
	}
	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save payment plan: %w", err)
	}
	s.logger.Info("Payment plan created",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("plan_id", plan.ID.String()),
		zap.String("academic_year", plan.AcademicYear),
	)
	resp := toPlanResponse(plan)
	return &resp, nil
}

// UpdatePlan replaces a plan's terms. Invoices already generated keep theirs.
func (s *InvoicingService) UpdatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID, in PlanInput) (*PlanResponse, error) {
	return s.mutatePlan(ctx, rc, planID, func(plan *finance.PaymentPlan) error {
		return plan.Update(in.terms(), nowFor(rc, s.clock))
	})
}

// ActivatePlan re-enables generation for a plan
func (s *InvoicingService) ActivatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID) (*PlanResponse, error) {
	return s.mutatePlan(ctx, rc, planID, func(plan *finance.PaymentPlan) error {
		plan.Activate(nowFor(rc, s.clock))
		return nil
	})
}

// DeactivatePlan stops future generation; existing invoices are untouched
func (s *InvoicingService) DeactivatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID) (*PlanResponse, error) {
	return s.mutatePlan(ctx, rc, planID, func(plan *finance.PaymentPlan) error {
		plan.Deactivate(nowFor(rc, s.clock))
		return nil
	})
}

func (s *InvoicingService) mutatePlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID, fn func(*finance.PaymentPlan) error) (*PlanResponse, error) {
	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.FindByID(ctx, rc.TenantID, planID)
	if err != nil {
		return nil, err
	}
	version := plan.Version
	if err := fn(plan); err != nil {
		return nil, err
	}
	if plan.Version != version {
		if err := s.planRepo.SaveWithLock(ctx, plan); err != nil {
			return nil, fmt.Errorf("failed to update payment plan: %w", err)
		}
	}
	resp := toPlanResponse(plan)
	return &resp, nil
}

// GetPlan returns one payment plan
func (s *InvoicingService) GetPlan(ctx context.Context, rc finance.RequestContext, planID uuid.UUID) (*PlanResponse, error) {
	if err := rc.Require(finance.BillingReaderRoles...); err != nil {
		return nil, err
	}
	plan, err := s.planRepo.FindByID(ctx, rc.TenantID, planID)
	if err != nil {
		return nil, err
	}
	resp := toPlanResponse(plan)
	return &resp, nil
}

// ListPlans returns one page of payment plans
func (s *InvoicingService) ListPlans(ctx context.Context, rc finance.RequestContext, q PlanListQuery) (*shared.Paginated[PlanResponse], error) {
	if err := rc.Require(finance.BillingReaderRoles...); err != nil {
		return nil, err
	}
	filter := finance.PaymentPlanFilter{
		Filter:       shared.Filter{Page: q.Page, PageSize: q.PageSize}.Normalize(),
		AcademicYear: strings.TrimSpace(q.AcademicYear),
		ClassID:      q.ClassID,
		Active:       q.Active,
	}
	plans, total, err := s.planRepo.FindAll(ctx, rc.TenantID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list payment plans: %w", err)
	}
	items := make([]PlanResponse, len(plans))
	for i, p := range plans {
		items[i] = toPlanResponse(p)
	}
	page := shared.NewPaginated(items, total, filter.Page, filter.PageSize)
	return &page, nil
}

// ===================== Generation =====================

// GenerateInvoices creates one invoice per billing month of the plan for every
// target student that does not already have one. Running it again with the
// same arguments creates nothing: the dedupe key is
// student + plan + month + year.
//
// Fails with PLAN_INACTIVE when the plan is inactive at generation time.
func (s *InvoicingService) GenerateInvoices(ctx context.Context, rc finance.RequestContext, in GenerateInvoicesInput) (*GenerateInvoicesResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "invoicing", "generate_invoices")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, rc.TenantID,
		telemetry.SpanAttrPlanID, in.PlanID,
	)

	if err := rc.Require(finance.BillingManagerRoles...); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	now := nowFor(rc, s.clock)

	plan, err := s.planRepo.FindByID(ctx, rc.TenantID, in.PlanID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if !plan.Active {
		telemetry.RecordError(span, finance.ErrPlanInactive)
		return nil, finance.ErrPlanInactive
	}
	if err := checkAcademicYear(plan, in.AcademicYear); err != nil {
		return nil, err
	}

	studentIDs, err := s.resolveTargets(ctx, rc.TenantID, plan, in)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result := &GenerateInvoicesResult{PlanID: plan.ID, Students: len(studentIDs)}
	var created []*finance.Invoice
	err = s.txScope.Execute(ctx, func(repos TransactionalRepositories) error {
		created = created[:0]
		result.Skipped = 0

		current, err := repos.PlanRepo().FindByID(ctx, rc.TenantID, plan.ID)
		if err != nil {
			return err
		}
		if !current.Active {
			return finance.ErrPlanInactive
		}

		taken, err := repos.InvoiceRepo().ExistingKeys(ctx, rc.TenantID, current.ID, studentIDs)
		if err != nil {
			return fmt.Errorf("failed to load existing invoices: %w", err)
		}
		if taken == nil {
			taken = make(map[finance.DedupeKey]bool)
		}

		planID := current.ID
		for _, studentID := range studentIDs {
			for _, period := range current.Periods() {
				key := finance.DedupeKey{StudentID: studentID, PlanID: planID, Month: period.Month, Year: period.Year}
				if taken[key] {
					result.Skipped++
					continue
				}
				dueDate := current.DueDateFor(period)
				number, err := repos.InvoiceRepo().NextInvoiceNumber(ctx, rc.TenantID, s.numberPrefix, dueDate)
				if err != nil {
					return fmt.Errorf("failed to allocate invoice number: %w", err)
				}
				inv, err := finance.NewInvoice(finance.NewInvoiceInput{
					TenantID:          rc.TenantID,
					StudentID:         studentID,
					PlanID:            &planID,
					InvoiceNumber:     number,
					Type:              current.InvoiceType,
					Description:       fmt.Sprintf("%s - %s %d", current.Name, monthNames[period.Month-1], period.Year),
					Amount:            current.MonthlyAmount,
					DueDate:           dueDate,
					BillingMonth:      period.Month,
					BillingYear:       period.Year,
					AcademicYear:      current.AcademicYear,
					LateFeePercent:    current.LateFeePercent,
					DailyInterestRate: current.DailyInterestRate,
					CreatedBy:         rc.UserID,
					Now:               now,
				})
				if err != nil {
					return err
				}
				if err := repos.InvoiceRepo().Create(ctx, inv); err != nil {
					return fmt.Errorf("failed to save invoice: %w", err)
				}
				taken[key] = true
				created = append(created, inv)
			}
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	result.Created = len(created)
	result.Invoices = toInvoiceResponses(created, now, s.policy)
	telemetry.SetAttributes(span, telemetry.SpanAttrCount, result.Created)

	s.logger.Info("Invoices generated",
		zap.String("tenant_id", rc.TenantID.String()),
		zap.String("plan_id", plan.ID.String()),
		zap.Int("students", result.Students),
		zap.Int("created", result.Created),
		zap.Int("skipped", result.Skipped),
	)
	aggregates := make([]shared.AggregateRoot, len(created))
	for i, inv := range created {
		aggregates[i] = inv
	}
	publishEvents(ctx, s.events, s.logger, aggregates...)

	return result, nil
}

func checkAcademicYear(plan *finance.PaymentPlan, requested string) error {
	requested = strings.TrimSpace(requested)
	if requested == "" {
		return nil
	}
	ay, err := finance.ParseAcademicYear(requested)
	if err != nil {
		return err
	}
	if ay.String() != plan.AcademicYear {
		return finance.NewValidationError("academic_year", "O ano lectivo não corresponde ao do plano").
			WithDetail("plan_academic_year", plan.AcademicYear)
	}
	return nil
}

// resolveTargets expands the class and explicit student list into a
// de-duplicated, ordered list of student ids in the plan's scope.
func (s *InvoicingService) resolveTargets(ctx context.Context, tenantID uuid.UUID, plan *finance.PaymentPlan, in GenerateInvoicesInput) ([]uuid.UUID, error) {
	if len(in.StudentIDs) == 0 && in.ClassID == nil {
		return nil, finance.NewValidationError("student_ids", "Indique os alunos ou a turma")
	}
	if in.ClassID != nil && !plan.CoversClass(in.ClassID) {
		return nil, finance.NewValidationError("class_id", "A turma não está abrangida pelo plano")
	}

	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	add := func(id uuid.UUID) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	if in.ClassID != nil {
		students, err := s.students.ListByClass(ctx, tenantID, *in.ClassID, true)
		if err != nil {
			return nil, fmt.Errorf("failed to list class students: %w", err)
		}
		for _, st := range students {
			add(st.ID)
		}
	}

	if len(in.StudentIDs) > 0 {
		students, err := s.students.FindByIDs(ctx, tenantID, in.StudentIDs)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve students: %w", err)
		}
		byID := make(map[uuid.UUID]finance.Student, len(students))
		for _, st := range students {
			byID[st.ID] = st
		}
		for _, id := range in.StudentIDs {
			st, ok := byID[id]
			if !ok {
				return nil, finance.ErrStudentNotFound.WithDetail("student_id", id.String())
			}
			if !plan.CoversClass(st.ClassID) {
				return nil, finance.NewValidationError("student_ids", "O aluno não pertence à turma do plano").
					WithDetail("student_id", id.String())
			}
			add(id)
		}
	}
	return ids, nil
}
