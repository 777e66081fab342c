package payrollrun_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/adjustments"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/benefits"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/currency"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/employee"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/messaging/kafka"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/payperiod"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/payrollrun"
	payrollrunerrors "github.com/daryls-hrplus/intellihrm-sub025/internal/payrollrun/errors"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
)

type fakeRunRepository struct {
	createRunFn                 func(ctx context.Context, run *payrollrun.PayrollRun) error
	findRunsByCompanyFn         func(ctx context.Context, companyID string) ([]payrollrun.PayrollRun, error)
	findRunByIDAndCompanyFn     func(ctx context.Context, companyID string, id string) (*payrollrun.PayrollRun, error)
	updateRunFn                 func(ctx context.Context, run *payrollrun.PayrollRun) error
	deleteRunFn                 func(ctx context.Context, companyID string, id string) error
	replaceEmployeePayrollsFn   func(ctx context.Context, companyID string, runID string, rows []payrollrun.EmployeePayroll) error
	deleteEmployeePayrollsFn    func(ctx context.Context, companyID string, runID string) error
	findEmployeePayrollsByRunFn func(ctx context.Context, companyID string, runID string) ([]payrollrun.EmployeePayroll, error)
	acquireEmployeeLocksFn      func(ctx context.Context, companyID string, runID string, employeeIDs []string) error
	releaseEmployeeLocksFn      func(ctx context.Context, companyID string, runID string) error
	getYTDOpeningFn             func(ctx context.Context, companyID string, employeeID string, fiscalYear int, excludeRunID string) (statutory.Opening, error)
	createApprovalFn            func(ctx context.Context, approval *payrollrun.RunApproval) error
	hasApprovalSinceFn          func(ctx context.Context, companyID string, runID string, purpose string, since time.Time) (bool, error)
}

func (f *fakeRunRepository) WithTx(tx *gorm.DB) payrollrun.Repository { return f }

func (f *fakeRunRepository) CreateRun(ctx context.Context, run *payrollrun.PayrollRun) error {
	if f.createRunFn != nil {
		return f.createRunFn(ctx, run)
	}
	return nil
}

func (f *fakeRunRepository) FindRunsByCompany(ctx context.Context, companyID string) ([]payrollrun.PayrollRun, error) {
	if f.findRunsByCompanyFn != nil {
		return f.findRunsByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeRunRepository) FindRunByIDAndCompany(ctx context.Context, companyID string, id string) (*payrollrun.PayrollRun, error) {
	if f.findRunByIDAndCompanyFn != nil {
		return f.findRunByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRunRepository) UpdateRun(ctx context.Context, run *payrollrun.PayrollRun) error {
	if f.updateRunFn != nil {
		return f.updateRunFn(ctx, run)
	}
	return nil
}

func (f *fakeRunRepository) DeleteRun(ctx context.Context, companyID string, id string) error {
	if f.deleteRunFn != nil {
		return f.deleteRunFn(ctx, companyID, id)
	}
	return nil
}

func (f *fakeRunRepository) ReplaceEmployeePayrolls(ctx context.Context, companyID string, runID string, rows []payrollrun.EmployeePayroll) error {
	if f.replaceEmployeePayrollsFn != nil {
		return f.replaceEmployeePayrollsFn(ctx, companyID, runID, rows)
	}
	return nil
}

func (f *fakeRunRepository) DeleteEmployeePayrolls(ctx context.Context, companyID string, runID string) error {
	if f.deleteEmployeePayrollsFn != nil {
		return f.deleteEmployeePayrollsFn(ctx, companyID, runID)
	}
	return nil
}

func (f *fakeRunRepository) FindEmployeePayrollsByRun(ctx context.Context, companyID string, runID string) ([]payrollrun.EmployeePayroll, error) {
	if f.findEmployeePayrollsByRunFn != nil {
		return f.findEmployeePayrollsByRunFn(ctx, companyID, runID)
	}
	return nil, nil
}

func (f *fakeRunRepository) AcquireEmployeeLocks(ctx context.Context, companyID string, runID string, employeeIDs []string) error {
	if f.acquireEmployeeLocksFn != nil {
		return f.acquireEmployeeLocksFn(ctx, companyID, runID, employeeIDs)
	}
	return nil
}

func (f *fakeRunRepository) ReleaseEmployeeLocks(ctx context.Context, companyID string, runID string) error {
	if f.releaseEmployeeLocksFn != nil {
		return f.releaseEmployeeLocksFn(ctx, companyID, runID)
	}
	return nil
}

func (f *fakeRunRepository) GetYTDOpening(ctx context.Context, companyID string, employeeID string, fiscalYear int, excludeRunID string) (statutory.Opening, error) {
	if f.getYTDOpeningFn != nil {
		return f.getYTDOpeningFn(ctx, companyID, employeeID, fiscalYear, excludeRunID)
	}
	return statutory.Opening{}, nil
}

func (f *fakeRunRepository) CreateApproval(ctx context.Context, approval *payrollrun.RunApproval) error {
	if f.createApprovalFn != nil {
		return f.createApprovalFn(ctx, approval)
	}
	return nil
}

func (f *fakeRunRepository) HasApprovalSince(ctx context.Context, companyID string, runID string, purpose string, since time.Time) (bool, error) {
	if f.hasApprovalSinceFn != nil {
		return f.hasApprovalSinceFn(ctx, companyID, runID, purpose, since)
	}
	return false, nil
}

type fakePeriodRepository struct {
	findByIDAndCompanyFn func(ctx context.Context, companyID string, id string) (*payperiod.PayPeriod, error)
}

func (f *fakePeriodRepository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*payperiod.PayPeriod, error) {
	if f.findByIDAndCompanyFn != nil {
		return f.findByIDAndCompanyFn(ctx, companyID, id)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeEmployeeRepository struct {
	findByCompanyFn  func(ctx context.Context, companyID string) ([]employee.Employee, error)
	findByPayGroupFn func(ctx context.Context, companyID string, payGroupID string) ([]employee.Employee, error)
	findPayGroupFn   func(ctx context.Context, companyID string, payGroupID string) (*employee.PayGroup, error)
}

func (f *fakeEmployeeRepository) FindByCompany(ctx context.Context, companyID string) ([]employee.Employee, error) {
	if f.findByCompanyFn != nil {
		return f.findByCompanyFn(ctx, companyID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindByPayGroup(ctx context.Context, companyID string, payGroupID string) ([]employee.Employee, error) {
	if f.findByPayGroupFn != nil {
		return f.findByPayGroupFn(ctx, companyID, payGroupID)
	}
	return nil, nil
}

func (f *fakeEmployeeRepository) FindPayGroup(ctx context.Context, companyID string, payGroupID string) (*employee.PayGroup, error) {
	if f.findPayGroupFn != nil {
		return f.findPayGroupFn(ctx, companyID, payGroupID)
	}
	return nil, gorm.ErrRecordNotFound
}

type fakeCompensationRepository struct {
	findOverrideItemsFn    func(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time) ([]compensation.CompensationItem, error)
	findActivePositionsFn  func(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time) ([]compensation.PositionAssignment, error)
	findPeriodAllowancesFn func(ctx context.Context, companyID string, employeeID string, payPeriodID string) ([]compensation.PeriodAllowance, error)
}

func (f *fakeCompensationRepository) FindOverrideItems(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time) ([]compensation.CompensationItem, error) {
	if f.findOverrideItemsFn != nil {
		return f.findOverrideItemsFn(ctx, companyID, employeeID, periodStart, periodEnd)
	}
	return nil, nil
}

func (f *fakeCompensationRepository) FindActivePositions(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time) ([]compensation.PositionAssignment, error) {
	if f.findActivePositionsFn != nil {
		return f.findActivePositionsFn(ctx, companyID, employeeID, periodStart, periodEnd)
	}
	return nil, nil
}

func (f *fakeCompensationRepository) FindPeriodAllowances(ctx context.Context, companyID string, employeeID string, payPeriodID string) ([]compensation.PeriodAllowance, error) {
	if f.findPeriodAllowancesFn != nil {
		return f.findPeriodAllowancesFn(ctx, companyID, employeeID, payPeriodID)
	}
	return nil, nil
}

type fakeAdjustmentsRepository struct {
	findRetroForRunFn            func(ctx context.Context, companyID string, employeeID string, payGroupID *string, runID string) ([]adjustments.RetroAdjustment, error)
	findReimbursementsForRunFn   func(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time, runID string) ([]adjustments.ExpenseReimbursement, error)
	markRetroConsumedFn          func(ctx context.Context, companyID string, ids []string, runID string) error
	markReimbursementsConsumedFn func(ctx context.Context, companyID string, ids []string, runID string) error
	releaseRunConsumptionFn      func(ctx context.Context, companyID string, runID string) error
}

func (f *fakeAdjustmentsRepository) WithTx(tx *gorm.DB) adjustments.Repository { return f }

func (f *fakeAdjustmentsRepository) FindRetroForRun(ctx context.Context, companyID string, employeeID string, payGroupID *string, runID string) ([]adjustments.RetroAdjustment, error) {
	if f.findRetroForRunFn != nil {
		return f.findRetroForRunFn(ctx, companyID, employeeID, payGroupID, runID)
	}
	return nil, nil
}

func (f *fakeAdjustmentsRepository) FindReimbursementsForRun(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time, runID string) ([]adjustments.ExpenseReimbursement, error) {
	if f.findReimbursementsForRunFn != nil {
		return f.findReimbursementsForRunFn(ctx, companyID, employeeID, periodStart, periodEnd, runID)
	}
	return nil, nil
}

func (f *fakeAdjustmentsRepository) MarkRetroConsumed(ctx context.Context, companyID string, ids []string, runID string) error {
	if f.markRetroConsumedFn != nil {
		return f.markRetroConsumedFn(ctx, companyID, ids, runID)
	}
	return nil
}

func (f *fakeAdjustmentsRepository) MarkReimbursementsConsumed(ctx context.Context, companyID string, ids []string, runID string) error {
	if f.markReimbursementsConsumedFn != nil {
		return f.markReimbursementsConsumedFn(ctx, companyID, ids, runID)
	}
	return nil
}

func (f *fakeAdjustmentsRepository) ReleaseRunConsumption(ctx context.Context, companyID string, runID string) error {
	if f.releaseRunConsumptionFn != nil {
		return f.releaseRunConsumptionFn(ctx, companyID, runID)
	}
	return nil
}

type fakeBenefitsRepository struct {
	findActiveBenefitEnrollmentsFn func(ctx context.Context, companyID string, employeeID string) ([]benefits.BenefitEnrollment, error)
	findActiveSavingsEnrollmentsFn func(ctx context.Context, companyID string, employeeID string) ([]benefits.SavingsEnrollment, error)
	findActiveMappingsFn           func(ctx context.Context, companyID string) ([]benefits.PayrollMapping, error)
}

func (f *fakeBenefitsRepository) FindActiveBenefitEnrollments(ctx context.Context, companyID string, employeeID string) ([]benefits.BenefitEnrollment, error) {
	if f.findActiveBenefitEnrollmentsFn != nil {
		return f.findActiveBenefitEnrollmentsFn(ctx, companyID, employeeID)
	}
	return nil, nil
}

func (f *fakeBenefitsRepository) FindActiveSavingsEnrollments(ctx context.Context, companyID string, employeeID string) ([]benefits.SavingsEnrollment, error) {
	if f.findActiveSavingsEnrollmentsFn != nil {
		return f.findActiveSavingsEnrollmentsFn(ctx, companyID, employeeID)
	}
	return nil, nil
}

func (f *fakeBenefitsRepository) FindActiveMappings(ctx context.Context, companyID string) ([]benefits.PayrollMapping, error) {
	if f.findActiveMappingsFn != nil {
		return f.findActiveMappingsFn(ctx, companyID)
	}
	return nil, nil
}

type fakeStatutoryRepository struct {
	findActiveTypesFn func(ctx context.Context, countryCode string, asOf time.Time) ([]statutory.DeductionType, error)
}

func (f *fakeStatutoryRepository) FindActiveTypes(ctx context.Context, countryCode string, asOf time.Time) ([]statutory.DeductionType, error) {
	if f.findActiveTypesFn != nil {
		return f.findActiveTypesFn(ctx, countryCode, asOf)
	}
	return nil, nil
}

type fakeRatesRepository struct {
	findByRunFn       func(ctx context.Context, companyID string, runID string) ([]currency.ExchangeRateSnapshot, error)
	createSnapshotsFn func(ctx context.Context, snapshots []currency.ExchangeRateSnapshot) error
}

func (f *fakeRatesRepository) FindByRun(ctx context.Context, companyID string, runID string) ([]currency.ExchangeRateSnapshot, error) {
	if f.findByRunFn != nil {
		return f.findByRunFn(ctx, companyID, runID)
	}
	return nil, nil
}

func (f *fakeRatesRepository) CreateSnapshots(ctx context.Context, snapshots []currency.ExchangeRateSnapshot) error {
	if f.createSnapshotsFn != nil {
		return f.createSnapshotsFn(ctx, snapshots)
	}
	return nil
}

type fakeOutboxRepository struct {
	createFn func(ctx context.Context, event kafka.OutboxEvent) error
}

func (f *fakeOutboxRepository) WithTx(tx *gorm.DB) kafka.OutboxRepository { return f }

func (f *fakeOutboxRepository) Create(ctx context.Context, event kafka.OutboxEvent) error {
	if f.createFn != nil {
		return f.createFn(ctx, event)
	}
	return nil
}

func (f *fakeOutboxRepository) ListPending(ctx context.Context, limit int) ([]kafka.OutboxEvent, error) {
	return nil, nil
}

func (f *fakeOutboxRepository) MarkSent(ctx context.Context, id string) error { return nil }

func (f *fakeOutboxRepository) MarkFailed(ctx context.Context, id string, reason string) error {
	return nil
}

type fakeCounterRepository struct {
	getNextValueFn func(ctx context.Context, companyID string, counterType string) (int64, error)
}

func (f *fakeCounterRepository) GetNextValue(ctx context.Context, companyID string, counterType string) (int64, error) {
	if f.getNextValueFn != nil {
		return f.getNextValueFn(ctx, companyID, counterType)
	}
	return 1, nil
}

type serviceDeps struct {
	db           *gorm.DB
	sqlMock      sqlmock.Sqlmock
	service      payrollrun.Service
	runs         *fakeRunRepository
	periods      *fakePeriodRepository
	employees    *fakeEmployeeRepository
	compensation *fakeCompensationRepository
	adjustments  *fakeAdjustmentsRepository
	benefits     *fakeBenefitsRepository
	statutory    *fakeStatutoryRepository
	rates        *fakeRatesRepository
	outbox       *fakeOutboxRepository
	counter      *fakeCounterRepository
}

func setupServiceTest(t *testing.T) *serviceDeps {
	t.Helper()

	sqlDB, sqlMock, err := sqlmock.New()
	assert.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{SkipDefaultTransaction: true})
	assert.NoError(t, err)

	deps := &serviceDeps{
		sqlMock:      sqlMock,
		db:           gormDB,
		runs:         &fakeRunRepository{},
		periods:      &fakePeriodRepository{},
		employees:    &fakeEmployeeRepository{},
		compensation: &fakeCompensationRepository{},
		adjustments:  &fakeAdjustmentsRepository{},
		benefits:     &fakeBenefitsRepository{},
		statutory:    &fakeStatutoryRepository{},
		rates:        &fakeRatesRepository{},
		outbox:       &fakeOutboxRepository{},
		counter:      &fakeCounterRepository{},
	}

	deps.service = payrollrun.NewService(gormDB, payrollrun.Deps{
		Runs:         deps.runs,
		Periods:      deps.periods,
		Employees:    deps.employees,
		Compensation: deps.compensation,
		Adjustments:  deps.adjustments,
		Benefits:     deps.benefits,
		Statutory:    deps.statutory,
		Rates:        deps.rates,
		Outbox:       deps.outbox,
		Counter:      deps.counter,
	}, payrollrun.DefaultConfig())

	return deps
}

func testPeriod(companyID uuid.UUID) *payperiod.PayPeriod {
	return &payperiod.PayPeriod{
		ID:           uuid.New(),
		CompanyID:    companyID,
		StartDate:    time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		PayDate:      time.Date(2026, 4, 30, 0, 0, 0, 0, time.UTC),
		PeriodNumber: 4,
		FiscalYear:   2026,
		FiscalMonth:  4,
	}
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	actorID := uuid.New().String()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}
	deps.counter.getNextValueFn = func(ctx context.Context, cid, counterType string) (int64, error) {
		assert.Equal(t, "payroll_run", counterType)
		return 7, nil
	}

	var created *payrollrun.PayrollRun
	deps.runs.createRunFn = func(ctx context.Context, run *payrollrun.PayrollRun) error {
		created = run
		return nil
	}

	resp, err := deps.service.Create(ctx, companyID.String(), actorID, payrollrun.CreateRunRequest{
		PayPeriodID: period.ID.String(),
		Currency:    "USD",
	})

	assert.NoError(t, err)
	assert.NotNil(t, created)
	assert.Equal(t, payrollrun.StatusDraft, resp.Status)
	assert.Equal(t, int64(7), resp.RunNumber)
	assert.Equal(t, "USD", resp.Currency)
}

func TestService_Create_PayPeriodMissing(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)

	_, err := deps.service.Create(ctx, uuid.New().String(), uuid.New().String(), payrollrun.CreateRunRequest{
		PayPeriodID: uuid.New().String(),
	})

	assert.ErrorIs(t, err, payrollrunerrors.ErrPayPeriodNotFound)
}

func TestService_Calculate_FullPipeline(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	employeeID := uuid.New()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	run := &payrollrun.PayrollRun{
		ID:          runID,
		CompanyID:   companyID,
		PayPeriodID: period.ID,
		Currency:    "USD",
		Status:      payrollrun.StatusDraft,
		CreatedBy:   uuid.New(),
	}

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}
	deps.employees.findByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
		return []employee.Employee{{ID: employeeID, CompanyID: companyID, FullName: "Dana Cruz"}}, nil
	}
	deps.compensation.findActivePositionsFn = func(ctx context.Context, cid, eid string, ps, pe time.Time) ([]compensation.PositionAssignment, error) {
		return []compensation.PositionAssignment{{
			ID:         uuid.New(),
			EmployeeID: employeeID,
			BaseSalary: decimal.NewFromInt(5000),
			Currency:   "USD",
			Frequency:  compensation.FreqMonthly,
		}}, nil
	}
	deps.statutory.findActiveTypesFn = func(ctx context.Context, country string, asOf time.Time) ([]statutory.DeductionType, error) {
		return []statutory.DeductionType{{
			ID:           uuid.New(),
			Code:         "TAX",
			Method:       statutory.MethodPercentage,
			EmployeeRate: decimal.RequireFromString("0.1"),
			EmployerRate: decimal.Zero,
		}}, nil
	}

	var statuses []string
	deps.runs.updateRunFn = func(ctx context.Context, r *payrollrun.PayrollRun) error {
		statuses = append(statuses, r.Status)
		return nil
	}

	var persistedRows []payrollrun.EmployeePayroll
	deps.runs.replaceEmployeePayrollsFn = func(ctx context.Context, cid, rid string, rows []payrollrun.EmployeePayroll) error {
		persistedRows = rows
		return nil
	}

	var published *kafka.OutboxEvent
	deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
		published = &event
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())

	assert.NoError(t, err)
	assert.Equal(t, []string{payrollrun.StatusCalculating, payrollrun.StatusCalculated}, statuses)
	assert.Equal(t, payrollrun.StatusCalculated, resp.Status)
	assert.Equal(t, 1, resp.EmployeeCount)
	assert.Equal(t, "5000", resp.TotalGross)
	assert.Equal(t, "4500", resp.TotalNet)

	assert.Len(t, persistedRows, 1)
	assert.Equal(t, employeeID, persistedRows[0].EmployeeID)

	assert.NotNil(t, published)
	assert.Equal(t, "hr.payroll.run.calculated.v1", published.Topic)
	assert.Equal(t, runID.String(), published.AggregateID)

	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestService_Calculate_StatusGates(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	deps := setupServiceTest(t)

	cases := []struct {
		status  string
		wantErr error
	}{
		{payrollrun.StatusCalculating, payrollrunerrors.ErrRunAlreadyCalculating},
		{payrollrun.StatusPaid, payrollrunerrors.ErrRunPaid},
		{payrollrun.StatusApproved, payrollrunerrors.ErrRecalcRequiresApproval},
	}

	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
				return &payrollrun.PayrollRun{
					ID:        uuid.MustParse(id),
					CompanyID: companyID,
					Status:    tc.status,
				}, nil
			}

			_, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), uuid.New().String())
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestService_Calculate_RecalcAfterApprovalGoesThrough(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	approvedAt := time.Now().UTC().Add(-time.Hour)
	run := &payrollrun.PayrollRun{
		ID:          runID,
		CompanyID:   companyID,
		PayPeriodID: period.ID,
		Currency:    "USD",
		Status:      payrollrun.StatusApproved,
		ApprovedAt:  &approvedAt,
		CreatedBy:   uuid.New(),
	}

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.runs.hasApprovalSinceFn = func(ctx context.Context, cid, rid, purpose string, since time.Time) (bool, error) {
		assert.Equal(t, payrollrun.ApprovalPurposeRecalculation, purpose)
		assert.Equal(t, approvedAt, since)
		return true, nil
	}
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}

	var consumptionReleased bool
	deps.adjustments.releaseRunConsumptionFn = func(ctx context.Context, cid, rid string) error {
		consumptionReleased = true
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	resp, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())

	assert.NoError(t, err)
	assert.Equal(t, payrollrun.StatusCalculated, resp.Status)
	// Recalculation must hand back previously consumed adjustments before
	// re-marking, or a replay would double-count.
	assert.True(t, consumptionReleased)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

// Recalculating must produce the same totals as the first calculation:
// adjustments the run already consumed stay part of its population instead
// of vanishing from the recompute and leaking back to the pending queue.
func TestService_Calculate_RecalculationKeepsConsumedRetro(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	employeeID := uuid.New()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	run := &payrollrun.PayrollRun{
		ID:          runID,
		CompanyID:   companyID,
		PayPeriodID: period.ID,
		Currency:    "USD",
		Status:      payrollrun.StatusDraft,
		CreatedBy:   uuid.New(),
	}

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}
	deps.employees.findByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
		return []employee.Employee{{ID: employeeID, CompanyID: companyID}}, nil
	}
	deps.compensation.findActivePositionsFn = func(ctx context.Context, cid, eid string, ps, pe time.Time) ([]compensation.PositionAssignment, error) {
		return []compensation.PositionAssignment{{
			ID:         uuid.New(),
			EmployeeID: employeeID,
			BaseSalary: decimal.NewFromInt(5000),
			Currency:   "USD",
			Frequency:  compensation.FreqMonthly,
		}}, nil
	}

	// Stateful queue: one retro adjustment, pending until consumed,
	// visible only to the run that consumed it afterwards.
	retro := adjustments.RetroAdjustment{
		ID:       uuid.New(),
		Amount:   decimal.NewFromInt(100),
		Currency: "USD",
	}
	var consumedBy *string
	deps.adjustments.findRetroForRunFn = func(ctx context.Context, cid, eid string, pgid *string, rid string) ([]adjustments.RetroAdjustment, error) {
		if consumedBy == nil || *consumedBy == rid {
			return []adjustments.RetroAdjustment{retro}, nil
		}
		return nil, nil
	}
	deps.adjustments.markRetroConsumedFn = func(ctx context.Context, cid string, ids []string, rid string) error {
		if len(ids) > 0 {
			owner := rid
			consumedBy = &owner
		}
		return nil
	}
	deps.adjustments.releaseRunConsumptionFn = func(ctx context.Context, cid, rid string) error {
		if consumedBy != nil && *consumedBy == rid {
			consumedBy = nil
		}
		return nil
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()
	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectCommit()

	first, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())
	assert.NoError(t, err)
	assert.Equal(t, "5100", first.TotalGross)
	assert.NotNil(t, consumedBy)

	second, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())
	assert.NoError(t, err)
	assert.Equal(t, "5100", second.TotalGross)

	// Still consumed by this run, not back in the pending queue.
	assert.NotNil(t, consumedBy)
	assert.Equal(t, runID.String(), *consumedBy)
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

// A batch that fails after totals were folded must not persist the aborted
// attempt's figures: the FAILED run keeps the last committed totals.
func TestService_Calculate_FailureKeepsLastCommittedTotals(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	run := &payrollrun.PayrollRun{
		ID:            runID,
		CompanyID:     companyID,
		PayPeriodID:   period.ID,
		Currency:      "USD",
		Status:        payrollrun.StatusCalculated,
		EmployeeCount: 3,
		TotalGross:    decimal.NewFromInt(777),
		TotalNet:      decimal.NewFromInt(700),
		CreatedBy:     uuid.New(),
	}

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}
	deps.employees.findByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
		return []employee.Employee{{ID: uuid.New(), CompanyID: companyID}}, nil
	}
	deps.compensation.findActivePositionsFn = func(ctx context.Context, cid, eid string, ps, pe time.Time) ([]compensation.PositionAssignment, error) {
		return []compensation.PositionAssignment{{
			ID:         uuid.New(),
			BaseSalary: decimal.NewFromInt(5000),
			Currency:   "USD",
			Frequency:  compensation.FreqMonthly,
		}}, nil
	}
	deps.outbox.createFn = func(ctx context.Context, event kafka.OutboxEvent) error {
		return errors.New("outbox insert failed")
	}

	deps.sqlMock.ExpectBegin()
	deps.sqlMock.ExpectRollback()

	_, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())

	assert.Error(t, err)
	assert.Equal(t, payrollrun.StatusFailed, run.Status)
	assert.NotNil(t, run.FailureReason)
	// Totals from the rolled-back attempt never stick.
	assert.Equal(t, 3, run.EmployeeCount)
	assert.True(t, run.TotalGross.Equal(decimal.NewFromInt(777)), "gross = %s", run.TotalGross)
	assert.True(t, run.TotalNet.Equal(decimal.NewFromInt(700)))
	assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
}

func TestService_SetExchangeRates(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	deps := setupServiceTest(t)

	t.Run("draft run stores the snapshot", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: runID, CompanyID: companyID, Status: payrollrun.StatusDraft}, nil
		}

		var stored []currency.ExchangeRateSnapshot
		deps.rates.createSnapshotsFn = func(ctx context.Context, snapshots []currency.ExchangeRateSnapshot) error {
			stored = snapshots
			return nil
		}

		resp, err := deps.service.SetExchangeRates(ctx, companyID.String(), runID.String(), payrollrun.SetExchangeRatesRequest{
			Rates: []payrollrun.ExchangeRateRequest{{
				FromCurrency: "EUR",
				ToCurrency:   "USD",
				Rate:         decimal.RequireFromString("1.1"),
			}},
		})

		assert.NoError(t, err)
		assert.Len(t, stored, 1)
		assert.Equal(t, runID, stored[0].RunID)
		assert.Equal(t, companyID, stored[0].CompanyID)
		assert.Equal(t, "EUR", stored[0].FromCurrency)
		assert.Equal(t, "1.1", resp[0].Rate)
	})

	t.Run("only draft runs accept rates", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: runID, CompanyID: companyID, Status: payrollrun.StatusCalculated}, nil
		}

		_, err := deps.service.SetExchangeRates(ctx, companyID.String(), runID.String(), payrollrun.SetExchangeRatesRequest{
			Rates: []payrollrun.ExchangeRateRequest{{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.RequireFromString("1.1")}},
		})

		assert.ErrorIs(t, err, payrollrunerrors.ErrRatesOnlyDraft)
	})

	t.Run("rejects a non-positive rate", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: runID, CompanyID: companyID, Status: payrollrun.StatusDraft}, nil
		}

		_, err := deps.service.SetExchangeRates(ctx, companyID.String(), runID.String(), payrollrun.SetExchangeRatesRequest{
			Rates: []payrollrun.ExchangeRateRequest{{FromCurrency: "EUR", ToCurrency: "USD", Rate: decimal.Zero}},
		})

		assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidExchangeRate)
	})

	t.Run("rejects a same-currency pair", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: runID, CompanyID: companyID, Status: payrollrun.StatusDraft}, nil
		}

		_, err := deps.service.SetExchangeRates(ctx, companyID.String(), runID.String(), payrollrun.SetExchangeRatesRequest{
			Rates: []payrollrun.ExchangeRateRequest{{FromCurrency: "USD", ToCurrency: "USD", Rate: decimal.RequireFromString("1")}},
		})

		assert.ErrorIs(t, err, payrollrunerrors.ErrInvalidExchangeRate)
	})
}

func TestService_Calculate_EmployeeLockConflict(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	run := &payrollrun.PayrollRun{
		ID:          runID,
		CompanyID:   companyID,
		PayPeriodID: period.ID,
		Currency:    "USD",
		Status:      payrollrun.StatusDraft,
		CreatedBy:   uuid.New(),
	}

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}
	deps.employees.findByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
		return []employee.Employee{{ID: uuid.New(), CompanyID: companyID}}, nil
	}
	deps.runs.acquireEmployeeLocksFn = func(ctx context.Context, cid, rid string, employeeIDs []string) error {
		return gorm.ErrDuplicatedKey
	}

	var statuses []string
	deps.runs.updateRunFn = func(ctx context.Context, r *payrollrun.PayrollRun) error {
		statuses = append(statuses, r.Status)
		return nil
	}

	_, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())

	assert.ErrorIs(t, err, payrollrunerrors.ErrEmployeeLocked)
	// The run transitions to FAILED and records the reason.
	assert.Equal(t, []string{payrollrun.StatusCalculating, payrollrun.StatusFailed}, statuses)
	assert.NotNil(t, run.FailureReason)
}

func TestService_Calculate_FailureMarksRunFailed(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	runID := uuid.New()
	deps := setupServiceTest(t)

	period := testPeriod(companyID)
	run := &payrollrun.PayrollRun{
		ID:          runID,
		CompanyID:   companyID,
		PayPeriodID: period.ID,
		Currency:    "USD",
		Status:      payrollrun.StatusDraft,
		CreatedBy:   uuid.New(),
	}

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return run, nil
	}
	deps.periods.findByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payperiod.PayPeriod, error) {
		return period, nil
	}
	deps.employees.findByCompanyFn = func(ctx context.Context, cid string) ([]employee.Employee, error) {
		return nil, errors.New("storage offline")
	}

	var replaceCalled bool
	deps.runs.replaceEmployeePayrollsFn = func(ctx context.Context, cid, rid string, rows []payrollrun.EmployeePayroll) error {
		replaceCalled = true
		return nil
	}

	_, err := deps.service.Calculate(ctx, companyID.String(), uuid.New().String(), runID.String())

	assert.Error(t, err)
	assert.Equal(t, payrollrun.StatusFailed, run.Status)
	// No partial rows when the batch aborts.
	assert.False(t, replaceCalled)
}

func TestService_Approve(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	actorID := uuid.New()
	deps := setupServiceTest(t)

	t.Run("only calculated runs", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: uuid.MustParse(id), CompanyID: companyID, Status: payrollrun.StatusDraft}, nil
		}

		_, err := deps.service.Approve(ctx, companyID.String(), actorID.String(), uuid.New().String())
		assert.ErrorIs(t, err, payrollrunerrors.ErrApproveOnlyCalculated)
	})

	t.Run("success records approval", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: uuid.MustParse(id), CompanyID: companyID, Status: payrollrun.StatusCalculated}, nil
		}

		var approval *payrollrun.RunApproval
		deps.runs.createApprovalFn = func(ctx context.Context, a *payrollrun.RunApproval) error {
			approval = a
			return nil
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.Approve(ctx, companyID.String(), actorID.String(), uuid.New().String())

		assert.NoError(t, err)
		assert.Equal(t, payrollrun.StatusApproved, resp.Status)
		assert.NotNil(t, resp.ApprovedBy)
		assert.NotNil(t, approval)
		assert.Equal(t, payrollrun.ApprovalPurposeRun, approval.Purpose)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestService_MarkAsPaid(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	deps := setupServiceTest(t)

	t.Run("only approved runs", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: uuid.MustParse(id), CompanyID: companyID, Status: payrollrun.StatusCalculated}, nil
		}

		_, err := deps.service.MarkAsPaid(ctx, companyID.String(), uuid.New().String(), uuid.New().String())
		assert.ErrorIs(t, err, payrollrunerrors.ErrMarkPaidOnlyApproved)
	})

	t.Run("success releases locks", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: uuid.MustParse(id), CompanyID: companyID, Status: payrollrun.StatusApproved}, nil
		}

		var locksReleased bool
		deps.runs.releaseEmployeeLocksFn = func(ctx context.Context, cid, rid string) error {
			locksReleased = true
			return nil
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.MarkAsPaid(ctx, companyID.String(), uuid.New().String(), uuid.New().String())

		assert.NoError(t, err)
		assert.Equal(t, payrollrun.StatusPaid, resp.Status)
		assert.NotNil(t, resp.PaidAt)
		assert.True(t, locksReleased)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestService_Reopen(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	deps := setupServiceTest(t)

	t.Run("paid runs cannot reopen", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{ID: uuid.MustParse(id), CompanyID: companyID, Status: payrollrun.StatusPaid}, nil
		}

		_, err := deps.service.Reopen(ctx, companyID.String(), uuid.New().String(), uuid.New().String())
		assert.ErrorIs(t, err, payrollrunerrors.ErrRunPaid)
	})

	t.Run("reopen clears state", func(t *testing.T) {
		deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
			return &payrollrun.PayrollRun{
				ID:            uuid.MustParse(id),
				CompanyID:     companyID,
				Status:        payrollrun.StatusCalculated,
				EmployeeCount: 12,
				TotalGross:    decimal.NewFromInt(50000),
			}, nil
		}

		var rowsDeleted, locksReleased, consumptionReleased bool
		deps.runs.deleteEmployeePayrollsFn = func(ctx context.Context, cid, rid string) error {
			rowsDeleted = true
			return nil
		}
		deps.runs.releaseEmployeeLocksFn = func(ctx context.Context, cid, rid string) error {
			locksReleased = true
			return nil
		}
		deps.adjustments.releaseRunConsumptionFn = func(ctx context.Context, cid, rid string) error {
			consumptionReleased = true
			return nil
		}

		deps.sqlMock.ExpectBegin()
		deps.sqlMock.ExpectCommit()

		resp, err := deps.service.Reopen(ctx, companyID.String(), uuid.New().String(), uuid.New().String())

		assert.NoError(t, err)
		assert.Equal(t, payrollrun.StatusDraft, resp.Status)
		assert.Equal(t, 0, resp.EmployeeCount)
		assert.Equal(t, "0", resp.TotalGross)
		assert.True(t, rowsDeleted)
		assert.True(t, locksReleased)
		assert.True(t, consumptionReleased)
		assert.NoError(t, deps.sqlMock.ExpectationsWereMet())
	})
}

func TestService_Delete_OnlyDraft(t *testing.T) {
	ctx := context.Background()
	companyID := uuid.New()
	deps := setupServiceTest(t)

	deps.runs.findRunByIDAndCompanyFn = func(ctx context.Context, cid, id string) (*payrollrun.PayrollRun, error) {
		return &payrollrun.PayrollRun{ID: uuid.MustParse(id), CompanyID: companyID, Status: payrollrun.StatusCalculated}, nil
	}

	err := deps.service.Delete(ctx, companyID.String(), uuid.New().String())
	assert.ErrorIs(t, err, payrollrunerrors.ErrDeleteOnlyDraft)
}

func TestService_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	deps := setupServiceTest(t)

	_, err := deps.service.GetByID(ctx, uuid.New().String(), uuid.New().String())
	assert.ErrorIs(t, err, payrollrunerrors.ErrRunNotFound)
}
