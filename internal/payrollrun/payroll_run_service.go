package payrollrun

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/adjustments"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/benefits"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/currency"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/employee"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/events"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/messaging/kafka"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/payperiod"
	payrollrunerrors "github.com/daryls-hrplus/intellihrm-sub025/internal/payrollrun/errors"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/contextutil"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/shared/counter"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
)

const runNumberCounter = "payroll_run"

// Config holds the engine's explicit fallback policy. Fallbacks are never
// silent: every use is logged and flagged in the calculation details.
type Config struct {
	DefaultPayFrequency compensation.PayFrequency
	DefaultCurrency     string
	DefaultCountryCode  string
}

func DefaultConfig() Config {
	return Config{
		DefaultPayFrequency: compensation.FreqMonthly,
		DefaultCurrency:     "USD",
		DefaultCountryCode:  "US",
	}
}

//go:generate mockgen -source=payroll_run_service.go -destination=mock/payroll_run_service_mock.go -package=mock
type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateRunRequest) (RunResponse, error)
	GetAll(ctx context.Context, companyID string) ([]RunResponse, error)
	GetByID(ctx context.Context, companyID, id string) (RunResponse, error)
	GetEmployeeBreakdowns(ctx context.Context, companyID, id string) ([]EmployeePayrollResponse, error)
	SetExchangeRates(ctx context.Context, companyID, id string, req SetExchangeRatesRequest) ([]ExchangeRateResponse, error)
	Calculate(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	Approve(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	ApproveRecalculation(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	MarkAsPaid(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	Reopen(ctx context.Context, companyID, actorID, id string) (RunResponse, error)
	Delete(ctx context.Context, companyID, id string) error
}

// Deps carries the collaborator repositories the orchestrator reads from
// and writes through.
type Deps struct {
	Runs         Repository
	Periods      payperiod.Repository
	Employees    employee.Repository
	Compensation compensation.Repository
	Adjustments  adjustments.Repository
	Benefits     benefits.Repository
	Statutory    statutory.Repository
	Rates        currency.Repository
	Outbox       kafka.OutboxRepository
	Counter      counter.Repository
}

type service struct {
	db   *gorm.DB
	deps Deps
	cfg  Config
}

func NewService(db *gorm.DB, deps Deps, cfg Config) Service {
	if cfg.DefaultPayFrequency == "" {
		cfg.DefaultPayFrequency = compensation.FreqMonthly
	}
	return &service{db: db, deps: deps, cfg: cfg}
}

func (s *service) Create(
	ctx context.Context,
	companyID, actorID string,
	req CreateRunRequest,
) (RunResponse, error) {
	logger := contextutil.GetLogger(ctx, zap.L())

	companyUUID, err := uuid.Parse(companyID)
	if err != nil {
		return RunResponse{}, payrollrunerrors.ErrInvalidCompanyID
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RunResponse{}, payrollrunerrors.ErrInvalidActorID
	}
	periodUUID, err := uuid.Parse(req.PayPeriodID)
	if err != nil {
		return RunResponse{}, payrollrunerrors.ErrInvalidPayPeriodID
	}

	if _, err := s.deps.Periods.FindByIDAndCompany(ctx, companyID, req.PayPeriodID); err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrPayPeriodNotFound)
	}

	runCurrency := req.Currency
	var payGroupUUID *uuid.UUID
	if req.PayGroupID != nil && *req.PayGroupID != "" {
		groupUUID, err := uuid.Parse(*req.PayGroupID)
		if err != nil {
			return RunResponse{}, payrollrunerrors.ErrInvalidPayGroupID
		}
		payGroupUUID = &groupUUID

		group, err := s.deps.Employees.FindPayGroup(ctx, companyID, *req.PayGroupID)
		if err != nil {
			return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrInvalidPayGroupID)
		}
		if runCurrency == "" {
			runCurrency = group.Currency
		}
	}
	if runCurrency == "" {
		runCurrency = s.cfg.DefaultCurrency
		logger.Warn("payroll run created without currency; using configured default",
			zap.String("company_id", companyID),
			zap.String("default_currency", runCurrency),
		)
	}

	runNumber, err := s.deps.Counter.GetNextValue(ctx, companyID, runNumberCounter)
	if err != nil {
		return RunResponse{}, err
	}

	run := &PayrollRun{
		ID:          uuid.New(),
		CompanyID:   companyUUID,
		PayPeriodID: periodUUID,
		PayGroupID:  payGroupUUID,
		RunNumber:   runNumber,
		Currency:    runCurrency,
		Status:      StatusDraft,
		CreatedBy:   actorUUID,
	}

	if err := s.deps.Runs.CreateRun(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}

	return mapToRunResponse(*run), nil
}

func (s *service) GetAll(ctx context.Context, companyID string) ([]RunResponse, error) {
	runs, err := s.deps.Runs.FindRunsByCompany(ctx, companyID)
	if err != nil {
		return nil, mapRepositoryError(err, nil)
	}
	return mapToRunListResponse(runs), nil
}

func (s *service) GetByID(ctx context.Context, companyID, id string) (RunResponse, error) {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	return mapToRunResponse(*run), nil
}

func (s *service) GetEmployeeBreakdowns(ctx context.Context, companyID, id string) ([]EmployeePayrollResponse, error) {
	if _, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id); err != nil {
		return nil, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	rows, err := s.deps.Runs.FindEmployeePayrollsByRun(ctx, companyID, id)
	if err != nil {
		return nil, mapRepositoryError(err, nil)
	}
	return mapToEmployeePayrollListResponse(rows), nil
}

// SetExchangeRates loads the run's frozen rate snapshot. Only DRAFT runs
// accept rates: the snapshot is immutable for the rest of the run's
// lifetime so a recalculation always converts against the same table.
func (s *service) SetExchangeRates(
	ctx context.Context,
	companyID, id string,
	req SetExchangeRatesRequest,
) ([]ExchangeRateResponse, error) {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return nil, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	if run.Status != StatusDraft {
		return nil, payrollrunerrors.ErrRatesOnlyDraft
	}

	snapshots := make([]currency.ExchangeRateSnapshot, len(req.Rates))
	resp := make([]ExchangeRateResponse, len(req.Rates))
	for i, rate := range req.Rates {
		if !rate.Rate.IsPositive() || rate.FromCurrency == rate.ToCurrency {
			return nil, payrollrunerrors.ErrInvalidExchangeRate
		}
		snapshots[i] = currency.ExchangeRateSnapshot{
			ID:           uuid.New(),
			CompanyID:    run.CompanyID,
			RunID:        run.ID,
			FromCurrency: rate.FromCurrency,
			ToCurrency:   rate.ToCurrency,
			Rate:         rate.Rate,
		}
		resp[i] = ExchangeRateResponse{
			FromCurrency: rate.FromCurrency,
			ToCurrency:   rate.ToCurrency,
			Rate:         rate.Rate.String(),
		}
	}

	if err := s.deps.Rates.CreateSnapshots(ctx, snapshots); err != nil {
		return nil, mapRepositoryError(err, nil)
	}
	return resp, nil
}

// Calculate drives one batch over the run's population. The whole batch
// either commits or the run transitions to FAILED with no partial rows.
func (s *service) Calculate(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	logger := contextutil.GetLogger(ctx, zap.L()).Named("payrollrun.calculate")

	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}

	// Status gate, checked before any mutation.
	switch run.Status {
	case StatusDraft, StatusCalculated, StatusFailed:
	case StatusCalculating:
		return RunResponse{}, payrollrunerrors.ErrRunAlreadyCalculating
	case StatusPaid:
		return RunResponse{}, payrollrunerrors.ErrRunPaid
	case StatusApproved:
		approvedAt := run.CreatedAt
		if run.ApprovedAt != nil {
			approvedAt = *run.ApprovedAt
		}
		ok, err := s.deps.Runs.HasApprovalSince(ctx, companyID, id, ApprovalPurposeRecalculation, approvedAt)
		if err != nil {
			return RunResponse{}, mapRepositoryError(err, nil)
		}
		if !ok {
			return RunResponse{}, payrollrunerrors.ErrRecalcRequiresApproval
		}
	default:
		return RunResponse{}, payrollrunerrors.ErrInvalidStatusTransition
	}

	period, err := s.deps.Periods.FindByIDAndCompany(ctx, companyID, run.PayPeriodID.String())
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrPayPeriodNotFound)
	}

	// Kept so a failed batch can put back the last committed totals; the
	// aborted attempt's figures must never outlive its rollback.
	prior := *run

	run.Status = StatusCalculating
	run.FailureReason = nil
	if err := s.deps.Runs.UpdateRun(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}

	resp, err := s.runBatch(ctx, logger, run, period, actorID)
	if err != nil {
		reason := err.Error()
		*run = prior
		run.Status = StatusFailed
		run.FailureReason = &reason
		if updateErr := s.deps.Runs.UpdateRun(ctx, run); updateErr != nil {
			logger.Error("failed to persist FAILED status", zap.Error(updateErr))
		}
		logger.Error("payroll run aborted",
			zap.String("run_id", run.ID.String()),
			zap.Error(err),
		)
		return RunResponse{}, err
	}
	return resp, nil
}

func (s *service) runBatch(
	ctx context.Context,
	logger *zap.Logger,
	run *PayrollRun,
	period *payperiod.PayPeriod,
	actorID string,
) (RunResponse, error) {
	companyID := run.CompanyID.String()
	runID := run.ID.String()

	// Resolve population: explicit pay group if assigned, else everyone.
	var population []employee.Employee
	var err error
	var payGroup *employee.PayGroup
	if run.PayGroupID != nil {
		payGroup, err = s.deps.Employees.FindPayGroup(ctx, companyID, run.PayGroupID.String())
		if err != nil {
			return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrInvalidPayGroupID)
		}
		population, err = s.deps.Employees.FindByPayGroup(ctx, companyID, run.PayGroupID.String())
	} else {
		population, err = s.deps.Employees.FindByCompany(ctx, companyID)
	}
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	population = dedupeEmployees(population)

	runFrequency, frequencyDefaulted := s.resolveFrequency(payGroup)
	if frequencyDefaulted {
		logger.Warn("pay group frequency missing; using configured default",
			zap.String("run_id", runID),
			zap.String("default_frequency", string(runFrequency)),
		)
	}
	countryCode := s.resolveCountry(payGroup)

	employeeIDs := make([]string, len(population))
	for i, emp := range population {
		employeeIDs[i] = emp.ID.String()
	}
	if err := s.deps.Runs.AcquireEmployeeLocks(ctx, companyID, runID, employeeIDs); err != nil {
		return RunResponse{}, mapLockError(err)
	}

	snapshots, err := s.deps.Rates.FindByRun(ctx, companyID, runID)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	rates := currency.NewRateTable(run.Currency, snapshots)
	aggregator := compensation.NewAggregator(rates, runFrequency, period.StartDate, period.EndDate)

	deductionTypes, err := s.deps.Statutory.FindActiveTypes(ctx, countryCode, period.EndDate)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	mappings, err := s.deps.Benefits.FindActiveMappings(ctx, companyID)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}

	results := make([]EmployeeResult, 0, len(population))
	for _, emp := range population {
		inputs, err := s.gatherEmployeeInputs(ctx, run, period, emp, deductionTypes, mappings)
		if err != nil {
			return RunResponse{}, err
		}
		result, err := calculateEmployee(run, aggregator, inputs)
		if err != nil {
			return RunResponse{}, err
		}
		if frequencyDefaulted {
			result.Row.Details.Warnings = append(result.Row.Details.Warnings,
				"pay frequency defaulted to "+string(runFrequency)+"; no pay group frequency configured")
		}
		results = append(results, result)
	}

	totals := foldTotals(results)

	rows := make([]EmployeePayroll, len(results))
	var retroIDs, reimbursementIDs []string
	for i, result := range results {
		rows[i] = result.Row
		for _, id := range result.ConsumedRetroIDs {
			retroIDs = append(retroIDs, id.String())
		}
		for _, id := range result.ConsumedReimbursementIDs {
			reimbursementIDs = append(reimbursementIDs, id.String())
		}
	}

	// All-or-nothing persist: rows, queue consumption, totals, status and
	// the outbox event commit together or not at all.
	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return RunResponse{}, tx.Error
	}
	defer tx.Rollback()

	qRuns := s.deps.Runs.WithTx(tx)
	qAdjustments := s.deps.Adjustments.WithTx(tx)
	qOutbox := s.deps.Outbox.WithTx(tx)

	if err := qAdjustments.ReleaseRunConsumption(ctx, companyID, runID); err != nil {
		return RunResponse{}, err
	}
	if err := qRuns.ReplaceEmployeePayrolls(ctx, companyID, runID, rows); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := qAdjustments.MarkRetroConsumed(ctx, companyID, retroIDs, runID); err != nil {
		return RunResponse{}, err
	}
	if err := qAdjustments.MarkReimbursementsConsumed(ctx, companyID, reimbursementIDs, runID); err != nil {
		return RunResponse{}, err
	}

	totals.applyTo(run)
	run.Status = StatusCalculated
	if err := qRuns.UpdateRun(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}

	if err := s.enqueueCalculatedEvent(ctx, qOutbox, run, actorID); err != nil {
		return RunResponse{}, err
	}

	if err := tx.Commit().Error; err != nil {
		return RunResponse{}, err
	}

	logger.Info("payroll run calculated",
		zap.String("run_id", runID),
		zap.Int("employee_count", totals.employeeCount),
		zap.String("total_gross", totals.gross.String()),
		zap.String("total_net", totals.net.String()),
	)

	return mapToRunResponse(*run), nil
}

func (s *service) gatherEmployeeInputs(
	ctx context.Context,
	run *PayrollRun,
	period *payperiod.PayPeriod,
	emp employee.Employee,
	deductionTypes []statutory.DeductionType,
	mappings []benefits.PayrollMapping,
) (EmployeeInputs, error) {
	companyID := run.CompanyID.String()
	employeeID := emp.ID.String()

	overrides, err := s.deps.Compensation.FindOverrideItems(ctx, companyID, employeeID, period.StartDate, period.EndDate)
	if err != nil {
		return EmployeeInputs{}, err
	}
	positions, err := s.deps.Compensation.FindActivePositions(ctx, companyID, employeeID, period.StartDate, period.EndDate)
	if err != nil {
		return EmployeeInputs{}, err
	}
	allowances, err := s.deps.Compensation.FindPeriodAllowances(ctx, companyID, employeeID, period.ID.String())
	if err != nil {
		return EmployeeInputs{}, err
	}

	var payGroupID *string
	if emp.PayGroupID != nil {
		v := emp.PayGroupID.String()
		payGroupID = &v
	}
	// Adjustments consumed by this run on an earlier calculation are part
	// of its population too; otherwise recalculating would drop them and
	// the in-transaction release would hand them to the next run twice.
	retro, err := s.deps.Adjustments.FindRetroForRun(ctx, companyID, employeeID, payGroupID, run.ID.String())
	if err != nil {
		return EmployeeInputs{}, err
	}
	reimbursements, err := s.deps.Adjustments.FindReimbursementsForRun(ctx, companyID, employeeID, period.StartDate, period.EndDate, run.ID.String())
	if err != nil {
		return EmployeeInputs{}, err
	}

	benefitEnrollments, err := s.deps.Benefits.FindActiveBenefitEnrollments(ctx, companyID, employeeID)
	if err != nil {
		return EmployeeInputs{}, err
	}
	savingsEnrollments, err := s.deps.Benefits.FindActiveSavingsEnrollments(ctx, companyID, employeeID)
	if err != nil {
		return EmployeeInputs{}, err
	}

	// YTD opening balances, fetched once per employee per calculation.
	ytd, err := s.deps.Runs.GetYTDOpening(ctx, companyID, employeeID, period.FiscalYear, run.ID.String())
	if err != nil {
		return EmployeeInputs{}, err
	}

	return EmployeeInputs{
		EmployeeID: emp.ID,
		Compensation: compensation.Inputs{
			Overrides:      overrides,
			Positions:      positions,
			Allowances:     allowances,
			Retro:          retro,
			Reimbursements: reimbursements,
		},
		BenefitEnrollments: benefitEnrollments,
		SavingsEnrollments: savingsEnrollments,
		Mappings:           mappings,
		DeductionTypes:     deductionTypes,
		YTD:                ytd,
		PeriodCount:        period.PeriodNumber,
	}, nil
}

func (s *service) Approve(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	if run.Status != StatusCalculated {
		return RunResponse{}, payrollrunerrors.ErrApproveOnlyCalculated
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RunResponse{}, payrollrunerrors.ErrInvalidActorID
	}

	now := time.Now().UTC()
	run.Status = StatusApproved
	run.ApprovedBy = &actorUUID
	run.ApprovedAt = &now

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return RunResponse{}, tx.Error
	}
	defer tx.Rollback()

	qRuns := s.deps.Runs.WithTx(tx)
	if err := qRuns.UpdateRun(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := qRuns.CreateApproval(ctx, &RunApproval{
		ID:         uuid.New(),
		CompanyID:  run.CompanyID,
		RunID:      run.ID,
		ApprovedBy: actorUUID,
		Purpose:    ApprovalPurposeRun,
	}); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := tx.Commit().Error; err != nil {
		return RunResponse{}, err
	}

	return mapToRunResponse(*run), nil
}

// ApproveRecalculation records the supervisor sign-off that unlocks
// recalculation of an already-approved run.
func (s *service) ApproveRecalculation(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	if run.Status != StatusApproved {
		return RunResponse{}, payrollrunerrors.ErrInvalidStatusTransition
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return RunResponse{}, payrollrunerrors.ErrInvalidActorID
	}

	if err := s.deps.Runs.CreateApproval(ctx, &RunApproval{
		ID:         uuid.New(),
		CompanyID:  run.CompanyID,
		RunID:      run.ID,
		ApprovedBy: actorUUID,
		Purpose:    ApprovalPurposeRecalculation,
	}); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}

	return mapToRunResponse(*run), nil
}

func (s *service) MarkAsPaid(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	if run.Status != StatusApproved {
		return RunResponse{}, payrollrunerrors.ErrMarkPaidOnlyApproved
	}

	now := time.Now().UTC()
	run.Status = StatusPaid
	run.PaidAt = &now

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return RunResponse{}, tx.Error
	}
	defer tx.Rollback()

	qRuns := s.deps.Runs.WithTx(tx)
	if err := qRuns.UpdateRun(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	// Paying a run ends its claim on the employees.
	if err := qRuns.ReleaseEmployeeLocks(ctx, companyID, id); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := tx.Commit().Error; err != nil {
		return RunResponse{}, err
	}

	return mapToRunResponse(*run), nil
}

// Reopen unlocks the run's employees, deletes its employee payroll rows,
// releases consumed adjustments, and returns the run to DRAFT.
func (s *service) Reopen(ctx context.Context, companyID, actorID, id string) (RunResponse, error) {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return RunResponse{}, mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	if run.Status == StatusPaid {
		return RunResponse{}, payrollrunerrors.ErrRunPaid
	}

	run.Status = StatusDraft
	run.FailureReason = nil
	run.ApprovedBy = nil
	run.ApprovedAt = nil
	runTotals{}.applyTo(run)

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return RunResponse{}, tx.Error
	}
	defer tx.Rollback()

	qRuns := s.deps.Runs.WithTx(tx)
	qAdjustments := s.deps.Adjustments.WithTx(tx)

	if err := qRuns.DeleteEmployeePayrolls(ctx, companyID, id); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := qRuns.ReleaseEmployeeLocks(ctx, companyID, id); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := qAdjustments.ReleaseRunConsumption(ctx, companyID, id); err != nil {
		return RunResponse{}, err
	}
	if err := qRuns.UpdateRun(ctx, run); err != nil {
		return RunResponse{}, mapRepositoryError(err, nil)
	}
	if err := tx.Commit().Error; err != nil {
		return RunResponse{}, err
	}

	return mapToRunResponse(*run), nil
}

func (s *service) Delete(ctx context.Context, companyID, id string) error {
	run, err := s.deps.Runs.FindRunByIDAndCompany(ctx, companyID, id)
	if err != nil {
		return mapRepositoryError(err, payrollrunerrors.ErrRunNotFound)
	}
	if run.Status != StatusDraft {
		return payrollrunerrors.ErrDeleteOnlyDraft
	}

	tx := s.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	defer tx.Rollback()

	qRuns := s.deps.Runs.WithTx(tx)
	if err := qRuns.ReleaseEmployeeLocks(ctx, companyID, id); err != nil {
		return mapRepositoryError(err, nil)
	}
	if err := qRuns.DeleteRun(ctx, companyID, id); err != nil {
		return mapRepositoryError(err, nil)
	}
	return tx.Commit().Error
}

func (s *service) resolveFrequency(payGroup *employee.PayGroup) (compensation.PayFrequency, bool) {
	if payGroup != nil && compensation.ValidFrequency(payGroup.PayFrequency) {
		return payGroup.PayFrequency, false
	}
	return s.cfg.DefaultPayFrequency, true
}

func (s *service) resolveCountry(payGroup *employee.PayGroup) string {
	if payGroup != nil && payGroup.CountryCode != "" {
		return payGroup.CountryCode
	}
	return s.cfg.DefaultCountryCode
}

func (s *service) enqueueCalculatedEvent(
	ctx context.Context,
	outbox kafka.OutboxRepository,
	run *PayrollRun,
	actorID string,
) error {
	event := events.PayrollRunCalculatedEvent{
		EventType:     "payroll.run.calculated",
		RunID:         run.ID.String(),
		CompanyID:     run.CompanyID.String(),
		PayPeriodID:   run.PayPeriodID.String(),
		Currency:      run.Currency,
		EmployeeCount: run.EmployeeCount,
		TotalGross:    run.TotalGross.String(),
		TotalNet:      run.TotalNet.String(),
		CalculatedBy:  actorID,
		OccurredAt:    time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return outbox.Create(ctx, kafka.OutboxEvent{
		ID:            uuid.New().String(),
		RequestID:     contextutil.GetRequestID(ctx),
		AggregateType: "payroll_run",
		AggregateID:   run.ID.String(),
		EventType:     event.EventType,
		Topic:         events.PayrollRunCalculatedTopic,
		Payload:       payload,
		Status:        kafka.OutboxStatusPending,
	})
}

func dedupeEmployees(employees []employee.Employee) []employee.Employee {
	seen := make(map[uuid.UUID]struct{}, len(employees))
	out := employees[:0]
	for _, emp := range employees {
		if _, ok := seen[emp.ID]; ok {
			continue
		}
		seen[emp.ID] = struct{}{}
		out = append(out, emp)
	}
	return out
}
