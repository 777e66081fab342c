package payrollrun

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=payroll_run_repo.go -destination=mock/payroll_run_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateRun(ctx context.Context, run *PayrollRun) error
	FindRunsByCompany(ctx context.Context, companyID string) ([]PayrollRun, error)
	FindRunByIDAndCompany(ctx context.Context, companyID string, id string) (*PayrollRun, error)
	UpdateRun(ctx context.Context, run *PayrollRun) error
	DeleteRun(ctx context.Context, companyID string, id string) error

	ReplaceEmployeePayrolls(ctx context.Context, companyID string, runID string, rows []EmployeePayroll) error
	DeleteEmployeePayrolls(ctx context.Context, companyID string, runID string) error
	FindEmployeePayrollsByRun(ctx context.Context, companyID string, runID string) ([]EmployeePayroll, error)

	AcquireEmployeeLocks(ctx context.Context, companyID string, runID string, employeeIDs []string) error
	ReleaseEmployeeLocks(ctx context.Context, companyID string, runID string) error

	GetYTDOpening(ctx context.Context, companyID string, employeeID string, fiscalYear int, excludeRunID string) (statutory.Opening, error)

	CreateApproval(ctx context.Context, approval *RunApproval) error
	HasApprovalSince(ctx context.Context, companyID string, runID string, purpose string, since time.Time) (bool, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) CreateRun(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *repository) FindRunsByCompany(ctx context.Context, companyID string) ([]PayrollRun, error) {
	var runs []PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("created_at DESC").
		Find(&runs).Error
	return runs, err
}

func (r *repository) FindRunByIDAndCompany(ctx context.Context, companyID string, id string) (*PayrollRun, error) {
	var run PayrollRun
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&run, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &run, nil
}

func (r *repository) UpdateRun(ctx context.Context, run *PayrollRun) error {
	return r.db.WithContext(ctx).Save(run).Error
}

func (r *repository) DeleteRun(ctx context.Context, companyID string, id string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&PayrollRun{}, "id = ?", id).Error
}

// ReplaceEmployeePayrolls deletes every row of the run and inserts the new
// batch. Callers wrap it in the run's transaction so a failure leaves no
// partial result.
func (r *repository) ReplaceEmployeePayrolls(ctx context.Context, companyID string, runID string, rows []EmployeePayroll) error {
	if err := r.DeleteEmployeePayrolls(ctx, companyID, runID); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).CreateInBatches(&rows, 200).Error
}

func (r *repository) DeleteEmployeePayrolls(ctx context.Context, companyID string, runID string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Delete(&EmployeePayroll{}).Error
}

func (r *repository) FindEmployeePayrollsByRun(ctx context.Context, companyID string, runID string) ([]EmployeePayroll, error) {
	var rows []EmployeePayroll
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Order("created_at ASC").
		Find(&rows).Error
	return rows, err
}

// AcquireEmployeeLocks claims every target employee for the run. Locks the
// run already holds are re-taken idempotently; a lock held by another run
// surfaces as a unique violation the service maps to a conflict.
func (r *repository) AcquireEmployeeLocks(ctx context.Context, companyID string, runID string, employeeIDs []string) error {
	if len(employeeIDs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for _, employeeID := range employeeIDs {
		var existing EmployeeLock
		err := r.db.WithContext(ctx).
			Scopes(tenant.Scope(companyID)).
			Where("employee_id = ?", employeeID).
			First(&existing).Error
		switch {
		case err == nil:
			if existing.RunID.String() != runID {
				return gorm.ErrDuplicatedKey
			}
			continue
		case err == gorm.ErrRecordNotFound:
			lock := EmployeeLock{
				CompanyID:  mustParseUUID(companyID),
				EmployeeID: mustParseUUID(employeeID),
				RunID:      mustParseUUID(runID),
				LockedAt:   now,
			}
			if createErr := r.db.WithContext(ctx).Create(&lock).Error; createErr != nil {
				return createErr
			}
		default:
			return err
		}
	}
	return nil
}

func (r *repository) ReleaseEmployeeLocks(ctx context.Context, companyID string, runID string) error {
	return r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Delete(&EmployeeLock{}).Error
}

// GetYTDOpening aggregates the employee's prior calculated activity in the
// fiscal year, excluding the run being recalculated so a recompute starts
// from the same opening balance as the original calculation. tax_paid sums
// the bracket-method column only; the PAYE subtraction must not be
// credited with flat or percentage amounts.
func (r *repository) GetYTDOpening(ctx context.Context, companyID string, employeeID string, fiscalYear int, excludeRunID string) (statutory.Opening, error) {
	type row struct {
		TaxableIncome decimal.Decimal
		TaxPaid       decimal.Decimal
		GrossPay      decimal.Decimal
	}
	var out row

	err := r.db.WithContext(ctx).Raw(`
SELECT
	COALESCE(SUM(ep.taxable_income), 0)       AS taxable_income,
	COALESCE(SUM(ep.employee_bracket_tax), 0) AS tax_paid,
	COALESCE(SUM(ep.gross_pay), 0)            AS gross_pay
FROM employee_payrolls ep
JOIN payroll_runs pr ON pr.id = ep.run_id
JOIN pay_periods pp ON pp.id = pr.pay_period_id
WHERE ep.company_id = ?
	AND ep.employee_id = ?
	AND pp.fiscal_year = ?
	AND pr.id <> ?
	AND pr.status IN (?, ?, ?)
	AND pr.deleted_at IS NULL
`, companyID, employeeID, fiscalYear, excludeRunID,
		StatusCalculated, StatusApproved, StatusPaid).
		Scan(&out).Error
	if err != nil {
		return statutory.Opening{}, err
	}

	return statutory.Opening{
		TaxableIncome: out.TaxableIncome,
		TaxPaid:       out.TaxPaid,
		GrossPay:      out.GrossPay,
	}, nil
}

func mustParseUUID(s string) uuid.UUID {
	id, _ := uuid.Parse(s)
	return id
}

func (r *repository) CreateApproval(ctx context.Context, approval *RunApproval) error {
	return r.db.WithContext(ctx).Create(approval).Error
}

func (r *repository) HasApprovalSince(ctx context.Context, companyID string, runID string, purpose string, since time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&RunApproval{}).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Where("purpose = ?", purpose).
		Where("created_at >= ?", since).
		Count(&count).Error
	return count > 0, err
}
