package payrollrun

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/benefits"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
	"github.com/daryls-hrplus/intellihrm-sub025/internal/statutory"
)

const (
	StatusDraft       = "DRAFT"
	StatusCalculating = "CALCULATING"
	StatusCalculated  = "CALCULATED"
	StatusApproved    = "APPROVED"
	StatusPaid        = "PAID"
	StatusFailed      = "FAILED"
)

const (
	ApprovalPurposeRun           = "RUN"
	ApprovalPurposeRecalculation = "RECALCULATION"
)

// PayrollRun is one batch execution over a pay period for a population.
// Only the orchestrator service mutates it.
type PayrollRun struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;not null;index:idx_run_company_status"`
	PayPeriodID uuid.UUID  `gorm:"type:uuid;not null;index"`
	PayGroupID  *uuid.UUID `gorm:"type:uuid;index"`
	RunNumber   int64      `gorm:"not null"`
	Currency    string     `gorm:"type:varchar(3);not null"`
	Status      string     `gorm:"type:varchar(20);not null;default:'DRAFT';index:idx_run_company_status"`

	EmployeeCount         int             `gorm:"not null;default:0"`
	TotalGross            decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalNet              decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployeeTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployerTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployeeBenefits decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployerBenefits decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployeeSavings  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployerSavings  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalEmployerCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	FailureReason *string `gorm:"type:text"`

	CreatedBy  uuid.UUID  `gorm:"type:uuid;not null"`
	ApprovedBy *uuid.UUID `gorm:"type:uuid"`
	ApprovedAt *time.Time
	PaidAt     *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
	DeletedAt  gorm.DeletedAt `gorm:"index"`
}

// EmployeePayroll is exactly one row per (run, employee). Rows are created
// whole and replaced whole on recalculation; never patched in place.
type EmployeePayroll struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index:idx_employee_payroll_run,unique"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_employee_payroll_run,unique"`

	GrossPay         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	RegularPay       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TaxableIncome    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	PreTaxDeductions decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployeeTax      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// Bracket-method portion of EmployeeTax, kept separate because the
	// cumulative PAYE method subtracts only prior bracket tax from the
	// year-to-date liability.
	EmployeeBracketTax decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployerTax        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployeeBenefits   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployerBenefits   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployeeSavings    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployerSavings    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	TotalDeductions    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	NetPay             decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	EmployerCost       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`

	Details CalculationDetails `gorm:"type:jsonb"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CalculationDetails is the full audit breakdown. Each section is
// independently present or absent for an employee.
type CalculationDetails struct {
	Earnings       []compensation.EarningLine       `json:"earnings,omitempty"`
	Allowances     []compensation.AllowanceLine     `json:"allowances,omitempty"`
	Retro          []compensation.RetroLine         `json:"retro,omitempty"`
	Reimbursements []compensation.ReimbursementLine `json:"reimbursements,omitempty"`
	Statutory      []statutory.Line                 `json:"statutory,omitempty"`
	Benefits       []benefits.BenefitLine           `json:"benefits,omitempty"`
	Savings        []benefits.SavingsLine           `json:"savings,omitempty"`
	Warnings       []string                         `json:"warnings,omitempty"`
}

func (d CalculationDetails) Value() (driver.Value, error) {
	return json.Marshal(d)
}

func (d *CalculationDetails) Scan(value any) error {
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, d)
	case string:
		return json.Unmarshal([]byte(v), d)
	case nil:
		*d = CalculationDetails{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into CalculationDetails", value)
	}
}

// EmployeeLock is a claim on an employee's source data for the duration
// of a run. The unique index on (company_id, employee_id) is what makes a
// second concurrent run fail to take an already-locked employee.
type EmployeeLock struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index:idx_employee_lock,unique"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index:idx_employee_lock,unique"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index"`
	LockedAt   time.Time `gorm:"not null"`
}

// RunApproval records a supervisor sign-off. Recalculating an approved run
// requires a RECALCULATION approval recorded after the run was approved.
type RunApproval struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	RunID      uuid.UUID `gorm:"type:uuid;not null;index"`
	ApprovedBy uuid.UUID `gorm:"type:uuid;not null"`
	Purpose    string    `gorm:"type:varchar(20);not null"`
	CreatedAt  time.Time
}
