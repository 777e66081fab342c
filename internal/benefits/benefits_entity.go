package benefits

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	PlanKindBenefit = "BENEFIT"
	PlanKindSavings = "SAVINGS"
)

// ContributionRule is a fixed amount or a percentage of gross, per side.
// A nil field means "not set"; resolution falls back from enrollment
// override to plan default.
type ContributionRule struct {
	EmployeeAmount  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EmployerAmount  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EmployeePercent *decimal.Decimal `gorm:"type:decimal(10,6)"`
	EmployerPercent *decimal.Decimal `gorm:"type:decimal(10,6)"`
}

func (r ContributionRule) isSet() bool {
	return r.EmployeeAmount != nil || r.EmployerAmount != nil ||
		r.EmployeePercent != nil || r.EmployerPercent != nil
}

type BenefitPlan struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"size:255;not null"`
	Default   ContributionRule `gorm:"embedded;embeddedPrefix:default_"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type BenefitEnrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanID     uuid.UUID `gorm:"type:uuid;not null;index"`
	Active     bool      `gorm:"not null;default:true"`
	Override   ContributionRule `gorm:"embedded;embeddedPrefix:override_"`
	Plan       *BenefitPlan     `gorm:"foreignKey:PlanID;references:ID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// SavingsProgram is a retirement or savings scheme. PreTax programs reduce
// taxable income before statutory deductions run.
type SavingsProgram struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"size:255;not null"`
	PreTax    bool      `gorm:"not null;default:false"`
	Default   ContributionRule `gorm:"embedded;embeddedPrefix:default_"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

type SavingsEnrollment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID `gorm:"type:uuid;not null;index"`
	EmployeeID uuid.UUID `gorm:"type:uuid;not null;index"`
	ProgramID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Active     bool      `gorm:"not null;default:true"`
	Override   ContributionRule `gorm:"embedded;embeddedPrefix:override_"`
	Program    *SavingsProgram  `gorm:"foreignKey:ProgramID;references:ID"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// PayrollMapping links a plan or program to a payroll component. Only
// mapped, active plans participate in calculation; enrollments in unmapped
// plans are deliberately skipped.
type PayrollMapping struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index"`
	PlanID        uuid.UUID `gorm:"type:uuid;not null;index:idx_mapping_plan,unique"`
	PlanKind      string    `gorm:"type:varchar(20);not null;index:idx_mapping_plan,unique"`
	ComponentCode string    `gorm:"type:varchar(40);not null"`
	Active        bool      `gorm:"not null;default:true"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
