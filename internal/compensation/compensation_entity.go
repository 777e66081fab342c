package compensation

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/proration"
)

const (
	ItemKindBaseSalary = "BASE_SALARY"
	ItemKindAllowance  = "ALLOWANCE"
)

// CompensationItem is an explicit pay element override. When any override
// items exist for an employee they are used exclusively, replacing the
// position-derived base salary entirely.
type CompensationItem struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID       uuid.UUID        `gorm:"type:uuid;not null;index"`
	EmployeeID      uuid.UUID        `gorm:"type:uuid;not null;index"`
	Name            string           `gorm:"size:255;not null"`
	Kind            string           `gorm:"type:varchar(30);not null;default:'BASE_SALARY'"`
	Amount          decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	Currency        string           `gorm:"type:varchar(3);not null"`
	Frequency       PayFrequency     `gorm:"type:varchar(20);not null"`
	ProrationMethod proration.Method `gorm:"type:varchar(20);not null;default:'CALENDAR_DAYS'"`
	EffectiveStart  *time.Time       `gorm:"type:date"`
	EffectiveEnd    *time.Time       `gorm:"type:date"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// PositionAssignment is an active position record carrying the position's
// default salary. Each assignment yields one synthetic base-salary item
// when the employee has no overrides.
type PositionAssignment struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	PositionID   uuid.UUID       `gorm:"type:uuid;not null"`
	PositionName string          `gorm:"size:255;not null"`
	BaseSalary   decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency     string          `gorm:"type:varchar(3);not null"`
	Frequency    PayFrequency    `gorm:"type:varchar(20);not null"`
	StartDate    *time.Time      `gorm:"type:date"`
	EndDate      *time.Time      `gorm:"type:date"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PeriodAllowance is a one-off allowance granted for a specific pay
// period, merged into gross at its stated amount (no frequency
// normalization, no proration).
type PeriodAllowance struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	PayPeriodID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Name        string          `gorm:"size:255;not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency    string          `gorm:"type:varchar(3);not null"`
	Taxable     bool            `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
