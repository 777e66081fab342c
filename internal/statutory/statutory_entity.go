package statutory

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	MethodBracket    = "BRACKET"
	MethodFlat       = "FLAT"
	MethodPercentage = "PERCENTAGE"
)

// DeductionType is one statutory tax or social contribution rule, scoped
// by country and effective date. BRACKET types carry rate bands and are
// computed cumulatively against YTD balances; FLAT types deduct a fixed
// amount per period; PERCENTAGE types apply a rate per side, subject to an
// optional wage-base ceiling tracked separately for employee and employer.
type DeductionType struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CountryCode string    `gorm:"type:varchar(2);not null;index:idx_deduction_country_code"`
	Code        string    `gorm:"type:varchar(40);not null;index:idx_deduction_country_code"`
	Name        string    `gorm:"size:255;not null"`
	Method      string    `gorm:"type:varchar(20);not null"`

	// FLAT: fixed amount per period. PERCENTAGE: rate as a fraction.
	EmployeeRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`
	EmployerRate decimal.Decimal `gorm:"type:decimal(18,6);not null;default:0"`

	EmployeeWageBaseLimit *decimal.Decimal `gorm:"type:decimal(18,4)"`
	EmployerWageBaseLimit *decimal.Decimal `gorm:"type:decimal(18,4)"`

	EffectiveFrom time.Time  `gorm:"type:date;not null;index"`
	EffectiveTo   *time.Time `gorm:"type:date;index"`

	Bands []RateBand `gorm:"foreignKey:DeductionTypeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

// RateBand is one bracket of a BRACKET deduction type. A nil UpperBound
// means the band is open-ended.
type RateBand struct {
	ID              uuid.UUID        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	DeductionTypeID uuid.UUID        `gorm:"type:uuid;not null;index"`
	LowerBound      decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	UpperBound      *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Rate            decimal.Decimal  `gorm:"type:decimal(10,6);not null"`
}
