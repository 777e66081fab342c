package adjustments

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RetroStatusPending  = "PENDING"
	RetroStatusConsumed = "CONSUMED"

	ReimbursementStatusApproved = "APPROVED"
	ReimbursementStatusPaid     = "PAID"
)

// RetroAdjustment is a pending retroactive pay correction queued for the
// next run of the employee's pay group. It is consumed exactly once: the
// consuming run marks it inside the same transaction that persists the
// batch, so a failed run never burns the adjustment.
type RetroAdjustment struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID  `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	PayGroupID    *uuid.UUID `gorm:"type:uuid;index"`
	Description   string     `gorm:"size:255;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	Status        string          `gorm:"type:varchar(20);not null;default:'PENDING';index"`
	ConsumedRunID *uuid.UUID      `gorm:"type:uuid;index"`
	ConsumedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ExpenseReimbursement is an approved expense claim paid out through
// payroll. Never part of taxable income, always part of gross and net.
type ExpenseReimbursement struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	EmployeeID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	Description   string          `gorm:"size:255;not null"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Currency      string          `gorm:"type:varchar(3);not null"`
	IncurredAt    time.Time       `gorm:"type:date;not null;index"`
	Status        string          `gorm:"type:varchar(20);not null;index"`
	ConsumedRunID *uuid.UUID      `gorm:"type:uuid;index"`
	ConsumedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
