package payperiod

import (
	"time"

	"github.com/google/uuid"
)

// PayPeriod is a scheduling-owned window. It is immutable once a run is
// open over it; this core only ever reads it.
type PayPeriod struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	CompanyID    uuid.UUID `gorm:"type:uuid;not null;index"`
	StartDate    time.Time `gorm:"type:date;not null"`
	EndDate      time.Time `gorm:"type:date;not null"`
	PayDate      time.Time `gorm:"type:date;not null"`
	PeriodNumber int       `gorm:"not null"`
	FiscalYear   int       `gorm:"not null;index"`
	FiscalMonth  int       `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
