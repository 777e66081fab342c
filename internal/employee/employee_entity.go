package employee

import (
	"time"

	"github.com/google/uuid"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/compensation"
)

type Employee struct {
	ID          uuid.UUID  `gorm:"type:uuid;primaryKey"`
	CompanyID   uuid.UUID  `gorm:"type:uuid;index"`
	PayGroupID  *uuid.UUID `gorm:"type:uuid;index"`
	FullName    string
	Email       string `gorm:"uniqueIndex"`
	CountryCode string `gorm:"type:varchar(2)"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PayGroup carries the pay frequency and local currency a run inherits.
type PayGroup struct {
	ID           uuid.UUID                 `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID                 `gorm:"type:uuid;not null;index"`
	Name         string                    `gorm:"size:255;not null"`
	PayFrequency compensation.PayFrequency `gorm:"type:varchar(20);not null"`
	Currency     string                    `gorm:"type:varchar(3);not null"`
	CountryCode  string                    `gorm:"type:varchar(2);not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
