package currency

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ExchangeRateSnapshot is a rate frozen for one payroll run. Rates are
// never looked up live during calculation; the snapshot table is the only
// source a run may convert against.
type ExchangeRateSnapshot struct {
	ID           uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	RunID        uuid.UUID       `gorm:"type:uuid;not null;index:idx_snapshot_run_pair,unique"`
	FromCurrency string          `gorm:"type:varchar(3);not null;index:idx_snapshot_run_pair,unique"`
	ToCurrency   string          `gorm:"type:varchar(3);not null;index:idx_snapshot_run_pair,unique"`
	Rate         decimal.Decimal `gorm:"type:decimal(18,8);not null"`
	CreatedAt    time.Time
}
