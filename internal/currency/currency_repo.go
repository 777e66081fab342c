package currency

import (
	"context"

	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=currency_repo.go -destination=mock/currency_repo_mock.go -package=mock
type Repository interface {
	FindByRun(ctx context.Context, companyID string, runID string) ([]ExchangeRateSnapshot, error)
	CreateSnapshots(ctx context.Context, snapshots []ExchangeRateSnapshot) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByRun(ctx context.Context, companyID string, runID string) ([]ExchangeRateSnapshot, error) {
	var snapshots []ExchangeRateSnapshot
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("run_id = ?", runID).
		Find(&snapshots).Error
	return snapshots, err
}

func (r *repository) CreateSnapshots(ctx context.Context, snapshots []ExchangeRateSnapshot) error {
	if len(snapshots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&snapshots).Error
}
