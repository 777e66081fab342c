package compensation

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=compensation_repo.go -destination=mock/compensation_repo_mock.go -package=mock
type Repository interface {
	FindOverrideItems(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time) ([]CompensationItem, error)
	FindActivePositions(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time) ([]PositionAssignment, error)
	FindPeriodAllowances(ctx context.Context, companyID string, employeeID string, payPeriodID string) ([]PeriodAllowance, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindOverrideItems(
	ctx context.Context,
	companyID string,
	employeeID string,
	periodStart, periodEnd time.Time,
) ([]CompensationItem, error) {
	var items []CompensationItem
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("effective_start IS NULL OR effective_start <= ?", periodEnd).
		Where("effective_end IS NULL OR effective_end >= ?", periodStart).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

func (r *repository) FindActivePositions(
	ctx context.Context,
	companyID string,
	employeeID string,
	periodStart, periodEnd time.Time,
) ([]PositionAssignment, error) {
	var positions []PositionAssignment
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("start_date IS NULL OR start_date <= ?", periodEnd).
		Where("end_date IS NULL OR end_date >= ?", periodStart).
		Order("created_at ASC").
		Find(&positions).Error
	return positions, err
}

func (r *repository) FindPeriodAllowances(
	ctx context.Context,
	companyID string,
	employeeID string,
	payPeriodID string,
) ([]PeriodAllowance, error) {
	var allowances []PeriodAllowance
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("pay_period_id = ?", payPeriodID).
		Order("created_at ASC").
		Find(&allowances).Error
	return allowances, err
}
