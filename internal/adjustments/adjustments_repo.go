package adjustments

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=adjustments_repo.go -destination=mock/adjustments_repo_mock.go -package=mock
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	FindRetroForRun(ctx context.Context, companyID string, employeeID string, payGroupID *string, runID string) ([]RetroAdjustment, error)
	FindReimbursementsForRun(ctx context.Context, companyID string, employeeID string, periodStart, periodEnd time.Time, runID string) ([]ExpenseReimbursement, error)
	MarkRetroConsumed(ctx context.Context, companyID string, ids []string, runID string) error
	MarkReimbursementsConsumed(ctx context.Context, companyID string, ids []string, runID string) error
	ReleaseRunConsumption(ctx context.Context, companyID string, runID string) error
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

// FindRetroForRun returns the retro the given run should apply: everything
// still pending plus everything this run itself consumed, so recalculating
// the run sees exactly the adjustments its first calculation saw instead
// of a queue its own consumption emptied.
func (r *repository) FindRetroForRun(
	ctx context.Context,
	companyID string,
	employeeID string,
	payGroupID *string,
	runID string,
) ([]RetroAdjustment, error) {
	db := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status = ? OR (status = ? AND consumed_run_id = ?)",
			RetroStatusPending, RetroStatusConsumed, runID)

	if payGroupID != nil && *payGroupID != "" {
		db = db.Where("pay_group_id IS NULL OR pay_group_id = ?", *payGroupID)
	}

	var retro []RetroAdjustment
	err := db.Order("created_at ASC").Find(&retro).Error
	return retro, err
}

func (r *repository) FindReimbursementsForRun(
	ctx context.Context,
	companyID string,
	employeeID string,
	periodStart, periodEnd time.Time,
	runID string,
) ([]ExpenseReimbursement, error) {
	var claims []ExpenseReimbursement
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status = ?", ReimbursementStatusApproved).
		Where("incurred_at BETWEEN ? AND ?", periodStart, periodEnd).
		Where("consumed_run_id IS NULL OR consumed_run_id = ?", runID).
		Order("incurred_at ASC").
		Find(&claims).Error
	return claims, err
}

func (r *repository) MarkRetroConsumed(ctx context.Context, companyID string, ids []string, runID string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&RetroAdjustment{}).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Where("status = ?", RetroStatusPending).
		Updates(map[string]any{
			"status":          RetroStatusConsumed,
			"consumed_run_id": runID,
			"consumed_at":     now,
		}).Error
}

func (r *repository) MarkReimbursementsConsumed(ctx context.Context, companyID string, ids []string, runID string) error {
	if len(ids) == 0 {
		return nil
	}
	now := time.Now().UTC()
	return r.db.WithContext(ctx).
		Model(&ExpenseReimbursement{}).
		Scopes(tenant.Scope(companyID)).
		Where("id IN ?", ids).
		Where("consumed_run_id IS NULL").
		Updates(map[string]any{
			"consumed_run_id": runID,
			"consumed_at":     now,
		}).Error
}

// ReleaseRunConsumption returns everything a run consumed back to the
// queues. Called before a recalculation and on reopen so replaying a run
// never double-counts or permanently loses an adjustment.
func (r *repository) ReleaseRunConsumption(ctx context.Context, companyID string, runID string) error {
	err := r.db.WithContext(ctx).
		Model(&RetroAdjustment{}).
		Scopes(tenant.Scope(companyID)).
		Where("consumed_run_id = ?", runID).
		Updates(map[string]any{
			"status":          RetroStatusPending,
			"consumed_run_id": nil,
			"consumed_at":     nil,
		}).Error
	if err != nil {
		return err
	}

	return r.db.WithContext(ctx).
		Model(&ExpenseReimbursement{}).
		Scopes(tenant.Scope(companyID)).
		Where("consumed_run_id = ?", runID).
		Updates(map[string]any{
			"consumed_run_id": nil,
			"consumed_at":     nil,
		}).Error
}
