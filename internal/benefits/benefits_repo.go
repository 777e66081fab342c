package benefits

import (
	"context"

	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=benefits_repo.go -destination=mock/benefits_repo_mock.go -package=mock
type Repository interface {
	FindActiveBenefitEnrollments(ctx context.Context, companyID string, employeeID string) ([]BenefitEnrollment, error)
	FindActiveSavingsEnrollments(ctx context.Context, companyID string, employeeID string) ([]SavingsEnrollment, error)
	FindActiveMappings(ctx context.Context, companyID string) ([]PayrollMapping, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveBenefitEnrollments(ctx context.Context, companyID string, employeeID string) ([]BenefitEnrollment, error) {
	var enrollments []BenefitEnrollment
	err := r.db.WithContext(ctx).
		Preload("Plan").
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("active = ?", true).
		Find(&enrollments).Error
	return enrollments, err
}

func (r *repository) FindActiveSavingsEnrollments(ctx context.Context, companyID string, employeeID string) ([]SavingsEnrollment, error) {
	var enrollments []SavingsEnrollment
	err := r.db.WithContext(ctx).
		Preload("Program").
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("active = ?", true).
		Find(&enrollments).Error
	return enrollments, err
}

func (r *repository) FindActiveMappings(ctx context.Context, companyID string) ([]PayrollMapping, error) {
	var mappings []PayrollMapping
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("active = ?", true).
		Find(&mappings).Error
	return mappings, err
}
