package employee

import (
	"context"

	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=employee_repo.go -destination=mock/employee_repo_mock.go -package=mock
type Repository interface {
	FindByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByPayGroup(ctx context.Context, companyID string, payGroupID string) ([]Employee, error)
	FindPayGroup(ctx context.Context, companyID string, payGroupID string) (*PayGroup, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByPayGroup(ctx context.Context, companyID string, payGroupID string) ([]Employee, error) {
	var employees []Employee
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("pay_group_id = ?", payGroupID).
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindPayGroup(ctx context.Context, companyID string, payGroupID string) (*PayGroup, error) {
	var group PayGroup
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&group, "id = ?", payGroupID).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}
