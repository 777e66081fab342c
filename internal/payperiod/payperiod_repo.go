package payperiod

import (
	"context"

	"gorm.io/gorm"

	"github.com/daryls-hrplus/intellihrm-sub025/internal/tenant"
)

//go:generate mockgen -source=payperiod_repo.go -destination=mock/payperiod_repo_mock.go -package=mock
type Repository interface {
	FindByIDAndCompany(ctx context.Context, companyID string, id string) (*PayPeriod, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID string, id string) (*PayPeriod, error) {
	var period PayPeriod
	err := r.db.WithContext(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&period, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &period, nil
}
