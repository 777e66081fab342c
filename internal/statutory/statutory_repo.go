package statutory

import (
	"context"
	"time"

	"gorm.io/gorm"
)

//go:generate mockgen -source=statutory_repo.go -destination=mock/statutory_repo_mock.go -package=mock
type Repository interface {
	FindActiveTypes(ctx context.Context, countryCode string, asOf time.Time) ([]DeductionType, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) FindActiveTypes(ctx context.Context, countryCode string, asOf time.Time) ([]DeductionType, error) {
	var types []DeductionType
	err := r.db.WithContext(ctx).
		Preload("Bands", func(db *gorm.DB) *gorm.DB {
			return db.Order("lower_bound ASC")
		}).
		Where("country_code = ?", countryCode).
		Where("effective_from <= ?", asOf).
		Where("effective_to IS NULL OR effective_to >= ?", asOf).
		Order("code ASC").
		Find(&types).Error
	return types, err
}
