package repository

import (
	"context"

	"gorm.io/gorm"

	"staff-roster/internal/model"
)

// AvailabilityRepository 可用时段申报数据访问接口（冲突检测只读消费）
type AvailabilityRepository interface {
	Create(ctx context.Context, availability *model.Availability) error
	ListByUsers(ctx context.Context, userIDs []string) ([]model.Availability, error)
}

type availabilityRepo struct {
	db *gorm.DB
}

// NewAvailabilityRepo 创建 AvailabilityRepository 实例
func NewAvailabilityRepo(db *gorm.DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func (r *availabilityRepo) Create(ctx context.Context, availability *model.Availability) error {
	return r.db.WithContext(ctx).Create(availability).Error
}

func (r *availabilityRepo) ListByUsers(ctx context.Context, userIDs []string) ([]model.Availability, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var availabilities []model.Availability
	err := r.db.WithContext(ctx).
		Where("user_id IN ?", userIDs).
		Order("user_id ASC, day_of_week ASC, start_time ASC").
		Find(&availabilities).Error
	return availabilities, err
}
