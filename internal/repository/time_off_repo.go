package repository

import (
	"context"

	"gorm.io/gorm"

	"staff-roster/internal/model"
)

// TimeOffRepository 休假记录数据访问接口（冲突检测只读消费）
type TimeOffRepository interface {
	Create(ctx context.Context, timeOff *model.TimeOff) error
	// ListApprovedByUsers 查询一组员工在日期区间内已批准的休假
	ListApprovedByUsers(ctx context.Context, userIDs []string, startDate, endDate string) ([]model.TimeOff, error)
}

type timeOffRepo struct {
	db *gorm.DB
}

// NewTimeOffRepo 创建 TimeOffRepository 实例
func NewTimeOffRepo(db *gorm.DB) TimeOffRepository {
	return &timeOffRepo{db: db}
}

func (r *timeOffRepo) Create(ctx context.Context, timeOff *model.TimeOff) error {
	return r.db.WithContext(ctx).Create(timeOff).Error
}

func (r *timeOffRepo) ListApprovedByUsers(ctx context.Context, userIDs []string, startDate, endDate string) ([]model.TimeOff, error) {
	if len(userIDs) == 0 {
		return nil, nil
	}
	var timeOffs []model.TimeOff
	err := r.db.WithContext(ctx).
		Where("user_id IN ? AND status = ?", userIDs, model.TimeOffApproved).
		Where("start_date <= ? AND end_date >= ?", endDate, startDate).
		Order("user_id ASC, start_date ASC").
		Find(&timeOffs).Error
	return timeOffs, err
}
