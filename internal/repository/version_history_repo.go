package repository

import (
	"context"

	"gorm.io/gorm"

	"staff-roster/internal/model"
)

// VersionHistoryRepository 版本历史数据访问接口
// 仅追加：接口刻意不提供 Update/Delete
type VersionHistoryRepository interface {
	Create(ctx context.Context, entry *model.VersionHistoryEntry) error
	ListByRoster(ctx context.Context, rosterID string, offset, limit int) ([]model.VersionHistoryEntry, int64, error)
}

type versionHistoryRepo struct {
	db *gorm.DB
}

// NewVersionHistoryRepo 创建 VersionHistoryRepository 实例
func NewVersionHistoryRepo(db *gorm.DB) VersionHistoryRepository {
	return &versionHistoryRepo{db: db}
}

func (r *versionHistoryRepo) Create(ctx context.Context, entry *model.VersionHistoryEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *versionHistoryRepo) ListByRoster(ctx context.Context, rosterID string, offset, limit int) ([]model.VersionHistoryEntry, int64, error) {
	var entries []model.VersionHistoryEntry
	var total int64

	db := r.db.WithContext(ctx).Model(&model.VersionHistoryEntry{}).
		Where("roster_id = ?", rosterID)

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Offset(offset).Limit(limit).
		Order("performed_at DESC").
		Find(&entries).Error
	return entries, total, err
}
