package repository

import (
	"context"

	"gorm.io/gorm"

	"staff-roster/internal/model"
)

// ShiftSnapshotRepository 班次快照数据访问接口
type ShiftSnapshotRepository interface {
	Create(ctx context.Context, snapshot *model.ShiftSnapshot) error
	GetByRevision(ctx context.Context, rosterID string, revision int) (*model.ShiftSnapshot, error)
	ListByRoster(ctx context.Context, rosterID string) ([]model.ShiftSnapshot, error)
}

type shiftSnapshotRepo struct {
	db *gorm.DB
}

// NewShiftSnapshotRepo 创建 ShiftSnapshotRepository 实例
func NewShiftSnapshotRepo(db *gorm.DB) ShiftSnapshotRepository {
	return &shiftSnapshotRepo{db: db}
}

func (r *shiftSnapshotRepo) Create(ctx context.Context, snapshot *model.ShiftSnapshot) error {
	return r.db.WithContext(ctx).Create(snapshot).Error
}

func (r *shiftSnapshotRepo) GetByRevision(ctx context.Context, rosterID string, revision int) (*model.ShiftSnapshot, error) {
	var snapshot model.ShiftSnapshot
	err := r.db.WithContext(ctx).
		Where("roster_id = ? AND revision = ?", rosterID, revision).
		First(&snapshot).Error
	if err != nil {
		return nil, err
	}
	return &snapshot, nil
}

func (r *shiftSnapshotRepo) ListByRoster(ctx context.Context, rosterID string) ([]model.ShiftSnapshot, error) {
	var snapshots []model.ShiftSnapshot
	err := r.db.WithContext(ctx).
		Where("roster_id = ?", rosterID).
		Order("revision ASC").
		Find(&snapshots).Error
	return snapshots, err
}
