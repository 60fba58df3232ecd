package model

import "time"

// HistoryAction 版本历史动作（封闭枚举）
type HistoryAction string

const (
	ActionCreated               HistoryAction = "created"
	ActionUpdated               HistoryAction = "updated"
	ActionShiftAdded            HistoryAction = "shift_added"
	ActionShiftRemoved          HistoryAction = "shift_removed"
	ActionShiftUpdated          HistoryAction = "shift_updated"
	ActionBulkImport            HistoryAction = "bulk_import"
	ActionFinalized             HistoryAction = "finalized"
	ActionPublished             HistoryAction = "published"
	ActionPublishedAsNewVersion HistoryAction = "published_as_new_version"
	ActionUnpublished           HistoryAction = "unpublished"
	ActionRevertedToDraft       HistoryAction = "reverted_to_draft"
	ActionArchived              HistoryAction = "archived"
	ActionRestoredFromVersion   HistoryAction = "restored_from_version"
	ActionSupersededByNew       HistoryAction = "superseded_by_new_version"
	ActionRollbackStarted       HistoryAction = "rollback_started"
	ActionRollbackComplete      HistoryAction = "rollback_complete"
	ActionMergeStarted          HistoryAction = "merge_started"
	ActionMergeComplete         HistoryAction = "merge_complete"
)

// VersionHistoryEntry 版本历史条目 — 对应 version_history
//
// 仅追加的审计记录：写入后不修改、不删除，是排班表演进的唯一审计来源。
// version 记录动作发生时的 roster.revision；changes 携带结构化负载
// （班次计数快照、回滚目标修订号、合并增删改计数等）。
type VersionHistoryEntry struct {
	EntryID     string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"entry_id"`
	RosterID    string        `gorm:"type:uuid;not null"                             json:"roster_id"`
	Action      HistoryAction `gorm:"type:varchar(40);not null"                      json:"action"`
	Version     int           `gorm:"not null"                                       json:"version"`
	PerformedBy string        `gorm:"type:uuid;not null"                             json:"performed_by"`
	PerformedAt time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP"             json:"performed_at"`
	Changes     JSONMap       `gorm:"type:jsonb"                                     json:"changes,omitempty"`
}

func (VersionHistoryEntry) TableName() string { return "version_history" }
