package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ShiftList 以 JSONB 形式整存整取的班次集合，实现 GORM Scanner/Valuer。
type ShiftList []Shift

// Scan 将 JSONB 文本解析为班次切片。
func (l *ShiftList) Scan(src interface{}) error {
	if src == nil {
		*l = nil
		return nil
	}
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("ShiftList.Scan: unsupported type %T", src)
	}
	return json.Unmarshal(b, l)
}

// Value 将班次切片序列化为 JSONB 文本。
func (l ShiftList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal(l)
	if err != nil {
		return nil, fmt.Errorf("ShiftList.Value: %w", err)
	}
	return string(b), nil
}

// ShiftSnapshot 按修订号保存的班次集合快照 — 对应 roster_shift_snapshots
//
// 每次 revision 递增（导入、编辑、合并、回滚）都写入一份完整快照，
// 回滚即按 (roster_id, revision) 取快照整体覆盖当前班次集合。
type ShiftSnapshot struct {
	SnapshotID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"snapshot_id"`
	RosterID   string    `gorm:"type:uuid;not null;uniqueIndex:uq_snapshot_rev" json:"roster_id"`
	Revision   int       `gorm:"not null;uniqueIndex:uq_snapshot_rev"           json:"revision"`
	Shifts     ShiftList `gorm:"type:jsonb;not null"                            json:"shifts"`
	CreatedAt  time.Time `json:"created_at"`
}

func (ShiftSnapshot) TableName() string { return "roster_shift_snapshots" }
