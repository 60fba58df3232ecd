package model

import "time"

// 休假申请状态
const (
	TimeOffPending  = "pending"
	TimeOffApproved = "approved"
	TimeOffRejected = "rejected"
)

// TimeOff 休假记录 — 对应 time_offs
// 冲突检测只认 approved 状态的记录
type TimeOff struct {
	TimeOffID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"time_off_id"`
	UserID    string    `gorm:"type:uuid;not null"                             json:"user_id"`
	StartDate string    `gorm:"type:date;not null"                             json:"start_date"`
	EndDate   string    `gorm:"type:date;not null"                             json:"end_date"`
	Status    string    `gorm:"type:varchar(20);not null;default:'pending'"    json:"status"`
	Reason    string    `gorm:"type:text;not null;default:''"                  json:"reason"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (TimeOff) TableName() string { return "time_offs" }

// Covers 休假区间是否覆盖指定日期（闭区间，日期为 YYYY-MM-DD 字符串）
func (t *TimeOff) Covers(date string) bool {
	return t.StartDate <= date && date <= t.EndDate
}
