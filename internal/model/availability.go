package model

import "time"

// Availability 员工每周可用时段申报 — 对应 availabilities
//
// 每行代表某员工某星期几的一个可用窗口；is_available=false 表示该
// 星期几整天不可用（此时窗口时间无意义）。同一星期几可有多行窗口，
// 冲突检测按窗口并集判断覆盖。
// 某员工某星期几无任何申报行 = 未申报约束，不产生冲突。
type Availability struct {
	AvailabilityID string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"availability_id"`
	UserID         string    `gorm:"type:uuid;not null"                             json:"user_id"`
	DayOfWeek      int       `gorm:"not null"                                       json:"day_of_week"` // 0=周日 ... 6=周六
	IsAvailable    bool      `gorm:"not null;default:true"                          json:"is_available"`
	StartTime      string    `gorm:"type:varchar(5);not null;default:'00:00'"       json:"start_time"`
	EndTime        string    `gorm:"type:varchar(5);not null;default:'23:59'"       json:"end_time"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func (Availability) TableName() string { return "availabilities" }
