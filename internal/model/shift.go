package model

// ConflictType 班次冲突类型（封闭枚举）
type ConflictType string

const (
	ConflictTimeOff      ConflictType = "time_off"
	ConflictDoubleBooked ConflictType = "double_booked"
	ConflictAvailability ConflictType = "availability"
)

// Shift 班次 — 对应 shifts，由且仅由一个 Roster 独占
//
// user_id 为空表示提取结果未匹配到员工，此时 original_name 保留
// 提取出的原始姓名标签。has_conflict/conflict_type 是派生投影，
// 仅由冲突检测器写入，任何班次集合变更后必须重算。
// manually_edited 记录该班次自上次提取入库后是否经过人工编辑，
// 供合并预览判定歧义冲突。
type Shift struct {
	ShiftID        string        `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"shift_id"`
	RosterID       string        `gorm:"type:uuid;not null"                             json:"roster_id"`
	UserID         *string       `gorm:"type:uuid"                                      json:"user_id,omitempty"`
	OriginalName   *string       `gorm:"type:varchar(100)"                              json:"original_name,omitempty"`
	Date           string        `gorm:"type:date;not null"                             json:"date"`
	StartTime      string        `gorm:"type:varchar(5);not null"                       json:"start_time"`
	EndTime        string        `gorm:"type:varchar(5);not null"                       json:"end_time"`
	BreakMinutes   int           `gorm:"not null;default:0"                             json:"break_minutes"`
	Position       *string       `gorm:"type:varchar(100)"                              json:"position,omitempty"`
	Notes          string        `gorm:"type:text;not null;default:''"                  json:"notes"`
	HasConflict    bool          `gorm:"not null;default:false"                         json:"has_conflict"`
	ConflictType   *ConflictType `gorm:"type:varchar(20)"                               json:"conflict_type,omitempty"`
	ManuallyEdited bool          `gorm:"not null;default:false"                         json:"manually_edited"`
	BaseModel

	// 关联
	User *User `gorm:"foreignKey:UserID;references:UserID" json:"user,omitempty"`
}

func (Shift) TableName() string { return "shifts" }

// Assigned 班次是否已匹配到员工
func (s *Shift) Assigned() bool {
	return s.UserID != nil && *s.UserID != ""
}
