package model

// RosterStatus 排班表状态（封闭枚举）
type RosterStatus string

const (
	StatusDraft         RosterStatus = "draft"
	StatusPendingReview RosterStatus = "pending_review"
	StatusApproved      RosterStatus = "approved"
	StatusPublished     RosterStatus = "published"
	StatusArchived      RosterStatus = "archived"
)

// StatusInfo 状态元数据：展示标签与允许的出向迁移
type StatusInfo struct {
	Label              string
	AllowedTransitions []RosterStatus
}

// Describe 返回状态元数据。
// 状态机完全封闭：未知状态不提供兜底分支，新增状态必须同步扩展此处。
func (s RosterStatus) Describe() StatusInfo {
	switch s {
	case StatusDraft:
		return StatusInfo{
			Label:              "草稿",
			AllowedTransitions: []RosterStatus{StatusPendingReview, StatusApproved},
		}
	case StatusPendingReview:
		return StatusInfo{
			Label:              "待审核",
			AllowedTransitions: []RosterStatus{StatusApproved, StatusDraft},
		}
	case StatusApproved:
		return StatusInfo{
			Label:              "已批准",
			AllowedTransitions: []RosterStatus{StatusPublished, StatusDraft},
		}
	case StatusPublished:
		return StatusInfo{
			Label:              "已发布",
			AllowedTransitions: []RosterStatus{StatusDraft},
		}
	case StatusArchived:
		// 归档为终态：仅作为其他版本发布的副作用进入，无出向迁移
		return StatusInfo{
			Label:              "已归档",
			AllowedTransitions: nil,
		}
	}
	return StatusInfo{}
}

// Valid 状态值是否为已知枚举成员
func (s RosterStatus) Valid() bool {
	switch s {
	case StatusDraft, StatusPendingReview, StatusApproved, StatusPublished, StatusArchived:
		return true
	}
	return false
}

// CanTransitionTo 检查状态迁移是否被状态机允许
func (s RosterStatus) CanTransitionTo(target RosterStatus) bool {
	for _, t := range s.Describe().AllowedTransitions {
		if t == target {
			return true
		}
	}
	return false
}

// Roster 排班表版本记录 — 对应 rosters
//
// 同一 chain_id 下的多行构成一条版本链（某场馆某周排班的演进序列）；
// chain_id 为空表示该排班表尚无同链兄弟版本。
// version_number 标识链内位置（从 1 递增）；revision 是行内班次集合
// 的变更计数器（每次班次集合变更 +1，用于回滚快照定位）。
// 链内不变量：至多一行 is_active=true，且该行 status 必为 published。
type Roster struct {
	RosterID      string       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"roster_id"`
	VenueID       string       `gorm:"type:uuid;not null"                             json:"venue_id"`
	ChainID       *string      `gorm:"type:uuid"                                      json:"chain_id,omitempty"`
	VersionNumber int          `gorm:"not null;default:1"                             json:"version_number"`
	Revision      int          `gorm:"not null;default:1"                             json:"revision"`
	Status        RosterStatus `gorm:"type:varchar(20);not null;default:'draft'"      json:"status"`
	IsActive      bool         `gorm:"not null;default:false"                         json:"is_active"`
	StartDate     string       `gorm:"type:date;not null"                             json:"start_date"`
	EndDate       string       `gorm:"type:date;not null"                             json:"end_date"`
	VersionedModel

	// 关联
	Venue  *Venue  `gorm:"foreignKey:VenueID;references:VenueID" json:"venue,omitempty"`
	Shifts []Shift `gorm:"foreignKey:RosterID"                   json:"shifts,omitempty"`
}

func (Roster) TableName() string { return "rosters" }
