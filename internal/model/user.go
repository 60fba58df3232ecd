package model

import "time"

// 用户角色常量
const (
	RoleAdmin   = "admin"
	RoleManager = "manager"
	RoleStaff   = "staff"
)

// User 员工档案 — 对应 users
// 认证与权限由外部身份服务负责，本引擎仅消费 user_id 与姓名
type User struct {
	UserID    string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"user_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Email     string    `gorm:"type:varchar(255);not null;uniqueIndex"         json:"email"`
	Role      string    `gorm:"type:varchar(20);not null;default:'staff'"      json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string { return "users" }

// Venue 场馆 — 对应 venues
type Venue struct {
	VenueID   string    `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"venue_id"`
	Name      string    `gorm:"type:varchar(100);not null"                     json:"name"`
	Timezone  string    `gorm:"type:varchar(50);not null;default:'UTC'"        json:"timezone"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Venue) TableName() string { return "venues" }
