package dto

// ── 排班表模块 DTO ──

// CandidateShift 提取管线产出的候选班次
// 由 AI/文件解析服务生成，未经排班冲突校验
type CandidateShift struct {
	AssigneeName  string  `json:"assignee_name"   binding:"required,max=100"`
	AssigneeEmail *string `json:"assignee_email"  binding:"omitempty,email"`
	MatchedUserID *string `json:"matched_user_id" binding:"omitempty,uuid"`
	Date          string  `json:"date"            binding:"required"`
	StartTime     string  `json:"start_time"      binding:"required"`
	EndTime       string  `json:"end_time"        binding:"required"`
	BreakMinutes  int     `json:"break_minutes"   binding:"omitempty,min=0"`
	Position      *string `json:"position"        binding:"omitempty,max=100"`
	Notes         *string `json:"notes"           binding:"omitempty,max=500"`
}

// ConfirmExtractionRequest 确认提取结果、创建草稿排班表
type ConfirmExtractionRequest struct {
	VenueID   string           `json:"venue_id"   binding:"required,uuid"`
	StartDate string           `json:"start_date" binding:"required"`
	EndDate   string           `json:"end_date"   binding:"required"`
	Shifts    []CandidateShift `json:"shifts"     binding:"required,dive"`
}

// AddShiftRequest 手动添加班次
type AddShiftRequest struct {
	UserID       *string `json:"user_id"       binding:"omitempty,uuid"`
	OriginalName *string `json:"original_name" binding:"omitempty,max=100"`
	Date         string  `json:"date"          binding:"required"`
	StartTime    string  `json:"start_time"    binding:"required"`
	EndTime      string  `json:"end_time"      binding:"required"`
	BreakMinutes int     `json:"break_minutes" binding:"omitempty,min=0"`
	Position     *string `json:"position"      binding:"omitempty,max=100"`
	Notes        *string `json:"notes"         binding:"omitempty,max=500"`
}

// UpdateShiftRequest 手动编辑班次（字段为空指针表示不变）
type UpdateShiftRequest struct {
	UserID       *string `json:"user_id"       binding:"omitempty,uuid"`
	Date         *string `json:"date"`
	StartTime    *string `json:"start_time"`
	EndTime      *string `json:"end_time"`
	BreakMinutes *int    `json:"break_minutes" binding:"omitempty,min=0"`
	Position     *string `json:"position"      binding:"omitempty,max=100"`
	Notes        *string `json:"notes"         binding:"omitempty,max=500"`
	Unassign     bool    `json:"unassign"` // true 时清除 user_id
}

// RollbackRequest 回滚到历史修订
type RollbackRequest struct {
	TargetRevision int `json:"target_revision" binding:"required,min=1"`
}

// RosterListRequest 排班表列表查询参数
type RosterListRequest struct {
	PageRequest
	VenueID string `form:"venue_id" binding:"required,uuid"`
}

// ── 响应 ──

// ShiftResponse 班次响应
type ShiftResponse struct {
	ID             string  `json:"id"`
	RosterID       string  `json:"roster_id"`
	UserID         *string `json:"user_id,omitempty"`
	UserName       string  `json:"user_name,omitempty"`
	OriginalName   *string `json:"original_name,omitempty"`
	Date           string  `json:"date"`
	StartTime      string  `json:"start_time"`
	EndTime        string  `json:"end_time"`
	BreakMinutes   int     `json:"break_minutes"`
	Position       *string `json:"position,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	HasConflict    bool    `json:"has_conflict"`
	ConflictType   *string `json:"conflict_type,omitempty"`
	ManuallyEdited bool    `json:"manually_edited"`
}

// RosterResponse 排班表响应
type RosterResponse struct {
	ID            string          `json:"id"`
	VenueID       string          `json:"venue_id"`
	ChainID       *string         `json:"chain_id,omitempty"`
	VersionNumber int             `json:"version_number"`
	Revision      int             `json:"revision"`
	Status        string          `json:"status"`
	StatusLabel   string          `json:"status_label"`
	IsActive      bool            `json:"is_active"`
	StartDate     string          `json:"start_date"`
	EndDate       string          `json:"end_date"`
	ShiftCount    int             `json:"shift_count"`
	ConflictCount int             `json:"conflict_count"`
	Shifts        []ShiftResponse `json:"shifts,omitempty"`
	CreatedAt     string          `json:"created_at"`
	UpdatedAt     string          `json:"updated_at"`
}

// HistoryEntryResponse 版本历史条目响应
type HistoryEntryResponse struct {
	ID          string                 `json:"id"`
	RosterID    string                 `json:"roster_id"`
	Action      string                 `json:"action"`
	Version     int                    `json:"version"`
	PerformedBy string                 `json:"performed_by"`
	PerformedAt string                 `json:"performed_at"`
	Changes     map[string]interface{} `json:"changes,omitempty"`
}
