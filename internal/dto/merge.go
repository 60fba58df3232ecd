package dto

// ── 合并模块 DTO ──

// MergePolicy 合并策略：三个独立开关，仅应用勾选的差异类别
type MergePolicy struct {
	AddNewShifts         bool `json:"add_new_shifts"`
	RemoveOldShifts      bool `json:"remove_old_shifts"`
	UpdateExistingShifts bool `json:"update_existing_shifts"`
}

// PreviewMergeRequest 合并预览请求（重新提取的候选班次）
type PreviewMergeRequest struct {
	Shifts []CandidateShift `json:"shifts" binding:"required,dive"`
}

// ApplyMergeRequest 应用合并请求
type ApplyMergeRequest struct {
	Shifts []CandidateShift `json:"shifts" binding:"required,dive"`
	Policy MergePolicy      `json:"policy" binding:"required"`
}

// ShiftUpdatePreview 修改类差异条目（字段级变更说明）
type ShiftUpdatePreview struct {
	Existing ShiftResponse `json:"existing"`
	Incoming ShiftResponse `json:"incoming"`
	Changes  []string      `json:"changes"`
}

// ShiftReassignPreview 改派类差异条目
type ShiftReassignPreview struct {
	Existing         ShiftResponse `json:"existing"`
	Incoming         ShiftResponse `json:"incoming"`
	PreviousAssignee string        `json:"previous_assignee"`
	NewAssignee      string        `json:"new_assignee"`
}

// MergeConflictPreview 歧义冲突条目：不会被自动应用，需人工裁决
type MergeConflictPreview struct {
	Existing ShiftResponse `json:"existing"`
	Incoming ShiftResponse `json:"incoming"`
	Reason   string        `json:"reason"`
}

// MergeSummary 合并预览汇总计数（派生值，不落库）
type MergeSummary struct {
	AddCount       int `json:"add_count"`
	RemoveCount    int `json:"remove_count"`
	UpdateCount    int `json:"update_count"`
	UnchangedCount int `json:"unchanged_count"`
	ConflictCount  int `json:"conflict_count"`
}

// MergePreviewResponse 合并预览响应
type MergePreviewResponse struct {
	ToAdd      []ShiftResponse        `json:"to_add"`
	ToRemove   []ShiftResponse        `json:"to_remove"`
	ToUpdate   []ShiftUpdatePreview   `json:"to_update"`
	Reassigned []ShiftReassignPreview `json:"reassigned"`
	Unchanged  []ShiftResponse        `json:"unchanged"`
	Conflicts  []MergeConflictPreview `json:"conflicts"`
	Summary    MergeSummary           `json:"summary"`
}

// PublishedEvent 发布成功后投递给通知服务的事件
type PublishedEvent struct {
	RosterID            string   `json:"roster_id"`
	VenueID             string   `json:"venue_id"`
	AffectedUserIDs     []string `json:"affected_user_ids"`
	IsNewVersion        bool     `json:"is_new_version"`
	ChangedShiftSummary string   `json:"changed_shift_summary"`
}
