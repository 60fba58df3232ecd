package service

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"staff-roster/internal/dto"
	"staff-roster/internal/model"
)

// ── 候选班次校验与转换（各 Service 共用）──

var ErrShiftFieldInvalid = errors.New("班次字段校验失败")

// validateDate 校验 YYYY-MM-DD 日期
func validateDate(field, value string) error {
	if _, err := time.Parse("2006-01-02", value); err != nil {
		return fmt.Errorf("%w: %s 必须为 YYYY-MM-DD 格式，实际 %q", ErrShiftFieldInvalid, field, value)
	}
	return nil
}

// validateClock 校验 HH:MM 时刻
func validateClock(field, value string) error {
	if _, err := time.Parse("15:04", value); err != nil {
		return fmt.Errorf("%w: %s 必须为 HH:MM 格式，实际 %q", ErrShiftFieldInvalid, field, value)
	}
	return nil
}

// validateInterval 校验起止时刻构成非空区间
func validateInterval(start, end string) error {
	if err := validateClock("start_time", start); err != nil {
		return err
	}
	if err := validateClock("end_time", end); err != nil {
		return err
	}
	if start >= end {
		return fmt.Errorf("%w: start_time %q 必须早于 end_time %q", ErrShiftFieldInvalid, start, end)
	}
	return nil
}

// candidatesToShifts 将提取管线的候选班次转换为班次模型。
// 候选数据未经冲突校验，此处仅做字段级校验；校验失败不产生任何变更。
func candidatesToShifts(rosterID string, candidates []dto.CandidateShift) ([]model.Shift, error) {
	shifts := make([]model.Shift, 0, len(candidates))
	for i, c := range candidates {
		if err := validateDate(fmt.Sprintf("shifts[%d].date", i), c.Date); err != nil {
			return nil, err
		}
		if err := validateInterval(c.StartTime, c.EndTime); err != nil {
			return nil, fmt.Errorf("shifts[%d]: %w", i, err)
		}

		shift := model.Shift{
			ShiftID:      uuid.New().String(),
			RosterID:     rosterID,
			Date:         c.Date,
			StartTime:    c.StartTime,
			EndTime:      c.EndTime,
			BreakMinutes: c.BreakMinutes,
			Position:     c.Position,
		}
		if c.Notes != nil {
			shift.Notes = *c.Notes
		}
		if c.MatchedUserID != nil && *c.MatchedUserID != "" {
			shift.UserID = c.MatchedUserID
		} else if c.AssigneeName != "" {
			name := c.AssigneeName
			shift.OriginalName = &name
		}
		shifts = append(shifts, shift)
	}
	return shifts, nil
}

// ── 响应构建 ──

func toShiftResponse(s *model.Shift) dto.ShiftResponse {
	resp := dto.ShiftResponse{
		ID:             s.ShiftID,
		RosterID:       s.RosterID,
		UserID:         s.UserID,
		OriginalName:   s.OriginalName,
		Date:           s.Date,
		StartTime:      s.StartTime,
		EndTime:        s.EndTime,
		BreakMinutes:   s.BreakMinutes,
		Position:       s.Position,
		Notes:          s.Notes,
		HasConflict:    s.HasConflict,
		ManuallyEdited: s.ManuallyEdited,
	}
	if s.ConflictType != nil {
		ct := string(*s.ConflictType)
		resp.ConflictType = &ct
	}
	if s.User != nil {
		resp.UserName = s.User.Name
	}
	return resp
}

func toShiftResponses(shifts []model.Shift) []dto.ShiftResponse {
	result := make([]dto.ShiftResponse, 0, len(shifts))
	for i := range shifts {
		result = append(result, toShiftResponse(&shifts[i]))
	}
	return result
}

func toHistoryResponse(e *model.VersionHistoryEntry) dto.HistoryEntryResponse {
	return dto.HistoryEntryResponse{
		ID:          e.EntryID,
		RosterID:    e.RosterID,
		Action:      string(e.Action),
		Version:     e.Version,
		PerformedBy: e.PerformedBy,
		PerformedAt: e.PerformedAt.Format(time.RFC3339),
		Changes:     e.Changes,
	}
}

func toRosterResponse(r *model.Roster, shifts []model.Shift, includeShifts bool) *dto.RosterResponse {
	conflictCount := 0
	for i := range shifts {
		if shifts[i].HasConflict {
			conflictCount++
		}
	}

	resp := &dto.RosterResponse{
		ID:            r.RosterID,
		VenueID:       r.VenueID,
		ChainID:       r.ChainID,
		VersionNumber: r.VersionNumber,
		Revision:      r.Revision,
		Status:        string(r.Status),
		StatusLabel:   r.Status.Describe().Label,
		IsActive:      r.IsActive,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		ShiftCount:    len(shifts),
		ConflictCount: conflictCount,
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.UpdatedAt.Format(time.RFC3339),
	}
	if includeShifts {
		resp.Shifts = toShiftResponses(shifts)
	}
	return resp
}
