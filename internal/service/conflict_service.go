package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staff-roster/internal/dto"
	"staff-roster/internal/model"
	"staff-roster/internal/repository"
)

// ── 冲突检测器（Conflict Detector）──

var ErrConflictRosterNotFound = errors.New("排班表不存在")

// ConflictService 冲突检测业务接口
//
// 冲突标记是派生投影：只由本检测器写入，任何班次集合变更
// （新增、编辑、删除、合并应用、回滚、还原）之后都必须重算。
type ConflictService interface {
	// Refresh 重算并持久化某排班表全部班次的冲突标记
	Refresh(ctx context.Context, rosterID string) error
	// ListConflicts 返回某排班表当前带冲突标记的班次
	ListConflicts(ctx context.Context, rosterID string) ([]dto.ShiftResponse, error)
	// FlagShifts 在事务内对给定班次集合重算冲突标记（不落库，由调用方持久化）
	FlagShifts(ctx context.Context, txRepo *repository.Repository, roster *model.Roster, shifts []model.Shift) ([]model.Shift, error)
}

type conflictService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewConflictService 创建 ConflictService 实例
func NewConflictService(repo *repository.Repository, logger *zap.Logger) ConflictService {
	return &conflictService{repo: repo, logger: logger}
}

func (s *conflictService) Refresh(ctx context.Context, rosterID string) error {
	return s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		roster, err := txRepo.Roster.GetByID(ctx, rosterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrConflictRosterNotFound
			}
			return err
		}

		shifts, err := txRepo.Shift.ListByRoster(ctx, rosterID)
		if err != nil {
			return err
		}

		flagged, err := s.FlagShifts(ctx, txRepo, roster, shifts)
		if err != nil {
			return err
		}

		return txRepo.Shift.UpdateConflictFlags(ctx, flagged)
	})
}

func (s *conflictService) ListConflicts(ctx context.Context, rosterID string) ([]dto.ShiftResponse, error) {
	if _, err := s.repo.Roster.GetByID(ctx, rosterID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrConflictRosterNotFound
		}
		return nil, err
	}

	shifts, err := s.repo.Shift.ListByRoster(ctx, rosterID)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ShiftResponse, 0)
	for i := range shifts {
		if shifts[i].HasConflict {
			result = append(result, toShiftResponse(&shifts[i]))
		}
	}
	return result, nil
}

func (s *conflictService) FlagShifts(ctx context.Context, txRepo *repository.Repository, roster *model.Roster, shifts []model.Shift) ([]model.Shift, error) {
	userIDs := collectUserIDs(shifts)

	timeOffs, err := txRepo.TimeOff.ListApprovedByUsers(ctx, userIDs, roster.StartDate, roster.EndDate)
	if err != nil {
		s.logger.Error("查询休假记录失败", zap.Error(err))
		return nil, err
	}

	availabilities, err := txRepo.Availability.ListByUsers(ctx, userIDs)
	if err != nil {
		s.logger.Error("查询可用时段失败", zap.Error(err))
		return nil, err
	}

	return RecomputeConflicts(shifts, timeOffs, availabilities), nil
}

// ════════════════════════════════════════════════════════════
// RecomputeConflicts — 纯函数冲突重算
// ════════════════════════════════════════════════════════════
//
// 逐班次求值，优先级自上而下、首个命中即定型：
//  1. time_off      已批准休假区间覆盖班次日期
//  2. double_booked 同人同日 [start,end) 半开区间重叠（重叠对双方都标记；
//                   一班结束时刻恰为另一班开始时刻不算冲突）
//  3. availability  该星期几申报不可用，或申报窗口并集未覆盖班次区间
//
// 未分配班次（user_id 为空）永不标记。
// 对相同输入重复执行结果一致（无隐藏状态，幂等）。
func RecomputeConflicts(shifts []model.Shift, timeOffs []model.TimeOff, availabilities []model.Availability) []model.Shift {
	result := make([]model.Shift, len(shifts))
	copy(result, shifts)

	// 索引：员工 → 已批准休假
	timeOffsByUser := make(map[string][]model.TimeOff)
	for _, t := range timeOffs {
		if t.Status != model.TimeOffApproved {
			continue
		}
		timeOffsByUser[t.UserID] = append(timeOffsByUser[t.UserID], t)
	}

	// 索引：员工:星期几 → 申报窗口
	availByUserDay := make(map[string][]model.Availability)
	for _, a := range availabilities {
		key := availKey(a.UserID, a.DayOfWeek)
		availByUserDay[key] = append(availByUserDay[key], a)
	}

	// 索引：员工:日期 → 班次下标（用于重复排班检测）
	byUserDate := make(map[string][]int)
	for i := range result {
		if !result[i].Assigned() {
			continue
		}
		byUserDate[*result[i].UserID+":"+result[i].Date] = append(byUserDate[*result[i].UserID+":"+result[i].Date], i)
	}

	for i := range result {
		// 先清空：冲突标记是纯派生值
		result[i].HasConflict = false
		result[i].ConflictType = nil

		if !result[i].Assigned() {
			continue
		}
		userID := *result[i].UserID

		// 1. 休假冲突
		if hasTimeOffConflict(timeOffsByUser[userID], result[i].Date) {
			setConflict(&result[i], model.ConflictTimeOff)
			continue
		}

		// 2. 重复排班
		if hasDoubleBooking(result, byUserDate[userID+":"+result[i].Date], i) {
			setConflict(&result[i], model.ConflictDoubleBooked)
			continue
		}

		// 3. 可用时段
		weekday, ok := weekdayOf(result[i].Date)
		if !ok {
			continue
		}
		declared := availByUserDay[availKey(userID, weekday)]
		if len(declared) == 0 {
			continue // 未申报约束，不产生冲突
		}
		if !availabilityCovers(declared, result[i].StartTime, result[i].EndTime) {
			setConflict(&result[i], model.ConflictAvailability)
		}
	}

	return result
}

// ── 内部辅助 ──

func setConflict(s *model.Shift, t model.ConflictType) {
	s.HasConflict = true
	ct := t
	s.ConflictType = &ct
}

func collectUserIDs(shifts []model.Shift) []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range shifts {
		if shifts[i].Assigned() && !seen[*shifts[i].UserID] {
			seen[*shifts[i].UserID] = true
			ids = append(ids, *shifts[i].UserID)
		}
	}
	return ids
}

func availKey(userID string, dayOfWeek int) string {
	return fmt.Sprintf("%s:%d", userID, dayOfWeek)
}

func hasTimeOffConflict(timeOffs []model.TimeOff, date string) bool {
	for i := range timeOffs {
		if timeOffs[i].Covers(date) {
			return true
		}
	}
	return false
}

// hasDoubleBooking 同人同日的其他班次与第 i 条班次半开区间重叠
func hasDoubleBooking(shifts []model.Shift, indices []int, i int) bool {
	for _, j := range indices {
		if j == i {
			continue
		}
		if shifts[i].StartTime < shifts[j].EndTime && shifts[j].StartTime < shifts[i].EndTime {
			return true
		}
	}
	return false
}

func weekdayOf(date string) (int, bool) {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return 0, false
	}
	return int(t.Weekday()), true
}

// availabilityCovers 申报窗口并集是否覆盖 [start, end)
// 任一申报行标记整日不可用则直接不覆盖
func availabilityCovers(declared []model.Availability, start, end string) bool {
	type window struct{ start, end string }
	var windows []window
	for i := range declared {
		if !declared[i].IsAvailable {
			return false
		}
		windows = append(windows, window{start: declared[i].StartTime, end: declared[i].EndTime})
	}
	if len(windows) == 0 {
		return false
	}

	sort.Slice(windows, func(i, j int) bool { return windows[i].start < windows[j].start })

	// 合并重叠/相邻窗口后检查覆盖
	merged := []window{windows[0]}
	for _, w := range windows[1:] {
		last := &merged[len(merged)-1]
		if w.start <= last.end {
			if w.end > last.end {
				last.end = w.end
			}
		} else {
			merged = append(merged, w)
		}
	}

	for _, w := range merged {
		if w.start <= start && end <= w.end {
			return true
		}
	}
	return false
}
