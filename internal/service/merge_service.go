package service

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"staff-roster/internal/dto"
	"staff-roster/internal/model"
	"staff-roster/internal/repository"
)

// ── 合并模块业务错误 ──

var (
	ErrMergeRosterNotFound = errors.New("排班表不存在")
	ErrMergeRosterArchived = errors.New("已归档排班表不可合并")
)

// MergeService 三方合并业务接口
//
// 把重新提取的候选班次集合合并进既有排班表：
// Preview 只读计算差异与歧义冲突；Apply 按三开关策略在单事务内落库。
// 歧义冲突永不自动应用，留待人工裁决。
type MergeService interface {
	Preview(ctx context.Context, rosterID string, req *dto.PreviewMergeRequest) (*dto.MergePreviewResponse, error)
	Apply(ctx context.Context, rosterID string, req *dto.ApplyMergeRequest, actorID string) (*dto.RosterResponse, error)
}

type mergeService struct {
	repo        *repository.Repository
	conflictSvc ConflictService
	logger      *zap.Logger
}

// NewMergeService 创建 MergeService 实例
func NewMergeService(repo *repository.Repository, conflictSvc ConflictService, logger *zap.Logger) MergeService {
	return &mergeService{repo: repo, conflictSvc: conflictSvc, logger: logger}
}

// mergeConflict 歧义冲突：同一物理槽位、两个已分配员工不一致，
// 且既有班次在上次提取后经过人工编辑
type mergeConflict struct {
	Existing model.Shift
	Incoming model.Shift
	Reason   string
}

// mergePlan 合并计划：差异分类 + 歧义冲突
type mergePlan struct {
	diff      *ShiftDiff
	conflicts []mergeConflict
}

// ════════════════════════════════════════════════════════════
// Preview — 合并预览（只读）
// ════════════════════════════════════════════════════════════

func (s *mergeService) Preview(ctx context.Context, rosterID string, req *dto.PreviewMergeRequest) (*dto.MergePreviewResponse, error) {
	var resp *dto.MergePreviewResponse

	// 读也走事务：预览必须基于单一一致快照，不得混用两个修订的班次行
	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		roster, err := txRepo.Roster.GetByID(ctx, rosterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMergeRosterNotFound
			}
			return err
		}

		existing, err := txRepo.Shift.ListByRoster(ctx, roster.RosterID)
		if err != nil {
			return err
		}

		incoming, err := candidatesToShifts(roster.RosterID, req.Shifts)
		if err != nil {
			return err
		}

		plan := buildMergePlan(existing, incoming)
		resp = planToResponse(plan)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ════════════════════════════════════════════════════════════
// Apply — 应用合并（单事务）
// ════════════════════════════════════════════════════════════

func (s *mergeService) Apply(ctx context.Context, rosterID string, req *dto.ApplyMergeRequest, actorID string) (*dto.RosterResponse, error) {
	var result *dto.RosterResponse

	err := s.repo.Transaction(ctx, func(txRepo *repository.Repository) error {
		roster, err := txRepo.Roster.GetByID(ctx, rosterID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrMergeRosterNotFound
			}
			return err
		}
		if roster.Status == model.StatusArchived {
			return ErrMergeRosterArchived
		}

		existing, err := txRepo.Shift.ListByRoster(ctx, roster.RosterID)
		if err != nil {
			return err
		}

		incoming, err := candidatesToShifts(roster.RosterID, req.Shifts)
		if err != nil {
			return err
		}

		// 事务内重算合并计划：不信任调用方预览与应用之间的陈旧差异
		plan := buildMergePlan(existing, incoming)
		final, applied := applyPolicy(existing, plan, req.Policy, actorID)

		// 修订号递增 + 乐观锁写入（version 不匹配即 ErrOptimisticLock）
		roster.Revision++
		roster.UpdatedBy = &actorID
		if err := txRepo.Roster.Update(ctx, roster); err != nil {
			return err
		}

		if err := txRepo.History.Create(ctx, &model.VersionHistoryEntry{
			RosterID:    roster.RosterID,
			Action:      model.ActionMergeStarted,
			Version:     roster.Revision,
			PerformedBy: actorID,
			Changes: model.JSONMap{
				"incoming_count": len(incoming),
				"policy": map[string]interface{}{
					"add_new_shifts":         req.Policy.AddNewShifts,
					"remove_old_shifts":      req.Policy.RemoveOldShifts,
					"update_existing_shifts": req.Policy.UpdateExistingShifts,
				},
			},
		}); err != nil {
			return err
		}

		// 冲突标记重算后整体替换班次集合
		flagged, err := s.conflictSvc.FlagShifts(ctx, txRepo, roster, final)
		if err != nil {
			return err
		}
		if err := txRepo.Shift.ReplaceForRoster(ctx, roster.RosterID, flagged); err != nil {
			return err
		}

		if err := txRepo.Snapshot.Create(ctx, &model.ShiftSnapshot{
			RosterID: roster.RosterID,
			Revision: roster.Revision,
			Shifts:   model.ShiftList(flagged),
		}); err != nil {
			return err
		}

		if err := txRepo.History.Create(ctx, &model.VersionHistoryEntry{
			RosterID:    roster.RosterID,
			Action:      model.ActionMergeComplete,
			Version:     roster.Revision,
			PerformedBy: actorID,
			Changes: model.JSONMap{
				"added":     applied.added,
				"removed":   applied.removed,
				"updated":   applied.updated,
				"conflicts": len(plan.conflicts),
			},
		}); err != nil {
			return err
		}

		result = toRosterResponse(roster, flagged, true)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("合并应用完成",
		zap.String("roster_id", rosterID),
		zap.Int("revision", result.Revision),
	)
	return result, nil
}

// ── 内部辅助 ──

// buildMergePlan 以既有集合为 before、候选集合为 after 运行差异引擎，
// 再把歧义条目从"改派"中抽出：物理槽位相同、双方都是已分配员工、
// 且既有班次经过人工编辑（来源不明，不可自动裁决）。
func buildMergePlan(existing, incoming []model.Shift) *mergePlan {
	diff := DiffShifts(existing, incoming)
	plan := &mergePlan{diff: diff}

	kept := diff.Reassigned[:0]
	for _, pair := range diff.Reassigned {
		if pair.PreviousAssignee != unassignedKey &&
			pair.NewAssignee != unassignedKey &&
			pair.Before.ManuallyEdited {
			plan.conflicts = append(plan.conflicts, mergeConflict{
				Existing: pair.Before,
				Incoming: pair.After,
				Reason: fmt.Sprintf("同一槽位受派人不一致（%s → %s），且现有班次含人工编辑，需人工裁决",
					pair.PreviousAssignee, pair.NewAssignee),
			})
			continue
		}
		kept = append(kept, pair)
	}
	diff.Reassigned = kept

	// 同集合内 slot key 重复：无法判定哪条为准，一律进入冲突列表
	for _, amb := range diff.Ambiguous {
		side := "候选集合"
		if amb.InBefore {
			side = "现有集合"
		}
		plan.conflicts = append(plan.conflicts, mergeConflict{
			Existing: amb.Kept,
			Incoming: amb.Duplicate,
			Reason:   fmt.Sprintf("%s内 slot key 重复，条目歧义", side),
		})
	}

	return plan
}

type appliedCounts struct {
	added   int
	removed int
	updated int
}

// applyPolicy 按三开关策略生成最终班次集合。
// 冲突条目不参与任何类别的应用；改派条目同样留待人工处理。
func applyPolicy(existing []model.Shift, plan *mergePlan, policy dto.MergePolicy, actorID string) ([]model.Shift, appliedCounts) {
	var counts appliedCounts

	removedKeys := make(map[string]bool)
	if policy.RemoveOldShifts {
		for i := range plan.diff.Removed {
			removedKeys[SlotKey(&plan.diff.Removed[i])] = true
		}
	}

	modifiedByKey := make(map[string]ModifiedPair)
	if policy.UpdateExistingShifts {
		for _, pair := range plan.diff.Modified {
			modifiedByKey[SlotKey(&pair.Before)] = pair
		}
	}

	final := make([]model.Shift, 0, len(existing))
	for _, shift := range existing {
		key := SlotKey(&shift)
		if removedKeys[key] {
			counts.removed++
			continue
		}
		if pair, ok := modifiedByKey[key]; ok {
			shift.EndTime = pair.After.EndTime
			shift.Position = pair.After.Position
			shift.Notes = pair.After.Notes
			shift.ManuallyEdited = false // 与最新提取一致，人工编辑痕迹清除
			shift.UpdatedBy = &actorID
			counts.updated++
		}
		final = append(final, shift)
	}

	if policy.AddNewShifts {
		for _, shift := range plan.diff.Added {
			shift.CreatedBy = &actorID
			shift.UpdatedBy = &actorID
			final = append(final, shift)
			counts.added++
		}
	}

	return final, counts
}

func planToResponse(plan *mergePlan) *dto.MergePreviewResponse {
	resp := &dto.MergePreviewResponse{
		ToAdd:      toShiftResponses(plan.diff.Added),
		ToRemove:   toShiftResponses(plan.diff.Removed),
		ToUpdate:   make([]dto.ShiftUpdatePreview, 0, len(plan.diff.Modified)),
		Reassigned: make([]dto.ShiftReassignPreview, 0, len(plan.diff.Reassigned)),
		Unchanged:  toShiftResponses(plan.diff.Unchanged),
		Conflicts:  make([]dto.MergeConflictPreview, 0, len(plan.conflicts)),
	}

	for _, pair := range plan.diff.Modified {
		resp.ToUpdate = append(resp.ToUpdate, dto.ShiftUpdatePreview{
			Existing: toShiftResponse(&pair.Before),
			Incoming: toShiftResponse(&pair.After),
			Changes:  pair.Changes,
		})
	}
	for _, pair := range plan.diff.Reassigned {
		resp.Reassigned = append(resp.Reassigned, dto.ShiftReassignPreview{
			Existing:         toShiftResponse(&pair.Before),
			Incoming:         toShiftResponse(&pair.After),
			PreviousAssignee: pair.PreviousAssignee,
			NewAssignee:      pair.NewAssignee,
		})
	}
	for _, c := range plan.conflicts {
		resp.Conflicts = append(resp.Conflicts, dto.MergeConflictPreview{
			Existing: toShiftResponse(&c.Existing),
			Incoming: toShiftResponse(&c.Incoming),
			Reason:   c.Reason,
		})
	}

	// 汇总计数为派生值，不落库
	resp.Summary = dto.MergeSummary{
		AddCount:       len(resp.ToAdd),
		RemoveCount:    len(resp.ToRemove),
		UpdateCount:    len(resp.ToUpdate),
		UnchangedCount: len(resp.Unchanged),
		ConflictCount:  len(resp.Conflicts),
	}
	return resp
}
