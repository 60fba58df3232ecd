package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"staff-roster/internal/dto"
	"staff-roster/internal/model"
)

// ── 测试辅助 ──

func setupMergeTest() (MergeService, *testRepos) {
	repos := newTestRepos()
	repoAgg := repos.toRepository()
	logger := zap.NewNop()
	conflictSvc := NewConflictService(repoAgg, logger)
	svc := NewMergeService(repoAgg, conflictSvc, logger)
	return svc, repos
}

func seedDraftRoster(repos *testRepos, rosterID string, shifts ...model.Shift) {
	repos.roster.rosters[rosterID] = &model.Roster{
		RosterID:      rosterID,
		VenueID:       "venue-1",
		VersionNumber: 1,
		Revision:      1,
		Status:        model.StatusDraft,
		StartDate:     "2026-03-02",
		EndDate:       "2026-03-08",
		VersionedModel: model.VersionedModel{
			Version: 1,
		},
	}
	for i := range shifts {
		shifts[i].RosterID = rosterID
		clone := shifts[i]
		repos.shift.shifts[clone.ShiftID] = &clone
	}
}

func candidate(name, date, start, end string) dto.CandidateShift {
	return dto.CandidateShift{
		AssigneeName: name,
		Date:         date,
		StartTime:    start,
		EndTime:      end,
	}
}

func fullPolicy() dto.MergePolicy {
	return dto.MergePolicy{AddNewShifts: true, RemoveOldShifts: true, UpdateExistingShifts: true}
}

// ── Preview ──

func TestMergePreview_SelfMergeAllUnchanged(t *testing.T) {
	svc, repos := setupMergeTest()
	s := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	s.OriginalName = strp("Alice")
	seedDraftRoster(repos, "r1", s)

	preview, err := svc.Preview(context.Background(), "r1", &dto.PreviewMergeRequest{
		Shifts: []dto.CandidateShift{candidate("Alice", "2026-03-02", "09:00", "17:00")},
	})
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}

	if preview.Summary.UnchangedCount != 1 {
		t.Fatalf("自合并应全部未变: %+v", preview.Summary)
	}
	if preview.Summary.AddCount+preview.Summary.RemoveCount+preview.Summary.UpdateCount+preview.Summary.ConflictCount != 0 {
		t.Fatalf("自合并不应有变更: %+v", preview.Summary)
	}
}

func TestMergePreview_Classification(t *testing.T) {
	svc, repos := setupMergeTest()
	keep := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	keep.OriginalName = strp("Alice")
	gone := mkShift("s2", "r1", "", "2026-03-03", "09:00", "17:00")
	gone.OriginalName = strp("Bob")
	seedDraftRoster(repos, "r1", keep, gone)

	preview, err := svc.Preview(context.Background(), "r1", &dto.PreviewMergeRequest{
		Shifts: []dto.CandidateShift{
			candidate("Alice", "2026-03-02", "09:00", "18:00"), // 结束时间变了
			candidate("Carol", "2026-03-04", "10:00", "16:00"), // 新增
		},
	})
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}

	if preview.Summary.UpdateCount != 1 || preview.Summary.AddCount != 1 || preview.Summary.RemoveCount != 1 {
		t.Fatalf("分类计数不符: %+v", preview.Summary)
	}
	if preview.ToUpdate[0].Changes[0] != "End time: 17:00 → 18:00" {
		t.Fatalf("字段变更说明不符: %v", preview.ToUpdate[0].Changes)
	}
}

func TestMergePreview_ManualEditReassignIsConflict(t *testing.T) {
	svc, repos := setupMergeTest()
	edited := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	edited.ManuallyEdited = true
	seedDraftRoster(repos, "r1", edited)

	// 同一物理槽位换成另一个已匹配员工
	cand := candidate("Bob", "2026-03-02", "09:00", "17:00")
	cand.MatchedUserID = strp("user-2")

	preview, err := svc.Preview(context.Background(), "r1", &dto.PreviewMergeRequest{
		Shifts: []dto.CandidateShift{cand},
	})
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}

	if preview.Summary.ConflictCount != 1 {
		t.Fatalf("人工编辑过的改派应判冲突: %+v", preview.Summary)
	}
	if len(preview.Reassigned) != 0 {
		t.Fatal("冲突条目不应同时出现在改派列表")
	}
}

func TestMergePreview_UneditedReassignStaysReassign(t *testing.T) {
	svc, repos := setupMergeTest()
	seedDraftRoster(repos, "r1", mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00"))

	cand := candidate("Bob", "2026-03-02", "09:00", "17:00")
	cand.MatchedUserID = strp("user-2")

	preview, err := svc.Preview(context.Background(), "r1", &dto.PreviewMergeRequest{
		Shifts: []dto.CandidateShift{cand},
	})
	if err != nil {
		t.Fatalf("预览失败: %v", err)
	}

	if len(preview.Reassigned) != 1 || preview.Summary.ConflictCount != 0 {
		t.Fatalf("未经人工编辑的改派不应判冲突: %+v", preview)
	}
}

func TestMergePreview_RosterNotFound(t *testing.T) {
	svc, _ := setupMergeTest()

	_, err := svc.Preview(context.Background(), "missing", &dto.PreviewMergeRequest{})
	if !errors.Is(err, ErrMergeRosterNotFound) {
		t.Fatalf("期望 ErrMergeRosterNotFound，实际 %v", err)
	}
}

// ── Apply ──

func TestMergeApply_FullPolicy(t *testing.T) {
	svc, repos := setupMergeTest()
	keep := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	keep.OriginalName = strp("Alice")
	gone := mkShift("s2", "r1", "", "2026-03-03", "09:00", "17:00")
	gone.OriginalName = strp("Bob")
	seedDraftRoster(repos, "r1", keep, gone)

	result, err := svc.Apply(context.Background(), "r1", &dto.ApplyMergeRequest{
		Shifts: []dto.CandidateShift{
			candidate("Alice", "2026-03-02", "09:00", "18:00"),
			candidate("Carol", "2026-03-04", "10:00", "16:00"),
		},
		Policy: fullPolicy(),
	}, "actor-1")
	if err != nil {
		t.Fatalf("应用失败: %v", err)
	}

	if result.Revision != 2 {
		t.Fatalf("revision 应递增到 2，实际 %d", result.Revision)
	}
	if result.ShiftCount != 2 {
		t.Fatalf("最终应为 2 条班次（Alice 改时 + Carol 新增），实际 %d", result.ShiftCount)
	}

	// 历史：merge_started + merge_complete
	actions := repos.history.actionsFor("r1")
	if len(actions) != 2 || actions[0] != model.ActionMergeStarted || actions[1] != model.ActionMergeComplete {
		t.Fatalf("历史动作不符: %v", actions)
	}

	// 修订快照落盘
	if _, err := repos.snapshot.GetByRevision(context.Background(), "r1", 2); err != nil {
		t.Fatalf("应写入 revision=2 快照: %v", err)
	}
}

func TestMergeApply_AddOnlyPolicy(t *testing.T) {
	svc, repos := setupMergeTest()
	gone := mkShift("s1", "r1", "", "2026-03-03", "09:00", "17:00")
	gone.OriginalName = strp("Bob")
	seedDraftRoster(repos, "r1", gone)

	result, err := svc.Apply(context.Background(), "r1", &dto.ApplyMergeRequest{
		Shifts: []dto.CandidateShift{candidate("Carol", "2026-03-04", "10:00", "16:00")},
		Policy: dto.MergePolicy{AddNewShifts: true},
	}, "actor-1")
	if err != nil {
		t.Fatalf("应用失败: %v", err)
	}

	// remove 开关关闭：Bob 保留；Carol 新增
	if result.ShiftCount != 2 {
		t.Fatalf("仅加新班次时应为 2 条，实际 %d", result.ShiftCount)
	}
}

func TestMergeApply_UpdateClearsManualEditFlag(t *testing.T) {
	svc, repos := setupMergeTest()
	edited := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	edited.OriginalName = strp("Alice")
	edited.ManuallyEdited = true
	seedDraftRoster(repos, "r1", edited)

	result, err := svc.Apply(context.Background(), "r1", &dto.ApplyMergeRequest{
		Shifts: []dto.CandidateShift{candidate("Alice", "2026-03-02", "09:00", "18:00")},
		Policy: fullPolicy(),
	}, "actor-1")
	if err != nil {
		t.Fatalf("应用失败: %v", err)
	}

	if result.Shifts[0].ManuallyEdited {
		t.Fatal("按最新提取更新后应清除人工编辑标记")
	}
	if result.Shifts[0].EndTime != "18:00" {
		t.Fatalf("结束时间应更新: %+v", result.Shifts[0])
	}
}

func TestMergeApply_ConflictNeverAutoApplied(t *testing.T) {
	svc, repos := setupMergeTest()
	edited := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	edited.ManuallyEdited = true
	seedDraftRoster(repos, "r1", edited)

	cand := candidate("Bob", "2026-03-02", "09:00", "17:00")
	cand.MatchedUserID = strp("user-2")

	result, err := svc.Apply(context.Background(), "r1", &dto.ApplyMergeRequest{
		Shifts: []dto.CandidateShift{cand},
		Policy: fullPolicy(),
	}, "actor-1")
	if err != nil {
		t.Fatalf("应用失败: %v", err)
	}

	// 冲突条目保持原样：既不删旧也不加新
	if result.ShiftCount != 1 {
		t.Fatalf("冲突条目不应被自动应用，实际 %d 条", result.ShiftCount)
	}
	if result.Shifts[0].UserID == nil || *result.Shifts[0].UserID != "user-1" {
		t.Fatalf("现有班次应保持 user-1: %+v", result.Shifts[0])
	}
}

func TestMergeApply_ArchivedRejected(t *testing.T) {
	svc, repos := setupMergeTest()
	seedDraftRoster(repos, "r1")
	repos.roster.rosters["r1"].Status = model.StatusArchived

	_, err := svc.Apply(context.Background(), "r1", &dto.ApplyMergeRequest{Policy: fullPolicy()}, "actor-1")
	if !errors.Is(err, ErrMergeRosterArchived) {
		t.Fatalf("期望 ErrMergeRosterArchived，实际 %v", err)
	}
}

func TestMergeApply_RecomputesConflicts(t *testing.T) {
	svc, repos := setupMergeTest()
	seedDraftRoster(repos, "r1")
	repos.timeOff.timeOffs = append(repos.timeOff.timeOffs, model.TimeOff{
		UserID: "user-1", StartDate: "2026-03-02", EndDate: "2026-03-02", Status: model.TimeOffApproved,
	})

	cand := candidate("Alice", "2026-03-02", "09:00", "17:00")
	cand.MatchedUserID = strp("user-1")

	result, err := svc.Apply(context.Background(), "r1", &dto.ApplyMergeRequest{
		Shifts: []dto.CandidateShift{cand},
		Policy: fullPolicy(),
	}, "actor-1")
	if err != nil {
		t.Fatalf("应用失败: %v", err)
	}

	if result.ConflictCount != 1 || !result.Shifts[0].HasConflict {
		t.Fatalf("合并后应重算出休假冲突: %+v", result.Shifts[0])
	}
}
