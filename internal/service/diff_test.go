package service

import (
	"reflect"
	"testing"

	"staff-roster/internal/model"
)

func TestDiffShifts_AddedAndUnchanged(t *testing.T) {
	// Alice 保持不变，Bob 是新增
	before := []model.Shift{
		mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00"),
	}
	after := []model.Shift{
		mkShift("n1", "", "alice", "2026-03-02", "09:00", "17:00"),
		mkShift("n2", "", "bob", "2026-03-02", "12:00", "20:00"),
	}

	diff := DiffShifts(before, after)

	if len(diff.Added) != 1 || AssigneeKey(&diff.Added[0]) != "bob" {
		t.Fatalf("期望新增 bob，实际 %+v", diff.Added)
	}
	if len(diff.Unchanged) != 1 || AssigneeKey(&diff.Unchanged[0]) != "alice" {
		t.Fatalf("期望 alice 未变，实际 %+v", diff.Unchanged)
	}
	if len(diff.Removed)+len(diff.Modified)+len(diff.Reassigned) != 0 {
		t.Fatalf("不应有其他类别: %+v", diff)
	}
}

func TestDiffShifts_ModifiedFieldChanges(t *testing.T) {
	b := mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00")
	b.Position = strp("Bar")
	b.Notes = "bring keys"
	a := mkShift("n1", "", "alice", "2026-03-02", "09:00", "18:00")
	a.Position = strp("Floor")
	a.Notes = "bring keys"

	diff := DiffShifts([]model.Shift{b}, []model.Shift{a})

	if len(diff.Modified) != 1 {
		t.Fatalf("期望 1 条修改，实际 %d", len(diff.Modified))
	}
	want := []string{
		"End time: 17:00 → 18:00",
		"Position: Bar → Floor",
	}
	if !reflect.DeepEqual(diff.Modified[0].Changes, want) {
		t.Fatalf("变更说明顺序/内容不符:\n得到 %v\n期望 %v", diff.Modified[0].Changes, want)
	}
}

func TestDiffShifts_NotesChange(t *testing.T) {
	b := mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00")
	a := mkShift("n1", "", "alice", "2026-03-02", "09:00", "17:00")
	a.Notes = "cover for Bob"

	diff := DiffShifts([]model.Shift{b}, []model.Shift{a})

	if len(diff.Modified) != 1 {
		t.Fatalf("期望 1 条修改，实际 %+v", diff)
	}
	if got := diff.Modified[0].Changes[0]; got != "Notes:  → cover for Bob" {
		t.Fatalf("备注变更说明不符: %q", got)
	}
}

func TestDiffShifts_Reassigned(t *testing.T) {
	// 同一物理槽位换人：应归为改派而非删+增
	b := mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00")
	b.Position = strp("Bar")
	a := mkShift("n1", "", "bob", "2026-03-02", "09:00", "17:00")
	a.Position = strp("Bar")

	diff := DiffShifts([]model.Shift{b}, []model.Shift{a})

	if len(diff.Reassigned) != 1 {
		t.Fatalf("期望 1 条改派，实际 %+v", diff)
	}
	pair := diff.Reassigned[0]
	if pair.PreviousAssignee != "alice" || pair.NewAssignee != "bob" {
		t.Fatalf("改派双方不符: %s → %s", pair.PreviousAssignee, pair.NewAssignee)
	}
	if len(diff.Added)+len(diff.Removed) != 0 {
		t.Fatal("改派条目不应同时出现在新增/删除中")
	}
}

func TestDiffShifts_DifferentPositionIsNotReassignment(t *testing.T) {
	b := mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00")
	b.Position = strp("Bar")
	a := mkShift("n1", "", "bob", "2026-03-02", "09:00", "17:00")
	a.Position = strp("Floor")

	diff := DiffShifts([]model.Shift{b}, []model.Shift{a})

	if len(diff.Reassigned) != 0 {
		t.Fatal("岗位不同不应判定为改派")
	}
	if len(diff.Removed) != 1 || len(diff.Added) != 1 {
		t.Fatalf("期望删 1 增 1，实际 %+v", diff)
	}
}

func TestDiffShifts_Removed(t *testing.T) {
	b := mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00")

	diff := DiffShifts([]model.Shift{b}, nil)

	if len(diff.Removed) != 1 || AssigneeKey(&diff.Removed[0]) != "alice" {
		t.Fatalf("期望删除 alice，实际 %+v", diff)
	}
}

func TestDiffShifts_EmptyBothSides(t *testing.T) {
	diff := DiffShifts(nil, nil)
	if len(diff.Added)+len(diff.Removed)+len(diff.Modified)+len(diff.Reassigned)+len(diff.Unchanged) != 0 {
		t.Fatalf("空集合差异应为空: %+v", diff)
	}
}

func TestDiffShifts_SelfDiffIsUnchanged(t *testing.T) {
	shifts := []model.Shift{
		mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00"),
		mkShift("s2", "r1", "bob", "2026-03-03", "12:00", "20:00"),
		mkShift("s3", "r1", "", "2026-03-04", "08:00", "12:00"),
	}

	diff := DiffShifts(shifts, shifts)

	if len(diff.Unchanged) != 3 {
		t.Fatalf("自差异应全部未变，实际 %+v", diff)
	}
	if len(diff.Added)+len(diff.Removed)+len(diff.Modified)+len(diff.Reassigned) != 0 {
		t.Fatal("自差异不应有任何变更类别")
	}
}

func TestDiffShifts_DeterministicOrder(t *testing.T) {
	// 乱序输入，两次计算输出必须逐条一致且有序
	before := []model.Shift{
		mkShift("s3", "r1", "carol", "2026-03-04", "09:00", "17:00"),
		mkShift("s1", "r1", "alice", "2026-03-02", "09:00", "17:00"),
		mkShift("s2", "r1", "bob", "2026-03-02", "12:00", "20:00"),
	}
	after := []model.Shift{
		mkShift("n2", "", "dave", "2026-03-05", "10:00", "18:00"),
		mkShift("n1", "", "erin", "2026-03-01", "10:00", "18:00"),
	}

	first := DiffShifts(before, after)
	second := DiffShifts(before, after)

	if !reflect.DeepEqual(first, second) {
		t.Fatal("同一输入两次差异结果不一致")
	}
	if len(first.Added) != 2 || first.Added[0].Date != "2026-03-01" {
		t.Fatalf("新增列表应按日期升序: %+v", first.Added)
	}
	if len(first.Removed) != 3 || first.Removed[0].Date != "2026-03-02" {
		t.Fatalf("删除列表应按日期升序: %+v", first.Removed)
	}
}

func TestDiffShifts_DuplicateSlotKeyFlaggedAmbiguous(t *testing.T) {
	after := []model.Shift{
		mkShift("n1", "", "alice", "2026-03-02", "09:00", "17:00"),
		mkShift("n2", "", "alice", "2026-03-02", "09:00", "18:00"), // 同 slot key
	}

	diff := DiffShifts(nil, after)

	if len(diff.Ambiguous) != 1 {
		t.Fatalf("期望 1 条歧义，实际 %+v", diff.Ambiguous)
	}
	if diff.Ambiguous[0].InBefore {
		t.Fatal("重复出现在 after 集合，InBefore 应为 false")
	}
	// 先到者保留并正常参与差异
	if len(diff.Added) != 1 {
		t.Fatalf("保留条目应计入新增: %+v", diff.Added)
	}
}
