package service

import (
	"testing"
)

func TestAssigneeKey_UserIDWins(t *testing.T) {
	s := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	s.OriginalName = strp("Alice")

	if got := AssigneeKey(&s); got != "user-1" {
		t.Fatalf("期望 user-1，实际 %q", got)
	}
}

func TestAssigneeKey_NameNormalized(t *testing.T) {
	s := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	s.OriginalName = strp("  Alice Smith ")

	if got := AssigneeKey(&s); got != "alice smith" {
		t.Fatalf("期望姓名小写去空格，实际 %q", got)
	}
}

func TestAssigneeKey_Unassigned(t *testing.T) {
	s := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")

	if got := AssigneeKey(&s); got != "unassigned" {
		t.Fatalf("期望 unassigned，实际 %q", got)
	}
}

func TestSlotKey_StableAcrossSnapshots(t *testing.T) {
	// 两次采集的同一班次：姓名大小写不同、日期带时间后缀
	a := mkShift("s1", "r1", "", "2026-03-02", "09:00", "17:00")
	a.OriginalName = strp("BOB")
	b := mkShift("s2", "r2", "", "2026-03-02T00:00:00Z", "09:00", "18:00")
	b.OriginalName = strp("bob")

	if SlotKey(&a) != SlotKey(&b) {
		t.Fatalf("slot key 不稳定: %q vs %q", SlotKey(&a), SlotKey(&b))
	}
}

func TestSlotKey_EndTimeNotPartOfKey(t *testing.T) {
	a := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	b := mkShift("s2", "r1", "user-1", "2026-03-02", "09:00", "18:00")

	if SlotKey(&a) != SlotKey(&b) {
		t.Fatal("结束时间不应参与 slot key")
	}
}

func TestPhysicalSlotKey_IgnoresAssignee(t *testing.T) {
	a := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	a.Position = strp("Bar")
	b := mkShift("s2", "r1", "user-2", "2026-03-02", "09:00", "17:00")
	b.Position = strp("bar")

	if PhysicalSlotKey(&a) != PhysicalSlotKey(&b) {
		t.Fatal("物理槽位键不应包含受派人，岗位应大小写归一")
	}
}

func TestPhysicalSlotKey_PositionDistinguishes(t *testing.T) {
	a := mkShift("s1", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	a.Position = strp("Bar")
	b := mkShift("s2", "r1", "user-1", "2026-03-02", "09:00", "17:00")
	b.Position = strp("Floor")

	if PhysicalSlotKey(&a) == PhysicalSlotKey(&b) {
		t.Fatal("不同岗位应产生不同物理槽位键")
	}
}

func TestNormalizeDate_Unparseable(t *testing.T) {
	s := mkShift("s1", "r1", "user-1", "not-a-date", "09:00", "17:00")
	key := SlotKey(&s)
	if key != "user-1|not-a-date|09:00" {
		t.Fatalf("无法解析的日期应原样保留，实际 %q", key)
	}
}
