package service

import (
	"fmt"
	"sort"

	"staff-roster/internal/model"
)

// ── 班次差异引擎（Diff Engine）──
//
// 将两个班次集合按 slot key 关联后分类为：
// 新增 / 删除 / 修改 / 改派 / 未变。
// 输出各列表按 (日期, 开始时间) 升序、受派人键字典序破平，
// 保证结果可复现。

// ModifiedPair 修改类条目：同一 slot key 下字段发生变化
type ModifiedPair struct {
	Before  model.Shift
	After   model.Shift
	Changes []string // "字段: 旧值 → 新值"，固定顺序：End time、Position、Notes
}

// ReassignedPair 改派类条目：物理槽位相同、受派人不同
type ReassignedPair struct {
	Before           model.Shift
	After            model.Shift
	PreviousAssignee string
	NewAssignee      string
}

// AmbiguousPair 歧义条目：同一集合内 slot key 重复
type AmbiguousPair struct {
	Kept      model.Shift
	Duplicate model.Shift
	InBefore  bool // true=重复出现在 before 集合，false=after 集合
}

// ShiftDiff 差异分类结果
type ShiftDiff struct {
	Added      []model.Shift
	Removed    []model.Shift
	Modified   []ModifiedPair
	Reassigned []ReassignedPair
	Unchanged  []model.Shift
	Ambiguous  []AmbiguousPair
}

// DiffShifts 计算 before → after 的结构化差异。
//
// 算法：双方各建 slotKey→shift 映射；
//   - before 独有的键先尝试按 physicalSlotKey 在 after 的新增候选中
//     找同槽位换人条目 → 改派；找不到 → 删除；
//   - 双方共有的键比较 endTime/position/notes → 修改或未变
//     （startTime 与 date 是键的一部分，必然相等）；
//   - after 剩余未被消费的键 → 新增。
func DiffShifts(before, after []model.Shift) *ShiftDiff {
	diff := &ShiftDiff{}

	beforeByKey := make(map[string]model.Shift, len(before))
	for _, s := range before {
		if kept, dup := beforeByKey[SlotKey(&s)]; dup {
			diff.Ambiguous = append(diff.Ambiguous, AmbiguousPair{Kept: kept, Duplicate: s, InBefore: true})
			continue
		}
		beforeByKey[SlotKey(&s)] = s
	}

	afterByKey := make(map[string]model.Shift, len(after))
	for _, s := range after {
		if kept, dup := afterByKey[SlotKey(&s)]; dup {
			diff.Ambiguous = append(diff.Ambiguous, AmbiguousPair{Kept: kept, Duplicate: s, InBefore: false})
			continue
		}
		afterByKey[SlotKey(&s)] = s
	}

	// after 中未与 before 同键的条目是改派/新增候选，按物理槽位索引
	addCandidates := make(map[string][]string) // physicalSlotKey → slotKeys
	for key, s := range afterByKey {
		if _, ok := beforeByKey[key]; !ok {
			phys := PhysicalSlotKey(&s)
			addCandidates[phys] = append(addCandidates[phys], key)
		}
	}
	// 同一物理槽位的候选按 slot key 排序，保证匹配顺序确定
	for phys := range addCandidates {
		sort.Strings(addCandidates[phys])
	}

	consumed := make(map[string]bool) // 已被改派消费的 after slotKeys

	// before 侧按确定顺序遍历
	beforeKeys := make([]string, 0, len(beforeByKey))
	for key := range beforeByKey {
		beforeKeys = append(beforeKeys, key)
	}
	sort.Strings(beforeKeys)

	for _, key := range beforeKeys {
		b := beforeByKey[key]
		a, exists := afterByKey[key]
		if exists {
			changes := fieldChanges(&b, &a)
			if len(changes) == 0 {
				diff.Unchanged = append(diff.Unchanged, b)
			} else {
				diff.Modified = append(diff.Modified, ModifiedPair{Before: b, After: a, Changes: changes})
			}
			continue
		}

		// 改派检测：after 中同物理槽位、不同受派人的未消费候选
		phys := PhysicalSlotKey(&b)
		matched := false
		for _, candKey := range addCandidates[phys] {
			if consumed[candKey] {
				continue
			}
			cand := afterByKey[candKey]
			diff.Reassigned = append(diff.Reassigned, ReassignedPair{
				Before:           b,
				After:            cand,
				PreviousAssignee: AssigneeKey(&b),
				NewAssignee:      AssigneeKey(&cand),
			})
			consumed[candKey] = true
			matched = true
			break
		}
		if !matched {
			diff.Removed = append(diff.Removed, b)
		}
	}

	// after 剩余未匹配、未消费的键 → 新增
	for key, s := range afterByKey {
		if _, ok := beforeByKey[key]; ok {
			continue
		}
		if consumed[key] {
			continue
		}
		diff.Added = append(diff.Added, s)
	}

	sortShifts(diff.Added)
	sortShifts(diff.Removed)
	sortShifts(diff.Unchanged)
	sort.Slice(diff.Modified, func(i, j int) bool {
		return shiftLess(&diff.Modified[i].Before, &diff.Modified[j].Before)
	})
	sort.Slice(diff.Reassigned, func(i, j int) bool {
		return shiftLess(&diff.Reassigned[i].Before, &diff.Reassigned[j].Before)
	})

	return diff
}

// fieldChanges 比较两条同键班次的字段，按固定顺序生成变更说明。
// 顺序固定为 End time、Position、Notes，保证输出可复现。
func fieldChanges(before, after *model.Shift) []string {
	var changes []string
	if before.EndTime != after.EndTime {
		changes = append(changes, fmt.Sprintf("End time: %s → %s", before.EndTime, after.EndTime))
	}
	if deref(before.Position) != deref(after.Position) {
		changes = append(changes, fmt.Sprintf("Position: %s → %s", deref(before.Position), deref(after.Position)))
	}
	if before.Notes != after.Notes {
		changes = append(changes, fmt.Sprintf("Notes: %s → %s", before.Notes, after.Notes))
	}
	return changes
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func shiftLess(a, b *model.Shift) bool {
	if a.Date != b.Date {
		return a.Date < b.Date
	}
	if a.StartTime != b.StartTime {
		return a.StartTime < b.StartTime
	}
	return AssigneeKey(a) < AssigneeKey(b)
}

func sortShifts(shifts []model.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		return shiftLess(&shifts[i], &shifts[j])
	})
}
