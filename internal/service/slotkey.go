package service

import (
	"strings"
	"time"

	"staff-roster/internal/model"
)

// ── 班次身份键（Identity Keyer）──
//
// 纯函数，无副作用、无 I/O。键必须在不同时间采集的班次快照之间
// 保持稳定：姓名小写归一、日期规范化为 YYYY-MM-DD。
// 同一集合内两条班次共享 slot key 属调用方数据问题；Diff/Merge
// 引擎将其标记为歧义条目而非崩溃。

const unassignedKey = "unassigned"

// AssigneeKey 班次的受派人键：user_id 优先，其次小写化的原始姓名，
// 都没有则视为未分配
func AssigneeKey(s *model.Shift) string {
	if s.UserID != nil && *s.UserID != "" {
		return *s.UserID
	}
	if s.OriginalName != nil && *s.OriginalName != "" {
		return strings.ToLower(strings.TrimSpace(*s.OriginalName))
	}
	return unassignedKey
}

// SlotKey 班次匹配键：受派人 + 日期 + 开始时间。
// 跨两个集合关联"同一个班次"时使用。
func SlotKey(s *model.Shift) string {
	return AssigneeKey(s) + "|" + normalizeDate(s.Date) + "|" + s.StartTime
}

// PhysicalSlotKey 物理槽位键：日期 + 起止时间 + 岗位，刻意不含受派人。
// 仅用于改派检测：同一物理槽位换了人，应归类为"改派"而非"删+增"。
func PhysicalSlotKey(s *model.Shift) string {
	position := ""
	if s.Position != nil {
		position = strings.ToLower(strings.TrimSpace(*s.Position))
	}
	return normalizeDate(s.Date) + "|" + s.StartTime + "|" + s.EndTime + "|" + position
}

// normalizeDate 将日期规范化为 2006-01-02；无法解析时原样返回
func normalizeDate(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		// 兼容带时间后缀的日期（快照反序列化等场景）
		if t2, err2 := time.Parse(time.RFC3339, date); err2 == nil {
			return t2.Format("2006-01-02")
		}
		return date
	}
	return t.Format("2006-01-02")
}
