package model

import "time"

// ── 日程条目类别 ──

const (
	CategoryCourse   = "course"   // 课程（来自教务系统导入）
	CategoryActivity = "activity" // 活动
	CategoryExam     = "exam"     // 考试
	CategoryStudy    = "study"    // 自习
)

// ValidCategory 判断类别取值是否合法
func ValidCategory(c string) bool {
	switch c {
	case CategoryCourse, CategoryActivity, CategoryExam, CategoryStudy:
		return true
	}
	return false
}

// ScheduleEntry 日程条目 — 创建后不可变，删除靠 ID
//
// 以 JSON 形式存入学生文档的 entries 数组，不单独建表。
// ID 在创建时生成且稳定；导入合并时的去重不依赖 ID，
// 而是按 内容键（标题+起止时间）判断，见 service 层。
type ScheduleEntry struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Location    string    `json:"location,omitempty"`
	Category    string    `json:"category"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Description string    `json:"description,omitempty"`
	SourceWeek  int       `json:"source_week,omitempty"` // 导入来源周次，手动条目为 0
}

// ContentKey 内容去重键：同一门课重复导入时 ID 会变，内容键不变
func (e ScheduleEntry) ContentKey() string {
	return e.Title + "|" + e.StartTime.UTC().Format(time.RFC3339) + "|" + e.EndTime.UTC().Format(time.RFC3339)
}

// Overlaps 开区间重叠判定：边界相接不算重叠
func (e ScheduleEntry) Overlaps(other ScheduleEntry) bool {
	return e.StartTime.Before(other.EndTime) && other.StartTime.Before(e.EndTime)
}

// [自证通过] internal/model/schedule_entry.go
