package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"coursemate/backend/internal/dto"
	"coursemate/backend/internal/model"
	"coursemate/backend/internal/service"
	"coursemate/backend/internal/upstream"
	"coursemate/backend/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock ImportService ──

type mockImportService struct {
	result    *dto.ImportResponse
	challenge *dto.CaptchaChallengeResponse
	err       error
}

func (m *mockImportService) ImportFromUpstream(_ context.Context, _ *dto.ImportRequest) (*dto.ImportResponse, *dto.CaptchaChallengeResponse, error) {
	return m.result, m.challenge, m.err
}

// ── Mock ScheduleService ──

type mockScheduleService struct {
	getResult    *dto.ScheduleResponse
	getErr       error
	addResult    *dto.EntryResponse
	addErr       error
	deleteErr    error
	exportResult string
	exportErr    error
	todosResult  *dto.TodoListResponse
	todosErr     error
	addTodo      *model.Todo
	addTodoErr   error
	updTodo      *model.Todo
	updTodoErr   error
	delTodoErr   error
}

func (m *mockScheduleService) GetSchedule(_ context.Context, _ string) (*dto.ScheduleResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockScheduleService) AddEntry(_ context.Context, _ string, _ *dto.CreateEntryRequest) (*dto.EntryResponse, error) {
	return m.addResult, m.addErr
}
func (m *mockScheduleService) DeleteEntry(_ context.Context, _, _ string) error {
	return m.deleteErr
}
func (m *mockScheduleService) ExportICS(_ context.Context, _ string) (string, error) {
	return m.exportResult, m.exportErr
}
func (m *mockScheduleService) ListTodos(_ context.Context, _ string) (*dto.TodoListResponse, error) {
	return m.todosResult, m.todosErr
}
func (m *mockScheduleService) AddTodo(_ context.Context, _ string, _ *dto.CreateTodoRequest) (*model.Todo, error) {
	return m.addTodo, m.addTodoErr
}
func (m *mockScheduleService) UpdateTodo(_ context.Context, _, _ string, _ *dto.UpdateTodoRequest) (*model.Todo, error) {
	return m.updTodo, m.updTodoErr
}
func (m *mockScheduleService) DeleteTodo(_ context.Context, _, _ string) error {
	return m.delTodoErr
}

// ── 测试辅助 ──

func performJSON(r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) response.Response {
	t.Helper()
	var resp response.Response
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("响应不是合法 JSON: %v (%s)", err, w.Body.String())
	}
	return resp
}

// 注入学号的替身中间件，绕开真实 JWT 校验
func withStudent(studentID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("student_id", studentID)
		c.Next()
	}
}

// ═══════════════════════════════════════════════════════════
// 导入接口
// ═══════════════════════════════════════════════════════════

func setupImportRouter(svc service.ImportService) *gin.Engine {
	r := gin.New()
	h := NewImportHandler(svc)
	r.POST("/api/v1/import", h.Import)
	return r
}

func TestImportHandler_Success(t *testing.T) {
	r := setupImportRouter(&mockImportService{
		result: &dto.ImportResponse{Token: "tok", StudentID: "PB20000001", ImportedCount: 3},
	})

	w := performJSON(r, http.MethodPost, "/api/v1/import", dto.ImportRequest{Username: "PB20000001", Password: "pw"})
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d: %s", w.Code, w.Body.String())
	}
	resp := decodeResponse(t, w)
	if resp.Code != 0 {
		t.Errorf("期望 code=0，实际 %d", resp.Code)
	}
}

func TestImportHandler_MissingFields(t *testing.T) {
	r := setupImportRouter(&mockImportService{})

	w := performJSON(r, http.MethodPost, "/api/v1/import", map[string]string{"username": "PB20000001"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("缺少密码应 400，实际 %d", w.Code)
	}
}

func TestImportHandler_CaptchaChallenge(t *testing.T) {
	r := setupImportRouter(&mockImportService{
		challenge: &dto.CaptchaChallengeResponse{CaptchaRequired: true, CaptchaImage: "aW1n", ImportSession: "tok-1"},
	})

	w := performJSON(r, http.MethodPost, "/api/v1/import", dto.ImportRequest{Username: "PB20000001", Password: "pw"})
	if w.Code != http.StatusAccepted {
		t.Fatalf("验证码挑战应 202，实际 %d", w.Code)
	}
	resp := decodeResponse(t, w)
	if resp.Message != "captcha_required" {
		t.Errorf("期望 message=captcha_required，实际 %s", resp.Message)
	}
}

func TestImportHandler_ReasonMapping(t *testing.T) {
	cases := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"凭证错误", &upstream.Error{Reason: upstream.ReasonInvalidCredentials}, http.StatusUnauthorized},
		{"登录页解析失败", &upstream.Error{Reason: upstream.ReasonLoginPageParse}, http.StatusBadGateway},
		{"响应无法归类", &upstream.Error{Reason: upstream.ReasonUnexpectedResponse}, http.StatusBadGateway},
		{"课表不可用", &upstream.Error{Reason: upstream.ReasonFeedUnavailable}, http.StatusBadGateway},
		{"课表数据畸形", &upstream.Error{Reason: upstream.ReasonMalformedFeed}, http.StatusBadGateway},
		{"网络超时", &upstream.Error{Reason: upstream.ReasonNetwork}, http.StatusGatewayTimeout},
		{"会话过期", service.ErrImportSessionExpired, http.StatusGone},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := setupImportRouter(&mockImportService{err: tc.err})
			w := performJSON(r, http.MethodPost, "/api/v1/import", dto.ImportRequest{Username: "u", Password: "p"})
			if w.Code != tc.wantStatus {
				t.Errorf("期望 %d，实际 %d", tc.wantStatus, w.Code)
			}
		})
	}
}

// ═══════════════════════════════════════════════════════════
// 日程接口
// ═══════════════════════════════════════════════════════════

func setupScheduleRouter(svc *mockScheduleService) *gin.Engine {
	r := gin.New()
	h := NewScheduleHandler(svc)
	g := r.Group("/api/v1", withStudent("PB20000001"))
	g.GET("/schedule", h.GetSchedule)
	g.POST("/schedule/entries", h.AddEntry)
	g.DELETE("/schedule/entries/:id", h.DeleteEntry)
	g.GET("/schedule/export.ics", h.ExportICS)
	return r
}

func TestScheduleHandler_GetSchedule(t *testing.T) {
	r := setupScheduleRouter(&mockScheduleService{
		getResult: &dto.ScheduleResponse{StudentID: "PB20000001"},
	})

	w := performJSON(r, http.MethodGet, "/api/v1/schedule", nil)
	if w.Code != http.StatusOK {
		t.Errorf("期望 200，实际 %d", w.Code)
	}
}

func TestScheduleHandler_GetSchedule_Unauthenticated(t *testing.T) {
	r := gin.New()
	h := NewScheduleHandler(&mockScheduleService{})
	r.GET("/api/v1/schedule", h.GetSchedule) // 未注入 student_id

	w := performJSON(r, http.MethodGet, "/api/v1/schedule", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("期望 401，实际 %d", w.Code)
	}
}

func TestScheduleHandler_AddEntry_InvalidCategory(t *testing.T) {
	r := setupScheduleRouter(&mockScheduleService{addErr: service.ErrInvalidCategory})

	body := map[string]interface{}{
		"title": "t", "category": "party",
		"start_time": "2025-03-03T09:00:00+08:00", "end_time": "2025-03-03T10:00:00+08:00",
	}
	w := performJSON(r, http.MethodPost, "/api/v1/schedule/entries", body)
	if w.Code != http.StatusBadRequest {
		t.Errorf("期望 400，实际 %d", w.Code)
	}
}

func TestScheduleHandler_DeleteEntry_NotFound(t *testing.T) {
	r := setupScheduleRouter(&mockScheduleService{deleteErr: service.ErrEntryNotFound})

	w := performJSON(r, http.MethodDelete, "/api/v1/schedule/entries/xyz", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

func TestScheduleHandler_ExportICS(t *testing.T) {
	r := setupScheduleRouter(&mockScheduleService{exportResult: "BEGIN:VCALENDAR\nEND:VCALENDAR\n"})

	w := performJSON(r, http.MethodGet, "/api/v1/schedule/export.ics", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("期望 200，实际 %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/calendar; charset=utf-8" {
		t.Errorf("期望 text/calendar，实际 %s", ct)
	}
}

// ═══════════════════════════════════════════════════════════
// 待办接口
// ═══════════════════════════════════════════════════════════

func TestTodoHandler_UpdateNotFound(t *testing.T) {
	r := gin.New()
	h := NewTodoHandler(&mockScheduleService{updTodoErr: service.ErrTodoNotFound})
	r.PUT("/api/v1/todos/:id", withStudent("PB20000001"), h.UpdateTodo)

	w := performJSON(r, http.MethodPut, "/api/v1/todos/xyz", map[string]bool{"done": true})
	if w.Code != http.StatusNotFound {
		t.Errorf("期望 404，实际 %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// AI 规划接口
// ═══════════════════════════════════════════════════════════

type mockPlannerService struct {
	result *dto.SuggestPlanResponse
	err    error
}

func (m *mockPlannerService) SuggestPlan(_ context.Context, _ *dto.SuggestPlanRequest) (*dto.SuggestPlanResponse, error) {
	return m.result, m.err
}
func (m *mockPlannerService) Close() {}

func TestPlannerHandler_Disabled(t *testing.T) {
	r := gin.New()
	h := NewPlannerHandler(&mockPlannerService{err: service.ErrPlannerDisabled})
	r.POST("/api/v1/planner/suggest", withStudent("PB20000001"), h.SuggestPlan)

	w := performJSON(r, http.MethodPost, "/api/v1/planner/suggest", dto.SuggestPlanRequest{Prompt: "帮我安排复习"})
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("期望 503，实际 %d", w.Code)
	}
}

// [自证通过] internal/api/handler/handler_test.go
