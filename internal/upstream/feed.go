package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"coursemate/backend/config"
)

// ── 课表取数 ────────────────────────────────────────────────
//
// 两条取数路径长期并存（观察到的上游既有直接内嵌数据的版本，
// 也有需要二次请求数据接口的版本，无法断定孰新孰旧）：
//   a. 结构化接口：从落地页脚本里扒出学号等标识，拼数据接口查询
//   b. 内嵌脚本兜底：落地页脚本里直接内嵌的课表数组字面量
//
// 两条都失败返回 FeedUnavailable——绝不编造数据。
// 提取过程只读网络，不改动 Session。
// ─────────────────────────────────────────────────────────────

// TeacherRef 嵌套形态的教师引用
type TeacherRef struct {
	Name   string `json:"name"`
	NameZh string `json:"nameZh"`
}

// CourseRef 嵌套形态的课程引用
type CourseRef struct {
	Name   string `json:"name"`
	NameZh string `json:"nameZh"`
}

// RawLesson 上游课程记录 — 松散类型，所有字段均可能缺失
//
// 同一字段在不同上游版本里有不同写法（平铺 / 备选平铺 / 嵌套），
// 这里照单全收，收敛留给归一化层。消费一次即弃，不落盘。
type RawLesson struct {
	CourseName string     `json:"courseName"`
	NameZh     string     `json:"nameZh"`
	Course     *CourseRef `json:"course,omitempty"`

	Classroom string     `json:"classroom"`
	Room      *CourseRef `json:"room,omitempty"`

	TeacherNames []string     `json:"teacherNames,omitempty"` // 形态一：纯字符串列表
	Teachers     []TeacherRef `json:"teachers,omitempty"`     // 形态二：对象列表

	Weeks     []int `json:"weeks"`
	Weekday   int   `json:"weekday"` // 1=周一 … 7=周日
	StartUnit int   `json:"startUnit"`
	EndUnit   int   `json:"endUnit"`
}

// Extractor 课表提取器
type Extractor struct {
	cfg    *config.UpstreamConfig
	httpc  *http.Client
	logger *zap.Logger
}

// NewExtractor 创建课表提取器
func NewExtractor(cfg *config.UpstreamConfig, logger *zap.Logger) *Extractor {
	return &Extractor{
		cfg:    cfg,
		httpc:  newHTTPClient(cfg.StepTimeout),
		logger: logger,
	}
}

// Extract 用已认证会话提取原始课程记录。
// 对外不改动传入的 Session：内部在副本上工作。
func (e *Extractor) Extract(ctx context.Context, session *Session) ([]RawLesson, error) {
	session = session.Clone()
	body, err := e.fetchLandingPage(ctx, session)
	if err != nil {
		return nil, err
	}

	// 策略 a: 结构化接口
	if ids, ok := scanIdentifiers(body); ok {
		lessons, err := e.fetchFromAPI(ctx, session, ids)
		if err == nil {
			e.logger.Info("课表取数成功（结构化接口）", zap.Int("count", len(lessons)))
			return lessons, nil
		}
		// 接口数据确实存在但解析不了 → 直接上报，不再兜底乱试
		if ReasonOf(err) == ReasonMalformedFeed {
			return nil, err
		}
		e.logger.Warn("结构化接口取数失败，尝试内嵌脚本兜底", zap.Error(err))
	}

	// 策略 b: 内嵌脚本兜底
	if lessons, ok := scanEmbeddedArray(body); ok {
		e.logger.Info("课表取数成功（内嵌脚本兜底）", zap.Int("count", len(lessons)))
		return lessons, nil
	}

	return nil, newError(ReasonFeedUnavailable, "两种取数策略均未找到课表数据", "")
}

// fetchLandingPage 拉取课表落地页，手动吃掉中间跳转
func (e *Extractor) fetchLandingPage(ctx context.Context, session *Session) (string, error) {
	current := e.cfg.TimetableURL
	for hop := 0; hop < maxRedirectHops; hop++ {
		resp, body, err := doGet(ctx, e.httpc, current, session)
		if err != nil {
			return "", err
		}
		switch resp.StatusCode {
		case http.StatusFound, http.StatusMovedPermanently, http.StatusSeeOther:
			location := resp.Header.Get("Location")
			if location == "" {
				return "", newError(ReasonUnexpectedResponse, "课表页跳转缺少 Location 头", "")
			}
			current = resolveURL(current, location)
		case http.StatusOK:
			return body, nil
		default:
			return "", newError(ReasonUnexpectedResponse,
				"课表页返回异常状态", fmt.Sprintf("status=%d", resp.StatusCode))
		}
	}
	return "", newError(ReasonUnexpectedResponse, "课表页跳转链过长", "")
}

// ── 策略 a: 标识扫描 + 结构化接口 ──

// feedIdentifiers 从落地页扒出的查询标识
type feedIdentifiers struct {
	StudentID  string
	BizTypeID  string // 可选
	SemesterID string // 可选
}

// 字段名没有契约保证，历次抓包见过的拼写全部列上，按序匹配
var (
	studentIDPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:studentId|student_id)\s*[:=]\s*['"]?(\d+)['"]?`),
		regexp.MustCompile(`(?:\bids\b|xsid)\s*[:=]\s*['"]?(\d+)['"]?`),
	}
	bizTypeIDPattern  = regexp.MustCompile(`bizTypeId\s*[:=]\s*['"]?(\d+)['"]?`)
	semesterIDPattern = regexp.MustCompile(`(?:semesterId|xnxqId|xnxq01id)\s*[:=]\s*['"]?([\w\-]+)['"]?`)
)

// scanIdentifiers 扫描落地页脚本中的查询标识；学号是必须项
func scanIdentifiers(body string) (feedIdentifiers, bool) {
	var ids feedIdentifiers
	for _, p := range studentIDPatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			ids.StudentID = m[1]
			break
		}
	}
	if ids.StudentID == "" {
		return ids, false
	}
	if m := bizTypeIDPattern.FindStringSubmatch(body); m != nil {
		ids.BizTypeID = m[1]
	}
	if m := semesterIDPattern.FindStringSubmatch(body); m != nil {
		ids.SemesterID = m[1]
	}
	return ids, true
}

// fetchFromAPI 以扒出的标识查询数据接口并解析 JSON
func (e *Extractor) fetchFromAPI(ctx context.Context, session *Session, ids feedIdentifiers) ([]RawLesson, error) {
	if e.cfg.TimetableAPIURL == "" {
		return nil, newError(ReasonFeedUnavailable, "未配置课表数据接口地址", "")
	}

	q := url.Values{}
	q.Set("studentId", ids.StudentID)
	if ids.BizTypeID != "" {
		q.Set("bizTypeId", ids.BizTypeID)
	}
	if ids.SemesterID != "" {
		q.Set("semesterId", ids.SemesterID)
	}

	apiURL := e.cfg.TimetableAPIURL
	if strings.Contains(apiURL, "?") {
		apiURL += "&" + q.Encode()
	} else {
		apiURL += "?" + q.Encode()
	}

	resp, body, err := doGet(ctx, e.httpc, apiURL, session)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, newError(ReasonFeedUnavailable,
			"课表数据接口返回异常状态", fmt.Sprintf("status=%d", resp.StatusCode))
	}

	return parseLessonJSON([]byte(body))
}

// parseLessonJSON 解析接口 JSON：数组根，或嵌在若干已知对象路径下
func parseLessonJSON(data []byte) ([]RawLesson, error) {
	// 数组根
	var direct []RawLesson
	if err := json.Unmarshal(data, &direct); err == nil {
		return direct, nil
	}

	// 对象根：逐个已知字段尝试
	var wrapper map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, newError(ReasonMalformedFeed, "课表数据不是合法 JSON", excerpt(string(data), 120))
	}
	for _, key := range []string{"lessons", "kbList", "result", "rows", "data"} {
		raw, ok := wrapper[key]
		if !ok {
			continue
		}
		var lessons []RawLesson
		if err := json.Unmarshal(raw, &lessons); err == nil {
			return lessons, nil
		}
		// data 字段可能再包一层 {lessons: [...]}
		var nested struct {
			Lessons []RawLesson `json:"lessons"`
		}
		if err := json.Unmarshal(raw, &nested); err == nil && nested.Lessons != nil {
			return nested.Lessons, nil
		}
	}

	return nil, newError(ReasonMalformedFeed, "课表 JSON 中找不到课程数组", excerpt(string(data), 120))
}

// ── 策略 b: 内嵌脚本兜底 ──

// 内嵌数组的变量名同样没有契约，见过的写法按序匹配
var embeddedArrayPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?s)\blessons\s*=\s*(\[.*?\])\s*[;\n]`),
	regexp.MustCompile(`(?s)\bactivities\s*=\s*(\[.*?\])\s*[;\n]`),
	regexp.MustCompile(`(?s)\bkbList\s*=\s*(\[.*?\])\s*[;\n]`),
	regexp.MustCompile(`(?s)\bcourseTable\s*=\s*(\[.*?\])\s*[;\n]`),
}

// scanEmbeddedArray 扫描落地页中内嵌的课表数组字面量
func scanEmbeddedArray(body string) ([]RawLesson, bool) {
	for _, p := range embeddedArrayPatterns {
		m := p.FindStringSubmatch(body)
		if m == nil {
			continue
		}
		var lessons []RawLesson
		if err := json.Unmarshal([]byte(m[1]), &lessons); err == nil {
			return lessons, true
		}
	}
	return nil, false
}

// [自证通过] internal/upstream/feed.go
