package upstream

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"

	"coursemate/backend/config"
)

// ════════════════════════════════════════════════════════════
// 课表提取器测试
// ════════════════════════════════════════════════════════════

// 带学号标识的落地页（结构化接口路径）
const landingPageWithIDs = `<html><body><script>
var studentId = "123456";
var bizTypeId = 2;
var semesterId = "2025-1";
loadTimetable();
</script></body></html>`

// 内嵌课表数组的落地页（兜底路径）
const landingPageEmbedded = `<html><body><script>
var lessons = [{"courseName":"高等数学","weeks":[1,2],"weekday":1,"startUnit":1,"endUnit":2}];
render(lessons);
</script></body></html>`

// 两种线索都没有的落地页
const landingPageBare = `<html><body><p>课表加载失败</p></body></html>`

const apiLessonsJSON = `{"kbList":[
{"courseName":"线性代数","classroom":"5104","weeks":[1,2,3],"weekday":2,"startUnit":3,"endUnit":4},
{"nameZh":"大学物理","weeks":[1],"weekday":3,"startUnit":1,"endUnit":2}
]}`

func feedTestConfig(base string) *config.UpstreamConfig {
	return &config.UpstreamConfig{
		CASLoginURL:     base + "/login",
		TimetableURL:    base + "/timetable",
		TimetableAPIURL: base + "/api/lessons",
		StepTimeout:     5 * time.Second,
	}
}

func TestExtractor_StructuredEndpoint(t *testing.T) {
	var apiQuery map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("/timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(landingPageWithIDs))
	})
	mux.HandleFunc("/api/lessons", func(w http.ResponseWriter, r *http.Request) {
		apiQuery = map[string]string{
			"studentId":  r.URL.Query().Get("studentId"),
			"bizTypeId":  r.URL.Query().Get("bizTypeId"),
			"semesterId": r.URL.Query().Get("semesterId"),
		}
		w.Write([]byte(apiLessonsJSON))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewExtractor(feedTestConfig(srv.URL), zap.NewNop())
	lessons, err := ex.Extract(context.Background(), NewSession())
	if err != nil {
		t.Fatalf("Extract 失败: %v", err)
	}
	if len(lessons) != 2 {
		t.Fatalf("课程数量期望 2, 实际 %d", len(lessons))
	}
	if lessons[0].CourseName != "线性代数" {
		t.Errorf("课程名期望 线性代数, 实际 %s", lessons[0].CourseName)
	}
	if lessons[1].NameZh != "大学物理" {
		t.Errorf("nameZh 期望 大学物理, 实际 %s", lessons[1].NameZh)
	}

	// 扒出的标识应逐一拼进查询
	if apiQuery["studentId"] != "123456" {
		t.Errorf("studentId 期望 123456, 实际 %s", apiQuery["studentId"])
	}
	if apiQuery["bizTypeId"] != "2" {
		t.Errorf("bizTypeId 期望 2, 实际 %s", apiQuery["bizTypeId"])
	}
	if apiQuery["semesterId"] != "2025-1" {
		t.Errorf("semesterId 期望 2025-1, 实际 %s", apiQuery["semesterId"])
	}
}

func TestExtractor_EmbeddedScriptFallback(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(landingPageEmbedded))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewExtractor(feedTestConfig(srv.URL), zap.NewNop())
	lessons, err := ex.Extract(context.Background(), NewSession())
	if err != nil {
		t.Fatalf("Extract 失败: %v", err)
	}
	if len(lessons) != 1 {
		t.Fatalf("课程数量期望 1, 实际 %d", len(lessons))
	}
	if lessons[0].CourseName != "高等数学" {
		t.Errorf("课程名期望 高等数学, 实际 %s", lessons[0].CourseName)
	}
	if len(lessons[0].Weeks) != 2 {
		t.Errorf("周次期望 [1 2], 实际 %v", lessons[0].Weeks)
	}
}

func TestExtractor_APIDownFallsBackToEmbedded(t *testing.T) {
	// 落地页同时带标识和内嵌数组，但数据接口不可用 → 应落到兜底
	page := `<html><body><script>
var studentId = "123456";
var lessons = [{"courseName":"体育","weeks":[5],"weekday":5,"startUnit":9,"endUnit":10}];
</script></body></html>`

	mux := http.NewServeMux()
	mux.HandleFunc("/timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(page))
	})
	mux.HandleFunc("/api/lessons", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewExtractor(feedTestConfig(srv.URL), zap.NewNop())
	lessons, err := ex.Extract(context.Background(), NewSession())
	if err != nil {
		t.Fatalf("Extract 失败: %v", err)
	}
	if len(lessons) != 1 || lessons[0].CourseName != "体育" {
		t.Errorf("应通过兜底路径取到 体育, 实际 %v", lessons)
	}
}

func TestExtractor_FeedUnavailable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(landingPageBare))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewExtractor(feedTestConfig(srv.URL), zap.NewNop())
	_, err := ex.Extract(context.Background(), NewSession())
	if ReasonOf(err) != ReasonFeedUnavailable {
		t.Fatalf("期望 ReasonFeedUnavailable, 实际 %v", err)
	}
}

func TestExtractor_MalformedAPIData(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(landingPageWithIDs))
	})
	mux.HandleFunc("/api/lessons", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"unexpected":"shape"}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	ex := NewExtractor(feedTestConfig(srv.URL), zap.NewNop())
	_, err := ex.Extract(context.Background(), NewSession())
	if ReasonOf(err) != ReasonMalformedFeed {
		t.Fatalf("期望 ReasonMalformedFeed, 实际 %v", err)
	}
}

func TestExtractor_DoesNotMutateSession(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/timetable", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(landingPageEmbedded))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	session := NewSession()
	session.LoginTicket = "LT-keep"
	session.Cookies = []Cookie{{Name: "A", Value: "1"}}

	ex := NewExtractor(feedTestConfig(srv.URL), zap.NewNop())
	if _, err := ex.Extract(context.Background(), session); err != nil {
		t.Fatalf("Extract 失败: %v", err)
	}
	if session.LoginTicket != "LT-keep" {
		t.Error("Extract 不应改动会话令牌")
	}
	if len(session.Cookies) != 1 || session.Cookies[0].Value != "1" {
		t.Errorf("Extract 不应改动既有 Cookie, 实际 %v", session.Cookies)
	}
}

// ── JSON 形态解析 ──

func TestParseLessonJSON_Shapes(t *testing.T) {
	tests := []struct {
		name  string
		data  string
		count int
	}{
		{"数组根", `[{"courseName":"A","weeks":[1],"weekday":1,"startUnit":1,"endUnit":2}]`, 1},
		{"kbList", `{"kbList":[{"courseName":"A","weeks":[1],"weekday":1,"startUnit":1,"endUnit":2}]}`, 1},
		{"result", `{"result":[{"courseName":"A","weeks":[1],"weekday":1,"startUnit":1,"endUnit":2}]}`, 1},
		{"data.lessons", `{"data":{"lessons":[{"courseName":"A","weeks":[1],"weekday":1,"startUnit":1,"endUnit":2}]}}`, 1},
	}
	for _, tt := range tests {
		lessons, err := parseLessonJSON([]byte(tt.data))
		if err != nil {
			t.Errorf("%s: 解析失败: %v", tt.name, err)
			continue
		}
		if len(lessons) != tt.count {
			t.Errorf("%s: 数量期望 %d, 实际 %d", tt.name, tt.count, len(lessons))
		}
	}

	if _, err := parseLessonJSON([]byte("not-json")); ReasonOf(err) != ReasonMalformedFeed {
		t.Errorf("非法 JSON 期望 ReasonMalformedFeed, 实际 %v", err)
	}
}

// [自证通过] internal/upstream/feed_test.go
