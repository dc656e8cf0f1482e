package memory

import (
	"context"
	"sync"
)

// Store 会话历史存储。历史条目形如 "user: ..." / "assistant: ..."，
// 按会话 ID 隔离，供意图分类和对话上下文使用。
type Store interface {
	Append(ctx context.Context, sessionID, entry string) error
	Recent(ctx context.Context, sessionID string, n int) ([]string, error)
	Replace(ctx context.Context, sessionID string, entries []string) error
	Len(ctx context.Context, sessionID string) (int, error)
	Clear(ctx context.Context, sessionID string) error
}

// InMemoryStore 进程内历史存储
type InMemoryStore struct {
	histories map[string][]string
	mu        sync.RWMutex
}

// NewInMemoryStore 创建进程内历史存储
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		histories: make(map[string][]string),
	}
}

// Append 追加一条历史
func (s *InMemoryStore) Append(_ context.Context, sessionID, entry string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[sessionID] = append(s.histories[sessionID], entry)
	return nil
}

// Recent 获取最近 n 条历史（不足 n 条时返回全部）
func (s *InMemoryStore) Recent(_ context.Context, sessionID string, n int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history := s.histories[sessionID]
	if n > 0 && len(history) > n {
		history = history[len(history)-n:]
	}

	out := make([]string, len(history))
	copy(out, history)
	return out, nil
}

// Replace 用新条目整体替换历史（摘要压缩时使用）
func (s *InMemoryStore) Replace(_ context.Context, sessionID string, entries []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.histories[sessionID] = append([]string(nil), entries...)
	return nil
}

// Len 历史条数
func (s *InMemoryStore) Len(_ context.Context, sessionID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.histories[sessionID]), nil
}

// Clear 清空会话历史
func (s *InMemoryStore) Clear(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.histories, sessionID)
	return nil
}
