package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// historyTTL 历史过期时间
const historyTTL = 24 * time.Hour

// RedisStore Redis 历史存储（多实例共享会话历史时使用）
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore 创建 Redis 历史存储
func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// historyKey 会话历史的 Redis key
func historyKey(sessionID string) string {
	return "chat_history:" + sessionID
}

// Append 追加一条历史并刷新过期时间
func (s *RedisStore) Append(ctx context.Context, sessionID, entry string) error {
	key := historyKey(sessionID)
	if err := s.client.RPush(ctx, key, entry).Err(); err != nil {
		return fmt.Errorf("写入历史失败: %w", err)
	}
	s.client.Expire(ctx, key, historyTTL)
	return nil
}

// Recent 获取最近 n 条历史
func (s *RedisStore) Recent(ctx context.Context, sessionID string, n int) ([]string, error) {
	start := int64(-n)
	if n <= 0 {
		start = 0
	}
	history, err := s.client.LRange(ctx, historyKey(sessionID), start, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("读取历史失败: %w", err)
	}
	return history, nil
}

// Replace 用新条目整体替换历史
func (s *RedisStore) Replace(ctx context.Context, sessionID string, entries []string) error {
	key := historyKey(sessionID)

	pipe := s.client.TxPipeline()
	pipe.Del(ctx, key)
	for _, entry := range entries {
		pipe.RPush(ctx, key, entry)
	}
	pipe.Expire(ctx, key, historyTTL)

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("替换历史失败: %w", err)
	}
	return nil
}

// Len 历史条数
func (s *RedisStore) Len(ctx context.Context, sessionID string) (int, error) {
	n, err := s.client.LLen(ctx, historyKey(sessionID)).Result()
	if err != nil {
		return 0, fmt.Errorf("读取历史长度失败: %w", err)
	}
	return int(n), nil
}

// Clear 清空会话历史
func (s *RedisStore) Clear(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("清空历史失败: %w", err)
	}
	return nil
}
