package service

import (
	"context"
	"encoding/json"
	"fmt"
	"smart_lms_analytics/internal/model"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

const DefaultHistoryLimit = 10

// HistoryStore 每个学生最近若干次的风险记录
type HistoryStore interface {
	// Append 追加后返回截断后的完整历史，最旧的在前
	Append(ctx context.Context, studentID string, entry model.HistoryEntry) ([]model.HistoryEntry, error)
	Get(ctx context.Context, studentID string) ([]model.HistoryEntry, error)
}

type MemoryHistoryStore struct {
	mu      sync.Mutex
	limit   int
	entries map[string][]model.HistoryEntry
}

func NewMemoryHistoryStore(limit int) *MemoryHistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &MemoryHistoryStore{limit: limit, entries: make(map[string][]model.HistoryEntry)}
}

func (s *MemoryHistoryStore) Append(_ context.Context, studentID string, entry model.HistoryEntry) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := append(s.entries[studentID], entry)
	if len(h) > s.limit {
		h = append([]model.HistoryEntry(nil), h[len(h)-s.limit:]...)
	}
	s.entries[studentID] = h

	return append([]model.HistoryEntry(nil), h...), nil
}

func (s *MemoryHistoryStore) Get(_ context.Context, studentID string) ([]model.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.HistoryEntry(nil), s.entries[studentID]...), nil
}

// RedisHistoryStore 用列表保存历史：RPUSH + LTRIM，整体设置过期时间
type RedisHistoryStore struct {
	client *redis.Client
	limit  int
	ttl    time.Duration
}

func NewRedisHistoryStore(client *redis.Client, limit int, ttl time.Duration) *RedisHistoryStore {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}
	return &RedisHistoryStore{client: client, limit: limit, ttl: ttl}
}

func historyKey(studentID string) string {
	return "risk:history:" + studentID
}

func (s *RedisHistoryStore) Append(ctx context.Context, studentID string, entry model.HistoryEntry) ([]model.HistoryEntry, error) {
	data, err := json.Marshal(entry)
	if err != nil {
		return nil, err
	}

	key := historyKey(studentID)
	pipe := s.client.TxPipeline()
	pipe.RPush(ctx, key, data)
	pipe.LTrim(ctx, key, int64(-s.limit), -1)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	rng := pipe.LRange(ctx, key, 0, -1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("append history: %w", err)
	}

	return decodeHistory(rng.Val())
}

func (s *RedisHistoryStore) Get(ctx context.Context, studentID string) ([]model.HistoryEntry, error) {
	vals, err := s.client.LRange(ctx, historyKey(studentID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("get history: %w", err)
	}
	return decodeHistory(vals)
}

func decodeHistory(vals []string) ([]model.HistoryEntry, error) {
	out := make([]model.HistoryEntry, 0, len(vals))
	for _, v := range vals {
		var e model.HistoryEntry
		if err := json.Unmarshal([]byte(v), &e); err != nil {
			return nil, fmt.Errorf("decode history entry: %w", err)
		}
		out = append(out, e)
	}
	return out, nil
}

// isImproving 最近一次概率低于前一次
func isImproving(h []model.HistoryEntry) bool {
	if len(h) < 2 {
		return false
	}
	return h[len(h)-1].RiskProb < h[len(h)-2].RiskProb
}
