package vectorstore

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// Entry 已向量化的文档内容
type Entry struct {
	DocID   string    // 所属文档 ID
	Content string    // 原文内容
	Vector  []float64 // 内容向量
}

// SearchResult 检索结果
type SearchResult struct {
	Entry Entry   // 命中条目
	Score float64 // 余弦相似度（0-1，越高越相似）
}

// MemoryVectorStore 内存向量存储
type MemoryVectorStore struct {
	entries map[string]*Entry // docId -> entry
	mu      sync.RWMutex
	logger  *zap.Logger
}

// NewMemoryVectorStore 创建内存向量存储
func NewMemoryVectorStore(logger *zap.Logger) *MemoryVectorStore {
	return &MemoryVectorStore{
		entries: make(map[string]*Entry),
		logger:  logger,
	}
}

// Add 添加条目（同一文档重复添加时覆盖）
func (s *MemoryVectorStore) Add(entry Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.DocID == "" {
		return fmt.Errorf("entry docID cannot be empty")
	}
	if len(entry.Vector) == 0 {
		return fmt.Errorf("entry vector cannot be empty")
	}

	s.entries[entry.DocID] = &entry
	s.logger.Debug("向量条目已添加",
		zap.String("docId", entry.DocID),
		zap.Int("dimension", len(entry.Vector)))
	return nil
}

// Search 向量检索，返回相似度不低于 minScore 的 Top-K 条目
func (s *MemoryVectorStore) Search(queryVector []float64, topK int, minScore float64) ([]SearchResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(queryVector) == 0 {
		return nil, fmt.Errorf("query vector cannot be empty")
	}

	results := make([]SearchResult, 0, len(s.entries))
	for _, entry := range s.entries {
		score := cosineSimilarity(queryVector, entry.Vector)
		if score >= minScore {
			results = append(results, SearchResult{Entry: *entry, Score: score})
		}
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if len(results) > topK {
		results = results[:topK]
	}

	s.logger.Debug("向量检索完成",
		zap.Int("candidates", len(s.entries)),
		zap.Int("resultCount", len(results)))

	return results, nil
}

// Count 获取条目数量
func (s *MemoryVectorStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// cosineSimilarity 计算余弦相似度（维度不一致时返回 0）
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := 0; i < len(a); i++ {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	normA = math.Sqrt(normA)
	normB = math.Sqrt(normB)

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (normA * normB)
}
