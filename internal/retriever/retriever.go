package retriever

import (
	"fmt"
	"sort"
	"strings"

	"github.com/docassist/docassist-go/internal/vectorstore"
	"go.uber.org/zap"
)

// Document 文档（对外只读）
type Document struct {
	ID       string                 `json:"id"`
	Title    string                 `json:"title"`
	DocType  string                 `json:"docType"` // invoice, contract, claim
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata"`
}

// SearchResult 文档检索结果
type SearchResult struct {
	Document Document `json:"document"`
	Score    float64  `json:"score"`
}

// Embedder 向量化能力（未配置时退化为关键词检索）
type Embedder interface {
	GetEmbedding(text string) ([]float64, error)
	GetQueryEmbedding(query string) ([]float64, error)
}

// Store 文档存储，持有全部可检索的文档
type Store struct {
	documents map[string]*Document
	embedder  Embedder
	vectors   *vectorstore.MemoryVectorStore
	logger    *zap.Logger
}

// NewStore 创建文档存储并装载内置文档
func NewStore(embedder Embedder, logger *zap.Logger) *Store {
	s := &Store{
		documents: make(map[string]*Document),
		embedder:  embedder,
		vectors:   vectorstore.NewMemoryVectorStore(logger),
		logger:    logger,
	}

	for _, doc := range builtinDocuments() {
		s.documents[doc.ID] = doc
	}

	return s
}

// IndexAll 对全部文档内容做向量化索引（未配置 Embedder 时跳过）
func (s *Store) IndexAll() error {
	if s.embedder == nil {
		s.logger.Info("未配置向量化客户端，使用关键词检索")
		return nil
	}

	for _, doc := range s.documents {
		vector, err := s.embedder.GetEmbedding(doc.Content)
		if err != nil {
			return fmt.Errorf("文档向量化失败 %s: %w", doc.ID, err)
		}
		if err := s.vectors.Add(vectorstore.Entry{
			DocID:   doc.ID,
			Content: doc.Content,
			Vector:  vector,
		}); err != nil {
			return fmt.Errorf("向量索引失败 %s: %w", doc.ID, err)
		}
	}

	s.logger.Info("文档向量索引完成", zap.Int("count", s.vectors.Count()))
	return nil
}

// Get 按 ID 获取文档
func (s *Store) Get(id string) (*Document, error) {
	doc, ok := s.documents[strings.ToUpper(strings.TrimSpace(id))]
	if !ok {
		return nil, fmt.Errorf("document not found: %s", id)
	}
	return doc, nil
}

// List 按 ID 排序列出全部文档
func (s *Store) List() []*Document {
	docs := make([]*Document, 0, len(s.documents))
	for _, doc := range s.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool {
		return docs[i].ID < docs[j].ID
	})
	return docs
}

// Count 文档数量
func (s *Store) Count() int {
	return len(s.documents)
}

// Search 检索与查询相关的文档（优先向量检索，失败或未配置时关键词检索）
func (s *Store) Search(query string, topK int) ([]SearchResult, error) {
	if topK <= 0 {
		topK = 3
	}

	if s.embedder != nil && s.vectors.Count() > 0 {
		results, err := s.vectorSearch(query, topK)
		if err == nil {
			return results, nil
		}
		s.logger.Warn("向量检索失败，降级为关键词检索", zap.Error(err))
	}

	return s.keywordSearch(query, topK), nil
}

// vectorSearch 向量检索
func (s *Store) vectorSearch(query string, topK int) ([]SearchResult, error) {
	queryVector, err := s.embedder.GetQueryEmbedding(query)
	if err != nil {
		return nil, fmt.Errorf("查询向量化失败: %w", err)
	}

	hits, err := s.vectors.Search(queryVector, topK, 0.3)
	if err != nil {
		return nil, fmt.Errorf("向量检索失败: %w", err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		if doc, ok := s.documents[hit.Entry.DocID]; ok {
			results = append(results, SearchResult{Document: *doc, Score: hit.Score})
		}
	}
	return results, nil
}

// keywordSearch 关键词检索，按命中词数打分
func (s *Store) keywordSearch(query string, topK int) []SearchResult {
	terms := strings.Fields(strings.ToLower(query))

	results := make([]SearchResult, 0, len(s.documents))
	for _, doc := range s.documents {
		haystack := strings.ToLower(doc.ID + " " + doc.Title + " " + doc.DocType + " " + doc.Content)
		matched := 0
		for _, term := range terms {
			if strings.Contains(haystack, term) {
				matched++
			}
		}
		if matched == 0 {
			continue
		}
		results = append(results, SearchResult{
			Document: *doc,
			Score:    float64(matched) / float64(len(terms)),
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Document.ID < results[j].Document.ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results
}

// Total 提取文档金额（metadata 中的 total，不存在时第二个返回值为 false）
func (d *Document) Total() (float64, bool) {
	raw, ok := d.Metadata["total"]
	if !ok {
		return 0, false
	}
	switch v := raw.(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// FormatCurrency 金额格式化为 "$1,200.00" 形式
func FormatCurrency(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}

	plain := fmt.Sprintf("%.2f", amount)
	parts := strings.SplitN(plain, ".", 2)

	// 整数部分每三位插入逗号
	intPart := parts[0]
	var sb strings.Builder
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(r)
	}

	out := "$" + sb.String() + "." + parts[1]
	if negative {
		out = "-" + out
	}
	return out
}
