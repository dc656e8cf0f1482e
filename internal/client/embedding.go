package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const embeddingURL = "https://dashscope.aliyuncs.com/api/v1/services/embeddings/text-embedding/text-embedding"

// EmbeddingClient 通义千问 Embedding 客户端
type EmbeddingClient struct {
	apiKey string
	model  string
	logger *zap.Logger
	client *http.Client
}

// EmbeddingRequest 请求结构
type EmbeddingRequest struct {
	Model      string                 `json:"model"`
	Input      EmbeddingInput         `json:"input"`
	Parameters map[string]interface{} `json:"parameters,omitempty"`
}

// EmbeddingInput 输入结构（支持单个文本或文本数组）
type EmbeddingInput struct {
	Texts []string `json:"texts"`
}

// EmbeddingResponse 响应结构
type EmbeddingResponse struct {
	Output struct {
		Embeddings []struct {
			TextIndex int       `json:"text_index"`
			Embedding []float64 `json:"embedding"`
		} `json:"embeddings"`
	} `json:"output"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
	RequestID string `json:"request_id"`
}

// NewEmbeddingClient 创建 Embedding 客户端
func NewEmbeddingClient(apiKey, model string, logger *zap.Logger) *EmbeddingClient {
	if model == "" {
		model = "text-embedding-v2"
	}
	return &EmbeddingClient{
		apiKey: apiKey,
		model:  model,
		logger: logger,
		client: &http.Client{},
	}
}

// GetEmbedding 获取单个文档文本的向量
func (c *EmbeddingClient) GetEmbedding(text string) ([]float64, error) {
	embeddings, err := c.GetEmbeddings([]string{text})
	if err != nil {
		return nil, err
	}
	if len(embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}
	return embeddings[0], nil
}

// GetEmbeddings 批量获取文档文本向量
func (c *EmbeddingClient) GetEmbeddings(texts []string) ([][]float64, error) {
	c.logger.Info("获取文本向量", zap.Int("count", len(texts)))

	embResp, err := c.request(texts, "document")
	if err != nil {
		return nil, err
	}

	// 按 text_index 还原顺序
	embeddings := make([][]float64, len(embResp.Output.Embeddings))
	for _, emb := range embResp.Output.Embeddings {
		embeddings[emb.TextIndex] = emb.Embedding
	}

	if len(embeddings) > 0 {
		c.logger.Info("向量获取成功",
			zap.Int("count", len(embeddings)),
			zap.Int("dimension", len(embeddings[0])),
			zap.Int("tokens", embResp.Usage.TotalTokens))
	}

	return embeddings, nil
}

// GetQueryEmbedding 获取查询文本的向量（与文档向量略有不同）
func (c *EmbeddingClient) GetQueryEmbedding(query string) ([]float64, error) {
	c.logger.Debug("获取查询向量", zap.String("query", query))

	embResp, err := c.request([]string{query}, "query")
	if err != nil {
		return nil, err
	}

	if len(embResp.Output.Embeddings) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	return embResp.Output.Embeddings[0].Embedding, nil
}

// request 调用 Embedding 接口
func (c *EmbeddingClient) request(texts []string, textType string) (*EmbeddingResponse, error) {
	reqBody := EmbeddingRequest{
		Model: c.model,
		Input: EmbeddingInput{
			Texts: texts,
		},
		Parameters: map[string]interface{}{
			"text_type": textType, // document 或 query
		},
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequest("POST", embeddingURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("发送请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API 返回错误 %d: %s", resp.StatusCode, string(body))
	}

	var embResp EmbeddingResponse
	if err := json.Unmarshal(body, &embResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	return &embResp, nil
}
