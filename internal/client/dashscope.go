package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
)

const generationURL = "https://dashscope.aliyuncs.com/api/v1/services/aigc/text-generation/generation"

// DashScopeClient 通义千问客户端
type DashScopeClient struct {
	apiKey     string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewDashScopeClient 创建通义千问客户端
func NewDashScopeClient(apiKey, model string, logger *zap.Logger) *DashScopeClient {
	return &DashScopeClient{
		apiKey:     apiKey,
		model:      model,
		httpClient: &http.Client{},
		logger:     logger,
	}
}

// Message 消息
type Message struct {
	Role       string     `json:"role"` // system, user, assistant, tool
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall LLM 返回的工具调用请求
type ToolCall struct {
	ID       string           `json:"id"`
	Type     string           `json:"type"` // "function"
	Function ToolCallFunction `json:"function"`
}

// ToolCallFunction 函数调用详情
type ToolCallFunction struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // JSON 字符串
}

// ChatRequest 聊天请求
type ChatRequest struct {
	Model      string     `json:"model"`
	Input      Input      `json:"input"`
	Parameters Parameters `json:"parameters,omitempty"`
}

// Input 输入
type Input struct {
	Messages []Message `json:"messages"`
}

// Parameters 参数
type Parameters struct {
	Temperature  float64                  `json:"temperature,omitempty"`
	TopP         float64                  `json:"top_p,omitempty"`
	MaxTokens    int                      `json:"max_tokens,omitempty"`
	ResultFormat string                   `json:"result_format,omitempty"`
	Tools        []map[string]interface{} `json:"tools,omitempty"`
}

// Choice message 格式的输出分支
type Choice struct {
	FinishReason string  `json:"finish_reason"`
	Message      Message `json:"message"`
}

// ChatResponse 聊天响应
type ChatResponse struct {
	Output struct {
		Text         string   `json:"text"`
		FinishReason string   `json:"finish_reason"`
		Choices      []Choice `json:"choices"`
	} `json:"output"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	RequestID string `json:"request_id"`
}

// Chat 调用通义千问聊天接口，返回纯文本回答
func (c *DashScopeClient) Chat(messages []Message) (string, error) {
	reqBody := ChatRequest{
		Model: c.model,
		Input: Input{
			Messages: messages,
		},
		Parameters: Parameters{
			Temperature: 0.1,
			MaxTokens:   2000,
		},
	}

	chatResp, err := c.do(reqBody)
	if err != nil {
		return "", err
	}

	return chatResp.Output.Text, nil
}

// ChatWithTools 带工具定义调用聊天接口（Function Calling）
func (c *DashScopeClient) ChatWithTools(messages []Message, toolDefs []map[string]interface{}) (*ChatResponse, error) {
	// Function Calling 需要 message 格式的结果
	tools := make([]map[string]interface{}, len(toolDefs))
	for i, def := range toolDefs {
		tools[i] = map[string]interface{}{
			"type":     "function",
			"function": def,
		}
	}

	reqBody := ChatRequest{
		Model: c.model,
		Input: Input{
			Messages: messages,
		},
		Parameters: Parameters{
			Temperature:  0.1,
			MaxTokens:    2000,
			ResultFormat: "message",
			Tools:        tools,
		},
	}

	return c.do(reqBody)
}

// SimpleChat 简单聊天（单轮对话）
func (c *DashScopeClient) SimpleChat(systemPrompt, userMessage string) (string, error) {
	messages := []Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: userMessage},
	}
	return c.Chat(messages)
}

// do 发送请求并解析响应
func (c *DashScopeClient) do(reqBody ChatRequest) (*ChatResponse, error) {
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("序列化请求失败: %w", err)
	}

	req, err := http.NewRequest("POST", generationURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("创建请求失败: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求失败: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("读取响应失败: %w", err)
	}

	if resp.StatusCode != 200 {
		return nil, fmt.Errorf("API 返回错误: %d, body: %s", resp.StatusCode, string(body))
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("解析响应失败: %w", err)
	}

	c.logger.Debug("LLM 调用完成",
		zap.String("requestId", chatResp.RequestID),
		zap.Int("inputTokens", chatResp.Usage.InputTokens),
		zap.Int("outputTokens", chatResp.Usage.OutputTokens))

	return &chatResp, nil
}
