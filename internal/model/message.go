package model

import "time"

// 消息角色
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// 意图类型
const (
	IntentQA            = "qa"
	IntentSummarization = "summarization"
	IntentCalculation   = "calculation"
	IntentUnknown       = "unknown"
)

// ChatMessage 聊天消息（界面展示用，不持久化）
type ChatMessage struct {
	MessageID string    `json:"messageId"`
	Role      string    `json:"role"` // user, assistant
	Content   string    `json:"content"`
	Metadata  *Metadata `json:"metadata,omitempty"` // 仅 assistant 消息携带
	Timestamp time.Time `json:"timestamp"`
}

// Metadata assistant 消息的附加信息
type Metadata struct {
	Intent    *Intent  `json:"intent,omitempty"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
	Sources   []string `json:"sources,omitempty"`
}

// Intent 意图分类结果
type Intent struct {
	IntentType string  `json:"intentType"` // qa, summarization, calculation, unknown
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning,omitempty"`
}

// Envelope 每次提交消息的统一处理结果。
// Success 为真时 Response 有效；为假时只有 Error 可信。
type Envelope struct {
	Success   bool     `json:"success"`
	Response  string   `json:"response,omitempty"`
	Intent    *Intent  `json:"intent,omitempty"`
	ToolsUsed []string `json:"toolsUsed,omitempty"`
	Sources   []string `json:"sources,omitempty"`
	Error     string   `json:"error,omitempty"`
}

// Metadata 提取 assistant 消息的附加信息（失败结果返回 nil）
func (e *Envelope) Metadata() *Metadata {
	if !e.Success {
		return nil
	}
	if e.Intent == nil && len(e.ToolsUsed) == 0 && len(e.Sources) == 0 {
		return nil
	}
	return &Metadata{
		Intent:    e.Intent,
		ToolsUsed: e.ToolsUsed,
		Sources:   e.Sources,
	}
}
