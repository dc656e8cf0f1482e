package assistant

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/docassist/docassist-go/internal/client"
	"github.com/docassist/docassist-go/internal/memory"
	"github.com/docassist/docassist-go/internal/model"
	"github.com/docassist/docassist-go/internal/prompts"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/tools"
	"go.uber.org/zap"
)

// summarizeThreshold 历史超过该条数时做摘要压缩
const summarizeThreshold = 20

// LLMClient 大模型调用能力
type LLMClient interface {
	SimpleChat(systemPrompt, userMessage string) (string, error)
	ChatWithTools(messages []client.Message, toolDefs []map[string]interface{}) (*client.ChatResponse, error)
}

// Options 助手行为参数
type Options struct {
	HistoryTurns  int // 分类与上下文携带的历史条数
	MaxIterations int // 工具调用最大迭代次数
}

// DocumentAssistant 文档助手后端：意图分类 + 工具调用循环 + 会话记忆
type DocumentAssistant struct {
	llm           LLMClient
	registry      *tools.Registry
	docs          *retriever.Store
	history       memory.Store
	historyTurns  int
	maxIterations int
	logger        *zap.Logger
}

// NewDocumentAssistant 创建文档助手
func NewDocumentAssistant(llm LLMClient, registry *tools.Registry, docs *retriever.Store,
	history memory.Store, opts Options, logger *zap.Logger) *DocumentAssistant {

	if opts.HistoryTurns <= 0 {
		opts.HistoryTurns = 5
	}
	if opts.MaxIterations <= 0 {
		opts.MaxIterations = 5
	}

	return &DocumentAssistant{
		llm:           llm,
		registry:      registry,
		docs:          docs,
		history:       history,
		historyTurns:  opts.HistoryTurns,
		maxIterations: opts.MaxIterations,
		logger:        logger,
	}
}

// StartSession 为新会话清空历史（旧会话的历史按存储策略自然过期）
func (a *DocumentAssistant) StartSession(ctx context.Context, sessionID string) error {
	a.logger.Info("后端会话就绪", zap.String("sessionId", sessionID))
	return a.history.Clear(ctx, sessionID)
}

// Documents 后端已知的文档存储（只读）
func (a *DocumentAssistant) Documents() *retriever.Store {
	return a.docs
}

// ProcessMessage 处理一条用户消息，返回结果信封。
// 可预期的失败（LLM 调用失败、迭代超限）以 Success=false 的信封返回；
// 只有不可预期的故障才通过 error 返回。
func (a *DocumentAssistant) ProcessMessage(ctx context.Context, sessionID, text string) (*model.Envelope, error) {
	a.logger.Info("处理用户消息",
		zap.String("sessionId", sessionID),
		zap.String("text", text))

	history, err := a.history.Recent(ctx, sessionID, a.historyTurns)
	if err != nil {
		a.logger.Warn("读取会话历史失败", zap.Error(err))
		history = nil
	}

	intent := a.classifyIntent(text, history)

	envelope := a.runToolLoop(text, history, intent)
	if envelope.Success {
		a.recordTurn(ctx, sessionID, text, envelope.Response)
	}

	return envelope, nil
}

// classifyIntent 意图分类（失败时回退为 unknown，不中断请求）
func (a *DocumentAssistant) classifyIntent(text string, history []string) *model.Intent {
	prompt := prompts.BuildClassificationPrompt(text, history)

	response, err := a.llm.SimpleChat(prompts.ClassificationSystemPrompt, prompt)
	if err != nil {
		a.logger.Warn("意图分类失败", zap.Error(err))
		return &model.Intent{IntentType: model.IntentUnknown, Confidence: 0}
	}

	intentType := prompts.ParseIntentType(response)
	a.logger.Info("意图分类完成", zap.String("intentType", intentType))

	return &model.Intent{
		IntentType: intentType,
		Confidence: 0.9,
		Reasoning:  response,
	}
}

// runToolLoop 工具调用循环（改编自 Function Calling 多轮迭代模式）
func (a *DocumentAssistant) runToolLoop(text string, history []string, intent *model.Intent) *model.Envelope {
	systemPrompt := prompts.SystemPromptFor(intent.IntentType)
	if len(history) > 0 {
		systemPrompt += "\n\nRecent conversation:\n"
		for _, entry := range history {
			systemPrompt += entry + "\n"
		}
	}

	messages := []client.Message{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: text},
	}

	toolDefs := a.registry.GetFunctionDefs()

	var toolsUsed []string
	var sources []string

	for i := 0; i < a.maxIterations; i++ {
		a.logger.Debug("LLM 调用", zap.Int("iteration", i+1))

		resp, err := a.llm.ChatWithTools(messages, toolDefs)
		if err != nil {
			a.logger.Error("LLM 调用失败", zap.Error(err))
			return &model.Envelope{
				Success: false,
				Error:   fmt.Sprintf("LLM call failed: %v", err),
			}
		}

		// LLM 要求调用工具时，执行后把结果追加进对话继续迭代
		if len(resp.Output.Choices) > 0 && len(resp.Output.Choices[0].Message.ToolCalls) > 0 {
			assistantMsg := resp.Output.Choices[0].Message
			messages = append(messages, assistantMsg)

			for _, toolCall := range assistantMsg.ToolCalls {
				result, used, cited := a.executeToolCall(toolCall)
				toolsUsed = append(toolsUsed, used...)
				sources = append(sources, cited...)

				resultJSON, _ := json.Marshal(result)
				messages = append(messages, client.Message{
					Role:       "tool",
					Content:    string(resultJSON),
					ToolCallID: toolCall.ID,
				})
			}
			continue
		}

		// 没有工具调用，取最终回答
		response := resp.Output.Text
		if response == "" && len(resp.Output.Choices) > 0 {
			response = resp.Output.Choices[0].Message.Content
		}

		return &model.Envelope{
			Success:   true,
			Response:  response,
			Intent:    intent,
			ToolsUsed: toolsUsed,
			Sources:   dedup(sources),
		}
	}

	a.logger.Error("工具调用迭代超限", zap.Int("maxIterations", a.maxIterations))
	return &model.Envelope{
		Success: false,
		Error:   fmt.Sprintf("tool call limit exceeded after %d iterations", a.maxIterations),
	}
}

// executeToolCall 执行单个工具调用，返回结果、使用的工具名和引用的文档 ID
func (a *DocumentAssistant) executeToolCall(call client.ToolCall) (interface{}, []string, []string) {
	tc := tools.ToolCall{
		ID:   call.ID,
		Type: call.Type,
		Function: tools.ToolCallFunction{
			Name:      call.Function.Name,
			Arguments: call.Function.Arguments,
		},
	}

	result, err := a.registry.Execute(tc)
	if err != nil {
		a.logger.Error("工具执行失败",
			zap.String("tool", call.Function.Name),
			zap.Error(err))
		result = map[string]interface{}{"error": err.Error()}
	}

	return result, []string{call.Function.Name}, citedDocuments(call.Function.Name, result)
}

// citedDocuments 从工具执行结果中提取引用的文档 ID
func citedDocuments(toolName string, result interface{}) []string {
	switch toolName {
	case tools.ToolReadDocument:
		// 以工具结果中的规范 ID 为准，未命中的文档不计为引用
		m, ok := result.(map[string]interface{})
		if !ok {
			return nil
		}
		if _, failed := m["error"]; failed {
			return nil
		}
		if docID, ok := m["id"].(string); ok && docID != "" {
			return []string{docID}
		}

	case tools.ToolSearchDocuments:
		m, ok := result.(map[string]interface{})
		if !ok {
			return nil
		}
		matches, ok := m["matches"].([]map[string]interface{})
		if !ok {
			return nil
		}
		var ids []string
		for _, match := range matches {
			if id, ok := match["id"].(string); ok {
				ids = append(ids, id)
			}
		}
		return ids
	}

	return nil
}

// recordTurn 记录本轮对话，历史过长时做摘要压缩
func (a *DocumentAssistant) recordTurn(ctx context.Context, sessionID, userText, response string) {
	if err := a.history.Append(ctx, sessionID, "user: "+userText); err != nil {
		a.logger.Warn("写入历史失败", zap.Error(err))
		return
	}
	if err := a.history.Append(ctx, sessionID, "assistant: "+response); err != nil {
		a.logger.Warn("写入历史失败", zap.Error(err))
		return
	}

	length, err := a.history.Len(ctx, sessionID)
	if err != nil || length <= summarizeThreshold {
		return
	}

	full, err := a.history.Recent(ctx, sessionID, 0)
	if err != nil {
		return
	}

	summary, err := a.llm.SimpleChat(prompts.MemorySummaryPrompt, prompts.BuildMemorySummaryPrompt(full))
	if err != nil {
		a.logger.Warn("历史摘要失败", zap.Error(err))
		return
	}

	if err := a.history.Replace(ctx, sessionID, []string{"summary: " + summary}); err != nil {
		a.logger.Warn("替换历史失败", zap.Error(err))
		return
	}

	a.logger.Info("会话历史已压缩",
		zap.String("sessionId", sessionID),
		zap.Int("before", length))
}

// dedup 去重并保持首次出现顺序
func dedup(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
