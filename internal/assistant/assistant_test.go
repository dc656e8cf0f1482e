package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docassist/docassist-go/internal/client"
	"github.com/docassist/docassist-go/internal/memory"
	"github.com/docassist/docassist-go/internal/prompts"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/tools"
)

// fakeLLM 按脚本逐次返回 ChatWithTools 响应
type fakeLLM struct {
	simpleChatFn func(systemPrompt, userMessage string) (string, error)
	responses    []*client.ChatResponse
	toolErr      error
	calls        int
}

func (f *fakeLLM) SimpleChat(systemPrompt, userMessage string) (string, error) {
	if f.simpleChatFn != nil {
		return f.simpleChatFn(systemPrompt, userMessage)
	}
	return "qa", nil
}

func (f *fakeLLM) ChatWithTools(messages []client.Message, toolDefs []map[string]interface{}) (*client.ChatResponse, error) {
	if f.toolErr != nil {
		return nil, f.toolErr
	}
	if f.calls >= len(f.responses) {
		// 脚本用尽后重复最后一条
		return f.responses[len(f.responses)-1], nil
	}
	resp := f.responses[f.calls]
	f.calls++
	return resp, nil
}

func textResponse(text string) *client.ChatResponse {
	resp := &client.ChatResponse{}
	resp.Output.Text = text
	resp.Output.FinishReason = "stop"
	return resp
}

func toolCallResponse(id, name, args string) *client.ChatResponse {
	resp := &client.ChatResponse{}
	resp.Output.Choices = []client.Choice{
		{
			FinishReason: "tool_calls",
			Message: client.Message{
				Role: "assistant",
				ToolCalls: []client.ToolCall{
					{
						ID:   id,
						Type: "function",
						Function: client.ToolCallFunction{
							Name:      name,
							Arguments: args,
						},
					},
				},
			},
		},
	}
	return resp
}

func newTestAssistant(t *testing.T, llm LLMClient) *DocumentAssistant {
	t.Helper()

	logger := zap.NewNop()
	registry := tools.NewRegistry(logger)
	docs := retriever.NewStore(nil, logger)
	require.NoError(t, tools.RegisterBuiltinTools(registry, docs, logger))

	return NewDocumentAssistant(llm, registry, docs, memory.NewInMemoryStore(), Options{}, logger)
}

func TestProcessMessageToolLoop(t *testing.T) {
	llm := &fakeLLM{
		responses: []*client.ChatResponse{
			toolCallResponse("call-1", tools.ToolReadDocument, `{"doc_id": "INV-001"}`),
			textResponse("The total amount of INV-001 is $1,200.00."),
		},
	}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "What is the total of INV-001?")
	require.NoError(t, err)
	require.NotNil(t, env)

	assert.True(t, env.Success)
	assert.Equal(t, "The total amount of INV-001 is $1,200.00.", env.Response)
	assert.Equal(t, []string{tools.ToolReadDocument}, env.ToolsUsed)
	assert.Equal(t, []string{"INV-001"}, env.Sources)
	require.NotNil(t, env.Intent)
	assert.Equal(t, "qa", env.Intent.IntentType)
}

func TestProcessMessageWithoutToolCalls(t *testing.T) {
	llm := &fakeLLM{
		responses: []*client.ChatResponse{textResponse("Hello! How can I help you?")},
	}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "hello")
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, "Hello! How can I help you?", env.Response)
	assert.Empty(t, env.ToolsUsed)
	assert.Empty(t, env.Sources)
}

func TestProcessMessageCitesCanonicalDocumentID(t *testing.T) {
	// 工具参数用小写 ID，引用应取检索结果里的规范 ID
	llm := &fakeLLM{
		responses: []*client.ChatResponse{
			toolCallResponse("call-1", tools.ToolReadDocument, `{"doc_id": " inv-001 "}`),
			textResponse("The total amount of INV-001 is $1,200.00."),
		},
	}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "Read inv-001")
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, []string{"INV-001"}, env.Sources)
}

func TestProcessMessageMissingDocumentNotCited(t *testing.T) {
	llm := &fakeLLM{
		responses: []*client.ChatResponse{
			toolCallResponse("call-1", tools.ToolReadDocument, `{"doc_id": "XXX-999"}`),
			textResponse("I could not find document XXX-999."),
		},
	}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "Read XXX-999")
	require.NoError(t, err)

	assert.True(t, env.Success)
	assert.Equal(t, []string{tools.ToolReadDocument}, env.ToolsUsed)
	assert.Empty(t, env.Sources)
}

func TestProcessMessageLLMFailure(t *testing.T) {
	llm := &fakeLLM{toolErr: errors.New("connection refused")}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "hello")
	require.NoError(t, err)

	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "LLM call failed")
	assert.Contains(t, env.Error, "connection refused")
	assert.Empty(t, env.Response)
}

func TestProcessMessageIterationLimit(t *testing.T) {
	// 每轮都要求调用工具，永不收敛
	llm := &fakeLLM{
		responses: []*client.ChatResponse{
			toolCallResponse("call-1", tools.ToolCalculator, `{"expression": "1 + 1"}`),
		},
	}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "loop forever")
	require.NoError(t, err)

	assert.False(t, env.Success)
	assert.Contains(t, env.Error, "tool call limit exceeded")
}

func TestProcessMessageIntentClassificationFallback(t *testing.T) {
	llm := &fakeLLM{
		simpleChatFn: func(_, _ string) (string, error) {
			return "", errors.New("timeout")
		},
		responses: []*client.ChatResponse{textResponse("ok")},
	}
	a := newTestAssistant(t, llm)

	env, err := a.ProcessMessage(context.Background(), "sess-1", "hello")
	require.NoError(t, err)

	assert.True(t, env.Success)
	require.NotNil(t, env.Intent)
	assert.Equal(t, "unknown", env.Intent.IntentType)
	assert.Zero(t, env.Intent.Confidence)
}

func TestProcessMessageRecordsHistory(t *testing.T) {
	llm := &fakeLLM{
		responses: []*client.ChatResponse{textResponse("The answer is 42.")},
	}
	logger := zap.NewNop()
	registry := tools.NewRegistry(logger)
	docs := retriever.NewStore(nil, logger)
	require.NoError(t, tools.RegisterBuiltinTools(registry, docs, logger))
	store := memory.NewInMemoryStore()
	a := NewDocumentAssistant(llm, registry, docs, store, Options{}, logger)

	_, err := a.ProcessMessage(context.Background(), "sess-1", "What is the answer?")
	require.NoError(t, err)

	entries, err := store.Recent(context.Background(), "sess-1", 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"user: What is the answer?",
		"assistant: The answer is 42.",
	}, entries)
}

func TestProcessMessageFailureNotRecorded(t *testing.T) {
	llm := &fakeLLM{toolErr: errors.New("boom")}
	logger := zap.NewNop()
	registry := tools.NewRegistry(logger)
	docs := retriever.NewStore(nil, logger)
	require.NoError(t, tools.RegisterBuiltinTools(registry, docs, logger))
	store := memory.NewInMemoryStore()
	a := NewDocumentAssistant(llm, registry, docs, store, Options{}, logger)

	_, err := a.ProcessMessage(context.Background(), "sess-1", "hello")
	require.NoError(t, err)

	n, err := store.Len(context.Background(), "sess-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestProcessMessageCompressesLongHistory(t *testing.T) {
	llm := &fakeLLM{
		simpleChatFn: func(systemPrompt, _ string) (string, error) {
			if systemPrompt == prompts.MemorySummaryPrompt {
				return "earlier filler turns", nil
			}
			return "qa", nil
		},
		responses: []*client.ChatResponse{textResponse("noted")},
	}
	logger := zap.NewNop()
	registry := tools.NewRegistry(logger)
	docs := retriever.NewStore(nil, logger)
	require.NoError(t, tools.RegisterBuiltinTools(registry, docs, logger))
	store := memory.NewInMemoryStore()
	a := NewDocumentAssistant(llm, registry, docs, store, Options{}, logger)

	ctx := context.Background()
	// 预填 19 条，使本轮写入后超过阈值
	for i := 0; i < 19; i++ {
		require.NoError(t, store.Append(ctx, "sess-1", "user: filler"))
	}

	_, err := a.ProcessMessage(ctx, "sess-1", "one more")
	require.NoError(t, err)

	entries, err := store.Recent(ctx, "sess-1", 0)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Contains(t, entries[0], "summary: ")
}

func TestStartSessionClearsHistory(t *testing.T) {
	llm := &fakeLLM{responses: []*client.ChatResponse{textResponse("ok")}}
	logger := zap.NewNop()
	registry := tools.NewRegistry(logger)
	docs := retriever.NewStore(nil, logger)
	require.NoError(t, tools.RegisterBuiltinTools(registry, docs, logger))
	store := memory.NewInMemoryStore()
	a := NewDocumentAssistant(llm, registry, docs, store, Options{}, logger)

	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "sess-1", "user: old"))
	require.NoError(t, a.StartSession(ctx, "sess-1"))

	n, err := store.Len(ctx, "sess-1")
	require.NoError(t, err)
	assert.Zero(t, n)
}
