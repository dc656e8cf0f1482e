package tui

import (
	"context"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docassist/docassist-go/internal/model"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/service"
)

// fakeProcessor 按预设函数返回信封并统计调用次数
type fakeProcessor struct {
	fn    func(session *model.Session, text string) *model.Envelope
	calls int
}

func (p *fakeProcessor) ProcessMessage(session *model.Session, text string) *model.Envelope {
	p.calls++
	if p.fn != nil {
		return p.fn(session, text)
	}
	return &model.Envelope{Success: true, Response: "ok"}
}

// fakeBackend 记录会话初始化调用
type fakeBackend struct {
	docs     *retriever.Store
	sessions []string
}

func (b *fakeBackend) StartSession(_ context.Context, sessionID string) error {
	b.sessions = append(b.sessions, sessionID)
	return nil
}

func (b *fakeBackend) Documents() *retriever.Store {
	return b.docs
}

func newTestModel(t *testing.T, processor Processor) (Model, *fakeBackend) {
	t.Helper()

	backend := &fakeBackend{docs: retriever.NewStore(nil, zap.NewNop())}
	m := New(Config{
		Sessions:  service.NewSessionService(zap.NewNop()),
		Processor: processor,
		Backend:   backend,
		UserID:    "tester",
		Logger:    zap.NewNop(),
	})

	// 先送尺寸让视口就绪
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})
	return updated.(Model), backend
}

// submit 输入文本并回车
func submit(m Model, text string) (Model, tea.Cmd) {
	m.input.SetValue(text)
	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	return updated.(Model), cmd
}

func TestNewStartsSessionAndShowsWelcome(t *testing.T) {
	m, backend := newTestModel(t, &fakeProcessor{})

	require.NotNil(t, m.Session())
	require.Len(t, backend.sessions, 1)
	assert.Equal(t, m.Session().ID, backend.sessions[0])

	require.NotEmpty(t, m.history)
	assert.Contains(t, m.history[0].Content, "Welcome to the Document Assistant")
}

func TestBlankSubmitIsIgnored(t *testing.T) {
	processor := &fakeProcessor{}
	m, _ := newTestModel(t, processor)

	before := len(m.history)
	m, cmd := submit(m, "   ")

	assert.Nil(t, cmd)
	assert.Len(t, m.history, before)
	assert.Zero(t, processor.calls)
	assert.False(t, m.isLoading)
}

func TestSubmitDispatchesAndRendersEnvelope(t *testing.T) {
	processor := &fakeProcessor{
		fn: func(_ *model.Session, text string) *model.Envelope {
			return &model.Envelope{
				Success:   true,
				Response:  "The total amount of INV-001 is $1,200.00.",
				Intent:    &model.Intent{IntentType: model.IntentQA, Confidence: 0.9},
				ToolsUsed: []string{"read_document"},
				Sources:   []string{"INV-001"},
			}
		},
	}
	m, _ := newTestModel(t, processor)

	m, cmd := submit(m, "What is the total of INV-001?")
	require.NotNil(t, cmd)
	assert.True(t, m.isLoading)

	// 用户消息立即上屏
	last := m.history[len(m.history)-1]
	assert.Equal(t, model.RoleUser, last.Role)
	assert.Equal(t, "What is the total of INV-001?", last.Content)

	// 执行后台命令，取回结果消息
	msg := execCmd(t, cmd)
	updated, _ := m.Update(msg)
	m = updated.(Model)

	assert.False(t, m.isLoading)
	assert.Equal(t, 1, processor.calls)

	last = m.history[len(m.history)-1]
	assert.Equal(t, model.RoleAssistant, last.Role)
	assert.Equal(t, "The total amount of INV-001 is $1,200.00.", last.Content)

	rendered := m.renderHistory()
	assert.Contains(t, rendered, "Intent: qa")
	assert.Contains(t, rendered, "Tools: read_document")
	assert.Contains(t, rendered, "Sources: INV-001")
}

func TestSubmitWhileLoadingIsIgnored(t *testing.T) {
	processor := &fakeProcessor{}
	m, _ := newTestModel(t, processor)

	m, cmd := submit(m, "first")
	require.NotNil(t, cmd)
	require.True(t, m.isLoading)

	before := len(m.history)
	m, cmd2 := submit(m, "second")

	assert.Nil(t, cmd2)
	assert.Len(t, m.history, before)
}

func TestEmptyResponseGetsPlaceholder(t *testing.T) {
	processor := &fakeProcessor{
		fn: func(_ *model.Session, _ string) *model.Envelope {
			return &model.Envelope{Success: true, Response: ""}
		},
	}
	m, _ := newTestModel(t, processor)

	m, cmd := submit(m, "hello")
	updated, _ := m.Update(execCmd(t, cmd))
	m = updated.(Model)

	last := m.history[len(m.history)-1]
	assert.Equal(t, placeholderResponse, last.Content)
}

func TestFailureEnvelopeRendersErrorAndRecovers(t *testing.T) {
	processor := &fakeProcessor{
		fn: func(_ *model.Session, _ string) *model.Envelope {
			return &model.Envelope{Success: false, Error: "document not found: XXX-999"}
		},
	}
	m, _ := newTestModel(t, processor)

	m, cmd := submit(m, "Read XXX-999")
	updated, _ := m.Update(execCmd(t, cmd))
	m = updated.(Model)

	last := m.history[len(m.history)-1]
	assert.Equal(t, "❌ Error: document not found: XXX-999", last.Content)
	assert.False(t, m.isLoading)

	// 失败后可以继续提交
	m, cmd = submit(m, "hello again")
	assert.NotNil(t, cmd)
	assert.True(t, m.isLoading)
}

func TestProcessCmdRecoversFromPanic(t *testing.T) {
	processor := &fakeProcessor{
		fn: func(_ *model.Session, _ string) *model.Envelope {
			panic("boom")
		},
	}
	m, _ := newTestModel(t, processor)

	m, cmd := submit(m, "hello")
	msg := execCmd(t, cmd)

	env, ok := msg.(envelopeMsg)
	require.True(t, ok)
	assert.False(t, env.envelope.Success)
	assert.Contains(t, env.envelope.Error, "unexpected error: boom")
}

func TestNewSessionReplacesCurrent(t *testing.T) {
	m, backend := newTestModel(t, &fakeProcessor{})

	first := m.Session().ID
	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	m = updated.(Model)

	assert.NotEqual(t, first, m.Session().ID)
	require.Len(t, backend.sessions, 2)
	assert.Equal(t, m.Session().ID, backend.sessions[1])
}

func TestOverlayToggles(t *testing.T) {
	m, _ := newTestModel(t, &fakeProcessor{})

	updated, _ := m.Update(tea.KeyMsg{Type: tea.KeyCtrlH})
	m = updated.(Model)
	assert.Equal(t, overlayHelp, m.overlay)
	assert.Contains(t, m.View(), "Keyboard Shortcuts")

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	m = updated.(Model)
	assert.Equal(t, overlayNone, m.overlay)

	updated, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlD})
	m = updated.(Model)
	assert.Equal(t, overlayDocs, m.overlay)
	assert.Contains(t, m.View(), "Available Documents")
	assert.Contains(t, m.View(), "$1,200.00")
}

func TestConfigErrorStateIsUnusable(t *testing.T) {
	processor := &fakeProcessor{}
	m := New(Config{
		Sessions:  service.NewSessionService(zap.NewNop()),
		Processor: processor,
		Backend:   &fakeBackend{},
		UserID:    "tester",
		ConfigErr: "DASHSCOPE_API_KEY not found. Set it in the environment or in configs/docassist.yaml.",
		Logger:    zap.NewNop(),
	})

	assert.Nil(t, m.Session())
	assert.Contains(t, m.View(), "DASHSCOPE_API_KEY not found")

	updated, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	m = updated.(Model)
	assert.Nil(t, cmd)
	assert.Zero(t, processor.calls)

	// 仅退出键有效
	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

// execCmd 执行 tea.Cmd 并返回其中的信封消息（跳过 spinner tick）
func execCmd(t *testing.T, cmd tea.Cmd) tea.Msg {
	t.Helper()
	require.NotNil(t, cmd)

	queue := []tea.Cmd{cmd}
	for len(queue) > 0 {
		next := queue[0]
		queue = queue[1:]

		msg := next()
		switch typed := msg.(type) {
		case envelopeMsg:
			return typed
		case tea.BatchMsg:
			queue = append(queue, typed...)
		}
	}

	t.Fatal("no envelope message produced")
	return nil
}
