package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"

	"github.com/docassist/docassist-go/internal/model"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/service"
	"go.uber.org/zap"
)

// placeholderResponse 后端返回空回答时的占位文本
const placeholderResponse = "No response generated."

// welcomeMessage 启动欢迎语
const welcomeMessage = `👋 Welcome to the Document Assistant!

I can help you with:
• Answering questions about documents
• Summarizing documents
• Performing calculations on document data

Try asking: 'What's the total amount in invoice INV-001?'`

// Processor 请求处理器能力（便于测试替换）
type Processor interface {
	ProcessMessage(session *model.Session, text string) *model.Envelope
}

// DocumentBackend 前端需要的后端辅助能力：会话重置和只读文档清单
type DocumentBackend interface {
	StartSession(ctx context.Context, sessionID string) error
	Documents() *retriever.Store
}

// envelopeMsg 后台处理完成
type envelopeMsg struct {
	envelope *model.Envelope
}

// overlayKind 当前覆盖层
type overlayKind int

const (
	overlayNone overlayKind = iota
	overlayDocs
	overlayHelp
)

// Config 前端装配参数
type Config struct {
	Sessions  *service.SessionService
	Processor Processor
	Backend   DocumentBackend
	UserID    string
	ConfigErr string // 非空表示启动配置错误，界面进入不可用状态
	Logger    *zap.Logger
}

// Model 终端聊天界面
type Model struct {
	sessions  *service.SessionService
	processor Processor
	backend   DocumentBackend
	userID    string
	logger    *zap.Logger

	session   *model.Session
	history   []model.ChatMessage
	isLoading bool
	status    string
	configErr string
	overlay   overlayKind

	input    textinput.Model
	spinner  spinner.Model
	viewport viewport.Model
	ready    bool
	width    int
	height   int
}

// New 创建界面模型。配置错误时进入不可用状态，不创建会话、不触碰后端。
func New(cfg Config) Model {
	input := textinput.New()
	input.Placeholder = "Type your message here..."
	input.CharLimit = 2000
	input.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		sessions:  cfg.Sessions,
		processor: cfg.Processor,
		backend:   cfg.Backend,
		userID:    cfg.UserID,
		logger:    cfg.Logger,
		configErr: cfg.ConfigErr,
		input:     input,
		spinner:   sp,
		status:    "✓ Ready! Type your message below.",
	}

	if m.configErr != "" {
		return m
	}

	m.session = m.sessions.StartSession(m.userID)
	if err := m.backend.StartSession(context.Background(), m.session.ID); err != nil {
		m.logger.Warn("后端会话初始化失败", zap.Error(err))
	}

	m.history = append(m.history, model.ChatMessage{
		MessageID: uuid.New().String(),
		Role:      model.RoleAssistant,
		Content:   welcomeMessage,
		Timestamp: time.Now(),
	})

	return m
}

// Session 当前会话（测试用）
func (m Model) Session() *model.Session {
	return m.session
}

// Init 启动光标闪烁
func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update 事件处理
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case spinner.TickMsg:
		if !m.isLoading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		m.syncViewport()
		return m, cmd

	case envelopeMsg:
		return m.handleEnvelope(msg.envelope)
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleKey 按键处理
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "ctrl+q":
		return m, tea.Quit

	case "esc":
		if m.overlay != overlayNone {
			m.overlay = overlayNone
			m.syncViewport()
		}
		return m, nil

	case "ctrl+d":
		return m.showDocuments()

	case "ctrl+h", "f1":
		if m.configErr != "" {
			return m, nil
		}
		m.overlay = overlayHelp
		return m, nil

	case "ctrl+n":
		return m.newSession()

	case "enter":
		return m.handleSubmit()
	}

	// 配置错误状态下只响应退出
	if m.configErr != "" {
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleSubmit 提交输入。空输入静默忽略；已有请求在途时不接受新提交。
func (m Model) handleSubmit() (tea.Model, tea.Cmd) {
	if m.configErr != "" {
		return m, nil
	}
	if m.overlay != overlayNone {
		m.overlay = overlayNone
		m.syncViewport()
		return m, nil
	}

	text := strings.TrimSpace(m.input.Value())
	if text == "" {
		return m, nil
	}
	if m.isLoading {
		return m, nil
	}

	m.input.Reset()

	m.history = append(m.history, model.ChatMessage{
		MessageID: uuid.New().String(),
		Role:      model.RoleUser,
		Content:   text,
		Timestamp: time.Now(),
	})

	m.isLoading = true
	m.status = "⏳ Processing your request..."
	m.syncViewport()

	return m, tea.Batch(
		m.spinner.Tick,
		m.processCmd(m.session, text),
	)
}

// processCmd 把阻塞的处理器调用放到后台执行。
// 处理器契约是全量的，这里仍兜底一层 panic，保证交互循环存活。
func (m Model) processCmd(session *model.Session, text string) tea.Cmd {
	return func() (msg tea.Msg) {
		defer func() {
			if r := recover(); r != nil {
				msg = envelopeMsg{envelope: &model.Envelope{
					Success: false,
					Error:   fmt.Sprintf("unexpected error: %v", r),
				}}
			}
		}()
		return envelopeMsg{envelope: m.processor.ProcessMessage(session, text)}
	}
}

// handleEnvelope 处理结果归来：移除思考指示并渲染信封
func (m Model) handleEnvelope(envelope *model.Envelope) (tea.Model, tea.Cmd) {
	m.isLoading = false

	msg := model.ChatMessage{
		MessageID: uuid.New().String(),
		Role:      model.RoleAssistant,
		Timestamp: time.Now(),
	}

	if envelope.Success {
		msg.Content = envelope.Response
		if msg.Content == "" {
			msg.Content = placeholderResponse
		}
		msg.Metadata = envelope.Metadata()
		m.status = "✓ Response received"
	} else {
		msg.Content = "❌ Error: " + envelope.Error
		m.status = "❌ Error occurred"
	}

	m.history = append(m.history, msg)
	m.syncViewport()
	return m, nil
}

// showDocuments 文档清单覆盖层（未初始化后端时静默跳过）
func (m Model) showDocuments() (tea.Model, tea.Cmd) {
	if m.configErr != "" || m.backend == nil {
		return m, nil
	}
	m.overlay = overlayDocs
	return m, nil
}

// newSession 重开会话：签发新会话并替换当前引用，不影响在途请求
func (m Model) newSession() (tea.Model, tea.Cmd) {
	if m.configErr != "" || m.session == nil {
		return m, nil
	}

	m.session = m.sessions.StartSession(m.userID)
	if err := m.backend.StartSession(context.Background(), m.session.ID); err != nil {
		m.logger.Warn("后端会话初始化失败", zap.Error(err))
	}

	m.status = "✓ New session started"
	return m, nil
}

// resize 根据窗口大小调整视口
func (m *Model) resize() {
	headerHeight := 3
	footerHeight := 4
	height := m.height - headerHeight - footerHeight
	if height < 1 {
		height = 1
	}

	if !m.ready {
		m.viewport = viewport.New(m.width, height)
		m.ready = true
	} else {
		m.viewport.Width = m.width
		m.viewport.Height = height
	}

	m.input.Width = m.width - 4
	m.syncViewport()
}

// syncViewport 刷新视口内容并滚到底部
func (m *Model) syncViewport() {
	if !m.ready {
		return
	}
	m.viewport.SetContent(m.renderHistory())
	m.viewport.GotoBottom()
}
