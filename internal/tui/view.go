package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/docassist/docassist-go/internal/model"
	"github.com/docassist/docassist-go/internal/retriever"
)

var (
	userLabelStyle      = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("14"))
	assistantLabelStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	errorStyle          = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	dimStyle            = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	statusStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("11"))
	headerStyle         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	overlayStyle        = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(1, 2)
)

// helpText 帮助内容（Ctrl+H）
const helpText = `Document Assistant Help

Example Queries

  Q&A
  - What's the total amount in invoice INV-001?
  - What are the terms of contract CON-001?
  - Show me details about claim CLM-001

  Summarization
  - Summarize all contracts
  - Give me a summary of invoice INV-002
  - Summarize the insurance claims

  Calculations
  - Calculate the sum of all invoice totals
  - What's the average amount of all documents?
  - Add the totals from INV-001 and INV-002

Keyboard Shortcuts
  Ctrl+D - Show documents
  Ctrl+H - Show this help
  Ctrl+N - Start new session
  Ctrl+Q - Quit application
  Enter  - Send message
  Esc    - Close this panel`

// View 渲染整个界面
func (m Model) View() string {
	if m.configErr != "" {
		return errorStyle.Render("❌ Error: "+m.configErr) +
			"\n\n" + dimStyle.Render("Press Ctrl+Q to quit.")
	}

	if !m.ready {
		return "Initializing..."
	}

	var body string
	switch m.overlay {
	case overlayDocs:
		body = overlayStyle.Render(m.documentsText()) +
			"\n" + dimStyle.Render("Press Esc to close")
	case overlayHelp:
		body = overlayStyle.Render(helpText) +
			"\n" + dimStyle.Render("Press Esc to close")
	default:
		body = m.viewport.View()
	}

	return strings.Join([]string{
		m.headerView(),
		body,
		m.footerView(),
	}, "\n")
}

// headerView 标题 + 会话信息
func (m Model) headerView() string {
	title := headerStyle.Render("📄 Document Assistant")
	sessionInfo := ""
	if m.session != nil {
		sessionInfo = dimStyle.Render(fmt.Sprintf("Session: %s…  Started: %s",
			m.session.ShortID(),
			m.session.CreatedAt.Format("15:04:05")))
	}
	return title + "  " + sessionInfo + "\n"
}

// footerView 输入框 + 状态栏 + 快捷键提示
func (m Model) footerView() string {
	return strings.Join([]string{
		m.input.View(),
		statusStyle.Render(m.status),
		dimStyle.Render("Ctrl+D docs • Ctrl+H help • Ctrl+N new session • Ctrl+Q quit"),
	}, "\n")
}

// renderHistory 渲染全部聊天记录，处理中追加思考指示
func (m Model) renderHistory() string {
	var sb strings.Builder

	for _, msg := range m.history {
		sb.WriteString(renderMessage(msg))
		sb.WriteString("\n\n")
	}

	if m.isLoading {
		sb.WriteString(assistantLabelStyle.Render("🤖 Assistant:"))
		sb.WriteString("\n")
		sb.WriteString(m.spinner.View())
		sb.WriteString(dimStyle.Render("💭 Thinking..."))
		sb.WriteString("\n")
	}

	return sb.String()
}

// renderMessage 渲染单条消息，assistant 消息附带意图、工具、来源标注
func renderMessage(msg model.ChatMessage) string {
	var sb strings.Builder

	if msg.Role == model.RoleUser {
		sb.WriteString(userLabelStyle.Render("👤 You:"))
		sb.WriteString("\n")
		sb.WriteString(msg.Content)
		return sb.String()
	}

	sb.WriteString(assistantLabelStyle.Render("🤖 Assistant:"))
	sb.WriteString("\n")
	if strings.HasPrefix(msg.Content, "❌") {
		sb.WriteString(errorStyle.Render(msg.Content))
	} else {
		sb.WriteString(msg.Content)
	}

	if meta := msg.Metadata; meta != nil {
		if meta.Intent != nil {
			sb.WriteString("\n")
			sb.WriteString(dimStyle.Render("Intent: " + meta.Intent.IntentType))
		}
		if len(meta.ToolsUsed) > 0 {
			sb.WriteString("\n")
			sb.WriteString(dimStyle.Render("Tools: " + strings.Join(meta.ToolsUsed, ", ")))
		}
		if len(meta.Sources) > 0 {
			sb.WriteString("\n")
			sb.WriteString(dimStyle.Render("Sources: " + strings.Join(meta.Sources, ", ")))
		}
	}

	return sb.String()
}

// documentsText 文档清单文本（Ctrl+D）
func (m Model) documentsText() string {
	var sb strings.Builder
	sb.WriteString("📚 Available Documents:\n\n")

	for _, doc := range m.backend.Documents().List() {
		sb.WriteString(fmt.Sprintf("• %s: %s (%s)\n", doc.ID, doc.Title, doc.DocType))
		if total, ok := doc.Total(); ok {
			sb.WriteString(fmt.Sprintf("  Amount: %s\n", retriever.FormatCurrency(total)))
		}
	}

	return sb.String()
}
