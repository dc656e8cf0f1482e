package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/docassist/docassist-go/internal/model"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/service"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		// TODO: 生产环境应该检查 Origin 白名单
		return true
	},
}

// AssistantBackend 前端需要的后端辅助能力
type AssistantBackend interface {
	StartSession(ctx context.Context, sessionID string) error
	Documents() *retriever.Store
}

// InboundMessage 客户端发来的消息
type InboundMessage struct {
	Type string `json:"type"` // CHAT, NEW_SESSION
	Text string `json:"text,omitempty"`
}

// OutboundMessage 推送给客户端的消息
type OutboundMessage struct {
	Type      string          `json:"type"` // SESSION, ENVELOPE
	SessionID string          `json:"sessionId,omitempty"`
	Envelope  *model.Envelope `json:"envelope,omitempty"`
}

// ChatHandler WebSocket 聊天处理器。每个连接持有一个当前会话，
// 读循环内同步处理消息，天然保证同一连接单请求在途。
type ChatHandler struct {
	sessions  *service.SessionService
	processor *service.ProcessorService
	backend   AssistantBackend
	logger    *zap.Logger
}

// NewChatHandler 创建聊天处理器
func NewChatHandler(sessions *service.SessionService, processor *service.ProcessorService,
	backend AssistantBackend, logger *zap.Logger) *ChatHandler {
	return &ChatHandler{
		sessions:  sessions,
		processor: processor,
		backend:   backend,
		logger:    logger,
	}
}

// HandleWebSocket WebSocket 连接入口
func (h *ChatHandler) HandleWebSocket(c *gin.Context) {
	userID := c.Query("uid")
	if userID == "" {
		c.JSON(400, gin.H{"error": "invalid uid"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Error("WebSocket 升级失败", zap.Error(err))
		return
	}
	defer conn.Close()

	session := h.startSession(c.Request.Context(), userID)

	h.logger.Info("WebSocket 连接建立",
		zap.String("userId", userID),
		zap.String("sessionId", session.ID))

	conn.WriteJSON(OutboundMessage{Type: "SESSION", SessionID: session.ID})

	for {
		var msg InboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Error("WebSocket 读取错误", zap.Error(err))
			}
			break
		}

		switch msg.Type {
		case "CHAT":
			text := strings.TrimSpace(msg.Text)
			if text == "" {
				continue
			}
			envelope := h.processor.ProcessMessage(session, text)
			conn.WriteJSON(OutboundMessage{
				Type:      "ENVELOPE",
				SessionID: session.ID,
				Envelope:  envelope,
			})

		case "NEW_SESSION":
			session = h.startSession(c.Request.Context(), userID)
			conn.WriteJSON(OutboundMessage{Type: "SESSION", SessionID: session.ID})

		default:
			h.logger.Warn("未知消息类型",
				zap.String("userId", userID),
				zap.String("type", msg.Type))
		}
	}

	h.logger.Info("WebSocket 连接断开", zap.String("userId", userID))
}

// startSession 签发新会话并通知后端
func (h *ChatHandler) startSession(ctx context.Context, userID string) *model.Session {
	session := h.sessions.StartSession(userID)
	if err := h.backend.StartSession(ctx, session.ID); err != nil {
		h.logger.Warn("后端会话初始化失败", zap.Error(err))
	}
	return session
}

// ListDocuments 文档清单（只读）
func (h *ChatHandler) ListDocuments(c *gin.Context) {
	docs := h.backend.Documents().List()

	items := make([]gin.H, 0, len(docs))
	for _, doc := range docs {
		item := gin.H{
			"id":      doc.ID,
			"title":   doc.Title,
			"docType": doc.DocType,
		}
		if total, ok := doc.Total(); ok {
			item["total"] = total
			item["totalFormatted"] = retriever.FormatCurrency(total)
		}
		items = append(items, item)
	}

	c.JSON(200, gin.H{"documents": items, "count": len(items)})
}

// Health 健康检查
func (h *ChatHandler) Health(c *gin.Context) {
	c.JSON(200, gin.H{
		"status":    "UP",
		"service":   c.GetString("service_name"),
		"documents": h.backend.Documents().Count(),
	})
}
