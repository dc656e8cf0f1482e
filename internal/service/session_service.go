package service

import (
	"time"

	"github.com/docassist/docassist-go/internal/model"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionService 会话管理服务。只负责签发会话，不维护会话注册表：
// 调用方持有"当前会话"，重开会话即替换引用；旧会话的生命周期归后端管。
type SessionService struct {
	logger *zap.Logger
}

// NewSessionService 创建会话管理服务
func NewSessionService(logger *zap.Logger) *SessionService {
	return &SessionService{logger: logger}
}

// StartSession 签发新会话。永不失败，ID 保证不重复。
func (s *SessionService) StartSession(userID string) *model.Session {
	session := &model.Session{
		ID:        uuid.New().String(),
		UserID:    userID,
		CreatedAt: time.Now(),
	}

	s.logger.Info("会话已创建",
		zap.String("sessionId", session.ID),
		zap.String("userId", userID))

	return session
}
