package service

import (
	"context"
	"fmt"
	"time"

	"github.com/docassist/docassist-go/internal/model"
	"go.uber.org/zap"
)

// DefaultMinDisplay 思考指示的最短展示时长
const DefaultMinDisplay = 500 * time.Millisecond

// Backend 对话后端。返回的信封可携带业务失败（Success=false）；
// error 返回值和 panic 都视为不可预期故障，由处理器兜底。
type Backend interface {
	ProcessMessage(ctx context.Context, sessionID, text string) (*model.Envelope, error)
}

// ProcessorService 请求处理器。对每条消息恰好调用一次后端，
// 把任何结果归一化为信封：调用方永远拿到信封，不会拿到异常。
type ProcessorService struct {
	backend    Backend
	minDisplay time.Duration
	logger     *zap.Logger
}

// NewProcessorService 创建请求处理器
func NewProcessorService(backend Backend, minDisplay time.Duration, logger *zap.Logger) *ProcessorService {
	if minDisplay < 0 {
		minDisplay = DefaultMinDisplay
	}
	return &ProcessorService{
		backend:    backend,
		minDisplay: minDisplay,
		logger:     logger,
	}
}

// ProcessMessage 处理一条用户消息。调用方须保证 text 去除首尾空白后非空。
// 阻塞直到后端返回且最短展示时长已过，应在主交互循环之外调用。
func (p *ProcessorService) ProcessMessage(session *model.Session, text string) *model.Envelope {
	start := time.Now()

	envelope := p.invoke(session, text)

	// 后端过快返回时补足思考指示的最短展示时长
	if elapsed := time.Since(start); elapsed < p.minDisplay {
		time.Sleep(p.minDisplay - elapsed)
	}

	if envelope.Success {
		p.logger.Info("请求处理完成",
			zap.String("sessionId", session.ID),
			zap.Duration("elapsed", time.Since(start)))
	} else {
		p.logger.Warn("请求处理失败",
			zap.String("sessionId", session.ID),
			zap.String("error", envelope.Error))
	}

	return envelope
}

// invoke 调用后端一次，把 error 和 panic 都转成失败信封
func (p *ProcessorService) invoke(session *model.Session, text string) (envelope *model.Envelope) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("后端调用发生 panic", zap.Any("panic", r))
			envelope = &model.Envelope{
				Success: false,
				Error:   fmt.Sprintf("unexpected error: %v", r),
			}
		}
	}()

	result, err := p.backend.ProcessMessage(context.Background(), session.ID, text)
	if err != nil {
		p.logger.Error("后端调用失败", zap.Error(err))
		return &model.Envelope{
			Success: false,
			Error:   fmt.Sprintf("unexpected error: %v", err),
		}
	}
	if result == nil {
		return &model.Envelope{
			Success: false,
			Error:   "unexpected error: backend returned no result",
		}
	}

	return result
}
