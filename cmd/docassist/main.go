package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/docassist/docassist-go/internal/assistant"
	"github.com/docassist/docassist-go/internal/client"
	"github.com/docassist/docassist-go/internal/config"
	"github.com/docassist/docassist-go/internal/memory"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/service"
	"github.com/docassist/docassist-go/internal/tools"
	"github.com/docassist/docassist-go/internal/tui"
	"github.com/docassist/docassist-go/pkg/logger"
	"github.com/docassist/docassist-go/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/docassist.yaml", "配置文件路径")
	flag.Parse()

	// 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("加载配置失败: %v", err)
	}

	// 初始化日志（写入文件，避免污染终端界面）
	zapLogger, err := logger.NewFileLogger(cfg.Log.Level, cfg.Assistant.LogFile)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("docassist 启动中...")

	sessions := service.NewSessionService(zapLogger)

	// 凭证缺失时进入不可用展示状态，不创建会话、不构建后端
	tuiCfg := tui.Config{
		Sessions: sessions,
		UserID:   cfg.Assistant.UserID,
		Logger:   zapLogger,
	}

	if !cfg.HasCredential() {
		tuiCfg.ConfigErr = fmt.Sprintf(
			"%s not found. Set it in the environment or in %s.",
			config.EnvAPIKey, *configPath)
		zapLogger.Error("缺少 API 密钥，进入不可用状态")
	} else {
		backend := buildAssistant(cfg, zapLogger)
		tuiCfg.Backend = backend
		tuiCfg.Processor = service.NewProcessorService(backend, service.DefaultMinDisplay, zapLogger)
	}

	p := tea.NewProgram(tui.New(tuiCfg), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		zapLogger.Error("界面运行失败", zap.Error(err))
		os.Exit(1)
	}
}

// buildAssistant 组装文档助手后端
func buildAssistant(cfg *config.Config, zapLogger *zap.Logger) *assistant.DocumentAssistant {
	llmClient := client.NewDashScopeClient(cfg.DashScope.APIKey, cfg.DashScope.Model, zapLogger)

	// 向量检索可选，失败时文档检索退化为关键词匹配
	var embedder retriever.Embedder
	if cfg.DashScope.EmbeddingModel != "" {
		embedder = client.NewEmbeddingClient(cfg.DashScope.APIKey, cfg.DashScope.EmbeddingModel, zapLogger)
	}

	docs := retriever.NewStore(embedder, zapLogger)
	go func() {
		if err := docs.IndexAll(); err != nil {
			zapLogger.Warn("文档向量索引失败，使用关键词检索", zap.Error(err))
		}
	}()

	registry := tools.NewRegistry(zapLogger)
	if err := tools.RegisterBuiltinTools(registry, docs, zapLogger); err != nil {
		log.Fatalf("注册工具失败: %v", err)
	}

	// Redis 可用时历史跨进程保留，否则使用进程内存储
	var history memory.Store = memory.NewInMemoryStore()
	if cfg.Redis.Host != "" {
		redisClient, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			zapLogger.Warn("连接 Redis 失败，使用内存历史存储", zap.Error(err))
		} else {
			history = memory.NewRedisStore(redisClient)
		}
	}

	return assistant.NewDocumentAssistant(llmClient, registry, docs, history, assistant.Options{
		HistoryTurns:  cfg.Assistant.HistoryTurns,
		MaxIterations: cfg.Assistant.MaxIterations,
	}, zapLogger)
}
