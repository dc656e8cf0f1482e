package main

import (
	"flag"
	"fmt"
	"log"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/docassist/docassist-go/internal/assistant"
	"github.com/docassist/docassist-go/internal/client"
	"github.com/docassist/docassist-go/internal/config"
	"github.com/docassist/docassist-go/internal/handler"
	"github.com/docassist/docassist-go/internal/memory"
	"github.com/docassist/docassist-go/internal/middleware"
	"github.com/docassist/docassist-go/internal/retriever"
	"github.com/docassist/docassist-go/internal/service"
	"github.com/docassist/docassist-go/internal/tools"
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

	// 初始化日志
	zapLogger, err := logger.NewLogger(cfg.Log.Level)
	if err != nil {
		log.Fatalf("初始化日志失败: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("docassist-server 服务启动中...")

	// 凭证缺失直接拒绝启动
	if !cfg.HasCredential() {
		zapLogger.Fatal("缺少 API 密钥",
			zap.String("env", config.EnvAPIKey),
			zap.String("config", *configPath))
	}

	// 初始化 LLM 客户端与文档存储
	llmClient := client.NewDashScopeClient(cfg.DashScope.APIKey, cfg.DashScope.Model, zapLogger)

	var embedder retriever.Embedder
	if cfg.DashScope.EmbeddingModel != "" {
		embedder = client.NewEmbeddingClient(cfg.DashScope.APIKey, cfg.DashScope.EmbeddingModel, zapLogger)
	}

	docs := retriever.NewStore(embedder, zapLogger)
	if err := docs.IndexAll(); err != nil {
		zapLogger.Warn("文档向量索引失败，使用关键词检索", zap.Error(err))
	}

	// 注册内置工具
	registry := tools.NewRegistry(zapLogger)
	if err := tools.RegisterBuiltinTools(registry, docs, zapLogger); err != nil {
		zapLogger.Fatal("注册工具失败", zap.Error(err))
	}

	// 会话历史存储
	var history memory.Store = memory.NewInMemoryStore()
	if cfg.Redis.Host != "" {
		redisClient, err := redis.NewRedisClient(cfg.Redis)
		if err != nil {
			zapLogger.Fatal("连接 Redis 失败", zap.Error(err))
		}
		history = memory.NewRedisStore(redisClient)
	}

	// 组装后端与核心服务
	backend := assistant.NewDocumentAssistant(llmClient, registry, docs, history, assistant.Options{
		HistoryTurns:  cfg.Assistant.HistoryTurns,
		MaxIterations: cfg.Assistant.MaxIterations,
	}, zapLogger)

	sessions := service.NewSessionService(zapLogger)
	// 最短展示时长是终端思考指示的约定，API 响应不做延迟
	processor := service.NewProcessorService(backend, 0, zapLogger)

	chatHandler := handler.NewChatHandler(sessions, processor, backend, zapLogger)

	// 初始化路由
	r := gin.Default()
	r.Use(middleware.CORS())

	r.GET("/ws", chatHandler.HandleWebSocket)
	r.GET("/api/documents", chatHandler.ListDocuments)
	r.GET("/api/health", func(c *gin.Context) {
		c.Set("service_name", cfg.Server.Name)
		chatHandler.Health(c)
	})

	// 启动服务
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	zapLogger.Info("docassist-server 服务启动成功",
		zap.Int("port", cfg.Server.Port),
		zap.Int("tools", registry.Count()),
		zap.Int("documents", docs.Count()))

	if err := r.Run(addr); err != nil {
		zapLogger.Fatal("服务启动失败", zap.Error(err))
	}
}
