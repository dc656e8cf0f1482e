package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger 创建 zap 日志器（输出到标准输出）
func NewLogger(level string) (*zap.Logger, error) {
	return build(level, "stdout")
}

// NewFileLogger 创建写入文件的 zap 日志器（TUI 模式下不能污染终端）
func NewFileLogger(level, path string) (*zap.Logger, error) {
	if path == "" {
		path = "docassist.log"
	}
	return build(level, path)
}

// build 根据日志级别构建日志器
func build(level, output string) (*zap.Logger, error) {
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, fmt.Errorf("解析日志级别失败: %w", err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.OutputPaths = []string{output}
	cfg.ErrorOutputPaths = []string{output}
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("构建日志器失败: %w", err)
	}

	return logger, nil
}
