package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// EnvAPIKey API 密钥环境变量（优先于配置文件）
const EnvAPIKey = "DASHSCOPE_API_KEY"

// Config 应用配置
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Redis     RedisConfig     `yaml:"redis"`
	DashScope DashScopeConfig `yaml:"dashscope"`
	Assistant AssistantConfig `yaml:"assistant"`
	Log       LogConfig       `yaml:"log"`
}

// ServerConfig 服务器配置（仅 serve 模式使用）
type ServerConfig struct {
	Port int    `yaml:"port"`
	Name string `yaml:"name"`
}

// RedisConfig Redis 配置（Host 为空时使用内存历史存储）
type RedisConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
}

// DashScopeConfig 通义千问配置
type DashScopeConfig struct {
	APIKey         string `yaml:"apiKey"`
	Model          string `yaml:"model"`
	EmbeddingModel string `yaml:"embeddingModel"`
}

// AssistantConfig 助手行为配置
type AssistantConfig struct {
	UserID        string `yaml:"userId"`        // 默认用户标识
	HistoryTurns  int    `yaml:"historyTurns"`  // 分类时携带的历史条数
	MaxIterations int    `yaml:"maxIterations"` // 工具调用最大迭代次数
	LogFile       string `yaml:"logFile"`       // TUI 模式日志文件
}

// LogConfig 日志配置
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// LoadConfig 加载配置文件，文件不存在时返回默认配置
func LoadConfig(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// HasCredential 检查是否配置了 API 密钥（缺失则启动失败）
func (c *Config) HasCredential() bool {
	return c.DashScope.APIKey != ""
}

// applyEnv 环境变量覆盖配置文件
func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.DashScope.APIKey = key
	}
}

// defaultConfig 默认配置
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Name: "docassist",
		},
		DashScope: DashScopeConfig{
			Model:          "qwen-plus",
			EmbeddingModel: "text-embedding-v2",
		},
		Assistant: AssistantConfig{
			UserID:        "terminal_user",
			HistoryTurns:  5,
			MaxIterations: 5,
			LogFile:       "docassist.log",
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}
