package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level string `yaml:"level"` // 日志级别 (例如: "info", "debug", "warn", "error")
}

// GeminiConfig 包含了 Gemini 提供商的配置。
// APIKey 是图像/视频生成的必需凭证，缺失时进程拒绝启动。
type GeminiConfig struct {
	APIKey     string `yaml:"apiKey"`     // Gemini API 密钥 (环境变量 GEMINI_API_KEY 优先)
	ImageModel string `yaml:"imageModel"` // 图像生成模型名称
	VideoModel string `yaml:"videoModel"` // 视频生成模型名称
}

// OpenAIConfig 包含了聊天补全提供商的配置。
// APIKey 是可选的: 缺失时 get_cultural_insights 工具被禁用。
type OpenAIConfig struct {
	APIKey string `yaml:"apiKey"` // OpenAI API 密钥 (环境变量 OPENAI_API_KEY 优先)
	Model  string `yaml:"model"`  // 聊天补全模型名称
}

// BackendConfig 定义了协作媒体后端的连接配置。
type BackendConfig struct {
	BaseURL string `yaml:"baseURL"` // 媒体后端的基础 URL (环境变量 MEDIA_BACKEND_URL 优先)
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// ServerConfig 定义了 MCP 服务的传输配置。
type ServerConfig struct {
	Transport string `yaml:"transport"` // 传输方式: "stdio", "sse" 或 "httpstream"
	Port      string `yaml:"port"`      // HTTP 传输使用的端口
	Mode      string `yaml:"mode"`      // 适配器绑定: "backend" (代理模式) 或 "gemini" (直连模式)
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App            AppInfo              `yaml:"app"`            // 应用程序信息
	Logger         LoggerConfig         `yaml:"logger"`         // 日志记录器配置
	Server         ServerConfig         `yaml:"server"`         // MCP 服务配置
	Gemini         GeminiConfig         `yaml:"gemini"`         // Gemini 提供商配置
	OpenAI         OpenAIConfig         `yaml:"openai"`         // OpenAI 提供商配置
	Backend        BackendConfig        `yaml:"backend"`        // 协作媒体后端配置
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"` // 熔断器配置
}

// DefaultBackendURL 是协作媒体后端的默认地址。
const DefaultBackendURL = "http://localhost:3001"

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件。
// 环境变量 GEMINI_API_KEY / OPENAI_API_KEY / MEDIA_BACKEND_URL
// 会覆盖文件中的对应字段，凭证通常只通过环境变量提供。
//
// 参数:
//
//	path: YAML 配置文件的路径。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	// 读取 YAML 文件内容。
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	var cfg AppConfig
	// 将 YAML 内容解析到 cfg 结构体中。
	if err := yaml.Unmarshal(yamlFile, &cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	cfg.applyEnv()
	cfg.applyDefaults()
	return &cfg, nil
}

// applyEnv 让环境变量覆盖文件中的凭证和后端地址。
func (c *AppConfig) applyEnv() {
	if v := os.Getenv("GEMINI_API_KEY"); v != "" {
		c.Gemini.APIKey = v
	}
	if v := os.Getenv("OPENAI_API_KEY"); v != "" {
		c.OpenAI.APIKey = v
	}
	if v := os.Getenv("MEDIA_BACKEND_URL"); v != "" {
		c.Backend.BaseURL = v
	}
}

// applyDefaults 为省略的可选字段填入默认值。
func (c *AppConfig) applyDefaults() {
	if c.Backend.BaseURL == "" {
		c.Backend.BaseURL = DefaultBackendURL
	}
	if c.Server.Transport == "" {
		c.Server.Transport = "stdio"
	}
	if c.Server.Port == "" {
		c.Server.Port = "8085"
	}
	if c.Server.Mode == "" {
		c.Server.Mode = "backend"
	}
	if c.Gemini.ImageModel == "" {
		c.Gemini.ImageModel = "gemini-2.0-flash-exp"
	}
	if c.Gemini.VideoModel == "" {
		c.Gemini.VideoModel = "veo-2.0-generate-001"
	}
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = "gpt-4o-mini"
	}
	if c.Logger.Level == "" {
		c.Logger.Level = "info"
	}
}

// Validate 检查必需的配置项。
// Gemini 凭证是必需的: 没有它图像和视频生成都无法工作，进程应当拒绝启动。
func (c *AppConfig) Validate() error {
	if c.Gemini.APIKey == "" {
		return fmt.Errorf("缺少 Gemini API 密钥: 请设置 GEMINI_API_KEY 环境变量")
	}
	return nil
}
