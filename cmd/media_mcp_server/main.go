package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"

	"Muse_MCP/internal/config"
	"Muse_MCP/internal/dispatcher"
	"Muse_MCP/internal/media"
	"Muse_MCP/internal/poller"
	"Muse_MCP/internal/tools"
	"Muse_MCP/internal/upstream"
	"Muse_MCP/pkg/circuitbreaker"
	pkghttp "Muse_MCP/pkg/http"
	"Muse_MCP/pkg/logger"
)

// Version 是服务的版本号
var Version = "1.0"

//STDIO transport (default), proxying through the media backend
//go run main.go
//
//SSE transport on port 8085, direct Gemini binding
//go run main.go -transport=sse -port=8085 -mode=gemini

func main() {
	// 命令行参数覆盖配置文件中的传输设置
	configPath := flag.String("config", "config.yaml", "Path to the YAML configuration file")
	transport := flag.String("transport", "", "Transport method: stdio, sse, or httpstream")
	port := flag.String("port", "", "Port for HTTP-based transports (sse, httpstream)")
	mode := flag.String("mode", "", "Adapter binding: backend (proxy) or gemini (direct)")
	flag.Parse()

	// 1. 加载配置
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}
	if *transport != "" {
		cfg.Server.Transport = *transport
	}
	if *port != "" {
		cfg.Server.Port = *port
	}
	if *mode != "" {
		cfg.Server.Mode = *mode
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	// 2. 初始化 Logger
	level, err := logrus.ParseLevel(cfg.Logger.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.Init(level)
	appLogger := logger.New("media_mcp_server", "")
	appLogger.Info("Logger initialized for Media MCP Server")

	// 3. 初始化出站 HTTP 客户端 (带熔断器)
	var breaker *circuitbreaker.Breaker
	if cfg.CircuitBreaker.Enabled {
		timeout, err := time.ParseDuration(cfg.CircuitBreaker.Timeout)
		if err != nil {
			appLogger.Fatal("invalid circuit breaker timeout: " + cfg.CircuitBreaker.Timeout)
		}
		breaker = circuitbreaker.New(cfg.CircuitBreaker.FailureThreshold, cfg.CircuitBreaker.SuccessThreshold, timeout)
	}
	httpClient := pkghttp.NewClient(breaker)
	normalizer := media.NewNormalizer(httpClient)

	// 4. 按部署模式构建适配器绑定
	adapters, skip, err := buildAdapters(cfg, httpClient, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("failed to build upstream adapters")
	}

	// 5. 构建工具注册表和调度器
	registry, err := tools.NewRegistry(tools.Catalog())
	if err != nil {
		appLogger.WithError(err).Fatal("invalid tool catalog")
	}
	disp := dispatcher.New(registry, adapters, normalizer, poller.New())

	// 6. 创建 MCP 服务实例并注册工具
	s := server.NewMCPServer(
		cfg.App.Name,
		Version,
		server.WithToolCapabilities(false),
	)
	disp.Register(s, skip)

	// 7. 按传输方式启动服务
	switch cfg.Server.Transport {
	case "sse":
		appLogger.Info("Starting Media MCP server with SSE transport on port " + cfg.Server.Port)
		sseServer := server.NewSSEServer(s)
		if err := sseServer.Start(":" + cfg.Server.Port); err != nil {
			appLogger.WithError(err).Fatal("SSE server error")
		}
	case "httpstream":
		appLogger.Info("Starting Media MCP server with StreamableHTTP transport on port " + cfg.Server.Port)
		httpServer := server.NewStreamableHTTPServer(s)
		if err := httpServer.Start(":" + cfg.Server.Port); err != nil {
			appLogger.WithError(err).Fatal("HTTP server error")
		}
	case "stdio":
		appLogger.Info("Starting Media MCP server with STDIO transport")
		if err := server.ServeStdio(s); err != nil {
			appLogger.WithError(err).Fatal("STDIO server error")
		}
	default:
		appLogger.Fatal("Unknown transport: " + cfg.Server.Transport + ". Use stdio, sse, or httpstream")
	}
}

// buildAdapters 按部署模式装配适配器集合，并给出需要从 list-tools
// 中隐藏的工具。代理模式经由媒体后端获得全部能力; 直连模式只有
// Gemini 的图像能力，视频和画廊工具被隐藏。文化洞察工具在两种
// 模式下都依赖可选的 OPENAI_API_KEY。
func buildAdapters(cfg *config.AppConfig, httpClient *pkghttp.Client, appLogger *logger.Logger) (dispatcher.AdapterSet, map[string]bool, error) {
	var adapters dispatcher.AdapterSet
	skip := make(map[string]bool)

	switch cfg.Server.Mode {
	case "backend":
		backend := upstream.NewBackendClient(cfg.Backend.BaseURL, httpClient)
		adapters.Images = backend
		adapters.Editor = backend
		adapters.Video = backend
		adapters.Gallery = backend
		adapters.NativeImagen = true
		appLogger.Info("Using media backend adapters at " + cfg.Backend.BaseURL)
	case "gemini":
		gemini, err := upstream.NewGeminiClient(context.Background(), cfg.Gemini.ImageModel, cfg.Gemini.APIKey)
		if err != nil {
			return adapters, nil, err
		}
		adapters.Images = gemini
		adapters.Editor = gemini
		skip[tools.ToolGenerateVideo] = true
		skip[tools.ToolListMedia] = true
		appLogger.Info("Using direct Gemini adapters; video and gallery tools disabled")
	default:
		appLogger.Fatal("Unknown adapter mode: " + cfg.Server.Mode + ". Use backend or gemini")
	}

	if cfg.OpenAI.APIKey != "" {
		adapters.Analyst = upstream.NewOpenAIAnalyst(cfg.OpenAI.APIKey, cfg.OpenAI.Model)
	} else {
		skip[tools.ToolGetCulturalInsights] = true
		appLogger.Warn("OPENAI_API_KEY not set; get_cultural_insights tool disabled")
	}

	return adapters, skip, nil
}
