package dispatcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"Muse_MCP/internal/media"
	"Muse_MCP/internal/poller"
	"Muse_MCP/internal/tools"
	"Muse_MCP/internal/upstream"
	"Muse_MCP/pkg/logger"
)

// AdapterSet 是注入给调度器的上游适配器绑定。
// 同一个调度器核心配不同的绑定即得到不同的部署变体:
// 代理变体绑定 BackendClient，直连变体绑定 GeminiClient。
// 为 nil 的成员表示该能力在当前部署中不可用。
type AdapterSet struct {
	Images  upstream.ImageGenerator
	Editor  upstream.ImageEditor
	Video   upstream.VideoGenerator
	Analyst upstream.CulturalAnalyst
	Gallery upstream.MediaLister

	// NativeImagen 表示绑定自带独立的 Imagen 实现。
	// 为 false 时 "imagen" 模型路由到 Gemini 调用并在结果中注明模拟。
	NativeImagen bool
}

// imageRoute 是图像模型路由表的一项: 请求的模型名映射到实际
// 发往适配器的模型名，以及附加在结果文本里的说明。
type imageRoute struct {
	upstreamModel string
	note          string
}

// Dispatcher 接收工具调用，校验参数，路由到对应的上游适配器，
// 并把成功或失败统一包装为结果信封。所有错误在这一层被捕获一次，
// 以 "Error: " 前缀的文本块形式返回，绝不逃逸到传输层。
type Dispatcher struct {
	registry    *tools.Registry
	adapters    AdapterSet
	normalizer  *media.Normalizer
	poller      *poller.Poller
	imageRoutes map[string]imageRoute
}

// New 创建一个 Dispatcher。
func New(registry *tools.Registry, adapters AdapterSet, normalizer *media.Normalizer, p *poller.Poller) *Dispatcher {
	routes := map[string]imageRoute{
		"gemini": {upstreamModel: "gemini"},
		"imagen": {upstreamModel: "imagen"},
	}
	if !adapters.NativeImagen {
		// 显式的回退路由: imagen 复用 gemini 的实现，并在结果里说明，
		// 而不是留一条隐式代码路径。
		routes["imagen"] = imageRoute{
			upstreamModel: "gemini",
			note:          " (imagen is emulated by the gemini model in this deployment)",
		}
	}
	return &Dispatcher{
		registry:    registry,
		adapters:    adapters,
		normalizer:  normalizer,
		poller:      p,
		imageRoutes: routes,
	}
}

// Register 把注册表中的每个工具挂载到 MCP 服务上。
// skip 中列出的工具 (当前部署不支持的能力) 不会出现在 list-tools 里。
func (d *Dispatcher) Register(s *server.MCPServer, skip map[string]bool) {
	for _, desc := range d.registry.List() {
		if skip[desc.Name] {
			continue
		}
		name := desc.Name
		s.AddTool(desc.MCPTool(), func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return d.Dispatch(ctx, name, request.GetArguments()), nil
		})
	}
}

// Dispatch 处理一次工具调用。无论内部发生什么，返回值都是一个
// 格式完好的结果信封。
func (d *Dispatcher) Dispatch(ctx context.Context, name string, rawArgs map[string]interface{}) *mcp.CallToolResult {
	log := logger.New("media_mcp_server", uuid.NewString()).WithTool(name)

	desc, err := d.registry.Resolve(name)
	if err != nil {
		log.WithError(err).Warn("rejected tool call")
		return errorResult(err)
	}

	args, err := tools.Validate(desc, rawArgs)
	if err != nil {
		log.WithError(err).Warn("rejected tool call")
		return errorResult(err)
	}

	var text string
	switch name {
	case tools.ToolGenerateImage:
		text, err = d.generateImage(ctx, args)
	case tools.ToolEditImage:
		text, err = d.editImage(ctx, args)
	case tools.ToolGenerateVideo:
		text, err = d.generateVideo(ctx, args, log)
	case tools.ToolGetCulturalInsights:
		text, err = d.culturalInsights(ctx, args)
	case tools.ToolListMedia:
		text, err = d.listMedia(ctx, args)
	default:
		// 注册表和这张路由表必须同步; 走到这里说明二者脱节了。
		err = &tools.UnknownToolError{Name: name}
	}

	if err != nil {
		log.WithError(err).Error("tool call failed")
		return errorResult(err)
	}
	log.Info("tool call completed")
	return textResult(text)
}

// generateImage 处理 generate_image 调用。
func (d *Dispatcher) generateImage(ctx context.Context, args map[string]interface{}) (string, error) {
	if d.adapters.Images == nil {
		return "", fmt.Errorf("image generation is not available in this deployment")
	}
	prompt := args["prompt"].(string)
	model := args["model"].(string)

	route := d.imageRoutes[model]
	res, err := d.adapters.Images.Generate(ctx, prompt, route.upstreamModel)
	if err != nil {
		return "", err
	}

	out := media.PreferURL(res.URL, res.Binary)
	return fmt.Sprintf("Generated image for prompt %q using the %s model%s.\n%s", prompt, model, route.note, out), nil
}

// editImage 处理 edit_image 调用。
func (d *Dispatcher) editImage(ctx context.Context, args map[string]interface{}) (string, error) {
	if d.adapters.Editor == nil {
		return "", fmt.Errorf("image editing is not available in this deployment")
	}
	prompt := args["prompt"].(string)
	ref := args["image"].(string)

	source, err := d.normalizer.DecodeImageReference(ctx, ref)
	if err != nil {
		return "", err
	}

	res, err := d.adapters.Editor.Edit(ctx, prompt, source)
	if err != nil {
		return "", err
	}

	out := media.PreferURL(res.URL, res.Binary)
	return fmt.Sprintf("Edited image with instructions %q.\n%s", prompt, out), nil
}

// generateVideo 处理 generate_video 调用: 启动任务，经轮询器等待
// 完成，再把文件引用解析为托管 URL。
func (d *Dispatcher) generateVideo(ctx context.Context, args map[string]interface{}, log *logger.Logger) (string, error) {
	if d.adapters.Video == nil {
		return "", fmt.Errorf("video generation is not available in this deployment")
	}
	prompt := args["prompt"].(string)
	aspectRatio := args["aspect_ratio"].(string)

	req := upstream.VideoRequest{Prompt: prompt, AspectRatio: aspectRatio}
	if ref, ok := args["image"].(string); ok && ref != "" {
		startImage, err := d.normalizer.DecodeImageReference(ctx, ref)
		if err != nil {
			return "", err
		}
		req.StartImage = startImage
	}

	handle, err := d.adapters.Video.Start(ctx, req)
	if err != nil {
		return "", err
	}
	log.WithPayload(map[string]interface{}{"operation_id": handle.ID}).Info("video generation started")

	fileRef, err := d.poller.Wait(ctx, handle, d.adapters.Video.Poll)
	if err != nil {
		return "", err
	}

	url, err := d.adapters.Video.Download(ctx, fileRef)
	if err != nil {
		return "", err
	}

	return fmt.Sprintf("Generated video for prompt %q (aspect ratio %s).\n%s", prompt, aspectRatio, url), nil
}

// culturalInsights 处理 get_cultural_insights 调用。
func (d *Dispatcher) culturalInsights(ctx context.Context, args map[string]interface{}) (string, error) {
	if d.adapters.Analyst == nil {
		return "", fmt.Errorf("cultural insights are disabled: OPENAI_API_KEY is not configured")
	}

	req := upstream.CulturalRequest{
		City:    args["city"].(string),
		Country: args["country"].(string),
	}
	if v, ok := args["business_type"].(string); ok {
		req.BusinessType = v
	}
	if v, ok := args["target_audience"].(string); ok {
		req.TargetAudience = v
	}

	analysis, err := d.adapters.Analyst.Analyze(ctx, req)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Cultural insights for %s, %s:\n\n%s", req.City, req.Country, analysis), nil
}

// listMedia 处理 list_media 调用。空画廊是正常结果，不是错误。
func (d *Dispatcher) listMedia(ctx context.Context, args map[string]interface{}) (string, error) {
	if d.adapters.Gallery == nil {
		return "", fmt.Errorf("the media gallery is not available in this deployment")
	}

	typeFilter := args["type"].(string)
	limit := int(args["limit"].(float64))
	if limit > tools.MaxMediaListLimit {
		limit = tools.MaxMediaListLimit
	}

	var items []upstream.MediaItem
	if limit > 0 {
		var err error
		items, err = d.adapters.Gallery.List(ctx, typeFilter, limit)
		if err != nil {
			return "", err
		}
	}

	if len(items) == 0 {
		return "No media found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d media item(s):\n", len(items))
	for _, item := range items {
		title := item.Title
		if title == "" {
			title = "(untitled)"
		}
		fmt.Fprintf(&sb, "- [%s] %s: %s", item.Type, title, item.URL)
		if item.CreatedAt != "" {
			fmt.Fprintf(&sb, " (%s)", item.CreatedAt)
		}
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n"), nil
}

// textResult 构建成功结果信封。
func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: text,
			},
		},
	}
}

// errorResult 把任意内部失败渲染为带 "Error: " 前缀的文本结果。
// 协议层永远收到格式完好的信封，没有独立的失败状态码。
func errorResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.TextContent{
				Type: "text",
				Text: fmt.Sprintf("Error: %v", err),
			},
		},
		IsError: true,
	}
}
