package upstream

import (
	"context"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"Muse_MCP/internal/media"
)

// GeminiClient 是直连部署变体的图像适配器，用 Gemini API 原生
// 实现 ImageGenerator 和 ImageEditor。该变体没有视频和画廊支持。
//
// 注意: 直连模式下没有独立的 Imagen 端点，"imagen" 模型由同一个
// Gemini 生成调用模拟，路由表见 dispatcher.imageModelRoutes。
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient 创建一个 Gemini 客户端。
//
// 参数:
//
//	ctx: 上下文，用于控制客户端的生命周期。
//	modelName: 要使用的 Gemini 模型名称。
//	apiKey: Gemini API 密钥。
//
// 返回值:
//
//	*GeminiClient: 新创建的客户端实例。
//	error: 如果无法创建 GenAI 客户端，则返回错误。
func NewGeminiClient(ctx context.Context, modelName, apiKey string) (*GeminiClient, error) {
	// 使用 API 密钥创建 GenAI 客户端。
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &GeminiClient{
		client: client,
		model:  client.GenerativeModel(modelName),
	}, nil
}

// Close 释放底层的 GenAI 客户端连接。
func (g *GeminiClient) Close() error {
	return g.client.Close()
}

// Generate 用文本提示生成一张图像。
// model 参数在直连模式下只影响结果描述，实际调用路径相同。
func (g *GeminiClient) Generate(ctx context.Context, prompt, model string) (*MediaResult, error) {
	resp, err := g.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, &GenerationError{Op: "image generation", Reason: err.Error()}
	}
	return imageFromResponse(resp, "image generation")
}

// Edit 把源图像和编辑指令一起发送给模型，返回编辑后的图像。
func (g *GeminiClient) Edit(ctx context.Context, prompt string, source *media.Binary) (*MediaResult, error) {
	resp, err := g.model.GenerateContent(ctx,
		genai.Text(prompt),
		genai.Blob{MIMEType: source.MIMEType, Data: source.Bytes},
	)
	if err != nil {
		return nil, &GenerationError{Op: "image edit", Reason: err.Error()}
	}
	return imageFromResponse(resp, "image edit")
}

// imageFromResponse 在候选内容里查找第一个内联图像部分。
// 响应里没有任何图像载荷时映射为 GenerationError。
func imageFromResponse(resp *genai.GenerateContentResponse, op string) (*MediaResult, error) {
	if resp == nil {
		return nil, &GenerationError{Op: op, Reason: "empty response from model"}
	}
	for _, cand := range resp.Candidates {
		if cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if blob, ok := part.(genai.Blob); ok {
				mimeType := blob.MIMEType
				if mimeType == "" {
					mimeType = "image/png"
				}
				return &MediaResult{
					Binary: &media.Binary{Bytes: blob.Data, MIMEType: mimeType},
				}, nil
			}
		}
	}
	return nil, &GenerationError{Op: op, Reason: "model returned no image payload"}
}

// 编译期检查: GeminiClient 必须同时满足两个图像接口。
var (
	_ ImageGenerator = (*GeminiClient)(nil)
	_ ImageEditor    = (*GeminiClient)(nil)
)
