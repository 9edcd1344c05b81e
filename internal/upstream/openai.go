package upstream

import (
	"context"
	"fmt"
	"strings"

	openai "github.com/meguminnnnnnnnn/go-openai"
)

// OpenAIAnalyst 是文化洞察的聊天补全适配器。
// 单次请求、无重试，空的补全内容映射为 CulturalAnalysisError。
type OpenAIAnalyst struct {
	client *openai.Client
	model  string
}

// NewOpenAIAnalyst 创建一个 OpenAI 聊天补全客户端。
func NewOpenAIAnalyst(apiKey, model string) *OpenAIAnalyst {
	config := openai.DefaultConfig(apiKey)
	return &OpenAIAnalyst{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// culturalSystemPrompt 是固定的系统提示。分析维度与媒体后端的
// cultural-intelligence 接口保持一致: 本地画像、沟通风格、审美偏好。
const culturalSystemPrompt = `You are a cultural intelligence analyst helping businesses adapt their visual content and messaging to local markets. For the requested city, provide a concise, structured analysis covering: (1) local cultural profile, (2) communication style and tone, (3) visual aesthetics and color preferences, (4) practical recommendations for marketing content. Be specific to the city, not generic.`

// Analyze 构建固定的 system/user 提示对并发送一次聊天补全请求。
func (a *OpenAIAnalyst) Analyze(ctx context.Context, req CulturalRequest) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Analyze the cultural context of %s, %s.", req.City, req.Country)
	if req.BusinessType != "" {
		fmt.Fprintf(&sb, " The business is a %s.", req.BusinessType)
	}
	if req.TargetAudience != "" {
		fmt.Fprintf(&sb, " The target audience is: %s.", req.TargetAudience)
	}

	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: culturalSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: sb.String()},
		},
	})
	if err != nil {
		return "", &CulturalAnalysisError{Reason: err.Error()}
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &CulturalAnalysisError{Reason: "provider returned no analysis"}
	}
	return resp.Choices[0].Message.Content, nil
}

var _ CulturalAnalyst = (*OpenAIAnalyst)(nil)
