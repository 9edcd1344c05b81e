package upstream

import (
	"context"
	"fmt"

	"Muse_MCP/internal/media"
)

// MediaResult 是图像类适配器的统一返回形状: 托管 URL 或内联字节，
// 二者至少有其一。调用方通过 media.PreferURL 选择呈现形式。
type MediaResult struct {
	URL    string
	Binary *media.Binary
}

// OperationHandle 标识一个已启动的异步生成任务。
// 生命周期限定在单次工具调用内，不跨调用复用。
type OperationHandle struct {
	ID string
}

// PollOutcome 是一次状态查询的结果。
// Done 且 FileRef 非空表示任务完成; Done 而 FileRef 为空表示
// 上游先报告完成后产出资产，视为仍在进行。
type PollOutcome struct {
	Done    bool
	FileRef string
}

// VideoRequest 描述一次视频生成请求。
type VideoRequest struct {
	Prompt      string
	StartImage  *media.Binary // 可选的起始图像
	AspectRatio string        // "16:9", "9:16" 或 "1:1"
}

// CulturalRequest 描述一次文化洞察分析请求。
type CulturalRequest struct {
	City           string
	Country        string
	BusinessType   string // 可选
	TargetAudience string // 可选
}

// MediaItem 是画廊中的一条媒体记录。
type MediaItem struct {
	Title       string `json:"title,omitempty"`
	Type        string `json:"type"`
	CreatedAt   string `json:"createdAt,omitempty"`
	URL         string `json:"url"`
	Description string `json:"description,omitempty"`
}

// ImageGenerator 从文本提示生成图像。
type ImageGenerator interface {
	Generate(ctx context.Context, prompt, model string) (*MediaResult, error)
}

// ImageEditor 按提示编辑已归一化的源图像。
type ImageEditor interface {
	Edit(ctx context.Context, prompt string, source *media.Binary) (*MediaResult, error)
}

// VideoGenerator 覆盖视频生成的启动/轮询/下载三段式流程。
type VideoGenerator interface {
	Start(ctx context.Context, req VideoRequest) (*OperationHandle, error)
	Poll(ctx context.Context, handle *OperationHandle) (*PollOutcome, error)
	Download(ctx context.Context, fileRef string) (string, error)
}

// CulturalAnalyst 对城市的文化语境做单次分析，返回结构化文本。
type CulturalAnalyst interface {
	Analyze(ctx context.Context, req CulturalRequest) (string, error)
}

// MediaLister 查询画廊中已生成的媒体。空结果是正常结果，不是错误。
type MediaLister interface {
	List(ctx context.Context, typeFilter string, limit int) ([]MediaItem, error)
}

// GenerationError 表示上游报告了显式错误，或响应里缺少期望的媒体载荷。
type GenerationError struct {
	Op     string // "image generation", "image edit", "video generation"
	Reason string
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s failed: %s", e.Op, e.Reason)
}

// CulturalAnalysisError 表示聊天补全提供商没有返回任何分析内容。
type CulturalAnalysisError struct {
	Reason string
}

func (e *CulturalAnalysisError) Error() string {
	return fmt.Sprintf("cultural analysis failed: %s", e.Reason)
}
