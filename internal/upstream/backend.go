package upstream

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"Muse_MCP/internal/media"
	pkghttp "Muse_MCP/pkg/http"
)

// BackendClient 是代理部署变体的适配器集合: 所有上游能力都经由
// 协作媒体后端的 HTTP API 转发。它实现 ImageGenerator、ImageEditor、
// VideoGenerator 和 MediaLister。
type BackendClient struct {
	baseURL string
	client  *pkghttp.Client
}

// NewBackendClient 创建一个 BackendClient。baseURL 形如 http://localhost:3001。
func NewBackendClient(baseURL string, client *pkghttp.Client) *BackendClient {
	return &BackendClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client:  client,
	}
}

// imageEnvelope 是后端图像类接口的响应形状。
type imageEnvelope struct {
	Image *struct {
		URL        string `json:"url"`
		MIMEType   string `json:"mimeType"`
		ImageBytes string `json:"imageBytes"` // base64
	} `json:"image"`
	Error string `json:"error"`
}

// toResult 把响应信封归一化为 MediaResult。
// 上游报告 error 字段或缺少图像载荷都映射为 GenerationError。
func (env *imageEnvelope) toResult(op string) (*MediaResult, error) {
	if env.Error != "" {
		return nil, &GenerationError{Op: op, Reason: env.Error}
	}
	if env.Image == nil {
		return nil, &GenerationError{Op: op, Reason: "no image payload in response"}
	}

	res := &MediaResult{URL: env.Image.URL}
	if env.Image.ImageBytes != "" {
		data, err := base64.StdEncoding.DecodeString(env.Image.ImageBytes)
		if err != nil {
			return nil, &GenerationError{Op: op, Reason: fmt.Sprintf("invalid image bytes in response: %v", err)}
		}
		mimeType := env.Image.MIMEType
		if mimeType == "" {
			mimeType = "image/png"
		}
		res.Binary = &media.Binary{Bytes: data, MIMEType: mimeType}
	}
	if res.URL == "" && res.Binary == nil {
		return nil, &GenerationError{Op: op, Reason: "no image payload in response"}
	}
	return res, nil
}

// Generate 调用 POST /api/generate-image。
func (b *BackendClient) Generate(ctx context.Context, prompt, model string) (*MediaResult, error) {
	var env imageEnvelope
	err := b.postJSON(ctx, "/api/generate-image", map[string]string{
		"prompt": prompt,
		"model":  model,
	}, &env)
	if err != nil {
		return nil, err
	}
	return env.toResult("image generation")
}

// Edit 调用 POST /api/edit-image，以 multipart 形式上传提示和源图像。
func (b *BackendClient) Edit(ctx context.Context, prompt string, source *media.Binary) (*MediaResult, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("prompt", prompt); err != nil {
		return nil, fmt.Errorf("failed to build edit request: %w", err)
	}
	part, err := w.CreateFormFile("image", "image"+extensionFor(source.MIMEType))
	if err != nil {
		return nil, fmt.Errorf("failed to build edit request: %w", err)
	}
	if _, err := part.Write(source.Bytes); err != nil {
		return nil, fmt.Errorf("failed to build edit request: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build edit request: %w", err)
	}

	var env imageEnvelope
	if err := b.postMultipart(ctx, "/api/edit-image", &body, w.FormDataContentType(), &env); err != nil {
		return nil, err
	}
	return env.toResult("image edit")
}

// Start 调用 POST /api/generate-video 提交生成任务。
// 响应的 name 字段即操作标识，缺失时视为生成失败。
func (b *BackendClient) Start(ctx context.Context, req VideoRequest) (*OperationHandle, error) {
	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	fields := map[string]string{
		"prompt":      req.Prompt,
		"model":       "veo",
		"aspectRatio": req.AspectRatio,
	}
	if req.StartImage != nil {
		fields["imageBase64"] = base64.StdEncoding.EncodeToString(req.StartImage.Bytes)
		fields["imageMimeType"] = req.StartImage.MIMEType
	}
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			return nil, fmt.Errorf("failed to build video request: %w", err)
		}
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("failed to build video request: %w", err)
	}

	var env struct {
		Name  string `json:"name"`
		Error string `json:"error"`
	}
	if err := b.postMultipart(ctx, "/api/generate-video", &body, w.FormDataContentType(), &env); err != nil {
		return nil, err
	}
	if env.Error != "" {
		return nil, &GenerationError{Op: "video generation", Reason: env.Error}
	}
	if env.Name == "" {
		return nil, &GenerationError{Op: "video generation", Reason: "no operation id in response"}
	}
	return &OperationHandle{ID: env.Name}, nil
}

// Poll 调用 POST /api/video-operation 查询一次任务状态。
// 上游偶尔会在资产就绪之前就把 done 置位，此时 uris 为空。
// 这里沿用观察到的上游行为把它当作仍在进行，而不是失败。
// 已知风险: 真正丢失了产物的任务也会以同样的形状出现，只能靠
// 轮询预算耗尽兜底。
func (b *BackendClient) Poll(ctx context.Context, handle *OperationHandle) (*PollOutcome, error) {
	var env struct {
		Done  bool     `json:"done"`
		URIs  []string `json:"uris"`
		Error string   `json:"error"`
	}
	err := b.postJSON(ctx, "/api/video-operation", map[string]string{"name": handle.ID}, &env)
	if err != nil {
		return nil, err
	}
	if env.Error != "" {
		return nil, &GenerationError{Op: "video generation", Reason: env.Error}
	}
	if env.Done && len(env.URIs) > 0 {
		return &PollOutcome{Done: true, FileRef: env.URIs[0]}, nil
	}
	return &PollOutcome{Done: false}, nil
}

// Download 调用 POST /api/download-video，把提供商内部的文件引用
// 解析为由媒体后端持久化的托管 URL。
func (b *BackendClient) Download(ctx context.Context, fileRef string) (string, error) {
	var env struct {
		URL   string `json:"url"`
		Error string `json:"error"`
	}
	err := b.postJSON(ctx, "/api/download-video", map[string]interface{}{
		"uri":  fileRef,
		"save": true,
	}, &env)
	if err != nil {
		return "", err
	}
	if env.Error != "" {
		return "", &GenerationError{Op: "video generation", Reason: env.Error}
	}
	if env.URL == "" {
		return "", &GenerationError{Op: "video generation", Reason: "no download url in response"}
	}
	return env.URL, nil
}

// List 调用 GET /api/media 查询画廊。typeFilter 为 "all" 时不传过滤参数。
func (b *BackendClient) List(ctx context.Context, typeFilter string, limit int) ([]MediaItem, error) {
	q := url.Values{}
	if typeFilter != "" && typeFilter != "all" {
		q.Set("type", typeFilter)
	}
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"/api/media?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build media list request: %w", err)
	}

	var env struct {
		Media []MediaItem `json:"media"`
		Error string      `json:"error"`
	}
	if err := b.do(req, &env); err != nil {
		return nil, err
	}
	if env.Error != "" {
		return nil, fmt.Errorf("media backend error: %s", env.Error)
	}
	return env.Media, nil
}

// postJSON 发送 JSON 请求体并解码 JSON 响应。
func (b *BackendClient) postJSON(ctx context.Context, path string, payload interface{}, out interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode request for %s: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return b.do(req, out)
}

// postMultipart 发送已构建好的 multipart 请求体。
func (b *BackendClient) postMultipart(ctx context.Context, path string, body io.Reader, contentType string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to build request for %s: %w", path, err)
	}
	req.Header.Set("Content-Type", contentType)
	return b.do(req, out)
}

// do 执行请求。非 2xx 状态映射为 FetchError，属于传输层失败，
// 由轮询层当作瞬时缺失处理，由调度层当作适配器错误呈现。
func (b *BackendClient) do(req *http.Request, out interface{}) error {
	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("media backend unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return &media.FetchError{URL: req.URL.String(), StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response from %s: %w", req.URL.Path, err)
	}
	return nil
}

// 编译期检查: BackendClient 覆盖代理模式的全部能力。
var (
	_ ImageGenerator = (*BackendClient)(nil)
	_ ImageEditor    = (*BackendClient)(nil)
	_ VideoGenerator = (*BackendClient)(nil)
	_ MediaLister    = (*BackendClient)(nil)
)

// extensionFor 为 multipart 文件名挑选一个扩展名，后端据此识别格式。
func extensionFor(mimeType string) string {
	switch mimeType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	default:
		return ".png"
	}
}
