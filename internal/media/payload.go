package media

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	pkghttp "Muse_MCP/pkg/http"
)

// Binary 是统一的二进制载荷表示: 原始字节加 MIME 类型。
// 它只在单次工具调用内存活，适配器构建完响应后即被丢弃。
type Binary struct {
	Bytes    []byte
	MIMEType string
}

// ErrMalformedDataURL 表示 data-URL 缺少逗号分隔符，无法拆分头部和载荷。
var ErrMalformedDataURL = errors.New("malformed data URL: missing comma separator")

// FetchError 表示对上游的 HTTP 请求收到了非成功状态码，
// 包括拉取远程图像和调用适配器端点两种情况。
type FetchError struct {
	URL        string
	StatusCode int
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("upstream request to %s failed with status %d", e.URL, e.StatusCode)
}

// Normalizer 将调用方提供的图像引用 (data-URL 或远程 URL)
// 归一化为 Binary，供各个上游适配器使用。
type Normalizer struct {
	client *pkghttp.Client
}

// NewNormalizer 创建一个 Normalizer。client 用于拉取远程图像。
func NewNormalizer(client *pkghttp.Client) *Normalizer {
	return &Normalizer{client: client}
}

// DecodeImageReference 将图像引用解码为 Binary。
// 以 "data:" 开头的引用按 data-URL 就地解码，其余引用视为远程 URL 拉取。
// 字节内容不做图像格式校验: 畸形数据原样透传，由下游适配器拒绝。
func (n *Normalizer) DecodeImageReference(ctx context.Context, ref string) (*Binary, error) {
	if strings.HasPrefix(ref, "data:") {
		return decodeDataURL(ref)
	}
	return n.fetchRemote(ctx, ref)
}

// decodeDataURL 按第一个逗号拆分 data-URL，从头部提取 MIME 类型
// (形如 data:<mime>;base64)，缺省为 image/png，剩余部分做 base64 解码。
func decodeDataURL(ref string) (*Binary, error) {
	header, payload, found := strings.Cut(ref, ",")
	if !found {
		return nil, ErrMalformedDataURL
	}

	mimeType := "image/png"
	meta := strings.TrimPrefix(header, "data:")
	meta = strings.TrimSuffix(meta, ";base64")
	if meta != "" {
		mimeType = meta
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("invalid base64 payload in data URL: %w", err)
	}

	return &Binary{Bytes: data, MIMEType: mimeType}, nil
}

// fetchRemote 阻塞式拉取远程图像。非 2xx 状态返回 FetchError。
func (n *Normalizer) fetchRemote(ctx context.Context, url string) (*Binary, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("invalid image URL %q: %w", url, err)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image from %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image body from %s: %w", url, err)
	}

	mimeType := resp.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = mimetype.Detect(data).String()
	}

	return &Binary{Bytes: data, MIMEType: mimeType}, nil
}

// EncodeDataURL 将 Binary 编码为 data:<mime>;base64,<bytes> 形式。
// 纯函数，无失败路径。
func EncodeDataURL(bin *Binary) string {
	return fmt.Sprintf("data:%s;base64,%s", bin.MIMEType, base64.StdEncoding.EncodeToString(bin.Bytes))
}

// PreferURL 在适配器响应同时携带托管 URL 和内联字节时选择托管 URL，
// 它对调用方更廉价; 只有在没有托管 URL 时才把字节编码为 data-URL。
func PreferURL(url string, bin *Binary) string {
	if url != "" {
		return url
	}
	if bin != nil {
		return EncodeDataURL(bin)
	}
	return ""
}
