package youtube

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/John-Robertt/ytqr/internal/domain"
	"github.com/John-Robertt/ytqr/internal/infra/imgx"
)

// 单张缩略图的读取上限；maxresdefault 一般在几百 KB。
var maxThumbnailBytes = 8 << 20

// Thumbnail 是一次成功下载的结果。
type Thumbnail struct {
	VideoID domain.VideoID
	Quality domain.ThumbnailQuality
	URL     string
	Data    []byte // 始终是 JPEG
	Width   int
	Height  int
	// Fallback 为 true 表示高清图不可用，退到了低一档画质。
	Fallback bool
}

// Thumbnails 按 domain.ThumbnailFallbackOrder 逐档下载缩略图。
//
// 约束：
// - 每档只请求一次，不重试；失败就换下一档
// - 非 2xx、无法解码、或 120x90 占位图都视为“该档不可用”
type Thumbnails struct {
	Client *http.Client
	// BaseURL 为空时使用 https://img.youtube.com；测试里指向 httptest。
	BaseURL string
}

func (t Thumbnails) URL(id domain.VideoID, q domain.ThumbnailQuality) string {
	base := strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if base == "" {
		return id.ThumbnailURL(q)
	}
	return fmt.Sprintf("%s/vi/%s/%s.jpg", base, id, q)
}

// Fetch 返回第一档可用的缩略图；全部失败时返回 *FetchError。
func (t Thumbnails) Fetch(ctx context.Context, id domain.VideoID) (Thumbnail, error) {
	if t.Client == nil {
		return Thumbnail{}, errors.New("http client 不能为空")
	}
	if id == "" {
		return Thumbnail{}, errors.New("video id 不能为空")
	}

	fe := &FetchError{VideoID: id}
	for i, q := range domain.ThumbnailFallbackOrder {
		u := t.URL(id, q)
		fe.LinkURL = u

		b, err := get(ctx, t.Client, u)
		if err == nil {
			var th Thumbnail
			th, err = decodeThumbnail(b)
			if err == nil {
				th.VideoID = id
				th.Quality = q
				th.URL = u
				th.Fallback = i > 0
				return th, nil
			}
		}
		fe.Attempts = append(fe.Attempts, Attempt{Quality: q, URL: u, Err: err})
		if ctx.Err() != nil {
			break
		}
	}
	return Thumbnail{}, fe
}

var errPlaceholder = errors.New("占位图（缩略图不存在）")

func decodeThumbnail(b []byte) (Thumbnail, error) {
	info, err := imgx.Probe(b)
	if err != nil {
		return Thumbnail{}, err
	}
	if imgx.IsPlaceholder(info) {
		return Thumbnail{}, errPlaceholder
	}
	jpg, err := imgx.NormalizeJPEG(b)
	if err != nil {
		return Thumbnail{}, err
	}
	return Thumbnail{Data: jpg, Width: info.Width, Height: info.Height}, nil
}

func get(ctx context.Context, c *http.Client, u string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &HTTPStatusError{URL: u, StatusCode: resp.StatusCode}
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, int64(maxThumbnailBytes)+1))
	if err != nil {
		return nil, err
	}
	if len(b) > maxThumbnailBytes {
		return nil, fmt.Errorf("响应超过 %d 字节：%s", maxThumbnailBytes, u)
	}
	return b, nil
}
