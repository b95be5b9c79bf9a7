package youtube

import (
	"fmt"
	"strings"

	"github.com/John-Robertt/ytqr/internal/domain"
)

// HTTPStatusError 表示站点返回了非 2xx。
type HTTPStatusError struct {
	URL        string
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	if e == nil {
		return "HTTP status error"
	}
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Attempt 记录一次缩略图尝试。
type Attempt struct {
	Quality domain.ThumbnailQuality
	URL     string
	Err     error
}

// FetchError 表示所有画质都没拿到缩略图。
// LinkURL 是最后尝试的地址：调用方可以退化为“给出链接”而不是下载文件。
type FetchError struct {
	VideoID  domain.VideoID
	LinkURL  string
	Attempts []Attempt
}

func (e *FetchError) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Quality, a.Err))
	}
	return fmt.Sprintf("缩略图下载失败（%s）：%s", e.VideoID, strings.Join(parts, "; "))
}

// Unwrap 返回最后一次尝试的错误。
func (e *FetchError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}
