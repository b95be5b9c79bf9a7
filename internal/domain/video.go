package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// VideoID 是 YouTube 视频的 11 位标识（字母、数字、'-'、'_'）。
//
// 注意：URL 形态提取出来的 VideoID 不强制 11 位（与提取规则保持一致），
// 需要严格校验时用 WellFormed。
type VideoID string

var videoIDRE = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// ParseVideoID 校验严格形态的 VideoID。
func ParseVideoID(s string) (VideoID, bool) {
	s = strings.TrimSpace(s)
	if !videoIDRE.MatchString(s) {
		return "", false
	}
	return VideoID(s), true
}

func (id VideoID) WellFormed() bool { return videoIDRE.MatchString(string(id)) }

// ThumbnailQuality 对应 img.youtube.com 上的文件名。
type ThumbnailQuality string

const (
	ThumbMaxRes ThumbnailQuality = "maxresdefault"
	ThumbHQ     ThumbnailQuality = "hqdefault"
)

// ThumbnailFallbackOrder 是缩略图的尝试顺序：先高清，再标准。
var ThumbnailFallbackOrder = []ThumbnailQuality{ThumbMaxRes, ThumbHQ}

func (id VideoID) EmbedURL() string {
	return "https://www.youtube.com/embed/" + string(id)
}

func (id VideoID) WatchURL() string {
	return "https://www.youtube.com/watch?v=" + string(id)
}

func (id VideoID) ThumbnailURL(q ThumbnailQuality) string {
	return fmt.Sprintf("https://img.youtube.com/vi/%s/%s.jpg", id, q)
}

// ThumbnailFileName 是下载缩略图时使用的文件名。
func (id VideoID) ThumbnailFileName() string {
	return "youtube_thumbnail_" + string(id) + ".jpg"
}
