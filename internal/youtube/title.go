package youtube

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/John-Robertt/ytqr/internal/domain"
)

// Titles 从 watch 页面读取视频标题（只用于展示，失败不影响生成）。
type Titles struct {
	Client *http.Client
	// BaseURL 为空时使用 https://www.youtube.com。
	BaseURL string
}

func (t Titles) pageURL(id domain.VideoID) string {
	base := strings.TrimRight(strings.TrimSpace(t.BaseURL), "/")
	if base == "" {
		return id.WatchURL()
	}
	return base + "/watch?v=" + string(id)
}

func (t Titles) Fetch(ctx context.Context, id domain.VideoID) (string, error) {
	if t.Client == nil {
		return "", errors.New("http client 不能为空")
	}
	if id == "" {
		return "", errors.New("video id 不能为空")
	}
	b, err := get(ctx, t.Client, t.pageURL(id))
	if err != nil {
		return "", err
	}
	return ParseTitle(b)
}

// ParseTitle 是纯函数：优先 og:title，其次 <title>（去掉 " - YouTube" 后缀）。
func ParseTitle(html []byte) (string, error) {
	if len(html) == 0 {
		return "", errors.New("html 为空")
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(html))
	if err != nil {
		return "", err
	}

	if v, ok := doc.Find(`meta[property="og:title"]`).First().Attr("content"); ok {
		if s := normSpace(v); s != "" {
			return s, nil
		}
	}
	if v, ok := doc.Find(`meta[name="title"]`).First().Attr("content"); ok {
		if s := normSpace(v); s != "" {
			return s, nil
		}
	}

	s := normSpace(doc.Find("head title").First().Text())
	s = strings.TrimSpace(strings.TrimSuffix(s, "- YouTube"))
	if s == "" || s == "YouTube" {
		return "", errors.New("页面中没有标题")
	}
	return s, nil
}

func normSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
