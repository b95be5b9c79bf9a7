// Package render 把生成结果渲染成 HTML 页面。
//
// 所有数据都通过 View/IndexView 显式传入，模板不读取任何全局状态。
package render

import (
	"embed"
	"encoding/base64"
	"html/template"
	"io"
	"net/url"
	"time"

	"github.com/John-Robertt/ytqr/internal/domain"
)

//go:embed templates/*.html
var templateFS embed.FS

var (
	previewTmpl = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/preview.html"))
	indexTmpl   = template.Must(template.ParseFS(templateFS, "templates/layout.html", "templates/index.html"))
)

// Placeholders 是输入框轮换展示的提示文案。
var Placeholders = []string{
	"Paste YouTube link here...",
	"Or any URL you want...",
	"Text works too! ✨",
}

// PlaceholderInterval 是提示文案的轮换周期。
const PlaceholderInterval = 3 * time.Second

// View 是预览页的渲染上下文。
type View struct {
	PageTitle string
	Payload   string

	// QRSrc 可以是相对路径（qrcode.png）或 data URI。
	QRSrc      template.URL
	QRDownload template.URL
	QRSize     int

	VideoID              string
	Title                string
	EmbedURL             string
	ThumbnailSrc         template.URL
	FallbackThumbnailURL string
	ThumbnailDownload    template.URL
	ThumbnailFileName    string

	Messages []string
	Error    string
	BackURL  string
}

// IndexView 是输入页的渲染上下文。
type IndexView struct {
	Action       string
	Input        string
	Error        string
	Placeholders []string
	RotateMillis int64
}

func Preview(w io.Writer, v View) error {
	if v.PageTitle == "" {
		v.PageTitle = "QR Code"
	}
	return previewTmpl.ExecuteTemplate(w, "preview.html", v)
}

func Index(w io.Writer, v IndexView) error {
	if len(v.Placeholders) == 0 {
		v.Placeholders = Placeholders
	}
	if v.RotateMillis <= 0 {
		v.RotateMillis = PlaceholderInterval.Milliseconds()
	}
	if v.Action == "" {
		v.Action = "/generate"
	}
	return indexTmpl.ExecuteTemplate(w, "index.html", v)
}

// NewView 从分类结果填充 YouTube 相关字段（嵌入地址、缩略图地址与回退地址）。
func NewView(in domain.ClassifiedInput) View {
	v := View{Payload: in.Payload()}
	if !in.IsYouTube() {
		v.PageTitle = "QR Code"
		return v
	}
	id := in.VideoID
	v.PageTitle = "YouTube QR"
	v.VideoID = string(id)
	v.EmbedURL = id.EmbedURL()
	v.ThumbnailSrc = template.URL(id.ThumbnailURL(domain.ThumbMaxRes))
	v.FallbackThumbnailURL = id.ThumbnailURL(domain.ThumbHQ)
	v.ThumbnailDownload = v.ThumbnailSrc
	v.ThumbnailFileName = id.ThumbnailFileName()
	return v
}

// DataURI 把 PNG/JPEG 字节包成 data URI，用于不落盘的页面。
func DataURI(mime string, b []byte) template.URL {
	return template.URL("data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(b))
}

// LocalURL 把同目录下的文件名当作页面内的相对地址。
func LocalURL(name string) template.URL {
	return template.URL(url.PathEscape(name))
}
