package generate

import "github.com/John-Robertt/ytqr/internal/classify"

// 面向用户的提示文案。
const (
	MsgEmptyInput     = "⚠️ Please enter a URL or text"
	MsgInvalidYouTube = "❌ " + classify.InvalidYouTubeMessage
	MsgQRGenerated    = "✨ QR Code generated!"
	MsgGenerated      = "✨ Generated successfully!"
	MsgQRDownloaded   = "✅ QR Code downloaded!"
	MsgThumbSaved     = "✅ Thumbnail downloaded successfully!"
	MsgThumbLink      = "✅ Thumbnail opened in new tab!"
)

const (
	QRFileName      = "qrcode.png"
	PreviewFileName = "index.html"
	ReportFileName  = "report.json"
)
