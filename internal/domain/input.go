package domain

// InputKind 区分一次输入最终走哪条渲染路径。
type InputKind string

const (
	KindYouTube InputKind = "youtube"
	KindText    InputKind = "text"
)

// ClassifiedInput 是分类器的输出（tagged union）。
//
// 约束：
// - Kind==KindYouTube：VideoID 与 OriginalURL 有效，Text 为空
// - Kind==KindText：只有 Text 有效
// - 只在一次生成动作内存在，不做任何持久化
type ClassifiedInput struct {
	Kind InputKind

	VideoID     VideoID
	OriginalURL string

	Text string
}

// YouTube 构造 YouTube 分支。
func YouTube(id VideoID, originalURL string) ClassifiedInput {
	return ClassifiedInput{Kind: KindYouTube, VideoID: id, OriginalURL: originalURL}
}

// PlainText 构造普通文本分支。
func PlainText(s string) ClassifiedInput {
	return ClassifiedInput{Kind: KindText, Text: s}
}

func (in ClassifiedInput) IsYouTube() bool { return in.Kind == KindYouTube }

// Payload 返回交给 QR 编码器的原文：YouTube 编码原始 URL，文本编码文本本身。
func (in ClassifiedInput) Payload() string {
	if in.Kind == KindYouTube {
		return in.OriginalURL
	}
	return in.Text
}
