// Package classify 判断一段输入是 YouTube 链接还是普通文本，并在前者中提取 VideoID。
package classify

import (
	"regexp"
	"strings"

	"github.com/John-Robertt/ytqr/internal/domain"
)

// InvalidYouTubeMessage 是提取失败时给用户的提示文案。
const InvalidYouTubeMessage = "Invalid YouTube URL. Please check and try again."

// YouTube 成员判定：字面量子串匹配（区分大小写），不做域名解析。
// 例如 "example.com/?next=youtube.com" 也会命中；这是接受的误判。
var youtubeMarkers = []string{"youtube.com", "youtu.be"}

// 提取规则按顺序尝试，先命中者胜出。
var patterns = []*regexp.Regexp{
	// watch?v= / youtu.be/ / embed/ 之后的片段，遇到 & ? / 截止。
	regexp.MustCompile(`(?:youtube\.com/watch\?v=|youtu\.be/|youtube\.com/embed/)([^&?/]+)`),
	// 整个输入就是一个裸 VideoID。
	regexp.MustCompile(`^([A-Za-z0-9_-]{11})$`),
}

// ExtractionError 表示输入看起来是 YouTube，但没有任何规则能提取出 VideoID。
// 这是分类器唯一的错误：可恢复、面向用户，调用方应提示用户检查输入。
type ExtractionError struct {
	Input string
}

func (e *ExtractionError) Error() string { return InvalidYouTubeMessage }

// Classifier 持有分类策略。零值即为严格模式（只认子串）。
type Classifier struct {
	// AcceptBareID 为 true 时，整段输入恰好是 11 位 VideoID 也视为 YouTube。
	AcceptBareID bool
}

// Default 与页面行为一致：裸 VideoID 也当作 YouTube 处理。
var Default = Classifier{AcceptBareID: true}

// Classify 使用 Default 分类。
func Classify(raw string) (domain.ClassifiedInput, error) {
	return Default.Classify(raw)
}

// Classify 对输入做分类。
//
// - 空输入属于调用方的前置检查；这里只会得到一个空的 PlainText，不报错
// - 非 YouTube：返回 PlainText（trim 后原样）
// - YouTube 但提取失败：返回 *ExtractionError
func (c Classifier) Classify(raw string) (domain.ClassifiedInput, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return domain.PlainText(""), nil
	}

	if !c.isYouTube(s) {
		return domain.PlainText(s), nil
	}

	id, ok := ExtractVideoID(s)
	if !ok {
		return domain.ClassifiedInput{}, &ExtractionError{Input: s}
	}
	return domain.YouTube(id, s), nil
}

func (c Classifier) isYouTube(s string) bool {
	if IsYouTubeURL(s) {
		return true
	}
	return c.AcceptBareID && patterns[len(patterns)-1].MatchString(s)
}

// IsYouTubeURL 只做子串判定。
func IsYouTubeURL(s string) bool {
	for _, m := range youtubeMarkers {
		if strings.Contains(s, m) {
			return true
		}
	}
	return false
}

// ExtractVideoID 依次尝试 patterns，返回第一个捕获组。
func ExtractVideoID(s string) (domain.VideoID, bool) {
	for _, re := range patterns {
		m := re.FindStringSubmatch(s)
		if len(m) > 1 && m[1] != "" {
			return domain.VideoID(m[1]), true
		}
	}
	return "", false
}
