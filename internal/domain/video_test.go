package domain

import "testing"

func TestVideoID_URLs(t *testing.T) {
	id := VideoID("dQw4w9WgXcQ")

	cases := []struct{ got, want string }{
		{id.EmbedURL(), "https://www.youtube.com/embed/dQw4w9WgXcQ"},
		{id.WatchURL(), "https://www.youtube.com/watch?v=dQw4w9WgXcQ"},
		{id.ThumbnailURL(ThumbMaxRes), "https://img.youtube.com/vi/dQw4w9WgXcQ/maxresdefault.jpg"},
		{id.ThumbnailURL(ThumbHQ), "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg"},
		{id.ThumbnailFileName(), "youtube_thumbnail_dQw4w9WgXcQ.jpg"},
	}
	for _, c := range cases {
		if c.got != c.want {
			t.Fatalf("期望 %q，实际 %q", c.want, c.got)
		}
	}
}

func TestParseVideoID(t *testing.T) {
	if _, ok := ParseVideoID(" dQw4w9WgXcQ "); !ok {
		t.Fatalf("期望合法 VideoID")
	}
	for _, s := range []string{"", "short", "youtube.com", "dQw4w9WgXcQx"} {
		if _, ok := ParseVideoID(s); ok {
			t.Fatalf("%q 不应被视为合法 VideoID", s)
		}
	}
}

func TestClassifiedInput_Payload(t *testing.T) {
	yt := YouTube("dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ")
	if yt.Payload() != "https://youtu.be/dQw4w9WgXcQ" || !yt.IsYouTube() {
		t.Fatalf("YouTube payload 应为原始 URL：%+v", yt)
	}
	tx := PlainText("hello")
	if tx.Payload() != "hello" || tx.IsYouTube() {
		t.Fatalf("文本 payload 应为原文：%+v", tx)
	}
}
