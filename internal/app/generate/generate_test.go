package generate

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/John-Robertt/ytqr/internal/classify"
	"github.com/John-Robertt/ytqr/internal/config"
	"github.com/John-Robertt/ytqr/internal/domain"
	"github.com/John-Robertt/ytqr/internal/youtube"
)

type stubThumbs struct {
	mu    sync.Mutex
	calls []domain.VideoID
	data  []byte
	err   error
}

func (s *stubThumbs) Fetch(ctx context.Context, id domain.VideoID) (youtube.Thumbnail, error) {
	s.mu.Lock()
	s.calls = append(s.calls, id)
	s.mu.Unlock()
	if s.err != nil {
		return youtube.Thumbnail{}, s.err
	}
	return youtube.Thumbnail{
		VideoID: id,
		Quality: domain.ThumbMaxRes,
		URL:     id.ThumbnailURL(domain.ThumbMaxRes),
		Data:    s.data,
	}, nil
}

type stubTitles struct{ title string }

func (s stubTitles) Fetch(ctx context.Context, id domain.VideoID) (string, error) {
	if s.title == "" {
		return "", errors.New("no title")
	}
	return s.title, nil
}

type recordObserver struct {
	startTotal int
	done       []int
}

func (o *recordObserver) OnStart(eff config.EffectiveConfig, total int) { o.startTotal = total }

func (o *recordObserver) OnItemDone(done, total int, res domain.ItemResult, dur time.Duration) {
	o.done = append(o.done, done)
}

func testConfig(out string) config.EffectiveConfig {
	return config.EffectiveConfig{
		Out:         out,
		Size:        128,
		Level:       "M",
		Concurrency: 2,
		Thumbnail:   true,
		BareVideoID: true,
	}
}

func mustRead(t *testing.T, path string) []byte {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("读取 %s 失败：%v", path, err)
	}
	return b
}

func TestExecute_YouTubeWritesQRThumbnailPreview(t *testing.T) {
	out := t.TempDir()
	thumbs := &stubThumbs{data: []byte("jpeg-bytes")}
	eff := testConfig(out)
	eff.FetchTitle = true

	rep := Execute(context.Background(), eff, []string{"  https://youtu.be/dQw4w9WgXcQ  "}, Deps{
		Thumbnails: thumbs,
		Titles:     stubTitles{title: "Never Gonna Give You Up"},
	})

	if rep.ID == "" {
		t.Fatalf("report id 不应为空")
	}
	if rep.Summary.Generated != 1 || rep.Summary.Failed != 0 {
		t.Fatalf("summary 不符合预期：%+v", rep.Summary)
	}
	it := rep.Items[0]
	if it.Kind != string(domain.KindYouTube) || it.VideoID != "dQw4w9WgXcQ" {
		t.Fatalf("分类结果不符合预期：%+v", it)
	}
	if it.OriginalURL != "https://youtu.be/dQw4w9WgXcQ" {
		t.Fatalf("original_url 应为 trim 后的输入，实际=%q", it.OriginalURL)
	}
	if it.EmbedURL != "https://www.youtube.com/embed/dQw4w9WgXcQ" {
		t.Fatalf("embed_url 不符合预期：%q", it.EmbedURL)
	}
	if it.Title != "Never Gonna Give You Up" {
		t.Fatalf("title 不符合预期：%q", it.Title)
	}

	dir := filepath.Join(out, "dQw4w9WgXcQ")
	png := mustRead(t, filepath.Join(dir, QRFileName))
	if !strings.HasPrefix(string(png), "\x89PNG") {
		t.Fatalf("qrcode.png 不是 PNG")
	}
	if got := string(mustRead(t, filepath.Join(dir, "youtube_thumbnail_dQw4w9WgXcQ.jpg"))); got != "jpeg-bytes" {
		t.Fatalf("缩略图内容不符合预期：%q", got)
	}
	page := string(mustRead(t, filepath.Join(dir, PreviewFileName)))
	if !strings.Contains(page, "https://www.youtube.com/embed/dQw4w9WgXcQ") {
		t.Fatalf("预览页缺少嵌入地址")
	}
	if !strings.Contains(page, "Never Gonna Give You Up") {
		t.Fatalf("预览页缺少标题")
	}

	wantMsgs := []string{MsgQRDownloaded, MsgThumbSaved, MsgGenerated}
	if strings.Join(it.Messages, "|") != strings.Join(wantMsgs, "|") {
		t.Fatalf("messages 不符合预期：%v", it.Messages)
	}
	if len(it.Files) != 3 {
		t.Fatalf("期望 3 个文件，实际=%+v", it.Files)
	}
	for _, f := range it.Files {
		if f.Status != domain.FileStatusWritten {
			t.Fatalf("文件状态应为 written：%+v", f)
		}
	}
}

func TestExecute_ThumbnailFailureFallsBackToLink(t *testing.T) {
	out := t.TempDir()
	link := "https://img.youtube.com/vi/dQw4w9WgXcQ/hqdefault.jpg"
	thumbs := &stubThumbs{err: &youtube.FetchError{VideoID: "dQw4w9WgXcQ", LinkURL: link}}

	rep := Execute(context.Background(), testConfig(out), []string{"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=42"}, Deps{Thumbnails: thumbs})

	it := rep.Items[0]
	if it.Status != domain.StatusGenerated {
		t.Fatalf("缩略图失败不应导致条目失败：%+v", it)
	}
	var linkFile *domain.FileResult
	for i := range it.Files {
		if it.Files[i].Kind == domain.FileKindThumbnail {
			linkFile = &it.Files[i]
		}
	}
	if linkFile == nil || linkFile.Status != domain.FileStatusLink || linkFile.URL != link {
		t.Fatalf("期望缩略图退化为链接，实际=%+v", it.Files)
	}
	found := false
	for _, m := range it.Messages {
		if m == MsgThumbLink {
			found = true
		}
	}
	if !found {
		t.Fatalf("缺少链接回退提示：%v", it.Messages)
	}
	if _, err := os.Stat(filepath.Join(out, "dQw4w9WgXcQ", "youtube_thumbnail_dQw4w9WgXcQ.jpg")); !os.IsNotExist(err) {
		t.Fatalf("失败时不应写缩略图文件：%v", err)
	}
}

func TestExecute_TextInput(t *testing.T) {
	out := t.TempDir()
	thumbs := &stubThumbs{data: []byte("x")}

	rep := Execute(context.Background(), testConfig(out), []string{"hello world"}, Deps{Thumbnails: thumbs})

	it := rep.Items[0]
	if it.Kind != string(domain.KindText) || it.Status != domain.StatusGenerated {
		t.Fatalf("文本输入结果不符合预期：%+v", it)
	}
	if len(thumbs.calls) != 0 {
		t.Fatalf("文本输入不应请求缩略图：%v", thumbs.calls)
	}
	key := OutputKey(domain.PlainText("hello world"))
	if !strings.HasPrefix(key, "text-") || len(key) != len("text-")+12 {
		t.Fatalf("文本 key 不符合预期：%q", key)
	}
	if _, err := os.Stat(filepath.Join(out, key, QRFileName)); err != nil {
		t.Fatalf("期望写出 qrcode.png：%v", err)
	}
	if it.Messages[len(it.Messages)-1] != MsgQRGenerated {
		t.Fatalf("文本输入最后一条提示应为 %q，实际=%v", MsgQRGenerated, it.Messages)
	}
}

func TestExecute_ItemFailuresDoNotAbortBatch(t *testing.T) {
	out := t.TempDir()
	inputs := []string{"   ", "https://youtube.com/", "plain"}

	rep := Execute(context.Background(), testConfig(out), inputs, Deps{})

	if rep.Summary.Failed != 2 || rep.Summary.Generated != 1 {
		t.Fatalf("summary 不符合预期：%+v", rep.Summary)
	}
	cases := []struct {
		code string
		msg  string
	}{
		{domain.ErrCodeEmptyInput, MsgEmptyInput},
		{domain.ErrCodeInvalidYouTubeURL, MsgInvalidYouTube},
	}
	for i, tc := range cases {
		it := rep.Items[i]
		if it.Index != i {
			t.Fatalf("items 未按 index 排序：%+v", rep.Items)
		}
		if it.Status != domain.StatusFailed || it.ErrorCode != tc.code {
			t.Fatalf("第 %d 条期望失败 %s，实际=%+v", i, tc.code, it)
		}
		if len(it.Messages) != 1 || it.Messages[0] != tc.msg {
			t.Fatalf("第 %d 条提示不符合预期：%v", i, it.Messages)
		}
	}
}

func TestExecute_DryRunWritesNothing(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out")
	eff := testConfig(out)
	eff.DryRun = true
	thumbs := &stubThumbs{data: []byte("x")}

	rep := Execute(context.Background(), eff, []string{"dQw4w9WgXcQ", "text"}, Deps{Thumbnails: thumbs})

	if rep.Summary.Planned != 2 {
		t.Fatalf("dry-run 期望 2 条 planned，实际=%+v", rep.Summary)
	}
	if _, err := os.Stat(out); !os.IsNotExist(err) {
		t.Fatalf("dry-run 不应创建输出目录：%v", err)
	}
	if len(thumbs.calls) != 0 {
		t.Fatalf("dry-run 不应请求缩略图")
	}
	for _, f := range rep.Items[0].Files {
		if f.Status != domain.FileStatusPlanned {
			t.Fatalf("dry-run 文件状态应为 planned：%+v", f)
		}
	}
}

func TestExecute_TargetConflict(t *testing.T) {
	out := t.TempDir()
	key := OutputKey(domain.PlainText("x"))
	if err := os.MkdirAll(filepath.Join(out, key, QRFileName), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}

	rep := Execute(context.Background(), testConfig(out), []string{"x"}, Deps{})

	if it := rep.Items[0]; it.ErrorCode != domain.ErrCodeTargetConflict {
		t.Fatalf("期望 target_conflict，实际=%+v", it)
	}
}

func TestExecuteWithObserver_EmitsEvents(t *testing.T) {
	obs := &recordObserver{}
	inputs := []string{"a", "b", "c"}

	ExecuteWithObserver(context.Background(), testConfig(t.TempDir()), inputs, Deps{}, obs)

	if obs.startTotal != 3 {
		t.Fatalf("OnStart total 不符合预期：%d", obs.startTotal)
	}
	if len(obs.done) != 3 || obs.done[2] != 3 {
		t.Fatalf("OnItemDone 次数/计数不符合预期：%v", obs.done)
	}
}

func TestOutputKey(t *testing.T) {
	if got := OutputKey(domain.YouTube("dQw4w9WgXcQ", "https://youtu.be/dQw4w9WgXcQ")); got != "dQw4w9WgXcQ" {
		t.Fatalf("标准 id 应直接作为 key，实际=%q", got)
	}
	got := OutputKey(domain.YouTube("..", "https://youtu.be/.."))
	if !strings.HasPrefix(got, "yt-") || strings.Contains(got, "..") {
		t.Fatalf("非标准 id 不应直接作为路径，实际=%q", got)
	}
	if OutputKey(domain.PlainText("a")) == OutputKey(domain.PlainText("b")) {
		t.Fatalf("不同文本应得到不同 key")
	}
}

func TestExecute_SameVideoDifferentURLsGetSeparateDirs(t *testing.T) {
	out := t.TempDir()
	inputs := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"same text",
		"same text",
	}

	rep := Execute(context.Background(), testConfig(out), inputs, Deps{})

	if rep.Summary.Generated != len(inputs) {
		t.Fatalf("summary 不符合预期：%+v", rep.Summary)
	}
	owner := map[string]int{}
	for _, it := range rep.Items {
		for _, f := range it.Files {
			if f.Status != domain.FileStatusWritten {
				continue
			}
			if prev, ok := owner[f.Path]; ok {
				t.Fatalf("%s 同时被第 %d 条和第 %d 条写入", f.Path, prev, it.Index)
			}
			owner[f.Path] = it.Index
		}
	}

	for i, want := range inputs[:2] {
		var preview string
		for _, f := range rep.Items[i].Files {
			if f.Kind == domain.FileKindPreview {
				preview = f.Path
			}
		}
		if preview == "" {
			t.Fatalf("第 %d 条缺少预览页", i)
		}
		if page := string(mustRead(t, preview)); !strings.Contains(page, want) {
			t.Fatalf("第 %d 条预览页应包含自己的链接 %q", i, want)
		}
	}
	if _, err := os.Stat(filepath.Join(out, "dQw4w9WgXcQ-2", QRFileName)); err != nil {
		t.Fatalf("第二个链接应写入 dQw4w9WgXcQ-2：%v", err)
	}
}

func TestAssignKeys(t *testing.T) {
	keys := assignKeys(classify.Default, []string{"a", "", "https://youtube.com/", "a", "a"})
	base := OutputKey(domain.PlainText("a"))
	want := []string{base, "", "", base + "-2", base + "-3"}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("keys[%d] 期望 %q，实际 %q", i, want[i], keys[i])
		}
	}
}
