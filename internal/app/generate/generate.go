package generate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/ytqr/internal/classify"
	"github.com/John-Robertt/ytqr/internal/config"
	"github.com/John-Robertt/ytqr/internal/domain"
	"github.com/John-Robertt/ytqr/internal/infra/fsx"
	"github.com/John-Robertt/ytqr/internal/qr"
	"github.com/John-Robertt/ytqr/internal/render"
	"github.com/John-Robertt/ytqr/internal/youtube"
)

// ThumbnailFetcher 由 youtube.Thumbnails 实现；测试里替换为 stub。
type ThumbnailFetcher interface {
	Fetch(ctx context.Context, id domain.VideoID) (youtube.Thumbnail, error)
}

// TitleFetcher 由 youtube.Titles 实现。
type TitleFetcher interface {
	Fetch(ctx context.Context, id domain.VideoID) (string, error)
}

// Deps 是生成流程依赖的外部协作者。为 nil 的协作者对应的步骤会被跳过。
type Deps struct {
	Thumbnails ThumbnailFetcher
	Titles     TitleFetcher
	Log        logrus.FieldLogger
}

// Execute 处理一批输入并返回稳定的 Report。单条失败只影响自己。
func Execute(ctx context.Context, eff config.EffectiveConfig, inputs []string, deps Deps) domain.Report {
	return ExecuteWithObserver(ctx, eff, inputs, deps, nil)
}

// ExecuteWithObserver 与 Execute 相同，但会向 obs 发送进度事件。
func ExecuteWithObserver(ctx context.Context, eff config.EffectiveConfig, inputs []string, deps Deps, obs Observer) domain.Report {
	if deps.Log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		deps.Log = l
	}

	rep := domain.Report{
		ID:        uuid.NewString(),
		OutDir:    eff.Out,
		DryRun:    eff.DryRun,
		StartedAt: time.Now().UTC(),
		Items:     make([]domain.ItemResult, 0, len(inputs)),
	}
	log := deps.Log.WithField("report_id", rep.ID)

	if obs != nil {
		obs.OnStart(eff, len(inputs))
	}

	cls := classify.Classifier{AcceptBareID: eff.BareVideoID}

	workers := eff.Concurrency
	if workers < 1 {
		workers = 1
	}
	if workers > len(inputs) {
		workers = len(inputs)
	}

	keys := assignKeys(cls, inputs)

	type job struct {
		idx int
		raw string
		key string
	}
	type result struct {
		res domain.ItemResult
		dur time.Duration
	}

	jobs := make(chan job)
	results := make(chan result, len(inputs))

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := range jobs {
				started := time.Now()
				r := execOne(ctx, eff, cls, deps, log, j.idx, j.raw, j.key)
				results <- result{res: r, dur: time.Since(started)}
			}
		}()
	}

	go func() {
		for i, raw := range inputs {
			jobs <- job{idx: i, raw: raw, key: keys[i]}
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	done := 0
	for r := range results {
		done++
		rep.Items = append(rep.Items, r.res)
		if obs != nil {
			obs.OnItemDone(done, len(inputs), r.res, r.dur)
		}
	}

	rep.FinishedAt = time.Now().UTC()
	rep.Finalize()
	return rep
}

// OutputKey 是某条输入的输出子目录名。
// 非标准形态的 VideoID（例如 ".."）不能直接做路径，统一走哈希。
func OutputKey(in domain.ClassifiedInput) string {
	if in.IsYouTube() {
		if in.VideoID.WellFormed() {
			return string(in.VideoID)
		}
		return "yt-" + shortHash(in.OriginalURL)
	}
	return "text-" + shortHash(in.Text)
}

// assignKeys 在并发执行前为每条输入分配唯一的输出子目录。
// 同一视频的不同链接形态、或重复的文本会得到相同的 OutputKey；后出现者追加 "-2"、"-3"…
// 分类失败的输入不落盘，对应位置为空串。
func assignKeys(cls classify.Classifier, inputs []string) []string {
	keys := make([]string, len(inputs))
	used := make(map[string]bool, len(inputs))
	for i, raw := range inputs {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		in, err := cls.Classify(raw)
		if err != nil {
			continue
		}
		base := OutputKey(in)
		key := base
		for n := 2; used[key]; n++ {
			key = fmt.Sprintf("%s-%d", base, n)
		}
		used[key] = true
		keys[i] = key
	}
	return keys
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:12]
}

func execOne(ctx context.Context, eff config.EffectiveConfig, cls classify.Classifier, deps Deps, log logrus.FieldLogger, idx int, raw, key string) domain.ItemResult {
	item := domain.ItemResult{
		Index:    idx,
		Input:    raw,
		Status:   domain.StatusGenerated,
		Messages: []string{},
		Files:    []domain.FileResult{},
	}

	if strings.TrimSpace(raw) == "" {
		fail(&item, domain.ErrCodeEmptyInput, "输入为空", MsgEmptyInput)
		return item
	}

	in, err := cls.Classify(raw)
	if err != nil {
		var ee *classify.ExtractionError
		if errors.As(err, &ee) {
			item.Kind = string(domain.KindYouTube)
		}
		fail(&item, domain.ErrCodeInvalidYouTubeURL, err.Error(), MsgInvalidYouTube)
		return item
	}

	item.Kind = string(in.Kind)
	if in.IsYouTube() {
		item.VideoID = string(in.VideoID)
		item.OriginalURL = in.OriginalURL
		item.EmbedURL = in.VideoID.EmbedURL()
		item.ThumbnailURL = in.VideoID.ThumbnailURL(domain.ThumbMaxRes)
	}

	png, err := qr.EncodePNG(in.Payload(), qr.Options{Size: eff.Size, Level: eff.Level})
	if err != nil {
		fail(&item, domain.ErrCodeQRFailed, fmt.Sprintf("生成 QR 失败：%v", err), "")
		return item
	}

	outDir := filepath.Join(eff.Out, key)
	log = log.WithFields(logrus.Fields{"index": idx, "kind": in.Kind, "out": outDir})

	// dry-run：只分类 + 编码验证，不下载、不写盘。
	if eff.DryRun {
		item.Status = domain.StatusPlanned
		item.Files = append(item.Files, domain.FileResult{Kind: domain.FileKindQR, Path: filepath.Join(outDir, QRFileName), Status: domain.FileStatusPlanned})
		if in.IsYouTube() && eff.Thumbnail {
			item.Files = append(item.Files, domain.FileResult{Kind: domain.FileKindThumbnail, Path: filepath.Join(outDir, in.VideoID.ThumbnailFileName()), URL: item.ThumbnailURL, Status: domain.FileStatusPlanned})
		}
		item.Files = append(item.Files, domain.FileResult{Kind: domain.FileKindPreview, Path: filepath.Join(outDir, PreviewFileName), Status: domain.FileStatusPlanned})
		return item
	}

	if err := writeOutput(&item, outDir, QRFileName, domain.FileKindQR, png); err != nil {
		return item
	}
	item.Messages = append(item.Messages, MsgQRDownloaded)

	view := render.NewView(in)
	view.QRSrc = QRFileName
	view.QRDownload = QRFileName
	view.QRSize = eff.Size

	if in.IsYouTube() {
		if eff.Thumbnail && deps.Thumbnails != nil {
			saveThumbnail(ctx, &item, &view, in.VideoID, outDir, deps.Thumbnails, log)
		}
		if eff.FetchTitle && deps.Titles != nil && in.VideoID.WellFormed() {
			if title, err := deps.Titles.Fetch(ctx, in.VideoID); err == nil {
				item.Title = title
				view.Title = title
			} else {
				log.WithError(err).Debug("标题查询失败，忽略")
			}
		}
		item.Messages = append(item.Messages, MsgGenerated)
	} else {
		item.Messages = append(item.Messages, MsgQRGenerated)
	}
	view.Messages = item.Messages

	var page strings.Builder
	if err := render.Preview(&page, view); err != nil {
		fail(&item, domain.ErrCodeIOFailed, fmt.Sprintf("渲染预览页失败：%v", err), "")
		return item
	}
	if err := writeOutput(&item, outDir, PreviewFileName, domain.FileKindPreview, []byte(page.String())); err != nil {
		return item
	}

	log.Debug("生成完成")
	return item
}

// saveThumbnail 下载缩略图并落盘；任何失败都退化为“给出链接”，不影响条目状态。
func saveThumbnail(ctx context.Context, item *domain.ItemResult, view *render.View, id domain.VideoID, outDir string, f ThumbnailFetcher, log logrus.FieldLogger) {
	link := id.ThumbnailURL(domain.ThumbHQ)

	// 非标准形态的 id 拼进 URL/文件名都不安全，直接给链接。
	if !id.WellFormed() {
		linkFallback(item, link)
		return
	}

	th, err := f.Fetch(ctx, id)
	if err != nil {
		var fe *youtube.FetchError
		if errors.As(err, &fe) && fe.LinkURL != "" {
			link = fe.LinkURL
		}
		log.WithError(err).Warn("缩略图下载失败，改为给出链接")
		linkFallback(item, link)
		return
	}

	name := id.ThumbnailFileName()
	if err := fsx.WriteFile(outDir, name, th.Data); err != nil {
		log.WithError(err).Warn("缩略图写入失败，改为给出链接")
		linkFallback(item, th.URL)
		return
	}

	item.ThumbnailURL = th.URL
	item.Files = append(item.Files, domain.FileResult{Kind: domain.FileKindThumbnail, Path: filepath.Join(outDir, name), URL: th.URL, Status: domain.FileStatusWritten})
	item.Messages = append(item.Messages, MsgThumbSaved)

	view.ThumbnailSrc = render.LocalURL(name)
	view.ThumbnailDownload = view.ThumbnailSrc
}

func linkFallback(item *domain.ItemResult, link string) {
	item.Files = append(item.Files, domain.FileResult{Kind: domain.FileKindThumbnail, URL: link, Status: domain.FileStatusLink})
	item.Messages = append(item.Messages, MsgThumbLink)
}

func writeOutput(item *domain.ItemResult, dir, name, kind string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := fsx.WriteFile(dir, name, data); err != nil {
		code := domain.ErrCodeIOFailed
		if fsx.IsPathTypeConflict(err) {
			code = domain.ErrCodeTargetConflict
		}
		item.Files = append(item.Files, domain.FileResult{Kind: kind, Path: path, Status: domain.FileStatusFailed})
		fail(item, code, fmt.Sprintf("写入 %s 失败：%v", name, err), "")
		return err
	}
	item.Files = append(item.Files, domain.FileResult{Kind: kind, Path: path, Status: domain.FileStatusWritten})
	return nil
}

func fail(item *domain.ItemResult, code, msg, toast string) {
	item.Status = domain.StatusFailed
	item.ErrorCode = code
	item.ErrorMsg = msg
	if toast != "" {
		item.Messages = append(item.Messages, toast)
	}
}
