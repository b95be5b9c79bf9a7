package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/ytqr/internal/app/generate"
	"github.com/John-Robertt/ytqr/internal/config"
	"github.com/John-Robertt/ytqr/internal/domain"
)

var _ generate.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的进度输出。
//
// 设计目标：
// - 所有过程信息写到 stderr（或 fallback 到 stdout），不污染 stdout 的 JSON 输出契约
// - 每条输入完成时打印一行结果，随后把它的提示（toast）逐行缩进打印
// - keepalive：缩略图下载较慢时也会定期输出一行，降低等待焦虑
type progressUI struct {
	w io.Writer

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total int
	done  int
	ok    int
	fail  int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer) *progressUI {
	return &progressUI{
		w:                  w,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(eff config.EffectiveConfig, total int) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.startedAt = now
	p.total = total

	mode := "generate"
	modeHint := ""
	if eff.DryRun {
		mode = "dry-run"
		modeHint = " (不下载/不写盘)"
	}

	fmt.Fprintf(p.w, "[%s] ytqr gen (%s)\n", now.Format("15:04:05"), mode)
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  out: %s\n", eff.Out)
	fmt.Fprintf(p.w, "  mode: %s%s\n", mode, modeHint)
	fmt.Fprintf(p.w, "  qr: size=%d level=%s\n", eff.Size, eff.Level)
	fmt.Fprintf(p.w, "  thumbnail: %s\n", onOff(eff.Thumbnail))
	fmt.Fprintf(p.w, "  title: %s\n", onOff(eff.FetchTitle))
	fmt.Fprintf(p.w, "  bare_video_id: %s\n", onOff(eff.BareVideoID))
	fmt.Fprintf(p.w, "  concurrency: %d\n", eff.Concurrency)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(eff.ProxyURL))
	fmt.Fprintf(p.w, "  image_proxy: %s\n", onOff(eff.ImageProxy))
	fmt.Fprintf(p.w, "执行: total_inputs=%d\n\n", total)

	if total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
	p.lastPrinted = time.Now()
}

func (p *progressUI) OnItemDone(done, total int, res domain.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total

	fmt.Fprintln(p.w, formatItemLine(done, total, res, dur))
	for _, m := range res.Messages {
		fmt.Fprintf(p.w, "    %s\n", m)
	}
	switch res.Status {
	case domain.StatusFailed:
		p.fail++
	default:
		p.ok++
	}

	p.lastPrinted = time.Now()

	// 最后一条完成：停止 ticker，避免在结束打印后又冒出 keepalive。
	if p.tickerStarted && p.done >= p.total {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func formatItemLine(done, total int, res domain.ItemResult, dur time.Duration) string {
	label := itemLabel(res)
	switch res.Status {
	case domain.StatusFailed:
		return fmt.Sprintf("[%d/%d] %s FAIL %s: %s (%s)",
			done, total, label, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	case domain.StatusPlanned:
		return fmt.Sprintf("[%d/%d] %s PLAN files=%d (%s)",
			done, total, label, len(res.Files), formatShortDuration(dur),
		)
	default:
		return fmt.Sprintf("[%d/%d] %s OK files=%d%s (%s)",
			done, total, label, countWritten(res.Files), thumbnailNote(res.Files), formatShortDuration(dur),
		)
	}
}

func itemLabel(res domain.ItemResult) string {
	if res.VideoID != "" {
		return "youtube:" + res.VideoID
	}
	s := strings.TrimSpace(res.Input)
	if s == "" {
		return "<empty>"
	}
	return fmt.Sprintf("%q", truncate(s, 40))
}

func countWritten(files []domain.FileResult) int {
	n := 0
	for _, f := range files {
		if f.Status == domain.FileStatusWritten {
			n++
		}
	}
	return n
}

// thumbnailNote 只在缩略图退化为链接时给出提示。
func thumbnailNote(files []domain.FileResult) string {
	for _, f := range files {
		if f.Kind == domain.FileKindThumbnail && f.Status == domain.FileStatusLink {
			return " thumbnail=link(" + truncate(f.URL, 90) + ")"
		}
	}
	return ""
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stopCh := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d fail=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.fail, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stopCh:
				return
			}
		}
	}()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
