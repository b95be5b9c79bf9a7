package domain

import (
	"sort"
	"time"
)

const (
	StatusGenerated = "generated"
	StatusFailed    = "failed"
	StatusPlanned   = "planned"
)

const (
	FileStatusWritten = "written"
	FileStatusPlanned = "planned"
	FileStatusLink    = "link"
	FileStatusFailed  = "failed"
)

const (
	FileKindQR        = "qr"
	FileKindThumbnail = "thumbnail"
	FileKindPreview   = "preview"
)

const (
	ErrCodeEmptyInput        = "empty_input"
	ErrCodeInvalidYouTubeURL = "invalid_youtube_url"
	ErrCodeQRFailed          = "qr_failed"
	ErrCodeTargetConflict    = "target_conflict"
	ErrCodeIOFailed          = "io_failed"
)

// Report 是 gen 的对外稳定输出（stdout JSON / report.json）。
type Report struct {
	ID     string `json:"id"`
	OutDir string `json:"out_dir"`
	DryRun bool   `json:"dry_run"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary ReportSummary `json:"summary"`
	Items   []ItemResult  `json:"items"`
}

type ReportSummary struct {
	Generated int `json:"generated"`
	Planned   int `json:"planned"`
	Failed    int `json:"failed"`
}

type ItemResult struct {
	// Index 是输入在命令行中的位置，用于稳定排序。
	Index int    `json:"index"`
	Input string `json:"input"`
	Kind  string `json:"kind"`

	VideoID      string `json:"video_id,omitempty"`
	OriginalURL  string `json:"original_url,omitempty"`
	EmbedURL     string `json:"embed_url,omitempty"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
	Title        string `json:"title,omitempty"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	Messages []string     `json:"messages"`
	Files    []FileResult `json:"files"`
}

type FileResult struct {
	Kind   string `json:"kind"`
	Path   string `json:"path,omitempty"`
	URL    string `json:"url,omitempty"`
	Status string `json:"status"`
}

// Finalize：时间统一为 UTC；items 按 Index 稳定排序；summary 由 items 计算。
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool { return r.Items[i].Index < r.Items[j].Index })

	var s ReportSummary
	for i := range r.Items {
		it := &r.Items[i]
		if it.Messages == nil {
			it.Messages = []string{}
		}
		if it.Files == nil {
			it.Files = []FileResult{}
		}
		switch it.Status {
		case StatusGenerated:
			s.Generated++
		case StatusPlanned:
			s.Planned++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
}
