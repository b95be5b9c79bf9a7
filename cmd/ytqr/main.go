package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/ytqr/internal/app/generate"
	"github.com/John-Robertt/ytqr/internal/classify"
	"github.com/John-Robertt/ytqr/internal/config"
	"github.com/John-Robertt/ytqr/internal/domain"
	"github.com/John-Robertt/ytqr/internal/infra/cache"
	"github.com/John-Robertt/ytqr/internal/infra/fsx"
	"github.com/John-Robertt/ytqr/internal/infra/httpx"
	"github.com/John-Robertt/ytqr/internal/qr"
	"github.com/John-Robertt/ytqr/internal/server"
	"github.com/John-Robertt/ytqr/internal/youtube"
)

func main() {
	args := os.Args[1:]
	if len(args) == 0 || isHelp(args[0]) {
		printUsage()
		return
	}

	var code int
	switch args[0] {
	case "gen":
		code = genCmd(args[1:])
	case "serve":
		code = serveCmd(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "未知命令：%q\n\n", args[0])
		printUsage()
		code = 2
	}
	if code != 0 {
		os.Exit(code)
	}
}

func genCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printGenUsage()
			return 0
		}
	}

	ga, err := parseGenArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printGenUsage()
		return 2
	}

	inputs := ga.Inputs
	if len(inputs) == 0 {
		if isTTY(os.Stdin) {
			fmt.Fprintln(os.Stderr, "参数错误：至少需要一个输入（或通过 stdin 逐行传入）")
			printGenUsage()
			return 2
		}
		inputs, err = readLines(os.Stdin)
		if err != nil {
			fmt.Fprintf(os.Stderr, "读取 stdin 失败：%v\n", err)
			return 1
		}
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}

	eff, err := config.LoadEffective(cwd, ga.CLI)
	if err != nil {
		emitReport(reportForConfigError(ga.CLI, err))
		return 1
	}
	log := newLogger(eff.LogLevel, os.Stderr)

	deps, err := buildDeps(eff, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 HTTP client 失败：%v\n", err)
		return 1
	}

	progressW, interactive := pickProgressWriter()
	var obs generate.Observer
	if interactive {
		obs = newProgressUI(progressW)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rep := generate.ExecuteWithObserver(ctx, eff, inputs, deps, obs)

	// dry-run 禁止落盘。
	if !eff.DryRun {
		if err := writeReportFile(eff.Out, rep); err != nil {
			fmt.Fprintf(os.Stderr, "写入 report.json 失败：%v\n", err)
			emitReport(rep)
			return 1
		}
	}

	emitReport(rep)
	if interactive {
		emitQRCodes(progressW, rep)
		emitLocations(progressW, eff)
	}
	if rep.Summary.Failed == 0 {
		return 0
	}
	return 1
}

func serveCmd(args []string) int {
	for _, a := range args {
		if isHelp(a) {
			printServeUsage()
			return 0
		}
	}

	cli, err := parseServeArgs(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "参数错误：%v\n\n", err)
		printServeUsage()
		return 2
	}

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取当前目录失败：%v\n", err)
		return 1
	}
	eff, err := config.LoadEffective(cwd, cli)
	if err != nil {
		fmt.Fprintf(os.Stderr, "配置错误：%v\n", err)
		return 1
	}
	log := newLogger(eff.LogLevel, os.Stderr)

	deps, err := buildDeps(eff, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "初始化 HTTP client 失败：%v\n", err)
		return 1
	}

	srv := server.New(server.Options{
		Classifier: classify.Classifier{AcceptBareID: eff.BareVideoID},
		QRSize:     eff.Size,
		QRLevel:    eff.Level,
		Thumbnails: deps.Thumbnails,
		Titles:     deps.Titles,
		Cache:      cache.New(cache.DefaultMaxEntries, cache.DefaultTTL),
		Log:        log,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	fmt.Fprintf(os.Stderr, "ytqr serve: http://%s/\n", eff.Listen)
	if err := srv.ListenAndServe(ctx, eff.Listen); err != nil {
		log.WithError(err).Error("服务异常退出")
		return 1
	}
	return 0
}

// buildDeps 按配置组装 HTTP 协作者；缩略图与标题各用一个 client（重试策略不同）。
func buildDeps(eff config.EffectiveConfig, log logrus.FieldLogger) (generate.Deps, error) {
	deps := generate.Deps{Log: log}

	if eff.Thumbnail {
		c, err := httpx.NewImageClient(eff.ProxyURL, eff.ImageProxy)
		if err != nil {
			return generate.Deps{}, err
		}
		deps.Thumbnails = youtube.Thumbnails{Client: c}
	}
	if eff.FetchTitle {
		c, err := httpx.NewPageClient(eff.ProxyURL)
		if err != nil {
			return generate.Deps{}, err
		}
		deps.Titles = youtube.Titles{Client: c}
	}
	return deps, nil
}

func newLogger(level logrus.Level, w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(level)
	l.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: "15:04:05",
	})
	return l
}

// 单行输入上限；超长的行交给 QR 编码报 qr_failed，而不是让整批读取失败。
const maxLineBytes = 16 << 20

func readLines(r io.Reader) ([]string, error) {
	var out []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
	for sc.Scan() {
		line := sc.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		out = append(out, line)
	}
	return out, sc.Err()
}

func isHelp(s string) bool {
	return s == "-h" || s == "--help" || s == "help"
}

func printUsage() {
	fmt.Fprint(os.Stdout, `用法：
  ytqr gen [flags] <input>...
  ytqr serve [flags]

命令：
  gen    为每个输入（YouTube 链接或任意文本）生成二维码、缩略图与预览页
  serve  启动本地 Web 页面

使用 "ytqr gen --help" / "ytqr serve --help" 查看详细说明。
`)
}

func printGenUsage() {
	fmt.Fprint(os.Stdout, `用法：
  ytqr gen [flags] <input>...
  ... | ytqr gen [flags]        （无位置参数时从 stdin 逐行读取）

参数：
  --out DIR            输出目录（默认 ytqr-out）
  --size N             二维码边长像素（64..2048，默认 256）
  --level L|M|Q|H      纠错等级（默认 H）
  --thumbnail[=bool]   下载 YouTube 缩略图（默认 true）
  --title[=bool]       查询视频标题（默认 false）
  --dry-run[=bool]     只分类与规划，不下载、不写盘
  --log-level LEVEL    日志级别（debug|info|warn|error）
  -h, --help           显示帮助
`)
}

func printServeUsage() {
	fmt.Fprint(os.Stdout, `用法：
  ytqr serve [--listen ADDR] [--size N] [--level L|M|Q|H] [--title[=bool]] [--log-level LEVEL]

参数：
  --listen ADDR        监听地址（默认 127.0.0.1:8080）
  --size N             二维码边长像素
  --level L|M|Q|H      纠错等级
  --thumbnail[=bool]   允许下载缩略图（关闭时只跳转链接）
  --title[=bool]       预览页显示视频标题
  --log-level LEVEL    日志级别
  -h, --help           显示帮助
`)
}

func emitReport(rep domain.Report) {
	summary := fmt.Sprintf("完成：generated=%d planned=%d failed=%d",
		rep.Summary.Generated, rep.Summary.Planned, rep.Summary.Failed,
	)
	if isTTY(os.Stdout) {
		fmt.Fprintln(os.Stdout, summary)
		for _, it := range rep.Items {
			if it.Status != domain.StatusFailed {
				continue
			}
			fmt.Fprintf(os.Stderr, "#%d %q %s: %s\n", it.Index+1, truncate(it.Input, 80), it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	// stdout 非 TTY：stdout 只输出一个 Report JSON，摘要走 stderr。
	enc := json.NewEncoder(os.Stdout)
	_ = enc.Encode(rep)
	fmt.Fprintln(os.Stderr, summary)
}

func reportForConfigError(cli config.CLIArgs, err error) domain.Report {
	now := time.Now().UTC()
	rep := domain.Report{
		OutDir:     cli.Out,
		DryRun:     cli.DryRunSet && cli.DryRun,
		StartedAt:  now,
		FinishedAt: now,
		Items: []domain.ItemResult{{
			Status:    domain.StatusFailed,
			ErrorCode: config.Code(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rep.Finalize()
	return rep
}

func writeReportFile(out string, rep domain.Report) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	return fsx.WriteFile(out, generate.ReportFileName, b)
}

func isTTY(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度输出只在交互终端启用；默认走 stderr（不污染 stdout JSON）。
	if isTTY(os.Stderr) {
		return os.Stderr, true
	}
	if isTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}

// emitQRCodes 在终端里直接画出二维码，方便手机扫码。
func emitQRCodes(w io.Writer, rep domain.Report) {
	for _, it := range rep.Items {
		if it.Status == domain.StatusFailed {
			continue
		}
		payload := it.OriginalURL
		if payload == "" {
			payload = strings.TrimSpace(it.Input)
		}
		s, err := qr.Terminal(payload)
		if err != nil {
			continue
		}
		fmt.Fprintf(w, "\n#%d %s\n%s", it.Index+1, truncate(payload, 80), s)
	}
}

func emitLocations(w io.Writer, eff config.EffectiveConfig) {
	if w == nil {
		return
	}
	if !eff.DryRun {
		fmt.Fprintf(w, "report: %s\n", filepath.Join(eff.Out, generate.ReportFileName))
	}
	fmt.Fprintf(w, "out: %s\n", eff.Out)
}
