package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/ytqr/internal/qr"
)

const (
	// ErrCodeInvalid 表示配置文件/.env/环境变量无法读取、解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	FileName = "ytqr.json"
	EnvFile  = ".env"

	DefaultOut         = "ytqr-out"
	DefaultLevel       = "H"
	DefaultConcurrency = 4
	DefaultListen      = "127.0.0.1:8080"
	DefaultLogLevel    = "info"
)

// 环境变量名。
const (
	EnvOut      = "YTQR_OUT"
	EnvProxyURL = "YTQR_PROXY_URL"
	EnvListen   = "YTQR_LISTEN"
	EnvLogLevel = "YTQR_LOG_LEVEL"
)

// CLIArgs 保留“是否显式指定”，这样 --thumbnail=false 才能覆盖配置里的 true。
type CLIArgs struct {
	Out    string
	OutSet bool

	Size    int
	SizeSet bool

	Level    string
	LevelSet bool

	Thumbnail    bool
	ThumbnailSet bool

	FetchTitle    bool
	FetchTitleSet bool

	DryRun    bool
	DryRunSet bool

	Listen    string
	ListenSet bool

	LogLevel    string
	LogLevelSet bool
}

// FileConfig 对应 ytqr.json。
type FileConfig struct {
	Out         string       `json:"out"`
	Size        int          `json:"size"`
	Level       string       `json:"level"`
	Concurrency int          `json:"concurrency"`
	Thumbnail   *bool        `json:"thumbnail"`
	FetchTitle  *bool        `json:"fetch_title"`
	BareVideoID *bool        `json:"bare_video_id"`
	DryRun      *bool        `json:"dry_run"`
	Proxy       *ProxyConfig `json:"proxy"`
	ImageProxy  bool         `json:"image_proxy"`
	Listen      string       `json:"listen"`
	LogLevel    string       `json:"log_level"`
}

type ProxyConfig struct {
	URL string `json:"url"`
}

// EffectiveConfig 是合并、校验后的最终配置，下游直接消费。
type EffectiveConfig struct {
	Out string // clean + absolute

	Size  int
	Level string

	Concurrency int
	Thumbnail   bool
	FetchTitle  bool
	BareVideoID bool
	DryRun      bool

	ProxyURL   string
	ImageProxy bool

	Listen   string
	LogLevel logrus.Level
}

// Error 是配置阶段的结构化错误。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s：%q 无效：%v", e.Code, e.Path, e.Err)
	}
	return fmt.Sprintf("%s：%q 无效", e.Code, e.Path)
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；不是 *Error 时返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取 <cwd>/ytqr.json 与 <cwd>/.env（都可选），与环境变量、CLI 合并。
//
// 覆盖优先级：CLI > 进程环境变量 > .env > ytqr.json > 默认值。
// 只有 out/proxy.url/listen/log_level 支持环境变量。
func LoadEffective(cwd string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	cfgPath := filepath.Join(cwdAbs, FileName)
	fc, err := readFileConfig(cfgPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	envPath := filepath.Join(cwdAbs, EnvFile)
	env, err := readEnv(envPath)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: envPath, Err: err}
	}

	return merge(cwdAbs, cli, fc, env, cfgPath)
}

func merge(cwdAbs string, cli CLIArgs, fc FileConfig, env map[string]string, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	out := pickString(cli.OutSet, cli.Out, env[EnvOut], fc.Out, DefaultOut)
	if strings.TrimSpace(out) == "" {
		return invalid(errors.New("out 不能为空"))
	}

	size := fc.Size
	if cli.SizeSet {
		size = cli.Size
	}
	if size < 0 {
		return invalid(fmt.Errorf("size 不能为负数：%d", size))
	}
	size = qr.ClampSize(size)

	level := pickString(cli.LevelSet, cli.Level, "", fc.Level, DefaultLevel)
	if _, err := qr.ParseLevel(level); err != nil {
		return invalid(err)
	}
	level = strings.ToUpper(strings.TrimSpace(level))

	concurrency := fc.Concurrency
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency < 1 {
		concurrency = 1
	}
	if concurrency > 32 {
		concurrency = 32
	}

	proxyURL := ""
	if fc.Proxy != nil {
		proxyURL = strings.TrimSpace(fc.Proxy.URL)
	}
	if v := strings.TrimSpace(env[EnvProxyURL]); v != "" {
		proxyURL = v
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return invalid(fmt.Errorf("proxy.url 无效：%q", proxyURL))
		}
	}
	if fc.ImageProxy && proxyURL == "" {
		return invalid(errors.New("image_proxy=true 但 proxy.url 为空"))
	}

	logLevelRaw := pickString(cli.LogLevelSet, cli.LogLevel, env[EnvLogLevel], fc.LogLevel, DefaultLogLevel)
	logLevel, err := logrus.ParseLevel(strings.TrimSpace(logLevelRaw))
	if err != nil {
		return invalid(fmt.Errorf("log_level 无效：%w", err))
	}

	listen := strings.TrimSpace(pickString(cli.ListenSet, cli.Listen, env[EnvListen], fc.Listen, DefaultListen))
	if listen == "" {
		return invalid(errors.New("listen 不能为空"))
	}

	return EffectiveConfig{
		Out:         absCleanFrom(cwdAbs, out),
		Size:        size,
		Level:       level,
		Concurrency: concurrency,
		Thumbnail:   pickBool(cli.ThumbnailSet, cli.Thumbnail, fc.Thumbnail, true),
		FetchTitle:  pickBool(cli.FetchTitleSet, cli.FetchTitle, fc.FetchTitle, false),
		BareVideoID: pickBool(false, false, fc.BareVideoID, true),
		DryRun:      pickBool(cli.DryRunSet, cli.DryRun, fc.DryRun, false),
		ProxyURL:    proxyURL,
		ImageProxy:  fc.ImageProxy,
		Listen:      listen,
		LogLevel:    logLevel,
	}, nil
}

// pickString：CLI（显式）> 环境变量 > 配置文件 > 默认值；空白视为未设置。
func pickString(cliSet bool, cliV, envV, fileV, def string) string {
	if cliSet {
		return cliV
	}
	if strings.TrimSpace(envV) != "" {
		return envV
	}
	if strings.TrimSpace(fileV) != "" {
		return fileV
	}
	return def
}

func pickBool(cliSet, cliV bool, fileV *bool, def bool) bool {
	if cliSet {
		return cliV
	}
	if fileV != nil {
		return *fileV
	}
	return def
}

func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取 ytqr.json；不存在不算错误。
func readFileConfig(path string) (FileConfig, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, err
	}
	var fc FileConfig
	if err := json.Unmarshal(b, &fc); err != nil {
		return FileConfig{}, err
	}
	return fc, nil
}

// readEnv 读取 .env（不存在不算错误），再用进程环境变量覆盖。
// 这里不调用 godotenv.Load：不修改进程环境，测试之间互不影响。
func readEnv(path string) (map[string]string, error) {
	env := map[string]string{}
	if _, err := os.Stat(path); err == nil {
		m, err := godotenv.Read(path)
		if err != nil {
			return nil, err
		}
		env = m
	} else if !os.IsNotExist(err) {
		return nil, err
	}

	for _, k := range []string{EnvOut, EnvProxyURL, EnvListen, EnvLogLevel} {
		if v, ok := os.LookupEnv(k); ok && strings.TrimSpace(v) != "" {
			env[k] = v
		}
	}
	return env, nil
}
