package httpx

import (
	"errors"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

const (
	defaultTimeout = 20 * time.Second

	// 缩略图：单次请求，失败即走降级路径，不重试。
	imageRetryMax = 0
	// 页面（标题查询）：允许少量重试。
	pageRetryMax = 2
)

// Transport 统一 UA、代理与有界重试；调用方只关心“拿到响应”。
type Transport struct {
	// Base 通常是 *http.Transport；测试里可以替换为任意 RoundTripper。
	Base http.RoundTripper

	ua *uaPool

	// RetryMax 不含首次尝试。0 表示只请求一次。
	RetryMax int
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	if t.Base == nil {
		return nil, errors.New("nil base transport")
	}

	// 只有 GET/HEAD 且无 body 的请求可以安全重放。
	max := t.RetryMax
	if max < 0 || (req.Body != nil && req.Body != http.NoBody) || (req.Method != http.MethodGet && req.Method != http.MethodHead) {
		max = 0
	}

	var lastErr error
	for attempt := 0; attempt <= max; attempt++ {
		r := req.Clone(req.Context())
		if r.Header.Get("User-Agent") == "" && t.ua != nil {
			r.Header.Set("User-Agent", t.ua.random())
		}

		resp, err := t.Base.RoundTrip(r)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if req.Context().Err() != nil {
			return nil, lastErr
		}
	}
	return nil, lastErr
}

// NewImageClient 构造下载缩略图用的 client。
//
// - imageProxy=false：直连（忽略 proxyURL）
// - imageProxy=true：走 proxyURL；proxyURL 为空视为配置错误
func NewImageClient(proxyURL string, imageProxy bool) (*http.Client, error) {
	if !imageProxy {
		return newClient("", imageRetryMax)
	}
	proxyURL = strings.TrimSpace(proxyURL)
	if proxyURL == "" {
		return nil, errors.New("image_proxy=true 但 proxy.url 为空")
	}
	return newClient(proxyURL, imageRetryMax)
}

// NewPageClient 构造抓取 watch 页面用的 client（proxyURL 非空即走代理）。
func NewPageClient(proxyURL string) (*http.Client, error) {
	return newClient(strings.TrimSpace(proxyURL), pageRetryMax)
}

func newClient(proxyURL string, retryMax int) (*http.Client, error) {
	base := &http.Transport{
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 15 * time.Second,
	}
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy.url 缺少 scheme 或 host：" + proxyURL)
		}
		base.Proxy = http.ProxyURL(u)
		base.DisableKeepAlives = true
	}

	return &http.Client{
		Transport: &Transport{Base: base, ua: globalUA, RetryMax: retryMax},
		Timeout:   defaultTimeout,
	}, nil
}

type uaPool struct {
	mu  sync.Mutex
	rnd *rand.Rand
	uas []string
}

func (p *uaPool) random() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.uas[p.rnd.Intn(len(p.uas))]
}

var globalUA = &uaPool{
	rnd: rand.New(rand.NewSource(time.Now().UnixNano())),
	uas: []string{
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36",
		"Mozilla/5.0 (Macintosh; Intel Mac OS X 14_4) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.4 Safari/605.1.15",
		"Mozilla/5.0 (X11; Linux x86_64; rv:125.0) Gecko/20100101 Firefox/125.0",
	},
}
