// Package server 提供 `ytqr serve` 的本地 Web 前端。
//
// 页面与 API 都是无状态的：除了进程内的缩略图缓存，不保存任何数据。
package server

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/ytqr/internal/app/generate"
	"github.com/John-Robertt/ytqr/internal/classify"
	"github.com/John-Robertt/ytqr/internal/infra/cache"
	"github.com/John-Robertt/ytqr/internal/qr"
)

// Options 是 Server 的依赖与参数。
type Options struct {
	Classifier classify.Classifier
	QRSize     int
	QRLevel    string

	// Thumbnails 为 nil 时 /api/thumbnail 一律退化为跳转链接。
	Thumbnails generate.ThumbnailFetcher
	// Titles 为 nil 时不查询标题。
	Titles generate.TitleFetcher
	Cache  *cache.Thumbnails

	Log logrus.FieldLogger
}

type Server struct {
	opt Options
	log logrus.FieldLogger
}

func New(opt Options) *Server {
	if opt.QRSize <= 0 {
		opt.QRSize = qr.DefaultSize
	}
	if opt.Cache == nil {
		opt.Cache = cache.New(0, 0)
	}
	log := opt.Log
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}
	return &Server{opt: opt, log: log}
}

// Router 返回挂好全部路由与中间件的 mux.Router。
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.Use(requestID, s.logRequests)

	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	r.HandleFunc("/generate", s.handleGenerate).Methods(http.MethodPost)
	r.HandleFunc("/api/classify", s.handleClassify).Methods(http.MethodPost)
	r.HandleFunc("/api/qr.png", s.handleQR).Methods(http.MethodGet)
	r.HandleFunc("/api/thumbnail/{id}", s.handleThumbnail).Methods(http.MethodGet)
	return r
}

// ListenAndServe 阻塞直到 ctx 取消或监听失败；取消时优雅关闭。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	hs := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", addr).Info("开始监听")
		errCh <- hs.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := hs.Shutdown(shutdownCtx); err != nil {
			return err
		}
		s.log.Info("已停止")
		return nil
	}
}
