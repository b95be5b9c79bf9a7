package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/John-Robertt/ytqr/internal/app/generate"
	"github.com/John-Robertt/ytqr/internal/classify"
	"github.com/John-Robertt/ytqr/internal/domain"
	"github.com/John-Robertt/ytqr/internal/qr"
	"github.com/John-Robertt/ytqr/internal/render"
	"github.com/John-Robertt/ytqr/internal/youtube"
)

// 请求体上限；输入只是一段 URL 或文本。
const maxBodyBytes = 64 << 10

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "OK")
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.renderIndex(w, r, http.StatusOK, render.IndexView{})
}

func (s *Server) renderIndex(w http.ResponseWriter, r *http.Request, status int, v render.IndexView) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := render.Index(w, v); err != nil {
		s.log.WithError(err).WithField("request_id", requestIDFrom(r.Context())).Error("渲染输入页失败")
	}
}

// handleGenerate 是页面上的“生成”按钮：空输入与非法链接在输入页内提示，其余渲染预览页。
func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	raw := r.PostFormValue("input")

	if strings.TrimSpace(raw) == "" {
		s.renderIndex(w, r, http.StatusBadRequest, render.IndexView{Error: generate.MsgEmptyInput})
		return
	}
	in, err := s.opt.Classifier.Classify(raw)
	if err != nil {
		s.renderIndex(w, r, http.StatusUnprocessableEntity, render.IndexView{Input: raw, Error: generate.MsgInvalidYouTube})
		return
	}

	payload := in.Payload()
	png, err := qr.EncodePNG(payload, qr.Options{Size: s.opt.QRSize, Level: s.opt.QRLevel})
	if err != nil {
		s.renderIndex(w, r, http.StatusUnprocessableEntity, render.IndexView{Input: raw, Error: err.Error()})
		return
	}

	v := render.NewView(in)
	v.QRSrc = render.DataURI("image/png", png)
	v.QRDownload = template.URL("/api/qr.png?download=1&size=" + strconv.Itoa(s.opt.QRSize) + "&text=" + url.QueryEscape(payload))
	v.QRSize = s.opt.QRSize
	v.BackURL = "/"

	if in.IsYouTube() {
		if in.VideoID.WellFormed() {
			v.ThumbnailDownload = template.URL("/api/thumbnail/" + string(in.VideoID))
			if s.opt.Titles != nil {
				if title, err := s.opt.Titles.Fetch(r.Context(), in.VideoID); err == nil {
					v.Title = title
				}
			}
		}
		v.Messages = []string{generate.MsgGenerated}
	} else {
		v.Messages = []string{generate.MsgQRGenerated}
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := render.Preview(w, v); err != nil {
		s.log.WithError(err).WithField("request_id", requestIDFrom(r.Context())).Error("渲染预览页失败")
	}
}

type classifyRequest struct {
	Input string `json:"input"`
}

type classifyResponse struct {
	Kind                 string `json:"kind,omitempty"`
	VideoID              string `json:"video_id,omitempty"`
	OriginalURL          string `json:"original_url,omitempty"`
	Text                 string `json:"text,omitempty"`
	EmbedURL             string `json:"embed_url,omitempty"`
	ThumbnailURL         string `json:"thumbnail_url,omitempty"`
	FallbackThumbnailURL string `json:"fallback_thumbnail_url,omitempty"`
	Error                string `json:"error,omitempty"`
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, classifyResponse{Error: "invalid json body"})
		return
	}
	if strings.TrimSpace(req.Input) == "" {
		writeJSON(w, http.StatusBadRequest, classifyResponse{Error: generate.MsgEmptyInput})
		return
	}

	in, err := s.opt.Classifier.Classify(req.Input)
	if err != nil {
		var ee *classify.ExtractionError
		if errors.As(err, &ee) {
			writeJSON(w, http.StatusUnprocessableEntity, classifyResponse{Kind: string(domain.KindYouTube), Error: generate.MsgInvalidYouTube})
			return
		}
		writeJSON(w, http.StatusInternalServerError, classifyResponse{Error: err.Error()})
		return
	}

	resp := classifyResponse{Kind: string(in.Kind)}
	if in.IsYouTube() {
		resp.VideoID = string(in.VideoID)
		resp.OriginalURL = in.OriginalURL
		resp.EmbedURL = in.VideoID.EmbedURL()
		resp.ThumbnailURL = in.VideoID.ThumbnailURL(domain.ThumbMaxRes)
		resp.FallbackThumbnailURL = in.VideoID.ThumbnailURL(domain.ThumbHQ)
	} else {
		resp.Text = in.Text
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQR(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	text := q.Get("text")
	if strings.TrimSpace(text) == "" {
		http.Error(w, "text 不能为空", http.StatusBadRequest)
		return
	}

	size := s.opt.QRSize
	if v := q.Get("size"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			http.Error(w, "size 必须是整数", http.StatusBadRequest)
			return
		}
		size = qr.ClampSize(n)
	}

	png, err := qr.EncodePNG(text, qr.Options{Size: size, Level: s.opt.QRLevel})
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	if q.Get("download") == "1" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+generate.QRFileName+`"`)
	}
	_, _ = w.Write(png)
}

// handleThumbnail 下载缩略图（先 maxres 再 hq）；全部失败时 302 到缩略图地址，由浏览器新标签页打开。
func (s *Server) handleThumbnail(w http.ResponseWriter, r *http.Request) {
	id, ok := domain.ParseVideoID(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, generate.MsgInvalidYouTube, http.StatusBadRequest)
		return
	}

	if data, q, ok := s.opt.Cache.Get(id); ok {
		writeThumbnail(w, id, q, data)
		return
	}

	link := id.ThumbnailURL(domain.ThumbHQ)
	if s.opt.Thumbnails == nil {
		http.Redirect(w, r, link, http.StatusFound)
		return
	}

	th, err := s.opt.Thumbnails.Fetch(r.Context(), id)
	if err != nil {
		var fe *youtube.FetchError
		if errors.As(err, &fe) && fe.LinkURL != "" {
			link = fe.LinkURL
		}
		s.log.WithError(err).WithFields(logrus.Fields{
			"request_id": requestIDFrom(r.Context()),
			"video_id":   id,
		}).Warn("缩略图下载失败，跳转链接")
		http.Redirect(w, r, link, http.StatusFound)
		return
	}

	s.opt.Cache.Put(id, th.Quality, th.Data)
	writeThumbnail(w, id, th.Quality, th.Data)
}

func writeThumbnail(w http.ResponseWriter, id domain.VideoID, q domain.ThumbnailQuality, data []byte) {
	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Content-Disposition", `attachment; filename="`+id.ThumbnailFileName()+`"`)
	w.Header().Set("X-Thumbnail-Quality", string(q))
	_, _ = w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
