package imgx

import (
	"bytes"
	"errors"
	"image"
	"image/jpeg"
	_ "image/png" // 缩略图偶尔不是 JPEG
)

// YouTube 在缩略图缺失时可能返回 120x90 的灰色占位图，而不是 404。
const (
	placeholderW = 120
	placeholderH = 90
)

// Info 是只读取头部得到的图片信息。
type Info struct {
	Width  int
	Height int
	Format string // "jpeg" / "png"
}

// Probe 只解析图片头部，不解码像素。
func Probe(b []byte) (Info, error) {
	if len(b) == 0 {
		return Info{}, errors.New("图片为空")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(b))
	if err != nil {
		return Info{}, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Info{}, errors.New("图片尺寸无效")
	}
	return Info{Width: cfg.Width, Height: cfg.Height, Format: format}, nil
}

// IsPlaceholder 判断是否是 YouTube 的“无缩略图”占位图。
func IsPlaceholder(info Info) bool {
	return info.Width == placeholderW && info.Height == placeholderH
}

// NormalizeJPEG 保证输出是 JPEG：本来就是 JPEG 时原样返回，否则解码后重新编码。
func NormalizeJPEG(b []byte) ([]byte, error) {
	info, err := Probe(b)
	if err != nil {
		return nil, err
	}
	if info.Format == "jpeg" {
		return b, nil
	}

	img, _, err := image.Decode(bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := jpeg.Encode(&out, img, &jpeg.Options{Quality: 95}); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}
