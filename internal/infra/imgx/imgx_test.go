package imgx

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
)

func TestProbe_JPEG(t *testing.T) {
	b := encodeJPEG(t, 480, 360)
	info, err := Probe(b)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if info.Width != 480 || info.Height != 360 || info.Format != "jpeg" {
		t.Fatalf("信息不符合预期：%+v", info)
	}
	if IsPlaceholder(info) {
		t.Fatalf("480x360 不应被视为占位图")
	}
}

func TestIsPlaceholder(t *testing.T) {
	info, err := Probe(encodeJPEG(t, 120, 90))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !IsPlaceholder(info) {
		t.Fatalf("120x90 应被视为占位图")
	}
}

func TestProbe_Invalid(t *testing.T) {
	if _, err := Probe(nil); err == nil {
		t.Fatalf("期望空输入返回错误")
	}
	if _, err := Probe([]byte("<html>not found</html>")); err == nil {
		t.Fatalf("期望非图片返回错误")
	}
}

func TestNormalizeJPEG(t *testing.T) {
	j := encodeJPEG(t, 10, 10)
	out, err := NormalizeJPEG(j)
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !bytes.Equal(out, j) {
		t.Fatalf("JPEG 输入应原样返回")
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, solid(10, 10)); err != nil {
		t.Fatalf("encode png 失败：%v", err)
	}
	out, err = NormalizeJPEG(buf.Bytes())
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	info, err := Probe(out)
	if err != nil || info.Format != "jpeg" {
		t.Fatalf("PNG 应被转为 JPEG：info=%+v err=%v", info, err)
	}
}

func encodeJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, solid(w, h), &jpeg.Options{Quality: 90}); err != nil {
		t.Fatalf("encode jpeg 失败：%v", err)
	}
	return buf.Bytes()
}

func solid(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}
	return img
}
