package qr

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	qrcode "github.com/skip2/go-qrcode"
)

func TestEncodePNG_DefaultSizeAndColors(t *testing.T) {
	b, err := EncodePNG("https://youtu.be/dQw4w9WgXcQ", Options{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}

	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("输出不是合法 PNG：%v", err)
	}
	if got := img.Bounds(); got.Dx() != DefaultSize || got.Dy() != DefaultSize {
		t.Fatalf("尺寸不符合预期：%v", got)
	}

	// 左上角是静区，应为白色。
	c := color.RGBAModel.Convert(img.At(0, 0)).(color.RGBA)
	if c.R != 255 || c.G != 255 || c.B != 255 {
		t.Fatalf("静区应为白色，实际 %v", c)
	}
	if !hasDarkPixel(img) {
		t.Fatalf("期望存在黑色模块")
	}
}

func TestEncodePNG_CustomSize(t *testing.T) {
	b, err := EncodePNG("hello", Options{Size: 128, Level: "L"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	img, err := png.Decode(bytes.NewReader(b))
	if err != nil {
		t.Fatalf("输出不是合法 PNG：%v", err)
	}
	if img.Bounds().Dx() != 128 {
		t.Fatalf("期望 128px，实际 %d", img.Bounds().Dx())
	}
}

func TestEncodePNG_Errors(t *testing.T) {
	if _, err := EncodePNG("", Options{}); err == nil {
		t.Fatalf("空内容应返回错误")
	}
	// 超过 QR 容量（H 级最多约 1273 字节）。
	if _, err := EncodePNG(strings.Repeat("x", 4000), Options{}); err == nil {
		t.Fatalf("超长内容应返回错误")
	}
	if _, err := EncodePNG("hello", Options{Level: "X"}); err == nil {
		t.Fatalf("非法 level 应返回错误")
	}
}

func TestTerminal(t *testing.T) {
	s, err := Terminal("hello")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if !strings.Contains(s, "\n") {
		t.Fatalf("终端输出应为多行：%q", s)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]qrcode.RecoveryLevel{
		"L": qrcode.Low, "m": qrcode.Medium, "Q": qrcode.High, "H": qrcode.Highest, "": qrcode.Highest,
	}
	for in, want := range cases {
		got, err := ParseLevel(in)
		if err != nil || got != want {
			t.Fatalf("%q：期望 %v，实际 %v err=%v", in, want, got, err)
		}
	}
	if _, err := ParseLevel("X"); err == nil {
		t.Fatalf("期望非法 level 报错")
	}
}

func TestClampSize(t *testing.T) {
	if ClampSize(0) != DefaultSize || ClampSize(10) != MinSize || ClampSize(9999) != MaxSize || ClampSize(300) != 300 {
		t.Fatalf("ClampSize 结果不符合预期")
	}
}

func hasDarkPixel(img image.Image) bool {
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(img.At(x, y)).(color.RGBA)
			if c.R == 0 && c.G == 0 && c.B == 0 {
				return true
			}
		}
	}
	return false
}
