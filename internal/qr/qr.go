// Package qr 把文本编码为 QR 图片；编码算法本身交给 go-qrcode。
package qr

import (
	"errors"
	"fmt"
	"image/color"
	"strings"

	qrcode "github.com/skip2/go-qrcode"
)

const (
	DefaultSize = 256
	MinSize     = 64
	MaxSize     = 2048
)

// Options 控制 PNG 输出。零值字段使用默认值（256px、H 级纠错、黑字白底）。
//
// Level 用 "L/M/Q/H" 字符串表示：qrcode.Low 恰好是零值，没法区分“未设置”。
type Options struct {
	Size  int
	Level string
	Dark  color.Color
	Light color.Color
}

func (o Options) withDefaults() Options {
	if o.Size <= 0 {
		o.Size = DefaultSize
	}
	if o.Dark == nil {
		o.Dark = color.Black
	}
	if o.Light == nil {
		o.Light = color.White
	}
	return o
}

// EncodePNG 生成 QR 的 PNG 字节。
func EncodePNG(text string, opt Options) ([]byte, error) {
	if text == "" {
		return nil, errors.New("qr: 内容为空")
	}
	opt = opt.withDefaults()
	level, err := ParseLevel(opt.Level)
	if err != nil {
		return nil, err
	}

	q, err := qrcode.New(text, level)
	if err != nil {
		return nil, fmt.Errorf("qr: %w", err)
	}
	q.ForegroundColor = opt.Dark
	q.BackgroundColor = opt.Light
	return q.PNG(opt.Size)
}

// Terminal 用半高字符块渲染 QR，适合交互终端直接扫码。
func Terminal(text string) (string, error) {
	if text == "" {
		return "", errors.New("qr: 内容为空")
	}
	// 终端里用 Medium：码更小，扫起来更稳。
	q, err := qrcode.New(text, qrcode.Medium)
	if err != nil {
		return "", fmt.Errorf("qr: %w", err)
	}
	return q.ToSmallString(false), nil
}

// ParseLevel 把 "L/M/Q/H" 映射为纠错等级。
func ParseLevel(s string) (qrcode.RecoveryLevel, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "L":
		return qrcode.Low, nil
	case "M":
		return qrcode.Medium, nil
	case "Q":
		return qrcode.High, nil
	case "H", "":
		return qrcode.Highest, nil
	default:
		return 0, fmt.Errorf("level 只能是 L/M/Q/H，实际是 %q", s)
	}
}

// ClampSize 把尺寸截断到 [MinSize, MaxSize]；0 表示默认值。
func ClampSize(n int) int {
	if n == 0 {
		return DefaultSize
	}
	if n < MinSize {
		return MinSize
	}
	if n > MaxSize {
		return MaxSize
	}
	return n
}
