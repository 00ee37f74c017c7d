// Package pixel 将各平台截图接口返回的原始像素统一转换为紧密排列、自上而下的 RGBA
//
// 通道换位只是逐像素的字节置换：不做色彩空间转换、不做 gamma 校正，
// 也不对预乘 alpha 反预乘。依赖真实透明度的调用方需要自行处理。
package pixel

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrSizeMismatch 缓冲区长度与 width*height*4 不符
	ErrSizeMismatch = errors.New("缓冲区长度不匹配")

	// ErrInvalidLayout 原始截图的尺寸、行跨度或通道格式不合法
	ErrInvalidLayout = errors.New("原始像素布局无效")
)

// ChannelOrder 原始缓冲区中每个像素的字节顺序（按内存地址从低到高）
type ChannelOrder int

const (
	RGBA ChannelOrder = iota
	BGRA
	RGBX
	BGRX
	ARGB
	XRGB
	ABGR
	XBGR
	RGB
	BGR
)

var orderNames = [...]string{
	RGBA: "RGBA",
	BGRA: "BGRA",
	RGBX: "RGBX",
	BGRX: "BGRX",
	ARGB: "ARGB",
	XRGB: "XRGB",
	ABGR: "ABGR",
	XBGR: "XBGR",
	RGB:  "RGB",
	BGR:  "BGR",
}

func (o ChannelOrder) String() string {
	if o.Valid() {
		return orderNames[o]
	}
	return fmt.Sprintf("ChannelOrder(%d)", int(o))
}

// Valid 是否为已知格式
func (o ChannelOrder) Valid() bool {
	return o >= RGBA && o <= BGR
}

// BytesPerPixel 每像素字节数
func (o ChannelOrder) BytesPerPixel() int {
	if o == RGB || o == BGR {
		return 3
	}
	return 4
}

// HasAlpha 是否带有真实的 alpha 通道
// X 变体与 24 位格式输出时 alpha 固定为 255
func (o ChannelOrder) HasAlpha() bool {
	switch o {
	case RGBA, BGRA, ARGB, ABGR:
		return true
	}
	return false
}

// offsets 返回 R、G、B、A 在单个像素内的字节偏移，a < 0 表示无 alpha
func (o ChannelOrder) offsets() (r, g, b, a int) {
	switch o {
	case RGBA:
		return 0, 1, 2, 3
	case RGBX:
		return 0, 1, 2, -1
	case BGRA:
		return 2, 1, 0, 3
	case BGRX:
		return 2, 1, 0, -1
	case ARGB:
		return 1, 2, 3, 0
	case XRGB:
		return 1, 2, 3, -1
	case ABGR:
		return 3, 2, 1, 0
	case XBGR:
		return 3, 2, 1, -1
	case RGB:
		return 0, 1, 2, -1
	case BGR:
		return 2, 1, 0, -1
	}
	return 0, 1, 2, 3
}

// Raw 一次截图得到的原始像素，只在单次截图调用内存在
type Raw struct {
	// Pix 原始字节，第 y 行从 Pix[y*Stride] 开始
	Pix []byte
	// Width, Height 像素尺寸
	Width  int
	Height int
	// Stride 行跨度（字节），可能因对齐大于 Width*BytesPerPixel
	Stride int
	// Order 通道顺序
	Order ChannelOrder
	// BottomUp 第 0 行是否为最底行（如正高度的 Windows DIB）
	BottomUp bool
}

// Validate 检查布局是否自洽
func (r *Raw) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: 空截图", ErrInvalidLayout)
	}
	if !r.Order.Valid() {
		return fmt.Errorf("%w: 未知通道格式 %s", ErrInvalidLayout, r.Order)
	}
	if r.Width <= 0 || r.Height <= 0 {
		return fmt.Errorf("%w: 尺寸 %dx%d", ErrInvalidLayout, r.Width, r.Height)
	}
	if r.Width > math.MaxInt/r.Order.BytesPerPixel() {
		return fmt.Errorf("%w: 宽度 %d 过大", ErrInvalidLayout, r.Width)
	}
	rowBytes := r.Width * r.Order.BytesPerPixel()
	if r.Stride < rowBytes {
		return fmt.Errorf("%w: 行跨度 %d 小于行字节数 %d", ErrInvalidLayout, r.Stride, rowBytes)
	}
	if r.Height-1 > (math.MaxInt-rowBytes)/r.Stride {
		return fmt.Errorf("%w: 尺寸 %dx%d 过大", ErrInvalidLayout, r.Width, r.Height)
	}
	// 最后一行不要求带填充
	need := (r.Height-1)*r.Stride + rowBytes
	if len(r.Pix) < need {
		return fmt.Errorf("%w: 需要 %d 字节, 实际 %d 字节", ErrInvalidLayout, need, len(r.Pix))
	}
	return nil
}

// Normalize 将原始截图转换为标准 RGBA 缓冲区
// 输出长度恰为 Width*Height*4，无行填充，第 0 行为最上方一行
func Normalize(raw *Raw) ([]byte, error) {
	if err := raw.Validate(); err != nil {
		return nil, err
	}

	bpp := raw.Order.BytesPerPixel()
	ro, gO, bo, ao := raw.Order.offsets()
	dstStride := raw.Width * 4
	dst := make([]byte, dstStride*raw.Height)

	for y := 0; y < raw.Height; y++ {
		srcY := y
		if raw.BottomUp {
			srcY = raw.Height - 1 - y
		}
		src := raw.Pix[srcY*raw.Stride : srcY*raw.Stride+raw.Width*bpp]
		row := dst[y*dstStride : (y+1)*dstStride]

		if raw.Order == RGBA {
			copy(row, src)
			continue
		}

		for x, s := 0, 0; x < dstStride; x, s = x+4, s+bpp {
			row[x] = src[s+ro]
			row[x+1] = src[s+gO]
			row[x+2] = src[s+bo]
			if ao < 0 {
				row[x+3] = 255
			} else {
				row[x+3] = src[s+ao]
			}
		}
	}

	return dst, nil
}

// SwapRB 交换每个 4 字节像素的第 0 与第 2 字节（BGRA ↔ RGBA）
// 返回新缓冲区，输入不变；连续调用两次得到原数据
func SwapRB(buf []byte) ([]byte, error) {
	if len(buf)%4 != 0 {
		return nil, fmt.Errorf("%w: 长度 %d 不是 4 的倍数", ErrSizeMismatch, len(buf))
	}
	out := make([]byte, len(buf))
	for i := 0; i < len(buf); i += 4 {
		out[i] = buf[i+2]
		out[i+1] = buf[i+1]
		out[i+2] = buf[i]
		out[i+3] = buf[i+3]
	}
	return out, nil
}

// CheckSize 校验缓冲区长度是否为 width*height*4
func CheckSize(width, height int, buf []byte) error {
	if width < 0 || height < 0 {
		return fmt.Errorf("%w: 尺寸 %dx%d", ErrSizeMismatch, width, height)
	}
	// width*height*4 不能溢出 int
	if width != 0 && height > math.MaxInt/4/width {
		return fmt.Errorf("%w: 尺寸 %dx%d 过大", ErrSizeMismatch, width, height)
	}
	if want := width * height * 4; len(buf) != want {
		return fmt.Errorf("%w: %dx%d 需要 %d 字节, 实际 %d 字节", ErrSizeMismatch, width, height, want, len(buf))
	}
	return nil
}
