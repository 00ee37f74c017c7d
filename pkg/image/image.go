// Package image 提供截图结果的不可变图像值类型
//
// Image 的缓冲区始终为标准格式：长度 width*height*4，
// 自上而下、自左向右，每像素 R,G,B,A，无行填充。
package image

import (
	"fmt"
	stdimage "image"
	"image/color"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// ErrSizeMismatch 缓冲区长度与 width*height*4 不符
var ErrSizeMismatch = pixel.ErrSizeMismatch

// Image 截图图像，构造后不可修改
type Image struct {
	width  int
	height int
	buf    []byte
}

// New 由标准 RGBA 缓冲区构造图像，会复制 buffer
func New(width, height int, buffer []byte) (*Image, error) {
	if err := pixel.CheckSize(width, height, buffer); err != nil {
		return nil, err
	}
	return &Image{
		width:  width,
		height: height,
		buf:    append([]byte(nil), buffer...),
	}, nil
}

// FromBGRA 由无行填充的 BGRA 缓冲区构造图像
func FromBGRA(width, height int, buffer []byte) (*Image, error) {
	if err := pixel.CheckSize(width, height, buffer); err != nil {
		return nil, err
	}
	rgba, err := pixel.SwapRB(buffer)
	if err != nil {
		return nil, err
	}
	return &Image{width: width, height: height, buf: rgba}, nil
}

// FromRaw 转换原始截图并构造图像
func FromRaw(raw *pixel.Raw) (*Image, error) {
	buf, err := pixel.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return &Image{width: raw.Width, height: raw.Height, buf: buf}, nil
}

// FromImage 将任意 image.Image 转换为标准图像
func FromImage(src stdimage.Image) (*Image, error) {
	if src == nil {
		return nil, fmt.Errorf("图像为空")
	}
	b := src.Bounds()
	if rgba, ok := src.(*stdimage.RGBA); ok {
		return FromRaw(&pixel.Raw{
			Pix:    rgba.Pix[rgba.PixOffset(b.Min.X, b.Min.Y):],
			Width:  b.Dx(),
			Height: b.Dy(),
			Stride: rgba.Stride,
			Order:  pixel.RGBA,
		})
	}

	buf := make([]byte, b.Dx()*b.Dy()*4)
	i := 0
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.RGBAModel.Convert(src.At(x, y)).(color.RGBA)
			buf[i], buf[i+1], buf[i+2], buf[i+3] = c.R, c.G, c.B, c.A
			i += 4
		}
	}
	return &Image{width: b.Dx(), height: b.Dy(), buf: buf}, nil
}

// Width 宽度（像素）
func (img *Image) Width() int { return img.width }

// Height 高度（像素）
func (img *Image) Height() int { return img.height }

// Buffer 返回标准 RGBA 缓冲区的副本
func (img *Image) Buffer() []byte {
	return append([]byte(nil), img.buf...)
}

// BGRA 返回 BGRA 顺序的缓冲区副本
func (img *Image) BGRA() []byte {
	out, _ := pixel.SwapRB(img.buf)
	return out
}

// RGBA 转换为 *image.RGBA（复制像素）
func (img *Image) RGBA() *stdimage.RGBA {
	return &stdimage.RGBA{
		Pix:    img.Buffer(),
		Stride: img.width * 4,
		Rect:   stdimage.Rect(0, 0, img.width, img.height),
	}
}

// Crop 截取子区域，区域会被裁剪到图像范围内
func (img *Image) Crop(r display.Rect) (*Image, error) {
	c, err := display.Clip(r, img.width, img.height)
	if err != nil {
		return nil, err
	}
	return FromRaw(&pixel.Raw{
		Pix:    img.buf[(c.Y*img.width+c.X)*4:],
		Width:  c.Width,
		Height: c.Height,
		Stride: img.width * 4,
		Order:  pixel.RGBA,
	})
}

// ColorModel 实现 image.Image
func (img *Image) ColorModel() color.Model { return color.RGBAModel }

// Bounds 实现 image.Image
func (img *Image) Bounds() stdimage.Rectangle {
	return stdimage.Rect(0, 0, img.width, img.height)
}

// At 实现 image.Image
func (img *Image) At(x, y int) color.Color {
	if x < 0 || y < 0 || x >= img.width || y >= img.height {
		return color.RGBA{}
	}
	i := (y*img.width + x) * 4
	return color.RGBA{R: img.buf[i], G: img.buf[i+1], B: img.buf[i+2], A: img.buf[i+3]}
}

func (img *Image) String() string {
	return fmt.Sprintf("Image(%dx%d)", img.width, img.height)
}
