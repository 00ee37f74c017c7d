package capture

import (
	"fmt"
	stdimage "image"
	"image/draw"
	"image/png"
	"os"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

func decodePNG(path string) (stdimage.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, captureErr("打开截图文件", err)
	}
	defer f.Close()

	img, err := png.Decode(f)
	if err != nil {
		return nil, captureErr("解码截图", err)
	}
	return img, nil
}

// rawFromImage 从解码后的图像中取出区域 r
func rawFromImage(img stdimage.Image, r display.Rect) (*pixel.Raw, error) {
	want := r.Rectangle().Add(img.Bounds().Min)
	if !want.In(img.Bounds()) {
		return nil, captureErr("裁剪截图", fmt.Errorf("区域 %s 超出图像 %v", r, img.Bounds()))
	}

	switch src := img.(type) {
	case *stdimage.RGBA:
		return &pixel.Raw{
			Pix:    src.Pix[src.PixOffset(want.Min.X, want.Min.Y):],
			Width:  r.Width,
			Height: r.Height,
			Stride: src.Stride,
			Order:  pixel.RGBA,
		}, nil
	case *stdimage.NRGBA:
		return &pixel.Raw{
			Pix:    src.Pix[src.PixOffset(want.Min.X, want.Min.Y):],
			Width:  r.Width,
			Height: r.Height,
			Stride: src.Stride,
			Order:  pixel.RGBA,
		}, nil
	}

	dst := stdimage.NewRGBA(stdimage.Rect(0, 0, r.Width, r.Height))
	draw.Draw(dst, dst.Bounds(), img, want.Min, draw.Src)
	return &pixel.Raw{
		Pix:    dst.Pix,
		Width:  r.Width,
		Height: r.Height,
		Stride: dst.Stride,
		Order:  pixel.RGBA,
	}, nil
}
