package image

import (
	"bytes"
	"errors"
	stdimage "image"
	"image/color"
	"math/rand"
	"testing"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

func randomBuffer(rng *rand.Rand, w, h int) []byte {
	buf := make([]byte, w*h*4)
	rng.Read(buf)
	return buf
}

func TestNewRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	sizes := [][2]int{{0, 0}, {1, 1}, {3, 2}, {16, 9}, {1, 40}}

	for _, s := range sizes {
		buf := randomBuffer(rng, s[0], s[1])
		img, err := New(s[0], s[1], buf)
		if err != nil {
			t.Fatalf("%dx%d: New 失败: %v", s[0], s[1], err)
		}
		if img.Width() != s[0] || img.Height() != s[1] {
			t.Errorf("尺寸错误: %dx%d", img.Width(), img.Height())
		}
		if !bytes.Equal(img.Buffer(), buf) {
			t.Errorf("%dx%d: Buffer 应与输入一致", s[0], s[1])
		}
	}
}

func TestNewIsImmutable(t *testing.T) {
	buf := []byte{1, 2, 3, 4}
	img, err := New(1, 1, buf)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	buf[0] = 99
	out := img.Buffer()
	if out[0] != 1 {
		t.Error("修改输入缓冲区不应影响图像")
	}
	out[1] = 99
	if img.Buffer()[1] != 2 {
		t.Error("修改 Buffer 返回值不应影响图像")
	}
}

func TestNewSizeMismatch(t *testing.T) {
	if _, err := New(2, 2, make([]byte, 15)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("期望 ErrSizeMismatch, 实际 %v", err)
	}
}

func TestFromBGRA(t *testing.T) {
	img, err := FromBGRA(2, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("FromBGRA 失败: %v", err)
	}
	want := []byte{3, 2, 1, 4, 7, 6, 5, 8}
	if !bytes.Equal(img.Buffer(), want) {
		t.Errorf("期望 %v, 实际 %v", want, img.Buffer())
	}
	if !bytes.Equal(img.BGRA(), []byte{1, 2, 3, 4, 5, 6, 7, 8}) {
		t.Error("BGRA 应还原输入")
	}
}

func TestFromBGRASizeMismatch(t *testing.T) {
	rng := rand.New(rand.NewSource(8))
	for i := 0; i < 50; i++ {
		w, h := rng.Intn(20), rng.Intn(20)
		n := w * h * 4
		for _, delta := range []int{-4, -1, 1, 4} {
			if n+delta < 0 {
				continue
			}
			_, err := FromBGRA(w, h, make([]byte, n+delta))
			if !errors.Is(err, ErrSizeMismatch) {
				t.Fatalf("%dx%d 长度 %d: 期望 ErrSizeMismatch, 实际 %v", w, h, n+delta, err)
			}
		}
	}

	// 尺寸乘积溢出回绕为 0 时也不能接受空缓冲区
	if img, err := FromBGRA(1<<62, 4, []byte{}); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("FromBGRA 溢出尺寸: 期望 ErrSizeMismatch, 实际 %v (%v)", err, img)
	}
	if img, err := New(1<<62, 4, nil); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("New 溢出尺寸: 期望 ErrSizeMismatch, 实际 %v (%v)", err, img)
	}
}

func TestFromBGRAInvolution(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	buf := randomBuffer(rng, 13, 7)

	img, err := FromBGRA(13, 7, buf)
	if err != nil {
		t.Fatalf("FromBGRA 失败: %v", err)
	}
	back, err := FromBGRA(13, 7, img.Buffer())
	if err != nil {
		t.Fatalf("FromBGRA 失败: %v", err)
	}
	if !bytes.Equal(back.Buffer(), buf) {
		t.Error("两次通道交换后应得到原缓冲区")
	}
}

func TestFromRaw(t *testing.T) {
	raw := &pixel.Raw{
		Pix:    []byte{30, 20, 10, 0, 0xAA, 0xBB, 60, 50, 40, 0, 0xCC, 0xDD},
		Width:  1,
		Height: 2,
		Stride: 6,
		Order:  pixel.BGRX,
	}
	img, err := FromRaw(raw)
	if err != nil {
		t.Fatalf("FromRaw 失败: %v", err)
	}
	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if !bytes.Equal(img.Buffer(), want) {
		t.Errorf("期望 %v, 实际 %v", want, img.Buffer())
	}
}

func TestCrop(t *testing.T) {
	// 4x4，每像素 R 通道存放索引
	buf := make([]byte, 4*4*4)
	for i := 0; i < 16; i++ {
		buf[i*4] = byte(i)
		buf[i*4+3] = 255
	}
	img, err := New(4, 4, buf)
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	sub, err := img.Crop(display.NewRect(2, 1, 5, 2))
	if err != nil {
		t.Fatalf("Crop 失败: %v", err)
	}
	if sub.Width() != 2 || sub.Height() != 2 {
		t.Fatalf("裁剪尺寸应为 2x2, 实际 %dx%d", sub.Width(), sub.Height())
	}
	got := []byte{sub.Buffer()[0], sub.Buffer()[4], sub.Buffer()[8], sub.Buffer()[12]}
	if !bytes.Equal(got, []byte{6, 7, 10, 11}) {
		t.Errorf("裁剪内容错误: %v", got)
	}

	if _, err := img.Crop(display.NewRect(10, 10, 1, 1)); !errors.Is(err, display.ErrEmptyRegion) {
		t.Errorf("越界裁剪应返回 ErrEmptyRegion, 实际 %v", err)
	}
}

func TestImageInterface(t *testing.T) {
	img, err := New(2, 1, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	if err != nil {
		t.Fatalf("New 失败: %v", err)
	}

	var _ stdimage.Image = img
	if img.Bounds() != stdimage.Rect(0, 0, 2, 1) {
		t.Errorf("Bounds 错误: %v", img.Bounds())
	}
	if c := img.At(1, 0); c != (color.RGBA{5, 6, 7, 8}) {
		t.Errorf("At(1,0) 错误: %v", c)
	}
	if c := img.At(5, 5); c != (color.RGBA{}) {
		t.Errorf("越界 At 应返回零值: %v", c)
	}

	rgba := img.RGBA()
	if rgba.Stride != 8 || !bytes.Equal(rgba.Pix, img.Buffer()) {
		t.Error("RGBA 转换错误")
	}
}

func TestFromImage(t *testing.T) {
	src := stdimage.NewNRGBA(stdimage.Rect(10, 10, 12, 11))
	src.Set(10, 10, color.NRGBA{R: 255, A: 255})
	src.Set(11, 10, color.NRGBA{B: 255, A: 255})

	img, err := FromImage(src)
	if err != nil {
		t.Fatalf("FromImage 失败: %v", err)
	}
	want := []byte{255, 0, 0, 255, 0, 0, 255, 255}
	if !bytes.Equal(img.Buffer(), want) {
		t.Errorf("期望 %v, 实际 %v", want, img.Buffer())
	}

	rgba := stdimage.NewRGBA(stdimage.Rect(0, 0, 4, 4))
	sub := rgba.SubImage(stdimage.Rect(1, 1, 3, 3))
	img, err = FromImage(sub)
	if err != nil {
		t.Fatalf("FromImage(SubImage) 失败: %v", err)
	}
	if img.Width() != 2 || img.Height() != 2 {
		t.Errorf("子图尺寸错误: %dx%d", img.Width(), img.Height())
	}
}
