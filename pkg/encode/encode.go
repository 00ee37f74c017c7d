// Package encode 将截图编码为常见图像格式
package encode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// Format 图像格式
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
)

// DefaultQuality 默认 JPEG 质量
const DefaultQuality = 80

// ErrUnsupportedFormat 不支持的图像格式
var ErrUnsupportedFormat = errors.New("不支持的图像格式")

// ParseFormat 解析格式名或扩展名（大小写不敏感，可带点）
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, s)
}

// MimeType 对应的 MIME 类型
func (f Format) MimeType() string {
	return "image/" + string(f)
}

// Ext 默认扩展名
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

// Encode 按格式编码图像
// quality 只对 JPEG 生效，取值 1-100，超出范围时使用 DefaultQuality
func Encode(w io.Writer, img image.Image, format Format, quality int) error {
	if img == nil {
		return fmt.Errorf("图像为空")
	}
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	switch format {
	case PNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("PNG 编码失败: %w", err)
		}
	case JPEG:
		if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("JPEG 编码失败: %w", err)
		}
	case BMP:
		if err := bmp.Encode(w, img); err != nil {
			return fmt.Errorf("BMP 编码失败: %w", err)
		}
	case TIFF:
		if err := tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return fmt.Errorf("TIFF 编码失败: %w", err)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	return nil
}

// ToBase64 将图像转换为 data URL
// format 为空时使用 JPEG（体积更小）
func ToBase64(img image.Image, format Format, quality int) (string, error) {
	if format == "" {
		format = JPEG
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return "", err
	}
	return fmt.Sprintf("data:%s;base64,%s", format.MimeType(),
		base64.StdEncoding.EncodeToString(buf.Bytes())), nil
}

// Save 按扩展名选择格式保存图像，父目录不存在时自动创建
func Save(path string, img image.Image, quality int) error {
	format, err := ParseFormat(filepath.Ext(path))
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("创建目录失败: %w", err)
	}

	var buf bytes.Buffer
	if err := Encode(&buf, img, format, quality); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("写入文件失败: %w", err)
	}
	return nil
}

// Thumbnail 按比例缩小到宽高都不超过 maxSide，小图原样返回
func Thumbnail(img image.Image, maxSide int) image.Image {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	if maxSide <= 0 || (w <= maxSide && h <= maxSide) {
		return img
	}

	if w >= h {
		h = max(1, h*maxSide/w)
		w = maxSide
	} else {
		w = max(1, w*maxSide/h)
		h = maxSide
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, b, draw.Src, nil)
	return dst
}
