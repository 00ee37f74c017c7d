//go:build darwin && cgo && !robotgo

package capture

/*
#cgo LDFLAGS: -framework CoreGraphics -framework CoreFoundation
#include <CoreGraphics/CoreGraphics.h>
*/
import "C"

import (
	"errors"
	"math"
	"strconv"
	"unsafe"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/permissions"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// cgBackend 使用 CoreGraphics 截图
// 坐标以 point 为单位，CGDisplayBounds 即虚拟桌面坐标
type cgBackend struct{}

func newBackend() Backend { return cgBackend{} }

func (cgBackend) Name() string { return "coregraphics" }

func (cgBackend) Displays() ([]display.Info, error) {
	var count C.uint32_t
	if C.CGGetActiveDisplayList(0, nil, &count) != C.kCGErrorSuccess {
		return nil, enumErr("CGGetActiveDisplayList", errors.New("查询显示器数量失败"))
	}
	if count == 0 {
		return nil, enumErr("CGGetActiveDisplayList", errors.New("没有活动显示器"))
	}

	ids := make([]C.CGDirectDisplayID, count)
	if C.CGGetActiveDisplayList(count, &ids[0], &count) != C.kCGErrorSuccess {
		return nil, enumErr("CGGetActiveDisplayList", errors.New("读取显示器列表失败"))
	}

	displays := make([]display.Info, 0, count)
	for _, id := range ids[:count] {
		displays = append(displays, cgDisplayInfo(id))
	}
	return displays, nil
}

func cgDisplayInfo(id C.CGDirectDisplayID) display.Info {
	bounds := C.CGDisplayBounds(id)
	d := display.Info{
		ID:          uint32(id),
		X:           int(bounds.origin.x),
		Y:           int(bounds.origin.y),
		Width:       int(C.CGDisplayPixelsWide(id)),
		Height:      int(C.CGDisplayPixelsHigh(id)),
		ScaleFactor: 1.0,
		IsPrimary:   C.CGDisplayIsMain(id) != 0,
	}

	mode := C.CGDisplayCopyDisplayMode(id)
	if mode != 0 {
		d.Width = int(C.CGDisplayModeGetPixelWidth(mode))
		d.Height = int(C.CGDisplayModeGetPixelHeight(mode))
		d.Frequency = float64(C.CGDisplayModeGetRefreshRate(mode))
		C.CGDisplayModeRelease(mode)
	}
	if w := float64(bounds.size.width); w > 0 {
		d.ScaleFactor = display.NormalizeScale(float64(d.Width) / w)
	}
	if rot, err := display.ParseRotation(math.Round(float64(C.CGDisplayRotation(id)))); err == nil {
		d.Rotation = rot
	}
	if C.CGDisplayIsBuiltin(id) != 0 {
		d.Name = "Built-in Display"
	} else {
		d.Name = "Display " + strconv.FormatUint(uint64(id), 10)
	}
	return d
}

func (cgBackend) Capture(d display.Info, r display.Rect) (*pixel.Raw, error) {
	if err := checkRequest(d, r); err != nil {
		return nil, err
	}
	if !permissions.ScreenRecordingGranted() {
		return nil, ErrPermissionDenied
	}

	id := C.CGDirectDisplayID(d.ID)
	if C.CGDisplayIsActive(id) == 0 || C.CGDisplayIsOnline(id) == 0 {
		return nil, goneErr(d, "已离线")
	}

	img := C.CGDisplayCreateImage(id)
	if img == 0 {
		return nil, captureErr("CGDisplayCreateImage", errors.New("返回空图像"))
	}
	defer C.CGImageRelease(img)

	w, h := int(C.CGImageGetWidth(img)), int(C.CGImageGetHeight(img))
	if w != d.Width || h != d.Height {
		return nil, goneErr(d, "分辨率已改变")
	}
	if C.CGImageGetBitsPerPixel(img) != 32 {
		return nil, captureErr("CGImage", errors.New("仅支持 32 位像素"))
	}
	order, err := cgOrder(uint32(C.CGImageGetBitmapInfo(img)))
	if err != nil {
		return nil, captureErr("CGImage", err)
	}
	stride := int(C.CGImageGetBytesPerRow(img))

	data := C.CGDataProviderCopyData(C.CGImageGetDataProvider(img))
	if data == 0 {
		return nil, captureErr("CGDataProviderCopyData", errors.New("无法读取像素"))
	}
	defer C.CFRelease(C.CFTypeRef(data))

	// 只复制覆盖请求区域的字节，行跨度保持不变
	start := r.Y*stride + r.X*4
	end := (r.Y+r.Height-1)*stride + (r.X+r.Width)*4
	if total := int(C.CFDataGetLength(data)); end > total {
		return nil, captureErr("CGImage", errors.New("像素数据长度不足"))
	}
	base := unsafe.Pointer(C.CFDataGetBytePtr(data))
	pix := C.GoBytes(unsafe.Add(base, start), C.int(end-start))

	return &pixel.Raw{
		Pix:    pix,
		Width:  r.Width,
		Height: r.Height,
		Stride: stride,
		Order:  order,
	}, nil
}
