package capture

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// x11Order 根据 X 服务器像素格式推导内存中的通道顺序
// redMask 取根窗口 visual 的红色掩码；depth 为 32 时最高字节视为 alpha
func x11Order(depth, bitsPerPixel int, lsbFirst bool, redMask uint32) (pixel.ChannelOrder, error) {
	redHigh := redMask == 0x00ff0000
	if !redHigh && redMask != 0x000000ff {
		return 0, fmt.Errorf("不支持的红色掩码 %#x", redMask)
	}

	switch bitsPerPixel {
	case 32:
		alpha := depth == 32
		switch {
		case lsbFirst && redHigh:
			return pick(alpha, pixel.BGRA, pixel.BGRX), nil
		case lsbFirst:
			return pick(alpha, pixel.RGBA, pixel.RGBX), nil
		case redHigh:
			return pick(alpha, pixel.ARGB, pixel.XRGB), nil
		default:
			return pick(alpha, pixel.ABGR, pixel.XBGR), nil
		}
	case 24:
		if lsbFirst == redHigh {
			return pixel.BGR, nil
		}
		return pixel.RGB, nil
	}
	return 0, fmt.Errorf("不支持的像素位数 %d", bitsPerPixel)
}

func pick(alpha bool, withAlpha, without pixel.ChannelOrder) pixel.ChannelOrder {
	if alpha {
		return withAlpha
	}
	return without
}

// x11Stride ZPixmap 的行跨度，按 scanlinePad 位对齐
func x11Stride(width, bitsPerPixel, scanlinePad int) int {
	bits := width * bitsPerPixel
	if scanlinePad <= 0 {
		scanlinePad = 8
	}
	return (bits + scanlinePad - 1) / scanlinePad * scanlinePad / 8
}

// x11Rotation 将 RandR 旋转位转换为角度
func x11Rotation(bits uint16) display.Rotation {
	switch {
	case bits&0x2 != 0:
		return display.Rotate90
	case bits&0x4 != 0:
		return display.Rotate180
	case bits&0x8 != 0:
		return display.Rotate270
	}
	return display.Rotate0
}

// parseXftDPI 从 RESOURCE_MANAGER 属性中解析 Xft.dpi
func parseXftDPI(resources string) (float64, bool) {
	sc := bufio.NewScanner(strings.NewReader(resources))
	for sc.Scan() {
		key, value, ok := strings.Cut(sc.Text(), ":")
		if !ok || strings.TrimSpace(key) != "Xft.dpi" {
			continue
		}
		dpi, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil || dpi <= 0 {
			return 0, false
		}
		return dpi, true
	}
	return 0, false
}

// PROCESS_DPI_AWARENESS
const (
	processDPIUnaware         = 0
	processSystemDPIAware     = 1
	processPerMonitorDPIAware = 2
)

// gdiScaleFrom 选择 Windows 显示器缩放比例
// 进程不感知 DPI 时 GetDpiForMonitor 总是返回 96，只能用 DESKTOPHORZRES/HORZRES
func gdiScaleFrom(awareness int, awarenessOK bool, monitorDPI uint32, logicalRes, physicalRes int) float64 {
	if awarenessOK && awareness != processDPIUnaware && monitorDPI > 0 {
		return display.NormalizeScale(float64(monitorDPI) / 96.0)
	}
	if logicalRes <= 0 || physicalRes <= 0 {
		return 1.0
	}
	return display.NormalizeScale(float64(physicalRes) / float64(logicalRes))
}

// CoreGraphics CGBitmapInfo
const (
	cgAlphaInfoMask           = 0x1f
	cgAlphaNone               = 0
	cgAlphaPremultipliedLast  = 1
	cgAlphaPremultipliedFirst = 2
	cgAlphaLast               = 3
	cgAlphaFirst              = 4
	cgAlphaNoneSkipLast       = 5
	cgAlphaNoneSkipFirst      = 6

	cgByteOrderMask     = 0x7000
	cgByteOrderDefault  = 0 << 12
	cgByteOrder32Little = 2 << 12
	cgByteOrder32Big    = 4 << 12
)

// cgOrder 根据 CGImage 的 bitmap info 推导 32 位像素的通道顺序
func cgOrder(info uint32) (pixel.ChannelOrder, error) {
	alphaInfo := info & cgAlphaInfoMask
	byteOrder := info & cgByteOrderMask

	var first, alpha bool
	switch alphaInfo {
	case cgAlphaPremultipliedFirst, cgAlphaFirst:
		first, alpha = true, true
	case cgAlphaNoneSkipFirst:
		first = true
	case cgAlphaPremultipliedLast, cgAlphaLast:
		alpha = true
	case cgAlphaNoneSkipLast, cgAlphaNone:
	default:
		return 0, fmt.Errorf("不支持的 alpha 信息 %d", alphaInfo)
	}

	switch byteOrder {
	case cgByteOrder32Little:
		if first {
			return pick(alpha, pixel.BGRA, pixel.BGRX), nil
		}
		return pick(alpha, pixel.ABGR, pixel.XBGR), nil
	case cgByteOrderDefault, cgByteOrder32Big:
		if first {
			return pick(alpha, pixel.ARGB, pixel.XRGB), nil
		}
		return pick(alpha, pixel.RGBA, pixel.RGBX), nil
	}
	return 0, fmt.Errorf("不支持的字节序 %#x", byteOrder)
}

// isWaylandSession 判断是否运行在 Wayland 会话中
func isWaylandSession(getenv func(string) string) bool {
	return getenv("XDG_SESSION_TYPE") == "wayland" ||
		strings.Contains(strings.ToLower(getenv("WAYLAND_DISPLAY")), "wayland")
}

// portalRequestPath 预测 xdg-desktop-portal 的 Request 对象路径
// 需要在调用前订阅，否则可能错过 Response 信号
func portalRequestPath(uniqueName, token string) string {
	sender := strings.ReplaceAll(strings.TrimPrefix(uniqueName, ":"), ".", "_")
	return "/org/freedesktop/portal/desktop/request/" + sender + "/" + token
}
