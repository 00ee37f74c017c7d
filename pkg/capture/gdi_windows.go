//go:build windows && !robotgo

package capture

import (
	"errors"
	"fmt"
	"sync"
	"syscall"
	"unsafe"

	"github.com/lxn/win"

	"github.com/zoeyai/screencap/internal/logger"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

var (
	user32 = syscall.NewLazyDLL("user32.dll")
	gdi32  = syscall.NewLazyDLL("gdi32.dll")
	shcore = syscall.NewLazyDLL("shcore.dll")

	procEnumDisplayMonitors  = user32.NewProc("EnumDisplayMonitors")
	procGetMonitorInfo       = user32.NewProc("GetMonitorInfoW")
	procEnumDisplaySettingsW = user32.NewProc("EnumDisplaySettingsW")
	procCreateDIBSection     = gdi32.NewProc("CreateDIBSection")
	procGetDpiForMonitor     = shcore.NewProc("GetDpiForMonitor")

	procGetProcessDpiAwareness = shcore.NewProc("GetProcessDpiAwareness")
)

const (
	enumCurrentSettings = 0xFFFFFFFF
	mdtEffectiveDPI     = 0

	horzRes        = 8
	desktopHorzRes = 118

	biRGB        = 0
	dibRGBColors = 0
	srcCopy      = 0x00CC0020
	captureBlt   = 0x40000000

	errorAccessDenied  = 5
	monitorInfoPrimary = 1
)

type monitorInfoEx struct {
	win.MONITORINFO
	DeviceName [win.CCHDEVICENAME]uint16
}

// devMode DEVMODEW 的显示器部分，共 220 字节
type devMode struct {
	DeviceName         [32]uint16
	SpecVersion        uint16
	DriverVersion      uint16
	Size               uint16
	DriverExtra        uint16
	Fields             uint32
	Position           win.POINT
	DisplayOrientation uint32
	DisplayFixedOutput uint32
	_                  [5]int16
	FormName           [32]uint16
	LogPixels          uint16
	BitsPerPel         uint32
	PelsWidth          uint32
	PelsHeight         uint32
	DisplayFlags       uint32
	DisplayFrequency   uint32
	_                  [8]uint32
}

// 回调数量有进程级上限，只创建一次
var (
	enumMu       sync.Mutex
	enumHandles  []win.HMONITOR
	enumCallback = syscall.NewCallback(func(h win.HMONITOR, hdc win.HDC, rect *win.RECT, data uintptr) uintptr {
		enumHandles = append(enumHandles, h)
		return 1
	})
)

// gdiBackend 使用 GDI BitBlt 截图
type gdiBackend struct{}

func newBackend() Backend { return gdiBackend{} }

func (gdiBackend) Name() string { return "gdi" }

func (gdiBackend) Displays() ([]display.Info, error) {
	enumMu.Lock()
	enumHandles = enumHandles[:0]
	ret, _, err := procEnumDisplayMonitors.Call(0, 0, enumCallback, 0)
	handles := append([]win.HMONITOR(nil), enumHandles...)
	enumMu.Unlock()
	if ret == 0 {
		return nil, enumErr("EnumDisplayMonitors", err)
	}

	displays := make([]display.Info, 0, len(handles))
	for _, h := range handles {
		d, err := gdiDisplayInfo(h)
		if err != nil {
			logger.Warn("读取显示器 %#x 失败: %v", uintptr(h), err)
			continue
		}
		displays = append(displays, d)
	}
	if len(displays) == 0 {
		return nil, enumErr("EnumDisplayMonitors", errors.New("没有可用的显示器"))
	}
	return displays, nil
}

func gdiMonitorInfo(h win.HMONITOR) (monitorInfoEx, bool) {
	var mi monitorInfoEx
	mi.CbSize = uint32(unsafe.Sizeof(mi))
	ret, _, _ := procGetMonitorInfo.Call(uintptr(h), uintptr(unsafe.Pointer(&mi)))
	return mi, ret != 0
}

func gdiCurrentMode(mi *monitorInfoEx) (devMode, bool) {
	var dm devMode
	dm.Size = uint16(unsafe.Sizeof(dm))
	ret, _, _ := procEnumDisplaySettingsW.Call(
		uintptr(unsafe.Pointer(&mi.DeviceName[0])),
		enumCurrentSettings,
		uintptr(unsafe.Pointer(&dm)),
	)
	return dm, ret != 0 && dm.PelsWidth > 0 && dm.PelsHeight > 0
}

func gdiDisplayInfo(h win.HMONITOR) (display.Info, error) {
	mi, ok := gdiMonitorInfo(h)
	if !ok {
		return display.Info{}, fmt.Errorf("GetMonitorInfoW 失败: %d", win.GetLastError())
	}
	dm, ok := gdiCurrentMode(&mi)
	if !ok {
		return display.Info{}, fmt.Errorf("EnumDisplaySettingsW 失败: %d", win.GetLastError())
	}

	scale := gdiScale(h, &mi)
	return display.Info{
		ID:          uint32(h),
		Name:        syscall.UTF16ToString(mi.DeviceName[:]),
		X:           display.ScaleInt(int(dm.Position.X), 1/scale),
		Y:           display.ScaleInt(int(dm.Position.Y), 1/scale),
		Width:       int(dm.PelsWidth),
		Height:      int(dm.PelsHeight),
		ScaleFactor: scale,
		Rotation:    display.Rotation(dm.DisplayOrientation%4) * 90,
		Frequency:   float64(dm.DisplayFrequency),
		IsPrimary:   mi.DwFlags&monitorInfoPrimary != 0,
	}, nil
}

// gdiScale 进程感知 DPI 时使用 GetDpiForMonitor（Windows 8.1+），否则比较物理与逻辑水平分辨率
func gdiScale(h win.HMONITOR, mi *monitorInfoEx) float64 {
	awareness, awareOK := gdiProcessAwareness()

	var dpi uint32
	if awareOK && awareness != processDPIUnaware && procGetDpiForMonitor.Find() == nil {
		var dx, dy uint32
		r, _, _ := procGetDpiForMonitor.Call(uintptr(h), mdtEffectiveDPI,
			uintptr(unsafe.Pointer(&dx)), uintptr(unsafe.Pointer(&dy)))
		if r == 0 {
			dpi = dx
		}
	}
	if dpi > 0 {
		return gdiScaleFrom(awareness, awareOK, dpi, 0, 0)
	}
	logger.Debug("进程未感知 DPI 或 GetDpiForMonitor 不可用, 改用 GetDeviceCaps")

	hdc := win.CreateDC(&mi.DeviceName[0], &mi.DeviceName[0], nil, nil)
	if hdc == 0 {
		return 1.0
	}
	defer win.DeleteDC(hdc)

	logical := int(win.GetDeviceCaps(hdc, horzRes))
	physical := int(win.GetDeviceCaps(hdc, desktopHorzRes))
	return gdiScaleFrom(awareness, false, 0, logical, physical)
}

// gdiProcessAwareness 查询当前进程的 DPI 感知级别
func gdiProcessAwareness() (int, bool) {
	if procGetProcessDpiAwareness.Find() != nil {
		return processDPIUnaware, false
	}
	var v uint32
	// 进程句柄为 NULL 表示当前进程
	r, _, _ := procGetProcessDpiAwareness.Call(0, uintptr(unsafe.Pointer(&v)))
	if r != 0 {
		return processDPIUnaware, false
	}
	return int(v), true
}

func (gdiBackend) Capture(d display.Info, r display.Rect) (*pixel.Raw, error) {
	if err := checkRequest(d, r); err != nil {
		return nil, err
	}

	h := win.HMONITOR(uintptr(d.ID))
	mi, ok := gdiMonitorInfo(h)
	if !ok {
		return nil, goneErr(d, "句柄已失效")
	}
	dm, ok := gdiCurrentMode(&mi)
	if !ok || int(dm.PelsWidth) != d.Width || int(dm.PelsHeight) != d.Height {
		return nil, goneErr(d, "分辨率已改变")
	}

	hdc := win.CreateDC(&mi.DeviceName[0], &mi.DeviceName[0], nil, nil)
	if hdc == 0 {
		return nil, captureErr("CreateDC", syscall.Errno(win.GetLastError()))
	}
	defer win.DeleteDC(hdc)

	memDC := win.CreateCompatibleDC(hdc)
	if memDC == 0 {
		return nil, captureErr("CreateCompatibleDC", syscall.Errno(win.GetLastError()))
	}
	defer win.DeleteDC(memDC)

	// 负高度表示自上而下的 DIB
	bi := win.BITMAPINFO{
		BmiHeader: win.BITMAPINFOHEADER{
			BiSize:        uint32(unsafe.Sizeof(win.BITMAPINFOHEADER{})),
			BiWidth:       int32(r.Width),
			BiHeight:      -int32(r.Height),
			BiPlanes:      1,
			BiBitCount:    32,
			BiCompression: biRGB,
		},
	}
	var bits unsafe.Pointer
	hbmp := createDIBSection(memDC, &bi, &bits)
	if hbmp == 0 || bits == nil {
		return nil, captureErr("CreateDIBSection", syscall.Errno(win.GetLastError()))
	}
	defer win.DeleteObject(win.HGDIOBJ(hbmp))

	old := win.SelectObject(memDC, win.HGDIOBJ(hbmp))
	if old == 0 {
		return nil, captureErr("SelectObject", syscall.Errno(win.GetLastError()))
	}
	defer win.SelectObject(memDC, old)

	if !win.BitBlt(memDC, 0, 0, int32(r.Width), int32(r.Height), hdc, int32(r.X), int32(r.Y), srcCopy|captureBlt) {
		code := win.GetLastError()
		if code == errorAccessDenied {
			return nil, fmt.Errorf("%w: BitBlt 被拒绝（安全桌面或锁屏）", ErrPermissionDenied)
		}
		return nil, captureErr("BitBlt", syscall.Errno(code))
	}

	stride := r.Width * 4
	pix := make([]byte, stride*r.Height)
	copy(pix, unsafe.Slice((*byte)(bits), len(pix)))

	return &pixel.Raw{
		Pix:    pix,
		Width:  r.Width,
		Height: r.Height,
		Stride: stride,
		Order:  pixel.BGRX,
	}, nil
}

func createDIBSection(hdc win.HDC, bi *win.BITMAPINFO, bits *unsafe.Pointer) win.HBITMAP {
	ret, _, _ := procCreateDIBSection.Call(
		uintptr(hdc),
		uintptr(unsafe.Pointer(bi)),
		dibRGBColors,
		uintptr(unsafe.Pointer(bits)),
		0,
		0,
	)
	return win.HBITMAP(ret)
}
