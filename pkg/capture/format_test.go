package capture

import (
	"testing"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

func TestX11Order(t *testing.T) {
	tests := []struct {
		depth, bpp int
		lsb        bool
		redMask    uint32
		want       pixel.ChannelOrder
	}{
		{24, 32, true, 0xff0000, pixel.BGRX},
		{32, 32, true, 0xff0000, pixel.BGRA},
		{24, 32, false, 0xff0000, pixel.XRGB},
		{32, 32, false, 0xff0000, pixel.ARGB},
		{24, 32, true, 0xff, pixel.RGBX},
		{24, 32, false, 0xff, pixel.XBGR},
		{24, 24, true, 0xff0000, pixel.BGR},
		{24, 24, false, 0xff0000, pixel.RGB},
		{24, 24, true, 0xff, pixel.RGB},
	}
	for _, tt := range tests {
		got, err := x11Order(tt.depth, tt.bpp, tt.lsb, tt.redMask)
		if err != nil {
			t.Fatalf("x11Order(%d, %d, %v, %#x) 失败: %v", tt.depth, tt.bpp, tt.lsb, tt.redMask, err)
		}
		if got != tt.want {
			t.Errorf("x11Order(%d, %d, %v, %#x) 期望 %s, 实际 %s", tt.depth, tt.bpp, tt.lsb, tt.redMask, tt.want, got)
		}
	}

	if _, err := x11Order(16, 16, true, 0xf800); err == nil {
		t.Error("16 位格式应返回错误")
	}
}

func TestX11Stride(t *testing.T) {
	tests := []struct{ width, bpp, pad, want int }{
		{10, 32, 32, 40},
		{10, 24, 32, 32},
		{1, 24, 32, 4},
		{3, 24, 8, 9},
		{5, 32, 0, 20},
	}
	for _, tt := range tests {
		if got := x11Stride(tt.width, tt.bpp, tt.pad); got != tt.want {
			t.Errorf("x11Stride(%d, %d, %d) 期望 %d, 实际 %d", tt.width, tt.bpp, tt.pad, tt.want, got)
		}
	}
}

func TestX11Rotation(t *testing.T) {
	tests := map[uint16]display.Rotation{
		1:  display.Rotate0,
		2:  display.Rotate90,
		4:  display.Rotate180,
		8:  display.Rotate270,
		17: display.Rotate0, // Rotate0 | ReflectX
	}
	for bits, want := range tests {
		if got := x11Rotation(bits); got != want {
			t.Errorf("x11Rotation(%d) 期望 %d, 实际 %d", bits, want, got)
		}
	}
}

func TestParseXftDPI(t *testing.T) {
	res := "Xcursor.size:\t24\nXft.antialias:\t1\nXft.dpi:\t144\n"
	dpi, ok := parseXftDPI(res)
	if !ok || dpi != 144 {
		t.Errorf("期望 144, 实际 %v (%v)", dpi, ok)
	}
	if _, ok := parseXftDPI("Xft.dpi: abc\n"); ok {
		t.Error("非数字 dpi 应被忽略")
	}
	if _, ok := parseXftDPI(""); ok {
		t.Error("空资源应返回 false")
	}
}

func TestGdiScaleFrom(t *testing.T) {
	tests := []struct {
		name        string
		awareness   int
		awarenessOK bool
		dpi         uint32
		logical     int
		physical    int
		want        float64
	}{
		{name: "per-monitor aware", awareness: processPerMonitorDPIAware, awarenessOK: true, dpi: 144, want: 1.5},
		{name: "system aware", awareness: processSystemDPIAware, awarenessOK: true, dpi: 192, want: 2},
		{name: "unaware ignores monitor dpi", awareness: processDPIUnaware, awarenessOK: true, dpi: 96, logical: 1920, physical: 3840, want: 2},
		{name: "awareness query failed", awareness: processPerMonitorDPIAware, awarenessOK: false, dpi: 144, logical: 2560, physical: 3200, want: 1.25},
		{name: "aware without dpi", awareness: processPerMonitorDPIAware, awarenessOK: true, logical: 1280, physical: 1920, want: 1.5},
		{name: "no device caps", awareness: processDPIUnaware, awarenessOK: true, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := gdiScaleFrom(tt.awareness, tt.awarenessOK, tt.dpi, tt.logical, tt.physical)
			if got != tt.want {
				t.Errorf("期望 %v, 实际 %v", tt.want, got)
			}
		})
	}
}

func TestCGOrder(t *testing.T) {
	tests := []struct {
		info uint32
		want pixel.ChannelOrder
	}{
		// kCGImageAlphaNoneSkipFirst | kCGBitmapByteOrder32Little，常见的屏幕格式
		{cgAlphaNoneSkipFirst | cgByteOrder32Little, pixel.BGRX},
		{cgAlphaPremultipliedFirst | cgByteOrder32Little, pixel.BGRA},
		{cgAlphaPremultipliedLast | cgByteOrder32Little, pixel.ABGR},
		{cgAlphaNoneSkipLast | cgByteOrder32Little, pixel.XBGR},
		{cgAlphaPremultipliedLast, pixel.RGBA},
		{cgAlphaNoneSkipLast | cgByteOrder32Big, pixel.RGBX},
		{cgAlphaFirst | cgByteOrder32Big, pixel.ARGB},
		{cgAlphaNoneSkipFirst, pixel.XRGB},
	}
	for _, tt := range tests {
		got, err := cgOrder(tt.info)
		if err != nil {
			t.Fatalf("cgOrder(%#x) 失败: %v", tt.info, err)
		}
		if got != tt.want {
			t.Errorf("cgOrder(%#x) 期望 %s, 实际 %s", tt.info, tt.want, got)
		}
	}

	if _, err := cgOrder(7); err == nil {
		t.Error("AlphaOnly 应返回错误")
	}
	if _, err := cgOrder(cgAlphaNoneSkipFirst | 1<<12); err == nil {
		t.Error("16 位字节序应返回错误")
	}
}

func TestIsWaylandSession(t *testing.T) {
	tests := []struct {
		name    string
		session string
		display string
		want    bool
	}{
		{"x11", "x11", "", false},
		{"session type", "wayland", "", true},
		{"wayland display", "", "wayland-0", true},
		{"upper case", "", "WAYLAND-1", true},
		{"tty", "tty", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("XDG_SESSION_TYPE", tt.session)
			t.Setenv("WAYLAND_DISPLAY", tt.display)
			if got := isWaylandSession(osGetenv); got != tt.want {
				t.Errorf("期望 %v, 实际 %v", tt.want, got)
			}
		})
	}
}

func TestPortalRequestPath(t *testing.T) {
	got := portalRequestPath(":1.42", "screencap1")
	want := "/org/freedesktop/portal/desktop/request/1_42/screencap1"
	if got != want {
		t.Errorf("期望 %s, 实际 %s", want, got)
	}
}
