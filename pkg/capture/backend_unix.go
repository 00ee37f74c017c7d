//go:build (linux || freebsd || openbsd || netbsd) && !robotgo

package capture

import (
	"os"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// unixBackend 在每次截图时判断会话类型
// 枚举始终走 X 协议（Wayland 下即 XWayland）
type unixBackend struct {
	x11     x11Backend
	wayland waylandBackend
	getenv  func(string) string
}

func newBackend() Backend {
	return unixBackend{getenv: os.Getenv}
}

func (b unixBackend) Name() string {
	if isWaylandSession(b.getenv) {
		return b.wayland.Name()
	}
	return b.x11.Name()
}

func (b unixBackend) Displays() ([]display.Info, error) {
	return b.x11.Displays()
}

func (b unixBackend) Capture(d display.Info, r display.Rect) (*pixel.Raw, error) {
	if isWaylandSession(b.getenv) {
		return b.wayland.Capture(d, r)
	}
	return b.x11.Capture(d, r)
}
