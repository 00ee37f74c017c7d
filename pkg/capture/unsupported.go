//go:build !robotgo && !windows && !(darwin && cgo) && !linux && !freebsd && !openbsd && !netbsd

package capture

import (
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

type unsupportedBackend struct{}

func newBackend() Backend { return unsupportedBackend{} }

func (unsupportedBackend) Name() string { return "unsupported" }

func (unsupportedBackend) Displays() ([]display.Info, error) {
	return nil, ErrUnsupported
}

func (unsupportedBackend) Capture(display.Info, display.Rect) (*pixel.Raw, error) {
	return nil, ErrUnsupported
}
