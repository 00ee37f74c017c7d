package screen

import (
	"github.com/zoeyai/screencap/pkg/capture"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// 截图可能返回的全部错误，用 errors.Is 判断
var (
	ErrEnumerationFailed = capture.ErrEnumerationFailed
	ErrPermissionDenied  = capture.ErrPermissionDenied
	ErrDisplayGone       = capture.ErrDisplayGone
	ErrCaptureFailed     = capture.ErrCaptureFailed
	ErrUnsupported       = capture.ErrUnsupported

	ErrNotFound    = display.ErrNotFound
	ErrEmptyRegion = display.ErrEmptyRegion
	ErrInvalidInfo = display.ErrInvalidInfo

	ErrSizeMismatch = pixel.ErrSizeMismatch
)
