// Package capture 提供各平台的截图后端
//
// 每个后端把「显示器 + 本地物理像素矩形」转换为一次原始截图 (pixel.Raw)，
// 并提供显示器枚举。后端在编译期按目标平台选择：
//
//   - Linux/BSD: XRandR 枚举，MIT-SHM / GetImage 截图；Wayland 会话经 D-Bus 截图
//   - Windows:   GDI (CreateDC + CreateDIBSection + BitBlt)
//   - macOS:     CoreGraphics (需要 cgo)
//   - robotgo:   使用 -tags robotgo 编译时的通用后端
//
// 后端只处理物理像素，缩放换算由 display 包在请求到达之前完成。
// 所有错误都不在内部重试。
package capture

import (
	"errors"
	"fmt"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

var (
	// ErrEnumerationFailed 无法列出显示器（通常是无显示环境）
	ErrEnumerationFailed = errors.New("枚举显示器失败")

	// ErrPermissionDenied 系统拒绝屏幕录制（macOS 隐私权限、Wayland 用户拒绝等）
	ErrPermissionDenied = errors.New("没有屏幕录制权限")

	// ErrDisplayGone 显示器在枚举之后被断开或重新配置
	ErrDisplayGone = errors.New("显示器已断开")

	// ErrCaptureFailed 其他后端错误
	ErrCaptureFailed = errors.New("截图失败")

	// ErrUnsupported 当前平台或编译方式不支持截图
	ErrUnsupported = errors.New("当前平台不支持截图")
)

// Engine 截图引擎
type Engine interface {
	// Capture 截取显示器 d 上本地物理像素矩形 r 内的像素
	// r 必须已裁剪到 [0,d.Width)×[0,d.Height)
	Capture(d display.Info, r display.Rect) (*pixel.Raw, error)
}

// Enumerator 显示器枚举
type Enumerator interface {
	// Displays 每次调用都重新查询系统，不缓存
	Displays() ([]display.Info, error)
}

// Backend 平台后端，同时提供枚举与截图
type Backend interface {
	Engine
	Enumerator
	// Name 后端名称，如 "x11"、"wayland"、"gdi"
	Name() string
}

// Default 返回编译期选定的平台后端
func Default() Backend {
	return newBackend()
}

// Verify 检查原始截图是否恰好覆盖请求区域
func Verify(raw *pixel.Raw, r display.Rect) error {
	if raw == nil {
		return fmt.Errorf("%w: 后端未返回数据", ErrCaptureFailed)
	}
	if raw.Width != r.Width || raw.Height != r.Height {
		return fmt.Errorf("%w: 期望 %dx%d, 实际 %dx%d", ErrCaptureFailed, r.Width, r.Height, raw.Width, raw.Height)
	}
	if err := raw.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCaptureFailed, err)
	}
	return nil
}

// checkRequest 检查请求矩形位于显示器本地范围内
func checkRequest(d display.Info, r display.Rect) error {
	if r.Empty() || r.X < 0 || r.Y < 0 || r.Width > d.Width-r.X || r.Height > d.Height-r.Y {
		return fmt.Errorf("%w: 区域 %s 超出显示器 %dx%d", ErrCaptureFailed, r, d.Width, d.Height)
	}
	return nil
}

func enumErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrEnumerationFailed, op, err)
}

func captureErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrCaptureFailed, op, err)
}

func goneErr(d display.Info, reason string) error {
	return fmt.Errorf("%w: 显示器 %d %s", ErrDisplayGone, d.ID, reason)
}
