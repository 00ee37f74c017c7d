// Package screen 跨平台截图入口
//
// 典型用法:
//
//	screens, err := screen.All()
//	img, err := screens[0].Capture()
//
//	s, err := screen.FromPoint(100, 100)
//	img, err := s.CaptureArea(0, 0, 300, 200)
package screen

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/zoeyai/screencap/internal/logger"
	"github.com/zoeyai/screencap/pkg/capture"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/image"
)

// Screen 一个物理显示器
// Info 是创建时的快照，显示器配置改变后需要重新枚举
type Screen struct {
	info   display.Info
	engine capture.Engine

	// 同一个 Screen 上的截图串行执行
	mu sync.Mutex
}

// New 用已有的显示器信息创建 Screen
func New(info display.Info, opts ...Option) (*Screen, error) {
	if err := info.Validate(); err != nil {
		return nil, err
	}
	o := ApplyOptions(opts...)
	return &Screen{info: info, engine: o.Engine}, nil
}

// All 枚举当前连接的全部显示器
func All(opts ...Option) ([]*Screen, error) {
	o := ApplyOptions(opts...)
	return all(o)
}

func all(o *Options) ([]*Screen, error) {
	infos, err := o.Enumerator.Displays()
	if err != nil {
		if errors.Is(err, capture.ErrEnumerationFailed) || errors.Is(err, capture.ErrUnsupported) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", capture.ErrEnumerationFailed, err)
	}
	if err := display.ValidateSnapshot(infos); err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrEnumerationFailed, err)
	}

	screens := make([]*Screen, 0, len(infos))
	for _, info := range infos {
		screens = append(screens, &Screen{info: info, engine: o.Engine})
	}
	logger.Debug("枚举到 %d 个显示器", len(screens))
	return screens, nil
}

// FromPoint 返回包含虚拟桌面坐标 (x, y) 的显示器
func FromPoint(x, y int, opts ...Option) (*Screen, error) {
	o := ApplyOptions(opts...)
	screens, err := all(o)
	if err != nil {
		return nil, err
	}

	infos := make([]display.Info, len(screens))
	for i, s := range screens {
		infos[i] = s.info
	}
	info, err := display.Locate(display.Point{X: x, Y: y}, infos)
	if err != nil {
		return nil, err
	}
	return &Screen{info: info, engine: o.Engine}, nil
}

// Primary 返回主显示器，没有标记主屏时返回第一个
func Primary(opts ...Option) (*Screen, error) {
	o := ApplyOptions(opts...)
	screens, err := all(o)
	if err != nil {
		return nil, err
	}
	for _, s := range screens {
		if s.info.IsPrimary {
			return s, nil
		}
	}
	if len(screens) == 0 {
		return nil, fmt.Errorf("%w: 没有显示器", capture.ErrEnumerationFailed)
	}
	return screens[0], nil
}

// Info 显示器信息快照
func (s *Screen) Info() display.Info {
	return s.info
}

func (s *Screen) String() string {
	return s.info.String()
}

// Capture 截取整个显示器
func (s *Screen) Capture() (*image.Image, error) {
	return s.capture(s.info.LocalBounds())
}

// CaptureArea 截取显示器本地物理像素区域
// 超出显示器的部分被裁掉，完全在外时返回 ErrEmptyRegion
func (s *Screen) CaptureArea(x, y, width, height int) (*image.Image, error) {
	r, err := display.Clip(display.NewRect(x, y, width, height), s.info.Width, s.info.Height)
	if err != nil {
		return nil, err
	}
	return s.capture(r)
}

// CaptureVirtual 截取虚拟桌面坐标下的区域，只包含本显示器覆盖的部分
func (s *Screen) CaptureVirtual(x, y, width, height int) (*image.Image, error) {
	local := display.ToLocal(display.NewRect(x, y, width, height), s.info)
	r, err := display.Clip(local, s.info.Width, s.info.Height)
	if err != nil {
		return nil, err
	}
	return s.capture(r)
}

func (s *Screen) capture(r display.Rect) (*image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := time.Now()
	img, err := s.captureLocked(r)
	elapsed := float64(time.Since(start).Microseconds()) / 1000.0

	detail := fmt.Sprintf("display=%d area=%s", s.info.ID, r)
	if err != nil {
		logger.LogEvent("CAP", false, elapsed, detail+" err="+err.Error())
		return nil, err
	}
	logger.LogEvent("CAP", true, elapsed, detail)
	return img, nil
}

func (s *Screen) captureLocked(r display.Rect) (*image.Image, error) {
	if s.engine == nil {
		return nil, capture.ErrUnsupported
	}
	raw, err := s.engine.Capture(s.info, r)
	if err != nil {
		return nil, err
	}
	if err := capture.Verify(raw, r); err != nil {
		return nil, err
	}
	img, err := image.FromRaw(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", capture.ErrCaptureFailed, err)
	}
	return img, nil
}
