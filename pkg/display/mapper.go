package display

import (
	"fmt"
	"math"
)

// =====================================================================
// 坐标空间
// =====================================================================
//
//   1. 虚拟桌面 (virtual) — 所有显示器拼接的逻辑坐标，可为负
//   2. 本地物理像素 (local) — 相对单个显示器原点，按物理分辨率计
//
// local = (virtual - origin) * ScaleFactor
//
// 截图后端只接收 local 矩形，不再关心缩放。
// =====================================================================

// Locate 查找包含虚拟桌面点 p 的显示器
// 多个显示器重叠时主屏优先，其次取枚举顺序中的第一个
func Locate(p Point, displays []Info) (Info, error) {
	var (
		found Info
		ok    bool
	)
	for _, d := range displays {
		if !d.Bounds().Contains(p) {
			continue
		}
		if d.IsPrimary {
			return d, nil
		}
		if !ok {
			found, ok = d, true
		}
	}
	if !ok {
		return Info{}, fmt.Errorf("%w: (%d, %d)", ErrNotFound, p.X, p.Y)
	}
	return found, nil
}

// ToLocal 将虚拟桌面矩形转换为显示器本地物理像素矩形
// 结果可能越界，需要再经过 Clip
func ToLocal(r Rect, d Info) Rect {
	s := d.scale()
	// 在浮点下计算，避免整数加减溢出
	x0 := (float64(r.X) - float64(d.X)) * s
	y0 := (float64(r.Y) - float64(d.Y)) * s
	x1 := (float64(r.X) + float64(r.Width) - float64(d.X)) * s
	y1 := (float64(r.Y) + float64(r.Height) - float64(d.Y)) * s

	// 两端分别取整，保证相邻区域拼接时没有缝隙
	// 坐标限制在 ±MaxInt/2，宽高相减不会溢出
	lx, ly := clampInt(math.Floor(x0)), clampInt(math.Floor(y0))
	return Rect{
		X:      lx,
		Y:      ly,
		Width:  clampInt(math.Ceil(x1)) - lx,
		Height: clampInt(math.Ceil(y1)) - ly,
	}
}

const coordLimit = math.MaxInt / 2

func clampInt(v float64) int {
	switch {
	case v >= coordLimit:
		return coordLimit
	case v <= -coordLimit:
		return -coordLimit
	}
	return int(v)
}

// Clip 将矩形与 [0,width)×[0,height) 求交
// 只会缩小，不会放大；交集为空时返回 ErrEmptyRegion
func Clip(r Rect, width, height int) (Rect, error) {
	if r.Width <= 0 || r.Height <= 0 {
		return Rect{}, fmt.Errorf("%w: %s 与 %dx%d 无交集", ErrEmptyRegion, r, width, height)
	}
	x0, x1 := clipSpan(r.X, r.Width, width)
	y0, y1 := clipSpan(r.Y, r.Height, height)

	if x1 <= x0 || y1 <= y0 {
		return Rect{}, fmt.Errorf("%w: %s 与 %dx%d 无交集", ErrEmptyRegion, r, width, height)
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}, nil
}

// clipSpan 求 [pos, pos+length) 与 [0, limit) 的交集，不计算可能溢出的 pos+length
func clipSpan(pos, length, limit int) (lo, hi int) {
	if pos < 0 {
		// 符号相反，不会溢出
		length += pos
		pos = 0
	}
	if length <= 0 || pos >= limit {
		return pos, pos
	}
	if length >= limit-pos {
		return pos, limit
	}
	return pos, pos + length
}

// ScaleInt 缩放整数值
func ScaleInt(value int, factor float64) int {
	if factor <= 0 {
		return value
	}
	return int(math.Round(float64(value) * factor))
}

// NormalizeScale 过滤异常的缩放比例
// NaN、无穷或超出 [0.5, 4] 视为 1.0，接近 1.0 的值吸附为 1.0
func NormalizeScale(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 1.0
	}
	if v < 0.5 || v > 4.0 {
		return 1.0
	}
	if math.Abs(v-1.0) < 0.05 {
		return 1.0
	}
	return v
}
