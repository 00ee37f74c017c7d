// Package display 描述物理显示器以及虚拟桌面与显示器本地像素之间的坐标换算
package display

import (
	"errors"
	"fmt"
	stdimage "image"
)

var (
	// ErrNotFound 没有任何显示器包含指定的点
	ErrNotFound = errors.New("未找到包含该点的显示器")

	// ErrEmptyRegion 请求区域裁剪后为空（完全位于显示器之外）
	ErrEmptyRegion = errors.New("截取区域为空")

	// ErrInvalidInfo 显示器信息不满足约束（宽高、缩放、旋转、主屏、ID）
	ErrInvalidInfo = errors.New("显示器信息无效")
)

// Rotation 显示器旋转角度（度）
type Rotation int

const (
	Rotate0   Rotation = 0
	Rotate90  Rotation = 90
	Rotate180 Rotation = 180
	Rotate270 Rotation = 270
)

// Valid 是否为合法角度
func (r Rotation) Valid() bool {
	switch r {
	case Rotate0, Rotate90, Rotate180, Rotate270:
		return true
	}
	return false
}

// ParseRotation 将任意角度归一化到 0/90/180/270
// 非 90 的整数倍返回错误
func ParseRotation(degrees float64) (Rotation, error) {
	d := int(degrees)
	if float64(d) != degrees || d%90 != 0 {
		return Rotate0, fmt.Errorf("%w: 旋转角度 %v 不是 90 的整数倍", ErrInvalidInfo, degrees)
	}
	d %= 360
	if d < 0 {
		d += 360
	}
	return Rotation(d), nil
}

// Point 虚拟桌面中的点，坐标可以为负（副屏位于主屏左侧或上方）
type Point struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// Rect 矩形区域，左上角 + 宽高
type Rect struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// NewRect 创建矩形
func NewRect(x, y, width, height int) Rect {
	return Rect{X: x, Y: y, Width: width, Height: height}
}

// Empty 宽或高不大于 0
func (r Rect) Empty() bool {
	return r.Width <= 0 || r.Height <= 0
}

// Contains 点是否位于矩形内（左闭右开）
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.Width && p.Y >= r.Y && p.Y < r.Y+r.Height
}

// Rectangle 转换为 image.Rectangle
func (r Rect) Rectangle() stdimage.Rectangle {
	return stdimage.Rect(r.X, r.Y, r.X+r.Width, r.Y+r.Height)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.Width, r.Height)
}

// Info 单个物理显示器的一次枚举快照
//
// X/Y 为虚拟桌面坐标（逻辑坐标，与缩放无关），Width/Height 为物理像素。
// Info 是值类型，每次枚举重新生成，不缓存也不修改。
type Info struct {
	ID          uint32   `json:"id"`
	Name        string   `json:"name"`
	X           int      `json:"x"`
	Y           int      `json:"y"`
	Width       int      `json:"width"`
	Height      int      `json:"height"`
	ScaleFactor float64  `json:"scale_factor"`
	Rotation    Rotation `json:"rotation"`
	Frequency   float64  `json:"frequency"`
	IsPrimary   bool     `json:"is_primary"`
}

// Validate 检查单个显示器信息
func (d Info) Validate() error {
	if d.Width <= 0 || d.Height <= 0 {
		return fmt.Errorf("%w: 显示器 %d 尺寸为 %dx%d", ErrInvalidInfo, d.ID, d.Width, d.Height)
	}
	if !(d.ScaleFactor > 0) {
		return fmt.Errorf("%w: 显示器 %d 缩放比例为 %v", ErrInvalidInfo, d.ID, d.ScaleFactor)
	}
	if !d.Rotation.Valid() {
		return fmt.Errorf("%w: 显示器 %d 旋转角度为 %d", ErrInvalidInfo, d.ID, d.Rotation)
	}
	return nil
}

// Bounds 显示器在虚拟桌面中占据的区域
func (d Info) Bounds() Rect {
	return Rect{
		X:      d.X,
		Y:      d.Y,
		Width:  ScaleInt(d.Width, 1.0/d.scale()),
		Height: ScaleInt(d.Height, 1.0/d.scale()),
	}
}

// LocalBounds 显示器本地物理像素范围 [0,Width)×[0,Height)
func (d Info) LocalBounds() Rect {
	return Rect{Width: d.Width, Height: d.Height}
}

// NativeSize 面板未旋转时的物理尺寸
func (d Info) NativeSize() (width, height int) {
	if d.Rotation == Rotate90 || d.Rotation == Rotate270 {
		return d.Height, d.Width
	}
	return d.Width, d.Height
}

func (d Info) scale() float64 {
	if d.ScaleFactor > 0 {
		return d.ScaleFactor
	}
	return 1.0
}

func (d Info) String() string {
	primary := ""
	if d.IsPrimary {
		primary = " primary"
	}
	return fmt.Sprintf("#%d %q %dx%d@(%d,%d) scale=%.2f rot=%d%s",
		d.ID, d.Name, d.Width, d.Height, d.X, d.Y, d.ScaleFactor, d.Rotation, primary)
}

// ValidateSnapshot 检查一次枚举结果：每项合法、ID 唯一、至多一个主屏
func ValidateSnapshot(displays []Info) error {
	seen := make(map[uint32]struct{}, len(displays))
	primaries := 0
	for _, d := range displays {
		if err := d.Validate(); err != nil {
			return err
		}
		if _, ok := seen[d.ID]; ok {
			return fmt.Errorf("%w: 显示器 ID %d 重复", ErrInvalidInfo, d.ID)
		}
		seen[d.ID] = struct{}{}
		if d.IsPrimary {
			primaries++
		}
	}
	if primaries > 1 {
		return fmt.Errorf("%w: 存在 %d 个主显示器", ErrInvalidInfo, primaries)
	}
	return nil
}

// Primary 返回主显示器；没有主屏时返回第一个
func Primary(displays []Info) (Info, bool) {
	for _, d := range displays {
		if d.IsPrimary {
			return d, true
		}
	}
	if len(displays) > 0 {
		return displays[0], true
	}
	return Info{}, false
}

// FindByID 按 ID 查找
func FindByID(displays []Info, id uint32) (Info, bool) {
	for _, d := range displays {
		if d.ID == id {
			return d, true
		}
	}
	return Info{}, false
}
