//go:build robotgo

package capture

import (
	"errors"
	"math"
	"strconv"

	"github.com/go-vgo/robotgo"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// robotgoBackend 通用后端，使用 -tags robotgo 编译时启用
// robotgo 的区域参数是逻辑坐标，返回的图像是物理像素
type robotgoBackend struct{}

func newBackend() Backend { return robotgoBackend{} }

func (robotgoBackend) Name() string { return "robotgo" }

func (robotgoBackend) Displays() ([]display.Info, error) {
	n := robotgo.DisplaysNum()
	if n <= 0 {
		return nil, enumErr("DisplaysNum", errors.New("没有可用的显示器"))
	}
	mainID := robotgo.GetMainId()

	displays := make([]display.Info, 0, n)
	for i := 0; i < n; i++ {
		displays = append(displays, robotgoDisplay(i, mainID))
	}
	return displays, nil
}

func robotgoDisplay(i, mainID int) display.Info {
	x, y, w, h := robotgo.GetDisplayBounds(i)
	scale := display.NormalizeScale(robotgo.ScaleF(i))
	return display.Info{
		ID:          uint32(i),
		Name:        "display-" + strconv.Itoa(i),
		X:           x,
		Y:           y,
		Width:       display.ScaleInt(w, scale),
		Height:      display.ScaleInt(h, scale),
		ScaleFactor: scale,
		IsPrimary:   i == mainID,
	}
}

func (robotgoBackend) Capture(d display.Info, r display.Rect) (*pixel.Raw, error) {
	if err := checkRequest(d, r); err != nil {
		return nil, err
	}

	i := int(d.ID)
	if i >= robotgo.DisplaysNum() {
		return nil, goneErr(d, "已断开")
	}
	if cur := robotgoDisplay(i, robotgo.GetMainId()); cur.Width != d.Width || cur.Height != d.Height {
		return nil, goneErr(d, "分辨率已改变")
	}

	s := d.ScaleFactor
	if s <= 0 {
		s = 1
	}
	x := d.X + int(math.Floor(float64(r.X)/s))
	y := d.Y + int(math.Floor(float64(r.Y)/s))
	w := int(math.Ceil(float64(r.Width) / s))
	h := int(math.Ceil(float64(r.Height) / s))

	img, err := robotgo.CaptureImg(x, y, w, h)
	if err != nil {
		return nil, captureErr("robotgo.CaptureImg", err)
	}
	return rawFromImage(img, display.NewRect(0, 0, r.Width, r.Height))
}
