//go:build (linux || freebsd || openbsd || netbsd) && !robotgo

package capture

import (
	"errors"
	"fmt"

	sysshm "github.com/gen2brain/shm"
	"github.com/jezek/xgb"
	"github.com/jezek/xgb/randr"
	"github.com/jezek/xgb/shm"
	"github.com/jezek/xgb/xproto"

	"github.com/zoeyai/screencap/internal/logger"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

// x11Backend 通过 X 协议截图
// 每次调用新建连接，不持有跨调用的状态
type x11Backend struct{}

func (x11Backend) Name() string { return "x11" }

func (x11Backend) Displays() ([]display.Info, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, enumErr("连接 X 服务器", err)
	}
	defer conn.Close()

	return x11Displays(conn)
}

func x11RootScreen(conn *xgb.Conn) (*xproto.SetupInfo, *xproto.ScreenInfo, error) {
	setup := xproto.Setup(conn)
	if setup == nil {
		return nil, nil, errors.New("xproto setup 不可用")
	}
	screen := setup.DefaultScreen(conn)
	if screen == nil {
		return nil, nil, errors.New("默认 screen 不可用")
	}
	return setup, screen, nil
}

func x11Displays(conn *xgb.Conn) ([]display.Info, error) {
	_, screen, err := x11RootScreen(conn)
	if err != nil {
		return nil, enumErr("读取 X 配置", err)
	}
	scale := x11Scale(conn, screen.Root)

	if err := randr.Init(conn); err != nil {
		logger.Debug("RandR 不可用, 使用根窗口: %v", err)
		return []display.Info{x11RootDisplay(screen, scale)}, nil
	}

	res, err := randr.GetScreenResourcesCurrent(conn, screen.Root).Reply()
	if err != nil {
		return nil, enumErr("GetScreenResourcesCurrent", err)
	}

	var primary randr.Output
	if reply, err := randr.GetOutputPrimary(conn, screen.Root).Reply(); err == nil {
		primary = reply.Output
	}

	modes := make(map[uint32]randr.ModeInfo, len(res.Modes))
	for _, m := range res.Modes {
		modes[m.Id] = m
	}

	var displays []display.Info
	for _, crtc := range res.Crtcs {
		info, err := randr.GetCrtcInfo(conn, crtc, res.ConfigTimestamp).Reply()
		if err != nil {
			logger.Warn("读取 CRTC %d 失败: %v", crtc, err)
			continue
		}
		// 未启用的 CRTC
		if info.Mode == 0 || info.Width == 0 || info.Height == 0 {
			continue
		}

		d := display.Info{
			ID:          uint32(crtc),
			X:           display.ScaleInt(int(info.X), 1/scale),
			Y:           display.ScaleInt(int(info.Y), 1/scale),
			Width:       int(info.Width),
			Height:      int(info.Height),
			ScaleFactor: scale,
			Rotation:    x11Rotation(info.Rotation),
		}
		for _, out := range info.Outputs {
			if out == primary && primary != 0 {
				d.IsPrimary = true
			}
			if d.Name == "" {
				if oi, err := randr.GetOutputInfo(conn, out, res.ConfigTimestamp).Reply(); err == nil {
					d.Name = string(oi.Name)
				}
			}
		}
		if m, ok := modes[uint32(info.Mode)]; ok && m.Htotal > 0 && m.Vtotal > 0 {
			d.Frequency = float64(m.DotClock) / (float64(m.Htotal) * float64(m.Vtotal))
		}
		displays = append(displays, d)
	}

	if len(displays) == 0 {
		return []display.Info{x11RootDisplay(screen, scale)}, nil
	}
	return displays, nil
}

// x11RootDisplay 没有 RandR 信息时把整个根窗口当作一个显示器
func x11RootDisplay(screen *xproto.ScreenInfo, scale float64) display.Info {
	return display.Info{
		ID:          uint32(screen.Root),
		Name:        "default",
		Width:       int(screen.WidthInPixels),
		Height:      int(screen.HeightInPixels),
		ScaleFactor: scale,
		IsPrimary:   true,
	}
}

// x11Scale 读取 Xft.dpi，未设置时为 1.0
func x11Scale(conn *xgb.Conn, root xproto.Window) float64 {
	reply, err := xproto.GetProperty(conn, false, root,
		xproto.AtomResourceManager, xproto.AtomString, 0, 1<<16).Reply()
	if err != nil || reply == nil {
		return 1.0
	}
	dpi, ok := parseXftDPI(string(reply.Value))
	if !ok {
		return 1.0
	}
	return display.NormalizeScale(dpi / 96.0)
}

// x11Origin 重新查询显示器当前的物理原点
// 显示器已关闭或分辨率改变时返回 ErrDisplayGone
func x11Origin(conn *xgb.Conn, screen *xproto.ScreenInfo, d display.Info) (int, int, error) {
	if d.ID == uint32(screen.Root) {
		if int(screen.WidthInPixels) != d.Width || int(screen.HeightInPixels) != d.Height {
			return 0, 0, goneErr(d, "根窗口尺寸已改变")
		}
		return 0, 0, nil
	}

	if err := randr.Init(conn); err != nil {
		return 0, 0, captureErr("RandR 初始化", err)
	}
	res, err := randr.GetScreenResourcesCurrent(conn, screen.Root).Reply()
	if err != nil {
		return 0, 0, captureErr("GetScreenResourcesCurrent", err)
	}

	crtc := randr.Crtc(d.ID)
	found := false
	for _, c := range res.Crtcs {
		if c == crtc {
			found = true
			break
		}
	}
	if !found {
		return 0, 0, goneErr(d, "CRTC 不存在")
	}

	info, err := randr.GetCrtcInfo(conn, crtc, res.ConfigTimestamp).Reply()
	if err != nil {
		return 0, 0, goneErr(d, err.Error())
	}
	if info.Mode == 0 || int(info.Width) != d.Width || int(info.Height) != d.Height {
		return 0, 0, goneErr(d, "已关闭或分辨率改变")
	}
	return int(info.X), int(info.Y), nil
}

// x11Format 根窗口的像素格式
type x11Format struct {
	depth int
	bpp   int
	pad   int
	order pixel.ChannelOrder
}

func (f x11Format) stride(width int) int {
	return x11Stride(width, f.bpp, f.pad)
}

func x11PixelFormat(setup *xproto.SetupInfo, screen *xproto.ScreenInfo) (x11Format, error) {
	f := x11Format{depth: int(screen.RootDepth)}
	for _, pf := range setup.PixmapFormats {
		if int(pf.Depth) == f.depth {
			f.bpp = int(pf.BitsPerPixel)
			f.pad = int(pf.ScanlinePad)
			break
		}
	}
	if f.bpp == 0 {
		return f, fmt.Errorf("找不到深度 %d 的像素格式", f.depth)
	}

	var redMask uint32
	for _, depth := range screen.AllowedDepths {
		for _, v := range depth.Visuals {
			if v.VisualId == screen.RootVisual {
				redMask = v.RedMask
			}
		}
	}

	order, err := x11Order(f.depth, f.bpp, setup.ImageByteOrder == xproto.ImageOrderLSBFirst, redMask)
	if err != nil {
		return f, err
	}
	f.order = order
	return f, nil
}

func (x11Backend) Capture(d display.Info, r display.Rect) (*pixel.Raw, error) {
	if err := checkRequest(d, r); err != nil {
		return nil, err
	}

	conn, err := xgb.NewConn()
	if err != nil {
		return nil, captureErr("连接 X 服务器", err)
	}
	defer conn.Close()

	setup, screen, err := x11RootScreen(conn)
	if err != nil {
		return nil, captureErr("读取 X 配置", err)
	}
	ox, oy, err := x11Origin(conn, screen, d)
	if err != nil {
		return nil, err
	}
	format, err := x11PixelFormat(setup, screen)
	if err != nil {
		return nil, captureErr("像素格式", err)
	}

	x, y := ox+r.X, oy+r.Y
	stride := format.stride(r.Width)

	data, err := x11ShmImage(conn, screen.Root, x, y, r.Width, r.Height, stride)
	if err != nil {
		logger.Debug("MIT-SHM 截图不可用, 改用 GetImage: %v", err)
		data, err = x11GetImage(conn, screen.Root, x, y, r.Width, r.Height)
		if err != nil {
			return nil, captureErr("GetImage", err)
		}
	}

	return &pixel.Raw{
		Pix:    data,
		Width:  r.Width,
		Height: r.Height,
		Stride: stride,
		Order:  format.order,
	}, nil
}

func x11GetImage(conn *xgb.Conn, root xproto.Window, x, y, w, h int) ([]byte, error) {
	reply, err := xproto.GetImage(conn, xproto.ImageFormatZPixmap, xproto.Drawable(root),
		int16(x), int16(y), uint16(w), uint16(h), ^uint32(0)).Reply()
	if err != nil {
		return nil, err
	}
	return reply.Data, nil
}

// x11ShmImage 通过共享内存段截图，远程 X 服务器上会失败
func x11ShmImage(conn *xgb.Conn, root xproto.Window, x, y, w, h, stride int) ([]byte, error) {
	if err := shm.Init(conn); err != nil {
		return nil, err
	}

	size := stride * h
	id, err := sysshm.Get(sysshm.IPC_PRIVATE, size, sysshm.IPC_CREAT|0o600)
	if err != nil {
		return nil, err
	}
	defer sysshm.Rm(id)

	mem, err := sysshm.At(id, 0, 0)
	if err != nil {
		return nil, err
	}
	defer sysshm.Dt(mem)

	seg, err := shm.NewSegId(conn)
	if err != nil {
		return nil, err
	}
	if err := shm.AttachChecked(conn, seg, uint32(id), false).Check(); err != nil {
		return nil, err
	}
	defer shm.Detach(conn, seg)

	_, err = shm.GetImage(conn, xproto.Drawable(root), int16(x), int16(y), uint16(w), uint16(h),
		^uint32(0), xproto.ImageFormatZPixmap, seg, 0).Reply()
	if err != nil {
		return nil, err
	}

	out := make([]byte, size)
	copy(out, mem)
	return out, nil
}
