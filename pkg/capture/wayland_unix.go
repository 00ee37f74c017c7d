//go:build (linux || freebsd || openbsd || netbsd) && !robotgo

package capture

import (
	"errors"
	"fmt"
	stdimage "image"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/jezek/xgb"

	"github.com/zoeyai/screencap/internal/logger"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/pixel"
)

const (
	gnomeScreenshotDest  = "org.gnome.Shell.Screenshot"
	gnomeScreenshotPath  = "/org/gnome/Shell/Screenshot"
	gnomeScreenshotArea  = "org.gnome.Shell.Screenshot.ScreenshotArea"
	portalDest           = "org.freedesktop.portal.Desktop"
	portalPath           = "/org/freedesktop/portal/desktop"
	portalScreenshot     = "org.freedesktop.portal.Screenshot.Screenshot"
	portalRequestIface   = "org.freedesktop.portal.Request"
	portalRequestMember  = "Response"
	portalResponseCancel = 1
)

// waylandBackend 在 Wayland 会话中经 D-Bus 由合成器截图
// 显示器的物理原点仍通过 XWayland 的 RandR 查询
type waylandBackend struct{}

func (waylandBackend) Name() string { return "wayland" }

func (waylandBackend) Capture(d display.Info, r display.Rect) (*pixel.Raw, error) {
	if err := checkRequest(d, r); err != nil {
		return nil, err
	}

	ox, oy, err := waylandOrigin(d)
	if err != nil {
		return nil, err
	}
	area := display.NewRect(ox+r.X, oy+r.Y, r.Width, r.Height)

	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, captureErr("连接会话总线", err)
	}
	defer conn.Close()

	img, err := gnomeScreenshot(conn, area)
	if err == nil {
		return rawFromImage(img, display.NewRect(0, 0, area.Width, area.Height))
	}
	logger.Debug("GNOME Shell 截图不可用, 改用 portal: %v", err)

	img, err = portalScreenshotImage(conn)
	if err != nil {
		return nil, err
	}
	return rawFromImage(img, area)
}

func waylandOrigin(d display.Info) (int, int, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return 0, 0, captureErr("连接 XWayland", err)
	}
	defer conn.Close()

	_, screen, err := x11RootScreen(conn)
	if err != nil {
		return 0, 0, captureErr("读取 X 配置", err)
	}
	return x11Origin(conn, screen, d)
}

// gnomeScreenshot 调用 GNOME Shell 的 ScreenshotArea
// GNOME 41 之后只对白名单程序开放，被拒绝时由调用方回退到 portal
func gnomeScreenshot(conn *dbus.Conn, area display.Rect) (stdimage.Image, error) {
	path := filepath.Join(os.TempDir(),
		"screencap-"+strconv.FormatInt(time.Now().UnixNano(), 10)+".png")
	defer os.Remove(path)

	var (
		ok   bool
		used string
	)
	obj := conn.Object(gnomeScreenshotDest, gnomeScreenshotPath)
	err := obj.Call(gnomeScreenshotArea, 0,
		int32(area.X), int32(area.Y), int32(area.Width), int32(area.Height), false, path).
		Store(&ok, &used)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, errors.New("ScreenshotArea 返回失败")
	}
	if used != "" && used != path {
		defer os.Remove(used)
		path = used
	}
	return decodePNG(path)
}

// portalScreenshotImage 通过 xdg-desktop-portal 截取整个桌面
// 等待 Response 信号期间可能弹出授权对话框，调用会一直阻塞到用户作出选择
func portalScreenshotImage(conn *dbus.Conn) (stdimage.Image, error) {
	names := conn.Names()
	if len(names) == 0 {
		return nil, captureErr("portal", errors.New("会话总线未分配唯一名称"))
	}
	token := "screencap" + strconv.FormatInt(time.Now().UnixNano(), 10)
	expected := dbus.ObjectPath(portalRequestPath(names[0], token))

	if err := conn.AddMatchSignal(
		dbus.WithMatchInterface(portalRequestIface),
		dbus.WithMatchMember(portalRequestMember),
	); err != nil {
		return nil, captureErr("订阅 portal 信号", err)
	}
	signals := make(chan *dbus.Signal, 4)
	conn.Signal(signals)
	defer conn.RemoveSignal(signals)

	var handle dbus.ObjectPath
	options := map[string]dbus.Variant{
		"handle_token": dbus.MakeVariant(token),
		"interactive":  dbus.MakeVariant(false),
	}
	obj := conn.Object(portalDest, portalPath)
	if err := obj.Call(portalScreenshot, 0, "", options).Store(&handle); err != nil {
		if isAccessDenied(err) {
			return nil, fmt.Errorf("%w: %w", ErrPermissionDenied, err)
		}
		return nil, captureErr("portal Screenshot", err)
	}

	for sig := range signals {
		if sig.Name != portalRequestIface+"."+portalRequestMember {
			continue
		}
		if sig.Path != expected && sig.Path != handle {
			continue
		}
		return portalResult(sig)
	}
	return nil, captureErr("portal", errors.New("会话总线已断开"))
}

func portalResult(sig *dbus.Signal) (stdimage.Image, error) {
	if len(sig.Body) < 2 {
		return nil, captureErr("portal", errors.New("Response 信号格式错误"))
	}
	code, _ := sig.Body[0].(uint32)
	switch code {
	case 0:
	case portalResponseCancel:
		return nil, fmt.Errorf("%w: 用户取消了截图授权", ErrPermissionDenied)
	default:
		return nil, captureErr("portal", fmt.Errorf("响应码 %d", code))
	}

	results, _ := sig.Body[1].(map[string]dbus.Variant)
	uri, _ := results["uri"].Value().(string)
	u, err := url.Parse(uri)
	if err != nil || u.Scheme != "file" {
		return nil, captureErr("portal", fmt.Errorf("无效的截图 URI %q", uri))
	}
	defer os.Remove(u.Path)
	return decodePNG(u.Path)
}

func isAccessDenied(err error) bool {
	var name string
	var e dbus.Error
	var pe *dbus.Error
	switch {
	case errors.As(err, &e):
		name = e.Name
	case errors.As(err, &pe):
		name = pe.Name
	}
	return name == "org.freedesktop.DBus.Error.AccessDenied" ||
		name == "org.freedesktop.portal.Error.NotAllowed"
}
