package main

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	stdimage "image"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/zoeyai/screencap/internal/logger"
	"github.com/zoeyai/screencap/pkg/capture"
	"github.com/zoeyai/screencap/pkg/config"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/encode"
	"github.com/zoeyai/screencap/pkg/permissions"
	"github.com/zoeyai/screencap/pkg/screen"
)

// 版本信息 (可通过 ldflags 注入)
var (
	Version   = "1.0.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

type options struct {
	list      bool
	asJSON    bool
	point     string
	area      string
	displayID int
	virtual   string
	out       string
	format    string
	quality   int
	thumb     int
	base64    bool
	save      bool
	logLevel  string
}

func main() {
	var (
		opts        options
		showVersion = flag.Bool("version", false, "显示版本信息")
		showHelp    = flag.Bool("help", false, "显示帮助信息")
	)
	flag.BoolVar(&opts.list, "list", false, "列出显示器")
	flag.BoolVar(&opts.asJSON, "json", false, "以 JSON 输出显示器列表")
	flag.StringVar(&opts.point, "point", "", "截取包含该点的显示器 (例: 100,200)")
	flag.StringVar(&opts.area, "area", "", "截取显示器本地区域 (例: 0,0,800,600)")
	flag.IntVar(&opts.displayID, "display", -1, "-area 使用的显示器 ID，默认主屏")
	flag.StringVar(&opts.virtual, "virtual", "", "截取虚拟桌面区域，每个相交的显示器各一张 (例: -100,0,400,300)")
	flag.StringVar(&opts.out, "out", "", "输出文件 (单张) 或目录 (多张)")
	flag.StringVar(&opts.format, "format", "", "图像格式 png/jpeg/bmp/tiff")
	flag.IntVar(&opts.quality, "quality", 0, "JPEG 质量 1-100")
	flag.IntVar(&opts.thumb, "thumb", 0, "缩小到最长边不超过该值")
	flag.BoolVar(&opts.base64, "base64", false, "输出 data URL 而不是写文件")
	flag.BoolVar(&opts.save, "save", false, "保存 -format/-quality/-log-level 到配置文件")
	flag.StringVar(&opts.logLevel, "log-level", "", "日志级别 debug/info/warn/error")

	flag.Parse()

	if *showVersion {
		printVersion()
		return
	}
	if *showHelp {
		printHelp()
		return
	}

	// 加载配置
	cfg, err := config.Load()
	if err != nil {
		logger.Warn("加载配置失败: %v", err)
	}

	// 命令行参数优先级高于配置文件
	if opts.format != "" {
		cfg.Format = opts.format
	}
	if opts.quality != 0 {
		cfg.Quality = opts.quality
	}
	if opts.logLevel != "" {
		cfg.LogLevel = opts.logLevel
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(2)
	}

	setupLogger(cfg)
	defer logger.Default().Close()

	if opts.save {
		if err := config.Save(cfg); err != nil {
			logger.Warn("保存配置失败: %v", err)
		} else {
			logger.Info("配置已保存到 %s", config.GetDefaultManager().GetConfigFile())
		}
	}

	if runtime.GOOS == "darwin" {
		checkMacOSPermissions()
	}

	if err := run(opts, cfg); err != nil {
		fmt.Fprintf(os.Stderr, "[ERROR] %v\n", err)
		os.Exit(fail(err))
	}
}

// fail 关闭 logger 并返回退出码，os.Exit 不会执行 defer
func fail(err error) int {
	logger.Error("%v", err)
	if cerr := logger.Default().Close(); cerr != nil {
		fmt.Fprintf(os.Stderr, "[WARN] 关闭日志文件失败: %v\n", cerr)
	}
	return exitCode(err)
}

func setupLogger(cfg *config.CaptureConfig) {
	l := logger.Default()
	l.SetLevel(logger.ParseLevel(cfg.LogLevel))
	if cfg.LogFile != "" {
		if err := l.SetFile(true, cfg.LogFile); err != nil {
			logger.Warn("%v", err)
		}
	}
}

// exitCode 按错误类别返回退出码
func exitCode(err error) int {
	switch {
	case errors.Is(err, screen.ErrPermissionDenied):
		return 3
	case errors.Is(err, screen.ErrEnumerationFailed), errors.Is(err, screen.ErrUnsupported):
		return 4
	case errors.Is(err, screen.ErrNotFound), errors.Is(err, screen.ErrEmptyRegion):
		return 5
	}
	return 1
}

func run(opts options, cfg *config.CaptureConfig) error {
	format, err := encode.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	w := &writer{opts: opts, cfg: cfg, format: format, now: time.Now()}

	switch {
	case opts.list:
		return listDisplays(opts.asJSON)

	case opts.point != "":
		p, err := parsePoint(opts.point)
		if err != nil {
			return err
		}
		s, err := screen.FromPoint(p.X, p.Y)
		if err != nil {
			return err
		}
		img, err := s.Capture()
		if err != nil {
			return err
		}
		return w.write(s.Info(), img, true)

	case opts.area != "":
		r, err := parseRect(opts.area)
		if err != nil {
			return err
		}
		s, err := pickScreen(opts.displayID)
		if err != nil {
			return err
		}
		img, err := s.CaptureArea(r.X, r.Y, r.Width, r.Height)
		if err != nil {
			return err
		}
		return w.write(s.Info(), img, true)

	case opts.virtual != "":
		r, err := parseRect(opts.virtual)
		if err != nil {
			return err
		}
		return captureVirtual(w, r)
	}

	screens, err := screen.All()
	if err != nil {
		return err
	}
	for _, s := range screens {
		img, err := s.Capture()
		if err != nil {
			return fmt.Errorf("显示器 %d: %w", s.Info().ID, err)
		}
		if err := w.write(s.Info(), img, len(screens) == 1); err != nil {
			return err
		}
	}
	return nil
}

func pickScreen(id int) (*screen.Screen, error) {
	if id < 0 {
		return screen.Primary()
	}
	screens, err := screen.All()
	if err != nil {
		return nil, err
	}
	for _, s := range screens {
		if s.Info().ID == uint32(id) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("%w: 显示器 ID %d", screen.ErrNotFound, id)
}

func captureVirtual(w *writer, r display.Rect) error {
	screens, err := screen.All()
	if err != nil {
		return err
	}

	captured := 0
	for _, s := range screens {
		img, err := s.CaptureVirtual(r.X, r.Y, r.Width, r.Height)
		if errors.Is(err, screen.ErrEmptyRegion) {
			continue
		}
		if err != nil {
			return fmt.Errorf("显示器 %d: %w", s.Info().ID, err)
		}
		if err := w.write(s.Info(), img, false); err != nil {
			return err
		}
		captured++
	}
	if captured == 0 {
		return fmt.Errorf("%w: %s 不与任何显示器相交", screen.ErrEmptyRegion, r)
	}
	return nil
}

func listDisplays(asJSON bool) error {
	b := capture.Default()
	infos, err := b.Displays()
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	fmt.Printf("后端: %s\n", b.Name())
	for _, d := range infos {
		fmt.Printf("  %s  %.0fHz  bounds=%s\n", d, d.Frequency, d.Bounds())
	}
	return nil
}

// writer 负责把截图编码后写到文件或标准输出
type writer struct {
	opts   options
	cfg    *config.CaptureConfig
	format encode.Format
	now    time.Time
}

func (w *writer) write(d display.Info, img stdimage.Image, single bool) error {
	if w.opts.thumb > 0 {
		img = encode.Thumbnail(img, w.opts.thumb)
	}

	if w.opts.base64 {
		s, err := encode.ToBase64(img, w.format, w.cfg.Quality)
		if err != nil {
			return err
		}
		fmt.Println(s)
		return nil
	}

	path := outputPath(w.cfg.OutputDir, w.opts.out, w.format, d.ID, single, w.now)
	if err := encode.Save(path, img, w.cfg.Quality); err != nil {
		return err
	}
	fmt.Printf("%s (%dx%d)\n", path, img.Bounds().Dx(), img.Bounds().Dy())
	return nil
}

// printVersion 打印版本信息
func printVersion() {
	fmt.Printf("screencap v%s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Printf("Backend:    %s\n", capture.Default().Name())

	if info, err := host.Info(); err == nil {
		fmt.Printf("Host:       %s %s %s (%s)\n", info.Platform, info.PlatformVersion, info.KernelVersion, info.KernelArch)
	}
}

// printHelp 打印帮助信息
func printHelp() {
	fmt.Println("screencap - 跨平台截图工具")
	fmt.Println()
	fmt.Println("用法:")
	fmt.Println("  screencap [选项]")
	fmt.Println()
	fmt.Println("选项:")
	flag.PrintDefaults()
	fmt.Println()
	fmt.Println("示例:")
	fmt.Println("  # 截取所有显示器")
	fmt.Println("  screencap")
	fmt.Println()
	fmt.Println("  # 列出显示器")
	fmt.Println("  screencap -list")
	fmt.Println()
	fmt.Println("  # 截取主屏左上角 800x600，保存为 JPEG")
	fmt.Println("  screencap -area 0,0,800,600 -format jpeg -out shot.jpg")
	fmt.Println()
	fmt.Println("  # 截取跨越两个显示器的虚拟桌面区域")
	fmt.Println("  screencap -virtual -200,100,600,400 -out shots/")
	fmt.Println()
	fmt.Printf("配置文件位置: %s\n", config.GetDefaultManager().GetConfigFile())
}

// checkMacOSPermissions 检查 macOS 屏幕录制权限
func checkMacOSPermissions() {
	status := permissions.CheckPermissions()
	if status.ScreenRecording {
		logger.Debug("屏幕录制权限已授予")
		return
	}

	fmt.Println()
	fmt.Println("[WARN] ========== 缺少权限 ==========")
	fmt.Println("[WARN] ❌ 屏幕录制: 未授权")
	fmt.Println(permissions.GetPermissionInstructions(status))
	fmt.Println("[WARN] ==================================")
	fmt.Println()

	if !permissions.RequestScreenRecording() {
		permissions.OpenScreenRecordingSettings()
	}
}
