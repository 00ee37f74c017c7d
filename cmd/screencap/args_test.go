package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/zoeyai/screencap/internal/logger"
	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/encode"
	"github.com/zoeyai/screencap/pkg/screen"
)

func TestParsePoint(t *testing.T) {
	p, err := parsePoint("10, -20")
	if err != nil {
		t.Fatalf("parsePoint 失败: %v", err)
	}
	if p != (display.Point{X: 10, Y: -20}) {
		t.Errorf("坐标错误: %+v", p)
	}

	for _, s := range []string{"", "1", "1,2,3", "a,b"} {
		if _, err := parsePoint(s); err == nil {
			t.Errorf("parsePoint(%q) 应返回错误", s)
		}
	}
}

func TestParseRect(t *testing.T) {
	r, err := parseRect("250,250,300,300")
	if err != nil {
		t.Fatalf("parseRect 失败: %v", err)
	}
	if r != display.NewRect(250, 250, 300, 300) {
		t.Errorf("区域错误: %s", r)
	}

	for _, s := range []string{"0,0,0,10", "0,0,10", "0,0,10,-1"} {
		if _, err := parseRect(s); err == nil {
			t.Errorf("parseRect(%q) 应返回错误", s)
		}
	}
}

func TestOutputPath(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	if got := outputPath("shots", "a.png", encode.PNG, 1, true, now); got != "a.png" {
		t.Errorf("单张图应直接使用 -out: %s", got)
	}
	want := filepath.Join("shots", "screen-7-20260102-030405.jpg")
	if got := outputPath("shots", "", encode.JPEG, 7, false, now); got != want {
		t.Errorf("期望 %s, 实际 %s", want, got)
	}
	want = filepath.Join("out", "screen-2-20260102-030405.png")
	if got := outputPath("shots", "out", encode.PNG, 2, false, now); got != want {
		t.Errorf("多张图时 -out 应视为目录: %s", got)
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("x: %w", screen.ErrPermissionDenied), 3},
		{screen.ErrEnumerationFailed, 4},
		{screen.ErrUnsupported, 4},
		{screen.ErrEmptyRegion, 5},
		{fmt.Errorf("显示器 1: %w", screen.ErrNotFound), 5},
		{screen.ErrCaptureFailed, 1},
	}
	for _, tt := range tests {
		if got := exitCode(tt.err); got != tt.want {
			t.Errorf("exitCode(%v) 期望 %d, 实际 %d", tt.err, tt.want, got)
		}
	}
}

func TestFailClosesLogFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "screencap.log")
	l := logger.Default()
	l.SetConsole(false)
	t.Cleanup(func() {
		l.Close()
		l.SetConsole(true)
	})
	if err := l.SetFile(true, path); err != nil {
		t.Fatalf("SetFile 失败: %v", err)
	}

	err := fmt.Errorf("截图: %w", screen.ErrPermissionDenied)
	if code := fail(err); code != 3 {
		t.Errorf("期望退出码 3, 实际 %d", code)
	}
	logger.Error("after close")

	data, rerr := os.ReadFile(path)
	if rerr != nil {
		t.Fatalf("读取日志失败: %v", rerr)
	}
	if !strings.Contains(string(data), "截图") {
		t.Errorf("日志文件应包含错误: %q", data)
	}
	if strings.Contains(string(data), "after close") {
		t.Errorf("fail 之后日志文件应已关闭: %q", data)
	}
}
