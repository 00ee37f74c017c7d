package main

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/zoeyai/screencap/pkg/display"
	"github.com/zoeyai/screencap/pkg/encode"
)

// parseInts 解析逗号分隔的整数，如 "10,20"
func parseInts(s string, n int) ([]int, error) {
	parts := strings.Split(s, ",")
	if len(parts) != n {
		return nil, fmt.Errorf("需要 %d 个逗号分隔的整数, 实际为 %q", n, s)
	}
	out := make([]int, n)
	for i, p := range parts {
		v, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return nil, fmt.Errorf("无效的整数 %q", p)
		}
		out[i] = v
	}
	return out, nil
}

func parsePoint(s string) (display.Point, error) {
	v, err := parseInts(s, 2)
	if err != nil {
		return display.Point{}, err
	}
	return display.Point{X: v[0], Y: v[1]}, nil
}

func parseRect(s string) (display.Rect, error) {
	v, err := parseInts(s, 4)
	if err != nil {
		return display.Rect{}, err
	}
	if v[2] <= 0 || v[3] <= 0 {
		return display.Rect{}, fmt.Errorf("宽高必须大于 0: %q", s)
	}
	return display.NewRect(v[0], v[1], v[2], v[3]), nil
}

// outputPath 生成输出文件路径
// out 非空且只截一张图时直接使用 out
func outputPath(dir, out string, format encode.Format, id uint32, single bool, now time.Time) string {
	if out != "" && single {
		return out
	}
	name := fmt.Sprintf("screen-%d-%s%s", id, now.Format("20060102-150405"), format.Ext())
	if out != "" {
		// 多张图时 out 视为目录
		return filepath.Join(out, name)
	}
	return filepath.Join(dir, name)
}
