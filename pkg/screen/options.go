package screen

import "github.com/zoeyai/screencap/pkg/capture"

// Option 配置选项函数类型
type Option func(*Options)

// Options 截图配置
type Options struct {
	// Engine 截图引擎，默认为平台后端
	Engine capture.Engine
	// Enumerator 显示器枚举，默认为平台后端
	Enumerator capture.Enumerator
}

// DefaultOptions 默认配置
func DefaultOptions() *Options {
	b := capture.Default()
	return &Options{
		Engine:     b,
		Enumerator: b,
	}
}

// ApplyOptions 应用配置选项
func ApplyOptions(opts ...Option) *Options {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithEngine 使用指定的截图引擎
func WithEngine(e capture.Engine) Option {
	return func(o *Options) {
		if e != nil {
			o.Engine = e
		}
	}
}

// WithEnumerator 使用指定的显示器枚举
func WithEnumerator(e capture.Enumerator) Option {
	return func(o *Options) {
		if e != nil {
			o.Enumerator = e
		}
	}
}

// WithBackend 同时替换引擎与枚举
func WithBackend(b capture.Backend) Option {
	return func(o *Options) {
		if b != nil {
			o.Engine = b
			o.Enumerator = b
		}
	}
}
