package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"

	"github.com/zoeyai/screencap/pkg/encode"
)

// EnvPrefix 环境变量前缀，如 SCREENCAP_FORMAT=jpeg
const EnvPrefix = "SCREENCAP"

// CaptureConfig 命令行截图配置
type CaptureConfig struct {
	OutputDir string `json:"output_dir" mapstructure:"output_dir"`
	Format    string `json:"format" mapstructure:"format"`
	Quality   int    `json:"quality" mapstructure:"quality"`
	LogLevel  string `json:"log_level" mapstructure:"log_level"`
	LogFile   string `json:"log_file" mapstructure:"log_file"`
}

// DefaultCaptureConfig 默认截图配置
func DefaultCaptureConfig() *CaptureConfig {
	return &CaptureConfig{
		OutputDir: ".",
		Format:    string(encode.PNG),
		Quality:   encode.DefaultQuality,
		LogLevel:  "info",
		LogFile:   "",
	}
}

// Validate 检查配置取值
func (c *CaptureConfig) Validate() error {
	if _, err := encode.ParseFormat(c.Format); err != nil {
		return err
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("JPEG 质量 %d 超出范围 1-100", c.Quality)
	}
	return nil
}

// Manager 配置管理器
type Manager struct {
	configDir  string
	configFile string
	mu         sync.RWMutex
}

// NewManager 创建配置管理器
func NewManager() *Manager {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		homeDir = "."
	}
	return NewManagerWithDir(filepath.Join(homeDir, ".screencap"))
}

// NewManagerWithDir 使用指定目录创建配置管理器
func NewManagerWithDir(configDir string) *Manager {
	return &Manager{
		configDir:  configDir,
		configFile: filepath.Join(configDir, "config.json"),
	}
}

func setDefaults(v *viper.Viper) {
	d := DefaultCaptureConfig()
	v.SetDefault("output_dir", d.OutputDir)
	v.SetDefault("format", d.Format)
	v.SetDefault("quality", d.Quality)
	v.SetDefault("log_level", d.LogLevel)
	v.SetDefault("log_file", d.LogFile)
}

// Load 加载配置，环境变量优先于配置文件
// 文件不存在时返回默认值；解析失败时返回默认值和错误
func (m *Manager) Load() (*CaptureConfig, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	v := viper.New()
	setDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigFile(m.configFile)
	v.SetConfigType("json")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return DefaultCaptureConfig(), fmt.Errorf("读取配置文件失败: %w", err)
		}
	}

	var config CaptureConfig
	if err := v.Unmarshal(&config); err != nil {
		return DefaultCaptureConfig(), fmt.Errorf("解析配置文件失败: %w", err)
	}
	return &config, nil
}

// Save 保存配置（权限 0600）
func (m *Manager) Save(config *CaptureConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := os.MkdirAll(m.configDir, 0755); err != nil {
		return fmt.Errorf("创建配置目录失败: %w", err)
	}

	v := viper.New()
	v.SetConfigPermissions(0600)
	v.SetConfigType("json")
	v.Set("output_dir", config.OutputDir)
	v.Set("format", config.Format)
	v.Set("quality", config.Quality)
	v.Set("log_level", config.LogLevel)
	v.Set("log_file", config.LogFile)

	if err := v.WriteConfigAs(m.configFile); err != nil {
		return fmt.Errorf("写入配置文件失败: %w", err)
	}
	return nil
}

// Clear 清除配置
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.configFile); os.IsNotExist(err) {
		return nil
	}
	return os.Remove(m.configFile)
}

// GetConfigDir 获取配置目录
func (m *Manager) GetConfigDir() string {
	return m.configDir
}

// GetConfigFile 获取配置文件路径
func (m *Manager) GetConfigFile() string {
	return m.configFile
}

// Exists 检查配置文件是否存在
func (m *Manager) Exists() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()

	_, err := os.Stat(m.configFile)
	return err == nil
}

// 全局配置管理器
var defaultManager = NewManager()

// GetDefaultManager 获取默认配置管理器
func GetDefaultManager() *Manager {
	return defaultManager
}

// Load 使用默认管理器加载配置
func Load() (*CaptureConfig, error) {
	return defaultManager.Load()
}

// Save 使用默认管理器保存配置
func Save(config *CaptureConfig) error {
	return defaultManager.Save(config)
}

// Clear 使用默认管理器清除配置
func Clear() error {
	return defaultManager.Clear()
}
