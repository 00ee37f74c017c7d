package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultCaptureConfig(t *testing.T) {
	config := DefaultCaptureConfig()

	if config.Format != "png" {
		t.Errorf("默认 Format 应为 png, 实际为 %s", config.Format)
	}
	if config.Quality != 80 {
		t.Errorf("默认 Quality 应为 80, 实际为 %d", config.Quality)
	}
	if config.OutputDir != "." {
		t.Errorf("默认 OutputDir 应为 ., 实际为 %s", config.OutputDir)
	}
	if err := config.Validate(); err != nil {
		t.Errorf("默认配置应合法: %v", err)
	}
}

func TestValidate(t *testing.T) {
	config := DefaultCaptureConfig()
	config.Format = "gif"
	if config.Validate() == nil {
		t.Error("gif 格式应校验失败")
	}

	config = DefaultCaptureConfig()
	config.Quality = 101
	if config.Validate() == nil {
		t.Error("质量 101 应校验失败")
	}
}

func TestManagerSaveAndLoad(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.Exists() {
		t.Error("初始时配置文件不应存在")
	}

	config := &CaptureConfig{
		OutputDir: "/tmp/shots",
		Format:    "jpeg",
		Quality:   65,
		LogLevel:  "debug",
		LogFile:   "/tmp/screencap.log",
	}
	if err := manager.Save(config); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Error("保存后配置文件应存在")
	}

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if *loaded != *config {
		t.Errorf("配置不匹配: 期望 %+v, 实际 %+v", config, loaded)
	}
}

func TestManagerEnvOverride(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)
	if err := manager.Save(DefaultCaptureConfig()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	t.Setenv("SCREENCAP_FORMAT", "bmp")
	t.Setenv("SCREENCAP_QUALITY", "42")

	loaded, err := manager.Load()
	if err != nil {
		t.Fatalf("加载配置失败: %v", err)
	}
	if loaded.Format != "bmp" || loaded.Quality != 42 {
		t.Errorf("环境变量应覆盖配置文件: %+v", loaded)
	}
	if loaded.OutputDir != "." {
		t.Errorf("未覆盖的字段应保留文件中的值: %s", loaded.OutputDir)
	}
}

func TestManagerClear(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if err := manager.Save(&CaptureConfig{Format: "png", Quality: 80}); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}
	if !manager.Exists() {
		t.Fatal("保存后配置文件应存在")
	}

	if err := manager.Clear(); err != nil {
		t.Fatalf("清除配置失败: %v", err)
	}
	if manager.Exists() {
		t.Error("清除后配置文件不应存在")
	}

	// 清除不存在的文件不应报错
	if err := manager.Clear(); err != nil {
		t.Errorf("清除不存在的配置不应报错: %v", err)
	}
}

func TestManagerLoadNonExistent(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())

	config, err := manager.Load()
	if err != nil {
		t.Fatalf("加载不存在的配置不应报错: %v", err)
	}
	if *config != *DefaultCaptureConfig() {
		t.Errorf("应返回默认配置, 实际 %+v", config)
	}
}

func TestManagerLoadCorruptedFile(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	configFile := filepath.Join(tempDir, "config.json")
	if err := os.WriteFile(configFile, []byte("not valid json"), 0600); err != nil {
		t.Fatalf("创建测试文件失败: %v", err)
	}

	config, err := manager.Load()
	if err == nil {
		t.Error("加载损坏的配置应返回错误")
	}
	if config == nil {
		t.Error("即使出错也应返回默认配置")
	}
}

func TestManagerPaths(t *testing.T) {
	tempDir := t.TempDir()
	manager := NewManagerWithDir(tempDir)

	if manager.GetConfigDir() != tempDir {
		t.Errorf("GetConfigDir 应为 %s", tempDir)
	}
	expectedFile := filepath.Join(tempDir, "config.json")
	if manager.GetConfigFile() != expectedFile {
		t.Errorf("GetConfigFile 应为 %s", expectedFile)
	}
}

func TestDefaultManager(t *testing.T) {
	manager := GetDefaultManager()
	if manager == nil {
		t.Fatal("GetDefaultManager 返回 nil")
	}

	homeDir, _ := os.UserHomeDir()
	expectedDir := filepath.Join(homeDir, ".screencap")
	if manager.GetConfigDir() != expectedDir {
		t.Errorf("默认配置目录应为 %s, 实际为 %s", expectedDir, manager.GetConfigDir())
	}
}

func TestConfigFilePermissions(t *testing.T) {
	manager := NewManagerWithDir(t.TempDir())
	if err := manager.Save(DefaultCaptureConfig()); err != nil {
		t.Fatalf("保存配置失败: %v", err)
	}

	info, err := os.Stat(manager.GetConfigFile())
	if err != nil {
		t.Fatalf("获取文件信息失败: %v", err)
	}
	// 在某些系统上权限可能略有不同
	if perm := info.Mode().Perm(); perm&0077 != 0 {
		t.Logf("警告: 配置文件权限为 %o", perm)
	}
}

// BenchmarkSaveLoad 基准测试
func BenchmarkSaveLoad(b *testing.B) {
	manager := NewManagerWithDir(b.TempDir())
	config := DefaultCaptureConfig()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		manager.Save(config)
		manager.Load()
	}
}
