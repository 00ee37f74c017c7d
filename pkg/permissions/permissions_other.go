//go:build !darwin || !cgo

package permissions

// 非 macOS 系统不需要单独授权
// Wayland 下的授权由 portal 在截图时弹窗处理

func screenRecordingGranted() bool { return true }

func requestScreenRecording() bool { return true }

func openScreenRecordingSettings() {}

func resetScreenRecording(string) error { return nil }
