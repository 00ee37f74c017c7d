// Package permissions 检查截图所需的系统权限
package permissions

import (
	"fmt"
	"io"
	"runtime"
)

// PermissionStatus 权限状态
type PermissionStatus struct {
	ScreenRecording bool   `json:"screen_recording"`
	Platform        string `json:"platform"`
}

// CheckPermissions 检查屏幕录制权限（不触发弹窗）
func CheckPermissions() *PermissionStatus {
	return &PermissionStatus{
		ScreenRecording: screenRecordingGranted(),
		Platform:        runtime.GOOS,
	}
}

// ScreenRecordingGranted 是否已授予屏幕录制权限
// 不需要授权的平台始终返回 true
func ScreenRecordingGranted() bool {
	return screenRecordingGranted()
}

// RequestScreenRecording 请求屏幕录制权限（macOS 上会弹出系统对话框）
func RequestScreenRecording() bool {
	return requestScreenRecording()
}

// OpenScreenRecordingSettings 打开系统的屏幕录制设置页面
func OpenScreenRecordingSettings() {
	openScreenRecordingSettings()
}

// GetPermissionInstructions 获取授权说明，已授权时返回空字符串
func GetPermissionInstructions(status *PermissionStatus) string {
	if status == nil || status.ScreenRecording {
		return ""
	}

	msg := "需要授权屏幕录制权限才能截图:\n\n"
	switch status.Platform {
	case "darwin":
		msg += "  系统设置 > 隐私与安全性 > 屏幕录制\n\n"
		msg += "授权后需要重启应用才能生效。"
	default:
		msg += "  请在系统设置中允许本程序录制屏幕。"
	}
	return msg
}

// EnsurePermissions 检查权限，未授权时返回说明
func EnsurePermissions() (bool, string) {
	status := CheckPermissions()
	if status.ScreenRecording {
		return true, ""
	}
	return false, GetPermissionInstructions(status)
}

// PrintPermissionStatus 打印权限状态
func PrintPermissionStatus(w io.Writer) {
	status := CheckPermissions()
	fmt.Fprintf(w, "权限状态:\n")
	fmt.Fprintf(w, "  屏幕录制: %v\n", status.ScreenRecording)
	if msg := GetPermissionInstructions(status); msg != "" {
		fmt.Fprintln(w, msg)
	}
}

// ResetPermissions 重置指定应用的屏幕录制授权
func ResetPermissions(bundleID string) error {
	return resetScreenRecording(bundleID)
}
