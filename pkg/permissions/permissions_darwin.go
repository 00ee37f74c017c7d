//go:build darwin && cgo

package permissions

/*
#cgo CFLAGS: -x objective-c
#cgo LDFLAGS: -framework Cocoa -framework CoreGraphics
#import <Cocoa/Cocoa.h>
#import <CoreGraphics/CoreGraphics.h>

int preflightScreenCapture() {
    if (@available(macOS 10.15, *)) {
        return CGPreflightScreenCaptureAccess() ? 1 : 0;
    }
    return 1;
}

int requestScreenCapture() {
    if (@available(macOS 10.15, *)) {
        return CGRequestScreenCaptureAccess() ? 1 : 0;
    }
    return 1;
}

void openScreenRecordingPreferences() {
    NSString *urlString = @"x-apple.systempreferences:com.apple.preference.security?Privacy_ScreenCapture";
    [[NSWorkspace sharedWorkspace] openURL:[NSURL URLWithString:urlString]];
}
*/
import "C"

import (
	"fmt"
	"os/exec"
)

func screenRecordingGranted() bool {
	return C.preflightScreenCapture() == 1
}

func requestScreenRecording() bool {
	return C.requestScreenCapture() == 1
}

func openScreenRecordingSettings() {
	C.openScreenRecordingPreferences()
}

func resetScreenRecording(bundleID string) error {
	if bundleID == "" {
		return fmt.Errorf("bundle ID 不能为空")
	}
	if out, err := exec.Command("tccutil", "reset", "ScreenCapture", bundleID).CombinedOutput(); err != nil {
		return fmt.Errorf("重置屏幕录制权限失败: %v: %s", err, out)
	}
	return nil
}
