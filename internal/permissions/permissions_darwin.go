//go:build darwin

package permissions

/*
#cgo CFLAGS: -x objective-c -fmodules
#cgo LDFLAGS: -framework AVFoundation -framework ApplicationServices

#import <AVFoundation/AVFoundation.h>
#import <ApplicationServices/ApplicationServices.h>

int check_microphone_permission() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

int check_accessibility_permission() {
    Boolean isAccessibilityEnabled = AXIsProcessTrusted();
    return isAccessibilityEnabled ? 1 : 0;
}
*/
import "C"

import (
	"os/exec"
)

// Microphone returns the AVFoundation capture authorization status
func (c *Checker) Microphone() Status {
	return Status(C.check_microphone_permission())
}

// Accessibility reports whether the process may post synthetic input
func (c *Checker) Accessibility() Status {
	if C.check_accessibility_permission() == 1 {
		return StatusAuthorized
	}
	return StatusDenied
}

// OpenMicrophoneSettings opens the system privacy pane for the microphone
func (c *Checker) OpenMicrophoneSettings() error {
	url := "x-apple.systempreferences:com.apple.preference.security?Privacy_Microphone"
	return exec.Command("open", url).Run()
}

// OpenAccessibilitySettings opens the system privacy pane for accessibility
func (c *Checker) OpenAccessibilitySettings() error {
	url := "x-apple.systempreferences:com.apple.preference.security?Privacy_Accessibility"
	return exec.Command("open", url).Run()
}
