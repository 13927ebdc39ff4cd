//go:build !darwin

package permissions

// Microphone reports Authorized: Linux and Windows expose no capture
// permission probe at this level, so failures surface from the device.
func (c *Checker) Microphone() Status {
	return StatusAuthorized
}

// Accessibility reports Authorized for the same reason
func (c *Checker) Accessibility() Status {
	return StatusAuthorized
}

// OpenMicrophoneSettings is a no-op on this platform
func (c *Checker) OpenMicrophoneSettings() error {
	return nil
}

// OpenAccessibilitySettings is a no-op on this platform
func (c *Checker) OpenAccessibilitySettings() error {
	return nil
}
