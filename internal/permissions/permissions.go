// Package permissions probes OS-level permissions the app depends on:
// microphone capture and, for dictation mode, synthetic key events.
// Platforms without a permission model report Authorized and let the
// audio layer surface real failures.
package permissions

// Status represents the status of a system permission
type Status int

const (
	// StatusNotDetermined means the user hasn't been asked yet
	StatusNotDetermined Status = 0
	// StatusRestricted means the permission is blocked by system policy
	StatusRestricted Status = 1
	// StatusDenied means the user has explicitly denied the permission
	StatusDenied Status = 2
	// StatusAuthorized means the user has granted the permission
	StatusAuthorized Status = 3
)

// String returns the status name
func (s Status) String() string {
	switch s {
	case StatusNotDetermined:
		return "NotDetermined"
	case StatusRestricted:
		return "Restricted"
	case StatusDenied:
		return "Denied"
	case StatusAuthorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// Checker probes system permissions
type Checker struct{}

// NewChecker creates a new permission checker
func NewChecker() *Checker {
	return &Checker{}
}

// MicrophoneBlocked reports whether capture is known to be impossible.
// NotDetermined is not blocked: opening the stream triggers the OS
// prompt, which is the only way to ask.
func (c *Checker) MicrophoneBlocked() bool {
	s := c.Microphone()
	return s == StatusDenied || s == StatusRestricted
}

// IsMicrophoneAuthorized reports whether the user has granted capture
func (c *Checker) IsMicrophoneAuthorized() bool {
	return c.Microphone() == StatusAuthorized
}

// IsAccessibilityAuthorized reports whether synthetic input is allowed
func (c *Checker) IsAccessibilityAuthorized() bool {
	return c.Accessibility() == StatusAuthorized
}

// CheckAll returns the granted state of every permission the app uses
func (c *Checker) CheckAll() map[string]bool {
	return map[string]bool{
		"microphone":    !c.MicrophoneBlocked(),
		"accessibility": c.IsAccessibilityAuthorized(),
	}
}
