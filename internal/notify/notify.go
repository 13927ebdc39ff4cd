// Package notify sends desktop notifications for session events.
// Delivery is best effort; a missing notification daemon must never
// break a voice turn.
package notify

import (
	"fmt"
	"sync"

	"github.com/gen2brain/beeep"

	"github.com/vaani-app/vaani/internal/fault"
	"github.com/vaani-app/vaani/internal/i18n"
)

// Type classifies a notification
type Type string

const (
	// TypeInfo is an informational notification
	TypeInfo Type = "info"
	// TypeWarning is a warning notification
	TypeWarning Type = "warning"
	// TypeError is an error notification
	TypeError Type = "error"
	// TypeSuccess is a success notification
	TypeSuccess Type = "success"
)

// maxBodyRunes caps notification bodies so long replies don't overflow
// the notification bubble
const maxBodyRunes = 100

// Notification is one message for the desktop notification center
type Notification struct {
	Title   string
	Message string
	Type    Type
}

// Manager sends notifications to the user. Enabled state is toggled
// from the tray menu at runtime.
type Manager struct {
	appName string
	mu      sync.Mutex
	enabled bool
}

// New creates a notification manager
func New(appName string, enabled bool) *Manager {
	return &Manager{appName: appName, enabled: enabled}
}

// SetEnabled turns delivery on or off
func (m *Manager) SetEnabled(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enabled = enabled
}

// Enabled reports whether delivery is on
func (m *Manager) Enabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// Send delivers a notification. Warnings and errors use the alert
// variant so they stay on screen longer.
func (m *Manager) Send(n *Notification) error {
	if n == nil {
		return fmt.Errorf("notification cannot be nil")
	}
	if !m.Enabled() {
		return nil
	}

	title := m.appName
	if n.Title != "" {
		title = m.appName + ": " + n.Title
	}

	switch n.Type {
	case TypeWarning, TypeError:
		return beeep.Alert(title, n.Message, "")
	default:
		return beeep.Notify(title, n.Message, "")
	}
}

// SendInfo sends an informational notification
func (m *Manager) SendInfo(title, message string) error {
	return m.Send(&Notification{Title: title, Message: message, Type: TypeInfo})
}

// SendWarning sends a warning notification
func (m *Manager) SendWarning(title, message string) error {
	return m.Send(&Notification{Title: title, Message: message, Type: TypeWarning})
}

// SendError sends an error notification
func (m *Manager) SendError(title, message string) error {
	return m.Send(&Notification{Title: title, Message: message, Type: TypeError})
}

// SendSuccess sends a success notification
func (m *Manager) SendSuccess(title, message string) error {
	return m.Send(&Notification{Title: title, Message: message, Type: TypeSuccess})
}

// Listening announces that the microphone is live
func (m *Manager) Listening() error {
	return m.SendInfo("", i18n.T("notify.listening"))
}

// TurnDone announces a finished turn with the reply text
func (m *Manager) TurnDone(responseText string) error {
	return m.SendSuccess(i18n.T("notify.turn_done"), truncate(responseText))
}

// Pasted announces that a dictated transcript was pasted
func (m *Manager) Pasted() error {
	return m.SendSuccess("", i18n.T("notify.pasted"))
}

// TimedOut announces that recording hit the time limit
func (m *Manager) TimedOut() error {
	return m.SendWarning("", i18n.T("notify.timed_out"))
}

// Fault announces a failed turn in the user's language
func (m *Manager) Fault(fe *fault.Error) error {
	if fe == nil {
		return nil
	}
	return m.SendError("", FaultMessage(fe))
}

// FaultMessage renders a fault for the user. The tray and the retry
// dialog use the same wording.
func FaultMessage(fe *fault.Error) string {
	switch fe.Kind {
	case fault.PermissionDenied:
		return i18n.T("error.permission_denied")
	case fault.DeviceUnavailable:
		return i18n.T("error.device_unavailable")
	case fault.NetworkError:
		return i18n.T("error.network")
	case fault.BackendFailed:
		return i18n.TF("error.backend", map[string]string{"message": fe.Message})
	case fault.DecodeError:
		return i18n.T("error.decode")
	case fault.PlaybackError:
		return i18n.T("error.playback")
	default:
		return fe.Message
	}
}

func truncate(text string) string {
	runes := []rune(text)
	if len(runes) <= maxBodyRunes {
		return text
	}
	return string(runes[:maxBodyRunes]) + "..."
}
