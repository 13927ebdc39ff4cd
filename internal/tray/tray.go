// Package tray renders the menu-bar icon and menu. It mirrors the
// session state and forwards menu clicks to callbacks; it never calls
// into the controller directly.
package tray

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/getlantern/systray"

	"github.com/vaani-app/vaani/internal/i18n"
	"github.com/vaani-app/vaani/internal/logger"
	"github.com/vaani-app/vaani/internal/session"
)

const appName = "Vaani"

// Device is one input device row in the device submenu
type Device struct {
	ID        int
	Name      string
	IsDefault bool
	IsCurrent bool
}

// Config wires menu clicks to the application
type Config struct {
	OnReady               func() // called once the tray is up and items exist
	OnTalk                func() // talk/stop item; the app decides start versus stop
	OnStatusPage          func()
	OnNotificationsToggle func(enabled bool)
	OnDeviceChange        func(deviceID int)
	OnAbout               func()
	OnQuit                func()
	NotificationsOn       bool
	Log                   *logger.Logger
}

// Manager owns the tray icon and menu
type Manager struct {
	mu    sync.RWMutex
	state session.State
	ready bool

	onReadyCallback       func()
	onTalk                func()
	onStatusPage          func()
	onNotificationsToggle func(bool)
	onDeviceChange        func(int)
	onAbout               func()
	onQuit                func()
	notificationsOn       bool
	log                   *logger.Logger

	menuTalk          *systray.MenuItem
	menuStatusPage    *systray.MenuItem
	menuDevices       *systray.MenuItem
	menuNotifications *systray.MenuItem
	menuAbout         *systray.MenuItem
	menuQuit          *systray.MenuItem

	deviceMenuItems   []*systray.MenuItem
	deviceCancelFuncs []context.CancelFunc

	iconIdle      []byte
	iconRecording []byte
	iconBusy      []byte
	iconError     []byte
}

// NewManager creates a tray manager
func NewManager(config Config) *Manager {
	m := &Manager{
		state:                 session.Idle,
		onReadyCallback:       config.OnReady,
		onTalk:                config.OnTalk,
		onStatusPage:          config.OnStatusPage,
		onNotificationsToggle: config.OnNotificationsToggle,
		onDeviceChange:        config.OnDeviceChange,
		onAbout:               config.OnAbout,
		onQuit:                config.OnQuit,
		notificationsOn:       config.NotificationsOn,
		log:                   config.Log,
	}

	// Load icons once at initialization; placeholders stand in when the
	// asset directory is not shipped next to the binary
	m.iconIdle = m.loadIcon("idle.png", getIdleFallback())
	m.iconRecording = m.loadIcon("recording.png", getActiveFallback())
	m.iconBusy = m.loadIcon("busy.png", getBusyFallback())
	m.iconError = m.loadIcon("error.png", getActiveFallback())

	return m
}

// Run starts the system tray (blocking call)
func (m *Manager) Run() {
	systray.Run(m.onReady, m.onExit)
}

// onReady builds the menu once systray is up
func (m *Manager) onReady() {
	m.menuTalk = systray.AddMenuItem(i18n.T("menu.talk"), "Start or stop a voice turn")
	m.menuStatusPage = systray.AddMenuItem(i18n.T("menu.status_page"), "Open the local status page")
	m.menuDevices = systray.AddMenuItem(i18n.T("menu.devices"), "Select input device")
	m.menuNotifications = systray.AddMenuItemCheckbox(i18n.T("menu.notifications"), "Toggle desktop notifications", m.notificationsOn)

	systray.AddSeparator()

	m.menuAbout = systray.AddMenuItem(i18n.T("menu.about"), "About this application")
	m.menuQuit = systray.AddMenuItem(i18n.T("menu.quit"), "Quit the application")

	m.mu.Lock()
	m.ready = true
	m.applyLocked()
	m.mu.Unlock()

	go m.handleMenuEvents()

	if m.onReadyCallback != nil {
		m.onReadyCallback()
	}
}

// onExit is called when systray is exiting
func (m *Manager) onExit() {}

// handleMenuEvents forwards menu item clicks
func (m *Manager) handleMenuEvents() {
	for {
		select {
		case <-m.menuTalk.ClickedCh:
			if m.onTalk != nil {
				m.onTalk()
			}
		case <-m.menuStatusPage.ClickedCh:
			if m.onStatusPage != nil {
				m.onStatusPage()
			}
		case <-m.menuNotifications.ClickedCh:
			m.mu.Lock()
			m.notificationsOn = !m.notificationsOn
			on := m.notificationsOn
			m.mu.Unlock()
			if on {
				m.menuNotifications.Check()
			} else {
				m.menuNotifications.Uncheck()
			}
			if m.onNotificationsToggle != nil {
				m.onNotificationsToggle(on)
			}
		case <-m.menuAbout.ClickedCh:
			if m.onAbout != nil {
				m.onAbout()
			}
		case <-m.menuQuit.ClickedCh:
			if m.onQuit != nil {
				m.onQuit()
			}
			systray.Quit()
			return
		}
	}
}

// SetState mirrors a session state onto the icon, tooltip, and the
// talk/stop item. Safe to call before the tray is up; the state is
// applied once it is.
func (m *Manager) SetState(state session.State) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
	m.applyLocked()
}

// State returns the state the tray is currently showing
func (m *Manager) State() session.State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// applyLocked pushes state onto systray. The caller must hold mu and
// the tray must be ready.
func (m *Manager) applyLocked() {
	if !m.ready {
		return
	}

	talkTitle := i18n.T("menu.talk")
	switch m.state {
	case session.Recording:
		systray.SetIcon(m.iconRecording)
		systray.SetTooltip(appName + " - " + i18n.T("status.recording"))
		talkTitle = i18n.T("menu.stop")
	case session.Processing:
		systray.SetIcon(m.iconBusy)
		systray.SetTooltip(appName + " - " + i18n.T("status.processing"))
	case session.Playing:
		systray.SetIcon(m.iconBusy)
		systray.SetTooltip(appName + " - " + i18n.T("status.playing"))
	case session.Error:
		systray.SetIcon(m.iconError)
		systray.SetTooltip(appName + " - " + i18n.T("status.error"))
	default:
		systray.SetIcon(m.iconIdle)
		systray.SetTooltip(appName + " - " + i18n.T("status.idle"))
	}
	m.menuTalk.SetTitle(talkTitle)
}

// UpdateDeviceMenu replaces the device submenu with the given devices
func (m *Manager) UpdateDeviceMenu(devices []Device) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.menuDevices == nil {
		return
	}

	// Cancel the goroutines watching the old items
	for _, cancel := range m.deviceCancelFuncs {
		if cancel != nil {
			cancel()
		}
	}
	m.deviceCancelFuncs = nil

	for _, item := range m.deviceMenuItems {
		item.Hide()
	}
	m.deviceMenuItems = nil

	for _, device := range devices {
		prefix := ""
		if device.IsCurrent {
			prefix = "✓ "
		}
		tooltip := ""
		if device.IsDefault {
			tooltip = "System default device"
		}

		menuItem := m.menuDevices.AddSubMenuItem(prefix+device.Name, tooltip)
		m.deviceMenuItems = append(m.deviceMenuItems, menuItem)

		ctx, cancel := context.WithCancel(context.Background())
		m.deviceCancelFuncs = append(m.deviceCancelFuncs, cancel)

		go func(id int, item *systray.MenuItem, ctx context.Context) {
			for {
				select {
				case <-ctx.Done():
					return
				case <-item.ClickedCh:
					if m.onDeviceChange != nil {
						m.onDeviceChange(id)
					}
				}
			}
		}(device.ID, menuItem, ctx)
	}
}

// NotificationsOn reports the checkbox state
func (m *Manager) NotificationsOn() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notificationsOn
}

// Quit tears the tray down
func (m *Manager) Quit() {
	systray.Quit()
}

// loadIcon loads an icon from the assets directory next to the binary,
// falling back to an embedded placeholder
func (m *Manager) loadIcon(filename string, fallback []byte) []byte {
	exe, err := os.Executable()
	if err != nil {
		m.logWarn("cannot resolve executable path: %v", err)
		return fallback
	}

	iconPath := filepath.Join(filepath.Dir(exe), "assets", "icon", filename)
	data, err := os.ReadFile(iconPath)
	if err != nil {
		m.logDebug("icon %s not found, using placeholder", filename)
		return fallback
	}

	return data
}

func (m *Manager) logDebug(format string, v ...interface{}) {
	if m.log != nil {
		m.log.Debug(format, v...)
	}
}

func (m *Manager) logWarn(format string, v ...interface{}) {
	if m.log != nil {
		m.log.Warn(format, v...)
	}
}

// getIdleFallback returns the placeholder icon for the idle state
func getIdleFallback() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff,
		0x61, 0x00, 0x00, 0x00, 0x19, 0x74, 0x45, 0x58,
		0x74, 0x53, 0x6f, 0x66, 0x74, 0x77, 0x61, 0x72,
		0x65, 0x00, 0x41, 0x64, 0x6f, 0x62, 0x65, 0x20,
		0x49, 0x6d, 0x61, 0x67, 0x65, 0x52, 0x65, 0x61,
		0x64, 0x79, 0x71, 0xc9, 0x65, 0x3c, 0x00, 0x00,
		0x00, 0x18, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda,
		0x62, 0xfc, 0xff, 0xff, 0x3f, 0x03, 0x00, 0x00,
		0x00, 0xff, 0xff, 0x03, 0x00, 0x00, 0x00, 0x00,
		0x00, 0x49, 0x45, 0x4e, 0x44, 0xae, 0x42, 0x60,
		0x82,
	}
}

// getActiveFallback returns the placeholder icon for recording and
// error states
func getActiveFallback() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff,
		0x61, 0x00, 0x00, 0x00, 0x19, 0x74, 0x45, 0x58,
		0x74, 0x53, 0x6f, 0x66, 0x74, 0x77, 0x61, 0x72,
		0x65, 0x00, 0x41, 0x64, 0x6f, 0x62, 0x65, 0x20,
		0x49, 0x6d, 0x61, 0x67, 0x65, 0x52, 0x65, 0x61,
		0x64, 0x79, 0x71, 0xc9, 0x65, 0x3c, 0x00, 0x00,
		0x00, 0x20, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda,
		0x62, 0xfc, 0xcf, 0xc0, 0xc0, 0xc0, 0xf0, 0x9f,
		0x81, 0x81, 0x81, 0x81, 0xff, 0x19, 0x18, 0x18,
		0x18, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0x03,
		0x00, 0x0c, 0x10, 0x02, 0x01, 0x8b, 0xd5, 0xf8,
		0x23, 0x00, 0x00, 0x00, 0x00, 0x49, 0x45, 0x4e,
		0x44, 0xae, 0x42, 0x60, 0x82,
	}
}

// getBusyFallback returns the placeholder icon for processing and
// playing states
func getBusyFallback() []byte {
	return []byte{
		0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a,
		0x00, 0x00, 0x00, 0x0d, 0x49, 0x48, 0x44, 0x52,
		0x00, 0x00, 0x00, 0x10, 0x00, 0x00, 0x00, 0x10,
		0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0xf3, 0xff,
		0x61, 0x00, 0x00, 0x00, 0x19, 0x74, 0x45, 0x58,
		0x74, 0x53, 0x6f, 0x66, 0x74, 0x77, 0x61, 0x72,
		0x65, 0x00, 0x41, 0x64, 0x6f, 0x62, 0x65, 0x20,
		0x49, 0x6d, 0x61, 0x67, 0x65, 0x52, 0x65, 0x61,
		0x64, 0x79, 0x71, 0xc9, 0x65, 0x3c, 0x00, 0x00,
		0x00, 0x20, 0x49, 0x44, 0x41, 0x54, 0x78, 0xda,
		0x62, 0xfc, 0xcf, 0xf0, 0x9f, 0xc1, 0xc8, 0xc0,
		0xc0, 0xc0, 0xff, 0x0c, 0x0c, 0x0c, 0xfc, 0xcf,
		0xc0, 0xc0, 0xc0, 0x00, 0x00, 0x00, 0x00, 0xff,
		0xff, 0x03, 0x00, 0x0c, 0x50, 0x02, 0x01, 0x3e,
		0x0a, 0xe4, 0x5b, 0x00, 0x00, 0x00, 0x00, 0x49,
		0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
	}
}
