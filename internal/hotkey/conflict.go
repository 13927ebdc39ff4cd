package hotkey

import (
	"runtime"
	"strings"

	"github.com/vaani-app/vaani/internal/config"
)

// ConflictInfo describes a well-known OS or launcher shortcut that a
// configured combination would shadow
type ConflictInfo struct {
	Name        string
	Description string
	OS          string // GOOS value; empty matches every platform
	Combo       config.HotkeyConfig
}

var knownConflicts = []ConflictInfo{
	{
		Name:        "Spotlight",
		Description: "macOS Spotlight search (also Alfred and Raycast defaults)",
		OS:          "darwin",
		Combo:       config.HotkeyConfig{Super: true, Key: "Space"},
	},
	{
		Name:        "Input source switch",
		Description: "macOS keyboard layout switch",
		OS:          "darwin",
		Combo:       config.HotkeyConfig{Ctrl: true, Key: "Space"},
	},
	{
		Name:        "Layout switch",
		Description: "GNOME/KDE keyboard layout switch",
		OS:          "linux",
		Combo:       config.HotkeyConfig{Super: true, Key: "Space"},
	},
	{
		Name:        "Window menu",
		Description: "window manager menu",
		OS:          "linux",
		Combo:       config.HotkeyConfig{Alt: true, Key: "Space"},
	},
	{
		Name:        "Layout switch",
		Description: "Windows keyboard layout switch",
		OS:          "windows",
		Combo:       config.HotkeyConfig{Super: true, Key: "Space"},
	},
	{
		Name:        "Window menu",
		Description: "window system menu",
		OS:          "windows",
		Combo:       config.HotkeyConfig{Alt: true, Key: "Space"},
	},
}

// CheckConflicts reports known shortcuts on this platform that match
// the given combination
func CheckConflicts(combo config.HotkeyConfig) []ConflictInfo {
	return conflictsOn(runtime.GOOS, combo)
}

func conflictsOn(goos string, combo config.HotkeyConfig) []ConflictInfo {
	var conflicts []ConflictInfo
	for _, known := range knownConflicts {
		if known.OS != "" && known.OS != goos {
			continue
		}
		if sameCombo(known.Combo, combo) {
			conflicts = append(conflicts, known)
		}
	}
	return conflicts
}

// sameCombo compares combinations; key names match case-insensitively
func sameCombo(a, b config.HotkeyConfig) bool {
	return a.Ctrl == b.Ctrl &&
		a.Shift == b.Shift &&
		a.Alt == b.Alt &&
		a.Super == b.Super &&
		strings.EqualFold(a.Key, b.Key)
}

// Format renders a combination for menus and dialogs, e.g.
// "Ctrl+Alt+Space". The Super modifier takes its platform name.
func Format(combo config.HotkeyConfig) string {
	var parts []string
	if combo.Ctrl {
		parts = append(parts, "Ctrl")
	}
	if combo.Shift {
		parts = append(parts, "Shift")
	}
	if combo.Alt {
		parts = append(parts, "Alt")
	}
	if combo.Super {
		parts = append(parts, superName)
	}
	parts = append(parts, keyName(combo.Key))
	return strings.Join(parts, "+")
}
