//go:build windows

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/vaani-app/vaani/internal/config"
)

// superName is how the Super modifier is shown to the user
const superName = "Win"

// modifiersFor maps the configured modifiers to Win32 modifier flags
func modifiersFor(combo config.HotkeyConfig) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if combo.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if combo.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if combo.Alt {
		mods = append(mods, hotkey.ModAlt)
	}
	if combo.Super {
		mods = append(mods, hotkey.ModWin)
	}
	return mods
}
