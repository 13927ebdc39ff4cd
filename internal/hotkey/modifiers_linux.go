//go:build linux

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/vaani-app/vaani/internal/config"
)

// superName is how the Super modifier is shown to the user
const superName = "Super"

// modifiersFor maps the configured modifiers to X11 modifier masks.
// Alt is Mod1 and Super is Mod4 on X11.
func modifiersFor(combo config.HotkeyConfig) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if combo.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if combo.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if combo.Alt {
		mods = append(mods, hotkey.Mod1)
	}
	if combo.Super {
		mods = append(mods, hotkey.Mod4)
	}
	return mods
}
