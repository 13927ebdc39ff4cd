//go:build darwin

package hotkey

import (
	"golang.design/x/hotkey"

	"github.com/vaani-app/vaani/internal/config"
)

// superName is how the Super modifier is shown to the user
const superName = "Cmd"

// modifiersFor maps the configured modifiers to macOS modifier flags.
// Alt is Option and Super is Command.
func modifiersFor(combo config.HotkeyConfig) []hotkey.Modifier {
	var mods []hotkey.Modifier
	if combo.Ctrl {
		mods = append(mods, hotkey.ModCtrl)
	}
	if combo.Shift {
		mods = append(mods, hotkey.ModShift)
	}
	if combo.Alt {
		mods = append(mods, hotkey.ModOption)
	}
	if combo.Super {
		mods = append(mods, hotkey.ModCmd)
	}
	return mods
}
