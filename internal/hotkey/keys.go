package hotkey

import (
	"strings"

	"golang.design/x/hotkey"
)

// keyNames maps canonical key names to registrable keys. The entries
// are listed one by one because the underlying key codes are not
// contiguous on every platform.
var keyNames = map[string]hotkey.Key{
	"Space":  hotkey.KeySpace,
	"Return": hotkey.KeyReturn,
	"Escape": hotkey.KeyEscape,
	"Tab":    hotkey.KeyTab,
	"Delete": hotkey.KeyDelete,

	"A": hotkey.KeyA, "B": hotkey.KeyB, "C": hotkey.KeyC, "D": hotkey.KeyD,
	"E": hotkey.KeyE, "F": hotkey.KeyF, "G": hotkey.KeyG, "H": hotkey.KeyH,
	"I": hotkey.KeyI, "J": hotkey.KeyJ, "K": hotkey.KeyK, "L": hotkey.KeyL,
	"M": hotkey.KeyM, "N": hotkey.KeyN, "O": hotkey.KeyO, "P": hotkey.KeyP,
	"Q": hotkey.KeyQ, "R": hotkey.KeyR, "S": hotkey.KeyS, "T": hotkey.KeyT,
	"U": hotkey.KeyU, "V": hotkey.KeyV, "W": hotkey.KeyW, "X": hotkey.KeyX,
	"Y": hotkey.KeyY, "Z": hotkey.KeyZ,

	"0": hotkey.Key0, "1": hotkey.Key1, "2": hotkey.Key2, "3": hotkey.Key3,
	"4": hotkey.Key4, "5": hotkey.Key5, "6": hotkey.Key6, "7": hotkey.Key7,
	"8": hotkey.Key8, "9": hotkey.Key9,
}

// keyFor resolves a configured key name, case-insensitively
func keyFor(name string) (hotkey.Key, bool) {
	k, ok := keyNames[keyName(name)]
	return k, ok
}

// keyName canonicalizes a configured key name: single characters are
// uppercased, named keys are title-cased ("space" becomes "Space")
func keyName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	lower := strings.ToLower(name)
	if len(lower) == 1 {
		return strings.ToUpper(lower)
	}
	return strings.ToUpper(lower[:1]) + lower[1:]
}
