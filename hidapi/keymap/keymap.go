// Package keymap maps HID usages to Linux evdev keycodes and keycode names.
// The consumer-page table lives in consumer_gen.go and is regenerated from
// data/consumer-usages.md.
package keymap

import (
	"fmt"
	"strings"

	"github.com/iancoleman/strcase"
)

var keyCodes = map[string]uint16{}

func init() {
	for code, name := range keyNames {
		keyCodes[name] = code
	}
}

// KeyName returns the canonical evdev name of a keycode, or a hex placeholder
// for codes outside the bridge's tables.
func KeyName(code uint16) string {
	name, ok := keyNames[code]
	if !ok {
		return fmt.Sprintf("KEY_0x%x", code)
	}
	return name
}

// KeyCode resolves a key name to its evdev code. Canonical KEY_* names match
// directly; anything else ("leftShift", "volume-up") is normalized first.
func KeyCode(name string) (uint16, bool) {
	if code, ok := keyCodes[name]; ok {
		return code, true
	}
	if code, ok := keyCodes[strings.ToUpper(name)]; ok {
		return code, true
	}
	// Canonical evdev names have no separators after the KEY_ prefix.
	normalized := strings.ReplaceAll(strcase.ToScreamingSnake(name), "_", "")
	code, ok := keyCodes["KEY_"+normalized]
	return code, ok
}

// keyboardUsages maps Keyboard/Keypad page (0x07) usages to evdev keycodes.
var keyboardUsages = map[uint8]uint16{
	0x04: KeyA, 0x05: KeyB, 0x06: KeyC, 0x07: KeyD,
	0x08: KeyE, 0x09: KeyF, 0x0a: KeyG, 0x0b: KeyH,
	0x0c: KeyI, 0x0d: KeyJ, 0x0e: KeyK, 0x0f: KeyL,
	0x10: KeyM, 0x11: KeyN, 0x12: KeyO, 0x13: KeyP,
	0x14: KeyQ, 0x15: KeyR, 0x16: KeyS, 0x17: KeyT,
	0x18: KeyU, 0x19: KeyV, 0x1a: KeyW, 0x1b: KeyX,
	0x1c: KeyY, 0x1d: KeyZ,
	0x1e: Key1, 0x1f: Key2, 0x20: Key3, 0x21: Key4, 0x22: Key5,
	0x23: Key6, 0x24: Key7, 0x25: Key8, 0x26: Key9, 0x27: Key0,
	0x28: KeyEnter, 0x29: KeyEsc, 0x2a: KeyBackspace, 0x2b: KeyTab,
	0x2c: KeySpace, 0x2d: KeyMinus, 0x2e: KeyEqual, 0x2f: KeyLeftBrace,
	0x30: KeyRightBrace, 0x31: KeyBackslash, 0x33: KeySemicolon,
	0x34: KeyApostrophe, 0x35: KeyGrave, 0x36: KeyComma,
	0x37: KeyDot, 0x38: KeySlash, 0x39: KeyCapsLock,
	0x3a: KeyF1, 0x3b: KeyF2, 0x3c: KeyF3, 0x3d: KeyF4,
	0x3e: KeyF5, 0x3f: KeyF6, 0x40: KeyF7, 0x41: KeyF8,
	0x42: KeyF9, 0x43: KeyF10, 0x44: KeyF11, 0x45: KeyF12,
	0x4f: KeyRight, 0x50: KeyLeft, 0x51: KeyDown, 0x52: KeyUp,
}

// KeyboardUsage resolves a Keyboard page usage to an evdev keycode.
func KeyboardUsage(usage uint8) (uint16, bool) {
	code, ok := keyboardUsages[usage]
	return code, ok
}

// ConsumerUsage resolves a Consumer page (0x0C) usage to an evdev keycode.
func ConsumerUsage(usage uint16) (uint16, bool) {
	code, ok := consumerUsages[usage]
	return code, ok
}

// ModifierBits maps the eight bits of a boot keyboard modifier byte to their
// evdev keycodes, bit 0 first.
var ModifierBits = [8]uint16{
	KeyLeftCtrl, KeyLeftShift, KeyLeftAlt, KeyLeftMeta,
	KeyRightCtrl, KeyRightShift, KeyRightAlt, KeyRightMeta,
}

// SystemBits maps the low bits of a System Control report to keycodes:
// power down, sleep, wake up.
var SystemBits = [3]uint16{KeyPower, KeySleep, KeyWakeup}

// KeyboardCodes lists every keycode the virtual keyboard must be able to
// emit: mapped keys, modifiers, consumer keys and system controls.
func KeyboardCodes() []uint16 {
	seen := make(map[uint16]struct{})
	var codes []uint16
	add := func(code uint16) {
		if _, ok := seen[code]; ok {
			return
		}
		seen[code] = struct{}{}
		codes = append(codes, code)
	}
	for _, code := range keyboardUsages {
		add(code)
	}
	for _, code := range ModifierBits {
		add(code)
	}
	for _, code := range consumerUsages {
		add(code)
	}
	for _, code := range SystemBits {
		add(code)
	}
	return codes
}
