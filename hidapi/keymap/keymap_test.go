package keymap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyCode(t *testing.T) {
	tests := []struct {
		name string
		code uint16
		ok   bool
	}{
		{"KEY_VOLUMEUP", KeyVolumeUp, true},
		{"key_volumeup", KeyVolumeUp, true},
		{"KEY_LEFTSHIFT", KeyLeftShift, true},
		{"leftShift", KeyLeftShift, true},
		{"volume-up", KeyVolumeUp, true},
		{"KEY_DOESNOTEXIST", 0, false},
	}
	for _, tc := range tests {
		code, ok := KeyCode(tc.name)
		require.Equal(t, tc.ok, ok, tc.name)
		if ok {
			assert.Equal(t, tc.code, code, tc.name)
		}
	}
}

func TestKeyNameRoundTrip(t *testing.T) {
	for code, name := range keyNames {
		resolved, ok := KeyCode(name)
		require.True(t, ok, name)
		assert.Equal(t, code, resolved, name)
	}
}

func TestKeyNameFallback(t *testing.T) {
	assert.Equal(t, "KEY_0x3ff", KeyName(0x3ff))
}

func TestKeyboardUsage(t *testing.T) {
	code, ok := KeyboardUsage(0x04)
	require.True(t, ok)
	assert.Equal(t, KeyA, code)

	_, ok = KeyboardUsage(0xd0)
	assert.False(t, ok)
}

func TestConsumerUsage(t *testing.T) {
	code, ok := ConsumerUsage(0x00e9)
	require.True(t, ok)
	assert.Equal(t, KeyVolumeUp, code)

	_, ok = ConsumerUsage(0x3fff)
	assert.False(t, ok)
}

// Every keycode a keyboard report can produce must be registered on the
// virtual device, or injection would silently drop it.
func TestKeyboardCodesCoverUsageTables(t *testing.T) {
	codes := make(map[uint16]struct{})
	for _, code := range KeyboardCodes() {
		codes[code] = struct{}{}
	}
	for usage, code := range keyboardUsages {
		assert.Contains(t, codes, code, "usage 0x%02x", usage)
	}
	for usage, code := range consumerUsages {
		assert.Contains(t, codes, code, "usage 0x%04x", usage)
	}
	for _, code := range ModifierBits {
		assert.Contains(t, codes, code)
	}
	for _, code := range SystemBits {
		assert.Contains(t, codes, code)
	}
}
