package hidapi

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/hidlink/hidlink/hidapi/hiddesc"
	"github.com/hidlink/hidlink/hidapi/keymap"
)

type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func TestDecodeKeyboardModifiers(t *testing.T) {
	clock := newFakeClock()
	decoder := NewDecoder(zap.NewNop(), clock.Now)
	state := NewSourceState()

	actions := decoder.Decode(hiddesc.KindKeyboard, []byte{0x01, 0, 0, 0, 0, 0, 0, 0}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, pressed(keymap.KeyLeftCtrl), actions[0])

	// Same bitmask again must not re-emit the press.
	actions = decoder.Decode(hiddesc.KindKeyboard, []byte{0x01, 0, 0, 0, 0, 0, 0, 0}, state)
	assert.Empty(t, actions)

	actions = decoder.Decode(hiddesc.KindKeyboard, []byte{0x00, 0, 0, 0, 0, 0, 0, 0}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionKeyReleased, actions[0].Type)
	assert.Equal(t, keymap.KeyLeftCtrl, actions[0].Code)
}

func TestDecodeKeyboardEndToEnd(t *testing.T) {
	definitions := hiddesc.Parse(bootKeyboardDescriptor)
	require.Contains(t, definitions, uint8(1))
	require.Equal(t, hiddesc.KindKeyboard, definitions[1].Kind)

	resolver := NewResolver(definitions)
	clock := newFakeClock()
	decoder := NewDecoder(zap.NewNop(), clock.Now)
	state := NewSourceState()

	resolved, ok := resolver.Resolve([]byte{0x01, 0, 0, 0, 0, 0, 0, 0, 0})
	require.True(t, ok)
	actions := decoder.Decode(resolved.Definition.Kind, resolved.Payload, state)
	assert.Empty(t, actions)

	resolved, ok = resolver.Resolve([]byte{0x01, 0x02, 0, 0, 0x04, 0, 0, 0, 0})
	require.True(t, ok)
	actions = decoder.Decode(resolved.Definition.Kind, resolved.Payload, state)
	require.Len(t, actions, 2)
	assert.Equal(t, pressed(keymap.KeyLeftShift), actions[0])
	assert.Equal(t, pressed(keymap.KeyA), actions[1])
}

func TestDecodeKeyboardShapes(t *testing.T) {
	clock := newFakeClock()
	decoder := NewDecoder(zap.NewNop(), clock.Now)

	// 6 bytes: key usages only, no modifier byte.
	state := NewSourceState()
	actions := decoder.Decode(hiddesc.KindKeyboard, []byte{0x04, 0, 0, 0, 0, 0}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, pressed(keymap.KeyA), actions[0])

	// 9 bytes: leading report ID is stripped.
	state = NewSourceState()
	actions = decoder.Decode(hiddesc.KindKeyboard, []byte{0x01, 0, 0, 0x04, 0, 0, 0, 0, 0}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, pressed(keymap.KeyA), actions[0])

	// Anything else is unsupported and injects nothing.
	state = NewSourceState()
	actions = decoder.Decode(hiddesc.KindKeyboard, []byte{0, 0, 0, 0, 0}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionUnsupported, actions[0].Type)
}

func TestDecodeKeyboardHoldDuration(t *testing.T) {
	clock := newFakeClock()
	decoder := NewDecoder(zap.NewNop(), clock.Now)
	state := NewSourceState()

	decoder.Decode(hiddesc.KindKeyboard, []byte{0, 0, 0x04, 0, 0, 0, 0, 0}, state)
	clock.Advance(800 * time.Millisecond)
	actions := decoder.Decode(hiddesc.KindKeyboard, []byte{0, 0, 0, 0, 0, 0, 0, 0}, state)

	require.Len(t, actions, 1)
	assert.Equal(t, ActionKeyReleased, actions[0].Type)
	assert.True(t, actions[0].HasHold)
	assert.Equal(t, 800*time.Millisecond, actions[0].Held)
}

func TestDecodeConsumer(t *testing.T) {
	clock := newFakeClock()
	decoder := NewDecoder(zap.NewNop(), clock.Now)
	state := NewSourceState()

	actions := decoder.Decode(hiddesc.KindConsumer, []byte{0xe9, 0x00}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, pressed(keymap.KeyVolumeUp), actions[0])

	// Repeated notification of the held control is silent.
	actions = decoder.Decode(hiddesc.KindConsumer, []byte{0xe9, 0x00}, state)
	assert.Empty(t, actions)

	clock.Advance(100 * time.Millisecond)
	actions = decoder.Decode(hiddesc.KindConsumer, []byte{0x00, 0x00}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionKeyReleased, actions[0].Type)
	assert.Equal(t, keymap.KeyVolumeUp, actions[0].Code)
	assert.Equal(t, 100*time.Millisecond, actions[0].Held)
}

func TestDecodeConsumerUnknownUsage(t *testing.T) {
	decoder := NewDecoder(zap.NewNop(), newFakeClock().Now)
	state := NewSourceState()

	actions := decoder.Decode(hiddesc.KindConsumer, []byte{0xff, 0x3f}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, ActionUnknownUsage, actions[0].Type)
	assert.Equal(t, uint32(0x3fff), actions[0].Usage)
}

func TestDecodeSystem(t *testing.T) {
	decoder := NewDecoder(zap.NewNop(), newFakeClock().Now)
	state := NewSourceState()

	actions := decoder.Decode(hiddesc.KindSystem, []byte{0x01}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, pressed(keymap.KeyPower), actions[0])

	actions = decoder.Decode(hiddesc.KindSystem, []byte{0x04}, state)
	require.Len(t, actions, 2)
	assert.Equal(t, ActionKeyReleased, actions[0].Type)
	assert.Equal(t, keymap.KeyPower, actions[0].Code)
	assert.Equal(t, pressed(keymap.KeyWakeup), actions[1])
}

func TestDecodeMouse(t *testing.T) {
	decoder := NewDecoder(zap.NewNop(), newFakeClock().Now)
	state := NewSourceState()

	actions := decoder.Decode(hiddesc.KindMouse, []byte{0x01, 0x05, 0xfb, 0x01}, state)
	require.Len(t, actions, 1)
	action := actions[0]
	assert.Equal(t, ActionMouseMoved, action.Type)
	assert.Equal(t, uint8(0x01), action.Buttons)
	assert.Equal(t, int8(5), action.DX)
	assert.Equal(t, int8(-5), action.DY)
	assert.Equal(t, int8(1), action.Scroll)
}

// Three payloads of one length with real motion lock the estimator; a
// shorter frame afterwards is tolerated without relearning.
func TestDecodeMouseLengthLearning(t *testing.T) {
	decoder := NewDecoder(zap.NewNop(), newFakeClock().Now)
	state := NewSourceState()

	for i := 0; i < 3; i++ {
		decoder.Decode(hiddesc.KindMouse, []byte{0x00, 0x05, 0x00, 0x02, 0x00}, state)
	}
	assert.Equal(t, 5, state.mouse.effective(4))

	actions := decoder.Decode(hiddesc.KindMouse, []byte{0x00, 0x05, 0x00, 0x02}, state)
	require.Len(t, actions, 1)
	assert.Equal(t, int8(5), actions[0].DX)
	assert.Equal(t, 5, state.mouse.effective(4))
}

// Idle frames with sub-threshold deltas must not teach the estimator.
func TestDecodeMouseIgnoresIdleFrames(t *testing.T) {
	decoder := NewDecoder(zap.NewNop(), newFakeClock().Now)
	state := NewSourceState()

	for i := 0; i < 5; i++ {
		decoder.Decode(hiddesc.KindMouse, []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, state)
	}
	assert.Empty(t, state.mouse.samples)
}

func TestStoreDropAll(t *testing.T) {
	store := NewStore()
	a := store.Get("HID-char001a")
	b := store.Get("HID-char001b")
	assert.NotSame(t, a, b)
	assert.Same(t, a, store.Get("HID-char001a"))

	store.DropAll()
	assert.NotSame(t, a, store.Get("HID-char001a"))
}

// bootKeyboardDescriptor mirrors the standard boot keyboard report
// descriptor with report ID 1.
var bootKeyboardDescriptor = []byte{
	0x05, 0x01, 0x09, 0x06, 0xa1, 0x01,
	0x85, 0x01,
	0x05, 0x07, 0x19, 0xe0, 0x29, 0xe7, 0x15, 0x00, 0x25, 0x01,
	0x95, 0x08, 0x75, 0x01, 0x81, 0x02,
	0x95, 0x01, 0x75, 0x08, 0x81, 0x01,
	0x05, 0x07, 0x19, 0x00, 0x29, 0x65, 0x15, 0x00, 0x25, 0x65,
	0x95, 0x06, 0x75, 0x08, 0x81, 0x00,
	0xc0,
}
