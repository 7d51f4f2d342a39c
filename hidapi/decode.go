package hidapi

import (
	"sort"
	"time"

	"github.com/hidlink/hidlink/hidapi/hiddesc"
	"github.com/hidlink/hidlink/hidapi/keymap"
	"go.uber.org/zap"
)

// Decoder turns resolved report payloads into ordered action lists, mutating
// the per-source state it is handed. The clock is injected so hold durations
// are testable.
type Decoder struct {
	log *zap.Logger
	now func() time.Time
}

func NewDecoder(log *zap.Logger, now func() time.Time) *Decoder {
	return &Decoder{log: log, now: now}
}

// Decode dispatches on the report kind. Every kind, including unknown, is
// handled; unsupported shapes yield a diagnostic action and no input effect.
func (d *Decoder) Decode(kind hiddesc.ReportKind, payload []byte, state *SourceState) []Action {
	switch kind {
	case hiddesc.KindKeyboard:
		return d.decodeKeyboard(payload, state)
	case hiddesc.KindConsumer:
		return d.decodeConsumer(payload, state)
	case hiddesc.KindSystem:
		return d.decodeSystem(payload, state)
	case hiddesc.KindMouse:
		return d.decodeMouse(payload, state)
	default:
		return []Action{unsupported(len(payload))}
	}
}

func (d *Decoder) decodeKeyboard(payload []byte, state *SourceState) []Action {
	if len(payload) == 9 {
		// Explicit report ID still prefixes the payload on the
		// heuristic path.
		payload = payload[1:]
	}

	var keys []byte
	var modifierMask uint8
	hasModifiers := false
	switch len(payload) {
	case 8:
		modifierMask = payload[0]
		keys = payload[2:]
		hasModifiers = true
	case 6:
		keys = payload
	default:
		return []Action{unsupported(len(payload))}
	}

	var actions []Action
	if hasModifiers {
		for bit, code := range keymap.ModifierBits {
			down := modifierMask&(1<<uint(bit)) != 0
			_, active := state.modifiers[code]
			switch {
			case down && !active:
				state.modifiers[code] = struct{}{}
				actions = append(actions, pressed(code))
			case !down && active:
				delete(state.modifiers, code)
				actions = append(actions, released(code))
			}
		}
	}

	current := make(map[uint16]struct{}, len(keys))
	var newCodes []uint16
	for _, usage := range keys {
		if usage == 0 {
			continue
		}
		code, ok := keymap.KeyboardUsage(usage)
		if !ok {
			d.log.Debug("unmapped keyboard usage", zap.Uint8("usage", usage))
			actions = append(actions, unknownUsage(uint32(usage)))
			continue
		}
		if _, dup := current[code]; dup {
			continue
		}
		current[code] = struct{}{}
		if _, down := state.pressed[code]; !down {
			newCodes = append(newCodes, code)
		}
	}

	for _, code := range sortedCodes(state.pressed) {
		if _, still := current[code]; still {
			continue
		}
		delete(state.pressed, code)
		actions = append(actions, d.release(code, state.pressTimes))
	}

	now := d.now()
	for _, code := range newCodes {
		state.pressed[code] = struct{}{}
		state.pressTimes[code] = now
		actions = append(actions, pressed(code))
	}
	return actions
}

func (d *Decoder) decodeConsumer(payload []byte, state *SourceState) []Action {
	var usage uint16
	if len(payload) >= 2 {
		usage = uint16(payload[0]) | uint16(payload[1])<<8
	}

	if usage == 0 {
		var actions []Action
		for _, code := range sortedCodes(state.mediaPressed) {
			delete(state.mediaPressed, code)
			actions = append(actions, d.release(code, state.mediaTimes))
		}
		return actions
	}

	code, ok := keymap.ConsumerUsage(usage)
	if !ok {
		d.log.Debug("unmapped consumer usage", zap.Uint16("usage", usage))
		return []Action{unknownUsage(uint32(usage))}
	}
	if _, down := state.mediaPressed[code]; down {
		return nil
	}
	state.mediaPressed[code] = struct{}{}
	state.mediaTimes[code] = d.now()
	return []Action{pressed(code)}
}

func (d *Decoder) decodeSystem(payload []byte, state *SourceState) []Action {
	var mask uint8
	if len(payload) >= 1 {
		mask = payload[0]
	}

	var actions []Action
	for bit, code := range keymap.SystemBits {
		down := mask&(1<<uint(bit)) != 0
		_, active := state.systemPressed[code]
		switch {
		case down && !active:
			state.systemPressed[code] = struct{}{}
			state.systemTimes[code] = d.now()
			actions = append(actions, pressed(code))
		case !down && active:
			delete(state.systemPressed, code)
			actions = append(actions, d.release(code, state.systemTimes))
		}
	}
	return actions
}

func (d *Decoder) decodeMouse(payload []byte, state *SourceState) []Action {
	if len(payload) == 0 {
		return []Action{unsupported(0)}
	}

	var dx, dy, scroll int8
	if len(payload) >= 2 {
		dx = int8(payload[1])
	}
	if len(payload) >= 3 {
		dy = int8(payload[2])
	}

	if abs8(dx) >= deltaNoiseThreshold || abs8(dy) >= deltaNoiseThreshold {
		state.mouse.observe(len(payload))
	}
	effective := state.mouse.effective(len(payload))
	if effective > len(payload) {
		effective = len(payload)
	}
	if effective >= 4 {
		scroll = int8(payload[3])
	}
	if effective < 3 {
		dy = 0
	}
	if effective < 2 {
		dx = 0
	}

	return []Action{{
		Type:    ActionMouseMoved,
		Buttons: payload[0] & 0x07,
		DX:      dx,
		DY:      dy,
		Scroll:  scroll,
	}}
}

// release removes the press timestamp (single-shot) and attaches the hold
// duration when a matching press was recorded.
func (d *Decoder) release(code uint16, pressTimes map[uint16]time.Time) Action {
	pressedAt, ok := pressTimes[code]
	if !ok {
		return released(code)
	}
	delete(pressTimes, code)
	return releasedHeld(code, d.now().Sub(pressedAt))
}

func abs8(v int8) int {
	if v < 0 {
		return int(-int16(v))
	}
	return int(v)
}

func sortedCodes(set map[uint16]struct{}) []uint16 {
	codes := make([]uint16, 0, len(set))
	for code := range set {
		codes = append(codes, code)
	}
	sort.Slice(codes, func(i, j int) bool { return codes[i] < codes[j] })
	return codes
}
