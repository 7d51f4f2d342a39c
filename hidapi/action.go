// Package hidapi is the protocol core of the bridge: it resolves raw GATT
// notification payloads against parsed report definitions and decodes them
// into key, button and motion state transitions.
package hidapi

import (
	"fmt"
	"time"

	"github.com/hidlink/hidlink/hidapi/keymap"
)

type ActionType uint8

const (
	ActionKeyPressed ActionType = iota
	ActionKeyReleased
	ActionMouseMoved
	ActionUnknownUsage
	ActionUnsupported
)

// Action is one semantic effect decoded from a report. Key actions carry an
// evdev keycode; a release that had a matching press also carries how long
// the key was held. Mouse motion is stateless per event.
type Action struct {
	Type ActionType

	Code    uint16
	Held    time.Duration
	HasHold bool

	Usage uint32

	Buttons uint8
	DX      int8
	DY      int8
	Scroll  int8

	Length int
}

func pressed(code uint16) Action {
	return Action{Type: ActionKeyPressed, Code: code}
}

func released(code uint16) Action {
	return Action{Type: ActionKeyReleased, Code: code}
}

func releasedHeld(code uint16, held time.Duration) Action {
	return Action{Type: ActionKeyReleased, Code: code, Held: held, HasHold: true}
}

func unknownUsage(usage uint32) Action {
	return Action{Type: ActionUnknownUsage, Usage: usage}
}

func unsupported(length int) Action {
	return Action{Type: ActionUnsupported, Length: length}
}

func (a Action) String() string {
	switch a.Type {
	case ActionKeyPressed:
		return keymap.KeyName(a.Code) + " Pressed"
	case ActionKeyReleased:
		if a.HasHold {
			return fmt.Sprintf("%s Released after %s", keymap.KeyName(a.Code), a.Held)
		}
		return keymap.KeyName(a.Code) + " Released"
	case ActionMouseMoved:
		return fmt.Sprintf("Mouse buttons=%02x x=%d y=%d scroll=%d", a.Buttons, a.DX, a.DY, a.Scroll)
	case ActionUnknownUsage:
		return fmt.Sprintf("Unknown usage 0x%x", a.Usage)
	case ActionUnsupported:
		return fmt.Sprintf("Unsupported report length %d", a.Length)
	default:
		return "(empty)"
	}
}
