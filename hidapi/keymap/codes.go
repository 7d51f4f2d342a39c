package keymap

// Linux input event types and codes (input-event-codes.h), limited to what
// the bridge can emit through its virtual devices.
const (
	EvSyn uint16 = 0x00
	EvKey uint16 = 0x01
	EvRel uint16 = 0x02

	SynReport uint16 = 0x00

	RelX     uint16 = 0x00
	RelY     uint16 = 0x01
	RelWheel uint16 = 0x08

	BtnLeft   uint16 = 0x110
	BtnRight  uint16 = 0x111
	BtnMiddle uint16 = 0x112
)

const (
	KeyEsc        uint16 = 1
	Key1          uint16 = 2
	Key2          uint16 = 3
	Key3          uint16 = 4
	Key4          uint16 = 5
	Key5          uint16 = 6
	Key6          uint16 = 7
	Key7          uint16 = 8
	Key8          uint16 = 9
	Key9          uint16 = 10
	Key0          uint16 = 11
	KeyMinus      uint16 = 12
	KeyEqual      uint16 = 13
	KeyBackspace  uint16 = 14
	KeyTab        uint16 = 15
	KeyQ          uint16 = 16
	KeyW          uint16 = 17
	KeyE          uint16 = 18
	KeyR          uint16 = 19
	KeyT          uint16 = 20
	KeyY          uint16 = 21
	KeyU          uint16 = 22
	KeyI          uint16 = 23
	KeyO          uint16 = 24
	KeyP          uint16 = 25
	KeyLeftBrace  uint16 = 26
	KeyRightBrace uint16 = 27
	KeyEnter      uint16 = 28
	KeyLeftCtrl   uint16 = 29
	KeyA          uint16 = 30
	KeyS          uint16 = 31
	KeyD          uint16 = 32
	KeyF          uint16 = 33
	KeyG          uint16 = 34
	KeyH          uint16 = 35
	KeyJ          uint16 = 36
	KeyK          uint16 = 37
	KeyL          uint16 = 38
	KeySemicolon  uint16 = 39
	KeyApostrophe uint16 = 40
	KeyGrave      uint16 = 41
	KeyLeftShift  uint16 = 42
	KeyBackslash  uint16 = 43
	KeyZ          uint16 = 44
	KeyX          uint16 = 45
	KeyC          uint16 = 46
	KeyV          uint16 = 47
	KeyB          uint16 = 48
	KeyN          uint16 = 49
	KeyM          uint16 = 50
	KeyComma      uint16 = 51
	KeyDot        uint16 = 52
	KeySlash      uint16 = 53
	KeyRightShift uint16 = 54
	KeyLeftAlt    uint16 = 56
	KeySpace      uint16 = 57
	KeyCapsLock   uint16 = 58
	KeyF1         uint16 = 59
	KeyF2         uint16 = 60
	KeyF3         uint16 = 61
	KeyF4         uint16 = 62
	KeyF5         uint16 = 63
	KeyF6         uint16 = 64
	KeyF7         uint16 = 65
	KeyF8         uint16 = 66
	KeyF9         uint16 = 67
	KeyF10        uint16 = 68
	KeyF11        uint16 = 87
	KeyF12        uint16 = 88
	KeyRightCtrl  uint16 = 97
	KeyRightAlt   uint16 = 100
	KeyHome       uint16 = 102
	KeyUp         uint16 = 103
	KeyPageUp     uint16 = 104
	KeyLeft       uint16 = 105
	KeyRight      uint16 = 106
	KeyEnd        uint16 = 107
	KeyDown       uint16 = 108
	KeyPageDown   uint16 = 109
	KeyInsert     uint16 = 110
	KeyDelete     uint16 = 111
	KeyMute       uint16 = 113
	KeyVolumeDown uint16 = 114
	KeyVolumeUp   uint16 = 115
	KeyPower      uint16 = 116
	KeyPause      uint16 = 119
	KeyLeftMeta   uint16 = 125
	KeyRightMeta  uint16 = 126
	KeyStop       uint16 = 128
	KeyCalc       uint16 = 140
	KeySleep      uint16 = 142
	KeyWakeup     uint16 = 143
	KeyFile       uint16 = 144
	KeyMail       uint16 = 155
	KeyBookmarks  uint16 = 156
	KeyBack       uint16 = 158
	KeyForward    uint16 = 159
	KeyEjectCD    uint16 = 161
	KeyNextSong   uint16 = 163
	KeyPlayPause  uint16 = 164
	KeyPrevSong   uint16 = 165
	KeyRecord     uint16 = 167
	KeyRewind     uint16 = 168
	KeyConfig     uint16 = 171
	KeyHomepage   uint16 = 172
	KeyRefresh    uint16 = 173
	KeyPlay       uint16 = 207
	KeyFastFwd    uint16 = 208
)

// keyNames is the canonical evdev name for every keycode the bridge knows.
// Trigger rule files use these names.
var keyNames = map[uint16]string{
	KeyEsc:        "KEY_ESC",
	Key1:          "KEY_1",
	Key2:          "KEY_2",
	Key3:          "KEY_3",
	Key4:          "KEY_4",
	Key5:          "KEY_5",
	Key6:          "KEY_6",
	Key7:          "KEY_7",
	Key8:          "KEY_8",
	Key9:          "KEY_9",
	Key0:          "KEY_0",
	KeyMinus:      "KEY_MINUS",
	KeyEqual:      "KEY_EQUAL",
	KeyBackspace:  "KEY_BACKSPACE",
	KeyTab:        "KEY_TAB",
	KeyQ:          "KEY_Q",
	KeyW:          "KEY_W",
	KeyE:          "KEY_E",
	KeyR:          "KEY_R",
	KeyT:          "KEY_T",
	KeyY:          "KEY_Y",
	KeyU:          "KEY_U",
	KeyI:          "KEY_I",
	KeyO:          "KEY_O",
	KeyP:          "KEY_P",
	KeyLeftBrace:  "KEY_LEFTBRACE",
	KeyRightBrace: "KEY_RIGHTBRACE",
	KeyEnter:      "KEY_ENTER",
	KeyLeftCtrl:   "KEY_LEFTCTRL",
	KeyA:          "KEY_A",
	KeyS:          "KEY_S",
	KeyD:          "KEY_D",
	KeyF:          "KEY_F",
	KeyG:          "KEY_G",
	KeyH:          "KEY_H",
	KeyJ:          "KEY_J",
	KeyK:          "KEY_K",
	KeyL:          "KEY_L",
	KeySemicolon:  "KEY_SEMICOLON",
	KeyApostrophe: "KEY_APOSTROPHE",
	KeyGrave:      "KEY_GRAVE",
	KeyLeftShift:  "KEY_LEFTSHIFT",
	KeyBackslash:  "KEY_BACKSLASH",
	KeyZ:          "KEY_Z",
	KeyX:          "KEY_X",
	KeyC:          "KEY_C",
	KeyV:          "KEY_V",
	KeyB:          "KEY_B",
	KeyN:          "KEY_N",
	KeyM:          "KEY_M",
	KeyComma:      "KEY_COMMA",
	KeyDot:        "KEY_DOT",
	KeySlash:      "KEY_SLASH",
	KeyRightShift: "KEY_RIGHTSHIFT",
	KeyLeftAlt:    "KEY_LEFTALT",
	KeySpace:      "KEY_SPACE",
	KeyCapsLock:   "KEY_CAPSLOCK",
	KeyF1:         "KEY_F1",
	KeyF2:         "KEY_F2",
	KeyF3:         "KEY_F3",
	KeyF4:         "KEY_F4",
	KeyF5:         "KEY_F5",
	KeyF6:         "KEY_F6",
	KeyF7:         "KEY_F7",
	KeyF8:         "KEY_F8",
	KeyF9:         "KEY_F9",
	KeyF10:        "KEY_F10",
	KeyF11:        "KEY_F11",
	KeyF12:        "KEY_F12",
	KeyRightCtrl:  "KEY_RIGHTCTRL",
	KeyRightAlt:   "KEY_RIGHTALT",
	KeyHome:       "KEY_HOME",
	KeyUp:         "KEY_UP",
	KeyPageUp:     "KEY_PAGEUP",
	KeyLeft:       "KEY_LEFT",
	KeyRight:      "KEY_RIGHT",
	KeyEnd:        "KEY_END",
	KeyDown:       "KEY_DOWN",
	KeyPageDown:   "KEY_PAGEDOWN",
	KeyInsert:     "KEY_INSERT",
	KeyDelete:     "KEY_DELETE",
	KeyMute:       "KEY_MUTE",
	KeyVolumeDown: "KEY_VOLUMEDOWN",
	KeyVolumeUp:   "KEY_VOLUMEUP",
	KeyPower:      "KEY_POWER",
	KeyPause:      "KEY_PAUSE",
	KeyLeftMeta:   "KEY_LEFTMETA",
	KeyRightMeta:  "KEY_RIGHTMETA",
	KeyStop:       "KEY_STOP",
	KeyCalc:       "KEY_CALC",
	KeySleep:      "KEY_SLEEP",
	KeyWakeup:     "KEY_WAKEUP",
	KeyFile:       "KEY_FILE",
	KeyMail:       "KEY_MAIL",
	KeyBookmarks:  "KEY_BOOKMARKS",
	KeyBack:       "KEY_BACK",
	KeyForward:    "KEY_FORWARD",
	KeyEjectCD:    "KEY_EJECTCD",
	KeyNextSong:   "KEY_NEXTSONG",
	KeyPlayPause:  "KEY_PLAYPAUSE",
	KeyPrevSong:   "KEY_PREVIOUSSONG",
	KeyRecord:     "KEY_RECORD",
	KeyRewind:     "KEY_REWIND",
	KeyConfig:     "KEY_CONFIG",
	KeyHomepage:   "KEY_HOMEPAGE",
	KeyRefresh:    "KEY_REFRESH",
	KeyPlay:       "KEY_PLAY",
	KeyFastFwd:    "KEY_FASTFORWARD",
}
