package vinput

import (
	"fmt"
	"sync"

	"github.com/hidlink/hidlink/hidapi/keymap"
	"go.uber.org/zap"
)

// Sink owns the virtual keyboard and mouse. The kernel side is not
// re-entrant, so all writes are serialized behind one mutex; per-source
// ordering is preserved by the callers, interleaving across sources is fine.
type Sink struct {
	log *zap.Logger

	mu       sync.Mutex
	keyboard *device
	mouse    *device
}

type Config struct {
	KeyboardName string `yaml:"keyboardName" json:"keyboardName"`
	MouseName    string `yaml:"mouseName" json:"mouseName"`
}

func DefaultConfig() Config {
	return Config{
		KeyboardName: "hidlink Virtual Keyboard",
		MouseName:    "hidlink Virtual Mouse",
	}
}

func NewSink(log *zap.Logger, config Config) (*Sink, error) {
	keyboard, err := openDeviceRetry(log, config.KeyboardName, setupKeyboard)
	if err != nil {
		return nil, err
	}
	mouse, err := openDeviceRetry(log, config.MouseName, setupMouse)
	if err != nil {
		keyboard.close()
		return nil, err
	}
	s := &Sink{log: log, keyboard: keyboard, mouse: mouse}
	s.logEventNodes()
	return s, nil
}

func setupKeyboard(d *device) error {
	if err := d.ioctl(uiSetEvBit, uintptr(keymap.EvKey)); err != nil {
		return fmt.Errorf("failed to enable EV_KEY: %w", err)
	}
	for _, code := range keymap.KeyboardCodes() {
		if err := d.ioctl(uiSetKeyBit, uintptr(code)); err != nil {
			return fmt.Errorf("failed to enable keycode %d: %w", code, err)
		}
	}
	return nil
}

func setupMouse(d *device) error {
	if err := d.ioctl(uiSetEvBit, uintptr(keymap.EvKey)); err != nil {
		return fmt.Errorf("failed to enable EV_KEY: %w", err)
	}
	for _, code := range []uint16{keymap.BtnLeft, keymap.BtnRight, keymap.BtnMiddle} {
		if err := d.ioctl(uiSetKeyBit, uintptr(code)); err != nil {
			return fmt.Errorf("failed to enable button %d: %w", code, err)
		}
	}
	if err := d.ioctl(uiSetEvBit, uintptr(keymap.EvRel)); err != nil {
		return fmt.Errorf("failed to enable EV_REL: %w", err)
	}
	for _, code := range []uint16{keymap.RelX, keymap.RelY, keymap.RelWheel} {
		if err := d.ioctl(uiSetRelBit, uintptr(code)); err != nil {
			return fmt.Errorf("failed to enable rel axis %d: %w", code, err)
		}
	}
	return nil
}

// InjectKey presses or releases one keycode on the virtual keyboard.
func (s *Sink) InjectKey(code uint16, down bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	value := int32(0)
	if down {
		value = 1
	}
	if err := s.keyboard.emit(keymap.EvKey, code, value); err != nil {
		return err
	}
	return s.keyboard.emit(keymap.EvSyn, keymap.SynReport, 0)
}

// InjectMotion emits one relative motion frame on the virtual mouse.
func (s *Sink) InjectMotion(dx, dy, scroll int8, buttons uint8) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	mouseButtons := []uint16{keymap.BtnLeft, keymap.BtnRight, keymap.BtnMiddle}
	for bit, code := range mouseButtons {
		value := int32(0)
		if buttons&(1<<uint(bit)) != 0 {
			value = 1
		}
		if err := s.mouse.emit(keymap.EvKey, code, value); err != nil {
			return err
		}
	}
	if err := s.mouse.emit(keymap.EvRel, keymap.RelX, int32(dx)); err != nil {
		return err
	}
	if err := s.mouse.emit(keymap.EvRel, keymap.RelY, int32(dy)); err != nil {
		return err
	}
	if scroll != 0 {
		if err := s.mouse.emit(keymap.EvRel, keymap.RelWheel, int32(scroll)); err != nil {
			return err
		}
	}
	return s.mouse.emit(keymap.EvSyn, keymap.SynReport, 0)
}

func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kbErr := s.keyboard.close()
	mouseErr := s.mouse.close()
	if kbErr != nil {
		return kbErr
	}
	return mouseErr
}
