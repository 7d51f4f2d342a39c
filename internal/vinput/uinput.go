// Package vinput injects decoded key and motion events into the kernel via
// /dev/uinput virtual devices.
package vinput

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"time"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

const uinputPath = "/dev/uinput"

// uinput ioctl requests (linux/uinput.h).
const (
	uiDevCreate  = 0x5501
	uiDevDestroy = 0x5502
	uiSetEvBit   = 0x40045564
	uiSetKeyBit  = 0x40045565
	uiSetRelBit  = 0x40045566
)

const maxNameSize = 80

type inputID struct {
	Bustype uint16
	Vendor  uint16
	Product uint16
	Version uint16
}

// userDev mirrors struct uinput_user_dev.
type userDev struct {
	Name       [maxNameSize]byte
	ID         inputID
	EffectsMax uint32
	AbsMax     [64]int32
	AbsMin     [64]int32
	AbsFuzz    [64]int32
	AbsFlat    [64]int32
}

// inputEvent mirrors struct input_event on 64-bit platforms.
type inputEvent struct {
	Sec   int64
	Usec  int64
	Type  uint16
	Code  uint16
	Value int32
}

const busBluetooth = 0x05

type device struct {
	f    *os.File
	name string
}

func (d *device) ioctl(request uintptr, value uintptr) error {
	_, _, errno := unix.Syscall(unix.SYS_IOCTL, d.f.Fd(), request, value)
	if errno != 0 {
		return errno
	}
	return nil
}

func openDevice(name string, setup func(*device) error) (*device, error) {
	f, err := os.OpenFile(uinputPath, os.O_WRONLY|unix.O_NONBLOCK, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", uinputPath, err)
	}
	dev := &device{f: f, name: name}
	if err := setup(dev); err != nil {
		f.Close()
		return nil, err
	}

	var ud userDev
	copy(ud.Name[:], name)
	ud.ID = inputID{Bustype: busBluetooth, Vendor: 0x1d6b, Product: 0x0342, Version: 1}
	buf := bytes.NewBuffer(nil)
	if err := binary.Write(buf, binary.LittleEndian, &ud); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to encode uinput device: %w", err)
	}
	if _, err := f.Write(buf.Bytes()); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to write uinput device: %w", err)
	}
	if err := dev.ioctl(uiDevCreate, 0); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create uinput device: %w", err)
	}
	return dev, nil
}

// openDeviceRetry retries transient creation errors with capped backoff;
// uinput nodes can be briefly busy right after a previous bridge exited.
func openDeviceRetry(log *zap.Logger, name string, setup func(*device) error) (*device, error) {
	const (
		maxRetries   = 5
		initialDelay = 500 * time.Millisecond
		maxDelay     = 5 * time.Second
	)
	delay := initialDelay
	var lastErr error
	for attempt := 0; attempt < maxRetries; attempt++ {
		dev, err := openDevice(name, setup)
		if err == nil {
			if attempt > 0 {
				log.Info("created uinput device after retries",
					zap.String("name", name),
					zap.Int("attempts", attempt+1),
				)
			}
			return dev, nil
		}
		lastErr = err
		log.Warn("failed to create uinput device, retrying",
			zap.String("name", name),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)
		time.Sleep(delay)
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return nil, fmt.Errorf("failed to create uinput device %q: %w", name, lastErr)
}

func (d *device) emit(eventType, code uint16, value int32) error {
	ev := inputEvent{Type: eventType, Code: code, Value: value}
	b := (*[unsafe.Sizeof(ev)]byte)(unsafe.Pointer(&ev))[:]
	if _, err := d.f.Write(b); err != nil {
		return fmt.Errorf("failed to write input event to %s: %w", d.name, err)
	}
	return nil
}

func (d *device) close() error {
	if err := d.ioctl(uiDevDestroy, 0); err != nil {
		d.f.Close()
		return fmt.Errorf("failed to destroy uinput device %s: %w", d.name, err)
	}
	return d.f.Close()
}
