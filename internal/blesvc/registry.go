package blesvc

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger"
)

// Device is the persisted record of a remote HID device the bridge has
// connected to at least once.
type Device struct {
	Address       string    `json:"address"`
	Name          string    `json:"name"`
	ReportMap     []byte    `json:"reportMap,omitempty"`
	FirstSeenAt   time.Time `json:"firstSeenAt"`
	LastSeenAt    time.Time `json:"lastSeenAt"`
	ConnectCount  int       `json:"connectCount"`
	ReportHandles []string  `json:"reportHandles,omitempty"`
}

var ErrDeviceNotFound = errors.New("device not found")

func deviceKey(address string) []byte {
	return []byte("ble/devices/" + address)
}

// recordDevice upserts the device record after a successful connection.
func (s *Service) recordDevice(address, name string, reportMap []byte, handles []string) (Device, error) {
	var dev Device
	now := s.now()
	err := s.db.Update(func(txn *badger.Txn) error {
		key := deviceKey(address)
		item, err := txn.Get(key)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			dev = Device{FirstSeenAt: now}
		case err != nil:
			return err
		default:
			err = item.Value(func(val []byte) error {
				return json.Unmarshal(val, &dev)
			})
			if err != nil {
				return fmt.Errorf("failed to unmarshal device: %w", err)
			}
		}
		dev.Address = address
		dev.Name = name
		if len(reportMap) > 0 {
			dev.ReportMap = reportMap
		}
		dev.ReportHandles = handles
		if dev.FirstSeenAt.IsZero() {
			dev.FirstSeenAt = now
		}
		dev.LastSeenAt = now
		dev.ConnectCount++
		b, err := json.Marshal(dev)
		if err != nil {
			return fmt.Errorf("failed to marshal device: %w", err)
		}
		return txn.Set(key, b)
	})
	if err != nil {
		return Device{}, fmt.Errorf("failed to record device: %w", err)
	}
	return dev, nil
}

func ListDevices(db *badger.DB) ([]Device, error) {
	var devices []Device
	err := db.View(func(txn *badger.Txn) error {
		iter := txn.NewIterator(badger.DefaultIteratorOptions)
		defer iter.Close()
		prefix := []byte("ble/devices/")
		for iter.Seek(prefix); iter.ValidForPrefix(prefix); iter.Next() {
			item := iter.Item()
			var dev Device
			err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &dev)
			})
			if err != nil {
				return err
			}
			devices = append(devices, dev)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list devices: %w", err)
	}
	return devices, nil
}

func GetDevice(db *badger.DB, address string) (Device, error) {
	var dev Device
	err := db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(deviceKey(address))
		if errors.Is(err, badger.ErrKeyNotFound) {
			return ErrDeviceNotFound
		}
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &dev)
		})
	})
	if err != nil {
		return Device{}, err
	}
	return dev, nil
}
