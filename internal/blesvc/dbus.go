package blesvc

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

// BlueZ D-Bus names and the HID-over-GATT UUIDs.
const (
	bluezBus           = "org.bluez"
	adapterIface       = "org.bluez.Adapter1"
	deviceIface        = "org.bluez.Device1"
	gattCharIface      = "org.bluez.GattCharacteristic1"
	propertiesIface    = "org.freedesktop.DBus.Properties"
	objectManagerIface = "org.freedesktop.DBus.ObjectManager"

	hidServiceUUID = "00001812-0000-1000-8000-00805f9b34fb"
	reportMapUUID  = "00002a4b-0000-1000-8000-00805f9b34fb"
	reportUUID     = "00002a4d-0000-1000-8000-00805f9b34fb"
)

type managedObjects = map[dbus.ObjectPath]map[string]map[string]dbus.Variant

func (s *Service) managedObjects() (managedObjects, error) {
	var objects managedObjects
	root := s.conn.Object(bluezBus, "/")
	if err := root.Call(objectManagerIface+".GetManagedObjects", 0).Store(&objects); err != nil {
		return nil, fmt.Errorf("GetManagedObjects failed: %w", err)
	}
	return objects, nil
}

func adapterPath(adapter string) dbus.ObjectPath {
	return dbus.ObjectPath("/org/bluez/" + adapter)
}

// devicePath derives the BlueZ object path for a MAC address on an adapter.
func devicePath(adapter, mac string) dbus.ObjectPath {
	id := strings.ToUpper(strings.ReplaceAll(mac, ":", "_"))
	return dbus.ObjectPath(string(adapterPath(adapter)) + "/dev_" + id)
}

func (s *Service) boolProperty(path dbus.ObjectPath, iface, name string) (bool, error) {
	variant, err := s.conn.Object(bluezBus, path).GetProperty(iface + "." + name)
	if err != nil {
		return false, fmt.Errorf("failed to get %s.%s: %w", iface, name, err)
	}
	value, ok := variant.Value().(bool)
	if !ok {
		return false, fmt.Errorf("property %s.%s is not a bool", iface, name)
	}
	return value, nil
}

func (s *Service) stringProperty(path dbus.ObjectPath, iface, name string) (string, error) {
	variant, err := s.conn.Object(bluezBus, path).GetProperty(iface + "." + name)
	if err != nil {
		return "", fmt.Errorf("failed to get %s.%s: %w", iface, name, err)
	}
	value, _ := variant.Value().(string)
	return value, nil
}

// waitAdapterPowered blocks until the controller reports Powered.
func (s *Service) waitAdapterPowered(ctx context.Context) error {
	path := adapterPath(s.config.Adapter)
	for {
		powered, err := s.boolProperty(path, adapterIface, "Powered")
		if err == nil && powered {
			return nil
		}
		s.log.Info("controller is not ready, waiting", zap.String("adapter", s.config.Adapter))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(2 * time.Second):
		}
	}
}

// findDeviceByName scans for a device whose advertised name contains name,
// preferring already-known devices over a fresh discovery.
func (s *Service) findDeviceByName(ctx context.Context, name string) (string, error) {
	if mac, ok := s.knownDeviceByName(name); ok {
		return mac, nil
	}

	adapter := s.conn.Object(bluezBus, adapterPath(s.config.Adapter))
	if call := adapter.Call(adapterIface+".StartDiscovery", 0); call.Err != nil {
		return "", fmt.Errorf("StartDiscovery failed: %w", call.Err)
	}
	defer adapter.Call(adapterIface+".StopDiscovery", 0)

	deadline := time.Now().Add(s.config.ScanTimeout)
	for time.Now().Before(deadline) {
		if mac, ok := s.knownDeviceByName(name); ok {
			return mac, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("device %q not found within %s", name, s.config.ScanTimeout)
}

func (s *Service) knownDeviceByName(name string) (string, bool) {
	objects, err := s.managedObjects()
	if err != nil {
		return "", false
	}
	for _, props := range objects {
		dev, ok := props[deviceIface]
		if !ok {
			continue
		}
		devName, _ := dev["Name"].Value().(string)
		if devName == "" || !strings.Contains(strings.ToLower(devName), strings.ToLower(name)) {
			continue
		}
		if mac, ok := dev["Address"].Value().(string); ok {
			return mac, true
		}
	}
	return "", false
}

// hidCharacteristics finds the Report Map characteristic and all Report
// characteristics with notify support below the device path. Results are
// sorted by object path so handle numbering is stable across reconnects.
func (s *Service) hidCharacteristics(device dbus.ObjectPath) (reportMap dbus.ObjectPath, reports []dbus.ObjectPath, err error) {
	objects, err := s.managedObjects()
	if err != nil {
		return "", nil, err
	}
	for path, ifaces := range objects {
		char, ok := ifaces[gattCharIface]
		if !ok || !strings.HasPrefix(string(path), string(device)) {
			continue
		}
		uuid, _ := char["UUID"].Value().(string)
		switch strings.ToLower(uuid) {
		case reportMapUUID:
			reportMap = path
		case reportUUID:
			flags, _ := char["Flags"].Value().([]string)
			for _, flag := range flags {
				if flag == "notify" {
					reports = append(reports, path)
					break
				}
			}
		}
	}
	sort.Slice(reports, func(i, j int) bool { return reports[i] < reports[j] })
	return reportMap, reports, nil
}

func (s *Service) readCharacteristic(ctx context.Context, path dbus.ObjectPath) ([]byte, error) {
	var value []byte
	obj := s.conn.Object(bluezBus, path)
	call := obj.CallWithContext(ctx, gattCharIface+".ReadValue", 0, map[string]dbus.Variant{})
	if call.Err != nil {
		return nil, fmt.Errorf("ReadValue failed for %s: %w", path, call.Err)
	}
	if err := call.Store(&value); err != nil {
		return nil, fmt.Errorf("failed to decode characteristic value: %w", err)
	}
	return value, nil
}

// sourceName derives the stable per-handle source identifier from a
// characteristic object path ("…/service001a/char001b" -> "HID-char001b").
func sourceName(path dbus.ObjectPath) string {
	segments := strings.Split(string(path), "/")
	return "HID-" + segments[len(segments)-1]
}
