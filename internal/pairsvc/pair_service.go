// Package pairsvc performs the one-time bonding ceremony with a BLE HID
// device. It registers a NoInputNoOutput agent that auto-accepts pairing
// requests, forgets any stale bond, discovers the device and pairs with it.
package pairsvc

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"
)

const (
	bluezBus          = "org.bluez"
	adapterIface      = "org.bluez.Adapter1"
	deviceIface       = "org.bluez.Device1"
	agentManagerIface = "org.bluez.AgentManager1"
	agentIface        = "org.bluez.Agent1"

	agentPath  = dbus.ObjectPath("/io/hidlink/agent")
	capability = "NoInputNoOutput"
)

type Config struct {
	Adapter     string
	Address     string
	Name        string
	ScanTimeout time.Duration

	// Trust marks the device trusted after bonding. The bridge removes
	// trust again before it connects, so this only matters when another
	// consumer of the device relies on bluetoothd auto-connect.
	Trust bool
}

// agent auto-accepts everything. With the NoInputNoOutput capability BlueZ
// negotiates Just Works pairing, so the confirmation hooks are formalities.
type agent struct {
	log *zap.Logger
}

func (a *agent) Release() *dbus.Error {
	return nil
}

func (a *agent) RequestPinCode(device dbus.ObjectPath) (string, *dbus.Error) {
	a.log.Debug("pin code requested", zap.String("device", string(device)))
	return "0000", nil
}

func (a *agent) DisplayPinCode(device dbus.ObjectPath, pincode string) *dbus.Error {
	return nil
}

func (a *agent) RequestPasskey(device dbus.ObjectPath) (uint32, *dbus.Error) {
	return 0, nil
}

func (a *agent) DisplayPasskey(device dbus.ObjectPath, passkey uint32, entered uint16) *dbus.Error {
	return nil
}

func (a *agent) RequestConfirmation(device dbus.ObjectPath, passkey uint32) *dbus.Error {
	a.log.Info("confirming passkey", zap.Uint32("passkey", passkey))
	return nil
}

func (a *agent) RequestAuthorization(device dbus.ObjectPath) *dbus.Error {
	return nil
}

func (a *agent) AuthorizeService(device dbus.ObjectPath, uuid string) *dbus.Error {
	return nil
}

func (a *agent) Cancel() *dbus.Error {
	return nil
}

// Pair bonds with the device identified by config.Address, or by the first
// discovered device whose name contains config.Name. An existing bond is
// removed first so a device that was re-flashed or factory reset can pair
// again without manual bluetoothctl surgery.
func Pair(ctx context.Context, log *zap.Logger, config Config) error {
	if config.Adapter == "" {
		config.Adapter = "hci0"
	}
	if config.ScanTimeout == 0 {
		config.ScanTimeout = 30 * time.Second
	}
	if config.Address == "" && config.Name == "" {
		return fmt.Errorf("either a device address or a device name is required")
	}

	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()

	if err := conn.Export(&agent{log: log.Named("agent")}, agentPath, agentIface); err != nil {
		return fmt.Errorf("failed to export pairing agent: %w", err)
	}
	manager := conn.Object(bluezBus, "/org/bluez")
	if call := manager.Call(agentManagerIface+".RegisterAgent", 0, agentPath, capability); call.Err != nil {
		return fmt.Errorf("failed to register pairing agent: %w", call.Err)
	}
	defer manager.Call(agentManagerIface+".UnregisterAgent", 0, agentPath)
	if call := manager.Call(agentManagerIface+".RequestDefaultAgent", 0, agentPath); call.Err != nil {
		return fmt.Errorf("failed to become default agent: %w", call.Err)
	}

	adapterPath := dbus.ObjectPath("/org/bluez/" + config.Adapter)
	adapter := conn.Object(bluezBus, adapterPath)
	if err := adapter.SetProperty(adapterIface+".Powered", dbus.MakeVariant(true)); err != nil {
		return fmt.Errorf("failed to power on %s: %w", config.Adapter, err)
	}

	if config.Address != "" {
		removeStaleBond(conn, adapter, adapterPath, config.Address, log)
	}

	devicePath, err := discover(ctx, conn, adapter, adapterPath, config, log)
	if err != nil {
		return err
	}

	device := conn.Object(bluezBus, devicePath)
	log.Info("pairing", zap.String("device", string(devicePath)))
	if call := device.CallWithContext(ctx, deviceIface+".Pair", 0); call.Err != nil {
		return fmt.Errorf("pairing failed: %w", call.Err)
	}
	log.Info("paired")
	if config.Trust {
		if err := device.SetProperty(deviceIface+".Trusted", dbus.MakeVariant(true)); err != nil {
			return fmt.Errorf("failed to trust device: %w", err)
		}
		log.Info("device trusted")
	}
	return nil
}

func removeStaleBond(conn *dbus.Conn, adapter dbus.BusObject, adapterPath dbus.ObjectPath, address string, log *zap.Logger) {
	id := strings.ToUpper(strings.ReplaceAll(address, ":", "_"))
	stale := dbus.ObjectPath(string(adapterPath) + "/dev_" + id)
	obj := conn.Object(bluezBus, stale)
	if _, err := obj.GetProperty(deviceIface + ".Address"); err != nil {
		return
	}
	log.Info("removing stale bond", zap.String("device", string(stale)))
	if call := adapter.Call(adapterIface+".RemoveDevice", 0, stale); call.Err != nil {
		log.Warn("failed to remove stale bond", zap.Error(call.Err))
	}
}

// discover scans until a matching device shows up. Pairing requires the
// device to be actively advertising, so unlike the bridge reconnect path this
// always runs discovery.
func discover(ctx context.Context, conn *dbus.Conn, adapter dbus.BusObject, adapterPath dbus.ObjectPath, config Config, log *zap.Logger) (dbus.ObjectPath, error) {
	if call := adapter.Call(adapterIface+".StartDiscovery", 0); call.Err != nil {
		return "", fmt.Errorf("StartDiscovery failed: %w", call.Err)
	}
	defer adapter.Call(adapterIface+".StopDiscovery", 0)

	log.Info("scanning", zap.Duration("timeout", config.ScanTimeout))
	deadline := time.Now().Add(config.ScanTimeout)
	for time.Now().Before(deadline) {
		if path, ok := findDevice(conn, adapterPath, config); ok {
			return path, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-time.After(500 * time.Millisecond):
		}
	}
	return "", fmt.Errorf("no matching device found within %s", config.ScanTimeout)
}

func findDevice(conn *dbus.Conn, adapterPath dbus.ObjectPath, config Config) (dbus.ObjectPath, bool) {
	var objects map[dbus.ObjectPath]map[string]map[string]dbus.Variant
	root := conn.Object(bluezBus, "/")
	if err := root.Call("org.freedesktop.DBus.ObjectManager.GetManagedObjects", 0).Store(&objects); err != nil {
		return "", false
	}
	for path, ifaces := range objects {
		dev, ok := ifaces[deviceIface]
		if !ok || !strings.HasPrefix(string(path), string(adapterPath)) {
			continue
		}
		address, _ := dev["Address"].Value().(string)
		name, _ := dev["Name"].Value().(string)
		if config.Address != "" && strings.EqualFold(address, config.Address) {
			return path, true
		}
		if config.Address == "" && name != "" &&
			strings.Contains(strings.ToLower(name), strings.ToLower(config.Name)) {
			return path, true
		}
	}
	return "", false
}
