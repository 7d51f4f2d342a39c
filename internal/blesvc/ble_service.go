// Package blesvc maintains the connection to a BLE HID device through BlueZ
// and feeds notification payloads into the decode pipeline. It owns the
// reconnect loop: a link loss never terminates the agent, the service keeps
// retrying until the device comes back or the context is cancelled.
package blesvc

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger"
	"github.com/godbus/dbus/v5"
	"go.uber.org/zap"

	"github.com/hidlink/hidlink/pkg/bus"
)

type EventType int

const (
	DeviceConnected EventType = iota
	DeviceDisconnected
)

// Event announces connection state changes. ReportMap carries the raw HID
// Report Descriptor read on connect and may be empty when the read failed.
type Event struct {
	Type      EventType
	Address   string
	Name      string
	ReportMap []byte
}

// Report is a single input report notification. Source identifies the GATT
// characteristic it arrived on and stays stable for the whole connection.
type Report struct {
	Source  string
	Payload []byte
}

type EventBus = bus.Bus[string, Event]
type ReportBus = bus.Bus[string, Report]

type Config struct {
	Adapter        string        `yaml:"adapter"`
	DeviceAddress  string        `yaml:"deviceAddress"`
	DeviceName     string        `yaml:"deviceName"`
	ScanTimeout    time.Duration `yaml:"scanTimeout"`
	ConnectTimeout time.Duration `yaml:"connectTimeout"`
}

func (c *Config) withDefaults() {
	if c.Adapter == "" {
		c.Adapter = "hci0"
	}
	if c.ScanTimeout == 0 {
		c.ScanTimeout = 15 * time.Second
	}
	if c.ConnectTimeout == 0 {
		c.ConnectTimeout = 30 * time.Second
	}
}

type Option func(*options)

type options struct {
	backoffTimeout time.Duration
	resolveTimeout time.Duration
}

var defaultOptions = options{
	backoffTimeout: 5 * time.Second,
	resolveTimeout: 10 * time.Second,
}

func WithBackoffTimeout(timeout time.Duration) Option {
	return func(o *options) {
		o.backoffTimeout = timeout
	}
}

type Service struct {
	log     *zap.Logger
	config  Config
	options options
	db      *badger.DB
	now     func() time.Time

	conn    *dbus.Conn
	events  *EventBus
	reports *ReportBus
	ready   chan struct{}
}

func New(db *badger.DB, log *zap.Logger, now func() time.Time, config Config, opts ...Option) *Service {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	config.withDefaults()
	return &Service{
		log:     log,
		config:  config,
		options: options,
		db:      db,
		now:     now,
		events:  bus.NewBus[string, Event](log.Named("events")),
		reports: bus.NewBus[string, Report](log.Named("reports")),
		ready:   make(chan struct{}),
	}
}

func (s *Service) Events() *EventBus   { return s.events }
func (s *Service) Reports() *ReportBus { return s.reports }

func (s *Service) Ready() <-chan struct{} {
	return s.ready
}

// Start connects to the system bus and runs the reconnect loop until ctx is
// cancelled. It is meant to be run in an errgroup.
func (s *Service) Start(ctx context.Context) error {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return fmt.Errorf("failed to connect to system bus: %w", err)
	}
	defer conn.Close()
	s.conn = conn

	if err := s.events.Start(ctx); err != nil {
		return err
	}
	if err := s.reports.Start(ctx); err != nil {
		return err
	}
	close(s.ready)

	// SIGHUP drops the current link and forces a fresh connect cycle
	// without restarting the agent.
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for {
		attemptCtx, cancel := context.WithCancel(ctx)
		attemptDone := make(chan struct{})
		go func() {
			select {
			case <-hup:
				s.log.Info("received SIGHUP, resetting link")
				cancel()
			case <-attemptDone:
			}
		}()
		err := s.runOnce(attemptCtx)
		close(attemptDone)
		cancel()
		if ctx.Err() != nil {
			return nil
		}
		if err != nil {
			s.log.Warn("connection attempt failed", zap.Error(err))
		}
		s.log.Info("reconnecting", zap.Duration("backoff", s.options.backoffTimeout))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(s.options.backoffTimeout):
		}
	}
}

func (s *Service) runOnce(ctx context.Context) error {
	if err := s.waitAdapterPowered(ctx); err != nil {
		return err
	}
	address := s.config.DeviceAddress
	if address == "" {
		found, err := s.findDeviceByName(ctx, s.config.DeviceName)
		if err != nil {
			return err
		}
		address = found
	}
	path := devicePath(s.config.Adapter, address)
	s.prepareDevice(path)
	return s.session(ctx, address, path)
}

// prepareDevice brings a possibly stale BlueZ device object into a state a
// fresh connection can succeed from. Failures are logged and ignored, BlueZ
// returns errors here for devices it has never seen.
func (s *Service) prepareDevice(path dbus.ObjectPath) {
	dev := s.conn.Object(bluezBus, path)
	if connected, err := s.boolProperty(path, deviceIface, "Connected"); err == nil && connected {
		s.log.Debug("device still marked connected, disconnecting", zap.String("path", string(path)))
		if call := dev.Call(deviceIface+".Disconnect", 0); call.Err != nil {
			s.log.Debug("disconnect failed", zap.Error(call.Err))
		}
	}
	paired, pairedErr := s.boolProperty(path, deviceIface, "Paired")
	bonded, bondedErr := s.boolProperty(path, deviceIface, "Bonded")
	if pairedErr == nil && bondedErr == nil && paired && !bonded {
		s.log.Warn("device is paired but not bonded, re-pairing is recommended")
	}
	// Trust makes bluetoothd auto-connect on its own and race our connect
	// loop, so it is removed here.
	if trusted, err := s.boolProperty(path, deviceIface, "Trusted"); err == nil && trusted {
		s.log.Debug("removing trust to prevent auto-connect")
		if err := dev.SetProperty(deviceIface+".Trusted", dbus.MakeVariant(false)); err != nil {
			s.log.Debug("failed to untrust device", zap.Error(err))
		}
	}
}

var errLinkLoss = errors.New("link to device lost")

// session performs one full connect cycle: connect, wait for GATT service
// resolution, read the Report Map, subscribe to every Report characteristic
// and pump notifications until the link drops or ctx is cancelled.
func (s *Service) session(ctx context.Context, address string, path dbus.ObjectPath) error {
	dev := s.conn.Object(bluezBus, path)

	connectCtx, cancel := context.WithTimeout(ctx, s.config.ConnectTimeout)
	call := dev.CallWithContext(connectCtx, deviceIface+".Connect", 0)
	cancel()
	if call.Err != nil {
		return fmt.Errorf("failed to connect to %s: %w", address, call.Err)
	}
	s.log.Info("connected", zap.String("address", address))

	if err := s.waitServicesResolved(ctx, path); err != nil {
		s.disconnect(dev)
		return err
	}

	reportMapPath, reportPaths, err := s.hidCharacteristics(path)
	if err != nil {
		s.disconnect(dev)
		return err
	}
	if len(reportPaths) == 0 {
		s.disconnect(dev)
		return fmt.Errorf("device %s exposes no notifiable HID report characteristics", address)
	}

	var reportMap []byte
	if reportMapPath == "" {
		s.log.Warn("device exposes no report map characteristic")
	} else if reportMap, err = s.readCharacteristic(ctx, reportMapPath); err != nil {
		s.log.Warn("failed to read report map", zap.Error(err))
	}

	name, _ := s.stringProperty(path, deviceIface, "Name")
	sources := make(map[dbus.ObjectPath]string, len(reportPaths))
	handles := make([]string, 0, len(reportPaths))
	for _, p := range reportPaths {
		sources[p] = sourceName(p)
		handles = append(handles, sourceName(p))
	}
	if _, err := s.recordDevice(address, name, reportMap, handles); err != nil {
		s.log.Warn("failed to persist device record", zap.Error(err))
	}

	sigCh := make(chan *dbus.Signal, 64)
	s.conn.Signal(sigCh)
	matched := s.addSignalMatches(path, reportPaths)
	defer func() {
		s.removeSignalMatches(matched)
		s.conn.RemoveSignal(sigCh)
	}()

	for _, p := range reportPaths {
		obj := s.conn.Object(bluezBus, p)
		if call := obj.Call(gattCharIface+".StartNotify", 0); call.Err != nil {
			s.log.Warn("failed to enable notifications",
				zap.String("source", sources[p]), zap.Error(call.Err))
			delete(sources, p)
		}
	}
	if len(sources) == 0 {
		s.disconnect(dev)
		return fmt.Errorf("failed to enable notifications on any report characteristic")
	}
	s.log.Info("subscribed to input reports",
		zap.String("device", name), zap.Int("characteristics", len(sources)))

	s.events.Publish(ctx, address, Event{
		Type:      DeviceConnected,
		Address:   address,
		Name:      name,
		ReportMap: reportMap,
	})
	defer s.events.Publish(context.WithoutCancel(ctx), address, Event{
		Type:    DeviceDisconnected,
		Address: address,
	})

	err = s.pump(ctx, path, sources, sigCh)
	if errors.Is(err, context.Canceled) {
		s.disconnect(dev)
		return nil
	}
	return err
}

func (s *Service) pump(ctx context.Context, device dbus.ObjectPath, sources map[dbus.ObjectPath]string, sigCh chan *dbus.Signal) error {
	publishers := make(map[dbus.ObjectPath]bus.Publisher[Report], len(sources))
	for p, name := range sources {
		publishers[p] = s.reports.CreatePublisher(name)
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case sig, ok := <-sigCh:
			if !ok {
				return fmt.Errorf("system bus connection closed")
			}
			if sig.Name != propertiesIface+".PropertiesChanged" || len(sig.Body) < 2 {
				continue
			}
			changed, ok := sig.Body[1].(map[string]dbus.Variant)
			if !ok {
				continue
			}
			if sig.Path == device {
				if connected, ok := changed["Connected"].Value().(bool); ok && !connected {
					return errLinkLoss
				}
				continue
			}
			source, ok := sources[sig.Path]
			if !ok {
				continue
			}
			payload, ok := changed["Value"].Value().([]byte)
			if !ok {
				continue
			}
			publishers[sig.Path](ctx, Report{Source: source, Payload: payload})
		}
	}
}

func (s *Service) waitServicesResolved(ctx context.Context, path dbus.ObjectPath) error {
	deadline := time.Now().Add(s.options.resolveTimeout)
	for {
		resolved, err := s.boolProperty(path, deviceIface, "ServicesResolved")
		if err == nil && resolved {
			return nil
		}
		if time.Now().After(deadline) {
			return fmt.Errorf("GATT services were not resolved within %s", s.options.resolveTimeout)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func (s *Service) addSignalMatches(device dbus.ObjectPath, chars []dbus.ObjectPath) [][]dbus.MatchOption {
	paths := append([]dbus.ObjectPath{device}, chars...)
	matched := make([][]dbus.MatchOption, 0, len(paths))
	for _, p := range paths {
		opts := []dbus.MatchOption{
			dbus.WithMatchInterface(propertiesIface),
			dbus.WithMatchMember("PropertiesChanged"),
			dbus.WithMatchObjectPath(p),
		}
		if err := s.conn.AddMatchSignal(opts...); err != nil {
			s.log.Warn("failed to add signal match", zap.String("path", string(p)), zap.Error(err))
			continue
		}
		matched = append(matched, opts)
	}
	return matched
}

func (s *Service) removeSignalMatches(matched [][]dbus.MatchOption) {
	for _, opts := range matched {
		if err := s.conn.RemoveMatchSignal(opts...); err != nil {
			s.log.Debug("failed to remove signal match", zap.Error(err))
		}
	}
}

func (s *Service) disconnect(dev dbus.BusObject) {
	if call := dev.Call(deviceIface+".Disconnect", 0); call.Err != nil {
		s.log.Debug("disconnect failed", zap.Error(call.Err))
	}
}
