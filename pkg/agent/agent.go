package agent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dgraph-io/badger"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"github.com/hidlink/hidlink/internal/blesvc"
	"github.com/hidlink/hidlink/internal/bridgesvc"
	"github.com/hidlink/hidlink/internal/configsvc"
	"github.com/hidlink/hidlink/internal/pairsvc"
	"github.com/hidlink/hidlink/internal/triggersvc"
	"github.com/hidlink/hidlink/internal/vinput"
)

type Agent struct {
	config Config
	log    *zap.Logger

	db        *badger.DB
	configSvc *configsvc.Service
	engine    *triggersvc.Engine
}

func NewAgent(config Config) (*Agent, error) {
	loggerConfig := zap.NewDevelopmentConfig()
	loggerConfig.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000000000")
	loggerConfig.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	logger, err := loggerConfig.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	dbOptions := badger.DefaultOptions(filepath.Join(config.DataDir, "db"))
	dbOptions.Logger = &badgerLogger{l: logger.Named("badger")}

	db, err := badger.Open(dbOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open badger db: %w", err)
	}

	return &Agent{
		config:    config,
		log:       logger,
		db:        db,
		configSvc: configsvc.New(logger.Named("config")),
		engine:    triggersvc.NewEngine(logger.Named("triggers"), nil, triggersvc.NewShellRunner(logger.Named("runner"))),
	}, nil
}

func (a *Agent) Close() error {
	return a.db.Close()
}

type badgerLogger struct {
	l *zap.Logger
}

func (l badgerLogger) Errorf(msg string, args ...any) {
	l.l.Error(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Warningf(msg string, args ...any) {
	l.l.Warn(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Infof(msg string, args ...any) {
	l.l.Info(fmt.Sprintf(msg, args...))
}

func (l badgerLogger) Debugf(msg string, args ...any) {
	l.l.Debug(fmt.Sprintf(msg, args...))
}

// Run starts the bridge and blocks until the context is cancelled. The
// trigger table reloads live; changes to the bridge configuration file are
// picked up on the next restart.
func (a *Agent) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return a.configSvc.Start(groupCtx)
	})
	select {
	case <-groupCtx.Done():
		return group.Wait()
	case <-a.configSvc.Ready():
	}

	bridgeConfig, err := configsvc.Register(a.configSvc, a.config.BridgeConfig, defaultBridgeConfig(),
		func(config BridgeConfig, err error) {
			if err != nil {
				a.log.Warn("bridge config reload failed", zap.Error(err))
				return
			}
			a.log.Warn("bridge config changed, restart to apply")
		})
	if err != nil {
		return fmt.Errorf("failed to load bridge config %s: %w", a.config.BridgeConfig, err)
	}
	if bridgeConfig.BLE.DeviceAddress == "" && bridgeConfig.BLE.DeviceName == "" {
		return fmt.Errorf("bridge config must set ble.deviceAddress or ble.deviceName")
	}

	if err := a.registerTriggerFile(); err != nil {
		return err
	}

	sink, err := vinput.NewSink(a.log.Named("vinput"), bridgeConfig.Input)
	if err != nil {
		return fmt.Errorf("failed to create virtual input devices: %w", err)
	}
	defer sink.Close()

	bleSvc := blesvc.New(a.db, a.log.Named("ble"), time.Now, bridgeConfig.BLE,
		blesvc.WithBackoffTimeout(3*time.Second))
	bridgeSvc := bridgesvc.New(a.log.Named("bridge"), bleSvc, a.engine, sink, time.Now)

	group.Go(func() error {
		return bleSvc.Start(groupCtx)
	})
	group.Go(func() error {
		return bridgeSvc.Start(groupCtx)
	})

	if err := group.Wait(); err != nil {
		return fmt.Errorf("agent failed: %w", err)
	}
	return nil
}

func (a *Agent) registerTriggerFile() error {
	contents, err := a.configSvc.RegisterFile(a.config.TriggerConfig, func(contents []byte, err error) {
		if err != nil {
			a.log.Warn("trigger table reload failed", zap.Error(err))
			return
		}
		rules, err := triggersvc.ParseRules(bytes.NewReader(contents), a.log.Named("triggers"))
		if err != nil {
			a.log.Warn("trigger table reload failed", zap.Error(err))
			return
		}
		a.engine.SetRules(rules)
		a.log.Info("trigger table reloaded", zap.Int("rules", len(rules)))
	})
	if os.IsNotExist(err) {
		a.log.Warn("trigger table does not exist yet", zap.String("path", a.config.TriggerConfig))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to load trigger table %s: %w", a.config.TriggerConfig, err)
	}
	rules, err := triggersvc.ParseRules(bytes.NewReader(contents), a.log.Named("triggers"))
	if err != nil {
		return fmt.Errorf("failed to parse trigger table %s: %w", a.config.TriggerConfig, err)
	}
	a.engine.SetRules(rules)
	a.log.Info("trigger table loaded", zap.Int("rules", len(rules)))
	return nil
}

// Pair runs the pairing ceremony with the adapter and device settings taken
// from the bridge configuration unless overridden.
func (a *Agent) Pair(ctx context.Context, config pairsvc.Config) error {
	return pairsvc.Pair(ctx, a.log.Named("pair"), config)
}

func (a *Agent) ListDevices() ([]blesvc.Device, error) {
	return blesvc.ListDevices(a.db)
}

func (a *Agent) GetDevice(address string) (blesvc.Device, error) {
	return blesvc.GetDevice(a.db, address)
}
