package agent

import (
	"github.com/hidlink/hidlink/internal/blesvc"
	"github.com/hidlink/hidlink/internal/vinput"
)

// Config is the command-line level configuration: where the state lives and
// which files to load.
type Config struct {
	DataDir       string
	BridgeConfig  string
	TriggerConfig string
}

// BridgeConfig is the contents of the bridge configuration file.
type BridgeConfig struct {
	BLE   blesvc.Config `yaml:"ble"`
	Input vinput.Config `yaml:"input"`
}

func defaultBridgeConfig() BridgeConfig {
	return BridgeConfig{
		Input: vinput.DefaultConfig(),
	}
}
