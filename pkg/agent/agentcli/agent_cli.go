// Package agentcli is the command-line surface of the bridge daemon.
package agentcli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/hidlink/hidlink/hidapi/hiddesc"
	"github.com/hidlink/hidlink/internal/pairsvc"
	"github.com/hidlink/hidlink/pkg/agent"
)

func Main(ctx context.Context, args []string, in io.Reader, out, errOut io.Writer) error {
	dir, err := os.UserConfigDir()
	if err != nil {
		return err
	}
	cmd := NewRootCmd(filepath.Join(dir, "hidlink"))
	cmd.SetArgs(args)
	cmd.SetIn(in)
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	return cmd.ExecuteContext(ctx)
}

type agentProvider func() *agent.Agent

func NewRootCmd(configDir string) *cobra.Command {
	cfg := agent.Config{
		DataDir:       filepath.Join(configDir, "data"),
		BridgeConfig:  filepath.Join(configDir, "bridge.yml"),
		TriggerConfig: filepath.Join(configDir, "triggers.conf"),
	}
	rootCmd := &cobra.Command{
		Use:   "hidlink",
		Short: "BLE HID bridge",
		Long:  `hidlink bridges a BLE HID device into local virtual input devices and dispatches trigger commands on key releases.`,
	}
	var a *agent.Agent
	agentProvider := func() *agent.Agent {
		return a
	}
	rootCmd.PersistentFlags().StringVar(&cfg.DataDir, "data-dir", cfg.DataDir, "data directory")
	rootCmd.PersistentFlags().StringVar(&cfg.BridgeConfig, "bridge-config", cfg.BridgeConfig, "bridge config file")
	rootCmd.PersistentFlags().StringVar(&cfg.TriggerConfig, "trigger-config", cfg.TriggerConfig, "trigger table file")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		var err error
		a, err = agent.NewAgent(cfg)
		return err
	}
	rootCmd.PersistentPostRunE = func(cmd *cobra.Command, args []string) error {
		return a.Close()
	}
	rootCmd.AddCommand(NewRun(agentProvider))
	rootCmd.AddCommand(NewPair(agentProvider))
	rootCmd.AddCommand(NewListDevices(agentProvider))
	rootCmd.AddCommand(NewDecodeDescriptor(agentProvider))
	return rootCmd
}

func NewRun(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the bridge daemon",
		Long:  `Connect to the configured BLE HID device and bridge its input reports until interrupted.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return agent().Run(cmd.Context())
		},
	}
}

func NewPair(agent agentProvider) *cobra.Command {
	var (
		adapter     string
		address     string
		name        string
		scanTimeout time.Duration
		trust       bool
	)
	cmd := &cobra.Command{
		Use:   "pair",
		Short: "Pair with a BLE HID device",
		Long:  `Discover the device, remove any stale bond and pair with it using a Just Works agent. Stop the bridge daemon first.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return agent().Pair(cmd.Context(), pairsvc.Config{
				Adapter:     adapter,
				Address:     address,
				Name:        name,
				ScanTimeout: scanTimeout,
				Trust:       trust,
			})
		},
	}
	cmd.Flags().StringVar(&adapter, "adapter", "hci0", "bluetooth adapter")
	cmd.Flags().StringVar(&address, "address", "", "device MAC address")
	cmd.Flags().StringVar(&name, "name", "", "device name substring")
	cmd.Flags().DurationVar(&scanTimeout, "scan-timeout", 30*time.Second, "discovery timeout")
	cmd.Flags().BoolVar(&trust, "trust", false, "mark the device trusted after pairing")
	return cmd
}

func NewListDevices(agent agentProvider) *cobra.Command {
	return &cobra.Command{
		Use:   "list-devices",
		Short: "List known BLE HID devices",
		Long:  `List the devices the bridge has connected to, with their last seen time and report characteristics.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := agent().ListDevices()
			if err != nil {
				return err
			}
			jsonB, err := json.MarshalIndent(devices, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
}

func NewDecodeDescriptor(agent agentProvider) *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "decode-descriptor [address]",
		Short: "Decode a report descriptor",
		Long:  `Parse the report descriptor stored for a known device, or one read from a binary file, and print the per-report definitions.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var descriptor []byte
			switch {
			case file != "":
				b, err := os.ReadFile(file)
				if err != nil {
					return err
				}
				descriptor = b
			case len(args) == 1:
				dev, err := agent().GetDevice(args[0])
				if err != nil {
					return err
				}
				descriptor = dev.ReportMap
			default:
				return fmt.Errorf("usage: decode-descriptor <address> or decode-descriptor --file <path>")
			}

			definitions := hiddesc.Parse(descriptor)
			type reportJSON struct {
				ID        uint8  `json:"id"`
				Kind      string `json:"kind"`
				SizeBytes int    `json:"sizeBytes"`
				Bits      int    `json:"bits"`
			}
			out := make([]reportJSON, 0, len(definitions))
			for id, def := range definitions {
				out = append(out, reportJSON{
					ID:        id,
					Kind:      def.Kind.String(),
					SizeBytes: def.SizeBytes,
					Bits:      def.Bits,
				})
			}
			sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
			jsonB, err := json.MarshalIndent(out, "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(jsonB))
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "read the descriptor from a binary file")
	return cmd
}
