package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/arnavsurve/wadctl/internal/deploy"
	"github.com/arnavsurve/wadctl/internal/ui"
	"github.com/spf13/cobra"
)

func devicesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Discover deployment targets",
		Long:  `List devices and emulators reachable by WinAppDeployCmd and resolve targets.`,
	}

	cmd.AddCommand(devicesListCmd())
	cmd.AddCommand(devicesResolveCmd())

	return cmd
}

func devicesListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List reachable devices",
		Example: `  wadctl devices list
  wadctl devices list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderer := ui.NewRenderer()

			tool, err := newTool(renderer)
			if err != nil {
				return err
			}

			renderer.StartSpinner("Discovering devices...")
			devices, err := tool.EnumerateDevices(ctx)
			renderer.StopSpinner(err == nil)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			if jsonOut {
				return writeDevicesJSON(cmd.OutOrStdout(), devices)
			}

			displayDevices := make([]ui.DeviceInfo, len(devices))
			for i, d := range devices {
				displayDevices[i] = ui.DeviceInfo{
					Label: d.String(),
					IP:    d.IP,
					GUID:  d.GUID,
				}
			}

			renderer.RenderDeviceList(displayDevices)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func devicesResolveCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "resolve <device|emulator|guid>",
		Short: "Show which device a target selects",
		Long: `Resolve a target the way install does: "device" takes the first device listed,
"emulator" the emulator with the longest name, anything else must be an exact GUID.`,
		Example: `  wadctl devices resolve emulator
  wadctl devices resolve 00000015-b21e-0da9-0000-000000000000`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderer := ui.NewRenderer()

			tool, err := newTool(renderer)
			if err != nil {
				return err
			}

			renderer.StartSpinner("Looking for %s...", args[0])
			dev, err := tool.FindDevice(ctx, args[0])
			renderer.StopSpinner(err == nil)
			if err != nil {
				return fmt.Errorf("device not found: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), dev)
			}

			renderer.Success("%s", dev.String())
			renderer.Info("IP:   %s", dev.IP)
			renderer.Info("GUID: %s", dev.GUID)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

// writeDevicesJSON encodes an empty enumeration as [] rather than null.
func writeDevicesJSON(w io.Writer, devices []deploy.Device) error {
	if devices == nil {
		devices = []deploy.Device{}
	}
	return writeJSON(w, devices)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
