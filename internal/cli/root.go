package cli

import (
	"context"
	"fmt"

	"github.com/arnavsurve/wadctl/internal/config"
	"github.com/arnavsurve/wadctl/internal/deploy"
	"github.com/arnavsurve/wadctl/internal/logger"
	"github.com/arnavsurve/wadctl/internal/process"
	"github.com/arnavsurve/wadctl/internal/ui"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	logLevel   string
	logJSON    bool
	configPath string
	rootCmd    *cobra.Command

	cfg *config.Config
)

func init() {
	rootCmd = &cobra.Command{
		Use:   "wadctl",
		Short: "Deploy Windows apps to devices and emulators",
		Long: `wadctl wraps WinAppDeployCmd.exe from the Windows 10 SDK to find devices and
install, update or remove app packages on them.

Common workflows:
  wadctl devices list              Show reachable devices
  wadctl install                   Install the newest package of the current project
  wadctl install -t emulator -w    Same, then redeploy on every new package
  wadctl uninstall <package> -t <guid>`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := logger.Init(logConfig(logLevel)); err != nil {
				return fmt.Errorf("invalid log level: %w", err)
			}

			loaded, err := config.Load(config.Options{File: configPath})
			if err != nil {
				return err
			}
			cfg = loaded

			if logLevel == "" && cfg.LogLevel != "" {
				if err := logger.Init(logConfig(cfg.LogLevel)); err != nil {
					return fmt.Errorf("invalid log_level in config: %w", err)
				}
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Show underlying commands and tool output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Write logs as JSON lines")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./"+config.DefaultFile+" when present)")
}

func Execute(ctx context.Context, version string, args []string) error {
	rootCmd.Version = version
	rootCmd.SetArgs(args)

	rootCmd.AddCommand(devicesCmd())
	rootCmd.AddCommand(installCmd())
	rootCmd.AddCommand(uninstallCmd())
	rootCmd.AddCommand(checkCmd())
	rootCmd.AddCommand(projectCmd())

	return rootCmd.ExecuteContext(ctx)
}

// logConfig follows the global flags. Log colors are dropped whenever the
// terminal output is uncolored (NO_COLOR, redirected stdout).
func logConfig(level string) logger.Config {
	return logger.Config{
		Level:   level,
		Debug:   verbose,
		JSON:    logJSON,
		NoColor: color.NoColor,
	}
}

// newTool builds a deploy tool from the loaded config and fails early when
// the executable is missing.
func newTool(renderer *ui.Renderer) (*deploy.Tool, error) {
	path, err := cfg.RequireTool()
	if err != nil {
		return nil, err
	}

	tool := deploy.NewTool(path, process.NewRunner(), renderer)
	if !tool.IsAvailable() {
		return nil, fmt.Errorf("WinAppDeployCmd not found at %s (install the Windows 10 SDK or set %s)", path, config.EnvToolPath)
	}
	return tool, nil
}

// targetOrDefault prefers an explicit --target over the configured default.
func targetOrDefault(cmd *cobra.Command, target string) string {
	if cmd.Flags().Changed("target") {
		return target
	}
	return cfg.Target
}
