package cli

import (
	"fmt"

	"github.com/arnavsurve/wadctl/internal/deploy"
	"github.com/arnavsurve/wadctl/internal/process"
	"github.com/arnavsurve/wadctl/internal/ui"
	"github.com/spf13/cobra"
)

func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that WinAppDeployCmd is installed",
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := ui.NewRenderer()

			if cfg.FilePath != "" {
				renderer.Info("Config: %s", cfg.FilePath)
			}
			if cfg.DotEnvPath != "" {
				renderer.Info("Env:    %s", cfg.DotEnvPath)
			}
			renderer.Info("Target: %s", cfg.Target)

			path, err := cfg.RequireTool()
			if err != nil {
				renderer.Error("%v", err)
				return fmt.Errorf("WinAppDeployCmd unavailable")
			}

			tool := deploy.NewTool(path, process.NewRunner(), renderer)
			if !tool.IsAvailable() {
				renderer.Error("Not found: %s", path)
				return fmt.Errorf("WinAppDeployCmd unavailable")
			}

			renderer.Success("WinAppDeployCmd: %s", path)
			return nil
		},
	}
}
