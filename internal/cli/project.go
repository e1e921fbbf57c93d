package cli

import (
	"fmt"
	"path/filepath"

	"github.com/arnavsurve/wadctl/internal/project"
	"github.com/arnavsurve/wadctl/internal/ui"
	"github.com/spf13/cobra"
)

func projectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "project",
		Short: "Project introspection",
		Long:  `Inspect the React Native Windows project in the current directory.`,
	}

	cmd.AddCommand(projectInfoCmd())

	return cmd
}

func projectInfoCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show project information",
		Long:  `Detect and display the React Native Windows project and its newest package.`,
		Example: `  wadctl project info
  wadctl project info --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			detector := project.NewDetector(cfg.PackageDir)

			info, err := detector.Detect(".")
			if err != nil {
				return fmt.Errorf("no project found: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd.OutOrStdout(), info)
			}

			renderer := ui.NewRenderer()
			renderer.Success("Project: %s %s", info.Name, info.Version)
			renderer.Info("react-native-windows: %s", info.RNWVersion)
			renderer.Info("Path: %s", info.Path)
			if info.Solution != "" {
				renderer.Info("Solution: %s", info.Solution)
			}
			renderer.Info("Packages: %s", info.PackagesDir)

			if pkg, err := project.FindPackage(info.PackagesDir); err == nil {
				renderer.Info("Latest package: %s", filepath.Base(pkg))
			} else {
				renderer.Dim("No package built yet")
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
