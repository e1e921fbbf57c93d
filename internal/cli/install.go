package cli

import (
	"fmt"

	"github.com/arnavsurve/wadctl/internal/config"
	"github.com/arnavsurve/wadctl/internal/project"
	"github.com/arnavsurve/wadctl/internal/run"
	"github.com/arnavsurve/wadctl/internal/ui"
	"github.com/spf13/cobra"
)

func installCmd() *cobra.Command {
	var (
		target     string
		projectDir string
		pin        string
		update     bool
		launch     bool
		watch      bool
	)

	cmd := &cobra.Command{
		Use:   "install [package]",
		Short: "Install an app package on a device",
		Long: `Install an .appx/.msix package (or bundle) on the selected target.

Without a package argument the newest artifact under windows/AppPackages of the
current React Native Windows project is used. A directory argument is searched
the same way. Use -w/--watch to redeploy whenever a new package appears.`,
		Example: `  wadctl install
  wadctl install -t emulator --update
  wadctl install out/App_1.0.0.0_x86_Debug.appx -t 00000015-b21e-0da9-0000-000000000000 --pin 1234
  wadctl install -w`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderer := ui.NewRenderer()

			tool, err := newTool(renderer)
			if err != nil {
				return err
			}

			if !cmd.Flags().Changed("pin") {
				pin = cfg.PIN
			}

			runCfg := run.Config{
				Target:     targetOrDefault(cmd, target),
				ProjectDir: projectDir,
				Launch:     launch,
				Update:     update,
				PIN:        pin,
				Verbose:    verbose,
				Watch:      watch,
			}
			if len(args) == 1 {
				runCfg.PackagePath = args[0]
			}

			runner := run.NewRunner(tool, project.NewDetector(cfg.PackageDir), renderer)
			if err := runner.Deploy(ctx, runCfg); err != nil {
				return fmt.Errorf("install failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", config.DefaultTarget, "Target: device, emulator, or a device GUID")
	cmd.Flags().StringVar(&projectDir, "project", ".", "Project directory used to find packages")
	cmd.Flags().StringVar(&pin, "pin", "", "PIN for pairing-protected devices")
	cmd.Flags().BoolVar(&update, "update", false, "Update an existing install instead of a fresh install")
	cmd.Flags().BoolVar(&launch, "launch", false, "Launch after install (not supported by WinAppDeployCmd; prints a reminder)")
	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Redeploy when a new package is built")

	return cmd
}

func uninstallCmd() *cobra.Command {
	var target string

	cmd := &cobra.Command{
		Use:   "uninstall <package-name>",
		Short: "Remove an app package from a device",
		Long:  `Uninstall a package by its full package name from the selected target.`,
		Example: `  wadctl uninstall RNTester_1.0.0.0_x86__8wekyb3d8bbwe
  wadctl uninstall RNTester_1.0.0.0_x86__8wekyb3d8bbwe -t emulator`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			renderer := ui.NewRenderer()

			tool, err := newTool(renderer)
			if err != nil {
				return err
			}

			runner := run.NewRunner(tool, project.NewDetector(cfg.PackageDir), renderer)
			dev, err := runner.ResolveDevice(ctx, targetOrDefault(cmd, target))
			if err != nil {
				return err
			}

			if err := tool.UninstallAppPackage(ctx, args[0], dev, verbose); err != nil {
				return fmt.Errorf("uninstall failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&target, "target", "t", config.DefaultTarget, "Target: device, emulator, or a device GUID")

	return cmd
}
