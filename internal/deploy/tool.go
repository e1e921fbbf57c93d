package deploy

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/arnavsurve/wadctl/internal/process"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const (
	TargetDevice   = "device"
	TargetEmulator = "emulator"
)

const launchUnsupportedWarning = "Cannot launch app with current version of Windows 10 SDK tools. " +
	"You will have to launch the app after installation is completed."

// CommandRunner runs the deploy executable either to completion (RunSilent)
// or with streamed output (Run). process.Runner satisfies it.
type CommandRunner interface {
	RunSilent(ctx context.Context, name string, args []string) ([]byte, error)
	Run(ctx context.Context, name string, args []string) (<-chan process.OutputLine, <-chan error)
}

// Reporter displays long-running commands and user warnings. ui.Renderer
// satisfies it.
type Reporter interface {
	CommandWithProgress(ctx context.Context, description string, lines <-chan process.OutputLine, errs <-chan error, verbose bool) error
	Warning(format string, args ...any)
}

type InstallOptions struct {
	Launch  bool
	Update  bool
	PIN     string
	Verbose bool
}

// Tool drives WinAppDeployCmd.exe. It keeps no state besides the executable
// path and its collaborators.
type Tool struct {
	path     string
	runner   CommandRunner
	reporter Reporter
}

func NewTool(path string, runner CommandRunner, reporter Reporter) *Tool {
	return &Tool{
		path:     path,
		runner:   runner,
		reporter: reporter,
	}
}

func (t *Tool) Path() string { return t.path }

// IsAvailable reports whether a file exists at the configured path.
func (t *Tool) IsAvailable() bool {
	info, err := os.Stat(t.path)
	return err == nil && !info.IsDir()
}

// EnumerateDevices lists the targets WinAppDeployCmd can currently see, in the
// order the tool prints them.
func (t *Tool) EnumerateDevices(ctx context.Context) ([]Device, error) {
	args := []string{"devices"}

	output, err := t.runner.RunSilent(ctx, t.path, args)
	if err != nil {
		return nil, &ToolError{Op: "devices", Args: args, Err: err}
	}

	devices := ParseDevices(string(output))
	log.Debug().Int("count", len(devices)).Msg("enumerated devices")
	return devices, nil
}

// FindDevice resolves target to one device. target is "emulator", "device"
// or a GUID. "device" picks the first enumerated target without looking at
// it; "emulator" picks the longest display text containing "emulator".
func (t *Tool) FindDevice(ctx context.Context, target string) (Device, error) {
	devices, err := t.EnumerateDevices(ctx)
	if err != nil {
		return Device{}, err
	}

	if len(devices) == 0 {
		return Device{}, ErrNoDevices
	}

	switch target {
	case TargetEmulator:
		dev, ok := selectEmulator(devices)
		if !ok {
			return Device{}, errors.Wrap(ErrNoDevices, "no emulator")
		}
		log.Debug().Str("guid", dev.GUID).Str("name", dev.Name).Msg("selected emulator")
		return dev, nil

	case TargetDevice:
		log.Debug().Str("guid", devices[0].GUID).Str("name", devices[0].Name).Msg("selected first device")
		return devices[0], nil
	}

	for _, d := range devices {
		if d.GUID == target {
			return d, nil
		}
	}

	return Device{}, errors.Wrapf(ErrNoDevices, "guid %s", target)
}

// selectEmulator sorts by display length before filtering, so among several
// matches the most descriptive name wins.
func selectEmulator(devices []Device) (Device, bool) {
	sorted := make([]Device, len(devices))
	copy(sorted, devices)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].String()) > len(sorted[j].String())
	})

	for _, d := range sorted {
		if strings.Contains(d.String(), TargetEmulator) {
			return d, true
		}
	}
	return Device{}, false
}

// InstallAppPackage pushes the package at packagePath to dev. Launching is
// not supported by the tool, so opts.Launch only produces a warning.
func (t *Tool) InstallAppPackage(ctx context.Context, packagePath string, dev Device, opts InstallOptions) error {
	if dev.IP == "" {
		return errors.Wrapf(ErrMissingIP, "install to %s", dev.Name)
	}

	if opts.Launch {
		t.reporter.Warning(launchUnsupportedWarning)
	}

	args := installArgs(packagePath, dev, opts)
	op := args[0]

	return t.runWithProgress(ctx, op, fmt.Sprintf("Installing app to %s", dev.Name), args, opts.Verbose)
}

// UninstallAppPackage removes the package identified by packageInfo from dev.
func (t *Tool) UninstallAppPackage(ctx context.Context, packageInfo string, dev Device, verbose bool) error {
	if dev.IP == "" {
		return errors.Wrapf(ErrMissingIP, "uninstall from %s", dev.Name)
	}

	args := uninstallArgs(packageInfo, dev)

	return t.runWithProgress(ctx, "uninstall", fmt.Sprintf("Uninstalling app from %s", dev.Name), args, verbose)
}

func (t *Tool) runWithProgress(ctx context.Context, op, text string, args []string, verbose bool) error {
	lines, errs := t.runner.Run(ctx, t.path, args)
	if err := t.reporter.CommandWithProgress(ctx, text, lines, errs, verbose); err != nil {
		return &ToolError{Op: op, Args: args, Err: err}
	}
	return nil
}

func installArgs(packagePath string, dev Device, opts InstallOptions) []string {
	op := "install"
	if opts.Update {
		op = "update"
	}

	args := []string{op, "-file", packagePath, "-ip", dev.IP}
	if opts.PIN != "" {
		args = append(args, "-pin", opts.PIN)
	}
	return args
}

func uninstallArgs(packageInfo string, dev Device) []string {
	return []string{"uninstall", "-package", packageInfo, "-ip", dev.IP}
}
