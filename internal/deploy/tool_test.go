package deploy

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/arnavsurve/wadctl/internal/process"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type call struct {
	name string
	args []string
}

type fakeRunner struct {
	output    string
	silentErr error
	runErr    error
	lines     []string

	silentCalls []call
	runCalls    []call
}

func (f *fakeRunner) RunSilent(ctx context.Context, name string, args []string) ([]byte, error) {
	f.silentCalls = append(f.silentCalls, call{name: name, args: args})
	if f.silentErr != nil {
		return nil, f.silentErr
	}
	return []byte(f.output), nil
}

func (f *fakeRunner) Run(ctx context.Context, name string, args []string) (<-chan process.OutputLine, <-chan error) {
	f.runCalls = append(f.runCalls, call{name: name, args: args})

	lines := make(chan process.OutputLine, len(f.lines))
	errs := make(chan error, 1)
	for _, l := range f.lines {
		lines <- process.OutputLine{Stream: "stdout", Content: l}
	}
	close(lines)
	if f.runErr != nil {
		errs <- f.runErr
	}
	close(errs)
	return lines, errs
}

type fakeReporter struct {
	descriptions []string
	verbose      []bool
	warnings     []string
	seen         []string
}

func (f *fakeReporter) CommandWithProgress(ctx context.Context, description string, lines <-chan process.OutputLine, errs <-chan error, verbose bool) error {
	f.descriptions = append(f.descriptions, description)
	f.verbose = append(f.verbose, verbose)
	return process.Wait(ctx, lines, errs, func(l process.OutputLine) {
		f.seen = append(f.seen, l.Content)
	})
}

func (f *fakeReporter) Warning(format string, args ...any) {
	f.warnings = append(f.warnings, fmt.Sprintf(format, args...))
}

const toolPath = `C:\Program Files (x86)\Windows Kits\10\bin\x86\WinAppDeployCmd.exe`

func newTestTool(output string) (*Tool, *fakeRunner, *fakeReporter) {
	runner := &fakeRunner{output: output}
	reporter := &fakeReporter{}
	return NewTool(toolPath, runner, reporter), runner, reporter
}

func deviceLines(entries ...string) string {
	out := "Discovering devices...\r\nIP Address      GUID      Model/Name\r\n"
	for _, e := range entries {
		out += e + "\r\n"
	}
	return out + "Done.\r\n"
}

func TestEnumerateDevices(t *testing.T) {
	tool, runner, _ := newTestTool(sampleDevicesOutput)

	devices, err := tool.EnumerateDevices(context.Background())
	require.NoError(t, err)
	require.Len(t, devices, 2)
	assert.Equal(t, "Lumia 1520 (RM-940)", devices[0].Name)

	require.Len(t, runner.silentCalls, 1)
	assert.Equal(t, toolPath, runner.silentCalls[0].name)
	assert.Equal(t, []string{"devices"}, runner.silentCalls[0].args)
}

func TestEnumerateDevicesNotCached(t *testing.T) {
	tool, runner, _ := newTestTool(deviceLines("10.0.0.1 aaaa First", "10.0.0.2 bbbb Second"))

	first, err := tool.EnumerateDevices(context.Background())
	require.NoError(t, err)

	runner.output = deviceLines("10.0.0.2 bbbb Second", "10.0.0.1 aaaa First")
	second, err := tool.EnumerateDevices(context.Background())
	require.NoError(t, err)

	assert.Len(t, runner.silentCalls, 2)
	assert.Equal(t, 0, first[0].Index)
	assert.Equal(t, "aaaa", first[0].GUID)
	assert.Equal(t, 0, second[0].Index)
	assert.Equal(t, "bbbb", second[0].GUID)
}

func TestEnumerateDevicesToolFailure(t *testing.T) {
	tool, runner, _ := newTestTool("")
	runner.silentErr = errors.New("exit status 1")

	_, err := tool.EnumerateDevices(context.Background())
	require.Error(t, err)

	var toolErr *ToolError
	require.ErrorAs(t, err, &toolErr)
	assert.Equal(t, "devices", toolErr.Op)
	assert.Contains(t, err.Error(), "exit status 1")
}

func TestFindDevice(t *testing.T) {
	output := deviceLines(
		"127.0.0.1 00000015-b21e-0da9-0000-000000000000 Phone (device)",
		"127.0.0.1 10000015-b21e-0da9-0000-000000000000 Emulator 4.5 WVGA (emulator)",
		"10.0.0.7 abcdef01-0000 Tablet",
	)

	t.Run("device picks first", func(t *testing.T) {
		tool, _, _ := newTestTool(output)
		dev, err := tool.FindDevice(context.Background(), "device")
		require.NoError(t, err)
		assert.Equal(t, 0, dev.Index)
		assert.Equal(t, "Phone (device)", dev.Name)
	})

	t.Run("device ignores names", func(t *testing.T) {
		tool, _, _ := newTestTool(deviceLines("127.0.0.1 aaaa Emulator 8.1 (emulator)", "10.0.0.1 bbbb Lumia"))
		dev, err := tool.FindDevice(context.Background(), "device")
		require.NoError(t, err)
		assert.Equal(t, "aaaa", dev.GUID)
	})

	t.Run("emulator sorts before filtering", func(t *testing.T) {
		tool, _, _ := newTestTool(output)
		dev, err := tool.FindDevice(context.Background(), "emulator")
		require.NoError(t, err)
		assert.Equal(t, 1, dev.Index)
		assert.Equal(t, "Emulator 4.5 WVGA (emulator)", dev.Name)
	})

	t.Run("emulator prefers longest display text", func(t *testing.T) {
		tool, _, _ := newTestTool(deviceLines(
			"127.0.0.1 aaaa emulator 8",
			"127.0.0.1 bbbb emulator 10.0.14393 WVGA 4 inch",
		))
		dev, err := tool.FindDevice(context.Background(), "emulator")
		require.NoError(t, err)
		assert.Equal(t, "bbbb", dev.GUID)
	})

	t.Run("emulator match is case sensitive", func(t *testing.T) {
		tool, _, _ := newTestTool(deviceLines("127.0.0.1 aaaa Emulator WVGA", "10.0.0.1 bbbb Lumia"))
		_, err := tool.FindDevice(context.Background(), "emulator")
		assert.ErrorIs(t, err, ErrNoDevices)
	})

	t.Run("emulator leaves enumeration order alone", func(t *testing.T) {
		devices := ParseDevices(output)
		_, ok := selectEmulator(devices)
		require.True(t, ok)
		assert.Equal(t, "Phone (device)", devices[0].Name)
	})

	t.Run("guid exact", func(t *testing.T) {
		tool, _, _ := newTestTool(output)
		dev, err := tool.FindDevice(context.Background(), "abcdef01-0000")
		require.NoError(t, err)
		assert.Equal(t, "Tablet", dev.Name)
		assert.Equal(t, "10.0.0.7", dev.IP)
	})

	t.Run("guid is case sensitive", func(t *testing.T) {
		tool, _, _ := newTestTool(output)
		_, err := tool.FindDevice(context.Background(), "ABCDEF01-0000")
		assert.ErrorIs(t, err, ErrNoDevices)
	})

	t.Run("guid no match", func(t *testing.T) {
		tool, _, _ := newTestTool(output)
		_, err := tool.FindDevice(context.Background(), "ffffffff-0000")
		require.ErrorIs(t, err, ErrNoDevices)
		assert.Contains(t, err.Error(), "ffffffff-0000")
	})

	t.Run("enumeration failure", func(t *testing.T) {
		tool, runner, _ := newTestTool("")
		runner.silentErr = errors.New("spawn failed")
		_, err := tool.FindDevice(context.Background(), "device")
		var toolErr *ToolError
		assert.ErrorAs(t, err, &toolErr)
	})
}

func TestFindDeviceEmptyEnumeration(t *testing.T) {
	for _, target := range []string{"device", "emulator", "00000015-b21e-0da9-0000-000000000000", ""} {
		t.Run(target, func(t *testing.T) {
			tool, _, _ := newTestTool("Discovering devices...\r\nNo devices were found.\r\n")
			_, err := tool.FindDevice(context.Background(), target)
			assert.ErrorIs(t, err, ErrNoDevices)
			assert.Equal(t, "no devices found", err.Error())
		})
	}
}

func TestInstallAppPackage(t *testing.T) {
	dev := Device{Index: 0, Name: "Lumia", Type: "device", IP: "10.0.0.5", GUID: "aaaa"}
	pkg := `C:\app\AppPackages\App_1.0.0.0_x86_Debug_Test\App_1.0.0.0_x86_Debug.appx`

	t.Run("update with pin", func(t *testing.T) {
		tool, runner, reporter := newTestTool("")
		err := tool.InstallAppPackage(context.Background(), pkg, dev, InstallOptions{Update: true, PIN: "1234", Verbose: true})
		require.NoError(t, err)

		require.Len(t, runner.runCalls, 1)
		assert.Equal(t, toolPath, runner.runCalls[0].name)
		assert.Equal(t, []string{"update", "-file", pkg, "-ip", "10.0.0.5", "-pin", "1234"}, runner.runCalls[0].args)
		assert.Equal(t, []string{"Installing app to Lumia"}, reporter.descriptions)
		assert.Equal(t, []bool{true}, reporter.verbose)
		assert.Empty(t, reporter.warnings)
	})

	t.Run("fresh install without pin", func(t *testing.T) {
		tool, runner, _ := newTestTool("")
		require.NoError(t, tool.InstallAppPackage(context.Background(), pkg, dev, InstallOptions{}))
		assert.Equal(t, []string{"install", "-file", pkg, "-ip", "10.0.0.5"}, runner.runCalls[0].args)
	})

	t.Run("launch warns", func(t *testing.T) {
		tool, runner, reporter := newTestTool("")
		require.NoError(t, tool.InstallAppPackage(context.Background(), pkg, dev, InstallOptions{Launch: true}))
		require.Len(t, reporter.warnings, 1)
		assert.Contains(t, reporter.warnings[0], "launch the app after installation")
		assert.Len(t, runner.runCalls, 1)
	})

	t.Run("streams output to reporter", func(t *testing.T) {
		tool, runner, reporter := newTestTool("")
		runner.lines = []string{"Installing app...", "Remote action succeeded."}
		require.NoError(t, tool.InstallAppPackage(context.Background(), pkg, dev, InstallOptions{}))
		assert.Equal(t, runner.lines, reporter.seen)
	})

	t.Run("tool failure", func(t *testing.T) {
		tool, runner, _ := newTestTool("")
		runner.runErr = errors.New("exit status 2")
		err := tool.InstallAppPackage(context.Background(), pkg, dev, InstallOptions{Update: true})
		require.Error(t, err)

		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "update", toolErr.Op)
		assert.Contains(t, err.Error(), "exit status 2")
	})

	t.Run("missing ip", func(t *testing.T) {
		tool, runner, _ := newTestTool("")
		err := tool.InstallAppPackage(context.Background(), pkg, Device{Name: "Ghost"}, InstallOptions{})
		assert.ErrorIs(t, err, ErrMissingIP)
		assert.Empty(t, runner.runCalls)
	})
}

func TestUninstallAppPackage(t *testing.T) {
	dev := Device{Index: 1, Name: "HoloLens", Type: "device", IP: "192.168.0.12", GUID: "bbbb"}

	t.Run("args", func(t *testing.T) {
		tool, runner, reporter := newTestTool("")
		require.NoError(t, tool.UninstallAppPackage(context.Background(), "App_1.0.0.0_x86__8wekyb3d8bbwe", dev, false))

		require.Len(t, runner.runCalls, 1)
		assert.Equal(t, []string{"uninstall", "-package", "App_1.0.0.0_x86__8wekyb3d8bbwe", "-ip", "192.168.0.12"}, runner.runCalls[0].args)
		assert.NotContains(t, runner.runCalls[0].args, "-pin")
		assert.Equal(t, []string{"Uninstalling app from HoloLens"}, reporter.descriptions)
	})

	t.Run("tool failure", func(t *testing.T) {
		tool, runner, _ := newTestTool("")
		runner.runErr = errors.New("exit status 1")
		err := tool.UninstallAppPackage(context.Background(), "App", dev, true)
		var toolErr *ToolError
		require.ErrorAs(t, err, &toolErr)
		assert.Equal(t, "uninstall", toolErr.Op)
	})

	t.Run("missing ip", func(t *testing.T) {
		tool, runner, _ := newTestTool("")
		err := tool.UninstallAppPackage(context.Background(), "App", Device{Name: "Ghost"}, false)
		assert.ErrorIs(t, err, ErrMissingIP)
		assert.Empty(t, runner.runCalls)
	})
}

func TestIsAvailable(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "WinAppDeployCmd.exe")
	tool := NewTool(path, &fakeRunner{}, &fakeReporter{})

	assert.False(t, tool.IsAvailable())
	assert.False(t, tool.IsAvailable())

	require.NoError(t, os.WriteFile(path, []byte("MZ"), 0o755))
	assert.True(t, tool.IsAvailable())
	assert.True(t, tool.IsAvailable())

	assert.False(t, NewTool(dir, &fakeRunner{}, &fakeReporter{}).IsAvailable())
	assert.Equal(t, path, tool.Path())
}
