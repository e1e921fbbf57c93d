package run

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/arnavsurve/wadctl/internal/deploy"
	"github.com/arnavsurve/wadctl/internal/project"
	"github.com/arnavsurve/wadctl/internal/ui"
	"github.com/arnavsurve/wadctl/internal/watcher"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const watchDebounce = 750 * time.Millisecond

type Config struct {
	Target      string
	PackagePath string
	ProjectDir  string
	Launch      bool
	Update      bool
	PIN         string
	Verbose     bool
	Watch       bool
}

type Runner struct {
	tool     *deploy.Tool
	detector *project.Detector
	renderer *ui.Renderer
}

func NewRunner(tool *deploy.Tool, detector *project.Detector, renderer *ui.Renderer) *Runner {
	return &Runner{
		tool:     tool,
		detector: detector,
		renderer: renderer,
	}
}

// Deploy resolves the target, finds the package and installs it. With Watch
// set it keeps redeploying each new package until ctx is done.
func (r *Runner) Deploy(ctx context.Context, cfg Config) error {
	if !r.tool.IsAvailable() {
		return errors.Errorf("WinAppDeployCmd not found at %s (install the Windows 10 SDK)", r.tool.Path())
	}

	dev, err := r.ResolveDevice(ctx, cfg.Target)
	if err != nil {
		return err
	}
	r.renderer.Info("Device: %s (%s)", dev.Name, dev.IP)

	pkg, watchDir, err := r.resolvePackage(cfg)
	if err != nil {
		return err
	}
	r.renderer.Info("Package: %s", filepath.Base(pkg))

	opts := deploy.InstallOptions{
		Launch:  cfg.Launch,
		Update:  cfg.Update,
		PIN:     cfg.PIN,
		Verbose: cfg.Verbose,
	}
	if err := r.tool.InstallAppPackage(ctx, pkg, dev, opts); err != nil {
		return err
	}

	if !cfg.Watch {
		return nil
	}

	// Later rounds replace what the first one installed.
	opts.Update = true
	opts.Launch = false
	return r.runWithWatch(ctx, watchDir, dev, opts)
}

// ResolveDevice runs FindDevice behind a spinner.
func (r *Runner) ResolveDevice(ctx context.Context, target string) (deploy.Device, error) {
	r.renderer.StartSpinner("Looking for %s...", target)
	dev, err := r.tool.FindDevice(ctx, target)
	r.renderer.StopSpinner(err == nil)
	if err != nil {
		return deploy.Device{}, errors.Wrapf(err, "resolve target %q", target)
	}
	log.Debug().Int("index", dev.Index).Str("guid", dev.GUID).Msg("resolved target")
	return dev, nil
}

// resolvePackage returns the artifact to install and the directory to watch
// for rebuilt ones.
func (r *Runner) resolvePackage(cfg Config) (pkg, dir string, err error) {
	if cfg.PackagePath != "" {
		info, err := os.Stat(cfg.PackagePath)
		if err != nil {
			return "", "", errors.Wrap(err, "package")
		}
		if info.IsDir() {
			pkg, err := project.FindPackage(cfg.PackagePath)
			return pkg, cfg.PackagePath, err
		}
		return cfg.PackagePath, filepath.Dir(cfg.PackagePath), nil
	}

	projectDir := cfg.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	proj, err := r.detector.Detect(projectDir)
	if err != nil {
		return "", "", errors.Wrap(err, "no package given and no project found")
	}
	r.renderer.Info("Project: %s", proj.Name)

	pkg, err = project.FindPackage(proj.PackagesDir)
	if err != nil {
		return "", "", err
	}
	return pkg, proj.PackagesDir, nil
}

func (r *Runner) runWithWatch(ctx context.Context, dir string, dev deploy.Device, opts deploy.InstallOptions) error {
	w, err := watcher.New(watchDebounce, project.PackageExtensions)
	if err != nil {
		return errors.Wrap(err, "watcher failed")
	}
	defer w.Close()

	if err := w.AddRecursive(dir); err != nil {
		return errors.Wrap(err, "watch directory failed")
	}

	changes := w.Watch(ctx)
	r.renderer.Dim("Watching %s for new packages (Ctrl+C to stop)...", dir)

	for {
		select {
		case <-ctx.Done():
			return nil

		case change, ok := <-changes:
			if !ok {
				return nil
			}

			r.renderer.Info("Changed: %s", filepath.Base(change.Path))

			if err := r.tool.InstallAppPackage(ctx, change.Path, dev, opts); err != nil {
				if ctx.Err() != nil {
					return nil
				}
				r.renderer.Error("Redeploy failed: %v", err)
			}
		}
	}
}
