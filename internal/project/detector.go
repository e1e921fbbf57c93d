package project

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

var (
	ErrNoProject = errors.New("no React Native Windows project found")
	ErrNoPackage = errors.New("no app package found")
)

// Detector finds React Native Windows projects
type Detector struct {
	// PackageDir overrides windows/AppPackages, relative to the project root.
	PackageDir string
}

// NewDetector creates a new project Detector
func NewDetector(packageDir string) *Detector {
	return &Detector{PackageDir: packageDir}
}

// Detect reads package.json in dir and requires a react-native-windows
// dependency plus a windows/ directory.
func (d *Detector) Detect(dir string) (*ProjectInfo, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(absDir, "package.json"))
	if err != nil {
		return nil, errors.Wrapf(ErrNoProject, "in %s", dir)
	}
	if !gjson.ValidBytes(data) {
		return nil, errors.Errorf("invalid package.json in %s", dir)
	}

	pkg := gjson.ParseBytes(data)

	rnw := pkg.Get("dependencies.react-native-windows")
	if !rnw.Exists() {
		rnw = pkg.Get("devDependencies.react-native-windows")
	}
	if !rnw.Exists() {
		return nil, errors.Wrapf(ErrNoProject, "%s does not depend on react-native-windows", dir)
	}

	windowsDir := filepath.Join(absDir, "windows")
	if info, err := os.Stat(windowsDir); err != nil || !info.IsDir() {
		return nil, errors.Wrapf(ErrNoProject, "no windows directory in %s", dir)
	}

	info := &ProjectInfo{
		Path:        absDir,
		Name:        pkg.Get("name").String(),
		Version:     pkg.Get("version").String(),
		RNWVersion:  rnw.String(),
		WindowsDir:  windowsDir,
		PackagesDir: d.packagesDir(absDir, windowsDir),
	}

	if slns, _ := filepath.Glob(filepath.Join(windowsDir, "*.sln")); len(slns) > 0 {
		info.Solution = filepath.Base(slns[0])
	}

	return info, nil
}

func (d *Detector) packagesDir(root, windowsDir string) string {
	if d.PackageDir == "" {
		return filepath.Join(windowsDir, "AppPackages")
	}
	if filepath.IsAbs(d.PackageDir) {
		return d.PackageDir
	}
	return filepath.Join(root, d.PackageDir)
}

// FindPackage returns the most recently built package artifact under dir.
// Dependency packages shipped next to the app are skipped.
func FindPackage(dir string) (string, error) {
	var (
		best     string
		bestTime time.Time
	)

	err := filepath.WalkDir(dir, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			if entry.Name() == "Dependencies" {
				return filepath.SkipDir
			}
			return nil
		}
		if !IsPackage(path) {
			return nil
		}

		info, err := entry.Info()
		if err != nil {
			return nil
		}
		if best == "" || info.ModTime().After(bestTime) {
			best = path
			bestTime = info.ModTime()
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", errors.Wrapf(ErrNoPackage, "%s does not exist", dir)
		}
		return "", errors.Wrapf(err, "scan %s", dir)
	}

	if best == "" {
		return "", errors.Wrapf(ErrNoPackage, "in %s", dir)
	}
	return best, nil
}

// IsPackage reports whether path has a package artifact extension.
func IsPackage(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range PackageExtensions {
		if ext == e {
			return true
		}
	}
	return false
}
