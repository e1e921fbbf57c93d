package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

const (
	EnvToolPath   = "WADCTL_TOOL_PATH"
	EnvLogLevel   = "WADCTL_LOG_LEVEL"
	EnvTarget     = "WADCTL_TARGET"
	EnvProgramX86 = "ProgramFiles(x86)"
	EnvProgram    = "ProgramFiles"

	DefaultFile   = ".wadctl.yaml"
	DefaultTarget = "device"
)

// ToolSubpath is where the Windows 10 SDK places WinAppDeployCmd under the
// Program Files root.
var ToolSubpath = []string{"Windows Kits", "10", "bin", "x86", "WinAppDeployCmd.exe"}

var ErrNoInstallRoot = errors.New("neither ProgramFiles(x86) nor ProgramFiles is set")

// LookupFunc matches os.LookupEnv.
type LookupFunc func(key string) (string, bool)

// File is the optional per-project defaults file.
type File struct {
	ToolPath   string `yaml:"tool_path"`
	Target     string `yaml:"target"`
	PIN        string `yaml:"pin"`
	PackageDir string `yaml:"package_dir"`
	LogLevel   string `yaml:"log_level"`
}

type Config struct {
	ToolPath   string
	Target     string
	PIN        string
	PackageDir string
	LogLevel   string

	// Sources that contributed, empty when not used.
	DotEnvPath string
	FilePath   string
}

type Options struct {
	Dir    string
	File   string
	Lookup LookupFunc
}

// Load resolves configuration from the environment, the nearest .env file and
// the optional YAML defaults file.
func Load(opts Options) (*Config, error) {
	dir := opts.Dir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, errors.Wrap(err, "resolve working directory")
		}
		dir = wd
	}

	lookup := opts.Lookup
	if lookup == nil {
		lookup = os.LookupEnv
	}

	cfg := &Config{}

	if path, err := EnsureDotEnv(dir); err != nil {
		log.Warn().Err(err).Msg("load .env failed")
	} else {
		cfg.DotEnvPath = path
	}

	file, path, err := readFileOption(dir, opts.File)
	if err != nil {
		return nil, err
	}
	cfg.FilePath = path

	cfg.Target = firstNonEmpty(envValue(lookup, EnvTarget), file.Target, DefaultTarget)
	cfg.PIN = file.PIN
	cfg.PackageDir = file.PackageDir
	cfg.LogLevel = firstNonEmpty(envValue(lookup, EnvLogLevel), file.LogLevel)

	cfg.ToolPath = firstNonEmpty(envValue(lookup, EnvToolPath), file.ToolPath)
	if cfg.ToolPath == "" {
		// Left empty off Windows; RequireTool reports it when a command needs it.
		cfg.ToolPath, _ = ToolPathFrom(lookup)
	}

	log.Debug().
		Str("tool", cfg.ToolPath).
		Str("target", cfg.Target).
		Str("config_file", cfg.FilePath).
		Msg("configuration loaded")

	return cfg, nil
}

// RequireTool returns the configured tool path, or an error when no install
// root was found.
func (c *Config) RequireTool() (string, error) {
	if c.ToolPath == "" {
		return "", errors.Wrap(ErrNoInstallRoot, "locate WinAppDeployCmd.exe")
	}
	return c.ToolPath, nil
}

// ToolPathFrom joins the SDK subpath onto ProgramFiles(x86), falling back to
// ProgramFiles.
func ToolPathFrom(lookup LookupFunc) (string, error) {
	root := firstNonEmpty(envValue(lookup, EnvProgramX86), envValue(lookup, EnvProgram))
	if root == "" {
		return "", ErrNoInstallRoot
	}
	return filepath.Join(append([]string{root}, ToolSubpath...)...), nil
}

// ReadFile parses a YAML defaults file.
func ReadFile(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrapf(err, "parse %s", path)
	}
	return &f, nil
}

// readFileOption reads an explicitly requested file, or DefaultFile in dir
// when it exists.
func readFileOption(dir, explicit string) (*File, string, error) {
	path := explicit
	if path == "" {
		path = filepath.Join(dir, DefaultFile)
		if _, err := os.Stat(path); err != nil {
			return &File{}, "", nil
		}
	}

	f, err := ReadFile(path)
	if err != nil {
		return nil, "", errors.Wrap(err, "read config")
	}
	return f, path, nil
}

func envValue(lookup LookupFunc, key string) string {
	val, ok := lookup(key)
	if !ok {
		return ""
	}
	return strings.TrimSpace(val)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
