package config

import (
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

var (
	dotEnvOnce sync.Once
	dotEnvPath string
	dotEnvErr  error
)

// EnsureDotEnv loads the first .env found from dir up to the filesystem root
// into the process environment. Existing variables win. Only the first call
// does any work.
func EnsureDotEnv(dir string) (string, error) {
	// Keep tests hermetic; a developer-local .env must not leak in.
	if runningUnderGoTest() {
		return "", nil
	}
	dotEnvOnce.Do(func() {
		path := FindDotEnv(dir)
		if path == "" {
			return
		}
		if err := godotenv.Load(path); err != nil {
			dotEnvErr = err
			return
		}
		dotEnvPath = path
		log.Debug().Str("dotenv", path).Msg("loaded .env")
	})
	return dotEnvPath, dotEnvErr
}

// FindDotEnv returns the nearest .env at or above dir, or "".
func FindDotEnv(dir string) string {
	current := filepath.Clean(dir)
	for {
		candidate := filepath.Join(current, ".env")
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
		parent := filepath.Dir(current)
		if parent == current {
			return ""
		}
		current = parent
	}
}

func runningUnderGoTest() bool {
	if strings.HasSuffix(os.Args[0], ".test") {
		return true
	}
	for _, arg := range os.Args[1:] {
		if strings.HasPrefix(arg, "-test.") {
			return true
		}
	}
	return false
}
