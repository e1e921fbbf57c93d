// Package logger configures the zerolog logger shared by wadctl packages.
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Level   string
	Debug   bool // overrides Level
	JSON    bool
	NoColor bool
}

func init() {
	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = newLogger(os.Stderr, Config{}).Level(zerolog.WarnLevel)
}

// Init replaces the global logger. Diagnostics always go to stderr so they
// never mix with command output on stdout.
func Init(cfg Config) error {
	return InitWriter(os.Stderr, cfg)
}

func InitWriter(w io.Writer, cfg Config) error {
	level := zerolog.WarnLevel

	if cfg.Debug {
		level = zerolog.DebugLevel
	} else if cfg.Level != "" {
		var err error

		level, err = zerolog.ParseLevel(cfg.Level)
		if err != nil {
			return err
		}
	}

	log.Logger = newLogger(w, cfg).Level(level)

	return nil
}

func newLogger(w io.Writer, cfg Config) zerolog.Logger {
	if !cfg.JSON {
		w = zerolog.ConsoleWriter{Out: w, NoColor: cfg.NoColor, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).With().Timestamp().Logger()
}
