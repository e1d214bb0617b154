// Package config loads settings from TOML files and the environment.
package config

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/go-playground/validator/v10"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	"github.com/sethvargo/go-envconfig"

	"github.com/llehouerou/silence-with-sound/internal/interval"
)

const appName = "silence-with-sound"

type Config struct {
	// Gap between repeats in single-file mode
	Idle RangeConfig `koanf:"idle"`
	// Gap between the end of one clip and the next in the interactive UI
	Interactive RangeConfig `koanf:"interactive"`

	Output OutputConfig `koanf:"output"`
	Log    LogConfig    `koanf:"log"`
}

// RangeConfig is a random wait range, as Go durations ("30s", "5m").
type RangeConfig struct {
	Min time.Duration `koanf:"min"`
	Max time.Duration `koanf:"max"`
}

// Range converts to an interval.Range.
func (r RangeConfig) Range() interval.Range {
	return interval.Range{Min: r.Min, Max: r.Max}
}

// OutputConfig holds speaker settings.
type OutputConfig struct {
	SampleRate int           `koanf:"sample_rate" validate:"min=8000,max=192000"`
	Buffer     time.Duration `koanf:"buffer" validate:"min=1ms,max=2s"`
	Quality    int           `koanf:"quality" validate:"min=1,max=64"` // resampling quality
}

// LogConfig holds logging settings. Environment variables win over files.
type LogConfig struct {
	Level  string `koanf:"level" env:"SWS_LOG_LEVEL, overwrite" validate:"oneof=debug info warn warning error"`
	Format string `koanf:"format" env:"SWS_LOG_FORMAT, overwrite" validate:"oneof=text json"`
	File   string `koanf:"file" env:"SWS_LOG_FILE, overwrite"` // empty: stderr, or the state dir in the UI
}

// Default returns the built-in settings.
func Default() *Config {
	return &Config{
		Idle:        RangeConfig{Min: interval.Idle.Min, Max: interval.Idle.Max},
		Interactive: RangeConfig{Min: interval.Short.Min, Max: interval.Short.Max},
		Output: OutputConfig{
			SampleRate: 44100,
			Buffer:     100 * time.Millisecond,
			Quality:    4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the config files (later files win), then the environment, and
// validates the result. extra is an optional explicit file that must exist.
func Load(extra string) (*Config, error) {
	k := koanf.New(".")

	paths := getConfigPaths()
	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, fmt.Errorf("config: %s: %w", path, err)
			}
		}
	}
	if extra != "" {
		extra = expandPath(extra)
		if err := k.Load(file.Provider(extra), toml.Parser()); err != nil {
			return nil, fmt.Errorf("config: %s: %w", extra, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if err := envconfig.Process(context.Background(), cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}

	if cfg.Log.File != "" {
		cfg.Log.File = expandPath(cfg.Log.File)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks value ranges.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := c.Idle.Range().Validate(); err != nil {
		return fmt.Errorf("config: idle: %w", err)
	}
	if err := c.Interactive.Range().Validate(); err != nil {
		return fmt.Errorf("config: interactive: %w", err)
	}
	return nil
}

func getConfigPaths() []string {
	return []string{
		// 1. $XDG_CONFIG_HOME/silence-with-sound/config.toml
		filepath.Join(xdg.ConfigHome, appName, "config.toml"),
		// 2. ./config.toml (pwd, highest priority)
		"config.toml",
	}
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// DefaultLogFile is where the interactive UI logs when no file is set.
func DefaultLogFile() (string, error) {
	return xdg.StateFile(filepath.Join(appName, "sws.log"))
}

// NewLogger creates a structured logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.Log.Level)}

	var handler slog.Handler
	if strings.ToLower(c.Log.Format) == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}

// parseLogLevel converts a string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
