// Package config resolves CLI settings from flags, FORMULA_* environment
// variables, an optional formula.yaml file and built-in defaults, in that
// order of precedence.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	EnvPrefix    = "FORMULA"
	ConfigName   = "formula"
	DefaultSheet = "Sheet1"
	DefaultJobs  = 4

	ColorAuto   = "auto"
	ColorAlways = "always"
	ColorNever  = "never"
)

const (
	defaultEncoding = "utf-8"
	defaultLogLevel = "warn"
	verboseFlag     = "verbose"
)

var ErrInvalidConfig = errors.New("invalid config")

// flagKeys maps flag names to the config keys they override
var flagKeys = map[string]string{
	"workbook":  "workbook",
	"sheet":     "sheet",
	"encoding":  "encoding",
	"jobs":      "jobs",
	"color":     "color",
	"log-level": "log.level",
}

type Telemetry struct {
	Enabled bool
	Stdout  bool
}

type Config struct {
	// File is the config file that was read, empty if none
	File      string
	Workbook  string
	Sheet     string
	Encoding  string
	Jobs      int
	Color     string
	LogLevel  slog.Level
	Telemetry Telemetry
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("workbook", "")
	v.SetDefault("sheet", DefaultSheet)
	v.SetDefault("encoding", defaultEncoding)
	v.SetDefault("jobs", DefaultJobs)
	v.SetDefault("color", ColorAuto)
	v.SetDefault("log.level", defaultLogLevel)
	v.SetDefault("telemetry.enabled", false)
	v.SetDefault("telemetry.stdout", false)
}

// Load builds the config. path names an explicit config file, which must
// exist; without one formula.yaml is looked up in the working directory and
// then $HOME/.config/formula, and it is fine for neither to exist. flags may
// be nil; only flags that were registered are bound.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", name, err)
				}
			}
		}
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName(ConfigName)
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", ConfigName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{
		File:     v.ConfigFileUsed(),
		Workbook: v.GetString("workbook"),
		Sheet:    v.GetString("sheet"),
		Encoding: v.GetString("encoding"),
		Jobs:     v.GetInt("jobs"),
		Color:    strings.ToLower(v.GetString("color")),
		Telemetry: Telemetry{
			Enabled: v.GetBool("telemetry.enabled"),
			Stdout:  v.GetBool("telemetry.stdout"),
		},
	}

	if err := cfg.LogLevel.UnmarshalText([]byte(v.GetString("log.level"))); err != nil {
		return nil, fmt.Errorf("%w: log.level: %v", ErrInvalidConfig, err)
	}
	if flags != nil {
		if verbose, err := flags.GetBool(verboseFlag); err == nil && verbose {
			cfg.LogLevel = slog.LevelDebug
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks values that have a closed set of options
func (c *Config) Validate() error {
	switch c.Color {
	case ColorAuto, ColorAlways, ColorNever:
	default:
		return fmt.Errorf("%w: color must be auto, always or never, got %q", ErrInvalidConfig, c.Color)
	}
	if c.Jobs < 1 {
		return fmt.Errorf("%w: jobs must be at least 1, got %d", ErrInvalidConfig, c.Jobs)
	}
	if c.Sheet == "" {
		return fmt.Errorf("%w: sheet must not be empty", ErrInvalidConfig)
	}
	return nil
}
