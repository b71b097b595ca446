// Package config resolves everyplayer settings from, in increasing
// priority: defaults, an everyplayer.yaml file, EVERYPLAYER_* environment
// variables, and command-line flags.
package config

import (
	"errors"
	"fmt"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable, e.g. EVERYPLAYER_DB.
const EnvPrefix = "EVERYPLAYER"

// Defaults.
const (
	DefaultDB     = "everyplayer.db"
	DefaultFormat = "text"
)

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// keys are the settings a flag of the same name may override.
var keys = []string{"db", "format", "verbose"}

// Config holds resolved settings.
type Config struct {
	DB      string `mapstructure:"db"`
	Format  string `mapstructure:"format"`
	Verbose bool   `mapstructure:"verbose"`

	// File is the config file that was read, or "" when none was found.
	File string `mapstructure:"-"`
}

// Load resolves the configuration. An explicit path must exist; without
// one, everyplayer.yaml is looked up in the working directory and may be
// absent. Flags that were set on the command line win over every other
// source.
func Load(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	v.SetDefault("db", DefaultDB)
	v.SetDefault("format", DefaultFormat)
	v.SetDefault("verbose", false)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("everyplayer")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	if flags != nil {
		for _, key := range keys {
			if f := flags.Lookup(key); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", key, err)
				}
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.File = v.ConfigFileUsed()

	if !IsValidFormat(cfg.Format) {
		return nil, fmt.Errorf("invalid format %q: must be one of %v", cfg.Format, ValidFormats)
	}
	if cfg.DB == "" {
		return nil, errors.New("db path is empty")
	}
	return &cfg, nil
}

// IsValidFormat checks if the format is one of the allowed values.
func IsValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
