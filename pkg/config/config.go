// Package config loads cargo-apfs-compress settings from defaults, an
// optional config file, CARGO_APFS_COMPRESS_* environment variables and
// command line flags, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/compress"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// EnvPrefix is prepended to every environment variable key
const EnvPrefix = "CARGO_APFS_COMPRESS"

// FileName is the config file base name searched for without an explicit --config
const FileName = "cargo-apfs-compress"

// Config holds every tunable setting for one run
type Config struct {
	Compression   string              `mapstructure:"compression"`
	Verbosity     string              `mapstructure:"verbosity"`
	LockTimeout   time.Duration       `mapstructure:"lock_timeout"`
	Jobs          int                 `mapstructure:"jobs"`
	Report        string              `mapstructure:"report"`
	LogFile       string              `mapstructure:"log_file"`
	Compressor    CompressorConfig    `mapstructure:"compressor"`
	Notifications NotificationsConfig `mapstructure:"notifications"`
}

// CompressorConfig selects the external compression tool
type CompressorConfig struct {
	Command string   `mapstructure:"command"`
	Args    []string `mapstructure:"args"`
}

// NotificationsConfig controls the desktop notification sent after a run
type NotificationsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Sound   string `mapstructure:"sound"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		Compression: string(types.DefaultCompression),
		Verbosity:   string(types.VerbosityNormal),
		Compressor: CompressorConfig{
			Command: compress.DefaultCommand,
			Args:    compress.DefaultArgs(),
		},
	}
}

// SetDefaults registers every key with v so environment variables are honored
func SetDefaults(v *viper.Viper) {
	defaults := Default()

	v.SetDefault("compression", defaults.Compression)
	v.SetDefault("verbosity", defaults.Verbosity)
	v.SetDefault("lock_timeout", defaults.LockTimeout)
	v.SetDefault("jobs", defaults.Jobs)
	v.SetDefault("report", defaults.Report)
	v.SetDefault("log_file", defaults.LogFile)

	v.SetDefault("compressor.command", defaults.Compressor.Command)
	v.SetDefault("compressor.args", defaults.Compressor.Args)

	v.SetDefault("notifications.enabled", defaults.Notifications.Enabled)
	v.SetDefault("notifications.sound", defaults.Notifications.Sound)
}

// New returns a viper instance with defaults and environment binding applied
func New() *viper.Viper {
	v := viper.New()
	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	return v
}

// ReadFile loads configFile, or searches workingDir and the user config
// directory for cargo-apfs-compress.{yaml,yml,json,toml}. A missing file is
// only an error when configFile was given. Returns the file used, if any.
func ReadFile(v *viper.Viper, configFile, workingDir string) (string, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName(FileName)
		if workingDir != "" {
			v.AddConfigPath(workingDir)
		}
		v.AddConfigPath(Dir())
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", fmt.Errorf("failed to read config file: %w", err)
	}
	return v.ConfigFileUsed(), nil
}

// Load decodes v into a Config and validates it
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// Kind returns the parsed compression kind. Call after Validate.
func (c *Config) Kind() types.CompressionKind {
	kind, err := types.ParseCompressionKind(c.Compression)
	if err != nil {
		return types.DefaultCompression
	}
	return kind
}

// Level returns the parsed verbosity. Call after Validate.
func (c *Config) Level() types.Verbosity {
	v, err := types.ParseVerbosity(c.Verbosity)
	if err != nil {
		return types.VerbosityNormal
	}
	return v
}

// CompressorOptions converts the compressor section for compress.NewFileCompressor
func (c *Config) CompressorOptions() compress.Options {
	return compress.Options{
		Command: c.Compressor.Command,
		Args:    c.Compressor.Args,
	}
}

// Dir returns the per-user config directory
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, FileName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + FileName
	}
	return filepath.Join(home, ".config", FileName)
}
