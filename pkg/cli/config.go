package cli

import (
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/cargo"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/compress"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/notifier"
)

// Config holds the process-level CLI inputs, keeping the command free of globals
type Config struct {
	ConfigFile string
	// WorkingDir is where cargo runs and .cargo/config discovery ends
	WorkingDir string
	Version    string
}

// NewConfig creates a new CLI configuration with defaults
func NewConfig() *Config {
	return &Config{
		WorkingDir: ".",
		Version:    "dev",
	}
}

// Option overrides a collaborator, mainly for tests
type Option func(*CLI)

// WithMetadataRunner replaces the `cargo metadata` invocation
func WithMetadataRunner(r cargo.MetadataRunner) Option {
	return func(c *CLI) {
		c.metadataRunner = r
	}
}

// WithCompressor replaces the afsctool based compressor
func WithCompressor(comp compress.Compressor) Option {
	return func(c *CLI) {
		c.compressor = comp
	}
}

// WithNotificationSender replaces desktop notification delivery
func WithNotificationSender(send notifier.SendFunc) Option {
	return func(c *CLI) {
		c.notify = send
	}
}

// WithGetenv replaces os.Getenv for CARGO and CARGO_HOME lookups
func WithGetenv(getenv func(string) string) Option {
	return func(c *CLI) {
		c.getenv = getenv
	}
}
