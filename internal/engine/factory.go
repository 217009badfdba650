package engine

import (
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/compress"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/config"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/lock"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
)

// DependencyFactory creates the production collaborators from configuration
type DependencyFactory struct {
	config *config.Config
	logger logger.Logger
}

// NewDependencyFactory creates a new dependency factory
func NewDependencyFactory(cfg *config.Config, log logger.Logger) *DependencyFactory {
	if cfg == nil {
		cfg = config.Default()
	}
	if log == nil {
		log = logger.Nop()
	}
	return &DependencyFactory{config: cfg, logger: log}
}

// CreateDefaults creates the afsctool compressor and the flock based locker
func (f *DependencyFactory) CreateDefaults() Dependencies {
	return Dependencies{
		Compressor: compress.NewFileCompressor(f.config.CompressorOptions(), f.logger),
		Locker:     lock.NewManager(f.logger, lock.WithTimeout(f.config.LockTimeout)),
	}
}

// CreateWithOverrides fills any dependency left nil in overrides with its default
func (f *DependencyFactory) CreateWithOverrides(overrides Dependencies) Dependencies {
	deps := overrides
	defaults := f.CreateDefaults()
	if deps.Compressor == nil {
		deps.Compressor = defaults.Compressor
	}
	if deps.Locker == nil {
		deps.Locker = defaults.Locker
	}
	return deps
}

// Options returns the dispatcher options carried by the configuration
func (f *DependencyFactory) Options() Options {
	return Options{
		Kind: f.config.Kind(),
		Jobs: f.config.Jobs,
	}
}
