package cargo

import (
	"errors"
	"fmt"
)

// Sentinel errors for environment resolution.
// Every failure is reported as an *EnvironmentError wrapping one of these.
var (
	// ErrCargoNotFound indicates the cargo executable could not be located or started
	ErrCargoNotFound = errors.New("cargo executable not found")

	// ErrMetadataFailed indicates `cargo metadata` exited unsuccessfully
	ErrMetadataFailed = errors.New("cargo metadata failed")

	// ErrMetadataParse indicates the metadata output could not be decoded
	ErrMetadataParse = errors.New("failed to parse cargo metadata output")

	// ErrConfigParse indicates a .cargo/config file could not be read or parsed
	ErrConfigParse = errors.New("failed to parse cargo config")
)

// EnvironmentError reports a fatal problem determining the project environment.
// It aborts the run before any directory is touched.
type EnvironmentError struct {
	Op   string
	Path string
	Err  error
}

func (e *EnvironmentError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *EnvironmentError) Unwrap() error {
	return e.Err
}
