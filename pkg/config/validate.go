package config

import (
	"fmt"
	"strings"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// ValidationError describes one invalid setting
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors collects every problem found in a Config
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, err := range e {
		msgs[i] = err.Error()
	}
	return "invalid configuration: " + strings.Join(msgs, "; ")
}

// Validate checks every field and returns all problems found
func (c *Config) Validate() ValidationErrors {
	var errs ValidationErrors

	if _, err := types.ParseCompressionKind(c.Compression); err != nil {
		errs = append(errs, ValidationError{
			Field:   "compression",
			Value:   c.Compression,
			Message: "must be one of lzfse, zlib, lzvn",
		})
	}

	if _, err := types.ParseVerbosity(c.Verbosity); err != nil {
		errs = append(errs, ValidationError{
			Field:   "verbosity",
			Value:   c.Verbosity,
			Message: "must be one of quiet, normal, verbose",
		})
	}

	if c.LockTimeout < 0 {
		errs = append(errs, ValidationError{
			Field:   "lock_timeout",
			Value:   c.LockTimeout,
			Message: "must not be negative",
		})
	}

	if c.Jobs < 0 {
		errs = append(errs, ValidationError{
			Field:   "jobs",
			Value:   c.Jobs,
			Message: "must not be negative",
		})
	}

	if strings.TrimSpace(c.Compressor.Command) == "" {
		errs = append(errs, ValidationError{
			Field:   "compressor.command",
			Value:   c.Compressor.Command,
			Message: "must not be empty",
		})
	}

	return errs
}
