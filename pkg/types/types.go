// Package types provides core types shared across cargo-apfs-compress
package types

import (
	"fmt"
	"strings"
	"time"
)

// CompressionKind represents supported transparent compression algorithms
type CompressionKind string

const (
	CompressionLZFSE CompressionKind = "lzfse"
	CompressionZlib  CompressionKind = "zlib"
	CompressionLZVN  CompressionKind = "lzvn"
)

// DefaultCompression is used when no kind is selected
const DefaultCompression = CompressionLZFSE

// CompressionKinds returns every supported kind in display order
func CompressionKinds() []CompressionKind {
	return []CompressionKind{CompressionLZFSE, CompressionZlib, CompressionLZVN}
}

// ParseCompressionKind parses a user supplied kind, case-insensitively
func ParseCompressionKind(s string) (CompressionKind, error) {
	kind := CompressionKind(strings.ToLower(strings.TrimSpace(s)))
	for _, k := range CompressionKinds() {
		if k == kind {
			return k, nil
		}
	}
	return "", fmt.Errorf("invalid compression kind %q (expected one of lzfse, zlib, lzvn)", s)
}

// Verbosity represents how much progress output is printed
type Verbosity string

const (
	VerbosityQuiet   Verbosity = "quiet"
	VerbosityNormal  Verbosity = "normal"
	VerbosityVerbose Verbosity = "verbose"
)

// ParseVerbosity parses a verbosity name
func ParseVerbosity(s string) (Verbosity, error) {
	switch v := Verbosity(strings.ToLower(strings.TrimSpace(s))); v {
	case VerbosityQuiet, VerbosityNormal, VerbosityVerbose:
		return v, nil
	case "":
		return VerbosityNormal, nil
	default:
		return "", fmt.Errorf("invalid verbosity %q (expected quiet, normal or verbose)", s)
	}
}

// LogLevel returns the logrus level name matching the verbosity
func (v Verbosity) LogLevel() string {
	switch v {
	case VerbosityQuiet:
		return "warn"
	case VerbosityVerbose:
		return "debug"
	default:
		return "info"
	}
}

// ProjectMetadata is derived once per run from the build tool and is read-only afterwards
type ProjectMetadata struct {
	// TargetDirectory is the absolute root artifact directory
	TargetDirectory string `json:"targetDirectory" yaml:"targetDirectory"`
	// ProfileDirNames maps a profile name to its dir-name override
	ProfileDirNames map[string]string `json:"profileDirNames,omitempty" yaml:"profileDirNames,omitempty"`
}

// ProfileSelection holds the profiles and target triples chosen by the caller
type ProfileSelection struct {
	Profiles []string `json:"profiles,omitempty" yaml:"profiles,omitempty"`
	Targets  []string `json:"targets,omitempty" yaml:"targets,omitempty"`
}

// IsDefault reports whether no profile was selected and discovery should run
func (s ProfileSelection) IsDefault() bool {
	return len(s.Profiles) == 0
}

// OutcomeStatus represents the result of processing one work directory
type OutcomeStatus string

const (
	OutcomeSkipped   OutcomeStatus = "skipped"
	OutcomeSucceeded OutcomeStatus = "succeeded"
	OutcomeFailed    OutcomeStatus = "failed"
)

// ReasonDirectoryMissing is the skip reason for directories absent at worker start
const ReasonDirectoryMissing = "directory missing"

// WorkOutcome is produced by exactly one worker per directory
type WorkOutcome struct {
	Dir      string        `json:"dir" yaml:"dir"`
	Status   OutcomeStatus `json:"status" yaml:"status"`
	Reason   string        `json:"reason,omitempty" yaml:"reason,omitempty"`
	Err      error         `json:"-" yaml:"-"`
	Duration time.Duration `json:"duration" yaml:"duration"`
}

// Skipped creates a skipped outcome
func Skipped(dir, reason string) WorkOutcome {
	return WorkOutcome{Dir: dir, Status: OutcomeSkipped, Reason: reason}
}

// Succeeded creates a succeeded outcome
func Succeeded(dir string, d time.Duration) WorkOutcome {
	return WorkOutcome{Dir: dir, Status: OutcomeSucceeded, Duration: d}
}

// Failed creates a failed outcome carrying err
func Failed(dir string, err error, d time.Duration) WorkOutcome {
	o := WorkOutcome{Dir: dir, Status: OutcomeFailed, Err: err, Duration: d}
	if err != nil {
		o.Reason = err.Error()
	}
	return o
}

// AggregateResult reduces every WorkOutcome of a run
type AggregateResult struct {
	Outcomes []WorkOutcome `json:"outcomes" yaml:"outcomes"`
}

// Success reports whether no outcome failed. Skipped outcomes never fail a run.
func (r AggregateResult) Success() bool {
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			return false
		}
	}
	return true
}

// Count returns the number of outcomes with the given status
func (r AggregateResult) Count(status OutcomeStatus) int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Failures returns the failed outcomes in dispatch order
func (r AggregateResult) Failures() []WorkOutcome {
	var failed []WorkOutcome
	for _, o := range r.Outcomes {
		if o.Status == OutcomeFailed {
			failed = append(failed, o)
		}
	}
	return failed
}

// ExitCode maps the aggregate to a process exit status
func (r AggregateResult) ExitCode() int {
	if r.Success() {
		return 0
	}
	return 1
}

// Summary returns a one-line human readable summary
func (r AggregateResult) Summary() string {
	return fmt.Sprintf("%d succeeded, %d skipped, %d failed",
		r.Count(OutcomeSucceeded), r.Count(OutcomeSkipped), r.Count(OutcomeFailed))
}
