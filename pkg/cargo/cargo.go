// Package cargo resolves the cargo executable and the project metadata
// needed to locate build output directories.
package cargo

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// DefaultExecutable is invoked when $CARGO is unset or blank
const DefaultExecutable = "cargo"

// ResolveExecutable returns the value of $CARGO when it is non-blank,
// otherwise DefaultExecutable. getenv is usually os.Getenv.
func ResolveExecutable(getenv func(string) string) string {
	if getenv != nil {
		if v := getenv("CARGO"); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return DefaultExecutable
}

// MetadataOutput is the subset of `cargo metadata` output we read
type MetadataOutput struct {
	TargetDirectory string `json:"target_directory"`
}

// MetadataRunner queries the build tool for project metadata
type MetadataRunner interface {
	RunMetadataQuery(ctx context.Context) (MetadataOutput, error)
}

// ExecMetadataRunner runs `cargo metadata` as a child process
type ExecMetadataRunner struct {
	Executable string
	Dir        string
}

// NewExecMetadataRunner creates a runner for the given executable and working directory
func NewExecMetadataRunner(executable, dir string) *ExecMetadataRunner {
	return &ExecMetadataRunner{Executable: executable, Dir: dir}
}

// RunMetadataQuery implements MetadataRunner
func (r *ExecMetadataRunner) RunMetadataQuery(ctx context.Context) (MetadataOutput, error) {
	cmd := exec.CommandContext(ctx, r.Executable, "metadata", "--no-deps", "--format-version", "1")
	cmd.Dir = r.Dir

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return MetadataOutput{}, &EnvironmentError{
				Op:  fmt.Sprintf("`%s metadata`", r.Executable),
				Err: fmt.Errorf("%w with status %d: %s", ErrMetadataFailed, exitErr.ExitCode(), strings.TrimSpace(stderr.String())),
			}
		}
		return MetadataOutput{}, &EnvironmentError{
			Op:  fmt.Sprintf("failed to execute `%s metadata`", r.Executable),
			Err: fmt.Errorf("%w: %v", ErrCargoNotFound, err),
		}
	}

	return ParseMetadata(r.Executable, stdout.Bytes())
}

// ParseMetadata decodes `cargo metadata` JSON output. Unknown fields are ignored.
func ParseMetadata(executable string, data []byte) (MetadataOutput, error) {
	var out MetadataOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return MetadataOutput{}, &EnvironmentError{
			Op:  fmt.Sprintf("`%s metadata`", executable),
			Err: fmt.Errorf("%w: %v", ErrMetadataParse, err),
		}
	}
	if out.TargetDirectory == "" {
		return MetadataOutput{}, &EnvironmentError{
			Op:  fmt.Sprintf("`%s metadata`", executable),
			Err: fmt.Errorf("%w: missing target_directory", ErrMetadataParse),
		}
	}
	return out, nil
}

// Options configures a Resolver. Nothing is read from ambient process state;
// callers pass the working directory and CARGO_HOME explicitly.
type Options struct {
	// WorkingDir is where cargo runs and where config discovery ends
	WorkingDir string
	// CargoHome holds the lowest precedence config file; empty skips it
	CargoHome string
	// LoadOverrides reads profile dir-name overrides. Only explicit profile
	// selections consult them, so default discovery leaves this off.
	LoadOverrides bool
}

// Resolver builds the ProjectMetadata for one run
type Resolver struct {
	runner        MetadataRunner
	workingDir    string
	cargoHome     string
	loadOverrides bool
	logger        logger.Logger
}

// NewResolver creates a resolver using runner for the metadata query
func NewResolver(runner MetadataRunner, opts Options, log logger.Logger) *Resolver {
	if log == nil {
		log = logger.Nop()
	}
	return &Resolver{
		runner:        runner,
		workingDir:    opts.WorkingDir,
		cargoHome:     opts.CargoHome,
		loadOverrides: opts.LoadOverrides,
		logger:        log,
	}
}

// Resolve runs the metadata query and, when enabled, loads dir-name
// overrides. All failures are *EnvironmentError.
func (r *Resolver) Resolve(ctx context.Context) (types.ProjectMetadata, error) {
	out, err := r.runner.RunMetadataQuery(ctx)
	if err != nil {
		var envErr *EnvironmentError
		if errors.As(err, &envErr) {
			return types.ProjectMetadata{}, err
		}
		return types.ProjectMetadata{}, &EnvironmentError{Op: "cargo metadata", Err: err}
	}

	targetDir := out.TargetDirectory
	if !filepath.IsAbs(targetDir) {
		targetDir = filepath.Join(r.workingDir, targetDir)
	}
	targetDir = filepath.Clean(targetDir)

	overrides := map[string]string{}
	if r.loadOverrides {
		overrides, err = LoadProfileDirNames(r.workingDir, r.cargoHome)
		if err != nil {
			return types.ProjectMetadata{}, err
		}
	}

	r.logger.Debug("Resolved cargo environment",
		logger.WithField("target_directory", targetDir),
		logger.WithField("overrides", len(overrides)))

	return types.ProjectMetadata{
		TargetDirectory: targetDir,
		ProfileDirNames: overrides,
	}, nil
}

// DefaultCargoHome returns $CARGO_HOME or ~/.cargo, or "" when neither is known
func DefaultCargoHome(getenv func(string) string) string {
	if getenv != nil {
		if v := getenv("CARGO_HOME"); v != "" {
			return v
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".cargo")
}
