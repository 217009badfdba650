package engine

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"syscall"
	"time"

	pcontext "github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/context"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/lock"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// Options tunes a Dispatcher
type Options struct {
	Kind types.CompressionKind
	// Jobs bounds concurrent workers; zero runs one worker per directory
	Jobs int
}

// Dispatcher runs one worker per work directory and reduces the outcomes
type Dispatcher struct {
	deps   Dependencies
	kind   types.CompressionKind
	jobs   int
	logger logger.Logger
}

// New creates a Dispatcher. Both dependencies are required.
func New(deps Dependencies, opts Options, log logger.Logger) *Dispatcher {
	if deps.Compressor == nil {
		panic("Compressor dependency is required")
	}
	if deps.Locker == nil {
		panic("Locker dependency is required")
	}
	if log == nil {
		log = logger.Nop()
	}
	kind := opts.Kind
	if kind == "" {
		kind = types.DefaultCompression
	}
	return &Dispatcher{
		deps:   deps,
		kind:   kind,
		jobs:   opts.Jobs,
		logger: log,
	}
}

// Run processes every directory and waits for all of them. Outcomes keep
// the order of dirs. A failure in one directory never stops another.
func (d *Dispatcher) Run(ctx context.Context, dirs []string) types.AggregateResult {
	ctx = pcontext.WithOperation(ctx, "compress")
	log := logger.WithContext(ctx, d.logger)

	outcomes := make([]types.WorkOutcome, len(dirs))

	sg := NewSafeGroup(log)
	sg.SetLimit(d.jobs)
	for i, dir := range dirs {
		i, dir := i, dir
		sg.Go(func() error {
			outcomes[i] = d.runWorker(ctx, dir, log.WithDir(dir))
			return nil
		})
	}
	if err := sg.Wait(); err != nil {
		log.Error("Worker group failed", logger.WithField("error", err))
	}

	result := types.AggregateResult{Outcomes: outcomes}
	log.Debug("Run complete",
		logger.WithField("succeeded", result.Count(types.OutcomeSucceeded)),
		logger.WithField("skipped", result.Count(types.OutcomeSkipped)),
		logger.WithField("failed", result.Count(types.OutcomeFailed)))
	return result
}

// runWorker processes one directory and logs its outcome
func (d *Dispatcher) runWorker(ctx context.Context, dir string, log logger.Logger) (outcome types.WorkOutcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			outcome = types.Failed(dir, fmt.Errorf("worker panic: %v", r), time.Since(start))
			log.Error(outcome.Reason)
		}
	}()

	outcome = d.process(ctx, dir, log, start)

	switch outcome.Status {
	case types.OutcomeSkipped:
		log.Info(fmt.Sprintf("skip (%s)", outcome.Reason))
	case types.OutcomeSucceeded:
		log.Success("ok", logger.WithField("duration", outcome.Duration.Round(time.Millisecond)))
	case types.OutcomeFailed:
		log.Error(outcome.Reason)
	}
	return outcome
}

func (d *Dispatcher) process(ctx context.Context, dir string, log logger.Logger, start time.Time) types.WorkOutcome {
	info, err := os.Stat(dir)
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return types.Skipped(dir, types.ReasonDirectoryMissing)
	}
	if err != nil {
		return types.Failed(dir, fmt.Errorf("failed to stat %s: %w", dir, err), time.Since(start))
	}
	if !info.IsDir() {
		return types.Failed(dir, fmt.Errorf("%s is not a directory", dir), time.Since(start))
	}

	err = d.deps.Locker.WithLock(ctx, dir, func() error {
		inputs, err := collectInputs(dir, log)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			log.Debug("Nothing to compress")
			return nil
		}
		if err := d.deps.Compressor.Compress(ctx, inputs, d.kind); err != nil {
			return fmt.Errorf("compression failed for %s: %w", dir, err)
		}
		return nil
	})
	if err != nil {
		return types.Failed(dir, err, time.Since(start))
	}
	return types.Succeeded(dir, time.Since(start))
}

// collectInputs lists the top-level entries of dir except the lock file
func collectInputs(dir string, log logger.Logger) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed reading %s: %w", dir, err)
	}

	inputs := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.Name() == lock.FileName {
			log.Debug(fmt.Sprintf("exclude %s from %s", lock.FileName, dir))
			continue
		}
		inputs = append(inputs, filepath.Join(dir, entry.Name()))
	}
	return inputs, nil
}
