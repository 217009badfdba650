// Package lock takes the per-directory build lock cargo itself uses.
//
// Cargo guards every output directory with an exclusive flock(2) on a file
// named .cargo-lock. Holding the same lock keeps a concurrent `cargo build`
// and a compression run from touching the directory at the same time.
package lock

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
)

// FileName is the lock file cargo creates in each build directory
const FileName = ".cargo-lock"

// BlockingMessage is logged before waiting on a lock held elsewhere
const BlockingMessage = "Blocking waiting for file lock on build directory"

// DefaultRetryDelay is the poll interval used when a timeout is configured
const DefaultRetryDelay = 50 * time.Millisecond

// ErrLockTimeout is returned when the configured lock timeout elapses
var ErrLockTimeout = errors.New("timed out waiting for build directory lock")

// LockError reports an unrecoverable failure acquiring a directory lock
type LockError struct {
	Dir string
	Err error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("failed to lock %s: %v", e.Dir, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// Manager acquires directory locks
type Manager struct {
	logger     logger.Logger
	timeout    time.Duration
	retryDelay time.Duration
}

// Option configures a Manager
type Option func(*Manager)

// WithTimeout bounds how long Acquire waits for a contended lock.
// Zero waits forever.
func WithTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.timeout = d
	}
}

// WithRetryDelay sets the poll interval used with WithTimeout
func WithRetryDelay(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.retryDelay = d
		}
	}
}

// NewManager creates a lock manager
func NewManager(log logger.Logger, opts ...Option) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	m := &Manager{
		logger:     log,
		retryDelay: DefaultRetryDelay,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Handle is exclusive ownership of one directory's lock
type Handle struct {
	dir  string
	fl   *flock.Flock
	once sync.Once
	err  error
}

// Dir returns the locked directory
func (h *Handle) Dir() string {
	return h.dir
}

// Path returns the lock file path
func (h *Handle) Path() string {
	return h.fl.Path()
}

// Release unlocks and closes the lock file. Safe to call more than once.
func (h *Handle) Release() error {
	h.once.Do(func() {
		h.err = h.fl.Close()
	})
	return h.err
}

// Acquire locks dir/.cargo-lock, creating it if needed. Contention is not
// an error: Acquire waits until the holder releases, or until the
// configured timeout elapses.
func (m *Manager) Acquire(ctx context.Context, dir string) (*Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, &LockError{Dir: dir, Err: err}
	}

	fl := flock.New(filepath.Join(dir, FileName),
		flock.SetFlag(os.O_CREATE|os.O_RDWR),
		flock.SetPermissions(0o644),
	)
	handle := &Handle{dir: dir, fl: fl}

	ok, err := fl.TryLock()
	if err != nil {
		if isUnsupported(err) {
			m.logger.Debug("File locking unsupported, continuing without lock",
				logger.WithField("dir", dir))
			return handle, nil
		}
		_ = fl.Close()
		return nil, &LockError{Dir: dir, Err: err}
	}
	if ok {
		return handle, nil
	}

	m.logger.WithDir(dir).Info(BlockingMessage)

	if err := m.wait(ctx, fl); err != nil {
		_ = fl.Close()
		if isUnsupported(err) {
			return handle, nil
		}
		return nil, &LockError{Dir: dir, Err: err}
	}

	return handle, nil
}

// wait blocks until fl is locked. A context that can never be cancelled
// takes the kernel's blocking lock, anything else is polled.
func (m *Manager) wait(ctx context.Context, fl *flock.Flock) error {
	if m.timeout <= 0 {
		if ctx.Done() == nil {
			return fl.Lock()
		}
		ok, err := fl.TryLockContext(ctx, m.retryDelay)
		if err != nil {
			return err
		}
		if !ok {
			return ctx.Err()
		}
		return nil
	}

	waitCtx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	ok, err := fl.TryLockContext(waitCtx, m.retryDelay)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s", ErrLockTimeout, m.timeout)
		}
		return err
	}
	if !ok {
		return fmt.Errorf("%w after %s", ErrLockTimeout, m.timeout)
	}
	return nil
}

// WithLock runs fn while holding the lock on dir. The lock is released on
// every return path, including a panic in fn.
func (m *Manager) WithLock(ctx context.Context, dir string, fn func() error) error {
	handle, err := m.Acquire(ctx, dir)
	if err != nil {
		return err
	}
	defer func() {
		if err := handle.Release(); err != nil {
			m.logger.WithDir(dir).Warn("Failed to release lock", logger.WithField("error", err))
		}
	}()

	return fn()
}

// isUnsupported matches the errors cargo treats as "locking not available
// on this filesystem"
func isUnsupported(err error) bool {
	return errors.Is(err, errors.ErrUnsupported)
}
