package engine

import (
	"fmt"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
)

// SafeGroup wraps errgroup.Group with panic recovery. Unlike
// errgroup.WithContext it never cancels siblings: one failing directory
// must not stop the others.
type SafeGroup struct {
	group  errgroup.Group
	logger logger.Logger
}

// NewSafeGroup creates a new SafeGroup with panic recovery
func NewSafeGroup(log logger.Logger) *SafeGroup {
	if log == nil {
		log = logger.Nop()
	}
	return &SafeGroup{logger: log}
}

// Go runs fn in a new goroutine. A panic is logged with its stack trace
// and converted to an error.
func (sg *SafeGroup) Go(fn func() error) {
	sg.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				sg.logger.Error("Goroutine panic recovered",
					logger.WithField("panic", r),
					logger.WithField("stack_trace", string(debug.Stack())))
				err = fmt.Errorf("goroutine panic: %v", r)
			}
		}()

		return fn()
	})
}

// SetLimit bounds the number of concurrent goroutines. n <= 0 means no limit.
// Must be called before Go.
func (sg *SafeGroup) SetLimit(n int) {
	if n <= 0 {
		n = -1
	}
	sg.group.SetLimit(n)
}

// Wait blocks until every goroutine has returned and reports the first error
func (sg *SafeGroup) Wait() error {
	return sg.group.Wait()
}
