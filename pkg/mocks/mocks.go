// Package mocks provides test doubles for the compression collaborator
package mocks

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// ErrInjected is returned by FakeCompressor for directories listed in FailOn
var ErrInjected = errors.New("injected compression failure")

// CompressCall records one Compress invocation
type CompressCall struct {
	Dir   string
	Paths []string
	Kind  types.CompressionKind
	Start time.Time
	End   time.Time
}

// FakeCompressor is an in-memory Compressor. Calls are keyed by the parent
// directory of the first path, which is the work directory for dispatcher
// calls.
type FakeCompressor struct {
	mu     sync.Mutex
	calls  []CompressCall
	delay  time.Duration
	failOn map[string]error
	active int
	peak   int
}

// NewFakeCompressor creates a fake that succeeds immediately
func NewFakeCompressor() *FakeCompressor {
	return &FakeCompressor{
		failOn: make(map[string]error),
	}
}

// SetDelay makes every call sleep for d while "compressing"
func (f *FakeCompressor) SetDelay(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.delay = d
}

// FailOn makes calls for dir return err, or ErrInjected when err is nil
func (f *FakeCompressor) FailOn(dir string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err == nil {
		err = ErrInjected
	}
	f.failOn[dir] = err
}

// Compress implements compress.Compressor
func (f *FakeCompressor) Compress(ctx context.Context, paths []string, kind types.CompressionKind) error {
	dir := ""
	if len(paths) > 0 {
		dir = filepath.Dir(paths[0])
	}

	f.mu.Lock()
	delay := f.delay
	failure := f.failOn[dir]
	f.active++
	if f.active > f.peak {
		f.peak = f.active
	}
	f.mu.Unlock()

	start := time.Now()
	if delay > 0 {
		time.Sleep(delay)
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	f.mu.Lock()
	f.active--
	f.calls = append(f.calls, CompressCall{
		Dir:   dir,
		Paths: sorted,
		Kind:  kind,
		Start: start,
		End:   time.Now(),
	})
	f.mu.Unlock()

	return failure
}

// Calls returns a copy of the recorded calls in completion order
func (f *FakeCompressor) Calls() []CompressCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]CompressCall(nil), f.calls...)
}

// CallCount returns the number of Compress invocations
func (f *FakeCompressor) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

// PeakConcurrency returns the largest number of overlapping calls seen
func (f *FakeCompressor) PeakConcurrency() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.peak
}
