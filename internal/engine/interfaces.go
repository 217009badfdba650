package engine

import (
	"context"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/compress"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/lock"
)

// Locker holds a directory's build lock while fn runs.
// lock.Manager is the production implementation.
type Locker interface {
	WithLock(ctx context.Context, dir string, fn func() error) error
}

var _ Locker = (*lock.Manager)(nil)

// Dependencies are the collaborators a Dispatcher needs
type Dependencies struct {
	Compressor compress.Compressor
	Locker     Locker
}
