// Package compress applies transparent APFS compression to build artifacts.
//
// Files are compressed out of place: each eligible file is copied to a hidden
// sibling, the compression tool runs on the copy, and the copy is renamed over
// the original. A crash leaves either the old file or the new one, never a
// partial write.
package compress

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/logger"
	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

//go:generate mockgen -destination=../mocks/mock_compressor.go -package=mocks github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/compress Compressor

// Compressor compresses the files under paths in place
type Compressor interface {
	Compress(ctx context.Context, paths []string, kind types.CompressionKind) error
}

// Default tool invocation. Placeholders are expanded per file.
const (
	DefaultCommand = "afsctool"

	// PlaceholderKind expands to the kind in upper case (LZFSE)
	PlaceholderKind = "{KIND}"
	// PlaceholderKindLower expands to the kind as given (lzfse)
	PlaceholderKindLower = "{kind}"
	// PlaceholderFile expands to the file being compressed; appended when absent
	PlaceholderFile = "{file}"
)

// DefaultArgs returns the afsctool arguments used when none are configured
func DefaultArgs() []string {
	return []string{"-c", "-T", PlaceholderKind}
}

// Options configures a FileCompressor
type Options struct {
	Command string
	Args    []string
}

// FileCompressor runs an external transparent compression tool per file
type FileCompressor struct {
	command string
	args    []string
	logger  logger.Logger
}

// NewFileCompressor creates a compressor. Empty options select afsctool.
func NewFileCompressor(opts Options, log logger.Logger) *FileCompressor {
	if log == nil {
		log = logger.Nop()
	}
	command := opts.Command
	if command == "" {
		command = DefaultCommand
	}
	args := opts.Args
	if len(args) == 0 {
		args = DefaultArgs()
	}
	return &FileCompressor{
		command: command,
		args:    args,
		logger:  log,
	}
}

// Compress implements Compressor. Every eligible file is attempted; the
// failures are returned joined.
func (c *FileCompressor) Compress(ctx context.Context, paths []string, kind types.CompressionKind) error {
	// The caller holds the directory lock; a started run is never cut short.
	ctx = context.WithoutCancel(ctx)

	files, errs := c.collect(paths)

	var stats passStats
	for _, file := range files {
		before, after, err := c.compressFile(ctx, file, kind)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		stats.add(before, after)
	}

	if len(paths) > 0 {
		c.logger.WithDir(filepath.Dir(paths[0])).Info(stats.String(),
			logger.WithField("errors", len(errs)))
	}

	return errors.Join(errs...)
}

// collect walks paths and returns the files that should be compressed
func (c *FileCompressor) collect(paths []string) ([]string, []error) {
	var files []string
	var errs []error

	for _, root := range paths {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				errs = append(errs, fmt.Errorf("failed reading %s: %w", path, err))
				if d != nil && d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !d.Type().IsRegular() {
				return nil
			}

			info, err := d.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to stat %s: %w", path, err))
				return nil
			}
			if reason := skipReason(info); reason != "" {
				c.logger.Debug("Skipping file",
					logger.WithField("path", path),
					logger.WithField("reason", reason))
				return nil
			}

			files = append(files, path)
			return nil
		})
		if err != nil {
			errs = append(errs, err)
		}
	}

	return files, errs
}

// compressFile compresses a copy of path and swaps it into place. It returns
// the disk usage of the file before and after.
func (c *FileCompressor) compressFile(ctx context.Context, path string, kind types.CompressionKind) (int64, int64, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	tmp, err := copyToTemp(path, info)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to copy %s: %w", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = os.Remove(tmp)
		}
	}()

	cmd := exec.CommandContext(ctx, c.command, c.expandArgs(tmp, kind)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg != "" {
			return 0, 0, fmt.Errorf("%s failed on %s: %w: %s", c.command, path, err, msg)
		}
		return 0, 0, fmt.Errorf("%s failed on %s: %w", c.command, path, err)
	}

	if err := replaceFile(tmp, path, info); err != nil {
		return 0, 0, fmt.Errorf("failed to replace %s: %w", path, err)
	}
	committed = true

	before := diskUsage(info)
	after := before
	if st, err := os.Lstat(path); err == nil {
		after = diskUsage(st)
	}

	c.logger.Debug("Compressed file",
		logger.WithField("path", path),
		logger.WithField("before", FormatBytes(before)),
		logger.WithField("after", FormatBytes(after)))
	return before, after, nil
}

// passStats totals one Compress call
type passStats struct {
	files  int
	before int64
	after  int64
}

func (s *passStats) add(before, after int64) {
	s.files++
	s.before += before
	s.after += after
}

// Saved is the disk space released, never negative
func (s passStats) Saved() int64 {
	if s.after >= s.before {
		return 0
	}
	return s.before - s.after
}

func (s passStats) String() string {
	return fmt.Sprintf("Compressed %d files, %s -> %s (saved %s)",
		s.files, FormatBytes(s.before), FormatBytes(s.after), FormatBytes(s.Saved()))
}

// expandArgs fills the argument template for one file
func (c *FileCompressor) expandArgs(file string, kind types.CompressionKind) []string {
	args := make([]string, 0, len(c.args)+1)
	hasFile := false
	for _, arg := range c.args {
		if strings.Contains(arg, PlaceholderFile) {
			hasFile = true
		}
		arg = strings.ReplaceAll(arg, PlaceholderKind, strings.ToUpper(string(kind)))
		arg = strings.ReplaceAll(arg, PlaceholderKindLower, string(kind))
		arg = strings.ReplaceAll(arg, PlaceholderFile, file)
		args = append(args, arg)
	}
	if !hasFile {
		args = append(args, file)
	}
	return args
}

// skipReason explains why a regular file is not compressed, or returns ""
func skipReason(info fs.FileInfo) string {
	switch {
	case info.Size() == 0:
		return "empty"
	case linkCount(info) > 1:
		return "hard link"
	case isCompressed(info):
		return "already compressed"
	default:
		return ""
	}
}
