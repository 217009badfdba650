// Package workdir maps cargo profiles to output directories and decides
// which directories a run will lock and compress.
package workdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/cargo-apfs-compress/cargo-apfs-compress/pkg/types"
)

// Root level directories that never hold build profiles
var rootSkipDirs = map[string]bool{
	"doc":     true,
	"package": true,
	"tmp":     true,
}

// Per-target children that are cargo internals, not profiles
var profileSkipDirs = map[string]bool{
	".fingerprint": true,
	"build":        true,
	"deps":         true,
	"examples":     true,
	"incremental":  true,
}

// DiscoveryError reports a failure reading the artifact tree during default discovery
type DiscoveryError struct {
	Path string
	Err  error
}

func (e *DiscoveryError) Error() string {
	return fmt.Sprintf("failed reading %s: %v", e.Path, e.Err)
}

func (e *DiscoveryError) Unwrap() error {
	return e.Err
}

// DirName returns the directory cargo uses for profile. An override for the
// exact profile name wins over the builtin table.
func DirName(profile string, overrides map[string]string) string {
	if dir, ok := overrides[profile]; ok {
		return dir
	}

	switch profile {
	case "dev", "test":
		return "debug"
	case "bench", "release":
		return "release"
	default:
		return profile
	}
}

// Explicit builds the cross product of profiles and targets under root.
// Without targets each profile resolves to <root>/<dir>.
func Explicit(root string, profiles, targets []string, overrides map[string]string) []string {
	var out []string
	for _, profile := range profiles {
		dir := DirName(profile, overrides)
		if len(targets) == 0 {
			out = append(out, filepath.Join(root, dir))
			continue
		}
		for _, target := range targets {
			out = append(out, filepath.Join(root, target, dir))
		}
	}
	return normalize(out)
}

// Discover enumerates profile directories under root. When targets is
// non-empty only those triple directories are walked.
func Discover(root string, targets []string) ([]string, error) {
	filters := make(map[string]bool, len(targets))
	for _, t := range targets {
		filters[t] = true
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, &DiscoveryError{Path: root, Err: err}
	}

	var out []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		name := entry.Name()
		if skipRoot(name) {
			continue
		}

		path := filepath.Join(root, name)
		switch {
		case len(filters) > 0:
			if !filters[name] {
				continue
			}
			children, err := profileDirs(path)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		case LooksLikeTargetTriple(name):
			children, err := profileDirs(path)
			if err != nil {
				return nil, err
			}
			out = append(out, children...)
		default:
			out = append(out, path)
		}
	}

	return normalize(out), nil
}

// Resolve returns the sorted, de-duplicated directories for one run
func Resolve(meta types.ProjectMetadata, selection types.ProfileSelection) ([]string, error) {
	if selection.IsDefault() {
		return Discover(meta.TargetDirectory, selection.Targets)
	}
	return Explicit(meta.TargetDirectory, selection.Profiles, selection.Targets, meta.ProfileDirNames), nil
}

// LooksLikeTargetTriple reports whether name has the shape arch-vendor-os[-env]
func LooksLikeTargetTriple(name string) bool {
	return strings.Count(name, "-") >= 2
}

func profileDirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &DiscoveryError{Path: dir, Err: err}
	}

	var out []string
	for _, entry := range entries {
		if !entry.IsDir() || skipProfile(entry.Name()) {
			continue
		}
		out = append(out, filepath.Join(dir, entry.Name()))
	}
	return out, nil
}

func skipRoot(name string) bool {
	return isHidden(name) || rootSkipDirs[name]
}

func skipProfile(name string) bool {
	return isHidden(name) || profileSkipDirs[name]
}

func isHidden(name string) bool {
	return strings.HasPrefix(name, ".")
}

// normalize sorts paths and drops duplicates
func normalize(paths []string) []string {
	if len(paths) == 0 {
		return []string{}
	}
	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	out := sorted[:1]
	for _, p := range sorted[1:] {
		if p != out[len(out)-1] {
			out = append(out, p)
		}
	}
	return out
}
