//go:build !darwin

package compress

import "io/fs"

// Transparent compression only exists on APFS/HFS+
func isCompressed(fs.FileInfo) bool {
	return false
}
