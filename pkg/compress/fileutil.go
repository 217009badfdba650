package compress

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// copyToTemp copies src to a hidden sibling and returns the sibling's path.
// The copy keeps the source permissions.
func copyToTemp(src string, info fs.FileInfo) (string, error) {
	sourceFile, err := os.Open(src)
	if err != nil {
		return "", err
	}
	defer sourceFile.Close()

	dir, base := filepath.Split(src)
	destFile, err := os.CreateTemp(dir, "."+base+".apfs-*")
	if err != nil {
		return "", err
	}
	tmp := destFile.Name()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		destFile.Close()
		os.Remove(tmp)
		return "", err
	}
	if err := destFile.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}

	if err := os.Chmod(tmp, info.Mode().Perm()); err != nil {
		os.Remove(tmp)
		return "", err
	}
	return tmp, nil
}

// replaceFile renames tmp over dst after restoring dst's modification time
func replaceFile(tmp, dst string, info fs.FileInfo) error {
	if err := os.Chtimes(tmp, info.ModTime(), info.ModTime()); err != nil {
		return err
	}
	return os.Rename(tmp, dst)
}

// FormatBytes formats bytes into human-readable string
func FormatBytes(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
