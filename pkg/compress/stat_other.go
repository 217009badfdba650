//go:build !unix

package compress

import "io/fs"

func linkCount(fs.FileInfo) uint64 {
	return 1
}

func diskUsage(info fs.FileInfo) int64 {
	return info.Size()
}
