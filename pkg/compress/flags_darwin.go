package compress

import (
	"io/fs"
	"syscall"
)

// ufCompressed is UF_COMPRESSED from <sys/stat.h>
const ufCompressed = 0x00000020

func isCompressed(info fs.FileInfo) bool {
	st, ok := info.Sys().(*syscall.Stat_t)
	return ok && st.Flags&ufCompressed != 0
}
