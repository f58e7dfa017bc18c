//go:build linux

package dupfind

import "golang.org/x/sys/unix"

type fder interface {
	Fd() uintptr
}

// adviseSequential tells the kernel the whole file is about to be read once,
// front to back. Files without a descriptor (in-memory filesystems) are left alone.
func adviseSequential(file any) {
	f, ok := file.(fder)
	if !ok {
		return
	}
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil && IsDebugEnabled("hash") {
		VerboseLog(3, "fadvise failed: %v", err)
	}
}
