package dupfind

import (
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
)

// hostFS is a billy.Filesystem that addresses the native filesystem with
// ordinary paths. Unlike osfs.New it does not chroot, so Readlink returns link
// targets exactly as stored on disk.
type hostFS struct {
	osfs.ChrootOS
}

// NewHostFS returns a filesystem backed by the operating system.
func NewHostFS() billy.Filesystem {
	return &hostFS{}
}

// Chroot returns a new filesystem rooted at the provided path.
func (h *hostFS) Chroot(path string) (billy.Filesystem, error) {
	return osfs.New(path), nil
}

// Root returns the root path for this filesystem.
func (h *hostFS) Root() string {
	return "/"
}
