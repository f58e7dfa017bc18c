package dupfind

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-git/go-billy/v5"
)

// TrashOutcome reports what happened to one path handed to Trash.
type TrashOutcome struct {
	Path string `json:"path"`
	Dest string `json:"dest,omitempty"`
	Err  error  `json:"-"`
}

// OK reports whether the path was moved (or would have been, in a dry run).
func (o TrashOutcome) OK() bool {
	return o.Err == nil
}

// Trasher moves files into a trash directory. It is never called by the
// scanner; callers decide which members of a group to pass in.
type Trasher struct {
	fs      billy.Filesystem
	dir     string
	infoDir string // empty unless writing freedesktop.org .trashinfo records
	dryRun  bool
	now     func() time.Time
}

// NewTrasher returns a Trasher that moves files into dir on fs. With dryRun
// set nothing is touched but the outcomes still name their destinations.
func NewTrasher(fs billy.Filesystem, dir string, dryRun bool) *Trasher {
	return &Trasher{fs: fs, dir: filepath.Clean(dir), dryRun: dryRun, now: time.Now}
}

// NewSystemTrasher returns a Trasher for a freedesktop.org trash directory
// such as the one SystemTrashDir reports. Files land in trashDir/files and
// each gets a restore record in trashDir/info, so desktop file managers can
// put them back. Paths handed to Trash must be absolute.
func NewSystemTrasher(fs billy.Filesystem, trashDir string, dryRun bool) *Trasher {
	trashDir = filepath.Clean(trashDir)
	return &Trasher{
		fs:      fs,
		dir:     filepath.Join(trashDir, "files"),
		infoDir: filepath.Join(trashDir, "info"),
		dryRun:  dryRun,
		now:     time.Now,
	}
}

// SystemTrash is the trash directory name that selects the desktop trash.
const SystemTrash = "system"

// SystemTrashDir returns the current user's home trash directory.
func SystemTrashDir() (string, error) {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "Trash"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot locate the system trash: %w", err)
	}
	return filepath.Join(home, ".local", "share", "Trash"), nil
}

// Trash moves every path into the trash directory and returns one outcome per
// path, in order. A failure on one path does not stop the others.
func (t *Trasher) Trash(paths []string) []TrashOutcome {
	defer VerboseEnter()()

	outcomes := make([]TrashOutcome, 0, len(paths))

	if !t.dryRun {
		for _, dir := range []string{t.dir, t.infoDir} {
			if dir == "" {
				continue
			}
			if err := t.fs.MkdirAll(dir, 0700); err != nil {
				err = fmt.Errorf("failed to create trash directory %s: %w", dir, err)
				for _, p := range paths {
					outcomes = append(outcomes, TrashOutcome{Path: p, Err: err})
				}
				return outcomes
			}
		}
	}

	reserved := make(map[string]struct{})
	for _, p := range paths {
		outcome := TrashOutcome{Path: p}

		dest, err := t.destination(p, reserved)
		if err != nil {
			outcome.Err = err
			outcomes = append(outcomes, outcome)
			continue
		}
		outcome.Dest = dest

		if t.dryRun {
			if _, err := t.fs.Lstat(p); err != nil {
				outcome.Err = err
			}
		} else if err := t.trashOne(p, dest); err != nil {
			outcome.Err = err
		}

		if outcome.Err != nil {
			VerboseLog(1, "trash %s failed: %v", p, outcome.Err)
		} else {
			VerboseLog(2, "trash %s -> %s", p, dest)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

// destination picks a free name in the trash directory for path. Names
// handed out earlier in the same call are treated as taken.
func (t *Trasher) destination(path string, reserved map[string]struct{}) (string, error) {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		return "", fmt.Errorf("cannot trash %q", path)
	}

	candidate := t.fs.Join(t.dir, base)
	for n := 1; ; n++ {
		if _, taken := reserved[candidate]; !taken && t.free(candidate) {
			reserved[candidate] = struct{}{}
			return candidate, nil
		}
		candidate = t.fs.Join(t.dir, base+"."+strconv.Itoa(n))
	}
}

// free reports whether dest and its restore record are both unused
func (t *Trasher) free(dest string) bool {
	if _, err := t.fs.Lstat(dest); !errors.Is(err, os.ErrNotExist) {
		return false
	}
	if t.infoDir != "" {
		if _, err := t.fs.Lstat(t.infoPath(dest)); !errors.Is(err, os.ErrNotExist) {
			return false
		}
	}
	return true
}

func (t *Trasher) infoPath(dest string) string {
	return t.fs.Join(t.infoDir, filepath.Base(dest)+".trashinfo")
}

// trashOne writes the restore record, if any, and then moves src. The record
// is removed again when the move fails.
func (t *Trasher) trashOne(src, dest string) error {
	if t.infoDir == "" {
		return t.move(src, dest)
	}

	info := t.infoPath(dest)
	if err := t.writeInfo(info, src); err != nil {
		return fmt.Errorf("failed to write trash info for %s: %w", src, err)
	}
	if err := t.move(src, dest); err != nil {
		t.fs.Remove(info)
		return err
	}
	return nil
}

// writeInfo creates a .trashinfo record. The file is created exclusively so
// two trashers never claim the same name.
func (t *Trasher) writeInfo(info, src string) error {
	f, err := t.fs.OpenFile(info, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(f, "[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		escapeTrashPath(src), t.now().Format("2006-01-02T15:04:05"))
	if closeErr := f.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		t.fs.Remove(info)
	}
	return err
}

// escapeTrashPath percent-encodes each segment of an absolute path
func escapeTrashPath(p string) string {
	segments := strings.Split(filepath.ToSlash(p), "/")
	for i, segment := range segments {
		segments[i] = url.PathEscape(segment)
	}
	return strings.Join(segments, "/")
}

func (t *Trasher) move(src, dest string) error {
	err := t.fs.Rename(src, dest)
	if err == nil {
		return nil
	}
	if !errors.Is(err, syscall.EXDEV) {
		return fmt.Errorf("failed to move %s to trash: %w", src, err)
	}

	// Trash lives on another device
	if err := t.copyFile(src, dest); err != nil {
		return fmt.Errorf("failed to copy %s to trash: %w", src, err)
	}
	if err := t.fs.Remove(src); err != nil {
		return fmt.Errorf("copied %s to trash but failed to remove it: %w", src, err)
	}
	return nil
}

func (t *Trasher) copyFile(src, dest string) error {
	in, err := t.fs.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := t.fs.OpenFile(dest, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		t.fs.Remove(dest)
		return err
	}
	return out.Close()
}
