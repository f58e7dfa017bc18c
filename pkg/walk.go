package dupfind

import (
	"context"
	"fmt"
	"iter"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// SymlinkMode controls which symbolic links the walker follows.
type SymlinkMode string

const (
	SymlinkNone      SymlinkMode = "none"      // skip every symlink
	SymlinkFiles     SymlinkMode = "files"     // follow links to regular files only
	SymlinkContained SymlinkMode = "contained" // follow links whose target is inside the root
	SymlinkAll       SymlinkMode = "all"       // follow every link
)

// ParseSymlinkMode validates a symlink mode name.
func ParseSymlinkMode(mode string) (SymlinkMode, error) {
	switch m := SymlinkMode(strings.ToLower(mode)); m {
	case SymlinkNone, SymlinkFiles, SymlinkContained, SymlinkAll:
		return m, nil
	case "":
		return SymlinkFiles, nil
	default:
		return "", fmt.Errorf("unsupported symlink mode: %s (supported: none, files, contained, all)", mode)
	}
}

// FileEntry is a regular file found by the walk together with its size.
type FileEntry struct {
	Path    string // path as passed to the filesystem, rooted at the scan root
	RelPath string // slash separated path relative to the scan root
	Size    int64
}

// walker enumerates regular files under root in lexical path order.
type walker struct {
	fs       billy.Filesystem
	root     string
	symlinks SymlinkMode
	ignore   *IgnoreList
	minSize  int64
	skip     func(SkippedEntry)

	err error // set when the walk stopped because the context was cancelled
}

// checkRoot verifies root exists and is a directory, following a symlinked root.
func checkRoot(fs billy.Filesystem, root string) error {
	info, err := fs.Stat(root)
	if err != nil {
		return invalidRoot(root, err)
	}
	if !info.IsDir() {
		return invalidRoot(root, fmt.Errorf("not a directory"))
	}
	return nil
}

// entries returns a single-pass sequence of the regular files under the root.
// Unreadable entries are passed to w.skip and the walk carries on. The root
// must already be resolved with resolvePath.
func (w *walker) entries(ctx context.Context) iter.Seq[FileEntry] {
	return func(yield func(FileEntry) bool) {
		defer VerboseEnter()()

		// Directory paths in the queue are always fully resolved, so the
		// visited set breaks symlink cycles and stops a directory reached
		// through two links from being listed twice. Files are keyed the
		// same way so a link never shows up as a copy of its own target.
		visited := make(map[string]struct{})
		yielded := make(map[string]struct{})
		queue := []string{w.root}

		for len(queue) > 0 {
			if err := ctx.Err(); err != nil {
				if IsDebugEnabled("walk") {
					VerboseLog(2, "walk interrupted with %d paths queued", len(queue))
				}
				w.err = err
				return
			}

			currentPath := queue[0]
			queue = queue[1:]
			isRoot := currentPath == w.root

			var info os.FileInfo
			var err error
			if isRoot {
				info, err = w.fs.Stat(currentPath)
			} else {
				info, err = w.fs.Lstat(currentPath)
			}
			if err != nil {
				w.skip(SkippedEntry{Path: currentPath, Stage: StageWalk, Err: err})
				continue
			}

			relPath := w.relPath(currentPath)
			if !isRoot && w.ignore.ShouldIgnore(relPath) {
				if IsDebugEnabled("walk") {
					VerboseLog(3, "ignoring %s", relPath)
				}
				continue
			}

			identity := currentPath
			if !isRoot && info.Mode()&os.ModeSymlink != 0 {
				var follow bool
				info, currentPath, identity, follow = w.followSymlink(currentPath)
				if !follow {
					continue
				}
			}

			switch {
			case info.IsDir():
				if _, seen := visited[currentPath]; seen {
					if IsDebugEnabled("walk") {
						VerboseLog(3, "already visited %s", currentPath)
					}
					continue
				}
				visited[currentPath] = struct{}{}

				children, err := w.fs.ReadDir(currentPath)
				if err != nil {
					w.skip(SkippedEntry{Path: currentPath, Stage: StageWalk, Err: err})
					continue
				}

				newPaths := make([]string, 0, len(children))
				for _, child := range children {
					newPaths = append(newPaths, w.fs.Join(currentPath, child.Name()))
				}
				queue = insertSorted(queue, newPaths)

			case info.Mode().IsRegular():
				if info.Size() < w.minSize {
					continue
				}
				if _, seen := yielded[identity]; seen {
					if IsDebugEnabled("walk") {
						VerboseLog(3, "%s is another name for %s", relPath, identity)
					}
					continue
				}
				yielded[identity] = struct{}{}

				if IsDebugEnabled("walk") {
					VerboseLog(3, "found file %s (%d bytes)", relPath, info.Size())
				}
				if !yield(FileEntry{Path: currentPath, RelPath: relPath, Size: info.Size()}) {
					return
				}
			}
		}
	}
}

// followSymlink applies the symlink mode to the link at linkPath. It returns
// the target's info, the path to continue with (the link itself for files,
// the resolved target for directories) and the resolved target.
// A link to a file inside the root is never followed: the walk reaches that
// file under its own name.
func (w *walker) followSymlink(linkPath string) (os.FileInfo, string, string, bool) {
	if w.symlinks == SymlinkNone {
		return nil, "", "", false
	}

	target, err := resolvePath(w.fs, linkPath)
	if err != nil {
		// Broken link or loop
		w.skip(SkippedEntry{Path: linkPath, Stage: StageWalk, Err: err})
		return nil, "", "", false
	}
	targetInfo, err := w.fs.Stat(target)
	if err != nil {
		w.skip(SkippedEntry{Path: linkPath, Stage: StageWalk, Err: err})
		return nil, "", "", false
	}

	if targetInfo.IsDir() && w.symlinks == SymlinkFiles {
		return nil, "", "", false
	}

	inside := isPathContained(target, w.root)
	if w.symlinks == SymlinkContained && !inside {
		if IsDebugEnabled("walk") {
			VerboseLog(3, "symlink %s points outside root (%s)", linkPath, target)
		}
		return nil, "", "", false
	}

	if targetInfo.IsDir() {
		return targetInfo, target, target, true
	}
	if inside {
		if IsDebugEnabled("walk") {
			VerboseLog(3, "symlink %s is an alias of %s", linkPath, target)
		}
		return nil, "", "", false
	}
	return targetInfo, linkPath, target, true
}

// resolvePath returns path with every symlink in it replaced by its target,
// including links in parent directories.
func resolvePath(fs billy.Filesystem, path string) (string, error) {
	hops := 0
	return resolvePathHops(fs, filepath.Clean(path), &hops)
}

func resolvePathHops(fs billy.Filesystem, path string, hops *int) (string, error) {
	parent := filepath.Dir(path)
	if parent == path {
		// "/" or "."
		return path, nil
	}

	resolvedParent, err := resolvePathHops(fs, parent, hops)
	if err != nil {
		return "", err
	}
	current := filepath.Join(resolvedParent, filepath.Base(path))

	info, err := fs.Lstat(current)
	if err != nil {
		return "", err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return current, nil
	}

	*hops++
	if *hops > maxSymlinkHops {
		return "", fmt.Errorf("too many levels of symbolic links: %s", path)
	}
	target, err := fs.Readlink(current)
	if err != nil {
		return "", err
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(resolvedParent, target)
	}
	return resolvePathHops(fs, filepath.Clean(target), hops)
}

// isPathContained checks if targetPath is the container or lies beneath it
func isPathContained(targetPath, containerPath string) bool {
	targetPath = filepath.Clean(targetPath)
	containerPath = filepath.Clean(containerPath)

	if targetPath == containerPath {
		return true
	}

	if containerPath == "." {
		return !filepath.IsAbs(targetPath) && targetPath != ".." &&
			!strings.HasPrefix(targetPath, ".."+string(filepath.Separator))
	}

	containerWithSep := containerPath
	if !strings.HasSuffix(containerWithSep, string(filepath.Separator)) {
		containerWithSep += string(filepath.Separator)
	}
	return strings.HasPrefix(targetPath, containerWithSep)
}

func (w *walker) relPath(path string) string {
	rel, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// insertSorted merges newPaths into the already sorted queue
func insertSorted(existing []string, newPaths []string) []string {
	if len(newPaths) == 0 {
		return existing
	}
	sort.Strings(newPaths)
	if len(existing) == 0 {
		return newPaths
	}

	result := make([]string, 0, len(existing)+len(newPaths))

	i, j := 0, 0
	for i < len(existing) && j < len(newPaths) {
		if existing[i] <= newPaths[j] {
			result = append(result, existing[i])
			i++
		} else {
			result = append(result, newPaths[j])
			j++
		}
	}

	result = append(result, existing[i:]...)
	result = append(result, newPaths[j:]...)

	return result
}
