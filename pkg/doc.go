// Package dupfind finds files with identical content beneath a directory tree.
//
// Files are first bucketed by size, which is cheap, and only files that share a
// size with at least one other file are hashed. Files whose size and content
// hash both match are reported together as a duplicate group.
//
// # Core API
//
// The simplest entry point scans a host directory with default options:
//
//	report, err := dupfind.Scan(ctx, "/path/to/dir")
//	if errors.Is(err, dupfind.ErrInvalidRoot) {
//		// missing or not a directory
//	}
//	for _, group := range report.Groups {
//		fmt.Printf("Hash %s: %v\n", group.Hash, group.Files)
//	}
//
// A Scanner gives control over the filesystem, hash algorithm, worker count,
// symlink handling and progress notifications:
//
//	opts := dupfind.DefaultOptions()
//	opts.Workers = 4
//	opts.Notifier = dupfind.LogNotifier{}
//	scanner, err := dupfind.NewScanner(dupfind.NewHostFS(), opts)
//	report, err := scanner.Scan(ctx, "/path/to/dir")
//
// Entries that cannot be read while walking or hashing are skipped. They are
// listed in Report.Skipped and never cause the scan to fail.
//
// # Configuration
//
// Options can be loaded from an INI file with LoadConfig, and diagnostics are
// controlled with SetVerboseLevel and SetDebugFlags("walk,hash").
//
// # Removing duplicates
//
// The scanner never modifies the filesystem. Trasher moves a chosen set of
// paths into a trash directory and reports an outcome per path.
package dupfind
