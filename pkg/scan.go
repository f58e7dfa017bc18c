package dupfind

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"

	"github.com/go-git/go-billy/v5"
)

// Options configures a Scanner. The zero value is not usable; start from
// DefaultOptions.
type Options struct {
	Algorithm  string // hash algorithm name, see GetHashAlgorithm
	Workers    int    // number of hash goroutines
	BufferSize int    // read chunk size in bytes
	Symlinks   SymlinkMode
	Ignore     *IgnoreList
	MinSize    int64
	Notifier   Notifier
}

// DefaultOptions returns the options used by the package level Scan.
func DefaultOptions() Options {
	return Options{
		Algorithm:  DefaultHashAlgorithm,
		Workers:    DefaultHashWorkers,
		BufferSize: DefaultBufferSize,
		Symlinks:   SymlinkFiles,
		Notifier:   NopNotifier{},
	}
}

// Scanner finds duplicate files on a filesystem. A Scanner holds no state
// between scans and may be used from several goroutines.
type Scanner struct {
	fs            billy.Filesystem
	opts          Options
	fingerprinter *Fingerprinter
}

// NewScanner validates opts and returns a Scanner reading through fs.
func NewScanner(fs billy.Filesystem, opts Options) (*Scanner, error) {
	algorithm, err := GetHashAlgorithm(opts.Algorithm)
	if err != nil {
		return nil, err
	}
	if opts.Workers <= 0 {
		opts.Workers = DefaultHashWorkers
	}
	if opts.Workers > MaxHashWorkers {
		return nil, fmt.Errorf("hash workers %d exceeds maximum of %d", opts.Workers, MaxHashWorkers)
	}
	if opts.BufferSize <= 0 {
		opts.BufferSize = DefaultBufferSize
	}
	if opts.Symlinks == "" {
		opts.Symlinks = SymlinkFiles
	}
	if _, err := ParseSymlinkMode(string(opts.Symlinks)); err != nil {
		return nil, err
	}
	if opts.MinSize < 0 {
		return nil, fmt.Errorf("minimum size must not be negative: %d", opts.MinSize)
	}
	if opts.Notifier == nil {
		opts.Notifier = NopNotifier{}
	}

	return &Scanner{
		fs:            fs,
		opts:          opts,
		fingerprinter: NewFingerprinter(fs, algorithm, opts.BufferSize),
	}, nil
}

// NewHostScanner returns a Scanner over the operating system filesystem.
func NewHostScanner(opts Options) (*Scanner, error) {
	return NewScanner(NewHostFS(), opts)
}

// Scan finds duplicate files under root on the host filesystem using
// DefaultOptions.
func Scan(ctx context.Context, root string) (*Report, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, invalidRoot(root, err)
	}
	scanner, err := NewHostScanner(DefaultOptions())
	if err != nil {
		return nil, err
	}
	return scanner.Scan(ctx, absRoot)
}

// hashJob is one candidate waiting for a fingerprint
type hashJob struct {
	index int
	entry FileEntry
}

// hashResult is the outcome of fingerprinting one candidate. Exactly one of
// fingerprint or skip is set.
type hashResult struct {
	fingerprint string
	skip        *SkippedEntry
}

// Scan walks root, groups files by size, fingerprints every file that shares
// its size with another and returns the groups of two or more identical files.
// Unreadable entries are recorded on the report and never fail the scan.
func (s *Scanner) Scan(ctx context.Context, root string) (*Report, error) {
	defer VerboseEnter()()

	root = filepath.Clean(root)
	if err := checkRoot(s.fs, root); err != nil {
		return nil, err
	}
	// Walk the real directory so links back into it are recognised
	resolvedRoot, err := resolvePath(s.fs, root)
	if err != nil {
		return nil, invalidRoot(root, err)
	}
	if resolvedRoot != root {
		VerboseLog(2, "scan root %s resolves to %s", root, resolvedRoot)
	}

	report := &Report{
		Root:      root,
		Algorithm: s.fingerprinter.Algorithm().Name,
		Groups:    []DuplicateGroup{},
	}
	skip := func(entry SkippedEntry) {
		report.Skipped = append(report.Skipped, entry)
		s.opts.Notifier.EntrySkipped(entry)
	}

	w := &walker{
		fs:       s.fs,
		root:     resolvedRoot,
		symlinks: s.opts.Symlinks,
		ignore:   s.opts.Ignore,
		minSize:  s.opts.MinSize,
		skip:     skip,
	}

	sizes := NewSizeGroups()
	for entry := range w.entries(ctx) {
		sizes.Add(entry)
	}
	if w.err != nil {
		return nil, fmt.Errorf("scan interrupted during walk: %w", w.err)
	}

	candidates := sizes.Candidates()
	report.FilesSeen = sizes.Files()
	report.Candidates = len(candidates)
	VerboseLog(2, "walk found %d files in %d size buckets", sizes.Files(), sizes.Buckets())
	s.opts.Notifier.CandidatesFound(len(candidates))

	results := s.hashCandidates(ctx, candidates)
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("scan interrupted during hashing: %w", err)
	}

	report.Groups = groupByFingerprint(candidates, results, skip)
	s.opts.Notifier.DuplicatesConfirmed(len(report.Groups))

	return report, nil
}

// hashCandidates fingerprints each candidate and returns results indexed the
// same way as candidates.
func (s *Scanner) hashCandidates(ctx context.Context, candidates []FileEntry) []hashResult {
	defer VerboseEnter()()

	results := make([]hashResult, len(candidates))
	if len(candidates) == 0 {
		return results
	}

	workers := min(s.opts.Workers, len(candidates))
	if workers <= 1 {
		for i, entry := range candidates {
			if ctx.Err() != nil {
				break
			}
			results[i] = s.hashOne(ctx, entry)
		}
		return results
	}

	jobs := make(chan hashJob, workers*2)
	var wg sync.WaitGroup

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					continue
				}
				results[job.index] = s.hashOne(ctx, job.entry)
			}
		}()
	}

submit:
	for i, entry := range candidates {
		select {
		case jobs <- hashJob{index: i, entry: entry}:
		case <-ctx.Done():
			break submit
		}
	}
	close(jobs)
	wg.Wait()

	return results
}

func (s *Scanner) hashOne(ctx context.Context, entry FileEntry) hashResult {
	fingerprint, err := s.fingerprinter.Fingerprint(ctx, entry)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && IsDebugEnabled("hash") {
			VerboseLog(2, "candidate %s disappeared before hashing", entry.Path)
		}
		return hashResult{skip: &SkippedEntry{Path: entry.Path, Stage: StageHash, Err: err}}
	}
	return hashResult{fingerprint: fingerprint}
}

// groupByFingerprint collects candidates into groups keyed by size and hash.
// Groups appear in order of their first member and singletons are dropped.
func groupByFingerprint(candidates []FileEntry, results []hashResult, skip func(SkippedEntry)) []DuplicateGroup {
	type groupKey struct {
		size int64
		hash string
	}

	index := make(map[groupKey]int)
	var groups []DuplicateGroup

	for i, entry := range candidates {
		result := results[i]
		if result.skip != nil {
			skip(*result.skip)
			continue
		}

		key := groupKey{size: entry.Size, hash: result.fingerprint}
		pos, ok := index[key]
		if !ok {
			pos = len(groups)
			index[key] = pos
			groups = append(groups, DuplicateGroup{Hash: result.fingerprint, Size: entry.Size})
		}
		groups[pos].Files = append(groups[pos].Files, entry.RelPath)
	}

	duplicates := make([]DuplicateGroup, 0, len(groups))
	for _, g := range groups {
		if len(g.Files) < 2 {
			continue
		}
		g.Count = len(g.Files)
		duplicates = append(duplicates, g)
	}
	return duplicates
}
