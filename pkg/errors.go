package dupfind

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrInvalidRoot is returned by Scan when the root is missing or is not a directory.
var ErrInvalidRoot = errors.New("invalid root")

// ErrSizeChanged means a file's length changed between the walk and the hash.
var ErrSizeChanged = errors.New("file size changed during scan")

// SkipStage names the pipeline stage that dropped an entry.
type SkipStage string

const (
	StageWalk SkipStage = "walk" // stat or directory listing failed
	StageHash SkipStage = "hash" // open or read failed while fingerprinting
)

// SkippedEntry records an entry excluded from a scan because it could not be read.
// It never fails a scan.
type SkippedEntry struct {
	Path  string
	Stage SkipStage
	Err   error
}

func (s SkippedEntry) Error() string {
	return fmt.Sprintf("skipped %s during %s: %v", s.Path, s.Stage, s.Err)
}

func (s SkippedEntry) Unwrap() error {
	return s.Err
}

// MarshalJSON renders the underlying error as a string.
func (s SkippedEntry) MarshalJSON() ([]byte, error) {
	msg := ""
	if s.Err != nil {
		msg = s.Err.Error()
	}
	return json.Marshal(struct {
		Path  string    `json:"path"`
		Stage SkipStage `json:"stage"`
		Error string    `json:"error"`
	}{s.Path, s.Stage, msg})
}

func invalidRoot(root string, reason error) error {
	return fmt.Errorf("%w %s: %w", ErrInvalidRoot, root, reason)
}
