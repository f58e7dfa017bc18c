package dupfind

import (
	"fmt"
	"path/filepath"
	"strings"
)

// DuplicateGroup represents a group of files with the same size and hash
type DuplicateGroup struct {
	Hash  string   `json:"hash"`
	Size  int64    `json:"size"`
	Files []string `json:"files"`
	Count int      `json:"count"`
}

// Report is the result of a scan. Files in each group are relative to Root,
// slash separated, in discovery order.
type Report struct {
	Root       string           `json:"root"`
	Algorithm  string           `json:"algorithm"`
	FilesSeen  int              `json:"files_seen"`
	Candidates int              `json:"candidates"`
	Groups     []DuplicateGroup `json:"groups"`
	Skipped    []SkippedEntry   `json:"skipped,omitempty"`
}

// DuplicateFiles returns the number of files that belong to some group.
func (r *Report) DuplicateFiles() int {
	n := 0
	for _, g := range r.Groups {
		n += g.Count
	}
	return n
}

// WastedBytes is the space held by every copy beyond the first in each group.
func (r *Report) WastedBytes() uint64 {
	var total uint64
	for _, g := range r.Groups {
		if g.Count > 1 {
			total += uint64(g.Size) * uint64(g.Count-1)
		}
	}
	return total
}

// Paths joins the group's members onto the report root.
func (r *Report) Paths(g DuplicateGroup) []string {
	out := make([]string, len(g.Files))
	for i, f := range g.Files {
		out[i] = filepath.Join(r.Root, filepath.FromSlash(f))
	}
	return out
}

// KeepPolicy picks which member of a group survives when the rest are removed.
type KeepPolicy string

const (
	KeepFirst    KeepPolicy = "first"    // first in walk order
	KeepLast     KeepPolicy = "last"     // last in walk order
	KeepShortest KeepPolicy = "shortest" // fewest path components, then walk order
	KeepLongest  KeepPolicy = "longest"  // most path components, then walk order
)

// ParseKeepPolicy validates a keep policy name. An empty name means KeepFirst.
func ParseKeepPolicy(name string) (KeepPolicy, error) {
	switch p := KeepPolicy(strings.ToLower(name)); p {
	case KeepFirst, KeepLast, KeepShortest, KeepLongest:
		return p, nil
	case "":
		return KeepFirst, nil
	default:
		return "", fmt.Errorf("unsupported keep policy: %s (supported: first, last, shortest, longest)", name)
	}
}

// keeper returns the index of the member that survives under policy
func (p KeepPolicy) keeper(files []string) int {
	keep := 0
	switch p {
	case KeepLast:
		keep = len(files) - 1
	case KeepShortest, KeepLongest:
		depth := strings.Count(files[0], "/")
		for i := 1; i < len(files); i++ {
			d := strings.Count(files[i], "/")
			if (p == KeepShortest && d < depth) || (p == KeepLongest && d > depth) {
				keep, depth = i, d
			}
		}
	}
	return keep
}

// SelectRedundant returns every member except the first of each group, joined
// onto the report root. These are the copies a caller would remove to keep
// exactly one file per group.
func (r *Report) SelectRedundant() []string {
	return r.SelectRedundantBy(KeepFirst)
}

// SelectRedundantBy is SelectRedundant with the surviving member chosen by policy.
func (r *Report) SelectRedundantBy(policy KeepPolicy) []string {
	var out []string
	for _, g := range r.Groups {
		if len(g.Files) < 2 {
			continue
		}
		keep := policy.keeper(g.Files)
		for i, p := range r.Paths(g) {
			if i != keep {
				out = append(out, p)
			}
		}
	}
	return out
}
