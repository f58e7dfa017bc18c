package dupfind

import (
	"bufio"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/go-git/go-billy/v5"
)

// IgnoreList holds regular expressions matched against root-relative paths.
// A nil *IgnoreList ignores nothing.
type IgnoreList struct {
	patterns []*regexp.Regexp
}

// NewIgnoreList compiles the given patterns. Blank patterns are dropped.
func NewIgnoreList(patterns []string) (*IgnoreList, error) {
	il := &IgnoreList{}
	for _, p := range patterns {
		if err := il.AddPattern(p); err != nil {
			return nil, err
		}
	}
	return il, nil
}

// LoadIgnoreFile reads one regular expression per line from path.
// Empty lines and lines starting with # are ignored.
func LoadIgnoreFile(fs billy.Filesystem, path string) (*IgnoreList, error) {
	file, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ignore file: %w", err)
	}
	defer file.Close()

	il := &IgnoreList{}
	scanner := bufio.NewScanner(file)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		pattern, err := regexp.Compile(line)
		if err != nil {
			return nil, fmt.Errorf("invalid regex pattern at line %d: %s - %w", lineNum, line, err)
		}
		il.patterns = append(il.patterns, pattern)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading ignore file: %w", err)
	}

	return il, nil
}

// AddPattern adds a new ignore pattern
func (il *IgnoreList) AddPattern(patternStr string) error {
	patternStr = strings.TrimSpace(patternStr)
	if patternStr == "" {
		return nil
	}
	pattern, err := regexp.Compile(patternStr)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %s - %w", patternStr, err)
	}

	il.patterns = append(il.patterns, pattern)
	return nil
}

// Merge appends the patterns of other.
func (il *IgnoreList) Merge(other *IgnoreList) {
	if other == nil {
		return
	}
	il.patterns = append(il.patterns, other.patterns...)
}

// ShouldIgnore checks if a path should be ignored based on patterns
func (il *IgnoreList) ShouldIgnore(relativePath string) bool {
	if il == nil {
		return false
	}

	// Patterns are written with forward slashes on every platform
	normalisedPath := filepath.ToSlash(relativePath)

	for _, pattern := range il.patterns {
		if pattern.MatchString(normalisedPath) {
			return true
		}
	}

	return false
}

// Patterns returns the source text of every pattern.
func (il *IgnoreList) Patterns() []string {
	if il == nil {
		return nil
	}
	out := make([]string, len(il.patterns))
	for i, p := range il.patterns {
		out[i] = p.String()
	}
	return out
}

// Len returns the number of patterns.
func (il *IgnoreList) Len() int {
	if il == nil {
		return 0
	}
	return len(il.patterns)
}
