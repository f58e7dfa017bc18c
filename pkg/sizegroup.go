package dupfind

import (
	"cmp"

	zcsl "github.com/mattkeenan/zerocopyskiplist"
)

// Bucket contexts
const (
	bucketSingle    = "single"
	bucketCandidate = "candidate"
)

// sizeBucket holds every path observed at one byte length, in discovery order.
type sizeBucket struct {
	Size  int64
	Paths []FileEntry
}

// SizeGroups buckets files by size. Buckets are kept ordered by size so
// candidates come out smallest first.
type SizeGroups struct {
	buckets *zcsl.ZeroCopySkiplist[sizeBucket, int64, string]
	files   int
}

// NewSizeGroups returns an empty set of size buckets.
func NewSizeGroups() *SizeGroups {
	getKey := func(b *sizeBucket) int64 {
		return b.Size
	}
	getSize := func(b *sizeBucket) int {
		return len(b.Paths)
	}

	return &SizeGroups{
		buckets: zcsl.MakeZeroCopySkiplist[sizeBucket, int64, string](16, getKey, getSize, cmp.Compare[int64]),
	}
}

// Add records entry in the bucket for its size.
func (sg *SizeGroups) Add(entry FileEntry) {
	sg.files++

	node, _ := sg.buckets.Find(entry.Size)
	if node == nil {
		sg.buckets.Insert(&sizeBucket{Size: entry.Size, Paths: []FileEntry{entry}}, bucketSingle)
		return
	}

	bucket := node.Item()
	bucket.Paths = append(bucket.Paths, entry)
	if len(bucket.Paths) == 2 {
		sg.buckets.UpdateContext(entry.Size, bucketCandidate)
	}
}

// Files returns how many entries have been added.
func (sg *SizeGroups) Files() int {
	return sg.files
}

// Buckets returns the number of distinct sizes seen.
func (sg *SizeGroups) Buckets() int {
	return sg.buckets.Length()
}

// Paths returns the entries recorded at size, or nil.
func (sg *SizeGroups) Paths(size int64) []FileEntry {
	node, _ := sg.buckets.Find(size)
	if node == nil {
		return nil
	}
	return node.Item().Paths
}

// Candidates returns every entry that shares its size with at least one other
// entry, ascending by size and in discovery order within a size.
func (sg *SizeGroups) Candidates() []FileEntry {
	var out []FileEntry
	for current := sg.buckets.First(); current != nil; current = current.Next() {
		if current.Context() != bucketCandidate {
			continue
		}
		out = append(out, current.Item().Paths...)
	}
	return out
}
