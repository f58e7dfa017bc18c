package dupfind

import (
	"context"
	"path"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-git/go-billy/v5/util"
)

func collectEntries(t *testing.T, w *walker) []FileEntry {
	t.Helper()
	var out []FileEntry
	for entry := range w.entries(context.Background()) {
		out = append(out, entry)
	}
	if w.err != nil {
		t.Fatalf("walk failed: %v", w.err)
	}
	return out
}

func TestWalkLexicalOrder(t *testing.T) {
	bfs := newTree(t, map[string]string{
		"b/2.txt":   "22",
		"a.txt":     "1",
		"a/z/y.txt": "333",
		"b/1.txt":   "4444",
		"c":         "",
	})

	var skipped []SkippedEntry
	w := &walker{
		fs:       bfs,
		root:     testRoot,
		symlinks: SymlinkFiles,
		skip:     func(s SkippedEntry) { skipped = append(skipped, s) },
	}

	entries := collectEntries(t, w)

	expected := []FileEntry{
		{Path: "/tree/a.txt", RelPath: "a.txt", Size: 1},
		{Path: "/tree/a/z/y.txt", RelPath: "a/z/y.txt", Size: 3},
		{Path: "/tree/b/1.txt", RelPath: "b/1.txt", Size: 4},
		{Path: "/tree/b/2.txt", RelPath: "b/2.txt", Size: 2},
		{Path: "/tree/c", RelPath: "c", Size: 0},
	}
	if !reflect.DeepEqual(entries, expected) {
		t.Errorf("entries mismatch\n got: %+v\nwant: %+v", entries, expected)
	}
	if len(skipped) != 0 {
		t.Errorf("Expected no skipped entries, got %v", skipped)
	}
}

func TestWalkStopsEarly(t *testing.T) {
	bfs := newTree(t, map[string]string{"a": "1", "b": "2", "c": "3"})
	w := &walker{fs: bfs, root: testRoot, symlinks: SymlinkFiles, skip: func(SkippedEntry) {}}

	count := 0
	for range w.entries(context.Background()) {
		count++
		if count == 2 {
			break
		}
	}
	if count != 2 {
		t.Errorf("Expected to stop after 2 entries, got %d", count)
	}
}

func TestWalkCancelled(t *testing.T) {
	bfs := newTree(t, map[string]string{"a": "1"})
	w := &walker{fs: bfs, root: testRoot, symlinks: SymlinkFiles, skip: func(SkippedEntry) {}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for entry := range w.entries(ctx) {
		t.Errorf("unexpected entry %v", entry)
	}
	if w.err != context.Canceled {
		t.Errorf("Expected context.Canceled, got %v", w.err)
	}
}

func TestCheckRoot(t *testing.T) {
	bfs := newTree(t, map[string]string{"f": "x"})

	if err := checkRoot(bfs, testRoot); err != nil {
		t.Errorf("Expected valid root, got %v", err)
	}
	if err := checkRoot(bfs, path.Join(testRoot, "f")); err == nil {
		t.Error("Expected error for file root")
	}
	if err := checkRoot(bfs, "/nowhere"); err == nil {
		t.Error("Expected error for missing root")
	}
}

func TestResolvePath(t *testing.T) {
	bfs := newTree(t, map[string]string{"dir/file": "x"})
	mustSymlink := func(target, link string) {
		if err := bfs.Symlink(target, link); err != nil {
			t.Fatalf("Failed to create symlink %s: %v", link, err)
		}
	}
	mustSymlink("dir", "/tree/one")
	mustSymlink("one", "/tree/two")
	mustSymlink("/tree/two", "/tree/dir/three")
	mustSymlink("loop-b", "/tree/loop-a")
	mustSymlink("loop-a", "/tree/loop-b")
	mustSymlink("../one/file", "/tree/dir/up")

	testCases := []struct {
		path     string
		expected string
	}{
		{"/tree/dir/three", "/tree/dir"},
		{"/tree/two/file", "/tree/dir/file"},
		{"/tree/one/three/file", "/tree/dir/file"},
		{"/tree/dir/up", "/tree/dir/file"},
		{"/tree/dir/../two", "/tree/dir"},
		{"/tree", "/tree"},
	}

	for _, tc := range testCases {
		resolved, err := resolvePath(bfs, tc.path)
		if err != nil {
			t.Errorf("resolvePath(%q) failed: %v", tc.path, err)
			continue
		}
		if resolved != tc.expected {
			t.Errorf("resolvePath(%q) = %s, expected %s", tc.path, resolved, tc.expected)
		}
	}

	if _, err := resolvePath(bfs, "/tree/loop-a"); err == nil {
		t.Error("Expected error for symlink loop")
	}
	if _, err := resolvePath(bfs, "/tree/two/missing"); err == nil {
		t.Error("Expected error for missing path")
	}
}

func TestWalkSkipsLinksToFilesInsideRoot(t *testing.T) {
	bfs := newTree(t, map[string]string{"real.txt": "hello"})
	if err := bfs.Symlink("real.txt", "/tree/a-link.txt"); err != nil {
		t.Fatal(err)
	}
	if err := bfs.Symlink("/tree/real.txt", "/tree/b-link.txt"); err != nil {
		t.Fatal(err)
	}

	for _, mode := range []SymlinkMode{SymlinkFiles, SymlinkContained, SymlinkAll} {
		w := &walker{fs: bfs, root: testRoot, symlinks: mode, skip: func(SkippedEntry) {}}
		entries := collectEntries(t, w)

		expected := []FileEntry{{Path: "/tree/real.txt", RelPath: "real.txt", Size: 5}}
		if !reflect.DeepEqual(entries, expected) {
			t.Errorf("mode %s: got %+v, want %+v", mode, entries, expected)
		}
	}
}

func TestWalkYieldsOutsideFileOnce(t *testing.T) {
	bfs := newTree(t, nil)
	if err := util.WriteFile(bfs, "/elsewhere/f.txt", []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	for _, link := range []string{"/tree/one", "/tree/two"} {
		if err := bfs.Symlink("/elsewhere/f.txt", link); err != nil {
			t.Fatal(err)
		}
	}

	w := &walker{fs: bfs, root: testRoot, symlinks: SymlinkFiles, skip: func(SkippedEntry) {}}
	entries := collectEntries(t, w)

	expected := []FileEntry{{Path: "/tree/one", RelPath: "one", Size: 4}}
	if !reflect.DeepEqual(entries, expected) {
		t.Errorf("got %+v, want %+v", entries, expected)
	}
}

func TestIsPathContained(t *testing.T) {
	sep := string(filepath.Separator)
	testCases := []struct {
		target    string
		container string
		expected  bool
	}{
		{"/tree", "/tree", true},
		{"/tree/a/b", "/tree", true},
		{"/tree/", "/tree", true},
		{"/treehouse", "/tree", false},
		{"/other", "/tree", false},
		{"/tree/../etc", "/tree", false},
		{"a" + sep + "b", ".", true},
		{"..", ".", false},
		{".." + sep + "x", ".", false},
		{"/abs", ".", false},
	}

	for _, tc := range testCases {
		if got := isPathContained(tc.target, tc.container); got != tc.expected {
			t.Errorf("isPathContained(%q, %q) = %v, expected %v", tc.target, tc.container, got, tc.expected)
		}
	}
}

func TestInsertSorted(t *testing.T) {
	testCases := []struct {
		existing []string
		newPaths []string
		expected []string
	}{
		{nil, []string{"b", "a"}, []string{"a", "b"}},
		{[]string{"a", "c"}, nil, []string{"a", "c"}},
		{[]string{"a", "d"}, []string{"e", "c", "b"}, []string{"a", "b", "c", "d", "e"}},
		{[]string{"/r/a", "/r/b"}, []string{"/r/a/x"}, []string{"/r/a", "/r/a/x", "/r/b"}},
	}

	for _, tc := range testCases {
		got := insertSorted(tc.existing, tc.newPaths)
		if !reflect.DeepEqual(got, tc.expected) {
			t.Errorf("insertSorted(%v, %v) = %v, expected %v", tc.existing, tc.newPaths, got, tc.expected)
		}
	}
}

func TestParseSymlinkMode(t *testing.T) {
	testCases := []struct {
		input    string
		expected SymlinkMode
		valid    bool
	}{
		{"none", SymlinkNone, true},
		{"FILES", SymlinkFiles, true},
		{"contained", SymlinkContained, true},
		{"all", SymlinkAll, true},
		{"", SymlinkFiles, true},
		{"some", "", false},
	}

	for _, tc := range testCases {
		got, err := ParseSymlinkMode(tc.input)
		if tc.valid && err != nil {
			t.Errorf("ParseSymlinkMode(%q) unexpected error: %v", tc.input, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ParseSymlinkMode(%q) expected error", tc.input)
		}
		if got != tc.expected {
			t.Errorf("ParseSymlinkMode(%q) = %q, expected %q", tc.input, got, tc.expected)
		}
	}
}
