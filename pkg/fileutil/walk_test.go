package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func writeTree(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}
}

func relPaths(res *WalkResult) []string {
	out := make([]string, len(res.Files))
	for i, f := range res.Files {
		out[i] = f.RelPath
	}
	return out
}

func TestWalkFiles_SortedSlashPaths(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"b.txt":         "b",
		"a/z.txt":       "z",
		"a/deep/one.go": "package one",
		"empty/.keep":   "",
	})
	if err := os.MkdirAll(filepath.Join(root, "only-dir"), 0o755); err != nil {
		t.Fatal(err)
	}

	res, err := WalkFiles(root, WalkOptions{})
	if err != nil {
		t.Fatalf("WalkFiles() error = %v", err)
	}

	want := []string{"a/deep/one.go", "a/z.txt", "b.txt", "empty/.keep"}
	got := relPaths(res)
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	if res.Files[2].Size != 1 {
		t.Errorf("size of b.txt = %d, want 1", res.Files[2].Size)
	}
}

func TestWalkFiles_Exclude(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt":                              "k",
		TempPrefix + "restore-123/tree/old.txt": "stale",
		TempPrefix + "atomic-42.tmp":            "partial",
		"sub/" + TempPrefix + "edit-1.txt":      "draft",
		"sub/note.txt":                          "n",
	})

	res, err := WalkFiles(root, WalkOptions{Exclude: []string{filepath.Join(root, "store")}})
	if err != nil {
		t.Fatal(err)
	}
	if got := relPaths(res); len(got) != 1 || got[0] != "keep.txt" {
		t.Errorf("files = %v, want [keep.txt]", got)
	}
}

func TestWalkFiles_SkipsTempEntries(t *testing.T) {
	root := t.TempDir()
	writeTree(t, root, map[string]string{
		"keep.txt":                             "k",
		TempPrefix + "restore-123/tree/old.txt": "stale",
		TempPrefix + "atomic-42.tmp":            "partial",
		"sub/" + TempPrefix + "edit-1.txt":      "draft",
		"sub/note.txt":                         "n",
	})

	res, err := WalkFiles(root, WalkOptions{})
	if err != nil {
		t.Fatalf("WalkFiles() error = %v", err)
	}

	got := relPaths(res)
	want := []string{"keep.txt", "sub/note.txt"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Errorf("files = %v, want %v", got, want)
	}
}

func TestWalkFiles_Symlinks(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("symlinks need privileges on windows")
	}
	root := t.TempDir()
	writeTree(t, root, map[string]string{"real.txt": "data", "dir/in.txt": "x"})

	if err := os.Symlink(filepath.Join(root, "real.txt"), filepath.Join(root, "link.txt")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "dir"), filepath.Join(root, "dirlink")); err != nil {
		t.Fatal(err)
	}
	if err := os.Symlink(filepath.Join(root, "nowhere"), filepath.Join(root, "dangling")); err != nil {
		t.Fatal(err)
	}

	res, err := WalkFiles(root, WalkOptions{})
	if err != nil {
		t.Fatal(err)
	}

	want := map[string]bool{"dir/in.txt": true, "link.txt": true, "real.txt": true}
	for _, p := range relPaths(res) {
		if !want[p] {
			t.Errorf("unexpected file %q", p)
		}
		delete(want, p)
	}
	if len(want) != 0 {
		t.Errorf("missing files: %v", want)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "dangling" {
		t.Errorf("skipped = %v, want [dangling]", res.Skipped)
	}
}

func TestWalkFiles_MissingRoot(t *testing.T) {
	if _, err := WalkFiles(filepath.Join(t.TempDir(), "missing"), WalkOptions{}); err == nil {
		t.Error("expected error for missing root")
	}
}

func TestIsWithin(t *testing.T) {
	base := filepath.Join(string(filepath.Separator), "data", "src")
	tests := []struct {
		path string
		want bool
	}{
		{base, true},
		{filepath.Join(base, "store"), true},
		{filepath.Join(string(filepath.Separator), "data", "srcx"), false},
		{filepath.Join(string(filepath.Separator), "data"), false},
	}
	for _, tt := range tests {
		if got := IsWithin(base, tt.path); got != tt.want {
			t.Errorf("IsWithin(%q, %q) = %v, want %v", base, tt.path, got, tt.want)
		}
	}
}
