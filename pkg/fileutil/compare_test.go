package fileutil

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSameContent(t *testing.T) {
	big := strings.Repeat("x", CompareChunkSize*2+17)
	bigDiff := big[:len(big)-1] + "y"

	tests := []struct {
		name string
		a, b string
		want bool
	}{
		{"identical small", "hello", "hello", true},
		{"different size", "hello", "hello!", false},
		{"same size different bytes", "hello", "hellp", false},
		{"empty files", "", "", true},
		{"identical multi chunk", big, big, true},
		{"last byte differs", big, bigDiff, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			a := filepath.Join(dir, "a")
			b := filepath.Join(dir, "b")
			if err := os.WriteFile(a, []byte(tt.a), 0o644); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(b, []byte(tt.b), 0o644); err != nil {
				t.Fatal(err)
			}

			got, err := SameContent(a, b)
			if err != nil {
				t.Fatalf("SameContent() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("SameContent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSameContent_MissingFile(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a")
	if err := os.WriteFile(a, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := SameContent(a, filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSameReaderContent_TruncatedStream(t *testing.T) {
	same, err := SameReaderContent(bytes.NewReader([]byte("abcdef")), bytes.NewReader([]byte("abc")))
	if err != nil {
		t.Fatal(err)
	}
	if same {
		t.Error("streams of different length should differ")
	}
}
