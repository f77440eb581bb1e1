package fileutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

func TestReadFileWithLimit(t *testing.T) {
	dir := t.TempDir()
	small := filepath.Join(dir, "small.txt")
	if err := os.WriteFile(small, []byte("12345"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := ReadFileWithLimit(small, 5)
	if err != nil || string(data) != "12345" {
		t.Fatalf("ReadFileWithLimit() = %q, %v", data, err)
	}

	if _, err := ReadFileWithLimit(small, 4); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}

	if _, err := ReadFileWithLimit(filepath.Join(dir, "missing"), 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestReadAllWithLimit(t *testing.T) {
	if _, err := ReadAllWithLimit(strings.NewReader("abcdef"), 3); !errors.Is(err, ErrFileTooLarge) {
		t.Errorf("expected ErrFileTooLarge, got %v", err)
	}
	data, err := ReadAllWithLimit(strings.NewReader("abc"), 0)
	if err != nil || string(data) != "abc" {
		t.Errorf("ReadAllWithLimit() = %q, %v", data, err)
	}
}
