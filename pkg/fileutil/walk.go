package fileutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// Entry is a regular file found by WalkFiles.
type Entry struct {
	// RelPath is the path relative to the walk root, always with forward slashes.
	RelPath string

	// AbsPath is the path on disk.
	AbsPath string

	Size    int64
	Mode    fs.FileMode
	ModTime time.Time
}

// WalkResult holds the outcome of WalkFiles.
type WalkResult struct {
	// Files are sorted by RelPath.
	Files []Entry

	// Skipped holds relative paths of entries that could not be inspected.
	Skipped []string
}

// WalkOptions configures WalkFiles.
type WalkOptions struct {
	// Exclude lists absolute directories that are not descended into.
	Exclude []string
}

// WalkFiles collects every regular file below root. Entries named with
// TempPrefix are left out along with their contents. Symlinks to regular files are
// included with their target's metadata; symlinked directories and special files are not.
// Unreadable subdirectories and dangling links are reported in Skipped rather than
// failing the walk; an unreadable root is an error.
func WalkFiles(root string, opts WalkOptions) (*WalkResult, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, errors.Wrap(err, "resolving root")
	}

	excluded := make([]string, 0, len(opts.Exclude))
	for _, e := range opts.Exclude {
		if abs, err := filepath.Abs(e); err == nil {
			excluded = append(excluded, filepath.Clean(abs))
		}
	}

	res := &WalkResult{}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == root {
				return walkErr
			}
			res.Skipped = append(res.Skipped, RelSlash(root, path))
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if path != root && strings.HasPrefix(d.Name(), TempPrefix) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		if d.IsDir() {
			if path != root && slices.Contains(excluded, filepath.Clean(path)) {
				return fs.SkipDir
			}
			return nil
		}

		info, err := statEntry(path, d)
		if err != nil {
			res.Skipped = append(res.Skipped, RelSlash(root, path))
			return nil
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		res.Files = append(res.Files, Entry{
			RelPath: RelSlash(root, path),
			AbsPath: path,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "walking %s", root)
	}

	slices.SortFunc(res.Files, func(a, b Entry) int { return strings.Compare(a.RelPath, b.RelPath) })
	return res, nil
}

func statEntry(path string, d fs.DirEntry) (fs.FileInfo, error) {
	if d.Type()&fs.ModeSymlink != 0 {
		return os.Stat(path)
	}
	return d.Info()
}

// RelSlash returns path relative to root with forward slashes.
// If path is not below root it is returned slash-converted unchanged.
func RelSlash(root, path string) string {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// IsWithin reports whether path is dir itself or lies below it.
func IsWithin(dir, path string) bool {
	rel, err := filepath.Rel(dir, path)
	if err != nil {
		return false
	}
	return rel == "." || (rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)))
}
