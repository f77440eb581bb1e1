package snapshot

import (
	"os"
	"sort"
	"strings"
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/manifest"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// Info describes a listed snapshot.
type Info struct {
	Files

	Size    int64
	ModTime time.Time

	HasManifest bool
	HasNotes    bool

	// Manifest details; zero when HasManifest is false or ManifestErr is set.
	CreatedAt       time.Time
	TotalFiles      int
	SourceDirectory string
	Algorithm       string

	// ManifestErr is set when a manifest exists but cannot be read.
	ManifestErr error
}

// List returns the snapshots in dir, newest archive first. A missing dir
// holds no snapshots.
func List(dir string) ([]Info, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, errors.Mark(errors.Wrapf(err, "reading store %s", dir), errors.ErrIO)
	}

	var out []Info
	for _, e := range entries {
		fname := e.Name()
		if !strings.HasPrefix(fname, Prefix) || !strings.HasSuffix(fname, ArchiveExt) {
			continue
		}
		fi, err := e.Info()
		if err != nil || !fi.Mode().IsRegular() {
			continue
		}
		out = append(out, describe(dir, strings.TrimSuffix(fname, ArchiveExt), fi))
	}

	sort.Slice(out, func(i, j int) bool {
		if !out[i].ModTime.Equal(out[j].ModTime) {
			return out[i].ModTime.After(out[j].ModTime)
		}
		return out[i].Name > out[j].Name
	})
	return out, nil
}

func describe(dir, name string, fi os.FileInfo) Info {
	info := Info{
		Files:   FilesFor(dir, name),
		Size:    fi.Size(),
		ModTime: fi.ModTime(),
	}
	info.HasNotes = fileExists(info.Notes)

	m, err := manifest.Load(info.Manifest)
	switch {
	case err == nil:
		info.HasManifest = true
		info.CreatedAt = m.CreatedAt
		info.TotalFiles = m.TotalFiles()
		info.SourceDirectory = m.SourceDirectory
		info.Algorithm = string(m.Algorithm)
	case errors.Is(err, errors.ErrNotFound):
	default:
		info.HasManifest = true
		info.ManifestErr = err
	}
	return info
}

// Stat returns the Info of one snapshot. A snapshot without an archive is
// errors.ErrNotFound.
func Stat(dir, name string) (Info, error) {
	f := FilesFor(dir, name)
	fi, err := os.Stat(f.Archive)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Info{}, errors.Wrapf(errors.ErrNotFound, "snapshot %s", name)
		}
		return Info{}, errors.Mark(errors.Wrapf(err, "stat %s", f.Archive), errors.ErrIO)
	}
	return describe(dir, name, fi), nil
}

// Delete removes the archive, manifest and notes of name. Files that are
// already absent are not an error. It returns the paths it removed.
func Delete(dir, name string) ([]string, error) {
	f := FilesFor(dir, name)

	var (
		removed []string
		errs    error
	)
	for _, p := range []string{f.Archive, f.Manifest, f.Notes} {
		err := os.Remove(p)
		switch {
		case err == nil:
			removed = append(removed, p)
		case errors.Is(err, os.ErrNotExist):
		default:
			errs = errors.CombineErrors(errs, errors.Mark(errors.Wrapf(err, "removing %s", p), errors.ErrIO))
		}
	}
	return removed, errs
}

// ReadNotes returns the notes of name, or "" when there are none.
func ReadNotes(dir, name string) (string, error) {
	data, err := os.ReadFile(FilesFor(dir, name).Notes)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", nil
		}
		return "", errors.Mark(errors.Wrap(err, "reading notes"), errors.ErrIO)
	}
	return string(data), nil
}

// WriteNotes replaces the notes of name. Empty notes remove the file.
func WriteNotes(dir, name, notes string) error {
	f := FilesFor(dir, name)
	if !fileExists(f.Archive) {
		return errors.Wrapf(errors.ErrNotFound, "snapshot %s", name)
	}
	if strings.TrimSpace(notes) == "" {
		if err := os.Remove(f.Notes); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Mark(errors.Wrap(err, "removing notes"), errors.ErrIO)
		}
		return nil
	}
	if err := fileutil.AtomicWriteFile(f.Notes, []byte(notes), 0o644); err != nil {
		return errors.Mark(errors.Wrap(err, "writing notes"), errors.ErrIO)
	}
	return nil
}

// EnsureStore creates dir if needed and checks that it is a directory.
func EnsureStore(dir string) error {
	if dir == "" {
		return errors.Wrap(errors.ErrPrecondition, "no store directory configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Mark(errors.Wrapf(err, "creating store %s", dir), errors.ErrPrecondition)
	}
	fi, err := os.Stat(dir)
	if err != nil || !fi.IsDir() {
		return errors.Wrapf(errors.ErrPrecondition, "store %s is not a directory", dir)
	}
	return nil
}

