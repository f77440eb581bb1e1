package archive

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/klauspost/compress/flate"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// Reader provides access to the entries of an existing archive.
type Reader struct {
	path  string
	zr    *zip.ReadCloser
	files map[string]*zip.File
	names []string
}

// Open opens the archive at archivePath.
//
// A missing archive yields errors.ErrNotFound; a file that is not a valid
// zip yields errors.ErrCorruptArchive.
func Open(archivePath string) (*Reader, error) {
	zr, err := zip.OpenReader(archivePath)
	if err != nil && zr != nil && errors.Is(err, zip.ErrInsecurePath) {
		// Unsafe names are rejected per entry on extraction.
		err = nil
	}
	if err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			return nil, errors.Mark(errors.Wrapf(err, "opening archive %s", archivePath), errors.ErrNotFound)
		case errors.Is(err, zip.ErrFormat), errors.Is(err, zip.ErrAlgorithm), errors.Is(err, io.ErrUnexpectedEOF):
			return nil, errors.Mark(errors.Wrapf(err, "opening archive %s", archivePath), errors.ErrCorruptArchive)
		default:
			return nil, errors.Mark(errors.Wrapf(err, "opening archive %s", archivePath), errors.ErrIO)
		}
	}
	zr.RegisterDecompressor(zip.Deflate, flate.NewReader)

	r := &Reader{path: archivePath, zr: zr, files: make(map[string]*zip.File, len(zr.File))}
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			continue
		}
		name := normalizeName(f.Name)
		if _, dup := r.files[name]; !dup {
			r.names = append(r.names, name)
		}
		r.files[name] = f
	}
	sort.Strings(r.names)

	return r, nil
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	return r.zr.Close()
}

// Path returns the archive's location on disk.
func (r *Reader) Path() string {
	return r.path
}

// Names returns the relative paths of all file entries, sorted.
func (r *Reader) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Has reports whether the archive contains a file entry named name.
func (r *Reader) Has(name string) bool {
	_, ok := r.files[name]
	return ok
}

// Size returns the uncompressed size of the entry.
func (r *Reader) Size(name string) (int64, bool) {
	f, ok := r.files[name]
	if !ok {
		return 0, false
	}
	return int64(f.UncompressedSize64), true
}

// OpenEntry opens the named entry for reading. Read errors from the returned
// reader are marked errors.ErrCorruptArchive.
func (r *Reader) OpenEntry(name string) (io.ReadCloser, error) {
	f, ok := r.files[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrNotFound, "entry %s in %s", name, r.path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "opening entry %s", name), errors.ErrCorruptArchive)
	}
	return &corruptOnError{rc: rc, name: name}, nil
}

// ReadEntry returns the named entry's content. Entries larger than limit
// bytes fail with fileutil.ErrFileTooLarge; limit <= 0 means
// fileutil.MaxFileSize.
func (r *Reader) ReadEntry(name string, limit int64) ([]byte, error) {
	rc, err := r.OpenEntry(name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	return fileutil.ReadAllWithLimit(rc, limit)
}

// ExtractTo writes every entry beneath destDir, creating parent directories
// as needed. It returns the number of files written.
func (r *Reader) ExtractTo(destDir string) (int, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return 0, errors.Mark(errors.Wrapf(err, "creating %s", destDir), errors.ErrIO)
	}

	// Directory entries first so empty directories survive.
	for _, f := range r.zr.File {
		if !strings.HasSuffix(f.Name, "/") {
			continue
		}
		target, err := safeJoin(destDir, normalizeName(f.Name))
		if err != nil {
			return 0, err
		}
		if err := os.MkdirAll(target, 0o755); err != nil {
			return 0, errors.Mark(errors.Wrapf(err, "creating %s", target), errors.ErrIO)
		}
	}

	for i, name := range r.names {
		if err := r.extractFile(destDir, name); err != nil {
			return i, err
		}
	}
	return len(r.names), nil
}

func (r *Reader) extractFile(destDir, name string) error {
	if name == "." {
		return errors.Wrapf(errors.ErrCorruptArchive, "file entry %q names the archive root", r.files[name].Name)
	}
	target, err := safeJoin(destDir, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return errors.Mark(errors.Wrapf(err, "creating parent of %s", target), errors.ErrIO)
	}

	f := r.files[name]
	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	src, err := r.OpenEntry(name)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Mark(errors.Wrapf(err, "creating %s", target), errors.ErrIO)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		if errors.Is(err, errors.ErrCorruptArchive) {
			return err
		}
		return errors.Mark(errors.Wrapf(err, "writing %s", target), errors.ErrIO)
	}
	if err := dst.Close(); err != nil {
		return errors.Mark(errors.Wrapf(err, "closing %s", target), errors.ErrIO)
	}

	if !f.Modified.IsZero() {
		_ = os.Chtimes(target, f.Modified, f.Modified)
	}
	return nil
}

// Extract unpacks the archive at archivePath into destDir.
func Extract(archivePath, destDir string) error {
	r, err := Open(archivePath)
	if err != nil {
		return err
	}
	defer r.Close()

	_, err = r.ExtractTo(destDir)
	return err
}

// normalizeName converts separators written by other tools to '/'.
func normalizeName(name string) string {
	return path.Clean(strings.ReplaceAll(name, `\`, "/"))
}

// safeJoin resolves an entry name under root, rejecting names that would
// escape it.
func safeJoin(root, name string) (string, error) {
	local := filepath.FromSlash(strings.TrimSuffix(name, "/"))
	if local == "." {
		return root, nil
	}
	if !filepath.IsLocal(local) {
		return "", errors.Wrapf(errors.ErrCorruptArchive, "unsafe entry path %q", name)
	}
	return filepath.Join(root, local), nil
}

// corruptOnError marks decompression and checksum failures.
type corruptOnError struct {
	rc   io.ReadCloser
	name string
}

func (c *corruptOnError) Read(p []byte) (int, error) {
	n, err := c.rc.Read(p)
	if err != nil && err != io.EOF {
		err = errors.Mark(errors.Wrapf(err, "reading entry %s", c.name), errors.ErrCorruptArchive)
	}
	return n, err
}

func (c *corruptOnError) Close() error {
	return c.rc.Close()
}
