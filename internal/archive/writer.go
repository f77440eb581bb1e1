package archive

import (
	"archive/zip"
	"context"
	"hash"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/flate"

	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/logging"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// DefaultLevel selects the codec's default compression level.
const DefaultLevel = flate.DefaultCompression

// WriteOptions configures archive creation.
type WriteOptions struct {
	// Level is the Deflate level: DefaultLevel (-1) or 0 (store) through 9 (best).
	Level int

	// Hasher, when set, digests each entry from the same bytes that are archived.
	Hasher *digest.Hasher

	// Logger receives per-file diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Entry describes one file written to an archive.
type Entry struct {
	Name   string
	Size   int64
	Digest string
}

// WriteResult is the outcome of Write.
type WriteResult struct {
	// Entries are in archive order.
	Entries []Entry

	// Skipped holds relative paths of files that could not be opened.
	// They are absent from the archive.
	Skipped []string
}

// ValidLevel reports whether level is an accepted compression level.
func ValidLevel(level int) bool {
	return level == DefaultLevel || (level >= flate.NoCompression && level <= flate.BestCompression)
}

// Write archives files into archivePath.
//
// A file that cannot be opened is skipped and reported; a read failure after
// its entry has started aborts the whole archive. archivePath is only replaced
// once the archive is complete and synced to disk.
func Write(archivePath string, files []fileutil.Entry, opts WriteOptions) (*WriteResult, error) {
	if !ValidLevel(opts.Level) {
		return nil, errors.Wrapf(errors.ErrPrecondition, "invalid compression level %d", opts.Level)
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	res := &WriteResult{Entries: make([]Entry, 0, len(files))}

	err := fileutil.AtomicWriteWith(archivePath, 0o644, func(out *os.File) error {
		zw := zip.NewWriter(out)
		zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
			return flate.NewWriter(w, opts.Level)
		})

		for _, f := range files {
			entry, ok, err := writeEntry(zw, f, opts.Hasher)
			if err != nil {
				return err
			}
			if !ok {
				logger.Warn("skipping unreadable file", "path", f.AbsPath)
				res.Skipped = append(res.Skipped, f.RelPath)
				continue
			}
			logger.Log(context.Background(), logging.LevelTrace, "archived", "name", entry.Name, "size", entry.Size)
			res.Entries = append(res.Entries, entry)
		}

		return errors.Wrap(zw.Close(), "finishing zip directory")
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "writing archive %s", archivePath), errors.ErrIO)
	}

	return res, nil
}

// writeEntry copies one file into zw. ok is false when the file could not be
// opened, in which case nothing was written.
func writeEntry(zw *zip.Writer, f fileutil.Entry, hasher *digest.Hasher) (entry Entry, ok bool, err error) {
	src, err := os.Open(f.AbsPath)
	if err != nil {
		return Entry{}, false, nil
	}
	defer src.Close()

	hdr := &zip.FileHeader{
		Name:     f.RelPath,
		Method:   zip.Deflate,
		Modified: f.ModTime,
	}
	hdr.SetMode(f.Mode.Perm())

	w, err := zw.CreateHeader(hdr)
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "creating entry %s", f.RelPath)
	}

	var sink io.Writer = w
	var sum hash.Hash
	if hasher != nil {
		sum = hasher.NewHash()
		sink = io.MultiWriter(w, sum)
	}

	n, err := io.CopyBuffer(sink, src, make([]byte, digest.ChunkSize))
	if err != nil {
		return Entry{}, false, errors.Wrapf(err, "archiving %s", f.RelPath)
	}

	entry = Entry{Name: f.RelPath, Size: n}
	if sum != nil {
		entry.Digest = digest.Encode(sum)
	}
	return entry, true, nil
}
