package fileutil

import (
	"io"
	"os"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// MaxFileSize is the default limit for ReadFileWithLimit (1MB).
const MaxFileSize = 1024 * 1024

// ErrFileTooLarge indicates that content exceeded the read limit.
var ErrFileTooLarge = errors.New("file exceeds size limit")

// ReadFileWithLimit reads a file of at most limit bytes.
// A limit <= 0 means MaxFileSize.
func ReadFileWithLimit(path string, limit int64) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "opening file")
	}
	defer f.Close()

	// Fail fast when the size is already known to be too large.
	if info, err := f.Stat(); err == nil && info.Size() > effectiveLimit(limit) {
		return nil, errors.Wrapf(ErrFileTooLarge, "%d bytes", info.Size())
	}

	return ReadAllWithLimit(f, limit)
}

// ReadAllWithLimit reads r until EOF, failing with ErrFileTooLarge past limit bytes.
// A limit <= 0 means MaxFileSize.
func ReadAllWithLimit(r io.Reader, limit int64) ([]byte, error) {
	limit = effectiveLimit(limit)

	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, errors.Wrap(err, "reading file")
	}

	if int64(len(data)) > limit {
		return nil, errors.Wrapf(ErrFileTooLarge, "more than %d bytes", limit)
	}

	return data, nil
}

func effectiveLimit(limit int64) int64 {
	if limit <= 0 {
		return MaxFileSize
	}
	return limit
}
