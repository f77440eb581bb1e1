// Package lock provides a directory-scoped advisory lock.
//
// Operations that change a store directory take the lock exclusively;
// read-only operations take it shared, so they run alongside each other but
// never alongside a writer. The lock is held on a file inside the directory
// and is released when the holder calls Release or exits.
package lock

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// FileName is the lock file created inside the locked directory.
const FileName = ".localvcs.lock"

// Mode selects shared or exclusive locking.
type Mode int

const (
	Shared Mode = iota
	Exclusive
)

func (m Mode) String() string {
	if m == Exclusive {
		return "exclusive"
	}
	return "shared"
}

const (
	initialBackoff = 10 * time.Millisecond
	maxBackoff     = 250 * time.Millisecond
)

// Lock is a held lock.
type Lock struct {
	path string
	mode Mode
	file *os.File
}

// Options tune Acquire.
type Options struct {
	// Timeout bounds the wait for a conflicting holder. Zero tries once.
	Timeout time.Duration
	Logger  *slog.Logger
}

// Acquire locks dir in the given mode, waiting up to opts.Timeout for
// conflicting holders. It fails with errors.ErrLocked when the wait expires.
func Acquire(ctx context.Context, dir string, mode Mode, opts Options) (*Lock, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	path := filepath.Join(dir, FileName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "opening lock file %s", path), errors.ErrIO)
	}

	ok, err := tryLock(f, mode)
	if err != nil {
		f.Close()
		return nil, errors.Mark(errors.Wrapf(err, "locking %s", path), errors.ErrIO)
	}
	if ok {
		return &Lock{path: path, mode: mode, file: f}, nil
	}

	if opts.Timeout <= 0 {
		f.Close()
		return nil, errors.Wrapf(errors.ErrLocked, "%s is in use", dir)
	}

	logger.Info("waiting for store lock", "store", dir, "mode", mode.String(), "timeout", opts.Timeout)

	waitCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	backoff := initialBackoff
	for {
		select {
		case <-waitCtx.Done():
			f.Close()
			if ctx.Err() != nil {
				return nil, errors.Wrap(ctx.Err(), "waiting for store lock")
			}
			return nil, errors.Wrapf(errors.ErrLocked, "%s still in use after %s", dir, opts.Timeout)
		case <-time.After(backoff):
		}

		ok, err := tryLock(f, mode)
		if err != nil {
			f.Close()
			return nil, errors.Mark(errors.Wrapf(err, "locking %s", path), errors.ErrIO)
		}
		if ok {
			logger.Debug("acquired store lock", "store", dir, "mode", mode.String())
			return &Lock{path: path, mode: mode, file: f}, nil
		}

		backoff *= 2
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}

// Mode returns the mode the lock is held in.
func (l *Lock) Mode() Mode {
	return l.mode
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}

// Release unlocks. It is safe to call more than once.
func (l *Lock) Release() error {
	if l == nil || l.file == nil {
		return nil
	}
	f := l.file
	l.file = nil

	uerr := unlock(f)
	cerr := f.Close()
	if uerr != nil {
		return errors.Wrap(uerr, "unlocking")
	}
	return cerr
}
