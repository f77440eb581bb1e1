package backup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/KrolPower/LocalVCS/internal/archive"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/lock"
	"github.com/KrolPower/LocalVCS/internal/manifest"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// stagingPattern names restore staging directories, created next to the
// destination so the final swap is a same-filesystem rename.
const stagingPattern = fileutil.TempPrefix + "restore-*"

// Restore replaces dest with the content of a snapshot.
//
// When dest is empty the snapshot's recorded source directory is used,
// falling back to the Manager's source directory. The archive is fully
// extracted into a staging directory first; dest is only touched once that
// succeeds, and is then swapped with the staged tree by rename. If the swap
// fails the previous dest is put back. An archive whose only top-level entry
// is a directory restores that directory's contents.
func (m *Manager) Restore(ctx context.Context, ref, dest string, opts RestoreOptions) (*RestoreResult, error) {
	files, err := m.resolve(ref)
	if err != nil {
		return nil, err
	}

	l, err := m.acquire(ctx, lock.Exclusive)
	if err != nil {
		return nil, err
	}
	defer release(l, m.logger)

	dest, err = m.restoreTarget(files.Manifest, dest)
	if err != nil {
		return nil, err
	}
	logger := m.logger.With("name", files.Name)

	parent := filepath.Dir(dest)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "creating %s", parent), errors.ErrIO)
	}
	staging, err := os.MkdirTemp(parent, stagingPattern)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating staging directory"), errors.ErrIO)
	}
	defer func() {
		if err := os.RemoveAll(staging); err != nil {
			logger.Warn("removing staging directory", "staging", staging, "error", err)
		}
	}()

	logger.Info("restoring snapshot", "dest", dest, "staging", staging)

	tree := filepath.Join(staging, "tree")
	var count int
	err = fileutil.Retry(ctx, m.retry, func() error {
		if err := os.RemoveAll(tree); err != nil {
			return errors.Mark(err, errors.ErrIO)
		}
		r, err := archive.Open(files.Archive)
		if err != nil {
			return err
		}
		defer r.Close()
		count, err = r.ExtractTo(tree)
		return err
	})
	if err != nil {
		return nil, errors.Wrapf(err, "extracting %s", files.Name)
	}

	root, flattened, err := flattenRoot(tree)
	if err != nil {
		return nil, err
	}

	result := &RestoreResult{Snapshot: files.Name, Destination: dest, Files: count, Flattened: flattened}

	if opts.SafetySnapshot {
		safety, err := m.ensureSafetySnapshot(ctx, dest)
		if err != nil {
			return nil, errors.Wrap(err, "snapshotting destination before restore")
		}
		result.Safety = safety
	}

	if err := swapInto(root, dest, filepath.Join(staging, "previous")); err != nil {
		return nil, err
	}

	logger.Info("restored snapshot", "dest", dest, "files", count)
	return result, nil
}

// restoreTarget picks and validates the restore destination.
func (m *Manager) restoreTarget(manifestPath, dest string) (string, error) {
	if dest == "" {
		man, err := manifest.Load(manifestPath)
		switch {
		case err == nil && man.SourceDirectory != "":
			dest = man.SourceDirectory
		case m.sourceDir != "":
			dest = m.sourceDir
		case err != nil:
			return "", errors.Wrapf(errors.ErrPrecondition, "no destination given and manifest unusable: %v", err)
		default:
			return "", errors.Wrap(errors.ErrPrecondition, "no destination given and none recorded")
		}
	}

	abs, err := filepath.Abs(dest)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "resolving %s", dest), errors.ErrPrecondition)
	}
	if filepath.Dir(abs) == abs {
		return "", errors.Wrapf(errors.ErrPrecondition, "refusing to restore onto filesystem root %s", abs)
	}
	if fileutil.IsWithin(abs, m.storeDir) {
		return "", errors.Wrapf(errors.ErrPrecondition, "destination %s contains the store %s", abs, m.storeDir)
	}
	if fi, err := os.Lstat(abs); err == nil && !fi.IsDir() {
		return "", errors.Wrapf(errors.ErrPrecondition, "destination %s is not a directory", abs)
	}
	return abs, nil
}

// flattenRoot returns the directory whose contents become the destination.
func flattenRoot(tree string) (string, bool, error) {
	entries, err := os.ReadDir(tree)
	if err != nil {
		return "", false, errors.Mark(errors.Wrapf(err, "reading %s", tree), errors.ErrIO)
	}
	if len(entries) == 1 && entries[0].IsDir() {
		return filepath.Join(tree, entries[0].Name()), true, nil
	}
	return tree, false, nil
}

// swapInto moves staged into dest's place. An existing dest is first renamed
// to aside and restored if the second rename fails.
func swapInto(staged, dest, aside string) error {
	moved := false
	if _, err := os.Lstat(dest); err == nil {
		if err := os.Rename(dest, aside); err != nil {
			return errors.Mark(errors.Wrapf(err, "moving %s aside", dest), errors.ErrIO)
		}
		moved = true
	} else if !errors.Is(err, os.ErrNotExist) {
		return errors.Mark(errors.Wrapf(err, "stat %s", dest), errors.ErrIO)
	}

	if err := os.Rename(staged, dest); err != nil {
		err = errors.Mark(errors.Wrapf(err, "moving restored tree into %s", dest), errors.ErrIO)
		if moved {
			if rerr := os.Rename(aside, dest); rerr != nil {
				return errors.CombineErrors(err, errors.Wrapf(rerr, "putting back %s", dest))
			}
		}
		return err
	}
	return nil
}
