package backup

import (
	"context"
	"os"
	"path/filepath"

	"github.com/KrolPower/LocalVCS/internal/archive"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/lock"
	"github.com/KrolPower/LocalVCS/internal/manifest"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// Create snapshots sourceDir into the store.
//
// Every regular file below sourceDir is archived and digested in one pass,
// so each manifest digest describes exactly the archived bytes. The archive
// is durable on disk before the manifest is written; if the manifest cannot
// be written the archive is removed again. Files that cannot be opened are
// left out of both and listed in Snapshot.Skipped.
func (m *Manager) Create(ctx context.Context, sourceDir string) (*Snapshot, error) {
	source, err := absDir(sourceDir, "source")
	if err != nil {
		return nil, err
	}
	if m.storeDir == "" {
		return nil, errors.Wrap(errors.ErrPrecondition, "no store directory configured")
	}
	store, err := filepath.Abs(m.storeDir)
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "resolving store"), errors.ErrPrecondition)
	}
	if store == source {
		return nil, errors.Wrapf(errors.ErrPrecondition, "source %s is the store directory", source)
	}

	l, err := m.acquire(ctx, lock.Exclusive)
	if err != nil {
		return nil, err
	}
	defer release(l, m.logger)

	return m.create(ctx, source, store)
}

// create does the work of Create with the store lock already held.
func (m *Manager) create(ctx context.Context, source, store string) (*Snapshot, error) {
	createdAt := m.now()
	name, overwrite, err := snapshot.Allocate(store, createdAt, m.collision)
	if err != nil {
		return nil, err
	}
	files := snapshot.FilesFor(store, name)

	logger := m.logger.With("name", name)
	logger.Info("creating snapshot", "source", source, "store", store)

	walk, err := fileutil.WalkFiles(source, fileutil.WalkOptions{Exclude: []string{store}})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "walking %s", source), errors.ErrBackupFailed)
	}
	for _, s := range walk.Skipped {
		logger.Warn("skipping uninspectable path", "path", s)
	}

	var res *archive.WriteResult
	err = fileutil.Retry(ctx, m.retry, func() error {
		var werr error
		res, werr = archive.Write(files.Archive, walk.Files, archive.WriteOptions{
			Level:  m.level,
			Hasher: m.hasher,
			Logger: logger,
		})
		return werr
	})
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "creating snapshot %s", name), errors.ErrBackupFailed)
	}

	if overwrite {
		logger.Warn("overwrote existing snapshot with the same name")
		// The old manifest must not describe the new archive.
		if err := os.Remove(files.Manifest); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrap(err, "removing previous manifest"), errors.ErrBackupFailed)
		}
	}

	digests := make(map[string]string, len(res.Entries))
	for _, e := range res.Entries {
		digests[e.Name] = e.Digest
	}
	man := manifest.New(name, createdAt, source, m.hasher.Algorithm(), digests)

	err = fileutil.Retry(ctx, m.retry, func() error {
		return manifest.Save(man, files.Manifest)
	})
	if err != nil {
		if rerr := os.Remove(files.Archive); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			logger.Error("removing archive after manifest failure", "archive", files.Archive, "error", rerr)
		}
		return nil, errors.Mark(errors.Wrapf(err, "creating snapshot %s", name), errors.ErrBackupFailed)
	}

	skipped := append(append([]string(nil), walk.Skipped...), res.Skipped...)
	logger.Info("created snapshot", "files", man.TotalFiles(), "skipped", len(skipped))

	return &Snapshot{
		Name:            name,
		ArchivePath:     files.Archive,
		ManifestPath:    files.Manifest,
		CreatedAt:       createdAt,
		SourceDirectory: source,
		TotalFiles:      man.TotalFiles(),
		Algorithm:       man.Algorithm,
		Skipped:         skipped,
		Overwrote:       overwrite,
	}, nil
}
