package backup

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/lock"
	"github.com/KrolPower/LocalVCS/internal/paths"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
	"github.com/KrolPower/LocalVCS/internal/textdiff"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// Manager creates, restores, compares and maintains the snapshots of one
// store directory.
type Manager struct {
	storeDir    string
	sourceDir   string
	tempDir     string
	hasher      *digest.Hasher
	collision   snapshot.Collision
	level       int
	retry       fileutil.RetryPolicy
	lockTimeout time.Duration
	differ      *textdiff.Differ
	logger      *slog.Logger
	now         func() time.Time

	safetyMu sync.Mutex
	safety   map[string]*Snapshot
}

// Option configures a Manager.
type Option func(*Manager)

// WithStoreDir sets the directory snapshots are written to.
func WithStoreDir(dir string) Option {
	return func(m *Manager) {
		m.storeDir = dir
	}
}

// WithSourceDir sets the fallback restore destination for snapshots whose
// manifest does not record one.
func WithSourceDir(dir string) Option {
	return func(m *Manager) {
		m.sourceDir = dir
	}
}

// WithTempDir sets where content comparisons extract archives.
func WithTempDir(dir string) Option {
	return func(m *Manager) {
		m.tempDir = dir
	}
}

// WithHasher sets the digest algorithm for new snapshots.
func WithHasher(h *digest.Hasher) Option {
	return func(m *Manager) {
		if h != nil {
			m.hasher = h
		}
	}
}

// WithCollisionPolicy sets how a same-second name clash is resolved.
func WithCollisionPolicy(c snapshot.Collision) Option {
	return func(m *Manager) {
		m.collision = c
	}
}

// WithCompressionLevel sets the Deflate level for new archives.
func WithCompressionLevel(level int) Option {
	return func(m *Manager) {
		m.level = level
	}
}

// WithRetry sets the retry policy for archive and manifest I/O.
func WithRetry(attempts int, backoff time.Duration) Option {
	return func(m *Manager) {
		m.retry.Attempts = attempts
		m.retry.Backoff = backoff
	}
}

// WithLockTimeout bounds the wait for conflicting operations.
func WithLockTimeout(d time.Duration) Option {
	return func(m *Manager) {
		m.lockTimeout = d
	}
}

// WithDiffOptions configures line diffs.
func WithDiffOptions(opts textdiff.Options) Option {
	return func(m *Manager) {
		m.differ = textdiff.New(opts)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// NewManager creates a Manager with the given options.
func NewManager(opts ...Option) *Manager {
	h, _ := digest.New(digest.Default)
	m := &Manager{
		storeDir:    paths.DefaultStoreDir(),
		hasher:      h,
		collision:   snapshot.CollisionSuffix,
		level:       -1,
		retry:       fileutil.RetryPolicy{Attempts: DefaultRetryAttempts, Backoff: DefaultRetryBackoff},
		lockTimeout: DefaultLockTimeout,
		differ:      textdiff.New(textdiff.Options{Context: textdiff.DefaultContext}),
		logger:      slog.Default(),
		now:         time.Now,
		safety:      make(map[string]*Snapshot),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.storeDir != "" {
		if abs, err := filepath.Abs(m.storeDir); err == nil {
			m.storeDir = abs
		}
	}
	m.retry.OnRetry = func(attempt int, err error) {
		m.logger.Warn("retrying after transient error", "attempt", attempt, "error", err)
	}
	return m
}

// StoreDir returns the store directory.
func (m *Manager) StoreDir() string {
	return m.storeDir
}

// Algorithm returns the digest algorithm used for new snapshots.
func (m *Manager) Algorithm() digest.Algorithm {
	return m.hasher.Algorithm()
}

// acquire prepares the store and locks it.
func (m *Manager) acquire(ctx context.Context, mode lock.Mode) (*lock.Lock, error) {
	if err := snapshot.EnsureStore(m.storeDir); err != nil {
		return nil, err
	}
	return lock.Acquire(ctx, m.storeDir, mode, lock.Options{Timeout: m.lockTimeout, Logger: m.logger})
}

func release(l *lock.Lock, logger *slog.Logger) {
	if err := l.Release(); err != nil {
		logger.Warn("releasing store lock", "error", err)
	}
}

// resolve validates ref and returns the snapshot's files. The archive must
// exist.
func (m *Manager) resolve(ref string) (snapshot.Files, error) {
	name, err := snapshot.ValidateName(ref)
	if err != nil {
		return snapshot.Files{}, err
	}
	files := snapshot.FilesFor(m.storeDir, name)
	if _, err := os.Stat(files.Archive); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return snapshot.Files{}, errors.Wrapf(errors.ErrNotFound, "snapshot %s", name)
		}
		return snapshot.Files{}, errors.Mark(errors.Wrapf(err, "stat %s", files.Archive), errors.ErrIO)
	}
	return files, nil
}

// List returns the store's snapshots, newest first.
func (m *Manager) List(ctx context.Context) ([]snapshot.Info, error) {
	return snapshot.List(m.storeDir)
}

// Stat returns one snapshot's listing entry.
func (m *Manager) Stat(ctx context.Context, ref string) (snapshot.Info, error) {
	name, err := snapshot.ValidateName(ref)
	if err != nil {
		return snapshot.Info{}, err
	}
	return snapshot.Stat(m.storeDir, name)
}

// Latest returns the newest snapshot, or errors.ErrNotFound for an empty store.
func (m *Manager) Latest(ctx context.Context) (snapshot.Info, error) {
	infos, err := m.List(ctx)
	if err != nil {
		return snapshot.Info{}, err
	}
	if len(infos) == 0 {
		return snapshot.Info{}, errors.Wrapf(errors.ErrNotFound, "no snapshots in %s", m.storeDir)
	}
	return infos[0], nil
}

// Delete removes a snapshot's archive, manifest and notes. Removing an absent
// snapshot is not an error; the returned paths are the files that existed.
func (m *Manager) Delete(ctx context.Context, ref string) ([]string, error) {
	name, err := snapshot.ValidateName(ref)
	if err != nil {
		return nil, err
	}

	l, err := m.acquire(ctx, lock.Exclusive)
	if err != nil {
		return nil, err
	}
	defer release(l, m.logger)

	removed, err := snapshot.Delete(m.storeDir, name)
	if err != nil {
		return removed, errors.Wrapf(err, "deleting %s", name)
	}
	m.logger.Info("deleted snapshot", "name", name, "files", len(removed))
	return removed, nil
}

// Prune deletes all but the keep newest snapshots and returns the names it
// removed.
func (m *Manager) Prune(ctx context.Context, keep int) ([]string, error) {
	if keep < 0 {
		return nil, errors.Wrapf(errors.ErrPrecondition, "keep must be non-negative, got %d", keep)
	}

	l, err := m.acquire(ctx, lock.Exclusive)
	if err != nil {
		return nil, err
	}
	defer release(l, m.logger)

	infos, err := snapshot.List(m.storeDir)
	if err != nil {
		return nil, err
	}

	var pruned []string
	for i := keep; i < len(infos); i++ {
		if _, err := snapshot.Delete(m.storeDir, infos[i].Name); err != nil {
			return pruned, errors.Wrapf(err, "pruning %s", infos[i].Name)
		}
		pruned = append(pruned, infos[i].Name)
	}
	if len(pruned) > 0 {
		m.logger.Info("pruned snapshots", "kept", keep, "removed", len(pruned))
	}
	return pruned, nil
}

// Notes returns a snapshot's notes.
func (m *Manager) Notes(ctx context.Context, ref string) (string, error) {
	files, err := m.resolve(ref)
	if err != nil {
		return "", err
	}
	return snapshot.ReadNotes(m.storeDir, files.Name)
}

// SetNotes replaces a snapshot's notes; empty notes remove them.
func (m *Manager) SetNotes(ctx context.Context, ref, notes string) error {
	name, err := snapshot.ValidateName(ref)
	if err != nil {
		return err
	}

	l, err := m.acquire(ctx, lock.Exclusive)
	if err != nil {
		return err
	}
	defer release(l, m.logger)

	return snapshot.WriteNotes(m.storeDir, name, notes)
}

// absDir resolves dir and checks that it is an existing directory.
func absDir(dir, what string) (string, error) {
	if dir == "" {
		return "", errors.Wrapf(errors.ErrPrecondition, "no %s directory given", what)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "resolving %s", dir), errors.ErrPrecondition)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", errors.Mark(errors.Wrapf(err, "%s directory %s", what, abs), errors.ErrPrecondition)
	}
	if !fi.IsDir() {
		return "", errors.Wrapf(errors.ErrPrecondition, "%s %s is not a directory", what, abs)
	}
	return abs, nil
}
