// Package watch takes a snapshot after a source tree has been quiet for a
// while following changes.
package watch

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// DefaultDebounce is the quiet period used when Options.Debounce is zero.
const DefaultDebounce = 5 * time.Second

// Runner is the part of backup.Manager a watcher drives.
type Runner interface {
	Create(ctx context.Context, sourceDir string) (*backup.Snapshot, error)
}

// Options configures a Watcher.
type Options struct {
	Source string

	// StoreDir is ignored when it lies inside Source.
	StoreDir string

	Debounce time.Duration
	Logger   *slog.Logger

	// OnSnapshot is called after every triggered backup.
	OnSnapshot func(*backup.Snapshot, error)
}

// Watcher watches a source tree recursively.
type Watcher struct {
	runner   Runner
	source   string
	store    string
	debounce time.Duration
	logger   *slog.Logger
	notify   func(*backup.Snapshot, error)
}

// New validates opts and returns a Watcher.
func New(r Runner, opts Options) (*Watcher, error) {
	if opts.Source == "" {
		return nil, errors.Wrap(errors.ErrPrecondition, "no source directory to watch")
	}
	source, err := filepath.Abs(opts.Source)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "resolving %s", opts.Source), errors.ErrPrecondition)
	}
	fi, err := os.Stat(source)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "source directory %s", source), errors.ErrPrecondition)
	}
	if !fi.IsDir() {
		return nil, errors.Wrapf(errors.ErrPrecondition, "source %s is not a directory", source)
	}
	if opts.Debounce < 0 {
		return nil, errors.Wrapf(errors.ErrPrecondition, "debounce must be non-negative, got %s", opts.Debounce)
	}

	w := &Watcher{
		runner:   r,
		source:   source,
		debounce: opts.Debounce,
		logger:   opts.Logger,
		notify:   opts.OnSnapshot,
	}
	if w.debounce == 0 {
		w.debounce = DefaultDebounce
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	if opts.StoreDir != "" {
		if store, err := filepath.Abs(opts.StoreDir); err == nil {
			w.store = store
		}
	}
	return w, nil
}

// ignored reports whether changes at path never trigger a backup.
func (w *Watcher) ignored(path string) bool {
	if w.store != "" && fileutil.IsWithin(w.store, path) {
		return true
	}
	return strings.HasPrefix(filepath.Base(path), fileutil.TempPrefix)
}

// addTree watches root and every directory below it.
func (w *Watcher) addTree(fw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Vanished or unreadable directories are not fatal.
			w.logger.Debug("skipping directory", "path", path, "error", err)
			if d != nil && d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if path != w.source && w.ignored(path) {
			return fs.SkipDir
		}
		if err := fw.Add(path); err != nil {
			return errors.Wrapf(err, "watching %s", path)
		}
		return nil
	})
}

// Run watches until ctx is cancelled. Changes restart the quiet period; when
// it elapses one backup runs. Changes during a backup queue at most one more.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "creating watcher")
	}
	defer fw.Close()

	if err := w.addTree(fw, w.source); err != nil {
		return err
	}
	w.logger.Info("watching", "source", w.source, "debounce", w.debounce)

	trigger := make(chan struct{}, 1)
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case <-trigger:
				w.backup(ctx)
			}
		}
	}()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
		wg.Wait()
	}()

	fire := func() {
		select {
		case trigger <- struct{}{}:
		default:
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if w.ignored(ev.Name) {
				continue
			}
			w.logger.Debug("event", "name", ev.Name, "op", ev.Op.String())

			if ev.Has(fsnotify.Create) {
				if fi, err := os.Lstat(ev.Name); err == nil && fi.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.logger.Warn("watching new directory", "path", ev.Name, "error", err)
					}
				}
			}

			if timer == nil {
				timer = time.AfterFunc(w.debounce, fire)
			} else {
				timer.Reset(w.debounce)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch error", "error", err)
		}
	}
}

func (w *Watcher) backup(ctx context.Context) {
	snap, err := w.runner.Create(ctx, w.source)
	if err != nil {
		w.logger.Error("triggered backup failed", "source", w.source, "error", err)
	} else {
		w.logger.Info("triggered backup", "name", snap.Name, "files", snap.TotalFiles)
	}
	if w.notify != nil {
		w.notify(snap, err)
	}
}
