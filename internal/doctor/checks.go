package doctor

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/KrolPower/LocalVCS/internal/config"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/lock"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// ConfigCheck reports whether the configuration loaded and validates.
type ConfigCheck struct {
	cfg     *config.Config
	loadErr error
	path    string
}

var _ Check = (*ConfigCheck)(nil)

// NewConfigCheck checks cfg, or reports loadErr when loading already
// failed. path is only used in messages.
func NewConfigCheck(cfg *config.Config, loadErr error, path string) *ConfigCheck {
	return &ConfigCheck{cfg: cfg, loadErr: loadErr, path: path}
}

func (c *ConfigCheck) Name() string     { return "config" }
func (c *ConfigCheck) Category() string { return "config" }

func (c *ConfigCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Details: map[string]any{"path": c.path}}

	if c.loadErr != nil {
		result.Status = SeverityError
		result.Message = c.loadErr.Error()
		result.FixHint = "Fix or remove " + c.path
		return result
	}
	if c.cfg == nil {
		result.Status = SeverityInfo
		result.Message = "no configuration loaded, using defaults"
		return result
	}

	if errs := config.Validate(c.cfg); len(errs) > 0 {
		msgs := make([]string, 0, len(errs))
		for _, err := range errs {
			msgs = append(msgs, err.Error())
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("%d invalid settings", len(errs))
		result.Details["problems"] = msgs
		result.FixHint = "Run: localvcs config set <key> <value>"
		return result
	}

	result.Status = SeverityPass
	result.Message = "configuration is valid"
	return result
}

// StoreCheck reports whether the store directory is usable.
type StoreCheck struct {
	dir string
}

var _ Check = (*StoreCheck)(nil)

// NewStoreCheck creates a check of the store at dir.
func NewStoreCheck(dir string) *StoreCheck {
	return &StoreCheck{dir: dir}
}

func (c *StoreCheck) Name() string     { return "store" }
func (c *StoreCheck) Category() string { return "store" }

func (c *StoreCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{Details: map[string]any{"path": c.dir}}

	if c.dir == "" {
		result.Status = SeverityError
		result.Message = "no store directory configured"
		result.FixHint = "Run: localvcs config set store_dir <dir>"
		return result
	}

	fi, err := os.Stat(c.dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = SeverityInfo
		result.Message = "store does not exist yet, the first backup creates it"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot stat store: %v", err)
		return result
	case !fi.IsDir():
		result.Status = SeverityError
		result.Message = "store path is not a directory"
		result.FixHint = "Run: localvcs config set store_dir <dir>"
		return result
	}

	probe, err := os.CreateTemp(c.dir, fileutil.TempPrefix+"doctor-*")
	if err != nil {
		result.Status = SeverityError
		result.Message = "store is not writable"
		result.FixHint = "chmod u+w " + c.dir
		return result
	}
	probe.Close()
	_ = os.Remove(probe.Name())

	result.Status = SeverityPass
	result.Message = "store is writable"
	return result
}

// LockCheck reports whether another process holds the store lock.
type LockCheck struct {
	dir string
}

var _ Check = (*LockCheck)(nil)

// NewLockCheck creates a check of the lock on the store at dir.
func NewLockCheck(dir string) *LockCheck {
	return &LockCheck{dir: dir}
}

func (c *LockCheck) Name() string     { return "lock" }
func (c *LockCheck) Category() string { return "store" }

func (c *LockCheck) Run(ctx context.Context) *CheckResult {
	result := &CheckResult{}

	if !isDir(c.dir) {
		result.Status = SeverityPass
		result.Message = "no store to lock"
		return result
	}

	l, err := lock.Acquire(ctx, c.dir, lock.Exclusive, lock.Options{})
	switch {
	case errors.Is(err, errors.ErrLocked):
		result.Status = SeverityWarning
		result.Message = "store is in use by another localvcs process"
		result.FixHint = "Wait for the other backup, restore or watch to finish"
		return result
	case err != nil:
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot lock store: %v", err)
		return result
	}
	_ = l.Release()

	result.Status = SeverityPass
	result.Message = "store is not locked"
	return result
}

// LeftoverCheck finds temporary files left by interrupted operations and
// manifests or notes whose archive is gone. Fix removes them.
type LeftoverCheck struct {
	dir string

	temporary []string
	orphaned  []string
}

var (
	_ Check = (*LeftoverCheck)(nil)
	_ Fixer = (*LeftoverCheck)(nil)
)

// NewLeftoverCheck creates a check for leftovers in the store at dir.
func NewLeftoverCheck(dir string) *LeftoverCheck {
	return &LeftoverCheck{dir: dir}
}

func (c *LeftoverCheck) Name() string     { return "leftovers" }
func (c *LeftoverCheck) Category() string { return "store" }

func (c *LeftoverCheck) Run(context.Context) *CheckResult {
	c.temporary, c.orphaned = nil, nil
	result := &CheckResult{}

	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Status = SeverityPass
			result.Message = "no store to scan"
			return result
		}
		result.Status = SeverityError
		result.Message = fmt.Sprintf("cannot read store: %v", err)
		return result
	}

	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasPrefix(name, fileutil.TempPrefix):
			c.temporary = append(c.temporary, filepath.Join(c.dir, name))
		case strings.HasPrefix(name, snapshot.Prefix):
			if base, ok := metadataOwner(name); ok && !isFile(snapshot.FilesFor(c.dir, base).Archive) {
				c.orphaned = append(c.orphaned, filepath.Join(c.dir, name))
			}
		}
	}

	if len(c.temporary) == 0 && len(c.orphaned) == 0 {
		result.Status = SeverityPass
		result.Message = "no leftover files"
		return result
	}

	result.Status = SeverityWarning
	result.Message = fmt.Sprintf("%d temporary and %d orphaned files", len(c.temporary), len(c.orphaned))
	result.Details = map[string]any{
		"temporary": c.temporary,
		"orphaned":  c.orphaned,
	}
	result.Fixable = true
	result.FixHint = "Run: localvcs doctor --fix"
	return result
}

// CanFix reports whether Run found anything to remove.
func (c *LeftoverCheck) CanFix() bool {
	return len(c.temporary)+len(c.orphaned) > 0
}

// Fix removes the files found by Run while holding the store lock
// exclusively, so an operation in progress is never disturbed.
func (c *LeftoverCheck) Fix(ctx context.Context) []FixResult {
	targets := append(append([]string{}, c.temporary...), c.orphaned...)
	sort.Strings(targets)
	results := make([]FixResult, 0, len(targets))

	l, err := lock.Acquire(ctx, c.dir, lock.Exclusive, lock.Options{})
	if err != nil {
		for _, p := range targets {
			results = append(results, FixResult{Path: p, Description: "store is in use", Error: err})
		}
		return results
	}
	defer func() { _ = l.Release() }()

	for _, p := range targets {
		if err := os.RemoveAll(p); err != nil {
			results = append(results, FixResult{
				Path:        p,
				Description: fmt.Sprintf("failed to remove: %v", err),
				Error:       errors.Wrapf(err, "removing %s", p),
			})
			continue
		}
		results = append(results, FixResult{Path: p, Fixed: true, Description: "removed"})
	}
	c.temporary, c.orphaned = nil, nil
	return results
}

// metadataOwner returns the snapshot a manifest or notes file belongs to.
func metadataOwner(fname string) (string, bool) {
	for _, suffix := range []string{snapshot.ManifestSuffix, snapshot.NotesSuffix} {
		if base, ok := strings.CutSuffix(fname, suffix); ok {
			return base, true
		}
	}
	return "", false
}

// SnapshotCheck reports snapshots that compare and verify cannot use.
type SnapshotCheck struct {
	dir string
}

var _ Check = (*SnapshotCheck)(nil)

// NewSnapshotCheck creates a check of the snapshots in dir.
func NewSnapshotCheck(dir string) *SnapshotCheck {
	return &SnapshotCheck{dir: dir}
}

func (c *SnapshotCheck) Name() string     { return "snapshots" }
func (c *SnapshotCheck) Category() string { return "snapshot" }

func (c *SnapshotCheck) Run(context.Context) *CheckResult {
	result := &CheckResult{}

	infos, err := snapshot.List(c.dir)
	if err != nil {
		result.Status = SeverityError
		result.Message = err.Error()
		return result
	}
	if len(infos) == 0 {
		result.Status = SeverityInfo
		result.Message = "no snapshots"
		return result
	}

	var missing, unreadable []string
	for _, info := range infos {
		switch {
		case !info.HasManifest:
			missing = append(missing, info.Name)
		case info.ManifestErr != nil:
			unreadable = append(unreadable, info.Name)
		}
	}

	if len(missing) == 0 && len(unreadable) == 0 {
		result.Status = SeverityPass
		result.Message = fmt.Sprintf("%d snapshots have manifests", len(infos))
		return result
	}

	result.Status = SeverityWarning
	result.Message = fmt.Sprintf("%d of %d snapshots cannot be compared or verified", len(missing)+len(unreadable), len(infos))
	result.Details = map[string]any{}
	if len(missing) > 0 {
		result.Details["missing_manifest"] = missing
	}
	if len(unreadable) > 0 {
		result.Details["unreadable_manifest"] = unreadable
	}
	result.FixHint = "Restore still works; remove them with: localvcs delete <name>"
	return result
}

func isDir(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.IsDir()
}

func isFile(path string) bool {
	fi, err := os.Stat(path)
	return err == nil && fi.Mode().IsRegular()
}
