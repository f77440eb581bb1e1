package backup

import (
	"context"
	"os"
	"slices"

	"github.com/KrolPower/LocalVCS/internal/archive"
	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/lock"
	"github.com/KrolPower/LocalVCS/internal/manifest"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
	"github.com/KrolPower/LocalVCS/internal/textdiff"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// Compare classifies the files of snapshot a (source) against snapshot b
// (target).
//
// When both manifests are present and use the same digest algorithm the
// result comes from the manifests alone. Otherwise both archives are
// extracted to temporary directories and compared byte by byte. A manifest
// that exists but cannot be parsed fails the comparison.
func (m *Manager) Compare(ctx context.Context, a, b string, opts CompareOptions) (*DiffResult, error) {
	fa, err := m.resolve(a)
	if err != nil {
		return nil, err
	}
	fb, err := m.resolve(b)
	if err != nil {
		return nil, err
	}

	l, err := m.acquire(ctx, lock.Shared)
	if err != nil {
		return nil, err
	}
	defer release(l, m.logger)

	logger := m.logger.With("source", fa.Name, "target", fb.Name)

	ma, errA := loadOptional(fa.Manifest)
	if errA != nil {
		return nil, errA
	}
	mb, errB := loadOptional(fb.Manifest)
	if errB != nil {
		return nil, errB
	}

	var res *DiffResult
	switch {
	case ma != nil && mb != nil && ma.Algorithm == mb.Algorithm:
		res = DiffManifests(ma, mb)
	default:
		switch {
		case ma == nil || mb == nil:
			logger.Warn("manifest missing, comparing archive contents")
		default:
			logger.Warn("manifests use different digests, comparing archive contents",
				"source_algorithm", ma.Algorithm, "target_algorithm", mb.Algorithm)
		}
		res, err = m.compareContents(ctx, fa.Archive, fb.Archive)
		if err != nil {
			return nil, err
		}
	}
	res.Source = fa.Name
	res.Target = fb.Name

	if opts.LineDiffs {
		res.Diffs = m.lineDiffs(fa, fb, res.Modified)
	}

	logger.Info("compared snapshots", "method", string(res.Method),
		"added", len(res.Added), "removed", len(res.Removed),
		"modified", len(res.Modified), "unchanged", len(res.Unchanged))
	return res, nil
}

// loadOptional loads a manifest, returning nil for one that does not exist.
func loadOptional(path string) (*manifest.Manifest, error) {
	man, err := manifest.Load(path)
	if errors.Is(err, errors.ErrNotFound) {
		return nil, nil
	}
	return man, err
}

// DiffManifests classifies the union of two manifests' paths. A path whose
// digest is unavailable on either side counts as modified.
func DiffManifests(a, b *manifest.Manifest) *DiffResult {
	res := &DiffResult{Method: MethodManifest}
	for p, da := range a.Files {
		db, ok := b.Files[p]
		switch {
		case !ok:
			res.Removed = append(res.Removed, p)
		case digest.Equal(da, db):
			res.Unchanged = append(res.Unchanged, p)
		default:
			res.Modified = append(res.Modified, p)
		}
	}
	for p := range b.Files {
		if _, ok := a.Files[p]; !ok {
			res.Added = append(res.Added, p)
		}
	}
	res.sort()
	return res
}

func (r *DiffResult) sort() {
	for _, s := range [][]string{r.Added, r.Removed, r.Modified, r.Unchanged} {
		slices.Sort(s)
	}
	r.Added = nonNil(r.Added)
	r.Removed = nonNil(r.Removed)
	r.Modified = nonNil(r.Modified)
	r.Unchanged = nonNil(r.Unchanged)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// compareContents extracts both archives and compares the trees byte by
// byte. The temporary directories are always removed.
func (m *Manager) compareContents(ctx context.Context, archiveA, archiveB string) (*DiffResult, error) {
	dirA, err := os.MkdirTemp(m.tempDir, fileutil.TempPrefix+"compare-*")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating temp directory"), errors.ErrIO)
	}
	defer os.RemoveAll(dirA)

	dirB, err := os.MkdirTemp(m.tempDir, fileutil.TempPrefix+"compare-*")
	if err != nil {
		return nil, errors.Mark(errors.Wrap(err, "creating temp directory"), errors.ErrIO)
	}
	defer os.RemoveAll(dirB)

	for _, x := range []struct{ archive, dir string }{{archiveA, dirA}, {archiveB, dirB}} {
		err := fileutil.Retry(ctx, m.retry, func() error {
			return archive.Extract(x.archive, x.dir)
		})
		if err != nil {
			return nil, errors.Wrapf(err, "extracting %s", x.archive)
		}
	}

	return m.compareTrees(dirA, dirB)
}

// compareTrees classifies the files of two directories. A comparison that
// fails counts as modified.
func (m *Manager) compareTrees(dirA, dirB string) (*DiffResult, error) {
	walkA, err := fileutil.WalkFiles(dirA, fileutil.WalkOptions{})
	if err != nil {
		return nil, errors.Mark(err, errors.ErrIO)
	}
	walkB, err := fileutil.WalkFiles(dirB, fileutil.WalkOptions{})
	if err != nil {
		return nil, errors.Mark(err, errors.ErrIO)
	}

	inB := make(map[string]fileutil.Entry, len(walkB.Files))
	for _, f := range walkB.Files {
		inB[f.RelPath] = f
	}

	res := &DiffResult{Method: MethodContent}
	seen := make(map[string]bool, len(walkA.Files))
	for _, fa := range walkA.Files {
		seen[fa.RelPath] = true
		fb, ok := inB[fa.RelPath]
		if !ok {
			res.Removed = append(res.Removed, fa.RelPath)
			continue
		}
		same, err := fileutil.SameContent(fa.AbsPath, fb.AbsPath)
		if err != nil {
			m.logger.Debug("byte comparison failed", "path", fa.RelPath, "error", err)
		}
		if same && err == nil {
			res.Unchanged = append(res.Unchanged, fa.RelPath)
		} else {
			res.Modified = append(res.Modified, fa.RelPath)
		}
	}
	for _, fb := range walkB.Files {
		if !seen[fb.RelPath] {
			res.Added = append(res.Added, fb.RelPath)
		}
	}
	res.sort()
	return res, nil
}

// lineDiffs produces a FileDiff for each modified path. Failures are
// reported per file.
func (m *Manager) lineDiffs(fa, fb snapshot.Files, modified []string) []textdiff.FileDiff {
	if len(modified) == 0 {
		return nil
	}
	out := make([]textdiff.FileDiff, 0, len(modified))

	ra, errA := archive.Open(fa.Archive)
	if errA == nil {
		defer ra.Close()
	}
	rb, errB := archive.Open(fb.Archive)
	if errB == nil {
		defer rb.Close()
	}

	for _, p := range modified {
		switch {
		case !m.differ.IsText(p):
			out = append(out, textdiff.Unavailable(p, "not a text file"))
		case errA != nil:
			out = append(out, textdiff.Unavailable(p, "cannot open "+fa.Name))
		case errB != nil:
			out = append(out, textdiff.Unavailable(p, "cannot open "+fb.Name))
		default:
			out = append(out, m.diffEntry(ra, rb, fa.Name, fb.Name, p))
		}
	}
	return out
}

// diffEntry diffs one path read from two open archives.
func (m *Manager) diffEntry(ra, rb *archive.Reader, nameA, nameB, p string) textdiff.FileDiff {
	if !ra.Has(p) {
		return textdiff.Unavailable(p, "missing in "+nameA)
	}
	if !rb.Has(p) {
		return textdiff.Unavailable(p, "missing in "+nameB)
	}

	limit := m.differ.MaxFileSize()
	da, err := ra.ReadEntry(p, limit)
	if err != nil {
		return unreadable(p, nameA, err)
	}
	db, err := rb.ReadEntry(p, limit)
	if err != nil {
		return unreadable(p, nameB, err)
	}
	return m.differ.Diff(p, nameA, nameB, da, db)
}

func unreadable(p, name string, err error) textdiff.FileDiff {
	if errors.Is(err, fileutil.ErrFileTooLarge) {
		return textdiff.Unavailable(p, "file too large to diff")
	}
	return textdiff.Unavailable(p, "cannot read from "+name)
}

// FileDiff returns the line diff of one path between snapshots a and b.
// A path absent from either side yields an unavailable diff, not an error.
func (m *Manager) FileDiff(ctx context.Context, a, b, p string) (textdiff.FileDiff, error) {
	fa, err := m.resolve(a)
	if err != nil {
		return textdiff.FileDiff{}, err
	}
	fb, err := m.resolve(b)
	if err != nil {
		return textdiff.FileDiff{}, err
	}

	l, err := m.acquire(ctx, lock.Shared)
	if err != nil {
		return textdiff.FileDiff{}, err
	}
	defer release(l, m.logger)

	ra, err := archive.Open(fa.Archive)
	if err != nil {
		return textdiff.FileDiff{}, err
	}
	defer ra.Close()
	rb, err := archive.Open(fb.Archive)
	if err != nil {
		return textdiff.FileDiff{}, err
	}
	defer rb.Close()

	if !m.differ.IsText(p) {
		return textdiff.Unavailable(p, "not a text file"), nil
	}
	return m.diffEntry(ra, rb, fa.Name, fb.Name, p), nil
}
