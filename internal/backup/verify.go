package backup

import (
	"context"

	"github.com/KrolPower/LocalVCS/internal/archive"
	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/lock"
	"github.com/KrolPower/LocalVCS/internal/manifest"
)

// Verify re-digests every archive entry with the manifest's algorithm and
// reports how the archive departs from the manifest. A snapshot without a
// manifest cannot be verified and yields errors.ErrNotFound.
func (m *Manager) Verify(ctx context.Context, ref string) (*VerifyReport, error) {
	files, err := m.resolve(ref)
	if err != nil {
		return nil, err
	}

	l, err := m.acquire(ctx, lock.Shared)
	if err != nil {
		return nil, err
	}
	defer release(l, m.logger)

	man, err := manifest.Load(files.Manifest)
	if err != nil {
		return nil, err
	}
	h, err := digest.New(man.Algorithm)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrParse)
	}

	r, err := archive.Open(files.Archive)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	report := &VerifyReport{Name: files.Name, Algorithm: man.Algorithm}
	for _, name := range r.Names() {
		want, ok := man.Digest(name)
		if !ok {
			report.Extra = append(report.Extra, name)
			continue
		}

		got, err := entryDigest(h, r, name)
		if err != nil {
			if !errors.Is(err, errors.ErrCorruptArchive) {
				return nil, err
			}
			m.logger.Warn("corrupt archive entry", "name", files.Name, "entry", name, "error", err)
			report.Corrupt = append(report.Corrupt, name)
			continue
		}
		report.Checked++

		switch {
		case want == digest.Unavailable:
			report.Unverifiable = append(report.Unverifiable, name)
		case !digest.Equal(want, got):
			report.Mismatched = append(report.Mismatched, name)
		}
	}
	for _, p := range man.Paths() {
		if !r.Has(p) {
			report.Missing = append(report.Missing, p)
		}
	}

	m.logger.Info("verified snapshot", "name", files.Name, "checked", report.Checked, "ok", report.OK())
	return report, nil
}

func entryDigest(h *digest.Hasher, r *archive.Reader, name string) (string, error) {
	rc, err := r.OpenEntry(name)
	if err != nil {
		return "", err
	}
	defer rc.Close()
	return h.Reader(rc)
}
