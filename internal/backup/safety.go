package backup

import (
	"context"
	"os"
)

// ensureSafetySnapshot snapshots dir unless this Manager already did. A
// failed attempt is not remembered, so the next restore tries again. The
// store lock must be held.
func (m *Manager) ensureSafetySnapshot(ctx context.Context, dir string) (*Snapshot, error) {
	m.safetyMu.Lock()
	defer m.safetyMu.Unlock()

	if _, done := m.safety[dir]; done {
		return nil, nil
	}

	entries, err := os.ReadDir(dir)
	if err != nil || len(entries) == 0 {
		// Nothing worth protecting.
		return nil, nil
	}

	snap, err := m.create(ctx, dir, m.storeDir)
	if err != nil {
		return nil, err
	}
	m.safety[dir] = snap
	m.logger.Info("took safety snapshot", "name", snap.Name, "source", dir)
	return snap, nil
}

// ResetSafetySnapshots forgets which destinations already have a safety
// snapshot.
func (m *Manager) ResetSafetySnapshots() {
	m.safetyMu.Lock()
	defer m.safetyMu.Unlock()
	m.safety = make(map[string]*Snapshot)
}
