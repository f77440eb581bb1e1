package backup

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/manifest"
	"github.com/KrolPower/LocalVCS/internal/textdiff"
)

// snapshotPair snapshots before, rewrites the source to after and snapshots
// again.
func snapshotPair(t *testing.T, m *Manager, before, after map[string]string) (string, string) {
	t.Helper()
	ctx := context.Background()
	src := t.TempDir()
	writeTree(t, src, before)
	first, err := m.Create(ctx, src)
	require.NoError(t, err)

	require.NoError(t, os.RemoveAll(src))
	require.NoError(t, os.MkdirAll(src, 0o755))
	writeTree(t, src, after)
	second, err := m.Create(ctx, src)
	require.NoError(t, err)

	return first.Name, second.Name
}

func TestCompare_AddRemoveModify(t *testing.T) {
	m := newTestManager(t)
	a, b := snapshotPair(t, m,
		map[string]string{"a.txt": "x", "b.txt": "y"},
		map[string]string{"b.txt": "z", "c.txt": "w"},
	)

	res, err := m.Compare(context.Background(), a, b, CompareOptions{})
	require.NoError(t, err)

	assert.Equal(t, MethodManifest, res.Method)
	assert.Equal(t, []string{"c.txt"}, res.Added)
	assert.Equal(t, []string{"a.txt"}, res.Removed)
	assert.Equal(t, []string{"b.txt"}, res.Modified)
	assert.Empty(t, res.Unchanged)
	assert.Equal(t, a, res.Source)
	assert.Equal(t, b, res.Target)
}

func TestCompare_IdenticalTrees(t *testing.T) {
	tree := map[string]string{"a.txt": "x", "dir/b.go": "package b\n", "c.bin": "\x00"}
	m := newTestManager(t)
	a, b := snapshotPair(t, m, tree, tree)

	res, err := m.Compare(context.Background(), a, b, CompareOptions{LineDiffs: true})
	require.NoError(t, err)

	assert.Empty(t, res.Added)
	assert.Empty(t, res.Removed)
	assert.Empty(t, res.Modified)
	assert.Equal(t, []string{"a.txt", "c.bin", "dir/b.go"}, res.Unchanged)
	assert.True(t, res.Identical())
	assert.Empty(t, res.Diffs)
}

func TestCompare_LineDiffForModifiedText(t *testing.T) {
	m := newTestManager(t)
	a, b := snapshotPair(t, m,
		map[string]string{"app.py": "import sys\n\ndef run():\n    return 1\n\nrun()\n", "logo.png": "\x01"},
		map[string]string{"app.py": "import sys\n\ndef run():\n    return 2\n\nrun()\n", "logo.png": "\x02"},
	)

	res, err := m.Compare(context.Background(), a, b, CompareOptions{LineDiffs: true})
	require.NoError(t, err)
	require.Equal(t, []string{"app.py", "logo.png"}, res.Modified)
	require.Len(t, res.Diffs, 2)

	py := res.Diffs[0]
	require.Equal(t, "app.py", py.Path)
	require.True(t, py.Available, py.Reason)
	added, removed := py.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)

	png := res.Diffs[1]
	assert.False(t, png.Available)
	assert.Equal(t, "not a text file", png.Reason)
}

func TestCompare_LargeTextDiffUnavailable(t *testing.T) {
	m := newTestManager(t, WithDiffOptions(textdiff.Options{MaxFileSize: 4}))
	a, b := snapshotPair(t, m,
		map[string]string{"big.txt": "0123456789"},
		map[string]string{"big.txt": "9876543210"},
	)

	res, err := m.Compare(context.Background(), a, b, CompareOptions{LineDiffs: true})
	require.NoError(t, err)
	require.Len(t, res.Diffs, 1)
	assert.False(t, res.Diffs[0].Available)
	assert.Equal(t, "file too large to diff", res.Diffs[0].Reason)
}

func TestCompare_FallbackMatchesManifestPath(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	a, b := snapshotPair(t, m,
		map[string]string{"same.txt": "s", "gone.txt": "g", "edit.go": "v1", "size.txt": "short"},
		map[string]string{"same.txt": "s", "edit.go": "v2", "size.txt": "much longer", "new/x.txt": "n"},
	)

	viaManifest, err := m.Compare(ctx, a, b, CompareOptions{})
	require.NoError(t, err)
	require.Equal(t, MethodManifest, viaManifest.Method)

	infos, err := m.List(ctx)
	require.NoError(t, err)
	for _, info := range infos {
		require.NoError(t, os.Remove(info.Manifest))
	}

	viaContent, err := m.Compare(ctx, a, b, CompareOptions{})
	require.NoError(t, err)
	require.Equal(t, MethodContent, viaContent.Method)

	assert.Equal(t, viaManifest.Added, viaContent.Added)
	assert.Equal(t, viaManifest.Removed, viaContent.Removed)
	assert.Equal(t, viaManifest.Modified, viaContent.Modified)
	assert.Equal(t, viaManifest.Unchanged, viaContent.Unchanged)

	entries, err := os.ReadDir(m.tempDir)
	require.NoError(t, err)
	assert.Empty(t, entries, "temporary extraction directories must be removed")
}

func TestCompare_OneManifestMissing(t *testing.T) {
	m := newTestManager(t)
	a, b := snapshotPair(t, m, map[string]string{"a": "1"}, map[string]string{"a": "2"})

	info, err := m.Stat(context.Background(), b)
	require.NoError(t, err)
	require.NoError(t, os.Remove(info.Manifest))

	res, err := m.Compare(context.Background(), a, b, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, MethodContent, res.Method)
	assert.Equal(t, []string{"a"}, res.Modified)
}

func TestCompare_DifferentAlgorithmsUseContent(t *testing.T) {
	ctx := context.Background()
	src := t.TempDir()
	writeTree(t, src, map[string]string{"a.txt": "same", "b.txt": "same too"})

	md5 := newTestManager(t)
	first, err := md5.Create(ctx, src)
	require.NoError(t, err)

	h, err := digest.New(digest.XXH3)
	require.NoError(t, err)
	xxh := NewManager(WithStoreDir(md5.StoreDir()), WithHasher(h), WithLogger(md5.logger),
		WithClock(frozen(time.Date(2030, 1, 1, 0, 0, 0, 0, time.Local))), WithLockTimeout(0), WithTempDir(t.TempDir()))
	second, err := xxh.Create(ctx, src)
	require.NoError(t, err)

	res, err := md5.Compare(ctx, first.Name, second.Name, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, MethodContent, res.Method)
	assert.Equal(t, []string{"a.txt", "b.txt"}, res.Unchanged)
}

func TestCompare_UnavailableDigestIsModified(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	tree := map[string]string{"a.txt": "x", "b.txt": "y"}
	a, b := snapshotPair(t, m, tree, tree)

	info, err := m.Stat(ctx, b)
	require.NoError(t, err)
	man, err := manifest.Load(info.Manifest)
	require.NoError(t, err)
	man.Files["a.txt"] = digest.Unavailable
	require.NoError(t, manifest.Save(man, info.Manifest))

	res, err := m.Compare(ctx, a, b, CompareOptions{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, res.Modified)
	assert.Equal(t, []string{"b.txt"}, res.Unchanged)
}

func TestCompare_Errors(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	a, b := snapshotPair(t, m, map[string]string{"a": "1"}, map[string]string{"a": "1"})

	_, err := m.Compare(ctx, a, "BACKUP_missing", CompareOptions{})
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = m.Compare(ctx, "not-a-snapshot", b, CompareOptions{})
	assert.True(t, errors.Is(err, errors.ErrPrecondition))

	info, err := m.Stat(ctx, a)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(info.Manifest, []byte(`{"backup_name": "x"}`), 0o644))

	_, err = m.Compare(ctx, a, b, CompareOptions{})
	assert.True(t, errors.Is(err, errors.ErrParse), "a malformed manifest fails the comparison, got %v", err)
}

func TestCompare_Deterministic(t *testing.T) {
	m := newTestManager(t)
	a, b := snapshotPair(t, m,
		map[string]string{"1": "a", "2": "b", "3": "c", "4": "d"},
		map[string]string{"2": "b", "3": "C", "5": "e"},
	)

	first, err := m.Compare(context.Background(), a, b, CompareOptions{LineDiffs: true})
	require.NoError(t, err)
	for range 5 {
		again, err := m.Compare(context.Background(), a, b, CompareOptions{LineDiffs: true})
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}

func TestDiffManifests_PartitionAndSymmetry(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	randomManifest := func() *manifest.Manifest {
		files := make(map[string]string)
		for i := range 30 {
			if rng.IntN(3) == 0 {
				continue
			}
			d := fmt.Sprintf("%02x", rng.IntN(3))
			if rng.IntN(10) == 0 {
				d = digest.Unavailable
			}
			files[fmt.Sprintf("f%02d.txt", i)] = d
		}
		return manifest.New("BACKUP_r", time.Now(), "/", digest.MD5, files)
	}

	for i := range 50 {
		ma, mb := randomManifest(), randomManifest()
		ab := DiffManifests(ma, mb)
		ba := DiffManifests(mb, ma)

		union := make(map[string]bool)
		for p := range ma.Files {
			union[p] = true
		}
		for p := range mb.Files {
			union[p] = true
		}

		seen := make(map[string]int)
		for _, set := range [][]string{ab.Added, ab.Removed, ab.Modified, ab.Unchanged} {
			require.True(t, slices.IsSorted(set))
			for _, p := range set {
				seen[p]++
			}
		}
		require.Len(t, seen, len(union), "iteration %d: partition must cover the union", i)
		require.Equal(t, len(union), ab.Total())
		for p, n := range seen {
			require.Equal(t, 1, n, "iteration %d: %s in %d sets", i, p, n)
			require.True(t, union[p])
		}

		assert.Equal(t, ab.Added, ba.Removed)
		assert.Equal(t, ab.Removed, ba.Added)
		assert.Equal(t, ab.Modified, ba.Modified)
		assert.Equal(t, ab.Unchanged, ba.Unchanged)
	}
}

func TestFileDiff(t *testing.T) {
	ctx := context.Background()
	m := newTestManager(t)
	a, b := snapshotPair(t, m,
		map[string]string{"src/app.py": "a = 1\nb = 2\n", "old.txt": "old"},
		map[string]string{"src/app.py": "a = 1\nb = 3\n", "new.txt": "new"},
	)

	d, err := m.FileDiff(ctx, a, b, "src/app.py")
	require.NoError(t, err)
	require.True(t, d.Available, d.Reason)
	added, removed := d.Counts()
	assert.Equal(t, 1, added)
	assert.Equal(t, 1, removed)
	assert.Equal(t, "--- "+a+"/src/app.py", d.Lines[0].Text)

	missing, err := m.FileDiff(ctx, a, b, "new.txt")
	require.NoError(t, err)
	assert.False(t, missing.Available)
	assert.Equal(t, "missing in "+a, missing.Reason)

	_, err = m.FileDiff(ctx, a, "BACKUP_nope", "x.txt")
	assert.True(t, errors.Is(err, errors.ErrNotFound))
}

func TestCompareTrees(t *testing.T) {
	dirA, dirB := t.TempDir(), t.TempDir()
	writeTree(t, dirA, map[string]string{"same.txt": "s", "x": "file", "only-a.txt": "a"})
	writeTree(t, dirB, map[string]string{"same.txt": "s", "x/y.txt": "nested", "same-size.txt": "b"})
	writeTree(t, dirA, map[string]string{"same-size.txt": "a"})

	res, err := newTestManager(t).compareTrees(dirA, dirB)
	require.NoError(t, err)

	assert.Equal(t, []string{"x/y.txt"}, res.Added)
	assert.Equal(t, []string{"only-a.txt", "x"}, res.Removed)
	assert.Equal(t, []string{"same-size.txt"}, res.Modified)
	assert.Equal(t, []string{"same.txt"}, res.Unchanged)
}
