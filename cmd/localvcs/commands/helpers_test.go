package commands

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KrolPower/LocalVCS/internal/config"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/logging"
)

// setupTestConfig points the commands at a fresh store and returns it
// together with a source directory holding files.
func setupTestConfig(t *testing.T, files map[string]string) (store, source string) {
	t.Helper()
	viper.Reset()

	store = filepath.Join(t.TempDir(), "store")
	source = t.TempDir()
	writeFiles(t, source, files)

	c := config.Default()
	c.StoreDir = store
	c.LockTimeout = 0
	c.Retry.Attempts = 1

	old := cfg
	cfg = c
	t.Cleanup(func() { cfg = old })
	return store, source
}

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	}
}

// testCmd returns a command carrying a test logger and the given stdin.
func testCmd(t *testing.T, stdin string) *cobra.Command {
	t.Helper()
	c := &cobra.Command{}
	c.SetContext(logging.NewContext(context.Background(), logging.ForTest(t)))
	c.SetIn(strings.NewReader(stdin))
	c.SetErr(&bytes.Buffer{})
	return c
}

// setFlag sets a package-level flag variable for the duration of a test.
func setFlag[T any](t *testing.T, p *T, v T) {
	t.Helper()
	old := *p
	*p = v
	t.Cleanup(func() { *p = old })
}

// backupNow snapshots source and returns the new snapshot's name.
func backupNow(t *testing.T, source string) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, runBackupWithWriter(testCmd(t, ""), []string{source}, &buf))

	out := buf.String()
	i := strings.Index(out, "BACKUP_")
	require.GreaterOrEqual(t, i, 0, out)
	name := out[i:]
	return name[:strings.IndexByte(name, ' ')]
}

func TestSourceFor(t *testing.T) {
	setupTestConfig(t, nil)

	_, err := sourceFor(nil)
	assert.True(t, errors.Is(err, errors.ErrPrecondition))
	assert.Contains(t, errors.FlattenHints(err), "source_dir")

	dir := t.TempDir()
	got, err := sourceFor([]string{dir})
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	cfg.SourceDir = dir
	got, err = sourceFor(nil)
	require.NoError(t, err)
	assert.Equal(t, dir, got)
}

func TestNewManager_FromConfig(t *testing.T) {
	store, _ := setupTestConfig(t, nil)
	cfg.HashAlgorithm = "sha256"

	mgr, err := newManager(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, store, mgr.StoreDir())
	assert.Equal(t, "sha256", string(mgr.Algorithm()))

	cfg.Collision = "sideways"
	_, err = newManager(context.Background(), cfg)
	assert.True(t, errors.Is(err, errors.ErrInvalidConfig))
}

func TestHumanSize(t *testing.T) {
	tests := []struct {
		n    int64
		want string
	}{
		{0, "0 B"},
		{1023, "1023 B"},
		{1024, "1.0 KiB"},
		{1536, "1.5 KiB"},
		{5 << 20, "5.0 MiB"},
	}
	for _, tt := range tests {
		if got := humanSize(tt.n); got != tt.want {
			t.Errorf("humanSize(%d) = %q, want %q", tt.n, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
	assert.Equal(t, "ab", truncate("abcdef", 2))

	assert.Equal(t, "/home/jürgen", truncate("/home/jürgen", 12))
	assert.Equal(t, "/home/jür...", truncate("/home/jürgen/projekte", 12))
	assert.Equal(t, "日本語...", truncate("日本語のプロジェクト", 6))
	assert.Equal(t, "日本", truncate("日本語", 2))
	for _, got := range []string{truncate("ééééé", 4), truncate("日本語のプロジェクト", 5)} {
		assert.True(t, utf8.ValidString(got), "%q", got)
	}
}

func TestReportError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  []string
	}{
		{
			name:     "not found",
			err:      errors.Wrap(errors.ErrNotFound, "snapshot BACKUP_x"),
			wantCode: errors.ExitUser,
			wantOut:  []string{"Error: snapshot BACKUP_x: not found", "Hint: Run: localvcs list"},
		},
		{
			name:     "hint wins over suggestion",
			err:      errors.WithHint(errors.Wrap(errors.ErrPrecondition, "no source"), "pass a directory"),
			wantCode: errors.ExitUser,
			wantOut:  []string{"Hint: pass a directory"},
		},
		{
			name:     "system",
			err:      errors.Wrap(errors.ErrLocked, "store"),
			wantCode: errors.ExitSystem,
			wantOut:  []string{"Error: store: store directory is locked"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, ReportError(&buf, tt.err))
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
		})
	}

	assert.Equal(t, errors.ExitSuccess, ReportError(&bytes.Buffer{}, nil))
}
