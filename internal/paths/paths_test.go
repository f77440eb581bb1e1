package paths

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

func TestHome(t *testing.T) {
	got := Home()
	want, err := os.UserHomeDir()
	if err != nil {
		t.Skipf("os.UserHomeDir() failed: %v", err)
	}
	if got != want {
		t.Errorf("Home() = %q, want %q", got, want)
	}
}

func TestResolveHome(t *testing.T) {
	got, err := ResolveHome()
	want, _ := os.UserHomeDir()

	if err != nil {
		if !errors.Is(err, ErrHomeDirNotFound) {
			t.Errorf("unexpected error type: %v", err)
		}
	} else if got != want {
		t.Errorf("ResolveHome() = %q, want %q", got, want)
	}
}

func TestXDGHomes(t *testing.T) {
	for name, got := range map[string]string{
		"ConfigHome": ConfigHome(),
		"DataHome":   DataHome(),
		"StateHome":  StateHome(),
	} {
		if got == "" {
			t.Errorf("%s() returned empty string", name)
			continue
		}
		if !filepath.IsAbs(got) {
			t.Errorf("%s() = %q, want absolute path", name, got)
		}
	}
}

func TestAppLocations(t *testing.T) {
	tests := []struct {
		name string
		got  string
		base string
		tail string
	}{
		{"ConfigDir", ConfigDir(), ConfigHome(), AppName},
		{"ConfigFile", ConfigFile(), ConfigHome(), filepath.Join(AppName, ConfigFileName)},
		{"DefaultStoreDir", DefaultStoreDir(), DataHome(), filepath.Join(AppName, "backups")},
		{"LogDir", LogDir(), StateHome(), AppName},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			want := filepath.Join(tt.base, tt.tail)
			if tt.got != want {
				t.Errorf("%s() = %q, want %q", tt.name, tt.got, want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmp := t.TempDir()

	t.Run("creates nested directories", func(t *testing.T) {
		dir := filepath.Join(tmp, "a", "b", "c")
		if err := EnsureDir(dir, 0); err != nil {
			t.Fatalf("EnsureDir() error = %v", err)
		}
		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("Stat() error = %v", err)
		}
		if !info.IsDir() {
			t.Error("expected a directory")
		}
	})

	t.Run("idempotent", func(t *testing.T) {
		dir := filepath.Join(tmp, "again")
		for range 2 {
			if err := EnsureDir(dir, 0o755); err != nil {
				t.Fatalf("EnsureDir() error = %v", err)
			}
		}
	})

	t.Run("file in the way", func(t *testing.T) {
		file := filepath.Join(tmp, "file")
		if err := os.WriteFile(file, nil, 0o644); err != nil {
			t.Fatal(err)
		}
		err := EnsureDir(filepath.Join(file, "sub"), 0)
		if !errors.Is(err, errors.ErrIO) {
			t.Errorf("EnsureDir() error = %v, want ErrIO", err)
		}
	})
}

func TestExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	cwd, _ := os.Getwd()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"~", home},
		{"~/backups", filepath.Join(home, "backups")},
		{"rel/dir", filepath.Join(cwd, "rel", "dir")},
		{"~user", filepath.Join(cwd, "~user")},
	}
	for _, tt := range tests {
		got, err := Expand(tt.in)
		if err != nil {
			t.Errorf("Expand(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Expand(%q) = %q, want %q", tt.in, got, tt.want)
		}
		if got != "" && strings.Contains(got, "~/") {
			t.Errorf("Expand(%q) kept a tilde: %q", tt.in, got)
		}
	}
}
