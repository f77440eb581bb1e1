package paths

import (
	"os"
	"path/filepath"

	"github.com/adrg/xdg"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// AppName names the per-user directories.
const AppName = "localvcs"

// ConfigFileName is the config file inside ConfigDir.
const ConfigFileName = "config.yaml"

// ErrHomeDirNotFound indicates the user's home directory could not be determined.
var ErrHomeDirNotFound = errors.New("home directory not found")

// DefaultDirPerm is the permission for directories created by EnsureDir with perm 0.
const DefaultDirPerm = 0o700

// EnsureDir creates path and any missing parents. It is a no-op for an
// existing directory.
func EnsureDir(path string, perm os.FileMode) error {
	if perm == 0 {
		perm = DefaultDirPerm
	}
	if err := os.MkdirAll(path, perm); err != nil {
		return errors.Mark(errors.Wrapf(err, "creating %s", path), errors.ErrIO)
	}
	return nil
}

// Home returns the user's home directory, or "" when it cannot be found.
func Home() string {
	h, _ := ResolveHome()
	return h
}

// ResolveHome returns the user's home directory.
func ResolveHome() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errors.Wrap(ErrHomeDirNotFound, err.Error())
	}
	return home, nil
}

// ConfigHome returns the XDG config home directory.
// On Linux: ~/.config
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func ConfigHome() string {
	return xdg.ConfigHome
}

// DataHome returns the XDG data home directory.
// On Linux: ~/.local/share
// On macOS: ~/Library/Application Support
// On Windows: %LOCALAPPDATA%
func DataHome() string {
	return xdg.DataHome
}

// StateHome returns the XDG state home directory.
func StateHome() string {
	return xdg.StateHome
}

// ConfigDir is the localvcs config directory.
func ConfigDir() string {
	return filepath.Join(ConfigHome(), AppName)
}

// ConfigFile is the default config file path.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), ConfigFileName)
}

// DefaultStoreDir is where snapshots go when no store is configured.
func DefaultStoreDir() string {
	return filepath.Join(DataHome(), AppName, "backups")
}

// LogDir holds log files written with --log-file when given a bare name.
func LogDir() string {
	return filepath.Join(StateHome(), AppName)
}

// Expand resolves a leading ~ and makes p absolute. An empty p stays empty.
func Expand(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || len(p) > 1 && p[0] == '~' && os.IsPathSeparator(p[1]) {
		home, err := ResolveHome()
		if err != nil {
			return "", err
		}
		p = filepath.Join(home, p[1:])
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "resolving %s", p)
	}
	return abs, nil
}
