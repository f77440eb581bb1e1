package snapshot

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/KrolPower/LocalVCS/internal/errors"
)

// File naming.
const (
	Prefix         = "BACKUP_"
	ArchiveExt     = ".zip"
	ManifestSuffix = "_hashes.json"
	NotesSuffix    = "_notes.txt"

	// TimeLayout renders the creation instant at second resolution.
	TimeLayout = "01_02_2006_15_04_05"
)

// Collision selects what happens when a name is already taken.
type Collision string

const (
	// CollisionSuffix appends _2, _3, ... until the name is free.
	CollisionSuffix Collision = "suffix"
	// CollisionOverwrite replaces the existing snapshot.
	CollisionOverwrite Collision = "overwrite"
	// CollisionReject fails with errors.ErrPrecondition.
	CollisionReject Collision = "reject"
)

// Collisions returns every supported policy.
func Collisions() []Collision {
	return []Collision{CollisionSuffix, CollisionOverwrite, CollisionReject}
}

// ParseCollision validates s. The empty string selects CollisionSuffix.
func ParseCollision(s string) (Collision, error) {
	switch c := Collision(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return CollisionSuffix, nil
	case CollisionSuffix, CollisionOverwrite, CollisionReject:
		return c, nil
	default:
		return "", errors.Wrapf(errors.ErrInvalidConfig, "unknown collision policy %q (want one of %v)", s, Collisions())
	}
}

// NameFor returns the base snapshot name for an instant.
func NameFor(t time.Time) string {
	return Prefix + t.Format(TimeLayout)
}

// Files holds the locations of one snapshot's files.
type Files struct {
	Name     string
	Archive  string
	Manifest string
	Notes    string
}

// FilesFor returns the file locations of name inside dir.
func FilesFor(dir, name string) Files {
	base := filepath.Join(dir, name)
	return Files{
		Name:     name,
		Archive:  base + ArchiveExt,
		Manifest: base + ManifestSuffix,
		Notes:    base + NotesSuffix,
	}
}

// ValidateName normalizes a user-supplied snapshot reference. The archive
// extension is optional; names containing path separators or lacking the
// BACKUP_ prefix are rejected.
func ValidateName(ref string) (string, error) {
	name := strings.TrimSuffix(strings.TrimSpace(ref), ArchiveExt)
	if name == "" {
		return "", errors.Wrap(errors.ErrPrecondition, "empty snapshot name")
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", errors.Wrapf(errors.ErrPrecondition, "snapshot name %q must not contain path separators", ref)
	}
	if !strings.HasPrefix(name, Prefix) || len(name) == len(Prefix) {
		return "", errors.Wrapf(errors.ErrPrecondition, "snapshot name %q must start with %s", ref, Prefix)
	}
	return name, nil
}

// Exists reports whether the archive or manifest of name is present in dir.
func Exists(dir, name string) bool {
	f := FilesFor(dir, name)
	return fileExists(f.Archive) || fileExists(f.Manifest)
}

// Allocate chooses the name for a snapshot created at t in dir.
//
// overwrite is true when the returned name already exists and policy is
// CollisionOverwrite.
func Allocate(dir string, t time.Time, policy Collision) (name string, overwrite bool, err error) {
	base := NameFor(t)
	if !Exists(dir, base) {
		return base, false, nil
	}

	switch policy {
	case CollisionOverwrite:
		return base, true, nil
	case CollisionReject:
		return "", false, errors.Wrapf(errors.ErrPrecondition, "snapshot %s already exists", base)
	case CollisionSuffix, "":
		for i := 2; ; i++ {
			candidate := base + "_" + strconv.Itoa(i)
			if !Exists(dir, candidate) {
				return candidate, false, nil
			}
		}
	default:
		return "", false, errors.Wrapf(errors.ErrInvalidConfig, "unknown collision policy %q", policy)
	}
}

func fileExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}
