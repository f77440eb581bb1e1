// Package manifest reads and writes the per-snapshot content manifest.
//
// The on-disk format is a JSON object:
//
//	{
//	  "backup_name": "BACKUP_01_02_2025_15_04_05",
//	  "created_at": "2025-01-02T15:04:05.000000+01:00",
//	  "file_hashes": {"src/main.go": "9e107d9d372bb6826bd81d3542a419d6"},
//	  "total_files": 1,
//	  "source_directory": "/home/me/project",
//	  "version": 1,
//	  "hash_algorithm": "md5"
//	}
//
// version and hash_algorithm are optional; manifests without them are read as
// version 0 with md5 digests. A digest of null marks a file whose content
// could not be hashed.
package manifest

import (
	"encoding/json"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// CurrentVersion is the format version written by Save.
const CurrentVersion = 1

// Manifest records the digest of every file in one snapshot.
type Manifest struct {
	Version         int
	Name            string
	CreatedAt       time.Time
	Algorithm       digest.Algorithm
	SourceDirectory string

	// Files maps forward-slash relative paths to digests. digest.Unavailable
	// marks a file whose content could not be hashed.
	Files map[string]string
}

// New returns a current-version manifest.
func New(name string, createdAt time.Time, sourceDir string, alg digest.Algorithm, files map[string]string) *Manifest {
	if files == nil {
		files = make(map[string]string)
	}
	return &Manifest{
		Version:         CurrentVersion,
		Name:            name,
		CreatedAt:       createdAt,
		Algorithm:       alg,
		SourceDirectory: sourceDir,
		Files:           files,
	}
}

// TotalFiles returns the number of entries.
func (m *Manifest) TotalFiles() int {
	return len(m.Files)
}

// Paths returns the entry paths in sorted order.
func (m *Manifest) Paths() []string {
	out := make([]string, 0, len(m.Files))
	for p := range m.Files {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Digest returns the digest recorded for path.
func (m *Manifest) Digest(path string) (string, bool) {
	d, ok := m.Files[path]
	return d, ok
}

// wire is the JSON shape. Pointers distinguish absent fields from zero values.
type wire struct {
	BackupName      *string            `json:"backup_name"`
	CreatedAt       *string            `json:"created_at"`
	FileHashes      map[string]*string `json:"file_hashes"`
	TotalFiles      *int               `json:"total_files"`
	SourceDirectory *string            `json:"source_directory"`
	Version         int                `json:"version,omitempty"`
	HashAlgorithm   string             `json:"hash_algorithm,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (m *Manifest) MarshalJSON() ([]byte, error) {
	hashes := make(map[string]*string, len(m.Files))
	for p, d := range m.Files {
		if d == digest.Unavailable {
			hashes[p] = nil
			continue
		}
		hashes[p] = &d
	}
	created := FormatTime(m.CreatedAt)
	total := len(m.Files)

	return json.Marshal(wire{
		BackupName:      &m.Name,
		CreatedAt:       &created,
		FileHashes:      hashes,
		TotalFiles:      &total,
		SourceDirectory: &m.SourceDirectory,
		Version:         m.Version,
		HashAlgorithm:   string(m.Algorithm),
	})
}

// UnmarshalJSON implements json.Unmarshaler. Missing required fields and a
// total_files count that disagrees with file_hashes are rejected.
func (m *Manifest) UnmarshalJSON(data []byte) error {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return errors.Mark(errors.Wrap(err, "decoding manifest"), errors.ErrParse)
	}

	var missing []string
	if w.BackupName == nil {
		missing = append(missing, "backup_name")
	}
	if w.CreatedAt == nil {
		missing = append(missing, "created_at")
	}
	if w.FileHashes == nil {
		missing = append(missing, "file_hashes")
	}
	if w.TotalFiles == nil {
		missing = append(missing, "total_files")
	}
	if w.SourceDirectory == nil {
		missing = append(missing, "source_directory")
	}
	if len(missing) > 0 {
		return errors.Wrapf(errors.ErrParse, "missing required fields: %s", strings.Join(missing, ", "))
	}

	created, err := ParseTime(*w.CreatedAt)
	if err != nil {
		return err
	}

	alg := digest.Default
	if w.HashAlgorithm != "" {
		alg, err = digest.ParseAlgorithm(w.HashAlgorithm)
		if err != nil {
			return errors.Wrapf(errors.ErrParse, "unknown hash_algorithm %q", w.HashAlgorithm)
		}
	}

	files := make(map[string]string, len(w.FileHashes))
	for p, d := range w.FileHashes {
		key := normalizeKey(p)
		if _, dup := files[key]; dup {
			return errors.Wrapf(errors.ErrParse, "duplicate entry %q", key)
		}
		if d == nil {
			files[key] = digest.Unavailable
			continue
		}
		files[key] = strings.ToLower(*d)
	}

	if *w.TotalFiles != len(files) {
		return errors.Wrapf(errors.ErrParse, "total_files is %d but file_hashes has %d entries", *w.TotalFiles, len(files))
	}

	*m = Manifest{
		Version:         w.Version,
		Name:            *w.BackupName,
		CreatedAt:       created,
		Algorithm:       alg,
		SourceDirectory: *w.SourceDirectory,
		Files:           files,
	}
	return nil
}

// Save writes m to path atomically.
func Save(m *Manifest, path string) error {
	if m == nil {
		return errors.Wrap(errors.ErrPrecondition, "nil manifest")
	}
	if err := fileutil.AtomicWriteJSON(path, m); err != nil {
		return errors.Mark(errors.Wrapf(err, "saving manifest %s", path), errors.ErrIO)
	}
	return nil
}

// Load reads the manifest at path.
//
// A missing file yields errors.ErrNotFound; malformed content yields
// errors.ErrParse.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, errors.Mark(errors.Wrapf(err, "manifest %s", path), errors.ErrNotFound)
		}
		return nil, errors.Mark(errors.Wrapf(err, "reading manifest %s", path), errors.ErrIO)
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		if !errors.Is(err, errors.ErrParse) {
			err = errors.Mark(err, errors.ErrParse)
		}
		return nil, errors.Wrapf(err, "manifest %s", path)
	}
	return &m, nil
}

// normalizeKey converts Windows separators recorded by other writers.
func normalizeKey(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
