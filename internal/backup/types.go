package backup

import (
	"time"

	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/textdiff"
)

// Default configuration values.
const (
	// DefaultRetentionCount is the number of snapshots Prune keeps by default.
	DefaultRetentionCount = 5

	// DefaultLockTimeout bounds the wait for a conflicting operation.
	DefaultLockTimeout = 30 * time.Second

	// DefaultRetryAttempts and DefaultRetryBackoff shape retries of archive
	// and manifest I/O.
	DefaultRetryAttempts = 3
	DefaultRetryBackoff  = 200 * time.Millisecond
)

// Snapshot describes a snapshot created by Manager.Create.
type Snapshot struct {
	Name            string           `json:"name"`
	ArchivePath     string           `json:"archive_path"`
	ManifestPath    string           `json:"manifest_path"`
	CreatedAt       time.Time        `json:"created_at"`
	SourceDirectory string           `json:"source_directory"`
	TotalFiles      int              `json:"total_files"`
	Algorithm       digest.Algorithm `json:"hash_algorithm"`

	// Skipped lists source files left out because they could not be read.
	Skipped []string `json:"skipped,omitempty"`

	// Overwrote is set when an existing snapshot of the same name was replaced.
	Overwrote bool `json:"overwrote,omitempty"`
}

// Method names how a comparison classified files.
type Method string

const (
	// MethodManifest compares recorded digests.
	MethodManifest Method = "manifest"
	// MethodContent extracts both archives and compares bytes.
	MethodContent Method = "content"
)

// DiffResult classifies every path of two snapshots. Each path of either
// snapshot appears in exactly one of the four lists; lists are sorted.
type DiffResult struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Method Method `json:"method"`

	// Added are in Target only; Removed are in Source only.
	Added     []string `json:"added"`
	Removed   []string `json:"removed"`
	Modified  []string `json:"modified"`
	Unchanged []string `json:"unchanged"`

	// Diffs holds one entry per modified path when line diffs were requested.
	Diffs []textdiff.FileDiff `json:"diffs,omitempty"`
}

// Total returns the number of distinct paths across both snapshots.
func (r *DiffResult) Total() int {
	return len(r.Added) + len(r.Removed) + len(r.Modified) + len(r.Unchanged)
}

// Identical reports whether the snapshots hold the same files and content.
func (r *DiffResult) Identical() bool {
	return len(r.Added) == 0 && len(r.Removed) == 0 && len(r.Modified) == 0
}

// CompareOptions configure Manager.Compare.
type CompareOptions struct {
	// LineDiffs requests a text diff for every modified file.
	LineDiffs bool
}

// RestoreOptions configure Manager.Restore.
type RestoreOptions struct {
	// SafetySnapshot snapshots the destination before replacing it. At most
	// one safety snapshot is taken per destination per Manager.
	SafetySnapshot bool
}

// RestoreResult describes a completed restore.
type RestoreResult struct {
	Snapshot    string `json:"snapshot"`
	Destination string `json:"destination"`
	Files       int    `json:"files"`

	// Flattened is set when the archive's single top-level directory became
	// the destination.
	Flattened bool `json:"flattened,omitempty"`

	// Safety is the snapshot taken of the previous destination, if any.
	Safety *Snapshot `json:"safety_snapshot,omitempty"`
}

// VerifyReport is the result of checking an archive against its manifest.
type VerifyReport struct {
	Name      string           `json:"name"`
	Algorithm digest.Algorithm `json:"hash_algorithm"`
	Checked   int              `json:"checked"`

	// Missing are in the manifest but not the archive; Extra the reverse.
	Missing    []string `json:"missing,omitempty"`
	Extra      []string `json:"extra,omitempty"`
	Mismatched []string `json:"mismatched,omitempty"`
	Corrupt    []string `json:"corrupt,omitempty"`

	// Unverifiable entries have no recorded digest.
	Unverifiable []string `json:"unverifiable,omitempty"`
}

// OK reports whether the archive matches its manifest.
func (r *VerifyReport) OK() bool {
	return len(r.Missing) == 0 && len(r.Extra) == 0 && len(r.Mismatched) == 0 && len(r.Corrupt) == 0
}
