// Package backup creates, restores and compares point-in-time snapshots of a
// directory tree.
//
// A [Manager] owns one store directory. Each snapshot in it is a zip archive
// plus a JSON manifest of per-file digests, and optionally a notes file:
//
//	<store>/
//	├── BACKUP_01_02_2025_15_04_05.zip
//	├── BACKUP_01_02_2025_15_04_05_hashes.json
//	└── BACKUP_01_02_2025_15_04_05_notes.txt
//
// # Creating Snapshots
//
//	mgr := backup.NewManager(backup.WithStoreDir("/mnt/backups/project"))
//	snap, err := mgr.Create(ctx, "/home/me/project")
//
// Files are digested from the same bytes that are archived. The archive is
// synced to disk before the manifest is written, so a manifest never exists
// without its archive. Two snapshots created within the same second are
// disambiguated according to the collision policy (see [WithCollisionPolicy]).
//
// # Restoring Snapshots
//
//	res, err := mgr.Restore(ctx, "BACKUP_01_02_2025_15_04_05", "", backup.RestoreOptions{})
//
// An empty destination restores to the directory the snapshot was taken
// from. The archive is extracted into a staging directory next to the
// destination, and the destination is replaced by rename only after
// extraction succeeded. A failed restore leaves the destination as it was.
//
// # Comparing Snapshots
//
//	diff, err := mgr.Compare(ctx, older, newer, backup.CompareOptions{LineDiffs: true})
//
// Comparison uses the manifests when both exist and share a digest
// algorithm. Otherwise both archives are extracted to temporary directories
// and compared byte by byte; the result has the same shape either way.
// With LineDiffs, every modified text file also gets a unified diff.
//
// # Concurrency
//
// Create, Restore, Delete, Prune and SetNotes lock the store exclusively;
// Compare, FileDiff and Verify lock it shared. The lock is an advisory file
// lock, so separate processes and separate Managers coordinate as well.
// Waiting is bounded by [WithLockTimeout]; expiry yields errors.ErrLocked.
//
// # Errors
//
// Failures are classified with the sentinels of the errors package:
// ErrPrecondition for unusable arguments, ErrNotFound for missing snapshots,
// ErrParse for malformed manifests, ErrCorruptArchive for unreadable
// archives, ErrBackupFailed for a snapshot that could not be written and
// ErrLocked for lock timeouts.
package backup
