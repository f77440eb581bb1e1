// Package snapshot names snapshots and manages their files in a store
// directory.
//
// A snapshot named BACKUP_<mm_dd_yyyy_HH_MM_SS> consists of up to three
// sibling files:
//
//	BACKUP_01_02_2025_15_04_05.zip          archive
//	BACKUP_01_02_2025_15_04_05_hashes.json  manifest
//	BACKUP_01_02_2025_15_04_05_notes.txt    free-form notes
//
// The archive alone makes a snapshot visible to List. Delete removes
// whichever of the three exist.
package snapshot
