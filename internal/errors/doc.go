// Package errors provides error handling conventions for localvcs.
//
// This package defines the sentinel errors every engine classifies its
// failures with, an ExitError type for CLI exit code handling, and exit
// code constants following standard Unix conventions. It re-exports the
// wrapping helpers from github.com/cockroachdb/errors so that other
// packages import a single errors package.
//
// # Sentinel Errors
//
// Failures are classified with [Mark], which keeps the original cause in
// the chain while making [Is] report the class:
//
//	err = errors.Mark(errors.Wrap(err, "opening archive"), errors.ErrCorruptArchive)
//	if errors.Is(err, errors.ErrCorruptArchive) {
//	    // unreadable archive
//	}
//
// # Exit Codes
//
//   - ExitSuccess (0): Command completed successfully
//   - ExitUser (1): User-related error (bad paths, unknown snapshot, damaged manifest)
//   - ExitSystem (2): System-related error (I/O, corrupt archive, lock contention)
//
// [Classify] maps any engine error onto an [ExitError].
package errors
