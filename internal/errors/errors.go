package errors

import (
	"fmt"

	crdb "github.com/cockroachdb/errors"
)

// Exit codes for CLI applications.
const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess = 0

	// ExitUser indicates a user-related error (invalid input, missing snapshot, etc.).
	ExitUser = 1

	// ExitSystem indicates a system-related error (I/O, corrupt archive, lock contention).
	ExitSystem = 2
)

// Sentinel errors for the failure classes reported by the engines.
// Use Mark to classify a concrete error without losing its cause.
var (
	// ErrPrecondition indicates a missing or invalid source, store or snapshot name.
	ErrPrecondition = crdb.New("precondition failed")

	// ErrIO indicates a read, write or permission failure on an individual file.
	ErrIO = crdb.New("i/o error")

	// ErrCorruptArchive indicates an archive that cannot be read or is malformed.
	ErrCorruptArchive = crdb.New("corrupt archive")

	// ErrParse indicates a malformed manifest.
	ErrParse = crdb.New("malformed manifest")

	// ErrNotFound indicates that an expected snapshot or sidecar file is missing.
	ErrNotFound = crdb.New("not found")

	// ErrBackupFailed indicates that a snapshot could not be created.
	ErrBackupFailed = crdb.New("backup failed")

	// ErrLocked indicates that the store directory lock could not be acquired in time.
	ErrLocked = crdb.New("store directory is locked")

	// ErrInvalidConfig indicates configuration validation failed.
	ErrInvalidConfig = crdb.New("invalid configuration")
)

// Re-exports so callers only import this package.
var (
	New           = crdb.New
	Newf          = crdb.Newf
	Errorf        = crdb.Errorf
	Wrap          = crdb.Wrap
	Wrapf         = crdb.Wrapf
	Is            = crdb.Is
	As            = crdb.As
	Mark          = crdb.Mark
	CombineErrors = crdb.CombineErrors
	Join          = crdb.Join
	WithHint      = crdb.WithHint
	FlattenHints  = crdb.FlattenHints
)

// ExitError wraps an error with an exit code and optional suggestion for CLI applications.
// It implements the error interface and supports unwrapping via errors.Unwrap.
type ExitError struct {
	// Err is the underlying error that caused the exit.
	Err error

	// Code is the exit code to return to the operating system.
	Code int

	// Suggestion is an optional actionable suggestion for the user.
	Suggestion string
}

// NewExitError creates an ExitError with the given underlying error and exit code.
// If err is nil, the returned ExitError will have a nil Err field.
func NewExitError(err error, code int) *ExitError {
	return &ExitError{
		Err:  err,
		Code: code,
	}
}

// NewUserError creates an ExitError with ExitUser code and a suggestion.
func NewUserError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: suggestion,
	}
}

// NewSystemError creates an ExitError with ExitSystem code and a suggestion.
func NewSystemError(err error, suggestion string) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitSystem,
		Suggestion: suggestion,
	}
}

// NewConfigError creates an ExitError with ExitUser code and a standard suggestion.
func NewConfigError(err error) *ExitError {
	return &ExitError{
		Err:        err,
		Code:       ExitUser,
		Suggestion: "Run: localvcs config list",
	}
}

// Error returns the error message from the underlying error.
// If the underlying error is nil, it returns a generic message with the exit code.
func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit code %d", e.Code)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error, enabling errors.Is and errors.As
// to examine the error chain.
func (e *ExitError) Unwrap() error {
	return e.Err
}

// Classify converts an engine error into an ExitError, keeping an existing one.
// User-correctable classes map to ExitUser, everything else to ExitSystem.
func Classify(err error) *ExitError {
	if err == nil {
		return nil
	}

	var exitErr *ExitError
	if crdb.As(err, &exitErr) {
		return exitErr
	}

	switch {
	case crdb.Is(err, ErrPrecondition):
		return NewUserError(err, "Check the --source and --store paths")
	case crdb.Is(err, ErrNotFound):
		return NewUserError(err, "Run: localvcs list")
	case crdb.Is(err, ErrParse):
		return NewUserError(err, "The manifest sidecar is damaged; run: localvcs verify")
	case crdb.Is(err, ErrInvalidConfig):
		return NewConfigError(err)
	case crdb.Is(err, ErrLocked):
		return NewSystemError(err, "Another operation is using the store directory; retry later")
	case crdb.Is(err, ErrCorruptArchive):
		return NewSystemError(err, "")
	default:
		return NewExitError(err, ExitSystem)
	}
}
