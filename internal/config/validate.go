package config

import (
	"path/filepath"
	"strings"

	"github.com/KrolPower/LocalVCS/internal/archive"
	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/schedule"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
)

// Validation errors for configuration fields.
var (
	// ErrInvalidPath indicates a path value is malformed.
	ErrInvalidPath = errors.New("invalid path")

	// ErrNegative indicates a count or duration below zero.
	ErrNegative = errors.New("must not be negative")

	// ErrOutOfRange indicates a value outside its allowed range.
	ErrOutOfRange = errors.New("out of range")
)

// Validate checks a Config for validity.
// Returns nil if valid, or a slice of validation errors.
func Validate(cfg *Config) []error {
	if cfg == nil {
		return []error{errors.New("config is nil")}
	}

	var errs []error
	check := func(field string, err error) {
		if err != nil {
			errs = append(errs, &FieldError{Field: field, Err: err})
		}
	}

	check("store_dir", validatePath(cfg.StoreDir))
	check("source_dir", validatePath(cfg.SourceDir))

	if _, err := digest.ParseAlgorithm(cfg.HashAlgorithm); err != nil {
		check("hash_algorithm", err)
	}
	if _, err := snapshot.ParseCollision(cfg.Collision); err != nil {
		check("collision", err)
	}
	if !archive.ValidLevel(cfg.CompressionLevel) {
		check("compression_level", errors.Wrapf(ErrOutOfRange, "%d (want -1 or 0-9)", cfg.CompressionLevel))
	}

	check("retention", nonNegative(int64(cfg.Retention)))
	check("lock_timeout", nonNegative(int64(cfg.LockTimeout)))
	check("retry.attempts", nonNegative(int64(cfg.Retry.Attempts)))
	check("retry.backoff", nonNegative(int64(cfg.Retry.Backoff)))
	check("diff.context_lines", nonNegative(int64(cfg.Diff.ContextLines)))
	check("diff.max_file_size", nonNegative(cfg.Diff.MaxFileSize))
	check("watch.debounce", nonNegative(int64(cfg.Watch.Debounce)))

	for _, ext := range cfg.Diff.ExtraExtensions {
		if ext == "" || strings.ContainsAny(ext, `/\`) {
			check("diff.extra_extensions", errors.Newf("invalid extension %q", ext))
		}
	}

	if cfg.Schedule.Cron != "" {
		_, err := schedule.Parse(cfg.Schedule.Cron)
		check("schedule.cron", err)
	}

	return errs
}

func nonNegative(v int64) error {
	if v < 0 {
		return ErrNegative
	}
	return nil
}

// validatePath checks if a path string is well-formed.
// It does not check if the path exists, only that it's syntactically valid.
func validatePath(path string) error {
	// Empty paths are valid (they mean "use default")
	if path == "" {
		return nil
	}

	if strings.ContainsRune(path, '\x00') {
		return ErrInvalidPath
	}

	cleaned := filepath.Clean(path)
	if cleaned == "" || cleaned == "." {
		return ErrInvalidPath
	}

	return nil
}

// FieldError represents an error for a specific configuration key.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}
