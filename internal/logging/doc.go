// Package logging provides structured logging for localvcs using slog.
//
// The package supports both text and JSON output formats, configurable log
// levels, an optional JSON log file sink, and helpers for testing. All
// loggers are based on the standard library's [log/slog] package.
//
// # Basic Usage
//
//	logger := logging.New(logging.Config{
//		Level:  slog.LevelInfo,
//		Format: logging.FormatText,
//		Output: os.Stderr,
//	})
//	logger.Info("backup created", "name", snap.Name, "files", snap.FileCount)
//
// Path-valued attributes (path, source, store, dest, archive, staging) are
// shortened relative to the home directory by the text handler.
//
// # Context
//
// Commands store the configured logger with [NewContext]; library code
// retrieves it with [FromContext].
//
// # Testing
//
// For tests, use [ForTest] to capture log output via the testing framework:
//
//	func TestSomething(t *testing.T) {
//		logger := logging.ForTest(t)
//		// logs appear in test output on failure
//	}
package logging
