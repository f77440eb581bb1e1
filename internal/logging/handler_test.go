package logging

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestHandler_Handle(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	now := time.Now()
	logger.Info("backup created", "name", "BACKUP_01_02_2026_10_00_00", "files", 3)

	output := buf.String()
	for _, want := range []string{"INFO", "backup created", "name=BACKUP_01_02_2026_10_00_00", "files=3"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q: %q", want, output)
		}
	}
	if !strings.Contains(output, now.Format(time.Kitchen)) {
		t.Errorf("expected kitchen time in output, got: %q", output)
	}
	if !strings.HasSuffix(output, "\n") {
		t.Errorf("record should end with a newline: %q", output)
	}
}

func TestHandler_WithAttrsAndGroup(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil)).With("op", "compare").WithGroup("diff")

	logger.Info("classified", "added", 1)

	output := buf.String()
	if !strings.Contains(output, "op=compare") {
		t.Errorf("expected handler attribute, got: %q", output)
	}
	if !strings.Contains(output, "diff.added=1") {
		t.Errorf("expected grouped key, got: %q", output)
	}
}

func TestHandler_Enabled(t *testing.T) {
	h := NewHandler(&bytes.Buffer{}, &slog.HandlerOptions{Level: slog.LevelWarn})

	ctx := t.Context()
	if h.Enabled(ctx, slog.LevelInfo) {
		t.Error("expected Info level to be disabled when min level is Warn")
	}
	if !h.Enabled(ctx, slog.LevelError) {
		t.Error("expected Error level to be enabled")
	}
}

func TestHandler_TraceLevelName(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, &slog.HandlerOptions{Level: LevelTrace}))

	logger.Log(t.Context(), LevelTrace, "hashing", "path", "a.txt")

	if !strings.Contains(buf.String(), "TRACE") {
		t.Errorf("expected TRACE level name, got: %q", buf.String())
	}
}

func TestHandler_ShortensHomePaths(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	var buf bytes.Buffer
	logger := slog.New(NewHandler(&buf, nil))

	logger.Info("restoring", "dest", filepath.Join(home, "projects", "app"), "name", filepath.Join(home, "x"))

	output := buf.String()
	if !strings.Contains(output, "dest="+filepath.Join("~", "projects", "app")) {
		t.Errorf("dest should be shortened, got: %q", output)
	}
	if !strings.Contains(output, "name="+filepath.Join(home, "x")) {
		t.Errorf("non-path keys should be left alone, got: %q", output)
	}
}

func TestHandler_NoTime(t *testing.T) {
	var buf bytes.Buffer
	h := NewHandler(&buf, nil)

	r := slog.NewRecord(time.Time{}, slog.LevelInfo, "no time", 0)
	if err := h.Handle(t.Context(), r); err != nil {
		t.Fatalf("Handle failed: %v", err)
	}

	if !strings.HasPrefix(buf.String(), "INFO") {
		t.Errorf("expected output to start with the level, got: %q", buf.String())
	}
}
