package errors

import (
	"fmt"
	"os"
	"testing"
)

func TestExitError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *ExitError
		want string
	}{
		{
			name: "with underlying error",
			err:  NewExitError(ErrNotFound, ExitUser),
			want: "not found",
		},
		{
			name: "with wrapped error",
			err:  NewExitError(fmt.Errorf("loading manifest: %w", ErrParse), ExitUser),
			want: "loading manifest: malformed manifest",
		},
		{
			name: "nil underlying error",
			err:  NewExitError(nil, ExitUser),
			want: "exit code 1",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("ExitError.Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExitError_Unwrap(t *testing.T) {
	err := NewUserError(Wrap(ErrPrecondition, "source directory"), "check paths")
	if !Is(err, ErrPrecondition) {
		t.Error("errors.Is should find ErrPrecondition through ExitError")
	}
	if Is(err, ErrIO) {
		t.Error("errors.Is should not match an unrelated sentinel")
	}
}

func TestMark_KeepsCause(t *testing.T) {
	_, statErr := os.Stat("/definitely/not/here")
	err := Mark(Wrap(statErr, "opening archive"), ErrCorruptArchive)

	if !Is(err, ErrCorruptArchive) {
		t.Error("marked error should match ErrCorruptArchive")
	}
	if !Is(err, os.ErrNotExist) {
		t.Error("marked error should keep os.ErrNotExist in the chain")
	}
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"precondition", Wrap(ErrPrecondition, "no source"), ExitUser},
		{"not found", Wrapf(ErrNotFound, "snapshot %s", "BACKUP_x"), ExitUser},
		{"parse", Mark(New("bad json"), ErrParse), ExitUser},
		{"config", Wrap(ErrInvalidConfig, "hash_algorithm"), ExitUser},
		{"locked", Wrap(ErrLocked, "store"), ExitSystem},
		{"corrupt", Mark(New("zip: not a valid zip file"), ErrCorruptArchive), ExitSystem},
		{"unclassified", New("disk full"), ExitSystem},
		{"existing exit error", NewUserError(New("x"), ""), ExitUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.err)
			if got == nil {
				t.Fatal("Classify() returned nil")
			}
			if got.Code != tt.wantCode {
				t.Errorf("Classify() code = %d, want %d", got.Code, tt.wantCode)
			}
		})
	}

	if Classify(nil) != nil {
		t.Error("Classify(nil) should be nil")
	}
}

func TestSentinelErrors_Distinct(t *testing.T) {
	sentinels := []error{
		ErrPrecondition, ErrIO, ErrCorruptArchive, ErrParse,
		ErrNotFound, ErrBackupFailed, ErrLocked, ErrInvalidConfig,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %q should not match %q", a, b)
			}
		}
	}
}

func TestExitCodeConstants(t *testing.T) {
	if ExitSuccess != 0 || ExitUser != 1 || ExitSystem != 2 {
		t.Errorf("unexpected exit codes: %d %d %d", ExitSuccess, ExitUser, ExitSystem)
	}
}
