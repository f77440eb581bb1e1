// Package editor launches the user's preferred text editor.
package editor

import (
	"context"
	"os"
	"os/exec"
	"strings"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

// Command returns the command that opens path in the detected editor. The
// editor variable may carry arguments, as in EDITOR="code --wait".
func Command(ctx context.Context, path string) *exec.Cmd {
	fields := strings.Fields(detectEditor())
	cmd := exec.CommandContext(ctx, fields[0], append(fields[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd
}

// Open edits path and waits for the editor to exit.
func Open(ctx context.Context, path string) error {
	if err := Command(ctx, path).Run(); err != nil {
		return errors.Wrapf(err, "running editor on %s", path)
	}
	return nil
}

// Edit opens a temporary file holding initial and returns what it holds once
// the editor exits.
func Edit(ctx context.Context, initial string) (string, error) {
	f, err := os.CreateTemp("", fileutil.TempPrefix+"edit-*.txt")
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "creating edit file"), errors.ErrIO)
	}
	path := f.Name()
	defer os.Remove(path)

	_, werr := f.WriteString(initial)
	if cerr := f.Close(); werr == nil {
		werr = cerr
	}
	if werr != nil {
		return "", errors.Mark(errors.Wrap(werr, "writing edit file"), errors.ErrIO)
	}

	if err := Open(ctx, path); err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", errors.Mark(errors.Wrap(err, "reading edit file"), errors.ErrIO)
	}
	return string(data), nil
}

// detectEditor returns the first of $LOCALVCS_EDITOR, $EDITOR or $VISUAL that
// is set, falling back to nano when installed and vi otherwise.
func detectEditor() string {
	for _, env := range []string{"LOCALVCS_EDITOR", "EDITOR", "VISUAL"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			return v
		}
	}
	if _, err := exec.LookPath("nano"); err == nil {
		return "nano"
	}
	return "vi"
}
