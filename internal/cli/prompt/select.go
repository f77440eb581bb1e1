// Package prompt provides interactive CLI prompts for user input.
package prompt

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
)

// Sentinel errors for snapshot selection.
var (
	ErrNoSnapshots        = errors.New("no snapshots to select from")
	ErrInvalidSelection   = errors.New("invalid selection")
	ErrSelectionCancelled = errors.New("selection cancelled")
)

// Selector handles interactive prompts over a reader and writer.
type Selector struct {
	reader *bufio.Reader
	writer io.Writer
}

// NewSelector creates a new Selector using stdin and stdout.
func NewSelector() *Selector {
	return NewSelectorWithIO(os.Stdin, os.Stdout)
}

// NewSelectorWithIO creates a Selector with custom reader and writer for testing.
func NewSelectorWithIO(r io.Reader, w io.Writer) *Selector {
	return &Selector{
		reader: bufio.NewReader(r),
		writer: w,
	}
}

// readLine returns the next trimmed input line. EOF is ErrSelectionCancelled.
func (s *Selector) readLine() (string, error) {
	input, err := s.reader.ReadString('\n')
	if err != nil {
		if errors.Is(err, io.EOF) && input == "" {
			return "", ErrSelectionCancelled
		}
		if !errors.Is(err, io.EOF) {
			return "", errors.Wrap(err, "reading input")
		}
	}
	return strings.TrimSpace(input), nil
}

// SelectSnapshot prompts the user to choose from a list of snapshots.
//
// Returns:
//   - ErrNoSnapshots if the list is empty
//   - The snapshot if only one exists (auto-selects without prompting)
//   - The selected snapshot based on user input; empty input picks the first
//   - ErrInvalidSelection if the selection is out of range
//   - ErrSelectionCancelled if input is EOF (e.g., Ctrl+D)
func (s *Selector) SelectSnapshot(title string, infos []snapshot.Info) (*snapshot.Info, error) {
	if len(infos) == 0 {
		return nil, ErrNoSnapshots
	}
	if len(infos) == 1 {
		return &infos[0], nil
	}

	fmt.Fprintf(s.writer, "%s:\n", title)
	for i, info := range infos {
		fmt.Fprintf(s.writer, "  [%d] %s\n", i+1, Describe(info))
	}
	fmt.Fprintf(s.writer, "Select [1]: ")

	input, err := s.readLine()
	if err != nil {
		return nil, err
	}
	if input == "" {
		return &infos[0], nil
	}

	selection, err := strconv.Atoi(input)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidSelection, "%q is not a number", input)
	}
	if selection < 1 || selection > len(infos) {
		return nil, errors.Wrapf(ErrInvalidSelection, "%d is out of range [1-%d]", selection, len(infos))
	}
	return &infos[selection-1], nil
}

// Confirm asks a yes/no question. Empty input answers def.
func (s *Selector) Confirm(question string, def bool) (bool, error) {
	hint := "[y/N]"
	if def {
		hint = "[Y/n]"
	}
	fmt.Fprintf(s.writer, "%s %s: ", question, hint)

	input, err := s.readLine()
	if err != nil {
		return false, err
	}
	switch strings.ToLower(input) {
	case "":
		return def, nil
	case "y", "yes":
		return true, nil
	case "n", "no":
		return false, nil
	default:
		return false, errors.Wrapf(ErrInvalidSelection, "answer %q", input)
	}
}

// Describe is the one-line label used when listing a snapshot.
func Describe(info snapshot.Info) string {
	var b strings.Builder
	b.WriteString(info.Name)
	if !info.ModTime.IsZero() {
		b.WriteString("  ")
		b.WriteString(info.ModTime.Local().Format("2006-01-02 15:04:05"))
	}
	if info.HasManifest && info.ManifestErr == nil {
		fmt.Fprintf(&b, "  %d files", info.TotalFiles)
	}
	return b.String()
}
