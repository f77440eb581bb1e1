package prompt

import (
	"fmt"
	"strings"

	"github.com/ktr0731/go-fuzzyfinder"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
)

// FuzzySnapshot lets the user pick a snapshot in a full-screen fuzzy finder
// with a details pane. Aborting returns ErrSelectionCancelled.
func FuzzySnapshot(prompt string, infos []snapshot.Info) (*snapshot.Info, error) {
	if len(infos) == 0 {
		return nil, ErrNoSnapshots
	}

	idx, err := fuzzyfinder.Find(
		infos,
		func(i int) string {
			return Describe(infos[i])
		},
		fuzzyfinder.WithPromptString(prompt+"> "),
		fuzzyfinder.WithPreviewWindow(func(i, _, _ int) string {
			if i == -1 {
				return ""
			}
			return Details(infos[i])
		}),
	)
	if err != nil {
		if errors.Is(err, fuzzyfinder.ErrAbort) {
			return nil, ErrSelectionCancelled
		}
		return nil, errors.Wrap(err, "interactive selection failed")
	}
	return &infos[idx], nil
}

// Details renders everything known about a snapshot, one field per line.
func Details(info snapshot.Info) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Name:     %s\n", info.Name)
	fmt.Fprintf(&b, "Archive:  %s\n", info.Archive)
	fmt.Fprintf(&b, "Size:     %d bytes\n", info.Size)
	fmt.Fprintf(&b, "Modified: %s\n", info.ModTime.Local().Format("2006-01-02 15:04:05"))

	switch {
	case !info.HasManifest:
		b.WriteString("Manifest: none\n")
	case info.ManifestErr != nil:
		fmt.Fprintf(&b, "Manifest: unreadable (%v)\n", info.ManifestErr)
	default:
		fmt.Fprintf(&b, "Files:    %d\n", info.TotalFiles)
		fmt.Fprintf(&b, "Source:   %s\n", info.SourceDirectory)
		fmt.Fprintf(&b, "Hash:     %s\n", info.Algorithm)
	}
	if info.HasNotes {
		b.WriteString("Notes:    yes\n")
	}
	return b.String()
}
