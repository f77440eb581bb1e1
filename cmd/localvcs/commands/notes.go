package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/editor"
)

var (
	notesClear bool
	notesEdit  bool
)

func init() {
	notesCmd.Flags().BoolVar(&notesClear, "clear", false, "remove the notes")
	notesCmd.Flags().BoolVarP(&notesEdit, "edit", "e", false, "edit the notes in $EDITOR")
	rootCmd.AddCommand(notesCmd)
}

var notesCmd = &cobra.Command{
	Use:   "notes <snapshot> [text...]",
	Short: "Show or set a snapshot's notes",
	Long: `Show a snapshot's notes, or replace them when text is given. With --edit
the current notes open in your editor and are saved when it exits. Notes are
stored next to the archive as <name>_notes.txt.`,
	Example: `  localvcs notes BACKUP_01_02_2025_15_04_05
  localvcs notes BACKUP_01_02_2025_15_04_05 last version before the migration
  localvcs notes BACKUP_01_02_2025_15_04_05 --edit
  localvcs notes BACKUP_01_02_2025_15_04_05 --clear`,
	Args: cobra.MinimumNArgs(1),
	RunE: runNotes,
}

func runNotes(cmd *cobra.Command, args []string) error {
	return runNotesWithWriter(cmd, args, cmd.OutOrStdout())
}

func runNotesWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	ref := args[0]

	switch {
	case notesClear:
		return mgr.SetNotes(ctx, ref, "")
	case len(args) > 1:
		return mgr.SetNotes(ctx, ref, strings.Join(args[1:], " "))
	case notesEdit:
		current, err := mgr.Notes(ctx, ref)
		if err != nil {
			return err
		}
		edited, err := editor.Edit(ctx, current)
		if err != nil {
			return err
		}
		if edited == current {
			fmt.Fprintln(w, "Notes unchanged")
			return nil
		}
		return mgr.SetNotes(ctx, ref, edited)
	}

	notes, err := mgr.Notes(ctx, ref)
	if err != nil {
		return err
	}
	if notes == "" {
		fmt.Fprintf(w, "%s has no notes\n", ref)
		return nil
	}
	fmt.Fprintln(w, strings.TrimRight(notes, "\n"))
	return nil
}
