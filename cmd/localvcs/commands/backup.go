package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/backup"
)

var (
	backupNotes string
	backupPrune bool
)

func init() {
	backupCmd.Flags().StringVarP(&backupNotes, "notes", "n", "", "attach notes to the new snapshot")
	backupCmd.Flags().BoolVar(&backupPrune, "prune", false, "prune to the retention count afterwards")
	rootCmd.AddCommand(backupCmd)
}

var backupCmd = &cobra.Command{
	Use:     "backup [source-dir]",
	Aliases: []string{"create"},
	Short:   "Snapshot a directory",
	Long: `Create a snapshot of a directory tree: a zip archive of every regular file
below it plus a manifest of per-file digests.

Without an argument the configured source_dir is used. Files that cannot be
read are left out of the snapshot and listed as skipped. When the store lies
inside the source directory it is excluded from the snapshot.`,
	Example: `  # Snapshot the configured source directory
  localvcs backup

  # Snapshot a specific directory with a note
  localvcs backup ~/projects/site -n "before the redesign"

  # Snapshot and keep only the newest snapshots
  localvcs backup --prune

  See Also:
    localvcs list    - List snapshots
    localvcs restore - Restore a snapshot`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBackup,
}

func runBackup(cmd *cobra.Command, args []string) error {
	return runBackupWithWriter(cmd, args, cmd.OutOrStdout())
}

func runBackupWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	source, err := sourceFor(args)
	if err != nil {
		return err
	}
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}

	snap, err := run(cmd, "Creating snapshot", func(ctx context.Context) (*backup.Snapshot, error) {
		return mgr.Create(ctx, source)
	})
	if err != nil {
		return err
	}

	p := paletteFor(w)
	fmt.Fprintf(w, "%s Created %s (%d files)\n", p.ok("✓"), p.bold(snap.Name), snap.TotalFiles)
	if snap.Overwrote {
		fmt.Fprintf(w, "%s replaced an existing snapshot with the same name\n", p.warn("!"))
	}
	for _, s := range snap.Skipped {
		fmt.Fprintf(w, "%s skipped unreadable file %s\n", p.warn("!"), s)
	}

	ctx := commandContext(cmd)
	if backupNotes != "" {
		if err := mgr.SetNotes(ctx, snap.Name, backupNotes); err != nil {
			return err
		}
	}
	if backupPrune {
		pruned, err := mgr.Prune(ctx, currentConfig().Retention)
		if err != nil {
			return err
		}
		for _, name := range pruned {
			fmt.Fprintf(w, "%s Pruned %s\n", p.dim("-"), name)
		}
	}
	return nil
}
