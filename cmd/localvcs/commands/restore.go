package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/paths"
)

var (
	restoreDest        string
	restoreSafety      bool
	restoreYes         bool
	restoreInteractive bool
)

func init() {
	restoreCmd.Flags().StringVarP(&restoreDest, "dest", "d", "", "restore here instead of the recorded source directory")
	restoreCmd.Flags().BoolVar(&restoreSafety, "safety", false, "snapshot the destination before replacing it")
	restoreCmd.Flags().BoolVarP(&restoreYes, "yes", "y", false, "do not ask for confirmation")
	restoreCmd.Flags().BoolVarP(&restoreInteractive, "interactive", "i", false, "pick the snapshot interactively")
	rootCmd.AddCommand(restoreCmd)
}

var restoreCmd = &cobra.Command{
	Use:   "restore [snapshot]",
	Short: "Restore a snapshot",
	Long: `Replace a directory with the contents of a snapshot.

The destination defaults to the source directory recorded in the snapshot's
manifest, then to the configured source_dir. The archive is unpacked next to
the destination first and swapped in only once it is complete, so a corrupt
archive leaves the destination untouched. Without a snapshot argument the
newest snapshot is restored.`,
	Example: `  # Restore the newest snapshot over its source directory
  localvcs restore

  # Restore a specific snapshot somewhere else
  localvcs restore BACKUP_01_02_2025_15_04_05 --dest /tmp/site

  # Pick interactively and keep a snapshot of what gets replaced
  localvcs restore -i --safety

  See Also:
    localvcs list    - List snapshots
    localvcs compare - Compare two snapshots`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRestore,
}

func runRestore(cmd *cobra.Command, args []string) error {
	return runRestoreWithWriter(cmd, args, cmd.OutOrStdout())
}

func runRestoreWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	ref, err := resolveRef(cmd, mgr, args, 0, restoreInteractive, "Restore snapshot")
	if err != nil {
		return err
	}
	dest, err := paths.Expand(restoreDest)
	if err != nil {
		return err
	}

	target := dest
	if target == "" {
		info, err := mgr.Stat(commandContext(cmd), ref)
		if err != nil {
			return err
		}
		target = info.SourceDirectory
		if target == "" {
			target = currentConfig().SourceDir
		}
	}
	question := fmt.Sprintf("Replace the contents of %s with %s?", target, ref)
	if target == "" {
		question = fmt.Sprintf("Restore %s?", ref)
	}
	ok, err := confirm(cmd, restoreYes, question)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "Restore cancelled")
		return nil
	}

	res, err := run(cmd, "Restoring "+ref, func(ctx context.Context) (*backup.RestoreResult, error) {
		return mgr.Restore(ctx, ref, dest, backup.RestoreOptions{SafetySnapshot: restoreSafety})
	})
	if err != nil {
		return err
	}

	p := paletteFor(w)
	if res.Safety != nil {
		fmt.Fprintf(w, "%s Saved the previous contents as %s\n", p.dim("-"), res.Safety.Name)
	}
	fmt.Fprintf(w, "%s Restored %d files from %s to %s\n", p.ok("✓"), res.Files, p.bold(res.Snapshot), res.Destination)
	return nil
}
