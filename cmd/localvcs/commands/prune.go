package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var (
	pruneKeep   int
	pruneDryRun bool
)

func init() {
	pruneCmd.Flags().IntVarP(&pruneKeep, "keep", "k", -1, "number of snapshots to keep (default: retention)")
	pruneCmd.Flags().BoolVar(&pruneDryRun, "dry-run", false, "only list what would be deleted")
	rootCmd.AddCommand(pruneCmd)
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete all but the newest snapshots",
	Long: `Delete every snapshot except the newest ones. The number kept defaults to
the retention setting.`,
	Example: `  # Keep the configured number of snapshots
  localvcs prune

  # Keep three, showing what would go first
  localvcs prune --keep 3 --dry-run

  See Also:
    localvcs delete - Delete specific snapshots`,
	Args: cobra.NoArgs,
	RunE: runPrune,
}

func runPrune(cmd *cobra.Command, _ []string) error {
	return runPruneWithWriter(cmd, cmd.OutOrStdout())
}

func runPruneWithWriter(cmd *cobra.Command, w io.Writer) error {
	keep := pruneKeep
	if keep < 0 {
		keep = currentConfig().Retention
	}
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)
	p := paletteFor(w)

	if pruneDryRun {
		infos, err := mgr.List(ctx)
		if err != nil {
			return err
		}
		for i := keep; i < len(infos); i++ {
			fmt.Fprintf(w, "%s would delete %s\n", p.dim("-"), infos[i].Name)
		}
		return nil
	}

	pruned, err := mgr.Prune(ctx, keep)
	if err != nil {
		return err
	}
	for _, name := range pruned {
		fmt.Fprintf(w, "%s Deleted %s\n", p.ok("✓"), name)
	}
	fmt.Fprintf(w, "Deleted %d snapshots, keeping at most %d\n", len(pruned), keep)
	return nil
}
