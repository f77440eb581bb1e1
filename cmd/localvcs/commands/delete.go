package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

var deleteForce bool

func init() {
	deleteCmd.Flags().BoolVarP(&deleteForce, "force", "f", false, "do not ask for confirmation")
	rootCmd.AddCommand(deleteCmd)
}

var deleteCmd = &cobra.Command{
	Use:     "delete <snapshot>...",
	Aliases: []string{"rm"},
	Short:   "Delete snapshots",
	Long: `Delete snapshots together with their manifest and notes. Deleting a
snapshot that no longer exists is not an error.`,
	Example: `  localvcs delete BACKUP_01_02_2025_15_04_05
  localvcs delete -f BACKUP_01_02_2025_15_04_05 BACKUP_01_02_2025_15_04_06

  See Also:
    localvcs prune - Keep only the newest snapshots`,
	Args: cobra.MinimumNArgs(1),
	RunE: runDelete,
}

func runDelete(cmd *cobra.Command, args []string) error {
	return runDeleteWithWriter(cmd, args, cmd.OutOrStdout())
}

func runDeleteWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}

	question := fmt.Sprintf("Delete %s?", args[0])
	if len(args) > 1 {
		question = fmt.Sprintf("Delete %d snapshots?", len(args))
	}
	ok, err := confirm(cmd, deleteForce, question)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(w, "Delete cancelled")
		return nil
	}

	p := paletteFor(w)
	ctx := commandContext(cmd)
	for _, ref := range args {
		removed, err := mgr.Delete(ctx, ref)
		if err != nil {
			return err
		}
		if len(removed) == 0 {
			fmt.Fprintf(w, "%s %s does not exist\n", p.dim("-"), ref)
			continue
		}
		fmt.Fprintf(w, "%s Deleted %s\n", p.ok("✓"), ref)
	}
	return nil
}
