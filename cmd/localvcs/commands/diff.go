package commands

import (
	"context"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/textdiff"
)

func init() {
	rootCmd.AddCommand(diffCmd)
}

var diffCmd = &cobra.Command{
	Use:   "diff <source> <target> <path>",
	Short: "Show the line diff of one file",
	Long: `Show the unified diff of one file between two snapshots. The path is
relative to the snapshot root and uses forward slashes. Files missing from
either snapshot, binary files and files over diff.max_file_size are reported
instead of diffed.`,
	Example: `  localvcs diff BACKUP_01_02_2025_15_04_05 BACKUP_01_03_2025_09_00_00 src/app.py

  See Also:
    localvcs compare - Compare two snapshots`,
	Args: cobra.ExactArgs(3),
	RunE: runDiff,
}

func runDiff(cmd *cobra.Command, args []string) error {
	return runDiffWithWriter(cmd, args, cmd.OutOrStdout())
}

func runDiffWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	d, err := run(cmd, "Diffing "+args[2], func(ctx context.Context) (textdiff.FileDiff, error) {
		return mgr.FileDiff(ctx, args[0], args[1], args[2])
	})
	if err != nil {
		return err
	}
	printFileDiff(w, d)
	return nil
}
