package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/watch"
)

var watchDebounce time.Duration

func init() {
	watchCmd.Flags().DurationVar(&watchDebounce, "debounce", 0, "quiet period before a backup (default: watch.debounce)")
	rootCmd.AddCommand(watchCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch [source-dir]",
	Short: "Back up when files change",
	Long: `Stay in the foreground watching a directory tree, and create a snapshot
once changes have settled for the debounce period. Changes inside the store
directory are ignored.`,
	Example: `  localvcs watch ~/projects/site
  localvcs watch --debounce 30s

  See Also:
    localvcs schedule - Back up on a schedule`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
	return runWatchWithWriter(cmd, args, cmd.OutOrStdout())
}

func runWatchWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	source, err := sourceFor(args)
	if err != nil {
		return err
	}
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}

	debounce := watchDebounce
	if debounce == 0 {
		debounce = currentConfig().Watch.Debounce
	}

	p := paletteFor(w)
	watcher, err := watch.New(mgr, watch.Options{
		Source:   source,
		StoreDir: mgr.StoreDir(),
		Debounce: debounce,
		Logger:   loggerFor(cmd),
		OnSnapshot: func(snap *backup.Snapshot, err error) {
			if err != nil {
				fmt.Fprintf(w, "%s backup failed: %v\n", p.bad("✗"), err)
				return
			}
			fmt.Fprintf(w, "%s Created %s (%d files)\n", p.ok("✓"), snap.Name, snap.TotalFiles)
		},
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(w, "Watching %s; press Ctrl+C to stop\n", source)
	return watcher.Run(commandContext(cmd))
}
