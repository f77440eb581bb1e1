package commands

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/schedule"
)

var (
	scheduleCron  string
	schedulePrune bool
)

func init() {
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "schedule expression (default: schedule.cron)")
	scheduleCmd.Flags().BoolVar(&schedulePrune, "prune", false, "prune to the retention count after each backup")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule [source-dir]",
	Short: "Back up on a schedule",
	Long: `Stay in the foreground and create a snapshot each time the schedule fires,
until interrupted. The expression takes five cron fields or a descriptor such
as @hourly, @daily or @every 30m. A backup still running when the next one is
due makes that next one skip.`,
	Example: `  # Hourly snapshots of the configured source directory
  localvcs schedule --cron @hourly

  # Every weekday at 18:00, keeping the retention count
  localvcs schedule ~/projects/site --cron "0 18 * * 1-5" --prune

  See Also:
    localvcs watch - Back up when files change`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSchedule,
}

func runSchedule(cmd *cobra.Command, args []string) error {
	return runScheduleWithWriter(cmd, args, cmd.OutOrStdout())
}

func runScheduleWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	c := currentConfig()
	spec := scheduleCron
	if spec == "" {
		spec = c.Schedule.Cron
	}
	if spec == "" {
		return errors.NewUserError(
			errors.Wrap(errors.ErrPrecondition, "no schedule given"),
			"pass --cron or run: localvcs config set schedule.cron @hourly")
	}
	source, err := sourceFor(args)
	if err != nil {
		return err
	}
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	s, err := schedule.New(mgr, schedule.Options{
		Spec:   spec,
		Source: source,
		Prune:  schedulePrune || c.Schedule.Prune,
		Keep:   c.Retention,
		Logger: loggerFor(cmd),
	})
	if err != nil {
		return err
	}

	p := paletteFor(w)
	s.OnResult(func(res schedule.Result) {
		if res.Err != nil {
			fmt.Fprintf(w, "%s backup failed: %v\n", p.bad("✗"), res.Err)
			return
		}
		fmt.Fprintf(w, "%s Created %s (%d files)\n", p.ok("✓"), res.Snapshot.Name, res.Snapshot.TotalFiles)
	})

	fmt.Fprintf(w, "Backing up %s on %q; press Ctrl+C to stop\n", source, spec)
	return s.Run(ctx)
}
