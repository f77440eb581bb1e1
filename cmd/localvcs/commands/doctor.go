package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/doctor"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/paths"
)

var (
	doctorJSON bool
	doctorAll  bool
	doctorFix  bool
)

// errDoctorWarnings and errDoctorErrors end a doctor run with exit codes 1
// and 2.
var (
	errDoctorWarnings = errors.New("doctor found warnings")
	errDoctorErrors   = errors.New("doctor found errors")
)

func init() {
	doctorCmd.Flags().BoolVar(&doctorJSON, "json", false, "output results as JSON")
	doctorCmd.Flags().BoolVarP(&doctorAll, "all", "a", false, "show passed and informational checks too")
	doctorCmd.Flags().BoolVar(&doctorFix, "fix", false, "remove leftover temporary and orphaned files")
	rootCmd.AddCommand(doctorCmd)
}

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose store and configuration problems",
	Long: `Run health checks on the configuration and the snapshot store.

Checks that the configuration is valid, the store is writable and not held by
another process, and reports temporary files left by interrupted operations,
manifests or notes whose archive is gone, and snapshots without a usable
manifest. With --fix the leftover files are removed.

Exit codes:
  0 - All checks passed
  1 - Warnings present, no errors
  2 - Errors present`,
	Example: `  localvcs doctor
  localvcs doctor --all
  localvcs doctor --fix`,
	RunE: runDoctor,
}

func runDoctor(cmd *cobra.Command, args []string) error {
	return runDoctorWithWriter(cmd, args, cmd.OutOrStdout())
}

func runDoctorWithWriter(cmd *cobra.Command, _ []string, w io.Writer) error {
	ctx := commandContext(cmd)
	c := currentConfig()

	store, err := paths.Expand(c.StoreDir)
	if err != nil || store == "" {
		store = paths.DefaultStoreDir()
	}

	runner := doctor.NewRunner(
		doctor.NewConfigCheck(cfg, configLoadErr, configPath()),
		doctor.NewStoreCheck(store),
		doctor.NewLockCheck(store),
		doctor.NewLeftoverCheck(store),
		doctor.NewSnapshotCheck(store),
	)
	report := runner.Run(ctx)

	var fixes []doctor.FixResult
	if doctorFix {
		fixes = runner.Fix(ctx)
	}

	if doctorJSON {
		out := struct {
			*doctor.Report
			Fixes []doctor.FixResult `json:"fixes,omitempty"`
		}{report, fixes}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(out); err != nil {
			return errors.Wrap(err, "encoding JSON")
		}
	} else {
		printDoctorReport(w, report, fixes)
	}

	switch {
	case report.HasErrors():
		return errors.NewExitError(errDoctorErrors, errors.ExitSystem)
	case report.HasWarnings() && !fixedAll(fixes, report):
		return errors.NewExitError(errDoctorWarnings, errors.ExitUser)
	}
	return nil
}

func printDoctorReport(w io.Writer, report *doctor.Report, fixes []doctor.FixResult) {
	p := paletteFor(w)

	shown := false
	for _, result := range report.Results {
		if !doctorAll && result.Status != doctor.SeverityError && result.Status != doctor.SeverityWarning {
			continue
		}
		shown = true
		fmt.Fprintf(w, "%s [%s] %s: %s\n", statusIcon(p, result.Status), result.Category, result.Name, result.Message)
		for _, key := range []string{"problems", "temporary", "orphaned", "missing_manifest", "unreadable_manifest"} {
			if items, ok := result.Details[key].([]string); ok {
				for _, item := range items {
					fmt.Fprintf(w, "    %s\n", p.dim(item))
				}
			}
		}
		if result.FixHint != "" && result.Status >= doctor.SeverityWarning {
			fmt.Fprintf(w, "  hint: %s\n", result.FixHint)
		}
	}

	for _, f := range fixes {
		if f.Fixed {
			fmt.Fprintf(w, "%s fixed %s: %s\n", p.ok("✓"), f.Path, f.Description)
		} else {
			fmt.Fprintf(w, "%s could not fix %s: %s\n", p.bad("✗"), f.Path, f.Description)
		}
	}

	if shown || len(fixes) > 0 {
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %d passed, %d info, %d warnings, %d errors\n",
		report.Summary.Passed, report.Summary.Info, report.Summary.Warnings, report.Summary.Errors)
}

// fixedAll reports whether every warning came from a fixable check and every
// attempted fix succeeded.
func fixedAll(fixes []doctor.FixResult, report *doctor.Report) bool {
	if len(fixes) == 0 {
		return false
	}
	for _, f := range fixes {
		if !f.Fixed {
			return false
		}
	}
	for _, result := range report.Results {
		if result.Status == doctor.SeverityWarning && !result.Fixable {
			return false
		}
	}
	return true
}

func statusIcon(p palette, s doctor.Severity) string {
	switch s {
	case doctor.SeverityPass:
		return p.ok("✓")
	case doctor.SeverityInfo:
		return p.dim("ℹ")
	case doctor.SeverityWarning:
		return p.warn("⚠")
	case doctor.SeverityError:
		return p.bad("✗")
	default:
		return "?"
	}
}
