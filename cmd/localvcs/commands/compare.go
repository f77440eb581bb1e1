package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/textdiff"
)

var (
	compareJSON        bool
	compareNoDiff      bool
	compareUnchanged   bool
	compareInteractive bool
)

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "Output in JSON format")
	compareCmd.Flags().BoolVar(&compareNoDiff, "no-diff", false, "list changed files without line diffs")
	compareCmd.Flags().BoolVar(&compareUnchanged, "unchanged", false, "also list unchanged files")
	compareCmd.Flags().BoolVarP(&compareInteractive, "interactive", "i", false, "pick missing snapshots interactively")
	rootCmd.AddCommand(compareCmd)
}

var compareCmd = &cobra.Command{
	Use:   "compare <source> <target>",
	Short: "Compare two snapshots",
	Long: `Classify every file of two snapshots as added, removed, modified or
unchanged, going from source to target, and show line diffs of modified text
files.

Digests from the manifests are compared when both snapshots have one with the
same algorithm. Otherwise both archives are unpacked and compared byte by byte.`,
	Example: `  # Compare two snapshots
  localvcs compare BACKUP_01_02_2025_15_04_05 BACKUP_01_03_2025_09_00_00

  # Just the file lists, as JSON
  localvcs compare A B --no-diff --json

  # Pick both snapshots interactively
  localvcs compare -i

  See Also:
    localvcs diff - Line diff of one file`,
	Args: func(cmd *cobra.Command, args []string) error {
		if compareInteractive {
			return cobra.MaximumNArgs(2)(cmd, args)
		}
		return cobra.ExactArgs(2)(cmd, args)
	},
	RunE: runCompare,
}

func runCompare(cmd *cobra.Command, args []string) error {
	return runCompareWithWriter(cmd, args, cmd.OutOrStdout())
}

func runCompareWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	a, err := resolveRef(cmd, mgr, args, 0, true, "Compare from")
	if err != nil {
		return err
	}
	b, err := resolveRef(cmd, mgr, args, 1, true, "Compare to")
	if err != nil {
		return err
	}

	opts := backup.CompareOptions{LineDiffs: !compareNoDiff}
	res, err := run(cmd, "Comparing snapshots", func(ctx context.Context) (*backup.DiffResult, error) {
		return mgr.Compare(ctx, a, b, opts)
	})
	if err != nil {
		return err
	}

	if compareJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	printDiffResult(w, res, compareUnchanged)
	return nil
}

func printDiffResult(w io.Writer, res *backup.DiffResult, showUnchanged bool) {
	p := paletteFor(w)
	fmt.Fprintf(w, "%s %s -> %s (%s comparison)\n", p.head("Comparing"), res.Source, res.Target, res.Method)
	fmt.Fprintf(w, "  %d added, %d removed, %d modified, %d unchanged\n",
		len(res.Added), len(res.Removed), len(res.Modified), len(res.Unchanged))

	section := func(title, mark string, color func(...any) string, files []string) {
		if len(files) == 0 {
			return
		}
		fmt.Fprintf(w, "\n%s\n", p.bold(title))
		for _, f := range files {
			fmt.Fprintf(w, "  %s %s\n", color(mark), f)
		}
	}
	section("Added", "+", p.ok, res.Added)
	section("Removed", "-", p.bad, res.Removed)
	section("Modified", "~", p.warn, res.Modified)
	if showUnchanged {
		section("Unchanged", "=", p.dim, res.Unchanged)
	}

	for _, d := range res.Diffs {
		fmt.Fprintln(w)
		printFileDiff(w, d)
	}
	if res.Identical() {
		fmt.Fprintf(w, "\n%s snapshots are identical\n", p.ok("✓"))
	}
}

func printFileDiff(w io.Writer, d textdiff.FileDiff) {
	p := paletteFor(w)
	if !d.Available {
		fmt.Fprintf(w, "%s %s: %s\n", p.dim("#"), d.Path, d.Reason)
		return
	}
	for _, l := range d.Lines {
		switch l.Kind {
		case textdiff.Header:
			fmt.Fprintln(w, p.bold(l.Raw()))
		case textdiff.Hunk:
			fmt.Fprintln(w, p.head(l.Raw()))
		case textdiff.Added:
			fmt.Fprintln(w, p.ok(l.Raw()))
		case textdiff.Removed:
			fmt.Fprintln(w, p.bad(l.Raw()))
		case textdiff.Marker:
			fmt.Fprintln(w, p.dim(l.Raw()))
		default:
			fmt.Fprintln(w, l.Raw())
		}
	}
}
