package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/errors"
)

var (
	verifyAll  bool
	verifyJSON bool
)

func init() {
	verifyCmd.Flags().BoolVarP(&verifyAll, "all", "a", false, "verify every snapshot in the store")
	verifyCmd.Flags().BoolVar(&verifyJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(verifyCmd)
}

var verifyCmd = &cobra.Command{
	Use:   "verify [snapshot]...",
	Short: "Check archives against their manifests",
	Long: `Re-digest every file in a snapshot's archive and compare it with the
manifest. Reports files missing from either side, digest mismatches and damaged
entries. Without arguments the newest snapshot is verified.`,
	Example: `  localvcs verify
  localvcs verify BACKUP_01_02_2025_15_04_05
  localvcs verify --all

  See Also:
    localvcs list - List snapshots`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	return runVerifyWithWriter(cmd, args, cmd.OutOrStdout())
}

func runVerifyWithWriter(cmd *cobra.Command, args []string, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	ctx := commandContext(cmd)

	refs := args
	switch {
	case verifyAll:
		infos, err := mgr.List(ctx)
		if err != nil {
			return err
		}
		refs = refs[:0:0]
		for _, info := range infos {
			if info.HasManifest {
				refs = append(refs, info.Name)
			}
		}
	case len(refs) == 0:
		ref, err := resolveRef(cmd, mgr, nil, 0, false, "")
		if err != nil {
			return err
		}
		refs = []string{ref}
	}

	reports := make([]*backup.VerifyReport, 0, len(refs))
	failed := 0
	for _, ref := range refs {
		report, err := run(cmd, "Verifying "+ref, func(ctx context.Context) (*backup.VerifyReport, error) {
			return mgr.Verify(ctx, ref)
		})
		if err != nil {
			return err
		}
		if !report.OK() {
			failed++
		}
		reports = append(reports, report)
	}

	if verifyJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(reports); err != nil {
			return err
		}
	} else {
		for _, r := range reports {
			printVerifyReport(w, r)
		}
	}

	if failed > 0 {
		return errors.NewSystemError(
			errors.Mark(errors.Newf("%d of %d snapshots failed verification", failed, len(reports)), errors.ErrCorruptArchive),
			"Restore from a snapshot that verifies")
	}
	return nil
}

func printVerifyReport(w io.Writer, r *backup.VerifyReport) {
	p := paletteFor(w)
	if r.OK() {
		fmt.Fprintf(w, "%s %s: %d files match (%s)\n", p.ok("✓"), r.Name, r.Checked, r.Algorithm)
	} else {
		fmt.Fprintf(w, "%s %s: archive does not match its manifest\n", p.bad("✗"), r.Name)
	}
	list := func(label string, files []string) {
		for _, f := range files {
			fmt.Fprintf(w, "    %s %s\n", label, f)
		}
	}
	list("missing:   ", r.Missing)
	list("extra:     ", r.Extra)
	list("mismatched:", r.Mismatched)
	list("corrupt:   ", r.Corrupt)
	if len(r.Unverifiable) > 0 {
		fmt.Fprintf(w, "    %s\n", p.dim(fmt.Sprintf("%d files have no recorded digest", len(r.Unverifiable))))
	}
}
