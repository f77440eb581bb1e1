package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var listJSON bool

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(listCmd)
}

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List snapshots",
	Long: `List the snapshots in the store, newest first.

Snapshots whose manifest is missing are still listed; they can be restored
but compare falls back to unpacking them.`,
	Example: `  # List snapshots
  localvcs list

  # Output as JSON
  localvcs list --json

  See Also:
    localvcs backup  - Create a snapshot
    localvcs compare - Compare two snapshots`,
	Args: cobra.NoArgs,
	RunE: runList,
}

// snapshotOutput represents a single snapshot in JSON output.
type snapshotOutput struct {
	Name            string    `json:"name"`
	Archive         string    `json:"archive"`
	Size            int64     `json:"size"`
	ModifiedAt      time.Time `json:"modified_at"`
	CreatedAt       time.Time `json:"created_at,omitzero"`
	FileCount       int       `json:"file_count"`
	SourceDirectory string    `json:"source_directory,omitempty"`
	HashAlgorithm   string    `json:"hash_algorithm,omitempty"`
	HasManifest     bool      `json:"has_manifest"`
	HasNotes        bool      `json:"has_notes"`
	ManifestError   string    `json:"manifest_error,omitempty"`
}

func runList(cmd *cobra.Command, _ []string) error {
	return runListWithWriter(cmd, cmd.OutOrStdout())
}

func runListWithWriter(cmd *cobra.Command, w io.Writer) error {
	mgr, err := managerFor(cmd)
	if err != nil {
		return err
	}
	infos, err := mgr.List(commandContext(cmd))
	if err != nil {
		return err
	}

	if listJSON {
		out := make([]snapshotOutput, len(infos))
		for i, info := range infos {
			out[i] = snapshotOutput{
				Name:            info.Name,
				Archive:         info.Archive,
				Size:            info.Size,
				ModifiedAt:      info.ModTime,
				CreatedAt:       info.CreatedAt,
				FileCount:       info.TotalFiles,
				SourceDirectory: info.SourceDirectory,
				HashAlgorithm:   info.Algorithm,
				HasManifest:     info.HasManifest,
				HasNotes:        info.HasNotes,
			}
			if info.ManifestErr != nil {
				out[i].ManifestError = info.ManifestErr.Error()
			}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	}

	p := paletteFor(w)
	if len(infos) == 0 {
		fmt.Fprintf(w, "No snapshots in %s\n", mgr.StoreDir())
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Create one with: localvcs backup <dir>")
		return nil
	}

	fmt.Fprintf(w, "%s %s\n", p.head("Store:"), mgr.StoreDir())
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMODIFIED\tFILES\tSIZE\tSOURCE\tNOTES")
	for _, info := range infos {
		files := "-"
		switch {
		case info.ManifestErr != nil:
			files = "unreadable"
		case info.HasManifest:
			files = fmt.Sprint(info.TotalFiles)
		}
		notes := ""
		if info.HasNotes {
			notes = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			info.Name,
			info.ModTime.Local().Format("2006-01-02 15:04:05"),
			files,
			humanSize(info.Size),
			truncate(info.SourceDirectory, 48),
			notes)
	}
	return tw.Flush()
}
