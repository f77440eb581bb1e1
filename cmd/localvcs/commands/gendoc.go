package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/cobra/doc"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/paths"
	"github.com/KrolPower/LocalVCS/pkg/frontmatter"
)

var genDocCmd = &cobra.Command{
	Use:    "gen-doc",
	Short:  "Generate documentation for the CLI",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		outputDir, _ := cmd.Flags().GetString("dir")
		format, _ := cmd.Flags().GetString("format")
		force, _ := cmd.Flags().GetBool("force")
		if outputDir == "" {
			return errors.NewUserError(errors.New("output directory is required"), "pass --dir")
		}
		if err := paths.EnsureDir(outputDir, 0o755); err != nil {
			return err
		}

		var err error
		switch format {
		case "markdown", "md":
			if !force {
				foreign, ferr := foreignPages(outputDir)
				if ferr != nil {
					return ferr
				}
				if len(foreign) > 0 {
					return errors.NewUserError(
						errors.Newf("%s already holds pages not written by gen-doc: %s", outputDir, strings.Join(foreign, ", ")),
						"pass --force to overwrite them")
				}
			}
			err = doc.GenMarkdownTreeCustom(rootCmd, outputDir, filePrepender, linkHandler)
		case "man":
			err = doc.GenManTree(rootCmd, &doc.GenManHeader{Title: "LOCALVCS", Section: "1"}, outputDir)
		default:
			return errors.NewUserError(errors.Newf("unknown format %q", format), "use markdown or man")
		}
		if err != nil {
			return errors.Wrapf(err, "generating %s", format)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Documentation generated in %s\n", outputDir)
		return nil
	},
}

func init() {
	genDocCmd.Flags().StringP("dir", "d", "", "Output directory for documentation")
	genDocCmd.Flags().String("format", "markdown", "markdown or man")
	genDocCmd.Flags().Bool("force", false, "Overwrite markdown pages that lack generated front matter")
	rootCmd.AddCommand(genDocCmd)
}

func filePrepender(filename string) string {
	name := filepath.Base(filename)
	base := strings.TrimSuffix(name, filepath.Ext(name))
	// localvcs_config_set.md -> localvcs config set
	title := strings.ReplaceAll(base, "_", " ")

	header, err := frontmatter.Format(docMeta{Title: title, Description: "Reference for " + title}, "")
	if err != nil {
		return ""
	}
	return string(header) + "\n"
}

type docMeta struct {
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
}

// foreignPages lists the localvcs markdown pages in dir whose front matter
// gen-doc did not write.
func foreignPages(dir string) ([]string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, "localvcs*.md"))
	if err != nil {
		return nil, errors.Wrapf(err, "listing pages in %s", dir)
	}
	var out []string
	for _, m := range matches {
		if !isGeneratedPage(m) {
			out = append(out, filepath.Base(m))
		}
	}
	return out, nil
}

func isGeneratedPage(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	var meta docMeta
	if _, err := frontmatter.Parse(f, &meta); err != nil {
		return false
	}
	return meta.Title != "" && meta.Description == "Reference for "+meta.Title
}

func linkHandler(name string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return strings.ToLower(base) + ".md"
}
