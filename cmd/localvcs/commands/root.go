// Package commands implements the localvcs command line.
package commands

import (
	"context"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/KrolPower/LocalVCS/cmd"
	"github.com/KrolPower/LocalVCS/internal/config"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/logging"
)

// verbosity holds the count of -v flags.
var verbosity int

// quiet holds the value of the -q/--quiet flag.
var quiet bool

// logFormat holds the value of the --log-format flag.
var logFormat string

// logFile holds the path to the log file.
var logFile string

// configFile holds the value of the --config flag.
var configFile string

// cfg is the loaded configuration; configLoadErr is set instead when loading failed.
var (
	cfg           *config.Config
	configLoadErr error
)

// logCloser releases the --log-file sink after the command ran.
var logCloser io.Closer

func init() {
	cobra.OnInitialize(initConfig)

	pf := rootCmd.PersistentFlags()
	pf.CountVarP(&verbosity, "verbose", "v",
		"increase verbosity level (e.g., -v, -vv)")
	pf.BoolVarP(&quiet, "quiet", "q", false,
		"suppress non-error output")
	pf.StringVar(&logFormat, "log-format", "text",
		"log format: text, json")
	pf.StringVar(&logFile, "log-file", "",
		"also write logs to this file in JSON format")
	pf.StringVar(&configFile, "config", "",
		"config file (default: ./config.yaml, then the user config directory)")
	pf.StringP("store", "s", "",
		"snapshot store directory (overrides store_dir)")

	rootCmd.Version = cmd.Version
	rootCmd.SetVersionTemplate("localvcs version {{.Version}}\n")

	// Silence errors and usage so we can control error output
	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
}

func initConfig() {
	config.Init()
	_ = viper.BindPFlag("store_dir", rootCmd.PersistentFlags().Lookup("store"))
	cfg, configLoadErr = config.Load(configFile)
}

var rootCmd = &cobra.Command{
	Use:   "localvcs",
	Short: "Snapshot, restore and compare a directory tree",
	Long: `localvcs keeps point-in-time snapshots of a directory as zip archives in a
store directory. Every snapshot carries a manifest of per-file digests, so two
snapshots can be compared without unpacking them, and any snapshot can be
restored over its source directory.

Snapshots are named BACKUP_<MM_DD_YYYY_HH_MM_SS>. The manifest sits next to the
archive as <name>_hashes.json and optional notes as <name>_notes.txt.`,
	Example: `  # Snapshot a project
  localvcs backup ~/projects/site

  # See what changed between the two newest snapshots
  localvcs list
  localvcs compare BACKUP_01_02_2025_15_04_05 BACKUP_01_02_2025_16_10_00

  # Roll back
  localvcs restore BACKUP_01_02_2025_15_04_05

  See Also: localvcs config, localvcs schedule, localvcs watch`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(cmd); err != nil {
			return err
		}
		return checkConfig(cmd)
	},
	PersistentPostRun: func(*cobra.Command, []string) {
		if logCloser != nil {
			_ = logCloser.Close()
			logCloser = nil
		}
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
	},
}

// setupLogging configures the default logger based on verbosity flags.
func setupLogging(cmd *cobra.Command) error {
	if quiet && verbosity > 0 {
		return errors.NewUserError(nil, "cannot use --quiet and --verbose together")
	}

	var level slog.Level
	if quiet {
		level = slog.LevelError
	} else {
		v := verbosity

		// CLI flags take precedence, but if not set, check env var
		if v == 0 {
			if val, ok := os.LookupEnv("LOCALVCS_DEBUG"); ok {
				switch val {
				case "1", "true":
					v = 2 // Debug
				case "2":
					v = 3 // Trace
				}
			}
		}
		level = logging.LevelFromVerbosity(v)
	}

	logger, closer, err := logging.Open(logging.Config{
		Level:  level,
		Format: logging.Format(logFormat),
		Output: cmd.ErrOrStderr(),
		File:   logFile,
	})
	if err != nil {
		return errors.NewUserError(err, "check the --log-file path")
	}
	logCloser = closer

	slog.SetDefault(logger)

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	cmd.SetContext(logging.NewContext(ctx, logger))

	return nil
}

// checkConfig reports a config load failure, except for commands that must
// keep working to repair it.
func checkConfig(cmd *cobra.Command) error {
	switch cmd.Name() {
	case "help", "version", "path", "init", "set", "gen-doc", "doctor":
		return nil
	}
	if configLoadErr != nil {
		return errors.NewConfigError(configLoadErr)
	}
	return nil
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
