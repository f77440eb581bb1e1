package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/KrolPower/LocalVCS/internal/config"
	"github.com/KrolPower/LocalVCS/internal/editor"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/paths"
	"github.com/KrolPower/LocalVCS/pkg/fileutil"
)

var (
	configInitForce  bool
	configListFormat string
)

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "overwrite an existing config file")
	configListCmd.Flags().StringVarP(&configListFormat, "format", "o", "yaml", "output format: yaml, toml or json")
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configListCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configEditCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage localvcs configuration",
	Long: `Manage localvcs configuration stored in config.yaml in the user config
directory (see: localvcs config path). A config.toml there, or a --config path
ending in .toml, is read and written as TOML instead.

Without a subcommand, lists all configuration values.`,
	Example: `  # List all configuration
  localvcs config

  # Get a specific value
  localvcs config get store_dir

  # Set a value
  localvcs config set hash_algorithm sha256

See Also: localvcs config init`,
	RunE: runConfigList,
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Long: `Get a single configuration value by key.

Supports dot notation for nested keys. List values are printed one per line.`,
	Example: `  localvcs config get retention
  localvcs config get retry.backoff

See Also: localvcs config set, localvcs config list`,
	Args: cobra.ExactArgs(1),
	RunE: runConfigGet,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and write the config file.

For list values like diff.extra_extensions, use comma-separated values. The
resulting configuration is validated before it is written.`,
	Example: `  localvcs config set source_dir ~/projects/site
  localvcs config set schedule.cron "@every 2h"
  localvcs config set diff.extra_extensions .tmpl,.cfg

See Also: localvcs config get, localvcs config list`,
	Args: cobra.ExactArgs(2),
	RunE: runConfigSet,
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all configuration",
	Long:  `List all configuration values as YAML, TOML or JSON.`,
	Example: `  localvcs config list
  localvcs config list --format toml

See Also: localvcs config get, localvcs config set`,
	RunE: runConfigList,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), configPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a config file with the default values",
	Args:  cobra.NoArgs,
	RunE:  runConfigInit,
}

var configEditCmd = &cobra.Command{
	Use:   "edit",
	Short: "Open configuration in $EDITOR",
	Long: `Open the configuration file in your default editor.

Uses $LOCALVCS_EDITOR, $EDITOR or $VISUAL, falling back to nano or vi.
If no configuration file exists, prints an error suggesting to run 'localvcs config init'.`,
	Example: `  # Open config in default editor
  localvcs config edit

  # Open with specific editor
  EDITOR=nano localvcs config edit

See Also: localvcs config list, localvcs config init`,
	RunE: runConfigEdit,
}

// configPath is the file config set and init write to.
func configPath() string {
	if configFile != "" {
		return configFile
	}
	return config.Path()
}

func runConfigGet(cmd *cobra.Command, args []string) error {
	return runConfigGetWithWriter(args[0], cmd.OutOrStdout())
}

func runConfigGetWithWriter(key string, w io.Writer) error {
	if !config.ValidKey(key) {
		return unknownKey(key)
	}

	switch v := viper.Get(key).(type) {
	case []any:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	case []string:
		for _, item := range v {
			fmt.Fprintln(w, item)
		}
	default:
		fmt.Fprintln(w, viper.GetString(key))
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, args []string) error {
	return runConfigSetWithWriter(args[0], args[1], cmd.OutOrStdout())
}

func runConfigSetWithWriter(key, value string, w io.Writer) error {
	if !config.ValidKey(key) {
		return unknownKey(key)
	}

	var v any = value
	if key == "diff.extra_extensions" {
		v = parseList(value)
	}
	viper.Set(key, v)

	c, err := effectiveConfig()
	if err != nil {
		return errors.NewUserError(errors.Wrapf(err, "invalid value for %s", key), "")
	}
	if errs := config.Validate(c); len(errs) > 0 {
		return errors.NewConfigError(errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig))
	}

	if err := writeConfig(configPath(), c); err != nil {
		return err
	}
	fmt.Fprintf(w, "Set %s = %v\n", key, v)
	return nil
}

func runConfigList(cmd *cobra.Command, _ []string) error {
	return runConfigListWithWriter(cmd.OutOrStdout())
}

func runConfigListWithWriter(w io.Writer) error {
	c, err := effectiveConfig()
	if err != nil {
		return err
	}
	data, err := encodeConfig(configTree(c), configListFormat)
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

// encodeConfig renders a config tree in the named format.
func encodeConfig(tree map[string]any, format string) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	switch strings.ToLower(format) {
	case "", "yaml", "yml":
		data, err = yaml.Marshal(tree)
	case "toml":
		data, err = toml.Marshal(tree)
	case "json":
		data, err = json.MarshalIndent(tree, "", "  ")
		data = append(data, '\n')
	default:
		return nil, errors.NewUserError(errors.Newf("unknown format %q", format), "use yaml, toml or json")
	}
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling config as %s", format)
	}
	return data, nil
}

func runConfigInit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); err == nil && !configInitForce {
		return errors.NewUserError(
			errors.Newf("config file already exists at %s", path),
			"Use --force to overwrite it")
	}
	if err := writeConfig(path, config.Default()); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	return nil
}

func runConfigEdit(cmd *cobra.Command, _ []string) error {
	path := configPath()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return errors.NewUserError(
			errors.Newf("config file not found at %s", path),
			"Run: localvcs config init")
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Location: %s\n", path)
	return editor.Open(commandContext(cmd), path)
}

func unknownKey(key string) error {
	return errors.NewUserError(
		errors.Wrapf(errors.ErrInvalidConfig, "unknown key %q", key),
		"Valid keys: "+strings.Join(config.Keys, ", "))
}

// parseList splits a comma-separated string into its non-empty items.
func parseList(s string) []string {
	items := []string{}
	for item := range strings.SplitSeq(s, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// effectiveConfig decodes the current settings without validating them.
func effectiveConfig() (*config.Config, error) {
	var c config.Config
	if err := viper.Unmarshal(&c); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "decoding config"), errors.ErrInvalidConfig)
	}
	return &c, nil
}

// configTree lays c out the way the config file nests it.
func configTree(c *config.Config) map[string]any {
	extensions := c.Diff.ExtraExtensions
	if extensions == nil {
		extensions = []string{}
	}
	return map[string]any{
		"store_dir":         c.StoreDir,
		"source_dir":        c.SourceDir,
		"hash_algorithm":    c.HashAlgorithm,
		"collision":         c.Collision,
		"compression_level": c.CompressionLevel,
		"retention":         c.Retention,
		"lock_timeout":      c.LockTimeout.String(),
		"retry": map[string]any{
			"attempts": c.Retry.Attempts,
			"backoff":  c.Retry.Backoff.String(),
		},
		"diff": map[string]any{
			"context_lines":    c.Diff.ContextLines,
			"max_file_size":    c.Diff.MaxFileSize,
			"extra_extensions": extensions,
		},
		"schedule": map[string]any{
			"cron":  c.Schedule.Cron,
			"prune": c.Schedule.Prune,
		},
		"watch": map[string]any{
			"debounce": c.Watch.Debounce.String(),
		},
	}
}

// writeConfig writes c to path, as TOML when path ends in .toml and as YAML
// otherwise.
func writeConfig(path string, c *config.Config) error {
	if err := paths.EnsureDir(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	write := fileutil.AtomicWriteYAML
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		write = fileutil.AtomicWriteTOML
	}
	if err := write(path, configTree(c)); err != nil {
		return errors.Wrap(err, "writing config file")
	}
	return nil
}
