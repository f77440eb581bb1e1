// Package config loads localvcs settings with Viper.
package config

import (
	"os"
	"slices"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/paths"
)

// EnvPrefix prefixes environment overrides, e.g. LOCALVCS_STORE_DIR.
const EnvPrefix = "LOCALVCS"

// Config is the full set of settings.
type Config struct {
	StoreDir         string        `mapstructure:"store_dir" yaml:"store_dir"`
	SourceDir        string        `mapstructure:"source_dir" yaml:"source_dir"`
	HashAlgorithm    string        `mapstructure:"hash_algorithm" yaml:"hash_algorithm"`
	Collision        string        `mapstructure:"collision" yaml:"collision"`
	CompressionLevel int           `mapstructure:"compression_level" yaml:"compression_level"`
	Retention        int           `mapstructure:"retention" yaml:"retention"`
	LockTimeout      time.Duration `mapstructure:"lock_timeout" yaml:"lock_timeout"`
	Retry            Retry         `mapstructure:"retry" yaml:"retry"`
	Diff             Diff          `mapstructure:"diff" yaml:"diff"`
	Schedule         Schedule      `mapstructure:"schedule" yaml:"schedule"`
	Watch            Watch         `mapstructure:"watch" yaml:"watch"`
}

// Retry bounds retries of transient archive and manifest I/O.
type Retry struct {
	Attempts int           `mapstructure:"attempts" yaml:"attempts"`
	Backoff  time.Duration `mapstructure:"backoff" yaml:"backoff"`
}

// Diff configures line diffs between snapshots.
type Diff struct {
	ContextLines    int      `mapstructure:"context_lines" yaml:"context_lines"`
	MaxFileSize     int64    `mapstructure:"max_file_size" yaml:"max_file_size"`
	ExtraExtensions []string `mapstructure:"extra_extensions" yaml:"extra_extensions"`
}

// Schedule configures periodic backups.
type Schedule struct {
	Cron  string `mapstructure:"cron" yaml:"cron"`
	Prune bool   `mapstructure:"prune" yaml:"prune"`
}

// Watch configures change-triggered backups.
type Watch struct {
	Debounce time.Duration `mapstructure:"debounce" yaml:"debounce"`
}

// Default values.
const (
	DefaultHashAlgorithm    = "md5"
	DefaultCollision        = "suffix"
	DefaultCompressionLevel = -1
	DefaultRetention        = 5
	DefaultLockTimeout      = 30 * time.Second
	DefaultRetryAttempts    = 3
	DefaultRetryBackoff     = 200 * time.Millisecond
	DefaultContextLines     = 3
	DefaultMaxFileSize      = 1 << 20
	DefaultDebounce         = 5 * time.Second
)

// Keys lists every setting in the order config list prints them.
var Keys = []string{
	"store_dir",
	"source_dir",
	"hash_algorithm",
	"collision",
	"compression_level",
	"retention",
	"lock_timeout",
	"retry.attempts",
	"retry.backoff",
	"diff.context_lines",
	"diff.max_file_size",
	"diff.extra_extensions",
	"schedule.cron",
	"schedule.prune",
	"watch.debounce",
}

// ValidKey reports whether key is a known setting.
func ValidKey(key string) bool {
	return slices.Contains(Keys, key)
}

// Init initializes Viper with default configuration.
// Call this once at application startup before accessing config values.
func Init() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Search paths (in order of precedence)
	viper.AddConfigPath(".")
	viper.AddConfigPath(paths.ConfigDir())

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(envKeyReplacer)
	viper.AutomaticEnv()

	setDefaults(viper.GetViper())
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("store_dir", paths.DefaultStoreDir())
	v.SetDefault("source_dir", "")
	v.SetDefault("hash_algorithm", DefaultHashAlgorithm)
	v.SetDefault("collision", DefaultCollision)
	v.SetDefault("compression_level", DefaultCompressionLevel)
	v.SetDefault("retention", DefaultRetention)
	v.SetDefault("lock_timeout", DefaultLockTimeout)
	v.SetDefault("retry.attempts", DefaultRetryAttempts)
	v.SetDefault("retry.backoff", DefaultRetryBackoff)
	v.SetDefault("diff.context_lines", DefaultContextLines)
	v.SetDefault("diff.max_file_size", DefaultMaxFileSize)
	v.SetDefault("diff.extra_extensions", []string{})
	v.SetDefault("schedule.cron", "")
	v.SetDefault("schedule.prune", false)
	v.SetDefault("watch.debounce", DefaultDebounce)
}

// Default returns the configuration used when no file or environment
// overrides anything.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	// Defaults always decode.
	_ = v.Unmarshal(&cfg)
	return &cfg
}

// Load reads the configuration file.
// If path is provided, it reads from that specific file.
// If path is empty, it searches in the default locations and falls back to
// defaults when no file exists. The result is validated; all problems are
// reported together and marked errors.ErrInvalidConfig.
func Load(path string) (*Config, error) {
	if path != "" {
		viper.SetConfigFile(path)
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		switch {
		case errors.As(err, &notFound) && path == "":
		case errors.As(err, &notFound):
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		case path != "" && isNotExist(err):
			return nil, errors.Wrapf(errors.ErrNotFound, "config file %s", path)
		default:
			return nil, errors.Mark(errors.Wrap(err, "reading config file"), errors.ErrInvalidConfig)
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.Mark(errors.Wrap(err, "unmarshaling config"), errors.ErrInvalidConfig)
	}

	if errs := Validate(&cfg); len(errs) > 0 {
		return nil, errors.Mark(errors.Join(errs...), errors.ErrInvalidConfig)
	}
	return &cfg, nil
}

var envKeyReplacer = strings.NewReplacer(".", "_")

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}

// Path returns the config file Viper is using, or the default location when
// none was found.
func Path() string {
	if used := viper.ConfigFileUsed(); used != "" {
		return used
	}
	return paths.ConfigFile()
}
