// Package config provides configuration management for localvcs.
//
// Settings come from, in increasing precedence: built-in defaults, the YAML
// file (./config.yaml, then ~/.config/localvcs/config.yaml), LOCALVCS_*
// environment variables, and command-line flags bound by the CLI. Nested keys
// map to environment variables with underscores, so retry.attempts is
// LOCALVCS_RETRY_ATTEMPTS.
//
//	store_dir: ~/.local/share/localvcs/backups
//	source_dir: ~/projects/site
//	hash_algorithm: md5        # md5, sha256, blake2b, xxh3
//	collision: suffix          # suffix, overwrite, reject
//	compression_level: -1      # -1 library default, 0-9
//	retention: 5
//	lock_timeout: 30s
//	retry:
//	  attempts: 3
//	  backoff: 200ms
//	diff:
//	  context_lines: 3
//	  max_file_size: 1048576
//	  extra_extensions: [.tmpl]
//	schedule:
//	  cron: "@hourly"
//	  prune: true
//	watch:
//	  debounce: 5s
//
// [Load] validates what it reads; every problem is reported at once, marked
// errors.ErrInvalidConfig.
package config
