package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"
	"unicode/utf8"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/cli/prompt"
	"github.com/KrolPower/LocalVCS/internal/config"
	"github.com/KrolPower/LocalVCS/internal/digest"
	"github.com/KrolPower/LocalVCS/internal/errors"
	"github.com/KrolPower/LocalVCS/internal/logging"
	"github.com/KrolPower/LocalVCS/internal/paths"
	"github.com/KrolPower/LocalVCS/internal/snapshot"
	"github.com/KrolPower/LocalVCS/internal/task"
	"github.com/KrolPower/LocalVCS/internal/textdiff"
)

// palette colors command output when w is a terminal.
type palette struct {
	ok, warn, bad, dim, bold, head func(a ...any) string
}

func paletteFor(w io.Writer) palette {
	enable := logging.SupportsColor(w)
	mk := func(attrs ...color.Attribute) func(a ...any) string {
		c := color.New(attrs...)
		if enable {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c.SprintFunc()
	}
	return palette{
		ok:   mk(color.FgGreen),
		warn: mk(color.FgYellow),
		bad:  mk(color.FgRed),
		dim:  mk(color.FgHiBlack),
		bold: mk(color.Bold),
		head: mk(color.FgCyan, color.Bold),
	}
}

// currentConfig returns the loaded configuration, or defaults when none was
// loaded.
func currentConfig() *config.Config {
	if cfg != nil {
		return cfg
	}
	return config.Default()
}

// newManager builds a backup.Manager from the configuration.
func newManager(ctx context.Context, c *config.Config) (*backup.Manager, error) {
	store, err := paths.Expand(c.StoreDir)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrInvalidConfig)
	}
	if store == "" {
		store = paths.DefaultStoreDir()
	}
	source, err := paths.Expand(c.SourceDir)
	if err != nil {
		return nil, errors.Mark(err, errors.ErrInvalidConfig)
	}

	alg, err := digest.ParseAlgorithm(c.HashAlgorithm)
	if err != nil {
		return nil, err
	}
	hasher, err := digest.New(alg)
	if err != nil {
		return nil, err
	}
	collision, err := snapshot.ParseCollision(c.Collision)
	if err != nil {
		return nil, err
	}

	return backup.NewManager(
		backup.WithStoreDir(store),
		backup.WithSourceDir(source),
		backup.WithHasher(hasher),
		backup.WithCollisionPolicy(collision),
		backup.WithCompressionLevel(c.CompressionLevel),
		backup.WithRetry(c.Retry.Attempts, c.Retry.Backoff),
		backup.WithLockTimeout(c.LockTimeout),
		backup.WithDiffOptions(textdiff.Options{
			Context:         c.Diff.ContextLines,
			MaxFileSize:     c.Diff.MaxFileSize,
			ExtraExtensions: c.Diff.ExtraExtensions,
		}),
		backup.WithLogger(logging.FromContext(ctx)),
	), nil
}

// managerFor is newManager for a running command.
func managerFor(cmd *cobra.Command) (*backup.Manager, error) {
	return newManager(commandContext(cmd), currentConfig())
}

func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// sourceFor picks the source directory: the argument, then source_dir.
func sourceFor(args []string) (string, error) {
	if len(args) > 0 && args[0] != "" {
		return paths.Expand(args[0])
	}
	src, err := paths.Expand(currentConfig().SourceDir)
	if err != nil {
		return "", err
	}
	if src == "" {
		return "", errors.WithHint(
			errors.Wrap(errors.ErrPrecondition, "no source directory given"),
			"pass a directory or run: localvcs config set source_dir <dir>")
	}
	return src, nil
}

// run executes fn as a background task and waits for its single outcome.
// A slow operation gets a progress line on a terminal.
func run[T any](cmd *cobra.Command, name string, fn func(context.Context) (T, error)) (T, error) {
	ctx := commandContext(cmd)
	t := task.Go(ctx, name, fn)

	if !quiet && logging.IsTTY(cmd.ErrOrStderr()) {
		select {
		case <-t.Done():
		case <-time.After(500 * time.Millisecond):
			fmt.Fprintf(cmd.ErrOrStderr(), "%s...\n", name)
		}
	}
	return t.Wait(ctx)
}

// resolveRef returns args[i] when present. Otherwise, with interactive set it
// lets the user pick from the store, and without it falls back to the newest
// snapshot.
func resolveRef(cmd *cobra.Command, mgr *backup.Manager, args []string, i int, interactive bool, title string) (string, error) {
	if len(args) > i {
		return args[i], nil
	}
	ctx := commandContext(cmd)
	if !interactive {
		info, err := mgr.Latest(ctx)
		if err != nil {
			return "", err
		}
		logging.FromContext(ctx).Debug("using most recent snapshot", "name", info.Name)
		return info.Name, nil
	}

	infos, err := mgr.List(ctx)
	if err != nil {
		return "", err
	}
	picked, err := pick(cmd, title, infos)
	if err != nil {
		return "", err
	}
	return picked.Name, nil
}

// pick uses the fuzzy finder on a terminal and a numbered prompt otherwise.
func pick(cmd *cobra.Command, title string, infos []snapshot.Info) (*snapshot.Info, error) {
	if len(infos) == 0 {
		return nil, errors.Wrap(errors.ErrNotFound, "no snapshots in the store")
	}
	if f, ok := cmd.InOrStdin().(*os.File); ok && logging.IsTTY(f) && logging.IsTTY(cmd.OutOrStdout()) {
		return prompt.FuzzySnapshot(title, infos)
	}
	return prompt.NewSelectorWithIO(cmd.InOrStdin(), cmd.OutOrStdout()).SelectSnapshot(title, infos)
}

// confirm asks before a destructive step unless yes is set.
func confirm(cmd *cobra.Command, yes bool, question string) (bool, error) {
	if yes {
		return true, nil
	}
	return prompt.NewSelectorWithIO(cmd.InOrStdin(), cmd.OutOrStdout()).Confirm(question, false)
}

// humanSize formats a byte count.
func humanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if utf8.RuneCountInString(s) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-3]) + "..."
}

func loggerFor(cmd *cobra.Command) *slog.Logger {
	return logging.FromContext(commandContext(cmd))
}
