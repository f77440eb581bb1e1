// Package schedule runs backups on a cron schedule.
package schedule

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/KrolPower/LocalVCS/internal/backup"
	"github.com/KrolPower/LocalVCS/internal/errors"
)

// Parser accepts five standard fields or a descriptor such as @hourly or
// @every 10m.
var Parser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Parse validates a schedule expression.
func Parse(spec string) (cron.Schedule, error) {
	s, err := Parser.Parse(spec)
	if err != nil {
		return nil, errors.Mark(errors.Wrapf(err, "parsing schedule %q", spec), errors.ErrInvalidConfig)
	}
	return s, nil
}

// Runner is the part of backup.Manager a schedule drives.
type Runner interface {
	Create(ctx context.Context, sourceDir string) (*backup.Snapshot, error)
	Prune(ctx context.Context, keep int) ([]string, error)
}

// Options configures a Scheduler.
type Options struct {
	Spec   string
	Source string

	// Keep prunes to the Keep newest snapshots after each run when Prune is set.
	Prune bool
	Keep  int

	Location *time.Location
	Logger   *slog.Logger
}

// Result is the outcome of one scheduled run.
type Result struct {
	Snapshot *backup.Snapshot
	Pruned   []string
	Err      error
}

// Scheduler creates a snapshot of one source directory each time its
// schedule fires. A run still in progress when the next one is due causes
// that next run to be skipped.
type Scheduler struct {
	runner   Runner
	opts     Options
	schedule cron.Schedule
	logger   *slog.Logger

	mu      sync.Mutex
	results []func(Result)
}

// New validates opts and returns a Scheduler.
func New(r Runner, opts Options) (*Scheduler, error) {
	if opts.Source == "" {
		return nil, errors.Wrap(errors.ErrPrecondition, "no source directory to schedule")
	}
	if opts.Keep < 0 {
		return nil, errors.Wrapf(errors.ErrPrecondition, "keep must be non-negative, got %d", opts.Keep)
	}
	s, err := Parse(opts.Spec)
	if err != nil {
		return nil, err
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{runner: r, opts: opts, schedule: s, logger: logger}, nil
}

// Next returns when the schedule fires after t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t.In(s.opts.Location))
}

// OnResult registers fn to be called after every run.
func (s *Scheduler) OnResult(fn func(Result)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, fn)
}

// RunOnce performs a single backup, pruning afterwards when configured.
func (s *Scheduler) RunOnce(ctx context.Context) Result {
	var res Result
	res.Snapshot, res.Err = s.runner.Create(ctx, s.opts.Source)
	if res.Err == nil && s.opts.Prune {
		res.Pruned, res.Err = s.runner.Prune(ctx, s.opts.Keep)
	}

	if res.Err != nil {
		s.logger.Error("scheduled backup failed", "source", s.opts.Source, "error", res.Err)
	} else {
		s.logger.Info("scheduled backup", "name", res.Snapshot.Name, "files", res.Snapshot.TotalFiles, "pruned", len(res.Pruned))
	}

	s.mu.Lock()
	fns := s.results
	s.mu.Unlock()
	for _, fn := range fns {
		fn(res)
	}
	return res
}

// Run fires backups until ctx is cancelled, then waits for a run in
// progress to finish. Failed runs are logged and do not stop the schedule.
func (s *Scheduler) Run(ctx context.Context) error {
	clog := cronLogger{s.logger}
	c := cron.New(
		cron.WithLocation(s.opts.Location),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	c.Schedule(s.schedule, cron.FuncJob(func() {
		s.RunOnce(ctx)
	}))

	s.logger.Info("schedule started", "spec", s.opts.Spec, "source", s.opts.Source, "next", s.Next(time.Now()))
	c.Start()

	<-ctx.Done()
	<-c.Stop().Done()
	s.logger.Info("schedule stopped")
	return nil
}

// cronLogger routes cron's own logging to slog.
type cronLogger struct {
	l *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...any) {
	c.l.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...any) {
	c.l.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
