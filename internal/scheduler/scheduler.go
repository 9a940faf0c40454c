// Package scheduler triggers the periodic pass in serve mode. It owns a
// single cron entry; a trigger that fires while the previous pass is still
// running is skipped.
package scheduler

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	logx "arxivdigest/pkg/logx"
)

type Config struct {
	Spec     string
	Timezone string // IANA TZ, e.g. "Europe/Berlin"; empty means local
}

type Scheduler struct {
	mu  sync.Mutex
	log logx.Logger
	job func(ctx context.Context)

	ctx  context.Context
	c    *cron.Cron
	spec ParsedSpec
	loc  *time.Location
}

func New(job func(ctx context.Context), log logx.Logger) *Scheduler {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Scheduler{job: job, log: log.With(logx.String("comp", "scheduler"))}
}

// Start begins triggering. ctx is passed to every job run; cancelling it does
// not stop the scheduler, call Stop for that.
func (s *Scheduler) Start(ctx context.Context, cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ctx = ctx
	return s.restartLocked(cfg)
}

// Apply reschedules with cfg. An invalid cfg leaves the current schedule in place.
func (s *Scheduler) Apply(cfg Config) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ctx == nil {
		return fmt.Errorf("scheduler not started")
	}
	spec, err := ParseSchedule(cfg.Spec)
	if err != nil {
		return err
	}
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return err
	}
	if s.loc != nil && spec == s.spec && loc.String() == s.loc.String() {
		return nil
	}
	return s.restartLocked(cfg)
}

func (s *Scheduler) restartLocked(cfg Config) error {
	spec, err := ParseSchedule(cfg.Spec)
	if err != nil {
		return err
	}
	sched, err := spec.Schedule()
	if err != nil {
		return err
	}
	loc, err := loadLocation(cfg.Timezone)
	if err != nil {
		return err
	}

	if s.c != nil {
		<-s.c.Stop().Done()
	}
	clog := cronLogger{log: s.log}
	s.c = cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(clog),
		cron.WithChain(cron.Recover(clog), cron.SkipIfStillRunning(clog)),
	)
	ctx := s.ctx
	s.c.Schedule(sched, cron.FuncJob(func() { s.job(ctx) }))
	s.c.Start()
	s.spec, s.loc = spec, loc

	s.log.Info("schedule active", logx.String("spec", spec.String()), logx.String("tz", loc.String()), logx.Time("next", s.nextLocked()))
	return nil
}

// Next returns the next trigger time, zero when stopped.
func (s *Scheduler) Next() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextLocked()
}

func (s *Scheduler) nextLocked() time.Time {
	if s.c == nil {
		return time.Time{}
	}
	entries := s.c.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Stop stops triggering and waits for a running job to finish or ctx to end.
func (s *Scheduler) Stop(ctx context.Context) {
	s.mu.Lock()
	c := s.c
	s.c = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	select {
	case <-c.Stop().Done():
	case <-ctx.Done():
		s.log.Warn("stop timed out waiting for running pass")
	}
}

func loadLocation(tz string) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", tz, err)
	}
	return loc, nil
}

// cronLogger adapts logx to cron.Logger.
type cronLogger struct{ log logx.Logger }

func (l cronLogger) Info(msg string, kv ...any) {
	l.log.Debug("cron: "+msg, kvFields(kv)...)
}

func (l cronLogger) Error(err error, msg string, kv ...any) {
	l.log.Error("cron: "+msg, append(kvFields(kv), logx.Err(err))...)
}

func kvFields(kv []any) []logx.Field {
	out := make([]logx.Field, 0, len(kv)/2)
	for i := 0; i+1 < len(kv); i += 2 {
		out = append(out, logx.Any(fmt.Sprint(kv[i]), kv[i+1]))
	}
	return out
}
