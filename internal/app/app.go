// Package app wires configuration, the ledger and the pipeline together and
// implements the two run modes: a single pass (run) and the scheduled
// service (serve).
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"arxivdigest/internal/config"
	"arxivdigest/internal/ledger"
	"arxivdigest/internal/pipeline"
	"arxivdigest/internal/runtime/supervisor"
	"arxivdigest/internal/scheduler"
	"arxivdigest/internal/status"
	logx "arxivdigest/pkg/logx"
	"arxivdigest/pkg/systemd"
)

// ErrPassRunning is returned by RunOnce when another pass holds the lock.
var ErrPassRunning = errors.New("a pass is already running")

type App struct {
	cfgm *config.Manager
	cfg  atomic.Pointer[config.Config]

	log   logx.Logger
	logs  *logx.Service
	store ledger.Store

	comp atomic.Pointer[components]
	last atomic.Pointer[pipeline.Report]

	passMu sync.Mutex
}

// New loads the config and opens the ledger. Failures here are startup
// failures: the caller should exit non-zero.
func New(cfgm *config.Manager) (*App, error) {
	cfg, err := cfgm.Load()
	if err != nil {
		return nil, err
	}

	logSvc, log := logx.New(mapLoggingConfig(cfg))
	log = log.With(logx.String("comp", "app"))
	cfgm.SetLogger(log.With(logx.String("comp", "config")))

	lcfg, err := mapLedgerConfig(cfg)
	if err != nil {
		_ = logSvc.Close()
		return nil, err
	}
	store, err := ledger.Open(lcfg, log.With(logx.String("comp", "ledger")))
	if err != nil {
		_ = logSvc.Close()
		return nil, fmt.Errorf("open ledger: %w", err)
	}

	comp, err := buildComponents(cfg, store, log)
	if err != nil {
		_ = store.Close()
		_ = logSvc.Close()
		return nil, err
	}

	a := &App{cfgm: cfgm, log: log, logs: logSvc, store: store}
	a.cfg.Store(cfg)
	a.comp.Store(comp)
	log.Debug("app ready",
		logx.String("provider", cfg.Summarizer.Provider),
		logx.String("ledger", cfg.Ledger.Driver),
		logx.String("root", cfg.Publish.Root),
	)
	return a, nil
}

// Logger returns the app logger.
func (a *App) Logger() logx.Logger { return a.log }

// LastReport returns the report of the most recent completed pass.
func (a *App) LastReport() (pipeline.Report, bool) {
	if r := a.last.Load(); r != nil {
		return *r, true
	}
	return pipeline.Report{}, false
}

// RunOnce performs one pass. Passes never overlap.
func (a *App) RunOnce(ctx context.Context) (pipeline.Report, error) {
	if !a.passMu.TryLock() {
		return pipeline.Report{}, ErrPassRunning
	}
	defer a.passMu.Unlock()

	rep, err := a.comp.Load().pipeline.Run(ctx)
	a.last.Store(&rep)
	return rep, err
}

// scheduledPass is the cron job. Errors are logged; the service keeps running.
func (a *App) scheduledPass(ctx context.Context) {
	rep, err := a.RunOnce(ctx)
	switch {
	case errors.Is(err, ErrPassRunning):
		a.log.Warn("pass still running; trigger skipped")
	case err != nil && ctx.Err() == nil:
		a.log.Error("pass failed", logx.String("run_id", rep.RunID), logx.Err(err))
	case err == nil && (rep.Processed > 0 || rep.Failed > 0):
		_, _ = systemd.Status(fmt.Sprintf("last pass %s: %d processed, %d failed", rep.Finished.Format(time.RFC3339), rep.Processed, rep.Failed))
	}
}

// Serve runs passes on the configured schedule until ctx is done.
func (a *App) Serve(ctx context.Context) error {
	cfg := a.cfg.Load()
	sup := supervisor.New(ctx,
		supervisor.WithLogger(a.log.With(logx.String("comp", "supervisor"))),
		supervisor.WithCancelOnError(true),
	)

	sched := scheduler.New(a.scheduledPass, a.log)
	if err := sched.Start(sup.Context(), schedulerConfig(cfg)); err != nil {
		sup.Cancel()
		return err
	}

	if cfg.Serve.RunOnStart != nil && *cfg.Serve.RunOnStart {
		sup.Go0("pass.initial", a.scheduledPass)
	}

	sup.GoRestart("config.watch", a.cfgm.Watch, 500*time.Millisecond, 10*time.Second)
	sub := a.cfgm.Subscribe(4)
	sup.Go0("config.reload", func(c context.Context) {
		defer a.cfgm.Unsubscribe(sub)
		for {
			select {
			case <-c.Done():
				return
			case next, ok := <-sub:
				if !ok {
					return
				}
				a.applyConfig(next, sched)
			}
		}
	})

	if cfg.Serve.Status.Enabled {
		srv := status.New(cfg.Serve.Status.Addr, status.Source{
			Ledger:     a.store,
			DocPath:    func(id string) string { return a.comp.Load().publisher.Path(id) },
			LastReport: a.LastReport,
			Goroutines: sup.Snapshot,
			Pprof:      cfg.Serve.Status.Pprof,
		}, a.log)
		sup.GoRestart("status.http", srv.Run, time.Second, 30*time.Second)
	}

	if every := systemd.WatchdogInterval(); every > 0 {
		sup.Go0("systemd.watchdog", func(c context.Context) {
			t := time.NewTicker(every)
			defer t.Stop()
			for {
				select {
				case <-c.Done():
					return
				case <-t.C:
					_, _ = systemd.Watchdog()
				}
			}
		})
	}

	if ok, err := systemd.Ready(); err != nil {
		a.log.Warn("sd_notify ready failed", logx.Err(err))
	} else if ok {
		a.log.Debug("systemd notified: ready")
	}
	a.log.Info("serving", logx.String("schedule", cfg.Serve.Schedule), logx.Time("next", sched.Next()))

	<-sup.Context().Done()
	_, _ = systemd.Stopping()
	a.log.Info("shutting down")

	stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	sched.Stop(stopCtx)
	if err := sup.Stop(stopCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return nil
}

func schedulerConfig(cfg *config.Config) scheduler.Config {
	return scheduler.Config{Spec: cfg.Serve.Schedule, Timezone: cfg.Serve.Timezone}
}

// applyConfig swaps in a reloaded config. The ledger and the status server
// keep their startup settings until restart.
func (a *App) applyConfig(next *config.Config, sched *scheduler.Scheduler) {
	prev := a.cfg.Load()
	sections, attrs := config.SummarizeConfigChange(prev, next)
	if len(sections) == 0 {
		a.log.Debug("config reload received, but no effective changes detected")
		return
	}
	_, _ = systemd.Reloading()
	defer func() { _, _ = systemd.Ready() }()

	fields := append([]logx.Field{logx.String("changed", strings.Join(sections, ","))}, attrs...)
	a.log.Info("config reloaded", fields...)

	for _, s := range sections {
		switch s {
		case config.SectionLogging:
			a.logs.Apply(mapLoggingConfig(next))
		case config.SectionSchedule:
			if err := sched.Apply(schedulerConfig(next)); err != nil {
				a.log.Warn("schedule change rejected", logx.Err(err))
			}
		case config.SectionLedger, config.SectionStatus:
			a.log.Warn("config change needs a restart to take effect", logx.String("section", s))
		}
	}

	comp, err := buildComponents(next, a.store, a.log)
	if err != nil {
		a.log.Error("rebuild after reload failed; keeping previous components", logx.Err(err))
		return
	}
	a.comp.Store(comp)
	a.cfg.Store(next)
}

// Close releases the ledger and flushes logs.
func (a *App) Close() error {
	err := a.store.Close()
	if cerr := a.logs.Close(); err == nil {
		err = cerr
	}
	return err
}
