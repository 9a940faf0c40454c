package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	logx "arxivdigest/pkg/logx"
)

func TestParseScheduleVariants(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		raw      string
		kind     SpecKind
		source   string
		duration time.Duration
		str      string
	}{
		{name: "cron", raw: "*/15 * * * *", kind: SpecCron, source: "cron", str: "*/15 * * * *"},
		{name: "descriptor", raw: "@hourly", kind: SpecCron, source: "cron", str: "@hourly"},
		{name: "prefixed cron", raw: "cron:0 7 * * *", kind: SpecCron, source: "cron", str: "0 7 * * *"},
		{name: "duration", raw: "20m", kind: SpecInterval, source: "duration", duration: 20 * time.Minute, str: "@every 20m0s"},
		{name: "prefixed interval", raw: "interval:45s", kind: SpecInterval, source: "duration", duration: 45 * time.Second},
		{name: "every prefix", raw: "every:00:30", kind: SpecInterval, source: "hhmm", duration: 30 * time.Minute},
		{name: "hhmm", raw: "01:30", kind: SpecInterval, source: "hhmm", duration: 90 * time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseSchedule(tt.raw)
			if err != nil {
				t.Fatalf("ParseSchedule(%q) error: %v", tt.raw, err)
			}
			if got.Kind != tt.kind {
				t.Fatalf("Kind = %v, want %v", got.Kind, tt.kind)
			}
			if got.Source != tt.source {
				t.Fatalf("Source = %s, want %s", got.Source, tt.source)
			}
			if tt.kind == SpecInterval && got.Every != tt.duration {
				t.Fatalf("Every = %v, want %v", got.Every, tt.duration)
			}
			if tt.str != "" && got.String() != tt.str {
				t.Fatalf("String() = %q, want %q", got.String(), tt.str)
			}
			if _, err := got.Schedule(); err != nil {
				t.Fatalf("Schedule(): %v", err)
			}
		})
	}
}

func TestParseScheduleInvalid(t *testing.T) {
	t.Parallel()
	for _, raw := range []string{"", "not-a-schedule", "0s", "00:75", "cron:", "61 * * * *"} {
		if _, err := ParseSchedule(raw); err == nil {
			t.Fatalf("ParseSchedule(%q): expected error", raw)
		}
	}
}

func TestSchedulerRunsJob(t *testing.T) {
	t.Parallel()
	var runs atomic.Int32
	done := make(chan struct{}, 1)
	s := New(func(context.Context) {
		if runs.Add(1) == 1 {
			done <- struct{}{}
		}
	}, logx.Nop())

	if err := s.Start(context.Background(), Config{Spec: "@every 1s"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())
	if s.Next().IsZero() {
		t.Fatal("Next is zero after Start")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("job did not run")
	}
}

func TestSchedulerApplyRejectsInvalid(t *testing.T) {
	t.Parallel()
	s := New(func(context.Context) {}, logx.Nop())
	if err := s.Apply(Config{Spec: "1h"}); err == nil {
		t.Fatal("Apply before Start should fail")
	}
	if err := s.Start(context.Background(), Config{Spec: "1h"}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop(context.Background())
	next := s.Next()

	if err := s.Apply(Config{Spec: "bogus"}); err == nil {
		t.Fatal("expected error for invalid spec")
	}
	if err := s.Apply(Config{Spec: "1h", Timezone: "Mars/Olympus"}); err == nil {
		t.Fatal("expected error for invalid timezone")
	}
	if !s.Next().Equal(next) {
		t.Fatal("invalid Apply changed the schedule")
	}
	if err := s.Apply(Config{Spec: "30m"}); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !s.Next().Before(next) {
		t.Fatalf("Next = %v, want before %v", s.Next(), next)
	}
}
