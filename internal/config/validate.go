package config

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"arxivdigest/internal/scheduler"
)

// MissingError lists every required value that is absent.
type MissingError struct {
	Names []string
}

func (e *MissingError) Error() string {
	return "missing required configuration: " + strings.Join(e.Names, ", ")
}

// Validate checks a config that already went through env overlay and
// defaults. All problems are reported together.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errors.New("config is nil")
	}

	var missing []string
	if strings.TrimSpace(cfg.Telegram.Token) == "" {
		missing = append(missing, EnvTelegramToken)
	}
	if strings.TrimSpace(cfg.Telegram.ChatID) == "" {
		missing = append(missing, EnvTelegramChatID)
	}
	if strings.TrimSpace(cfg.Summarizer.APIKey) == "" {
		missing = append(missing, APIKeyEnv(cfg.Summarizer.Provider))
	}

	var errs []error
	if len(missing) > 0 {
		errs = append(errs, &MissingError{Names: missing})
	}
	if strings.TrimSpace(cfg.Telegram.ChatID) != "" {
		if _, err := cfg.Telegram.ParsedChatID(); err != nil {
			errs = append(errs, err)
		}
	}
	if p := normalizeProvider(cfg.Summarizer.Provider); !slices.Contains(knownProviders, p) {
		errs = append(errs, fmt.Errorf("summarizer.provider: unknown provider %q (want one of %s)", p, strings.Join(knownProviders, ", ")))
	}
	if cfg.Summarizer.MaxTokens < 0 {
		errs = append(errs, errors.New("summarizer.max_tokens must be >= 0"))
	}
	if d := normalizeDriver(cfg.Ledger.Driver); !slices.Contains(knownDrivers, d) {
		errs = append(errs, fmt.Errorf("ledger.driver: unknown driver %q (want one of %s)", d, strings.Join(knownDrivers, ", ")))
	} else if d == "redis" && strings.TrimSpace(cfg.Ledger.Redis.Addr) == "" {
		errs = append(errs, errors.New("ledger.redis.addr is required for the redis driver"))
	}
	if s3 := cfg.Publish.S3; s3.Enabled && (strings.TrimSpace(s3.Bucket) == "" || strings.TrimSpace(s3.Region) == "") {
		errs = append(errs, errors.New("publish.s3: bucket and region are required when enabled"))
	}
	if lt := cfg.Publish.LinkTemplate; lt != "" && !strings.Contains(lt, "{id}") {
		errs = append(errs, fmt.Errorf("publish.link_template: %q has no {id} placeholder", lt))
	}
	if cfg.Telegram.RatePerSec < 0 {
		errs = append(errs, errors.New("telegram.rate_per_sec must be >= 0"))
	}

	durations := []struct{ path, raw string }{
		{"telegram.timeout", cfg.Telegram.Timeout},
		{"summarizer.timeout", cfg.Summarizer.Timeout},
		{"arxiv.timeout", cfg.Arxiv.Timeout},
		{"arxiv.min_interval", cfg.Arxiv.MinInterval},
		{"ledger.busy_timeout", cfg.Ledger.BusyTimeout},
		{"publish.s3.timeout", cfg.Publish.S3.Timeout},
	}
	for _, d := range durations {
		if _, err := ParseDurationField(d.path, d.raw); err != nil {
			errs = append(errs, err)
		}
	}

	if s := strings.TrimSpace(cfg.Serve.Schedule); s != "" {
		if _, err := scheduler.ParseSchedule(s); err != nil {
			errs = append(errs, fmt.Errorf("serve.schedule: %w", err))
		}
	}
	if tz := strings.TrimSpace(cfg.Serve.Timezone); tz != "" {
		if _, err := time.LoadLocation(tz); err != nil {
			errs = append(errs, fmt.Errorf("serve.timezone: %w", err))
		}
	}

	return errors.Join(errs...)
}
