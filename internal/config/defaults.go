package config

import "strings"

const (
	DefaultLedgerPath   = "scripts/.processed_papers.json"
	DefaultSQLitePath   = "scripts/processed_papers.db"
	DefaultSchedule     = "30m"
	DefaultStatusAddr   = "127.0.0.1:8089"
	DefaultLogLevel     = "info"
	DefaultSummaryRoot  = "."
	defaultProviderName = "gemini"
)

var (
	knownProviders = []string{"gemini", "openai", "anthropic"}
	knownDrivers   = []string{"json", "sqlite", "redis"}
)

func normalizeProvider(raw string) string {
	p := strings.ToLower(strings.TrimSpace(raw))
	if p == "" {
		return defaultProviderName
	}
	return p
}

func normalizeDriver(raw string) string {
	d := strings.ToLower(strings.TrimSpace(raw))
	switch d {
	case "", "file":
		return "json"
	case "sqlite3":
		return "sqlite"
	}
	return d
}

// applyDefaults fills the zero values that have a sensible default.
func applyDefaults(cfg *Config) {
	cfg.Summarizer.Provider = normalizeProvider(cfg.Summarizer.Provider)

	cfg.Ledger.Driver = normalizeDriver(cfg.Ledger.Driver)
	if strings.TrimSpace(cfg.Ledger.Path) == "" {
		switch cfg.Ledger.Driver {
		case "json":
			cfg.Ledger.Path = DefaultLedgerPath
		case "sqlite":
			cfg.Ledger.Path = DefaultSQLitePath
		}
	}

	if strings.TrimSpace(cfg.Publish.Root) == "" {
		cfg.Publish.Root = DefaultSummaryRoot
	}

	if strings.TrimSpace(cfg.Logging.Level) == "" {
		cfg.Logging.Level = DefaultLogLevel
	}
	if cfg.Logging.Console == nil {
		on := true
		cfg.Logging.Console = &on
	}

	if strings.TrimSpace(cfg.Serve.Schedule) == "" {
		cfg.Serve.Schedule = DefaultSchedule
	}
	if cfg.Serve.RunOnStart == nil {
		on := true
		cfg.Serve.RunOnStart = &on
	}
	if cfg.Serve.Status.Enabled && strings.TrimSpace(cfg.Serve.Status.Addr) == "" {
		cfg.Serve.Status.Addr = DefaultStatusAddr
	}
}
