package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	logx "arxivdigest/pkg/logx"
)

func envMap(kv map[string]string) LookupEnv {
	return func(key string) (string, bool) {
		v, ok := kv[key]
		return v, ok
	}
}

var fullEnv = map[string]string{
	EnvTelegramToken:  "123:abc",
	EnvTelegramChatID: "-1001234",
	EnvGeminiKey:      "g-key",
}

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadEnvOnlyAppliesDefaults(t *testing.T) {
	t.Parallel()
	cfg, err := NewManager("", WithLookupEnv(envMap(fullEnv))).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Summarizer.Provider != "gemini" || cfg.Summarizer.APIKey != "g-key" {
		t.Fatalf("summarizer = %+v", cfg.Summarizer)
	}
	if cfg.Ledger.Driver != "json" || cfg.Ledger.Path != DefaultLedgerPath {
		t.Fatalf("ledger = %+v", cfg.Ledger)
	}
	if cfg.Serve.Schedule != DefaultSchedule || !*cfg.Serve.RunOnStart || !*cfg.Logging.Console {
		t.Fatalf("serve = %+v", cfg.Serve)
	}
	id, err := cfg.Telegram.ParsedChatID()
	if err != nil || id != -1001234 {
		t.Fatalf("ParsedChatID = %d, %v", id, err)
	}
}

func TestLoadReportsEveryMissingValue(t *testing.T) {
	t.Parallel()
	_, err := NewManager("", WithLookupEnv(envMap(nil))).Load()
	var missing *MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("error = %v, want MissingError", err)
	}
	want := []string{EnvTelegramToken, EnvTelegramChatID, EnvGeminiKey}
	if !slices.Equal(missing.Names, want) {
		t.Fatalf("missing = %v, want %v", missing.Names, want)
	}
}

func TestProviderSelectsKeyVariable(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", "summarizer:\n  provider: anthropic\n")
	_, err := NewManager(path, WithLookupEnv(envMap(fullEnv))).Load()
	if err == nil || !strings.Contains(err.Error(), EnvAnthropicKey) {
		t.Fatalf("error = %v, want mention of %s", err, EnvAnthropicKey)
	}

	env := map[string]string{EnvAnthropicKey: "a-key"}
	for k, v := range fullEnv {
		env[k] = v
	}
	cfg, err := NewManager(path, WithLookupEnv(envMap(env))).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Summarizer.APIKey != "a-key" {
		t.Fatalf("APIKey = %q", cfg.Summarizer.APIKey)
	}
}

func TestYAMLFileWithEnvOverride(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", `
telegram:
  token: from-file
  chat_id: "42"
ledger:
  driver: sqlite3
publish:
  root: summaries
  link_template: https://example.org/{id}.md
serve:
  schedule: "*/15 * * * *"
  status:
    enabled: true
`)
	cfg, err := NewManager(path, WithLookupEnv(envMap(fullEnv))).Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Telegram.Token != "123:abc" || cfg.Telegram.ChatID != "-1001234" {
		t.Fatalf("env did not override file: %+v", cfg.Telegram)
	}
	if cfg.Ledger.Driver != "sqlite" || cfg.Ledger.Path != DefaultSQLitePath {
		t.Fatalf("ledger = %+v", cfg.Ledger)
	}
	if cfg.Publish.Root != "summaries" || cfg.Serve.Status.Addr != DefaultStatusAddr {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestStrictDecoding(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name, file, body string
	}{
		{"unknown yaml field", "c.yaml", "telegram:\n  tokn: x\n"},
		{"unknown json field", "c.json", `{"ledgr":{}}`},
		{"trailing json", "c.json", `{} {}`},
		{"bad yaml", "c.yml", "telegram: [\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.body)
			if _, err := NewManager(path, WithLookupEnv(envMap(fullEnv))).Parse(); err == nil {
				t.Fatal("expected decode error")
			}
		})
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		mut  func(*Config)
		want string
	}{
		{"chat id", func(c *Config) { c.Telegram.ChatID = "@channel" }, "telegram.chat_id"},
		{"provider", func(c *Config) { c.Summarizer.Provider = "llama" }, "summarizer.provider"},
		{"driver", func(c *Config) { c.Ledger.Driver = "etcd" }, "ledger.driver"},
		{"redis addr", func(c *Config) { c.Ledger.Driver = "redis" }, "ledger.redis.addr"},
		{"duration", func(c *Config) { c.Arxiv.MinInterval = "soon" }, "arxiv.min_interval"},
		{"schedule", func(c *Config) { c.Serve.Schedule = "whenever" }, "serve.schedule"},
		{"timezone", func(c *Config) { c.Serve.Timezone = "Mars/Olympus" }, "serve.timezone"},
		{"s3", func(c *Config) { c.Publish.S3.Enabled = true }, "publish.s3"},
		{"link", func(c *Config) { c.Publish.LinkTemplate = "https://example.org" }, "publish.link_template"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := NewManager("", WithLookupEnv(envMap(fullEnv))).Parse()
			if err != nil {
				t.Fatalf("Parse: %v", err)
			}
			tt.mut(cfg)
			err = Validate(cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("Validate error = %v, want mention of %q", err, tt.want)
			}
		})
	}
}

func TestParseDurationOrDefault(t *testing.T) {
	t.Parallel()
	d, err := ParseDurationOrDefault("x", "", 3*time.Second)
	if err != nil || d != 3*time.Second {
		t.Fatalf("empty: %v, %v", d, err)
	}
	d, err = ParseDurationOrDefault("x", "1m", 3*time.Second)
	if err != nil || d != time.Minute {
		t.Fatalf("1m: %v, %v", d, err)
	}
	if _, err := ParseDurationOrDefault("x", "-1s", 0); err == nil {
		t.Fatal("expected error for negative duration")
	}
}

func TestSummarizeConfigChange(t *testing.T) {
	t.Parallel()
	oldCfg := &Config{}
	newCfg := &Config{}
	newCfg.Serve.Schedule = "1h"
	newCfg.Summarizer.APIKey = "secret"
	changed, attrs := SummarizeConfigChange(oldCfg, newCfg)
	if !slices.Equal(changed, []string{SectionSummarizer, SectionSchedule}) {
		t.Fatalf("changed = %v", changed)
	}
	if len(attrs) == 0 {
		t.Fatal("expected attrs")
	}
	if changed, _ := SummarizeConfigChange(newCfg, newCfg); len(changed) != 0 {
		t.Fatalf("identical configs reported changes: %v", changed)
	}
}

func TestWatchPublishesValidChanges(t *testing.T) {
	t.Parallel()
	path := writeFile(t, "config.yaml", "serve:\n  schedule: 1h\n")
	m := NewManager(path, WithLookupEnv(envMap(fullEnv)))
	m.SetLogger(logx.Nop())
	if _, err := m.Load(); err != nil {
		t.Fatalf("Load: %v", err)
	}
	ch := m.Subscribe(1)
	defer m.Unsubscribe(ch)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Watch(ctx) }()
	time.Sleep(200 * time.Millisecond)

	// An invalid version is ignored.
	if err := os.WriteFile(path, []byte("serve:\n  schedule: whenever\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	time.Sleep(600 * time.Millisecond)
	if err := os.WriteFile(path, []byte("serve:\n  schedule: 20m\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-ch:
		if cfg.Serve.Schedule != "20m" {
			t.Fatalf("published schedule = %q", cfg.Serve.Schedule)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no config published")
	}
	if m.Get().Serve.Schedule != "20m" {
		t.Fatalf("Get().Serve.Schedule = %q", m.Get().Serve.Schedule)
	}
}
