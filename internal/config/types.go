package config

import (
	"fmt"
	"strconv"
	"strings"
)

// Config is the file form of the service configuration. Secrets are normally
// left out of the file and supplied through the environment (see applyEnv).
//
// All durations are Go duration strings (e.g. "3s", "2m").
type Config struct {
	Telegram   TelegramConfig   `json:"telegram"`
	Summarizer SummarizerConfig `json:"summarizer"`
	Arxiv      ArxivConfig      `json:"arxiv"`
	Ledger     LedgerConfig     `json:"ledger"`
	Publish    PublishConfig    `json:"publish"`
	Logging    LoggingConfig    `json:"logging"`
	Serve      ServeConfig      `json:"serve"`
}

type TelegramConfig struct {
	Token string `json:"token,omitempty"`
	// ChatID is the only chat whose messages are processed. Kept as a string
	// so it can come from TELEGRAM_CHAT_ID unchanged.
	ChatID     string  `json:"chat_id,omitempty"`
	APIURL     string  `json:"api_url,omitempty"`
	Timeout    string  `json:"timeout,omitempty"`
	ParseMode  string  `json:"parse_mode,omitempty"`
	RatePerSec float64 `json:"rate_per_sec,omitempty"`
}

// ParsedChatID returns the chat id as an integer.
func (t TelegramConfig) ParsedChatID() (int64, error) {
	s := strings.TrimSpace(t.ChatID)
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram.chat_id: %q is not an integer chat id", t.ChatID)
	}
	return id, nil
}

type SummarizerConfig struct {
	// Provider is one of gemini (default), openai, anthropic.
	Provider  string `json:"provider,omitempty"`
	APIKey    string `json:"api_key,omitempty"`
	Model     string `json:"model,omitempty"`
	BaseURL   string `json:"base_url,omitempty"`
	MaxTokens int    `json:"max_tokens,omitempty"`
	Timeout   string `json:"timeout,omitempty"`
}

type ArxivConfig struct {
	BaseURL     string `json:"base_url,omitempty"`
	Timeout     string `json:"timeout,omitempty"`
	MinInterval string `json:"min_interval,omitempty"`
}

type LedgerConfig struct {
	// Driver is json (default), sqlite or redis.
	Driver      string      `json:"driver,omitempty"`
	Path        string      `json:"path,omitempty"`
	BusyTimeout string      `json:"busy_timeout,omitempty"`
	Redis       RedisConfig `json:"redis,omitempty"`
}

type RedisConfig struct {
	Addr     string `json:"addr,omitempty"`
	Password string `json:"password,omitempty"`
	DB       int    `json:"db,omitempty"`
	Key      string `json:"key,omitempty"`
}

type PublishConfig struct {
	// Root is the directory that receives <id>/<id>.md.
	Root         string   `json:"root,omitempty"`
	LinkTemplate string   `json:"link_template,omitempty"`
	S3           S3Config `json:"s3,omitempty"`
}

type S3Config struct {
	Enabled         bool   `json:"enabled,omitempty"`
	Bucket          string `json:"bucket,omitempty"`
	Region          string `json:"region,omitempty"`
	Endpoint        string `json:"endpoint,omitempty"`
	AccessKeyID     string `json:"access_key_id,omitempty"`
	SecretAccessKey string `json:"secret_access_key,omitempty"`
	Prefix          string `json:"prefix,omitempty"`
	PathStyle       bool   `json:"path_style,omitempty"`
	Timeout         string `json:"timeout,omitempty"`
}

type LoggingConfig struct {
	Level   string            `json:"level,omitempty"`
	Console *bool             `json:"console,omitempty"`
	File    LoggingFileConfig `json:"file,omitempty"`
}

type LoggingFileConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Path    string `json:"path,omitempty"`
}

// ServeConfig only matters for the serve command.
type ServeConfig struct {
	// Schedule accepts a cron expression ("*/15 * * * *"), a descriptor
	// ("@hourly") or an interval ("20m", or HH:MM like "00:30").
	Schedule   string       `json:"schedule,omitempty"`
	Timezone   string       `json:"timezone,omitempty"`
	RunOnStart *bool        `json:"run_on_start,omitempty"`
	Status     StatusConfig `json:"status,omitempty"`
}

type StatusConfig struct {
	Enabled bool   `json:"enabled,omitempty"`
	Addr    string `json:"addr,omitempty"`
	// Pprof exposes /debug/pprof/ on the same listener. Keep Addr on loopback.
	Pprof bool `json:"pprof,omitempty"`
}
