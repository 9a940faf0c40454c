package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/joho/godotenv"
)

const (
	EnvTelegramToken  = "TELEGRAM_BOT_TOKEN"
	EnvTelegramChatID = "TELEGRAM_CHAT_ID"
	EnvGeminiKey      = "GEMINI_API_KEY"
	EnvOpenAIKey      = "OPENAI_API_KEY"
	EnvAnthropicKey   = "ANTHROPIC_API_KEY"
	EnvProvider       = "SUMMARIZER_PROVIDER"
	EnvRedisPassword  = "REDIS_PASSWORD"
	EnvAWSAccessKey   = "AWS_ACCESS_KEY_ID"
	EnvAWSSecretKey   = "AWS_SECRET_ACCESS_KEY"
)

// LookupEnv matches os.LookupEnv.
type LookupEnv func(key string) (string, bool)

// LoadDotEnv loads KEY=VALUE files into the process environment without
// overriding variables that are already set. Missing files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if err := godotenv.Load(p); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

// APIKeyEnv names the variable holding the key for provider.
func APIKeyEnv(provider string) string {
	switch normalizeProvider(provider) {
	case "openai":
		return EnvOpenAIKey
	case "anthropic":
		return EnvAnthropicKey
	default:
		return EnvGeminiKey
	}
}

// applyEnv overlays secrets and ids from the environment. A set, non-empty
// variable wins over the file value.
func applyEnv(cfg *Config, lookup LookupEnv) {
	get := func(key string) (string, bool) {
		v, ok := lookup(key)
		v = strings.TrimSpace(v)
		return v, ok && v != ""
	}

	if v, ok := get(EnvTelegramToken); ok {
		cfg.Telegram.Token = v
	}
	if v, ok := get(EnvTelegramChatID); ok {
		cfg.Telegram.ChatID = v
	}
	if v, ok := get(EnvProvider); ok {
		cfg.Summarizer.Provider = v
	}
	if v, ok := get(APIKeyEnv(cfg.Summarizer.Provider)); ok {
		cfg.Summarizer.APIKey = v
	}
	if v, ok := get(EnvRedisPassword); ok && cfg.Ledger.Redis.Password == "" {
		cfg.Ledger.Redis.Password = v
	}
	if v, ok := get(EnvAWSAccessKey); ok && cfg.Publish.S3.AccessKeyID == "" {
		cfg.Publish.S3.AccessKeyID = v
	}
	if v, ok := get(EnvAWSSecretKey); ok && cfg.Publish.S3.SecretAccessKey == "" {
		cfg.Publish.S3.SecretAccessKey = v
	}
}
