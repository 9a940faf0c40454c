package app

import (
	"arxivdigest/internal/arxiv"
	"arxivdigest/internal/config"
	"arxivdigest/internal/ledger"
	"arxivdigest/internal/pipeline"
	"arxivdigest/internal/publish"
	"arxivdigest/internal/summarize"
	"arxivdigest/internal/transport/telegram"
	logx "arxivdigest/pkg/logx"
)

func mapLoggingConfig(cfg *config.Config) logx.Config {
	console := true
	if cfg.Logging.Console != nil {
		console = *cfg.Logging.Console
	}
	return logx.Config{
		Level:   cfg.Logging.Level,
		Console: console,
		File: logx.FileConfig{
			Enabled: cfg.Logging.File.Enabled,
			Path:    cfg.Logging.File.Path,
		},
	}
}

func mapLedgerConfig(cfg *config.Config) (ledger.Config, error) {
	busy, err := config.ParseDurationField("ledger.busy_timeout", cfg.Ledger.BusyTimeout)
	if err != nil {
		return ledger.Config{}, err
	}
	return ledger.Config{
		Driver:      cfg.Ledger.Driver,
		Path:        cfg.Ledger.Path,
		BusyTimeout: busy,
		Redis: ledger.RedisConfig{
			Addr:     cfg.Ledger.Redis.Addr,
			Password: cfg.Ledger.Redis.Password,
			DB:       cfg.Ledger.Redis.DB,
			Key:      cfg.Ledger.Redis.Key,
		},
	}, nil
}

// components is everything a pass needs apart from the ledger, which lives
// for the whole process.
type components struct {
	pipeline  *pipeline.Pipeline
	publisher *publish.Publisher
}

func buildComponents(cfg *config.Config, store ledger.Store, log logx.Logger) (*components, error) {
	chatID, err := cfg.Telegram.ParsedChatID()
	if err != nil {
		return nil, err
	}

	tgTimeout, err := config.ParseDurationField("telegram.timeout", cfg.Telegram.Timeout)
	if err != nil {
		return nil, err
	}
	tg, err := telegram.New(telegram.Config{
		Token:      cfg.Telegram.Token,
		APIURL:     cfg.Telegram.APIURL,
		Timeout:    tgTimeout,
		ParseMode:  cfg.Telegram.ParseMode,
		RatePerSec: cfg.Telegram.RatePerSec,
	}, log.With(logx.String("comp", "telegram")))
	if err != nil {
		return nil, err
	}

	axTimeout, err := config.ParseDurationField("arxiv.timeout", cfg.Arxiv.Timeout)
	if err != nil {
		return nil, err
	}
	axInterval, err := config.ParseDurationOrDefault("arxiv.min_interval", cfg.Arxiv.MinInterval, arxiv.DefaultMinInterval)
	if err != nil {
		return nil, err
	}
	fetcher := arxiv.New(arxiv.Config{
		BaseURL:     cfg.Arxiv.BaseURL,
		Timeout:     axTimeout,
		MinInterval: axInterval,
	}, log.With(logx.String("comp", "arxiv")))

	genTimeout, err := config.ParseDurationField("summarizer.timeout", cfg.Summarizer.Timeout)
	if err != nil {
		return nil, err
	}
	provider, err := summarize.NewProvider(summarize.Config{
		Provider:  cfg.Summarizer.Provider,
		APIKey:    cfg.Summarizer.APIKey,
		Model:     cfg.Summarizer.Model,
		BaseURL:   cfg.Summarizer.BaseURL,
		MaxTokens: cfg.Summarizer.MaxTokens,
		Timeout:   genTimeout,
	})
	if err != nil {
		return nil, err
	}
	summarizer := summarize.New(provider, log.With(logx.String("comp", "summarizer")))

	var mirror publish.Mirror
	if s3 := cfg.Publish.S3; s3.Enabled {
		s3Timeout, err := config.ParseDurationField("publish.s3.timeout", s3.Timeout)
		if err != nil {
			return nil, err
		}
		m, err := publish.NewS3Mirror(publish.S3Config{
			Bucket:          s3.Bucket,
			Region:          s3.Region,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			Prefix:          s3.Prefix,
			PathStyle:       s3.PathStyle,
			Timeout:         s3Timeout,
		})
		if err != nil {
			return nil, err
		}
		mirror = m
	}
	pub := publish.New(publish.Config{
		Root:         cfg.Publish.Root,
		LinkTemplate: cfg.Publish.LinkTemplate,
	}, mirror, log.With(logx.String("comp", "publish")))

	p, err := pipeline.New(pipeline.Deps{
		Inbox:     tg,
		Notifier:  tg,
		Fetcher:   fetcher,
		Summarize: summarizer,
		Publisher: pub,
		Ledger:    store,
	}, chatID, log)
	if err != nil {
		return nil, err
	}
	return &components{pipeline: p, publisher: pub}, nil
}
