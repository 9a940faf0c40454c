package config

import (
	"hash/fnv"
	"reflect"
	"strings"

	logx "arxivdigest/pkg/logx"
)

// Section names reported by SummarizeConfigChange.
const (
	SectionTelegram   = "telegram"
	SectionSummarizer = "summarizer"
	SectionArxiv      = "arxiv"
	SectionLedger     = "ledger"
	SectionPublish    = "publish"
	SectionLogging    = "logging"
	SectionSchedule   = "schedule"
	SectionStatus     = "status"
)

// SummarizeConfigChange returns the changed sections and safe structured
// attrs for logging. Secrets are reported only as "set" flags.
func SummarizeConfigChange(oldCfg, newCfg *Config) ([]string, []logx.Field) {
	if oldCfg == nil {
		oldCfg = &Config{}
	}
	if newCfg == nil {
		newCfg = &Config{}
	}

	changed := make([]string, 0, 8)
	attrs := make([]logx.Field, 0, 16)

	if !reflect.DeepEqual(oldCfg.Telegram, newCfg.Telegram) {
		changed = append(changed, SectionTelegram)
		attrs = append(attrs,
			logx.String("telegram.chat_id", newCfg.Telegram.ChatID),
			logx.Bool("telegram.token_changed", oldCfg.Telegram.Token != newCfg.Telegram.Token),
			logx.String("telegram.parse_mode", newCfg.Telegram.ParseMode),
		)
	}
	if !reflect.DeepEqual(oldCfg.Summarizer, newCfg.Summarizer) {
		changed = append(changed, SectionSummarizer)
		attrs = append(attrs,
			logx.String("summarizer.provider", newCfg.Summarizer.Provider),
			logx.String("summarizer.model", newCfg.Summarizer.Model),
			logx.Bool("summarizer.key_set", strings.TrimSpace(newCfg.Summarizer.APIKey) != ""),
		)
	}
	if oldCfg.Arxiv != newCfg.Arxiv {
		changed = append(changed, SectionArxiv)
		attrs = append(attrs, logx.String("arxiv.min_interval", newCfg.Arxiv.MinInterval))
	}
	if oldCfg.Ledger != newCfg.Ledger {
		changed = append(changed, SectionLedger)
		attrs = append(attrs, logx.String("ledger.driver", newCfg.Ledger.Driver), logx.String("ledger.path", newCfg.Ledger.Path))
	}
	if oldCfg.Publish != newCfg.Publish {
		changed = append(changed, SectionPublish)
		attrs = append(attrs, logx.String("publish.root", newCfg.Publish.Root), logx.Bool("publish.s3", newCfg.Publish.S3.Enabled))
	}
	if !reflect.DeepEqual(oldCfg.Logging, newCfg.Logging) {
		changed = append(changed, SectionLogging)
		attrs = append(attrs, logx.String("logging.level", newCfg.Logging.Level))
	}
	if oldCfg.Serve.Schedule != newCfg.Serve.Schedule || oldCfg.Serve.Timezone != newCfg.Serve.Timezone {
		changed = append(changed, SectionSchedule)
		attrs = append(attrs, logx.String("serve.schedule", newCfg.Serve.Schedule), logx.String("serve.timezone", newCfg.Serve.Timezone))
	}
	if oldCfg.Serve.Status != newCfg.Serve.Status {
		changed = append(changed, SectionStatus)
		attrs = append(attrs, logx.Bool("status.enabled", newCfg.Serve.Status.Enabled), logx.String("status.addr", newCfg.Serve.Status.Addr), logx.Bool("status.pprof", newCfg.Serve.Status.Pprof))
	}
	return changed, attrs
}

func hashBytes(b []byte) uint64 {
	h := fnv.New64a()
	_, _ = h.Write(b)
	return h.Sum64()
}
