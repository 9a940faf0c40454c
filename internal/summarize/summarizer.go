// Package summarize turns paper metadata into a generated markdown summary
// using one of the configured text generation providers.
package summarize

import (
	"context"
	"errors"
	"strings"
	"time"

	"arxivdigest/internal/failure"
	"arxivdigest/internal/paper"
	logx "arxivdigest/pkg/logx"
)

// Provider submits a prompt to a text generation service.
type Provider interface {
	Name() string
	Generate(ctx context.Context, system, prompt string) (string, error)
}

type Summarizer struct {
	provider Provider
	log      logx.Logger
}

func New(p Provider, log logx.Logger) *Summarizer {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Summarizer{provider: p, log: log}
}

// Summarize returns the generated summary body for rec.
// Every failure is reported as failure.Generation.
func (s *Summarizer) Summarize(ctx context.Context, rec *paper.Record) (string, error) {
	op := "summarize " + rec.ID
	start := time.Now()

	out, err := s.provider.Generate(ctx, systemPrompt, BuildPrompt(rec))
	if err != nil {
		return "", failure.Generation(op, err)
	}
	out = cleanResponse(out)
	if out == "" {
		return "", failure.Generation(op, errors.New("empty response from "+s.provider.Name()))
	}

	s.log.Debug("summary generated",
		logx.String("id", rec.ID),
		logx.String("provider", s.provider.Name()),
		logx.Int("chars", len(out)),
		logx.Duration("took", time.Since(start)),
	)
	return out, nil
}

// cleanResponse strips a fenced markdown wrapper some models put around the whole answer.
func cleanResponse(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") && strings.HasSuffix(content, "```") && len(content) >= 6 {
		inner := strings.TrimSuffix(content, "```")
		if nl := strings.IndexByte(inner, '\n'); nl >= 0 {
			inner = inner[nl+1:]
		} else {
			inner = strings.TrimPrefix(inner, "```")
		}
		content = strings.TrimSpace(inner)
	}
	return content
}
