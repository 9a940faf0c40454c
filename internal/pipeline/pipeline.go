// Package pipeline runs one pass over the inbox: every message from the
// configured chat that names a new arXiv paper is fetched, summarized,
// published, recorded in the ledger and reported back to the chat.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"arxivdigest/internal/document"
	"arxivdigest/internal/failure"
	"arxivdigest/internal/ledger"
	"arxivdigest/internal/paper"
	"arxivdigest/internal/publish"
	"arxivdigest/internal/transport"
	logx "arxivdigest/pkg/logx"
)

type Fetcher interface {
	Fetch(ctx context.Context, id string) (*paper.Record, error)
}

type Summarizer interface {
	Summarize(ctx context.Context, rec *paper.Record) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, id string, doc []byte) (publish.Location, error)
}

// Ledger is the part of ledger.Store the pipeline needs.
type Ledger interface {
	Load(ctx context.Context) (ledger.Set, error)
	Record(ctx context.Context, id string) error
}

type Deps struct {
	Inbox     transport.Inbox
	Notifier  transport.Notifier
	Fetcher   Fetcher
	Summarize Summarizer
	Publisher Publisher
	Ledger    Ledger
}

type Pipeline struct {
	deps   Deps
	chatID int64
	now    func() time.Time
	log    logx.Logger
}

type Option func(*Pipeline)

// WithClock replaces time.Now for the generation date footer.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func New(deps Deps, chatID int64, log logx.Logger, opts ...Option) (*Pipeline, error) {
	switch {
	case deps.Inbox == nil:
		return nil, errors.New("pipeline: inbox is nil")
	case deps.Notifier == nil:
		return nil, errors.New("pipeline: notifier is nil")
	case deps.Fetcher == nil:
		return nil, errors.New("pipeline: fetcher is nil")
	case deps.Summarize == nil:
		return nil, errors.New("pipeline: summarizer is nil")
	case deps.Publisher == nil:
		return nil, errors.New("pipeline: publisher is nil")
	case deps.Ledger == nil:
		return nil, errors.New("pipeline: ledger is nil")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	p := &Pipeline{
		deps:   deps,
		chatID: chatID,
		now:    time.Now,
		log:    log.With(logx.String("comp", "pipeline")),
	}
	for _, o := range opts {
		o(p)
	}
	return p, nil
}

// Run performs a single pass. It returns an error only when the pass could
// not start (inbox or ledger unavailable) or ctx was cancelled; failures of
// individual papers are reported to the chat and counted in the report.
func (p *Pipeline) Run(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString(), Started: p.now()}
	log := p.log.With(logx.String("run_id", rep.RunID))

	msgs, err := p.deps.Inbox.Poll(ctx)
	if err != nil {
		return rep.finish(p.now()), fmt.Errorf("poll inbox: %w", err)
	}
	done, err := p.deps.Ledger.Load(ctx)
	if err != nil {
		return rep.finish(p.now()), fmt.Errorf("load ledger: %w", err)
	}
	log.Debug("pass started", logx.Int("messages", len(msgs)), logx.Int("ledger", len(done)))

	for _, msg := range msgs {
		if err := ctx.Err(); err != nil {
			return rep.finish(p.now()), err
		}
		rep.Seen++
		res := p.handle(ctx, log, msg, done)
		rep.add(res)
	}

	rep = rep.finish(p.now())
	if rep.Processed > 0 || rep.Failed > 0 {
		log.Info("pass finished",
			logx.Int("seen", rep.Seen),
			logx.Int("processed", rep.Processed),
			logx.Int("failed", rep.Failed),
			logx.Int("duplicates", rep.Duplicates),
			logx.Duration("took", rep.Finished.Sub(rep.Started)),
		)
	}
	return rep, nil
}

func (p *Pipeline) handle(ctx context.Context, log logx.Logger, msg transport.Message, done ledger.Set) Result {
	res := Result{UpdateID: msg.UpdateID, State: StateReceived}

	if msg.ChatID != p.chatID {
		res.State = StateSkipped
		return res
	}
	id, ok := paper.ExtractID(msg.Text)
	if !ok {
		res.State = StateSkipped
		return res
	}
	res.ID = id
	res.State = StateFiltered

	if done.Has(id) {
		log.Debug("already processed", logx.String("id", id))
		res.State = StateDuplicate
		return res
	}
	res.State = StateDeduped

	log = log.With(logx.String("id", id))
	log.Info("processing paper")
	p.notify(ctx, log, msg.ChatID, startText(id))

	if err := p.process(ctx, &res); err != nil {
		res.State = StateFailed
		res.Err = err
		log.Error("paper failed", logx.String("kind", string(failure.KindOf(err))), logx.Err(err))
		p.notify(ctx, log, msg.ChatID, failureText(id, err))
		return res
	}

	done.Add(id)
	p.notify(ctx, log, msg.ChatID, successText(res.Title, res.Link))
	res.State = StateNotified
	return res
}

// process runs the fetch → summarize → publish → record chain, advancing
// res.State after each step.
func (p *Pipeline) process(ctx context.Context, res *Result) error {
	rec, err := p.deps.Fetcher.Fetch(ctx, res.ID)
	if err != nil {
		return err
	}
	res.Title = rec.Title
	res.State = StateFetched

	body, err := p.deps.Summarize.Summarize(ctx, rec)
	if err != nil {
		return err
	}
	res.State = StateSummarized

	doc := document.Render(rec, body, p.now())
	loc, err := p.deps.Publisher.Publish(ctx, res.ID, []byte(doc))
	if err != nil {
		return err
	}
	res.Path, res.Link = loc.Path, loc.Link
	res.State = StatePersisted

	if err := p.deps.Ledger.Record(ctx, res.ID); err != nil {
		return failure.IO("record "+res.ID, err)
	}
	return nil
}

// notify is fire-and-forget.
func (p *Pipeline) notify(ctx context.Context, log logx.Logger, chatID int64, text string) {
	if err := p.deps.Notifier.Notify(ctx, chatID, text); err != nil {
		log.Warn("notification failed", logx.Err(err))
	}
}
