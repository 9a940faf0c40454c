// Package arxiv fetches paper metadata from the arXiv query API.
package arxiv

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"arxivdigest/internal/failure"
	"arxivdigest/internal/paper"
	logx "arxivdigest/pkg/logx"
)

const DefaultBaseURL = "https://export.arxiv.org/api/query"

// arXiv asks API clients to wait 3 seconds between calls.
const DefaultMinInterval = 3 * time.Second

// maxFeedBytes caps how much of a response we read; a single-entry feed is a few KB.
const maxFeedBytes = 4 << 20

type Config struct {
	BaseURL     string
	Timeout     time.Duration
	MinInterval time.Duration
}

type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) *Client {
	if log.IsZero() {
		log = logx.Nop()
	}
	base := strings.TrimSpace(cfg.BaseURL)
	if base == "" {
		base = DefaultBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	lim := rate.NewLimiter(rate.Inf, 1)
	if cfg.MinInterval > 0 {
		lim = rate.NewLimiter(rate.Every(cfg.MinInterval), 1)
	}
	return &Client{
		baseURL: base,
		http:    &http.Client{Timeout: timeout},
		limiter: lim,
		log:     log,
	}
}

// Fetch retrieves one paper's metadata.
//
// Errors are failure.NotFound when arXiv has no such paper and
// failure.Service for transport, status or decoding problems.
func (c *Client) Fetch(ctx context.Context, id string) (*paper.Record, error) {
	op := "fetch " + id
	if !paper.ValidID(id) {
		return nil, failure.NotFound(op, fmt.Errorf("invalid arXiv id %q", id))
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, failure.Service(op, err)
	}

	q := url.Values{}
	q.Set("id_list", id)
	q.Set("max_results", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, failure.Service(op, err)
	}
	req.Header.Set("Accept", "application/atom+xml")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, failure.Service(op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, failure.Servicef(op, "http %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxFeedBytes))
	if err != nil {
		return nil, failure.Service(op, err)
	}

	var feed atomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, failure.Service(op, fmt.Errorf("parse xml: %w", err))
	}
	if len(feed.Entries) == 0 {
		return nil, failure.NotFound(op, fmt.Errorf("%w: %s", errNoEntry, id))
	}

	rec, err := feed.Entries[0].toRecord(id)
	if err != nil {
		if errors.Is(err, errAPIError) {
			return nil, failure.NotFound(op, fmt.Errorf("%w: %s", errNoEntry, id))
		}
		// An entry without a title is how arXiv answers well-formed ids that
		// do not exist yet.
		if strings.TrimSpace(feed.Entries[0].Title) == "" {
			return nil, failure.NotFound(op, fmt.Errorf("%w: %s", errNoEntry, id))
		}
		return nil, failure.Service(op, fmt.Errorf("malformed entry: %w", err))
	}

	c.log.Debug("paper fetched",
		logx.String("id", rec.ID),
		logx.Int("authors", len(rec.Authors)),
		logx.Duration("took", time.Since(start)),
	)
	return rec, nil
}
