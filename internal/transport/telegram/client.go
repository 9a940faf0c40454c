// Package telegram implements the inbox and notifier over the Telegram Bot API.
package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
	tele "gopkg.in/telebot.v4"

	"arxivdigest/internal/failure"
	"arxivdigest/internal/transport"
	logx "arxivdigest/pkg/logx"
)

const (
	DefaultAPIURL    = "https://api.telegram.org"
	DefaultParseMode = "Markdown"

	// pollLimit is the most updates getUpdates returns in one call.
	pollLimit = 100
)

type Config struct {
	Token string
	// APIURL overrides the Bot API endpoint (self-hosted bot API, tests).
	APIURL    string
	Timeout   time.Duration
	ParseMode string
	// RatePerSec limits outgoing sends. Zero uses one message per second.
	RatePerSec float64
}

// Client polls getUpdates and sends status messages.
type Client struct {
	bot     *tele.Bot
	mode    tele.ParseMode
	limiter *rate.Limiter
	log     logx.Logger
}

func New(cfg Config, log logx.Logger) (*Client, error) {
	token := strings.TrimSpace(cfg.Token)
	if token == "" {
		return nil, errors.New("telegram token is empty")
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	apiURL := strings.TrimRight(strings.TrimSpace(cfg.APIURL), "/")
	if apiURL == "" {
		apiURL = DefaultAPIURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	perSec := cfg.RatePerSec
	if perSec <= 0 {
		perSec = 1
	}
	mode := strings.TrimSpace(cfg.ParseMode)
	switch strings.ToLower(mode) {
	case "":
		mode = DefaultParseMode
	case "none", "plain":
		mode = ""
	}

	// Offline skips getMe; nothing here needs the bot's own identity.
	b, err := tele.NewBot(tele.Settings{
		URL:     apiURL,
		Token:   token,
		Offline: true,
		Client:  &http.Client{Timeout: timeout},
	})
	if err != nil {
		return nil, err
	}
	return &Client{
		bot:     b,
		mode:    tele.ParseMode(mode),
		limiter: rate.NewLimiter(rate.Limit(perSec), 1),
		log:     log,
	}, nil
}

type updatesResponse struct {
	OK     bool     `json:"ok"`
	Result []update `json:"result"`
}

type update struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		Chat *struct {
			ID int64 `json:"id"`
		} `json:"chat"`
		Text string `json:"text"`
	} `json:"message"`
}

// Poll fetches pending updates without confirming them. Updates without a
// message, chat or text are dropped.
func (c *Client) Poll(ctx context.Context) ([]transport.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	raw, err := c.bot.Raw("getUpdates", map[string]any{
		"timeout":         0,
		"limit":           pollLimit,
		"allowed_updates": []string{"message"},
	})
	if err != nil {
		return nil, failure.Service("telegram getUpdates", err)
	}
	msgs, n, err := decodeUpdates(raw)
	if err != nil {
		return nil, err
	}
	// Updates are never confirmed, so a full page means newer messages are
	// hidden until Telegram expires the oldest ones (24h).
	if n >= pollLimit {
		c.log.Warn("getUpdates returned a full page; newer messages may be hidden", logx.Int("updates", n))
	}
	return msgs, nil
}

// decodeUpdates returns the usable messages and the raw update count.
func decodeUpdates(raw []byte) ([]transport.Message, int, error) {
	var resp updatesResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, 0, failure.Service("telegram getUpdates", fmt.Errorf("decode: %w", err))
	}
	if !resp.OK {
		return nil, 0, failure.Servicef("telegram getUpdates", "response not ok")
	}
	out := make([]transport.Message, 0, len(resp.Result))
	for _, u := range resp.Result {
		if u.Message == nil || u.Message.Chat == nil || strings.TrimSpace(u.Message.Text) == "" {
			continue
		}
		out = append(out, transport.Message{
			UpdateID: u.UpdateID,
			ChatID:   u.Message.Chat.ID,
			Text:     u.Message.Text,
		})
	}
	return out, len(resp.Result), nil
}

// Notify sends text to chatID. A message Telegram cannot parse in the
// configured mode is resent once as plain text; any other error is returned
// as is.
func (c *Client) Notify(ctx context.Context, chatID int64, text string) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	to := &tele.Chat{ID: chatID}
	_, err := c.bot.Send(to, text, &tele.SendOptions{ParseMode: c.mode, DisableWebPagePreview: true})
	if err == nil || c.mode == tele.ModeDefault || !isEntityParseError(err) {
		return err
	}
	c.log.Warn("formatted send failed, retrying as plain text", logx.Int64("chat_id", chatID), logx.Err(err))
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = c.bot.Send(to, text, &tele.SendOptions{DisableWebPagePreview: true})
	return err
}

// isEntityParseError reports a 400 "can't parse entities" rejection. telebot
// returns unknown API errors as formatted strings, so the text is checked too.
func isEntityParseError(err error) bool {
	var te *tele.Error
	if errors.As(err, &te) {
		return te.Code == http.StatusBadRequest && strings.Contains(strings.ToLower(te.Description), "can't parse entities")
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "can't parse entities") && strings.Contains(msg, "400")
}

var (
	_ transport.Inbox    = (*Client)(nil)
	_ transport.Notifier = (*Client)(nil)
)
