package app

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"arxivdigest/internal/config"
)

const feed = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <entry>
    <id>http://arxiv.org/abs/2301.01234v1</id>
    <published>2023-01-03T17:59:59Z</published>
    <updated>2023-01-03T17:59:59Z</updated>
    <title>Attention Is Still All You Need</title>
    <summary>We revisit attention.</summary>
    <author><name>Ada Lovelace</name></author>
    <category term="cs.LG"/>
  </entry>
</feed>`

// fakeUpstreams serves the Telegram Bot API, the arXiv API and an
// OpenAI-compatible completions endpoint from one server.
type fakeUpstreams struct {
	mu    sync.Mutex
	sends []string
}

func (f *fakeUpstreams) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	switch {
	case strings.HasSuffix(r.URL.Path, "/getUpdates"):
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":[
			{"update_id":10,"message":{"message_id":1,"date":0,"chat":{"id":42,"type":"private"},"text":"https://arxiv.org/abs/2301.01234"}},
			{"update_id":11,"message":{"message_id":2,"date":0,"chat":{"id":99,"type":"private"},"text":"2312.11805"}}
		]}`)
	case strings.HasSuffix(r.URL.Path, "/sendMessage"):
		var params map[string]any
		_ = json.NewDecoder(r.Body).Decode(&params)
		f.mu.Lock()
		f.sends = append(f.sends, params["text"].(string))
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"ok":true,"result":{"message_id":5,"date":0,"chat":{"id":42,"type":"private"},"text":"ok"}}`)
	case r.URL.Path == "/arxiv":
		w.Header().Set("Content-Type", "application/atom+xml")
		_, _ = io.WriteString(w, feed)
	case strings.HasSuffix(r.URL.Path, "/chat/completions"):
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"c1","object":"chat.completion","created":1700000000,"model":"m",
			"choices":[{"index":0,"finish_reason":"stop","message":{"role":"assistant","content":"## 1. Core Contribution\n\nAttention again."}}]}`)
	default:
		http.NotFound(w, r)
	}
}

func newTestApp(t *testing.T) (*App, *fakeUpstreams, string) {
	t.Helper()
	up := &fakeUpstreams{}
	srv := httptest.NewServer(up)
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	body := `
telegram:
  api_url: ` + srv.URL + `
arxiv:
  base_url: ` + srv.URL + `/arxiv
summarizer:
  provider: openai
  base_url: ` + srv.URL + `/v1/
ledger:
  path: ` + filepath.Join(dir, "scripts", ".processed_papers.json") + `
publish:
  root: ` + filepath.Join(dir, "summaries") + `
logging:
  level: error
`
	if err := os.WriteFile(cfgPath, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	env := map[string]string{
		config.EnvTelegramToken:  "123:abc",
		config.EnvTelegramChatID: "42",
		config.EnvOpenAIKey:      "sk-test",
	}
	m := config.NewManager(cfgPath, config.WithLookupEnv(func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}))
	a, err := New(m)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a, up, dir
}

func TestRunOnceEndToEnd(t *testing.T) {
	a, up, dir := newTestApp(t)

	rep, err := a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("RunOnce: %v", err)
	}
	if rep.Processed != 1 || rep.Skipped != 1 || rep.Failed != 0 {
		t.Fatalf("report = %+v", rep)
	}
	if last, ok := a.LastReport(); !ok || last.RunID != rep.RunID {
		t.Fatalf("LastReport = %+v, %v", last, ok)
	}

	doc, err := os.ReadFile(filepath.Join(dir, "summaries", "2301.01234", "2301.01234.md"))
	if err != nil {
		t.Fatalf("summary not written: %v", err)
	}
	if !strings.HasPrefix(string(doc), "# Attention Is Still All You Need\n") ||
		!strings.Contains(string(doc), "**Published:** January 03, 2023") ||
		!strings.Contains(string(doc), "## 5. Conclusion & Impact") {
		t.Fatalf("unexpected document:\n%s", doc)
	}

	var ids []string
	b, err := os.ReadFile(filepath.Join(dir, "scripts", ".processed_papers.json"))
	if err != nil {
		t.Fatalf("ledger not written: %v", err)
	}
	if err := json.Unmarshal(b, &ids); err != nil || len(ids) != 1 || ids[0] != "2301.01234" {
		t.Fatalf("ledger = %s (%v)", b, err)
	}

	up.mu.Lock()
	sends := append([]string(nil), up.sends...)
	up.mu.Unlock()
	if len(sends) != 2 || !strings.HasPrefix(sends[0], "📥 Processing paper...") ||
		!strings.Contains(sends[1], "https://github.com/meet-minimalist/Paper-Summaries/blob/main/2301.01234/2301.01234.md") {
		t.Fatalf("notifications = %q", sends)
	}

	// Same inbox again: nothing new to do.
	rep, err = a.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("second RunOnce: %v", err)
	}
	up.mu.Lock()
	n := len(up.sends)
	up.mu.Unlock()
	if rep.Processed != 0 || rep.Duplicates != 1 || n != 2 {
		t.Fatalf("second pass report = %+v, sends = %d", rep, n)
	}
}

func TestRunOnceRejectsOverlap(t *testing.T) {
	a, _, _ := newTestApp(t)
	a.passMu.Lock()
	defer a.passMu.Unlock()
	if _, err := a.RunOnce(context.Background()); !errors.Is(err, ErrPassRunning) {
		t.Fatalf("RunOnce error = %v, want ErrPassRunning", err)
	}
}

func TestNewFailsFastOnMissingConfig(t *testing.T) {
	m := config.NewManager("", config.WithLookupEnv(func(string) (string, bool) { return "", false }))
	_, err := New(m)
	var missing *config.MissingError
	if !errors.As(err, &missing) {
		t.Fatalf("New error = %v, want MissingError", err)
	}
}
