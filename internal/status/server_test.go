package status

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"arxivdigest/internal/pipeline"
	"arxivdigest/internal/runtime/supervisor"
	logx "arxivdigest/pkg/logx"
)

type fakeLister struct {
	ids []string
	err error
}

func (f fakeLister) List(context.Context) ([]string, error) { return f.ids, f.err }

func newTestServer(t *testing.T, l Lister) (*Server, string) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	root := t.TempDir()
	s := New("127.0.0.1:0", Source{
		Ledger:  l,
		DocPath: func(id string) string { return filepath.Join(root, id, id+".md") },
		LastReport: func() (pipeline.Report, bool) {
			return pipeline.Report{RunID: "run-1", Processed: 2}, true
		},
	}, logx.Nop())
	return s, root
}

func get(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t, fakeLister{})
	w := get(t, s, "/healthz")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Status  string          `json:"status"`
		LastRun pipeline.Report `json:"last_run"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Status != "ok" || body.LastRun.RunID != "run-1" || body.LastRun.Processed != 2 {
		t.Fatalf("body = %s", w.Body.String())
	}
}

func TestLedger(t *testing.T) {
	s, _ := newTestServer(t, fakeLister{ids: []string{"2301.01234", "2312.11805"}})
	w := get(t, s, "/ledger")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var body struct {
		Count int      `json:"count"`
		IDs   []string `json:"ids"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Count != 2 || len(body.IDs) != 2 || body.IDs[1] != "2312.11805" {
		t.Fatalf("body = %s", w.Body.String())
	}

	s, _ = newTestServer(t, fakeLister{err: errors.New("disk on fire")})
	if w := get(t, s, "/ledger"); w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
}

func TestPaper(t *testing.T) {
	s, root := newTestServer(t, fakeLister{})
	dir := filepath.Join(root, "2301.01234")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "2301.01234.md"), []byte("# Title\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		path string
		code int
	}{
		{"/papers/2301.01234", http.StatusOK},
		{"/papers/2301.01234.md", http.StatusOK},
		{"/papers/2312.11805", http.StatusNotFound},
		{"/papers/not-an-id", http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := get(t, s, tt.path)
			if w.Code != tt.code {
				t.Fatalf("status = %d, want %d", w.Code, tt.code)
			}
			if tt.code == http.StatusOK && w.Body.String() != "# Title\n" {
				t.Fatalf("body = %q", w.Body.String())
			}
		})
	}
}

func TestPprofAndGoroutines(t *testing.T) {
	gin.SetMode(gin.TestMode)
	s := New("127.0.0.1:0", Source{Ledger: fakeLister{}}, logx.Nop())
	if w := get(t, s, "/debug/pprof/cmdline"); w.Code != http.StatusNotFound {
		t.Fatalf("pprof disabled: status = %d, want 404", w.Code)
	}

	s = New("127.0.0.1:0", Source{
		Ledger: fakeLister{},
		Pprof:  true,
		Goroutines: func() []supervisor.GoroutineStats {
			return []supervisor.GoroutineStats{{Name: "status.http", Active: 1, Started: 1}}
		},
	}, logx.Nop())
	if w := get(t, s, "/debug/pprof/cmdline"); w.Code != http.StatusOK {
		t.Fatalf("pprof cmdline: status = %d", w.Code)
	}
	if w := get(t, s, "/debug/pprof/"); w.Code != http.StatusOK {
		t.Fatalf("pprof index: status = %d", w.Code)
	}

	w := get(t, s, "/healthz")
	var body struct {
		Goroutines []supervisor.GoroutineStats `json:"goroutines"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(body.Goroutines) != 1 || body.Goroutines[0].Name != "status.http" {
		t.Fatalf("body = %s", w.Body.String())
	}
}
