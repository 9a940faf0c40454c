// Package status exposes a small read-only HTTP view of the service:
// liveness with the last pass report, the ledger contents and stored summaries.
package status

import (
	"context"
	"errors"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"arxivdigest/internal/paper"
	"arxivdigest/internal/pipeline"
	"arxivdigest/internal/runtime/supervisor"
	logx "arxivdigest/pkg/logx"
)

// Lister returns the ordered ledger contents.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Source provides what the handlers read.
type Source struct {
	Ledger Lister
	// DocPath maps a paper id to its stored document.
	DocPath func(id string) string
	// LastReport returns the most recent pass, if any.
	LastReport func() (pipeline.Report, bool)
	// Goroutines reports the service's supervised goroutines.
	Goroutines func() []supervisor.GoroutineStats
	// Pprof mounts net/http/pprof under /debug/pprof/.
	Pprof bool
}

type Server struct {
	src     Source
	log     logx.Logger
	started time.Time
	engine  *gin.Engine
	http    *http.Server
}

func New(addr string, src Source, log logx.Logger) *Server {
	if log.IsZero() {
		log = logx.Nop()
	}
	s := &Server{src: src, log: log.With(logx.String("comp", "status")), started: time.Now()}
	s.engine = s.routes()
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.accessLog())
	r.GET("/healthz", s.healthz)
	r.GET("/ledger", s.ledger)
	r.GET("/papers/:id", s.paper)
	if s.src.Pprof {
		mountPprof(r)
	}
	return r
}

func (s *Server) accessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.log.Debug("http request",
			logx.String("method", c.Request.Method),
			logx.String("path", c.Request.URL.Path),
			logx.Int("status", c.Writer.Status()),
			logx.Duration("took", time.Since(start)),
		)
	}
}

func (s *Server) healthz(c *gin.Context) {
	body := gin.H{
		"status": "ok",
		"uptime": time.Since(s.started).Round(time.Second).String(),
	}
	if s.src.LastReport != nil {
		if rep, ok := s.src.LastReport(); ok {
			body["last_run"] = rep
		}
	}
	if s.src.Goroutines != nil {
		body["goroutines"] = s.src.Goroutines()
	}
	c.JSON(http.StatusOK, body)
}

func (s *Server) ledger(c *gin.Context) {
	ids, err := s.src.Ledger.List(c.Request.Context())
	if err != nil {
		s.log.Error("ledger list failed", logx.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "ledger unavailable"})
		return
	}
	if ids == nil {
		ids = []string{}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(ids), "ids": ids})
}

func (s *Server) paper(c *gin.Context) {
	id := strings.TrimSuffix(c.Param("id"), ".md")
	if !paper.ValidID(id) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid arXiv id"})
		return
	}
	b, err := os.ReadFile(s.src.DocPath(id))
	if errors.Is(err, os.ErrNotExist) {
		c.JSON(http.StatusNotFound, gin.H{"error": "summary not found"})
		return
	}
	if err != nil {
		s.log.Error("read summary failed", logx.String("id", id), logx.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "read failed"})
		return
	}
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", b)
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.log.Info("status server listening", logx.String("addr", s.http.Addr))
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(sctx)
	}
}
