package ledger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	logx "arxivdigest/pkg/logx"
)

// jsonStore keeps the ledger as a JSON array of strings, e.g.
//
//	["2301.01234","2312.11805"]
//
// The file is read on every call and rewritten whole (temp file + rename) on
// Record, so external edits between passes are picked up.
type jsonStore struct {
	path string
	log  logx.Logger

	mu sync.Mutex
}

func openJSON(cfg Config, log logx.Logger) (Store, error) {
	path := strings.TrimSpace(cfg.Path)
	if path == "" {
		path = DefaultPath
	}
	s := &jsonStore{path: path, log: log}

	// Fail fast on a corrupt ledger rather than silently starting over.
	if _, err := s.read(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *jsonStore) read() ([]string, error) {
	b, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(b, &ids); err != nil {
		return nil, fmt.Errorf("ledger %s: %w", s.path, err)
	}
	return ids, nil
}

func (s *jsonStore) write(ids []string) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if ids == nil {
		ids = []string{}
	}
	b, err := json.Marshal(ids)
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return err
	}
	return nil
}

func (s *jsonStore) Load(_ context.Context) (Set, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.read()
	if err != nil {
		return nil, err
	}
	return NewSet(ids...), nil
}

func (s *jsonStore) List(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.read()
	if err != nil {
		return nil, err
	}
	return append([]string{}, ids...), nil
}

func (s *jsonStore) Record(_ context.Context, id string) error {
	id = strings.TrimSpace(id)
	if id == "" {
		return errors.New("empty id")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	ids, err := s.read()
	if err != nil {
		return err
	}
	for _, have := range ids {
		if have == id {
			return nil
		}
	}
	if err := s.write(append(ids, id)); err != nil {
		return err
	}
	s.log.Debug("ledger updated", logx.String("id", id), logx.Int("size", len(ids)+1))
	return nil
}

func (s *jsonStore) Close() error { return nil }
