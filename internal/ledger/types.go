// Package ledger records which arXiv identifiers have already been summarized.
//
// Drivers:
//   - "json": a flat JSON array of ids (default; rewritten whole on each record)
//   - "sqlite": SQLite database file
//   - "redis": a Redis list (order) plus set (membership)
//
// Every driver keeps insertion order and treats Record as idempotent.
package ledger

import (
	"context"
	"time"
)

// Store is the persistence API the pipeline uses.
type Store interface {
	// Load returns the set of processed ids. A ledger that does not exist yet is empty.
	Load(ctx context.Context) (Set, error)
	// Record appends id unless it is already present.
	Record(ctx context.Context, id string) error
	// List returns processed ids in the order they were recorded.
	List(ctx context.Context) ([]string, error)
	Close() error
}

// Config configures the ledger.
type Config struct {
	Driver      string
	Path        string
	BusyTimeout time.Duration // sqlite only; 0 means default

	Redis RedisConfig
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	// Key prefixes the list and set keys. Defaults to "arxivdigest:processed".
	Key string
}

// Set is a set of processed ids.
type Set map[string]struct{}

func NewSet(ids ...string) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s[id]
	return ok
}

func (s Set) Add(id string) { s[id] = struct{}{} }
