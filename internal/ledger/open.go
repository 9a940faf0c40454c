package ledger

import (
	"errors"
	"strings"

	logx "arxivdigest/pkg/logx"
)

// DefaultPath is where the json driver keeps its file when no path is configured.
const DefaultPath = "scripts/.processed_papers.json"

// Open initializes the configured store. An empty driver means "json".
func Open(cfg Config, log logx.Logger) (Store, error) {
	driver := strings.ToLower(strings.TrimSpace(cfg.Driver))
	if log.IsZero() {
		log = logx.Nop()
	}

	switch driver {
	case "", "json", "file":
		return openJSON(cfg, log)
	case "sqlite", "sqlite3":
		return openSQLite(cfg, log)
	case "redis":
		return openRedis(cfg, log)
	default:
		return nil, errors.New("unknown ledger driver: " + driver)
	}
}
