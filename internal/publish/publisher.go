// Package publish stores rendered summary documents as <root>/<id>/<id>.md,
// optionally mirroring them to object storage.
package publish

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"arxivdigest/internal/failure"
	"arxivdigest/internal/paper"
	logx "arxivdigest/pkg/logx"
)

// DefaultLinkTemplate points at the document in the summaries repository.
const DefaultLinkTemplate = "https://github.com/meet-minimalist/Paper-Summaries/blob/main/{id}/{id}.md"

// Mirror uploads a copy of a document and returns where it landed.
type Mirror interface {
	Put(ctx context.Context, key string, body []byte) (string, error)
}

type Config struct {
	// Root is the directory that holds one sub-directory per paper.
	Root string
	// LinkTemplate builds the public link; "{id}" is replaced by the paper id.
	LinkTemplate string
}

// Location describes where a document was written.
type Location struct {
	Path   string
	Link   string
	Mirror string
}

type Publisher struct {
	root   string
	link   string
	mirror Mirror
	log    logx.Logger
}

// New returns a publisher. mirror may be nil.
func New(cfg Config, mirror Mirror, log logx.Logger) *Publisher {
	if log.IsZero() {
		log = logx.Nop()
	}
	root := strings.TrimSpace(cfg.Root)
	if root == "" {
		root = "."
	}
	link := strings.TrimSpace(cfg.LinkTemplate)
	if link == "" {
		link = DefaultLinkTemplate
	}
	return &Publisher{root: root, link: link, mirror: mirror, log: log}
}

// RelPath is the document path relative to the root (and the mirror key).
func RelPath(id string) string {
	return id + "/" + id + ".md"
}

// Path returns the local file path for id.
func (p *Publisher) Path(id string) string {
	return filepath.Join(p.root, id, id+".md")
}

// Link returns the public link for id.
func (p *Publisher) Link(id string) string {
	return strings.ReplaceAll(p.link, "{id}", id)
}

// Publish writes doc for id, replacing any previous version.
// Failures are reported as failure.IO.
func (p *Publisher) Publish(ctx context.Context, id string, doc []byte) (Location, error) {
	op := "publish " + id
	if !paper.ValidID(id) {
		return Location{}, failure.IO(op, fmt.Errorf("refusing to write invalid id %q", id))
	}

	path := p.Path(id)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return Location{}, failure.IO(op, err)
	}
	if err := os.WriteFile(path, doc, 0o644); err != nil {
		return Location{}, failure.IO(op, err)
	}
	loc := Location{Path: path, Link: p.Link(id)}

	if p.mirror != nil {
		where, err := p.mirror.Put(ctx, RelPath(id), doc)
		if err != nil {
			return loc, failure.IO(op+" (mirror)", err)
		}
		loc.Mirror = where
	}

	p.log.Info("summary saved", logx.String("id", id), logx.String("path", path), logx.String("mirror", loc.Mirror))
	return loc, nil
}
