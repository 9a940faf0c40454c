package arxiv

import (
	"encoding/xml"
	"errors"
	"regexp"
	"strings"
	"time"

	"arxivdigest/internal/paper"
)

// Atom feed structures for the arXiv API.

type atomFeed struct {
	XMLName xml.Name    `xml:"feed"`
	Entries []atomEntry `xml:"entry"`
}

type atomEntry struct {
	ID         string         `xml:"id"`
	Title      string         `xml:"title"`
	Summary    string         `xml:"summary"`
	Authors    []atomAuthor   `xml:"author"`
	Categories []atomCategory `xml:"category"`
	Published  string         `xml:"published"`
	Updated    string         `xml:"updated"`
}

type atomAuthor struct {
	Name string `xml:"name"`
}

type atomCategory struct {
	Term string `xml:"term,attr"`
}

var (
	errNoEntry    = errors.New("paper not found")
	errAPIError   = errors.New("arxiv api rejected the id")
	reVersion     = regexp.MustCompile(`v\d+$`)
	reWhitespaces = regexp.MustCompile(`\s+`)
)

// isAPIError reports whether the entry is arXiv's in-feed error report
// (returned with HTTP 200 for malformed or unknown ids).
func (e atomEntry) isAPIError() bool {
	return strings.Contains(e.ID, "/api/errors")
}

// idFromEntry extracts the id from the entry URL
// (e.g. http://arxiv.org/abs/2301.00001v1 -> 2301.00001).
func idFromEntry(raw string) string {
	idx := strings.LastIndex(raw, "/abs/")
	if idx < 0 {
		return ""
	}
	return reVersion.ReplaceAllString(raw[idx+len("/abs/"):], "")
}

// collapse folds the hard line wraps arXiv puts into titles and abstracts.
func collapse(s string) string {
	return strings.TrimSpace(reWhitespaces.ReplaceAllString(s, " "))
}

// toRecord converts an entry into a validated record. want is the id that was
// requested; the feed may answer with a different one only if it is broken.
func (e atomEntry) toRecord(want string) (*paper.Record, error) {
	if e.isAPIError() {
		return nil, errAPIError
	}
	id := idFromEntry(e.ID)
	if id == "" {
		id = want
	}
	if id != want {
		return nil, errors.New("feed returned " + id + " for " + want)
	}

	rec := &paper.Record{
		ID:       id,
		Title:    collapse(e.Title),
		Abstract: collapse(e.Summary),
	}
	for _, a := range e.Authors {
		if n := strings.TrimSpace(a.Name); n != "" {
			rec.Authors = append(rec.Authors, n)
		}
	}
	for _, c := range e.Categories {
		if c.Term != "" {
			rec.Categories = append(rec.Categories, c.Term)
		}
	}

	var err error
	if rec.Published, err = time.Parse(time.RFC3339, strings.TrimSpace(e.Published)); err != nil {
		return nil, errors.New("bad published date: " + e.Published)
	}
	rec.Updated, _ = time.Parse(time.RFC3339, strings.TrimSpace(e.Updated))

	if err := rec.Validate(); err != nil {
		return nil, err
	}
	return rec, nil
}
