// Package document renders the markdown summary file stored for each paper.
package document

import (
	"strings"
	"time"

	"arxivdigest/internal/paper"
)

// PublishedLayout is how publication dates appear in prompts and documents.
const PublishedLayout = "January 02, 2006"

// Render builds the summary document: fixed front matter, the generated body
// (with any missing section headings filled in) and a generation date footer.
func Render(rec *paper.Record, body string, now time.Time) string {
	var b strings.Builder

	b.WriteString("# ")
	b.WriteString(rec.Title)
	b.WriteString("\n\n**Authors:** ")
	b.WriteString(rec.AuthorList())
	b.WriteString("\n\n**arXiv ID:** ")
	b.WriteString(rec.ID)
	b.WriteString("\n\n**Published:** ")
	b.WriteString(rec.Published.Format(PublishedLayout))
	b.WriteString("\n\n**Link:** ")
	b.WriteString(rec.AbstractURL())
	b.WriteString("\n\n---\n\n")

	b.WriteString(strings.TrimSpace(EnsureSections(strings.TrimSpace(body))))

	b.WriteString("\n\n---\n\n*Summary generated on: ")
	b.WriteString(now.Format("2006-01-02"))
	b.WriteString("*\n")

	return b.String()
}
