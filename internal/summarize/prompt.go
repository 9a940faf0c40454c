package summarize

import (
	"fmt"
	"strings"

	"arxivdigest/internal/document"
	"arxivdigest/internal/paper"
)

const systemPrompt = `You are a research assistant writing summaries of academic papers for engineers.
Write in Markdown. Use exactly the numbered "##" section headings you are given, in order.
Do not repeat the title or metadata; they are added separately.`

// BuildPrompt returns the user prompt asking for the five-section summary of rec.
func BuildPrompt(rec *paper.Record) string {
	var b strings.Builder
	b.WriteString("Generate a comprehensive academic paper summary with the following structure:\n\n")
	fmt.Fprintf(&b, "Title: %s\n", rec.Title)
	fmt.Fprintf(&b, "Authors: %s\n", rec.AuthorList())
	fmt.Fprintf(&b, "Published: %s\n", rec.Published.Format(document.PublishedLayout))
	fmt.Fprintf(&b, "arXiv ID: %s\n\n", rec.ID)
	b.WriteString("Abstract:\n")
	b.WriteString(rec.Abstract)
	b.WriteString("\n\nCreate a detailed summary covering:\n")
	for i, s := range document.Sections {
		fmt.Fprintf(&b, "%d. %s - %s\n", i+1, s.Title, s.Hint)
	}
	b.WriteString("\nUse these headings:\n")
	for i, s := range document.Sections {
		b.WriteString(s.Heading(i))
		b.WriteByte('\n')
	}
	b.WriteString("\nMake it comprehensive enough that someone doesn't need to read the full paper to understand its main ideas.")
	return b.String()
}
