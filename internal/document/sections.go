package document

import (
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Section is one of the fixed parts every summary covers.
type Section struct {
	Title string
	// Hint is what the prompt asks the section to contain.
	Hint string
	// key matches a heading case-insensitively, so "### 3. Results and ablations"
	// still counts as the results section.
	key string
}

// Sections lists the summary sections in prompt order.
var Sections = []Section{
	{Title: "Core Contribution", Hint: "Main innovation and key ideas", key: "contribution"},
	{Title: "Technical Approach", Hint: "Methodology, architecture, algorithms", key: "approach"},
	{Title: "Key Results & Ablations", Hint: "Experimental results and ablation studies", key: "results"},
	{Title: "Important Citations", Hint: "Related work and key references", key: "citation"},
	{Title: "Conclusion & Impact", Hint: "Significance and future directions", key: "impact"},
}

// Heading renders the markdown heading used for section i (0-based).
func (s Section) Heading(i int) string {
	return "## " + strconv.Itoa(i+1) + ". " + s.Title
}

const missingSectionNote = "_Not covered in the generated summary._"

var parser = goldmark.New().Parser()

// Headings returns the plain text of every heading in a markdown document.
func Headings(src string) []string {
	source := []byte(src)
	doc := parser.Parse(text.NewReader(source))

	var out []string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		if h, ok := n.(*ast.Heading); ok {
			out = append(out, strings.TrimSpace(inlineText(h, source)))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return out
}

func inlineText(n ast.Node, source []byte) string {
	var b strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch t := c.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(source))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		default:
			b.WriteString(inlineText(c, source))
		}
	}
	return b.String()
}

// MissingSections returns the sections that have no matching heading in body.
func MissingSections(body string) []int {
	heads := Headings(body)
	var missing []int
	for i, s := range Sections {
		found := false
		for _, h := range heads {
			if strings.Contains(strings.ToLower(h), s.key) {
				found = true
				break
			}
		}
		if !found {
			missing = append(missing, i)
		}
	}
	return missing
}

// EnsureSections appends a placeholder for every section the generated body
// left out, so the stored document always has the five headings.
func EnsureSections(body string) string {
	missing := MissingSections(body)
	if len(missing) == 0 {
		return body
	}
	var b strings.Builder
	b.WriteString(strings.TrimRight(body, "\n"))
	for _, i := range missing {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(Sections[i].Heading(i))
		b.WriteString("\n\n")
		b.WriteString(missingSectionNote)
	}
	return b.String()
}
