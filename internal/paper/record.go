package paper

import (
	"errors"
	"strings"
	"time"
)

// Record is an arXiv paper's metadata as fetched for one run.
type Record struct {
	// ID is the arXiv identifier without version suffix (e.g. "2301.01234").
	ID string

	Title string

	// Authors in the order arXiv lists them.
	Authors []string

	Abstract string

	// Published is when the first version was submitted.
	Published time.Time

	// Updated is when the latest version was submitted.
	Updated time.Time

	// Categories, primary first (e.g. "cs.CL", "cs.AI").
	Categories []string
}

// Validate checks the fields the summary document relies on.
func (r *Record) Validate() error {
	if r == nil {
		return errors.New("nil record")
	}
	if !ValidID(r.ID) {
		return errors.New("invalid arXiv id: " + r.ID)
	}
	if strings.TrimSpace(r.Title) == "" {
		return errors.New("missing title")
	}
	return nil
}

// AuthorList returns the authors joined with ", ".
func (r *Record) AuthorList() string {
	return strings.Join(r.Authors, ", ")
}

// PrimaryCategory returns the primary (first) category.
func (r *Record) PrimaryCategory() string {
	if len(r.Categories) == 0 {
		return ""
	}
	return r.Categories[0]
}

// AbstractURL returns the arXiv abstract page URL.
func (r *Record) AbstractURL() string {
	return AbstractURL(r.ID)
}

// PDFURL returns the arXiv PDF download URL.
func (r *Record) PDFURL() string {
	return "https://arxiv.org/pdf/" + r.ID
}

func AbstractURL(id string) string {
	return "https://arxiv.org/abs/" + id
}
