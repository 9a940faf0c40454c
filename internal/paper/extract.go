package paper

import "regexp"

// Patterns are tried in order; URL forms win over the bare identifier so a
// message like "see 1234.5678 and arxiv.org/abs/2301.01234" picks the link.
// The bare form can match unrelated numbers (e.g. "1999.12345 USD").
var idPatterns = []*regexp.Regexp{
	regexp.MustCompile(`arxiv\.org/abs/(\d{4}\.\d{4,5})`),
	regexp.MustCompile(`arxiv\.org/pdf/(\d{4}\.\d{4,5})`),
	regexp.MustCompile(`(\d{4}\.\d{4,5})`),
}

var reID = regexp.MustCompile(`^\d{4}\.\d{4,5}$`)

// ExtractID returns the first arXiv identifier found in text.
func ExtractID(text string) (string, bool) {
	for _, re := range idPatterns {
		if m := re.FindStringSubmatch(text); len(m) == 2 {
			return m[1], true
		}
	}
	return "", false
}

// ValidID reports whether id is a new-style arXiv identifier (YYMM.NNNNN).
func ValidID(id string) bool {
	return reID.MatchString(id)
}
