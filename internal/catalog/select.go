package catalog

import "strings"

// Select returns the first candidate whose language name starts with prefix,
// ignoring case. The catalog's ordering is trusted as-is.
func Select(candidates []Candidate, prefix string) (Candidate, bool) {
	prefix = strings.ToLower(prefix)
	for _, c := range candidates {
		if strings.HasPrefix(strings.ToLower(c.LanguageName), prefix) {
			return c, true
		}
	}
	return Candidate{}, false
}
