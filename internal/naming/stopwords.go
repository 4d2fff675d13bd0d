package naming

import (
	"sort"
	"strings"
)

// DefaultStopWords are release, source, and structural tokens that bias a
// text search away from the title.
var DefaultStopWords = []string{
	"AC", "HD", "season", "episode", "WEB", "DL", "HDCLUB", "BDrip", "multisub",
	"BluRay", "molpol", "HEVC", "anoXmous", "sujaidr", "DVDScr", "xvid", "HQ", "CM",
}

// StopWords is an immutable, case-insensitive word set.
type StopWords struct {
	words map[string]struct{}
}

// NewStopWords builds a set from words. Blank entries are ignored.
func NewStopWords(words ...string) StopWords {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return StopWords{words: set}
}

// With returns a new set holding the receiver's words plus extra.
func (s StopWords) With(extra ...string) StopWords {
	merged := make([]string, 0, len(s.words)+len(extra))
	for w := range s.words {
		merged = append(merged, w)
	}
	merged = append(merged, extra...)
	return NewStopWords(merged...)
}

// Contains reports whether token matches a stop word, ignoring case.
func (s StopWords) Contains(token string) bool {
	if len(s.words) == 0 {
		return false
	}
	_, ok := s.words[strings.ToLower(token)]
	return ok
}

// Filter returns the tokens that are not stop words, in their original order.
func (s StopWords) Filter(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" || s.Contains(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// Len returns the number of words.
func (s StopWords) Len() int {
	return len(s.words)
}

// Words returns the lower-cased words, sorted.
func (s StopWords) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
