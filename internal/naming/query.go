package naming

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

var partRe = regexp.MustCompile(`(?i)part \d+`)

// Query is a cleaned search query. Tokens never contain empty strings or stop
// words and keep their order of appearance.
type Query struct {
	Tokens []string
	// Part is the "part N" fragment found in the filename, before stop-word
	// filtering. Empty when absent.
	Part string
}

// String joins the tokens with single spaces.
func (q Query) String() string {
	return strings.Join(q.Tokens, " ")
}

// Empty reports whether the query has no tokens.
func (q Query) Empty() bool {
	return len(q.Tokens) == 0
}

// Builder derives search queries from filenames. The zero value builds
// queries without stop-word filtering.
type Builder struct {
	StopWords StopWords
	// LettersOnly restricts tokens to ASCII letters, matching the token class
	// of earlier releases. Digits then act as separators.
	LettersOnly bool
}

// Build derives the query for filename. extension is removed as a trailing
// suffix only, so an extension string repeated inside the stem survives.
func (b Builder) Build(filename, extension, parentName string, useParentFolder bool) Query {
	name := filename
	if extension != "" {
		name = strings.TrimSuffix(name, extension)
	}
	if useParentFolder {
		name = parentName + " " + name
	}

	tokens := Tokenize(name, b.LettersOnly)
	part, hasPart := FindPart(filename)
	if hasPart {
		tokens = append(tokens, strings.Fields(part)...)
	}
	return Query{
		Tokens: b.StopWords.Filter(tokens),
		Part:   part,
	}
}

// Tokenize extracts maximal runs of letters and digits from s, dropping runs
// of a single rune. Underscores, punctuation, and whitespace separate tokens.
// With lettersOnly, only ASCII letters form tokens.
//
// Input is normalized to NFC first so decomposed accents (common in macOS
// filenames) stay inside their token.
func Tokenize(s string, lettersOnly bool) []string {
	s = norm.NFC.String(s)
	isTokenRune := isAlnum
	if lettersOnly {
		isTokenRune = isASCIILetter
	}

	var tokens []string
	start := -1
	for i, r := range s {
		if isTokenRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			tokens = appendToken(tokens, s[start:i])
			start = -1
		}
	}
	if start >= 0 {
		tokens = appendToken(tokens, s[start:])
	}
	return tokens
}

func appendToken(tokens []string, tok string) []string {
	if utf8.RuneCountInString(tok) <= 1 {
		return tokens
	}
	return append(tokens, tok)
}

func isAlnum(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}

func isASCIILetter(r rune) bool {
	return ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z')
}

// FindPart returns the first case-insensitive "part N" fragment in filename,
// verbatim.
func FindPart(filename string) (string, bool) {
	loc := partRe.FindStringIndex(filename)
	if loc == nil {
		return "", false
	}
	return filename[loc[0]:loc[1]], true
}
