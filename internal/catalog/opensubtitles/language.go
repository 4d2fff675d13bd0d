package opensubtitles

import (
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// LanguageName returns the English display name of an OpenSubtitles language
// code ("en" -> "English"). Unknown codes are returned unchanged.
func LanguageName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return ""
	}
	tag, err := language.Parse(code)
	if err != nil {
		return code
	}
	// Regional variants ("pt-BR", "en-US") would otherwise get names such
	// as "Brazilian Portuguese" that defeat prefix selection.
	base, _ := tag.Base()
	if name := display.English.Languages().Name(base); name != "" {
		return name
	}
	return code
}
