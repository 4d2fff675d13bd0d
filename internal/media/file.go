package media

import (
	"path/filepath"
	"strings"
)

// File is a discovered filesystem entry.
type File struct {
	Path string
	Name string
}

// NewFile builds a File from a path. Relative paths are resolved against the
// working directory; resolution failures keep the cleaned input.
func NewFile(path string) File {
	cleaned := filepath.Clean(path)
	if abs, err := filepath.Abs(cleaned); err == nil {
		cleaned = abs
	}
	return File{Path: cleaned, Name: filepath.Base(cleaned)}
}

// Extension returns the name suffix starting at the last dot, or "" when the
// name has no dot.
func (f File) Extension() string {
	return Extension(f.Name)
}

// Stem returns the name without its extension suffix.
func (f File) Stem() string {
	return strings.TrimSuffix(f.Name, f.Extension())
}

// Dir returns the containing directory.
func (f File) Dir() string {
	return filepath.Dir(f.Path)
}

// ParentName returns the name of the containing directory.
func (f File) ParentName() string {
	return filepath.Base(f.Dir())
}

// SubtitlePath returns the sibling path with the extension suffix replaced by
// subtitleExt.
func (f File) SubtitlePath(subtitleExt string) string {
	return filepath.Join(f.Dir(), f.Stem()+subtitleExt)
}

// Extension returns the substring of name starting at the last dot.
func Extension(name string) string {
	idx := strings.LastIndex(name, ".")
	if idx < 0 {
		return ""
	}
	return name[idx:]
}
