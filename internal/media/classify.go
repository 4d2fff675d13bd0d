package media

import (
	"sort"
	"strings"
)

// Kind is the classification of a filename.
type Kind int

const (
	Unrecognized Kind = iota
	Video
	Skippable
)

func (k Kind) String() string {
	switch k {
	case Video:
		return "video"
	case Skippable:
		return "skippable"
	default:
		return "unrecognized"
	}
}

// DefaultVideoExtensions lists the extensions treated as subtitle targets.
var DefaultVideoExtensions = []string{".mp4", ".avi", ".mkv", ".m4v"}

// DefaultSkipExtensions lists byproducts that are skipped without a diagnostic.
var DefaultSkipExtensions = []string{
	".wmv", ".png", ".mov", ".srt", ".txt", ".jpg", ".jpeg", ".DS_Store", ".gz",
	".dat", ".zip", ".nfo", ".db", ".m2ts", ".sub", ".rar", ".idx", ".sfv",
}

// ExtensionSet is an immutable, case-sensitive set of extensions. Every
// member carries a leading dot.
type ExtensionSet struct {
	members map[string]struct{}
}

// NewExtensionSet builds a set, adding a leading dot where missing. Case is
// preserved.
func NewExtensionSet(exts ...string) ExtensionSet {
	members := make(map[string]struct{}, len(exts))
	for _, ext := range exts {
		ext = strings.TrimSpace(ext)
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		members[ext] = struct{}{}
	}
	return ExtensionSet{members: members}
}

// Contains reports whether ext is a member.
func (s ExtensionSet) Contains(ext string) bool {
	_, ok := s.members[ext]
	return ok
}

// Len returns the number of members.
func (s ExtensionSet) Len() int {
	return len(s.members)
}

// Members returns the sorted members.
func (s ExtensionSet) Members() []string {
	out := make([]string, 0, len(s.members))
	for ext := range s.members {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// Classifier decides whether a filename is a subtitle target.
type Classifier struct {
	Video ExtensionSet
	Skip  ExtensionSet
}

// DefaultClassifier returns a classifier over the default extension sets.
func DefaultClassifier() Classifier {
	return Classifier{
		Video: NewExtensionSet(DefaultVideoExtensions...),
		Skip:  NewExtensionSet(DefaultSkipExtensions...),
	}
}

// Classify returns the kind of filename along with the extension it was
// judged on. The skip set wins over the video set.
func (c Classifier) Classify(filename string) (Kind, string) {
	ext := Extension(filename)
	if ext == "" {
		return Unrecognized, ""
	}
	if c.Skip.Contains(ext) {
		return Skippable, ext
	}
	if c.Video.Contains(ext) {
		return Video, ext
	}
	return Unrecognized, ext
}
