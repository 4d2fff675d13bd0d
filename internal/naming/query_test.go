package naming

import (
	"reflect"
	"strings"
	"testing"
)

func TestTokenize(t *testing.T) {
	tests := []struct {
		name        string
		input       string
		lettersOnly bool
		want        []string
	}{
		{name: "dots", input: "The.Show.S02E05", want: []string{"The", "Show", "S02E05"}},
		{name: "underscore splits", input: "my_show_name", want: []string{"my", "show", "name"}},
		{name: "drops single runes", input: "A.B.Movie.2.x", want: []string{"Movie"}},
		{name: "hyphen", input: "x264-GROUP", want: []string{"x264", "GROUP"}},
		{name: "unicode letters", input: "Am\u00e9lie.2001", want: []string{"Am\u00e9lie", "2001"}},
		{name: "decomposed accent", input: "Ame\u0301lie", want: []string{"Am\u00e9lie"}},
		{name: "letters only", input: "The.Show.S02E05.x264", lettersOnly: true, want: []string{"The", "Show"}},
		{name: "letters only ascii", input: "Am\u00e9lie", lettersOnly: true, want: []string{"Am", "lie"}},
		{name: "empty", input: ""},
		{name: "only separators", input: "._- ()[]"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.input, tt.lettersOnly)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("Tokenize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestFindPart(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantOK   bool
	}{
		{filename: "Movie.Part 2.mkv", want: "Part 2", wantOK: true},
		{filename: "Movie PART 12.mkv", want: "PART 12", wantOK: true},
		{filename: "movie part 3 part 4.mkv", want: "part 3", wantOK: true},
		{filename: "Movie.Part.2.mkv"},
		{filename: "Movie.Part2.mkv"},
	}
	for _, tt := range tests {
		got, ok := FindPart(tt.filename)
		if ok != tt.wantOK || got != tt.want {
			t.Fatalf("FindPart(%q) = %q, %v; want %q, %v", tt.filename, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestBuilderBuild(t *testing.T) {
	b := Builder{StopWords: NewStopWords("hdtv", "x264")}
	q := b.Build("The.Show.S02E05.HDTV.x264-GROUP.mp4", ".mp4", "Shows", false)
	if got := q.String(); got != "The Show S02E05 GROUP" {
		t.Fatalf("query = %q", got)
	}
}

func TestBuilderStopWordsCaseInsensitive(t *testing.T) {
	b := Builder{StopWords: NewStopWords(DefaultStopWords...)}
	q := b.Build("Movie.2019.BLURAY.web.dl.HEVC.mkv", ".mkv", "", false)
	if got := q.String(); got != "Movie 2019" {
		t.Fatalf("query = %q", got)
	}
}

func TestBuilderWholeTokensOnly(t *testing.T) {
	b := Builder{StopWords: NewStopWords("season")}
	q := b.Build("Seasoned.Chef.mkv", ".mkv", "", false)
	if got := q.String(); got != "Seasoned Chef" {
		t.Fatalf("query = %q", got)
	}
}

func TestBuilderAppendsPart(t *testing.T) {
	q := Builder{}.Build("Movie.Part 2.mkv", ".mkv", "", false)
	if !strings.HasSuffix(q.String(), "Part 2") {
		t.Fatalf("query %q does not end with part fragment", q.String())
	}
	if q.Part != "Part 2" {
		t.Fatalf("Part = %q", q.Part)
	}
}

func TestBuilderParentFolder(t *testing.T) {
	q := Builder{}.Build("S01E02.mkv", ".mkv", "Some Show", true)
	if got := q.String(); got != "Some Show S01E02" {
		t.Fatalf("query = %q", got)
	}
	q = Builder{}.Build("S01E02.mkv", ".mkv", "Some Show", false)
	if got := q.String(); got != "S01E02" {
		t.Fatalf("query without parent = %q", got)
	}
}

func TestBuilderStripsOnlyTrailingExtension(t *testing.T) {
	q := Builder{}.Build("Movie.mp4rip.2020.mp4", ".mp4", "", false)
	if got := q.String(); got != "Movie mp4rip 2020" {
		t.Fatalf("query = %q", got)
	}
}

func TestBuilderDegenerateInput(t *testing.T) {
	for _, name := range []string{"", ".mkv", "a.mkv", "...", "__"} {
		q := Builder{StopWords: NewStopWords(DefaultStopWords...)}.Build(name, ".mkv", "", false)
		if !q.Empty() {
			t.Fatalf("Build(%q) = %q, want empty", name, q.String())
		}
	}
}

func TestStopWordsWith(t *testing.T) {
	base := NewStopWords("hdtv")
	extended := base.With("Remux", " ")
	if base.Contains("remux") {
		t.Fatal("With mutated the receiver")
	}
	if !extended.Contains("REMUX") || !extended.Contains("hdtv") {
		t.Fatalf("unexpected words %v", extended.Words())
	}
	if extended.Len() != 2 {
		t.Fatalf("expected 2 words, got %d", extended.Len())
	}
}
