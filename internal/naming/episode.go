package naming

import "regexp"

var seasonEpisodeRe = regexp.MustCompile(`[sS](\d+)[eExX](\d+)`)

// SeasonEpisode identifies an episode by its digit strings, leading zeros
// included.
type SeasonEpisode struct {
	Season  string
	Episode string
}

// ExtractSeasonEpisode returns the first season/episode marker in filename.
// Only the leaf name should be passed; directory names are never scanned.
func ExtractSeasonEpisode(filename string) (SeasonEpisode, bool) {
	match := seasonEpisodeRe.FindStringSubmatch(filename)
	if match == nil {
		return SeasonEpisode{}, false
	}
	return SeasonEpisode{Season: match[1], Episode: match[2]}, true
}
