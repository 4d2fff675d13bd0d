package opensubtitles

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"subfetch/internal/catalog"
)

// SearchBySignature looks up subtitles by the movie hash of the file at path.
func (c *Client) SearchBySignature(ctx context.Context, path, languageCode string) ([]catalog.Candidate, error) {
	if c == nil {
		return nil, errors.New("opensubtitles: client is nil")
	}
	hash, err := MovieHash(path)
	if err != nil {
		return nil, err
	}
	params := url.Values{}
	params.Set("moviehash", hash)
	params.Set("moviehash_match", "only")
	setLanguage(params, languageCode)
	return c.search(ctx, params, 0)
}

// SearchByText looks up subtitles by free text. Season and episode are sent
// exactly as given when non-empty.
func (c *Client) SearchByText(ctx context.Context, query catalog.TextQuery) ([]catalog.Candidate, error) {
	if c == nil {
		return nil, errors.New("opensubtitles: client is nil")
	}
	params := url.Values{}
	if q := strings.TrimSpace(query.Query); q != "" {
		params.Set("query", q)
	}
	if query.Season != "" {
		params.Set("season_number", query.Season)
	}
	if query.Episode != "" {
		params.Set("episode_number", query.Episode)
	}
	if query.Season != "" || query.Episode != "" {
		params.Set("type", "episode")
	}
	setLanguage(params, query.LanguageCode)
	return c.search(ctx, params, query.MaxResults)
}

func setLanguage(params url.Values, code string) {
	if code = strings.ToLower(strings.TrimSpace(code)); code != "" {
		params.Set("languages", code)
	}
}

func (c *Client) search(ctx context.Context, params url.Values, limit int) ([]catalog.Candidate, error) {
	endpoint := c.baseURL.JoinPath("subtitles")
	endpoint.RawQuery = params.Encode()

	var payload searchResponse
	if err := c.call(ctx, "search", http.MethodGet, endpoint, nil, &payload); err != nil {
		return nil, err
	}

	candidates := make([]catalog.Candidate, 0, len(payload.Data))
	for _, entry := range payload.Data {
		if entry.Attributes.Language == "" {
			continue
		}
		fileID := entry.Attributes.PrimaryFileID()
		if fileID == 0 {
			continue
		}
		candidates = append(candidates, catalog.Candidate{
			Title:        entry.Attributes.Title(),
			LanguageName: LanguageName(entry.Attributes.Language),
			LanguageCode: entry.Attributes.Language,
			FileID:       fileID,
			Release:      entry.Attributes.Release,
			Downloads:    entry.Attributes.DownloadCount,
		})
		if limit > 0 && len(candidates) == limit {
			break
		}
	}
	return candidates, nil
}

type searchResponse struct {
	Data []struct {
		ID         string           `json:"id"`
		Attributes searchAttributes `json:"attributes"`
	} `json:"data"`
	Meta struct {
		Total int `json:"total_count"`
	} `json:"meta"`
}

type searchAttributes struct {
	Language       string         `json:"language"`
	Release        string         `json:"release"`
	DownloadCount  int            `json:"download_count"`
	FeatureDetails featureDetails `json:"feature_details"`
	Files          []searchFile   `json:"files"`
}

func (a searchAttributes) PrimaryFileID() int64 {
	if len(a.Files) == 0 {
		return 0
	}
	return a.Files[0].FileID
}

// Title prefers the feature's display title and falls back to the release
// name, then the file name.
func (a searchAttributes) Title() string {
	if title := strings.TrimSpace(a.FeatureDetails.MovieName); title != "" {
		return title
	}
	if title := strings.TrimSpace(a.FeatureDetails.Title); title != "" {
		return title
	}
	if release := strings.TrimSpace(a.Release); release != "" {
		return release
	}
	if len(a.Files) > 0 {
		return a.Files[0].FileName
	}
	return ""
}

type featureDetails struct {
	FeatureType string `json:"feature_type"`
	Title       string `json:"title"`
	MovieName   string `json:"movie_name"`
	Year        int    `json:"year"`
}

type searchFile struct {
	FileID   int64  `json:"file_id"`
	FileName string `json:"file_name"`
}
