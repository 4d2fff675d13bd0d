package opensubtitles

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"subfetch/internal/catalog"
	"subfetch/internal/logging"
)

type downloadRequest struct {
	FileID    int64  `json:"file_id"`
	SubFormat string `json:"sub_format"`
}

type downloadResponse struct {
	Link      string `json:"link"`
	FileName  string `json:"file_name"`
	Remaining int    `json:"remaining"`
}

// DownloadLink negotiates a temporary download URL for the candidate's file.
// A candidate that already carries a link is returned as-is.
func (c *Client) DownloadLink(ctx context.Context, candidate catalog.Candidate) (string, error) {
	if c == nil {
		return "", errors.New("opensubtitles: client is nil")
	}
	if candidate.DownloadLink != "" {
		return candidate.DownloadLink, nil
	}
	if candidate.FileID <= 0 {
		return "", errors.New("opensubtitles: invalid file id")
	}
	endpoint := c.baseURL.JoinPath("download")
	var info downloadResponse
	err := c.call(ctx, "download", http.MethodPost, endpoint,
		downloadRequest{FileID: candidate.FileID, SubFormat: "srt"}, &info)
	if err != nil {
		return "", err
	}
	if info.Link == "" {
		return "", errors.New("opensubtitles: download response missing link")
	}
	c.logger.Debug("opensubtitles download negotiated",
		logging.Int64("file_id", candidate.FileID),
		logging.Int("remaining", info.Remaining),
	)

	link, err := endpoint.Parse(info.Link)
	if err != nil {
		link, err = url.Parse(info.Link)
		if err != nil {
			return "", fmt.Errorf("opensubtitles: parse download url: %w", err)
		}
	}
	return link.String(), nil
}
