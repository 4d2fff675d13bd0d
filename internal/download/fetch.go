// Package download retrieves subtitle payloads over HTTP and writes them next
// to the media file.
package download

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/klauspost/compress/gzip"
)

const (
	defaultTimeout  = 60 * time.Second
	defaultMaxBytes = 32 << 20
)

// Fetcher downloads subtitle payloads. The zero value is usable.
type Fetcher struct {
	HTTPClient *http.Client
	UserAgent  string
	// MaxBytes caps the decoded payload size. Zero uses 32 MiB.
	MaxBytes int64
}

// Fetch downloads rawURL into dest. Gzip payloads are detected by their magic
// bytes and inflated regardless of the URL or headers.
func (f *Fetcher) Fetch(ctx context.Context, rawURL, dest string) error {
	data, err := f.Get(ctx, rawURL)
	if err != nil {
		return err
	}
	return WriteFileAtomic(dest, data, 0o644)
}

// Get downloads rawURL and returns the decoded payload.
func (f *Fetcher) Get(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("download: build request: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	resp, err := f.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("download: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(body))}
	}
	return decode(resp.Body, f.maxBytes())
}

func (f *Fetcher) client() *http.Client {
	if f != nil && f.HTTPClient != nil {
		return f.HTTPClient
	}
	return &http.Client{Timeout: defaultTimeout}
}

func (f *Fetcher) maxBytes() int64 {
	if f != nil && f.MaxBytes > 0 {
		return f.MaxBytes
	}
	return defaultMaxBytes
}

// StatusError is a non-2xx download response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("download: failed (%s)", e.Status)
	}
	return fmt.Sprintf("download: failed (%s): %s", e.Status, e.Body)
}

var errTooLarge = errors.New("download: payload exceeds size limit")

func decode(r io.Reader, limit int64) ([]byte, error) {
	br := bufio.NewReader(r)
	var src io.Reader = br
	if magic, _ := br.Peek(2); len(magic) == 2 && magic[0] == 0x1f && magic[1] == 0x8b {
		zr, err := gzip.NewReader(br)
		if err != nil {
			return nil, fmt.Errorf("download: open gzip stream: %w", err)
		}
		defer zr.Close()
		src = zr
	}
	var buf bytes.Buffer
	n, err := io.Copy(&buf, io.LimitReader(src, limit+1))
	if err != nil {
		return nil, fmt.Errorf("download: read payload: %w", err)
	}
	if n > limit {
		return nil, errTooLarge
	}
	return buf.Bytes(), nil
}

// StripCompressionSuffix removes a trailing ".gz" from the URL path, keeping
// any query string or fragment. Unparseable input is trimmed textually.
func StripCompressionSuffix(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return strings.TrimSuffix(rawURL, ".gz")
	}
	if !strings.HasSuffix(u.Path, ".gz") {
		return rawURL
	}
	u.Path = strings.TrimSuffix(u.Path, ".gz")
	if u.RawPath != "" {
		u.RawPath = strings.TrimSuffix(u.RawPath, ".gz")
	}
	return u.String()
}
