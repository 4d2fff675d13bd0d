package opensubtitles

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/time/rate"

	"subfetch/internal/catalog"
)

func newTestClient(t *testing.T, serverURL string, mutate ...func(*Config)) *Client {
	t.Helper()
	cfg := Config{
		APIKey:     "abc",
		UserAgent:  "subfetch/test",
		BaseURL:    serverURL,
		Limiter:    rate.NewLimiter(rate.Inf, 1),
		MaxRetries: -1,
	}
	for _, fn := range mutate {
		fn(&cfg)
	}
	client, err := New(cfg)
	if err != nil {
		t.Fatalf("New client failed: %v", err)
	}
	return client
}

func subtitleEntry(id, language, title string, fileID int64) map[string]any {
	attrs := map[string]any{
		"language":       language,
		"release":        title + ".WEBRip",
		"download_count": 10,
		"feature_details": map[string]any{
			"feature_type": "episode",
			"title":        title,
		},
	}
	if fileID > 0 {
		attrs["files"] = []map[string]any{{"file_id": fileID, "file_name": title + ".srt"}}
	}
	return map[string]any{"id": id, "attributes": attrs}
}

func writeSearch(w http.ResponseWriter, entries ...map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"data": entries,
		"meta": map[string]any{"total_count": len(entries)},
	})
}

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{name: "missing api key", cfg: Config{}, wantErr: true},
		{name: "empty api key", cfg: Config{APIKey: "   "}, wantErr: true},
		{name: "valid minimal config", cfg: Config{APIKey: "test-key"}},
		{
			name: "valid full config",
			cfg: Config{
				APIKey:    "test-key",
				UserAgent: "TestAgent/1.0",
				BaseURL:   "https://custom.api.example.com",
			},
		},
		{name: "invalid base url", cfg: Config{APIKey: "test-key", BaseURL: "://invalid"}, wantErr: true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			client, err := New(tt.cfg)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if client == nil {
				t.Error("expected client, got nil")
			}
		})
	}
}

func TestNewDefaults(t *testing.T) {
	client, err := New(Config{APIKey: "test-key"})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.userAgent != defaultUserAgent {
		t.Errorf("userAgent = %q, want %q", client.userAgent, defaultUserAgent)
	}
	if client.baseURL.String() != defaultBaseURL {
		t.Errorf("baseURL = %q, want %q", client.baseURL.String(), defaultBaseURL)
	}
	if client.maxRetries != MaxRateRetries {
		t.Errorf("maxRetries = %d, want %d", client.maxRetries, MaxRateRetries)
	}
}

func TestSearchByTextBuildsQueryAndParsesResponse(t *testing.T) {
	var captured *http.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = r
		if r.URL.Path != "/subtitles" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		writeSearch(w,
			subtitleEntry("1", "fr", "Example Show", 111),
			subtitleEntry("2", "en", "Example Show", 222),
			subtitleEntry("3", "en", "Example Show", 333),
		)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.SearchByText(context.Background(), catalog.TextQuery{
		Query:        "Example Show",
		Season:       "01",
		Episode:      "02",
		MaxResults:   2,
		LanguageCode: "EN",
	})
	if err != nil {
		t.Fatalf("SearchByText returned error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected results truncated to 2, got %d", len(got))
	}
	if got[0].LanguageName != "French" || got[1].LanguageName != "English" {
		t.Fatalf("unexpected language names: %q, %q", got[0].LanguageName, got[1].LanguageName)
	}
	if got[1].FileID != 222 || got[1].LanguageCode != "en" || got[1].Title != "Example Show" {
		t.Fatalf("unexpected candidate: %+v", got[1])
	}

	if captured == nil {
		t.Fatal("expected request to be captured")
	}
	if got := captured.Header.Get("Api-Key"); got != "abc" {
		t.Fatalf("expected api key header, got %q", got)
	}
	if got := captured.Header.Get("User-Agent"); got != "subfetch/test" {
		t.Fatalf("expected user agent header, got %q", got)
	}
	if got := captured.Header.Get("Authorization"); got != "" {
		t.Fatalf("anonymous request carried authorization %q", got)
	}
	values, _ := url.ParseQuery(captured.URL.RawQuery)
	expect := map[string]string{
		"query":          "Example Show",
		"season_number":  "01",
		"episode_number": "02",
		"languages":      "en",
		"type":           "episode",
	}
	for key, want := range expect {
		if got := values.Get(key); got != want {
			t.Fatalf("expected query param %s=%s, got %s", key, want, got)
		}
	}
	// Results keep the catalog's own ranking.
	for _, key := range []string{"order_by", "order_direction"} {
		if values.Has(key) {
			t.Fatalf("unexpected ordering param %s=%s", key, values.Get(key))
		}
	}
}

func TestSearchByTextOmitsEmptySeasonEpisode(t *testing.T) {
	var values url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values = r.URL.Query()
		writeSearch(w)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.SearchByText(context.Background(), catalog.TextQuery{Query: "Movie", LanguageCode: "en"})
	if err != nil {
		t.Fatalf("SearchByText returned error: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("expected no results, got %d", len(got))
	}
	for _, key := range []string{"season_number", "episode_number", "type", "moviehash"} {
		if values.Has(key) {
			t.Fatalf("unexpected query param %s=%q", key, values.Get(key))
		}
	}
}

func TestSearchSkipsEntriesWithoutLanguageOrFile(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeSearch(w,
			subtitleEntry("1", "", "No Language", 111),
			subtitleEntry("2", "en", "No File", 0),
			subtitleEntry("3", "en", "Valid", 333),
		)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	got, err := client.SearchByText(context.Background(), catalog.TextQuery{Query: "x"})
	if err != nil {
		t.Fatalf("SearchByText returned error: %v", err)
	}
	if len(got) != 1 || got[0].FileID != 333 {
		t.Fatalf("unexpected candidates: %+v", got)
	}
}

func TestSearchBySignatureSendsMovieHash(t *testing.T) {
	var values url.Values
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		values = r.URL.Query()
		writeSearch(w, subtitleEntry("1", "en", "Hashed", 5))
	}))
	defer server.Close()

	path := filepath.Join(t.TempDir(), "movie.mkv")
	if err := os.WriteFile(path, make([]byte, 16), 0o644); err != nil {
		t.Fatal(err)
	}
	client := newTestClient(t, server.URL)
	got, err := client.SearchBySignature(context.Background(), path, "en")
	if err != nil {
		t.Fatalf("SearchBySignature returned error: %v", err)
	}
	if len(got) != 1 || got[0].Title != "Hashed" {
		t.Fatalf("unexpected candidates: %+v", got)
	}
	if values.Get("moviehash") != "0000000000000010" {
		t.Fatalf("moviehash = %q", values.Get("moviehash"))
	}
	if values.Get("languages") != "en" {
		t.Fatalf("languages = %q", values.Get("languages"))
	}
}

func TestSearchBySignatureMissingFile(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	if _, err := client.SearchBySignature(context.Background(), filepath.Join(t.TempDir(), "nope.mkv"), "en"); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestSearchHandlesHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "forbidden", http.StatusForbidden)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SearchByText(context.Background(), catalog.TextQuery{Query: "x"})
	if err == nil {
		t.Fatal("expected error")
	}
	if StatusCode(err) != http.StatusForbidden {
		t.Fatalf("StatusCode = %d, want 403", StatusCode(err))
	}
}

func TestLoginLogoutLifecycle(t *testing.T) {
	var (
		loginBody   loginRequest
		searchAuth  string
		logoutAuth  string
		logoutCalls int
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/login":
			_ = json.NewDecoder(r.Body).Decode(&loginBody)
			_ = json.NewEncoder(w).Encode(map[string]any{"token": "tok-123", "status": 200})
		case r.Method == http.MethodGet && r.URL.Path == "/subtitles":
			searchAuth = r.Header.Get("Authorization")
			writeSearch(w)
		case r.Method == http.MethodDelete && r.URL.Path == "/logout":
			logoutCalls++
			logoutAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	ctx := context.Background()
	if err := client.Login(ctx, "user", "secret"); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if loginBody.Username != "user" || loginBody.Password != "secret" {
		t.Fatalf("unexpected login body: %+v", loginBody)
	}
	if _, err := client.SearchByText(ctx, catalog.TextQuery{Query: "x"}); err != nil {
		t.Fatalf("SearchByText: %v", err)
	}
	if searchAuth != "Bearer tok-123" {
		t.Fatalf("search authorization = %q", searchAuth)
	}
	if err := client.Logout(ctx); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if logoutAuth != "Bearer tok-123" {
		t.Fatalf("logout authorization = %q", logoutAuth)
	}
	if err := client.Logout(ctx); err != nil {
		t.Fatalf("second Logout: %v", err)
	}
	if logoutCalls != 1 {
		t.Fatalf("expected a single logout request, got %d", logoutCalls)
	}
}

func TestLoginAnonymousMakesNoRequest(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	if err := client.Login(context.Background(), "", ""); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if err := client.Logout(context.Background()); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if calls.Load() != 0 {
		t.Fatalf("expected no requests, got %d", calls.Load())
	}
}

func TestLoginFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"invalid credentials"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	err := client.Login(context.Background(), "user", "bad")
	if StatusCode(err) != http.StatusUnauthorized {
		t.Fatalf("expected 401 error, got %v", err)
	}
	if client.token() != "" {
		t.Fatal("token should stay empty after failed login")
	}
}

func TestDownloadLink(t *testing.T) {
	var body downloadRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/download" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("unexpected content type %q", ct)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"link":      "/files/555.srt.gz",
			"file_name": "555.srt",
			"remaining": 99,
		})
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	link, err := client.DownloadLink(context.Background(), catalog.Candidate{FileID: 555})
	if err != nil {
		t.Fatalf("DownloadLink: %v", err)
	}
	if body.FileID != 555 {
		t.Fatalf("unexpected file id in request: %d", body.FileID)
	}
	if link != server.URL+"/files/555.srt.gz" {
		t.Fatalf("unexpected link %q", link)
	}
}

func TestDownloadLinkShortCircuits(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")
	link, err := client.DownloadLink(context.Background(), catalog.Candidate{DownloadLink: "https://dl.example.com/1.gz"})
	if err != nil || link != "https://dl.example.com/1.gz" {
		t.Fatalf("DownloadLink = %q, %v", link, err)
	}
	if _, err := client.DownloadLink(context.Background(), catalog.Candidate{}); err == nil {
		t.Fatal("expected error for candidate without file id")
	}
}

func TestNilClient(t *testing.T) {
	var client *Client
	ctx := context.Background()
	if _, err := client.SearchByText(ctx, catalog.TextQuery{}); err == nil {
		t.Fatal("expected SearchByText error")
	}
	if _, err := client.SearchBySignature(ctx, "x", "en"); err == nil {
		t.Fatal("expected SearchBySignature error")
	}
	if _, err := client.DownloadLink(ctx, catalog.Candidate{FileID: 1}); err == nil {
		t.Fatal("expected DownloadLink error")
	}
	if err := client.Login(ctx, "u", "p"); err == nil {
		t.Fatal("expected Login error")
	}
}

func TestRetriesRateLimitedRequests(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		writeSearch(w, subtitleEntry("1", "en", "After Retry", 9))
	}))
	defer server.Close()

	clock := clockwork.NewFakeClock()
	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Clock = clock
		cfg.MaxRetries = 2
	})

	type result struct {
		candidates []catalog.Candidate
		err        error
	}
	done := make(chan result, 1)
	go func() {
		got, err := client.SearchByText(context.Background(), catalog.TextQuery{Query: "x"})
		done <- result{got, err}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := clock.BlockUntilContext(ctx, 1); err != nil {
		t.Fatalf("backoff timer never armed: %v", err)
	}
	clock.Advance(InitialBackoff)

	select {
	case res := <-done:
		if res.err != nil {
			t.Fatalf("SearchByText: %v", res.err)
		}
		if len(res.candidates) != 1 || res.candidates[0].Title != "After Retry" {
			t.Fatalf("unexpected candidates: %+v", res.candidates)
		}
	case <-ctx.Done():
		t.Fatal("search did not complete after backoff")
	}
	if calls.Load() != 2 {
		t.Fatalf("expected 2 calls, got %d", calls.Load())
	}
}

func TestDoesNotRetryClientErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "bad request", http.StatusBadRequest)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL, func(cfg *Config) {
		cfg.Clock = clockwork.NewFakeClock()
		cfg.MaxRetries = 3
	})
	if _, err := client.SearchByText(context.Background(), catalog.TextQuery{Query: "x"}); err == nil {
		t.Fatal("expected error")
	}
	if calls.Load() != 1 {
		t.Fatalf("expected a single call, got %d", calls.Load())
	}
}

func TestIsRetriable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "429", err: &apiError{StatusCode: http.StatusTooManyRequests}, want: true},
		{name: "503", err: &apiError{StatusCode: http.StatusServiceUnavailable}, want: true},
		{name: "404", err: &apiError{StatusCode: http.StatusNotFound}, want: false},
		{name: "500", err: &apiError{StatusCode: http.StatusInternalServerError}, want: false},
		{name: "deadline", err: context.DeadlineExceeded, want: true},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "connection reset", err: errors.New("read tcp: connection reset by peer"), want: true},
		{name: "plain", err: errors.New("decode failed"), want: false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRetriable(tt.err); got != tt.want {
				t.Fatalf("IsRetriable(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestSleepWithContext(t *testing.T) {
	clock := clockwork.NewFakeClock()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := SleepWithContext(ctx, clock, time.Minute); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if err := SleepWithContext(context.Background(), clock, 0); err != nil {
		t.Fatalf("zero sleep returned %v", err)
	}
}
