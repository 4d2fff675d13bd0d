package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"subfetch/internal/config"
	"subfetch/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	baseDir    string
	server     *fakeCatalog
}

// fakeCatalog serves the subset of the OpenSubtitles REST API the fetch path
// uses. Every search returns one English entry for file 42.
type fakeCatalog struct {
	*httptest.Server
	searches  atomic.Int32
	downloads atomic.Int32
	lastQuery atomic.Value
}

const fakeSubtitleBody = "1\n00:00:01,000 --> 00:00:02,000\nHello\n"

func newFakeCatalog(t *testing.T) *fakeCatalog {
	t.Helper()
	fc := &fakeCatalog{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/subtitles", func(w http.ResponseWriter, r *http.Request) {
		fc.searches.Add(1)
		fc.lastQuery.Store(r.URL.Query().Get("query"))
		_ = json.NewEncoder(w).Encode(map[string]any{
			"data": []map[string]any{{
				"id": "1",
				"attributes": map[string]any{
					"language":       "en",
					"release":        "Show.S01E02.WEBRip",
					"download_count": 5,
					"feature_details": map[string]any{
						"feature_type": "episode",
						"title":        "Pilot",
					},
					"files": []map[string]any{{"file_id": 42, "file_name": "Show.S01E02.srt"}},
				},
			}},
			"meta": map[string]any{"total_count": 1},
		})
	})
	mux.HandleFunc("/api/v1/download", func(w http.ResponseWriter, r *http.Request) {
		fc.downloads.Add(1)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"link":      fc.URL + "/files/42.srt.gz",
			"file_name": "Show.S01E02.srt",
			"remaining": 99,
		})
	})
	mux.HandleFunc("/files/42.srt", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(fakeSubtitleBody))
	})
	fc.Server = httptest.NewServer(mux)
	t.Cleanup(fc.Close)
	return fc
}

func (fc *fakeCatalog) query() string {
	q, _ := fc.lastQuery.Load().(string)
	return q
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	server := newFakeCatalog(t)
	cfg := testsupport.NewConfig(t, testsupport.WithCatalogURL(server.URL+"/api/v1"))
	base := testsupport.BaseDir(cfg)

	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	t.Setenv("OPENSUBTITLES_API_KEY", "")
	t.Setenv("OPENSUBTITLES_USERNAME", "")
	t.Setenv("OPENSUBTITLES_PASSWORD", "")

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)

	return &cliTestEnv{cfg: cfg, configPath: configPath, baseDir: base, server: server}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\nstate_dir = %q\ncache_dir = %q\nlog_dir = %q\n\n[opensubtitles]\napi_key = %q\nbase_url = %q\n",
		cfg.Paths.StateDir,
		cfg.Paths.CacheDir,
		cfg.Paths.LogDir,
		cfg.OpenSubtitles.APIKey,
		cfg.OpenSubtitles.BaseURL,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
