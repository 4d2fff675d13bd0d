package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"subfetch/internal/testsupport"
)

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckCatalog(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/infos/formats" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		switch r.Header.Get("Api-Key") {
		case "good-key":
			w.WriteHeader(http.StatusOK)
		case "busy-key":
			w.WriteHeader(http.StatusTooManyRequests)
		default:
			w.WriteHeader(http.StatusUnauthorized)
		}
	}))
	defer srv.Close()
	base := srv.URL + "/api/v1/"

	tests := []struct {
		name   string
		base   string
		key    string
		passed bool
		detail string
	}{
		{name: "ok", base: base, key: "good-key", passed: true, detail: "Reachable"},
		{name: "bad key", base: base, key: "bad-key", detail: "auth failed (invalid api key)"},
		{name: "rate limited", base: base, key: "busy-key", detail: "rate limited (retry later)"},
		{name: "missing key", base: base, detail: "missing api key"},
		{name: "missing url", key: "good-key", detail: "missing base url"},
		{name: "wrong path", base: srv.URL, key: "good-key", detail: "check failed (404)"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			result := CheckCatalog(context.Background(), tt.base, tt.key, "subfetch-test")
			if result.Passed != tt.passed || result.Detail != tt.detail {
				t.Fatalf("got %+v, want passed=%v detail=%q", result, tt.passed, tt.detail)
			}
		})
	}
}

func TestRunAllReportsMissingDirectories(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.StateDir, 0o755); err != nil {
		t.Fatal(err)
	}
	cfg.OpenSubtitles.APIKey = ""

	results := RunAll(context.Background(), cfg)
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d: %+v", len(results), results)
	}
	failed := Failed(results)
	if len(failed) != 2 {
		t.Fatalf("expected cache dir and catalog to fail, got %+v", failed)
	}
	if failed[0].Name != "Cache directory" || failed[1].Name != "OpenSubtitles" {
		t.Fatalf("unexpected failures %+v", failed)
	}
}
