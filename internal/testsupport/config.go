package testsupport

import (
	"path/filepath"
	"testing"

	"subfetch/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.OpenSubtitles.APIKey = "test"
	cfgVal.OpenSubtitles.BaseURL = "http://127.0.0.1:0/api/v1"
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.CacheDir = filepath.Join(base, "cache")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithCatalogURL points the OpenSubtitles client at a test server.
func WithCatalogURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenSubtitles.BaseURL = url
	}
}

// WithCredentials sets the OpenSubtitles account on the test config.
func WithCredentials(username, password string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.OpenSubtitles.Username = username
		b.cfg.OpenSubtitles.Password = password
	}
}

// WithSearch applies arbitrary changes to the search section.
func WithSearch(fn func(*config.Search)) ConfigOption {
	return func(b *configBuilder) {
		fn(&b.cfg.Search)
	}
}

// BaseDir returns the temp directory backing the config's paths.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}
