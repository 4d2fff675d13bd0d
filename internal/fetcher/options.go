package fetcher

import (
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"subfetch/internal/catalog/opensubtitles"
	"subfetch/internal/config"
	"subfetch/internal/logging"
	"subfetch/internal/media"
	"subfetch/internal/naming"
)

// Options carries the run-wide lookup policy.
type Options struct {
	Classifier        media.Classifier
	Builder           naming.Builder
	LanguageCode      string
	LanguagePrefix    string
	MaxResults        int
	SubtitleExtension string
	UseHash           bool
	UseParentFolder   bool
	Force             bool
	Workers           int
	// NotFoundCooldown skips files whose last outcome was not_found within
	// the window. Zero disables it.
	NotFoundCooldown time.Duration
}

// OptionsFromConfig maps the search section onto run options. CLI flags are
// applied by the caller afterwards.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Classifier:        cfg.Classifier(),
		Builder:           cfg.QueryBuilder(),
		LanguageCode:      cfg.Search.LanguageCode,
		LanguagePrefix:    cfg.Search.LanguagePrefix,
		MaxResults:        cfg.Search.MaxResults,
		SubtitleExtension: cfg.Search.SubtitleExtension,
		UseHash:           cfg.Search.UseHash,
		UseParentFolder:   cfg.Search.UseParentFolder,
		Workers:           cfg.Search.Workers,
		NotFoundCooldown:  cfg.NotFoundCooldown(),
	}
}

func (o Options) withDefaults() Options {
	if o.SubtitleExtension == "" {
		o.SubtitleExtension = ".srt"
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 10
	}
	if o.Workers <= 0 {
		o.Workers = 1
	}
	if o.LanguagePrefix == "" {
		o.LanguagePrefix = "eng"
	}
	if o.Classifier.Video.Len() == 0 && o.Classifier.Skip.Len() == 0 {
		o.Classifier = media.DefaultClassifier()
	}
	return o
}

// RunnerOption customizes a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the base logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logging.NewComponentLogger(logger, "fetcher")
	}
}

// WithHistory attaches an outcome store.
func WithHistory(store HistoryStore) RunnerOption {
	return func(r *Runner) {
		r.history = store
	}
}

// WithCache attaches the subtitle payload cache.
func WithCache(cache *opensubtitles.Cache) RunnerOption {
	return func(r *Runner) {
		r.cache = cache
	}
}

// WithRunID overrides the generated run identifier.
func WithRunID(id string) RunnerOption {
	return func(r *Runner) {
		if id != "" {
			r.runID = id
		}
	}
}

// WithClock injects a clock (used in tests).
func WithClock(clock clockwork.Clock) RunnerOption {
	return func(r *Runner) {
		if clock != nil {
			r.clock = clock
		}
	}
}

func newRunID() string {
	return uuid.NewString()
}
