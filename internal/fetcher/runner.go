package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/errgroup"

	"subfetch/internal/catalog"
	"subfetch/internal/catalog/opensubtitles"
	"subfetch/internal/download"
	"subfetch/internal/history"
	"subfetch/internal/logging"
	"subfetch/internal/media"
	"subfetch/internal/naming"
	"subfetch/internal/services"
)

// Downloader writes the payload at url to dest.
type Downloader interface {
	Fetch(ctx context.Context, url, dest string) error
}

// HistoryStore persists outcomes. *history.Store satisfies it.
type HistoryStore interface {
	Add(ctx context.Context, rec history.Record) error
	Last(ctx context.Context, path string) (history.Record, bool, error)
}

// Runner processes media files against a catalog.
type Runner struct {
	opts       Options
	catalog    catalog.Catalog
	downloader Downloader
	logger     *slog.Logger
	history    HistoryStore
	cache      *opensubtitles.Cache
	clock      clockwork.Clock
	runID      string
}

// NewRunner builds a runner. The catalog session must be opened by the caller
// (see WithSession).
func NewRunner(cat catalog.Catalog, dl Downloader, opts Options, ropts ...RunnerOption) *Runner {
	r := &Runner{
		opts:       opts.withDefaults(),
		catalog:    cat,
		downloader: dl,
		logger:     logging.NewComponentLogger(nil, "fetcher"),
		clock:      clockwork.NewRealClock(),
		runID:      newRunID(),
	}
	for _, opt := range ropts {
		opt(r)
	}
	return r
}

// RunID returns the identifier attached to logs and history records.
func (r *Runner) RunID() string {
	return r.runID
}

// WithSession logs in, runs fn, and logs out. Logout failures are logged and
// do not replace fn's error.
func (r *Runner) WithSession(ctx context.Context, username, password string, fn func(context.Context) error) error {
	ctx = services.WithRunID(ctx, r.runID)
	if err := r.catalog.Login(ctx, username, password); err != nil {
		return services.Wrap(services.ErrExternal, "session", "login", "catalog login failed", err)
	}
	defer func() {
		if err := r.catalog.Logout(context.WithoutCancel(ctx)); err != nil {
			logging.WarnWithContext(r.logger, "catalog logout failed", "catalog_logout_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "session left to expire server side"),
			)
		}
	}()
	return fn(ctx)
}

// Run processes files with up to Options.Workers in flight. Outcomes keep the
// order of files. Cancellation stops the run before the next file starts; the
// summary then holds the files that finished and the context error is
// returned.
func (r *Runner) Run(ctx context.Context, files []media.File) (Summary, error) {
	ctx = services.WithRunID(ctx, r.runID)
	summary := Summary{RunID: r.runID, Started: r.clock.Now()}

	outcomes := make([]Outcome, len(files))
	finished := make([]bool, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.opts.Workers)
	for i, file := range files {
		i, file := i, file
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			outcomes[i] = r.Process(gctx, file)
			finished[i] = true
			return nil
		})
	}
	runErr := g.Wait()
	if runErr == nil {
		runErr = ctx.Err()
	}

	for i, ok := range finished {
		if ok {
			summary.Outcomes = append(summary.Outcomes, outcomes[i])
		}
	}
	summary.Duration = r.clock.Since(summary.Started)

	attrs := []logging.Attr{
		logging.Int("files", len(files)),
		logging.Int("processed", len(summary.Outcomes)),
		logging.Duration("duration", summary.Duration),
	}
	for _, status := range Statuses {
		if n := summary.Count(status); n > 0 {
			attrs = append(attrs, logging.Int(string(status), n))
		}
	}
	logger := logging.WithContext(ctx, r.logger)
	if runErr != nil {
		logger.Warn("run interrupted", logging.Args(append(attrs, logging.Error(runErr))...)...)
		return summary, runErr
	}
	logger.Info("run complete", logging.Args(attrs...)...)
	return summary, nil
}

// Process handles one file and records its outcome.
func (r *Runner) Process(ctx context.Context, file media.File) Outcome {
	start := r.clock.Now()
	ctx = services.WithRunID(ctx, r.runID)
	ctx = services.WithFile(ctx, file.Path)
	logger := logging.WithContext(ctx, r.logger)

	out := r.process(ctx, logger, file)
	out.Path = file.Path
	out.Duration = r.clock.Since(start)

	if out.Status == StatusFailed {
		logging.WarnWithContext(logger, "subtitle fetch failed", "subtitle_fetch_failed",
			logging.Error(out.Err),
			logging.String(logging.FieldErrorHint, services.Hint(out.Err)),
		)
	}
	r.record(ctx, logger, out)
	return out
}

func (r *Runner) process(ctx context.Context, logger *slog.Logger, file media.File) Outcome {
	out := Outcome{Path: file.Path}

	kind, ext := r.opts.Classifier.Classify(file.Name)
	switch kind {
	case media.Skippable:
		logger.Debug("skipping non-video file", logging.String("extension", ext))
		out.Status = StatusSkippable
		return out
	case media.Unrecognized:
		logger.Info("unrecognized extension", logging.Args(append(
			logging.DecisionAttrs("classify", "unrecognized", "extension is neither video nor skippable"),
			logging.String("extension", ext),
		)...)...)
		out.Status = StatusUnrecognized
		return out
	}

	out.SubtitlePath = file.SubtitlePath(r.opts.SubtitleExtension)
	if !r.opts.Force {
		exists, err := fileExists(out.SubtitlePath)
		if err != nil {
			return failed(out, services.Wrap(services.ErrValidation, "prepare", "stat subtitle", out.SubtitlePath, err))
		}
		if exists {
			logger.Info("subtitle already present", logging.Args(append(
				logging.DecisionAttrs("skip", string(StatusSkippedExisting), "subtitle file exists"),
				logging.String("subtitle", out.SubtitlePath),
			)...)...)
			out.Status = StatusSkippedExisting
			return out
		}
		if r.recentlyNotFound(ctx, logger, file.Path) {
			logger.Info("skipping recent miss", logging.Args(append(
				logging.DecisionAttrs("skip", string(StatusSkippedRecent), "not found within cooldown"),
				logging.Duration("cooldown", r.opts.NotFoundCooldown),
			)...)...)
			out.Status = StatusSkippedRecent
			return out
		}
	}

	if err := ctx.Err(); err != nil {
		return failed(out, err)
	}

	candidates, err := r.lookup(ctx, logger, file, ext, &out)
	if err != nil {
		return failed(out, err)
	}

	candidate, ok := catalog.Select(candidates, r.opts.LanguagePrefix)
	if !ok {
		logger.Info("no subtitle found", logging.Args(append(
			logging.DecisionAttrs("select", string(StatusNotFound), "no candidate in "+r.opts.LanguagePrefix),
			logging.String(logging.FieldEventType, "subtitle_not_found"),
			logging.String("source", out.Source),
			logging.Int("candidates", len(candidates)),
			logging.String("query", out.Query),
		)...)...)
		out.Status = StatusNotFound
		return out
	}
	out.Candidate = candidate

	cached, err := r.fetch(ctx, logger, candidate, out.SubtitlePath)
	if err != nil {
		return failed(out, err)
	}
	out.Cached = cached
	out.Status = StatusDownloaded
	logger.Info("subtitle downloaded",
		logging.String("title", candidate.Title),
		logging.String("language", candidate.LanguageName),
		logging.String("source", out.Source),
		logging.Bool("cached", cached),
		logging.String("subtitle", out.SubtitlePath),
	)
	return out
}

// lookup runs the signature search and falls back to a text search when it
// yields nothing. A failed signature search also falls back.
func (r *Runner) lookup(ctx context.Context, logger *slog.Logger, file media.File, ext string, out *Outcome) ([]catalog.Candidate, error) {
	if r.opts.UseHash {
		sigCtx := services.WithStage(ctx, SourceSignature)
		results, err := r.catalog.SearchBySignature(sigCtx, file.Path, r.opts.LanguageCode)
		switch {
		case err != nil && ctx.Err() != nil:
			return nil, ctx.Err()
		case err != nil:
			logging.WarnWithContext(logging.WithContext(sigCtx, r.logger), "signature lookup failed", "signature_lookup_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "falling back to text search"),
			)
		case len(results) > 0:
			out.Source = SourceSignature
			logger.Debug("signature lookup matched", logging.Int("results", len(results)))
			return results, nil
		}
	}

	se, _ := naming.ExtractSeasonEpisode(file.Name)
	query := r.opts.Builder.Build(file.Name, ext, file.ParentName(), r.opts.UseParentFolder)
	out.Source = SourceText
	out.Query = query.String()
	out.Season = se.Season
	out.Episode = se.Episode

	textCtx := services.WithStage(ctx, SourceText)
	results, err := r.catalog.SearchByText(textCtx, catalog.TextQuery{
		Query:        out.Query,
		Season:       out.Season,
		Episode:      out.Episode,
		MaxResults:   r.opts.MaxResults,
		LanguageCode: r.opts.LanguageCode,
	})
	if err != nil {
		return nil, services.Wrap(services.ErrExternal, SourceText, "search", fmt.Sprintf("query %q", out.Query), err)
	}
	logger.Debug("text lookup completed",
		logging.String("query", out.Query),
		logging.String("season", out.Season),
		logging.String("episode", out.Episode),
		logging.Int("results", len(results)),
	)
	return results, nil
}

// fetch writes the candidate's payload to dest, serving it from the cache
// when the file id is known there.
func (r *Runner) fetch(ctx context.Context, logger *slog.Logger, candidate catalog.Candidate, dest string) (bool, error) {
	ctx = services.WithStage(ctx, "download")
	if r.cache != nil && candidate.FileID > 0 {
		hit, ok, err := r.cache.Load(candidate.FileID)
		switch {
		case err != nil:
			logger.Debug("subtitle cache read failed", logging.Error(err))
		case ok:
			if err := download.WriteFileAtomic(dest, hit.Data, 0o644); err != nil {
				return false, services.Wrap(services.ErrTransient, "download", "write cached subtitle", dest, err)
			}
			return true, nil
		}
	}

	link := candidate.DownloadLink
	if link == "" {
		resolved, err := r.catalog.DownloadLink(ctx, candidate)
		if err != nil {
			return false, services.Wrap(services.ErrExternal, "download", "resolve link", candidate.Title, err)
		}
		link = resolved
	}
	link = download.StripCompressionSuffix(link)
	if err := r.downloader.Fetch(ctx, link, dest); err != nil {
		return false, services.Wrap(services.ErrExternal, "download", "fetch", link, err)
	}

	if r.cache != nil && candidate.FileID > 0 {
		r.storeInCache(logger, candidate, link, dest)
	}
	return false, nil
}

func (r *Runner) storeInCache(logger *slog.Logger, candidate catalog.Candidate, link, path string) {
	data, err := os.ReadFile(path)
	if err == nil {
		_, err = r.cache.Store(opensubtitles.CacheEntry{
			FileID:      candidate.FileID,
			Language:    candidate.LanguageCode,
			Title:       candidate.Title,
			Release:     candidate.Release,
			DownloadURL: link,
		}, data)
	}
	if err != nil {
		logger.Debug("subtitle cache store failed", logging.Error(err))
	}
}

func (r *Runner) recentlyNotFound(ctx context.Context, logger *slog.Logger, path string) bool {
	if r.history == nil || r.opts.NotFoundCooldown <= 0 {
		return false
	}
	rec, ok, err := r.history.Last(ctx, path)
	if err != nil {
		logger.Debug("history lookup failed", logging.Error(err))
		return false
	}
	if !ok || rec.Status != string(StatusNotFound) {
		return false
	}
	return r.clock.Since(rec.CreatedAt) < r.opts.NotFoundCooldown
}

func (r *Runner) record(ctx context.Context, logger *slog.Logger, out Outcome) {
	if r.history == nil || !out.recordable() {
		return
	}
	rec := history.Record{
		RunID:          r.runID,
		Path:           out.Path,
		Status:         string(out.Status),
		Source:         out.Source,
		Query:          out.Query,
		Season:         out.Season,
		Episode:        out.Episode,
		CandidateTitle: out.Candidate.Title,
		Language:       out.Candidate.LanguageName,
		CreatedAt:      r.clock.Now(),
	}
	if out.Err != nil {
		rec.Error = out.Err.Error()
	}
	if err := r.history.Add(context.WithoutCancel(ctx), rec); err != nil {
		logging.ErrorWithContext(logger, "history record failed", "history_write_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check state directory permissions"),
			logging.String(logging.FieldImpact, "outcome not persisted"),
		)
	}
}

func failed(out Outcome, err error) Outcome {
	out.Status = StatusFailed
	out.Err = err
	return out
}

func fileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		return !info.IsDir(), nil
	}
	if errors.Is(err, fs.ErrNotExist) {
		return false, nil
	}
	return false, err
}
