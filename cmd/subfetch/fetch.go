package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/spf13/cobra"

	"subfetch/internal/catalog/opensubtitles"
	"subfetch/internal/config"
	"subfetch/internal/download"
	"subfetch/internal/fetcher"
	"subfetch/internal/history"
	"subfetch/internal/logging"
	"subfetch/internal/media"
	"subfetch/internal/preflight"
	"subfetch/internal/scan"
)

type fetchFlags struct {
	file         string
	username     string
	password     string
	noHash       bool
	parentFolder bool
	recursive    bool
	force        bool
	workers      int
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "Video file or directory to process (required)")
	flags.StringVarP(&f.username, "username", "u", "", "OpenSubtitles username (default from config or OPENSUBTITLES_USERNAME)")
	flags.StringVarP(&f.password, "password", "p", "", "OpenSubtitles password (default from config or OPENSUBTITLES_PASSWORD)")
	flags.BoolVarP(&f.noHash, "no-hash", "H", false, "Skip the file signature lookup")
	flags.BoolVarP(&f.parentFolder, "parent-folder", "P", false, "Prepend the parent folder name to text queries")
	flags.BoolVarP(&f.recursive, "recursive", "R", false, "Descend into subdirectories")
	flags.BoolVarP(&f.force, "force", "F", false, "Replace subtitles that already exist")
	flags.IntVar(&f.workers, "workers", 0, "Files processed concurrently (default from config)")
}

func (f *fetchFlags) root() (string, error) {
	root := strings.TrimSpace(f.file)
	if root == "" {
		return "", usageErrorf("--file is required")
	}
	return root, nil
}

func (f *fetchFlags) apply(cfg *config.Config) fetcher.Options {
	opts := fetcher.OptionsFromConfig(cfg)
	if f.noHash {
		opts.UseHash = false
	}
	if f.parentFolder {
		opts.UseParentFolder = true
	}
	if f.workers > 0 {
		opts.Workers = f.workers
	}
	opts.Force = f.force
	return opts
}

func (f *fetchFlags) credentials(cfg *config.Config) (string, string) {
	username, password := cfg.OpenSubtitles.Username, cfg.OpenSubtitles.Password
	if f.username != "" {
		username = f.username
	}
	if f.password != "" {
		password = f.password
	}
	return username, password
}

// session holds everything a fetch or watch run needs, and the lock that
// keeps a second run off the same state directory.
type session struct {
	cfg      *config.Config
	logger   *slog.Logger
	runner   *fetcher.Runner
	lister   *scan.Lister
	history  *history.Store
	lock     *flock.Flock
	closers  []io.Closer
	username string
	password string
}

func openSession(cmd *cobra.Command, ctx *commandContext, flags *fetchFlags) (*session, error) {
	cfg, err := ctx.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.ValidateCatalog(); err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	if check := preflight.CheckDirectoryAccess("State directory", cfg.Paths.StateDir); !check.Passed {
		return nil, errors.New(check.Detail)
	}

	logger, logCloser, err := ctx.newLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}
	s := &session{cfg: cfg, logger: logger, closers: []io.Closer{logCloser}}

	s.lock = flock.New(cfg.LockPath())
	ok, err := s.lock.TryLock()
	if err != nil {
		s.close()
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		s.close()
		return nil, fmt.Errorf("another subfetch run is using %s", cfg.Paths.StateDir)
	}

	store, err := history.Open(cmd.Context(), cfg.Paths.StateDir)
	if err != nil {
		s.close()
		return nil, err
	}
	s.history = store
	s.closers = append(s.closers, store)
	pruneHistory(cmd.Context(), store, cfg.HistoryRetention(), logger)

	cache, err := opensubtitles.NewCache(cfg.Paths.CacheDir, logger)
	if err != nil {
		s.close()
		return nil, err
	}
	httpClient := &http.Client{Timeout: cfg.RequestTimeout()}
	client, err := opensubtitles.New(opensubtitles.Config{
		APIKey:     cfg.OpenSubtitles.APIKey,
		UserAgent:  cfg.OpenSubtitles.UserAgent,
		BaseURL:    cfg.OpenSubtitles.BaseURL,
		HTTPClient: httpClient,
		Logger:     logger,
	})
	if err != nil {
		s.close()
		return nil, err
	}
	downloader := &download.Fetcher{HTTPClient: httpClient, UserAgent: cfg.OpenSubtitles.UserAgent}

	s.runner = fetcher.NewRunner(client, downloader, flags.apply(cfg),
		fetcher.WithLogger(logger),
		fetcher.WithHistory(store),
		fetcher.WithCache(cache),
	)
	s.lister = scan.NewLister(flags.recursive)
	s.lister.OnError = func(path string, err error) {
		logging.WarnWithContext(logger, "directory skipped", "directory_unreadable",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check directory permissions"),
			logging.String(logging.FieldImpact, "files below this directory were not processed"),
		)
	}
	s.username, s.password = flags.credentials(cfg)
	return s, nil
}

// pruneHistory applies the retention window before a run. Failures only cost
// disk space, so they are logged and the run goes on.
func pruneHistory(ctx context.Context, store *history.Store, retention time.Duration, logger *slog.Logger) {
	if retention <= 0 {
		return
	}
	removed, err := store.Prune(ctx, time.Now().Add(-retention))
	if err != nil {
		logging.WarnWithContext(logger, "history prune failed", "history_prune_failed",
			logging.Error(err),
			logging.String(logging.FieldImpact, "old outcome records kept"),
		)
		return
	}
	if removed > 0 {
		logger.Info("history pruned",
			logging.Int64("removed", removed),
			logging.Duration("retention", retention),
		)
	}
}

func (s *session) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		_ = s.closers[i].Close()
	}
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}

func (s *session) list(root string) ([]media.File, error) {
	files, err := s.lister.List(root)
	if errors.Is(err, scan.ErrRootNotFound) {
		return nil, &usageError{err: err}
	}
	return files, err
}

func runFetch(cmd *cobra.Command, ctx *commandContext, flags *fetchFlags) error {
	root, err := flags.root()
	if err != nil {
		return err
	}
	s, err := openSession(cmd, ctx, flags)
	if err != nil {
		return err
	}
	defer s.close()

	files, err := s.list(root)
	if err != nil {
		return err
	}

	var summary fetcher.Summary
	err = s.runner.WithSession(cmd.Context(), s.username, s.password, func(runCtx context.Context) error {
		var runErr error
		summary, runErr = s.runner.Run(runCtx, files)
		return runErr
	})
	if len(summary.Outcomes) > 0 || err == nil {
		fmt.Fprint(cmd.OutOrStdout(), renderSummary(summary, shouldColorize(cmd.OutOrStdout())))
	}
	return err
}
