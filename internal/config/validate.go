package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/language"

	"subfetch/internal/media"
)

// Validate ensures the configuration is usable. Credentials are checked
// separately by ValidateCatalog so offline commands work without them.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateOpenSubtitles(); err != nil {
		return err
	}
	if err := c.validateSearch(); err != nil {
		return err
	}
	if err := c.validateHistory(); err != nil {
		return err
	}
	return c.validateLogging()
}

// validateHistory keeps retention longer than the not-found cooldown, which
// reads the same records.
func (c *Config) validateHistory() error {
	if c.History.RetentionDays < 0 {
		return fmt.Errorf("history.retention_days must not be negative")
	}
	if retention := c.HistoryRetention(); retention > 0 && c.NotFoundCooldown() > retention {
		return fmt.Errorf("history.retention_days (%d) is shorter than search.not_found_cooldown_hours (%d)",
			c.History.RetentionDays, c.Search.NotFoundCooldownHours)
	}
	return nil
}

// ValidateCatalog reports whether catalog lookups can be made.
func (c *Config) ValidateCatalog() error {
	if strings.TrimSpace(c.OpenSubtitles.APIKey) == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = defaultConfigRelativePath
		}
		return fmt.Errorf("opensubtitles.api_key is required. Set OPENSUBTITLES_API_KEY env var or edit %s (create with 'subfetch config init')", defaultPath)
	}
	if (c.OpenSubtitles.Username == "") != (c.OpenSubtitles.Password == "") {
		return errors.New("opensubtitles.username and opensubtitles.password must be set together")
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if c.Paths.CacheDir == "" {
		return errors.New("paths.cache_dir must be set")
	}
	return nil
}

func (c *Config) validateOpenSubtitles() error {
	parsed, err := url.Parse(c.OpenSubtitles.BaseURL)
	if err != nil || parsed.Scheme == "" || parsed.Host == "" {
		return fmt.Errorf("opensubtitles.base_url must be an absolute URL, got %q", c.OpenSubtitles.BaseURL)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("opensubtitles.base_url must use http or https, got %q", parsed.Scheme)
	}
	return nil
}

func (c *Config) validateSearch() error {
	s := c.Search
	if _, err := language.ParseBase(s.LanguageCode); err != nil {
		return fmt.Errorf("search.language_code %q is not a language code: %w", s.LanguageCode, err)
	}
	if s.MaxResults > 100 {
		return errors.New("search.max_results must be at most 100")
	}
	if s.Workers > maxWorkers {
		return fmt.Errorf("search.workers must be at most %d", maxWorkers)
	}
	if len(s.VideoExtensions) == 0 {
		return errors.New("search.video_extensions must list at least one extension")
	}
	skip := media.NewExtensionSet(s.SkipExtensions...)
	video := media.NewExtensionSet(s.VideoExtensions...)
	for _, ext := range video.Members() {
		if skip.Contains(ext) {
			return fmt.Errorf("extension %s is listed in both search.video_extensions and search.skip_extensions", ext)
		}
	}
	if video.Contains(s.SubtitleExtension) {
		return fmt.Errorf("search.subtitle_extension %s is also a video extension", s.SubtitleExtension)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
