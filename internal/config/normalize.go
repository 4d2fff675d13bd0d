package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOpenSubtitles()
	c.normalizeSearch()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOpenSubtitles() {
	o := &c.OpenSubtitles
	o.APIKey = envFallback(o.APIKey, "OPENSUBTITLES_API_KEY")
	o.Username = envFallback(o.Username, "OPENSUBTITLES_USERNAME")
	o.Password = envFallback(o.Password, "OPENSUBTITLES_PASSWORD")
	o.UserAgent = strings.TrimSpace(o.UserAgent)
	if o.UserAgent == "" {
		o.UserAgent = defaultUserAgent
	}
	o.BaseURL = strings.TrimRight(strings.TrimSpace(o.BaseURL), "/")
	if o.BaseURL == "" {
		o.BaseURL = defaultBaseURL
	}
	if o.TimeoutSeconds <= 0 {
		o.TimeoutSeconds = defaultTimeoutSeconds
	}
}

func (c *Config) normalizeSearch() {
	s := &c.Search
	s.LanguageCode = strings.ToLower(strings.TrimSpace(s.LanguageCode))
	if s.LanguageCode == "" {
		s.LanguageCode = defaultLanguageCode
	}
	s.LanguagePrefix = strings.ToLower(strings.TrimSpace(s.LanguagePrefix))
	if s.LanguagePrefix == "" {
		s.LanguagePrefix = defaultLanguagePrefix
	}
	if s.MaxResults <= 0 {
		s.MaxResults = defaultMaxResults
	}
	s.SubtitleExtension = strings.TrimSpace(s.SubtitleExtension)
	if s.SubtitleExtension == "" {
		s.SubtitleExtension = defaultSubtitleExtension
	}
	if !strings.HasPrefix(s.SubtitleExtension, ".") {
		s.SubtitleExtension = "." + s.SubtitleExtension
	}
	s.VideoExtensions = trimList(s.VideoExtensions)
	s.SkipExtensions = trimList(s.SkipExtensions)
	s.StopWords = trimList(s.StopWords)
	s.ExtraStopWords = trimList(s.ExtraStopWords)
	if s.NotFoundCooldownHours < 0 {
		s.NotFoundCooldownHours = 0
	}
	if s.Workers <= 0 {
		s.Workers = defaultWorkers
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	c.Logging.File = strings.TrimSpace(c.Logging.File)
	if c.Logging.MaxSizeMB <= 0 {
		c.Logging.MaxSizeMB = defaultLogMaxSizeMB
	}
	if c.Logging.MaxBackups < 0 {
		c.Logging.MaxBackups = 0
	}
}

func envFallback(value, key string) string {
	value = strings.TrimSpace(value)
	if value != "" {
		return value
	}
	if env, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(env)
	}
	return ""
}

// trimList drops blank entries and duplicates, keeping the first occurrence.
func trimList(values []string) []string {
	if len(values) == 0 {
		return values
	}
	out := make([]string, 0, len(values))
	seen := make(map[string]struct{}, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
