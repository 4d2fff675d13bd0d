package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"subfetch/internal/media"
	"subfetch/internal/naming"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains state, cache, and log directories.
type Paths struct {
	StateDir string `toml:"state_dir"`
	CacheDir string `toml:"cache_dir"`
	LogDir   string `toml:"log_dir"`
}

// OpenSubtitles contains catalog credentials and transport settings.
type OpenSubtitles struct {
	APIKey         string `toml:"api_key"`
	UserAgent      string `toml:"user_agent"`
	BaseURL        string `toml:"base_url"`
	Username       string `toml:"username"`
	Password       string `toml:"password"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
}

// Search contains lookup policy and the filename vocabularies.
type Search struct {
	// LanguageCode is sent to the catalog (ISO 639-1, e.g. "en").
	LanguageCode string `toml:"language_code"`
	// LanguagePrefix selects candidates by the start of their language name.
	LanguagePrefix        string   `toml:"language_prefix"`
	MaxResults            int      `toml:"max_results"`
	SubtitleExtension     string   `toml:"subtitle_extension"`
	UseHash               bool     `toml:"use_hash"`
	UseParentFolder       bool     `toml:"use_parent_folder"`
	LettersOnlyTokens     bool     `toml:"letters_only_tokens"`
	VideoExtensions       []string `toml:"video_extensions"`
	SkipExtensions        []string `toml:"skip_extensions"`
	StopWords             []string `toml:"stop_words"`
	ExtraStopWords        []string `toml:"extra_stop_words"`
	NotFoundCooldownHours int      `toml:"not_found_cooldown_hours"`
	Workers               int      `toml:"workers"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	// File enables a rotated JSON log. Relative names resolve under
	// paths.log_dir.
	File       string `toml:"file"`
	MaxSizeMB  int    `toml:"max_size_mb"`
	MaxBackups int    `toml:"max_backups"`
}

// History contains retention for the outcome log.
type History struct {
	// RetentionDays prunes records older than this many days at the start
	// of each run. Zero keeps everything.
	RetentionDays int `toml:"retention_days"`
}

// Config encapsulates all configuration values for subfetch.
//
// Configuration sections:
//   - Paths: state (history, lock), payload cache, and log directories
//   - OpenSubtitles: API credentials and transport settings
//   - Search: language policy, vocabularies, and worker count
//   - History: outcome log retention
//   - Logging: log format, level, and optional rotated file
type Config struct {
	Paths         Paths         `toml:"paths"`
	OpenSubtitles OpenSubtitles `toml:"opensubtitles"`
	Search        Search        `toml:"search"`
	History       History       `toml:"history"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigRelativePath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigRelativePath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs(projectConfigName)
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the state and cache directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.CacheDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// Classifier builds the extension classifier from the configured sets.
func (c *Config) Classifier() media.Classifier {
	return media.Classifier{
		Video: media.NewExtensionSet(c.Search.VideoExtensions...),
		Skip:  media.NewExtensionSet(c.Search.SkipExtensions...),
	}
}

// QueryBuilder builds the query builder from the configured stop words.
func (c *Config) QueryBuilder() naming.Builder {
	return naming.Builder{
		StopWords:   naming.NewStopWords(c.Search.StopWords...).With(c.Search.ExtraStopWords...),
		LettersOnly: c.Search.LettersOnlyTokens,
	}
}

// NotFoundCooldown returns the window during which a not-found file is not
// searched again. Zero disables the cooldown.
func (c *Config) NotFoundCooldown() time.Duration {
	if c.Search.NotFoundCooldownHours <= 0 {
		return 0
	}
	return time.Duration(c.Search.NotFoundCooldownHours) * time.Hour
}

// HistoryRetention returns how long outcome records are kept. Zero keeps them
// forever.
func (c *Config) HistoryRetention() time.Duration {
	if c.History.RetentionDays <= 0 {
		return 0
	}
	return time.Duration(c.History.RetentionDays) * 24 * time.Hour
}

// RequestTimeout returns the catalog HTTP timeout.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.OpenSubtitles.TimeoutSeconds) * time.Second
}

// LogFilePath returns the absolute log file path, or "" when file logging is off.
func (c *Config) LogFilePath() string {
	file := strings.TrimSpace(c.Logging.File)
	if file == "" {
		return ""
	}
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.Paths.LogDir, file)
}

// LockPath returns the process lock location.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "subfetch.lock")
}

// Encode renders the configuration as TOML.
func (c *Config) Encode() ([]byte, error) {
	redacted := *c
	if redacted.OpenSubtitles.APIKey != "" {
		redacted.OpenSubtitles.APIKey = "<redacted>"
	}
	if redacted.OpenSubtitles.Password != "" {
		redacted.OpenSubtitles.Password = "<redacted>"
	}
	data, err := toml.Marshal(redacted)
	if err != nil {
		return nil, fmt.Errorf("encode config: %w", err)
	}
	return data, nil
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
// An existing file is left untouched.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrExist) {
			return fmt.Errorf("config already exists at %s", path)
		}
		return fmt.Errorf("write sample config: %w", err)
	}
	if _, err := file.WriteString(sampleConfig); err != nil {
		file.Close()
		return fmt.Errorf("write sample config: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
