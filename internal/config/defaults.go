package config

import (
	"subfetch/internal/media"
	"subfetch/internal/naming"
)

const (
	defaultStateDir           = "~/.local/share/subfetch"
	defaultCacheDir           = "~/.cache/subfetch/opensubtitles"
	defaultLogDir             = "~/.local/share/subfetch/logs"
	defaultUserAgent          = "subfetch v1.0"
	defaultBaseURL            = "https://api.opensubtitles.com/api/v1"
	defaultTimeoutSeconds     = 45
	defaultLanguageCode       = "en"
	defaultLanguagePrefix     = "eng"
	defaultMaxResults         = 10
	defaultSubtitleExtension  = ".srt"
	defaultLogFormat          = "console"
	defaultLogLevel           = "info"
	defaultLogMaxSizeMB       = 10
	defaultLogMaxBackups      = 3
	defaultWorkers            = 1
	defaultRetentionDays      = 90
	maxWorkers                = 16
	defaultConfigRelativePath = "~/.config/subfetch/config.toml"
	projectConfigName         = "subfetch.toml"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			CacheDir: defaultCacheDir,
			LogDir:   defaultLogDir,
		},
		OpenSubtitles: OpenSubtitles{
			UserAgent:      defaultUserAgent,
			BaseURL:        defaultBaseURL,
			TimeoutSeconds: defaultTimeoutSeconds,
		},
		Search: Search{
			LanguageCode:      defaultLanguageCode,
			LanguagePrefix:    defaultLanguagePrefix,
			MaxResults:        defaultMaxResults,
			SubtitleExtension: defaultSubtitleExtension,
			UseHash:           true,
			VideoExtensions:   append([]string(nil), media.DefaultVideoExtensions...),
			SkipExtensions:    append([]string(nil), media.DefaultSkipExtensions...),
			StopWords:         append([]string(nil), naming.DefaultStopWords...),
			Workers:           defaultWorkers,
		},
		History: History{
			RetentionDays: defaultRetentionDays,
		},
		Logging: Logging{
			Format:     defaultLogFormat,
			Level:      defaultLogLevel,
			MaxSizeMB:  defaultLogMaxSizeMB,
			MaxBackups: defaultLogMaxBackups,
		},
	}
}
