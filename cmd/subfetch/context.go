package main

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"subfetch/internal/config"
	"subfetch/internal/logging"
)

type commandContext struct {
	configFlag *string
	logLevel   string
	verbose    bool

	configOnce sync.Once
	config     *config.Config
	configPath string
	configSeen bool
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, resolved, exists, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.configPath = resolved
		c.configSeen = exists
	})
	return c.config, c.configErr
}

// newLogger builds the run logger. Console output goes to stderr so stdout
// carries only tables and summaries.
func (c *commandContext) newLogger(cfg *config.Config, stderr io.Writer) (*slog.Logger, io.Closer, error) {
	level := cfg.Logging.Level
	if c.verbose {
		level = "debug"
	}
	if strings.TrimSpace(c.logLevel) != "" {
		level = c.logLevel
	}
	logger, closer, err := logging.New(logging.Options{
		Level:      level,
		Format:     cfg.Logging.Format,
		Output:     stderr,
		File:       cfg.LogFilePath(),
		MaxSizeMB:  cfg.Logging.MaxSizeMB,
		MaxBackups: cfg.Logging.MaxBackups,
	})
	if err != nil {
		return nil, nil, &usageError{err: fmt.Errorf("logging: %w", err)}
	}
	return logger, closer, nil
}
