// Package config loads, normalizes, and validates subfetch configuration data.
//
// It supplies defaults, expands user paths (including tilde shortcuts), reads
// TOML files, and honours environment fallbacks such as OPENSUBTITLES_API_KEY.
// The extension and stop-word vocabularies are built here once and handed to
// the classifier and query builder as immutable values.
package config
