// Package fetcher sequences subtitle retrieval for discovered media files.
//
// A Runner classifies each file, skips videos that already have a subtitle,
// tries a signature lookup, falls back to a text lookup built from the
// filename, selects a candidate by language, and downloads it next to the
// video. Every file yields an Outcome; a failing file never stops the run.
// Outcomes are persisted to the history store when one is attached.
package fetcher
