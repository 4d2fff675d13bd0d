// Package media models discovered library files and classifies them by
// extension.
//
// A File is an immutable value built once per filesystem entry. The
// Classifier decides whether a file is a video worth fetching subtitles for,
// a known byproduct that can be skipped silently, or something unrecognized.
// Extension sets are injected so callers (and tests) can swap vocabularies.
package media
