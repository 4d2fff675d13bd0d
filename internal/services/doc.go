// Package services defines shared utilities consumed by the fetch pipeline
// and its external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs, file paths, and stage names for
//     logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into stable hints for logs and the history store.
//
// Use these helpers when wiring new stages so error handling and
// observability stay uniform across the pipeline.
package services
