// Package naming turns noisy media filenames into catalog search inputs.
//
// ExtractSeasonEpisode recognizes SxxEyy / SxxXyy markers and keeps the digits
// exactly as written. Builder derives a clean query: it tokenizes the
// filename stem (optionally prefixed by the parent folder), appends a detected
// "part N" fragment, and drops stop words. Everything here is pure and safe
// for concurrent use.
package naming
