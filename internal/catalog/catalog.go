// Package catalog defines the remote subtitle catalog contract and the
// candidate selection policy shared by every catalog backend.
package catalog

import "context"

// Candidate is a subtitle entry returned by a catalog lookup.
type Candidate struct {
	Title        string
	LanguageName string
	DownloadLink string

	LanguageCode string
	FileID       int64
	Release      string
	Downloads    int
}

// TextQuery describes a text lookup. Season and Episode are digit strings
// passed through literally; empty means unconstrained.
type TextQuery struct {
	Query        string
	Season       string
	Episode      string
	MaxResults   int
	LanguageCode string
}

// Catalog is a remote subtitle catalog. Implementations must be safe for
// concurrent use once logged in.
type Catalog interface {
	// Login opens a session. Empty credentials open an anonymous session.
	Login(ctx context.Context, username, password string) error
	Logout(ctx context.Context) error
	SearchBySignature(ctx context.Context, path, languageCode string) ([]Candidate, error)
	SearchByText(ctx context.Context, query TextQuery) ([]Candidate, error)
	// DownloadLink resolves the URL for a candidate without a direct link.
	DownloadLink(ctx context.Context, candidate Candidate) (string, error)
}
