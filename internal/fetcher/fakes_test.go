package fetcher

import (
	"context"
	"os"
	"sync"

	"subfetch/internal/catalog"
)

type fakeCatalog struct {
	mu sync.Mutex

	signature    []catalog.Candidate
	signatureErr error
	text         []catalog.Candidate
	textErr      error
	link         string
	loginErr     error

	signatureCalls []string
	textCalls      []catalog.TextQuery
	linkCalls      int
	logins         int
	logouts        int
}

func (f *fakeCatalog) Login(context.Context, string, string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logins++
	return f.loginErr
}

func (f *fakeCatalog) Logout(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logouts++
	return nil
}

func (f *fakeCatalog) SearchBySignature(_ context.Context, path, _ string) ([]catalog.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signatureCalls = append(f.signatureCalls, path)
	return f.signature, f.signatureErr
}

func (f *fakeCatalog) SearchByText(_ context.Context, query catalog.TextQuery) ([]catalog.Candidate, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.textCalls = append(f.textCalls, query)
	return f.text, f.textErr
}

func (f *fakeCatalog) DownloadLink(context.Context, catalog.Candidate) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.linkCalls++
	return f.link, nil
}

func (f *fakeCatalog) counts() (signature, text int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.signatureCalls), len(f.textCalls)
}

type fakeDownloader struct {
	mu   sync.Mutex
	urls []string
	body string
	err  error
}

func (d *fakeDownloader) Fetch(_ context.Context, url, dest string) error {
	d.mu.Lock()
	d.urls = append(d.urls, url)
	d.mu.Unlock()
	if d.err != nil {
		return d.err
	}
	body := d.body
	if body == "" {
		body = "1\n00:00:01,000 --> 00:00:02,000\nHello\n"
	}
	return os.WriteFile(dest, []byte(body), 0o644)
}

func (d *fakeDownloader) fetched() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.urls...)
}

func english(title, link string) catalog.Candidate {
	return catalog.Candidate{Title: title, LanguageName: "English", LanguageCode: "en", DownloadLink: link}
}

func french(title, link string) catalog.Candidate {
	return catalog.Candidate{Title: title, LanguageName: "French", LanguageCode: "fr", DownloadLink: link}
}
