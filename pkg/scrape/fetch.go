package scrape

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/pkg/errors"
)

const (
	// DefaultTimeout bounds a single page fetch.
	DefaultTimeout = 30 * time.Second
	// BrowserUserAgent is sent so job boards serve the same markup a browser would see.
	BrowserUserAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"
	// BrowserAccept mirrors a browser's Accept header for page navigations.
	BrowserAccept = "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8"
	// maxPageSize caps how much of a page is read.
	maxPageSize = 10 * 1024 * 1024
)

var (
	// ErrURLRequired is returned for an empty URL.
	ErrURLRequired = errors.New("URL is required")
	// ErrInvalidURL is returned when the URL does not parse as an absolute URL.
	ErrInvalidURL = errors.New("invalid URL")
	// ErrSchemeNotAllowed is returned for anything other than http or https.
	ErrSchemeNotAllowed = errors.New("only http/https URLs are allowed")
)

// UpstreamStatusError reports a non-success status from the job page.
type UpstreamStatusError struct {
	URL    string
	Status int
}

func (e *UpstreamStatusError) Error() (msg string) {
	msg = fmt.Sprintf("failed to fetch page (%d)", e.Status)
	return msg
}

// ValidateURL parses raw and requires an absolute http or https URL.
func ValidateURL(raw string) (parsed *url.URL, err error) {
	if raw == "" {
		err = ErrURLRequired
		return parsed, err
	}

	parsed, err = url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		err = errors.Wrapf(ErrInvalidURL, "%q", raw)
		return parsed, err
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		err = errors.Wrapf(ErrSchemeNotAllowed, "scheme %q", parsed.Scheme)
		return parsed, err
	}

	if parsed.Host == "" {
		err = errors.Wrapf(ErrInvalidURL, "%q has no host", raw)
		return parsed, err
	}

	return parsed, err
}

// Fetcher retrieves job pages over HTTP.
type Fetcher struct {
	httpClient *http.Client
}

// NewFetcher creates a Fetcher using the given client, or a default one with DefaultTimeout.
func NewFetcher(httpClient *http.Client) (f *Fetcher) {
	if httpClient == nil {
		httpClient = &http.Client{
			Timeout: DefaultTimeout,
		}
	}
	f = &Fetcher{httpClient: httpClient}
	return f
}

// Fetch returns the raw HTML at rawURL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (page string, err error) {
	var parsed *url.URL
	parsed, err = ValidateURL(rawURL)
	if err != nil {
		return page, err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodGet, parsed.String(), nil)
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return page, err
	}

	req.Header.Set("User-Agent", BrowserUserAgent)
	req.Header.Set("Accept", BrowserAccept)

	var resp *http.Response
	resp, err = f.httpClient.Do(req)
	if err != nil {
		err = errors.Wrap(err, "HTTP request failed")
		return page, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &UpstreamStatusError{URL: parsed.String(), Status: resp.StatusCode}
		return page, err
	}

	var body []byte
	body, err = io.ReadAll(io.LimitReader(resp.Body, maxPageSize))
	if err != nil {
		err = errors.Wrap(err, "failed to read response body")
		return page, err
	}

	page = string(body)
	return page, err
}

// Scrape fetches rawURL and extracts its job description.
func (f *Fetcher) Scrape(ctx context.Context, rawURL string) (description string, err error) {
	var page string
	page, err = f.Fetch(ctx, rawURL)
	if err != nil {
		return description, err
	}

	description, err = Extract(page)
	return description, err
}
