package jd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/nikogura/resumeforge/pkg/extract"
	"github.com/pkg/errors"
	"github.com/tidwall/gjson"
)

const (
	// DefaultScrapeURL is where `resumeforge serve` listens by default.
	DefaultScrapeURL = "http://localhost:8787/api/scrape"
	// DefaultTimeout bounds a scrape round trip.
	DefaultTimeout = 30 * time.Second
)

var (
	// ErrInvalidURL is returned for input that is not an absolute http(s) URL.
	ErrInvalidURL = errors.New("invalid job URL")
	// ErrExtractionFailed is returned when the scrape service found no usable text.
	ErrExtractionFailed = errors.New("could not extract job description")
)

// FetchFailedError reports a non-success reply from the scrape service.
type FetchFailedError struct {
	Status  int
	Message string
}

func (e *FetchFailedError) Error() (msg string) {
	if e.Message != "" {
		msg = fmt.Sprintf("scrape failed with status %d: %s", e.Status, e.Message)
		return msg
	}
	msg = fmt.Sprintf("scrape failed with status %d", e.Status)
	return msg
}

// Client talks to the remote scrape service. It never parses HTML itself.
type Client struct {
	endpoint   string
	httpClient *http.Client
}

// NewClient creates a scrape client for endpoint. An empty endpoint uses DefaultScrapeURL.
func NewClient(endpoint string) (client *Client) {
	if endpoint == "" {
		endpoint = DefaultScrapeURL
	}
	client = &Client{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
	}
	return client
}

// Endpoint returns the scrape service URL.
func (c *Client) Endpoint() (endpoint string) {
	endpoint = c.endpoint
	return endpoint
}

// IsURL reports whether input is an absolute http or https URL.
func IsURL(input string) (ok bool) {
	parsed, err := url.Parse(strings.TrimSpace(input))
	if err != nil {
		return ok
	}
	ok = (parsed.Scheme == "http" || parsed.Scheme == "https") && parsed.Host != ""
	return ok
}

// Scrape asks the scrape service for the job description at rawURL.
func (c *Client) Scrape(ctx context.Context, rawURL string) (description string, err error) {
	rawURL = strings.TrimSpace(rawURL)
	if !IsURL(rawURL) {
		err = errors.Wrapf(ErrInvalidURL, "%q", rawURL)
		return description, err
	}

	var reqBody []byte
	reqBody, err = json.Marshal(map[string]string{"url": rawURL})
	if err != nil {
		err = errors.Wrap(err, "failed to marshal scrape request")
		return description, err
	}

	var req *http.Request
	req, err = http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		err = errors.Wrap(err, "failed to create HTTP request")
		return description, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "resumeforge/1.0")

	var resp *http.Response
	resp, err = c.httpClient.Do(req)
	if err != nil {
		err = errors.Wrap(err, "scrape request failed")
		return description, err
	}
	defer resp.Body.Close()

	var respBody []byte
	respBody, err = io.ReadAll(resp.Body)
	if err != nil {
		err = errors.Wrap(err, "failed to read scrape response")
		return description, err
	}

	reply := gjson.ParseBytes(respBody)

	if resp.StatusCode == http.StatusUnprocessableEntity {
		err = errors.Wrap(ErrExtractionFailed, reply.Get("error").String())
		return description, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		err = &FetchFailedError{
			Status:  resp.StatusCode,
			Message: reply.Get("error").String(),
		}
		return description, err
	}

	description = strings.TrimSpace(reply.Get("description").String())
	if description == "" {
		err = ErrExtractionFailed
		return description, err
	}

	return description, err
}

// Fetch retrieves a job description from a URL (via the scrape service) or a local file.
func Fetch(client *Client, input string) (content string, err error) {
	ctx := context.Background()
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	content, err = FetchWithContext(ctx, client, input)
	return content, err
}

// FetchWithContext retrieves a job description with context.
func FetchWithContext(ctx context.Context, client *Client, input string) (content string, err error) {
	if IsURL(input) {
		if client == nil {
			client = NewClient("")
		}
		content, err = client.Scrape(ctx, input)
		if err != nil {
			err = errors.Wrapf(err, "failed to fetch JD from URL: %s", input)
			return content, err
		}
		return content, err
	}

	content, err = extract.File(input)
	if err != nil {
		err = errors.Wrapf(err, "failed to fetch JD from file: %s", input)
		return content, err
	}

	return content, err
}
