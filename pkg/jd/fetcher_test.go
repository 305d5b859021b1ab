package jd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/pkg/errors"
)

// scrapeService fakes the scrape endpoint, echoing statuses keyed by the requested URL.
func scrapeService(t *testing.T) *httptest.Server {
	t.Helper()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Expected POST, got %s", r.Method)
		}

		if r.Header.Get("Content-Type") != "application/json" {
			t.Error("Missing JSON content type")
		}

		var body struct {
			URL string `json:"url"`
		}
		err := json.NewDecoder(r.Body).Decode(&body)
		if err != nil {
			t.Errorf("Failed to decode request: %v", err)
		}

		w.Header().Set("Content-Type", "application/json")
		switch body.URL {
		case "https://jobs.example.com/ok":
			_, _ = w.Write([]byte(`{"description":"  Senior Go Engineer  "}`))
		case "https://jobs.example.com/empty":
			_, _ = w.Write([]byte(`{"description":""}`))
		case "https://jobs.example.com/unextractable":
			w.WriteHeader(http.StatusUnprocessableEntity)
			_, _ = w.Write([]byte(`{"error":"Could not extract job description"}`))
		case "https://jobs.example.com/forbidden":
			w.WriteHeader(http.StatusForbidden)
			_, _ = w.Write([]byte(`{"error":"Failed to fetch page (403)"}`))
		default:
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte(`not json`))
		}
	}))
	t.Cleanup(server.Close)

	return server
}

func TestNewClientDefaults(t *testing.T) {
	client := NewClient("")
	if client.Endpoint() != DefaultScrapeURL {
		t.Errorf("Expected endpoint '%s', got '%s'", DefaultScrapeURL, client.Endpoint())
	}

	if client.httpClient == nil {
		t.Error("Expected non-nil HTTP client")
	}
}

func TestIsURL(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{input: "https://example.com/jobs/1", want: true},
		{input: "http://example.com", want: true},
		{input: " https://example.com ", want: true},
		{input: "ftp://example.com", want: false},
		{input: "jd.txt", want: false},
		{input: "/tmp/jd.txt", want: false},
		{input: "https://", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := IsURL(tt.input); got != tt.want {
				t.Errorf("IsURL(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestScrape(t *testing.T) {
	server := scrapeService(t)
	client := NewClient(server.URL)

	description, err := client.Scrape(context.Background(), "https://jobs.example.com/ok")
	if err != nil {
		t.Fatalf("Scrape failed: %v", err)
	}

	if description != "Senior Go Engineer" {
		t.Errorf("Expected trimmed description, got '%s'", description)
	}
}

func TestScrapeErrors(t *testing.T) {
	server := scrapeService(t)
	client := NewClient(server.URL)
	ctx := context.Background()

	// Invalid URLs never reach the service.
	_, err := client.Scrape(ctx, "mailto:someone@example.com")
	if !errors.Is(err, ErrInvalidURL) {
		t.Errorf("Expected ErrInvalidURL, got %v", err)
	}

	_, err = client.Scrape(ctx, "https://jobs.example.com/unextractable")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("Expected ErrExtractionFailed for 422, got %v", err)
	}

	_, err = client.Scrape(ctx, "https://jobs.example.com/empty")
	if !errors.Is(err, ErrExtractionFailed) {
		t.Errorf("Expected ErrExtractionFailed for empty description, got %v", err)
	}

	_, err = client.Scrape(ctx, "https://jobs.example.com/forbidden")
	var fetchErr *FetchFailedError
	if !errors.As(err, &fetchErr) {
		t.Fatalf("Expected FetchFailedError, got %v", err)
	}
	if fetchErr.Status != http.StatusForbidden {
		t.Errorf("Expected status 403, got %d", fetchErr.Status)
	}
	if fetchErr.Message != "Failed to fetch page (403)" {
		t.Errorf("Expected service message, got '%s'", fetchErr.Message)
	}

	// Non-JSON error bodies still produce a status error.
	_, err = client.Scrape(ctx, "https://jobs.example.com/other")
	if !errors.As(err, &fetchErr) || fetchErr.Status != http.StatusInternalServerError {
		t.Errorf("Expected 500 FetchFailedError, got %v", err)
	}
}

func TestScrapeTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := NewClient(server.URL).Scrape(ctx, "https://jobs.example.com/ok")
	if err == nil {
		t.Error("Expected timeout error, got nil")
	}
}

func TestFetchWithContextFile(t *testing.T) {
	tmpDir := t.TempDir()
	testFile := filepath.Join(tmpDir, "jd.txt")
	testContent := "This is a test job description."

	err := os.WriteFile(testFile, []byte(testContent+"\n"), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	content, err := FetchWithContext(context.Background(), nil, testFile)
	if err != nil {
		t.Fatalf("Failed to fetch from file: %v", err)
	}

	if content != testContent {
		t.Errorf("Expected content '%s', got '%s'", testContent, content)
	}
}

func TestFetchWithContextFileErrors(t *testing.T) {
	_, err := FetchWithContext(context.Background(), nil, "/nonexistent/file.txt")
	if err == nil {
		t.Error("Expected error fetching nonexistent file, got nil")
	}

	emptyFile := filepath.Join(t.TempDir(), "empty.txt")
	err = os.WriteFile(emptyFile, []byte(""), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	_, err = FetchWithContext(context.Background(), nil, emptyFile)
	if err == nil {
		t.Error("Expected error fetching empty file, got nil")
	}
}

func TestFetchWithContextURL(t *testing.T) {
	server := scrapeService(t)

	content, err := FetchWithContext(context.Background(), NewClient(server.URL), "https://jobs.example.com/ok")
	if err != nil {
		t.Fatalf("Failed to fetch from URL: %v", err)
	}

	if content != "Senior Go Engineer" {
		t.Errorf("Expected scraped content, got '%s'", content)
	}
}

func TestFetch(t *testing.T) {
	testFile := filepath.Join(t.TempDir(), "test.md")

	err := os.WriteFile(testFile, []byte("Test"), 0600)
	if err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	content, err := Fetch(nil, testFile)
	if err != nil {
		t.Fatalf("Failed to fetch: %v", err)
	}

	if content != "Test" {
		t.Errorf("Expected 'Test', got '%s'", content)
	}
}
