package scrape

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Path is where the scrape endpoint is mounted.
const Path = "/api/scrape"

// Scraper turns a job posting URL into description text.
type Scraper interface {
	Scrape(ctx context.Context, rawURL string) (description string, err error)
}

type scrapeRequest struct {
	URL string `json:"url"`
}

type scrapeResponse struct {
	Description string `json:"description,omitempty"`
	Error       string `json:"error,omitempty"`
}

// Handler serves POST /api/scrape.
type Handler struct {
	scraper Scraper
	logger  *slog.Logger
}

// NewHandler creates a handler around scraper. A nil logger uses slog.Default().
func NewHandler(scraper Scraper, logger *slog.Logger) (h *Handler) {
	if logger == nil {
		logger = slog.Default()
	}
	h = &Handler{
		scraper: scraper,
		logger:  logger,
	}
	return h
}

// RegisterRoutes mounts the scrape and health endpoints on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.Handle(Path, h)
	mux.HandleFunc("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		writeJSON(w, http.StatusMethodNotAllowed, scrapeResponse{Error: "Method not allowed"})
		return
	}

	var req scrapeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 64*1024)).Decode(&req); err != nil {
		h.logger.Warn("scrape request body invalid", "err", err)
		writeJSON(w, http.StatusBadRequest, scrapeResponse{Error: "URL is required"})
		return
	}

	start := time.Now()
	description, err := h.scraper.Scrape(r.Context(), req.URL)
	if err != nil {
		status, message := classify(err)
		h.logger.Warn("scrape failed", "url", req.URL, "status", status, "err", err)
		writeJSON(w, status, scrapeResponse{Error: message})
		return
	}

	h.logger.Info("scraped job post", "url", req.URL, "chars", len(description), "took", time.Since(start))
	writeJSON(w, http.StatusOK, scrapeResponse{Description: description})
}

// classify maps a scrape error to its HTTP status and user-facing message.
func classify(err error) (status int, message string) {
	var upstream *UpstreamStatusError
	switch {
	case errors.Is(err, ErrURLRequired):
		status, message = http.StatusBadRequest, "URL is required"
	case errors.Is(err, ErrInvalidURL):
		status, message = http.StatusBadRequest, "Invalid URL"
	case errors.Is(err, ErrSchemeNotAllowed):
		status, message = http.StatusBadRequest, "Only http/https URLs are allowed"
	case errors.As(err, &upstream):
		status, message = upstream.Status, fmt.Sprintf("Failed to fetch page (%d)", upstream.Status)
		if status < http.StatusBadRequest {
			status = http.StatusBadGateway
		}
	case errors.Is(err, ErrNoDescription):
		status, message = http.StatusUnprocessableEntity, "Could not extract job description"
	default:
		status, message = http.StatusInternalServerError, "Failed to scrape job post"
	}
	return status, message
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// Serve runs the scrape service on addr until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, addr string, scraper Scraper, logger *slog.Logger) (err error) {
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()
	NewHandler(scraper, logger).RegisterRoutes(mux)

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      DefaultTimeout + 10*time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("scrape service listening", "addr", addr, "path", Path)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err = <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
		if err != nil {
			err = errors.Wrap(err, "scrape service failed")
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("scrape service shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		err = errors.Wrap(err, "scrape service shutdown failed")
		return err
	}

	logger.Info("scrape service stopped")
	return err
}
