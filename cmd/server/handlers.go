// cmd/server/handlers.go
package main

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"github.com/fundscope/dealparse/internal/extract"
	"github.com/fundscope/dealparse/internal/fetch"
	"github.com/fundscope/dealparse/internal/monitoring"
)

type server struct {
	svc     *extract.Service
	fetcher pageFetcher
	metrics *monitoring.Metrics
	started time.Time
}

// pageFetcher retrieves markup for an episode locator.
type pageFetcher interface {
	Allow(rawURL string) error
	PageContext(r *http.Request, rawURL string) (string, error)
}

func newServer(f pageFetcher, metrics *monitoring.Metrics) *server {
	return &server{
		svc:     extract.NewService(),
		fetcher: f,
		metrics: metrics,
		started: time.Now(),
	}
}

func (s *server) routes(metricsPath string, metricsEnabled bool) http.Handler {
	r := mux.NewRouter()

	r.HandleFunc("/health", monitoring.HealthHandler(s.started)).Methods(http.MethodGet)
	if metricsEnabled {
		r.Handle(metricsPath, s.metrics.Handler()).Methods(http.MethodGet)
	}

	api := r.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/episode", s.episodeHandler).Methods(http.MethodGet)
	api.HandleFunc("/memo", s.memoHandler).Methods(http.MethodPost)

	return r
}

// errorEnvelope is the failure shape shared by both endpoints.
type errorEnvelope struct {
	Error   string `json:"error"`
	Success bool   `json:"success"`
}

func (s *server) episodeHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	locator := r.URL.Query().Get("url")
	if locator == "" {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: "url parameter is required"})
		return
	}

	fields, err := extract.ParseFieldSelector(r.URL.Query().Get("extract"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: err.Error()})
		return
	}

	if err := s.fetcher.Allow(locator); err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: err.Error()})
		return
	}

	markup, err := s.fetcher.PageContext(r, locator)
	if err != nil {
		s.metrics.RecordRetrievalFailure()
		log.Printf("episode fetch failed for %s: %v", locator, err)
		writeJSON(w, http.StatusBadGateway, errorEnvelope{Error: "failed to retrieve source page"})
		return
	}

	result, err := s.svc.ExtractEpisode(markup, locator, fields)
	s.recordEpisode(result, time.Since(start))

	switch {
	case errors.Is(err, extract.ErrRetrievalFailed):
		writeJSON(w, http.StatusBadGateway, errorEnvelope{Error: "source page could not be parsed"})
	case errors.Is(err, extract.ErrNoFields):
		writeJSON(w, http.StatusNotFound, result)
	case err != nil:
		writeJSON(w, http.StatusInternalServerError, errorEnvelope{Error: "extraction failed"})
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

func (s *server) memoHandler(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	text, err := readMemoText(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorEnvelope{Error: err.Error()})
		return
	}

	result := s.svc.ParseMemo(text)

	s.metrics.RecordExtraction("memo", true, time.Since(start))
	for _, field := range result.Parsed {
		s.metrics.RecordField("memo", string(field), "", true)
	}
	for _, field := range result.Failed {
		s.metrics.RecordField("memo", string(field), "", false)
	}

	writeJSON(w, http.StatusOK, result)
}

func (s *server) recordEpisode(result *extract.EpisodeResult, duration time.Duration) {
	if result == nil {
		s.metrics.RecordExtraction("episode", false, duration)
		return
	}
	s.metrics.RecordExtraction("episode", result.Success, duration)
	for _, v := range result.Fields {
		s.metrics.RecordField("episode", string(v.Field), v.Method, v.Found)
	}
}

// readMemoText accepts either a JSON body {"text": "..."} or a raw
// text/plain body.
func readMemoText(r *http.Request) (string, error) {
	defer r.Body.Close()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return "", errors.New("failed to read request body")
	}
	if len(body) == 0 {
		return "", errors.New("memo text is required")
	}

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var payload struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			return "", errors.New("invalid JSON body")
		}
		if payload.Text == "" {
			return "", errors.New("memo text is required")
		}
		return payload.Text, nil
	}

	return string(body), nil
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// fetchAdapter narrows fetch.Client onto pageFetcher using the request's
// context for cancellation.
type fetchAdapter struct {
	client *fetch.Client
}

func (a fetchAdapter) Allow(rawURL string) error {
	return a.client.Allow(rawURL)
}

func (a fetchAdapter) PageContext(r *http.Request, rawURL string) (string, error) {
	return a.client.Page(r.Context(), rawURL)
}
