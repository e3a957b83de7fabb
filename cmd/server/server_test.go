// cmd/server/server_test.go
package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/fundscope/dealparse/internal/extract"
	"github.com/fundscope/dealparse/internal/fetch"
	"github.com/fundscope/dealparse/internal/monitoring"
)

const testEpisodePage = `<html><head>
	<meta property="article:published_time" content="2025-06-18T00:00:00Z">
</head><body>
	<h1>E42: Scaling the Fund</h1>
	<a href="/season-6">Season six</a>
	<div class="show-notes">We cover portfolio construction... and more.</div>
</body></html>`

// stubFetcher serves canned markup without network access.
type stubFetcher struct {
	markup   string
	fetchErr error
	allowErr error
}

func (f stubFetcher) Allow(rawURL string) error { return f.allowErr }

func (f stubFetcher) PageContext(r *http.Request, rawURL string) (string, error) {
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	return f.markup, nil
}

func setupTestServer(f pageFetcher) *httptest.Server {
	srv := newServer(f, monitoring.New("testns"))
	return httptest.NewServer(srv.routes("/metrics", true))
}

func TestHealthEndpoint(t *testing.T) {
	server := setupTestServer(stubFetcher{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/health")
	if err != nil {
		t.Fatalf("health check failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(stubFetcher{})
	defer server.Close()

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Errorf("expected status 200, got %d", resp.StatusCode)
	}
}

func TestEpisodeEndpointAllFields(t *testing.T) {
	server := setupTestServer(stubFetcher{markup: testEpisodePage})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/episode?url=https://podcast.example.com/e42&extract=all")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result extract.EpisodeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !result.Success {
		t.Error("expected success")
	}
	if result.PublishDate != "2025-06-18" {
		t.Errorf("publishDate = %q", result.PublishDate)
	}
	if result.EpisodeSeason != 6 {
		t.Errorf("episodeSeason = %d", result.EpisodeSeason)
	}
}

func TestEpisodeEndpointSingleField(t *testing.T) {
	server := setupTestServer(stubFetcher{markup: testEpisodePage})
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/episode?url=https://podcast.example.com/e42&extract=date")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	var result extract.EpisodeResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.ExtractionMethod != "meta_published_time" {
		t.Errorf("extractionMethod = %q", result.ExtractionMethod)
	}
	if result.EpisodeTitle != "" {
		t.Error("unrequested fields must not be populated")
	}
}

func TestEpisodeEndpointStatusMapping(t *testing.T) {
	tests := []struct {
		name           string
		fetcher        stubFetcher
		query          string
		expectedStatus int
	}{
		{
			"missing url",
			stubFetcher{},
			"",
			http.StatusBadRequest,
		},
		{
			"unknown selector",
			stubFetcher{markup: testEpisodePage},
			"?url=https://podcast.example.com/e42&extract=transcript",
			http.StatusBadRequest,
		},
		{
			"disallowed host",
			stubFetcher{allowErr: fetch.ErrDisallowedHost},
			"?url=https://evil.example.org/x",
			http.StatusBadRequest,
		},
		{
			"retrieval failure",
			stubFetcher{fetchErr: errors.New("connection refused")},
			"?url=https://podcast.example.com/e42",
			http.StatusBadGateway,
		},
		{
			"field not found",
			stubFetcher{markup: "<html><body></body></html>"},
			"?url=https://podcast.example.com/e42&extract=season",
			http.StatusNotFound,
		},
		{
			"empty page",
			stubFetcher{markup: "<html><body></body></html>"},
			"?url=https://podcast.example.com/e42",
			http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(tt.fetcher)
			defer server.Close()

			resp, err := http.Get(server.URL + "/api/v1/episode" + tt.query)
			if err != nil {
				t.Fatalf("request failed: %v", err)
			}
			defer resp.Body.Close()

			if resp.StatusCode != tt.expectedStatus {
				t.Errorf("status = %d, want %d", resp.StatusCode, tt.expectedStatus)
			}
		})
	}
}

func TestEpisodeRequestFeedsFieldMetrics(t *testing.T) {
	server := setupTestServer(stubFetcher{markup: testEpisodePage})
	defer server.Close()

	if _, err := http.Get(server.URL + "/api/v1/episode?url=https://podcast.example.com/e42"); err != nil {
		t.Fatalf("episode request failed: %v", err)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}

	exposition := string(body)
	for _, line := range []string{
		`testns_extraction_strategy_hits_total{field="publishDate",method="meta_published_time"} 1`,
		`testns_extraction_strategy_hits_total{field="season",method="season_link_path"} 1`,
		`testns_extraction_fields_total{engine="episode",field="title",outcome="success"} 1`,
	} {
		if !strings.Contains(exposition, line) {
			t.Errorf("metrics exposition missing %q", line)
		}
	}
}

func TestEpisodeMissRecordsFieldFailure(t *testing.T) {
	server := setupTestServer(stubFetcher{markup: "<html><body><h1>E1: Title Only</h1></body></html>"})
	defer server.Close()

	if _, err := http.Get(server.URL + "/api/v1/episode?url=https://podcast.example.com/e1"); err != nil {
		t.Fatalf("episode request failed: %v", err)
	}

	resp, err := http.Get(server.URL + "/metrics")
	if err != nil {
		t.Fatalf("metrics request failed: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read metrics body: %v", err)
	}

	if !strings.Contains(string(body), `testns_extraction_fields_total{engine="episode",field="season",outcome="failure"} 1`) {
		t.Error("expected a recorded failure outcome for the absent season field")
	}
}

func TestMemoEndpointPlainText(t *testing.T) {
	server := setupTestServer(stubFetcher{})
	defer server.Close()

	resp, err := http.Post(
		server.URL+"/api/v1/memo",
		"text/plain",
		strings.NewReader("Investment Amount: $250,000"),
	)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Extracted map[string]interface{} `json:"extractedData"`
		Parsed    []string               `json:"successfullyParsed"`
		Failed    []string               `json:"failedToParse"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Extracted["investment_amount"] != 250000.0 {
		t.Errorf("investment_amount = %v", result.Extracted["investment_amount"])
	}
	if len(result.Parsed)+len(result.Failed) != 16 {
		t.Errorf("partition covers %d fields, want 16", len(result.Parsed)+len(result.Failed))
	}
}

func TestMemoEndpointJSONBody(t *testing.T) {
	server := setupTestServer(stubFetcher{})
	defer server.Close()

	body, _ := json.Marshal(map[string]string{"text": "Company: Acme\nFounder: Jane Doe"})
	resp, err := http.Post(server.URL+"/api/v1/memo", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected status 200, got %d", resp.StatusCode)
	}

	var result struct {
		Extracted map[string]interface{} `json:"extractedData"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if result.Extracted["company_name"] != "Acme" {
		t.Errorf("company_name = %v", result.Extracted["company_name"])
	}
	if result.Extracted["founder_name"] != "Jane Doe" {
		t.Errorf("founder_name = %v", result.Extracted["founder_name"])
	}
}

func TestMemoEndpointEmptyBody(t *testing.T) {
	server := setupTestServer(stubFetcher{})
	defer server.Close()

	resp, err := http.Post(server.URL+"/api/v1/memo", "text/plain", strings.NewReader(""))
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", resp.StatusCode)
	}
}
