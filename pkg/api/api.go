// pkg/api/api.go
package api

import (
	"context"
	"fmt"

	"github.com/fundscope/dealparse/internal/config"
	"github.com/fundscope/dealparse/internal/episode"
	"github.com/fundscope/dealparse/internal/extract"
	"github.com/fundscope/dealparse/internal/fetch"
	"github.com/fundscope/dealparse/internal/memo"
)

// Re-export types from internal packages for the public API.
type Config = config.Config
type Duration = config.Duration
type EpisodeResult = extract.EpisodeResult
type MemoResult = memo.Result
type MemoField = memo.Field
type EpisodeField = episode.Field

// Re-export the error taxonomy so callers can classify failures with
// errors.Is without importing internal packages.
var (
	ErrInputRejected   = extract.ErrInputRejected
	ErrRetrievalFailed = extract.ErrRetrievalFailed
	ErrNoFields        = extract.ErrNoFields
)

// Client is the high-level interface to both extraction engines. It owns the
// page retrieval client; the extraction core itself performs no I/O.
type Client struct {
	svc     *extract.Service
	fetcher *fetch.Client
}

// NewClient creates a client from the given configuration. A nil config uses
// defaults.
func NewClient(cfg *Config) (*Client, error) {
	if cfg == nil {
		cfg = config.Default()
	} else {
		cfg = cfg.WithDefaults()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &Client{
		svc: extract.NewService(),
		fetcher: fetch.New(fetch.Config{
			Timeout:       cfg.Fetch.Timeout.Std(),
			RetryAttempts: cfg.Fetch.RetryAttempts,
			RetryDelay:    cfg.Fetch.RetryDelay.Std(),
			RateLimit:     cfg.Fetch.RateLimit,
			RateBurst:     cfg.Fetch.RateBurst,
			UserAgents:    cfg.Fetch.UserAgents,
			AllowedHosts:  cfg.Source.AllowedHosts,
		}),
	}, nil
}

// ExtractEpisode fetches the page at rawURL and extracts the selected fields.
// The selector accepts "all" (or empty), "date", "title", "season", or
// "shownotes".
func (c *Client) ExtractEpisode(ctx context.Context, rawURL, selector string) (*EpisodeResult, error) {
	fields, err := extract.ParseFieldSelector(selector)
	if err != nil {
		return nil, err
	}

	if err := c.fetcher.Allow(rawURL); err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrInputRejected, err)
	}

	markup, err := c.fetcher.Page(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", extract.ErrRetrievalFailed, err)
	}

	return c.svc.ExtractEpisode(markup, rawURL, fields)
}

// ExtractEpisodeFromMarkup extracts the selected fields from markup the
// caller already holds, skipping retrieval.
func (c *Client) ExtractEpisodeFromMarkup(markup, rawURL, selector string) (*EpisodeResult, error) {
	fields, err := extract.ParseFieldSelector(selector)
	if err != nil {
		return nil, err
	}
	return c.svc.ExtractEpisode(markup, rawURL, fields)
}

// ParseMemo parses pasted investment memo text. It never fails: fields that
// cannot be recovered appear in the result's failed partition.
func (c *Client) ParseMemo(text string) *MemoResult {
	return c.svc.ParseMemo(text)
}
