// internal/extract/extract.go
// Package extract is the single entry point over both extraction engines. It
// dispatches a request to the episode or memo engine and shapes the uniform
// result envelope callers consume. The façade is stateless: every call is
// independently reproducible from its input.
package extract

import (
	"errors"
	"fmt"
	"strings"

	"github.com/fundscope/dealparse/internal/episode"
	"github.com/fundscope/dealparse/internal/memo"
)

// Error taxonomy. The façade never panics or leaks engine internals; every
// outcome a caller must distinguish is one of these sentinels (or plain data).
var (
	// ErrInputRejected marks a structurally invalid request: unknown kind,
	// unknown field selector, or a locator outside the supported domain.
	ErrInputRejected = errors.New("extraction request rejected")

	// ErrRetrievalFailed marks a page that could not be obtained or parsed at
	// all, as opposed to a field simply not being found.
	ErrRetrievalFailed = errors.New("source page retrieval failed")

	// ErrNoFields marks an otherwise-valid page on which no requested field
	// could be recovered.
	ErrNoFields = errors.New("no requested fields recovered")
)

// Kind discriminates the two request forms.
type Kind string

const (
	KindPage Kind = "page"
	KindMemo Kind = "memo"
)

// Request is the immutable input to one extraction call, constructed once
// per call. Page requests carry the locator plus the markup the calling
// layer already retrieved from it; memo requests carry only the pasted text.
type Request struct {
	Kind    Kind
	Locator string
	Markup  string
	Fields  []episode.Field // empty means all fields
	Text    string
}

// EpisodeResult is the JSON envelope for page extraction. Property names are
// part of the external contract.
type EpisodeResult struct {
	PublishDate      string `json:"publishDate,omitempty"`
	OriginalDate     string `json:"originalDate,omitempty"`
	EpisodeTitle     string `json:"episodeTitle,omitempty"`
	EpisodeSeason    int    `json:"episodeSeason,omitempty"`
	EpisodeShowNotes string `json:"episodeShowNotes,omitempty"`
	ExtractionMethod string `json:"extractionMethod,omitempty"`
	Success          bool   `json:"success"`
	Error            string `json:"error,omitempty"`

	// Fields holds the per-field pipeline outcomes, one entry per requested
	// field whether it was found or not. It is for instrumentation on the
	// calling side and stays out of the JSON envelope.
	Fields []episode.Value `json:"-"`
}

// Response wraps the engine-specific envelope for the unified entry point.
type Response struct {
	Episode *EpisodeResult `json:"episode,omitempty"`
	Memo    *memo.Result   `json:"memo,omitempty"`
}

// Service dispatches extraction requests. It holds no request- or
// process-scoped state, so one instance may serve concurrent calls.
type Service struct{}

// NewService creates the extraction façade.
func NewService() *Service {
	return &Service{}
}

// Handle dispatches a request to the engine its kind selects.
func (s *Service) Handle(req Request) (*Response, error) {
	switch req.Kind {
	case KindPage:
		episodeResult, err := s.ExtractEpisode(req.Markup, req.Locator, req.Fields)
		if episodeResult == nil && err != nil {
			return nil, err
		}
		return &Response{Episode: episodeResult}, err
	case KindMemo:
		return &Response{Memo: s.ParseMemo(req.Text)}, nil
	default:
		return nil, fmt.Errorf("%w: unknown request kind %q", ErrInputRejected, req.Kind)
	}
}

// ExtractEpisode runs the requested episode field pipelines over the given
// markup. An empty field list requests all fields. The returned envelope is
// always populated; the error mirrors its Success flag for callers that
// prefer errors.Is over inspecting the envelope.
func (s *Service) ExtractEpisode(markup, locator string, fields []episode.Field) (*EpisodeResult, error) {
	extractor, err := episode.New(markup, locator)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRetrievalFailed, err)
	}

	if len(fields) == 0 {
		fields = episode.AllFields()
	}

	result := &EpisodeResult{}
	var methods []string
	foundCount := 0

	for _, field := range fields {
		v := extractor.Extract(field)
		result.Fields = append(result.Fields, v)
		if !v.Found {
			continue
		}
		foundCount++
		methods = append(methods, fmt.Sprintf("%s:%s", v.Field, v.Method))

		switch field {
		case episode.FieldPublishDate:
			result.PublishDate = v.Text
			result.OriginalDate = v.Raw
		case episode.FieldTitle:
			result.EpisodeTitle = v.Text
		case episode.FieldSeason:
			result.EpisodeSeason = v.Season
		case episode.FieldShowNotes:
			result.EpisodeShowNotes = v.Text
		}

		// Single-field requests report the bare strategy name.
		if len(fields) == 1 {
			result.ExtractionMethod = v.Method
		}
	}

	if len(fields) > 1 && foundCount > 0 {
		result.ExtractionMethod = strings.Join(methods, ",")
	}

	// A single-field request succeeds iff that field was recovered; an
	// all-fields request succeeds iff at least one field was. A wholly empty
	// page is an error, not a degenerate success.
	result.Success = foundCount > 0
	if !result.Success {
		if len(fields) == 1 {
			result.Error = fmt.Sprintf("field %s not found on page", fields[0])
		} else {
			result.Error = "no fields could be extracted from page"
		}
		return result, fmt.Errorf("%w: %s", ErrNoFields, result.Error)
	}

	return result, nil
}

// ParseMemo runs the memo engine. Partial success is the expected common
// case, so this never returns an error; the failed-field partition carries
// the detail.
func (s *Service) ParseMemo(text string) *memo.Result {
	return memo.Parse(text)
}

// Selector values accepted by ParseFieldSelector.
const (
	SelectorAll       = "all"
	SelectorDate      = "date"
	SelectorTitle     = "title"
	SelectorSeason    = "season"
	SelectorShowNotes = "shownotes"
)

// ParseFieldSelector maps the external extract= selector onto episode fields.
// An empty selector means all fields; anything unknown is an input rejection.
func ParseFieldSelector(selector string) ([]episode.Field, error) {
	switch strings.ToLower(strings.TrimSpace(selector)) {
	case "", SelectorAll:
		return nil, nil
	case SelectorDate:
		return []episode.Field{episode.FieldPublishDate}, nil
	case SelectorTitle:
		return []episode.Field{episode.FieldTitle}, nil
	case SelectorSeason:
		return []episode.Field{episode.FieldSeason}, nil
	case SelectorShowNotes:
		return []episode.Field{episode.FieldShowNotes}, nil
	default:
		return nil, fmt.Errorf("%w: unknown field selector %q", ErrInputRejected, selector)
	}
}
