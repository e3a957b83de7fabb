// internal/episode/extractor.go
// Package episode extracts publish date, title, season number, and show notes
// from one episode page of the supported podcast site. Each field runs an
// ordered list of detection strategies; evaluation stops at the first
// strategy that yields a usable value (first-match-wins, never best-match).
package episode

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fundscope/dealparse/internal/normalize"
)

// Season numbers outside this range are rejected as misses.
const (
	minSeason = 1
	maxSeason = 50
)

// Per-field strategy order. Lists are tried top to bottom; reordering entries
// changes caller-visible behavior.
var (
	publishDateStrategies = []strategy{
		{"jsonld_date_published", (*Extractor).dateFromLinkedData},
		{"meta_published_time", (*Extractor).dateFromMetaTags},
		{"time_element_datetime", (*Extractor).dateFromTimeElement},
		{"text_date_pattern", (*Extractor).dateFromVisibleText},
	}
	titleStrategies = []strategy{
		{"heading_h1", (*Extractor).titleFromHeading},
		{"document_title", (*Extractor).titleFromDocumentTitle},
		{"jsonld_title", (*Extractor).titleFromLinkedData},
		{"og_title_meta", (*Extractor).titleFromSocialMeta},
	}
	seasonStrategies = []strategy{
		{"season_link_path", (*Extractor).seasonFromLinks},
		{"page_url_path", (*Extractor).seasonFromPageURL},
		{"text_season_mention", (*Extractor).seasonFromVisibleText},
	}
	showNotesStrategies = []strategy{
		{"show_notes_container", (*Extractor).notesFromPrimaryContainer},
		{"fallback_container", (*Extractor).notesFromFallbackContainers},
		{"jsonld_description", (*Extractor).notesFromLinkedData},
	}
)

// Extractor runs the field pipelines over one already-retrieved page. It
// holds no state beyond the parsed document, so concurrent extractions over
// separate Extractors need no coordination.
type Extractor struct {
	doc     *goquery.Document
	pageURL string
}

// New parses the page markup. pageURL is the address the markup was retrieved
// from; the season pipeline inspects its path. A markup that cannot be parsed
// at all is an engine-level failure, distinct from any field being absent.
func New(markup, pageURL string) (*Extractor, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return nil, fmt.Errorf("failed to parse page markup: %w", err)
	}
	return &Extractor{doc: doc, pageURL: pageURL}, nil
}

// Extract runs the pipeline for a single field. Absence of every strategy's
// signal yields a Value with Found=false, never an error.
func (e *Extractor) Extract(field Field) Value {
	switch field {
	case FieldPublishDate:
		return e.publishDate()
	case FieldTitle:
		return e.title()
	case FieldSeason:
		return e.season()
	case FieldShowNotes:
		return e.showNotes()
	default:
		return Value{Field: field}
	}
}

// ExtractAll runs all four pipelines independently and aggregates the
// outcomes. A miss in one pipeline never aborts the others.
func (e *Extractor) ExtractAll() []Value {
	fields := AllFields()
	values := make([]Value, 0, len(fields))
	for _, field := range fields {
		values = append(values, e.Extract(field))
	}
	return values
}

// publishDate tries each date source in order. A strategy match that the
// normalizer rejects counts as a miss and the pipeline moves on, so a bogus
// meta tag cannot shadow a parseable date further down the list.
func (e *Extractor) publishDate() Value {
	for _, s := range publishDateStrategies {
		raw, ok := s.fn(e)
		if !ok {
			continue
		}
		canonical, ok := normalize.Date(raw)
		if !ok {
			continue
		}
		return Value{
			Field:  FieldPublishDate,
			Text:   canonical,
			Raw:    raw,
			Method: s.name,
			Found:  true,
		}
	}
	return Value{Field: FieldPublishDate}
}

// title keeps the recovered text verbatim apart from whitespace collapsing;
// episode numbering prefixes are part of the expected title format.
func (e *Extractor) title() Value {
	for _, s := range titleStrategies {
		raw, ok := s.fn(e)
		if !ok {
			continue
		}
		return Value{
			Field:  FieldTitle,
			Text:   normalize.CollapseWhitespace(raw),
			Raw:    raw,
			Method: s.name,
			Found:  true,
		}
	}
	return Value{Field: FieldTitle}
}

// season parses each candidate as a positive integer and rejects anything
// outside 1-50 as a miss, falling through to the next strategy.
func (e *Extractor) season() Value {
	for _, s := range seasonStrategies {
		raw, ok := s.fn(e)
		if !ok {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil || n < minSeason || n > maxSeason {
			continue
		}
		return Value{
			Field:  FieldSeason,
			Text:   raw,
			Raw:    raw,
			Season: n,
			Method: s.name,
			Found:  true,
		}
	}
	return Value{Field: FieldSeason}
}

// showNotes truncates whatever text was recovered at the first ellipsis
// marker. This is unconditional post-processing, not a separate strategy.
func (e *Extractor) showNotes() Value {
	for _, s := range showNotesStrategies {
		raw, ok := s.fn(e)
		if !ok {
			continue
		}
		text := normalize.TruncateAtEllipsis(normalize.CollapseWhitespace(raw))
		if text == "" {
			continue
		}
		return Value{
			Field:  FieldShowNotes,
			Text:   text,
			Raw:    raw,
			Method: s.name,
			Found:  true,
		}
	}
	return Value{Field: FieldShowNotes}
}
