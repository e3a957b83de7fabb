// internal/episode/strategies.go
package episode

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/fundscope/dealparse/internal/normalize"
)

// Meta tag selectors carrying a machine-readable published time, in the order
// they are consulted.
var publishedMetaSelectors = []string{
	`meta[property="article:published_time"]`,
	`meta[name="article:published_time"]`,
	`meta[property="og:article:published_time"]`,
	`meta[name="publish-date"]`,
	`meta[name="publishdate"]`,
	`meta[name="date"]`,
	`meta[itemprop="datePublished"]`,
}

// Alternative show-notes containers tried after the primary one, in order.
var fallbackNotesSelectors = []string{
	".episode-notes",
	".episode-description",
	".entry-content",
	"article .content",
}

var (
	seasonPathPattern  = regexp.MustCompile(`(?i)/seasons?[-/](\d{1,3})(?:[/?#]|$)`)
	seasonTextPattern  = regexp.MustCompile(`(?i)\bseason\s+(\d{1,3})\b`)
	visibleDatePattern = regexp.MustCompile(`(?i)\b(?:(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2},\s+\d{4}|\d{4}-\d{2}-\d{2}|\d{1,2}/\d{1,2}/\d{4})\b`)
)

// linkedData collects every JSON-LD object on the page, flattening arrays and
// @graph containers. Malformed blocks are skipped.
func (e *Extractor) linkedData() []map[string]interface{} {
	var blocks []map[string]interface{}
	e.doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		var payload interface{}
		if err := json.Unmarshal([]byte(s.Text()), &payload); err != nil {
			return
		}
		blocks = append(blocks, flattenLinkedData(payload)...)
	})
	return blocks
}

func flattenLinkedData(payload interface{}) []map[string]interface{} {
	switch v := payload.(type) {
	case map[string]interface{}:
		out := []map[string]interface{}{v}
		if graph, ok := v["@graph"].([]interface{}); ok {
			for _, item := range graph {
				out = append(out, flattenLinkedData(item)...)
			}
		}
		return out
	case []interface{}:
		var out []map[string]interface{}
		for _, item := range v {
			out = append(out, flattenLinkedData(item)...)
		}
		return out
	default:
		return nil
	}
}

func linkedDataString(obj map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := obj[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v), true
		}
	}
	return "", false
}

// --- publishDate strategies ---

func (e *Extractor) dateFromLinkedData() (string, bool) {
	for _, obj := range e.linkedData() {
		if v, ok := linkedDataString(obj, "datePublished"); ok {
			return v, true
		}
	}
	return "", false
}

func (e *Extractor) dateFromMetaTags() (string, bool) {
	for _, selector := range publishedMetaSelectors {
		if content, exists := e.doc.Find(selector).First().Attr("content"); exists {
			if v := strings.TrimSpace(content); v != "" {
				return v, true
			}
		}
	}
	return "", false
}

func (e *Extractor) dateFromTimeElement() (string, bool) {
	if datetime, exists := e.doc.Find("time[datetime]").First().Attr("datetime"); exists {
		if v := strings.TrimSpace(datetime); v != "" {
			return v, true
		}
	}
	return "", false
}

func (e *Extractor) dateFromVisibleText() (string, bool) {
	text := e.doc.Find("body").Text()
	if match := visibleDatePattern.FindString(text); match != "" {
		return match, true
	}
	return "", false
}

// --- title strategies ---

func (e *Extractor) titleFromHeading() (string, bool) {
	return nonEmptyText(e.doc.Find("h1").First())
}

func (e *Extractor) titleFromDocumentTitle() (string, bool) {
	return nonEmptyText(e.doc.Find("title").First())
}

func (e *Extractor) titleFromLinkedData() (string, bool) {
	for _, obj := range e.linkedData() {
		if v, ok := linkedDataString(obj, "name", "headline"); ok {
			return v, true
		}
	}
	return "", false
}

func (e *Extractor) titleFromSocialMeta() (string, bool) {
	if content, exists := e.doc.Find(`meta[property="og:title"]`).First().Attr("content"); exists {
		if v := strings.TrimSpace(content); v != "" {
			return v, true
		}
	}
	return "", false
}

// --- season strategies ---

func (e *Extractor) seasonFromLinks() (string, bool) {
	var found string
	e.doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if m := seasonPathPattern.FindStringSubmatch(href); m != nil {
			found = m[1]
			return false
		}
		return true
	})
	return found, found != ""
}

func (e *Extractor) seasonFromPageURL() (string, bool) {
	if e.pageURL == "" {
		return "", false
	}
	u, err := url.Parse(e.pageURL)
	if err != nil {
		return "", false
	}
	if m := seasonPathPattern.FindStringSubmatch(u.Path); m != nil {
		return m[1], true
	}
	return "", false
}

func (e *Extractor) seasonFromVisibleText() (string, bool) {
	text := e.doc.Find("body").Text()
	if m := seasonTextPattern.FindStringSubmatch(text); m != nil {
		return m[1], true
	}
	return "", false
}

// --- showNotes strategies ---

func (e *Extractor) notesFromPrimaryContainer() (string, bool) {
	return nonEmptyText(e.doc.Find(".show-notes").First())
}

func (e *Extractor) notesFromFallbackContainers() (string, bool) {
	for _, selector := range fallbackNotesSelectors {
		if v, ok := nonEmptyText(e.doc.Find(selector).First()); ok {
			return v, true
		}
	}
	return "", false
}

func (e *Extractor) notesFromLinkedData() (string, bool) {
	for _, obj := range e.linkedData() {
		if v, ok := linkedDataString(obj, "description"); ok {
			return v, true
		}
	}
	return "", false
}

func nonEmptyText(s *goquery.Selection) (string, bool) {
	text := normalize.CollapseWhitespace(s.Text())
	return text, text != ""
}
