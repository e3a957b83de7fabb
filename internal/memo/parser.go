// internal/memo/parser.go
// Package memo recovers the fixed investment-memo field set from one pasted
// block of free text. Each field has a single independent pattern rule, so a
// malformed value for one field never disturbs the others; the caller always
// receives the full field set partitioned into parsed and failed.
package memo

import (
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"

	"github.com/fundscope/dealparse/internal/normalize"
)

// Result is the outcome of one parse. Extracted holds only the fields that
// parsed; Parsed and Failed together cover the full declared field set with
// no overlap and no omission.
type Result struct {
	Extracted map[Field]interface{} `json:"extractedData"`
	Parsed    []Field               `json:"successfullyParsed"`
	Failed    []Field               `json:"failedToParse"`
}

var fold = cases.Fold()

// Parse runs every field rule over the memo text. It never returns an error:
// per-field failure is recorded in Failed, not raised.
func Parse(text string) *Result {
	lines := strings.Split(text, "\n")

	result := &Result{
		Extracted: make(map[Field]interface{}),
		Parsed:    make([]Field, 0, len(rules)),
		Failed:    make([]Field, 0, len(rules)),
	}

	byField := make(map[Field]rule, len(rules))
	for _, r := range rules {
		byField[r.field] = r
	}

	for _, field := range Fields() {
		r := byField[field]
		raw, ok := r.match(lines)
		if !ok {
			result.Failed = append(result.Failed, field)
			continue
		}
		value, ok := r.coerce(raw)
		if !ok {
			result.Failed = append(result.Failed, field)
			continue
		}
		result.Extracted[field] = value
		result.Parsed = append(result.Parsed, field)
	}

	return result
}

// match scans for the first line carrying one of the rule's label cues. A
// label with nothing after the separator takes its value from the next
// non-empty line.
func (r rule) match(lines []string) (string, bool) {
	for i, line := range lines {
		m := r.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		value := strings.TrimSpace(m[1])
		if value == "" {
			for j := i + 1; j < len(lines); j++ {
				if next := strings.TrimSpace(lines[j]); next != "" {
					value = next
					break
				}
			}
		}
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}

// coerce applies the rule's type-specific conversion. A value the coercion
// cannot make sense of is a miss, never a guess.
func (r rule) coerce(raw string) (interface{}, bool) {
	switch r.kind {
	case kindText:
		return normalize.CollapseWhitespace(raw), true
	case kindSlug:
		return coerceSlug(raw)
	case kindAmount:
		return coerceAmount(raw)
	case kindDate:
		return normalize.Date(raw)
	case kindPercent:
		return coercePercent(raw)
	case kindEnum:
		return coerceEnum(raw, r.vocab)
	case kindBool:
		return coerceBool(raw)
	case kindList:
		return coerceList(raw)
	default:
		return nil, false
	}
}

var (
	currencyChars   = regexp.MustCompile(`[$€£,\s]`)
	magnitudeSuffix = regexp.MustCompile(`(?i)^([0-9.]+)([km])$`)
	slugInvalid     = regexp.MustCompile(`[^a-z0-9-]`)
	dashRun         = regexp.MustCompile(`-+`)
	boolTokens      = regexp.MustCompile(`[a-z]+`)
)

// coerceAmount strips currency symbols and thousands separators, honors k/m
// magnitude suffixes, and requires a positive decimal.
func coerceAmount(raw string) (interface{}, bool) {
	cleaned := currencyChars.ReplaceAllString(raw, "")
	multiplier := 1.0
	if m := magnitudeSuffix.FindStringSubmatch(cleaned); m != nil {
		cleaned = m[1]
		if strings.EqualFold(m[2], "k") {
			multiplier = 1_000
		} else {
			multiplier = 1_000_000
		}
	}
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value <= 0 {
		return nil, false
	}
	return value * multiplier, true
}

func coercePercent(raw string) (interface{}, bool) {
	cleaned := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(raw), "%"))
	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || value <= 0 || value > 100 {
		return nil, false
	}
	return value, true
}

// coerceEnum case-folds the value and requires an exact vocabulary match;
// unmatched text is a miss, not a best-effort guess.
func coerceEnum(raw string, vocab []string) (interface{}, bool) {
	folded := fold.String(normalize.CollapseWhitespace(raw))
	for _, entry := range vocab {
		if folded == fold.String(entry) {
			return entry, true
		}
	}
	return nil, false
}

var (
	affirmativeCues = map[string]bool{"yes": true, "y": true, "true": true, "granted": true, "included": true, "confirmed": true}
	negativeCues    = map[string]bool{"no": true, "n": true, "not": true, "false": true, "none": true, "waived": true, "declined": true}
)

// coerceBool recognizes only explicit affirmative or negative cues. Absence
// of a cue is a miss so "not mentioned" stays distinguishable from
// "explicitly no".
func coerceBool(raw string) (interface{}, bool) {
	for _, token := range boolTokens.FindAllString(fold.String(raw), -1) {
		if affirmativeCues[token] {
			return true, true
		}
		if negativeCues[token] {
			return false, true
		}
	}
	return nil, false
}

func coerceList(raw string) (interface{}, bool) {
	var entries []string
	for _, part := range strings.Split(raw, ",") {
		if entry := normalize.CollapseWhitespace(part); entry != "" {
			entries = append(entries, entry)
		}
	}
	if len(entries) == 0 {
		return nil, false
	}
	return entries, true
}

func coerceSlug(raw string) (interface{}, bool) {
	slug := strings.ToLower(normalize.CollapseWhitespace(raw))
	slug = strings.NewReplacer(" ", "-", "_", "-").Replace(slug)
	slug = slugInvalid.ReplaceAllString(slug, "")
	slug = strings.Trim(dashRun.ReplaceAllString(slug, "-"), "-")
	if slug == "" {
		return nil, false
	}
	return slug, true
}
