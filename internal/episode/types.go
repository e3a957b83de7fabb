// internal/episode/types.go
package episode

// Field identifies one extractable episode attribute.
type Field string

const (
	FieldPublishDate Field = "publishDate"
	FieldTitle       Field = "title"
	FieldSeason      Field = "season"
	FieldShowNotes   Field = "showNotes"
)

// AllFields returns every episode field in pipeline order.
func AllFields() []Field {
	return []Field{FieldPublishDate, FieldTitle, FieldSeason, FieldShowNotes}
}

// Value is the outcome of one field pipeline. Found reports whether any
// strategy in the pipeline produced a usable value; an unset Value is the
// documented "field absent" outcome, not an error.
type Value struct {
	Field  Field
	Text   string // canonical value (dates normalized, show notes truncated)
	Raw    string // the strategy match before normalization, where it differs
	Season int    // parsed season number, set only for FieldSeason
	Method string // name of the strategy that succeeded
	Found  bool
}

// strategy is one self-contained attempt to recover a field's raw value from
// a specific source signal. ok is false when the signal is absent from the
// page; strategies never return errors.
type strategy struct {
	name string
	fn   func(e *Extractor) (string, bool)
}
