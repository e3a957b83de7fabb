// internal/memo/fields.go
package memo

import (
	"regexp"
	"strings"
)

// Field identifies one attribute of the memo field set.
type Field string

const (
	FieldCompanyName            Field = "company_name"
	FieldCompanySlug            Field = "company_slug"
	FieldInvestmentDate         Field = "investment_date"
	FieldInvestmentAmount       Field = "investment_amount"
	FieldInstrumentType         Field = "instrument_type"
	FieldRoundSize              Field = "round_size"
	FieldConversionCap          Field = "conversion_cap"
	FieldDiscountPercent        Field = "discount_percent"
	FieldPostMoneyValuation     Field = "post_money_valuation"
	FieldProRataRights          Field = "pro_rata_rights"
	FieldCountryOfIncorporation Field = "country_of_incorporation"
	FieldIncorporationType      Field = "incorporation_type"
	FieldReasonForInvesting     Field = "reason_for_investing"
	FieldCoInvestors            Field = "co_investors"
	FieldFounderName            Field = "founder_name"
	FieldDescription            Field = "description"
)

// Fields returns the full declared field set in canonical order. Every parse
// partitions exactly this set into parsed and failed.
func Fields() []Field {
	return []Field{
		FieldCompanyName,
		FieldCompanySlug,
		FieldInvestmentDate,
		FieldInvestmentAmount,
		FieldInstrumentType,
		FieldRoundSize,
		FieldConversionCap,
		FieldDiscountPercent,
		FieldPostMoneyValuation,
		FieldProRataRights,
		FieldCountryOfIncorporation,
		FieldIncorporationType,
		FieldReasonForInvesting,
		FieldCoInvestors,
		FieldFounderName,
		FieldDescription,
	}
}

// kind selects the type-specific coercion applied to a matched value.
type kind int

const (
	kindText kind = iota
	kindSlug
	kindAmount
	kindDate
	kindPercent
	kindEnum
	kindBool
	kindList
)

// rule is the single pattern-matching rule for one field: a set of label cues
// recognized at the start of a line, plus the coercion for the value found
// after the separator (or on the following non-empty line).
type rule struct {
	field  Field
	labels []string
	kind   kind
	vocab  []string // kindEnum only
	re     *regexp.Regexp
}

// Label alternations are ordered longest-first inside each rule so a short
// cue never swallows a longer one.
var rules = []rule{
	{field: FieldCompanyName, labels: []string{"company name", "startup", "company"}, kind: kindText},
	{field: FieldCompanySlug, labels: []string{"company slug", "slug"}, kind: kindSlug},
	{field: FieldInvestmentDate, labels: []string{"investment date", "date of investment", "closing date", "date"}, kind: kindDate},
	{field: FieldInvestmentAmount, labels: []string{"investment amount", "amount invested", "check size", "investment", "amount"}, kind: kindAmount},
	{field: FieldInstrumentType, labels: []string{"instrument type", "security type", "instrument", "security"}, kind: kindEnum,
		vocab: []string{"safe", "convertible note", "equity", "priced round", "warrant"}},
	{field: FieldRoundSize, labels: []string{"round size", "total round", "round"}, kind: kindAmount},
	{field: FieldConversionCap, labels: []string{"conversion cap", "valuation cap", "cap"}, kind: kindAmount},
	{field: FieldDiscountPercent, labels: []string{"discount percent", "discount rate", "discount"}, kind: kindPercent},
	{field: FieldPostMoneyValuation, labels: []string{"post-money valuation", "post money valuation", "post-money", "valuation"}, kind: kindAmount},
	{field: FieldProRataRights, labels: []string{"pro-rata rights", "pro rata rights", "pro-rata", "pro rata"}, kind: kindBool},
	{field: FieldCountryOfIncorporation, labels: []string{"country of incorporation", "incorporated in", "country"}, kind: kindText},
	{field: FieldIncorporationType, labels: []string{"incorporation type", "entity type", "incorporation"}, kind: kindEnum,
		vocab: []string{"c-corp", "s-corp", "llc", "ltd", "gmbh", "pbc"}},
	{field: FieldReasonForInvesting, labels: []string{"reason for investing", "why we invested", "investment thesis", "thesis"}, kind: kindText},
	{field: FieldCoInvestors, labels: []string{"co-investors", "co investors", "coinvestors", "other investors"}, kind: kindList},
	{field: FieldFounderName, labels: []string{"founder name", "founders", "founder", "ceo"}, kind: kindText},
	{field: FieldDescription, labels: []string{"description", "summary", "about"}, kind: kindText},
}

func init() {
	for i := range rules {
		rules[i].re = compileLabelPattern(rules[i].labels)
	}
}

// compileLabelPattern builds the line matcher for a rule: optional leading
// whitespace, one of the label cues, a separator, then the value capture.
func compileLabelPattern(labels []string) *regexp.Regexp {
	escaped := make([]string, len(labels))
	for i, label := range labels {
		escaped[i] = regexp.QuoteMeta(label)
	}
	pattern := `(?i)^[ \t]*(?:` + strings.Join(escaped, "|") + `)[ \t]*[:\-–—][ \t]*(.*)$`
	return regexp.MustCompile(pattern)
}
