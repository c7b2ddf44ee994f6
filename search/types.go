package search

import "time"

// MatchAll is the sentinel query string meaning "match every document".
const MatchAll = "*:*"

// Facet kind discriminators. The engine response does not indicate which
// decode path applies, so every compiled aggregation carries its kind as
// metadata and the decoder dispatches on it.
const (
	FacetTerms         = "terms"
	FacetDateHistogram = "date_histogram"
	FacetQuery         = "query"
)

// OrderReverseCount requests terms-facet ordering by ascending document
// count. The engine has no server-side equivalent; the decoder re-sorts.
const OrderReverseCount = "reverse_count"

// Document is a compiled engine query document: a nested mapping matching
// the target engine's query DSL. Built, sent, dropped.
type Document map[string]any

// TermsFacet requests term counts over a field.
type TermsFacet struct {
	// Field is the logical field to aggregate on; empty means the facet
	// name itself. Resolved through the schema facet-field naming.
	Field string
	// Order is an ordering hint; OrderReverseCount is applied post-decode.
	Order string
	// GlobalScope aggregates across the whole index, ignoring the current
	// query context.
	GlobalScope bool
	// Filter restricts the aggregation's document set.
	Filter map[string]any
	// Options are copied verbatim into the terms clause.
	Options map[string]any
}

// DateFacet requests a date histogram over a field.
type DateFacet struct {
	// Field is the date field; empty means the facet name itself.
	Field string
	// GapBy is the interval unit: "hour", "day", "week", "month", "year".
	GapBy string
	// GapAmount multiplies the unit. Honored for sub-month units only;
	// month and year intervals cannot carry a multiplier.
	GapAmount int
	// Start and End bound the nested date-range sub-aggregation; each is
	// independently omittable.
	Start *time.Time
	End   *time.Time
}

// Highlight requests highlighting of the content field. Options, if
// present, are merged over the engine defaults; caller keys win.
type Highlight struct {
	Options map[string]any
}

// Request is an engine-agnostic search request. Immutable once compiled.
type Request struct {
	// Query is the free-text relevance query, or MatchAll.
	Query string
	// Filters are opaque query-string fragments combined by boolean AND,
	// narrowing results without affecting relevance scoring.
	Filters []string
	// Facets, DateFacets and QueryFacets are keyed by facet name, unique
	// across all three (the name is the aggregation key).
	Facets      map[string]*TermsFacet
	DateFacets  map[string]*DateFacet
	QueryFacets map[string]string
	// Highlight, when non-nil, requests highlighting.
	Highlight *Highlight
	// Fields restricts the stored fields returned per hit.
	Fields []string
	// From and Size select the pagination window. Size <= 0 means the
	// engine default.
	From int
	Size int
}

// TermCount is one terms-facet bucket.
type TermCount struct {
	Term  any
	Count int64
}

// DateCount is one date-histogram bucket.
type DateCount struct {
	When  time.Time
	Count int64
}

// Facets is the normalized facet result structure. All three maps are
// always non-nil, even when the response carried no aggregations.
type Facets struct {
	Fields  map[string][]TermCount
	Dates   map[string][]DateCount
	Queries map[string]int64
}

// NewFacets returns an empty, fully-initialized facet structure.
func NewFacets() Facets {
	return Facets{
		Fields:  make(map[string][]TermCount),
		Dates:   make(map[string][]DateCount),
		Queries: make(map[string]int64),
	}
}

// Hit is one matched record.
type Hit struct {
	ID        string              `json:"id"`
	Score     float64             `json:"score"`
	Source    map[string]any      `json:"source"`
	Highlight map[string][]string `json:"highlight,omitempty"`
}

// Result is an engine-agnostic search result.
type Result struct {
	Total    int64         `json:"total"`
	Hits     []Hit         `json:"hits"`
	Facets   Facets        `json:"facets"`
	Duration time.Duration `json:"duration"`
}

// EmptyResult returns a result with no hits and empty facets, used when a
// silently-failing backend degrades a failed operation to "no results".
func EmptyResult() *Result {
	return &Result{Facets: NewFacets()}
}
