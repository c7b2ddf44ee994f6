package es5

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gostrata/searchstack/search"
)

// CompileSearch translates a request into a v5 query document.
func (d *Dialect) CompileSearch(req *search.Request, contentField string) search.Document {
	doc := search.Document{
		"query": d.compileQuery(req, contentField),
	}

	if aggs := d.compileFacets(req); len(aggs) > 0 {
		doc["aggs"] = aggs
	}

	if req.Highlight != nil {
		doc["highlight"] = d.compileHighlight(contentField, req.Highlight)
	}

	if len(req.Fields) > 0 {
		doc["stored_fields"] = strings.Join(req.Fields, " ")
	}

	return doc
}

// compileQuery builds the relevance clause and wraps it with narrowing
// filters. A single filter is inlined unwrapped; two or more are grouped
// under a bool/must — the engine caches and scores the two shapes
// differently.
func (d *Dialect) compileQuery(req *search.Request, contentField string) map[string]any {
	query := d.relevanceClause(req.Query, contentField)

	if len(req.Filters) == 0 {
		return query
	}

	filters := make([]map[string]any, len(req.Filters))
	for i, q := range req.Filters {
		filters[i] = narrowClause(q)
	}

	wrapped := map[string]any{
		"bool": map[string]any{
			"must": query,
		},
	}
	if len(filters) == 1 {
		wrapped["bool"].(map[string]any)["filter"] = filters[0]
	} else {
		wrapped["bool"].(map[string]any)["filter"] = map[string]any{
			"bool": map[string]any{"must": filters},
		}
	}
	return wrapped
}

func (d *Dialect) relevanceClause(queryString, contentField string) map[string]any {
	if queryString == search.MatchAll {
		return map[string]any{
			"match_all": map[string]any{},
		}
	}
	return map[string]any{
		"query_string": map[string]any{
			"default_field":                contentField,
			"default_operator":             d.operator,
			"query":                        queryString,
			"analyze_wildcard":             true,
			"auto_generate_phrase_queries": true,
			"fuzziness":                    d.fuzziness,
		},
	}
}

// narrowClause compiles one opaque query-string fragment into a filter
// clause.
func narrowClause(q string) map[string]any {
	return map[string]any{
		"query_string": map[string]any{
			"query": q,
		},
	}
}

// compileFacets assembles the aggregations clause. Every aggregation
// carries its facet-kind discriminator under meta._type; the response
// decoder dispatches on it.
func (d *Dialect) compileFacets(req *search.Request) map[string]any {
	aggs := make(map[string]any)

	for name, spec := range req.Facets {
		aggs[name] = d.compileTermsFacet(name, spec)
	}
	for name, spec := range req.DateFacets {
		aggs[name] = d.compileDateFacet(name, spec)
	}
	for name, queryString := range req.QueryFacets {
		aggs[name] = map[string]any{
			"meta": map[string]any{
				"_type": search.FacetQuery,
			},
			"filter": map[string]any{
				"query_string": map[string]any{
					"query": queryString,
				},
			},
		}
	}

	return aggs
}

func (d *Dialect) compileTermsFacet(name string, spec *search.TermsFacet) map[string]any {
	field := spec.Field
	if field == "" {
		field = name
	}

	meta := map[string]any{
		"_type": search.FacetTerms,
	}
	terms := map[string]any{
		"field": d.reg.FacetFieldName(field),
	}
	clause := map[string]any{
		"meta":  meta,
		"terms": terms,
	}

	// The ordering hint is decoder metadata, never an engine instruction:
	// the terms aggregation has no ascending-count order that matches it.
	if spec.Order != "" {
		meta["order"] = spec.Order
	}

	// Options applied at the facet level, not the terms level.
	if spec.GlobalScope {
		clause["global"] = true
	}
	if spec.Filter != nil {
		clause["facet_filter"] = spec.Filter
	}

	// Remaining options pass through to the terms clause verbatim, in
	// stable key order.
	keys := make([]string, 0, len(spec.Options))
	for k := range spec.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		terms[k] = spec.Options[k]
	}

	return clause
}

func (d *Dialect) compileDateFacet(name string, spec *search.DateFacet) map[string]any {
	field := spec.Field
	if field == "" {
		field = name
	}

	interval := strings.ToLower(spec.GapBy)

	// A gap amount can't be applied to months or years; for other units
	// only the unit's first character is valid on the wire.
	if spec.GapAmount > 1 && interval != "month" && interval != "year" {
		interval = fmt.Sprintf("%d%s", spec.GapAmount, interval[:1])
	}

	dateRange := map[string]any{}
	if spec.Start != nil {
		dateRange["from"] = spec.Start.Format(dateFormat)
	}
	if spec.End != nil {
		dateRange["to"] = spec.End.Format(dateFormat)
	}

	return map[string]any{
		"meta": map[string]any{
			"_type": search.FacetDateHistogram,
		},
		"date_histogram": map[string]any{
			"field":    field,
			"interval": interval,
		},
		"aggs": map[string]any{
			name: map[string]any{
				"date_range": map[string]any{
					"field":  field,
					"ranges": []any{dateRange},
				},
			},
		},
	}
}

// compileHighlight builds the highlight clause: the content field with
// engine defaults, caller-supplied options merged on top.
func (d *Dialect) compileHighlight(contentField string, spec *search.Highlight) map[string]any {
	clause := map[string]any{
		"fields": map[string]any{
			contentField: map[string]any{},
		},
	}
	for k, v := range spec.Options {
		clause[k] = v
	}
	return clause
}
