package es5

import (
	"strings"
	"testing"
	"time"

	"github.com/gostrata/searchstack/schema"
	"github.com/gostrata/searchstack/search"
)

func newTestDialect() *Dialect {
	return New(schema.NewRegistry(), "", "", nil)
}

func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("expected map, got %T (%v)", v, v)
	}
	return m
}

func TestCompileSearch_MatchAllSentinel(t *testing.T) {
	d := newTestDialect()

	doc := d.CompileSearch(&search.Request{Query: search.MatchAll}, "text")

	query := asMap(t, doc["query"])
	if _, ok := query["match_all"]; !ok {
		t.Fatalf("expected match_all clause, got %v", query)
	}
}

func TestCompileSearch_QueryStringClause(t *testing.T) {
	d := New(schema.NewRegistry(), "OR", "2", nil)

	doc := d.CompileSearch(&search.Request{Query: "hello world"}, "text")

	clause := asMap(t, asMap(t, doc["query"])["query_string"])
	if clause["default_field"] != "text" {
		t.Errorf("default_field = %v, want text", clause["default_field"])
	}
	if clause["default_operator"] != "OR" {
		t.Errorf("default_operator = %v, want OR", clause["default_operator"])
	}
	if clause["query"] != "hello world" {
		t.Errorf("query = %v, want hello world", clause["query"])
	}
	if clause["analyze_wildcard"] != true {
		t.Errorf("analyze_wildcard = %v, want true", clause["analyze_wildcard"])
	}
	if clause["auto_generate_phrase_queries"] != true {
		t.Errorf("auto_generate_phrase_queries = %v, want true", clause["auto_generate_phrase_queries"])
	}
	if clause["fuzziness"] != "2" {
		t.Errorf("fuzziness = %v, want 2", clause["fuzziness"])
	}
}

func TestCompileSearch_FilterWrapping(t *testing.T) {
	d := newTestDialect()

	// Zero filters: the relevance clause is the whole query.
	doc := d.CompileSearch(&search.Request{Query: "hello"}, "text")
	query := asMap(t, doc["query"])
	if _, ok := query["bool"]; ok {
		t.Fatalf("zero filters must not produce a bool wrapper, got %v", query)
	}

	// One filter: inlined directly, not wrapped in a group.
	doc = d.CompileSearch(&search.Request{
		Query:   "hello",
		Filters: []string{"author:alice"},
	}, "text")
	boolClause := asMap(t, asMap(t, doc["query"])["bool"])
	if _, ok := asMap(t, boolClause["must"])["query_string"]; !ok {
		t.Fatalf("bool.must should hold the relevance clause, got %v", boolClause["must"])
	}
	filter := asMap(t, boolClause["filter"])
	if _, ok := filter["query_string"]; !ok {
		t.Fatalf("single filter must be inlined, got %v", filter)
	}

	// Two filters: AND-group over all of them.
	doc = d.CompileSearch(&search.Request{
		Query:   "hello",
		Filters: []string{"author:alice", "year:2016"},
	}, "text")
	filter = asMap(t, asMap(t, asMap(t, doc["query"])["bool"])["filter"])
	group := asMap(t, filter["bool"])
	must, ok := group["must"].([]map[string]any)
	if !ok {
		t.Fatalf("grouped filter must hold a must list, got %T", group["must"])
	}
	if len(must) != 2 {
		t.Fatalf("expected 2 grouped filters, got %d", len(must))
	}
}

func TestCompileSearch_StoredFields(t *testing.T) {
	d := newTestDialect()

	doc := d.CompileSearch(&search.Request{Query: "hello"}, "text")
	if _, ok := doc["stored_fields"]; ok {
		t.Fatalf("no field restriction should omit stored_fields, got %v", doc["stored_fields"])
	}

	doc = d.CompileSearch(&search.Request{
		Query:  "hello",
		Fields: []string{"name"},
	}, "text")
	if doc["stored_fields"] != "name" {
		t.Errorf("stored_fields = %v, want name", doc["stored_fields"])
	}

	doc = d.CompileSearch(&search.Request{
		Query:  "hello",
		Fields: []string{"name", "author"},
	}, "text")
	if doc["stored_fields"] != "name author" {
		t.Errorf("stored_fields = %v, want %q", doc["stored_fields"], "name author")
	}
}

func TestCompileSearch_Highlight(t *testing.T) {
	d := newTestDialect()

	doc := d.CompileSearch(&search.Request{Query: "hello"}, "text")
	if _, ok := doc["highlight"]; ok {
		t.Fatalf("highlight clause present without a highlight spec")
	}

	doc = d.CompileSearch(&search.Request{
		Query:     "hello",
		Highlight: &search.Highlight{},
	}, "text")
	fields := asMap(t, asMap(t, doc["highlight"])["fields"])
	if _, ok := fields["text"]; !ok {
		t.Fatalf("highlight must include the content field, got %v", fields)
	}

	// Caller-supplied options merge on top and win.
	doc = d.CompileSearch(&search.Request{
		Query: "hello",
		Highlight: &search.Highlight{Options: map[string]any{
			"pre_tags": []string{"<em>"},
			"fields":   map[string]any{"title": map[string]any{}},
		}},
	}, "text")
	highlight := asMap(t, doc["highlight"])
	if _, ok := highlight["pre_tags"]; !ok {
		t.Errorf("caller option pre_tags missing: %v", highlight)
	}
	fields = asMap(t, highlight["fields"])
	if _, ok := fields["title"]; !ok {
		t.Errorf("caller fields option must override the default, got %v", fields)
	}
}

func TestCompileTermsFacet(t *testing.T) {
	reg := schema.NewRegistry()
	d := New(reg, "", "", nil)

	doc := d.CompileSearch(&search.Request{
		Query: "hello",
		Facets: map[string]*search.TermsFacet{
			"author": {
				Order:       search.OrderReverseCount,
				GlobalScope: true,
				Filter:      map[string]any{"term": map[string]any{"published": true}},
				Options:     map[string]any{"size": 25},
			},
		},
	}, "text")

	clause := asMap(t, asMap(t, doc["aggs"])["author"])
	meta := asMap(t, clause["meta"])
	if meta["_type"] != search.FacetTerms {
		t.Errorf("meta._type = %v, want terms", meta["_type"])
	}
	if meta["order"] != search.OrderReverseCount {
		t.Errorf("meta.order = %v, want reverse_count", meta["order"])
	}
	if clause["global"] != true {
		t.Errorf("global = %v, want true", clause["global"])
	}
	if _, ok := clause["facet_filter"]; !ok {
		t.Errorf("facet_filter missing: %v", clause)
	}

	terms := asMap(t, clause["terms"])
	if terms["field"] != "author_exact" {
		t.Errorf("terms.field = %v, want author_exact", terms["field"])
	}
	if terms["size"] != 25 {
		t.Errorf("terms.size = %v, want 25", terms["size"])
	}
	// The ordering hint must never leak into the engine clause.
	if _, ok := terms["order"]; ok {
		t.Errorf("ordering hint compiled into terms clause: %v", terms)
	}
}

func TestCompileDateFacet_Intervals(t *testing.T) {
	d := newTestDialect()

	cases := []struct {
		unit   string
		amount int
		want   string
	}{
		{"day", 2, "2d"},
		{"month", 3, "month"},
		{"year", 5, "year"},
		{"hour", 1, "hour"},
		{"week", 2, "2w"},
		{"DAY", 1, "day"},
	}

	for _, tc := range cases {
		doc := d.CompileSearch(&search.Request{
			Query: "hello",
			DateFacets: map[string]*search.DateFacet{
				"pub_date": {GapBy: tc.unit, GapAmount: tc.amount},
			},
		}, "text")

		clause := asMap(t, asMap(t, doc["aggs"])["pub_date"])
		histogram := asMap(t, clause["date_histogram"])
		if histogram["interval"] != tc.want {
			t.Errorf("unit=%s amount=%d: interval = %v, want %s",
				tc.unit, tc.amount, histogram["interval"], tc.want)
		}
		if histogram["field"] != "pub_date" {
			t.Errorf("field = %v, want pub_date", histogram["field"])
		}
		if asMap(t, clause["meta"])["_type"] != search.FacetDateHistogram {
			t.Errorf("meta._type = %v, want date_histogram", asMap(t, clause["meta"])["_type"])
		}
	}
}

func TestCompileDateFacet_RangeBounds(t *testing.T) {
	d := newTestDialect()
	start := time.Date(2016, 1, 1, 0, 0, 0, 0, time.UTC)

	doc := d.CompileSearch(&search.Request{
		Query: "hello",
		DateFacets: map[string]*search.DateFacet{
			"pub_date": {GapBy: "month", Start: &start},
		},
	}, "text")

	clause := asMap(t, asMap(t, doc["aggs"])["pub_date"])
	sub := asMap(t, asMap(t, asMap(t, clause["aggs"])["pub_date"])["date_range"])
	ranges, ok := sub["ranges"].([]any)
	if !ok || len(ranges) != 1 {
		t.Fatalf("expected one range, got %v", sub["ranges"])
	}
	r := asMap(t, ranges[0])
	if !strings.HasPrefix(r["from"].(string), "2016-01-01") {
		t.Errorf("from = %v, want 2016-01-01 prefix", r["from"])
	}
	if _, ok := r["to"]; ok {
		t.Errorf("unset end bound must be omitted, got %v", r["to"])
	}
}

func TestCompileQueryFacet(t *testing.T) {
	d := newTestDialect()

	doc := d.CompileSearch(&search.Request{
		Query: "hello",
		QueryFacets: map[string]string{
			"popular": "rating:[4 TO *]",
		},
	}, "text")

	clause := asMap(t, asMap(t, doc["aggs"])["popular"])
	if asMap(t, clause["meta"])["_type"] != search.FacetQuery {
		t.Errorf("meta._type = %v, want query", asMap(t, clause["meta"])["_type"])
	}
	inner := asMap(t, asMap(t, clause["filter"])["query_string"])
	if inner["query"] != "rating:[4 TO *]" {
		t.Errorf("query = %v, want rating:[4 TO *]", inner["query"])
	}
}
