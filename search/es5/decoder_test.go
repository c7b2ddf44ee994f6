package es5

import (
	"testing"
	"time"

	"github.com/gostrata/searchstack/search"
)

func TestDecodeResponse_NoAggregations(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"hits": map[string]any{"total": float64(0), "hits": []any{}},
	})

	if result.Facets.Fields == nil || result.Facets.Dates == nil || result.Facets.Queries == nil {
		t.Fatalf("facet maps must be empty, not absent: %+v", result.Facets)
	}
	if len(result.Facets.Fields)+len(result.Facets.Dates)+len(result.Facets.Queries) != 0 {
		t.Fatalf("expected empty facets, got %+v", result.Facets)
	}
}

func TestDecodeResponse_Hits(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"hits": map[string]any{
			"total": float64(2),
			"hits": []any{
				map[string]any{
					"_id":     "blog.post.1",
					"_score":  1.5,
					"_source": map[string]any{"title": "first"},
					"highlight": map[string]any{
						"text": []any{"<em>first</em> post"},
					},
				},
				map[string]any{
					"_id": "blog.post.2",
					// Stored-fields-restricted responses carry "fields".
					"fields": map[string]any{"name": []any{"second"}},
				},
			},
		},
	})

	if result.Total != 2 {
		t.Errorf("Total = %d, want 2", result.Total)
	}
	if len(result.Hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(result.Hits))
	}

	first := result.Hits[0]
	if first.ID != "blog.post.1" || first.Score != 1.5 {
		t.Errorf("hit = %+v", first)
	}
	if first.Source["title"] != "first" {
		t.Errorf("source = %v", first.Source)
	}
	if got := first.Highlight["text"]; len(got) != 1 || got[0] != "<em>first</em> post" {
		t.Errorf("highlight = %v", first.Highlight)
	}

	second := result.Hits[1]
	if second.Source == nil {
		t.Fatalf("fields fallback not applied: %+v", second)
	}
}

func TestDecodeResponse_TermsBucketOrder(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"aggregations": map[string]any{
			"author": map[string]any{
				"meta": map[string]any{"_type": "terms"},
				"buckets": []any{
					map[string]any{"key": "alice", "doc_count": float64(5)},
					map[string]any{"key": "bob", "doc_count": float64(2)},
				},
			},
		},
	})

	pairs := result.Facets.Fields["author"]
	if len(pairs) != 2 {
		t.Fatalf("expected 2 pairs, got %v", pairs)
	}
	if pairs[0].Term != "alice" || pairs[0].Count != 5 {
		t.Errorf("bucket order not preserved: %v", pairs)
	}
}

func TestDecodeResponse_ReverseCountResort(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"aggregations": map[string]any{
			"author": map[string]any{
				"meta": map[string]any{"_type": "terms", "order": "reverse_count"},
				"buckets": []any{
					map[string]any{"key": "A", "doc_count": float64(5)},
					map[string]any{"key": "B", "doc_count": float64(2)},
					map[string]any{"key": "C", "doc_count": float64(9)},
				},
			},
		},
	})

	pairs := result.Facets.Fields["author"]
	want := []search.TermCount{
		{Term: "B", Count: 2},
		{Term: "A", Count: 5},
		{Term: "C", Count: 9},
	}
	if len(pairs) != len(want) {
		t.Fatalf("expected %d pairs, got %v", len(want), pairs)
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}
}

func TestDecodeResponse_DateBucketMilliseconds(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"aggregations": map[string]any{
			"pub_date": map[string]any{
				"meta": map[string]any{"_type": "date_histogram"},
				"buckets": []any{
					map[string]any{"key": float64(1000000000000), "doc_count": float64(3)},
				},
			},
		},
	})

	pairs := result.Facets.Dates["pub_date"]
	if len(pairs) != 1 {
		t.Fatalf("expected 1 bucket, got %v", pairs)
	}
	want := time.Unix(1000000000, 0).UTC()
	if !pairs[0].When.Equal(want) {
		t.Errorf("When = %v, want %v (millisecond key must be divided, not used raw)", pairs[0].When, want)
	}
	if pairs[0].Count != 3 {
		t.Errorf("Count = %d, want 3", pairs[0].Count)
	}
}

func TestDecodeResponse_QueryFacet(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"aggregations": map[string]any{
			"popular": map[string]any{
				"meta":      map[string]any{"_type": "query"},
				"doc_count": float64(42),
			},
		},
	})

	if result.Facets.Queries["popular"] != 42 {
		t.Errorf("Queries[popular] = %d, want 42", result.Facets.Queries["popular"])
	}
}

func TestDecodeResponse_UnknownFacetTypeSkipped(t *testing.T) {
	d := newTestDialect()

	result := d.DecodeResponse(map[string]any{
		"aggregations": map[string]any{
			"weird": map[string]any{
				"meta":    map[string]any{"_type": "histogram"},
				"buckets": []any{},
			},
		},
	})

	if len(result.Facets.Fields)+len(result.Facets.Dates)+len(result.Facets.Queries) != 0 {
		t.Fatalf("unknown facet type must be skipped, got %+v", result.Facets)
	}
}
