package es5

import (
	"context"
	"sort"
	"time"

	"github.com/gostrata/searchstack/search"
)

// DecodeResponse translates a raw v5 response body into an engine-agnostic
// result. A missing aggregations section yields empty facet maps, never nil
// ones.
func (d *Dialect) DecodeResponse(raw map[string]any) *search.Result {
	result := &search.Result{
		Facets: search.NewFacets(),
	}
	if raw == nil {
		return result
	}

	d.decodeHits(raw, result)

	aggs, ok := raw["aggregations"].(map[string]any)
	if !ok {
		return result
	}

	for name, entry := range aggs {
		agg, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		meta, _ := agg["meta"].(map[string]any)
		kind, _ := meta["_type"].(string)

		switch kind {
		case search.FacetTerms:
			result.Facets.Fields[name] = decodeTermsBuckets(agg, meta)
		case search.FacetDateHistogram:
			result.Facets.Dates[name] = decodeDateBuckets(agg)
		case search.FacetQuery:
			result.Facets.Queries[name] = asInt64(agg["doc_count"])
		default:
			// A tag the compiler never emits means the compiler/decoder
			// pairing is broken; skip the entry but leave a trace.
			d.log.Warnf(context.Background(),
				"Skipping aggregation %q with unknown facet type %q", name, kind)
		}
	}

	return result
}

func (d *Dialect) decodeHits(raw map[string]any, result *search.Result) {
	hits, ok := raw["hits"].(map[string]any)
	if !ok {
		return
	}

	result.Total = asInt64(hits["total"])

	entries, ok := hits["hits"].([]any)
	if !ok {
		return
	}

	result.Hits = make([]search.Hit, 0, len(entries))
	for _, entry := range entries {
		rawHit, ok := entry.(map[string]any)
		if !ok {
			continue
		}

		hit := search.Hit{}
		if id, ok := rawHit["_id"].(string); ok {
			hit.ID = id
		}
		if score, ok := rawHit["_score"].(float64); ok {
			hit.Score = score
		}

		if source, ok := rawHit["_source"].(map[string]any); ok {
			hit.Source = source
		} else if fields, ok := rawHit["fields"].(map[string]any); ok {
			// Stored-fields-restricted searches return "fields" instead
			// of "_source".
			hit.Source = fields
		}

		if highlight, ok := rawHit["highlight"].(map[string]any); ok {
			hit.Highlight = decodeHighlight(highlight)
		}

		result.Hits = append(result.Hits, hit)
	}
}

func decodeHighlight(raw map[string]any) map[string][]string {
	decoded := make(map[string][]string, len(raw))
	for field, fragments := range raw {
		list, ok := fragments.([]any)
		if !ok {
			continue
		}
		snippets := make([]string, 0, len(list))
		for _, fragment := range list {
			if s, ok := fragment.(string); ok {
				snippets = append(snippets, s)
			}
		}
		decoded[field] = snippets
	}
	return decoded
}

func decodeTermsBuckets(agg, meta map[string]any) []search.TermCount {
	buckets, _ := agg["buckets"].([]any)
	pairs := make([]search.TermCount, 0, len(buckets))
	for _, entry := range buckets {
		bucket, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		pairs = append(pairs, search.TermCount{
			Term:  bucket["key"],
			Count: asInt64(bucket["doc_count"]),
		})
	}

	// Reverse-count ordering is a client-side post-sort: the engine cannot
	// order buckets ascending by count, so the hint rides along in meta.
	if order, _ := meta["order"].(string); order == search.OrderReverseCount {
		sort.SliceStable(pairs, func(i, j int) bool {
			return pairs[i].Count < pairs[j].Count
		})
	}

	return pairs
}

func decodeDateBuckets(agg map[string]any) []search.DateCount {
	buckets, _ := agg["buckets"].([]any)
	pairs := make([]search.DateCount, 0, len(buckets))
	for _, entry := range buckets {
		bucket, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		// Bucket keys are UTC timestamps with millisecond precision; a
		// second-resolution constructor needs the division first.
		millis := asInt64(bucket["key"])
		pairs = append(pairs, search.DateCount{
			When:  time.Unix(millis/1000, 0).UTC(),
			Count: asInt64(bucket["doc_count"]),
		})
	}
	return pairs
}

// asInt64 normalizes the numeric shapes a decoded JSON body can carry.
func asInt64(v any) int64 {
	switch n := v.(type) {
	case float64:
		return int64(n)
	case int64:
		return n
	case int:
		return int64(n)
	case map[string]any:
		// ES 7+ wraps hit totals as {"value": N, "relation": ...}; accept
		// it so the decoder survives a relaxed server.
		return asInt64(n["value"])
	default:
		return 0
	}
}
