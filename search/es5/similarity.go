package es5

import (
	"github.com/gostrata/searchstack/schema"
	"github.com/gostrata/searchstack/search"
)

// CompileSimilar builds a more-like-this query seeded by an existing
// document. Narrowing queries accumulate: an additional query string (when
// given and not the match-all sentinel) and an entity-type restriction.
// With no narrowing the base clause stands alone; any narrowing wraps it as
// must(base) + filter(must(narrowing...)).
func (d *Dialect) CompileSimilar(docID, contentField, additionalQuery string, typeNames []string) search.Document {
	base := map[string]any{
		"more_like_this": map[string]any{
			"fields": []any{contentField},
			"like": []any{
				map[string]any{"_id": docID},
			},
		},
	}

	var narrowing []map[string]any

	if additionalQuery != "" && additionalQuery != search.MatchAll {
		narrowing = append(narrowing, narrowClause(additionalQuery))
	}

	if len(typeNames) > 0 {
		names := make([]any, len(typeNames))
		for i, name := range typeNames {
			names[i] = name
		}
		narrowing = append(narrowing, map[string]any{
			"terms": map[string]any{
				schema.ContentTypeField: names,
			},
		})
	}

	if len(narrowing) == 0 {
		return search.Document{"query": base}
	}

	return search.Document{
		"query": map[string]any{
			"bool": map[string]any{
				"must": base,
				"filter": map[string]any{
					"bool": map[string]any{
						"must": narrowing,
					},
				},
			},
		},
	}
}
