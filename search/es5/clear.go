package es5

import (
	"fmt"
	"strings"

	"github.com/gostrata/searchstack/schema"
	"github.com/gostrata/searchstack/search"
)

// CompileClear builds the OR-combined query matching every document of the
// given entity types, keyed on their content-type tags.
func (d *Dialect) CompileClear(typeNames []string) search.Document {
	tags := make([]string, len(typeNames))
	for i, name := range typeNames {
		tags[i] = fmt.Sprintf("%s:%s", schema.ContentTypeField, name)
	}

	return search.Document{
		"query": map[string]any{
			"query_string": map[string]any{
				"query": strings.Join(tags, " OR "),
			},
		},
	}
}
