// Package es5 implements the Elasticsearch version-5 query dialect:
// compiling engine-agnostic search requests into the v5 query DSL and
// decoding v5 responses, including meta-tagged aggregations, back into
// engine-agnostic results.
package es5

import (
	"github.com/gostrata/searchstack/logging"
	"github.com/gostrata/searchstack/schema"
	"github.com/gostrata/searchstack/search"
)

const (
	defaultOperator  = "AND"
	defaultFuzziness = "AUTO"

	// dateFormat is the wire format for date-range bounds.
	dateFormat = "2006-01-02T15:04:05"
)

// Dialect is the ES5 implementation of search.Dialect. It is pure over its
// inputs and safe for concurrent use.
type Dialect struct {
	reg       *schema.Registry
	operator  string
	fuzziness string
	log       *logging.Logger
}

var _ search.Dialect = (*Dialect)(nil)

// New creates an ES5 dialect. operator and fuzziness default to "AND" and
// "AUTO" when empty; log defaults to the standard logger.
func New(reg *schema.Registry, operator, fuzziness string, log *logging.Logger) *Dialect {
	if operator == "" {
		operator = defaultOperator
	}
	if fuzziness == "" {
		fuzziness = defaultFuzziness
	}
	if log == nil {
		log = logging.Standard()
	}
	return &Dialect{
		reg:       reg,
		operator:  operator,
		fuzziness: fuzziness,
		log:       log,
	}
}
