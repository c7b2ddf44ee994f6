package search

// QueryCompiler translates an engine-agnostic request into an
// engine-version-specific query document.
type QueryCompiler interface {
	CompileSearch(req *Request, contentField string) Document
}

// ResponseDecoder translates a raw engine response back into an
// engine-agnostic result.
type ResponseDecoder interface {
	DecodeResponse(raw map[string]any) *Result
}

// SimilarityCompiler builds a "more like this" query seeded by an existing
// document. typeNames, when non-empty, restricts results to those entity
// types; the caller is responsible for sorting and deduplicating them.
type SimilarityCompiler interface {
	CompileSimilar(docID, contentField, additionalQuery string, typeNames []string) Document
}

// ClearCompiler builds the query matching every document of the given
// entity types, used by scroll-and-bulk-delete.
type ClearCompiler interface {
	CompileClear(typeNames []string) Document
}

// Dialect is one engine wire dialect: compilation and decoding for a single
// engine version. Implementations are pure over their inputs and safe for
// concurrent use. The backend holds whichever dialect matches its
// configured engine version.
type Dialect interface {
	QueryCompiler
	ResponseDecoder
	SimilarityCompiler
	ClearCompiler
}
