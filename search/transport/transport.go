package transport

import (
	"context"
	"errors"
)

var (
	// ErrNilClient is returned by a transport constructed without a
	// reachable engine client.
	ErrNilClient = errors.New("search transport client is nil")
)

// SearchOptions carries per-call parameters that live outside the query
// document.
type SearchOptions struct {
	From int
	Size int
}

// Transport executes engine operations against a named index. Network and
// engine-side failures surface as errors; retry and timeout policy belong
// to the underlying client, not to callers of this interface.
type Transport interface {
	// Engine names the wire implementation, e.g. "elasticsearch".
	Engine() string

	// Search sends a query document and returns the decoded response body.
	Search(ctx context.Context, index string, body map[string]any, opts *SearchOptions) (map[string]any, error)

	// Scroll iterates all document ids matching the query document,
	// invoking fn once per page. Pages are fetched sequentially; an error
	// from fn aborts the scroll.
	Scroll(ctx context.Context, index string, body map[string]any, batchSize int, fn func(ids []string) error) error

	// BulkDelete removes the given documents in a single bulk operation.
	BulkDelete(ctx context.Context, index string, ids []string) error

	// DeleteIndex drops the whole index. A missing index is not an error.
	DeleteIndex(ctx context.Context, index string) error

	// Refresh forces the index to make recent changes visible to search.
	Refresh(ctx context.Context, index string) error

	// Health reports whether the engine is reachable.
	Health(ctx context.Context) error
}

// scrollHits extracts document ids and the scroll cursor from a decoded
// search/scroll response body.
func scrollHits(body map[string]any) (ids []string, scrollID string) {
	if sid, ok := body["_scroll_id"].(string); ok {
		scrollID = sid
	}

	hits, ok := body["hits"].(map[string]any)
	if !ok {
		return nil, scrollID
	}
	entries, ok := hits["hits"].([]any)
	if !ok {
		return nil, scrollID
	}

	for _, entry := range entries {
		hit, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		if id, ok := hit["_id"].(string); ok {
			ids = append(ids, id)
		}
	}
	return ids, scrollID
}
