package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/opensearch-project/opensearch-go/v4"
	"github.com/opensearch-project/opensearch-go/v4/opensearchapi"

	"github.com/gostrata/searchstack/config"
)

// OpenSearch is the OpenSearch-backed transport. OpenSearch accepts the
// same query DSL subset this module compiles, so it shares the dialect
// with the Elasticsearch transport.
type OpenSearch struct {
	client    *opensearchapi.Client
	keepAlive time.Duration
}

// NewOpenSearch creates an OpenSearch transport.
func NewOpenSearch(cfg *config.OpenSearch, scrollKeepAlive time.Duration) (*OpenSearch, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, ErrNilClient
	}

	// Configure transport with TLS options
	httpTransport := &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.InsecureSkipTLS,
		},
	}

	client, err := opensearchapi.NewClient(
		opensearchapi.Config{
			Client: opensearch.Config{
				Addresses:  cfg.Addresses,
				Username:   cfg.Username,
				Password:   cfg.Password,
				Transport:  httpTransport,
				MaxRetries: 3,
			},
		},
	)
	if err != nil {
		return nil, fmt.Errorf("opensearch client creation error: %w", err)
	}

	if scrollKeepAlive <= 0 {
		scrollKeepAlive = defaultScrollKeepAlive
	}

	return &OpenSearch{client: client, keepAlive: scrollKeepAlive}, nil
}

// Engine names the wire implementation.
func (t *OpenSearch) Engine() string {
	return "opensearch"
}

// Search sends a query document and returns the decoded response body.
func (t *OpenSearch) Search(ctx context.Context, index string, body map[string]any, opts *SearchOptions) (map[string]any, error) {
	if t == nil || t.client == nil {
		return nil, ErrNilClient
	}

	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	params := opensearchapi.SearchParams{}
	if opts != nil {
		from := opts.From
		params.From = &from
		if opts.Size > 0 {
			size := opts.Size
			params.Size = &size
		}
	}

	searchReq := opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    reader,
		Params:  params,
	}

	var decoded map[string]any
	if _, err := t.client.Client.Do(ctx, searchReq, &decoded); err != nil {
		return nil, fmt.Errorf("opensearch search error: %w", err)
	}
	return decoded, nil
}

// Scroll iterates all matching document ids page by page.
func (t *OpenSearch) Scroll(ctx context.Context, index string, body map[string]any, batchSize int, fn func(ids []string) error) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	reader, err := encodeBody(body)
	if err != nil {
		return err
	}

	size := batchSize
	searchReq := opensearchapi.SearchReq{
		Indices: []string{index},
		Body:    reader,
		Params: opensearchapi.SearchParams{
			Size:   &size,
			Scroll: t.keepAlive,
		},
	}

	var decoded map[string]any
	if _, err := t.client.Client.Do(ctx, searchReq, &decoded); err != nil {
		return fmt.Errorf("opensearch scroll error: %w", err)
	}

	ids, scrollID := scrollHits(decoded)
	defer t.clearScroll(ctx, scrollID)

	for len(ids) > 0 {
		if err := fn(ids); err != nil {
			return err
		}

		scrollReq := opensearchapi.ScrollGetReq{
			ScrollID: scrollID,
			Params:   opensearchapi.ScrollGetParams{Scroll: t.keepAlive},
		}

		decoded = nil
		if _, err := t.client.Client.Do(ctx, scrollReq, &decoded); err != nil {
			return fmt.Errorf("opensearch scroll error: %w", err)
		}
		ids, scrollID = scrollHits(decoded)
	}

	return nil
}

// BulkDelete removes documents in a single bulk operation.
func (t *OpenSearch) BulkDelete(ctx context.Context, index string, ids []string) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}
	if len(ids) == 0 {
		return nil
	}

	var bulkBody strings.Builder
	for _, id := range ids {
		bulkBody.WriteString(fmt.Sprintf(`{"delete":{"_index":"%s","_id":"%s"}}`, index, id))
		bulkBody.WriteString("\n")
	}

	bulkReq := opensearchapi.BulkReq{
		Index: index,
		Body:  strings.NewReader(bulkBody.String()),
	}

	if _, err := t.client.Bulk(ctx, bulkReq); err != nil {
		return fmt.Errorf("opensearch bulk delete error: %w", err)
	}
	return nil
}

// DeleteIndex drops the whole index; a missing index is not an error.
func (t *OpenSearch) DeleteIndex(ctx context.Context, index string) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	deleteReq := opensearchapi.IndicesDeleteReq{
		Indices: []string{index},
	}

	if _, err := t.client.Indices.Delete(ctx, deleteReq); err != nil {
		// Check if error is "index not found"
		var opensearchError *opensearch.StructError
		if errors.As(err, &opensearchError) {
			if opensearchError.Err.Type == "index_not_found_exception" {
				return nil
			}
		}
		return fmt.Errorf("opensearch delete index error: %w", err)
	}
	return nil
}

// Refresh forces the index to make recent changes visible.
func (t *OpenSearch) Refresh(ctx context.Context, index string) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	refreshReq := opensearchapi.IndicesRefreshReq{
		Indices: []string{index},
	}

	if _, err := t.client.Indices.Refresh(ctx, &refreshReq); err != nil {
		return fmt.Errorf("opensearch refresh error: %w", err)
	}
	return nil
}

// Health checks cluster health.
func (t *OpenSearch) Health(ctx context.Context) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	healthReq := opensearchapi.ClusterHealthReq{}
	if _, err := t.client.Cluster.Health(ctx, &healthReq); err != nil {
		return fmt.Errorf("opensearch health check error: %w", err)
	}
	return nil
}

// GetClient returns the underlying OpenSearch client.
func (t *OpenSearch) GetClient() *opensearchapi.Client {
	return t.client
}

func (t *OpenSearch) clearScroll(ctx context.Context, scrollID string) {
	if scrollID == "" {
		return
	}
	deleteReq := opensearchapi.ScrollDeleteReq{
		ScrollIDs: []string{scrollID},
	}
	_, _ = t.client.Scroll.Delete(ctx, deleteReq)
}
