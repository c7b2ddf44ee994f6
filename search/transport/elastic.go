package transport

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/gostrata/searchstack/config"
)

const defaultScrollKeepAlive = 5 * time.Minute

// Elastic is the Elasticsearch-backed transport.
type Elastic struct {
	client    *elasticsearch.Client
	keepAlive time.Duration
}

// NewElastic creates an Elasticsearch transport. scrollKeepAlive bounds how
// long the engine keeps a scroll cursor alive between page fetches; zero
// means the default of five minutes.
func NewElastic(cfg *config.Elasticsearch, scrollKeepAlive time.Duration) (*Elastic, error) {
	if cfg == nil || len(cfg.Addresses) == 0 {
		return nil, ErrNilClient
	}

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: cfg.Addresses,
		Username:  cfg.Username,
		Password:  cfg.Password,
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch client creation error: %w", err)
	}

	if scrollKeepAlive <= 0 {
		scrollKeepAlive = defaultScrollKeepAlive
	}

	return &Elastic{client: es, keepAlive: scrollKeepAlive}, nil
}

// Engine names the wire implementation.
func (t *Elastic) Engine() string {
	return "elasticsearch"
}

// Search sends a query document and returns the decoded response body.
func (t *Elastic) Search(ctx context.Context, index string, body map[string]any, opts *SearchOptions) (map[string]any, error) {
	if t == nil || t.client == nil {
		return nil, ErrNilClient
	}

	reader, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	options := []func(*esapi.SearchRequest){
		t.client.Search.WithContext(ctx),
		t.client.Search.WithIndex(index),
		t.client.Search.WithBody(reader),
	}
	if opts != nil {
		options = append(options, t.client.Search.WithFrom(opts.From))
		if opts.Size > 0 {
			options = append(options, t.client.Search.WithSize(opts.Size))
		}
	}

	res, err := t.client.Search(options...)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search error: %w", err)
	}
	defer closeBody(res.Body)

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search error: %s", res.Status())
	}

	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("elasticsearch parsing error: %w", err)
	}
	return decoded, nil
}

// Scroll iterates all matching document ids page by page.
func (t *Elastic) Scroll(ctx context.Context, index string, body map[string]any, batchSize int, fn func(ids []string) error) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	reader, err := encodeBody(body)
	if err != nil {
		return err
	}

	res, err := t.client.Search(
		t.client.Search.WithContext(ctx),
		t.client.Search.WithIndex(index),
		t.client.Search.WithBody(reader),
		t.client.Search.WithSize(batchSize),
		t.client.Search.WithScroll(t.keepAlive),
		t.client.Search.WithSource("false"),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch scroll error: %w", err)
	}

	ids, scrollID, err := decodeScrollPage(res)
	if err != nil {
		return err
	}
	defer t.clearScroll(ctx, scrollID)

	for len(ids) > 0 {
		if err := fn(ids); err != nil {
			return err
		}

		res, err := t.client.Scroll(
			t.client.Scroll.WithContext(ctx),
			t.client.Scroll.WithScrollID(scrollID),
			t.client.Scroll.WithScroll(t.keepAlive),
		)
		if err != nil {
			return fmt.Errorf("elasticsearch scroll error: %w", err)
		}

		ids, scrollID, err = decodeScrollPage(res)
		if err != nil {
			return err
		}
	}

	return nil
}

// BulkDelete removes documents in a single bulk operation.
func (t *Elastic) BulkDelete(ctx context.Context, index string, ids []string) error {
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

	res, err := t.client.Bulk(
		strings.NewReader(bulkBody.String()),
		t.client.Bulk.WithContext(ctx),
		t.client.Bulk.WithIndex(index),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch bulk delete error: %w", err)
	}
	defer closeBody(res.Body)

	if res.IsError() {
		return fmt.Errorf("elasticsearch bulk delete error: %s", res.Status())
	}
	return nil
}

// DeleteIndex drops the whole index; a missing index is not an error.
func (t *Elastic) DeleteIndex(ctx context.Context, index string) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	res, err := t.client.Indices.Delete(
		[]string{index},
		t.client.Indices.Delete.WithContext(ctx),
		t.client.Indices.Delete.WithIgnoreUnavailable(true),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete index error: %w", err)
	}
	defer closeBody(res.Body)

	if res.IsError() {
		return fmt.Errorf("elasticsearch delete index error: %s", res.Status())
	}
	return nil
}

// Refresh forces the index to make recent changes visible.
func (t *Elastic) Refresh(ctx context.Context, index string) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	res, err := t.client.Indices.Refresh(
		t.client.Indices.Refresh.WithContext(ctx),
		t.client.Indices.Refresh.WithIndex(index),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch refresh error: %w", err)
	}
	defer closeBody(res.Body)

	if res.IsError() {
		return fmt.Errorf("elasticsearch refresh error: %s", res.Status())
	}
	return nil
}

// Health reports whether the engine is reachable.
func (t *Elastic) Health(ctx context.Context) error {
	if t == nil || t.client == nil {
		return ErrNilClient
	}

	res, err := t.client.Info(t.client.Info.WithContext(ctx))
	if err != nil {
		return err
	}
	defer closeBody(res.Body)

	if res.IsError() {
		return fmt.Errorf("elasticsearch error: %s", res.Status())
	}
	return nil
}

// GetClient returns the underlying Elasticsearch client.
func (t *Elastic) GetClient() *elasticsearch.Client {
	return t.client
}

func (t *Elastic) clearScroll(ctx context.Context, scrollID string) {
	if scrollID == "" {
		return
	}
	res, err := t.client.ClearScroll(
		t.client.ClearScroll.WithContext(ctx),
		t.client.ClearScroll.WithScrollID(scrollID),
	)
	if err != nil {
		return
	}
	closeBody(res.Body)
}

func decodeScrollPage(res *esapi.Response) ([]string, string, error) {
	defer closeBody(res.Body)

	if res.IsError() {
		return nil, "", fmt.Errorf("elasticsearch scroll error: %s", res.Status())
	}

	var decoded map[string]any
	if err := json.NewDecoder(res.Body).Decode(&decoded); err != nil {
		return nil, "", fmt.Errorf("elasticsearch parsing error: %w", err)
	}

	ids, scrollID := scrollHits(decoded)
	return ids, scrollID, nil
}

func encodeBody(body map[string]any) (io.Reader, error) {
	var b strings.Builder
	if err := json.NewEncoder(&b).Encode(body); err != nil {
		return nil, fmt.Errorf("error encoding query document: %w", err)
	}
	return strings.NewReader(b.String()), nil
}

func closeBody(body io.ReadCloser) {
	if body != nil {
		_ = body.Close()
	}
}
