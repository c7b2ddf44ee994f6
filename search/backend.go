package search

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/gostrata/searchstack/config"
	"github.com/gostrata/searchstack/logging"
	"github.com/gostrata/searchstack/schema"
	"github.com/gostrata/searchstack/search/transport"
)

const defaultBatchSize = 100

// Options configures a Backend.
type Options struct {
	// IndexName is the engine index all operations run against.
	IndexName string
	// SilentlyFail converts transport failures into logged empty results
	// instead of errors, trading completeness for availability. It is a
	// per-backend setting, fixed at construction.
	SilentlyFail bool
	// LimitToRegisteredTypes restricts similarity results to the types
	// known to the registry when no explicit type set is given.
	LimitToRegisteredTypes bool
	// BatchSize is the scroll page size used by Clear.
	BatchSize int
	Logger    *logging.Logger
	Collector Collector
}

// OptionsFromConfig maps backend configuration onto Options.
func OptionsFromConfig(cfg *config.Config) *Options {
	return &Options{
		IndexName:              cfg.IndexName,
		SilentlyFail:           cfg.SilentlyFail,
		LimitToRegisteredTypes: cfg.LimitToRegisteredTypes,
		BatchSize:              cfg.BatchSize,
	}
}

// SimilarOptions narrows a MoreLikeThis call.
type SimilarOptions struct {
	// AdditionalQuery further restricts results; the match-all sentinel is
	// ignored.
	AdditionalQuery string
	// Types restricts results to these entity types. Empty falls back to
	// the LimitToRegisteredTypes policy.
	Types []string
	// StartOffset and EndOffset select the pagination window; EndOffset
	// zero means unbounded.
	StartOffset int
	EndOffset   int
}

// Backend ties one dialect to one transport and one schema registry, and
// carries the silent-fail policy. Compiler and decoder state is pure; the
// cached mapping state is single-writer, not safe for concurrent mutation
// without external synchronization.
type Backend struct {
	transport transport.Transport
	dialect   Dialect
	reg       *schema.Registry
	log       *logging.Logger
	collector Collector

	index             string
	silentlyFail      bool
	limitToRegistered bool
	batchSize         int

	setupComplete bool
	mapping       map[string]any
}

// NewBackend creates a backend. opts may be nil.
func NewBackend(t transport.Transport, d Dialect, reg *schema.Registry, opts *Options) *Backend {
	if opts == nil {
		opts = &Options{}
	}

	b := &Backend{
		transport:         t,
		dialect:           d,
		reg:               reg,
		log:               opts.Logger,
		collector:         opts.Collector,
		index:             opts.IndexName,
		silentlyFail:      opts.SilentlyFail,
		limitToRegistered: opts.LimitToRegisteredTypes,
		batchSize:         opts.BatchSize,
	}

	if b.log == nil {
		b.log = logging.Standard()
	}
	if b.collector == nil {
		b.collector = NoOpCollector{}
	}
	if b.index == "" {
		b.index = "searchstack"
	}
	if b.batchSize <= 0 {
		b.batchSize = defaultBatchSize
	}

	return b
}

// IndexName returns the index all operations run against.
func (b *Backend) IndexName() string {
	return b.index
}

// Search compiles the request, executes it and decodes the response.
func (b *Backend) Search(ctx context.Context, req *Request) (*Result, error) {
	start := time.Now()

	doc := b.dialect.CompileSearch(req, b.reg.ContentField())
	opts := &transport.SearchOptions{From: req.From, Size: req.Size}

	raw, err := b.transport.Search(ctx, b.index, doc, opts)
	b.collector.Query(b.transport.Engine(), err)
	if err != nil {
		if !b.silentlyFail {
			return nil, fmt.Errorf("search on index %q failed: %w", b.index, err)
		}
		b.log.Errorf(ctx, "Failed to search index '%s': %v", b.index, err)
		return EmptyResult(), nil
	}

	result := b.dialect.DecodeResponse(raw)
	result.Duration = time.Since(start)
	return result, nil
}

// MoreLikeThis runs a similarity search seeded by an existing entity's
// indexed content.
func (b *Backend) MoreLikeThis(ctx context.Context, e schema.Entity, opts *SimilarOptions) (*Result, error) {
	if opts == nil {
		opts = &SimilarOptions{}
	}
	start := time.Now()

	docID := schema.Identifier(e)
	contentField := b.reg.ContentFieldFor(e.TypeName())
	doc := b.dialect.CompileSimilar(docID, contentField, opts.AdditionalQuery, b.allowedTypes(opts.Types))

	searchOpts := &transport.SearchOptions{From: opts.StartOffset}
	if opts.EndOffset > opts.StartOffset {
		searchOpts.Size = opts.EndOffset - opts.StartOffset
	}

	raw, err := b.transport.Search(ctx, b.index, doc, searchOpts)
	b.collector.Query(b.transport.Engine(), err)
	if err != nil {
		if !b.silentlyFail {
			return nil, fmt.Errorf("more like this for document %q failed: %w", docID, err)
		}
		b.log.Errorf(ctx, "Failed to fetch More Like This for document '%s': %v", docID, err)
		return EmptyResult(), nil
	}

	result := b.dialect.DecodeResponse(raw)
	result.Duration = time.Since(start)
	return result, nil
}

// allowedTypes resolves the entity-type restriction: explicit types win
// (sorted, deduplicated), otherwise the registered-types policy applies.
func (b *Backend) allowedTypes(explicit []string) []string {
	if len(explicit) > 0 {
		seen := make(map[string]struct{}, len(explicit))
		names := make([]string, 0, len(explicit))
		for _, name := range explicit {
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
		sort.Strings(names)
		return names
	}
	if b.limitToRegistered {
		return b.reg.TypeNames()
	}
	return nil
}

// Clear removes documents of the given entity types, or drops the whole
// index when no types are given. Deletions are idempotent; retrying after
// a mid-scroll failure converges.
func (b *Backend) Clear(ctx context.Context, typeNames ...string) error {
	var err error
	if len(typeNames) == 0 {
		err = b.clearAll(ctx)
	} else {
		err = b.clearTypes(ctx, typeNames)
	}

	b.collector.Query(b.transport.Engine(), err)
	if err == nil {
		b.collector.Operation(b.transport.Engine(), "clear")
		return nil
	}

	if !b.silentlyFail {
		return err
	}
	if len(typeNames) > 0 {
		b.log.Errorf(ctx, "Failed to clear index of types '%s': %v", strings.Join(typeNames, ","), err)
	} else {
		b.log.Errorf(ctx, "Failed to clear index '%s': %v", b.index, err)
	}
	return nil
}

func (b *Backend) clearAll(ctx context.Context) error {
	if err := b.transport.DeleteIndex(ctx, b.index); err != nil {
		return fmt.Errorf("delete index %q failed: %w", b.index, err)
	}
	b.setupComplete = false
	b.mapping = nil
	return nil
}

func (b *Backend) clearTypes(ctx context.Context, typeNames []string) error {
	doc := b.dialect.CompileClear(typeNames)

	var ids []string
	err := b.transport.Scroll(ctx, b.index, doc, b.batchSize, func(page []string) error {
		ids = append(ids, page...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("scan of index %q failed: %w", b.index, err)
	}

	if len(ids) > 0 {
		if err := b.transport.BulkDelete(ctx, b.index, ids); err != nil {
			return fmt.Errorf("bulk delete on index %q failed: %w", b.index, err)
		}
	}

	if err := b.transport.Refresh(ctx, b.index); err != nil {
		return fmt.Errorf("refresh of index %q failed: %w", b.index, err)
	}
	return nil
}

// Health reports whether the backing engine is reachable.
func (b *Backend) Health(ctx context.Context) error {
	return b.transport.Health(ctx)
}

// CacheMapping stores the engine mapping observed during setup. Full-index
// clears invalidate it.
func (b *Backend) CacheMapping(mapping map[string]any) {
	b.mapping = mapping
	b.setupComplete = true
}

// CachedMapping returns the cached mapping state and whether setup has
// completed since the last full clear.
func (b *Backend) CachedMapping() (map[string]any, bool) {
	return b.mapping, b.setupComplete
}
