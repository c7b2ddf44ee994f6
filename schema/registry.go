package schema

import (
	"fmt"
	"sort"
	"sync"
)

// ContentTypeField is the indexed field carrying the canonical entity type
// of every document. Queries that narrow by entity type key on it.
const ContentTypeField = "content_type"

// DefaultContentField is the document field searched when no entity type
// declares its own primary text field.
const DefaultContentField = "text"

// facetFieldSuffix is appended to a logical field name to obtain the
// non-analyzed companion field used for aggregations.
const facetFieldSuffix = "_exact"

// Entity is anything indexable with a stable identity.
type Entity interface {
	TypeName() string
	ID() string
}

// Identifier returns the canonical document id for an entity,
// e.g. "blog.post.42".
func Identifier(e Entity) string {
	return fmt.Sprintf("%s.%s", e.TypeName(), e.ID())
}

// EntityType describes one registered entity type.
type EntityType struct {
	// Name is the canonical type label, e.g. "blog.post".
	Name string
	// ContentField overrides the registry-wide primary text field.
	ContentField string
}

// Registry holds the entity types known to the current routing
// configuration, plus field-naming conventions shared by all of them.
// Reads vastly outnumber writes; registration normally happens once at
// startup.
type Registry struct {
	mu           sync.RWMutex
	types        map[string]*EntityType
	facetFields  map[string]string
	contentField string
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		types:        make(map[string]*EntityType),
		facetFields:  make(map[string]string),
		contentField: DefaultContentField,
	}
}

// Register adds or replaces an entity type.
func (r *Registry) Register(t *EntityType) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name] = t
}

// Type looks up a registered entity type by canonical name.
func (r *Registry) Type(name string) (*EntityType, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// TypeNames returns the canonical names of all registered types, sorted.
func (r *Registry) TypeNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetContentField sets the registry-wide primary text field.
func (r *Registry) SetContentField(field string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.contentField = field
}

// ContentField returns the registry-wide primary text field.
func (r *Registry) ContentField() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.contentField
}

// ContentFieldFor returns the primary text field for one entity type,
// falling back to the registry-wide field.
func (r *Registry) ContentFieldFor(typeName string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if t, ok := r.types[typeName]; ok && t.ContentField != "" {
		return t.ContentField
	}
	return r.contentField
}

// MapFacetField declares an explicit facet field for a logical field,
// overriding the default naming convention.
func (r *Registry) MapFacetField(logical, indexed string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.facetFields[logical] = indexed
}

// FacetFieldName resolves the indexed field used to aggregate on a logical
// field. Unmapped fields follow the "<field>_exact" convention.
func (r *Registry) FacetFieldName(logical string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if indexed, ok := r.facetFields[logical]; ok {
		return indexed
	}
	return logical + facetFieldSuffix
}
