package domain

import (
	"slices"

	"go.trai.ch/zerr"
)

// TypeSchema declares the properties a node type may carry.
type TypeSchema struct {
	Name       string
	Properties map[string]ValueKind
}

// SchemaRegistry holds the known node types.
type SchemaRegistry struct {
	types map[string]TypeSchema
}

// NewSchemaRegistry creates a registry from the given schemas.
func NewSchemaRegistry(schemas ...TypeSchema) *SchemaRegistry {
	r := &SchemaRegistry{types: make(map[string]TypeSchema, len(schemas))}
	for _, s := range schemas {
		r.Register(s)
	}
	return r
}

// Register adds or replaces a schema.
func (r *SchemaRegistry) Register(s TypeSchema) {
	r.types[s.Name] = s
}

// Lookup returns the schema registered under name.
func (r *SchemaRegistry) Lookup(name string) (TypeSchema, bool) {
	s, ok := r.types[name]
	return s, ok
}

// Names returns the registered type names, sorted.
func (r *SchemaRegistry) Names() []string {
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Check verifies that the node's type is registered and that every property
// it carries is declared with a matching kind.
func (r *SchemaRegistry) Check(n *Node) error {
	s, ok := r.types[n.Type()]
	if !ok {
		return zerr.With(zerr.With(zerr.Wrap(ErrUnknownType, "node type is not registered"),
			"node", n.ID().String()), "type", n.Type())
	}
	for p := range n.Properties() {
		kind, declared := s.Properties[p.Name]
		if !declared || kind != p.Value.Kind() {
			return zerr.With(zerr.With(zerr.With(zerr.Wrap(ErrSchemaMismatch, "property does not match schema"),
				"node", n.ID().String()), "property", p.Name), "kind", p.Value.Kind().String())
		}
	}
	return nil
}
