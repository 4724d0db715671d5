// Package document implements an in-memory authored document: an object tree,
// per-object prefab metadata and a transactional command history.
package document

import (
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
)

// RootType is the type of the root object of a newly created document.
const RootType = "Document"

var _ ports.Document = (*Document)(nil)

// Document implements ports.Document. It is not safe for concurrent use.
type Document struct {
	id       domain.Identity
	graph    *domain.Graph
	meta     map[domain.Identity]domain.InstanceMetadata
	codec    ports.GraphCodec
	registry *domain.SchemaRegistry

	open []*transaction
	undo []*transaction
	redo []*transaction
}

// Option configures a Document.
type Option func(*Document)

// WithMetadata seeds the metadata store.
func WithMetadata(meta map[domain.Identity]domain.InstanceMetadata) Option {
	return func(d *Document) {
		for id, m := range meta {
			d.meta[id] = m
		}
	}
}

// WithSchemas validates instantiated graphs against registry.
func WithSchemas(registry *domain.SchemaRegistry) Option {
	return func(d *Document) {
		d.registry = registry
	}
}

// New wraps g as a document. The graph must have a root and is owned by the document afterwards.
func New(id domain.Identity, g *domain.Graph, codec ports.GraphCodec, opts ...Option) (*Document, error) {
	if _, ok := g.FindNode(g.Root()); !ok {
		return nil, zerr.With(zerr.Wrap(domain.ErrNodeNotFound, "document has no root object"), "document", id.String())
	}
	d := &Document{
		id:    id,
		graph: g,
		meta:  make(map[domain.Identity]domain.InstanceMetadata),
		codec: codec,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Empty creates a document containing only a root object.
func Empty(codec ports.GraphCodec, opts ...Option) *Document {
	g := domain.NewGraph()
	root := domain.NewIdentity()
	_, _ = g.AddNode(RootType, root)
	g.SetRoot(root)
	d, _ := New(domain.NewIdentity(), g, codec, opts...)
	return d
}

// ID returns the identity of the document.
func (d *Document) ID() domain.Identity { return d.id }

// Root returns the root object.
func (d *Document) Root() domain.Identity { return d.graph.Root() }

// Contains reports whether object is part of the document.
func (d *Document) Contains(object domain.Identity) bool {
	_, ok := d.graph.FindNode(object)
	return ok
}

// Object returns the node of object.
func (d *Document) Object(object domain.Identity) (*domain.Node, bool) {
	return d.graph.FindNode(object)
}

// Children returns the ordered children of object.
func (d *Document) Children(object domain.Identity) []domain.Identity {
	n, ok := d.graph.FindNode(object)
	if !ok {
		return nil
	}
	return n.Children()
}

// Parent returns the parent of object and its index among its siblings.
func (d *Document) Parent(object domain.Identity) (domain.Identity, int, bool) {
	return d.graph.Parent(object)
}

// Snapshot copies object and its descendants into a new graph.
func (d *Document) Snapshot(object domain.Identity) (*domain.Graph, error) {
	g, err := d.graph.Subtree(object)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "cannot snapshot object"), "object", object.String())
	}
	return g, nil
}

// CreateObject adds a detached object to the document.
func (d *Document) CreateObject(typeName string, id domain.Identity) (*domain.Node, error) {
	return d.graph.AddNode(typeName, id)
}

// AddObject attaches a detached object under parent.
func (d *Document) AddObject(obj *domain.Node, parent domain.Identity, index int) error {
	if _, _, attached := d.graph.Parent(obj.ID()); attached || obj.ID() == d.graph.Root() {
		return zerr.With(zerr.Wrap(domain.ErrInvalidSelection, "object is already attached"), "object", obj.ID().String())
	}
	return d.graph.InsertChild(parent, obj.ID(), index)
}

// RemoveObject removes object, its descendants and their metadata.
func (d *Document) RemoveObject(object domain.Identity) error {
	if object == d.graph.Root() {
		return zerr.With(zerr.Wrap(domain.ErrInvalidSelection, "cannot remove the document root"), "object", object.String())
	}
	sub, err := d.Snapshot(object)
	if err != nil {
		return err
	}
	for n := range sub.Nodes() {
		delete(d.meta, n.ID())
	}
	return d.graph.Remove(object)
}

// ReadMetadata returns the prefab metadata attached to object.
func (d *Document) ReadMetadata(object domain.Identity) (domain.InstanceMetadata, bool) {
	m, ok := d.meta[object]
	return m, ok
}

// WriteMetadata attaches meta to object.
func (d *Document) WriteMetadata(object domain.Identity, meta domain.InstanceMetadata) {
	d.meta[object] = meta
}

// ClearMetadata detaches any metadata from object.
func (d *Document) ClearMetadata(object domain.Identity) {
	delete(d.meta, object)
}
