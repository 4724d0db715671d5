// Package docstore loads and saves authored documents on disk.
package docstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"go.trai.ch/prefab/internal/adapters/codec"
	"go.trai.ch/prefab/internal/adapters/document"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.DocumentStore = (*Store)(nil)

// Store implements ports.DocumentStore using one codec file per document.
type Store struct {
	codec   *codec.Codec
	schemas *domain.SchemaRegistry
}

// NewStore creates a Store. Loaded documents validate instantiated graphs against schemas
// when it is non-nil.
func NewStore(c *codec.Codec, schemas *domain.SchemaRegistry) *Store {
	return &Store{codec: c, schemas: schemas}
}

// Load reads the document stored at path.
func (s *Store) Load(path string) (ports.Document, error) {
	path = filepath.Clean(path)

	//nolint:gosec // Path is cleaned and provided by trusted caller
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, zerr.With(zerr.Wrap(domain.ErrDocumentReadFailed, "document does not exist"), "path", path)
		}
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentReadFailed, err), "failed to read document"), "path", path)
	}

	f, err := s.codec.ParseFile(string(data))
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentReadFailed, err), "invalid document"), "path", path)
	}
	id := f.Document
	if !id.IsValid() {
		id = domain.NewIdentity()
	}

	doc, err := document.New(id, f.Graph, s.codec,
		document.WithMetadata(f.Prefabs),
		document.WithSchemas(s.schemas),
	)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentReadFailed, err), "invalid document"), "path", path)
	}
	return doc, nil
}

// Save writes doc to path. Only objects reachable from the document root are written.
func (s *Store) Save(path string, doc ports.Document) error {
	path = filepath.Clean(path)

	g, err := doc.Snapshot(doc.Root())
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentWriteFailed, err), "failed to snapshot document"), "path", path)
	}
	prefabs := make(map[domain.Identity]domain.InstanceMetadata)
	for n := range g.Nodes() {
		if meta, ok := doc.ReadMetadata(n.ID()); ok {
			prefabs[n.ID()] = meta
		}
	}

	text, err := s.codec.SerializeFile(&codec.File{Document: doc.ID(), Graph: g, Prefabs: prefabs})
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentWriteFailed, err), "failed to encode document"), "path", path)
	}

	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentWriteFailed, err), "failed to create document directory"),
			"path", path)
	}
	//nolint:gosec // Path is cleaned and provided by trusted caller
	if err := os.WriteFile(path, []byte(text), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrDocumentWriteFailed, err), "failed to write document"),
			"path", path)
	}
	return nil
}
