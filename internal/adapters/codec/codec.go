// Package codec implements the JSON text encoding of object graphs and document files.
package codec

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/tidwall/jsonc"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
)

// FormatVersion is the version written to every encoded file.
const FormatVersion = 1

var _ ports.GraphCodec = (*Codec)(nil)

// File is a decoded document or template file.
type File struct {
	// Document is the identity of the file's document. It is invalid for bare graph text.
	Document domain.Identity
	Graph    *domain.Graph
	// Prefabs holds instance metadata keyed by instance root. Templates carry none.
	Prefabs map[domain.Identity]domain.InstanceMetadata
}

// Codec implements ports.GraphCodec over JSON. Input may contain comments and
// trailing commas.
type Codec struct{}

// New creates a new Codec.
func New() *Codec {
	return &Codec{}
}

// ParseGraph decodes graph text, ignoring document-level fields.
func (c *Codec) ParseGraph(text string) (*domain.Graph, error) {
	f, err := c.ParseFile(text)
	if err != nil {
		return nil, err
	}
	return f.Graph, nil
}

// SerializeGraph encodes g without document-level fields.
func (c *Codec) SerializeGraph(g *domain.Graph) (string, error) {
	return c.SerializeFile(&File{Graph: g})
}

// ParseFile decodes a full document or template file.
func (c *Codec) ParseFile(text string) (*File, error) {
	if strings.TrimSpace(text) == "" {
		return nil, zerr.Wrap(domain.ErrParseFailed, "empty graph text")
	}

	var dto fileDTO
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &dto); err != nil {
		return nil, zerr.Wrap(errors.Join(domain.ErrParseFailed, err), "invalid graph json")
	}
	if dto.Version > FormatVersion {
		return nil, zerr.With(zerr.Wrap(domain.ErrParseFailed, "unsupported format version"), "version", dto.Version)
	}

	f := &File{
		Document: dto.Document,
		Graph:    domain.NewGraph(),
		Prefabs:  dto.Prefabs,
	}
	if err := dto.fill(f.Graph); err != nil {
		return nil, err
	}
	return f, nil
}

// SerializeFile encodes f. Nodes reachable from the root are written in pre-order,
// followed by any unreachable nodes in insertion order.
func (c *Codec) SerializeFile(f *File) (string, error) {
	dto, err := newFileDTO(f)
	if err != nil {
		return "", err
	}
	data, err := json.MarshalIndent(dto, "", "  ")
	if err != nil {
		return "", zerr.Wrap(errors.Join(domain.ErrSerializeFailed, err), "failed to marshal graph")
	}
	return string(data) + "\n", nil
}

// DocumentIdentity extracts the document identity from file text without decoding the graph.
func (c *Codec) DocumentIdentity(text string) (domain.Identity, error) {
	var header struct {
		Document domain.Identity `json:"document"`
	}
	if err := json.Unmarshal(jsonc.ToJSON([]byte(text)), &header); err != nil {
		return domain.Identity{}, zerr.Wrap(errors.Join(domain.ErrParseFailed, err), "invalid file header")
	}
	return header.Document, nil
}
