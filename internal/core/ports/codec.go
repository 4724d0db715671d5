package ports

import "go.trai.ch/prefab/internal/core/domain"

// GraphCodec converts graphs to and from their textual form.
//
//go:generate go run go.uber.org/mock/mockgen -source=codec.go -destination=mocks/mock_codec.go -package=mocks
type GraphCodec interface {
	// ParseGraph decodes graph text. Malformed input yields an error wrapping domain.ErrParseFailed.
	ParseGraph(text string) (*domain.Graph, error)

	// SerializeGraph encodes g. Equal graphs always produce identical text.
	SerializeGraph(g *domain.Graph) (string, error)
}
