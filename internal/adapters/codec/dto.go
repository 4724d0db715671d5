package codec

import (
	"encoding/json"
	"errors"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/zerr"
)

type fileDTO struct {
	Version   int                                         `json:"version"`
	Document  domain.Identity                             `json:"document,omitzero"`
	Root      domain.Identity                             `json:"root,omitzero"`
	Externals []domain.Identity                           `json:"externals,omitempty"`
	Nodes     []nodeDTO                                   `json:"nodes"`
	Prefabs   map[domain.Identity]domain.InstanceMetadata `json:"prefabs,omitempty"`
}

type nodeDTO struct {
	ID         domain.Identity   `json:"id"`
	Type       string            `json:"type"`
	Properties []propertyDTO     `json:"properties,omitempty"`
	Children   []domain.Identity `json:"children,omitempty"`
}

type propertyDTO struct {
	Name string `json:"name"`
	valueDTO
}

type valueDTO struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value"`
}

func newFileDTO(f *File) (fileDTO, error) {
	g := f.Graph
	if g == nil {
		g = domain.NewGraph()
	}
	dto := fileDTO{
		Version:   FormatVersion,
		Document:  f.Document,
		Root:      g.Root(),
		Externals: g.Externals(),
		Nodes:     make([]nodeDTO, 0, g.Len()),
	}
	if len(f.Prefabs) > 0 {
		dto.Prefabs = f.Prefabs
	}

	written := make(map[domain.Identity]bool, g.Len())
	emit := func(n *domain.Node) error {
		nd, err := encodeNode(n)
		if err != nil {
			return err
		}
		dto.Nodes = append(dto.Nodes, nd)
		written[n.ID()] = true
		return nil
	}
	for n := range g.Walk() {
		if err := emit(n); err != nil {
			return fileDTO{}, err
		}
	}
	for n := range g.Nodes() {
		if written[n.ID()] {
			continue
		}
		if err := emit(n); err != nil {
			return fileDTO{}, err
		}
	}
	return dto, nil
}

func encodeNode(n *domain.Node) (nodeDTO, error) {
	nd := nodeDTO{
		ID:       n.ID(),
		Type:     n.Type(),
		Children: n.Children(),
	}
	for p := range n.Properties() {
		v, err := encodeValue(p.Value)
		if err != nil {
			return nodeDTO{}, zerr.With(zerr.With(err, "node", n.ID().String()), "property", p.Name)
		}
		nd.Properties = append(nd.Properties, propertyDTO{Name: p.Name, valueDTO: v})
	}
	return nd, nil
}

func encodeValue(v domain.Value) (valueDTO, error) {
	var raw any
	switch v.Kind() {
	case domain.KindBool:
		raw = v.AsBool()
	case domain.KindInt:
		raw = v.AsInt()
	case domain.KindFloat:
		raw = v.AsFloat()
	case domain.KindString:
		raw = v.AsString()
	case domain.KindReference:
		raw = v.AsReference()
	case domain.KindArray:
		elems := make([]valueDTO, 0, v.Len())
		for _, e := range v.Elems() {
			enc, err := encodeValue(e)
			if err != nil {
				return valueDTO{}, err
			}
			elems = append(elems, enc)
		}
		raw = elems
	default:
		return valueDTO{}, zerr.Wrap(domain.ErrSerializeFailed, "value has no kind")
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return valueDTO{}, zerr.Wrap(errors.Join(domain.ErrSerializeFailed, err), "failed to encode value")
	}
	return valueDTO{Kind: v.Kind().String(), Value: data}, nil
}

func decodeValue(dto valueDTO) (domain.Value, error) {
	kind, ok := domain.ParseValueKind(dto.Kind)
	if !ok {
		return domain.Value{}, zerr.With(zerr.Wrap(domain.ErrParseFailed, "unknown value kind"), "kind", dto.Kind)
	}

	var (
		v   domain.Value
		err error
	)
	switch kind {
	case domain.KindBool:
		var b bool
		err = json.Unmarshal(dto.Value, &b)
		v = domain.Bool(b)
	case domain.KindInt:
		var i int64
		err = json.Unmarshal(dto.Value, &i)
		v = domain.Int(i)
	case domain.KindFloat:
		var f float64
		err = json.Unmarshal(dto.Value, &f)
		v = domain.Float(f)
	case domain.KindString:
		var s string
		err = json.Unmarshal(dto.Value, &s)
		v = domain.String(s)
	case domain.KindReference:
		var id domain.Identity
		err = json.Unmarshal(dto.Value, &id)
		v = domain.Reference(id)
	case domain.KindArray:
		var raw []valueDTO
		if err = json.Unmarshal(dto.Value, &raw); err == nil {
			elems := make([]domain.Value, 0, len(raw))
			for _, r := range raw {
				e, derr := decodeValue(r)
				if derr != nil {
					return domain.Value{}, derr
				}
				elems = append(elems, e)
			}
			v = domain.Array(elems...)
		}
	}
	if err != nil {
		return domain.Value{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrParseFailed, err), "invalid value"), "kind", dto.Kind)
	}
	return v, nil
}

// fill rebuilds the graph described by dto into g.
func (dto fileDTO) fill(g *domain.Graph) error {
	for _, nd := range dto.Nodes {
		n, err := g.AddNode(nd.Type, nd.ID)
		if err != nil {
			return errors.Join(domain.ErrParseFailed, err)
		}
		for _, p := range nd.Properties {
			if _, dup := n.Property(p.Name); dup {
				return zerr.With(zerr.With(zerr.Wrap(domain.ErrParseFailed, "duplicate property"),
					"node", nd.ID.String()), "property", p.Name)
			}
			v, err := decodeValue(p.valueDTO)
			if err != nil {
				return zerr.With(zerr.With(err, "node", nd.ID.String()), "property", p.Name)
			}
			n.SetProperty(p.Name, v)
		}
	}
	for _, nd := range dto.Nodes {
		if len(nd.Children) == 0 {
			continue
		}
		if err := g.SetChildren(nd.ID, nd.Children); err != nil {
			return errors.Join(domain.ErrParseFailed, err)
		}
	}
	for _, id := range dto.Externals {
		g.MarkExternal(id)
	}
	g.SetRoot(dto.Root)
	if err := g.Validate(nil); err != nil {
		return errors.Join(domain.ErrParseFailed, err)
	}
	return nil
}
