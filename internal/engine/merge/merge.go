// Package merge implements the three-way merge of a template instance against its template.
package merge

import (
	"errors"
	"slices"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
)

// Merger reconciles live instances with template changes.
type Merger struct {
	codec ports.GraphCodec
}

// New creates a Merger that parses and serializes through codec.
func New(codec ports.GraphCodec) *Merger {
	return &Merger{codec: codec}
}

// Merge merges the live instance against the template change from baseText to newText and
// returns the merged instance as graph text in document identity space.
// An empty baseText merges against an empty base, so every live property counts as an override.
func (m *Merger) Merge(baseText, newText string, instance *domain.Graph, seed domain.Seed) (string, *Report, error) {
	if newText == "" {
		return "", nil, zerr.Wrap(domain.ErrTemplateNotFound, "template has no content")
	}
	next, err := m.codec.ParseGraph(newText)
	if err != nil {
		return "", nil, zerr.Wrap(asParseError(err), "cannot parse template")
	}

	base := domain.NewGraph()
	if baseText != "" {
		if base, err = m.codec.ParseGraph(baseText); err != nil {
			return "", nil, zerr.Wrap(asParseError(err), "cannot parse base snapshot")
		}
	}

	merged, report, err := m.Graphs(base, next, instance, seed)
	if err != nil {
		return "", nil, err
	}
	text, err := m.codec.SerializeGraph(merged)
	if err != nil {
		return "", nil, err
	}
	return text, report, nil
}

func asParseError(err error) error {
	if errors.Is(err, domain.ErrParseFailed) {
		return err
	}
	return errors.Join(domain.ErrParseFailed, err)
}

// Graphs merges parsed graphs. base and next are template-relative, instance is in document
// space; the result is in document space. None of the inputs are modified.
func (m *Merger) Graphs(base, next, instance *domain.Graph, seed domain.Seed) (*domain.Graph, *Report, error) {
	if _, ok := next.FindNode(next.Root()); !ok {
		return nil, nil, zerr.Wrap(domain.ErrParseFailed, "template has no root")
	}
	if base == nil {
		base = domain.NewGraph()
	}
	live := domain.NewGraph()
	if instance != nil {
		live = instance.ReverseRemap(seed)
	}

	report := newReport()
	result := domain.NewGraph()

	for n := range next.Walk() {
		out, err := result.AddNode(n.Type(), n.ID())
		if err != nil {
			return nil, nil, err
		}
		if err := result.SetChildren(n.ID(), n.Children()); err != nil {
			return nil, nil, err
		}

		ln, inLive := live.FindNode(n.ID())
		if !inLive {
			copyProperties(out, n)
			report.Added = append(report.Added, n.ID())
			continue
		}
		bn, _ := base.FindNode(n.ID())
		reconcile(out, ln, bn, n, report)
	}
	result.SetRoot(next.Root())

	if err := keepUserContent(result, live, base, next, report); err != nil {
		return nil, nil, err
	}
	markDangling(result)

	report.Added = remapAll(report.Added, seed)
	report.Dropped = remapAll(report.Dropped, seed)
	report.Reattached = remapAll(report.Reattached, seed)
	return result.Remap(seed), report, nil
}

func reconcile(out, live, base, next *domain.Node, report *Report) {
	names := make([]string, 0, next.PropertyCount()+live.PropertyCount())
	for p := range next.Properties() {
		names = append(names, p.Name)
	}
	for p := range live.Properties() {
		if _, ok := next.Property(p.Name); !ok {
			names = append(names, p.Name)
		}
	}

	for _, name := range names {
		d := Decide(state(live, name), state(base, name), state(next, name))
		report.Outcomes[d.Outcome]++
		if d.Result.Present {
			out.SetProperty(name, d.Result.Value)
		}
	}
}

func state(n *domain.Node, name string) PropertyState {
	if n == nil {
		return Absent
	}
	v, ok := n.Property(name)
	if !ok {
		return Absent
	}
	return Present(v)
}

func copyProperties(out, from *domain.Node) {
	for p := range from.Properties() {
		out.SetProperty(p.Name, p.Value)
	}
}

// keepUserContent carries over live nodes that neither base nor next know. Live nodes the
// template deleted are dropped.
func keepUserContent(result, live, base, next *domain.Graph, report *Report) error {
	parents := live.Parents()
	for n := range live.Walk() {
		id := n.ID()
		if _, ok := next.FindNode(id); ok {
			continue
		}
		_, inBase := base.FindNode(id)
		parent, hasParent := parents[id]
		if inBase || !hasParent {
			report.Dropped = append(report.Dropped, id)
			continue
		}

		out, err := result.AddNode(n.Type(), id)
		if err != nil {
			return err
		}
		copyProperties(out, n)

		target, index, moved := placement(result, live, parents, id, parent)
		if moved {
			report.Reattached = append(report.Reattached, id)
		}
		if err := result.InsertChild(target, id, index); err != nil {
			return err
		}
	}
	return nil
}

// placement finds where a user-only node goes. Under a surviving parent it follows its nearest
// preceding surviving sibling, or goes first. Otherwise it is appended to the nearest surviving
// ancestor, or to the result root.
func placement(result, live *domain.Graph, parents map[domain.Identity]domain.Identity,
	id, parent domain.Identity,
) (domain.Identity, int, bool) {
	if pn, ok := result.FindNode(parent); ok {
		kept := pn.Children()
		lp, _ := live.FindNode(parent)
		siblings := lp.Children()
		for i := slices.Index(siblings, id) - 1; i >= 0; i-- {
			if j := slices.Index(kept, siblings[i]); j >= 0 {
				return parent, j + 1, false
			}
		}
		return parent, 0, false
	}

	for cur := parent; ; {
		ancestor, ok := parents[cur]
		if !ok {
			return result.Root(), -1, true
		}
		if _, ok := result.FindNode(ancestor); ok {
			return ancestor, -1, true
		}
		cur = ancestor
	}
}

// markDangling declares every reference without a target in g as external.
func markDangling(g *domain.Graph) {
	for n := range g.Nodes() {
		for p := range n.Properties() {
			eachReference(p.Value, func(ref domain.Identity) {
				if _, ok := g.FindNode(ref); !ok && ref.IsValid() {
					g.MarkExternal(ref)
				}
			})
		}
	}
}

func eachReference(v domain.Value, fn func(domain.Identity)) {
	switch v.Kind() {
	case domain.KindReference:
		fn(v.AsReference())
	case domain.KindArray:
		for _, e := range v.Elems() {
			eachReference(e, fn)
		}
	}
}
