package domain

import (
	"iter"
	"slices"

	"go.trai.ch/zerr"
)

// Graph is an owning set of typed nodes with a distinguished root.
// Identities are unique within a graph, and every reference either
// targets a node of the graph or has been marked external.
type Graph struct {
	nodes     map[Identity]*Node
	order     []Identity
	root      Identity
	externals map[Identity]struct{}
}

// NewGraph creates a new empty Graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:     make(map[Identity]*Node),
		externals: make(map[Identity]struct{}),
	}
}

// AddNode creates a node owned by the graph.
// It returns ErrDuplicateIdentity if the identity is already taken.
func (g *Graph) AddNode(typeName string, id Identity) (*Node, error) {
	if _, exists := g.nodes[id]; exists {
		return nil, zerr.With(zerr.Wrap(ErrDuplicateIdentity, "cannot add node"), "identity", id.String())
	}
	n := newNode(typeName, id)
	g.nodes[id] = n
	g.order = append(g.order, id)
	return n, nil
}

// FindNode looks a node up by identity.
func (g *Graph) FindNode(id Identity) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// SetProperty sets a property on the identified node.
func (g *Graph) SetProperty(id Identity, name string, v Value) error {
	n, ok := g.nodes[id]
	if !ok {
		return zerr.With(zerr.Wrap(ErrNodeNotFound, "cannot set property"), "identity", id.String())
	}
	n.SetProperty(name, v)
	return nil
}

// InsertChild inserts child into parent's ordered children at index.
// A negative or out of range index appends.
func (g *Graph) InsertChild(parent, child Identity, index int) error {
	p, ok := g.nodes[parent]
	if !ok {
		return zerr.With(zerr.Wrap(ErrNodeNotFound, "unknown parent"), "identity", parent.String())
	}
	if _, ok := g.nodes[child]; !ok {
		return zerr.With(zerr.Wrap(ErrNodeNotFound, "unknown child"), "identity", child.String())
	}
	if index < 0 || index > len(p.children) {
		index = len(p.children)
	}
	p.children = slices.Insert(p.children, index, child)
	return nil
}

// SetChildren replaces the ordered children of parent. Children need not exist yet;
// Validate reports children that never materialised.
func (g *Graph) SetChildren(parent Identity, children []Identity) error {
	p, ok := g.nodes[parent]
	if !ok {
		return zerr.With(zerr.Wrap(ErrNodeNotFound, "unknown parent"), "identity", parent.String())
	}
	p.children = slices.Clone(children)
	return nil
}

// Root returns the root identity. It is invalid for an empty graph.
func (g *Graph) Root() Identity { return g.root }

// SetRoot sets the root identity.
func (g *Graph) SetRoot(id Identity) { g.root = id }

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Nodes yields nodes in insertion order.
func (g *Graph) Nodes() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		for _, id := range g.order {
			if !yield(g.nodes[id]) {
				return
			}
		}
	}
}

// Walk yields the nodes reachable from the root in pre-order.
func (g *Graph) Walk() iter.Seq[*Node] {
	return func(yield func(*Node) bool) {
		root, ok := g.nodes[g.root]
		if !ok {
			return
		}
		visited := make(map[Identity]bool, len(g.nodes))
		stack := []*Node{root}
		for len(stack) > 0 {
			n := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if visited[n.id] {
				continue
			}
			visited[n.id] = true
			if !yield(n) {
				return
			}
			for i := len(n.children) - 1; i >= 0; i-- {
				if c, ok := g.nodes[n.children[i]]; ok && !visited[c.id] {
					stack = append(stack, c)
				}
			}
		}
	}
}

// Parents returns a child → parent index of the graph.
func (g *Graph) Parents() map[Identity]Identity {
	parents := make(map[Identity]Identity, len(g.nodes))
	for _, id := range g.order {
		for _, c := range g.nodes[id].children {
			parents[c] = id
		}
	}
	return parents
}

// Parent returns the parent of id and id's position among its siblings.
func (g *Graph) Parent(id Identity) (Identity, int, bool) {
	for _, pid := range g.order {
		if i := slices.Index(g.nodes[pid].children, id); i >= 0 {
			return pid, i, true
		}
	}
	return Identity{}, 0, false
}

// Remove deletes id and its descendants and detaches id from its parent.
// Removing the root leaves the graph without one.
func (g *Graph) Remove(id Identity) error {
	if _, ok := g.nodes[id]; !ok {
		return zerr.With(zerr.Wrap(ErrNodeNotFound, "cannot remove node"), "identity", id.String())
	}
	if parent, i, ok := g.Parent(id); ok {
		p := g.nodes[parent]
		p.children = slices.Delete(p.children, i, i+1)
	}

	view := &Graph{nodes: g.nodes, root: id}
	removed := make(map[Identity]bool)
	for n := range view.Walk() {
		removed[n.id] = true
	}
	for rid := range removed {
		delete(g.nodes, rid)
	}
	g.order = slices.DeleteFunc(g.order, func(i Identity) bool { return removed[i] })
	if removed[g.root] {
		g.root = Identity{}
	}
	return nil
}

// Attach copies every node of sub into g and inserts sub's root under parent at index.
// An invalid parent leaves the copied root detached. Nothing is copied when any identity
// of sub already exists in g.
func (g *Graph) Attach(sub *Graph, parent Identity, index int) error {
	if parent.IsValid() {
		if _, ok := g.nodes[parent]; !ok {
			return zerr.With(zerr.Wrap(ErrNodeNotFound, "unknown parent"), "identity", parent.String())
		}
	}
	if _, ok := sub.nodes[sub.root]; !ok {
		return zerr.Wrap(ErrNodeNotFound, "attached graph has no root")
	}
	for _, id := range sub.order {
		if _, exists := g.nodes[id]; exists {
			return zerr.With(zerr.Wrap(ErrDuplicateIdentity, "cannot attach graph"), "identity", id.String())
		}
	}

	for _, id := range sub.order {
		g.nodes[id] = sub.nodes[id].copyContent(id, func(i Identity) Identity { return i })
		g.order = append(g.order, id)
	}
	for id := range sub.externals {
		if _, ok := g.nodes[id]; !ok {
			g.externals[id] = struct{}{}
		}
	}
	if !parent.IsValid() {
		return nil
	}
	return g.InsertChild(parent, sub.root, index)
}

// MarkExternal declares id as a reference target that lives outside the graph.
func (g *Graph) MarkExternal(id Identity) { g.externals[id] = struct{}{} }

// IsExternal reports whether id was marked external.
func (g *Graph) IsExternal(id Identity) bool {
	_, ok := g.externals[id]
	return ok
}

// Externals returns the external identities in ascending textual order.
func (g *Graph) Externals() []Identity {
	out := make([]Identity, 0, len(g.externals))
	for id := range g.externals {
		out = append(out, id)
	}
	slices.SortFunc(out, func(a, b Identity) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		default:
			return 0
		}
	})
	return out
}

// Clone returns a deep copy.
func (g *Graph) Clone() *Graph {
	return g.mapIdentities(func(id Identity) Identity { return id })
}

// Remap returns a copy whose node identities, and the references that target them,
// are forward-remapped with seed. References to external objects are kept.
func (g *Graph) Remap(seed Seed) *Graph {
	return g.mapIdentities(g.internal(func(id Identity) Identity { return Remap(id, seed) }))
}

// ReverseRemap is the inverse of Remap.
func (g *Graph) ReverseRemap(seed Seed) *Graph {
	return g.mapIdentities(g.internal(func(id Identity) Identity { return ReverseRemap(id, seed) }))
}

// internal restricts fn to identities of nodes of g.
func (g *Graph) internal(fn func(Identity) Identity) func(Identity) Identity {
	return func(id Identity) Identity {
		if _, ok := g.nodes[id]; ok {
			return fn(id)
		}
		return id
	}
}

func (g *Graph) mapIdentities(fn func(Identity) Identity) *Graph {
	out := NewGraph()
	for _, id := range g.order {
		mapped := fn(id)
		out.nodes[mapped] = g.nodes[id].copyContent(mapped, fn)
		out.order = append(out.order, mapped)
	}
	if g.root.IsValid() {
		out.root = fn(g.root)
	}
	for id := range g.externals {
		out.externals[id] = struct{}{}
	}
	return out
}

// Subtree copies the node id and its descendants into a new graph rooted at id.
// References leaving the subtree are marked external in the copy.
func (g *Graph) Subtree(id Identity) (*Graph, error) {
	if _, ok := g.nodes[id]; !ok {
		return nil, zerr.With(zerr.Wrap(ErrNodeNotFound, "cannot extract subtree"), "identity", id.String())
	}
	view := &Graph{nodes: g.nodes, root: id}
	out := NewGraph()
	out.root = id
	for n := range view.Walk() {
		out.nodes[n.id] = n.copyContent(n.id, func(i Identity) Identity { return i })
		out.order = append(out.order, n.id)
	}
	for _, nid := range out.order {
		for p := range out.nodes[nid].Properties() {
			p.Value.references(func(ref Identity) {
				if _, ok := out.nodes[ref]; !ok && ref.IsValid() {
					out.externals[ref] = struct{}{}
				}
			})
		}
	}
	return out, nil
}

// Validate checks structural integrity and, when registry is non-nil, schema conformance.
func (g *Graph) Validate(registry *SchemaRegistry) error {
	if g.root.IsValid() {
		if _, ok := g.nodes[g.root]; !ok {
			return zerr.With(zerr.Wrap(ErrNodeNotFound, "root is not a node of the graph"), "identity", g.root.String())
		}
	}
	seenChild := make(map[Identity]Identity, len(g.nodes))
	for _, id := range g.order {
		n := g.nodes[id]
		for _, c := range n.children {
			if _, ok := g.nodes[c]; !ok {
				return zerr.With(zerr.With(zerr.Wrap(ErrNodeNotFound, "child is not a node of the graph"),
					"parent", id.String()), "child", c.String())
			}
			if prev, dup := seenChild[c]; dup {
				return zerr.With(zerr.With(zerr.Wrap(ErrDuplicateIdentity, "node has more than one parent"),
					"child", c.String()), "parents", prev.String()+","+id.String())
			}
			seenChild[c] = id
		}
		if err := g.validateReferences(n); err != nil {
			return err
		}
		if registry != nil {
			if err := registry.Check(n); err != nil {
				return err
			}
		}
	}
	return nil
}

func (g *Graph) validateReferences(n *Node) error {
	var err error
	for p := range n.Properties() {
		p.Value.references(func(ref Identity) {
			if err != nil || !ref.IsValid() {
				return
			}
			if _, ok := g.nodes[ref]; ok {
				return
			}
			if g.IsExternal(ref) {
				return
			}
			err = zerr.With(zerr.With(zerr.With(zerr.Wrap(ErrDanglingReference, "reference has no target"),
				"node", n.id.String()), "property", p.Name), "target", ref.String())
		})
		if err != nil {
			return err
		}
	}
	return nil
}
