package domain

import (
	"iter"
	"slices"
)

// Property is a named value on a node.
type Property struct {
	Name  string
	Value Value
}

// Node is one object of a Graph. Nodes are owned by their graph; callers hold *Node
// handles but never create nodes except through Graph.AddNode.
type Node struct {
	id       Identity
	typeName string
	props    []Property
	index    map[string]int
	children []Identity
}

func newNode(typeName string, id Identity) *Node {
	return &Node{
		id:       id,
		typeName: typeName,
		index:    make(map[string]int),
	}
}

// ID returns the node identity.
func (n *Node) ID() Identity { return n.id }

// Type returns the schema name of the node.
func (n *Node) Type() string { return n.typeName }

// Property returns the named property value.
func (n *Node) Property(name string) (Value, bool) {
	i, ok := n.index[name]
	if !ok {
		return Value{}, false
	}
	return n.props[i].Value, true
}

// SetProperty sets or replaces the named property. New names keep insertion order.
func (n *Node) SetProperty(name string, v Value) {
	if i, ok := n.index[name]; ok {
		n.props[i].Value = v
		return
	}
	n.index[name] = len(n.props)
	n.props = append(n.props, Property{Name: name, Value: v})
}

// RemoveProperty deletes the named property if present.
func (n *Node) RemoveProperty(name string) {
	i, ok := n.index[name]
	if !ok {
		return
	}
	n.props = slices.Delete(n.props, i, i+1)
	delete(n.index, name)
	for j := i; j < len(n.props); j++ {
		n.index[n.props[j].Name] = j
	}
}

// Properties yields the node's properties in insertion order.
func (n *Node) Properties() iter.Seq[Property] {
	return func(yield func(Property) bool) {
		for _, p := range n.props {
			if !yield(p) {
				return
			}
		}
	}
}

// PropertyCount returns the number of properties.
func (n *Node) PropertyCount() int { return len(n.props) }

// Children returns a copy of the ordered child identities.
func (n *Node) Children() []Identity {
	if len(n.children) == 0 {
		return nil
	}
	return slices.Clone(n.children)
}

// copyContent copies type, properties and children into a node with a new identity,
// passing every reference through fn.
func (n *Node) copyContent(id Identity, fn func(Identity) Identity) *Node {
	out := newNode(n.typeName, id)
	for _, p := range n.props {
		out.SetProperty(p.Name, p.Value.mapReferences(fn))
	}
	if len(n.children) == 0 {
		return out
	}
	out.children = make([]Identity, len(n.children))
	for i, c := range n.children {
		out.children[i] = fn(c)
	}
	return out
}
