package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/zerr"
)

var (
	rootID  = domain.MustParseIdentity("00000000-0000-0000-0000-000000000001")
	childID = domain.MustParseIdentity("00000000-0000-0000-0000-000000000002")
	leafID  = domain.MustParseIdentity("00000000-0000-0000-0000-000000000003")
	farID   = domain.MustParseIdentity("00000000-0000-0000-0000-0000000000ff")
)

func buildGraph(t *testing.T) *domain.Graph {
	t.Helper()
	g := domain.NewGraph()
	_, err := g.AddNode("Object", rootID)
	require.NoError(t, err)
	_, err = g.AddNode("Object", childID)
	require.NoError(t, err)
	_, err = g.AddNode("Object", leafID)
	require.NoError(t, err)
	g.SetRoot(rootID)
	require.NoError(t, g.InsertChild(rootID, childID, -1))
	require.NoError(t, g.InsertChild(childID, leafID, -1))
	require.NoError(t, g.SetProperty(leafID, "target", domain.Reference(childID)))
	return g
}

func TestGraph_AddNode_Duplicate(t *testing.T) {
	g := domain.NewGraph()
	_, err := g.AddNode("Object", rootID)
	require.NoError(t, err)

	_, err = g.AddNode("Other", rootID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrDuplicateIdentity))

	zErr, ok := err.(*zerr.Error)
	require.True(t, ok, "expected *zerr.Error, got %T", err)
	assert.Equal(t, rootID.String(), zErr.Metadata()["identity"])
	assert.Equal(t, 1, g.Len())
}

func TestGraph_FindNodeAndSetProperty(t *testing.T) {
	g := buildGraph(t)

	n, ok := g.FindNode(leafID)
	require.True(t, ok)
	v, ok := n.Property("target")
	require.True(t, ok)
	assert.Equal(t, childID, v.AsReference())

	_, ok = g.FindNode(farID)
	assert.False(t, ok)

	err := g.SetProperty(farID, "x", domain.Int(1))
	assert.True(t, errors.Is(err, domain.ErrNodeNotFound))
}

func TestGraph_NodesKeepInsertionOrder(t *testing.T) {
	g := domain.NewGraph()
	ids := []domain.Identity{leafID, rootID, childID}
	for _, id := range ids {
		_, err := g.AddNode("Object", id)
		require.NoError(t, err)
	}

	var got []domain.Identity
	for n := range g.Nodes() {
		got = append(got, n.ID())
	}
	assert.Equal(t, ids, got)
}

func TestGraph_WalkIsPreOrder(t *testing.T) {
	g := buildGraph(t)
	sibling := domain.NewIdentity()
	_, err := g.AddNode("Object", sibling)
	require.NoError(t, err)
	require.NoError(t, g.InsertChild(rootID, sibling, -1))

	var got []domain.Identity
	for n := range g.Walk() {
		got = append(got, n.ID())
	}
	assert.Equal(t, []domain.Identity{rootID, childID, leafID, sibling}, got)
}

func TestGraph_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.Graph)
		wantErr error
	}{
		{
			name:   "valid",
			mutate: func(*domain.Graph) {},
		},
		{
			name: "dangling reference",
			mutate: func(g *domain.Graph) {
				_ = g.SetProperty(rootID, "link", domain.Reference(farID))
			},
			wantErr: domain.ErrDanglingReference,
		},
		{
			name: "external reference",
			mutate: func(g *domain.Graph) {
				_ = g.SetProperty(rootID, "link", domain.Array(domain.Reference(farID)))
				g.MarkExternal(farID)
			},
		},
		{
			name: "missing child",
			mutate: func(g *domain.Graph) {
				_ = g.SetChildren(leafID, []domain.Identity{farID})
			},
			wantErr: domain.ErrNodeNotFound,
		},
		{
			name: "two parents",
			mutate: func(g *domain.Graph) {
				_ = g.InsertChild(rootID, leafID, -1)
			},
			wantErr: domain.ErrDuplicateIdentity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := buildGraph(t)
			tt.mutate(g)
			err := g.Validate(nil)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestGraph_ValidateSchema(t *testing.T) {
	registry := domain.NewSchemaRegistry(domain.TypeSchema{
		Name:       "Object",
		Properties: map[string]domain.ValueKind{"target": domain.KindReference},
	})

	g := buildGraph(t)
	require.NoError(t, g.Validate(registry))

	require.NoError(t, g.SetProperty(rootID, "target", domain.Int(3)))
	assert.True(t, errors.Is(g.Validate(registry), domain.ErrSchemaMismatch))

	g = buildGraph(t)
	_, err := g.AddNode("Light", farID)
	require.NoError(t, err)
	assert.True(t, errors.Is(g.Validate(registry), domain.ErrUnknownType))
}

func TestGraph_RemapRoundTrip(t *testing.T) {
	g := buildGraph(t)
	require.NoError(t, g.SetProperty(rootID, "outside", domain.Reference(farID)))
	g.MarkExternal(farID)
	seed := domain.NewSeed()

	remapped := g.Remap(seed)

	_, ok := remapped.FindNode(rootID)
	assert.False(t, ok)
	assert.Equal(t, domain.Remap(rootID, seed), remapped.Root())

	leaf, ok := remapped.FindNode(domain.Remap(leafID, seed))
	require.True(t, ok)
	target, _ := leaf.Property("target")
	assert.Equal(t, domain.Remap(childID, seed), target.AsReference())

	root, _ := remapped.FindNode(remapped.Root())
	outside, _ := root.Property("outside")
	assert.Equal(t, farID, outside.AsReference(), "external references are not remapped")
	require.NoError(t, remapped.Validate(nil))

	back := remapped.ReverseRemap(seed)
	for n := range g.Nodes() {
		other, ok := back.FindNode(n.ID())
		require.True(t, ok)
		assert.Equal(t, n.Children(), other.Children())
	}
	assert.Equal(t, rootID, back.Root())
}

func TestGraph_LeafChildrenStayNil(t *testing.T) {
	g := buildGraph(t)
	seed := domain.NewSeed()

	leaf, ok := g.Remap(seed).FindNode(domain.Remap(leafID, seed))
	require.True(t, ok)
	assert.Nil(t, leaf.Children())

	require.NoError(t, g.Remove(leafID))
	child, ok := g.FindNode(childID)
	require.True(t, ok)
	assert.Nil(t, child.Children(), "emptied child list reads as nil")
}

func TestGraph_Subtree(t *testing.T) {
	g := buildGraph(t)
	require.NoError(t, g.SetProperty(childID, "up", domain.Reference(rootID)))

	sub, err := g.Subtree(childID)
	require.NoError(t, err)

	assert.Equal(t, childID, sub.Root())
	assert.Equal(t, 2, sub.Len())
	assert.True(t, sub.IsExternal(rootID))
	require.NoError(t, sub.Validate(nil))

	_, err = g.Subtree(farID)
	assert.True(t, errors.Is(err, domain.ErrNodeNotFound))
}

func TestGraph_CloneIsDeep(t *testing.T) {
	g := buildGraph(t)
	c := g.Clone()
	require.NoError(t, c.SetProperty(rootID, "name", domain.String("changed")))

	n, _ := g.FindNode(rootID)
	_, ok := n.Property("name")
	assert.False(t, ok)
}

func TestGraph_Parent(t *testing.T) {
	g := buildGraph(t)

	parent, index, ok := g.Parent(leafID)
	require.True(t, ok)
	assert.Equal(t, childID, parent)
	assert.Equal(t, 0, index)

	_, _, ok = g.Parent(rootID)
	assert.False(t, ok)
}

func TestGraph_Remove(t *testing.T) {
	g := buildGraph(t)

	require.NoError(t, g.Remove(childID))

	assert.Equal(t, 1, g.Len())
	_, ok := g.FindNode(leafID)
	assert.False(t, ok)
	root, _ := g.FindNode(rootID)
	assert.Empty(t, root.Children())

	assert.True(t, errors.Is(g.Remove(childID), domain.ErrNodeNotFound))

	require.NoError(t, g.Remove(rootID))
	assert.False(t, g.Root().IsValid())
	assert.Equal(t, 0, g.Len())
}

func TestGraph_Attach(t *testing.T) {
	g := buildGraph(t)
	sub, err := g.Subtree(childID)
	require.NoError(t, err)
	seed := domain.NewSeed()
	copied := sub.Remap(seed)

	require.NoError(t, g.Attach(copied, rootID, 0))

	root, _ := g.FindNode(rootID)
	assert.Equal(t, []domain.Identity{domain.Remap(childID, seed), childID}, root.Children())
	assert.Equal(t, 5, g.Len())
	require.NoError(t, g.Validate(nil))

	err = g.Attach(copied, rootID, -1)
	assert.True(t, errors.Is(err, domain.ErrDuplicateIdentity))
	assert.Equal(t, 5, g.Len(), "failed attach copies nothing")

	err = g.Attach(sub.Remap(domain.NewSeed()), farID, -1)
	assert.True(t, errors.Is(err, domain.ErrNodeNotFound))
}
