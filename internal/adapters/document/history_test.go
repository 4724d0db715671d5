package document_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prefab/internal/adapters/codec"
	"go.trai.ch/prefab/internal/adapters/document"
	"go.trai.ch/prefab/internal/core/domain"
)

// replaceInstance removes obj and instantiates a template in its place, returning the new root.
func replaceInstance(t *testing.T, doc *document.Document, obj domain.Identity) domain.Identity {
	t.Helper()
	parent, index, ok := doc.Parent(obj)
	require.True(t, ok)

	_, err := doc.EmitCommand(domain.RemoveCommand{Object: obj})
	require.NoError(t, err)
	res, err := doc.EmitCommand(domain.InstantiateCommand{
		Template:  domain.NewIdentity(),
		Parent:    parent,
		Index:     index,
		GraphText: templateText(t, domain.NewIdentity(), domain.NewIdentity()),
		Seed:      domain.NewSeed(),
		Space:     domain.TemplateSpace,
		Metadata:  &domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()},
	})
	require.NoError(t, err)
	return res.CreatedRoot
}

func TestHistory_UndoRedo(t *testing.T) {
	doc, obj := newDocWithObject(t)
	oldMeta := domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()}
	doc.WriteMetadata(obj, oldMeta)

	doc.BeginTransaction("Replace by Prefab")
	created := replaceInstance(t, doc, obj)
	require.NoError(t, doc.FinishTransaction())

	assert.Equal(t, []domain.Identity{created}, doc.Children(doc.Root()))
	assert.Equal(t, []string{"Replace by Prefab"}, doc.UndoLabels())

	require.NoError(t, doc.Undo())
	assert.Equal(t, []domain.Identity{obj}, doc.Children(doc.Root()))
	assert.False(t, doc.Contains(created))
	meta, ok := doc.ReadMetadata(obj)
	require.True(t, ok)
	assert.Equal(t, oldMeta, meta)

	require.NoError(t, doc.Redo())
	assert.Equal(t, []domain.Identity{created}, doc.Children(doc.Root()))
	_, ok = doc.ReadMetadata(obj)
	assert.False(t, ok)

	assert.True(t, errors.Is(doc.Redo(), domain.ErrNothingToUndo))
}

func TestHistory_CancelRevertsEverything(t *testing.T) {
	doc, obj := newDocWithObject(t)

	doc.BeginTransaction("Update Prefabs")
	replaceInstance(t, doc, obj)
	require.NoError(t, doc.CancelTransaction())

	assert.Equal(t, []domain.Identity{obj}, doc.Children(doc.Root()))
	assert.Empty(t, doc.UndoLabels())
	assert.True(t, errors.Is(doc.Undo(), domain.ErrNothingToUndo))
}

func TestHistory_NestedTransactions(t *testing.T) {
	doc, first := newDocWithObject(t)
	second, err := doc.CreateObject("Object", domain.NewIdentity())
	require.NoError(t, err)
	require.NoError(t, doc.AddObject(second, doc.Root(), -1))

	doc.BeginTransaction("Update Prefabs")

	doc.BeginTransaction("first")
	created := replaceInstance(t, doc, first)
	require.NoError(t, doc.FinishTransaction())

	doc.BeginTransaction("second")
	replaceInstance(t, doc, second.ID())
	require.NoError(t, doc.CancelTransaction())

	assert.True(t, errors.Is(doc.Undo(), domain.ErrTransactionOpen))
	require.NoError(t, doc.FinishTransaction())

	assert.Equal(t, []domain.Identity{created, second.ID()}, doc.Children(doc.Root()))
	assert.Equal(t, []string{"Update Prefabs"}, doc.UndoLabels())

	require.NoError(t, doc.Undo())
	assert.Equal(t, []domain.Identity{first, second.ID()}, doc.Children(doc.Root()))
}

func TestHistory_EmptyTransactionLeavesNoEntry(t *testing.T) {
	doc := document.Empty(codec.New())
	doc.BeginTransaction("nothing")
	require.NoError(t, doc.FinishTransaction())
	assert.Empty(t, doc.UndoLabels())
}

func TestHistory_NewTransactionClearsRedo(t *testing.T) {
	doc, obj := newDocWithObject(t)

	doc.BeginTransaction("one")
	created := replaceInstance(t, doc, obj)
	require.NoError(t, doc.FinishTransaction())
	require.NoError(t, doc.Undo())

	doc.BeginTransaction("two")
	_, err := doc.EmitCommand(domain.RemoveCommand{Object: obj})
	require.NoError(t, err)
	require.NoError(t, doc.FinishTransaction())

	assert.True(t, errors.Is(doc.Redo(), domain.ErrNothingToUndo))
	assert.False(t, doc.Contains(created))
}

func TestHistory_NestedMetadataFollowsInstantiate(t *testing.T) {
	doc := document.Empty(codec.New())
	rootID, childID := domain.NewIdentity(), domain.NewIdentity()
	outer := domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()}
	inner := domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()}
	stray := domain.NewIdentity()

	doc.BeginTransaction("Instantiate")
	_, err := doc.EmitCommand(domain.InstantiateCommand{
		Template:  outer.Template,
		Parent:    doc.Root(),
		Index:     -1,
		GraphText: templateText(t, rootID, childID),
		Space:     domain.DocumentSpace,
		Metadata:  &outer,
		Nested:    map[domain.Identity]domain.InstanceMetadata{childID: inner, stray: inner},
	})
	require.NoError(t, err)
	require.NoError(t, doc.FinishTransaction())

	got, ok := doc.ReadMetadata(childID)
	require.True(t, ok)
	assert.Equal(t, inner, got)
	_, ok = doc.ReadMetadata(stray)
	assert.False(t, ok)

	require.NoError(t, doc.Undo())
	_, ok = doc.ReadMetadata(childID)
	assert.False(t, ok)

	require.NoError(t, doc.Redo())
	got, ok = doc.ReadMetadata(childID)
	require.True(t, ok)
	assert.Equal(t, inner, got)
}
