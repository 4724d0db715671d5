package updater_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/prefab/internal/adapters/codec"
	"go.trai.ch/prefab/internal/adapters/document"
	"go.trai.ch/prefab/internal/adapters/telemetry/progrock"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports/mocks"
	"go.trai.ch/prefab/internal/engine/updater"
	"go.uber.org/mock/gomock"
)

var (
	rootID = domain.MustParseIdentity("00000000-0000-0000-0000-000000000001")
	lidID  = domain.MustParseIdentity("00000000-0000-0000-0000-000000000002")
)

func crateText(t *testing.T, mass float64) string {
	t.Helper()
	g := domain.NewGraph()
	root, err := g.AddNode("Crate", rootID)
	require.NoError(t, err)
	root.SetProperty("mass", domain.Float(mass))
	lid, err := g.AddNode("Lid", lidID)
	require.NoError(t, err)
	lid.SetProperty("open", domain.Bool(false))
	g.SetRoot(rootID)
	require.NoError(t, g.InsertChild(rootID, lidID, -1))

	text, err := codec.New().SerializeGraph(g)
	require.NoError(t, err)
	return text
}

type fixture struct {
	doc     *document.Document
	store   *mocks.MockTemplateStore
	logger  *mocks.MockLogger
	updater *updater.Updater
}

func newFixture(t *testing.T, opts ...updater.Option) fixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	f := fixture{
		doc:    document.Empty(codec.New()),
		store:  mocks.NewMockTemplateStore(ctrl),
		logger: mocks.NewMockLogger(ctrl),
	}
	f.logger.EXPECT().Info(gomock.Any()).AnyTimes()
	f.updater = updater.New(f.doc, f.store, codec.New(), f.logger, progrock.NewNoOp(), opts...)
	return f
}

// place instantiates template text under the document root as a linked instance.
func (f fixture) place(t *testing.T, template domain.Identity, text string, seed domain.Seed) domain.Identity {
	t.Helper()
	f.doc.BeginTransaction("Place")
	res, err := f.doc.EmitCommand(domain.InstantiateCommand{
		Template:  template,
		Parent:    f.doc.Root(),
		Index:     -1,
		GraphText: text,
		Seed:      seed,
		Space:     domain.TemplateSpace,
		Metadata:  &domain.InstanceMetadata{Template: template, Seed: seed, BaseSnapshot: text},
	})
	require.NoError(t, err)
	require.NoError(t, f.doc.FinishTransaction())
	return res.CreatedRoot
}

func (f fixture) plain(t *testing.T, parent domain.Identity) domain.Identity {
	t.Helper()
	obj, err := f.doc.CreateObject("Object", domain.NewIdentity())
	require.NoError(t, err)
	require.NoError(t, f.doc.AddObject(obj, parent, -1))
	return obj.ID()
}

func (f fixture) mass(t *testing.T, object domain.Identity) float64 {
	t.Helper()
	n, ok := f.doc.Object(object)
	require.True(t, ok)
	v, ok := n.Property("mass")
	require.True(t, ok)
	return v.AsFloat()
}

func (f fixture) text(t *testing.T, object domain.Identity) string {
	t.Helper()
	g, err := f.doc.Snapshot(object)
	require.NoError(t, err)
	text, err := codec.New().SerializeGraph(g)
	require.NoError(t, err)
	return text
}

func TestUpdater_FindInstancesStopsAtInstanceRoots(t *testing.T) {
	f := newFixture(t)
	first := f.place(t, domain.NewIdentity(), crateText(t, 5), domain.NewSeed())
	group := f.plain(t, f.doc.Root())
	second := f.place(t, domain.NewIdentity(), crateText(t, 5), domain.NewSeed())

	lid := f.doc.Children(first)[0]
	f.doc.WriteMetadata(lid, domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()})

	nestedPlain := f.plain(t, group)
	f.doc.WriteMetadata(nestedPlain, domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()})

	refs := f.updater.FindInstances()
	var found []domain.Identity
	for _, ref := range refs {
		found = append(found, ref.Object)
	}
	assert.Equal(t, []domain.Identity{first, nestedPlain, second}, found)
}

func TestUpdater_UpdateAllMergesEveryInstance(t *testing.T) {
	f := newFixture(t)
	template := domain.NewIdentity()
	untouched := f.place(t, template, crateText(t, 5), domain.NewSeed())
	overridden := f.place(t, template, crateText(t, 5), domain.NewSeed())
	n, _ := f.doc.Object(overridden)
	n.SetProperty("mass", domain.Float(9))

	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 7), nil).Times(1)

	report, err := f.updater.UpdateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Count(domain.InstanceStatusUpdated))

	assert.Equal(t, 7.0, f.mass(t, untouched))
	assert.Equal(t, 9.0, f.mass(t, overridden))

	meta, ok := f.doc.ReadMetadata(untouched)
	require.True(t, ok)
	assert.Equal(t, crateText(t, 7), meta.BaseSnapshot)
	assert.Equal(t, []string{"Place", "Place", updater.LabelUpdate}, f.doc.UndoLabels())

	require.NoError(t, f.doc.Undo())
	assert.Equal(t, 5.0, f.mass(t, untouched))
	meta, _ = f.doc.ReadMetadata(untouched)
	assert.Equal(t, crateText(t, 5), meta.BaseSnapshot)
}

func TestUpdater_UpdateAllLeavesCurrentInstances(t *testing.T) {
	f := newFixture(t)
	template := domain.NewIdentity()
	obj := f.place(t, template, crateText(t, 5), domain.NewSeed())
	before := f.text(t, obj)

	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 5), nil)

	report, err := f.updater.UpdateAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(domain.InstanceStatusCurrent))
	assert.Equal(t, before, f.text(t, obj))
	assert.Equal(t, []string{"Place"}, f.doc.UndoLabels())
}

func TestUpdater_BulkUpdateIsolation(t *testing.T) {
	f := newFixture(t)
	missing := domain.NewIdentity()
	valid := domain.NewIdentity()
	broken := f.place(t, missing, crateText(t, 5), domain.NewSeed())
	healthy := f.place(t, valid, crateText(t, 5), domain.NewSeed())
	before := f.text(t, broken)

	f.store.EXPECT().ReadTemplateText(missing).Return("", domain.ErrTemplateNotFound)
	f.store.EXPECT().ReadTemplateText(valid).Return(crateText(t, 7), nil)
	f.logger.EXPECT().Warn(gomock.Any()).Times(1)

	report, err := f.updater.UpdateAll(context.Background())
	require.NoError(t, err)

	failures := report.Failures()
	require.Len(t, failures, 1)
	assert.Equal(t, broken, failures[0].Object)
	assert.Equal(t, missing, failures[0].Template)
	assert.True(t, errors.Is(failures[0].Err, domain.ErrTemplateNotFound))
	assert.Contains(t, report.Status(), broken.String())

	assert.Equal(t, before, f.text(t, broken))
	assert.Equal(t, 7.0, f.mass(t, healthy))
}

func TestUpdater_UpdateAllMalformedTemplate(t *testing.T) {
	f := newFixture(t)
	template := domain.NewIdentity()
	obj := f.place(t, template, crateText(t, 5), domain.NewSeed())
	f.store.EXPECT().ReadTemplateText(template).Return("{", nil)

	report, err := f.updater.UpdateAll(context.Background())
	require.NoError(t, err)
	require.Len(t, report.Failures(), 1)
	assert.True(t, errors.Is(report.Failures()[0].Err, domain.ErrParseFailed))
	assert.Equal(t, 5.0, f.mass(t, obj))
}

func TestUpdater_UpdateAllKeepsNestedMetadata(t *testing.T) {
	f := newFixture(t)
	template := domain.NewIdentity()
	obj := f.place(t, template, crateText(t, 5), domain.NewSeed())
	lid := f.doc.Children(obj)[0]
	inner := domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()}
	f.doc.WriteMetadata(lid, inner)

	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 7), nil)

	_, err := f.updater.UpdateAll(context.Background())
	require.NoError(t, err)
	got, ok := f.doc.ReadMetadata(lid)
	require.True(t, ok)
	assert.Equal(t, inner, got)
}

func TestUpdater_CancelRollsBackWholePass(t *testing.T) {
	f := newFixture(t)
	first := domain.NewIdentity()
	second := domain.NewIdentity()
	a := f.place(t, first, crateText(t, 5), domain.NewSeed())
	b := f.place(t, second, crateText(t, 5), domain.NewSeed())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	f.store.EXPECT().ReadTemplateText(first).DoAndReturn(func(domain.Identity) (string, error) {
		cancel()
		return crateText(t, 7), nil
	})

	_, err := f.updater.UpdateAll(ctx)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))

	assert.Equal(t, 5.0, f.mass(t, a))
	assert.Equal(t, 5.0, f.mass(t, b))
	assert.Equal(t, []string{"Place", "Place"}, f.doc.UndoLabels())
}

func TestUpdater_RecordsTelemetry(t *testing.T) {
	ctrl := gomock.NewController(t)
	doc := document.Empty(codec.New())
	store := mocks.NewMockTemplateStore(ctrl)
	telemetry := mocks.NewMockTelemetry(ctrl)
	pass := mocks.NewMockVertex(ctrl)
	instance := mocks.NewMockVertex(ctrl)

	u := updater.New(doc, store, codec.New(), mocks.NewMockLogger(ctrl), telemetry)
	f := fixture{doc: doc}
	template := domain.NewIdentity()
	obj := f.place(t, template, crateText(t, 5), domain.NewSeed())
	store.EXPECT().ReadTemplateText(template).Return(crateText(t, 5), nil)

	ctx := context.Background()
	gomock.InOrder(
		telemetry.EXPECT().Record(ctx, "update "+doc.ID().String()).Return(ctx, pass),
		telemetry.EXPECT().Record(ctx, "update instance "+obj.String()).Return(ctx, instance),
		instance.EXPECT().Cached(),
		pass.EXPECT().Log(domain.LogLevelInfo, gomock.Any()),
		pass.EXPECT().Complete(nil),
	)

	_, err := u.UpdateAll(ctx)
	require.NoError(t, err)
}

func TestUpdater_Revert(t *testing.T) {
	f := newFixture(t)
	template := domain.NewIdentity()
	obj := f.place(t, template, crateText(t, 5), domain.NewSeed())
	n, _ := f.doc.Object(obj)
	n.SetProperty("mass", domain.Float(9))
	plain := f.plain(t, f.doc.Root())
	unknown := domain.NewIdentity()

	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 6), nil)

	report, err := f.updater.Revert(context.Background(), []domain.Identity{obj, plain, unknown})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(domain.InstanceStatusReverted))
	assert.Equal(t, 1, report.Count(domain.InstanceStatusSkipped))
	require.Len(t, report.Failures(), 1)
	assert.True(t, errors.Is(report.Failures()[0].Err, domain.ErrObjectNotFound))

	assert.Equal(t, 6.0, f.mass(t, obj))
	meta, ok := f.doc.ReadMetadata(obj)
	require.True(t, ok)
	assert.Equal(t, crateText(t, 6), meta.BaseSnapshot)
	assert.Equal(t, updater.LabelRevert, f.doc.UndoLabels()[len(f.doc.UndoLabels())-1])
}

func TestUpdater_RevertSkipsObjectsInsideSelectedInstance(t *testing.T) {
	f := newFixture(t)
	template := domain.NewIdentity()
	outer := f.place(t, template, crateText(t, 5), domain.NewSeed())
	inner := f.plain(t, outer)
	f.doc.WriteMetadata(inner, domain.InstanceMetadata{Template: domain.NewIdentity(), Seed: domain.NewSeed()})

	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 6), nil)

	report, err := f.updater.Revert(context.Background(), []domain.Identity{inner, outer, outer})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Count(domain.InstanceStatusReverted))
	assert.Empty(t, report.Failures())
	assert.False(t, f.doc.Contains(inner), "revert drops the added child")
	assert.Equal(t, 6.0, f.mass(t, outer))
}

func TestUpdater_UnlinkIsNonDestructive(t *testing.T) {
	f := newFixture(t)
	obj := f.place(t, domain.NewIdentity(), crateText(t, 5), domain.NewSeed())
	plain := f.plain(t, f.doc.Root())
	before := f.text(t, obj)
	labels := f.doc.UndoLabels()

	unlinked, err := f.updater.Unlink([]domain.Identity{obj, plain})
	require.NoError(t, err)
	assert.Equal(t, []domain.Identity{obj}, unlinked)

	_, ok := f.doc.ReadMetadata(obj)
	assert.False(t, ok)
	assert.Equal(t, before, f.text(t, obj))
	assert.Equal(t, labels, f.doc.UndoLabels())
	assert.Empty(t, f.updater.FindInstances())

	_, err = f.updater.Unlink([]domain.Identity{domain.NewIdentity()})
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))
}

func TestUpdater_ReplaceByPrefab(t *testing.T) {
	f := newFixture(t)
	before := f.plain(t, f.doc.Root())
	obj := f.plain(t, f.doc.Root())
	template := domain.NewIdentity()
	seed := domain.NewSeed()
	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 5), nil)

	created, err := f.updater.ReplaceByPrefab(obj, template, seed)
	require.NoError(t, err)
	assert.Equal(t, domain.Remap(rootID, seed), created)
	assert.Equal(t, []domain.Identity{before, created}, f.doc.Children(f.doc.Root()))

	meta, ok := f.doc.ReadMetadata(created)
	require.True(t, ok)
	assert.Equal(t, template, meta.Template)
	assert.Equal(t, seed, meta.Seed)
	assert.Equal(t, []string{updater.LabelReplace}, f.doc.UndoLabels())

	require.NoError(t, f.doc.Undo())
	assert.Equal(t, []domain.Identity{before, obj}, f.doc.Children(f.doc.Root()))
}

func TestUpdater_ReplaceByPrefabErrors(t *testing.T) {
	f := newFixture(t)
	obj := f.plain(t, f.doc.Root())
	missing := domain.NewIdentity()
	valid := domain.NewIdentity()
	f.store.EXPECT().ReadTemplateText(missing).Return("", domain.ErrTemplateNotFound)
	f.store.EXPECT().ReadTemplateText(valid).Return(crateText(t, 5), nil).Times(2)

	_, err := f.updater.ReplaceByPrefab(obj, missing, domain.NewSeed())
	assert.True(t, errors.Is(err, domain.ErrTemplateNotFound))

	_, err = f.updater.ReplaceByPrefab(f.doc.Root(), valid, domain.NewSeed())
	assert.True(t, errors.Is(err, domain.ErrInvalidSelection))

	_, err = f.updater.ReplaceByPrefab(domain.NewIdentity(), valid, domain.NewSeed())
	assert.True(t, errors.Is(err, domain.ErrObjectNotFound))

	assert.Equal(t, []domain.Identity{obj}, f.doc.Children(f.doc.Root()))
	assert.Empty(t, f.doc.UndoLabels())
}

func TestUpdater_ReplaceByPrefabDrawsSeed(t *testing.T) {
	seed := domain.NewSeed()
	f := newFixture(t, updater.WithSeedSource(func() domain.Seed { return seed }))
	obj := f.plain(t, f.doc.Root())
	template := domain.NewIdentity()
	f.store.EXPECT().ReadTemplateText(template).Return(crateText(t, 5), nil)

	created, err := f.updater.ReplaceByPrefab(obj, template, domain.Seed{})
	require.NoError(t, err)
	meta, _ := f.doc.ReadMetadata(created)
	assert.Equal(t, seed, meta.Seed)
}
