// Package updater keeps template instances in a document in step with their templates.
package updater

import (
	"context"
	"errors"
	"fmt"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/prefab/internal/engine/cache"
	"go.trai.ch/prefab/internal/engine/merge"
	"go.trai.ch/zerr"
)

const (
	// LabelUpdate is the transaction label of an update pass.
	LabelUpdate = "Update Prefabs"
	// LabelRevert is the transaction label of a revert pass.
	LabelRevert = "Revert Prefab"
	// LabelReplace is the transaction label of a single replacement.
	LabelReplace = "Replace by Prefab"
)

// Option configures an Updater.
type Option func(*Updater)

// WithSeedSource sets the function used to draw seeds for new instances.
func WithSeedSource(fn func() domain.Seed) Option {
	return func(u *Updater) {
		u.newSeed = fn
	}
}

// Updater runs update, revert and authoring operations against one document.
// At most one operation may run on an Updater at a time.
type Updater struct {
	doc       ports.Document
	templates ports.TemplateStore
	codec     ports.GraphCodec
	logger    ports.Logger
	telemetry ports.Telemetry

	cache   *cache.Cache
	merger  *merge.Merger
	newSeed func() domain.Seed
}

// New creates an Updater for doc.
func New(
	doc ports.Document,
	templates ports.TemplateStore,
	codec ports.GraphCodec,
	logger ports.Logger,
	telemetry ports.Telemetry,
	opts ...Option,
) *Updater {
	u := &Updater{
		doc:       doc,
		templates: templates,
		codec:     codec,
		logger:    logger,
		telemetry: telemetry,
		cache:     cache.New(templates, codec, logger),
		merger:    merge.New(codec),
		newSeed:   domain.NewSeed,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// FindInstances returns the instance roots of the document in pre-order.
// The children of an instance root are not visited, so instances nested inside
// other instances are never reported.
func (u *Updater) FindInstances() []domain.InstanceRef {
	var refs []domain.InstanceRef
	stack := []domain.Identity{u.doc.Root()}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if meta, ok := u.doc.ReadMetadata(id); ok && meta.IsInstance() {
			refs = append(refs, domain.InstanceRef{Object: id, Metadata: meta})
			continue
		}
		children := u.doc.Children(id)
		for i := len(children) - 1; i >= 0; i-- {
			stack = append(stack, children[i])
		}
	}
	return refs
}

// UpdateAll merges every instance of the document against its current template inside one
// transaction. A failing instance is left untouched and reported; the pass continues.
// When ctx is cancelled the whole transaction is rolled back and ctx's error returned.
func (u *Updater) UpdateAll(ctx context.Context) (*domain.UpdateReport, error) {
	ctx, vertex := u.telemetry.Record(ctx, "update "+u.doc.ID().String())
	u.cache.ClearAll()

	report := &domain.UpdateReport{Label: LabelUpdate}
	u.doc.BeginTransaction(LabelUpdate)
	for _, ref := range u.FindInstances() {
		if err := ctx.Err(); err != nil {
			return report, u.abort(vertex, err)
		}
		report.Add(u.updateOne(ctx, ref))
	}
	if err := u.doc.FinishTransaction(); err != nil {
		vertex.Complete(err)
		return report, err
	}

	vertex.Log(domain.LogLevelInfo, report.Status())
	vertex.Complete(nil)
	return report, nil
}

func (u *Updater) abort(vertex ports.Vertex, cause error) error {
	err := zerr.Wrap(cause, "operation cancelled")
	if cerr := u.doc.CancelTransaction(); cerr != nil {
		err = zerr.Wrap(errors.Join(cause, cerr), "operation cancelled, rollback failed")
	}
	vertex.Complete(err)
	return err
}

func (u *Updater) updateOne(ctx context.Context, ref domain.InstanceRef) domain.InstanceResult {
	_, vertex := u.telemetry.Record(ctx, "update instance "+ref.Object.String())
	res := domain.InstanceResult{Object: ref.Object, Template: ref.Metadata.Template}

	newText, merged, report, err := u.mergeInstance(ref)
	if err != nil {
		return u.fail(vertex, res, err)
	}

	if ref.Metadata.BaseSnapshot == newText {
		current, err := u.snapshotText(ref.Object)
		if err == nil && current == merged {
			res.Status = domain.InstanceStatusCurrent
			vertex.Cached()
			return res
		}
	}

	meta := ref.Metadata
	meta.BaseSnapshot = newText
	created, err := u.replace(fmt.Sprintf("Update %s", ref.Object), ref.Object, domain.InstantiateCommand{
		Template:  meta.Template,
		GraphText: merged,
		Seed:      meta.Seed,
		Space:     domain.DocumentSpace,
		Metadata:  &meta,
		Nested:    u.nestedMetadata(ref.Object),
	})
	if err != nil {
		return u.fail(vertex, res, err)
	}

	if n := report.Conflicts(); n > 0 {
		vertex.Log(domain.LogLevelWarn, fmt.Sprintf("%d overrides kept over template changes", n))
	}
	vertex.Log(domain.LogLevelInfo, report.String())
	vertex.Complete(nil)
	res.Created = created
	res.Status = domain.InstanceStatusUpdated
	return res
}

func (u *Updater) fail(vertex ports.Vertex, res domain.InstanceResult, err error) domain.InstanceResult {
	err = zerr.With(zerr.With(zerr.Wrap(err, "instance left unchanged"), "object", res.Object.String()),
		"template", res.Template.String())
	vertex.Complete(err)
	res.Status = domain.InstanceStatusFailed
	res.Err = err
	return res
}

// mergeInstance returns the current template text and the merged instance text.
func (u *Updater) mergeInstance(ref domain.InstanceRef) (string, string, *merge.Report, error) {
	template := ref.Metadata.Template
	newText, err := u.cache.RawContent(template)
	if err != nil {
		return "", "", nil, err
	}
	next, err := u.cache.ParsedGraph(template)
	if err != nil {
		return "", "", nil, err
	}
	if next == nil {
		return "", "", nil, zerr.Wrap(domain.ErrTemplateNotFound, "template has no content")
	}

	base := domain.NewGraph()
	if ref.Metadata.BaseSnapshot != "" {
		if base, err = u.codec.ParseGraph(ref.Metadata.BaseSnapshot); err != nil {
			return "", "", nil, zerr.Wrap(err, "cannot parse base snapshot")
		}
	}
	live, err := u.doc.Snapshot(ref.Object)
	if err != nil {
		return "", "", nil, err
	}

	merged, report, err := u.merger.Graphs(base, next, live, ref.Metadata.Seed)
	if err != nil {
		return "", "", nil, err
	}
	text, err := u.codec.SerializeGraph(merged)
	if err != nil {
		return "", "", nil, err
	}
	return newText, text, report, nil
}

func (u *Updater) snapshotText(object domain.Identity) (string, error) {
	g, err := u.doc.Snapshot(object)
	if err != nil {
		return "", err
	}
	return u.codec.SerializeGraph(g)
}

// nestedMetadata collects the metadata of object's descendants.
func (u *Updater) nestedMetadata(object domain.Identity) map[domain.Identity]domain.InstanceMetadata {
	var nested map[domain.Identity]domain.InstanceMetadata
	stack := u.doc.Children(object)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if meta, ok := u.doc.ReadMetadata(id); ok {
			if nested == nil {
				nested = make(map[domain.Identity]domain.InstanceMetadata)
			}
			nested[id] = meta
		}
		stack = append(stack, u.doc.Children(id)...)
	}
	return nested
}

// replace removes object and instantiates cmd at its place inside a transaction labelled label.
// On failure the transaction is cancelled and the document is left as it was.
func (u *Updater) replace(label string, object domain.Identity, cmd domain.InstantiateCommand) (domain.Identity, error) {
	parent, index, ok := u.doc.Parent(object)
	if !ok {
		if !u.doc.Contains(object) {
			return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "cannot replace object"),
				"object", object.String())
		}
		return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrInvalidSelection, "cannot replace the document root"),
			"object", object.String())
	}
	cmd.Parent = parent
	cmd.Index = index

	u.doc.BeginTransaction(label)
	if _, err := u.doc.EmitCommand(domain.RemoveCommand{Object: object}); err != nil {
		return domain.Identity{}, u.rollback(err)
	}
	res, err := u.doc.EmitCommand(cmd)
	if err != nil {
		return domain.Identity{}, u.rollback(err)
	}
	if err := u.doc.FinishTransaction(); err != nil {
		return domain.Identity{}, err
	}
	return res.CreatedRoot, nil
}

func (u *Updater) rollback(cause error) error {
	if err := u.doc.CancelTransaction(); err != nil {
		return zerr.Wrap(errors.Join(cause, err), "rollback failed")
	}
	return cause
}

// Revert re-instantiates each selected instance from its template, discarding local overrides.
// Objects without a template link are skipped. Objects below another selected object are
// covered by reverting that ancestor and are not reported. Failures are reported per object.
func (u *Updater) Revert(ctx context.Context, selection []domain.Identity) (*domain.UpdateReport, error) {
	ctx, vertex := u.telemetry.Record(ctx, "revert "+u.doc.ID().String())
	u.cache.ClearAll()

	report := &domain.UpdateReport{Label: LabelRevert}
	u.doc.BeginTransaction(LabelRevert)
	for _, object := range u.outermost(selection) {
		if err := ctx.Err(); err != nil {
			return report, u.abort(vertex, err)
		}
		report.Add(u.revertOne(ctx, object))
	}
	if err := u.doc.FinishTransaction(); err != nil {
		vertex.Complete(err)
		return report, err
	}

	vertex.Log(domain.LogLevelInfo, report.Status())
	vertex.Complete(nil)
	return report, nil
}

// outermost drops duplicates and objects that have a selected ancestor, keeping selection order.
func (u *Updater) outermost(selection []domain.Identity) []domain.Identity {
	selected := make(map[domain.Identity]struct{}, len(selection))
	for _, object := range selection {
		selected[object] = struct{}{}
	}
	seen := make(map[domain.Identity]struct{}, len(selection))
	out := make([]domain.Identity, 0, len(selection))
	for _, object := range selection {
		if _, dup := seen[object]; dup || u.hasSelectedAncestor(object, selected) {
			continue
		}
		seen[object] = struct{}{}
		out = append(out, object)
	}
	return out
}

func (u *Updater) hasSelectedAncestor(object domain.Identity, selected map[domain.Identity]struct{}) bool {
	for {
		parent, _, ok := u.doc.Parent(object)
		if !ok {
			return false
		}
		if _, sel := selected[parent]; sel {
			return true
		}
		object = parent
	}
}

func (u *Updater) revertOne(ctx context.Context, object domain.Identity) domain.InstanceResult {
	res := domain.InstanceResult{Object: object}
	meta, ok := u.doc.ReadMetadata(object)
	if !ok || !meta.IsInstance() {
		if !u.doc.Contains(object) {
			res.Status = domain.InstanceStatusFailed
			res.Err = zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "cannot revert object"), "object", object.String())
			return res
		}
		res.Status = domain.InstanceStatusSkipped
		return res
	}
	res.Template = meta.Template

	_, vertex := u.telemetry.Record(ctx, "revert instance "+object.String())
	text, err := u.cache.RawContent(meta.Template)
	if err == nil && text == "" {
		err = zerr.Wrap(domain.ErrTemplateNotFound, "template has no content")
	}
	if err == nil {
		_, err = u.cache.ParsedGraph(meta.Template)
	}
	if err != nil {
		return u.fail(vertex, res, err)
	}

	meta.BaseSnapshot = text
	created, err := u.replace(fmt.Sprintf("Revert %s", object), object, domain.InstantiateCommand{
		Template:  meta.Template,
		GraphText: text,
		Seed:      meta.Seed,
		Space:     domain.TemplateSpace,
		Metadata:  &meta,
	})
	if err != nil {
		return u.fail(vertex, res, err)
	}
	vertex.Complete(nil)
	res.Created = created
	res.Status = domain.InstanceStatusReverted
	return res
}

// Unlink clears the template link of each selected object. The object tree is not touched,
// and the change does not go through the command history, so it cannot be undone.
// It returns the objects that were linked.
func (u *Updater) Unlink(selection []domain.Identity) ([]domain.Identity, error) {
	for _, object := range selection {
		if !u.doc.Contains(object) {
			return nil, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "cannot unlink object"), "object", object.String())
		}
	}

	var unlinked []domain.Identity
	for _, object := range selection {
		if meta, ok := u.doc.ReadMetadata(object); ok && meta.IsInstance() {
			u.doc.ClearMetadata(object)
			unlinked = append(unlinked, object)
		}
	}
	return unlinked, nil
}

// ReplaceByPrefab replaces object with a fresh instance of template in one transaction and
// returns the identity of the created root. The template is read from storage, not the cache.
// A zero seed draws a new one.
func (u *Updater) ReplaceByPrefab(object, template domain.Identity, seed domain.Seed) (domain.Identity, error) {
	text, err := u.templates.ReadTemplateText(template)
	if err != nil {
		return domain.Identity{}, err
	}
	if text == "" {
		return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "template has no content"),
			"template", template.String())
	}
	if !seed.IsValid() {
		seed = u.newSeed()
	}

	meta := domain.InstanceMetadata{Template: template, Seed: seed, BaseSnapshot: text}
	created, err := u.replace(LabelReplace, object, domain.InstantiateCommand{
		Template:  template,
		GraphText: text,
		Seed:      seed,
		Space:     domain.TemplateSpace,
		Metadata:  &meta,
		Nested:    u.nestedMetadata(object),
	})
	if err != nil {
		return domain.Identity{}, zerr.With(zerr.Wrap(err, "cannot replace by prefab"), "template", template.String())
	}
	u.logger.Info(fmt.Sprintf("replaced %s by an instance of %s", object, template))
	return created, nil
}
