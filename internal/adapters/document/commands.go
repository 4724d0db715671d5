package document

import (
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/zerr"
)

func (d *Document) execRemove(c domain.RemoveCommand) (step, error) {
	if !d.Contains(c.Object) {
		return step{}, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "cannot remove object"), "object", c.Object.String())
	}
	if c.Object == d.graph.Root() {
		return step{}, zerr.With(zerr.Wrap(domain.ErrInvalidSelection, "cannot remove the document root"),
			"object", c.Object.String())
	}

	parent, index, _ := d.graph.Parent(c.Object)
	sub, err := d.Snapshot(c.Object)
	if err != nil {
		return step{}, err
	}
	saved := make(map[domain.Identity]domain.InstanceMetadata)
	for n := range sub.Nodes() {
		if m, ok := d.meta[n.ID()]; ok {
			saved[n.ID()] = m
		}
	}

	s := step{
		label: c.Label(),
		redo: func() error {
			return d.RemoveObject(c.Object)
		},
		undo: func() error {
			if err := d.graph.Attach(sub, parent, index); err != nil {
				return err
			}
			for id, m := range saved {
				d.meta[id] = m
			}
			return nil
		},
	}
	if err := s.redo(); err != nil {
		return step{}, err
	}
	return s, nil
}

func (d *Document) execInstantiate(c domain.InstantiateCommand) (step, domain.CommandResult, error) {
	if !d.Contains(c.Parent) {
		return step{}, domain.CommandResult{}, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "unknown parent"),
			"parent", c.Parent.String())
	}

	g, err := d.codec.ParseGraph(c.GraphText)
	if err != nil {
		return step{}, domain.CommandResult{}, zerr.With(err, "template", c.Template.String())
	}
	if c.Space == domain.TemplateSpace {
		g = g.Remap(c.Seed)
	}
	if d.registry != nil {
		if err := g.Validate(d.registry); err != nil {
			return step{}, domain.CommandResult{}, zerr.With(err, "template", c.Template.String())
		}
	}

	root := g.Root()
	writes := make(map[domain.Identity]domain.InstanceMetadata, len(c.Nested)+1)
	for id, m := range c.Nested {
		if _, ok := g.FindNode(id); ok && id != root {
			writes[id] = m
		}
	}
	if c.Metadata != nil {
		writes[root] = *c.Metadata
	}
	prev := make(map[domain.Identity]domain.InstanceMetadata, len(writes))
	for id := range writes {
		if m, ok := d.meta[id]; ok {
			prev[id] = m
		}
	}

	s := step{
		label: c.Label(),
		redo: func() error {
			if err := d.graph.Attach(g, c.Parent, c.Index); err != nil {
				return err
			}
			for id, m := range writes {
				d.meta[id] = m
			}
			return nil
		},
		undo: func() error {
			if err := d.graph.Remove(root); err != nil {
				return err
			}
			for id := range writes {
				if m, ok := prev[id]; ok {
					d.meta[id] = m
				} else {
					delete(d.meta, id)
				}
			}
			return nil
		},
	}
	if err := s.redo(); err != nil {
		return step{}, domain.CommandResult{}, err
	}
	return s, domain.CommandResult{CreatedRoot: root}, nil
}
