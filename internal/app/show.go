package app

import (
	"context"
	"errors"

	"go.trai.ch/prefab/internal/adapters/templates"
	"go.trai.ch/prefab/internal/core/domain"
)

// InstanceState tells how an instance relates to its template.
type InstanceState string

const (
	// StateCurrent means the instance was last merged against the current template text.
	StateCurrent InstanceState = "current"
	// StateOutdated means the template changed since the last merge.
	StateOutdated InstanceState = "outdated"
	// StateMissing means the template cannot be read.
	StateMissing InstanceState = "missing"
)

// InstanceInfo describes one instance of a document.
type InstanceInfo struct {
	Object       domain.Identity
	Template     domain.Identity
	TemplatePath string
	Seed         domain.Seed
	// Digest is the digest of the current template text, empty when it is missing.
	Digest string
	// BaseDigest is the digest of the text the instance was last merged against.
	BaseDigest string
	State      InstanceState
}

// ShowOptions configuration for the Show method.
type ShowOptions struct {
	Config   string
	Document string
}

// Show lists the instances of a document in tree order.
func (a *App) Show(_ context.Context, opts ShowOptions) ([]InstanceInfo, error) {
	ws, err := a.open(opts.Config)
	if err != nil {
		return nil, err
	}
	_, u, _, err := a.load(ws, opts.Document)
	if err != nil {
		return nil, err
	}

	paths := make(map[domain.Identity]string)
	for _, e := range ws.templates.Entries() {
		paths[e.ID] = e.Path
	}

	refs := u.FindInstances()
	infos := make([]InstanceInfo, 0, len(refs))
	for _, ref := range refs {
		info := InstanceInfo{
			Object:       ref.Object,
			Template:     ref.Metadata.Template,
			TemplatePath: paths[ref.Metadata.Template],
			Seed:         ref.Metadata.Seed,
			BaseDigest:   templates.Digest(ref.Metadata.BaseSnapshot),
		}
		digest, err := ws.templates.Digest(ref.Metadata.Template)
		switch {
		case errors.Is(err, domain.ErrTemplateNotFound):
			info.State = StateMissing
		case err != nil:
			return nil, err
		case digest == info.BaseDigest:
			info.Digest = digest
			info.State = StateCurrent
		default:
			info.Digest = digest
			info.State = StateOutdated
		}
		infos = append(infos, info)
	}
	return infos, nil
}
