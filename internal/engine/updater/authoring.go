package updater

import (
	"fmt"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/zerr"
)

// CreateTemplateFromSelection writes the selected subtree as a new template at path and
// replaces the selection with an instance of it. The template is stored reverse-remapped
// under a fresh seed, so the instance keeps the identities the objects had before.
func (u *Updater) CreateTemplateFromSelection(path string, selection []domain.Identity) (domain.Identity, error) {
	if len(selection) != 1 {
		return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrInvalidSelection, "cannot create template"),
			"selected", len(selection))
	}
	object := selection[0]
	if !u.doc.Contains(object) {
		return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrObjectNotFound, "cannot create template"),
			"object", object.String())
	}
	if object == u.doc.Root() {
		return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrInvalidSelection, "cannot create a template from the document root"),
			"object", object.String())
	}

	snapshot, err := u.doc.Snapshot(object)
	if err != nil {
		return domain.Identity{}, err
	}
	seed := u.newSeed()
	text, err := u.codec.SerializeGraph(snapshot.ReverseRemap(seed))
	if err != nil {
		return domain.Identity{}, err
	}

	template, err := u.templates.CreateTemplate(path, text)
	if err != nil {
		return domain.Identity{}, zerr.With(zerr.Wrap(err, "cannot create template"), "path", path)
	}
	u.logger.Info(fmt.Sprintf("created template %s at %s", template, path))

	if _, err := u.ReplaceByPrefab(object, template, seed); err != nil {
		if derr := u.templates.DeleteTemplate(template); derr != nil {
			u.logger.Warn(fmt.Sprintf("failed to remove template %s: %v", template, derr))
		}
		return domain.Identity{}, err
	}
	return template, nil
}
