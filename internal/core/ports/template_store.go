// Package ports defines the core interfaces for the application.
package ports

import "go.trai.ch/prefab/internal/core/domain"

// TemplateStore provides access to template documents.
//
//go:generate go run go.uber.org/mock/mockgen -source=template_store.go -destination=mocks/mock_template_store.go -package=mocks
type TemplateStore interface {
	// ReadTemplateText returns the raw text of the template document.
	// It returns an error wrapping domain.ErrTemplateNotFound if the document is missing or unreadable.
	ReadTemplateText(template domain.Identity) (string, error)

	// CreateTemplate writes graph text to a new template document at path and returns
	// the identity assigned to the document.
	CreateTemplate(path, graphText string) (domain.Identity, error)

	// DeleteTemplate removes a template document written by CreateTemplate.
	DeleteTemplate(template domain.Identity) error

	// Resolve returns the identity of the template document stored at path.
	Resolve(path string) (domain.Identity, error)
}
