package ports

import "go.trai.ch/prefab/internal/core/domain"

// DocumentTree exposes the object hierarchy of a document.
type DocumentTree interface {
	// Root returns the identity of the document's root object.
	Root() domain.Identity
	// Contains reports whether the object exists in the document.
	Contains(object domain.Identity) bool
	// Object returns the live node of an object.
	Object(object domain.Identity) (*domain.Node, bool)
	// Children returns the ordered children of an object.
	Children(object domain.Identity) []domain.Identity
	// Parent returns the parent of an object and the object's index among its siblings.
	Parent(object domain.Identity) (parent domain.Identity, index int, ok bool)
	// Snapshot captures the object and its descendants as a graph in document identity space.
	Snapshot(object domain.Identity) (*domain.Graph, error)

	// CreateObject allocates a detached object.
	CreateObject(typeName string, id domain.Identity) (*domain.Node, error)
	// AddObject attaches a created object under parent at index. A negative index appends.
	AddObject(obj *domain.Node, parent domain.Identity, index int) error
	// RemoveObject detaches and discards an object and its subtree.
	RemoveObject(object domain.Identity) error
}

// CommandHistory batches commands into undoable transactions.
// Transactions nest: finishing an inner transaction folds it into the outer one,
// cancelling it reverts only its own commands.
type CommandHistory interface {
	BeginTransaction(label string)
	EmitCommand(cmd domain.Command) (domain.CommandResult, error)
	FinishTransaction() error
	CancelTransaction() error
	Undo() error
	Redo() error
}

// MetadataStore holds per-object prefab metadata.
type MetadataStore interface {
	ReadMetadata(object domain.Identity) (domain.InstanceMetadata, bool)
	WriteMetadata(object domain.Identity, meta domain.InstanceMetadata)
	ClearMetadata(object domain.Identity)
}

// Document is one open authored document.
type Document interface {
	DocumentTree
	CommandHistory
	MetadataStore

	// ID returns the identity of the document itself.
	ID() domain.Identity
}
