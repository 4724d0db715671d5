package domain

// Command is an undoable edit executed by a document's command history.
type Command interface {
	// Label names the command in history listings.
	Label() string
}

// IdentitySpace tells an instantiate command which identity space its graph text uses.
type IdentitySpace uint8

const (
	// TemplateSpace graph text is template-relative and is forward-remapped with the seed on instantiation.
	TemplateSpace IdentitySpace = iota
	// DocumentSpace graph text already carries document identities and is instantiated as is.
	DocumentSpace
)

// RemoveCommand removes an object and its subtree from the document.
type RemoveCommand struct {
	Object Identity
}

// Label implements Command.
func (RemoveCommand) Label() string { return "Remove Object" }

// InstantiateCommand creates a subtree from graph text under Parent at Index.
// When Metadata is set it is attached to the created root. Nested carries metadata for
// descendants, keyed by document identity; entries naming objects outside the created
// subtree are ignored. Undo restores whatever metadata those objects had before.
type InstantiateCommand struct {
	Template  Identity
	Parent    Identity
	Index     int
	GraphText string
	Seed      Seed
	Space     IdentitySpace
	Metadata  *InstanceMetadata
	Nested    map[Identity]InstanceMetadata
}

// Label implements Command.
func (InstantiateCommand) Label() string { return "Instantiate Prefab" }

// CommandResult carries values produced by executing a command.
type CommandResult struct {
	// CreatedRoot is the root created by an InstantiateCommand.
	CreatedRoot Identity
}
