package domain

import "go.trai.ch/zerr"

var (
	// ErrDuplicateIdentity is returned when a node identity is already present in a graph.
	ErrDuplicateIdentity = zerr.New("duplicate identity")

	// ErrNodeNotFound is returned when an identity does not name a node of the graph.
	ErrNodeNotFound = zerr.New("node not found")

	// ErrDanglingReference is returned when a reference property has no resolvable target.
	ErrDanglingReference = zerr.New("dangling reference")

	// ErrUnknownType is returned when a node type has no registered schema.
	ErrUnknownType = zerr.New("unknown node type")

	// ErrSchemaMismatch is returned when a property is undeclared or has the wrong kind.
	ErrSchemaMismatch = zerr.New("property does not match schema")

	// ErrParseFailed is returned when graph text is malformed.
	ErrParseFailed = zerr.New("failed to parse graph")

	// ErrSerializeFailed is returned when a graph cannot be encoded.
	ErrSerializeFailed = zerr.New("failed to serialize graph")

	// ErrTemplateNotFound is returned when a template document is missing or unreadable.
	ErrTemplateNotFound = zerr.New("template not found")

	// ErrTemplateExists is returned when creating a template over an existing file.
	ErrTemplateExists = zerr.New("template already exists")

	// ErrTemplateWriteFailed is returned when a template document cannot be written.
	ErrTemplateWriteFailed = zerr.New("failed to write template")

	// ErrInvalidSelection is returned when an authoring operation's selection is unusable.
	ErrInvalidSelection = zerr.New("selection must contain exactly one object")

	// ErrObjectNotFound is returned when a document does not contain an object.
	ErrObjectNotFound = zerr.New("object not found")

	// ErrNoActiveTransaction is returned when a command is emitted outside a transaction.
	ErrNoActiveTransaction = zerr.New("no active transaction")

	// ErrTransactionOpen is returned when history is navigated while a transaction is open.
	ErrTransactionOpen = zerr.New("transaction still open")

	// ErrNothingToUndo is returned when the undo or redo stack is empty.
	ErrNothingToUndo = zerr.New("nothing to undo")

	// ErrUnsupportedCommand is returned for command types a document cannot execute.
	ErrUnsupportedCommand = zerr.New("unsupported command")

	// ErrNoDocumentsSpecified is returned when an update names no documents.
	ErrNoDocumentsSpecified = zerr.New("no documents specified")

	// ErrUpdateFailed is joined onto pass results that contain failed instances.
	ErrUpdateFailed = zerr.New("prefab update failed")

	// ErrDocumentReadFailed is returned when a document file cannot be read.
	ErrDocumentReadFailed = zerr.New("failed to read document")

	// ErrDocumentWriteFailed is returned when a document file cannot be written.
	ErrDocumentWriteFailed = zerr.New("failed to write document")

	// ErrConfigReadFailed is returned when the config file cannot be read.
	ErrConfigReadFailed = zerr.New("failed to read config file")

	// ErrConfigParseFailed is returned when the config file cannot be parsed.
	ErrConfigParseFailed = zerr.New("failed to parse config file")
)
