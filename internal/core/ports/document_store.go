package ports

// DocumentStore loads and saves document files.
//
//go:generate go run go.uber.org/mock/mockgen -source=document_store.go -destination=mocks/mock_document_store.go -package=mocks
type DocumentStore interface {
	// Load reads the document stored at path.
	Load(path string) (Document, error)
	// Save writes doc to path, replacing any previous content.
	Save(path string, doc Document) error
}
