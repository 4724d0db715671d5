package domain

// InstanceMetadata links a document object to the template it was instantiated from.
// It lives in the document's metadata store, not in the object graph.
type InstanceMetadata struct {
	// Template is the identity of the template document.
	Template Identity `json:"template"`
	// Seed remaps template-relative identities into this instance.
	Seed Seed `json:"seed"`
	// BaseSnapshot is the template text as of the last successful merge.
	BaseSnapshot string `json:"base,omitzero"`
}

// IsInstance reports whether the metadata marks an instance root.
func (m InstanceMetadata) IsInstance() bool {
	return m.Template.IsValid()
}

// InstanceRef identifies one instance root found in a document.
type InstanceRef struct {
	Object   Identity
	Metadata InstanceMetadata
}
