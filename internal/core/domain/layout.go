package domain

const (
	// ConfigFileName is the name of the project configuration file.
	ConfigFileName = "prefab.yaml"

	// DefaultTemplateDir is the template directory used when the config does not name one.
	DefaultTemplateDir = "templates"

	// DefaultTemplateExtension is the file extension of template documents.
	DefaultTemplateExtension = ".prefab"

	// DirPerm is the default permission for directories (rwxr-x---).
	DirPerm = 0o750

	// FilePerm is the default permission for files (rw-r--r--).
	FilePerm = 0o644
)

// Config is the resolved project configuration.
type Config struct {
	// Root is the directory containing the config file.
	Root string
	// TemplateDir is the absolute template directory.
	TemplateDir string
	// Extension is the template file extension, including the dot.
	Extension string
	// JSONLogs switches the logger to JSON output.
	JSONLogs bool
	// Schemas is nil when the project declares no types; schema checks are then skipped.
	Schemas *SchemaRegistry
}
