package config

// Prefabfile represents the structure of the prefab.yaml configuration file.
type Prefabfile struct {
	Version   string                       `yaml:"version"`
	Templates string                       `yaml:"templates"`
	Extension string                       `yaml:"extension"`
	Log       LogDTO                       `yaml:"log"`
	Types     map[string]map[string]string `yaml:"types"`
}

// LogDTO represents the logging section of the configuration.
type LogDTO struct {
	JSON bool `yaml:"json"`
}
