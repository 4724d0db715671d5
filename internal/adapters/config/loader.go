// Package config provides the configuration loader for prefab.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

// SupportedVersion is the configuration version understood by the loader.
const SupportedVersion = "1"

// Loader implements ports.ConfigLoader using a YAML file.
type Loader struct {
	Logger ports.Logger
}

// NewLoader creates a new Loader with the given logger.
func NewLoader(logger ports.Logger) *Loader {
	return &Loader{Logger: logger}
}

// Load resolves the project configuration. When path names a directory, prefab.yaml is searched
// for in it and its parents; if none exists the defaults rooted at path apply. When path names
// a file, that file must exist.
func (l *Loader) Load(path string) (*domain.Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "failed to resolve path"), "path", path)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "failed to stat path"), "path", abs)
	}
	if !info.IsDir() {
		return l.loadFile(abs)
	}

	if configPath, ok := findConfiguration(abs); ok {
		return l.loadFile(configPath)
	}
	return defaults(abs), nil
}

func findConfiguration(cwd string) (string, bool) {
	currentDir := cwd
	for {
		candidate := filepath.Join(currentDir, domain.ConfigFileName)
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			// Reached root
			return "", false
		}
		currentDir = parentDir
	}
}

func defaults(root string) *domain.Config {
	return &domain.Config{
		Root:        root,
		TemplateDir: filepath.Join(root, domain.DefaultTemplateDir),
		Extension:   domain.DefaultTemplateExtension,
	}
}

func (l *Loader) loadFile(configPath string) (*domain.Config, error) {
	data, err := os.ReadFile(configPath) //nolint:gosec // path is provided by user
	if err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigReadFailed, err), "failed to read config file"),
			"path", configPath)
	}

	var file Prefabfile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, zerr.With(zerr.Wrap(errors.Join(domain.ErrConfigParseFailed, err), "failed to parse config file"),
			"path", configPath)
	}
	if file.Version != "" && file.Version != SupportedVersion {
		return nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unsupported config version"),
			"path", configPath), "version", file.Version)
	}

	cfg := defaults(filepath.Dir(configPath))
	if file.Templates != "" {
		cfg.TemplateDir = resolveDir(cfg.Root, file.Templates)
	}
	if file.Extension != "" {
		cfg.Extension = canonicalizeExtension(file.Extension)
	}
	cfg.JSONLogs = file.Log.JSON

	if len(file.Types) > 0 {
		registry, err := buildRegistry(file.Types)
		if err != nil {
			return nil, zerr.With(err, "path", configPath)
		}
		cfg.Schemas = registry
	} else {
		l.Logger.Info(fmt.Sprintf("no types declared in %s, schema checks disabled", domain.ConfigFileName))
	}
	return cfg, nil
}

func resolveDir(root, dir string) string {
	if filepath.IsAbs(dir) {
		return filepath.Clean(dir)
	}
	return filepath.Join(root, dir)
}

func canonicalizeExtension(ext string) string {
	if ext[0] != '.' {
		return "." + ext
	}
	return ext
}

func buildRegistry(types map[string]map[string]string) (*domain.SchemaRegistry, error) {
	// Sorted so the first reported error is stable.
	names := make([]string, 0, len(types))
	for name := range types {
		names = append(names, name)
	}
	slices.Sort(names)

	registry := domain.NewSchemaRegistry()
	for _, name := range names {
		schema := domain.TypeSchema{Name: name, Properties: make(map[string]domain.ValueKind, len(types[name]))}
		for prop, kindName := range types[name] {
			kind, ok := domain.ParseValueKind(kindName)
			if !ok {
				return nil, zerr.With(zerr.With(zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, "unknown property kind"),
					"type", name), "property", prop), "kind", kindName)
			}
			schema.Properties[prop] = kind
		}
		registry.Register(schema)
	}
	return registry, nil
}
