// Package templates implements directory-backed template storage.
package templates

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/prefab/internal/adapters/codec"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
)

var _ ports.TemplateStore = (*Store)(nil)

// Entry is one indexed template document.
type Entry struct {
	ID   domain.Identity
	Path string
}

// Store implements ports.TemplateStore over a directory of template files, indexed by
// the document identity each file declares. It is safe for concurrent use.
type Store struct {
	dir    string
	ext    string
	codec  *codec.Codec
	logger ports.Logger

	mu     sync.RWMutex
	paths  map[domain.Identity]string
	byPath map[string]domain.Identity
}

// NewStore indexes every template under dir. Files that cannot be read or carry no
// document identity are skipped with a warning.
func NewStore(dir, ext string, c *codec.Codec, logger ports.Logger) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, zerr.With(zerr.Wrap(err, "failed to resolve template directory"), "dir", dir)
	}
	if ext == "" {
		ext = domain.DefaultTemplateExtension
	}

	s := &Store{
		dir:    abs,
		ext:    ext,
		codec:  c,
		logger: logger,
		paths:  make(map[domain.Identity]string),
		byPath: make(map[string]domain.Identity),
	}
	for path := range walkTemplates(abs, ext) {
		s.index(path)
	}
	return s, nil
}

func (s *Store) index(path string) {
	//nolint:gosec // Path comes from walking the template directory
	data, err := os.ReadFile(path)
	if err != nil {
		s.logger.Warn(fmt.Sprintf("skipping unreadable template %s: %v", path, err))
		return
	}
	id, err := s.codec.DocumentIdentity(string(data))
	if err != nil || !id.IsValid() {
		s.logger.Warn(fmt.Sprintf("skipping template without document identity: %s", path))
		return
	}
	if prev, dup := s.paths[id]; dup {
		s.logger.Warn(fmt.Sprintf("template %s in %s is already defined in %s", id, path, prev))
		return
	}
	s.paths[id] = path
	s.byPath[path] = id
}

// ReadTemplateText returns the text of the template document.
func (s *Store) ReadTemplateText(template domain.Identity) (string, error) {
	s.mu.RLock()
	path, ok := s.paths[template]
	s.mu.RUnlock()
	if !ok {
		return "", zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "template is not indexed"), "template", template.String())
	}

	//nolint:gosec // Path is taken from the index
	data, err := os.ReadFile(path)
	if err != nil {
		return "", zerr.With(zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateNotFound, err), "failed to read template"),
			"template", template.String()), "path", path)
	}
	return string(data), nil
}

// Resolve returns the identity of the template stored at path. Relative paths are taken
// from the template directory; the extension may be omitted. An identity string is also accepted.
func (s *Store) Resolve(path string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byPath[s.abs(path)]; ok {
		return id, nil
	}
	if id, err := domain.ParseIdentity(path); err == nil {
		if _, ok := s.paths[id]; ok {
			return id, nil
		}
	}
	return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "no template at path"), "path", path)
}

// CreateTemplate writes graphText to a new template file at path under a fresh document identity.
func (s *Store) CreateTemplate(path, graphText string) (domain.Identity, error) {
	target := s.abs(path)

	f, err := s.codec.ParseFile(graphText)
	if err != nil {
		return domain.Identity{}, zerr.With(err, "path", target)
	}
	f.Document = domain.NewIdentity()
	f.Prefabs = nil
	text, err := s.codec.SerializeFile(f)
	if err != nil {
		return domain.Identity{}, zerr.With(err, "path", target)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := os.Stat(target); err == nil {
		return domain.Identity{}, zerr.With(zerr.Wrap(domain.ErrTemplateExists, "refusing to overwrite template"), "path", target)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return domain.Identity{}, zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to stat template"),
			"path", target)
	}
	if err := writeAtomic(target, text); err != nil {
		return domain.Identity{}, err
	}

	s.paths[f.Document] = target
	s.byPath[target] = f.Document
	return f.Document, nil
}

// DeleteTemplate removes the template file and drops it from the index.
func (s *Store) DeleteTemplate(template domain.Identity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	path, ok := s.paths[template]
	if !ok {
		return zerr.With(zerr.Wrap(domain.ErrTemplateNotFound, "template is not indexed"), "template", template.String())
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to delete template"),
			"path", path)
	}
	delete(s.paths, template)
	delete(s.byPath, path)
	return nil
}

// Digest returns the xxhash of the template's text as 16 hex digits.
func (s *Store) Digest(template domain.Identity) (string, error) {
	text, err := s.ReadTemplateText(template)
	if err != nil {
		return "", err
	}
	return Digest(text), nil
}

// Entries returns the indexed templates sorted by path.
func (s *Store) Entries() []Entry {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Entry, 0, len(s.paths))
	for id, path := range s.paths {
		out = append(out, Entry{ID: id, Path: path})
	}
	slices.SortFunc(out, func(a, b Entry) int { return strings.Compare(a.Path, b.Path) })
	return out
}

// Dir returns the absolute template directory.
func (s *Store) Dir() string { return s.dir }

func (s *Store) abs(path string) string {
	if !strings.HasSuffix(path, s.ext) {
		path += s.ext
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(s.dir, path)
	}
	return filepath.Clean(path)
}

// Digest returns the xxhash of text as 16 hex digits.
func Digest(text string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(text))
}

func writeAtomic(target, text string) error {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to create template directory"),
			"path", target)
	}

	tmp, err := os.CreateTemp(dir, ".template-*")
	if err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to create temp file"),
			"path", target)
	}
	defer os.Remove(tmp.Name()) //nolint:errcheck // Best effort cleanup, the file is renamed on success

	if _, err := tmp.WriteString(text); err != nil {
		_ = tmp.Close()
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to write template"),
			"path", target)
	}
	if err := tmp.Close(); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to close template"),
			"path", target)
	}
	if err := os.Chmod(tmp.Name(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to set template permissions"),
			"path", target)
	}
	if err := os.Rename(tmp.Name(), target); err != nil {
		return zerr.With(zerr.Wrap(errors.Join(domain.ErrTemplateWriteFailed, err), "failed to move template into place"),
			"path", target)
	}
	return nil
}
