// Package cache holds template content for the duration of one update pass.
package cache

import (
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/zerr"
)

// entry is the cached state of one template. A read or parse failure is cached like content.
type entry struct {
	text    string
	readErr error

	parsed   bool
	graph    *domain.Graph
	parseErr error
}

// Cache maps template identities to their raw text and parsed graph. Entries are populated
// lazily and dropped by ClearAll. A Cache is not safe for concurrent use.
type Cache struct {
	store   ports.TemplateStore
	codec   ports.GraphCodec
	logger  ports.Logger
	entries map[domain.Identity]*entry
}

// New creates an empty Cache.
func New(store ports.TemplateStore, codec ports.GraphCodec, logger ports.Logger) *Cache {
	return &Cache{
		store:   store,
		codec:   codec,
		logger:  logger,
		entries: make(map[domain.Identity]*entry),
	}
}

func (c *Cache) load(template domain.Identity) *entry {
	if e, ok := c.entries[template]; ok {
		return e
	}

	e := &entry{}
	text, err := c.store.ReadTemplateText(template)
	if err != nil {
		if !errors.Is(err, domain.ErrTemplateNotFound) {
			err = errors.Join(domain.ErrTemplateNotFound, err)
		}
		e.readErr = zerr.With(zerr.Wrap(err, "cannot read template"), "template", template.String())
		c.logger.Warn(fmt.Sprintf("template %s could not be read: %v", template, err))
	}
	e.text = text
	c.entries[template] = e
	return e
}

// RawContent returns the text of the template. Only the first call per pass reads storage.
func (c *Cache) RawContent(template domain.Identity) (string, error) {
	e := c.load(template)
	return e.text, e.readErr
}

// ParsedGraph returns the parsed template graph, or nil when the template text is empty.
// The graph is shared by every caller in the pass and must not be modified.
func (c *Cache) ParsedGraph(template domain.Identity) (*domain.Graph, error) {
	e := c.load(template)
	if e.readErr != nil {
		return nil, e.readErr
	}
	if !e.parsed {
		e.parsed = true
		if e.text != "" {
			e.graph, e.parseErr = c.codec.ParseGraph(e.text)
			if e.parseErr != nil {
				e.parseErr = zerr.With(zerr.Wrap(e.parseErr, "cannot parse template"), "template", template.String())
			}
		}
	}
	return e.graph, e.parseErr
}

// Digest returns the xxhash of the template text as 16 hex digits.
func (c *Cache) Digest(template domain.Identity) (string, error) {
	text, err := c.RawContent(template)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(text)), nil
}

// ClearAll drops every entry.
func (c *Cache) ClearAll() {
	clear(c.entries)
}

// Len returns the number of cached templates.
func (c *Cache) Len() int {
	return len(c.entries)
}
