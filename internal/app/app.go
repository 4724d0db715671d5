// Package app implements the application layer for prefab.
package app

import (
	"context"
	"errors"
	"fmt"
	"runtime"

	"go.trai.ch/prefab/internal/adapters/codec"
	"go.trai.ch/prefab/internal/adapters/docstore"
	"go.trai.ch/prefab/internal/adapters/logger"
	"go.trai.ch/prefab/internal/adapters/templates"
	"go.trai.ch/prefab/internal/core/domain"
	"go.trai.ch/prefab/internal/core/ports"
	"go.trai.ch/prefab/internal/engine/updater"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	codec        *codec.Codec
	logger       ports.Logger
	telemetry    ports.Telemetry
	seeds        func() domain.Seed
	jobs         int
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, c *codec.Codec, log ports.Logger, telemetry ports.Telemetry) *App {
	return &App{
		configLoader: loader,
		codec:        c,
		logger:       log,
		telemetry:    telemetry,
		jobs:         runtime.NumCPU(),
	}
}

// WithSeedSource sets the function used to draw seeds for new instances.
// This is primarily used for testing to get stable identities.
func (a *App) WithSeedSource(fn func() domain.Seed) *App {
	a.seeds = fn
	return a
}

// WithJobs limits how many documents are updated at once.
func (a *App) WithJobs(n int) *App {
	if n > 0 {
		a.jobs = n
	}
	return a
}

// workspace is the project state one operation runs against.
type workspace struct {
	cfg       *domain.Config
	templates *templates.Store
	documents *docstore.Store
}

func (a *App) open(configPath string) (*workspace, error) {
	if configPath == "" {
		configPath = "."
	}
	cfg, err := a.configLoader.Load(configPath)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}
	if cfg.JSONLogs {
		if l, ok := a.logger.(interface{ SetJSON(bool) }); ok {
			l.SetJSON(true)
		}
	}

	store, err := templates.NewStore(cfg.TemplateDir, cfg.Extension, a.codec, a.logger)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to open template directory")
	}
	return &workspace{
		cfg:       cfg,
		templates: store,
		documents: docstore.NewStore(a.codec, cfg.Schemas),
	}, nil
}

// load opens a document and an updater that logs on behalf of it.
func (a *App) load(ws *workspace, path string) (ports.Document, *updater.Updater, ports.Logger, error) {
	doc, err := ws.documents.Load(path)
	if err != nil {
		return nil, nil, nil, zerr.With(zerr.Wrap(err, "failed to load document"), "document", path)
	}
	log := a.logger.With(logger.DocumentKey, path)
	var opts []updater.Option
	if a.seeds != nil {
		opts = append(opts, updater.WithSeedSource(a.seeds))
	}
	return doc, updater.New(doc, ws.templates, a.codec, log, a.telemetry, opts...), log, nil
}

func (a *App) save(ws *workspace, path string, doc ports.Document) error {
	if err := ws.documents.Save(path, doc); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to save document"), "document", path)
	}
	return nil
}

// UpdateOptions configuration for the Update method.
type UpdateOptions struct {
	Config    string
	Documents []string
	DryRun    bool
	// Jobs overrides the number of documents updated at once when positive.
	Jobs int
}

// Update merges every instance of each document against its current template and saves the
// documents that changed. Documents are processed concurrently; a failure in one does not
// stop the others.
func (a *App) Update(ctx context.Context, opts UpdateOptions) error {
	if len(opts.Documents) == 0 {
		return domain.ErrNoDocumentsSpecified
	}
	ws, err := a.open(opts.Config)
	if err != nil {
		return err
	}

	errs := make([]error, len(opts.Documents))
	var g errgroup.Group
	limit := a.jobs
	if opts.Jobs > 0 {
		limit = opts.Jobs
	}
	g.SetLimit(limit)
	for i, path := range opts.Documents {
		g.Go(func() error {
			errs[i] = a.updateDocument(ctx, ws, path, opts.DryRun)
			return nil
		})
	}
	_ = g.Wait()
	return errors.Join(errs...)
}

func (a *App) updateDocument(ctx context.Context, ws *workspace, path string, dryRun bool) error {
	doc, u, log, err := a.load(ws, path)
	if err != nil {
		return err
	}
	report, err := u.UpdateAll(ctx)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "update aborted"), "document", path)
	}
	if len(report.Results) == 0 {
		log.Info("no prefab instances")
		return nil
	}

	if report.Count(domain.InstanceStatusUpdated) > 0 && !dryRun {
		if err := a.save(ws, path, doc); err != nil {
			return err
		}
	}
	return finish(log, path, report)
}

// finish logs the status of a pass and turns failed instances into an error.
func finish(log ports.Logger, path string, report *domain.UpdateReport) error {
	status := report.Status()
	if failed := len(report.Failures()); failed > 0 {
		log.Warn(status)
		return zerr.With(zerr.With(zerr.Wrap(domain.ErrUpdateFailed, "some instances were left unchanged"),
			"document", path), "failed", failed)
	}
	log.Info(status)
	return nil
}

// SelectionOptions names objects of one document.
type SelectionOptions struct {
	Config   string
	Document string
	Objects  []string
}

// Revert re-instantiates the selected instances from their templates, discarding overrides.
func (a *App) Revert(ctx context.Context, opts SelectionOptions) error {
	selection, err := parseObjects(opts.Objects)
	if err != nil {
		return err
	}
	ws, err := a.open(opts.Config)
	if err != nil {
		return err
	}
	doc, u, log, err := a.load(ws, opts.Document)
	if err != nil {
		return err
	}

	report, err := u.Revert(ctx, selection)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "revert aborted"), "document", opts.Document)
	}
	if report.Count(domain.InstanceStatusReverted) > 0 {
		if err := a.save(ws, opts.Document, doc); err != nil {
			return err
		}
	}
	return finish(log, opts.Document, report)
}

// Unlink clears the template link of the selected instances.
func (a *App) Unlink(_ context.Context, opts SelectionOptions) error {
	selection, err := parseObjects(opts.Objects)
	if err != nil {
		return err
	}
	ws, err := a.open(opts.Config)
	if err != nil {
		return err
	}
	doc, u, log, err := a.load(ws, opts.Document)
	if err != nil {
		return err
	}

	unlinked, err := u.Unlink(selection)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "unlink failed"), "document", opts.Document)
	}
	if len(unlinked) == 0 {
		log.Info("nothing to unlink")
		return nil
	}
	if err := a.save(ws, opts.Document, doc); err != nil {
		return err
	}
	log.Info(fmt.Sprintf("unlinked %d instances", len(unlinked)))
	return nil
}

// CreateOptions configuration for the Create method.
type CreateOptions struct {
	Config   string
	Document string
	Object   string
	// Path is the template path, relative to the template directory.
	Path string
}

// Create turns an object of a document into a new template and links the object to it.
func (a *App) Create(_ context.Context, opts CreateOptions) (domain.Identity, error) {
	selection, err := parseObjects([]string{opts.Object})
	if err != nil {
		return domain.Identity{}, err
	}
	ws, err := a.open(opts.Config)
	if err != nil {
		return domain.Identity{}, err
	}
	doc, u, _, err := a.load(ws, opts.Document)
	if err != nil {
		return domain.Identity{}, err
	}

	template, err := u.CreateTemplateFromSelection(opts.Path, selection)
	if err != nil {
		return domain.Identity{}, zerr.With(zerr.Wrap(err, "failed to create template"), "document", opts.Document)
	}
	if err := a.save(ws, opts.Document, doc); err != nil {
		return domain.Identity{}, err
	}
	return template, nil
}

// ReplaceOptions configuration for the Replace method.
type ReplaceOptions struct {
	Config   string
	Document string
	Object   string
	// Template is a template path or identity.
	Template string
	// Seed is optional; a fresh seed is drawn when empty.
	Seed string
}

// Replace replaces an object with a new instance of a template and returns the created root.
func (a *App) Replace(_ context.Context, opts ReplaceOptions) (domain.Identity, error) {
	selection, err := parseObjects([]string{opts.Object})
	if err != nil {
		return domain.Identity{}, err
	}
	var seed domain.Seed
	if opts.Seed != "" {
		if seed, err = domain.ParseSeed(opts.Seed); err != nil {
			return domain.Identity{}, zerr.Wrap(errors.Join(domain.ErrInvalidSelection, err), "invalid seed")
		}
	}
	ws, err := a.open(opts.Config)
	if err != nil {
		return domain.Identity{}, err
	}
	template, err := ws.templates.Resolve(opts.Template)
	if err != nil {
		return domain.Identity{}, err
	}
	doc, u, _, err := a.load(ws, opts.Document)
	if err != nil {
		return domain.Identity{}, err
	}

	created, err := u.ReplaceByPrefab(selection[0], template, seed)
	if err != nil {
		return domain.Identity{}, zerr.With(zerr.Wrap(err, "failed to replace object"), "document", opts.Document)
	}
	if err := a.save(ws, opts.Document, doc); err != nil {
		return domain.Identity{}, err
	}
	return created, nil
}

func parseObjects(values []string) ([]domain.Identity, error) {
	out := make([]domain.Identity, 0, len(values))
	for _, v := range values {
		id, err := domain.ParseIdentity(v)
		if err != nil {
			return nil, zerr.Wrap(errors.Join(domain.ErrInvalidSelection, err), "invalid object identity")
		}
		out = append(out, id)
	}
	return out, nil
}
