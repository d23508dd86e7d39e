// Package metasync keeps three representations of per-file descriptive
// metadata consistent without letting one silently overwrite another:
// the persistent catalog record, the metadata embedded inside the asset
// file, and the caller's transient editor state. The Engine is the only
// component the surrounding application talks to; it enforces a strict
// one-directional data flow for each of its operations.
package metasync

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/G1enB1and/MediaManagerX/catalog"
	"github.com/G1enB1and/MediaManagerX/codec"
	"github.com/G1enB1and/MediaManagerX/codec/jpeg"
	"github.com/G1enB1and/MediaManagerX/codec/png"
	"github.com/G1enB1and/MediaManagerX/data"
	"github.com/G1enB1and/MediaManagerX/log"
)

// Engine is the sync controller: it owns the harvester, the embedder and
// the catalog store, and serializes file operations per path and catalog
// writes per media identity.
type Engine struct {
	registry  *codec.Registry
	store     catalog.Store
	harvester *Harvester
	embedder  *Embedder
	logger    *log.Logger

	paths *keyedMutex
	ids   *keyedMutex
}

// NewEngine builds an engine over the given catalog store. The JPEG and
// PNG codecs are registered by default.
func NewEngine(store catalog.Store, opts ...EngineOption) (*Engine, error) {
	options := newDefaultEngineOptions()
	for _, opt := range opts {
		if err := opt(options); err != nil {
			return nil, err
		}
	}

	logger := log.NewLogger("metasync", options.LogLevel, options.LogFile, options.NoTerminalLog)
	logger.JSON = options.JSONLog

	registry := codec.NewRegistry(jpeg.New(), png.New())
	for _, c := range options.ExtraCodecs {
		registry.Register(c)
	}

	return &Engine{
		registry:  registry,
		store:     store,
		harvester: NewHarvester(registry, logger.Named("harvest")),
		embedder:  NewEmbedder(registry, logger.Named("embed")),
		logger:    logger,
		paths:     newKeyedMutex(),
		ids:       newKeyedMutex(),
	}, nil
}

// Open prepares the catalog store.
func (e *Engine) Open(ctx context.Context) error {
	return e.store.Open(ctx)
}

// Close releases the catalog store.
func (e *Engine) Close(ctx context.Context) error {
	return e.store.Close(ctx)
}

// ImportResult is what an Import hands back to the caller's editor
// state: the fresh snapshot replaces the embedded fields wholesale, and
// MergedTags is the new value for the catalog-tags field.
type ImportResult struct {
	Snapshot *data.EmbeddedSnapshot
	// MergedTags is currentTags plus the harvested tags, deduped
	// case-insensitively in first-seen order. Nothing is ever removed.
	MergedTags []string
}

// ItemView is the display projection for one media item: the catalog
// side and the embedded side, kept clearly apart.
type ItemView struct {
	Record   *data.CatalogRecord
	Combined string
	Snapshot *data.EmbeddedSnapshot
}

// Harvest reads the metadata already embedded in the file. No store is
// read or written.
func (e *Engine) Harvest(ctx context.Context, path string) (*data.EmbeddedSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := e.paths.Lock(path)
	defer unlock()

	return e.harvester.Harvest(path)
}

// Import harvests the file and prepares the caller's editor state: the
// snapshot replaces the embedded fields, and the harvested tags are
// appended into currentTags (the caller's catalog-tags field value).
// The catalog record itself is neither read nor written.
func (e *Engine) Import(ctx context.Context, path string, currentTags []string) (*ImportResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	unlock := e.paths.Lock(path)
	defer unlock()

	snapshot, err := e.harvester.Harvest(path)
	if err != nil {
		return nil, err
	}

	e.logger.Info("import %s: %d tag(s), %d diagnostic(s)", path, len(snapshot.Tags), len(snapshot.Diagnostics))

	return &ImportResult{
		Snapshot:   snapshot,
		MergedTags: data.MergeTags(currentTags, snapshot.Tags),
	}, nil
}

// Save replaces the catalog record for the identity with the given
// fields and stamps UpdatedAt. The file is never touched; a store
// failure aborts with the caller's edits intact.
func (e *Engine) Save(ctx context.Context, id data.MediaID, fields data.CatalogFields) (*data.CatalogRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, fmt.Errorf("%w: empty media identity", data.ErrStoreFailure)
	}

	unlock := e.ids.Lock(string(id))
	defer unlock()

	record := &data.CatalogRecord{
		ID:            id,
		CatalogFields: fields,
		UpdatedAt:     time.Now().UTC().Truncate(time.Second),
	}
	record.Tags = data.MergeTags(record.Tags, nil)

	if err := e.store.Upsert(ctx, record); err != nil {
		return nil, err
	}

	e.logger.Info("saved catalog record %s", id)
	return record.Clone(), nil
}

// Embed writes the caller's embedded-field values into the file,
// replacing every managed metadata block. The bundle comes from the
// editor state, never from the catalog record.
func (e *Engine) Embed(ctx context.Context, path string, bundle data.MetadataBundle) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	unlock := e.paths.Lock(path)
	defer unlock()

	// Cancellation is only honored before the rewrite starts; once the
	// atomic replace is underway it runs to completion.
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.embedder.Embed(path, bundle)
}

// List returns every media identity the catalog knows about.
func (e *Engine) List(ctx context.Context) ([]data.MediaID, error) {
	return e.store.List(ctx)
}

// Delete removes the catalog record for the identity and reports
// whether one existed. Files are never touched.
func (e *Engine) Delete(ctx context.Context, id data.MediaID) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	unlock := e.ids.Lock(string(id))
	defer unlock()

	deleted, err := e.store.Delete(ctx, id)
	if err != nil {
		return false, err
	}
	if deleted {
		e.logger.Info("deleted catalog record %s", id)
	}
	return deleted, nil
}

// Load assembles the display view for a media item: the catalog record
// (zero-valued when the identity is unknown), its combined-view text,
// and — when a path is given — the file's embedded snapshot as a
// separate, read-only-until-imported view. Nothing is written; no
// implicit import happens.
func (e *Engine) Load(ctx context.Context, id data.MediaID, path string) (*ItemView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	record, err := e.store.Get(ctx, id)
	if err != nil {
		if !errors.Is(err, data.ErrNotExist) {
			return nil, err
		}
		record = &data.CatalogRecord{ID: id}
	}

	view := &ItemView{
		Record:   record,
		Combined: data.CombinedView(record),
	}

	if path != "" {
		unlock := e.paths.Lock(path)
		snapshot, err := e.harvester.Harvest(path)
		unlock()
		if err != nil {
			// The catalog side is still useful; the embedded side
			// carries the diagnostics.
			e.logger.Warn("load %s: embedded snapshot unavailable: %v", path, err)
		}
		view.Snapshot = snapshot
	}

	return view, nil
}
