// Package sqlite provides the persistent catalog store backed by a local
// SQLite database, with an in-memory B-tree of known identities for fast
// existence checks.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/tidwall/btree"
	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/G1enB1and/MediaManagerX/data"
)

type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB

	// In-memory B-tree of known media identities.
	ids *btree.Set[string]
}

// NewSQLiteStore opens or creates a catalog database. The dbPath can be
// ":memory:" for an in-memory database or a file path.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	// WAL mode for better concurrency across identities.
	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	store := &SQLiteStore{
		db:  db,
		ids: &btree.Set[string]{},
	}

	if err := store.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	return store, nil
}

func (ss *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS media_metadata (
		media_id TEXT PRIMARY KEY,
		tags TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		notes TEXT NOT NULL DEFAULT '',
		ai_prompt TEXT NOT NULL DEFAULT '',
		ai_negative_prompt TEXT NOT NULL DEFAULT '',
		ai_params TEXT NOT NULL DEFAULT '',
		updated_at_utc INTEGER NOT NULL
	);
	`

	_, err := ss.db.Exec(schema)
	return err
}

// Name returns the identifier name defined for this store.
func (*SQLiteStore) Name() string {
	return "sqlite"
}

// Open verifies the connection and loads all known identities into the
// B-tree.
func (ss *SQLiteStore) Open(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	if err := ss.db.PingContext(ctx); err != nil {
		return fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	rows, err := ss.db.QueryContext(ctx, "SELECT media_id FROM media_metadata")
	if err != nil {
		return fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
		}
		ss.ids.Insert(id)
	}

	return rows.Err()
}

func (ss *SQLiteStore) Close(ctx context.Context) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	ss.ids.Clear()
	return ss.db.Close()
}

func (ss *SQLiteStore) Get(ctx context.Context, id data.MediaID) (*data.CatalogRecord, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	if !ss.ids.Contains(string(id)) {
		return nil, data.ErrNotExist
	}

	record := &data.CatalogRecord{ID: id}
	var tags string
	var updatedAt int64

	err := ss.db.QueryRowContext(ctx, `
		SELECT tags, description, notes, ai_prompt, ai_negative_prompt, ai_params, updated_at_utc
		FROM media_metadata WHERE media_id = ?
	`, string(id)).Scan(&tags, &record.Description, &record.Notes,
		&record.AIPrompt, &record.AINegativePrompt, &record.AIParameters, &updatedAt)

	if err == sql.ErrNoRows {
		return nil, data.ErrNotExist
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	record.Tags = data.SplitList(tags, ",")
	record.UpdatedAt = time.Unix(updatedAt, 0).UTC()

	return record, nil
}

// Upsert fully replaces the row for record.ID, mirroring the Save
// operation's replace-not-patch semantics.
func (ss *SQLiteStore) Upsert(ctx context.Context, record *data.CatalogRecord) error {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	_, err := ss.db.ExecContext(ctx, `
		INSERT INTO media_metadata (media_id, tags, description, notes, ai_prompt, ai_negative_prompt, ai_params, updated_at_utc)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(media_id) DO UPDATE SET
		  tags=excluded.tags,
		  description=excluded.description,
		  notes=excluded.notes,
		  ai_prompt=excluded.ai_prompt,
		  ai_negative_prompt=excluded.ai_negative_prompt,
		  ai_params=excluded.ai_params,
		  updated_at_utc=excluded.updated_at_utc
	`, string(record.ID), data.JoinList(record.Tags, ","), record.Description, record.Notes,
		record.AIPrompt, record.AINegativePrompt, record.AIParameters, record.UpdatedAt.Unix())

	if err != nil {
		return fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	ss.ids.Insert(string(record.ID))
	return nil
}

func (ss *SQLiteStore) Delete(ctx context.Context, id data.MediaID) (bool, error) {
	ss.mu.Lock()
	defer ss.mu.Unlock()

	result, err := ss.db.ExecContext(ctx, "DELETE FROM media_metadata WHERE media_id = ?", string(id))
	if err != nil {
		return false, fmt.Errorf("%w: %v", data.ErrStoreFailure, err)
	}

	ss.ids.Delete(string(id))

	affected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return affected > 0, nil
}

func (ss *SQLiteStore) List(ctx context.Context) ([]data.MediaID, error) {
	ss.mu.RLock()
	defer ss.mu.RUnlock()

	ids := make([]data.MediaID, 0, ss.ids.Len())
	ss.ids.Scan(func(id string) bool {
		ids = append(ids, data.MediaID(id))
		return true
	})

	return ids, nil
}
