package engine

import (
	"fmt"
	"path/filepath"
	"sort"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/index"
	"github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/persistence"
	"github.com/gcbaptista/colsearch/store"
)

// snapshot is the gob form of a whole database. Index columns are stored
// with the settings they were defined with; their sources are bound again
// on load without re-indexing.
type snapshot struct {
	Tables  []*store.Table
	Indexes []indexSnapshot
}

type indexSnapshot struct {
	Settings config.IndexColumnSettings
	Postings *index.PostingStore
}

// SnapshotPath is the file Save writes and Load reads.
func (db *Database) SnapshotPath() string {
	return filepath.Join(db.dataDir, snapshotFile)
}

// Save writes every table and index column to the data directory.
func (db *Database) Save() (err error) {
	defer func() { db.metrics.ObserveSnapshot("save", err) }()
	if db.dataDir == "" {
		return errors.NewValidationError("dataDir", "no data directory configured")
	}

	db.mu.RLock()
	snap := snapshot{}
	for _, name := range sortedKeys(db.tables) {
		snap.Tables = append(snap.Tables, db.tables[name])
	}
	for _, name := range sortedKeys(db.indexes) {
		entry := db.indexes[name]
		snap.Indexes = append(snap.Indexes, indexSnapshot{Settings: entry.settings, Postings: entry.column.PostingStore()})
	}
	// Encoding happens under the read lock so no table or index is added
	// or dropped halfway.
	err = persistence.SaveGob(db.SnapshotPath(), snap, db.compress)
	db.mu.RUnlock()

	if err != nil {
		return fmt.Errorf("failed to save database: %w", err)
	}
	db.logger.Info("database saved", "path", db.SnapshotPath(), "tables", len(snap.Tables), "indexes", len(snap.Indexes), "compressed", db.compress)
	return nil
}

// Load replaces the contents of the database with the last snapshot. If
// there is none it returns os.ErrNotExist and leaves the database as is.
// Nothing is replaced when the snapshot cannot be restored.
func (db *Database) Load() (err error) {
	defer func() { db.metrics.ObserveSnapshot("load", err) }()
	if db.dataDir == "" {
		return errors.NewValidationError("dataDir", "no data directory configured")
	}

	var snap snapshot
	if err := persistence.LoadGob(db.SnapshotPath(), &snap); err != nil {
		return err
	}

	restored := &Database{
		tables:  make(map[string]*store.Table, len(snap.Tables)),
		indexes: make(map[string]*indexEntry, len(snap.Indexes)),
		metrics: db.metrics,
	}
	for _, table := range snap.Tables {
		restored.tables[table.Name()] = table
	}
	for _, saved := range snap.Indexes {
		column, err := restored.buildIndexLocked(saved.Settings)
		if err != nil {
			return fmt.Errorf("failed to restore index '%s': %w", saved.Settings.FullName(), err)
		}
		sources, err := restored.resolveSourcesLocked(saved.Settings)
		if err != nil {
			return fmt.Errorf("failed to restore index '%s': %w", saved.Settings.FullName(), err)
		}
		postings := saved.Postings
		if postings == nil {
			postings = index.NewPostingStore(column.Flags())
		}
		if err := column.Restore(postings, sources...); err != nil {
			return fmt.Errorf("failed to restore index '%s': %w", saved.Settings.FullName(), err)
		}
		restored.indexes[column.Name()] = &indexEntry{settings: saved.Settings, column: column}
	}

	db.mu.Lock()
	for _, entry := range db.indexes {
		entry.column.Unbind()
	}
	db.tables = restored.tables
	db.indexes = restored.indexes
	db.mu.Unlock()

	db.logger.Info("database loaded", "path", db.SnapshotPath(), "tables", len(snap.Tables), "indexes", len(snap.Indexes))
	return nil
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
