package engine

import (
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/indexing"
	"github.com/gcbaptista/colsearch/internal/jobs"
	"github.com/gcbaptista/colsearch/internal/logging"
	"github.com/gcbaptista/colsearch/internal/metrics"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/services"
	"github.com/gcbaptista/colsearch/store"
)

const snapshotFile = "database.gob"

// Options configures a Database. Every field may be left zero.
type Options struct {
	// DataDir holds snapshots. Save and Load fail when it is empty.
	DataDir  string
	Compress bool
	Snippet  config.SnippetConfig
	Metrics  *metrics.Metrics
	Jobs     *jobs.Manager
}

// indexEntry keeps the settings an index column was defined with next to
// the column itself, so snapshots can recreate it.
type indexEntry struct {
	settings config.IndexColumnSettings
	column   *indexing.IndexColumn
}

// Database is a named registry of tables and index columns.
// It implements the services.Database interface.
type Database struct {
	mu      sync.RWMutex
	tables  map[string]*store.Table
	indexes map[string]*indexEntry

	dataDir  string
	compress bool
	snippet  config.SnippetConfig
	metrics  *metrics.Metrics
	jobs     *jobs.Manager
	logger   *slog.Logger
}

// New creates an empty database.
func New(opts Options) *Database {
	return &Database{
		tables:   make(map[string]*store.Table),
		indexes:  make(map[string]*indexEntry),
		dataDir:  opts.DataDir,
		compress: opts.Compress,
		snippet:  opts.Snippet,
		metrics:  opts.Metrics,
		jobs:     opts.Jobs,
		logger:   logging.WithComponent("engine"),
	}
}

// DefineTable creates a table.
func (db *Database) DefineTable(settings config.TableSettings) (*store.Table, error) {
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, errors.NewValidationError("table", strings.Join(problems, "; "))
	}
	kind, _ := model.ParseTableKind(settings.Kind)

	db.mu.Lock()
	defer db.mu.Unlock()

	if _, exists := db.tables[settings.Name]; exists {
		return nil, errors.NewTableExistsError(settings.Name)
	}
	table := store.NewTable(settings.Name, store.TableOptions{Kind: kind, DefaultTokenizer: settings.DefaultTokenizer})
	db.tables[settings.Name] = table
	db.logger.Info("table defined", "table", settings.Name, "kind", kind.String())
	return table, nil
}

// DefineColumn adds a data column to a table.
func (db *Database) DefineColumn(table string, settings config.ColumnSettings) (*store.Column, error) {
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, errors.NewValidationError("column", strings.Join(problems, "; "))
	}
	valueType, _ := model.ParseValueType(settings.Type)

	db.mu.Lock()
	defer db.mu.Unlock()

	t, ok := db.tables[table]
	if !ok {
		return nil, errors.NewTableNotFoundError(table)
	}
	if _, exists := db.indexes[table+"."+settings.Name]; exists {
		return nil, errors.NewDuplicateNameError(table + "." + settings.Name)
	}
	column, err := t.DefineColumn(settings.Name, valueType, settings.Vector)
	if err != nil {
		return nil, err
	}
	db.logger.Info("column defined", "column", column.FullName(), "type", valueType.String(), "vector", settings.Vector)
	return column, nil
}

// Table returns the table with the given name.
func (db *Database) Table(name string) (*store.Table, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	t, ok := db.tables[name]
	if !ok {
		return nil, errors.NewTableNotFoundError(name)
	}
	return t, nil
}

// Get resolves "Table" to a table and "Table.column" to an index column or
// a data column, in that order.
func (db *Database) Get(name string) (interface{}, error) {
	tableName, columnName, qualified := strings.Cut(name, ".")

	db.mu.RLock()
	defer db.mu.RUnlock()

	t, ok := db.tables[tableName]
	if !ok {
		return nil, errors.NewTableNotFoundError(tableName)
	}
	if !qualified {
		return t, nil
	}
	if entry, ok := db.indexes[name]; ok {
		return entry.column, nil
	}
	return t.Column(columnName)
}

// ListTables returns table names in sorted order.
func (db *Database) ListTables() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()

	names := make([]string, 0, len(db.tables))
	for name := range db.tables {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// TableInfo describes a table, its data columns and the index columns it
// holds as a lexicon.
func (db *Database) TableInfo(name string) (services.TableInfo, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	t, ok := db.tables[name]
	if !ok {
		return services.TableInfo{}, errors.NewTableNotFoundError(name)
	}
	info := services.TableInfo{
		Name:             t.Name(),
		Kind:             t.Kind().String(),
		DefaultTokenizer: t.DefaultTokenizer(),
		Records:          t.Size(),
		Columns:          make([]config.ColumnSettings, 0),
	}
	for _, c := range t.Columns() {
		info.Columns = append(info.Columns, config.ColumnSettings{Name: c.Name(), Type: c.ValueType().String(), Vector: c.IsVector()})
	}
	for fullName, entry := range db.indexes {
		if entry.settings.Lexicon == name {
			info.Indexes = append(info.Indexes, fullName)
		}
	}
	sort.Strings(info.Indexes)
	return info, nil
}

// RemoveTable drops a table and the index columns it holds as a lexicon.
// A table still indexed by another table's index column cannot be removed.
func (db *Database) RemoveTable(name string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.tables[name]; !ok {
		return errors.NewTableNotFoundError(name)
	}
	for fullName, entry := range db.indexes {
		if entry.settings.Range == name && entry.settings.Lexicon != name {
			return errors.NewValidationError("table", fmt.Sprintf("table '%s' is indexed by '%s'", name, fullName))
		}
	}
	for fullName, entry := range db.indexes {
		if entry.settings.Lexicon == name {
			entry.column.Unbind()
			delete(db.indexes, fullName)
		}
	}
	delete(db.tables, name)
	db.logger.Info("table removed", "table", name)
	return nil
}

// PutRecords inserts or updates records. Keyed tables find existing records
// by key; array tables update the record named by ID or add a new one.
// Writing stops at the first failing record; earlier records stay written.
func (db *Database) PutRecords(table string, records []services.RecordInput) ([]model.RecordID, error) {
	t, err := db.Table(table)
	if err != nil {
		return nil, err
	}

	ids := make([]model.RecordID, 0, len(records))
	for i, input := range records {
		var record store.Record
		if !t.HasKeys() && input.ID != 0 {
			var ok bool
			if record, ok = t.Record(input.ID); !ok {
				return ids, errors.NewRecordNotFoundError(table, uint32(input.ID))
			}
			for name, value := range input.Values {
				if err := record.Set(name, value); err != nil {
					return ids, fmt.Errorf("record %d: %w", i, err)
				}
			}
		} else if record, err = t.Insert(input.Key, input.Values); err != nil {
			return ids, fmt.Errorf("record %d: %w", i, err)
		}
		ids = append(ids, record.ID())
	}
	db.logger.Debug("records written", "table", table, "count", len(ids))
	return ids, nil
}

// DeleteRecord deletes a record by key, or by id when ref is numeric and the
// table has no record with that key.
func (db *Database) DeleteRecord(table string, ref string) error {
	t, err := db.Table(table)
	if err != nil {
		return err
	}
	if t.HasKeys() {
		if _, ok := t.RecordByKey(ref); ok {
			return t.DeleteByKey(ref)
		}
	}
	id, err := strconv.ParseUint(ref, 10, 32)
	if err != nil {
		return errors.NewRecordKeyNotFoundError(table, ref)
	}
	return t.Delete(model.RecordID(id))
}
