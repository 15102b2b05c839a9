package store

import (
	"sort"
	"strings"
	"sync"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gcbaptista/colsearch/model"
	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
)

// Pseudo column names resolved by every table.
const (
	ColumnID  = "_id"
	ColumnKey = "_key"
)

// TableOptions configures a new table.
type TableOptions struct {
	Kind model.TableKind
	// DefaultTokenizer is used by index columns whose lexicon is this table.
	DefaultTokenizer string
}

// Table maps keys (or auto-assigned ids) to records with typed columns.
type Table struct {
	Mu               sync.RWMutex
	name             string
	kind             model.TableKind
	defaultTokenizer string

	alive   *roaring.Bitmap
	nextID  model.RecordID
	keyToID map[string]model.RecordID
	idToKey map[model.RecordID]string
	// sortedKeys is maintained only for patricia trie tables
	sortedKeys []string

	columns     map[string]*Column
	columnOrder []string
}

// NewTable creates an empty table.
func NewTable(name string, opts TableOptions) *Table {
	return &Table{
		name:             name,
		kind:             opts.Kind,
		defaultTokenizer: opts.DefaultTokenizer,
		alive:            roaring.New(),
		nextID:           1,
		keyToID:          make(map[string]model.RecordID),
		idToKey:          make(map[model.RecordID]string),
		columns:          make(map[string]*Column),
	}
}

func (t *Table) Name() string                 { return t.name }
func (t *Table) Kind() model.TableKind        { return t.kind }
func (t *Table) DefaultTokenizer() string     { return t.defaultTokenizer }
func (t *Table) HasKeys() bool                { return t.kind != model.KindArray }
func (t *Table) SetDefaultTokenizer(n string) { t.defaultTokenizer = n }

// Add inserts a record. Array tables ignore key. Keyed tables return the
// existing record when the key is already present.
func (t *Table) Add(key string) (Record, error) {
	t.Mu.Lock()
	defer t.Mu.Unlock()

	if t.kind == model.KindArray {
		id := t.nextID
		t.nextID++
		t.alive.Add(uint32(id))
		return Record{table: t, id: id}, nil
	}

	if key == "" {
		return Record{}, internalErrors.NewValidationError("_key", "keyed tables require a non-empty key")
	}
	if id, exists := t.keyToID[key]; exists {
		return Record{table: t, id: id}, nil
	}

	id := t.nextID
	t.nextID++
	t.alive.Add(uint32(id))
	t.keyToID[key] = id
	t.idToKey[id] = key
	if t.kind == model.KindPatriciaTrie {
		pos := sort.SearchStrings(t.sortedKeys, key)
		t.sortedKeys = append(t.sortedKeys, "")
		copy(t.sortedKeys[pos+1:], t.sortedKeys[pos:])
		t.sortedKeys[pos] = key
	}
	return Record{table: t, id: id}, nil
}

// Insert adds a record and writes the given column values. Column writes go
// through Column.Set, so bound index columns are updated.
func (t *Table) Insert(key string, values model.Values) (Record, error) {
	record, err := t.Add(key)
	if err != nil {
		return Record{}, err
	}
	for name, value := range values {
		if err := record.Set(name, value); err != nil {
			return record, err
		}
	}
	return record, nil
}

// Delete removes a record. Every column clears its value first, so write
// hooks see (old, nil) and index columns drop the record's postings.
func (t *Table) Delete(id model.RecordID) error {
	t.Mu.RLock()
	exists := t.alive.Contains(uint32(id))
	columns := t.columnsLocked()
	t.Mu.RUnlock()

	if !exists {
		return internalErrors.NewRecordNotFoundError(t.name, uint32(id))
	}
	for _, column := range columns {
		column.clear(id)
	}

	t.Mu.Lock()
	defer t.Mu.Unlock()
	t.alive.Remove(uint32(id))
	if key, ok := t.idToKey[id]; ok {
		delete(t.idToKey, id)
		delete(t.keyToID, key)
		if t.kind == model.KindPatriciaTrie {
			pos := sort.SearchStrings(t.sortedKeys, key)
			if pos < len(t.sortedKeys) && t.sortedKeys[pos] == key {
				t.sortedKeys = append(t.sortedKeys[:pos], t.sortedKeys[pos+1:]...)
			}
		}
	}
	return nil
}

// DeleteByKey removes the record with the given key.
func (t *Table) DeleteByKey(key string) error {
	record, ok := t.RecordByKey(key)
	if !ok {
		return internalErrors.NewRecordKeyNotFoundError(t.name, key)
	}
	return t.Delete(record.ID())
}

// Exists reports whether id refers to a live record.
func (t *Table) Exists(id model.RecordID) bool {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	return t.alive.Contains(uint32(id))
}

// Record returns the live record with the given id.
func (t *Table) Record(id model.RecordID) (Record, bool) {
	if !t.Exists(id) {
		return Record{}, false
	}
	return Record{table: t, id: id}, true
}

// RecordByKey looks up a record in a keyed table.
func (t *Table) RecordByKey(key string) (Record, bool) {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	id, ok := t.keyToID[key]
	if !ok {
		return Record{}, false
	}
	return Record{table: t, id: id}, true
}

// Key returns the key of a record, or "" for array tables.
func (t *Table) Key(id model.RecordID) string {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	return t.idToKey[id]
}

// Size returns the number of live records.
func (t *Table) Size() int {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	return int(t.alive.GetCardinality())
}

// IDs returns live record ids in ascending order.
func (t *Table) IDs() []model.RecordID {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	ids := make([]model.RecordID, 0, t.alive.GetCardinality())
	it := t.alive.Iterator()
	for it.HasNext() {
		ids = append(ids, model.RecordID(it.Next()))
	}
	return ids
}

// Each calls fn for every live record in id order until fn returns false.
func (t *Table) Each(fn func(Record) bool) {
	for _, id := range t.IDs() {
		if !fn(Record{table: t, id: id}) {
			return
		}
	}
}

// Keys returns all keys. Patricia trie tables return them sorted; hash
// tables return them in id order.
func (t *Table) Keys() []string {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	if t.kind == model.KindPatriciaTrie {
		return append([]string(nil), t.sortedKeys...)
	}
	keys := make([]string, 0, len(t.keyToID))
	it := t.alive.Iterator()
	for it.HasNext() {
		if key, ok := t.idToKey[model.RecordID(it.Next())]; ok {
			keys = append(keys, key)
		}
	}
	return keys
}

// PrefixSearch returns the records whose key starts with prefix, in key
// order. Only patricia trie tables keep keys ordered; other kinds are scanned.
func (t *Table) PrefixSearch(prefix string) []Record {
	t.Mu.RLock()
	defer t.Mu.RUnlock()

	records := make([]Record, 0)
	if t.kind == model.KindPatriciaTrie {
		for i := sort.SearchStrings(t.sortedKeys, prefix); i < len(t.sortedKeys); i++ {
			key := t.sortedKeys[i]
			if !strings.HasPrefix(key, prefix) {
				break
			}
			records = append(records, Record{table: t, id: t.keyToID[key]})
		}
		return records
	}
	it := t.alive.Iterator()
	for it.HasNext() {
		id := model.RecordID(it.Next())
		if key, ok := t.idToKey[id]; ok && strings.HasPrefix(key, prefix) {
			records = append(records, Record{table: t, id: id})
		}
	}
	return records
}

// DefineColumn adds a data column to the table.
func (t *Table) DefineColumn(name string, valueType model.ValueType, vector bool) (*Column, error) {
	if name == "" || strings.HasPrefix(name, "_") || strings.Contains(name, ".") {
		return nil, internalErrors.NewValidationError("name", "column names must be non-empty, must not start with '_' and must not contain '.'")
	}

	t.Mu.Lock()
	defer t.Mu.Unlock()
	if _, exists := t.columns[name]; exists {
		return nil, internalErrors.NewDuplicateNameError(t.name + "." + name)
	}
	column := newColumn(t, name, valueType, vector)
	t.columns[name] = column
	t.columnOrder = append(t.columnOrder, name)
	return column, nil
}

// RemoveColumn drops a data column and its values.
func (t *Table) RemoveColumn(name string) error {
	t.Mu.Lock()
	defer t.Mu.Unlock()
	if _, exists := t.columns[name]; !exists {
		return internalErrors.NewNoSuchColumnError(t.name, name)
	}
	delete(t.columns, name)
	for i, n := range t.columnOrder {
		if n == name {
			t.columnOrder = append(t.columnOrder[:i], t.columnOrder[i+1:]...)
			break
		}
	}
	return nil
}

// Column returns a data column by name.
func (t *Table) Column(name string) (*Column, error) {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	column, ok := t.columns[name]
	if !ok {
		return nil, internalErrors.NewNoSuchColumnError(t.name, name)
	}
	return column, nil
}

// HasColumn reports whether name is a data column or a pseudo column.
func (t *Table) HasColumn(name string) bool {
	if name == ColumnID || (name == ColumnKey && t.HasKeys()) {
		return true
	}
	_, err := t.Column(name)
	return err == nil
}

// Columns returns the data columns in definition order.
func (t *Table) Columns() []*Column {
	t.Mu.RLock()
	defer t.Mu.RUnlock()
	return t.columnsLocked()
}

func (t *Table) columnsLocked() []*Column {
	columns := make([]*Column, 0, len(t.columnOrder))
	for _, name := range t.columnOrder {
		columns = append(columns, t.columns[name])
	}
	return columns
}
