package store

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	"github.com/gcbaptista/colsearch/model"
)

// gobColumnData is a helper struct for Gob encoding/decoding one column.
// Hooks and searchers are runtime bindings and are not persisted.
type gobColumnData struct {
	Name      string
	ValueType model.ValueType
	Vector    bool
	Values    map[model.RecordID]interface{}
}

// gobTableData is a helper struct for Gob encoding/decoding Table data.
// It excludes the mutex.
type gobTableData struct {
	Name             string
	Kind             model.TableKind
	DefaultTokenizer string
	Alive            []byte
	NextID           model.RecordID
	Keys             map[string]model.RecordID
	Columns          []gobColumnData
}

func init() {
	// Vector values are stored as interface{} and need their concrete types registered.
	gob.Register([]string{})
	gob.Register([]int64{})
	gob.Register([]float64{})
	gob.Register([]bool{})
}

// GobEncode implements the gob.GobEncoder interface for Table.
func (t *Table) GobEncode() ([]byte, error) {
	t.Mu.RLock()
	defer t.Mu.RUnlock()

	alive, err := t.alive.ToBytes()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize record bitmap of table '%s': %w", t.name, err)
	}

	dataToEncode := gobTableData{
		Name:             t.name,
		Kind:             t.kind,
		DefaultTokenizer: t.defaultTokenizer,
		Alive:            alive,
		NextID:           t.nextID,
		Keys:             t.keyToID,
	}
	for _, column := range t.columnsLocked() {
		column.mu.RLock()
		dataToEncode.Columns = append(dataToEncode.Columns, gobColumnData{
			Name:      column.name,
			ValueType: column.valueType,
			Vector:    column.vector,
			Values:    column.values,
		})
		column.mu.RUnlock()
	}

	var buf bytes.Buffer
	encoder := gob.NewEncoder(&buf)
	if err := encoder.Encode(dataToEncode); err != nil {
		return nil, fmt.Errorf("failed to gob encode table data: %w", err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface for Table.
func (t *Table) GobDecode(data []byte) error {
	decodedData := gobTableData{}

	buf := bytes.NewBuffer(data)
	decoder := gob.NewDecoder(buf)
	if err := decoder.Decode(&decodedData); err != nil {
		return fmt.Errorf("failed to gob decode table data: %w", err)
	}

	alive := roaring.New()
	if len(decodedData.Alive) > 0 {
		if _, err := alive.FromBuffer(decodedData.Alive); err != nil {
			return fmt.Errorf("failed to decode record bitmap of table '%s': %w", decodedData.Name, err)
		}
		// FromBuffer shares the byte slice; clone so later writes never touch it
		alive = alive.Clone()
	}

	t.Mu.Lock()
	defer t.Mu.Unlock()

	t.name = decodedData.Name
	t.kind = decodedData.Kind
	t.defaultTokenizer = decodedData.DefaultTokenizer
	t.alive = alive
	t.nextID = decodedData.NextID
	if t.nextID == 0 {
		t.nextID = 1
	}
	t.keyToID = decodedData.Keys
	if t.keyToID == nil {
		t.keyToID = make(map[string]model.RecordID)
	}
	t.idToKey = make(map[model.RecordID]string, len(t.keyToID))
	t.sortedKeys = nil
	for key, id := range t.keyToID {
		t.idToKey[id] = key
		if t.kind == model.KindPatriciaTrie {
			t.sortedKeys = append(t.sortedKeys, key)
		}
	}
	sort.Strings(t.sortedKeys)

	t.columns = make(map[string]*Column, len(decodedData.Columns))
	t.columnOrder = t.columnOrder[:0]
	for _, cd := range decodedData.Columns {
		column := newColumn(t, cd.Name, cd.ValueType, cd.Vector)
		if cd.Values != nil {
			column.values = cd.Values
		}
		t.columns[cd.Name] = column
		t.columnOrder = append(t.columnOrder, cd.Name)
	}
	return nil
}
