package store

import (
	"fmt"

	"github.com/gcbaptista/colsearch/model"
)

// Record is a handle to one row of a table. The zero Record is invalid.
type Record struct {
	table *Table
	id    model.RecordID
}

// NewRecord builds a handle without checking that the record exists.
func NewRecord(table *Table, id model.RecordID) Record {
	return Record{table: table, id: id}
}

func (r Record) ID() model.RecordID { return r.id }
func (r Record) Table() *Table      { return r.table }

// Valid reports whether the handle refers to a live record.
func (r Record) Valid() bool {
	return r.table != nil && r.table.Exists(r.id)
}

// Key returns the record key, or "" for array tables.
func (r Record) Key() string {
	if r.table == nil {
		return ""
	}
	return r.table.Key(r.id)
}

// Get reads a column value. The pseudo columns "_id" and "_key" are always
// available ("_key" only on keyed tables).
func (r Record) Get(column string) (interface{}, error) {
	switch {
	case column == ColumnID:
		return int64(r.id), nil
	case column == ColumnKey && r.table.HasKeys():
		return r.Key(), nil
	}
	c, err := r.table.Column(column)
	if err != nil {
		return nil, err
	}
	return c.Get(r.id), nil
}

// Set writes a column value.
func (r Record) Set(column string, value interface{}) error {
	c, err := r.table.Column(column)
	if err != nil {
		return err
	}
	return c.Set(r.id, value)
}

// Values returns every stored column value keyed by column name.
func (r Record) Values() model.Values {
	values := make(model.Values)
	for _, c := range r.table.Columns() {
		if v := c.Get(r.id); v != nil {
			values[c.Name()] = v
		}
	}
	return values
}

func (r Record) String() string {
	if r.table == nil {
		return "#<record:invalid>"
	}
	if r.table.HasKeys() {
		return fmt.Sprintf("#<record:%s:%s id:%d key:%q>", r.table.Kind(), r.table.Name(), r.id, r.Key())
	}
	return fmt.Sprintf("#<record:%s:%s id:%d>", r.table.Kind(), r.table.Name(), r.id)
}
