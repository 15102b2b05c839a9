package expr

import (
	"math"
	"strconv"
	"sync"

	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

// Cell is a shared, mutable value slot. Reference variables read their
// value from a Cell on every execution, so code outside the expression can
// change what a compiled program sees.
type Cell struct {
	mu    sync.RWMutex
	value interface{}
}

// NewCell creates a cell holding value.
func NewCell(value interface{}) *Cell {
	return &Cell{value: value}
}

func (c *Cell) Get() interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.value
}

func (c *Cell) Set(value interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.value = value
}

// VariableOptions configures DefineVariable.
type VariableOptions struct {
	// Name is optional; anonymous variables are addressed by index.
	Name string
	// Domain is the table record values belong to.
	Domain *store.Table
	// Reference makes the variable read through a Cell.
	Reference bool
}

// Variable is a named or anonymous binding owned by one expression.
type Variable struct {
	owner     *Expression
	index     int
	name      string
	reference bool

	mu     sync.RWMutex
	domain *store.Table
	value  interface{}
	cell   *Cell
}

func (v *Variable) Name() string      { return v.name }
func (v *Variable) Index() int        { return v.index }
func (v *Variable) IsReference() bool { return v.reference }

// Domain returns the table record values of this variable belong to.
func (v *Variable) Domain() *store.Table {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.domain
}

func (v *Variable) SetDomain(table *store.Table) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.domain = table
}

// Value returns the current value. Reference variables read their cell.
func (v *Variable) Value() interface{} {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.reference {
		return v.cell.Get()
	}
	return v.value
}

// SetValue stores value. Assigning a record also sets the domain when none
// is set yet, so later assignments of bare record ids resolve against the
// same table.
func (v *Variable) SetValue(value interface{}) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if record, ok := value.(store.Record); ok && v.domain == nil {
		v.domain = record.Table()
	}
	if v.reference {
		v.cell.Set(value)
		return
	}
	v.value = value
}

// Cell returns the slot of a reference variable, or nil.
func (v *Variable) Cell() *Cell {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.cell
}

// Bind makes a reference variable read through an externally owned cell.
func (v *Variable) Bind(cell *Cell) {
	if !v.reference || cell == nil {
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.cell = cell
}

// label is the variable's name, or "?index" for anonymous variables.
func (v *Variable) label() string {
	if v.name != "" {
		return v.name
	}
	return "?" + strconv.Itoa(v.index)
}

// resolve turns the stored value into the value pushed on the stack:
// a variable with a domain and no value stands for the whole table, and a
// record id with a domain becomes a record. Integers outside the id range
// stay plain values.
func (v *Variable) resolve(value interface{}) interface{} {
	domain := v.Domain()
	switch x := value.(type) {
	case nil:
		if domain != nil {
			return tableRef{table: domain}
		}
		return nil
	case store.Record, *store.RecordSet:
		return x
	case *store.Table:
		return tableRef{table: x}
	}
	if domain != nil {
		if id, ok := model.ToInt64(value); ok && id > 0 && id <= math.MaxUint32 {
			return store.NewRecord(domain, model.RecordID(id))
		}
	}
	return value
}
