package store

import (
	"sort"
	"sync"

	"github.com/gcbaptista/colsearch/model"
	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
)

// WriteHook is called after a column value changes. oldValue or newValue is
// nil when the value was absent before or has been cleared.
type WriteHook func(id model.RecordID, oldValue, newValue interface{})

// MatchKind selects how a Searcher combines the terms of a query.
type MatchKind int

const (
	// MatchPhrase requires every query term, adjacent when positions are kept.
	MatchPhrase MatchKind = iota
	// MatchAll requires every query term anywhere in the record.
	MatchAll
	// MatchAny accepts records containing at least one query term.
	MatchAny
)

// Searcher is implemented by index columns bound to a data column. The
// expression evaluator uses it to answer match operators without scanning.
type Searcher interface {
	Name() string
	Match(query string, kind MatchKind) (*RecordSet, error)
}

type namedHook struct {
	owner string
	fn    WriteHook
}

// Column stores one scalar or vector value per record.
type Column struct {
	mu        sync.RWMutex
	table     *Table
	name      string
	valueType model.ValueType
	vector    bool
	values    map[model.RecordID]interface{}
	hooks     []namedHook
	searchers map[string]Searcher
}

func newColumn(table *Table, name string, valueType model.ValueType, vector bool) *Column {
	return &Column{
		table:     table,
		name:      name,
		valueType: valueType,
		vector:    vector,
		values:    make(map[model.RecordID]interface{}),
		searchers: make(map[string]Searcher),
	}
}

func (c *Column) Name() string               { return c.name }
func (c *Column) Table() *Table              { return c.table }
func (c *Column) ValueType() model.ValueType { return c.valueType }
func (c *Column) IsVector() bool             { return c.vector }
func (c *Column) IsScalar() bool             { return !c.vector }
func (c *Column) IsIndex() bool              { return false }

// FullName is "Table.column".
func (c *Column) FullName() string {
	return c.table.Name() + "." + c.name
}

// Get returns the value stored for id, or nil.
func (c *Column) Get(id model.RecordID) interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.values[id]
}

// Set stores a value for a live record and notifies write hooks.
func (c *Column) Set(id model.RecordID, value interface{}) error {
	if !c.table.Exists(id) {
		return internalErrors.NewRecordNotFoundError(c.table.Name(), uint32(id))
	}
	normalized, err := model.NormalizeValue(c.valueType, c.vector, value)
	if err != nil {
		return internalErrors.NewValidationError(c.FullName(), err.Error())
	}

	c.mu.Lock()
	oldValue := c.values[id]
	if normalized == nil {
		delete(c.values, id)
	} else {
		c.values[id] = normalized
	}
	hooks := append([]namedHook(nil), c.hooks...)
	c.mu.Unlock()

	for _, h := range hooks {
		h.fn(id, oldValue, normalized)
	}
	return nil
}

func (c *Column) clear(id model.RecordID) {
	c.mu.Lock()
	oldValue, ok := c.values[id]
	delete(c.values, id)
	hooks := append([]namedHook(nil), c.hooks...)
	c.mu.Unlock()

	if !ok {
		return
	}
	for _, h := range hooks {
		h.fn(id, oldValue, nil)
	}
}

// Each calls fn for every stored value in record id order.
func (c *Column) Each(fn func(id model.RecordID, value interface{})) {
	c.mu.RLock()
	ids := make([]model.RecordID, 0, len(c.values))
	for id := range c.values {
		ids = append(ids, id)
	}
	c.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		if value := c.Get(id); value != nil {
			fn(id, value)
		}
	}
}

// AddHook subscribes fn to writes. owner identifies the subscription so it
// can be removed again; adding an owner twice replaces the earlier hook.
func (c *Column) AddHook(owner string, fn WriteHook) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.hooks {
		if h.owner == owner {
			c.hooks[i].fn = fn
			return
		}
	}
	c.hooks = append(c.hooks, namedHook{owner: owner, fn: fn})
}

// RemoveHook drops the hook registered by owner.
func (c *Column) RemoveHook(owner string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, h := range c.hooks {
		if h.owner == owner {
			c.hooks = append(c.hooks[:i], c.hooks[i+1:]...)
			return
		}
	}
}

// AttachSearcher registers an index that covers this column.
func (c *Column) AttachSearcher(s Searcher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.searchers[s.Name()] = s
}

// DetachSearcher removes a previously attached index.
func (c *Column) DetachSearcher(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.searchers, name)
}

// Searchers returns the attached indexes ordered by name.
func (c *Column) Searchers() []Searcher {
	c.mu.RLock()
	defer c.mu.RUnlock()
	searchers := make([]Searcher, 0, len(c.searchers))
	for _, s := range c.searchers {
		searchers = append(searchers, s)
	}
	sort.Slice(searchers, func(i, j int) bool { return searchers[i].Name() < searchers[j].Name() })
	return searchers
}
