package indexing

import (
	"context"
	"fmt"

	"github.com/gcbaptista/colsearch/index"
	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

// Sources returns the full names of the bound source columns.
func (c *IndexColumn) Sources() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	names := make([]string, len(c.sources))
	for i, source := range c.sources {
		names[i] = source.FullName()
	}
	return names
}

// SetSources binds the index to text columns of the target table. Existing
// postings are discarded and every stored value of the new sources is
// indexed. From then on writes to a source column update the index
// automatically. Calling SetSources with no columns unbinds the index.
//
// Sections are assigned per source: with one scalar source everything goes
// to section 0; with several sources a value's section is the ordinal of its
// source; with one vector source each element's section is its position in
// the vector.
func (c *IndexColumn) SetSources(columns ...*store.Column) error {
	if err := c.checkSources(columns); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.unbindLocked()
	c.postings.Clear()
	c.bindLocked(columns)
	if err := c.reindexLocked(context.Background()); err != nil {
		return err
	}
	c.logger.Info("bound index sources", "sources", len(c.sources), "postings", c.postings.PostingCount())
	return nil
}

// Restore replaces the postings with a previously saved store and binds
// the sources without re-indexing them. The saved postings must have been
// built from the current values of those sources.
func (c *IndexColumn) Restore(postings *index.PostingStore, columns ...*store.Column) error {
	if postings == nil {
		return fmt.Errorf("posting store cannot be nil")
	}
	if err := c.checkSources(columns); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.unbindLocked()
	c.postings = postings
	c.bindLocked(columns)
	c.logger.Info("restored index", "sources", len(c.sources), "postings", c.postings.PostingCount())
	return nil
}

func (c *IndexColumn) checkSources(columns []*store.Column) error {
	for _, column := range columns {
		if column == nil {
			return fmt.Errorf("source column cannot be nil")
		}
		if column.Table() != c.target {
			return internalErrors.NewValidationError("sources", fmt.Sprintf("column '%s' does not belong to table '%s'", column.FullName(), c.target.Name()))
		}
		if !column.ValueType().IsText() {
			return internalErrors.NewValidationError("sources", fmt.Sprintf("column '%s' is not a text column", column.FullName()))
		}
	}
	return nil
}

func (c *IndexColumn) bindLocked(columns []*store.Column) {
	c.sources = append([]*store.Column(nil), columns...)
	for ordinal, column := range c.sources {
		ordinal, column := ordinal, column
		column.AddHook(c.Name(), func(id model.RecordID, oldValue, newValue interface{}) {
			c.onSourceWrite(ordinal, column.IsVector(), id, oldValue, newValue)
		})
		column.AttachSearcher(c)
	}
}

// Unbind detaches the index from its source columns without touching postings.
func (c *IndexColumn) Unbind() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unbindLocked()
	c.sources = nil
}

func (c *IndexColumn) unbindLocked() {
	for _, column := range c.sources {
		column.RemoveHook(c.Name())
		column.DetachSearcher(c.Name())
	}
}

// Rebuild discards every posting and re-indexes the stored values of all
// source columns. It stops early, leaving a partial index, when ctx is done.
func (c *IndexColumn) Rebuild(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.postings.Clear()
	return c.reindexLocked(ctx)
}

func (c *IndexColumn) reindexLocked(ctx context.Context) error {
	for ordinal, column := range c.sources {
		var err error
		column.Each(func(id model.RecordID, value interface{}) {
			if err != nil {
				return
			}
			if err = ctx.Err(); err != nil {
				return
			}
			for _, sv := range c.sectionValues(ordinal, column.IsVector(), value) {
				c.addLocked(id, sv.Text, sv.Section, sv.Weight)
			}
		})
		if err != nil {
			return fmt.Errorf("rebuild of index '%s' interrupted: %w", c.Name(), err)
		}
	}
	return nil
}

func (c *IndexColumn) onSourceWrite(ordinal int, vector bool, id model.RecordID, oldValue, newValue interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, sv := range c.sectionValues(ordinal, vector, oldValue) {
		c.deleteLocked(id, sv.Text, sv.Section, sv.Weight)
	}
	for _, sv := range c.sectionValues(ordinal, vector, newValue) {
		c.addLocked(id, sv.Text, sv.Section, sv.Weight)
	}
}

// sectionValues splits a stored column value into the (text, section) pairs
// the index keeps for it.
func (c *IndexColumn) sectionValues(ordinal int, vector bool, value interface{}) []Value {
	texts := textValues(value)
	values := make([]Value, 0, len(texts))
	for i, text := range texts {
		section := uint32(ordinal)
		if vector && len(c.sources) == 1 {
			section = uint32(i)
		}
		values = append(values, Value{Text: text, Section: section, Weight: 1})
	}
	return values
}

// textValues extracts indexable strings from a stored value.
func textValues(value interface{}) []string {
	switch v := value.(type) {
	case nil:
		return nil
	case string:
		return []string{v}
	case []string:
		return v
	case []interface{}: // JSON arrays are often unmarshalled to []interface{}
		parts := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				parts = append(parts, s)
			}
		}
		return parts
	default:
		return nil
	}
}
