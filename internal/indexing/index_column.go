package indexing

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gcbaptista/colsearch/index"
	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/logging"
	"github.com/gcbaptista/colsearch/internal/metrics"
	"github.com/gcbaptista/colsearch/internal/tokenizer"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

// Options configures a new IndexColumn.
type Options struct {
	Flags index.Flags
	// Tokenizer overrides the lexicon's default tokenizer.
	Tokenizer tokenizer.Tokenizer
	Metrics   *metrics.Metrics
}

// Value is the right hand side of an assignment to an index column: one
// text value and the section (and optionally weight) it belongs to.
type Value struct {
	Text    string
	Section uint32
	Weight  uint32
}

// IndexColumn is an inverted index over text values of the records of a
// range table. Its terms are keys of a lexicon table and its postings live
// in a PostingStore.
//
// Add, Delete and Update are serialized by the column's own lock. Searches
// may run concurrently with each other.
type IndexColumn struct {
	mu        sync.RWMutex
	name      string
	lexicon   *store.Table
	target    *store.Table
	tokenizer tokenizer.Tokenizer
	postings  *index.PostingStore
	sources   []*store.Column
	metrics   *metrics.Metrics
	logger    *slog.Logger
}

// NewIndexColumn creates an index column named name on the lexicon table.
// Record ids in postings refer to records of target.
func NewIndexColumn(lexicon *store.Table, name string, target *store.Table, opts Options) (*IndexColumn, error) {
	if lexicon == nil {
		return nil, fmt.Errorf("lexicon table cannot be nil")
	}
	if target == nil {
		return nil, fmt.Errorf("target table cannot be nil")
	}
	if !lexicon.HasKeys() {
		return nil, internalErrors.NewValidationError("lexicon", fmt.Sprintf("table '%s' has no keys and cannot hold terms", lexicon.Name()))
	}
	if name == "" {
		return nil, internalErrors.NewValidationError("name", "index column name cannot be empty")
	}

	tok := opts.Tokenizer
	if tok == nil {
		tokenizerName := lexicon.DefaultTokenizer()
		if tokenizerName == "" {
			tokenizerName = "TokenDelimit"
		}
		var err error
		if tok, err = tokenizer.Lookup(tokenizerName); err != nil {
			return nil, internalErrors.NewValidationError("tokenizer", err.Error())
		}
	}

	c := &IndexColumn{
		name:      name,
		lexicon:   lexicon,
		target:    target,
		tokenizer: tok,
		postings:  index.NewPostingStore(opts.Flags),
		metrics:   opts.Metrics,
	}
	c.logger = logging.WithComponent("indexing").With("index", c.Name())
	return c, nil
}

// Name is the full name "Lexicon.column".
func (c *IndexColumn) Name() string {
	return c.lexicon.Name() + "." + c.name
}

// LocalName is the column name without the lexicon prefix.
func (c *IndexColumn) LocalName() string { return c.name }

func (c *IndexColumn) Lexicon() *store.Table            { return c.lexicon }
func (c *IndexColumn) Target() *store.Table             { return c.target }
func (c *IndexColumn) Tokenizer() tokenizer.Tokenizer   { return c.tokenizer }
func (c *IndexColumn) PostingStore() *index.PostingStore { return c.postings }

// An index column is neither a scalar nor a vector column.
func (c *IndexColumn) IsIndex() bool  { return true }
func (c *IndexColumn) IsVector() bool { return false }
func (c *IndexColumn) IsScalar() bool { return false }

func (c *IndexColumn) WithSection() bool  { return c.postings.Flags.WithSection }
func (c *IndexColumn) WithPosition() bool { return c.postings.Flags.WithPosition }
func (c *IndexColumn) WithWeight() bool   { return c.postings.Flags.WithWeight }

// Flags returns the posting fields this index keeps.
func (c *IndexColumn) Flags() index.Flags { return c.postings.Flags }

// Add indexes text for record id in section with weight 1.
func (c *IndexColumn) Add(id model.RecordID, text string, section uint32) error {
	return c.AddWeighted(id, text, section, index.DefaultWeight)
}

// AddWeighted indexes text for record id in section with the given weight.
func (c *IndexColumn) AddWeighted(id model.RecordID, text string, section, weight uint32) error {
	if !c.target.Exists(id) {
		return internalErrors.NewRecordNotFoundError(c.target.Name(), uint32(id))
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.addLocked(id, text, section, weight)
	return nil
}

// Set is the assignment form of Add: it indexes value.Text in value.Section.
func (c *IndexColumn) Set(id model.RecordID, value Value) error {
	weight := value.Weight
	if weight == 0 {
		weight = index.DefaultWeight
	}
	return c.AddWeighted(id, value.Text, value.Section, weight)
}

// Delete removes the postings that Add(id, text, section) created. The text
// and section must match what was added; mismatches leave postings behind
// without reporting an error.
func (c *IndexColumn) Delete(id model.RecordID, text string, section uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(id, text, section, index.DefaultWeight)
	return nil
}

// DeleteWeighted is Delete for postings added with AddWeighted.
func (c *IndexColumn) DeleteWeighted(id model.RecordID, text string, section, weight uint32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleteLocked(id, text, section, weight)
	return nil
}

// Update replaces oldText with newText for record id in section. It is a
// Delete followed by an Add and is not atomic: a failure between the two
// halves leaves the old postings removed and the new ones missing.
func (c *IndexColumn) Update(id model.RecordID, oldText, newText string, section uint32) error {
	if err := c.Delete(id, oldText, section); err != nil {
		return err
	}
	return c.Add(id, newText, section)
}

// DeleteRecord removes every posting of a record regardless of its text.
func (c *IndexColumn) DeleteRecord(id model.RecordID) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := c.postings.RemoveRecord(id)
	c.metrics.ObservePostings(c.Name(), 0, removed)
	return removed
}

func (c *IndexColumn) addLocked(id model.RecordID, text string, section, weight uint32) {
	tokens := c.tokenizer.Tokenize(text)
	for _, tok := range tokens {
		// Terms become lexicon keys; the lexicon is keyed so Add cannot fail
		// for a non-empty term.
		if _, err := c.lexicon.Add(tok.Term); err != nil {
			c.logger.Warn("failed to register term", "term", tok.Term, "error", err)
		}
		c.postings.Add(tok.Term, index.Posting{
			RecordID: id,
			Section:  section,
			Position: uint32(tok.Offset),
			Weight:   weight,
		})
	}
	c.metrics.ObservePostings(c.Name(), len(tokens), 0)
	c.logger.Debug("indexed value", "record", id, "section", section, "tokens", len(tokens))
}

func (c *IndexColumn) deleteLocked(id model.RecordID, text string, section, weight uint32) {
	removed := 0
	for _, tok := range c.tokenizer.Tokenize(text) {
		if c.postings.Remove(tok.Term, index.Posting{
			RecordID: id,
			Section:  section,
			Position: uint32(tok.Offset),
			Weight:   weight,
		}) {
			removed++
		}
	}
	c.metrics.ObservePostings(c.Name(), 0, removed)
	c.logger.Debug("removed value", "record", id, "section", section, "postings", removed)
}

// Stats summarizes the size of the index.
type Stats struct {
	Name         string   `json:"name"`
	Tokenizer    string   `json:"tokenizer"`
	Terms        int      `json:"terms"`
	Postings     int      `json:"postings"`
	Sources      []string `json:"sources"`
	WithSection  bool     `json:"with_section"`
	WithPosition bool     `json:"with_position"`
	WithWeight   bool     `json:"with_weight"`
}

// Stats returns the current term and posting counts.
func (c *IndexColumn) Stats() Stats {
	return Stats{
		Name:         c.Name(),
		Tokenizer:    c.tokenizer.Name(),
		Terms:        c.postings.TermCount(),
		Postings:     c.postings.PostingCount(),
		Sources:      c.Sources(),
		WithSection:  c.WithSection(),
		WithPosition: c.WithPosition(),
		WithWeight:   c.WithWeight(),
	}
}

func (c *IndexColumn) observeSearch(start time.Time, hits int) {
	c.metrics.ObserveSearch(c.Name(), hits, time.Since(start))
}
