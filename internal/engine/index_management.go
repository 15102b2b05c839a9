package engine

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/index"
	"github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/indexing"
	"github.com/gcbaptista/colsearch/internal/tokenizer"
	"github.com/gcbaptista/colsearch/services"
	"github.com/gcbaptista/colsearch/store"
)

const defaultPageSize = 10

// DefineIndexColumn creates an index column on the lexicon table and binds
// its sources, indexing every record they already hold.
func (db *Database) DefineIndexColumn(settings config.IndexColumnSettings) (*indexing.IndexColumn, error) {
	if problems := settings.Validate(); len(problems) > 0 {
		return nil, errors.NewValidationError("index", strings.Join(problems, "; "))
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	column, err := db.buildIndexLocked(settings)
	if err != nil {
		return nil, err
	}
	sources, err := db.resolveSourcesLocked(settings)
	if err != nil {
		return nil, err
	}
	if err := column.SetSources(sources...); err != nil {
		return nil, err
	}
	db.indexes[column.Name()] = &indexEntry{settings: settings, column: column}
	db.logger.Info("index column defined", "index", column.Name(), "sources", len(sources))
	return column, nil
}

// buildIndexLocked creates an unbound index column for settings after
// checking the tables exist and the name is free.
func (db *Database) buildIndexLocked(settings config.IndexColumnSettings) (*indexing.IndexColumn, error) {
	lexicon, ok := db.tables[settings.Lexicon]
	if !ok {
		return nil, errors.NewTableNotFoundError(settings.Lexicon)
	}
	target, ok := db.tables[settings.Range]
	if !ok {
		return nil, errors.NewTableNotFoundError(settings.Range)
	}
	if _, exists := db.indexes[settings.FullName()]; exists {
		return nil, errors.NewDuplicateNameError(settings.FullName())
	}
	if lexicon.HasColumn(settings.Name) {
		return nil, errors.NewDuplicateNameError(settings.FullName())
	}

	opts := indexing.Options{
		Flags: index.Flags{
			WithSection:  settings.WithSection,
			WithPosition: settings.WithPosition,
			WithWeight:   settings.WithWeight,
		},
		Metrics: db.metrics,
	}
	if settings.Tokenizer != "" {
		tok, err := tokenizer.Lookup(settings.Tokenizer)
		if err != nil {
			return nil, errors.NewValidationError("tokenizer", err.Error())
		}
		opts.Tokenizer = tok
	}
	return indexing.NewIndexColumn(lexicon, settings.Name, target, opts)
}

func (db *Database) resolveSourcesLocked(settings config.IndexColumnSettings) ([]*store.Column, error) {
	target := db.tables[settings.Range]
	sources := make([]*store.Column, 0, len(settings.Sources))
	for _, name := range settings.Sources {
		column, err := target.Column(name)
		if err != nil {
			return nil, err
		}
		sources = append(sources, column)
	}
	return sources, nil
}

// IndexColumn returns an index column by its full name "Lexicon.column".
func (db *Database) IndexColumn(name string) (*indexing.IndexColumn, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()
	entry, ok := db.indexes[name]
	if !ok {
		table, column, _ := strings.Cut(name, ".")
		return nil, errors.NewNoSuchColumnError(table, column)
	}
	return entry.column, nil
}

// ListIndexColumns returns the full names of all index columns, sorted.
func (db *Database) ListIndexColumns() []string {
	db.mu.RLock()
	defer db.mu.RUnlock()
	names := make([]string, 0, len(db.indexes))
	for name := range db.indexes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IndexStats returns term and posting counts of an index column.
func (db *Database) IndexStats(name string) (indexing.Stats, error) {
	column, err := db.IndexColumn(name)
	if err != nil {
		return indexing.Stats{}, err
	}
	return column.Stats(), nil
}

// Search runs query against one index column and returns a page of the
// matching records of its range table.
func (db *Database) Search(name string, query services.SearchQuery) (services.SearchResult, error) {
	start := time.Now()
	column, err := db.IndexColumn(name)
	if err != nil {
		return services.SearchResult{}, err
	}
	kind, err := parseMatchKind(query.Mode)
	if err != nil {
		return services.SearchResult{}, err
	}

	found, err := column.Search(query.Query, indexing.SearchOptions{Kind: kind})
	if err != nil {
		return services.SearchResult{}, fmt.Errorf("search of index '%s' failed: %w", name, err)
	}

	page, pageSize := normalizePage(query.Page, query.PageSize)
	return services.SearchResult{
		Hits:     hits(found, page, pageSize),
		Total:    found.Len(),
		Page:     page,
		PageSize: pageSize,
		Took:     time.Since(start).Milliseconds(),
		QueryId:  uuid.New().String(),
	}, nil
}

func parseMatchKind(mode string) (store.MatchKind, error) {
	switch strings.ToLower(mode) {
	case "", "phrase":
		return store.MatchPhrase, nil
	case "all":
		return store.MatchAll, nil
	case "any":
		return store.MatchAny, nil
	}
	return store.MatchPhrase, errors.NewValidationError("mode", fmt.Sprintf("unknown search mode '%s' (must be 'phrase', 'all' or 'any')", mode))
}

func normalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = defaultPageSize
	}
	return page, pageSize
}

// hits renders one page of a record set.
func hits(found *store.RecordSet, page, pageSize int) []services.Hit {
	records := found.Records()
	from := (page - 1) * pageSize
	if from >= len(records) {
		return []services.Hit{}
	}
	to := from + pageSize
	if to > len(records) {
		to = len(records)
	}

	result := make([]services.Hit, 0, to-from)
	for _, record := range records[from:to] {
		hit := services.Hit{
			ID:     record.ID(),
			Score:  found.Score(record.ID()),
			Values: record.Values(),
		}
		if record.Table().HasKeys() {
			hit.Key = record.Key()
		}
		result = append(result, hit)
	}
	return result
}
