// Package config provides configuration structures for the search engine.
// It defines server configuration plus the settings used to declare
// tables, columns and index columns.
package config

import (
	"strings"

	"github.com/gcbaptista/colsearch/model"
)

// TableSettings declares a table.
type TableSettings struct {
	Name             string `json:"name"`              // Unique table name (e.g., "Users")
	Kind             string `json:"kind"`              // "array", "hash" or "patricia_trie"; empty means array
	DefaultTokenizer string `json:"default_tokenizer"` // Tokenizer of index columns using this table as lexicon (e.g., "TokenBigram")
}

// ColumnSettings declares a data column.
type ColumnSettings struct {
	Name   string `json:"name"`   // Column name, unique within the table
	Type   string `json:"type"`   // Value type name (e.g., "ShortText", "Int")
	Vector bool   `json:"vector"` // Whether each record holds a list of values
}

// IndexColumnSettings declares an index column on a lexicon table.
//
// The lexicon must be a keyed table. Sources, when given, are columns of
// the range table whose values are indexed automatically; all of them
// must hold text.
type IndexColumnSettings struct {
	Name         string   `json:"name"`          // Column name on the lexicon
	Lexicon      string   `json:"lexicon"`       // Keyed table holding the terms
	Range        string   `json:"range"`         // Table whose records the postings point to
	Sources      []string `json:"sources"`       // Source columns of the range table
	Tokenizer    string   `json:"tokenizer"`     // Overrides the lexicon's default tokenizer
	WithSection  bool     `json:"with_section"`  // Keep section numbers in postings
	WithPosition bool     `json:"with_position"` // Keep token positions in postings
	WithWeight   bool     `json:"with_weight"`   // Keep weights in postings
}

// FullName is "Lexicon.name".
func (settings *IndexColumnSettings) FullName() string {
	return settings.Lexicon + "." + settings.Name
}

// Validate checks the table settings and returns every problem found.
func (settings *TableSettings) Validate() []string {
	var errors []string
	errors = append(errors, validateName("table", settings.Name)...)
	if _, err := model.ParseTableKind(settings.Kind); err != nil {
		errors = append(errors, "Invalid kind '"+settings.Kind+"' for table '"+settings.Name+"' (must be 'array', 'hash' or 'patricia_trie')")
	}
	return errors
}

// Validate checks the column settings and returns every problem found.
func (settings *ColumnSettings) Validate() []string {
	var errors []string
	errors = append(errors, validateName("column", settings.Name)...)
	if strings.HasPrefix(settings.Name, "_") {
		errors = append(errors, "Column name '"+settings.Name+"' is reserved (names starting with '_' are pseudo columns)")
	}
	if _, err := model.ParseValueType(settings.Type); err != nil {
		errors = append(errors, "Invalid type '"+settings.Type+"' for column '"+settings.Name+"'")
	}
	return errors
}

// Validate checks the index column settings and returns every problem found.
// It does not check that the named tables exist.
func (settings *IndexColumnSettings) Validate() []string {
	var errors []string
	errors = append(errors, validateName("index column", settings.Name)...)
	errors = append(errors, validateName("lexicon", settings.Lexicon)...)
	errors = append(errors, validateName("range", settings.Range)...)
	errors = append(errors, checkDuplicates("sources", settings.Sources)...)

	for _, source := range settings.Sources {
		if strings.TrimSpace(source) == "" {
			errors = append(errors, "Source column name cannot be empty or whitespace-only")
		}
	}
	return errors
}

// validateName rejects empty names and names containing '.', which
// separates table and column in full names.
func validateName(what, name string) []string {
	if strings.TrimSpace(name) == "" {
		return []string{"Name of " + what + " cannot be empty or whitespace-only"}
	}
	if strings.Contains(name, ".") {
		return []string{"Name '" + name + "' of " + what + " cannot contain '.'"}
	}
	return nil
}

// checkDuplicates checks for duplicate values in a slice and returns error messages
func checkDuplicates(fieldName string, fields []string) []string {
	var errors []string
	seen := make(map[string]bool)

	for _, field := range fields {
		if seen[field] {
			errors = append(errors, "Duplicate field '"+field+"' found in "+fieldName)
		}
		seen[field] = true
	}

	return errors
}
