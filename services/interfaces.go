package services

import (
	"context"

	"github.com/gcbaptista/colsearch/config"
	"github.com/gcbaptista/colsearch/internal/expr"
	"github.com/gcbaptista/colsearch/internal/indexing"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

// Hit is one record of a result, with its stored values and, for queries
// that asked for them, highlighted excerpts per column.
type Hit struct {
	ID       model.RecordID      `json:"id"`
	Key      string              `json:"key,omitempty"`
	Score    float64             `json:"score"`
	Values   model.Values        `json:"values"`
	Snippets map[string][]string `json:"snippets,omitempty"`
}

// SearchQuery runs text against one index column.
type SearchQuery struct {
	Query string `json:"query"`
	// Mode is "phrase" (default), "all" or "any".
	Mode     string `json:"mode,omitempty"`
	Page     int    `json:"page,omitempty"`
	PageSize int    `json:"page_size,omitempty"`
}

type SearchResult struct {
	Hits     []Hit  `json:"hits"`
	Total    int    `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"page_size"`
	Took     int64  `json:"took"`     // milliseconds
	QueryId  string `json:"query_id"` // unique UUID for this search query
}

// TagPair wraps matched keywords in excerpts.
type TagPair struct {
	Open  string `json:"open"`
	Close string `json:"close"`
}

// SnippetRequest asks for excerpts of the given text columns of every hit.
type SnippetRequest struct {
	Columns    []string  `json:"columns"`
	Tags       []TagPair `json:"tags,omitempty"`
	Width      int       `json:"width,omitempty"`
	MaxResults int       `json:"max_results,omitempty"`
	HTMLEscape *bool     `json:"html_escape,omitempty"`
}

// QueryRequest parses Query into an expression over the records of Table,
// compiles it and executes it.
type QueryRequest struct {
	Table           string          `json:"table"`
	Query           string          `json:"query"`
	DefaultColumn   string          `json:"default_column,omitempty"`
	DefaultOperator string          `json:"default_operator,omitempty"`
	DefaultMode     string          `json:"default_mode,omitempty"`
	Snippet         *SnippetRequest `json:"snippet,omitempty"`
	Page            int             `json:"page,omitempty"`
	PageSize        int             `json:"page_size,omitempty"`
}

// QueryResult holds either the matching records or, for expressions that
// evaluate to a plain value, that value.
type QueryResult struct {
	Hits       []Hit       `json:"hits,omitempty"`
	Value      interface{} `json:"value,omitempty"`
	Total      int         `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"page_size"`
	Expression string      `json:"expression"`
	Keywords   []string    `json:"keywords"`
	Took       int64       `json:"took"`
	QueryId    string      `json:"query_id"`
}

// NamedQuery is one query of a multi-query request.
type NamedQuery struct {
	Name string `json:"name"`
	QueryRequest
}

type MultiQueryRequest struct {
	Queries []NamedQuery `json:"queries"`
}

type MultiQueryResult struct {
	Results          map[string]QueryResult `json:"results"`
	TotalQueries     int                    `json:"total_queries"`
	ProcessingTimeMs float64                `json:"processing_time_ms"`
}

// RecordInput is one record to write. Key is required for keyed tables and
// ignored by array tables unless ID names an existing record to update.
type RecordInput struct {
	ID     model.RecordID `json:"id,omitempty"`
	Key    string         `json:"key,omitempty"`
	Values model.Values   `json:"values"`
}

// TableInfo describes a table and its columns.
type TableInfo struct {
	Name             string                  `json:"name"`
	Kind             string                  `json:"kind"`
	DefaultTokenizer string                  `json:"default_tokenizer,omitempty"`
	Records          int                     `json:"records"`
	Columns          []config.ColumnSettings `json:"columns"`
	Indexes          []string                `json:"indexes,omitempty"`
}

// TableManager manages tables, their columns and their records.
type TableManager interface {
	DefineTable(settings config.TableSettings) (*store.Table, error)
	DefineColumn(table string, settings config.ColumnSettings) (*store.Column, error)
	RemoveTable(name string) error
	ListTables() []string
	TableInfo(name string) (TableInfo, error)
	PutRecords(table string, records []RecordInput) ([]model.RecordID, error)
	DeleteRecord(table string, ref string) error
}

// IndexManager manages index columns.
type IndexManager interface {
	DefineIndexColumn(settings config.IndexColumnSettings) (*indexing.IndexColumn, error)
	ListIndexColumns() []string
	IndexStats(name string) (indexing.Stats, error)
	Search(index string, query SearchQuery) (SearchResult, error)
	ReindexAsync(index string) (string, error)
}

// QueryRunner builds and runs expressions.
type QueryRunner interface {
	NewExpression(table string, opts ...expr.Option) (*expr.Expression, error)
	Query(ctx context.Context, req QueryRequest) (QueryResult, error)
	MultiQuery(ctx context.Context, req MultiQueryRequest) (*MultiQueryResult, error)
}

// JobManager defines operations for managing background jobs
type JobManager interface {
	GetJob(jobID string) (*model.Job, error)
	ListJobs(target string, status *model.JobStatus) []*model.Job
}

// SnapshotManager saves and restores the whole database.
type SnapshotManager interface {
	Save() error
	Load() error
	SaveAsync() (string, error)
}

// Database is everything the HTTP layer needs.
type Database interface {
	TableManager
	IndexManager
	QueryRunner
	JobManager
	SnapshotManager
}
