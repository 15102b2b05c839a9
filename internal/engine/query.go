package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/expr"
	"github.com/gcbaptista/colsearch/internal/snippet"
	"github.com/gcbaptista/colsearch/services"
	"github.com/gcbaptista/colsearch/store"
)

// NewExpression creates an expression whose first variable ranges over the
// records of table. Parsed queries read that table's columns.
func (db *Database) NewExpression(table string, opts ...expr.Option) (*expr.Expression, error) {
	t, err := db.Table(table)
	if err != nil {
		return nil, err
	}
	e := expr.New(append([]expr.Option{expr.WithMetrics(db.metrics)}, opts...)...)
	if _, err := e.DefineVariable(expr.VariableOptions{Domain: t}); err != nil {
		return nil, err
	}
	return e, nil
}

// MultiExecute runs read-only expressions concurrently and returns their
// results by name. The first failure cancels the expressions that have not
// started yet and is returned.
func (db *Database) MultiExecute(ctx context.Context, expressions map[string]*expr.Expression) (map[string]interface{}, error) {
	g, ctx := errgroup.WithContext(ctx)

	var mu sync.Mutex
	results := make(map[string]interface{}, len(expressions))
	for name, e := range expressions {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			result, err := e.Execute()
			if err != nil {
				return fmt.Errorf("expression '%s': %w", name, err)
			}
			mu.Lock()
			results[name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Query parses, compiles and executes req.Query over req.Table.
func (db *Database) Query(ctx context.Context, req services.QueryRequest) (services.QueryResult, error) {
	start := time.Now()
	queryID := uuid.New().String()

	e, err := db.NewExpression(req.Table)
	if err != nil {
		return services.QueryResult{}, err
	}
	opts := expr.ParseOptions{DefaultColumn: req.DefaultColumn}
	if req.DefaultOperator != "" {
		opts.DefaultOperator = req.DefaultOperator
	}
	if req.DefaultMode != "" {
		opts.DefaultMode = req.DefaultMode
	}
	if err := e.Parse(req.Query, opts); err != nil {
		return services.QueryResult{}, err
	}
	if err := e.Compile(); err != nil {
		return services.QueryResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return services.QueryResult{}, err
	}
	value, err := e.Execute()
	if err != nil {
		return services.QueryResult{}, err
	}

	result := services.QueryResult{
		Expression: e.Inspect(),
		Keywords:   e.Keywords(),
		QueryId:    queryID,
	}
	if found, ok := value.(*store.RecordSet); ok {
		result.Page, result.PageSize = normalizePage(req.Page, req.PageSize)
		result.Total = found.Len()
		result.Hits = hits(found, result.Page, result.PageSize)
		if req.Snippet != nil {
			if err := db.addSnippets(e, req.Snippet, result.Hits); err != nil {
				return services.QueryResult{}, err
			}
		}
	} else {
		result.Value = value
	}
	result.Took = time.Since(start).Milliseconds()
	db.logger.Debug("query executed", "query_id", queryID, "table", req.Table, "total", result.Total)
	return result, nil
}

// MultiQuery runs named queries concurrently.
func (db *Database) MultiQuery(ctx context.Context, req services.MultiQueryRequest) (*services.MultiQueryResult, error) {
	if len(req.Queries) == 0 {
		return nil, errors.NewValidationError("queries", "at least one query is required")
	}
	seen := make(map[string]bool, len(req.Queries))
	for _, q := range req.Queries {
		if q.Name == "" {
			return nil, errors.NewValidationError("queries", "every query needs a name")
		}
		if seen[q.Name] {
			return nil, errors.NewValidationError("queries", fmt.Sprintf("duplicate query name '%s'", q.Name))
		}
		seen[q.Name] = true
	}

	start := time.Now()
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	results := make(map[string]services.QueryResult, len(req.Queries))
	for _, q := range req.Queries {
		g.Go(func() error {
			result, err := db.Query(ctx, q.QueryRequest)
			if err != nil {
				return fmt.Errorf("query '%s': %w", q.Name, err)
			}
			mu.Lock()
			results[q.Name] = result
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return &services.MultiQueryResult{
		Results:          results,
		TotalQueries:     len(req.Queries),
		ProcessingTimeMs: float64(time.Since(start).Microseconds()) / 1000,
	}, nil
}

// addSnippets fills Hit.Snippets with excerpts of the requested columns
// around the expression's keywords.
func (db *Database) addSnippets(e *expr.Expression, req *services.SnippetRequest, found []services.Hit) error {
	opts := snippet.Options{
		Width:      db.snippet.DefaultWidth,
		MaxResults: db.snippet.MaxResults,
		HTMLEscape: db.snippet.HTMLEscape,
	}
	if req.Width > 0 {
		opts.Width = req.Width
	}
	if req.MaxResults > 0 {
		opts.MaxResults = req.MaxResults
	}
	if req.HTMLEscape != nil {
		opts.HTMLEscape = *req.HTMLEscape
	}
	tags := make([]snippet.Tag, len(req.Tags))
	for i, tag := range req.Tags {
		tags[i] = snippet.Tag{Open: tag.Open, Close: tag.Close}
	}

	s, err := e.Snippet(tags, opts)
	if err != nil {
		return err
	}
	defer s.Close()

	var total int
	for i := range found {
		for _, column := range req.Columns {
			for _, text := range texts(found[i].Values[column]) {
				excerpts, err := s.Execute(text)
				if err != nil {
					return err
				}
				if len(excerpts) == 0 {
					continue
				}
				if found[i].Snippets == nil {
					found[i].Snippets = make(map[string][]string)
				}
				found[i].Snippets[column] = append(found[i].Snippets[column], excerpts...)
				total += len(excerpts)
			}
		}
	}
	db.metrics.ObserveSnippets(total)
	return nil
}

func texts(value interface{}) []string {
	switch v := value.(type) {
	case string:
		return []string{v}
	case []string:
		return v
	}
	return nil
}
