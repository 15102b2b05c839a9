package expr

import (
	"errors"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gcbaptista/colsearch/index"
	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/indexing"
	"github.com/gcbaptista/colsearch/internal/snippet"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

var lastOperation = regexp.MustCompile(`\d([a-zA-Z_-]+)}`)

func lastOperationName(t *testing.T, e *Expression) string {
	t.Helper()
	m := lastOperation.FindStringSubmatch(e.Inspect())
	require.Len(t, m, 2, e.Inspect())
	return m[1]
}

func TestParseDefaultOperator(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil", nil, "AND"},
		{"name", "or", "OR"},
		{"upper case name", "OR", "OR"},
		{"symbol", "||", "OR"},
		{"and symbol", "&&", "AND"},
		{"minus symbol", "-", "AND_NOT"},
		{"not reads as and-not", "not", "AND_NOT"},
		{"operator", OpAdjust, "ADJUST"},
		{"code", int(OpOr), "OR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			err := e.Parse("ruby groonga", ParseOptions{DefaultColumn: "title", DefaultOperator: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.want, lastOperationName(t, e))
		})
	}
}

func TestParseDefaultMode(t *testing.T) {
	tests := []struct {
		name  string
		input interface{}
		want  string
	}{
		{"nil", nil, "MATCH"},
		{"name", "equal", "EQUAL"},
		{"operator", OpEqual, "EQUAL"},
		{"code", int(OpEqual), "EQUAL"},
		{"symbol", "^", "PREFIX"},
		{"near", "near", "NEAR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New()
			err := e.Parse("groonga", ParseOptions{DefaultColumn: "title", DefaultMode: tt.input})
			require.NoError(t, err)
			assert.Equal(t, tt.want, lastOperationName(t, e))
		})
	}
}

func TestParseUnknownDefaults(t *testing.T) {
	e := New()

	err := e.Parse("groonga", ParseOptions{DefaultOperator: "frobnicate"})
	assert.True(t, errors.Is(err, internalErrors.ErrUnknownOperator))

	err = e.Parse("groonga", ParseOptions{DefaultOperator: OpEqual})
	assert.True(t, errors.Is(err, internalErrors.ErrUnknownOperator))

	err = e.Parse("groonga", ParseOptions{DefaultMode: "frobnicate"})
	assert.True(t, errors.Is(err, internalErrors.ErrUnknownMode))

	err = e.Parse("groonga", ParseOptions{DefaultMode: "plus"})
	assert.True(t, errors.Is(err, internalErrors.ErrUnknownMode))

	err = e.Parse("groonga", ParseOptions{DefaultMode: 999})
	assert.True(t, errors.Is(err, internalErrors.ErrUnknownMode))

	assert.Empty(t, e.Codes())
	assert.Empty(t, e.Variables())
}

func TestParseCodes(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"title:@groonga", `#<Expression noname(?0){4?0,0"title",0GET_VALUE,0"groonga",0MATCH}>`},
		{"age:>=30", `#<Expression noname(?0){4?0,0"age",0GET_VALUE,030,0GREATER_EQUAL}>`},
		{`title:"full text"`, `#<Expression noname(?0){4?0,0"title",0GET_VALUE,0"full text",0EQUAL}>`},
		{"a OR b", `#<Expression noname(?0){6?0,0"a",0MATCH,2?0,0"b",0MATCH,0OR}>`},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			e := New()
			require.NoError(t, e.Parse(tt.query, ParseOptions{}))
			assert.Equal(t, tt.want, e.Inspect())
		})
	}
}

func TestParseErrorsLeaveExpressionUntouched(t *testing.T) {
	tests := []string{
		"",
		"   ",
		"(groonga",
		"groonga)",
		"()",
		"OR groonga",
		"-groonga",
		"groonga OR",
		"groonga - ",
		":groonga",
		"title:",
		`title:"unterminated`,
	}

	for _, query := range tests {
		t.Run(query, func(t *testing.T) {
			e := New()
			err := e.Parse(query, ParseOptions{DefaultColumn: "title"})
			require.Error(t, err)
			assert.True(t, errors.Is(err, internalErrors.ErrInvalidInput), "got %v", err)
			assert.Empty(t, e.Codes())
			assert.Empty(t, e.Variables())
		})
	}
}

type articlesFixture struct {
	articles *store.Table
	index    *indexing.IndexColumn
	ids      []model.RecordID
}

func newArticles(t *testing.T) *articlesFixture {
	t.Helper()
	articles := store.NewTable("Articles", store.TableOptions{Kind: model.KindArray})
	content, err := articles.DefineColumn("content", model.TypeText, false)
	require.NoError(t, err)
	_, err = articles.DefineColumn("rank", model.TypeInt, false)
	require.NoError(t, err)

	terms := store.NewTable("Terms", store.TableOptions{Kind: model.KindHash, DefaultTokenizer: "TokenBigram"})
	idx, err := indexing.NewIndexColumn(terms, "content", articles, indexing.Options{Flags: index.Flags{WithPosition: true}})
	require.NoError(t, err)
	require.NoError(t, idx.SetSources(content))

	f := &articlesFixture{articles: articles, index: idx}
	for i, text := range []string{"groonga is fast", "ruby bindings", "groonga and ruby"} {
		record, err := articles.Insert("", model.Values{"content": text, "rank": i + 1})
		require.NoError(t, err)
		f.ids = append(f.ids, record.ID())
	}
	return f
}

func (f *articlesFixture) query(t *testing.T, query string, opts ParseOptions) []model.RecordID {
	t.Helper()
	e := New()
	_, err := e.DefineVariable(VariableOptions{Domain: f.articles})
	require.NoError(t, err)
	require.NoError(t, e.Parse(query, opts))
	require.NoError(t, e.Compile())

	result, err := e.Execute()
	require.NoError(t, err)
	require.IsType(t, &store.RecordSet{}, result)
	return result.(*store.RecordSet).IDs()
}

func TestParseExecutesAgainstIndex(t *testing.T) {
	f := newArticles(t)
	fast, bindings, both := f.ids[0], f.ids[1], f.ids[2]

	tests := []struct {
		query string
		opts  ParseOptions
		want  []model.RecordID
	}{
		{"content:@groonga", ParseOptions{}, []model.RecordID{fast, both}},
		{"groonga ruby", ParseOptions{DefaultColumn: "content"}, []model.RecordID{both}},
		{"groonga OR ruby", ParseOptions{DefaultColumn: "content"}, []model.RecordID{fast, both, bindings}},
		{"groonga ruby", ParseOptions{DefaultColumn: "content", DefaultOperator: "||"}, []model.RecordID{fast, both, bindings}},
		{"groonga -ruby", ParseOptions{DefaultColumn: "content"}, []model.RecordID{fast}},
		{"groonga NOT ruby", ParseOptions{DefaultColumn: "content"}, []model.RecordID{fast}},
		{"(ruby OR fast) +groonga", ParseOptions{DefaultColumn: "content"}, []model.RecordID{both, fast}},
		{"groonga", ParseOptions{}, []model.RecordID{fast, both}},
		{"rank:>1", ParseOptions{}, []model.RecordID{bindings, both}},
		{"rank:2 || rank:3", ParseOptions{}, []model.RecordID{bindings, both}},
		{"content:^ruby", ParseOptions{}, []model.RecordID{bindings}},
		{"content:$ruby", ParseOptions{}, []model.RecordID{both}},
		{"content:!ruby", ParseOptions{}, []model.RecordID{fast, bindings, both}},
		{"missing", ParseOptions{DefaultColumn: "content"}, []model.RecordID{}},
	}

	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, f.query(t, tt.query, tt.opts))
		})
	}
}

func TestParseUnknownColumn(t *testing.T) {
	f := newArticles(t)
	e := New()
	_, err := e.DefineVariable(VariableOptions{Domain: f.articles})
	require.NoError(t, err)
	require.NoError(t, e.Parse("author:morita", ParseOptions{}))

	_, err = e.Execute()
	assert.True(t, errors.Is(err, internalErrors.ErrNoSuchColumn))
}

func TestNotComplementsWithinTable(t *testing.T) {
	f := newArticles(t)
	e := New()
	v, err := e.DefineVariable(VariableOptions{Domain: f.articles})
	require.NoError(t, err)
	require.NoError(t, e.AppendObject(v))
	e.AppendConstant("content")
	require.NoError(t, e.AppendOperation(OpGetValue, 2))
	e.AppendConstant("groonga")
	require.NoError(t, e.AppendOperation(OpMatch, 2))
	require.NoError(t, e.AppendOperation(OpNot, 1))

	result, err := e.Execute()
	require.NoError(t, err)
	assert.Equal(t, []model.RecordID{f.ids[1]}, result.(*store.RecordSet).IDs())
}

func TestKeywords(t *testing.T) {
	e := New()
	require.NoError(t, e.Parse(`content:@groonga (ruby OR content:^fast) rank:>1 groonga`, ParseOptions{DefaultColumn: "content"}))
	assert.Equal(t, []string{"groonga", "ruby", "fast"}, e.Keywords())

	near := New()
	near.AppendConstant("text")
	near.AppendConstant("full text search")
	require.NoError(t, near.AppendOperation(OpNear, 2))
	assert.Equal(t, []string{"full", "text", "search"}, near.Keywords())

	assert.Empty(t, New().Keywords())
}

func TestSnippetFromExpression(t *testing.T) {
	e := New()
	require.NoError(t, e.Parse("groonga ruby", ParseOptions{DefaultColumn: "content"}))

	t.Run("with tags", func(t *testing.T) {
		s, err := e.Snippet([]snippet.Tag{{Open: "[[", Close: "]]"}, {Open: "<", Close: ">"}}, snippet.Options{})
		require.NoError(t, err)
		defer s.Close()

		excerpts, err := s.Execute("ruby loves groonga")
		require.NoError(t, err)
		assert.Equal(t, []string{"<ruby> loves [[groonga]]"}, excerpts)
	})

	t.Run("without tags", func(t *testing.T) {
		s, err := e.Snippet(nil, snippet.Options{})
		require.NoError(t, err)
		defer s.Close()

		excerpts, err := s.Execute("ruby loves groonga")
		require.NoError(t, err)
		assert.Equal(t, []string{"ruby loves groonga"}, excerpts)
	})
}
