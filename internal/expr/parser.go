package expr

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
)

// ParseOptions configures Parse.
type ParseOptions struct {
	// DefaultColumn is matched by bare terms. When empty, bare terms match
	// every index of the current variable's table.
	DefaultColumn string
	// DefaultOperator joins clauses that have no explicit connective. Any
	// spelling ResolveConnective accepts; nil means AND.
	DefaultOperator interface{}
	// DefaultMode compares bare terms. Any spelling ResolveMode accepts;
	// nil means MATCH.
	DefaultMode interface{}
}

// Parse appends the codes for a query such as
//
//	title:@groonga (tag:ruby OR tag:go) -draft
//
// Clauses are joined left to right by the default operator unless OR, ||,
// AND, &&, +, NOT or - is written between them. A predicate is
// column:value, where the value may carry one of the comparison prefixes
// @ ^ $ < > <= >= !; without a prefix the comparison is equality. Bare
// terms are compared with the default mode.
//
// Predicates read columns of the first variable, which is defined
// (anonymous, without a domain) when the expression has none. On error
// nothing is appended.
func (e *Expression) Parse(query string, opts ParseOptions) error {
	connective, err := ResolveConnective(opts.DefaultOperator)
	if err != nil {
		return err
	}
	mode, err := ResolveMode(opts.DefaultMode)
	if err != nil {
		return err
	}
	tokens, err := lex(query)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var current *Variable
	created := false
	if len(e.variables) > 0 {
		current = e.variables[0]
	} else {
		current = &Variable{owner: e, index: 0}
		created = true
	}

	p := &parser{
		tokens:     tokens,
		current:    current,
		column:     opts.DefaultColumn,
		connective: connective,
		mode:       mode,
	}
	if err := p.parseQuery(); err != nil {
		return err
	}

	if created {
		e.variables = append(e.variables, current)
	}
	for _, code := range p.codes {
		e.appendLocked(code)
	}
	return nil
}

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokWord
	tokLParen
	tokRParen
	tokOr
	tokAnd
	tokNot
)

type token struct {
	kind tokenKind
	text string
	pos  int
	// quoteAt is the offset in text where the first quoted segment began,
	// or -1.
	quoteAt int
}

func (t token) String() string {
	switch t.kind {
	case tokEOF:
		return "end of query"
	case tokWord:
		return strconv.Quote(t.text)
	case tokLParen:
		return "'('"
	case tokRParen:
		return "')'"
	case tokOr:
		return "OR"
	case tokAnd:
		return "AND"
	}
	return "NOT"
}

func lex(input string) ([]token, error) {
	var tokens []token
	runes := []rune(input)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case unicode.IsSpace(r):
			i++
		case r == '(':
			tokens = append(tokens, token{kind: tokLParen, pos: i})
			i++
		case r == ')':
			tokens = append(tokens, token{kind: tokRParen, pos: i})
			i++
		case r == '+':
			tokens = append(tokens, token{kind: tokAnd, pos: i})
			i++
		case r == '-':
			tokens = append(tokens, token{kind: tokNot, pos: i})
			i++
		case r == '|' && i+1 < len(runes) && runes[i+1] == '|':
			tokens = append(tokens, token{kind: tokOr, pos: i})
			i += 2
		case r == '&' && i+1 < len(runes) && runes[i+1] == '&':
			tokens = append(tokens, token{kind: tokAnd, pos: i})
			i += 2
		default:
			word, next, err := lexWord(runes, i)
			if err != nil {
				return nil, err
			}
			switch {
			case word.quoteAt < 0 && word.text == "OR":
				word.kind = tokOr
			case word.quoteAt < 0 && word.text == "AND":
				word.kind = tokAnd
			case word.quoteAt < 0 && word.text == "NOT":
				word.kind = tokNot
			}
			tokens = append(tokens, word)
			i = next
		}
	}
	return append(tokens, token{kind: tokEOF, pos: len(runes)}), nil
}

// lexWord reads up to whitespace or a parenthesis. Double quoted segments
// may contain both; \" and \\ escape inside them.
func lexWord(runes []rune, start int) (token, int, error) {
	var b strings.Builder
	tok := token{kind: tokWord, pos: start, quoteAt: -1}
	i := start
	for i < len(runes) {
		r := runes[i]
		if unicode.IsSpace(r) || r == '(' || r == ')' {
			break
		}
		if r != '"' {
			b.WriteRune(r)
			i++
			continue
		}
		if tok.quoteAt < 0 {
			tok.quoteAt = b.Len()
		}
		i++
		closed := false
		for i < len(runes) {
			r = runes[i]
			if r == '\\' && i+1 < len(runes) {
				b.WriteRune(runes[i+1])
				i += 2
				continue
			}
			if r == '"' {
				closed = true
				i++
				break
			}
			b.WriteRune(r)
			i++
		}
		if !closed {
			return tok, i, internalErrors.NewValidationError("query", fmt.Sprintf("unterminated quote at %d", start))
		}
	}
	tok.text = b.String()
	return tok, i, nil
}

type parser struct {
	tokens     []token
	pos        int
	current    *Variable
	column     string
	connective Operator
	mode       Operator
	codes      []Code
}

func (p *parser) peek() token { return p.tokens[p.pos] }

func (p *parser) next() token {
	t := p.tokens[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) fail(t token, format string, args ...interface{}) error {
	return internalErrors.NewValidationError("query", fmt.Sprintf("%s at %d", fmt.Sprintf(format, args...), t.pos))
}

func (p *parser) emit(code Code) { p.codes = append(p.codes, code) }

func (p *parser) parseQuery() error {
	if err := p.parseGroup(); err != nil {
		return err
	}
	if t := p.peek(); t.kind != tokEOF {
		return p.fail(t, "unexpected %s", t)
	}
	return nil
}

func (p *parser) parseGroup() error {
	t := p.peek()
	switch t.kind {
	case tokEOF, tokRParen:
		return p.fail(t, "empty query")
	case tokOr, tokAnd, tokNot:
		return p.fail(t, "%s needs a left operand", t)
	}
	if err := p.parseClause(); err != nil {
		return err
	}

	for {
		t := p.peek()
		op := p.connective
		switch t.kind {
		case tokEOF, tokRParen:
			return nil
		case tokOr:
			op = OpOr
			p.next()
		case tokAnd:
			op = OpAnd
			p.next()
		case tokNot:
			op = OpAndNot
			p.next()
		}
		switch after := p.peek(); after.kind {
		case tokEOF, tokRParen, tokOr, tokAnd, tokNot:
			return p.fail(after, "missing operand after %s", op)
		}
		if err := p.parseClause(); err != nil {
			return err
		}
		p.emit(Code{Kind: CodeOperation, Op: op, Arity: 2})
	}
}

func (p *parser) parseClause() error {
	t := p.next()
	if t.kind == tokLParen {
		if err := p.parseGroup(); err != nil {
			return err
		}
		if closing := p.next(); closing.kind != tokRParen {
			return p.fail(closing, "expected ')' but found %s", closing)
		}
		return nil
	}
	return p.parsePredicate(t)
}

// comparisonPrefixes are checked in order, so two-character prefixes come
// first.
var comparisonPrefixes = []struct {
	prefix string
	op     Operator
}{
	{"<=", OpLessEqual},
	{">=", OpGreaterEqual},
	{"<", OpLess},
	{">", OpGreater},
	{"@", OpMatch},
	{"^", OpPrefix},
	{"$", OpSuffix},
	{"!", OpNotEqual},
}

func (p *parser) parsePredicate(t token) error {
	limit := len(t.text)
	if t.quoteAt >= 0 {
		limit = t.quoteAt
	}
	colon := strings.IndexByte(t.text[:limit], ':')

	if colon < 0 {
		if p.column != "" {
			p.emitColumn(p.column)
		} else {
			p.emit(Code{Kind: CodeObject, Variable: p.current})
		}
		p.emit(Code{Kind: CodeConstant, Value: t.text})
		p.emit(Code{Kind: CodeOperation, Op: p.mode, Arity: 2})
		return nil
	}

	column := t.text[:colon]
	if column == "" {
		return p.fail(t, "missing column in %s", t)
	}
	op := OpEqual
	valueStart := colon + 1
	for _, c := range comparisonPrefixes {
		end := valueStart + len(c.prefix)
		if end <= limit && t.text[valueStart:end] == c.prefix {
			op = c.op
			valueStart = end
			break
		}
	}
	raw := t.text[valueStart:]
	if raw == "" && t.quoteAt < 0 {
		return p.fail(t, "missing value for column %q", column)
	}

	var value interface{} = raw
	if t.quoteAt < 0 && looksNumeric(raw) {
		if i, err := strconv.ParseInt(raw, 10, 64); err == nil {
			value = i
		} else if f, err := strconv.ParseFloat(raw, 64); err == nil {
			value = f
		}
	}

	p.emitColumn(column)
	p.emit(Code{Kind: CodeConstant, Value: value})
	p.emit(Code{Kind: CodeOperation, Op: op, Arity: 2})
	return nil
}

func (p *parser) emitColumn(column string) {
	p.emit(Code{Kind: CodeObject, Variable: p.current})
	p.emit(Code{Kind: CodeConstant, Value: column})
	p.emit(Code{Kind: CodeOperation, Op: OpGetValue, Arity: 2})
}

// looksNumeric keeps words like "nan" and "inf" as text.
func looksNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	return s != "" && (s[0] >= '0' && s[0] <= '9' || s[0] == '.' && len(s) > 1)
}
