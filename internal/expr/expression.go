// Package expr builds, compiles and evaluates postfix expressions over
// tables and index columns.
package expr

import (
	"strconv"
	"strings"
	"sync"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/internal/metrics"
	"github.com/gcbaptista/colsearch/internal/snippet"
	"github.com/gcbaptista/colsearch/store"
)

// CodeKind distinguishes the three node types of a program.
type CodeKind int

const (
	CodeConstant CodeKind = iota
	CodeObject
	CodeOperation
)

// Code is one node of the postfix sequence. Modify is the distance from the
// first code of an operation's first operand to the operation itself; it is
// 0 for every other code.
type Code struct {
	Kind     CodeKind
	Value    interface{}
	Variable *Variable
	Op       Operator
	Arity    int
	Modify   int
}

// Program is a compiled, immutable copy of an expression's codes.
type Program struct {
	codes []Code
}

// Len returns the number of codes.
func (p *Program) Len() int { return len(p.codes) }

// Option configures a new Expression.
type Option func(*Expression)

// WithName names the expression; unnamed expressions render as "noname".
func WithName(name string) Option {
	return func(e *Expression) { e.name = name }
}

// WithMetrics counts executions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(e *Expression) { e.metrics = m }
}

// Expression owns its variables and its code sequence.
//
// Appending after Compile does not fail: it marks the compiled program
// stale and the next Execute compiles again.
type Expression struct {
	mu        sync.RWMutex
	name      string
	variables []*Variable
	byName    map[string]*Variable
	codes     []Code
	// starts holds, for each operand currently on the simulated stack, the
	// index of the code its subtree begins with.
	starts  []int
	program *Program
	metrics *metrics.Metrics
}

// New creates an empty expression.
func New(opts ...Option) *Expression {
	e := &Expression{byName: make(map[string]*Variable)}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Name returns the expression name, or "" when unnamed.
func (e *Expression) Name() string { return e.name }

// DefineVariable adds a variable. Names must be unique within the expression.
func (e *Expression) DefineVariable(opts VariableOptions) (*Variable, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.defineVariableLocked(opts)
}

func (e *Expression) defineVariableLocked(opts VariableOptions) (*Variable, error) {
	if opts.Name != "" {
		if _, exists := e.byName[opts.Name]; exists {
			return nil, internalErrors.NewDuplicateNameError(opts.Name)
		}
	}
	v := &Variable{
		owner:     e,
		index:     len(e.variables),
		name:      opts.Name,
		reference: opts.Reference,
		domain:    opts.Domain,
	}
	if opts.Reference {
		v.cell = NewCell(nil)
	}
	e.variables = append(e.variables, v)
	if opts.Name != "" {
		e.byName[opts.Name] = v
	}
	return v, nil
}

// Variable looks up a variable by name.
func (e *Expression) Variable(name string) (*Variable, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	v, ok := e.byName[name]
	return v, ok
}

// VariableAt looks up a variable by definition index.
func (e *Expression) VariableAt(i int) (*Variable, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if i < 0 || i >= len(e.variables) {
		return nil, false
	}
	return e.variables[i], true
}

// Variables returns all variables in definition order.
func (e *Expression) Variables() []*Variable {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]*Variable(nil), e.variables...)
}

// AppendConstant appends a literal. A *store.Table constant stands for the
// whole table.
func (e *Expression) AppendConstant(value interface{}) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendLocked(Code{Kind: CodeConstant, Value: value})
}

// AppendObject appends a reference to one of this expression's variables.
func (e *Expression) AppendObject(v *Variable) error {
	if v == nil || v.owner != e {
		name := ""
		if v != nil {
			name = v.label()
		}
		return internalErrors.NewInvalidOwnerError(name)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendLocked(Code{Kind: CodeObject, Variable: v})
	return nil
}

// AppendOperation appends an operation taking arity operands. op may be an
// Operator, its raw code, or any spelling Resolve accepts.
func (e *Expression) AppendOperation(op interface{}, arity int) error {
	resolved, err := Resolve(op)
	if err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.appendLocked(Code{Kind: CodeOperation, Op: resolved, Arity: arity})
	return nil
}

func (e *Expression) appendLocked(code Code) {
	index := len(e.codes)
	e.codes = append(e.codes, code)
	e.program = nil

	if code.Kind != CodeOperation {
		e.starts = append(e.starts, index)
		return
	}

	n := code.Arity
	if n > len(e.starts) {
		// underflow is reported by Compile; keep the bookkeeping going
		n = len(e.starts)
	}
	start := index
	if n > 0 {
		start = e.starts[len(e.starts)-n]
		if code.Arity >= 2 {
			e.codes[start].Modify = index - start
		}
		e.starts = e.starts[:len(e.starts)-n]
	}
	e.starts = append(e.starts, start)
}

// Codes returns a copy of the code sequence.
func (e *Expression) Codes() []Code {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return append([]Code(nil), e.codes...)
}

// Compile checks that every operation has enough operands and freezes the
// codes into a Program. It does not require the program to leave exactly
// one value; Execute checks that.
func (e *Expression) Compile() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, err := e.compileLocked()
	return err
}

func (e *Expression) compileLocked() (*Program, error) {
	if e.program != nil {
		return e.program, nil
	}
	if len(e.codes) == 0 {
		return nil, internalErrors.NewMalformedProgramError(-1, "empty program")
	}
	depth := 0
	for i, code := range e.codes {
		if code.Kind != CodeOperation {
			depth++
			continue
		}
		if !code.Op.acceptsArity(code.Arity) {
			return nil, internalErrors.NewMalformedProgramError(i, code.Op.String()+" does not accept "+strconv.Itoa(code.Arity)+" operands")
		}
		if depth < code.Arity {
			return nil, internalErrors.NewMalformedProgramError(i, "stack underflow: "+code.Op.String()+" needs "+strconv.Itoa(code.Arity)+" operands, "+strconv.Itoa(depth)+" available")
		}
		depth -= code.Arity - 1
	}
	e.program = &Program{codes: append([]Code(nil), e.codes...)}
	return e.program, nil
}

// IsCompiled reports whether the current codes have a compiled program.
func (e *Expression) IsCompiled() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.program != nil
}

// Keywords returns the words of match predicates in order of first
// appearance. They are the words a snippet highlights.
func (e *Expression) Keywords() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	seen := make(map[string]struct{})
	words := make([]string, 0)
	add := func(word string) {
		if _, ok := seen[word]; ok || word == "" {
			return
		}
		seen[word] = struct{}{}
		words = append(words, word)
	}
	for i, code := range e.codes {
		if code.Kind != CodeOperation || code.Arity != 2 || i == 0 {
			continue
		}
		operand := e.codes[i-1]
		text, ok := operand.Value.(string)
		if operand.Kind != CodeConstant || !ok {
			continue
		}
		switch code.Op {
		case OpMatch, OpPrefix, OpSuffix:
			add(text)
		case OpNear, OpSimilar:
			for _, word := range strings.Fields(text) {
				add(word)
			}
		}
	}
	return words
}

// Snippet creates an extractor for this expression's keywords. Tags are
// assigned to keywords in order, cycling when there are fewer tags. The
// caller must Close the snippet.
func (e *Expression) Snippet(tags []snippet.Tag, opts snippet.Options) (*snippet.Snippet, error) {
	return snippet.NewWithKeywords(opts, tags, e.Keywords())
}

// tableRef stands for every record of a table.
type tableRef struct {
	table *store.Table
}

// columnRef stands for one column over every record of a table, or over
// the records of within when set.
type columnRef struct {
	table  *store.Table
	column string
	within *store.RecordSet
}
