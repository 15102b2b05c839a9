package expr

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/model"
	"github.com/gcbaptista/colsearch/store"
)

// Execute runs the program against the current variable values and returns
// the single value it leaves: a scalar, a store.Record or a *store.RecordSet.
// A stale program is compiled first.
func (e *Expression) Execute() (interface{}, error) {
	return e.run(nil, false)
}

// Evaluate runs the program with current standing in for the value of the
// first variable. The stored value is not touched, so concurrent Evaluate
// calls with different records are safe.
func (e *Expression) Evaluate(current interface{}) (interface{}, error) {
	return e.run(current, true)
}

func (e *Expression) run(current interface{}, override bool) (result interface{}, err error) {
	e.mu.Lock()
	program, err := e.compileLocked()
	e.mu.Unlock()
	defer func() { e.metrics.ObserveExpression(err) }()
	if err != nil {
		return nil, err
	}

	m := &machine{current: current, override: override}
	for i, code := range program.codes {
		if err := m.step(code); err != nil {
			return nil, fmt.Errorf("code %d (%s): %w", i, describeCode(code), err)
		}
	}
	if len(m.stack) != 1 {
		return nil, internalErrors.NewMalformedProgramError(-1, fmt.Sprintf("program left %d values, want 1", len(m.stack)))
	}
	return finalValue(m.stack[0])
}

type machine struct {
	stack    []interface{}
	current  interface{}
	override bool
}

func (m *machine) push(v interface{}) { m.stack = append(m.stack, v) }

func (m *machine) pop(n int) []interface{} {
	operands := make([]interface{}, n)
	copy(operands, m.stack[len(m.stack)-n:])
	m.stack = m.stack[:len(m.stack)-n]
	return operands
}

func (m *machine) step(code Code) error {
	switch code.Kind {
	case CodeConstant:
		if table, ok := code.Value.(*store.Table); ok {
			m.push(tableRef{table: table})
			return nil
		}
		m.push(code.Value)
		return nil
	case CodeObject:
		v := code.Variable
		value := v.Value()
		if m.override && v.Index() == 0 {
			value = m.current
		}
		m.push(v.resolve(value))
		return nil
	}

	operands := m.pop(code.Arity)
	result, err := apply(code.Op, operands)
	if err != nil {
		return err
	}
	m.push(result)
	return nil
}

func apply(op Operator, operands []interface{}) (interface{}, error) {
	switch {
	case op == OpGetValue:
		return getValue(operands[0], operands[1])
	case op == OpNot:
		return not(operands[0])
	case op.IsConnective():
		return connect(op, operands)
	case op.IsMode():
		return compare(op, operands[0], operands[1])
	}
	return arithmetic(op, operands)
}

func finalValue(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case tableRef:
		return allRecords(x.table), nil
	case columnRef:
		return nil, internalErrors.NewTypeMismatchError("result", x.table.Name()+"."+x.column)
	}
	return v, nil
}

func getValue(target, column interface{}) (interface{}, error) {
	name, ok := column.(string)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(OpGetValue.String(), column)
	}
	switch t := target.(type) {
	case store.Record:
		if t.Table() == nil {
			return nil, internalErrors.NewTypeMismatchError(OpGetValue.String(), target)
		}
		if !t.Valid() {
			return nil, internalErrors.NewRecordNotFoundError(t.Table().Name(), uint32(t.ID()))
		}
		return t.Get(name)
	case tableRef:
		if !t.table.HasColumn(name) {
			return nil, internalErrors.NewNoSuchColumnError(t.table.Name(), name)
		}
		return columnRef{table: t.table, column: name}, nil
	case *store.RecordSet:
		if t.Table() == nil {
			return nil, internalErrors.NewTypeMismatchError(OpGetValue.String(), target)
		}
		if !t.Table().HasColumn(name) {
			return nil, internalErrors.NewNoSuchColumnError(t.Table().Name(), name)
		}
		return columnRef{table: t.Table(), column: name, within: t}, nil
	case nil:
		return nil, internalErrors.NewNoSuchColumnError("", name)
	}
	return nil, internalErrors.NewTypeMismatchError(OpGetValue.String(), target)
}

// Set operations

func allRecords(table *store.Table) *store.RecordSet {
	rs := store.NewRecordSet(table)
	for _, id := range table.IDs() {
		rs.Add(id, 0)
	}
	return rs
}

// asSet widens table references so they combine with record sets.
func asSet(v interface{}) (*store.RecordSet, bool) {
	switch x := v.(type) {
	case *store.RecordSet:
		return x, true
	case tableRef:
		return allRecords(x.table), true
	}
	return nil, false
}

var setOperators = map[Operator]store.SetOperator{
	OpAnd:    store.SetAnd,
	OpOr:     store.SetOr,
	OpAndNot: store.SetAndNot,
	OpAdjust: store.SetAdjust,
}

func connect(op Operator, operands []interface{}) (interface{}, error) {
	if left, ok := asSet(operands[0]); ok {
		for _, operand := range operands[1:] {
			right, ok := asSet(operand)
			if !ok {
				return nil, internalErrors.NewTypeMismatchError(op.String(), operand)
			}
			left = left.Merge(right, setOperators[op])
		}
		return left, nil
	}

	acc, err := truthy(op, operands[0])
	if err != nil {
		return nil, err
	}
	for _, operand := range operands[1:] {
		b, err := truthy(op, operand)
		if err != nil {
			return nil, err
		}
		switch op {
		case OpAnd:
			acc = acc && b
		case OpOr:
			acc = acc || b
		case OpAndNot:
			acc = acc && !b
		}
	}
	return acc, nil
}

func not(operand interface{}) (interface{}, error) {
	switch x := operand.(type) {
	case *store.RecordSet:
		complement := store.NewRecordSet(x.Table())
		if x.Table() == nil {
			return complement, nil
		}
		for _, id := range x.Table().IDs() {
			if !x.Contains(id) {
				complement.Add(id, 0)
			}
		}
		return complement, nil
	case tableRef:
		return store.NewRecordSet(x.table), nil
	}
	b, err := truthy(OpNot, operand)
	if err != nil {
		return nil, err
	}
	return !b, nil
}

func truthy(op Operator, v interface{}) (bool, error) {
	switch x := v.(type) {
	case nil:
		return false, nil
	case bool:
		return x, nil
	case string:
		return x != "", nil
	case store.Record:
		return x.Valid(), nil
	case *store.RecordSet, tableRef, columnRef:
		return false, internalErrors.NewTypeMismatchError(op.String(), v)
	}
	if f, ok := model.ToFloat64(v); ok {
		return f != 0, nil
	}
	return false, internalErrors.NewTypeMismatchError(op.String(), v)
}

// Comparisons

func compare(op Operator, left, right interface{}) (interface{}, error) {
	switch l := left.(type) {
	case columnRef:
		return compareColumn(op, l, right)
	case tableRef:
		return matchTable(op, l.table, right)
	case *store.RecordSet:
		return nil, internalErrors.NewTypeMismatchError(op.String(), left)
	}
	return compareScalar(op, left, right)
}

func matchKind(op Operator) (store.MatchKind, bool) {
	switch op {
	case OpMatch:
		return store.MatchPhrase, true
	case OpNear:
		return store.MatchAll, true
	case OpSimilar:
		return store.MatchAny, true
	}
	return 0, false
}

func compareColumn(op Operator, ref columnRef, right interface{}) (interface{}, error) {
	if kind, ok := matchKind(op); ok {
		query, ok := right.(string)
		if !ok {
			return nil, internalErrors.NewTypeMismatchError(op.String(), right)
		}
		if column, err := ref.table.Column(ref.column); err == nil {
			if searchers := column.Searchers(); len(searchers) > 0 {
				found, err := searchers[0].Match(query, kind)
				if err != nil {
					return nil, err
				}
				return restrict(found, ref.within), nil
			}
		}
	}

	if ref.column == store.ColumnKey && ref.within == nil {
		if key, ok := right.(string); ok {
			switch op {
			case OpEqual:
				found := store.NewRecordSet(ref.table)
				if record, ok := ref.table.RecordByKey(key); ok {
					found.Add(record.ID(), 1)
				}
				return found, nil
			case OpPrefix:
				found := store.NewRecordSet(ref.table)
				for _, record := range ref.table.PrefixSearch(key) {
					found.Add(record.ID(), 1)
				}
				return found, nil
			}
		}
	}

	return scan(op, ref, right), nil
}

// scan checks every candidate record. Values that cannot be compared with
// right simply do not match.
func scan(op Operator, ref columnRef, right interface{}) *store.RecordSet {
	found := store.NewRecordSet(ref.table)
	var ids []model.RecordID
	if ref.within != nil {
		ids = ref.within.IDs()
	} else {
		ids = ref.table.IDs()
	}
	for _, id := range ids {
		if !ref.table.Exists(id) {
			continue
		}
		value, err := store.NewRecord(ref.table, id).Get(ref.column)
		if err != nil || value == nil {
			continue
		}
		for _, element := range elements(value) {
			if ok, err := compareScalar(op, element, right); err == nil && ok.(bool) {
				found.Add(id, 1)
				break
			}
		}
	}
	return found
}

func restrict(found, within *store.RecordSet) *store.RecordSet {
	if within == nil {
		return found
	}
	result := store.NewRecordSet(found.Table())
	for _, id := range found.IDs() {
		if within.Contains(id) {
			result.Add(id, found.Score(id))
		}
	}
	return result
}

// matchTable answers a match against every index of table, or scans its
// text columns when no index is attached.
func matchTable(op Operator, table *store.Table, right interface{}) (interface{}, error) {
	kind, ok := matchKind(op)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(op.String(), tableRef{table: table})
	}
	query, ok := right.(string)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(op.String(), right)
	}

	result := store.NewRecordSet(table)
	seen := make(map[string]struct{})
	var textColumns []string
	for _, column := range table.Columns() {
		if column.ValueType().IsText() {
			textColumns = append(textColumns, column.Name())
		}
		for _, searcher := range column.Searchers() {
			if _, done := seen[searcher.Name()]; done {
				continue
			}
			seen[searcher.Name()] = struct{}{}
			found, err := searcher.Match(query, kind)
			if err != nil {
				return nil, err
			}
			result = result.Merge(found, store.SetOr)
		}
	}
	if len(seen) > 0 {
		return result, nil
	}
	for _, name := range textColumns {
		result = result.Merge(scan(op, columnRef{table: table, column: name}, query), store.SetOr)
	}
	return result, nil
}

func elements(v interface{}) []interface{} {
	switch x := v.(type) {
	case []string:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []int64:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []float64:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []bool:
		out := make([]interface{}, len(x))
		for i := range x {
			out[i] = x[i]
		}
		return out
	case []interface{}:
		return x
	}
	return []interface{}{v}
}

func compareScalar(op Operator, left, right interface{}) (interface{}, error) {
	switch op {
	case OpEqual:
		return equalValues(left, right), nil
	case OpNotEqual:
		return !equalValues(left, right), nil
	case OpLess, OpGreater, OpLessEqual, OpGreaterEqual:
		c, ok := orderValues(left, right)
		if !ok {
			return nil, internalErrors.NewTypeMismatchError(op.String(), right)
		}
		switch op {
		case OpLess:
			return c < 0, nil
		case OpGreater:
			return c > 0, nil
		case OpLessEqual:
			return c <= 0, nil
		}
		return c >= 0, nil
	}

	text, ok := left.(string)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(op.String(), left)
	}
	query, ok := right.(string)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(op.String(), right)
	}
	switch op {
	case OpMatch:
		return strings.Contains(text, query), nil
	case OpPrefix:
		return strings.HasPrefix(text, query), nil
	case OpSuffix:
		return strings.HasSuffix(text, query), nil
	case OpNear:
		for _, word := range strings.Fields(query) {
			if !strings.Contains(text, word) {
				return false, nil
			}
		}
		return true, nil
	case OpSimilar:
		for _, word := range strings.Fields(query) {
			if strings.Contains(text, word) {
				return true, nil
			}
		}
		return false, nil
	}
	return nil, internalErrors.NewUnknownModeError(op)
}

// number coerces numeric values and numeric strings.
func number(v interface{}) (float64, bool) {
	if s, ok := v.(string); ok {
		f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		return f, err == nil
	}
	if _, ok := v.(bool); ok {
		return 0, false
	}
	return model.ToFloat64(v)
}

func equalValues(left, right interface{}) bool {
	if left == nil || right == nil {
		return left == nil && right == nil
	}
	if l, ok := left.(store.Record); ok {
		if r, ok := right.(store.Record); ok {
			return l.Table() == r.Table() && l.ID() == r.ID()
		}
		left = int64(l.ID())
	}
	ls, lString := left.(string)
	rs, rString := right.(string)
	if lString && rString {
		return ls == rs
	}
	if lf, ok := number(left); ok {
		if rf, ok := number(right); ok {
			return lf == rf
		}
	}
	return fmt.Sprint(left) == fmt.Sprint(right)
}

func orderValues(left, right interface{}) (int, bool) {
	ls, lString := left.(string)
	rs, rString := right.(string)
	if lString && rString {
		if lf, ok := number(ls); ok {
			if rf, ok := number(rs); ok {
				return compareFloats(lf, rf), true
			}
		}
		return strings.Compare(ls, rs), true
	}
	lf, lok := number(left)
	rf, rok := number(right)
	if !lok || !rok {
		return 0, false
	}
	return compareFloats(lf, rf), true
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// Arithmetic

func arithmetic(op Operator, operands []interface{}) (interface{}, error) {
	if op == OpMinus && len(operands) == 1 {
		switch n := operands[0].(type) {
		case float64:
			return -n, nil
		case float32:
			return -float64(n), nil
		}
		if i, ok := model.ToInt64(operands[0]); ok {
			return -i, nil
		}
		return nil, internalErrors.NewTypeMismatchError(op.String(), operands[0])
	}

	acc := operands[0]
	for _, operand := range operands[1:] {
		next, err := arithmetic2(op, acc, operand)
		if err != nil {
			return nil, err
		}
		acc = next
	}
	return acc, nil
}

func isFloat(v interface{}) bool {
	switch v.(type) {
	case float64, float32:
		return true
	}
	return false
}

func arithmetic2(op Operator, left, right interface{}) (interface{}, error) {
	if op == OpPlus {
		if ls, ok := left.(string); ok {
			rs, ok := right.(string)
			if !ok {
				return nil, internalErrors.NewTypeMismatchError(op.String(), right)
			}
			return ls + rs, nil
		}
	}

	if !isFloat(left) && !isFloat(right) {
		l, lok := model.ToInt64(left)
		r, rok := model.ToInt64(right)
		if lok && rok {
			return intArithmetic(op, l, r)
		}
	}

	l, ok := model.ToFloat64(left)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(op.String(), left)
	}
	r, ok := model.ToFloat64(right)
	if !ok {
		return nil, internalErrors.NewTypeMismatchError(op.String(), right)
	}
	switch op {
	case OpPlus:
		return l + r, nil
	case OpMinus:
		return l - r, nil
	case OpStar:
		return l * r, nil
	case OpSlash:
		if r == 0 {
			return nil, fmt.Errorf("%s: %w", op, internalErrors.ErrDivisionByZero)
		}
		return l / r, nil
	case OpMod:
		if r == 0 {
			return nil, fmt.Errorf("%s: %w", op, internalErrors.ErrDivisionByZero)
		}
		return math.Mod(l, r), nil
	}
	return nil, internalErrors.NewUnknownOperatorError(op)
}

func intArithmetic(op Operator, l, r int64) (interface{}, error) {
	switch op {
	case OpPlus:
		return l + r, nil
	case OpMinus:
		return l - r, nil
	case OpStar:
		return l * r, nil
	case OpSlash:
		if r == 0 {
			return nil, fmt.Errorf("%s: %w", op, internalErrors.ErrDivisionByZero)
		}
		return l / r, nil
	case OpMod:
		if r == 0 {
			return nil, fmt.Errorf("%s: %w", op, internalErrors.ErrDivisionByZero)
		}
		return l % r, nil
	}
	return nil, internalErrors.NewUnknownOperatorError(op)
}
