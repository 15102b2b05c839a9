package expr

import (
	"fmt"
	"strings"

	internalErrors "github.com/gcbaptista/colsearch/internal/errors"
	"github.com/gcbaptista/colsearch/model"
)

// Operator is the closed set of operations an expression can apply. The
// integer value is the operator's raw code.
type Operator int

const (
	OpInvalid Operator = iota
	OpGetValue
	OpAnd
	OpOr
	OpAndNot
	OpAdjust
	OpNot
	OpEqual
	OpNotEqual
	OpLess
	OpGreater
	OpLessEqual
	OpGreaterEqual
	OpMatch
	OpNear
	OpSimilar
	OpPrefix
	OpSuffix
	OpPlus
	OpMinus
	OpStar
	OpSlash
	OpMod
	opCount
)

// operatorInfo describes an operator's canonical name and accepted arity.
// maxArity 0 means unbounded.
type operatorInfo struct {
	name     string
	minArity int
	maxArity int
}

var operators = [opCount]operatorInfo{
	OpInvalid:      {"INVALID", 0, 0},
	OpGetValue:     {"GET_VALUE", 2, 2},
	OpAnd:          {"AND", 2, 0},
	OpOr:           {"OR", 2, 0},
	OpAndNot:       {"AND_NOT", 2, 0},
	OpAdjust:       {"ADJUST", 2, 0},
	OpNot:          {"NOT", 1, 1},
	OpEqual:        {"EQUAL", 2, 2},
	OpNotEqual:     {"NOT_EQUAL", 2, 2},
	OpLess:         {"LESS", 2, 2},
	OpGreater:      {"GREATER", 2, 2},
	OpLessEqual:    {"LESS_EQUAL", 2, 2},
	OpGreaterEqual: {"GREATER_EQUAL", 2, 2},
	OpMatch:        {"MATCH", 2, 2},
	OpNear:         {"NEAR", 2, 2},
	OpSimilar:      {"SIMILAR", 2, 2},
	OpPrefix:       {"PREFIX", 2, 2},
	OpSuffix:       {"SUFFIX", 2, 2},
	OpPlus:         {"PLUS", 2, 0},
	OpMinus:        {"MINUS", 1, 0},
	OpStar:         {"STAR", 2, 0},
	OpSlash:        {"SLASH", 2, 0},
	OpMod:          {"MOD", 2, 0},
}

var operatorsByName = func() map[string]Operator {
	byName := make(map[string]Operator, opCount)
	for op := OpGetValue; op < opCount; op++ {
		byName[strings.ToLower(operators[op].name)] = op
	}
	return byName
}()

// operatorSymbols are the connective spellings accepted wherever an
// operator is expected.
var operatorSymbols = map[string]Operator{
	"||":  OpOr,
	"&&":  OpAnd,
	"+":   OpAnd,
	"-":   OpAndNot,
	"but": OpAndNot,
	">":   OpAdjust,
}

// modeSymbols are the comparison spellings accepted wherever a match mode
// is expected. They take precedence over operatorSymbols.
var modeSymbols = map[string]Operator{
	"@":  OpMatch,
	"=":  OpEqual,
	"==": OpEqual,
	"!=": OpNotEqual,
	"!":  OpNotEqual,
	"<":  OpLess,
	">":  OpGreater,
	"<=": OpLessEqual,
	">=": OpGreaterEqual,
	"^":  OpPrefix,
	"$":  OpSuffix,
	"*n": OpNear,
	"*s": OpSimilar,
}

func (op Operator) valid() bool {
	return op > OpInvalid && op < opCount
}

// String returns the canonical upper case name, e.g. "GET_VALUE".
func (op Operator) String() string {
	if op >= OpInvalid && op < opCount {
		return operators[op].name
	}
	return fmt.Sprintf("Operator(%d)", int(op))
}

// IsMode reports whether op can serve as a predicate match mode.
func (op Operator) IsMode() bool {
	switch op {
	case OpEqual, OpNotEqual, OpLess, OpGreater, OpLessEqual, OpGreaterEqual,
		OpMatch, OpNear, OpSimilar, OpPrefix, OpSuffix:
		return true
	}
	return false
}

// IsConnective reports whether op combines predicates.
func (op Operator) IsConnective() bool {
	switch op {
	case OpAnd, OpOr, OpAndNot, OpAdjust:
		return true
	}
	return false
}

func (op Operator) acceptsArity(n int) bool {
	info := operators[op]
	if n < info.minArity {
		return false
	}
	return info.maxArity == 0 || n <= info.maxArity
}

// Resolve normalizes every accepted spelling of an operator: an Operator
// value, its raw integer code, its name in any case ("plus", "Get_Value",
// "and-not"), or a connective symbol ("||", "&&", "+", "-", ">").
func Resolve(input interface{}) (Operator, error) {
	if op, ok := lookupOperator(input, operatorSymbols); ok {
		return op, nil
	}
	return OpInvalid, internalErrors.NewUnknownOperatorError(input)
}

// ResolveConnective resolves a default operator for Parse. nil means AND
// and the unary NOT is read as AND_NOT.
func ResolveConnective(input interface{}) (Operator, error) {
	if input == nil {
		return OpAnd, nil
	}
	op, err := Resolve(input)
	if err != nil {
		return OpInvalid, err
	}
	if op == OpNot {
		op = OpAndNot
	}
	if !op.IsConnective() {
		return OpInvalid, internalErrors.NewUnknownOperatorError(input)
	}
	return op, nil
}

// ResolveMode resolves a default match mode for Parse. nil means MATCH;
// otherwise the same spellings as Resolve are accepted, plus comparison
// symbols ("@", "==", "!=", "<", "^", "$", ...). Inputs that do not name a
// comparison fail with UnknownModeError.
func ResolveMode(input interface{}) (Operator, error) {
	if input == nil {
		return OpMatch, nil
	}
	op, ok := lookupOperator(input, modeSymbols)
	if !ok || !op.IsMode() {
		return OpInvalid, internalErrors.NewUnknownModeError(input)
	}
	return op, nil
}

func lookupOperator(input interface{}, symbols map[string]Operator) (Operator, bool) {
	switch v := input.(type) {
	case Operator:
		return v, v.valid()
	case string:
		normalized := strings.ToLower(strings.TrimSpace(v))
		if op, ok := symbols[normalized]; ok {
			return op, true
		}
		op, ok := operatorsByName[strings.ReplaceAll(normalized, "-", "_")]
		return op, ok
	case fmt.Stringer:
		return lookupOperator(v.String(), symbols)
	}
	if code, ok := model.ToInt64(input); ok {
		op := Operator(code)
		return op, op.valid()
	}
	return OpInvalid, false
}
