package expr

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gcbaptista/colsearch/store"
)

// Inspect renders the expression as
//
//	#<Expression name(var,...){code,...}>
//
// Each code is its Modify distance followed by its value: integers as is,
// strings quoted, variables by label and operations by name. The output
// depends only on the variables and the code sequence.
func (e *Expression) Inspect() string {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var b strings.Builder
	b.WriteString("#<Expression ")
	if e.name == "" {
		b.WriteString("noname")
	} else {
		b.WriteString(e.name)
	}
	b.WriteByte('(')
	for i, v := range e.variables {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(v.label())
	}
	b.WriteString("){")
	for i, code := range e.codes {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Itoa(code.Modify))
		b.WriteString(describeCode(code))
	}
	b.WriteString("}>")
	return b.String()
}

func (e *Expression) String() string { return e.Inspect() }

func describeCode(code Code) string {
	switch code.Kind {
	case CodeObject:
		return code.Variable.label()
	case CodeOperation:
		return code.Op.String()
	}
	return describeValue(code.Value)
}

func describeValue(v interface{}) string {
	switch x := v.(type) {
	case nil:
		return "nil"
	case string:
		return strconv.Quote(x)
	case *store.Table:
		return "#<table:" + x.Name() + ">"
	case fmt.Stringer:
		return x.String()
	}
	return fmt.Sprint(v)
}
