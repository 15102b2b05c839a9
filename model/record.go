package model

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// RecordID identifies a record inside one table. IDs start at 1; 0 is never
// assigned and marks "no record".
type RecordID uint32

// TableKind selects how a table maps keys to record ids.
type TableKind int

const (
	// KindArray tables have no keys; ids are assigned sequentially.
	KindArray TableKind = iota
	// KindHash tables map unique string keys to ids.
	KindHash
	// KindPatriciaTrie tables map unique string keys to ids and keep keys
	// ordered, which enables prefix search.
	KindPatriciaTrie
)

var tableKindNames = map[TableKind]string{
	KindArray:        "array",
	KindHash:         "hash",
	KindPatriciaTrie: "patricia_trie",
}

func (k TableKind) String() string {
	if name, ok := tableKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("TableKind(%d)", int(k))
}

// ParseTableKind resolves a kind name such as "hash" or "PatriciaTrie".
func ParseTableKind(name string) (TableKind, error) {
	normalized := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(name), "_", ""))
	switch normalized {
	case "", "array":
		return KindArray, nil
	case "hash":
		return KindHash, nil
	case "patriciatrie", "pat":
		return KindPatriciaTrie, nil
	}
	return KindArray, fmt.Errorf("unknown table kind '%s'", name)
}

// ValueType is the element type stored in a data column.
type ValueType int

const (
	TypeShortText ValueType = iota
	TypeText
	TypeLongText
	TypeInt
	TypeFloat
	TypeBool
)

var valueTypeNames = map[ValueType]string{
	TypeShortText: "ShortText",
	TypeText:      "Text",
	TypeLongText:  "LongText",
	TypeInt:       "Int64",
	TypeFloat:     "Float",
	TypeBool:      "Bool",
}

func (t ValueType) String() string {
	if name, ok := valueTypeNames[t]; ok {
		return name
	}
	return fmt.Sprintf("ValueType(%d)", int(t))
}

// IsText reports whether values of this type are strings.
func (t ValueType) IsText() bool {
	return t == TypeShortText || t == TypeText || t == TypeLongText
}

// ParseValueType resolves a type name case-insensitively. All integer widths
// collapse to Int64.
func ParseValueType(name string) (ValueType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "shorttext":
		return TypeShortText, nil
	case "text":
		return TypeText, nil
	case "longtext":
		return TypeLongText, nil
	case "int", "int8", "int16", "int32", "int64", "uint8", "uint16", "uint32", "uint64":
		return TypeInt, nil
	case "float", "float32", "float64":
		return TypeFloat, nil
	case "bool":
		return TypeBool, nil
	}
	return TypeText, fmt.Errorf("unknown value type '%s'", name)
}

// Values is a column name to value map used when inserting records.
// Example: Values{"name": "mori daijiro", "tags": []string{"ruby"}}
type Values map[string]interface{}

// NormalizeValue converts v into the canonical in-memory representation for
// a column of type t: string, int64, float64, bool, or a slice of those for
// vector columns. nil clears a value.
func NormalizeValue(t ValueType, vector bool, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	if !vector {
		return normalizeScalar(t, v)
	}

	var items []interface{}
	switch vv := v.(type) {
	case []interface{}:
		items = vv
	case []string:
		items = make([]interface{}, len(vv))
		for i, s := range vv {
			items[i] = s
		}
	case []int64:
		items = make([]interface{}, len(vv))
		for i, n := range vv {
			items[i] = n
		}
	case []float64:
		items = make([]interface{}, len(vv))
		for i, f := range vv {
			items[i] = f
		}
	default:
		// a single element becomes a one element vector
		items = []interface{}{v}
	}

	switch {
	case t.IsText():
		out := make([]string, len(items))
		for i, item := range items {
			s, err := normalizeScalar(t, item)
			if err != nil {
				return nil, err
			}
			out[i] = s.(string)
		}
		return out, nil
	case t == TypeInt:
		out := make([]int64, len(items))
		for i, item := range items {
			n, err := normalizeScalar(t, item)
			if err != nil {
				return nil, err
			}
			out[i] = n.(int64)
		}
		return out, nil
	case t == TypeFloat:
		out := make([]float64, len(items))
		for i, item := range items {
			f, err := normalizeScalar(t, item)
			if err != nil {
				return nil, err
			}
			out[i] = f.(float64)
		}
		return out, nil
	default:
		out := make([]bool, len(items))
		for i, item := range items {
			b, err := normalizeScalar(t, item)
			if err != nil {
				return nil, err
			}
			out[i] = b.(bool)
		}
		return out, nil
	}
}

func normalizeScalar(t ValueType, v interface{}) (interface{}, error) {
	switch {
	case t.IsText():
		if s, ok := v.(string); ok {
			return s, nil
		}
	case t == TypeInt:
		if n, ok := ToInt64(v); ok {
			return n, nil
		}
	case t == TypeFloat:
		if f, ok := ToFloat64(v); ok {
			return f, nil
		}
	case t == TypeBool:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	}
	return nil, fmt.Errorf("cannot store %T in a %s column", v, t)
}

// ToInt64 converts integral numbers (including integral float64 values decoded
// from JSON) to int64.
func ToInt64(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	case uint:
		return int64(n), true
	case uint8:
		return int64(n), true
	case uint16:
		return int64(n), true
	case uint32:
		return int64(n), true
	case uint64:
		if n > math.MaxInt64 {
			return 0, false
		}
		return int64(n), true
	case RecordID:
		return int64(n), true
	case float64:
		if n == math.Trunc(n) {
			return int64(n), true
		}
	case float32:
		if float64(n) == math.Trunc(float64(n)) {
			return int64(n), true
		}
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
	}
	return 0, false
}

// ToFloat64 converts any numeric value to float64.
func ToFloat64(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	}
	if i, ok := ToInt64(v); ok {
		return float64(i), true
	}
	return 0, false
}
