package object

import (
	"math"
	"strconv"
	"strings"
)

type Type uint8

// Value is the runtime datum of the interpreter. Exactly one of the concrete
// types below implements it for any given value.
type Value interface {
	Type() Type
	Inspect() string
}

const (
	UNKNOWN Type = iota
	INTEGER
	FLOAT
	STRING
	BOOLEAN
	MAP
	LIST
	INSTANCE
	NONE
	LAST
)

//go:generate stringer -type=Type
var _ = LAST.String() // force compile error if go generate is missing.

var (
	NULL  = None{}
	TRUE  = Boolean{Value: true}
	FALSE = Boolean{Value: false}
)

// Display form used for anything that has no better rendering.
const noneString = "none"

func NativeBoolToBooleanObject(input bool) Boolean {
	if input {
		return TRUE
	}
	return FALSE
}

// ToBool is the truthiness of any value: nonzero numbers, non empty strings and
// true are truthy, everything else (including maps, lists and instances) is not.
func ToBool(v Value) bool {
	switch v := v.(type) {
	case Boolean:
		return v.Value
	case Integer:
		return v.Value != 0
	case Float:
		return v.Value != 0
	case String:
		return v.Value != ""
	default:
		return false
	}
}

type Integer struct {
	Value int32
}

func (i Integer) Type() Type { return INTEGER }

func (i Integer) Inspect() string {
	return strconv.FormatInt(int64(i.Value), 10)
}

type Float struct {
	Value float64
}

func (f Float) Type() Type { return FLOAT }

// Inspect uses a fixed 6 digits after the decimal point, e.g. 3.140000.
func (f Float) Inspect() string {
	switch {
	case math.IsNaN(f.Value):
		return "nan"
	case math.IsInf(f.Value, 1):
		return "inf"
	case math.IsInf(f.Value, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f.Value, 'f', 6, 64)
}

type String struct {
	Value string
}

func (s String) Type() Type      { return STRING }
func (s String) Inspect() string { return s.Value }

type Boolean struct {
	Value bool
}

func (b Boolean) Type() Type { return BOOLEAN }

func (b Boolean) Inspect() string {
	return strconv.FormatBool(b.Value)
}

type None struct{}

func (n None) Type() Type      { return NONE }
func (n None) Inspect() string { return noneString }

// Map has no literal syntax; it only comes from `map m` declarations.
type Map map[string]Value

func NewMap() Map {
	return make(Map)
}

func (m Map) Type() Type      { return MAP }
func (m Map) Inspect() string { return noneString }

type List struct {
	Elements []Value
}

func NewList(elements ...Value) List {
	return List{Elements: elements}
}

func (l List) Type() Type { return LIST }

func (l List) Inspect() string {
	out := strings.Builder{}
	out.WriteString("[")
	for i, e := range l.Elements {
		if i > 0 {
			out.WriteString(", ")
		}
		out.WriteString(e.Inspect())
	}
	out.WriteString("]")
	return out.String()
}

// Len returns the number of elements.
func (l List) Len() int {
	return len(l.Elements)
}

// Append returns a new list with v added at the end. The receiver's backing
// array is never written to so copies of a list stay independent.
func (l List) Append(v Value) List {
	res := make([]Value, len(l.Elements), len(l.Elements)+1)
	copy(res, l.Elements)
	return List{Elements: append(res, v)}
}

// Reversed returns a reversed copy.
func (l List) Reversed() List {
	n := len(l.Elements)
	res := make([]Value, n)
	for i, e := range l.Elements {
		res[n-1-i] = e
	}
	return List{Elements: res}
}
