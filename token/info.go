package token

import (
	"strings"

	"fortio.org/sets"
)

// Info enables introspection of known keywords, builtins and declaration types.
type HmInfo struct {
	Keywords sets.Set[string]
	Builtins sets.Set[string]
	// Dotted builtins like math.sqrt.
	Namespaced sets.Set[string]
	Types      sets.Set[string]
}

var info = HmInfo{
	Keywords:   sets.New("while", "for", "in", "return", "class", "fn", "true", "false", "and", "or"),
	Builtins:   sets.New("print", "input", "int", "float", "bool", "round", "ceil"),
	Namespaced: sets.New("math.sqrt", "random.rng"),
	Types:      sets.New("int", "float", "str", "bool", "map"),
}

func Info() HmInfo {
	return info
}

// IsDeclType is true for the builtin declaration types, with or without a `[]` suffix.
func IsDeclType(t string) bool {
	return info.Types.Has(strings.TrimSuffix(t, "[]"))
}

// Completions returns all the names an interactive user may want to type, sorted.
func Completions() []string {
	all := sets.New[string]()
	all.Add(sets.Sort(info.Keywords)...)
	all.Add(sets.Sort(info.Builtins)...)
	all.Add(sets.Sort(info.Namespaced)...)
	all.Add(sets.Sort(info.Types)...)
	return sets.Sort(all)
}
