package object

import (
	"sort"
)

// Environment is the single flat name to value store of a run. There is no
// nesting: loop constructs that shadow a name save and restore it themselves.
type Environment struct {
	store  map[string]Value
	numSet int64
}

func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Value)}
}

// Len is the number of bound names.
func (e *Environment) Len() int {
	return len(e.store)
}

func (e *Environment) Get(name string) (Value, bool) {
	v, ok := e.store[name]
	return v, ok
}

func (e *Environment) Set(name string, val Value) Value {
	e.numSet++
	e.store[name] = val
	return val
}

// NumSet is the cumulative number of Set calls. The repl compares it before and
// after an entry to tell whether anything was assigned.
func (e *Environment) NumSet() int64 {
	return e.numSet
}

// Names returns the bound names, sorted.
func (e *Environment) Names() []string {
	keys := make([]string, 0, len(e.store))
	for k := range e.store {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Binding is a saved (possibly absent) value of a name.
type Binding struct {
	Name  string
	Value Value
	Bound bool
}

// Save captures the current binding of name so it can be put back with Restore.
func (e *Environment) Save(name string) Binding {
	v, ok := e.store[name]
	return Binding{Name: name, Value: v, Bound: ok}
}

// Restore puts back a saved binding, unbinding the name if it wasn't bound when saved.
func (e *Environment) Restore(b Binding) {
	if b.Bound {
		e.store[b.Name] = b.Value
		return
	}
	delete(e.store, b.Name)
}
