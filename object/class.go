package object

import (
	"maps"
	"sort"
	"strings"
)

// ClassDefinition is what a `class Name { ... }` block declares. It is not
// modified once registered.
type ClassDefinition struct {
	Name string
	// Field name to default value.
	Fields map[string]Value
	// Method name to parameter names.
	Methods map[string][]string
	// Method name to raw body lines. Recorded, never executed.
	Bodies map[string][]string
}

func NewClassDefinition(name string) *ClassDefinition {
	return &ClassDefinition{
		Name:    name,
		Fields:  make(map[string]Value),
		Methods: make(map[string][]string),
		Bodies:  make(map[string][]string),
	}
}

// NewInstance copies the field defaults into a fresh instance. No constructor runs.
func (c *ClassDefinition) NewInstance() Instance {
	return Instance{Class: c, Fields: maps.Clone(c.Fields)}
}

type Instance struct {
	Class  *ClassDefinition
	Fields map[string]Value
}

func (i Instance) Type() Type      { return INSTANCE }
func (i Instance) Inspect() string { return noneString }

func (i Instance) Get(field string) (Value, bool) {
	v, ok := i.Fields[field]
	return v, ok
}

// With returns a copy of the instance with field set. Other holders of the
// receiver don't observe the change.
func (i Instance) With(field string, v Value) Instance {
	fields := maps.Clone(i.Fields)
	if fields == nil {
		fields = make(map[string]Value, 1)
	}
	fields[field] = v
	return Instance{Class: i.Class, Fields: fields}
}

// Registry is the flat table of declared classes.
type Registry struct {
	classes map[string]*ClassDefinition
}

func NewRegistry() *Registry {
	return &Registry{classes: make(map[string]*ClassDefinition)}
}

// Register adds (or replaces, last declaration wins) a class definition.
func (r *Registry) Register(c *ClassDefinition) {
	r.classes[c.Name] = c
}

func (r *Registry) Get(name string) (*ClassDefinition, bool) {
	c, ok := r.classes[name]
	return c, ok
}

func (r *Registry) Len() int {
	return len(r.classes)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.classes))
	for n := range r.classes {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ZeroValue is the value bound by a declaration without initializer:
// 0 for int, an empty map for map, an empty list for `type[]`, none otherwise.
func ZeroValue(declType string) Value {
	switch {
	case strings.HasSuffix(declType, "[]"):
		return NewList()
	case declType == "int":
		return Integer{}
	case declType == "map":
		return NewMap()
	default:
		return NULL
	}
}
