package object

// Unwrap converts a value to plain go types (for serialization): int, float64,
// string, bool, map[string]any, []any and nil for none.
// Instances become a map with the class name under "class" and the fields under "fields".
func Unwrap(v Value) any {
	switch v := v.(type) {
	case Integer:
		return int(v.Value)
	case Float:
		return v.Value
	case String:
		return v.Value
	case Boolean:
		return v.Value
	case List:
		res := make([]any, len(v.Elements))
		for i, e := range v.Elements {
			res[i] = Unwrap(e)
		}
		return res
	case Map:
		return unwrapMap(v)
	case Instance:
		name := ""
		if v.Class != nil {
			name = v.Class.Name
		}
		return map[string]any{
			"class":  name,
			"fields": unwrapMap(v.Fields),
		}
	default:
		return nil
	}
}

func unwrapMap(m map[string]Value) map[string]any {
	res := make(map[string]any, len(m))
	for k, e := range m {
		res[k] = Unwrap(e)
	}
	return res
}

// Globals returns the unwrapped content of the environment.
func (e *Environment) Globals() map[string]any {
	return unwrapMap(e.store)
}
