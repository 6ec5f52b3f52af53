package eval

import (
	"math"
	"strings"

	"fortio.org/log"
	"fortio.org/safecast"
	"github.com/rivo/uniseg"
	"hmlang.io/hm/object"
	"hmlang.io/hm/token"
)

// characters splits a string into user perceived characters (grapheme clusters).
func characters(str string) []string {
	res := make([]string, 0, len(str))
	g := uniseg.NewGraphemes(str)
	for g.Next() {
		res = append(res, g.Str())
	}
	return res
}

func (s *State) length(n int) object.Integer {
	l, err := safecast.Convert[int32](n)
	if err != nil {
		s.fatalf("length %d doesn't fit an int: %v", n, err)
	}
	return object.Integer{Value: l}
}

// iterate calls fn for each element of an iterable: 0..n-1 for an integer n,
// each character of a string, each element of a list. Other values are empty.
func iterate(v object.Value, fn func(object.Value)) {
	switch v := v.(type) {
	case object.Integer:
		for i := range v.Value {
			fn(object.Integer{Value: i})
		}
	case object.String:
		for _, c := range characters(v.Value) {
			fn(object.String{Value: c})
		}
	case object.List:
		for _, e := range v.Elements {
			fn(e)
		}
	default:
		log.Debugf("Not iterable: %s", v.Type())
	}
}

// loopVariable returns the name bound by `name` or `type name`.
func loopVariable(decl string) string {
	decl = token.Trim(decl)
	if sp := strings.IndexByte(decl, ' '); sp >= 0 {
		return token.Trim(decl[sp+1:])
	}
	return decl
}

// evalComprehension handles [output for var in iterable]. The loop variable is
// restored (or unbound) afterwards.
func (s *State) evalComprehension(expr string) object.Value {
	open := strings.IndexByte(expr, '[')
	end := strings.LastIndexByte(expr, ']')
	if end < open {
		end = len(expr)
	}
	body := expr[open+1 : end]
	forPos := strings.Index(body, " for ")
	if forPos < 0 {
		return object.NULL
	}
	afterFor := forPos + len(" for ")
	inPos := strings.Index(body[afterFor:], " in ")
	if inPos < 0 {
		return object.NULL
	}
	inPos += afterFor
	output := body[:forPos]
	name := loopVariable(body[afterFor:inPos])
	if !token.IsIdentifier(name) {
		log.Debugf("Invalid comprehension variable %q", name)
		return object.NULL
	}
	iterable := s.Eval(body[inPos+len(" in "):])
	saved := s.env.Save(name)
	defer s.env.Restore(saved)
	res := []object.Value{}
	iterate(iterable, func(item object.Value) {
		s.env.Set(name, item)
		res = append(res, s.Eval(output))
	})
	return object.NewList(res...)
}

// splitArgs splits on the commas that aren't inside quotes, parentheses or brackets.
func splitArgs(str string) []string {
	if token.Trim(str) == "" {
		return nil
	}
	var res []string
	depth := 0
	inQuote := false
	start := 0
	for i := 0; i < len(str); i++ {
		switch ch := str[i]; {
		case inQuote && ch == '\\':
			i++
		case ch == '"':
			inQuote = !inQuote
		case inQuote:
		case ch == '(' || ch == '[':
			depth++
		case ch == ')' || ch == ']':
			depth--
		case ch == ',' && depth == 0:
			res = append(res, str[start:i])
			start = i + 1
		}
	}
	return append(res, str[start:])
}

func (s *State) evalList(str string) []object.Value {
	parts := splitArgs(str)
	res := make([]object.Value, 0, len(parts))
	for _, p := range parts {
		res = append(res, s.Eval(p))
	}
	return res
}

// evalIndex handles list literals [a, b], indexing x[i] and slicing x[start:end], x[::-1].
func (s *State) evalIndex(expr string) object.Value {
	open := strings.IndexByte(expr, '[')
	end := strings.LastIndexByte(expr, ']')
	if end < open {
		return object.NULL
	}
	base := token.Trim(expr[:open])
	inner := expr[open+1 : end]
	if base == "" {
		return object.NewList(s.evalList(inner)...)
	}
	target, ok := s.env.Get(base)
	if !ok {
		if strings.Contains(base, "(") {
			return object.NULL // not evaluated, might have side effects.
		}
		target = s.Eval(base)
	}
	if strings.Contains(inner, ":") {
		return s.evalSlice(target, inner)
	}
	idx, ok := s.Eval(inner).(object.Integer)
	if !ok {
		return object.NULL
	}
	switch target := target.(type) {
	case object.List:
		if i, ok := position(int(idx.Value), target.Len()); ok {
			return target.Elements[i]
		}
	case object.String:
		chars := characters(target.Value)
		if i, ok := position(int(idx.Value), len(chars)); ok {
			return object.String{Value: chars[i]}
		}
	}
	return object.NULL
}

// position resolves negative indices from the end and checks the bounds.
func position(idx, n int) (int, bool) {
	if idx < 0 {
		idx += n
	}
	return idx, idx >= 0 && idx < n
}

func (s *State) evalSlice(target object.Value, inner string) object.Value {
	parts := strings.Split(inner, ":")
	for i, p := range parts {
		parts[i] = token.Trim(p)
	}
	reverse := len(parts) == 3 && parts[0] == "" && parts[1] == "" && parts[2] == "-1"
	switch target := target.(type) {
	case object.List:
		if reverse {
			return target.Reversed()
		}
		start, end := s.sliceBounds(parts, target.Len())
		return object.NewList(target.Elements[start:end:end]...)
	case object.String:
		chars := characters(target.Value)
		if reverse {
			out := strings.Builder{}
			for i := len(chars) - 1; i >= 0; i-- {
				out.WriteString(chars[i])
			}
			return object.String{Value: out.String()}
		}
		start, end := s.sliceBounds(parts, len(chars))
		return object.String{Value: strings.Join(chars[start:end], "")}
	}
	return object.NULL
}

// sliceBounds returns the half open [start, end) range: start defaults to 0 and end
// to n, negative values count from the end, both are clamped to [0, n] and start is
// never after end. A third part (step) other than the full reverse is ignored.
func (s *State) sliceBounds(parts []string, n int) (int, int) {
	start := s.sliceBound(parts[0], 0, n)
	end := s.sliceBound(parts[1], n, n)
	if start > end {
		start = end
	}
	return start, end
}

func (s *State) sliceBound(part string, def, n int) int {
	if part == "" {
		return def
	}
	v, ok := s.Eval(part).(object.Integer)
	if !ok {
		return def
	}
	b := int(v.Value)
	if b < 0 {
		b += n
	}
	return min(max(b, 0), n)
}

// evalMember handles obj.member for strings (lower), lists (len, sum, append),
// instances (fields) and the math.sqrt() and random.rng() builtins.
func (s *State) evalMember(expr string) object.Value {
	dot := strings.IndexByte(expr, '.')
	objName := token.Trim(expr[:dot])
	member := token.Trim(expr[dot+1:])
	if obj, ok := s.env.Get(objName); ok {
		switch obj := obj.(type) {
		case object.String:
			if strings.Contains(member, "lower") {
				return object.String{Value: strings.ToLower(obj.Value)}
			}
		case object.List:
			switch member {
			case "len", "len()":
				return s.length(obj.Len())
			case "sum", "sum()":
				return sum(obj)
			}
			if strings.Contains(member, "append(") {
				s.env.Set(objName, obj.Append(s.Eval(callArgs(member))))
				return object.NULL
			}
		case object.Instance:
			if v, ok := obj.Get(member); ok {
				return v
			}
		}
	}
	switch {
	case objName == "math" && strings.Contains(member, "sqrt("):
		arg, _ := toFloat(s.Eval(callArgs(member)))
		return object.Float{Value: math.Sqrt(arg)}
	case objName == "random" && strings.Contains(member, "rng("):
		return object.Integer{Value: int32(s.rng())} //nolint:gosec // 0 or 1.
	}
	log.Debugf("Unknown member %q of %q", member, objName)
	return object.NULL
}

// sum adds the integer elements, booleans count as 0 or 1, anything else as 0.
func sum(l object.List) object.Integer {
	var total int32
	for _, e := range l.Elements {
		switch e := e.(type) {
		case object.Integer:
			total += e.Value
		case object.Boolean:
			if e.Value {
				total++
			}
		}
	}
	return object.Integer{Value: total}
}

// callArgs returns what's between the first ( and the last ) (or the end).
func callArgs(call string) string {
	open := strings.IndexByte(call, '(')
	if open < 0 {
		return ""
	}
	end := strings.LastIndexByte(call, ')')
	if end < open {
		return call[open+1:]
	}
	return call[open+1 : end]
}
