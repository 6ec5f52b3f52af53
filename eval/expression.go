package eval

import (
	"regexp"
	"strconv"
	"strings"

	"fortio.org/log"
	"hmlang.io/hm/object"
	"hmlang.io/hm/token"
)

var (
	intLiteral   = regexp.MustCompile(`^-?[0-9]+$`)
	floatLiteral = regexp.MustCompile(`^-?[0-9]+\.[0-9]+$`)
)

// Eval evaluates an expression. There is no syntax tree: the text is classified
// by the first structural signal it carries, in this exact order, which is also
// the precedence of the language:
//
//	string literal, true/false, number, list comprehension, call, index/slice,
//	member access, ternary, or/and, comparison, arithmetic, identifier.
//
// Eval never fails: anything it can't make sense of is none (or false for
// comparisons). Only the conversions documented on FatalError abort.
func (s *State) Eval(expr string) object.Value {
	expr = token.Trim(expr)
	switch {
	case isStringLiteral(expr):
		return object.String{Value: s.parseStringLiteral(expr)}
	case expr == "true":
		return object.TRUE
	case expr == "false":
		return object.FALSE
	case intLiteral.MatchString(expr):
		return s.parseInteger(expr)
	case floatLiteral.MatchString(expr):
		return s.parseFloat(expr)
	case strings.Contains(expr, "[") && strings.Contains(expr, " for "):
		return s.evalComprehension(expr)
	case strings.Contains(expr, "(") && !strings.Contains(expr, "["):
		return s.evalCall(expr)
	case strings.Contains(expr, "[") && strings.Contains(expr, "]"):
		return s.evalIndex(expr)
	case strings.Contains(expr, "."):
		return s.evalMember(expr)
	case strings.Contains(expr, "?") && strings.Contains(expr, ":"):
		return s.evalTernary(expr)
	}
	if res, ok := s.evalLogical(expr); ok {
		return res
	}
	if res, ok := s.evalComparison(expr); ok {
		return res
	}
	if res, ok := s.evalArithmetic(expr); ok {
		return res
	}
	if v, ok := s.env.Get(expr); ok {
		return v
	}
	log.Debugf("Unresolved expression %q", expr)
	return object.NULL
}

func isStringLiteral(expr string) bool {
	return len(expr) >= 2 && expr[0] == '"' && expr[len(expr)-1] == '"'
}

func (s *State) parseInteger(expr string) object.Value {
	i, err := strconv.ParseInt(expr, 10, 32)
	if err != nil {
		s.fatalf("invalid integer %q: %v", expr, err)
	}
	return object.Integer{Value: int32(i)}
}

func (s *State) parseFloat(expr string) object.Value {
	f, err := strconv.ParseFloat(expr, 64)
	if err != nil {
		s.fatalf("invalid float %q: %v", expr, err)
	}
	return object.Float{Value: f}
}

// parseStringLiteral removes the quotes, processes the escapes and then interpolates.
func (s *State) parseStringLiteral(lit string) string {
	return s.interpolate(unescape(lit[1 : len(lit)-1]))
}

func unescape(str string) string {
	if !strings.Contains(str, `\`) {
		return str
	}
	out := strings.Builder{}
	for i := 0; i < len(str); i++ {
		ch := str[i]
		if ch != '\\' || i+1 >= len(str) {
			out.WriteByte(ch)
			continue
		}
		i++
		switch str[i] {
		case 'n':
			out.WriteByte('\n')
		case 't':
			out.WriteByte('\t')
		case '\\':
			out.WriteByte('\\')
		case '"':
			out.WriteByte('"')
		default: // unknown escape: the backslash stays, the escaped character is dropped.
			out.WriteByte('\\')
		}
	}
	return out.String()
}

// interpolate replaces each {expr} by the display form of its value, left to right.
// Substituted text is not rescanned. An opening brace without a closing one stops
// the processing and the rest is kept verbatim, as is an empty {}.
func (s *State) interpolate(str string) string {
	out := strings.Builder{}
	for {
		open := strings.IndexByte(str, '{')
		if open < 0 {
			break
		}
		end := strings.IndexByte(str[open+1:], '}')
		if end < 0 {
			log.Warnf("Unbalanced { in string %q, not interpolated", str[open:])
			break
		}
		end += open + 1
		out.WriteString(str[:open])
		inner := str[open+1 : end]
		if inner == "" {
			out.WriteString("{}")
		} else {
			out.WriteString(s.Eval(inner).Inspect())
		}
		str = str[end+1:]
	}
	out.WriteString(str)
	return out.String()
}

func (s *State) evalTernary(expr string) object.Value {
	q := strings.IndexByte(expr, '?')
	c := strings.IndexByte(expr[q+1:], ':')
	if c < 0 {
		return object.NULL
	}
	c += q + 1
	if object.ToBool(s.Eval(expr[:q])) {
		return s.Eval(expr[q+1 : c])
	}
	return s.Eval(expr[c+1:])
}

// evalLogical splits on the first " or ", else on the first " and ". Both sides
// are always evaluated.
func (s *State) evalLogical(expr string) (object.Value, bool) {
	if pos := strings.Index(expr, " or "); pos >= 0 {
		left := object.ToBool(s.Eval(expr[:pos]))
		right := object.ToBool(s.Eval(expr[pos+4:]))
		return object.NativeBoolToBooleanObject(left || right), true
	}
	if pos := strings.Index(expr, " and "); pos >= 0 {
		left := object.ToBool(s.Eval(expr[:pos]))
		right := object.ToBool(s.Eval(expr[pos+5:]))
		return object.NativeBoolToBooleanObject(left && right), true
	}
	return nil, false
}

// evalComparison splits on the first occurrence of the 2 character operators, in
// order, then on < or > when they aren't the start of <= or >=.
func (s *State) evalComparison(expr string) (object.Value, bool) {
	for _, op := range []string{"==", "!=", "<=", ">="} {
		if pos := strings.Index(expr, op); pos > 0 {
			return compare(s.Eval(expr[:pos]), op, s.Eval(expr[pos+len(op):])), true
		}
	}
	for _, op := range []string{"<", ">"} {
		pos := strings.Index(expr, op)
		if pos > 0 && (pos+1 >= len(expr) || expr[pos+1] != '=') {
			return compare(s.Eval(expr[:pos]), op, s.Eval(expr[pos+1:])), true
		}
	}
	return nil, false
}

// evalArithmetic splits on the rightmost occurrence of the first operator, in the
// order + - * /, that isn't at either end of the expression. So `2 + 3 * 4` is
// 2 + (3 * 4) and `10 - 2 - 3` is (10 - 2) - 3 but `8 * 6 / 4` is 8 * (6 / 4).
func (s *State) evalArithmetic(expr string) (object.Value, bool) {
	for _, op := range []byte{'+', '-', '*', '/'} {
		pos := strings.LastIndexByte(expr, op)
		if pos > 0 && pos < len(expr)-1 {
			return s.arithmetic(s.Eval(expr[:pos]), op, s.Eval(expr[pos+1:])), true
		}
	}
	return nil, false
}
