package eval

import (
	"fortio.org/log"
	"hmlang.io/hm/object"
)

// toFloat widens numbers, ok is false for anything else.
func toFloat(v object.Value) (float64, bool) {
	switch v := v.(type) {
	case object.Integer:
		return float64(v.Value), true
	case object.Float:
		return v.Value, true
	default:
		return 0, false
	}
}

// compare returns false for any operand combination it doesn't support: strings
// only support ==.
func compare(left object.Value, op string, right object.Value) object.Boolean {
	if l, ok := left.(object.Integer); ok {
		if r, ok := right.(object.Integer); ok {
			return object.NativeBoolToBooleanObject(compareOrdered(l.Value, op, r.Value))
		}
	}
	if l, ok := toFloat(left); ok {
		if r, ok := toFloat(right); ok {
			return object.NativeBoolToBooleanObject(compareOrdered(l, op, r))
		}
	}
	if l, ok := left.(object.String); ok && op == "==" {
		if r, ok := right.(object.String); ok {
			return object.NativeBoolToBooleanObject(l.Value == r.Value)
		}
	}
	log.Debugf("Unsupported comparison %s %s %s", left.Type(), op, right.Type())
	return object.FALSE
}

func compareOrdered[T int32 | float64](l T, op string, r T) bool {
	switch op {
	case "==":
		return l == r
	case "!=":
		return l != r
	case "<":
		return l < r
	case ">":
		return l > r
	case "<=":
		return l <= r
	case ">=":
		return l >= r
	}
	return false
}

// arithmetic keeps integers as (wrapping) 32 bit integers, with truncated division,
// and widens to float as soon as one operand is a float. Anything else is none.
func (s *State) arithmetic(left object.Value, op byte, right object.Value) object.Value {
	if l, ok := left.(object.Integer); ok {
		if r, ok := right.(object.Integer); ok {
			if op == '/' && r.Value == 0 {
				s.fatalf("integer divide by zero: %d / 0", l.Value)
			}
			return object.Integer{Value: applyOp(l.Value, op, r.Value)}
		}
	}
	if l, ok := toFloat(left); ok {
		if r, ok := toFloat(right); ok {
			return object.Float{Value: applyOp(l, op, r)}
		}
	}
	log.Debugf("Unsupported arithmetic %s %c %s", left.Type(), op, right.Type())
	return object.NULL
}

func applyOp[T int32 | float64](l T, op byte, r T) T {
	switch op {
	case '+':
		return l + r
	case '-':
		return l - r
	case '*':
		return l * r
	case '/':
		return l / r
	}
	return 0
}
