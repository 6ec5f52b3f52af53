package eval

import (
	"regexp"
	"strings"

	"fortio.org/log"
	"hmlang.io/hm/object"
	"hmlang.io/hm/token"
)

var (
	declWithInit   = regexp.MustCompile(`^(\w+(?:\[\])?)\s+(\w+)\s*=\s*(.+)$`)
	declNoInit     = regexp.MustCompile(`^(\w+(?:\[\])?)\s+(\w+)$`)
	assignment     = regexp.MustCompile(`^(\w+)\s*=\s*(.+)$`)
	memberAssign   = regexp.MustCompile(`^(\w+)\.(\w+)\s*=\s*(.+)$`)
	incrementOp    = "++"
	multiplyAssign = "*="
)

// isType is true for builtin declaration types (optionally with []) and declared classes.
func (s *State) isType(t string) bool {
	if token.IsDeclType(t) {
		return true
	}
	_, ok := s.classes.Get(t)
	return ok
}

// ExecStatement performs the one action a cleaned (comment stripped and trimmed)
// line stands for. Unrecognized lines do nothing.
func (s *State) ExecStatement(stmt string) {
	if stmt == "" {
		return
	}
	if m := declWithInit.FindStringSubmatch(stmt); m != nil && s.isType(m[1]) {
		log.LogVf("declare %s %s = %s", m[1], m[2], m[3])
		s.env.Set(m[2], s.Eval(m[3]))
		return
	}
	if m := declNoInit.FindStringSubmatch(stmt); m != nil && s.isType(m[1]) {
		log.LogVf("declare %s %s", m[1], m[2])
		s.env.Set(m[2], object.ZeroValue(m[1]))
		return
	}
	if m := assignment.FindStringSubmatch(stmt); m != nil {
		log.LogVf("assign %s = %s", m[1], m[2])
		s.env.Set(m[1], s.Eval(m[2]))
		return
	}
	if m := memberAssign.FindStringSubmatch(stmt); m != nil {
		if inst, ok := s.instance(m[1]); ok {
			log.LogVf("set %s.%s = %s", m[1], m[2], m[3])
			s.env.Set(m[1], inst.With(m[2], s.Eval(m[3])))
		}
		return
	}
	if pos := strings.Index(stmt, incrementOp); pos >= 0 {
		name := token.Trim(stmt[:pos])
		if i, ok := s.integer(name); ok {
			s.env.Set(name, object.Integer{Value: i.Value + 1})
		}
		return
	}
	if pos := strings.Index(stmt, multiplyAssign); pos >= 0 {
		name := token.Trim(stmt[:pos])
		rhs := s.Eval(stmt[pos+len(multiplyAssign):])
		i, ok := s.integer(name)
		r, rok := rhs.(object.Integer)
		if ok && rok {
			s.env.Set(name, object.Integer{Value: i.Value * r.Value})
		}
		return
	}
	if strings.Contains(stmt, "(") {
		_ = s.evalCall(stmt)
		return
	}
	log.LogVf("Ignoring unrecognized statement %q", stmt)
}

func (s *State) integer(name string) (object.Integer, bool) {
	v, ok := s.env.Get(name)
	if !ok {
		return object.Integer{}, false
	}
	i, ok := v.(object.Integer)
	return i, ok
}

func (s *State) instance(name string) (object.Instance, bool) {
	v, ok := s.env.Get(name)
	if !ok {
		return object.Instance{}, false
	}
	inst, ok := v.(object.Instance)
	return inst, ok
}
