package eval

import (
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"fortio.org/log"
	"fortio.org/safecast"
	"hmlang.io/hm/object"
	"hmlang.io/hm/token"
)

// Builtin is a function callable as name(args...). Calls with fewer than MinArgs
// arguments behave as if the builtin didn't exist.
type Builtin struct {
	Name     string
	MinArgs  int
	Help     string
	Callback func(s *State, args []object.Value) object.Value
}

var builtins = make(map[string]Builtin)

func init() {
	for _, b := range []Builtin{
		{Name: "print", Help: "writes its arguments, without separator nor newline", Callback: printFunc},
		{Name: "input", Help: "reads one line from standard input", Callback: inputFunc},
		{Name: "int", Help: "converts to an integer", Callback: intFunc},
		{Name: "float", Help: "converts to a float", Callback: floatFunc},
		{Name: "bool", Help: "truthiness of its argument", Callback: boolFunc},
		{Name: "round", MinArgs: 2, Help: "round(value, digits)", Callback: roundFunc},
		{Name: "ceil", MinArgs: 1, Help: "smallest integral float not less than its argument", Callback: ceilFunc},
	} {
		if !token.Info().Builtins.Has(b.Name) {
			panic("builtin not declared in token info: " + b.Name)
		}
		builtins[b.Name] = b
	}
}

// Builtins returns the sorted names of the builtin functions.
func Builtins() []string {
	names := make([]string, 0, len(builtins))
	for n := range builtins {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Help returns the help text of a builtin.
func Help(name string) (string, bool) {
	b, ok := builtins[name]
	return b.Help, ok
}

// evalCall handles name(args): builtins, then class instantiation; anything else
// is none. Dotted names (x.append(1), math.sqrt(2)) are member accesses.
func (s *State) evalCall(expr string) object.Value {
	paren := strings.IndexByte(expr, '(')
	name := token.Trim(expr[:paren])
	if strings.Contains(name, ".") {
		return s.evalMember(expr)
	}
	args := s.evalList(callArgs(expr))
	if b, ok := builtins[name]; ok && len(args) >= b.MinArgs {
		return b.Callback(s, args)
	}
	if c, ok := s.classes.Get(name); ok {
		log.LogVf("New instance of %s", name)
		return c.NewInstance()
	}
	log.Debugf("Unknown function %q", name)
	return object.NULL
}

func printFunc(s *State, args []object.Value) object.Value {
	for _, a := range args {
		_, err := fmt.Fprint(s.Out, a.Inspect())
		if err != nil {
			log.Errf("Error writing output: %v", err)
		}
	}
	return object.NULL
}

func inputFunc(s *State, _ []object.Value) object.Value {
	return object.String{Value: s.readLine()}
}

func intFunc(s *State, args []object.Value) object.Value {
	if len(args) == 0 {
		return object.Integer{}
	}
	switch a := args[0].(type) {
	case object.Integer:
		return a
	case object.String:
		num := leadingNumber(intPrefix, a.Value)
		if num == "" {
			s.fatalf("int(%q): no leading integer", a.Value)
		}
		i, err := strconv.ParseInt(num, 10, 32)
		if err != nil {
			s.fatalf("int(%q): %v", a.Value, err)
		}
		return object.Integer{Value: int32(i)}
	case object.Float:
		i, err := safecast.Truncate[int32](a.Value)
		if err != nil {
			s.fatalf("int(%s): %v", a.Inspect(), err)
		}
		return object.Integer{Value: i}
	case object.Boolean:
		if a.Value {
			return object.Integer{Value: 1}
		}
	}
	return object.Integer{}
}

func floatFunc(s *State, args []object.Value) object.Value {
	if len(args) == 0 {
		return object.Float{}
	}
	switch a := args[0].(type) {
	case object.Integer:
		return object.Float{Value: float64(a.Value)}
	case object.Float:
		return a
	case object.String:
		num := leadingNumber(floatPrefix, a.Value)
		if num == "" {
			s.fatalf("float(%q): no leading number", a.Value)
		}
		f, err := strconv.ParseFloat(num, 64)
		if err != nil {
			s.fatalf("float(%q): %v", a.Value, err)
		}
		return object.Float{Value: f}
	}
	return object.Float{}
}

var (
	intPrefix   = regexp.MustCompile(`^[+-]?[0-9]+`)
	floatPrefix = regexp.MustCompile(`^[+-]?(?:(?i:infinity|inf|nan)|(?:[0-9]+\.?[0-9]*|\.[0-9]+)(?:[eE][+-]?[0-9]+)?)`)
)

// leadingNumber returns the number starting str (after spaces), whatever follows
// it: "12abc" gives "12", "3.5" gives "3" for integers. Empty when there is none.
func leadingNumber(re *regexp.Regexp, str string) string {
	return re.FindString(strings.TrimLeft(str, " \t\n\r\v\f"))
}

func boolFunc(_ *State, args []object.Value) object.Value {
	if len(args) == 0 {
		return object.FALSE
	}
	return object.NativeBoolToBooleanObject(object.ToBool(args[0]))
}

func roundFunc(_ *State, args []object.Value) object.Value {
	val, _ := toFloat(args[0])
	var digits float64
	if d, ok := args[1].(object.Integer); ok {
		digits = float64(d.Value)
	}
	multiplier := math.Pow(10, digits)
	return object.Float{Value: math.Round(val*multiplier) / multiplier}
}

func ceilFunc(_ *State, args []object.Value) object.Value {
	val, _ := toFloat(args[0])
	return object.Float{Value: math.Ceil(val)}
}
