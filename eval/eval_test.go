package eval_test

import (
	"errors"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"hmlang.io/hm/eval"
	"hmlang.io/hm/object"
)

func newState() (*eval.State, *strings.Builder) {
	s := eval.NewBlankState()
	out := &strings.Builder{}
	s.Out = out
	s.Rand = rand.New(rand.NewPCG(1, 2)) //nolint:gosec // tests.
	return s, out
}

func run(t *testing.T, s *eval.State, program string) {
	t.Helper()
	if err := s.Exec(strings.Split(program, "\n")); err != nil {
		t.Fatalf("Exec(%q) unexpected error: %v", program, err)
	}
}

const setup = `
int x = 5
int zero = 0
float f = 1.5
str s = "abc"
str t = "abc"
str u = "abd"
str mixed = "HeLLo"
nums = [10, 20, 30]
int[] empty
bools = [true, false, true, 4, "x"]
`

func testEval(t *testing.T, input string) object.Value {
	t.Helper()
	s, _ := newState()
	run(t, s, setup)
	return s.Eval(input)
}

func TestEvalIntegerExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected int32
	}{
		{"5", 5},
		{"-10", -10},
		{"  42  ", 42},
		{"1 + 2 + 3", 6},
		{"2 + 3 * 4", 14},
		{"2 * 3 + 4", 10},
		{"10 - 2 - 3", 5},
		{"10 - 2 + 3", 11},
		{"8 * 6 / 4", 8}, // 8 * (6 / 4): rightmost split on * before /.
		{"8 / 4 * 2", 4},
		{"7 / 2", 3},
		{"-7 / 2", -3},
		{"x * x - 1", 24},
		{"x + zero", 5},
		{"2147483647 + 1", -2147483648},
		{"x > 1 ? 10 : 20", 10},
		{"x > 10 ? 10 : 20", 20},
		{"nums[0] ", 10},
		{"nums[-1]", 30},
		{"nums.len", 3},
		{"nums.len()", 3},
		{"nums.sum()", 60},
		{"bools.sum", 6},
		{"empty.len", 0},
		{"int(\"42\")", 42},
		{"int(\" 7 \")", 7},
		{"int(f)", 1},
		{"int(true)", 1},
		{"int(false)", 0},
		{"int(x)", 5},
		{"int()", 0},
		{"int(nums)", 0},
	}
	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		testIntegerObject(t, tt.input, evaluated, tt.expected)
	}
}

func testIntegerObject(t *testing.T, input string, obj object.Value, expected int32) {
	t.Helper()
	result, ok := obj.(object.Integer)
	if !ok {
		t.Errorf("%q: object is not Integer. got=%T (%+v)", input, obj, obj)
		return
	}
	if result.Value != expected {
		t.Errorf("%q: object has wrong value. got=%d, want=%d", input, result.Value, expected)
	}
}

// Property: integer division truncates toward zero for all pairs.
func TestIntegerDivisionTruncates(t *testing.T) {
	s, _ := newState()
	for a := int32(-9); a <= 9; a++ {
		for b := int32(-4); b <= 4; b++ {
			if b == 0 {
				continue
			}
			s.Env().Set("a", object.Integer{Value: a})
			s.Env().Set("b", object.Integer{Value: b})
			testIntegerObject(t, "a / b", s.Eval("a / b"), a/b)
		}
	}
}

func TestEvalBooleanExpression(t *testing.T) {
	tests := []struct {
		input    string
		expected bool
	}{
		{"true", true},
		{"false", false},
		{"1 < 2", true},
		{"1 > 2", false},
		{"2 <= 2", true},
		{"3 >= 4", false},
		{"1 == 1", true},
		{"1 != 1", false},
		{"x == 5", true},
		{"f > 1", true},
		{"f < x", true},
		{"s == t", true},
		{"s == u", false},
		{"s != u", false}, // only == is defined for strings.
		{"s < u", false},
		{"s == x", false},
		{"1 < 2 and 3 < 4", true},
		{"1 < 2 and 3 > 4", false},
		{"1 > 2 or x == 5", true},
		{"zero or zero", false},
		{"bool(x)", true},
		{"bool(zero)", false},
		{"bool(s)", true},
		{"bool(nums)", false},
		{"bool()", false},
	}
	for _, tt := range tests {
		evaluated := testEval(t, tt.input)
		result, ok := evaluated.(object.Boolean)
		if !ok {
			t.Errorf("%q: object is not Boolean. got=%T (%+v)", tt.input, evaluated, evaluated)
			continue
		}
		if result.Value != tt.expected {
			t.Errorf("%q: got=%t, want=%t", tt.input, result.Value, tt.expected)
		}
	}
}

func TestEvalInspect(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{`"Hello {1+2}!"`, "Hello 3!"},
		{`"x={x}, s={s}, nums={nums}"`, "x=5, s=abc, nums=[10, 20, 30]"},
		{`"{x}{x}"`, "55"},
		{`"a\tb\\n\"q\""`, "a\tb\\n\"q\""},
		{`"line\n"`, "line\n"},
		{`"a\qb"`, `a\b`},
		{`"open {x"`, "open {x"},
		{`"empty {} braces {x}"`, "empty {} braces 5"},
		{`"nested {s}{"`, "nested abc{"},
		{`"{missing}"`, "none"},
		{"f * 2", "3.000000"},
		{"f + x", "6.500000"},
		{"x / 2", "2"},
		{"float(x) ", "5.000000"},
		{`float("2.5")`, "2.500000"},
		{"float()", "0.000000"},
		{"round(f, 0)", "2.000000"},
		{"ceil(f)", "2.000000"},
		{"ceil(x)", "5.000000"},
		{"math.sqrt(16)", "4.000000"},
		{"math.sqrt(f)", "1.224745"},
		{"nums[::-1]", "[30, 20, 10]"},
		{"s[::-1]", "cba"},
		{"s[ : : -1 ]", "cba"},
		{"nums[1:3]", "[20, 30]"},
		{"nums[:2]", "[10, 20]"},
		{"nums[1:]", "[20, 30]"},
		{"nums[-2:]", "[20, 30]"},
		{"nums[2:1]", "[]"},
		{"nums[0:99]", "[10, 20, 30]"},
		{"nums[-99:1]", "[10]"},
		{"s[1:]", "bc"},
		{"s[0:1]", "a"},
		{"s[1]", "b"},
		{"s[-1]", "c"},
		{"s[3]", "none"},
		{"nums[5]", "none"},
		{"nums[-4]", "none"},
		{"nums[s]", "none"},
		{"missing[0]", "none"},
		{"mixed.lower()", "hello"},
		{"mixed.lower", "hello"},
		{"[1, 2, 3]", "[1, 2, 3]"},
		{"[]", "[]"},
		{`["a,b", [1, 2], x]`, "[a,b, [1, 2], 5]"},
		{"[c for c in s]", "[a, b, c]"},
		{"[i * i for i in 4]", "[0, 1, 4, 9]"},
		{"[n / 10 for int n in nums]", "[1, 2, 3]"},
		{"[x for x in [1, 2, 3]]", "[1, 2, 3]"},
		{"[x for x in zero]", "[]"},
		{"[x for x in f]", "[]"},
		{"undefined", "none"},
		{"s + u", "none"},
		{"(1 + 2) * 3", "none"},
		{"nums.pop()", "none"},
		{"unknownfn(1)", "none"},
		{"x ? 1", "none"},
		{"f == 1.5", "none"},                    // the . makes it a member access.
		{"[x * 2 for x in 3].len", "[0, 2, 4]"}, // comprehension is checked before member access.
		{"nums[0] + 1", "10"},                   // index form is checked before arithmetic.
	}
	for _, tt := range tests {
		if got := testEval(t, tt.input).Inspect(); got != tt.expected {
			t.Errorf("%s: got %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestRound(t *testing.T) {
	s, _ := newState()
	run(t, s, "float pi = 3.14159\nr = round(pi, 2)\nr3 = round(pi, 3)\nnot = round(pi)")
	if v, _ := s.Get("r"); v != (object.Float{Value: 3.14}) {
		t.Errorf("round(pi, 2) got %#v", v)
	}
	if v, _ := s.Get("r3"); v != (object.Float{Value: 3.142}) {
		t.Errorf("round(pi, 3) got %#v", v)
	}
	if v, _ := s.Get("not"); v != object.NULL {
		t.Errorf("round with 1 arg got %#v, want none", v)
	}
}

func TestRandom(t *testing.T) {
	s, _ := newState()
	seen := map[object.Value]int{}
	for range 100 {
		seen[s.Eval("random.rng()")]++
	}
	if len(seen) != 2 || seen[object.Integer{Value: 0}] == 0 || seen[object.Integer{Value: 1}] == 0 {
		t.Errorf("random.rng() should produce both 0 and 1: %v", seen)
	}
}

func TestComprehensionRestoresVariable(t *testing.T) {
	s, _ := newState()
	run(t, s, `str x = "before"
doubled = [x * 2 for x in [1, 2, 3]]
chars = [c for str c in "hé!"]`)
	if v, _ := s.Get("x"); v != (object.String{Value: "before"}) {
		t.Errorf("x after comprehension got %#v, want unchanged", v)
	}
	if _, ok := s.Get("c"); ok {
		t.Errorf("c should not be bound after the comprehension")
	}
	if v, _ := s.Get("doubled"); v.Inspect() != "[2, 4, 6]" {
		t.Errorf("doubled got %s", v.Inspect())
	}
	if v, _ := s.Get("chars"); v.Inspect() != "[h, é, !]" {
		t.Errorf("chars got %s", v.Inspect())
	}
}

func TestForLoopKeepsLastValue(t *testing.T) {
	s, out := newState()
	run(t, s, `int x = 100
for (x in [1, 2, 3]) {
    print(x, " ")
}
for (int i in 3) {
    print(i)
}
for (str ch in "ab") {
    print(ch)
}`)
	if v, _ := s.Get("x"); v != (object.Integer{Value: 3}) {
		t.Errorf("x after for loop got %#v, want 3", v)
	}
	if v, _ := s.Get("i"); v != (object.Integer{Value: 2}) {
		t.Errorf("i after for loop got %#v, want 2", v)
	}
	if got := out.String(); got != "1 2 3 012ab" {
		t.Errorf("output got %q", got)
	}
}

func TestForIterableEvaluatedOnce(t *testing.T) {
	s, out := newState()
	run(t, s, `l = [1, 2]
for (v in l) {
    l.append(v)
}
print(l.len())`)
	if got := out.String(); got != "4" {
		t.Errorf("got %q, want 4", got)
	}
}

func TestAppendMutatesInPlace(t *testing.T) {
	s, out := newState()
	run(t, s, `list = [1, 2, 3]
copy = list
list.append(4)
print(list.len(), " ", copy.len(), " ", list)
int[] names
names.append("bob")
names.append(1 + 1)
print(" ", names)`)
	if got := out.String(); got != "4 3 [1, 2, 3, 4] [bob, 2]" {
		t.Errorf("got %q", got)
	}
}

func TestInstances(t *testing.T) {
	s, out := newState()
	def := object.NewClassDefinition("Point")
	def.Fields["x"] = object.Integer{Value: 0}
	def.Fields["y"] = object.Integer{Value: 0}
	s.Classes().Register(def)
	run(t, s, `Point a = Point()
b = Point()
a.x = 5
int ax = a.x
b.x = ax + 1
b.label = "new field"
c = b
c.y = 7
print(a.x, ",", b.x, ",", b.y, ",", c.y, ",", b.label, ",", a.label)
notinstance.x = 3
int n = 1
n.x = 4`)
	if got := out.String(); got != "5,6,0,7,new field,none" {
		t.Errorf("got %q", got)
	}
	if _, ok := s.Get("notinstance"); ok {
		t.Errorf("member assignment on unbound name shouldn't bind it")
	}
	if v, _ := s.Get("n"); v != (object.Integer{Value: 1}) {
		t.Errorf("n got %#v", v)
	}
	if v := s.Eval("Point"); v != object.NULL {
		t.Errorf("class name without call should be none, got %#v", v)
	}
}

func TestStatements(t *testing.T) {
	s, _ := newState()
	run(t, s, `int a = 3
int b
map m
str[] names
float g
a++
a++
b++
s = "x"
s++
m++
int p = 2
p *= a + 1
f = 1.5
f *= 2
q = 2
q *= f
str w = input()
name = input()
unrecognized line here
;`)
	expected := map[string]any{
		"a":     5,
		"b":     1,
		"m":     map[string]any{},
		"names": []any{},
		"g":     nil,
		"s":     "x",
		"p":     12,
		"f":     1.5,
		"q":     2,
		"w":     "",
		"name":  "",
	}
	if diff := cmp.Diff(expected, s.Env().Globals()); diff != "" {
		t.Errorf("environment mismatch (-want +got):\n%s", diff)
	}
}

func TestPrintAndInput(t *testing.T) {
	s, out := newState()
	s.In = strings.NewReader("Ada\r\n42\n")
	run(t, s, `str name = input()
int age = int(input())
print("Hi ", name, ", next year you'll be ", age + 1, "\n")
print()
print(1.5)`)
	if got := out.String(); got != "Hi Ada, next year you'll be 43\n1.500000" {
		t.Errorf("got %q", got)
	}
}

func TestWhileLoop(t *testing.T) {
	s, out := newState()
	run(t, s, `int i = 0
int total = 0
while (i < 5) {
    int j = 0
    while (j < i) {
        total = total + 1
        j++
    }
    i++
}
print(total)
while (false) {
    print("never")
}
int k = 3
while (k > 0)
{
    print(k)
    k = k - 1
}`)
	if got := out.String(); got != "10321" {
		t.Errorf("got %q", got)
	}
}

func TestInvalidLoopVariable(t *testing.T) {
	s, out := newState()
	run(t, s, `for (a.b in 3) {
    print("x")
}
l = [1 for a.b in 3]
print("done ", l)`)
	if got := out.String(); got != "done none" {
		t.Errorf("got %q", got)
	}
}

func TestReturnIgnored(t *testing.T) {
	s, out := newState()
	run(t, s, `print("a")
return
print("b")
return 5
print("c")`)
	if got := out.String(); got != "abc" {
		t.Errorf("got %q", got)
	}
}

func TestFatalErrors(t *testing.T) {
	tests := []string{
		`int n = int("abc")`,
		`x = 1 / 0`,
		`y = float("nope")`,
		`z = 99999999999`,
		`int q = int(f)`,
		`int r = int("x12")`,
		`int big = int("99999999999")`,
		`float g = float("x1.5")`,
	}
	for _, program := range tests {
		s, out := newState()
		s.Env().Set("f", object.Float{Value: 1e300})
		err := s.Exec([]string{`print("before")`, program, `print("after")`})
		var fe eval.FatalError
		if !errors.As(err, &fe) {
			t.Errorf("%q: expected FatalError, got %v", program, err)
		}
		if out.String() != "before" {
			t.Errorf("%q: run should stop at the failure, output %q", program, out.String())
		}
	}
}

func TestLeadingNumberIsNotFatal(t *testing.T) {
	tests := []string{
		`int a = int("3.5")`,
		`int b = int("12abc")`,
		`float c = float("1.5x")`,
	}
	for _, program := range tests {
		s, out := newState()
		err := s.Exec([]string{`print("before")`, program, `print("after")`})
		if err != nil || out.String() != "beforeafter" {
			t.Errorf("%q: got %v, output %q", program, err, out.String())
		}
	}
}

func TestEvalStringReturnsFatal(t *testing.T) {
	s, _ := newState()
	v, err := s.EvalString("5 / 0")
	if err == nil || v != object.NULL {
		t.Errorf("EvalString(5 / 0) got %v, %v", v, err)
	}
	v, err = s.EvalString("5 / 2")
	if err != nil || v != (object.Integer{Value: 2}) {
		t.Errorf("EvalString(5 / 2) got %v, %v", v, err)
	}
}

func TestBuiltins(t *testing.T) {
	expected := []string{"bool", "ceil", "float", "input", "int", "print", "round"}
	if diff := cmp.Diff(expected, eval.Builtins()); diff != "" {
		t.Errorf("Builtins() mismatch (-want +got):\n%s", diff)
	}
	if h, ok := eval.Help("round"); !ok || h == "" {
		t.Errorf("missing help for round")
	}
	if _, ok := eval.Help("nope"); ok {
		t.Errorf("unexpected help for nope")
	}
	conversions := []struct {
		input    string
		expected object.Value
	}{
		{`int("3.5")`, object.Integer{Value: 3}},
		{`int("12abc")`, object.Integer{Value: 12}},
		{`int("  -7 apples")`, object.Integer{Value: -7}},
		{`int("+4")`, object.Integer{Value: 4}},
		{`float("1.5x")`, object.Float{Value: 1.5}},
		{`float("2e3kg")`, object.Float{Value: 2000}},
		{`float(".25")`, object.Float{Value: 0.25}},
		{`float("7")`, object.Float{Value: 7}},
	}
	for _, tt := range conversions {
		s, _ := newState()
		if got := s.Eval(tt.input); got != tt.expected {
			t.Errorf("%s got %#v, want %#v", tt.input, got, tt.expected)
		}
	}
}
