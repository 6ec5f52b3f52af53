// Package program loads hm source files and runs the declaration pre-pass:
// main class directive, imports and the class registry.
package program

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"fortio.org/log"
	"hmlang.io/hm/eval"
	"hmlang.io/hm/object"
	"hmlang.io/hm/token"
)

// DefaultFile is the source file used when none is specified.
const DefaultFile = "program.hm"

const maxLineLength = 1024 * 1024

var ErrNoMainClass = errors.New("main class not found")

type Program struct {
	Name string
	// Raw source lines, without line endings.
	Lines []string
	// From the $Name directive.
	MainClass string
	// # and @ directives, recorded but not resolved.
	Imports []string
	Classes *object.Registry
}

func LoadFile(path string) (*Program, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("could not open file: %w", err)
	}
	defer f.Close()
	return Load(path, f)
}

func Load(name string, r io.Reader) (*Program, error) {
	var lines []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineLength)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading %s: %w", name, err)
	}
	return New(name, lines), nil
}

// New scans the lines once: records the main class directive, the imports and
// registers every top level class.
func New(name string, lines []string) *Program {
	return Parse(name, lines, object.NewRegistry())
}

// Parse is New with classes registered into an existing registry (e.g. for the repl).
func Parse(name string, lines []string, classes *object.Registry) *Program {
	p := &Program{Name: name, Lines: lines, Classes: classes}
	for i := 0; i < len(lines); {
		line := token.Clean(lines[i])
		switch token.Classify(line) { //nolint:exhaustive // only declarations matter here.
		case token.MAIN:
			p.MainClass = token.Trim(line[1:])
			i++
		case token.IMPORT:
			p.Imports = append(p.Imports, line)
			i++
		case token.CLASS:
			var body eval.Block
			cname := className(line)
			body, i = eval.ExtractBlock(lines, i)
			if !token.IsIdentifier(cname) {
				log.Warnf("Invalid class name %q in %s", cname, name)
				continue
			}
			p.Classes.Register(parseClass(cname, body, p.Classes))
		default:
			i++
		}
	}
	log.LogVf("%s: %d lines, main class %q, %d classes, %d imports",
		name, len(lines), p.MainClass, p.Classes.Len(), len(p.Imports))
	return p
}

// className extracts Name from `class Name {`.
func className(line string) string {
	rest := strings.TrimPrefix(line, "class")
	if brace := strings.IndexByte(rest, '{'); brace >= 0 {
		rest = rest[:brace]
	}
	return token.Trim(rest)
}

var (
	fieldDecl = regexp.MustCompile(`^(\w+(?:\[\])?)\s+(\w+)(?:\s*=\s*(.+))?$`)
	fnHeader  = regexp.MustCompile(`^fn\s+(\w+)\s*\(([^)]*)\)`)
)

// parseClass fills the fields (from typed declarations directly in the class body)
// and the method signatures and bodies.
func parseClass(name string, body eval.Block, classes *object.Registry) *object.ClassDefinition {
	def := object.NewClassDefinition(name)
	defaults := eval.NewBlankState()
	defaults.SetClasses(classes)
	lines := body.Lines
	for i := 0; i < len(lines); {
		line := token.Clean(lines[i])
		kind := token.Classify(line)
		switch kind { //nolint:exhaustive // fields are statements.
		case token.FN:
			var fn eval.Block
			fn, i = eval.ExtractBlock(lines, i)
			if m := fnHeader.FindStringSubmatch(line); m != nil {
				def.Methods[m[1]] = parameters(m[2])
				def.Bodies[m[1]] = fn.Lines
			} else {
				log.Warnf("class %s: invalid fn declaration %q", name, line)
			}
		case token.WHILE, token.FOR, token.CLASS:
			_, i = eval.ExtractBlock(lines, i)
		case token.STATEMENT:
			if m := fieldDecl.FindStringSubmatch(line); m != nil && isType(m[1], classes) {
				def.Fields[m[2]] = fieldDefault(defaults, m[1], m[3])
			}
			i++
		default:
			i++
		}
	}
	return def
}

func isType(t string, classes *object.Registry) bool {
	if token.IsDeclType(t) {
		return true
	}
	_, ok := classes.Get(t)
	return ok
}

// fieldDefault evaluates the initializer, if any, in an isolated state. Failures
// fall back to the zero value of the declared type.
func fieldDefault(s *eval.State, declType, init string) object.Value {
	if init == "" {
		return object.ZeroValue(declType)
	}
	v, err := s.EvalString(init)
	if err != nil {
		log.LogVf("default value %q not usable: %v", init, err)
		return object.ZeroValue(declType)
	}
	return v
}

// parameters returns the names from `a, int b`.
func parameters(list string) []string {
	res := []string{}
	for _, p := range strings.Split(list, ",") {
		fields := strings.Fields(p)
		if len(fields) > 0 {
			res = append(res, fields[len(fields)-1])
		}
	}
	return res
}

// MainBody returns the lines of the main class body, without its fn declarations.
func (p *Program) MainBody() ([]string, error) {
	if p.MainClass == "" {
		return nil, fmt.Errorf("%w: no $Name directive in %s", ErrNoMainClass, p.Name)
	}
	if _, ok := p.Classes.Get(p.MainClass); !ok {
		return nil, fmt.Errorf("%w: %q in %s", ErrNoMainClass, p.MainClass, p.Name)
	}
	for i, raw := range p.Lines {
		line := token.Clean(raw)
		if token.Classify(line) == token.CLASS && className(line) == p.MainClass {
			body, _ := eval.ExtractBlock(p.Lines, i)
			return withoutFunctions(body.Lines), nil
		}
	}
	// Registered means the header was seen, so this isn't reached.
	return nil, fmt.Errorf("%w: %q in %s", ErrNoMainClass, p.MainClass, p.Name)
}

func withoutFunctions(lines []string) []string {
	res := make([]string, 0, len(lines))
	for i := 0; i < len(lines); {
		if token.Classify(token.Clean(lines[i])) == token.FN {
			_, i = eval.ExtractBlock(lines, i)
			continue
		}
		res = append(res, lines[i])
		i++
	}
	return res
}

// TopLevel returns the lines outside of any class declaration, directives excluded.
func (p *Program) TopLevel() []string {
	res := make([]string, 0, len(p.Lines))
	for i := 0; i < len(p.Lines); {
		switch token.Classify(token.Clean(p.Lines[i])) { //nolint:exhaustive // the rest is code.
		case token.CLASS:
			_, i = eval.ExtractBlock(p.Lines, i)
			continue
		case token.MAIN, token.IMPORT:
		default:
			res = append(res, p.Lines[i])
		}
		i++
	}
	return res
}

// Body is the main class body when there is a $Name directive, the top level code otherwise.
func (p *Program) Body() ([]string, error) {
	if p.MainClass != "" {
		return p.MainBody()
	}
	return p.TopLevel(), nil
}
