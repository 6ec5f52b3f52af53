package eval

import (
	"strings"

	"fortio.org/log"
	"hmlang.io/hm/object"
	"hmlang.io/hm/token"
)

// Block is a captured range of raw source lines. Loop bodies are extracted once
// and the same Block is executed again on every iteration.
type Block struct {
	Lines []string
}

func NewBlock(lines []string) Block {
	return Block{Lines: lines}
}

func (b Block) Len() int {
	return len(b.Lines)
}

// ExtractBlock returns the body of the brace delimited construct whose header is
// lines[header], and the index of the line after its closing brace.
// The opening brace is either at the end of the header or alone on the next
// non empty line. Nesting is tracked by counting, per line, whether it contains a {
// and whether it contains a }. A block missing its closing brace extends to the end.
func ExtractBlock(lines []string, header int) (Block, int) {
	start := header + 1
	if !strings.Contains(token.Clean(lines[header]), "{") {
		for j := start; j < len(lines); j++ {
			l := token.Clean(lines[j])
			if l == "" {
				continue
			}
			if l == "{" {
				start = j + 1
			}
			break
		}
	}
	depth := 1
	end := start
	for ; end < len(lines); end++ {
		l := token.Clean(lines[end])
		if strings.Contains(l, "{") {
			depth++
		}
		if strings.Contains(l, "}") {
			depth--
			if depth == 0 {
				break
			}
		}
	}
	if end >= len(lines) {
		log.Warnf("Missing closing } for %q", token.Clean(lines[header]))
		return NewBlock(lines[start:]), len(lines)
	}
	return NewBlock(lines[start:end]), end + 1
}

// header returns what is between the first ( and the last ) of a loop header.
func header(line string) string {
	open := strings.IndexByte(line, '(')
	if open < 0 {
		return ""
	}
	end := strings.LastIndexByte(line, ')')
	if end < open {
		return line[open+1:]
	}
	return line[open+1 : end]
}

// ExecBlock executes the lines in order: while and for loops, return (ignored) and
// statements. Class and fn declarations are skipped, they are handled by the
// registry pre-pass.
func (s *State) ExecBlock(b Block) {
	lines := b.Lines
	for i := 0; i < len(lines); {
		line := token.Clean(lines[i])
		kind := token.Classify(line)
		switch kind { //nolint:exhaustive // everything else is a statement.
		case token.EMPTY, token.RETURN, token.MAIN, token.IMPORT:
			i++
		case token.WHILE:
			var body Block
			body, i = ExtractBlock(lines, i)
			s.execWhile(header(line), body)
		case token.FOR:
			var body Block
			body, i = ExtractBlock(lines, i)
			s.execFor(header(line), body)
		case token.CLASS, token.FN:
			log.LogVf("Skipping %s declaration %q", kind, line)
			_, i = ExtractBlock(lines, i)
		default:
			s.ExecStatement(line)
			i++
		}
	}
}

// execWhile re-evaluates the condition before each pass. There is no iteration limit.
func (s *State) execWhile(condition string, body Block) {
	n := 0
	for object.ToBool(s.Eval(condition)) {
		n++
		log.LogVf("while (%s) iteration %d, %d lines", condition, n, body.Len())
		s.ExecBlock(body)
	}
}

// execFor evaluates the iterable once then binds the loop variable on each pass.
// Unlike comprehensions the variable keeps its last value after the loop.
func (s *State) execFor(hdr string, body Block) {
	inPos := strings.Index(hdr, " in ")
	if inPos < 0 {
		log.Warnf("Invalid for loop header %q", hdr)
		return
	}
	name := loopVariable(hdr[:inPos])
	if !token.IsIdentifier(name) {
		log.Warnf("Invalid for loop variable %q", name)
		return
	}
	iterable := s.Eval(hdr[inPos+len(" in "):])
	iterate(iterable, func(item object.Value) {
		log.LogVf("for %s = %s", name, item.Inspect())
		s.env.Set(name, item)
		s.ExecBlock(body)
	})
}
