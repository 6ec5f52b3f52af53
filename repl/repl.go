// Package repl runs hm programs: from files, inline strings or interactively.
package repl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"fortio.org/duration"
	"fortio.org/log"
	"fortio.org/terminal"
	"fortio.org/version"
	"gopkg.in/yaml.v3"
	"hmlang.io/hm/eval"
	"hmlang.io/hm/program"
	"hmlang.io/hm/token"
)

const (
	PROMPT       = "hm> "
	CONTINUATION = "... "
)

type Options struct {
	// Don't recover unexpected panics, for debugging the interpreter itself.
	PanicOk     bool
	HistoryFile string
	MaxHistory  int
	// Write the variables as yaml after the run.
	Dump bool
	// Where print() goes, defaults to stdout.
	Out io.Writer
	// Where input() reads from, defaults to stdin.
	In io.Reader
}

func (o Options) newState() *eval.State {
	s := eval.NewState()
	s.PanicOk = o.PanicOk
	if o.Out != nil {
		s.Out = o.Out
	}
	if o.In != nil {
		s.In = o.In
	}
	return s
}

// RunFile loads a program file then executes its main class.
func RunFile(path string, options Options) error {
	start := time.Now()
	p, err := program.LoadFile(path)
	if err != nil {
		return err
	}
	log.Infof("Running %s", path)
	s := options.newState()
	err = Run(p, s, options)
	log.Infof("Done %s in %v, %d variables", path, duration.Duration(time.Since(start)), s.Env().Len())
	return err
}

// RunReader loads a program from r then executes its main class.
func RunReader(name string, r io.Reader, options Options) error {
	p, err := program.Load(name, r)
	if err != nil {
		return err
	}
	log.Infof("Running %s", name)
	return Run(p, options.newState(), options)
}

// Run executes the main class body of a loaded program in s. Without a main
// class nothing is executed and the error wraps [program.ErrNoMainClass].
func Run(p *program.Program, s *eval.State, options Options) error {
	body, err := p.MainBody()
	if err != nil {
		return err
	}
	return execute(p, s, body, options)
}

func execute(p *program.Program, s *eval.State, body []string, options Options) error {
	s.SetClasses(p.Classes)
	err := s.Exec(body)
	if options.Dump {
		if derr := Dump(s.Out, s); derr != nil {
			log.Errf("Error dumping variables: %v", derr)
		}
	}
	return err
}

// RunString runs inline source: the main class when there is a $Name directive,
// the top level statements otherwise. print() writes directly to options.Out.
func RunString(options Options, src string) error {
	p, err := program.Load("inline", strings.NewReader(src))
	if err != nil {
		return err
	}
	body, err := p.Body()
	if err != nil {
		return err
	}
	return execute(p, options.newState(), body, options)
}

// EvalString is RunString with the output captured and returned.
//
//nolint:revive // repl.EvalString is fine.
func EvalString(src string) (string, error) {
	return EvalStringWithOption(Options{}, src)
}

func EvalStringWithOption(options Options, src string) (string, error) {
	out := strings.Builder{}
	options.Out = &out
	if options.In == nil {
		options.In = strings.NewReader("")
	}
	err := RunString(options, src)
	return out.String(), err
}

// Dump writes the variables of s as a yaml document.
func Dump(w io.Writer, s *eval.State) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(s.Env().Globals()); err != nil {
		return err
	}
	return enc.Close()
}

// depth returns how many blocks the lines leave open.
func depth(lines []string) int {
	d := 0
	for _, l := range lines {
		l = token.Clean(l)
		d += strings.Count(l, "{") - strings.Count(l, "}")
	}
	return d
}

// termReader feeds input() from the terminal.
type termReader struct {
	t   *terminal.Terminal
	buf []byte
}

func (r *termReader) Read(p []byte) (int, error) {
	if len(r.buf) == 0 {
		line, err := r.t.ReadLine()
		if err != nil {
			return 0, err
		}
		r.buf = []byte(line + "\n")
	}
	n := copy(p, r.buf)
	r.buf = r.buf[n:]
	return n, nil
}

// Interactive reads statements from the terminal until EOF. Lines are accumulated
// while a block is open, class declarations are added to the session's classes.
func Interactive(options Options) int {
	term, err := terminal.Open(context.Background())
	if err != nil {
		return log.FErrf("Error creating terminal: %v", err)
	}
	defer term.Close()
	term.SetPrompt(PROMPT)
	if options.MaxHistory > 0 && options.HistoryFile != "" {
		if err := term.SetHistoryFile(options.HistoryFile); err != nil {
			log.Warnf("Couldn't use history file %s: %v", options.HistoryFile, err)
		}
	}
	term.NewHistory(options.MaxHistory)
	s := options.newState()
	s.Out = term.Out
	s.In = &termReader{t: term}
	term.SetAutoCompleteCallback(NewCompletion(s).AutoComplete())
	short, _, _ := version.FromBuildInfo()
	fmt.Fprintf(term.Out, "hm %s - type ^D to exit\n", short)
	var pending []string
	for {
		line, err := term.ReadLine()
		if errors.Is(err, terminal.ErrUserInterrupt) {
			log.Infof("Interrupted, discarding %d pending lines", len(pending))
			pending = nil
			term.SetPrompt(PROMPT)
			continue
		}
		if errors.Is(err, io.EOF) {
			log.Infof("Exit requested")
			return 0
		}
		if err != nil {
			return log.FErrf("Error reading line: %v", err)
		}
		pending = append(pending, line)
		if depth(pending) > 0 {
			term.SetPrompt(CONTINUATION)
			continue
		}
		term.SetPrompt(PROMPT)
		before := s.Env().NumSet()
		if err := evalChunk(s, pending); err != nil {
			log.Errf("%v", err)
		}
		if s.Env().NumSet() == before {
			log.LogVf("No variable set by %d line(s)", len(pending))
		}
		pending = nil
	}
}

// evalChunk registers the classes declared in lines then runs the rest.
func evalChunk(s *eval.State, lines []string) error {
	p := program.Parse("repl", lines, s.Classes())
	return s.Exec(p.TopLevel())
}
