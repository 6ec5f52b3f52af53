package eval

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"

	"fortio.org/log"
	"hmlang.io/hm/object"
)

// Exported part of the eval package.

// FatalError is raised (through panic) by the few conversions that can't degrade
// to a default value, e.g. int("abc"). It aborts the whole run and is turned into
// a regular error by [State.Exec].
type FatalError struct {
	Msg string
}

func (e FatalError) Error() string {
	return e.Msg
}

// ErrPanic wraps non FatalError panics recovered by Exec.
var ErrPanic = errors.New("panic during execution")

type State struct {
	Out io.Writer
	// Where input() reads lines from.
	In   io.Reader
	Rand *rand.Rand
	// Don't recover unexpected panics (FatalErrors are always recovered).
	PanicOk bool
	env     *object.Environment
	classes *object.Registry
	reader  *bufio.Reader // wraps In on first input().
}

func NewState() *State {
	return &State{
		Out:     os.Stdout,
		In:      os.Stdin,
		env:     object.NewEnvironment(),
		classes: object.NewRegistry(),
	}
}

// NewBlankState has no output or input, used to evaluate class field defaults.
func NewBlankState() *State {
	st := NewState()
	st.Out = io.Discard
	st.In = eofReader{}
	return st
}

type eofReader struct{}

func (eofReader) Read([]byte) (int, error) { return 0, io.EOF }

func (s *State) Env() *object.Environment {
	return s.env
}

func (s *State) Classes() *object.Registry {
	return s.classes
}

// SetClasses replaces the class registry, typically with the one built by the pre-pass.
func (s *State) SetClasses(r *object.Registry) {
	s.classes = r
}

// Get is a shortcut for Env().Get.
func (s *State) Get(name string) (object.Value, bool) {
	return s.env.Get(name)
}

func (s *State) fatalf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	log.LogVf("fatal: %s", msg)
	panic(FatalError{Msg: msg})
}

// Exec runs the lines as a block. This is the only place where fatal conversion
// errors are recovered; they end the run and are returned as error.
func (s *State) Exec(lines []string) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		if fe, ok := r.(FatalError); ok {
			err = fe
			return
		}
		if s.PanicOk {
			panic(r)
		}
		log.Critf("Caught panic: %v", r)
		err = fmt.Errorf("%w: %v", ErrPanic, r)
	}()
	s.ExecBlock(NewBlock(lines))
	return nil
}

// EvalString evaluates a single expression, returning fatal conversion failures as error.
//
//nolint:revive // eval.EvalString is fine.
func (s *State) EvalString(expr string) (res object.Value, err error) {
	defer func() {
		if r := recover(); r != nil {
			fe, ok := r.(FatalError)
			if !ok {
				panic(r)
			}
			res, err = object.NULL, fe
		}
	}()
	return s.Eval(expr), nil
}

func (s *State) readLine() string {
	if s.reader == nil {
		s.reader = bufio.NewReader(s.In)
	}
	line, err := s.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		log.Errf("Error reading input: %v", err)
	}
	line = trimEOL(line)
	return line
}

func trimEOL(line string) string {
	n := len(line)
	if n > 0 && line[n-1] == '\n' {
		n--
	}
	if n > 0 && line[n-1] == '\r' {
		n--
	}
	return line[:n]
}

func (s *State) rng() int {
	if s.Rand == nil {
		return rand.IntN(2) //nolint:gosec // not crypto.
	}
	return s.Rand.IntN(2)
}
