package repl

import (
	"fmt"
	"strings"

	"fortio.org/sets"
	"fortio.org/terminal"
	"hmlang.io/hm/eval"
	"hmlang.io/hm/token"
)

// AutoComplete completes keywords, builtins, types and the names currently bound in a state.
type AutoComplete struct {
	state *eval.State
}

func NewCompletion(s *eval.State) *AutoComplete {
	return &AutoComplete{state: s}
}

func (a *AutoComplete) AutoComplete() terminal.AutoCompleteCallback {
	return func(t *terminal.Terminal, line string, pos int, key rune) (newLine string, newPos int, ok bool) {
		if key != '\t' {
			return // only tab for now
		}
		prefix := lastWord(line[:pos])
		completed, commands := a.Complete(prefix)
		if len(commands) == 0 {
			return
		}
		if d := Describe(commands); d != "" {
			fmt.Fprintln(t.Out, d)
		}
		newLine = line[:pos] + completed[len(prefix):] + line[pos:]
		return newLine, pos + len(completed) - len(prefix), true
	}
}

// Complete returns the longest common completion of prefix and the candidates.
func (a *AutoComplete) Complete(prefix string) (string, []string) {
	words := sets.New(token.Completions()...)
	words.Add(eval.Builtins()...)
	words.Add(a.state.Env().Names()...)
	words.Add(a.state.Classes().Names()...)
	var matches []string
	for _, w := range sets.Sort(words) {
		if strings.HasPrefix(w, prefix) {
			matches = append(matches, w)
		}
	}
	if len(matches) == 0 {
		return prefix, nil
	}
	common := matches[0]
	for _, m := range matches[1:] {
		for !strings.HasPrefix(m, common) {
			common = common[:len(common)-1]
		}
	}
	return common, matches
}

// Describe is what is shown for completion candidates: the list when there are
// several, the help of a lone builtin.
func Describe(matches []string) string {
	if len(matches) > 1 {
		return "One of: " + strings.Join(matches, " ")
	}
	if len(matches) == 1 {
		if help, ok := eval.Help(matches[0]); ok {
			return matches[0] + ": " + help
		}
	}
	return ""
}

// lastWord is the identifier (possibly dotted) ending the line.
func lastWord(line string) string {
	i := len(line)
	for i > 0 {
		c := line[i-1]
		if !token.IsAlphaNum(c) && c != '.' {
			break
		}
		i--
	}
	return line[i:]
}
