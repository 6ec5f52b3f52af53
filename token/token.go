// Package token holds the lexical conventions of hm: comments, trimming,
// identifiers and the keywords that lead a line.
package token

import (
	"strings"

	"fortio.org/log"
)

type Type uint8

// Kind of a source line, decided by its leading keyword.
const (
	ILLEGAL Type = iota
	EMPTY
	STATEMENT // not keyword led: handed to the statement dispatcher.
	WHILE
	FOR
	RETURN
	CLASS
	FN
	MAIN   // $Name main class directive.
	IMPORT // # or @ directive.
)

var typeNames = [...]string{"ILLEGAL", "EMPTY", "STATEMENT", "WHILE", "FOR", "RETURN", "CLASS", "FN", "MAIN", "IMPORT"}

func (t Type) String() string {
	if int(t) >= len(typeNames) {
		return "ILLEGAL"
	}
	return typeNames[t]
}

const (
	CommentMarker = "//"
	whitespace    = " \t\r\n"
)

var lineKeywords = map[string]Type{
	"while":  WHILE,
	"for":    FOR,
	"return": RETURN,
	"class":  CLASS,
	"fn":     FN,
}

// Trim removes leading and trailing spaces, tabs and line endings.
func Trim(s string) string {
	return strings.Trim(s, whitespace)
}

// StripComment removes everything from the first `//` on. Note that a `//` inside
// a string literal also starts a comment.
func StripComment(line string) string {
	if pos := strings.Index(line, CommentMarker); pos >= 0 {
		return line[:pos]
	}
	return line
}

// Clean strips the comment and trims the line.
func Clean(line string) string {
	return Trim(StripComment(line))
}

func IsAlpha(ch byte) bool {
	return ('a' <= ch && ch <= 'z') || ('A' <= ch && ch <= 'Z') || (ch == '_')
}

func IsDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func IsAlphaNum(ch byte) bool {
	return IsAlpha(ch) || IsDigit(ch)
}

// IsIdentifier is true for non empty strings of letters, digits and _.
func IsIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i := range len(s) {
		if !IsAlphaNum(s[i]) {
			return false
		}
	}
	return true
}

// Classify returns the kind of an already cleaned line. Keywords must be followed by a
// non identifier character so `format = 1` isn't a for loop.
func Classify(line string) Type {
	if line == "" {
		return EMPTY
	}
	switch line[0] {
	case '$':
		return MAIN
	case '#', '@':
		return IMPORT
	}
	end := 0
	for end < len(line) && IsAlphaNum(line[end]) {
		end++
	}
	if t, ok := lineKeywords[line[:end]]; ok {
		log.Debugf("Classify(%q) found %s", line, t)
		return t
	}
	return STATEMENT
}
