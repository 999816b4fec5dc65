// Package cql splits CQL scripts into individually executable statements.
package cql

import (
	"errors"
	"strings"
)

// ErrUnterminated indicates a string, quoted identifier, $$ block or block
// comment that runs to the end of the script.
var ErrUnterminated = errors.New("unterminated literal or comment")

// Terminator separates statements in a script.
const Terminator = ';'

// Statement is one executable statement extracted from a script.
type Statement struct {
	Index int    // 0-based position among the script's statements
	Text  string // trimmed, comments removed, without the terminator
}

type lexState int

const (
	stateCode lexState = iota
	stateSingleQuote
	stateDoubleQuote
	stateDollar
	stateLineComment
	stateBlockComment
)

// Split breaks script on ';' outside of string literals, quoted identifiers,
// $$ blocks and comments. Comments are removed; fragments left empty are
// dropped. Statements keep their textual order.
func Split(script string) ([]Statement, error) {
	var (
		stmts []Statement
		buf   strings.Builder
		state = stateCode
	)

	flush := func() {
		text := strings.TrimSpace(buf.String())
		buf.Reset()

		if text != "" {
			stmts = append(stmts, Statement{Index: len(stmts), Text: text})
		}
	}

	for i := 0; i < len(script); i++ {
		c := script[i]
		next := byte(0)

		if i+1 < len(script) {
			next = script[i+1]
		}

		switch state {
		case stateCode:
			switch {
			case c == Terminator:
				flush()
			case c == '-' && next == '-', c == '/' && next == '/':
				state = stateLineComment
				i++
			case c == '/' && next == '*':
				state = stateBlockComment
				buf.WriteByte(' ')
				i++
			case c == '\'':
				state = stateSingleQuote
				buf.WriteByte(c)
			case c == '"':
				state = stateDoubleQuote
				buf.WriteByte(c)
			case c == '$' && next == '$':
				state = stateDollar
				buf.WriteString("$$")
				i++
			default:
				buf.WriteByte(c)
			}
		case stateSingleQuote, stateDoubleQuote:
			quote := byte('\'')
			if state == stateDoubleQuote {
				quote = '"'
			}

			buf.WriteByte(c)

			if c == quote {
				if next == quote {
					buf.WriteByte(next)
					i++
				} else {
					state = stateCode
				}
			}
		case stateDollar:
			if c == '$' && next == '$' {
				buf.WriteString("$$")
				state = stateCode
				i++
			} else {
				buf.WriteByte(c)
			}
		case stateLineComment:
			if c == '\n' {
				buf.WriteByte(c)
				state = stateCode
			}
		case stateBlockComment:
			if c == '*' && next == '/' {
				state = stateCode
				i++
			}
		}
	}

	switch state {
	case stateSingleQuote, stateDoubleQuote, stateDollar, stateBlockComment:
		return nil, ErrUnterminated
	case stateCode, stateLineComment:
	}

	flush()

	return stmts, nil
}

// Truncate shortens s to at most maxLen bytes for display, collapsing
// whitespace runs first. Strings are returned whole when maxLen < 4.
func Truncate(s string, maxLen int) string {
	s = strings.Join(strings.Fields(s), " ")

	if maxLen < 4 || len(s) <= maxLen {
		return s
	}

	return s[:maxLen-3] + "..."
}
