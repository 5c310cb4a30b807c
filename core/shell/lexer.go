package shell

import (
	"errors"
	"strings"
)

// PipeToken is the reserved separator between pipeline stages.
const PipeToken = "|"

// ErrUnclosedQuote is returned when input ends inside a quoted region.
// The partial token sequence is discarded; nothing may be executed.
var ErrUnclosedQuote = errors.New("unclosed quote")

type lexState int

const (
	stateUnquoted lexState = iota
	stateSingleQuoted
	stateDoubleQuoted
)

// Tokenize splits one input line into tokens.
//
// Quoting follows a restricted sh subset: single quotes preserve everything
// verbatim, double quotes preserve everything except backslash escapes, and
// a backslash outside single quotes makes the next character literal. The
// pipe character is always its own token outside quotes. Quote characters
// are consumed, never emitted, so tokens carry no quoting information.
func Tokenize(line string) ([]string, error) {
	var tokens []string
	var cur strings.Builder

	// Tracks whether cur holds a token worth emitting. An empty quoted
	// string ("" or '') is a real, empty token.
	pending := false

	flush := func() {
		if pending {
			tokens = append(tokens, cur.String())
			cur.Reset()
			pending = false
		}
	}

	state := stateUnquoted
	runes := []rune(line)
	for i := 0; i < len(runes); i++ {
		r := runes[i]

		switch state {
		case stateUnquoted:
			switch r {
			case ' ', '\t', '\r', '\n':
				flush()
			case '\'':
				state = stateSingleQuoted
				pending = true
			case '"':
				state = stateDoubleQuoted
				pending = true
			case '|':
				flush()
				tokens = append(tokens, PipeToken)
			case '\\':
				if i+1 < len(runes) {
					i++
					cur.WriteRune(runes[i])
				} else {
					// Trailing backslash stands for itself.
					cur.WriteRune('\\')
				}
				pending = true
			default:
				cur.WriteRune(r)
				pending = true
			}

		case stateSingleQuoted:
			if r == '\'' {
				state = stateUnquoted
			} else {
				cur.WriteRune(r)
			}

		case stateDoubleQuoted:
			switch r {
			case '"':
				state = stateUnquoted
			case '\\':
				if i+1 < len(runes) {
					i++
					cur.WriteRune(runes[i])
				} else {
					cur.WriteRune('\\')
				}
			default:
				cur.WriteRune(r)
			}
		}
	}

	if state != stateUnquoted {
		return nil, ErrUnclosedQuote
	}

	flush()
	return tokens, nil
}

// SplitPipeline cuts a token sequence at pipe tokens, yielding one
// invocation per stage. An empty stage (leading, trailing, or doubled
// pipe) yields an empty entry so the caller can report the position.
func SplitPipeline(tokens []string) [][]string {
	var stages [][]string
	start := 0
	for i, tok := range tokens {
		if tok == PipeToken {
			stages = append(stages, tokens[start:i])
			start = i + 1
		}
	}
	return append(stages, tokens[start:])
}
