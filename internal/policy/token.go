package policy

import (
	"errors"
	"strings"
	"unicode"
)

type tokenKind int

const (
	tokenWord tokenKind = iota
	tokenOp
)

type token struct {
	kind tokenKind
	text string
}

var (
	errUnterminatedQuote = errors.New("unterminated quote")
	errSubstitution      = errors.New("command substitution")
)

// tokenize splits a shell command into words and operator tokens.
//
// Quoting follows POSIX shell rules: single quotes are literal, double
// quotes allow backslash escapes, an unquoted backslash escapes the next
// rune. Operators are only recognized outside quotes, so a quoted ">" is an
// ordinary word and cannot be mistaken for a redirection — and, conversely,
// an unquoted redirection cannot be hidden by spacing tricks.
//
// Command and process substitution ($(...), `...`, <(...), >(...)) execute
// nested commands that segment splitting cannot see, so they are rejected
// outright; the classifier maps the error to Unknown.
func tokenize(cmd string) ([]token, error) {
	var toks []token
	var word strings.Builder
	haveWord := false

	flushWord := func() {
		if haveWord {
			toks = append(toks, token{kind: tokenWord, text: word.String()})
			word.Reset()
			haveWord = false
		}
	}

	runes := []rune(cmd)
	i := 0
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == '\'':
			haveWord = true
			i++
			start := i
			for i < len(runes) && runes[i] != '\'' {
				i++
			}
			if i >= len(runes) {
				return nil, errUnterminatedQuote
			}
			word.WriteString(string(runes[start:i]))
			i++

		case r == '"':
			haveWord = true
			i++
			for i < len(runes) && runes[i] != '"' {
				if runes[i] == '\\' && i+1 < len(runes) {
					word.WriteRune(runes[i+1])
					i += 2
					continue
				}
				if runes[i] == '`' || (runes[i] == '$' && i+1 < len(runes) && runes[i+1] == '(') {
					return nil, errSubstitution
				}
				word.WriteRune(runes[i])
				i++
			}
			if i >= len(runes) {
				return nil, errUnterminatedQuote
			}
			i++

		case r == '\\':
			if i+1 >= len(runes) {
				return nil, errUnterminatedQuote
			}
			haveWord = true
			word.WriteRune(runes[i+1])
			i += 2

		case r == '`':
			return nil, errSubstitution

		case r == '$' && i+1 < len(runes) && runes[i+1] == '(':
			return nil, errSubstitution

		case r == '<' && i+1 < len(runes) && runes[i+1] == '(':
			return nil, errSubstitution

		case r == '>' && i+1 < len(runes) && runes[i+1] == '(':
			return nil, errSubstitution

		case unicode.IsSpace(r) && r != '\n':
			flushWord()
			i++

		case r == '\n':
			flushWord()
			toks = append(toks, token{kind: tokenOp, text: "\n"})
			i++

		case r == ';' || r == '(' || r == ')':
			flushWord()
			toks = append(toks, token{kind: tokenOp, text: string(r)})
			i++

		case r == '&' || r == '|' || r == '>' || r == '<':
			// a numeric word glued to a redirection is a file descriptor
			// prefix: fold it into the operator (e.g. "2>" or "2>&1")
			prefix := ""
			if (r == '>' || r == '<') && haveWord && isAllDigits(word.String()) {
				prefix = word.String()
				word.Reset()
				haveWord = false
			}
			flushWord()
			op := readOperator(runes, &i)
			toks = append(toks, token{kind: tokenOp, text: prefix + op})

		default:
			haveWord = true
			word.WriteRune(r)
			i++
		}
	}
	flushWord()
	return toks, nil
}

// readOperator consumes a run of operator characters starting at *i.
func readOperator(runes []rune, i *int) string {
	start := *i
	for *i < len(runes) {
		r := runes[*i]
		if r != '&' && r != '|' && r != '>' && r != '<' {
			break
		}
		*i++
	}
	// a descriptor target after "&" belongs to the operator, so "2>&1"
	// stays a single token instead of leaking "1" as a word
	if *i > start && runes[*i-1] == '&' {
		for *i < len(runes) && ((runes[*i] >= '0' && runes[*i] <= '9') || runes[*i] == '-') {
			*i++
		}
	}
	return string(runes[start:*i])
}

func isAllDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
