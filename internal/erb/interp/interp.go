// Package interp implements the brace-balanced `#{…}` interpolation
// scanner: the only place in the pipeline that turns embedded Ruby-ish
// expression text into `<%= … %>` output tags inside otherwise-literal
// text.
package interp

import (
	"strings"

	"github.com/pkg/errors"
)

// ErrUnclosed is wrapped with a short description when an interpolation
// never finds its matching close brace.
var ErrUnclosed = errors.New("unclosed interpolation")

// Convert rewrites every unescaped `#{expr}` occurrence in text into
// `<%= expr %>`. An escaped opener (`\#{`) loses one backslash and is
// emitted literally, without scanning a body.
func Convert(text string) (string, error) {
	var out strings.Builder
	r := []rune(text)
	n := len(r)

	i := 0
	for i < n {
		if r[i] == '#' && i+1 < n && r[i+1] == '{' {
			backslashes := countTrailingBackslashes(out.String())
			if backslashes%2 == 1 {
				// Odd run: drop one backslash, keep the rest, emit the opener literally.
				trimOne(&out)
				out.WriteString("#{")
				i += 2
				continue
			}

			body, consumed, err := scanBody(r[i+2:])
			if err != nil {
				return "", err
			}
			out.WriteString("<%= ")
			out.WriteString(body)
			out.WriteString(" %>")
			i += 2 + consumed
			continue
		}
		out.WriteRune(r[i])
		i++
	}
	return out.String(), nil
}

// countTrailingBackslashes counts the run of '\' at the end of s.
func countTrailingBackslashes(s string) int {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n
}

// trimOne removes the last byte written to b (a single trailing backslash).
func trimOne(b *strings.Builder) {
	s := b.String()
	b.Reset()
	b.WriteString(s[:len(s)-1])
}

// scanBody scans runes starting right after the opening `#{`, tracking a
// brace counter that starts at 1 and string-literal state for both quote
// kinds, plus nested interpolation inside double-quoted strings. It
// returns the body text (without the surrounding braces) and the number
// of runes consumed up to and including the closing brace.
func scanBody(r []rune) (string, int, error) {
	depth := 1
	var body strings.Builder

	i := 0
	for i < len(r) {
		c := r[i]
		switch c {
		case '{':
			depth++
			body.WriteRune(c)
			i++
		case '}':
			depth--
			if depth == 0 {
				return body.String(), i + 1, nil
			}
			body.WriteRune(c)
			i++
		case '\'':
			consumed := scanSingleQuoted(r[i:], &body)
			i += consumed
		case '"':
			consumed, err := scanDoubleQuoted(r[i:], &body)
			if err != nil {
				return "", 0, err
			}
			i += consumed
		default:
			body.WriteRune(c)
			i++
		}
	}
	return "", 0, errors.Wrap(ErrUnclosed, "reached end of input before matching '}'")
}

// scanSingleQuoted copies a '...' literal verbatim (braces inert,
// backslash escapes the next rune) and returns runes consumed.
func scanSingleQuoted(r []rune, out *strings.Builder) int {
	out.WriteRune(r[0]) // opening quote
	i := 1
	for i < len(r) {
		c := r[i]
		out.WriteRune(c)
		if c == '\\' && i+1 < len(r) {
			i++
			out.WriteRune(r[i])
			i++
			continue
		}
		if c == '\'' {
			return i + 1
		}
		i++
	}
	return i
}

// scanDoubleQuoted copies a "..." literal verbatim. Braces inside it are
// inert at the outer level, but a nested `#{…}` interpolation inside the
// string literal tracks its own local brace counter.
func scanDoubleQuoted(r []rune, out *strings.Builder) (int, error) {
	out.WriteRune(r[0]) // opening quote
	i := 1
	for i < len(r) {
		c := r[i]
		if c == '\\' && i+1 < len(r) {
			out.WriteRune(c)
			i++
			out.WriteRune(r[i])
			i++
			continue
		}
		if c == '#' && i+1 < len(r) && r[i+1] == '{' {
			out.WriteRune('#')
			out.WriteRune('{')
			i += 2
			localDepth := 1
			for i < len(r) && localDepth > 0 {
				switch r[i] {
				case '{':
					localDepth++
				case '}':
					localDepth--
				}
				out.WriteRune(r[i])
				i++
			}
			if localDepth != 0 {
				return 0, errors.Wrap(ErrUnclosed, "nested interpolation inside string literal")
			}
			continue
		}
		out.WriteRune(c)
		if c == '"' {
			return i + 1, nil
		}
		i++
	}
	return i, errors.Wrap(ErrUnclosed, "unterminated string literal")
}
