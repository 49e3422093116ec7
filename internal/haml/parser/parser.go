// Package parser implements the HAML parser that spec.md §6 treats as an
// external collaborator ("assumed available as a library that yields a
// typed AST"). No pack dependency exposes that typed-AST contract (see
// DESIGN.md), so this is a small hand-written recognizer for the subset
// of HAML this system needs to convert — per spec §9's option (b).
package parser

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmplconv/haml2erb/internal/haml/ast"
)

// SyntaxError carries a message and the source line it was raised at.
type SyntaxError struct {
	Message string
	Line    int
}

func (e *SyntaxError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("%s (line %d)", e.Message, e.Line)
	}
	return e.Message
}

type entry struct {
	lineNo int
	indent int
	depth  int
	text   string
}

// Parse converts HAML source text into the AST described in
// internal/haml/ast.
func Parse(source string) (ast.Root, error) {
	entries := splitEntries(source)
	if len(entries) == 0 {
		return ast.Root{}, nil
	}
	unit := detectUnit(entries)
	for i := range entries {
		entries[i].depth = entries[i].indent / unit
	}

	p := &parser{entries: entries}
	children, idx, err := p.parseSiblings(0, entries[0].depth)
	if err != nil {
		return ast.Root{}, err
	}
	if idx != len(entries) {
		return ast.Root{}, &SyntaxError{Message: "unexpected indentation", Line: entries[idx].lineNo}
	}
	return ast.Root{Children: children}, nil
}

func splitEntries(source string) []entry {
	rawLines := strings.Split(source, "\n")
	var out []entry
	for i, line := range rawLines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		indent := 0
		for indent < len(line) && line[indent] == ' ' {
			indent++
		}
		out = append(out, entry{lineNo: i + 1, indent: indent, text: line[indent:]})
	}
	return out
}

func detectUnit(entries []entry) int {
	min := 0
	for _, e := range entries {
		if e.indent > 0 && (min == 0 || e.indent < min) {
			min = e.indent
		}
	}
	if min == 0 {
		return 2
	}
	return min
}

type parser struct {
	entries []entry
}

func (p *parser) parseSiblings(idx, depth int) ([]ast.Node, int, error) {
	var nodes []ast.Node
	for idx < len(p.entries) && p.entries[idx].depth == depth {
		e := p.entries[idx]
		head, kind, err := parseHead(e)
		if err != nil {
			return nil, 0, err
		}
		idx++

		switch kind {
		case kindFilter:
			f := head.(ast.Filter)
			body, newIdx := p.collectRawBody(idx, depth)
			f.Text = body
			nodes = append(nodes, f)
			idx = newIdx
			continue
		case kindHamlComment:
			newIdx := p.skipDeeper(idx, depth)
			nodes = append(nodes, head)
			idx = newIdx
			continue
		}

		if idx < len(p.entries) && p.entries[idx].depth > depth {
			children, newIdx, err := p.parseSiblings(idx, p.entries[idx].depth)
			if err != nil {
				return nil, 0, err
			}
			idx = newIdx
			switch t := head.(type) {
			case ast.Tag:
				t.Children = children
				head = t
			case ast.Script:
				t.Children = children
				head = t
			case ast.SilentScript:
				t.Children = children
				head = t
			default:
				return nil, 0, &SyntaxError{Message: "illegal nesting: this node kind cannot have children", Line: e.lineNo}
			}
		}

		// A mid-block continuation (else/elsif/when/rescue/ensure) is not
		// a sibling of its opener: it becomes one of the opener's own
		// children, rendered at the opener's depth (see emit's silent_script
		// handling), so the same `<% end %>` closes the whole chain.
		if ss, ok := head.(ast.SilentScript); ok && ast.MidBlockKeywords[ss.Keyword] {
			if len(nodes) == 0 {
				return nil, 0, &SyntaxError{Message: "mid-block continuation without an opening block", Line: e.lineNo}
			}
			prev, ok := nodes[len(nodes)-1].(ast.SilentScript)
			if !ok {
				return nil, 0, &SyntaxError{Message: "mid-block continuation without an opening block", Line: e.lineNo}
			}
			prev.Children = append(prev.Children, ss)
			nodes[len(nodes)-1] = prev
			continue
		}

		nodes = append(nodes, head)
	}
	return nodes, idx, nil
}

// collectRawBody gathers the raw filter body: every following entry more
// indented than depth, with its text kept verbatim and re-indented by two
// spaces per level beyond depth+1 (filter bodies are not re-parsed).
func (p *parser) collectRawBody(idx, depth int) (string, int) {
	var lines []string
	for idx < len(p.entries) && p.entries[idx].depth > depth {
		e := p.entries[idx]
		lines = append(lines, strings.Repeat(" ", (e.depth-depth-1)*2)+e.text)
		idx++
	}
	if len(lines) == 0 {
		return "", idx
	}
	return strings.Join(lines, "\n") + "\n", idx
}

func (p *parser) skipDeeper(idx, depth int) int {
	for idx < len(p.entries) && p.entries[idx].depth > depth {
		idx++
	}
	return idx
}

type nodeKind int

const (
	kindOther nodeKind = iota
	kindFilter
	kindHamlComment
)

func parseHead(e entry) (ast.Node, nodeKind, error) {
	text := e.text
	switch {
	case strings.HasPrefix(text, "!!!"):
		return parseDoctype(text), kindOther, nil
	case strings.HasPrefix(text, "-#"):
		return ast.HamlComment{Text: strings.TrimSpace(text[2:])}, kindHamlComment, nil
	case strings.HasPrefix(text, "-"):
		return parseSilentScript(text), kindOther, nil
	case strings.HasPrefix(text, "="):
		return ast.Script{Text: strings.TrimSpace(text[1:])}, kindOther, nil
	case strings.HasPrefix(text, ":"):
		return ast.Filter{Name: strings.TrimSpace(text[1:])}, kindFilter, nil
	case strings.HasPrefix(text, "/"):
		return ast.Comment{Text: strings.TrimSpace(text[1:])}, kindOther, nil
	case strings.HasPrefix(text, "%") || strings.HasPrefix(text, ".") || strings.HasPrefix(text, "#"):
		tag, err := parseTag(text, e.lineNo)
		return tag, kindOther, err
	default:
		return ast.Plain{Text: text}, kindOther, nil
	}
}

func parseDoctype(text string) ast.Doctype {
	rest := strings.TrimSpace(strings.TrimPrefix(text, "!!!"))
	if rest == "" {
		return ast.Doctype{}
	}
	fields := strings.Fields(rest)
	if strings.EqualFold(fields[0], "XML") {
		enc := ""
		if len(fields) > 1 {
			enc = fields[1]
		}
		return ast.Doctype{Type: "xml", Encoding: enc}
	}
	return ast.Doctype{}
}

func parseSilentScript(text string) ast.SilentScript {
	body := strings.TrimSpace(text[1:])
	kw := firstWord(body)
	if !ast.BlockOpenerKeywords[kw] && !ast.MidBlockKeywords[kw] {
		kw = ""
	}
	return ast.SilentScript{Text: body, Keyword: kw}
}

func firstWord(s string) string {
	i := 0
	for i < len(s) && isIdentByte(s[i]) {
		i++
	}
	return s[:i]
}

func isIdentByte(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

var identRe = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9:_-]*`)

// parseTag parses a `%tag.class#id[obj]{attrs}(attrs)/= content` line.
func parseTag(text string, line int) (ast.Tag, error) {
	r := []rune(text)
	i := 0
	n := len(r)

	name := "div"
	if i < n && r[i] == '%' {
		i++
		m := identRe.FindString(string(r[i:]))
		if m == "" {
			return ast.Tag{}, &SyntaxError{Message: "expected tag name after '%'", Line: line}
		}
		name = m
		i += len([]rune(m))
	}

	var attrsList []ast.Attr
	var classParts []string
	idValue := ""
	hasID := false

	for i < n && (r[i] == '.' || r[i] == '#') {
		marker := r[i]
		i++
		start := i
		for i < n && (isIdentRune(r[i]) || r[i] == '-') {
			i++
		}
		if i == start {
			return ast.Tag{}, &SyntaxError{Message: "expected class/id name", Line: line}
		}
		token := string(r[start:i])
		if marker == '.' {
			classParts = append(classParts, token)
		} else {
			idValue = token
			hasID = true
		}
	}
	if len(classParts) > 0 {
		attrsList = append(attrsList, ast.Attr{Key: "class", Value: strings.Join(classParts, " ")})
	}
	if hasID {
		attrsList = append(attrsList, ast.Attr{Key: "id", Value: idValue})
	}

	objectRef := ""
	hasObjectRef := false
	if i < n && r[i] == '[' {
		end := matchBracket(r, i, '[', ']')
		if end < 0 {
			return ast.Tag{}, &SyntaxError{Message: "unclosed '[' in object reference", Line: line}
		}
		objectRef = string(r[i+1 : end])
		hasObjectRef = true
		i = end + 1
	}

	var dynOld, dynNew string
	hasOld, hasNew := false, false
	for i < n && (r[i] == '{' || r[i] == '(') {
		if r[i] == '(' {
			end := matchBracket(r, i, '(', ')')
			if end < 0 {
				return ast.Tag{}, &SyntaxError{Message: "unclosed '(' in tag attributes", Line: line}
			}
			parenAttrs, err := parseParenAttrs(string(r[i+1:end]), line)
			if err != nil {
				return ast.Tag{}, err
			}
			attrsList = mergeStaticAttrs(attrsList, parenAttrs)
			i = end + 1
			continue
		}
		end := matchBracket(r, i, '{', '}')
		if end < 0 {
			return ast.Tag{}, &SyntaxError{Message: "unclosed '{' in tag attributes", Line: line}
		}
		raw := string(r[i : end+1])
		if !hasNew {
			dynNew = raw
			hasNew = true
		} else if !hasOld {
			dynOld = dynNew
			hasOld = true
			dynNew = raw
		} else {
			dynNew = dynNew + raw
		}
		i = end + 1
	}

	selfClosing := false
	if i < n && r[i] == '/' {
		selfClosing = true
		i++
	}

	rest := strings.TrimSpace(string(r[i:]))
	hasValue := false
	parseExpr := false
	value := ""
	if strings.HasPrefix(rest, "=") {
		hasValue = true
		parseExpr = true
		value = strings.TrimSpace(rest[1:])
	} else if rest != "" {
		hasValue = true
		parseExpr = false
		value = rest
	}

	return ast.Tag{
		Name:            name,
		Attributes:      attrsList,
		DynamicAttrsOld: dynOld,
		DynamicAttrsNew: dynNew,
		HasDynamicOld:   hasOld,
		HasDynamicNew:   hasNew,
		ObjectRef:       objectRef,
		HasObjectRef:    hasObjectRef,
		Value:           value,
		HasValue:        hasValue,
		Parse:           parseExpr,
		SelfClosing:     selfClosing,
		Line:            line,
	}, nil
}

func isIdentRune(c rune) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

// matchBracket returns the index of the matching close bracket for the
// open bracket at r[start], honoring string literals so a brace/paren
// inside a quoted value does not throw off the count.
func matchBracket(r []rune, start int, open, close rune) int {
	depth := 0
	for i := start; i < len(r); i++ {
		switch r[i] {
		case open:
			depth++
		case close:
			depth--
			if depth == 0 {
				return i
			}
		case '"', '\'':
			i = skipQuoted(r, i)
		}
	}
	return -1
}

func skipQuoted(r []rune, i int) int {
	quote := r[i]
	i++
	for i < len(r) {
		if r[i] == '\\' && i+1 < len(r) {
			i += 2
			continue
		}
		if r[i] == quote {
			return i
		}
		i++
	}
	return i
}

// parseParenAttrs parses HTML-style `(key="value" key2=val2 key3)`
// attributes: always fully static per HAML's paren syntax.
func parseParenAttrs(text string, line int) ([]ast.Attr, error) {
	var out []ast.Attr
	r := []rune(text)
	i := 0
	n := len(r)
	for {
		for i < n && isSpace(r[i]) {
			i++
		}
		if i >= n {
			break
		}
		start := i
		for i < n && (isIdentRune(r[i]) || r[i] == '-') {
			i++
		}
		if i == start {
			return nil, &SyntaxError{Message: "malformed paren attribute", Line: line}
		}
		key := string(r[start:i])
		for i < n && isSpace(r[i]) {
			i++
		}
		if i < n && r[i] == '=' {
			i++
			for i < n && isSpace(r[i]) {
				i++
			}
			var val string
			if i < n && (r[i] == '"' || r[i] == '\'') {
				end := skipQuoted(r, i)
				val = string(r[i+1 : end])
				i = end + 1
			} else {
				vs := i
				for i < n && !isSpace(r[i]) {
					i++
				}
				val = string(r[vs:i])
			}
			out = append(out, ast.Attr{Key: key, Value: val})
		} else {
			out = append(out, ast.Attr{Key: key, Value: "true"})
		}
	}
	return out, nil
}

func isSpace(c rune) bool { return c == ' ' || c == '\t' }

// mergeStaticAttrs merges b into a, joining class values with a space
// and letting later id values override earlier ones (matches HAML's own
// shorthand-then-paren precedence).
func mergeStaticAttrs(a, b []ast.Attr) []ast.Attr {
	for _, attr := range b {
		if attr.Key == "class" {
			merged := false
			for i := range a {
				if a[i].Key == "class" {
					a[i].Value = a[i].Value + " " + attr.Value
					merged = true
					break
				}
			}
			if !merged {
				a = append(a, attr)
			}
			continue
		}
		if attr.Key == "id" {
			replaced := false
			for i := range a {
				if a[i].Key == "id" {
					a[i].Value = attr.Value
					replaced = true
					break
				}
			}
			if !replaced {
				a = append(a, attr)
			}
			continue
		}
		a = append(a, attr)
	}
	return a
}
