// Package emit implements the Tree Emitter (spec §4.4): it walks the
// HAML AST, dispatches by node kind, manages indentation and
// block-closing, and produces the ERB output string.
package emit

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/tmplconv/haml2erb/internal/erb/attrs"
	"github.com/tmplconv/haml2erb/internal/erb/interp"
	"github.com/tmplconv/haml2erb/internal/haml/ast"
)

// Diagnostic is a non-fatal warning raised during emission (void element
// with content, unknown filter, unknown node kind, hash-splat, ...).
type Diagnostic struct {
	Line    int
	Message string
}

// Emitter walks an AST and accumulates diagnostics as it goes. It is not
// safe for concurrent use; create one per conversion.
type Emitter struct {
	Diagnostics []Diagnostic
}

// New returns a ready-to-use Emitter.
func New() *Emitter {
	return &Emitter{}
}

func (e *Emitter) warn(line int, format string, args ...any) {
	e.Diagnostics = append(e.Diagnostics, Diagnostic{Line: line, Message: fmt.Sprintf(format, args...)})
}

func indent(depth int) string {
	return strings.Repeat("  ", depth)
}

// Emit dispatches on n's kind and returns its ERB rendering at the given
// nesting depth.
func (e *Emitter) Emit(n ast.Node, depth int) (string, error) {
	switch t := n.(type) {
	case ast.Root:
		return e.emitChildren(t.Children, depth)
	case ast.Tag:
		return e.emitTag(t, depth)
	case ast.Script:
		return e.emitScript(t, depth)
	case ast.SilentScript:
		return e.emitSilentScript(t, depth)
	case ast.Filter:
		return e.emitFilter(t, depth)
	case ast.Doctype:
		return e.emitDoctype(t, depth)
	case ast.Comment:
		return indent(depth) + "<!-- " + t.Text + " -->\n", nil
	case ast.Plain:
		return e.emitPlain(t, depth)
	case ast.HamlComment:
		return "", nil
	default:
		e.warn(0, "unknown node kind %T", n)
		return "", nil
	}
}

func (e *Emitter) emitChildren(children []ast.Node, depth int) (string, error) {
	var sb strings.Builder
	for _, c := range children {
		s, err := e.Emit(c, depth)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}
	return sb.String(), nil
}

func (e *Emitter) emitPlain(t ast.Plain, depth int) (string, error) {
	scanned, err := interp.Convert(t.Text)
	if err != nil {
		return "", err
	}
	return indent(depth) + scanned + "\n", nil
}

func (e *Emitter) emitDoctype(t ast.Doctype, depth int) (string, error) {
	if t.Type == "xml" {
		enc := t.Encoding
		if enc == "" {
			enc = "UTF-8"
		}
		return indent(depth) + `<?xml version="1.0" encoding="` + enc + `"?>` + "\n", nil
	}
	return indent(depth) + "<!DOCTYPE html>\n", nil
}

func (e *Emitter) emitTag(t ast.Tag, depth int) (string, error) {
	var dynFragments []string
	if t.HasDynamicOld {
		dynFragments = append(dynFragments, t.DynamicAttrsOld)
	}
	if t.HasDynamicNew {
		dynFragments = append(dynFragments, t.DynamicAttrsNew)
	}
	var objRef attrs.ObjectRef
	if t.HasObjectRef {
		objRef = attrs.ParseObjectRef(t.ObjectRef)
	}
	attrStr, warnings := attrs.Build(t.Attributes, dynFragments, objRef)
	for _, w := range warnings {
		e.warn(t.Line, "%s", w.Message)
	}

	void := ast.IsVoid(t.Name)
	open := indent(depth) + "<" + t.Name + attrStr + ">"

	hasInline := t.HasValue && t.Value != ""
	hasChildren := len(t.Children) > 0

	switch {
	case t.SelfClosing || (void && !hasChildren && !hasInline):
		return open + "\n", nil

	case hasInline:
		content, err := formatTagContent(t)
		if err != nil {
			return "", err
		}
		if void {
			e.warn(t.Line, "void element <%s> has inline content", t.Name)
			return open + "\n" + indent(depth) + content + "\n", nil
		}
		return open + content + "</" + t.Name + ">\n", nil

	case hasChildren:
		if void {
			e.warn(t.Line, "void element <%s> has children", t.Name)
			childOut, err := e.emitChildren(t.Children, depth+1)
			if err != nil {
				return "", err
			}
			return open + "\n" + childOut, nil
		}
		childOut, err := e.emitChildren(t.Children, depth+1)
		if err != nil {
			return "", err
		}
		return open + "\n" + childOut + indent(depth) + "</" + t.Name + ">\n", nil

	default:
		return open + "</" + t.Name + ">\n", nil
	}
}

var doubleQuotedInterp = regexp.MustCompile(`^"(?:[^"\\]|\\.)*#\{`)

// formatTagContent implements the inline-content formatting rules of
// spec §4.4's tag case.
func formatTagContent(t ast.Tag) (string, error) {
	v := t.Value
	if t.Parse {
		trimmed := strings.TrimSpace(v)
		if isDoubleQuotedLiteral(trimmed) && strings.Contains(trimmed, "#{") {
			inner := unescapeQuotes(trimmed[1 : len(trimmed)-1])
			return interp.Convert(inner)
		}
		return "<%= " + v + " %>", nil
	}
	return interp.Convert(v)
}

func isDoubleQuotedLiteral(s string) bool {
	return len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"'
}

// unescapeQuotes applies only the `\"`→`"` and `\\`→`\` unescapes; any
// other escape sequence passes through untouched (documented limitation,
// spec §9).
func unescapeQuotes(s string) string {
	var sb strings.Builder
	r := []rune(s)
	for i := 0; i < len(r); i++ {
		if r[i] == '\\' && i+1 < len(r) && (r[i+1] == '"' || r[i+1] == '\\') {
			sb.WriteRune(r[i+1])
			i++
			continue
		}
		sb.WriteRune(r[i])
	}
	return sb.String()
}

func (e *Emitter) emitScript(t ast.Script, depth int) (string, error) {
	if len(t.Children) > 0 {
		childOut, err := e.emitChildren(t.Children, depth+1)
		if err != nil {
			return "", err
		}
		return indent(depth) + "<%= " + t.Text + " %>\n" + childOut + indent(depth) + "<% end %>\n", nil
	}

	trimmed := strings.TrimSpace(t.Text)
	if isDoubleQuotedLiteral(trimmed) && strings.Contains(trimmed, "#{") {
		inner := unescapeQuotes(trimmed[1 : len(trimmed)-1])
		scanned, err := interp.Convert(inner)
		if err != nil {
			return "", err
		}
		return indent(depth) + scanned + "\n", nil
	}
	return indent(depth) + "<%= " + t.Text + " %>\n", nil
}

var blockDoSuffix = regexp.MustCompile(`\bdo(\s*\|[^|]*\|)?\s*$`)

func (e *Emitter) emitSilentScript(t ast.SilentScript, depth int) (string, error) {
	var sb strings.Builder
	sb.WriteString(indent(depth))
	sb.WriteString("<% ")
	sb.WriteString(t.Text)
	sb.WriteString(" %>\n")

	for _, c := range t.Children {
		childDepth := depth + 1
		if ss, ok := c.(ast.SilentScript); ok && isMidBlockKeyword(firstWord(ss.Text)) {
			childDepth = depth
		}
		s, err := e.Emit(c, childDepth)
		if err != nil {
			return "", err
		}
		sb.WriteString(s)
	}

	if needsEnd(t) && len(t.Children) > 0 {
		sb.WriteString(indent(depth))
		sb.WriteString("<% end %>\n")
	}
	return sb.String(), nil
}

func needsEnd(t ast.SilentScript) bool {
	switch t.Keyword {
	case "if", "unless", "case", "begin":
		return true
	}
	trimmed := strings.TrimSpace(t.Text)
	if blockDoSuffix.MatchString(trimmed) {
		return true
	}
	first := firstWord(trimmed)
	return first == "while" || first == "until" || first == "for"
}

func firstWord(text string) string {
	trimmed := strings.TrimSpace(text)
	i := 0
	for i < len(trimmed) && isWordRune(rune(trimmed[i])) {
		i++
	}
	return trimmed[:i]
}

func isWordRune(c rune) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_'
}

func isMidBlockKeyword(word string) bool {
	return ast.MidBlockKeywords[word]
}

func (e *Emitter) emitFilter(t ast.Filter, depth int) (string, error) {
	lines := splitLines(t.Text)
	switch t.Name {
	case "javascript":
		return e.emitWrappedFilter(depth, "<script>", "</script>", lines, true)
	case "css":
		return e.emitWrappedFilter(depth, "<style>", "</style>", lines, true)
	case "plain", "erb":
		var sb strings.Builder
		for _, l := range lines {
			sb.WriteString(indent(depth))
			sb.WriteString(l)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	case "ruby":
		var sb strings.Builder
		for _, l := range lines {
			if strings.TrimSpace(l) == "" {
				continue
			}
			sb.WriteString(indent(depth))
			sb.WriteString("<% ")
			sb.WriteString(l)
			sb.WriteString(" %>\n")
		}
		return sb.String(), nil
	default:
		e.warn(0, "unknown filter: %s", t.Name)
		var sb strings.Builder
		sb.WriteString(indent(depth))
		sb.WriteString("<!-- Unknown filter: " + t.Name + " -->\n")
		for _, l := range lines {
			sb.WriteString(indent(depth))
			sb.WriteString(l)
			sb.WriteString("\n")
		}
		return sb.String(), nil
	}
}

func (e *Emitter) emitWrappedFilter(depth int, open, close string, lines []string, scan bool) (string, error) {
	var sb strings.Builder
	sb.WriteString(indent(depth))
	sb.WriteString(open)
	sb.WriteString("\n")
	for _, l := range lines {
		text := l
		if scan {
			scanned, err := interp.Convert(l)
			if err != nil {
				return "", err
			}
			text = scanned
		}
		sb.WriteString(indent(depth + 1))
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	sb.WriteString(indent(depth))
	sb.WriteString(close)
	sb.WriteString("\n")
	return sb.String(), nil
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
