// Package attrs implements the Attribute Builder (spec §4.3): it merges
// the parser-resolved shorthand/paren attributes, the raw dynamic hash
// literal(s), and object-reference fragments into one HTML attribute
// string, classifying each value as static HTML, embedded-code output,
// or conditional-presence embedded code.
//
// Per the design notes' option (c), only the by-key fallback scanner is
// implemented (no whole-fragment static-literal fast path): correctness
// is identical, the whole-fragment path is a pure code-quality
// optimization that avoids a handful of unnecessary `<%= %>` wrappers
// around values that happen to be fully static.
package attrs

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"

	"github.com/tmplconv/haml2erb/internal/erb/interp"
	"github.com/tmplconv/haml2erb/internal/erb/static"
	"github.com/tmplconv/haml2erb/internal/haml/ast"
)

// Warning is a non-fatal diagnostic raised while building attributes
// (hash-splat skipped, etc).
type Warning struct {
	Message string
}

// ObjectRef holds the pre-computed class/id embedded-code fragments for
// a `[obj]` / `[obj, :prefix]` tag reference.
type ObjectRef struct {
	HasClass  bool
	ClassCode string
	HasID     bool
	IDCode    string
}

// ParseObjectRef builds the class/id fragments described in spec §4.3
// from the raw bracketed text (without the brackets), e.g. `@item` or
// `@item, :row`.
func ParseObjectRef(raw string) ObjectRef {
	parts := splitTopLevelComma(raw)
	obj := strings.TrimSpace(parts[0])
	prefix := ""
	hasPrefix := false
	if len(parts) > 1 {
		p := strings.TrimSpace(parts[1])
		p = strings.TrimPrefix(p, ":")
		if p != "" {
			prefix = p
			hasPrefix = true
		}
	}

	classExpr := obj + ".class.name.underscore"
	idExpr := obj + ".class.name.underscore + '_' + " + obj + ".to_key.first.to_s"
	if hasPrefix {
		classExpr = `"` + prefix + `_" + ` + classExpr
		idExpr = `"` + prefix + `_" + ` + idExpr
	}
	return ObjectRef{
		HasClass:  true,
		ClassCode: "<%= " + classExpr + " %>",
		HasID:     true,
		IDCode:    "<%= " + idExpr + " %>",
	}
}

// Build merges the static (parser-resolved) attributes, the raw dynamic
// hash-literal fragments (old syntax first, then new — in the order
// they should merge), and any object-reference fragments into a single
// space-prefixed attribute string. It returns the empty string when
// there is nothing to emit.
func Build(staticAttrs []ast.Attr, dynamicFragments []string, objRef ObjectRef) (string, []Warning) {
	var classFrags, idFrags []fragment
	var otherClauses []string
	var warnings []Warning

	// 1. static_attrs: shorthand class/id plus any other parser-resolved
	// (already fully literal) attributes such as paren-style syntax.
	var staticOther []ast.Attr
	for _, a := range staticAttrs {
		switch a.Key {
		case "class":
			classFrags = append(classFrags, fragment{text: a.Value, isCode: strings.Contains(a.Value, "<%")})
		case "id":
			idFrags = append(idFrags, fragment{text: a.Value, isCode: strings.Contains(a.Value, "<%")})
		default:
			staticOther = append(staticOther, a)
		}
	}
	sort.Slice(staticOther, func(i, j int) bool { return staticOther[i].Key < staticOther[j].Key })
	for _, a := range staticOther {
		val := a.Value
		if strings.Contains(val, "#{") {
			var err error
			val, err = interp.Convert(val)
			if err != nil {
				val = a.Value
			}
		}
		otherClauses = append(otherClauses, a.Key+`="`+escapeHTML(val)+`"`)
	}

	// 2. dynamic hash fragment(s): by-key fallback scan.
	splatWarned := false
	for _, frag := range dynamicFragments {
		entries, warned := scanEntries(frag)
		if warned {
			splatWarned = true
		}
		for _, e := range entries {
			classify(e.Key, e.KeyIsSym, e.ValueText, &classFrags, &idFrags, &otherClauses)
		}
	}
	if splatWarned {
		warnings = append(warnings, Warning{Message: "Double splat attribute skipped: hash-splat expansion is not supported"})
	}

	// 3. object-reference fragments.
	if objRef.HasClass {
		classFrags = append(classFrags, fragment{text: objRef.ClassCode, isCode: true})
	}
	if objRef.HasID {
		idFrags = append(idFrags, fragment{text: objRef.IDCode, isCode: true})
	}

	var out strings.Builder
	if len(classFrags) > 0 {
		out.WriteString(` class="`)
		out.WriteString(joinFragments(classFrags))
		out.WriteString(`"`)
	}
	if len(idFrags) > 0 {
		out.WriteString(` id="`)
		out.WriteString(joinFragments(idFrags))
		out.WriteString(`"`)
	}
	for _, c := range otherClauses {
		out.WriteString(" ")
		out.WriteString(c)
	}
	return out.String(), warnings
}

type fragment struct {
	text   string
	isCode bool
}

func joinFragments(frags []fragment) string {
	parts := make([]string, len(frags))
	for i, f := range frags {
		if f.isCode {
			parts[i] = f.text
		} else {
			parts[i] = escapeHTML(f.text)
		}
	}
	return strings.Join(parts, " ")
}

// classify implements the by-key value-classification rules of spec
// §4.3, appending to classFrags/idFrags/otherClauses as appropriate.
func classify(key string, keyIsSym bool, valueText string, classFrags, idFrags *[]fragment, otherClauses *[]string) {
	normKey := normalizeKey(key, keyIsSym)
	trimmed := strings.TrimSpace(valueText)

	switch {
	case strings.HasPrefix(trimmed, "{"):
		v := static.ParseFragment(trimmed)
		if !v.IsDynamic() && v.Kind == static.KindMap {
			for _, clause := range flattenStaticMap(normKey, v) {
				appendClause(normKey, clause, classFrags, idFrags, otherClauses)
			}
			return
		}
		// dynamic sub-mapping: recurse with the outer key as a dash-prefix.
		inner := strings.TrimSuffix(strings.TrimPrefix(trimmed, "{"), "}")
		entries, _ := scanEntries(inner)
		for _, e := range entries {
			subKey := normKey + "-" + normalizeKey(e.Key, e.KeyIsSym)
			classify(subKey, false, e.ValueText, classFrags, idFrags, otherClauses)
		}
		return

	case strings.HasPrefix(trimmed, "["):
		v := static.ParseFragment(trimmed)
		if !v.IsDynamic() && v.Kind == static.KindSlice {
			appendArrayClause(normKey, v, classFrags, idFrags, otherClauses)
			return
		}
		appendDynamicClause(normKey, trimmed, classFrags, idFrags, otherClauses)
		return

	case isWholeStringLiteral(trimmed):
		inner, quote := unquoteLiteral(trimmed)
		if hasAdjacentConcat(trimmed) {
			appendDynamicClause(normKey, trimmed, classFrags, idFrags, otherClauses)
			return
		}
		if strings.Contains(inner, "#{") {
			scanned, err := interp.Convert(inner)
			if err != nil {
				appendDynamicClause(normKey, trimmed, classFrags, idFrags, otherClauses)
				return
			}
			appendClassOrOther(normKey, scanned, classFrags, idFrags, otherClauses, true)
			return
		}
		_ = quote
		appendClassOrOther(normKey, inner, classFrags, idFrags, otherClauses, false)
		return

	default:
		if trimmed == "nil" {
			return // a literal nil omits the attribute entirely
		}
		v := static.ParseFragment(trimmed)
		if !v.IsDynamic() {
			for _, clause := range applyScalar(normKey, v) {
				appendClause(normKey, clause, classFrags, idFrags, otherClauses)
			}
			return
		}
		appendDynamicClause(normKey, trimmed, classFrags, idFrags, otherClauses)
	}
}

// clauseResult is one fully-formed key/value result of classifying a static
// value: either a normal attribute clause, or (for class/id) a bare
// fragment to merge.
type clauseResult struct {
	isFragment bool
	text       string // clause text ("key=\"val\"" or bare "key"), or fragment text when isFragment
}

func appendClause(key string, c clauseResult, classFrags, idFrags *[]fragment, otherClauses *[]string) {
	if c.isFragment {
		appendClassOrOther(key, c.text, classFrags, idFrags, otherClauses, false)
		return
	}
	if c.text != "" {
		*otherClauses = append(*otherClauses, c.text)
	}
}

func appendClassOrOther(key, text string, classFrags, idFrags *[]fragment, otherClauses *[]string, isCode bool) {
	switch key {
	case "class":
		*classFrags = append(*classFrags, fragment{text: text, isCode: isCode})
	case "id":
		*idFrags = append(*idFrags, fragment{text: text, isCode: isCode})
	default:
		if isCode {
			*otherClauses = append(*otherClauses, key+`="`+text+`"`)
		} else {
			*otherClauses = append(*otherClauses, key+`="`+escapeHTML(text)+`"`)
		}
	}
}

// appendDynamicClause handles a value that requires runtime evaluation. A
// class/id key merges into the fragment streams like every other class/id
// source (kept verbatim, never re-escaped); any other key gets its own
// clause, with the boolean-attribute set still deciding bare-vs-quoted form.
func appendDynamicClause(key, exprText string, classFrags, idFrags *[]fragment, otherClauses *[]string) {
	switch key {
	case "class":
		*classFrags = append(*classFrags, fragment{text: "<%= " + exprText + " %>", isCode: true})
		return
	case "id":
		*idFrags = append(*idFrags, fragment{text: "<%= " + exprText + " %>", isCode: true})
		return
	}
	if ast.IsBooleanAttribute(key) {
		*otherClauses = append(*otherClauses, `<%= '`+key+`' if (`+exprText+`) %>`)
		return
	}
	*otherClauses = append(*otherClauses, key+`="<%= `+exprText+` %>"`)
}

// applyScalar implements the semantics table rows for a fully-resolved
// scalar (bool/nil/symbol/number).
func applyScalar(key string, v static.Value) []clauseResult {
	switch v.Kind {
	case static.KindBool:
		if v.Bool {
			if ast.IsBooleanAttribute(key) {
				return []clauseResult{{text: key}}
			}
			return []clauseResult{{text: key + `="true"`}}
		}
		if ast.IsBooleanAttribute(key) {
			return nil // omitted entirely
		}
		return []clauseResult{{text: key + `="false"`}}
	case static.KindNil:
		return nil // omitted entirely
	case static.KindSymbol:
		return []clauseResult{{text: key + `="` + escapeHTML(v.Str) + `"`}}
	case static.KindInt:
		return []clauseResult{{text: key + `="` + strconv.FormatInt(v.Int, 10) + `"`}}
	case static.KindFloat:
		return []clauseResult{{text: key + `="` + strconv.FormatFloat(v.Float, 'f', -1, 64) + `"`}}
	case static.KindString:
		return []clauseResult{{text: key + `="` + escapeHTML(v.Str) + `"`}}
	default:
		return nil
	}
}

func appendArrayClause(key string, v static.Value, classFrags, idFrags *[]fragment, otherClauses *[]string) {
	if key == "class" {
		parts := make([]string, len(v.Slice))
		for i, e := range v.Slice {
			parts[i] = scalarString(e)
		}
		*classFrags = append(*classFrags, fragment{text: strings.Join(parts, " ")})
		return
	}
	if key == "id" {
		parts := make([]string, len(v.Slice))
		for i, e := range v.Slice {
			parts[i] = scalarString(e)
		}
		*idFrags = append(*idFrags, fragment{text: strings.Join(parts, " ")})
		return
	}
	raw := make([]any, len(v.Slice))
	for i, e := range v.Slice {
		raw[i] = scalarJSON(e)
	}
	b, err := json.Marshal(raw)
	if err != nil {
		return
	}
	*otherClauses = append(*otherClauses, key+`="`+escapeHTML(string(b))+`"`)
}

func scalarString(v static.Value) string {
	switch v.Kind {
	case static.KindString, static.KindSymbol:
		return v.Str
	case static.KindInt:
		return strconv.FormatInt(v.Int, 10)
	case static.KindFloat:
		return strconv.FormatFloat(v.Float, 'f', -1, 64)
	case static.KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return ""
	}
}

func scalarJSON(v static.Value) any {
	switch v.Kind {
	case static.KindString, static.KindSymbol:
		return v.Str
	case static.KindInt:
		return v.Int
	case static.KindFloat:
		return v.Float
	case static.KindBool:
		return v.Bool
	case static.KindNil:
		return nil
	case static.KindSlice:
		out := make([]any, len(v.Slice))
		for i, e := range v.Slice {
			out[i] = scalarJSON(e)
		}
		return out
	case static.KindMap:
		out := map[string]any{}
		for _, e := range v.Map {
			out[e.Key] = scalarJSON(e.Value)
		}
		return out
	default:
		return nil
	}
}

// flattenStaticMap expands a fully-resolved static map one level at a
// time, e.g. {x: 1} under key "data" becomes "data-x=\"1\"".
func flattenStaticMap(prefix string, v static.Value) []clauseResult {
	var out []clauseResult
	for _, e := range v.Map {
		subKey := prefix + "-" + normalizeKey(e.Key, e.KeyIsSym)
		switch e.Value.Kind {
		case static.KindMap:
			out = append(out, flattenStaticMap(subKey, e.Value)...)
		case static.KindSlice:
			if subKey == "class" || subKey == "id" {
				parts := make([]string, len(e.Value.Slice))
				for i, el := range e.Value.Slice {
					parts[i] = scalarString(el)
				}
				out = append(out, clauseResult{isFragment: true, text: strings.Join(parts, " ")})
				continue
			}
			raw := make([]any, len(e.Value.Slice))
			for i, el := range e.Value.Slice {
				raw[i] = scalarJSON(el)
			}
			b, err := json.Marshal(raw)
			if err == nil {
				out = append(out, clauseResult{text: subKey + `="` + escapeHTML(string(b)) + `"`})
			}
		default:
			out = append(out, applyScalar(subKey, e.Value)...)
		}
	}
	return out
}

func normalizeKey(key string, isSym bool) string {
	if isSym {
		return strings.ReplaceAll(key, "_", "-")
	}
	return key
}

func escapeHTML(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, `"`, "&quot;")
	return s
}

func isWholeStringLiteral(s string) bool {
	if len(s) < 2 {
		return false
	}
	q := s[0]
	if q != '"' && q != '\'' {
		return false
	}
	if s[len(s)-1] != q {
		return false
	}
	// Verify the closing quote at the end is not itself escaped and that
	// there is no unescaped instance of q before the end.
	depth := 0
	for i := 1; i < len(s)-1; i++ {
		if s[i] == '\\' {
			if i+1 == len(s)-1 {
				return false // the final quote is escaped
			}
			i++
			continue
		}
		if s[i] == byte(q) {
			depth++
		}
	}
	return depth == 0
}

func unquoteLiteral(s string) (string, byte) {
	q := s[0]
	return s[1 : len(s)-1], q
}

// hasAdjacentConcat detects a `+` concatenation operator directly
// touching a quote, e.g. `"foo" + bar` or `"foo"+"bar"`.
func hasAdjacentConcat(s string) bool {
	for i, c := range s {
		if c == '+' {
			before := strings.TrimRight(s[:i], " \t")
			after := strings.TrimLeft(s[i+1:], " \t")
			if strings.HasSuffix(before, `"`) || strings.HasSuffix(before, "'") ||
				strings.HasPrefix(after, `"`) || strings.HasPrefix(after, "'") {
				return true
			}
		}
	}
	return false
}

func splitTopLevelComma(s string) []string {
	var out []string
	depth := 0
	start := 0
	for i, c := range s {
		switch c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case ',':
			if depth == 0 {
				out = append(out, s[start:i])
				start = i + 1
			}
		}
	}
	out = append(out, s[start:])
	return out
}
