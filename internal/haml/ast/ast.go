// Package ast defines the typed AST consumed by the emitter. It is the
// target shape a HAML parser must produce: see internal/haml/parser for
// the one bundled with this module.
package ast

// Node is any node the tree emitter knows how to dispatch on.
type Node interface {
	node()
}

// Root is the document root; its children are walked at depth 0.
type Root struct {
	Children []Node
}

func (Root) node() {}

// Attr is one already-resolved static attribute. Tags hold a slice, not a
// map, so the parser's order is deterministic; the attribute builder emits
// class and id first and orders the remaining static attributes by key.
type Attr struct {
	Key   string
	Value string
}

// Tag is an HTML element produced by `%name` (or implicit `%div` via
// `.class`/`#id` shorthand).
type Tag struct {
	Name            string
	Attributes      []Attr // already resolved by the parser, shorthand folded in
	DynamicAttrsOld string // raw text of the first `{...}` group when the tag has two or more, or ""
	DynamicAttrsNew string // raw text of the last `{...}` group (the only one when there is one), or ""
	HasDynamicOld   bool
	HasDynamicNew   bool
	ObjectRef       string // raw bracketed expression text, e.g. "@item, :row"; "" if absent
	HasObjectRef    bool
	Value           string // inline content, "" if absent
	HasValue        bool
	Parse           bool // when true, Value is an expression; when false, plain text
	SelfClosing     bool
	Line            int
	Children        []Node
}

func (Tag) node() {}

// Script is `= expr`: an output-embedded-code node. It may open a block
// when it has children (e.g. `= form_for @x do |f|`).
type Script struct {
	Text     string
	Children []Node
}

func (Script) node() {}

// SilentScript is `- expr`: silent embedded code, possibly a block
// opener/continuation.
type SilentScript struct {
	Text     string
	Keyword  string // a block opener (if/unless/case/begin/while/until/for) or mid-block keyword (else/elsif/when/rescue/ensure), or "" if neither
	Children []Node
}

func (SilentScript) node() {}

// Filter is a `:name` filter block.
type Filter struct {
	Name string
	Text string
}

func (Filter) node() {}

// Doctype is `!!!` or `!!! XML`.
type Doctype struct {
	Type     string // "xml" or ""
	Encoding string // only meaningful when Type == "xml"
}

func (Doctype) node() {}

// Comment is `/ text`.
type Comment struct {
	Text string
}

func (Comment) node() {}

// Plain is a bare text line, possibly containing `#{…}` interpolation.
type Plain struct {
	Text string
}

func (Plain) node() {}

// HamlComment is `-# text`; it produces nothing in the output.
type HamlComment struct {
	Text string
}

func (HamlComment) node() {}

// VoidElements never get a closing tag and never carry children.
var VoidElements = map[string]bool{
	"area": true, "base": true, "br": true, "col": true, "embed": true,
	"hr": true, "img": true, "input": true, "link": true, "meta": true,
	"param": true, "source": true, "track": true, "wbr": true,
}

// IsVoid reports whether name is a void element.
func IsVoid(name string) bool {
	return VoidElements[name]
}

// BooleanAttributes is the exact, case-sensitive boolean-attribute set.
var BooleanAttributes = map[string]bool{
	"allowfullscreen": true, "async": true, "autofocus": true, "autoplay": true,
	"checked": true, "controls": true, "default": true, "defer": true,
	"disabled": true, "formnovalidate": true, "hidden": true, "inert": true,
	"ismap": true, "itemscope": true, "loop": true, "multiple": true,
	"muted": true, "nomodule": true, "novalidate": true, "open": true,
	"playsinline": true, "readonly": true, "required": true, "reversed": true,
	"scoped": true, "seamless": true, "selected": true,
}

// IsBooleanAttribute reports whether key is in the boolean-attribute set.
func IsBooleanAttribute(key string) bool {
	return BooleanAttributes[key]
}

// BlockOpenerKeywords are silent-script keywords that open a block
// requiring a matching `<% end %>`.
var BlockOpenerKeywords = map[string]bool{
	"if": true, "unless": true, "case": true, "begin": true,
	"while": true, "until": true, "for": true,
}

// MidBlockKeywords continue an already-open block at the opener's depth;
// they neither open nor close one.
var MidBlockKeywords = map[string]bool{
	"else": true, "elsif": true, "when": true, "rescue": true, "ensure": true,
}
