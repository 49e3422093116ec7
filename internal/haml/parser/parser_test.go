package parser

import (
	"testing"

	"github.com/tmplconv/haml2erb/internal/haml/ast"
)

func TestParseSimpleTag(t *testing.T) {
	root, err := Parse("%div")
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(root.Children))
	}
	tag, ok := root.Children[0].(ast.Tag)
	if !ok || tag.Name != "div" {
		t.Fatalf("got %+v", root.Children[0])
	}
}

func TestParseShorthandClassID(t *testing.T) {
	root, err := Parse("%div.foo#bar")
	if err != nil {
		t.Fatal(err)
	}
	tag := root.Children[0].(ast.Tag)
	if tag.Name != "div" {
		t.Fatalf("name = %q", tag.Name)
	}
	var gotClass, gotID string
	for _, a := range tag.Attributes {
		if a.Key == "class" {
			gotClass = a.Value
		}
		if a.Key == "id" {
			gotID = a.Value
		}
	}
	if gotClass != "foo" || gotID != "bar" {
		t.Errorf("class=%q id=%q", gotClass, gotID)
	}
}

func TestParseImplicitDivFromClass(t *testing.T) {
	root, err := Parse(".foo")
	if err != nil {
		t.Fatal(err)
	}
	tag := root.Children[0].(ast.Tag)
	if tag.Name != "div" {
		t.Errorf("expected implicit div, got %q", tag.Name)
	}
}

func TestParseNestedChildren(t *testing.T) {
	src := "%div\n  %p\n    text\n"
	root, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	div := root.Children[0].(ast.Tag)
	if len(div.Children) != 1 {
		t.Fatalf("expected 1 child, got %d", len(div.Children))
	}
	p := div.Children[0].(ast.Tag)
	if p.Name != "p" || len(p.Children) != 1 {
		t.Fatalf("got %+v", p)
	}
	plain := p.Children[0].(ast.Plain)
	if plain.Text != "text" {
		t.Errorf("got %q", plain.Text)
	}
}

func TestParseIfElseNestsContinuation(t *testing.T) {
	src := "- if a\n  %p A\n- else\n  %p B\n"
	root, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 1 {
		t.Fatalf("expected the if/else to collapse into one top-level node, got %d", len(root.Children))
	}
	opener := root.Children[0].(ast.SilentScript)
	if opener.Keyword != "if" {
		t.Fatalf("got keyword %q", opener.Keyword)
	}
	if len(opener.Children) != 2 {
		t.Fatalf("expected 2 children (the <p>A and the else branch), got %d", len(opener.Children))
	}
	if _, ok := opener.Children[0].(ast.Tag); !ok {
		t.Errorf("first child should be the <p>A tag, got %T", opener.Children[0])
	}
	elseNode, ok := opener.Children[1].(ast.SilentScript)
	if !ok || elseNode.Keyword != "else" {
		t.Fatalf("second child should be the else continuation, got %+v", opener.Children[1])
	}
	if len(elseNode.Children) != 1 {
		t.Fatalf("expected the else branch to carry <p>B, got %d children", len(elseNode.Children))
	}
}

func TestParseObjectRefTag(t *testing.T) {
	root, err := Parse("%tr[@item, :row]")
	if err != nil {
		t.Fatal(err)
	}
	tag := root.Children[0].(ast.Tag)
	if !tag.HasObjectRef || tag.ObjectRef != "@item, :row" {
		t.Errorf("got %+v", tag)
	}
}

func TestParseDynamicAttrsOldAndNew(t *testing.T) {
	root, err := Parse(`%div{ class: "a" }{ id: "b" }`)
	if err != nil {
		t.Fatal(err)
	}
	tag := root.Children[0].(ast.Tag)
	if !tag.HasDynamicOld || tag.DynamicAttrsOld != `{ class: "a" }` {
		t.Errorf("old = %q", tag.DynamicAttrsOld)
	}
	if !tag.HasDynamicNew || tag.DynamicAttrsNew != `{ id: "b" }` {
		t.Errorf("new = %q", tag.DynamicAttrsNew)
	}
}

func TestParseSelfClosing(t *testing.T) {
	root, err := Parse("%br/")
	if err != nil {
		t.Fatal(err)
	}
	tag := root.Children[0].(ast.Tag)
	if !tag.SelfClosing {
		t.Error("expected self-closing")
	}
}

func TestParseFilterBodyIsRaw(t *testing.T) {
	src := ":javascript\n  alert(1);\n  alert(2);\n"
	root, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	f := root.Children[0].(ast.Filter)
	if f.Name != "javascript" {
		t.Fatalf("got %q", f.Name)
	}
	want := "alert(1);\nalert(2);\n"
	if f.Text != want {
		t.Errorf("got %q, want %q", f.Text, want)
	}
}

func TestParseHamlCommentSkipsBody(t *testing.T) {
	src := "-# a comment\n  %p never emitted\n%div\n"
	root, err := Parse(src)
	if err != nil {
		t.Fatal(err)
	}
	if len(root.Children) != 2 {
		t.Fatalf("expected the comment plus the trailing div, got %d", len(root.Children))
	}
	if _, ok := root.Children[0].(ast.HamlComment); !ok {
		t.Errorf("first child should be a haml comment, got %T", root.Children[0])
	}
}

func TestParseMidBlockContinuationWithoutOpenerErrors(t *testing.T) {
	_, err := Parse("- else\n  %p B\n")
	if err == nil {
		t.Fatal("expected an error for a dangling else")
	}
}
