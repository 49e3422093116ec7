package attrs

import (
	"strings"
	"testing"

	"github.com/tmplconv/haml2erb/internal/haml/ast"
)

func TestBuildShorthandOnly(t *testing.T) {
	got, warns := Build([]ast.Attr{{Key: "class", Value: "foo"}, {Key: "id", Value: "bar"}}, nil, ObjectRef{})
	if len(warns) != 0 {
		t.Fatalf("unexpected warnings: %v", warns)
	}
	if got != ` class="foo" id="bar"` {
		t.Errorf("got %q", got)
	}
}

func TestBuildClassMerge(t *testing.T) {
	// %nav.page-nav{ class: "navbar" } -> exactly one class="page-nav navbar"
	got, _ := Build([]ast.Attr{{Key: "class", Value: "page-nav"}}, []string{`{ class: "navbar" }`}, ObjectRef{})
	if strings.Count(got, "class=") != 1 {
		t.Fatalf("expected exactly one class attribute, got %q", got)
	}
	if got != ` class="page-nav navbar"` {
		t.Errorf("got %q", got)
	}
}

func TestBuildBooleanAttribute(t *testing.T) {
	got, _ := Build(nil, []string{`{ disabled: true }`}, ObjectRef{})
	if got != ` disabled` {
		t.Errorf("got %q", got)
	}
	got, _ = Build(nil, []string{`{ disabled: false }`}, ObjectRef{})
	if got != `` {
		t.Errorf("got %q", got)
	}
}

func TestBuildAriaFalseIsStringified(t *testing.T) {
	got, _ := Build(nil, []string{`{ "aria-expanded": false }`}, ObjectRef{})
	if got != ` aria-expanded="false"` {
		t.Errorf("got %q", got)
	}
}

func TestBuildDynamicBoolean(t *testing.T) {
	got, _ := Build(nil, []string{`{ checked: is_checked }`}, ObjectRef{})
	if !strings.Contains(got, `<%= 'checked' if (is_checked) %>`) {
		t.Errorf("got %q", got)
	}
}

func TestBuildNestedMapNoEntityEncoding(t *testing.T) {
	got, _ := Build(nil, []string{`{ data: { action: "change->form#submit" } }`}, ObjectRef{})
	if !strings.Contains(got, `data-action="change->form#submit"`) {
		t.Errorf("got %q", got)
	}
}

func TestBuildHashSplatWarns(t *testing.T) {
	got, warns := Build(nil, []string{`{ **extra, alt: "x" }`}, ObjectRef{})
	if len(warns) != 1 || !strings.Contains(warns[0].Message, "Double splat") {
		t.Fatalf("expected a Double splat warning, got %v", warns)
	}
	if !strings.Contains(got, `alt="x"`) {
		t.Errorf("got %q", got)
	}
}

func TestParseObjectRef(t *testing.T) {
	ref := ParseObjectRef("@item, :row")
	if ref.ClassCode != `<%= "row_" + @item.class.name.underscore %>` {
		t.Errorf("class code = %q", ref.ClassCode)
	}
	if ref.IDCode != `<%= "row_" + @item.class.name.underscore + '_' + @item.to_key.first.to_s %>` {
		t.Errorf("id code = %q", ref.IDCode)
	}
}

func TestBuildDynamicClassMergesWithShorthand(t *testing.T) {
	// %a.btn{ class: classes_for(x) } must produce a single class=
	// attribute, not one from the shorthand and a second from the
	// dynamic hash.
	got, _ := Build([]ast.Attr{{Key: "class", Value: "btn"}}, []string{`{ class: classes_for(x) }`}, ObjectRef{})
	if strings.Count(got, "class=") != 1 {
		t.Fatalf("expected exactly one class attribute, got %q", got)
	}
	want := ` class="btn <%= classes_for(x) %>"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildDynamicBracketClassMergesWithShorthand(t *testing.T) {
	// A bracketed value that isn't a fully-static slice (e.g. it holds a
	// bareword variable reference) takes the dynamic-array branch, which
	// must merge into class/id the same way the plain dynamic-scalar
	// branch does.
	got, _ := Build([]ast.Attr{{Key: "id", Value: "row"}}, []string{`{ id: [row_id] }`}, ObjectRef{})
	if strings.Count(got, "id=") != 1 {
		t.Fatalf("expected exactly one id attribute, got %q", got)
	}
	want := ` id="row <%= [row_id] %>"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestBuildClassIDOrdering(t *testing.T) {
	// shorthand precedes static-hash/dynamic-hash precedes object-ref.
	ref := ParseObjectRef("@item")
	got, _ := Build(
		[]ast.Attr{{Key: "class", Value: "shorthand"}},
		[]string{`{ class: "hashed" }`},
		ref,
	)
	want := ` class="shorthand hashed <%= @item.class.name.underscore %>" id="<%= @item.class.name.underscore + '_' + @item.to_key.first.to_s %>"`
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}
