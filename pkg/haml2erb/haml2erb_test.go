package haml2erb

import "testing"

// TestConvertScenarios encodes the whole-output scenarios that need no
// setup: a plain div, a void self-closing element, shorthand class/id, and
// a doctype pair. The class merge, boolean attributes, object reference and
// if/else block have their own tests below.
func TestConvertScenarios(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"empty div", "%div", "<div></div>\n"},
		{"void self-closing", "%br/", "<br>\n"},
		{"shorthand class and id", "%div.foo#bar", `<div class="foo" id="bar"></div>` + "\n"},
		{"doctype xml", "!!! XML", `<?xml version="1.0" encoding="UTF-8"?>` + "\n"},
		{"doctype html", "!!! Strict", "<!DOCTYPE html>\n"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Convert(c.in)
			if err != nil {
				t.Fatalf("Convert(%q) error: %v", c.in, err)
			}
			if got != c.want {
				t.Errorf("Convert(%q) = %q, want %q", c.in, got, c.want)
			}
		})
	}
}

func TestConvertClassMerge(t *testing.T) {
	got, err := Convert(`%nav.page-nav{ class: "navbar" }`)
	if err != nil {
		t.Fatal(err)
	}
	want := `<nav class="page-nav navbar"></nav>` + "\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertBooleanAttributes(t *testing.T) {
	got, err := Convert(`%input{ disabled: true }`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<input disabled>\n" {
		t.Errorf("got %q", got)
	}

	got, err = Convert(`%input{ disabled: false }`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "<input>\n" {
		t.Errorf("got %q", got)
	}
}

func TestConvertObjectReference(t *testing.T) {
	got, err := Convert(`%tr[@item, :row]`)
	if err != nil {
		t.Fatal(err)
	}
	want := `<tr class="<%= "row_" + @item.class.name.underscore %>" id="<%= "row_" + @item.class.name.underscore + '_' + @item.to_key.first.to_s %>"></tr>` + "\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertIfElse(t *testing.T) {
	src := "- if a\n  %p A\n- else\n  %p B\n"
	got, err := Convert(src)
	if err != nil {
		t.Fatal(err)
	}
	want := "<% if a %>\n  <p>A</p>\n<% else %>\n  <p>B</p>\n<% end %>\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestConvertAndValidateBalanced(t *testing.T) {
	res, err := ConvertAndValidate("%div\n  %p hi\n", nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Errors) != 0 {
		t.Errorf("expected no validation errors, got %v", res.Errors)
	}
}

func TestConvertSyntaxErrorHasNoPartialOutput(t *testing.T) {
	got, err := Convert("%div{ unclosed")
	if err == nil {
		t.Fatal("expected a syntax error for an unclosed tag attribute")
	}
	if got != "" {
		t.Errorf("expected no partial output, got %q", got)
	}
}
