package static

import "testing"

func TestParseFragmentScalars(t *testing.T) {
	cases := []struct {
		in       string
		wantKind Kind
	}{
		{`"foo"`, KindString},
		{`'foo'`, KindString},
		{":sym", KindSymbol},
		{"42", KindInt},
		{"3.14", KindFloat},
		{"true", KindBool},
		{"false", KindBool},
		{"nil", KindDynamic}, // literal nil forces the whole fragment dynamic
		{"some_method", KindDynamic},
		{`"interp #{x}"`, KindDynamic},
	}
	for _, c := range cases {
		got := ParseFragment(c.in)
		if got.Kind != c.wantKind {
			t.Errorf("ParseFragment(%q).Kind = %v, want %v", c.in, got.Kind, c.wantKind)
		}
	}
}

func TestParseFragmentMap(t *testing.T) {
	v := ParseFragment(`{ action: "change", count: 3 }`)
	if v.IsDynamic() {
		t.Fatal("expected static map")
	}
	if v.Kind != KindMap || len(v.Map) != 2 {
		t.Fatalf("got %+v", v)
	}
	if v.Map[0].Key != "action" || v.Map[0].Value.Str != "change" {
		t.Errorf("unexpected first entry: %+v", v.Map[0])
	}
}

func TestParseFragmentNestedMapWithNilIsDynamic(t *testing.T) {
	v := ParseFragment(`{ a: { b: nil } }`)
	if !v.IsDynamic() {
		t.Error("nested nil should force the whole fragment dynamic")
	}
}

func TestParseFragmentSlice(t *testing.T) {
	v := ParseFragment(`["a", "b", 3]`)
	if v.IsDynamic() || v.Kind != KindSlice || len(v.Slice) != 3 {
		t.Fatalf("got %+v", v)
	}
}

func TestParseFragmentHashSplatIsDynamic(t *testing.T) {
	v := ParseFragment(`{ **extra, alt: "x" }`)
	if !v.IsDynamic() {
		t.Error("hash-splat should force dynamic")
	}
}

func TestParseFragmentTrailingGarbageIsDynamic(t *testing.T) {
	v := ParseFragment(`"foo" + bar`)
	if !v.IsDynamic() {
		t.Error("trailing content after a literal should force dynamic")
	}
}
