package interp

import "testing"

func TestConvert(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"plain text", "hello", "hello"},
		{"simple interpolation", "Hello #{name}!", "Hello <%= name %>!"},
		{"escaped opener", `\#{x}`, "#{x}"},
		{"nested braces", "Total: #{items.sum { |i| i.price }}", "Total: <%= items.sum { |i| i.price } %>"},
		{"double-quoted string inside body", `#{"a #{b} c"}`, `<%= "a #{b} c" %>`},
		{"single-quoted string inside body, braces inert", `#{'{'}`, `<%= '{' %>`},
		{"multiple interpolations", "#{a} and #{b}", "<%= a %> and <%= b %>"},
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

func TestConvertUnclosed(t *testing.T) {
	_, err := Convert("#{foo")
	if err == nil {
		t.Fatal("expected error for unclosed interpolation")
	}
}

func TestConvertEscapedOpenerRoundTrip(t *testing.T) {
	got, err := Convert(`\#{x}`)
	if err != nil {
		t.Fatal(err)
	}
	if got != "#{x}" {
		t.Errorf("escaped interpolation should survive as literal, got %q", got)
	}
}
