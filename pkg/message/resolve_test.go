package message

import "testing"

func TestResolve(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		template string
		args     []any
		want     string
		wantOK   bool
	}{
		{"nil template nil arg", "", []any{nil}, "", false},
		{"blank template no args", "   ", nil, "", false},
		{"template nil arg", "hello", []any{nil}, "hello", true},
		{"template no args keeps placeholder", "hello {}", nil, "hello {}", true},
		{"single placeholder", "hello {}", []any{"sir"}, "hello sir", true},
		{"two placeholders", "hello {} {}", []any{"kind", "sir"}, "hello kind sir", true},
		{"blank template single arg verbatim", "", []any{"hello {}"}, "hello {}", true},
		{"blank template arg becomes template", "", []any{"hello {}", "sir"}, "hello sir", true},
		{"excess placeholders stay literal", "a {} {}", []any{"x"}, "a x {}", true},
		{"excess args ignored", "a {}", []any{"x", "y"}, "a x", true},
		{"non-string args", "{} items in {}ms", []any{3, 1.5}, "3 items in 1.5ms", true},
		{"nil later arg", "value={}", []any{"", nil}, "value=", true},
		{"substituted placeholders are not rescanned", "a {} {}", []any{"{}", "x"}, "a {} x", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, ok := Resolve(tt.template, tt.args...)
			if ok != tt.wantOK {
				t.Fatalf("Resolve() ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("Resolve() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestResolve_NilArgRendersNull(t *testing.T) {
	t.Parallel()
	got, ok := Resolve("a {} b {}", "x", nil)
	if !ok || got != "a x b null" {
		t.Errorf("Resolve() = %q, %v", got, ok)
	}
}

func TestFormat(t *testing.T) {
	t.Parallel()
	if got := Format(""); got != "" {
		t.Errorf("Format(\"\") = %q, want empty", got)
	}
	if got := Format("id {} not found", 42); got != "id 42 not found" {
		t.Errorf("Format() = %q", got)
	}
}
