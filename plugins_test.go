package joinz

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestInline(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		opts Options
		name string
		want string
		data Data
	}{
		{name: "empty", data: NewData([]string{}), want: ""},
		{name: "single", data: NewData([]string{"a"}), want: "a"},
		{name: "two", data: NewData([]string{"a", "b"}), want: "a & b"},
		{name: "many", data: NewData([]string{"a", "b", "c", "d"}), want: "a, b, c & d"},
		{name: "scalar", data: NewData(3.5), want: "3.5"},
		{name: "mapping", data: NewData(map[string]string{"y": "2", "x": "1"}), want: "x=1 & y=2"},
		{
			name: "custom",
			data: NewData([]string{"a", "b", "c"}),
			opts: Options{Fields: Fields{SeparatorField: " | ", ConjunctionField: " || "}},
			want: "a | b || c",
		},
		{
			name: "empty strings are valid",
			data: NewData([]string{"a", "b", "c"}),
			opts: Options{Fields: Fields{SeparatorField: "", ConjunctionField: ""}},
			want: "abc",
		},
		{
			name: "non-string falls back",
			data: NewData([]string{"a", "b", "c"}),
			opts: Options{Fields: Fields{SeparatorField: 1, ConjunctionField: true}},
			want: "a, b & c",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Inline(ctx, tt.data, tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestQuote(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		opts Options
		name string
		want []any
	}{
		{name: "default", want: []any{"'a'", "'1'"}},
		{name: "arg mirrored", opts: Options{Arg: "("}, want: []any{"(a)", "(1)"}},
		{name: "multi rune arg", opts: Options{Arg: "<<"}, want: []any{"<<a>>", "<<1>>"}},
		{name: "quoteWith", opts: Options{Fields: Fields{"quoteWith": "["}}, want: []any{"[a]", "[1]"}},
		{
			name: "arg beats quoteWith",
			opts: Options{Arg: `"`, Fields: Fields{"quoteWith": "["}},
			want: []any{`"a"`, `"1"`},
		},
		{
			name: "mirror off",
			opts: Options{Fields: Fields{"quoteWith": "(", "mirror": false}},
			want: []any{"(a(", "(1("},
		},
		{name: "non-string arg ignored", opts: Options{Arg: 7}, want: []any{"'a'", "'1'"}},
		{name: "empty arg falls back", opts: Options{Arg: ""}, want: []any{"'a'", "'1'"}},
		{name: "numeric quoteWith", opts: Options{Fields: Fields{"quoteWith": 5}}, want: []any{"'a'", "'1'"}},
		{name: "slice quoteWith", opts: Options{Fields: Fields{"quoteWith": []string{"<"}}}, want: []any{"'a'", "'1'"}},
		{name: "empty quoteWith", opts: Options{Fields: Fields{"quoteWith": ""}}, want: []any{"'a'", "'1'"}},
		{
			name: "truthy mirror",
			opts: Options{Fields: Fields{"quoteWith": "(", "mirror": "yes"}},
			want: []any{"(a)", "(1)"},
		},
		{
			name: "zero mirror",
			opts: Options{Fields: Fields{"quoteWith": "(", "mirror": 0}},
			want: []any{"(a(", "(1("},
		},
		{
			name: "empty string mirror",
			opts: Options{Fields: Fields{"quoteWith": "(", "mirror": ""}},
			want: []any{"(a(", "(1("},
		},
		{
			name: "nil mirror",
			opts: Options{Fields: Fields{"quoteWith": "(", "mirror": nil}},
			want: []any{"(a(", "(1("},
		},
		{
			name: "slice mirror",
			opts: Options{Fields: Fields{"quoteWith": "(", "mirror": []int{1, 2}}},
			want: []any{"(a)", "(1)"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := NewData([]any{"a", 1})
			if err := Quote(ctx, &data, tt.opts); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if diff := cmp.Diff(tt.want, data.Items); diff != "" {
				t.Errorf("items mismatch (-want +got):\n%s", diff)
			}
		})
	}

	t.Run("Non Sequences Untouched", func(t *testing.T) {
		scalar := NewData("a")
		if err := Quote(ctx, &scalar, Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if scalar.Scalar != "a" {
			t.Errorf("expected scalar unchanged, got %v", scalar.Scalar)
		}

		mapping := NewData(map[string]string{"k": "v"})
		if err := Quote(ctx, &mapping, Options{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if mapping.Entries[0].Value != "v" {
			t.Errorf("expected mapping unchanged, got %v", mapping.Entries[0].Value)
		}
	})
}

func TestWrap(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		opts Options
		name string
		want string
	}{
		{name: "default", want: "(x)"},
		{name: "square", opts: Options{Arg: "["}, want: "[x]"},
		{name: "curly", opts: Options{Fields: Fields{"wrapWith": "{"}}, want: "{x}"},
		{name: "mirror off", opts: Options{Arg: "*", Fields: Fields{"mirror": false}}, want: "*x*"},
		{name: "asymmetric", opts: Options{Arg: "-<"}, want: "-<x>-"},
		{name: "unmapped characters", opts: Options{Arg: "ab"}, want: "abxba"},
		{name: "inverted punctuation", opts: Options{Arg: "¡"}, want: "¡x!"},
		{name: "mapping wrapWith", opts: Options{Fields: Fields{"wrapWith": map[string]any{"a": 1}}}, want: "(x)"},
		{name: "numeric wrapWith", opts: Options{Fields: Fields{"wrapWith": 5}}, want: "(x)"},
		{name: "truthy mirror", opts: Options{Arg: "[", Fields: Fields{"mirror": "yes"}}, want: "[x]"},
		{name: "zero mirror", opts: Options{Arg: "(", Fields: Fields{"mirror": 0}}, want: "(x("},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Wrap(ctx, "x", tt.opts)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
