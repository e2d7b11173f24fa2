package joinz

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestNewData(t *testing.T) {
	tests := []struct {
		input any
		want  Data
		name  string
	}{
		{name: "nil", input: nil, want: Data{Shape: ScalarShape}},
		{name: "string", input: "x", want: Data{Shape: ScalarShape, Scalar: "x"}},
		{name: "nil slice", input: []int(nil), want: Data{Shape: SequenceShape, Items: []any{}}},
		{name: "slice", input: []int{1, 2}, want: Data{Shape: SequenceShape, Items: []any{1, 2}}},
		{name: "array", input: [2]string{"a", "b"}, want: Data{Shape: SequenceShape, Items: []any{"a", "b"}}},
		{
			name:  "map sorted by key",
			input: map[string]int{"b": 2, "c": 3, "a": 1},
			want: Data{Shape: MappingShape, Entries: []Entry{
				{Key: "a", Value: 1}, {Key: "b", Value: 2}, {Key: "c", Value: 3},
			}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, NewData(tt.input)); diff != "" {
				t.Errorf("NewData mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestNewData_DeepCopy(t *testing.T) {
	nested := []any{[]string{"x"}, map[string]int{"n": 1}}
	data := NewData(nested)

	data.Items[0].([]string)[0] = "changed"
	data.Items[1].(map[string]int)["n"] = 2

	if nested[0].([]string)[0] != "x" {
		t.Error("expected nested slice to be copied")
	}
	if nested[1].(map[string]int)["n"] != 1 {
		t.Error("expected nested map to be copied")
	}
}

func TestData_Clone(t *testing.T) {
	original := NewData([]any{[]int{1}, "a"})
	clone := original.Clone()

	clone.Items[0].([]int)[0] = 9
	clone.Items[1] = "b"

	if original.Items[0].([]int)[0] != 1 || original.Items[1] != "a" {
		t.Errorf("expected original to be untouched, got %v", original.Items)
	}
}

func TestData_Len(t *testing.T) {
	if n := NewData([]int{1, 2, 3}).Len(); n != 3 {
		t.Errorf("expected 3, got %d", n)
	}
	if n := NewData(map[int]int{1: 1}).Len(); n != 1 {
		t.Errorf("expected 1, got %d", n)
	}
	if n := NewData("x").Len(); n != 1 {
		t.Errorf("expected scalar length 1, got %d", n)
	}
}
