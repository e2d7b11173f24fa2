package joinz

import (
	"context"
	"fmt"
	"reflect"
	"sort"
)

// Name identifies a plugin or a configuration shortcut.
// Every name lives in a single shared namespace: a pre-processor, a renderer,
// a post-processor and a shortcut can never share a name, and none of them
// may shadow a Joiner member such as "join" or "with".
//
// Storing names as constants keeps lookups typo-free:
//
//	const UppercaseName joinz.Name = "uppercase"
type Name = string

// Kind describes which part of the pipeline a registered name belongs to.
type Kind int

// Registered name kinds.
const (
	PreProcessorKind Kind = iota + 1
	RendererKind
	PostProcessorKind
	ShortcutKind
	reservedKind
)

// String returns the human readable form of the kind.
func (k Kind) String() string {
	switch k {
	case PreProcessorKind:
		return "pre-processor"
	case RendererKind:
		return "renderer"
	case PostProcessorKind:
		return "post-processor"
	case ShortcutKind:
		return "shortcut"
	case reservedKind:
		return "joiner member"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// PreProcessor transforms the working copy of the input in place before it
// is rendered. It only ever sees a private copy, so mutating Data is safe.
type PreProcessor func(ctx context.Context, data *Data, opts Options) error

// Renderer produces the joined string from the (pre-processed) data.
type Renderer func(ctx context.Context, data Data, opts Options) (string, error)

// PostProcessor transforms the rendered string. Post-processors are threaded:
// each receives the output of the previous one.
type PostProcessor func(ctx context.Context, s string, opts Options) (string, error)

// Shape describes the structure of the value a pipeline is working on.
type Shape int

// Data shapes.
const (
	ScalarShape Shape = iota
	SequenceShape
	MappingShape
)

// Entry is a single key/value pair of mapping input.
type Entry struct {
	Key   any
	Value any
}

// Data is the working copy of a Join input.
//
// Slices and arrays become a sequence, maps become a mapping whose entries are
// ordered by the string form of their keys, and everything else is a scalar.
// Pre-processors may change Items and Entries freely; the caller's value is
// never touched.
type Data struct {
	Scalar  any
	Items   []any
	Entries []Entry
	Shape   Shape
}

// NewData builds a deep copy of v shaped for the pipeline.
func NewData(v any) Data {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return Data{Shape: ScalarShape}
	}
	switch rv.Kind() {
	case reflect.Slice:
		if rv.IsNil() {
			return Data{Shape: SequenceShape, Items: []any{}}
		}
		fallthrough
	case reflect.Array:
		items := make([]any, rv.Len())
		for i := range items {
			items[i] = deepCopy(rv.Index(i))
		}
		return Data{Shape: SequenceShape, Items: items}
	case reflect.Map:
		entries := make([]Entry, 0, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			entries = append(entries, Entry{
				Key:   iter.Key().Interface(),
				Value: deepCopy(iter.Value()),
			})
		}
		sort.SliceStable(entries, func(i, j int) bool {
			return fmt.Sprint(entries[i].Key) < fmt.Sprint(entries[j].Key)
		})
		return Data{Shape: MappingShape, Entries: entries}
	default:
		return Data{Shape: ScalarShape, Scalar: v}
	}
}

// Clone returns a deep copy of d.
func (d Data) Clone() Data {
	out := Data{Shape: d.Shape, Scalar: d.Scalar}
	if d.Items != nil {
		out.Items = make([]any, len(d.Items))
		for i, item := range d.Items {
			out.Items[i] = deepCopy(reflect.ValueOf(item))
		}
	}
	if d.Entries != nil {
		out.Entries = make([]Entry, len(d.Entries))
		for i, e := range d.Entries {
			out.Entries[i] = Entry{Key: e.Key, Value: deepCopy(reflect.ValueOf(e.Value))}
		}
	}
	return out
}

// Len reports the number of elements of a sequence or mapping. Scalars have length 1.
func (d Data) Len() int {
	switch d.Shape {
	case SequenceShape:
		return len(d.Items)
	case MappingShape:
		return len(d.Entries)
	default:
		return 1
	}
}

// deepCopy copies slices, arrays and maps recursively. Other values,
// pointers included, are returned as they are.
func deepCopy(rv reflect.Value) any {
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Interface {
		if rv.IsNil() {
			return rv.Interface()
		}
		return deepCopy(rv.Elem())
	}
	return copyValue(rv).Interface()
}

func copyValue(rv reflect.Value) reflect.Value {
	switch rv.Kind() {
	case reflect.Interface:
		if rv.IsNil() {
			return rv
		}
		out := reflect.New(rv.Type()).Elem()
		out.Set(copyValue(rv.Elem()))
		return out
	case reflect.Slice:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeSlice(rv.Type(), rv.Len(), rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyValue(rv.Index(i)))
		}
		return out
	case reflect.Array:
		out := reflect.New(rv.Type()).Elem()
		for i := 0; i < rv.Len(); i++ {
			out.Index(i).Set(copyValue(rv.Index(i)))
		}
		return out
	case reflect.Map:
		if rv.IsNil() {
			return rv
		}
		out := reflect.MakeMapWithSize(rv.Type(), rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			out.SetMapIndex(iter.Key(), copyValue(iter.Value()))
		}
		return out
	default:
		return rv
	}
}
