package joinz

import (
	"fmt"
	"maps"
	"math"
	"reflect"

	"github.com/go-viper/mapstructure/v2"
)

// Field keys with a dedicated place in Options when given as a mapping.
const (
	EnabledField = "enabled"
	ArgField     = "arg"
)

// Fields holds the plugin specific option values of an Options, e.g. the
// "separator" of the inline renderer. Nested Fields (or map[string]any)
// values are merged recursively.
type Fields map[string]any

// Settings are call-time plugin options keyed by plugin name. Values are
// shorthand and pass through Normalize; see Resolve for how they combine
// with a Joiner's stored configuration.
//
//	joinz.Join(items, joinz.Settings{
//	    "quote":  `"`,
//	    "inline": joinz.Fields{"conjunction": " or "},
//	})
type Settings map[Name]any

// RendererKey is the reserved Settings key selecting the renderer for a
// single call. Its value must be a string.
const RendererKey = "renderer"

// Options are the normalized options of one plugin.
//
// Enabled and Arg are optional: a nil Enabled means "not specified" and a
// nil Arg means no argument was given.
type Options struct {
	Enabled *bool
	Arg     any
	Fields  Fields
}

// Enable returns options with an explicit enabled flag.
func Enable(enabled bool) Options {
	return Options{Enabled: &enabled}
}

// IsEnabled reports whether the plugin is switched on. Unset means off.
func (o Options) IsEnabled() bool {
	return o.Enabled != nil && *o.Enabled
}

// HasEnabled reports whether the enabled flag was specified at all.
func (o Options) HasEnabled() bool {
	return o.Enabled != nil
}

// Field returns the raw value stored under key.
func (o Options) Field(key string) (any, bool) {
	v, ok := o.Fields[key]
	return v, ok
}

// String returns the field under key when it holds a string.
func (o Options) String(key string) (string, bool) {
	s, ok := o.Fields[key].(string)
	return s, ok
}

// Bool returns the field under key when it holds a bool.
func (o Options) Bool(key string) (bool, bool) {
	b, ok := o.Fields[key].(bool)
	return b, ok
}

// ArgString returns Arg when it holds a string.
func (o Options) ArgString() (string, bool) {
	s, ok := o.Arg.(string)
	return s, ok
}

// With returns a copy of o with key set to value.
func (o Options) With(key string, value any) Options {
	out := o.Clone()
	if out.Fields == nil {
		out.Fields = Fields{}
	}
	out.Fields[key] = value
	return out
}

// Clone returns a deep copy of o.
func (o Options) Clone() Options {
	out := Options{Arg: o.Arg}
	if o.Enabled != nil {
		enabled := *o.Enabled
		out.Enabled = &enabled
	}
	if o.Arg != nil {
		out.Arg = deepCopy(reflect.ValueOf(o.Arg))
	}
	if o.Fields != nil {
		out.Fields = cloneFields(o.Fields)
	}
	return out
}

// Decode copies the option fields into out, a pointer to a struct tagged for
// mapstructure. Arg and Enabled are made available under "arg" and "enabled".
// Decoding is weakly typed: "false" decodes into a bool, 4 into a string.
func (o Options) Decode(out any) error {
	input := make(map[string]any, len(o.Fields)+2)
	for k, v := range o.Fields {
		input[k] = v
	}
	if o.Arg != nil {
		input[ArgField] = o.Arg
	}
	if o.Enabled != nil {
		input[EnabledField] = *o.Enabled
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           out,
		TagName:          "mapstructure",
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	if err := decoder.Decode(input); err != nil {
		return fmt.Errorf("decode options: %w", err)
	}
	return nil
}

// Normalize turns a shorthand option value into Options:
//
//   - nil: {Enabled: false}
//   - bool: {Enabled: b}
//   - number, string, slice or array: {Arg: v}
//   - Options, or a mapping of string keys: taken as full options
//   - anything else: {Enabled: true}
//
// An "enabled" key in a mapping is always read as a flag by truthiness, so
// {"enabled": 0} is an explicit off. Normalize never fails.
func Normalize(v any) Options {
	switch val := v.(type) {
	case nil:
		return Enable(false)
	case bool:
		return Enable(val)
	case Options:
		return val.Clone()
	case *Options:
		if val == nil {
			return Enable(false)
		}
		return val.Clone()
	case Fields:
		return optionsFromMap(val)
	case map[string]any:
		return optionsFromMap(val)
	case string:
		return Options{Arg: val}
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr,
		reflect.Float32, reflect.Float64, reflect.String:
		return Options{Arg: v}
	case reflect.Slice, reflect.Array:
		return Options{Arg: deepCopy(rv)}
	case reflect.Map:
		if rv.Type().Key().Kind() == reflect.String {
			m := make(map[string]any, rv.Len())
			iter := rv.MapRange()
			for iter.Next() {
				m[iter.Key().String()] = iter.Value().Interface()
			}
			return optionsFromMap(m)
		}
	case reflect.Ptr:
		if rv.IsNil() {
			return Enable(false)
		}
	}
	return Enable(true)
}

func optionsFromMap(m map[string]any) Options {
	var out Options
	for k, v := range m {
		switch k {
		case EnabledField:
			enabled := truthy(v)
			out.Enabled = &enabled
			continue
		case ArgField:
			if v != nil {
				out.Arg = deepCopy(reflect.ValueOf(v))
			}
			continue
		}
		if out.Fields == nil {
			out.Fields = Fields{}
		}
		out.Fields[k] = cloneValue(v)
	}
	return out
}

// truthy reports whether v counts as switched on. nil, false, zero numbers,
// NaN, "" and nil references are false; everything else is true.
func truthy(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		f := rv.Float()
		return f != 0 && !math.IsNaN(f)
	case reflect.Bool:
		return rv.Bool()
	case reflect.String:
		return rv.Len() > 0
	case reflect.Ptr, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return !rv.IsNil()
	}
	return true
}

// MergeOptions merges over onto base. Values in over win at every level;
// nested field mappings are combined rather than replaced. Neither input is
// modified.
func MergeOptions(base, over Options) Options {
	out := base.Clone()
	if over.Enabled != nil {
		enabled := *over.Enabled
		out.Enabled = &enabled
	}
	if over.Arg != nil {
		out.Arg = deepCopy(reflect.ValueOf(over.Arg))
	}
	if over.Fields != nil {
		out.Fields = mergeFields(out.Fields, over.Fields)
	}
	return out
}

func mergeFields(base, over Fields) Fields {
	out := cloneFields(base)
	if out == nil {
		out = make(Fields, len(over))
	}
	for k, v := range over {
		overMap, overIsMap := asFields(v)
		baseMap, baseIsMap := asFields(out[k])
		if overIsMap && baseIsMap {
			out[k] = mergeFields(baseMap, overMap)
			continue
		}
		out[k] = cloneValue(v)
	}
	return out
}

func asFields(v any) (Fields, bool) {
	switch m := v.(type) {
	case Fields:
		return m, true
	case map[string]any:
		return Fields(m), true
	}
	return nil, false
}

func cloneFields(f Fields) Fields {
	if f == nil {
		return nil
	}
	out := maps.Clone(f)
	for k, v := range out {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v any) any {
	if m, ok := asFields(v); ok {
		return cloneFields(m)
	}
	if v == nil {
		return nil
	}
	return deepCopy(reflect.ValueOf(v))
}
