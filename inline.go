package joinz

import (
	"context"
	"fmt"
	"strings"
)

// Inline renderer name and defaults.
const (
	InlineName         Name = "inline"
	DefaultSeparator        = ", "
	DefaultConjunction      = " & "
)

// Inline option fields.
const (
	SeparatorField   = "separator"
	ConjunctionField = "conjunction"
)

// Inline joins data on a single line: every element but the last separated by
// the "separator" field, the last attached with the "conjunction" field.
//
//	[]string{"a", "b", "c"} // "a, b & c"
//
// Scalars render as their string form. Mappings render each entry as
// "key=value". Non-string separator or conjunction values fall back to the
// defaults.
func Inline(_ context.Context, data Data, opts Options) (string, error) {
	var parts []string
	switch data.Shape {
	case SequenceShape:
		parts = make([]string, len(data.Items))
		for i, item := range data.Items {
			parts[i] = fmt.Sprint(item)
		}
	case MappingShape:
		parts = make([]string, len(data.Entries))
		for i, e := range data.Entries {
			parts[i] = fmt.Sprintf("%v=%v", e.Key, e.Value)
		}
	default:
		return fmt.Sprint(data.Scalar), nil
	}

	switch len(parts) {
	case 0:
		return "", nil
	case 1:
		return parts[0], nil
	}

	separator, ok := opts.String(SeparatorField)
	if !ok {
		separator = DefaultSeparator
	}
	conjunction, ok := opts.String(ConjunctionField)
	if !ok {
		conjunction = DefaultConjunction
	}

	last := len(parts) - 1
	var b strings.Builder
	b.WriteString(strings.Join(parts[:last], separator))
	b.WriteString(conjunction)
	b.WriteString(parts[last])
	return b.String(), nil
}
