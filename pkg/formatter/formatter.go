// Package formatter renders runtime values back to source-literal text.
package formatter

import (
	"strconv"
	"strings"

	"github.com/matan45/intercpp/pkg/evaluator"
)

// FormatValue renders a value the way it would be written in a script:
// strings quoted, arrays bracketed, maps braced with insertion order
// preserved, objects prefixed with their class name.
func FormatValue(v evaluator.Value) string {
	var b strings.Builder
	writeValue(&b, v)
	return b.String()
}

// FormatBare renders strings without quotes and everything else like
// FormatValue. print uses it for its top-level arguments.
func FormatBare(v evaluator.Value) string {
	if s, ok := v.(*evaluator.String); ok {
		return s.Value
	}
	return FormatValue(v)
}

func writeValue(b *strings.Builder, v evaluator.Value) {
	switch val := v.(type) {
	case nil:
		b.WriteString("void")
	case *evaluator.Number:
		b.WriteString(FormatNumber(val.Value))
	case *evaluator.Bool:
		b.WriteString(strconv.FormatBool(val.Value))
	case *evaluator.String:
		b.WriteString(strconv.Quote(val.Value))
	case *evaluator.Array:
		b.WriteByte('[')
		for i, elem := range val.Elems {
			if i > 0 {
				b.WriteString(", ")
			}
			writeValue(b, elem)
		}
		b.WriteByte(']')
	case *evaluator.Map:
		if val.Class != "" {
			b.WriteString(val.Class)
			b.WriteByte(' ')
		}
		b.WriteByte('{')
		n := 0
		for _, pair := range val.Pairs {
			// Instances format their data members only.
			if _, isFn := pair.Value.(*evaluator.FuncRef); isFn && val.Class != "" {
				continue
			}
			if n > 0 {
				b.WriteString(", ")
			}
			b.WriteString(strconv.Quote(pair.Key))
			b.WriteString(": ")
			writeValue(b, pair.Value)
			n++
		}
		b.WriteByte('}')
	case *evaluator.FuncRef:
		b.WriteString("<fn ")
		b.WriteString(val.Name)
		b.WriteByte('>')
	default:
		b.WriteString("<" + v.Type() + ">")
	}
}

// FormatNumber renders integral numbers without a decimal point and
// everything else in shortest-roundtrip form.
func FormatNumber(f float64) string {
	if f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
