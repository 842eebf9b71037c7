package evaluator

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
)

// MarshalValue encodes a runtime value as JSON. Map entries keep their
// insertion order. Function references encode as {"$fn": name}.
func MarshalValue(v Value) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeJSON(&buf, v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, v Value) error {
	switch val := v.(type) {
	case nil:
		buf.WriteString("null")
	case *Number:
		buf.WriteString(formatNumber(val.Value))
	case *Bool:
		buf.WriteString(strconv.FormatBool(val.Value))
	case *String:
		b, err := json.Marshal(val.Value)
		if err != nil {
			return err
		}
		buf.Write(b)
	case *Array:
		buf.WriteByte('[')
		for i, elem := range val.Elems {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, elem); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case *Map:
		buf.WriteByte('{')
		for i, pair := range val.Pairs {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(pair.Key)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeJSON(buf, pair.Value); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case *FuncRef:
		name, err := json.Marshal(val.Name)
		if err != nil {
			return err
		}
		buf.WriteString(`{"$fn":`)
		buf.Write(name)
		buf.WriteByte('}')
	default:
		return fmt.Errorf("cannot encode value of type %s", v.Type())
	}
	return nil
}

// formatNumber renders integral numbers without a decimal point.
func formatNumber(f float64) string {
	if f == math.Trunc(f) && !math.IsInf(f, 0) && math.Abs(f) < 1e15 {
		return strconv.FormatFloat(f, 'f', 0, 64)
	}
	return strconv.FormatFloat(f, 'g', -1, 64)
}
