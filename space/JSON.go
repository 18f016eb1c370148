package space

import (
	"bytes"
	"math"
	"strconv"

	"github.com/tidwall/sjson"
)

// MarshalJSON encodes the space in the wire schema, e.g.
// {"name":"Discrete","n":4}
func (d Discrete) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(nil, "name", "Discrete")
	if err != nil {
		return nil, err
	}
	return sjson.SetBytes(out, "n", d.N)
}

// MarshalJSON encodes the space in the wire schema. Infinite bounds are
// written as the literals Infinity and -Infinity, as the server does.
func (b Box) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(nil, "name", "Box")
	if err != nil {
		return nil, err
	}
	shape := b.Shape
	if shape == nil {
		shape = []uint64{}
	}
	if out, err = sjson.SetBytes(out, "shape", shape); err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "low", MarshalReals(b.Low)); err != nil {
		return nil, err
	}
	return sjson.SetRawBytes(out, "high", MarshalReals(b.High))
}

// MarshalJSON encodes the space as {"name":"Tuple","spaces":[...]}
func (t Tuple) MarshalJSON() ([]byte, error) {
	out, err := sjson.SetBytes(nil, "name", "Tuple")
	if err != nil {
		return nil, err
	}
	if out, err = sjson.SetRawBytes(out, "spaces", []byte("[]")); err != nil {
		return nil, err
	}
	for _, child := range t.Spaces {
		raw, err := child.(interface{ MarshalJSON() ([]byte, error) }).MarshalJSON()
		if err != nil {
			return nil, err
		}
		if out, err = sjson.SetRawBytes(out, "spaces.-1", raw); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// MarshalReals encodes xs as a JSON array in which every element is
// written as a real number, so that 1 is sent as 1.0
func MarshalReals(xs []float64) []byte {
	out := make([]byte, 0, 2+len(xs)*8)
	out = append(out, '[')
	for i, x := range xs {
		if i > 0 {
			out = append(out, ',')
		}
		out = appendReal(out, x)
	}
	return append(out, ']')
}

func appendReal(dst []byte, x float64) []byte {
	switch {
	case math.IsInf(x, 1):
		return append(dst, "Infinity"...)
	case math.IsInf(x, -1):
		return append(dst, "-Infinity"...)
	case math.IsNaN(x):
		return append(dst, "NaN"...)
	}

	start := len(dst)
	dst = strconv.AppendFloat(dst, x, 'g', -1, 64)
	for _, c := range dst[start:] {
		if c == '.' || c == 'e' {
			return dst
		}
	}
	return append(dst, ".0"...)
}

// nanString is the string NormalizeLiterals writes in place of NaN
const nanString = "\x00NaN"

var (
	infinityLiteral = []byte("Infinity")
	nanLiteral      = []byte("NaN")
)

// NormalizeLiterals rewrites the literals Infinity, -Infinity and NaN,
// which Python's json module writes for non-finite floats, into standard
// JSON that AsReal reads back. Infinities become the overflowing numbers
// 1e999 and -1e999 and NaN becomes a reserved string. Text inside JSON
// strings is left alone, and raw is returned as is when it holds no such
// literal.
func NormalizeLiterals(raw []byte) []byte {
	if !bytes.Contains(raw, infinityLiteral) && !bytes.Contains(raw, nanLiteral) {
		return raw
	}

	out := make([]byte, 0, len(raw)+16)
	inString, escaped := false, false
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			out = append(out, c)
			continue
		}

		switch {
		case c == '"':
			inString = true

		case c == '+' && bytes.HasPrefix(raw[i+1:], infinityLiteral):
			continue

		case bytes.HasPrefix(raw[i:], infinityLiteral):
			out = append(out, "1e999"...)
			i += len(infinityLiteral) - 1
			continue

		case bytes.HasPrefix(raw[i:], nanLiteral):
			out = append(out, `"\u0000NaN"`...)
			i += len(nanLiteral) - 1
			continue
		}
		out = append(out, c)
	}
	return out
}
