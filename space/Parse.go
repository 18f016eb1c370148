package space

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// Parse converts a space description, as sent by the server in the info
// field of the action_space and observation_space endpoints, into a Space.
//
// The description is an object whose name field selects the kind of
// space. Discrete descriptions carry n, Box descriptions carry shape, low,
// and high. Tuple descriptions are rejected with an UnsupportedSpaceError
// whatever their contents.
//
// The literals Infinity, -Infinity and NaN are accepted as bounds.
func Parse(v gjson.Result) (Space, error) {
	if v.Raw != "" {
		raw := NormalizeLiterals([]byte(v.Raw))
		if !gjson.ValidBytes(raw) {
			return nil, &SchemaError{Reason: "malformed JSON " + v.Raw}
		}
		v = gjson.ParseBytes(raw)
	}

	if !v.IsObject() {
		return nil, &SchemaError{
			Reason: fmt.Sprintf("expected an object, got %s", describe(v)),
		}
	}

	name := v.Get("name")
	if !name.Exists() {
		return nil, &SchemaError{Field: "name", Reason: "missing"}
	}
	if name.Type != gjson.String {
		return nil, &SchemaError{
			Field:  "name",
			Reason: fmt.Sprintf("expected a string, got %s", describe(name)),
		}
	}

	switch name.Str {
	case "Discrete":
		n, err := uintField(v, "n")
		if err != nil {
			return nil, err
		}
		return NewDiscrete(n), nil

	case "Box":
		shape, err := uintsField(v, "shape")
		if err != nil {
			return nil, err
		}
		low, err := realsField(v, "low")
		if err != nil {
			return nil, err
		}
		high, err := realsField(v, "high")
		if err != nil {
			return nil, err
		}
		return NewBox(shape, low, high)

	case "Tuple":
		return nil, &UnsupportedSpaceError{Space: "Tuple", Op: "parsing"}
	}

	return nil, &SchemaError{
		Field:  "name",
		Reason: fmt.Sprintf("unrecognized space %q", name.Str),
	}
}

func uintField(v gjson.Result, field string) (uint64, error) {
	r := v.Get(field)
	if !r.Exists() {
		return 0, &SchemaError{Field: field, Reason: "missing"}
	}
	n, ok := asUint(r)
	if !ok {
		return 0, &SchemaError{
			Field:  field,
			Reason: fmt.Sprintf("expected a non-negative integer, got %s", describe(r)),
		}
	}
	return n, nil
}

func uintsField(v gjson.Result, field string) ([]uint64, error) {
	r := v.Get(field)
	if !r.Exists() {
		return nil, &SchemaError{Field: field, Reason: "missing"}
	}
	if !r.IsArray() {
		return nil, &SchemaError{
			Field:  field,
			Reason: fmt.Sprintf("expected an array, got %s", describe(r)),
		}
	}

	elems := r.Array()
	out := make([]uint64, len(elems))
	for i, elem := range elems {
		n, ok := asUint(elem)
		if !ok {
			return nil, &SchemaError{
				Field: field,
				Reason: fmt.Sprintf("element %d: expected a non-negative "+
					"integer, got %s", i, describe(elem)),
			}
		}
		out[i] = n
	}
	return out, nil
}

func realsField(v gjson.Result, field string) ([]float64, error) {
	r := v.Get(field)
	if !r.Exists() {
		return nil, &SchemaError{Field: field, Reason: "missing"}
	}
	if !r.IsArray() {
		return nil, &SchemaError{
			Field:  field,
			Reason: fmt.Sprintf("expected an array, got %s", describe(r)),
		}
	}

	elems := r.Array()
	out := make([]float64, len(elems))
	for i, elem := range elems {
		x, ok := AsReal(elem)
		if !ok {
			return nil, &SchemaError{
				Field: field,
				Reason: fmt.Sprintf("element %d: expected a number, got %s",
					i, describe(elem)),
			}
		}
		out[i] = x
	}
	return out, nil
}

func asUint(r gjson.Result) (uint64, bool) {
	if r.Type != gjson.Number {
		return 0, false
	}
	if n, err := strconv.ParseUint(r.Raw, 10, 64); err == nil {
		return n, true
	}

	// Integral values written in float notation, e.g. 4.0
	if r.Num < 0 || r.Num != math.Trunc(r.Num) || r.Num >= math.Exp2(64) {
		return 0, false
	}
	return uint64(r.Num), true
}

// AsReal returns the value of a JSON number. Results must come from JSON
// passed through NormalizeLiterals for Infinity, -Infinity and NaN to be
// read.
func AsReal(r gjson.Result) (float64, bool) {
	switch r.Type {
	case gjson.Number:
		// 1e999 overflows to an infinity
		return r.Num, true

	case gjson.String:
		if r.Str == nanString {
			return math.NaN(), true
		}
	}
	return 0, false
}

func describe(r gjson.Result) string {
	if !r.Exists() {
		return "nothing"
	}
	if r.IsArray() {
		return "array"
	}
	if r.IsObject() {
		return "object"
	}
	return fmt.Sprintf("%s %s", strings.ToLower(r.Type.String()), r.Raw)
}
