package ir

import (
	"encoding/json"
	"fmt"
)

// Shape is the declared form of a property's value.
type Shape int

const (
	ShapeInt Shape = iota + 1
	ShapeDouble
	ShapeDouble3
	ShapeDouble6
	ShapeBiquad
	ShapeObject
)

var shapeNames = map[Shape]string{
	ShapeInt:     "int",
	ShapeDouble:  "double",
	ShapeDouble3: "double3",
	ShapeDouble6: "double6",
	ShapeBiquad:  "biquad",
	ShapeObject:  "object",
}

func (s Shape) String() string {
	if n, ok := shapeNames[s]; ok {
		return n
	}
	return fmt.Sprintf("shape(%d)", int(s))
}

// ParseShape resolves a shape name.
func ParseShape(name string) (Shape, bool) {
	for s, n := range shapeNames {
		if n == name {
			return s, true
		}
	}
	return 0, false
}

// Automatable reports whether values of this shape can be interpolated.
func (s Shape) Automatable() bool {
	return s == ShapeDouble || s == ShapeDouble3 || s == ShapeDouble6
}

// Value is a sealed interface over the property value variants.
// Only Int, Double, Double3, Double6, Biquad and ObjectRef implement it.
type Value interface {
	Shape() Shape
	value() // Sealed
}

// Int is a signed integer property value. Enums and booleans use it too.
type Int int64

func (Int) Shape() Shape { return ShapeInt }
func (Int) value()       {}

// Double is a scalar property value.
type Double float64

func (Double) Shape() Shape { return ShapeDouble }
func (Double) value()       {}

// Double3 is a 3-vector, e.g. a position.
type Double3 [3]float64

func (Double3) Shape() Shape { return ShapeDouble3 }
func (Double3) value()       {}

// Double6 is a pair of 3-vectors, e.g. orientation at+up.
type Double6 [6]float64

func (Double6) Shape() Shape { return ShapeDouble6 }
func (Double6) value()       {}

// ObjectRef references another handle. NoHandle clears the reference.
type ObjectRef Handle

func (ObjectRef) Shape() Shape { return ShapeObject }
func (ObjectRef) value()       {}

// Components returns the numeric components of an automatable value.
func Components(v Value) ([]float64, bool) {
	switch val := v.(type) {
	case Double:
		return []float64{float64(val)}, true
	case Double3:
		return val[:], true
	case Double6:
		return val[:], true
	}
	return nil, false
}

// FromComponents rebuilds a value of the given shape from its components.
func FromComponents(shape Shape, c []float64) (Value, error) {
	switch shape {
	case ShapeDouble:
		if len(c) == 1 {
			return Double(c[0]), nil
		}
	case ShapeDouble3:
		if len(c) == 3 {
			return Double3{c[0], c[1], c[2]}, nil
		}
	case ShapeDouble6:
		if len(c) == 6 {
			return Double6{c[0], c[1], c[2], c[3], c[4], c[5]}, nil
		}
	default:
		return nil, fmt.Errorf("shape %s is not automatable", shape)
	}
	return nil, fmt.Errorf("shape %s needs more than %d components", shape, len(c))
}

// Lerp interpolates between two automatable values of the same shape.
// frac is clamped to [0, 1], so the result never leaves the segment.
func Lerp(from, to Value, frac float64) (Value, error) {
	if from.Shape() != to.Shape() {
		return nil, fmt.Errorf("lerp between %s and %s", from.Shape(), to.Shape())
	}
	a, ok := Components(from)
	if !ok {
		return nil, fmt.Errorf("shape %s is not automatable", from.Shape())
	}
	b, _ := Components(to)
	switch {
	case frac <= 0:
		return from, nil
	case frac >= 1:
		return to, nil
	}
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + (b[i]-a[i])*frac
	}
	return FromComponents(from.Shape(), out)
}

// wireValue is the JSON envelope of a Value.
type wireValue struct {
	Shape string          `json:"shape"`
	Value json.RawMessage `json:"value"`
}

// MarshalValue encodes a Value as {"shape": ..., "value": ...}.
// Uses type-switch dispatch so every variant keeps its exact form.
func MarshalValue(v Value) ([]byte, error) {
	var (
		payload []byte
		err     error
	)
	switch val := v.(type) {
	case Int:
		payload, err = json.Marshal(int64(val))
	case Double:
		payload, err = json.Marshal(float64(val))
	case Double3:
		payload, err = json.Marshal([3]float64(val))
	case Double6:
		payload, err = json.Marshal([6]float64(val))
	case Biquad:
		payload, err = json.Marshal(val)
	case ObjectRef:
		payload, err = json.Marshal(uint64(val))
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(wireValue{Shape: v.Shape().String(), Value: payload})
}

// UnmarshalValue decodes the envelope produced by MarshalValue.
func UnmarshalValue(data []byte) (Value, error) {
	var w wireValue
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, err
	}
	shape, ok := ParseShape(w.Shape)
	if !ok {
		return nil, fmt.Errorf("unknown shape %q", w.Shape)
	}
	switch shape {
	case ShapeInt:
		var n int64
		if err := json.Unmarshal(w.Value, &n); err != nil {
			return nil, fmt.Errorf("int value: %w", err)
		}
		return Int(n), nil
	case ShapeDouble:
		var f float64
		if err := json.Unmarshal(w.Value, &f); err != nil {
			return nil, fmt.Errorf("double value: %w", err)
		}
		return Double(f), nil
	case ShapeDouble3:
		var d [3]float64
		if err := json.Unmarshal(w.Value, &d); err != nil {
			return nil, fmt.Errorf("double3 value: %w", err)
		}
		return Double3(d), nil
	case ShapeDouble6:
		var d [6]float64
		if err := json.Unmarshal(w.Value, &d); err != nil {
			return nil, fmt.Errorf("double6 value: %w", err)
		}
		return Double6(d), nil
	case ShapeBiquad:
		var b Biquad
		if err := json.Unmarshal(w.Value, &b); err != nil {
			return nil, fmt.Errorf("biquad value: %w", err)
		}
		return b, nil
	default:
		var h uint64
		if err := json.Unmarshal(w.Value, &h); err != nil {
			return nil, fmt.Errorf("object value: %w", err)
		}
		return ObjectRef(h), nil
	}
}

// FormatValue renders a value compactly for traces and logs.
func FormatValue(v Value) string {
	switch val := v.(type) {
	case Int:
		return fmt.Sprintf("%d", int64(val))
	case Double:
		return fmt.Sprintf("%.4f", float64(val))
	case Double3:
		return fmt.Sprintf("(%.4f, %.4f, %.4f)", val[0], val[1], val[2])
	case Double6:
		return fmt.Sprintf("(%.4f, %.4f, %.4f, %.4f, %.4f, %.4f)", val[0], val[1], val[2], val[3], val[4], val[5])
	case Biquad:
		if val.IsWire {
			return "biquad(wire)"
		}
		return fmt.Sprintf("biquad(b=%.4f,%.4f,%.4f a=%.4f,%.4f g=%.4f)", val.B0, val.B1, val.B2, val.A1, val.A2, val.Gain)
	case ObjectRef:
		return Handle(val).String()
	case nil:
		return "<nil>"
	}
	return fmt.Sprintf("%v", v)
}
