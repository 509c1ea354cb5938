package harness

import (
	"fmt"
	"math"

	"github.com/roach88/synthplane/internal/ir"
)

// toValue converts a YAML-parsed value to the shape p expects.
// Object references are resolved by scenario name.
func toValue(p ir.Property, raw any, names map[string]ir.Handle) (ir.Value, error) {
	spec, ok := ir.SpecOf(p)
	if !ok {
		return nil, fmt.Errorf("unknown property %s", p)
	}
	switch spec.Shape {
	case ir.ShapeInt:
		if b, ok := raw.(bool); ok {
			if b {
				return ir.Int(1), nil
			}
			return ir.Int(0), nil
		}
		f, ok := toFloat(raw)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("%s expects an integer, got %v", p, raw)
		}
		return ir.Int(int64(f)), nil
	case ir.ShapeDouble:
		f, ok := toFloat(raw)
		if !ok {
			return nil, fmt.Errorf("%s expects a number, got %v", p, raw)
		}
		return ir.Double(f), nil
	case ir.ShapeDouble3, ir.ShapeDouble6:
		c, err := toFloats(raw)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		v, err := ir.FromComponents(spec.Shape, c)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		return v, nil
	case ir.ShapeBiquad:
		m, ok := raw.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%s expects a filter map, got %v", p, raw)
		}
		decl, err := filterFromMap(m)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		b, err := decl.biquad()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p, err)
		}
		return b, nil
	default:
		name, ok := raw.(string)
		if !ok {
			return nil, fmt.Errorf("%s expects an object name, got %v", p, raw)
		}
		if name == "" || name == "none" {
			return ir.ObjectRef(ir.NoHandle), nil
		}
		h, ok := names[name]
		if !ok {
			return nil, fmt.Errorf("%s: unknown object %q", p, name)
		}
		return ir.ObjectRef(h), nil
	}
}

// biquad designs the filter described by f.
func (f *FilterDecl) biquad() (ir.Biquad, error) {
	switch f.Kind {
	case "", "identity":
		return ir.BiquadIdentity(), nil
	case "lowpass":
		return ir.BiquadLowpass(f.Frequency, f.q())
	case "highpass":
		return ir.BiquadHighpass(f.Frequency, f.q())
	case "bandpass":
		bw := f.Bandwidth
		if bw == 0 {
			bw = 1
		}
		return ir.BiquadBandpass(f.Frequency, bw)
	}
	return ir.Biquad{}, fmt.Errorf("unknown filter kind %q", f.Kind)
}

func (f *FilterDecl) q() float64 {
	if f.Q == 0 {
		return 0.7071067811865476
	}
	return f.Q
}

func filterFromMap(m map[string]any) (*FilterDecl, error) {
	f := &FilterDecl{}
	for k, v := range m {
		switch k {
		case "kind":
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("filter kind must be a string")
			}
			f.Kind = s
		case "frequency", "q", "bandwidth":
			n, ok := toFloat(v)
			if !ok {
				return nil, fmt.Errorf("filter %s must be a number", k)
			}
			switch k {
			case "frequency":
				f.Frequency = n
			case "q":
				f.Q = n
			default:
				f.Bandwidth = n
			}
		default:
			return nil, fmt.Errorf("unknown filter field %q", k)
		}
	}
	return f, nil
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}

func toFloats(v any) ([]float64, error) {
	list, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("expected a list of numbers, got %v", v)
	}
	out := make([]float64, len(list))
	for i, elem := range list {
		f, ok := toFloat(elem)
		if !ok {
			return nil, fmt.Errorf("element %d: expected a number, got %v", i, elem)
		}
		out[i] = f
	}
	return out, nil
}

// sameValue compares two values with tolerance on float components.
func sameValue(a, b ir.Value, tol float64) bool {
	if a == nil || b == nil || a.Shape() != b.Shape() {
		return false
	}
	ca, okA := ir.Components(a)
	cb, okB := ir.Components(b)
	if okA && okB {
		for i := range ca {
			if math.Abs(ca[i]-cb[i]) > tol {
				return false
			}
		}
		return true
	}
	return a == b
}
