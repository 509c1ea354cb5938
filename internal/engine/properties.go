package engine

import (
	"github.com/roach88/synthplane/internal/ir"
)

// GetProperty returns the committed value of p on h. Values staged by
// SetProperty are not visible until the next block boundary.
func (l *Library) GetProperty(h ir.Handle, p ir.Property) (ir.Value, error) {
	obj, err := l.resolve(h)
	if err != nil {
		return nil, err
	}
	if _, ok := ir.Lookup(obj.typ, p); !ok {
		return nil, newError(CodeInvalidProperty, h, "%s on %s", p, obj.typ)
	}

	switch p {
	case ir.PropCurrentTime, ir.PropSuggestedAutomationTime:
		c, err := l.owningContext(h, obj)
		if err != nil {
			return nil, err
		}
		now := c.clock.Seconds()
		if p == ir.PropSuggestedAutomationTime {
			now += c.latency()
		}
		return ir.Double(now), nil
	}

	v, err := l.props.Get(h, p)
	if err != nil {
		return nil, classify(h, err)
	}
	return v, nil
}

// SetProperty validates v now and stages the write for the next block
// boundary. An ObjectRef target is pinned from this call on, so it cannot be
// reaped before the write commits.
func (l *Library) SetProperty(h ir.Handle, p ir.Property, v ir.Value) error {
	obj, err := l.resolve(h)
	if err != nil {
		return err
	}
	if _, err := l.props.Validate(obj.typ, p, v); err != nil {
		return classify(h, err)
	}
	c, err := l.owningContext(h, obj)
	if err != nil {
		return err
	}

	target := ir.NoHandle
	if ref, ok := v.(ir.ObjectRef); ok {
		target = ir.Handle(ref)
	}
	if target != ir.NoHandle {
		if err := l.handles.Pin(target); err != nil {
			return classify(target, err)
		}
	}
	unpin := func() {
		if target != ir.NoHandle {
			_ = l.handles.Unpin(target)
		}
	}

	return c.stage(mutation{
		kind: "property",
		apply: func(c *Context) error {
			if err := c.lib.props.Apply(h, p, v); err != nil {
				unpin()
				return classify(h, err)
			}
			c.lib.renderer.ApplyProperty(h, p, v)
			return nil
		},
		discard: unpin,
	})
}

// GetInt reads an Int property.
func (l *Library) GetInt(h ir.Handle, p ir.Property) (int64, error) {
	v, err := l.getShaped(h, p, ir.ShapeInt)
	if err != nil {
		return 0, err
	}
	return int64(v.(ir.Int)), nil
}

// SetInt stages an Int property write.
func (l *Library) SetInt(h ir.Handle, p ir.Property, v int64) error {
	return l.SetProperty(h, p, ir.Int(v))
}

// GetDouble reads a Double property.
func (l *Library) GetDouble(h ir.Handle, p ir.Property) (float64, error) {
	v, err := l.getShaped(h, p, ir.ShapeDouble)
	if err != nil {
		return 0, err
	}
	return float64(v.(ir.Double)), nil
}

// SetDouble stages a Double property write.
func (l *Library) SetDouble(h ir.Handle, p ir.Property, v float64) error {
	return l.SetProperty(h, p, ir.Double(v))
}

// GetDouble3 reads a Double3 property.
func (l *Library) GetDouble3(h ir.Handle, p ir.Property) (ir.Double3, error) {
	v, err := l.getShaped(h, p, ir.ShapeDouble3)
	if err != nil {
		return ir.Double3{}, err
	}
	return v.(ir.Double3), nil
}

// SetDouble3 stages a Double3 property write.
func (l *Library) SetDouble3(h ir.Handle, p ir.Property, v ir.Double3) error {
	return l.SetProperty(h, p, v)
}

// GetDouble6 reads a Double6 property.
func (l *Library) GetDouble6(h ir.Handle, p ir.Property) (ir.Double6, error) {
	v, err := l.getShaped(h, p, ir.ShapeDouble6)
	if err != nil {
		return ir.Double6{}, err
	}
	return v.(ir.Double6), nil
}

// SetDouble6 stages a Double6 property write.
func (l *Library) SetDouble6(h ir.Handle, p ir.Property, v ir.Double6) error {
	return l.SetProperty(h, p, v)
}

// GetBiquad reads a Biquad property.
func (l *Library) GetBiquad(h ir.Handle, p ir.Property) (ir.Biquad, error) {
	v, err := l.getShaped(h, p, ir.ShapeBiquad)
	if err != nil {
		return ir.Biquad{}, err
	}
	return v.(ir.Biquad), nil
}

// SetBiquad stages a Biquad property write.
func (l *Library) SetBiquad(h ir.Handle, p ir.Property, v ir.Biquad) error {
	return l.SetProperty(h, p, v)
}

// GetObject reads an Object property. Returns ir.NoHandle when unset.
func (l *Library) GetObject(h ir.Handle, p ir.Property) (ir.Handle, error) {
	v, err := l.getShaped(h, p, ir.ShapeObject)
	if err != nil {
		return ir.NoHandle, err
	}
	return ir.Handle(v.(ir.ObjectRef)), nil
}

// SetObject stages an Object property write. ir.NoHandle clears it.
func (l *Library) SetObject(h ir.Handle, p ir.Property, target ir.Handle) error {
	return l.SetProperty(h, p, ir.ObjectRef(target))
}

func (l *Library) getShaped(h ir.Handle, p ir.Property, shape ir.Shape) (ir.Value, error) {
	v, err := l.GetProperty(h, p)
	if err != nil {
		return nil, err
	}
	if v.Shape() != shape {
		return nil, newError(CodeInvalidValue, h, "%s is %s, not %s", p, v.Shape(), shape)
	}
	return v, nil
}
