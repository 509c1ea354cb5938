package syz

import "github.com/roach88/synthplane/internal/engine"

// Typed property access. Writes are visible from the next block.

// GetProperty reads p in whatever shape it has.
func (c *Caller) GetProperty(h Handle, p Property) (Value, Status) {
	return call(c, func(l *engine.Library) (Value, error) {
		return l.GetProperty(h, p)
	})
}

// SetProperty writes p. v must have the property's shape.
func (c *Caller) SetProperty(h Handle, p Property, v Value) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetProperty(h, p, v)
	})
}

func (c *Caller) GetInt(h Handle, p Property) (int64, Status) {
	return call(c, func(l *engine.Library) (int64, error) {
		return l.GetInt(h, p)
	})
}

func (c *Caller) SetInt(h Handle, p Property, v int64) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetInt(h, p, v)
	})
}

func (c *Caller) GetDouble(h Handle, p Property) (float64, Status) {
	return call(c, func(l *engine.Library) (float64, error) {
		return l.GetDouble(h, p)
	})
}

func (c *Caller) SetDouble(h Handle, p Property, v float64) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetDouble(h, p, v)
	})
}

func (c *Caller) GetDouble3(h Handle, p Property) (Double3, Status) {
	return call(c, func(l *engine.Library) (Double3, error) {
		return l.GetDouble3(h, p)
	})
}

func (c *Caller) SetDouble3(h Handle, p Property, v Double3) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetDouble3(h, p, v)
	})
}

func (c *Caller) GetDouble6(h Handle, p Property) (Double6, Status) {
	return call(c, func(l *engine.Library) (Double6, error) {
		return l.GetDouble6(h, p)
	})
}

func (c *Caller) SetDouble6(h Handle, p Property, v Double6) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetDouble6(h, p, v)
	})
}

func (c *Caller) GetBiquad(h Handle, p Property) (Biquad, Status) {
	return call(c, func(l *engine.Library) (Biquad, error) {
		return l.GetBiquad(h, p)
	})
}

func (c *Caller) SetBiquad(h Handle, p Property, v Biquad) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetBiquad(h, p, v)
	})
}

func (c *Caller) GetObject(h Handle, p Property) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.GetObject(h, p)
	})
}

func (c *Caller) SetObject(h Handle, p Property, target Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.SetObject(h, p, target)
	})
}

// Package-level forms record errors on the process-wide caller.

func GetProperty(h Handle, p Property) (Value, Status) {
	return process.GetProperty(h, p)
}

func SetProperty(h Handle, p Property, v Value) Status {
	return process.SetProperty(h, p, v)
}

func GetInt(h Handle, p Property) (int64, Status) {
	return process.GetInt(h, p)
}

func SetInt(h Handle, p Property, v int64) Status {
	return process.SetInt(h, p, v)
}

func GetDouble(h Handle, p Property) (float64, Status) {
	return process.GetDouble(h, p)
}

func SetDouble(h Handle, p Property, v float64) Status {
	return process.SetDouble(h, p, v)
}

func GetDouble3(h Handle, p Property) (Double3, Status) {
	return process.GetDouble3(h, p)
}

func SetDouble3(h Handle, p Property, v Double3) Status {
	return process.SetDouble3(h, p, v)
}

func GetDouble6(h Handle, p Property) (Double6, Status) {
	return process.GetDouble6(h, p)
}

func SetDouble6(h Handle, p Property, v Double6) Status {
	return process.SetDouble6(h, p, v)
}

func GetBiquad(h Handle, p Property) (Biquad, Status) {
	return process.GetBiquad(h, p)
}

func SetBiquad(h Handle, p Property, v Biquad) Status {
	return process.SetBiquad(h, p, v)
}

func GetObject(h Handle, p Property) (Handle, Status) {
	return process.GetObject(h, p)
}

func SetObject(h Handle, p Property, target Handle) Status {
	return process.SetObject(h, p, target)
}
