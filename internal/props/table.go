// Package props implements the Property Table: typed per-object storage with
// validated get and set.
//
// Validation happens on the calling goroutine. Committing a value (Apply)
// happens on the owning context's render goroutine at a block boundary, so
// a get issued right after a set may observe the previous value until the
// next block is rendered.
package props

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/roach88/synthplane/internal/ir"
)

var (
	// ErrUnknownObject is returned when the table holds no entry for a handle.
	ErrUnknownObject = errors.New("object has no properties")
	// ErrInvalidProperty is returned for properties the object type does not define.
	ErrInvalidProperty = errors.New("property not defined for object type")
	// ErrReadOnly is returned when setting a derived property.
	ErrReadOnly = errors.New("property is read-only")
	// ErrWrongObjectType is returned when an object reference points at the wrong type.
	ErrWrongObjectType = errors.New("referenced object has wrong type")
	// ErrDeadReference is returned when an object reference points at a dead handle.
	ErrDeadReference = errors.New("referenced object is not alive")
)

// Resolver looks up referenced handles. The handle registry implements it.
type Resolver interface {
	Type(h ir.Handle) (ir.ObjectType, error)
	Alive(h ir.Handle) bool
	Unpin(h ir.Handle) error
}

type object struct {
	typ    ir.ObjectType
	values map[ir.Property]ir.Value
}

// Table stores committed property values keyed by (handle, property).
//
// Thread-safety: all methods are safe for concurrent use. Writers hold the
// lock only to swap a single value.
type Table struct {
	mu      sync.RWMutex
	objects map[ir.Handle]*object
	refs    Resolver
}

// New creates an empty table.
func New(refs Resolver) *Table {
	return &Table{
		objects: make(map[ir.Handle]*object),
		refs:    refs,
	}
}

// Init installs defaults for a newly created object. seed overrides the
// schema defaults; it carries values captured from the parent context.
func (t *Table) Init(h ir.Handle, typ ir.ObjectType, seed map[ir.Property]ir.Value) error {
	values := make(map[ir.Property]ir.Value)
	for _, p := range ir.PropertiesOf(typ) {
		spec, _ := ir.SpecOf(p)
		values[p] = spec.Default
	}
	for p, v := range seed {
		spec, ok := ir.Lookup(typ, p)
		if !ok {
			return fmt.Errorf("seed %s: %w", p, ErrInvalidProperty)
		}
		if err := spec.Validate(v); err != nil {
			return fmt.Errorf("seed %s: %w", p, err)
		}
		values[p] = v
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	t.objects[h] = &object{typ: typ, values: values}
	return nil
}

// Validate checks that v may be assigned to property p of h, whose type
// is typ. It checks applicability, writability, shape, range and, for
// object references, liveness and type of the referenced handle.
func (t *Table) Validate(typ ir.ObjectType, p ir.Property, v ir.Value) (ir.PropertySpec, error) {
	spec, ok := ir.Lookup(typ, p)
	if !ok {
		return ir.PropertySpec{}, fmt.Errorf("%w: %s on %s", ErrInvalidProperty, p, typ)
	}
	if spec.ReadOnly {
		return spec, fmt.Errorf("%w: %s", ErrReadOnly, p)
	}
	if err := spec.Validate(v); err != nil {
		return spec, err
	}
	if ref, ok := v.(ir.ObjectRef); ok && ir.Handle(ref) != ir.NoHandle {
		target := ir.Handle(ref)
		if !t.refs.Alive(target) {
			return spec, fmt.Errorf("%w: %s references %s", ErrDeadReference, p, target)
		}
		refType, err := t.refs.Type(target)
		if err != nil {
			return spec, err
		}
		if !slices.Contains(spec.Accepts, refType) {
			return spec, fmt.Errorf("%w: %s cannot reference %s", ErrWrongObjectType, p, refType)
		}
	}
	return spec, nil
}

// Apply commits a validated value. For a non-empty ObjectRef the caller must
// already hold a pin on the referenced handle; the table adopts it and drops
// the pin of the value being replaced.
func (t *Table) Apply(h ir.Handle, p ir.Property, v ir.Value) error {
	t.mu.Lock()
	obj, ok := t.objects[h]
	if !ok {
		t.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownObject, h)
	}
	old := obj.values[p]
	obj.values[p] = v
	t.mu.Unlock()

	if ref, ok := old.(ir.ObjectRef); ok && ir.Handle(ref) != ir.NoHandle {
		return t.refs.Unpin(ir.Handle(ref))
	}
	return nil
}

// Get returns the committed value of p on h.
func (t *Table) Get(h ir.Handle, p ir.Property) (ir.Value, error) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	obj, ok := t.objects[h]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownObject, h)
	}
	v, ok := obj.values[p]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", ErrInvalidProperty, p, obj.typ)
	}
	return v, nil
}

// Snapshot copies every committed value of h.
func (t *Table) Snapshot(h ir.Handle) map[ir.Property]ir.Value {
	t.mu.RLock()
	defer t.mu.RUnlock()

	obj, ok := t.objects[h]
	if !ok {
		return nil
	}
	out := make(map[ir.Property]ir.Value, len(obj.values))
	for p, v := range obj.values {
		out[p] = v
	}
	return out
}

// Drop forgets h and releases the pins held by its object references.
func (t *Table) Drop(h ir.Handle) {
	t.mu.Lock()
	obj, ok := t.objects[h]
	delete(t.objects, h)
	t.mu.Unlock()
	if !ok {
		return
	}

	for _, v := range obj.values {
		if ref, ok := v.(ir.ObjectRef); ok && ir.Handle(ref) != ir.NoHandle {
			_ = t.refs.Unpin(ir.Handle(ref))
		}
	}
}

// Len returns the number of objects with properties.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.objects)
}
