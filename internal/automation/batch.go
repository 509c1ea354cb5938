// Package automation implements the Automation Scheduler: per-handle
// timelines of future property values and user events, merged from batches.
//
// A Batch collects commands on the control side. Executing it merges every
// command into the owning context's Scheduler as one unit on the render
// goroutine. Each block, Advance reports the property values to apply and the
// user events that fell due.
//
// Tie-break policy: two points for the same (handle, property) at an
// identical time resolve to the one merged last. Within a batch that is
// command order; across batches it is execution order.
package automation

import (
	"errors"
	"fmt"
	"sync"

	"github.com/roach88/synthplane/internal/ir"
)

// ErrBatchExecuted is returned when a batch is used after execution.
var ErrBatchExecuted = errors.New("automation batch already executed")

// Point is one scheduled property value.
type Point struct {
	Time   float64
	Interp ir.InterpolationType
	Value  ir.Value
}

// Command is one entry of a batch. Fields beyond Target, Time and Kind
// depend on Kind.
type Command struct {
	Target ir.Handle
	Time   float64
	Kind   ir.AutomationCommandKind

	Property ir.Property // AppendProperty, ClearProperty
	Point    Point       // AppendProperty; Point.Time mirrors Time
	Param    uint64      // SendUserEvent
}

// Validate checks the parts of a command that do not depend on engine state.
func (c Command) Validate() error {
	if c.Target == ir.NoHandle {
		return fmt.Errorf("%s: missing target", c.Kind)
	}
	if c.Time < 0 {
		return fmt.Errorf("%s: negative time %g", c.Kind, c.Time)
	}
	switch c.Kind {
	case ir.AutomationAppendProperty:
		if !c.Point.Interp.Valid() {
			return fmt.Errorf("append %s: unknown interpolation %d", c.Property, int(c.Point.Interp))
		}
		if c.Point.Value == nil {
			return fmt.Errorf("append %s: missing value", c.Property)
		}
	case ir.AutomationClearProperty, ir.AutomationSendUserEvent,
		ir.AutomationClearEvents, ir.AutomationClearAllProperties:
	default:
		return fmt.Errorf("unknown automation command %d", int(c.Kind))
	}
	return nil
}

// Batch accumulates commands for one context.
//
// Thread-safety: Batch is safe for concurrent use.
type Batch struct {
	mu       sync.Mutex
	context  ir.Handle
	commands []Command
	executed bool
}

// NewBatch creates an empty batch bound to a context.
func NewBatch(context ir.Handle) *Batch {
	return &Batch{context: context}
}

// Context returns the context the batch belongs to.
func (b *Batch) Context() ir.Handle {
	return b.context
}

// Add appends commands. Either all are added or none.
func (b *Batch) Add(cmds ...Command) error {
	for i, c := range cmds {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("command %d: %w", i, err)
		}
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.executed {
		return ErrBatchExecuted
	}
	for _, c := range cmds {
		if c.Kind == ir.AutomationAppendProperty {
			c.Point.Time = c.Time
		}
		b.commands = append(b.commands, c)
	}
	return nil
}

// Take marks the batch executed and returns its commands.
func (b *Batch) Take() ([]Command, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.executed {
		return nil, ErrBatchExecuted
	}
	b.executed = true
	cmds := b.commands
	b.commands = nil
	return cmds, nil
}

// Len returns the number of pending commands.
func (b *Batch) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.commands)
}
