package engine

import (
	"errors"
	"fmt"

	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/ir"
)

// CreateAutomationBatch creates an empty batch bound to a context.
func (l *Library) CreateAutomationBatch(ctx ir.Handle) (ir.Handle, error) {
	return l.createChild(ctx, ir.ObjectTypeAutomationBatch, nil, nil)
}

// AutomationBatchAddCommands validates and appends commands. Either every
// command is added or none is.
func (l *Library) AutomationBatchAddCommands(batch ir.Handle, cmds ...automation.Command) error {
	obj, err := l.resolveType(batch, true, isType(ir.ObjectTypeAutomationBatch), "an automation batch")
	if err != nil {
		return err
	}
	for i, cmd := range cmds {
		if err := l.validateCommand(obj.context, cmd); err != nil {
			var e *Error
			if errors.As(err, &e) {
				e.Message = fmt.Sprintf("command %d: %s", i, e.Message)
			}
			return err
		}
	}
	return classify(batch, obj.batch.Add(cmds...))
}

// ExecuteAutomationBatch merges the batch into its context's scheduler at
// the next block boundary. A batch executes once. If any target is destroyed
// before the merge, the whole batch is dropped.
func (l *Library) ExecuteAutomationBatch(batch ir.Handle) error {
	obj, err := l.resolveType(batch, false, isType(ir.ObjectTypeAutomationBatch), "an automation batch")
	if err != nil {
		return err
	}
	c, err := l.owningContext(batch, obj)
	if err != nil {
		return err
	}
	cmds, err := obj.batch.Take()
	if err != nil {
		return classify(batch, err)
	}

	return c.stage(mutation{
		kind: "automation",
		apply: func(c *Context) error {
			for _, cmd := range cmds {
				if _, err := c.lib.handles.Type(cmd.Target); err != nil {
					return classify(cmd.Target, err)
				}
			}
			return classify(batch, c.sched.Merge(cmds, c.clock.Seconds(), c.lib.props.Get))
		},
	})
}

func (l *Library) validateCommand(ctx ir.Handle, cmd automation.Command) error {
	if err := cmd.Validate(); err != nil {
		return newError(CodeInvalidValue, cmd.Target, "%s", err)
	}
	target, err := l.resolveAlive(cmd.Target)
	if err != nil {
		return err
	}
	if target.context != ctx && cmd.Target != ctx {
		return newError(CodeInvalidValue, cmd.Target, "target belongs to another context")
	}

	switch cmd.Kind {
	case ir.AutomationAppendProperty, ir.AutomationClearProperty:
		spec, ok := ir.Lookup(target.typ, cmd.Property)
		if !ok {
			return newError(CodeInvalidProperty, cmd.Target, "%s on %s", cmd.Property, target.typ)
		}
		if spec.ReadOnly {
			return newError(CodeReadOnlyProperty, cmd.Target, "%s", cmd.Property)
		}
		if !spec.Automatable() {
			return newError(CodeInvalidValue, cmd.Target, "%s cannot be automated", cmd.Property)
		}
		if cmd.Kind == ir.AutomationAppendProperty {
			if err := spec.Validate(cmd.Point.Value); err != nil {
				return classify(cmd.Target, err)
			}
		}
	}
	return nil
}
