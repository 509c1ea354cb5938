package engine

import (
	"github.com/roach88/synthplane/internal/events"
	"github.com/roach88/synthplane/internal/ir"
)

// EnableEvents starts recording events for a context.
func (l *Library) EnableEvents(ctx ir.Handle) error {
	c, err := l.context(ctx, false)
	if err != nil {
		return err
	}
	c.events.Enable()
	return nil
}

// DisableEvents stops recording. Queued events stay readable.
func (l *Library) DisableEvents(ctx ir.Handle) error {
	c, err := l.context(ctx, false)
	if err != nil {
		return err
	}
	c.events.Disable()
	return nil
}

// NextEvent returns the oldest unread event, or nil when the queue is empty.
// The caller must Release every returned event.
func (l *Library) NextEvent(ctx ir.Handle) (*events.Event, error) {
	c, err := l.context(ctx, false)
	if err != nil {
		return nil, err
	}
	ev, ok := c.events.Next()
	if !ok {
		return nil, nil
	}
	return ev, nil
}

// ReleaseEvent releases the pin an event holds on its source.
func (l *Library) ReleaseEvent(ev *events.Event) error {
	if ev == nil {
		return newError(CodeInvalidValue, ir.NoHandle, "nil event")
	}
	return classify(ev.Source, ev.Release())
}
