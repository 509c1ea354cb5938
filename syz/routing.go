package syz

import "github.com/roach88/synthplane/internal/engine"

// Routes, automation and events.

// ConfigureRoute creates or retargets the route from src to dst.
func (c *Caller) ConfigureRoute(ctx, src, dst Handle, cfg RouteConfig) Status {
	return do(c, func(l *engine.Library) error {
		return l.ConfigureRoute(ctx, src, dst, cfg)
	})
}

// RemoveRoute fades the route out and then removes it.
func (c *Caller) RemoveRoute(ctx, src, dst Handle, fadeTime float64) Status {
	return do(c, func(l *engine.Library) error {
		return l.RemoveRoute(ctx, src, dst, fadeTime)
	})
}

func (c *Caller) RemoveAllRoutes(ctx, src Handle, fadeTime float64) Status {
	return do(c, func(l *engine.Library) error {
		return l.RemoveAllRoutes(ctx, src, fadeTime)
	})
}

// Routes returns the committed edges of ctx.
func (c *Caller) Routes(ctx Handle) ([]RouteSnapshot, Status) {
	return call(c, func(l *engine.Library) ([]RouteSnapshot, error) {
		return l.Routes(ctx)
	})
}

// RouteGain returns the committed gain of the route from src to dst and
// whether it exists.
func (c *Caller) RouteGain(ctx, src, dst Handle) (float64, bool, Status) {
	type gain struct {
		value float64
		ok    bool
	}
	g, st := call(c, func(l *engine.Library) (gain, error) {
		v, ok, err := l.RouteGain(ctx, src, dst)
		return gain{v, ok}, err
	})
	return g.value, g.ok, st
}

func (c *Caller) CreateAutomationBatch(ctx Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateAutomationBatch(ctx)
	})
}

func (c *Caller) AutomationBatchAddCommands(batch Handle, cmds ...AutomationCommand) Status {
	return do(c, func(l *engine.Library) error {
		return l.AutomationBatchAddCommands(batch, cmds...)
	})
}

// ExecuteAutomationBatch stages every command of batch. A batch executes once.
func (c *Caller) ExecuteAutomationBatch(batch Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.ExecuteAutomationBatch(batch)
	})
}

func (c *Caller) EnableEvents(ctx Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.EnableEvents(ctx)
	})
}

func (c *Caller) DisableEvents(ctx Handle) Status {
	return do(c, func(l *engine.Library) error {
		return l.DisableEvents(ctx)
	})
}

// NextEvent pops the oldest event of ctx, or returns nil when the queue is empty. Pass it to ReleaseEvent when done.
func (c *Caller) NextEvent(ctx Handle) (*Event, Status) {
	return call(c, func(l *engine.Library) (*Event, error) {
		return l.NextEvent(ctx)
	})
}

func (c *Caller) ReleaseEvent(ev *Event) Status {
	return do(c, func(l *engine.Library) error {
		return l.ReleaseEvent(ev)
	})
}

// Package-level forms record errors on the process-wide caller.

func ConfigureRoute(ctx, src, dst Handle, cfg RouteConfig) Status {
	return process.ConfigureRoute(ctx, src, dst, cfg)
}

func RemoveRoute(ctx, src, dst Handle, fadeTime float64) Status {
	return process.RemoveRoute(ctx, src, dst, fadeTime)
}

func RemoveAllRoutes(ctx, src Handle, fadeTime float64) Status {
	return process.RemoveAllRoutes(ctx, src, fadeTime)
}

func Routes(ctx Handle) ([]RouteSnapshot, Status) {
	return process.Routes(ctx)
}

func RouteGain(ctx, src, dst Handle) (float64, bool, Status) {
	return process.RouteGain(ctx, src, dst)
}

func CreateAutomationBatch(ctx Handle) (Handle, Status) {
	return process.CreateAutomationBatch(ctx)
}

func AutomationBatchAddCommands(batch Handle, cmds ...AutomationCommand) Status {
	return process.AutomationBatchAddCommands(batch, cmds...)
}

func ExecuteAutomationBatch(batch Handle) Status {
	return process.ExecuteAutomationBatch(batch)
}

func EnableEvents(ctx Handle) Status {
	return process.EnableEvents(ctx)
}

func DisableEvents(ctx Handle) Status {
	return process.DisableEvents(ctx)
}

func NextEvent(ctx Handle) (*Event, Status) {
	return process.NextEvent(ctx)
}

func ReleaseEvent(ev *Event) Status {
	return process.ReleaseEvent(ev)
}
