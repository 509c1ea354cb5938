package engine

import (
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/routing"
)

// DefaultFadeTime is the fade of DefaultRouteConfig, in seconds.
const DefaultFadeTime = 0.03

// RouteConfig is the target state of a route.
type RouteConfig struct {
	Gain     float64
	FadeTime float64   // seconds
	Filter   ir.Biquad // zero value means identity
}

// DefaultRouteConfig is unity gain, a short fade and no filtering.
func DefaultRouteConfig() RouteConfig {
	return RouteConfig{Gain: 1, FadeTime: DefaultFadeTime, Filter: ir.BiquadIdentity()}
}

// ConfigureRoute creates or retargets the route from src to dst. The gain
// fades from its current value over cfg.FadeTime.
func (l *Library) ConfigureRoute(ctx, src, dst ir.Handle, cfg RouteConfig) error {
	c, err := l.context(ctx, false)
	if err != nil {
		return err
	}
	if err := l.routeEndpoints(ctx, src, dst, true); err != nil {
		return err
	}
	if !finite(cfg.Gain) || cfg.Gain < 0 {
		return newError(CodeInvalidValue, ir.NoHandle, "route gain must be finite and non-negative, got %g", cfg.Gain)
	}
	blocks, err := c.fadeBlocks(cfg.FadeTime)
	if err != nil {
		return err
	}
	filter := cfg.Filter
	if filter == (ir.Biquad{}) {
		filter = ir.BiquadIdentity()
	}

	return c.stage(mutation{
		kind: "configure_route",
		apply: func(c *Context) error {
			if _, ok := c.members[src]; !ok {
				return newError(CodeInvalidHandle, src, "route source was destroyed")
			}
			if _, ok := c.members[dst]; !ok {
				return newError(CodeInvalidHandle, dst, "route destination was destroyed")
			}
			before := c.graph.Len()
			c.graph.Configure(src, dst, routing.Config{Gain: cfg.Gain, FadeBlocks: blocks, Filter: filter})
			c.lib.metrics.AddRoutes(c.graph.Len() - before)
			return nil
		},
	})
}

// RemoveRoute fades the route out over fadeTime seconds, then deletes it.
// Removing a missing route is a no-op.
func (l *Library) RemoveRoute(ctx, src, dst ir.Handle, fadeTime float64) error {
	c, err := l.context(ctx, false)
	if err != nil {
		return err
	}
	if err := l.routeEndpoints(ctx, src, dst, false); err != nil {
		return err
	}
	blocks, err := c.fadeBlocks(fadeTime)
	if err != nil {
		return err
	}
	return c.stage(mutation{
		kind: "remove_route",
		apply: func(c *Context) error {
			before := c.graph.Len()
			c.graph.Remove(src, dst, blocks)
			c.lib.metrics.AddRoutes(c.graph.Len() - before)
			return nil
		},
	})
}

// RemoveAllRoutes fades out every route leaving src.
func (l *Library) RemoveAllRoutes(ctx, src ir.Handle, fadeTime float64) error {
	c, err := l.context(ctx, false)
	if err != nil {
		return err
	}
	s, err := l.resolveType(src, false, ir.ObjectType.IsSource, "a source")
	if err != nil {
		return err
	}
	if s.context != ctx {
		return newError(CodeInvalidValue, src, "source belongs to another context")
	}
	blocks, err := c.fadeBlocks(fadeTime)
	if err != nil {
		return err
	}
	return c.stage(mutation{
		kind: "remove_all_routes",
		apply: func(c *Context) error {
			before := c.graph.Len()
			c.graph.RemoveAll(src, blocks)
			c.lib.metrics.AddRoutes(c.graph.Len() - before)
			return nil
		},
	})
}

// RouteGain returns the committed gain of a route and whether it exists.
func (l *Library) RouteGain(ctx, src, dst ir.Handle) (float64, bool, error) {
	c, err := l.context(ctx, false)
	if err != nil {
		return 0, false, err
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	e, ok := c.graph.Edge(src, dst)
	return e.Gain, ok, nil
}

// Routes returns every edge of a context in (source, destination) order.
func (l *Library) Routes(ctx ir.Handle) ([]routing.Snapshot, error) {
	c, err := l.context(ctx, false)
	if err != nil {
		return nil, err
	}
	c.renderMu.Lock()
	defer c.renderMu.Unlock()
	return c.graph.Edges(), nil
}

func (l *Library) routeEndpoints(ctx, src, dst ir.Handle, alive bool) error {
	s, err := l.resolveType(src, alive, ir.ObjectType.IsSource, "a source")
	if err != nil {
		return err
	}
	d, err := l.resolveType(dst, alive, ir.ObjectType.IsEffect, "an effect")
	if err != nil {
		return err
	}
	if s.context != ctx || d.context != ctx {
		return newError(CodeInvalidValue, ir.NoHandle, "route endpoints belong to another context")
	}
	return nil
}
