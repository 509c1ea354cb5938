package harness

import (
	"context"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/roach88/synthplane/internal/ir"
)

// AssertionError is returned when an expectation fails.
type AssertionError struct {
	Type     string // Expectation type
	Block    int    // Block after which it was checked; -1 for end of run
	Expected string
	Actual   string
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder
	if e.Block >= 0 {
		fmt.Fprintf(&buf, "Assertion failed: %s after block %d\n", e.Type, e.Block)
	} else {
		fmt.Fprintf(&buf, "Assertion failed: %s at end of run\n", e.Type)
	}
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s", e.Actual)
	return buf.String()
}

// check evaluates one per-block expectation against the live library.
func (h *Harness) check(e Expectation) error {
	fail := func(expected, actual string) error {
		return &AssertionError{Type: e.Type, Block: e.Block, Expected: expected, Actual: actual}
	}

	switch e.Type {
	case ExpectRouteGain:
		gain, ok, err := h.lib.RouteGain(h.ctx, h.names[e.Source], h.names[e.Destination])
		if err != nil {
			return fail("route query to succeed", err.Error())
		}
		edge := e.Source + " -> " + e.Destination
		if e.Absent {
			if ok {
				return fail("no edge "+edge, fmt.Sprintf("edge with gain %.4f", gain))
			}
			return nil
		}
		if !ok {
			return fail(fmt.Sprintf("edge %s with gain %.4f", edge, *e.Gain), "no edge")
		}
		if math.Abs(gain-*e.Gain) > floatTolerance {
			return fail(fmt.Sprintf("edge %s with gain %.4f", edge, *e.Gain), fmt.Sprintf("gain %.4f", gain))
		}

	case ExpectProperty:
		p, _ := ir.ParseProperty(e.Property)
		want, err := toValue(p, e.Value, h.names)
		if err != nil {
			return fail(fmt.Sprintf("a valid expected value for %s", e.Property), err.Error())
		}
		got, err := h.lib.GetProperty(h.names[e.Object], p)
		if err != nil {
			return fail(fmt.Sprintf("%s.%s = %s", e.Object, e.Property, ir.FormatValue(want)), err.Error())
		}
		if !sameValue(got, want, floatTolerance) {
			return fail(fmt.Sprintf("%s.%s = %s", e.Object, e.Property, ir.FormatValue(want)), ir.FormatValue(got))
		}

	case ExpectAlive:
		_, err := h.lib.ObjectType(h.names[e.Object])
		alive := err == nil
		if alive != *e.Alive {
			return fail(fmt.Sprintf("%s alive=%t", e.Object, *e.Alive), fmt.Sprintf("alive=%t", alive))
		}

	case ExpectEdges:
		routes, err := h.lib.Routes(h.ctx)
		if err != nil {
			return fail("route query to succeed", err.Error())
		}
		if len(routes) != *e.Count {
			return fail(fmt.Sprintf("%d edges", *e.Count), fmt.Sprintf("%d edges", len(routes)))
		}
	}
	return nil
}

// checkEvents compares the stored event types of the run, in drain order.
func (h *Harness) checkEvents(ctx context.Context, e Expectation) error {
	recs, err := h.store.ReadEvents(ctx, h.runID)
	if err != nil {
		return err
	}
	got := make([]string, len(recs))
	for i, r := range recs {
		got[i] = r.Type
	}
	want := e.Types
	if want == nil {
		want = []string{}
	}
	if !slices.Equal(got, want) {
		return &AssertionError{
			Type:     ExpectEvents,
			Block:    -1,
			Expected: fmt.Sprintf("%v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}
	return nil
}
