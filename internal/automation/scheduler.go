package automation

import (
	"cmp"
	"fmt"
	"slices"
	"sort"

	"github.com/roach88/synthplane/internal/ir"
)

// CurrentFunc reads the committed value of a property. The scheduler uses it
// to anchor the first segment of a new timeline.
type CurrentFunc func(h ir.Handle, p ir.Property) (ir.Value, error)

// Update is one property value to apply this block.
type Update struct {
	Target   ir.Handle
	Property ir.Property
	Value    ir.Value
}

// UserEvent is a scheduled user event.
type UserEvent struct {
	Target ir.Handle
	Time   float64
	Param  uint64
	seq    uint64
}

type timeline struct {
	anchor      Point
	points      []Point // strictly increasing Time
	lastApplied ir.Value
}

// insert adds p keeping time order; an identical time replaces.
func (tl *timeline) insert(p Point) {
	i := sort.Search(len(tl.points), func(i int) bool { return tl.points[i].Time >= p.Time })
	if i < len(tl.points) && tl.points[i].Time == p.Time {
		tl.points[i] = p
		return
	}
	tl.points = slices.Insert(tl.points, i, p)
}

// valueAt evaluates the timeline at now and prunes passed segments.
// done reports that every point has passed.
func (tl *timeline) valueAt(now float64) (v ir.Value, active, done bool, err error) {
	i := sort.Search(len(tl.points), func(i int) bool { return tl.points[i].Time > now })

	if i == len(tl.points) {
		return tl.points[len(tl.points)-1].Value, true, true, nil
	}

	prev := tl.anchor
	if i > 0 {
		prev = tl.points[i-1]
		// Keep the last passed point as the new anchor
		tl.anchor = prev
		tl.points = tl.points[i:]
	}
	next := tl.points[0]

	if next.Interp != ir.InterpolationLinear {
		if i == 0 {
			return nil, false, false, nil
		}
		return prev.Value, true, false, nil
	}

	span := next.Time - prev.Time
	if span <= 0 {
		return next.Value, true, false, nil
	}
	v, err = ir.Lerp(prev.Value, next.Value, (now-prev.Time)/span)
	return v, true, false, err
}

// Scheduler holds every timeline of one context. It is owned by the
// context's render goroutine and is not safe for concurrent use.
type Scheduler struct {
	timelines map[ir.Handle]map[ir.Property]*timeline
	events    map[ir.Handle][]UserEvent
	seq       uint64
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{
		timelines: make(map[ir.Handle]map[ir.Property]*timeline),
		events:    make(map[ir.Handle][]UserEvent),
	}
}

// Merge applies a batch's commands in order at context time now.
// Anchors are resolved first, so a failure leaves the scheduler untouched.
func (s *Scheduler) Merge(cmds []Command, now float64, current CurrentFunc) error {
	type anchorKey struct {
		h ir.Handle
		p ir.Property
	}
	anchors := make(map[anchorKey]ir.Value)
	for _, c := range cmds {
		if c.Kind != ir.AutomationAppendProperty {
			continue
		}
		k := anchorKey{c.Target, c.Property}
		if _, ok := anchors[k]; ok {
			continue
		}
		v, err := current(c.Target, c.Property)
		if err != nil {
			return fmt.Errorf("anchor %s on %s: %w", c.Property, c.Target, err)
		}
		if v.Shape() != c.Point.Value.Shape() {
			return fmt.Errorf("append %s on %s: %w", c.Property, c.Target, ir.ErrShapeMismatch)
		}
		anchors[k] = v
	}

	for _, c := range cmds {
		switch c.Kind {
		case ir.AutomationAppendProperty:
			props, ok := s.timelines[c.Target]
			if !ok {
				props = make(map[ir.Property]*timeline)
				s.timelines[c.Target] = props
			}
			tl, ok := props[c.Property]
			if !ok {
				tl = &timeline{anchor: Point{Time: now, Value: anchors[anchorKey{c.Target, c.Property}]}}
				props[c.Property] = tl
			}
			tl.insert(c.Point)

		case ir.AutomationClearProperty:
			if props, ok := s.timelines[c.Target]; ok {
				delete(props, c.Property)
				if len(props) == 0 {
					delete(s.timelines, c.Target)
				}
			}

		case ir.AutomationClearAllProperties:
			delete(s.timelines, c.Target)

		case ir.AutomationSendUserEvent:
			s.seq++
			ev := UserEvent{Target: c.Target, Time: c.Time, Param: c.Param, seq: s.seq}
			list := s.events[c.Target]
			i := sort.Search(len(list), func(i int) bool { return list[i].Time > ev.Time })
			s.events[c.Target] = slices.Insert(list, i, ev)

		case ir.AutomationClearEvents:
			delete(s.events, c.Target)
		}
	}
	return nil
}

// Advance evaluates every timeline at now. It returns the property values
// that changed and the user events whose time has passed, both in a
// deterministic order.
func (s *Scheduler) Advance(now float64) ([]Update, []UserEvent, error) {
	var updates []Update
	var errs []error

	for _, h := range sortedHandles(s.timelines) {
		props := s.timelines[h]
		ps := make([]ir.Property, 0, len(props))
		for p := range props {
			ps = append(ps, p)
		}
		slices.Sort(ps)

		for _, p := range ps {
			tl := props[p]
			v, active, done, err := tl.valueAt(now)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s on %s: %w", p, h, err))
				delete(props, p)
				continue
			}
			if active && v != tl.lastApplied {
				updates = append(updates, Update{Target: h, Property: p, Value: v})
				tl.lastApplied = v
			}
			if done {
				delete(props, p)
			}
		}
		if len(props) == 0 {
			delete(s.timelines, h)
		}
	}

	var fired []UserEvent
	for h, list := range s.events {
		i := sort.Search(len(list), func(i int) bool { return list[i].Time > now })
		if i == 0 {
			continue
		}
		fired = append(fired, list[:i]...)
		if i == len(list) {
			delete(s.events, h)
		} else {
			s.events[h] = list[i:]
		}
	}
	slices.SortFunc(fired, func(a, b UserEvent) int {
		if c := cmp.Compare(a.Time, b.Time); c != 0 {
			return c
		}
		return cmp.Compare(a.seq, b.seq)
	})

	if len(errs) > 0 {
		return updates, fired, fmt.Errorf("advance: %v", errs)
	}
	return updates, fired, nil
}

// Drop forgets every timeline and pending event of h.
func (s *Scheduler) Drop(h ir.Handle) {
	delete(s.timelines, h)
	delete(s.events, h)
}

// PendingPoints returns the number of future points for (h, p).
func (s *Scheduler) PendingPoints(h ir.Handle, p ir.Property) int {
	tl, ok := s.timelines[h][p]
	if !ok {
		return 0
	}
	return len(tl.points)
}

// PendingEvents returns the number of scheduled user events for h.
func (s *Scheduler) PendingEvents(h ir.Handle) int {
	return len(s.events[h])
}

// Active returns the number of handles with running timelines.
func (s *Scheduler) Active() int {
	return len(s.timelines)
}

func sortedHandles[V any](m map[ir.Handle]V) []ir.Handle {
	out := make([]ir.Handle, 0, len(m))
	for h := range m {
		out = append(out, h)
	}
	slices.Sort(out)
	return out
}
