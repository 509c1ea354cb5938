package handle

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/synthplane/internal/ir"
)

// ErrInvalidHandle is returned for unknown, reaped or (for Retain/Release)
// doomed handles.
var ErrInvalidHandle = errors.New("invalid handle")

// FreeFunc releases a user-data blob. It is invoked exactly once.
type FreeFunc func(data any)

// DestroyHook runs when a handle is reaped, before its user data is freed.
// Hooks run outside the registry lock and may call back into the registry.
type DestroyHook func(h ir.Handle, typ ir.ObjectType)

// ClockFunc reports the current time in seconds of an owning context.
type ClockFunc func(owner ir.Handle) float64

// DeleteBehavior configures deferred deletion.
type DeleteBehavior struct {
	Linger        bool
	LingerTimeout float64 // seconds of owner context time
}

// Info is a snapshot of one handle's bookkeeping.
type Info struct {
	Type      ir.ObjectType
	Owner     ir.Handle
	Refs      int
	Pins      int
	Doomed    bool
	CreatedAt time.Time
	Behavior  DeleteBehavior
}

type slot struct {
	gen   uint32
	inUse bool

	typ       ir.ObjectType
	owner     ir.Handle
	refs      int
	pins      int
	doomed    bool
	behavior  DeleteBehavior
	released  float64
	createdAt time.Time

	userdata any
	free     FreeFunc
}

// reaped carries what must run after the lock is dropped.
type reaped struct {
	h        ir.Handle
	typ      ir.ObjectType
	userdata any
	free     FreeFunc
}

// Registry owns every handle. It is safe for concurrent use; the lock guards
// bookkeeping only and is never held while hooks or free callbacks run.
type Registry struct {
	mu     sync.Mutex
	slots  []slot
	freed  []uint32
	live   int
	doomed map[ir.Handle]map[ir.Handle]struct{} // owner -> doomed children

	clock  ClockFunc
	hooks  []DestroyHook
	logger *slog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock sets the owner clock used to stamp releases.
func WithClock(clock ClockFunc) Option {
	return func(r *Registry) {
		r.clock = clock
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		slots:  make([]slot, 0, 64),
		doomed: make(map[ir.Handle]map[ir.Handle]struct{}),
		clock:  func(ir.Handle) float64 { return 0 },
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnDestroy registers a hook run for every reaped handle.
// Register hooks before handles are created.
func (r *Registry) OnDestroy(hook DestroyHook) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.hooks = append(r.hooks, hook)
}

// Create allocates a handle with refcount 1. owner is the context the object
// belongs to, or ir.NoHandle for context-independent objects.
func (r *Registry) Create(typ ir.ObjectType, owner ir.Handle, behavior DeleteBehavior) (ir.Handle, error) {
	if !typ.Valid() {
		return ir.NoHandle, fmt.Errorf("create: unknown object type %d", int(typ))
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	var idx uint32
	if n := len(r.freed); n > 0 {
		idx = r.freed[n-1]
		r.freed = r.freed[:n-1]
	} else {
		r.slots = append(r.slots, slot{})
		idx = uint32(len(r.slots) - 1)
	}

	s := &r.slots[idx]
	gen := s.gen
	*s = slot{
		gen:       gen,
		inUse:     true,
		typ:       typ,
		owner:     owner,
		refs:      1,
		behavior:  behavior,
		createdAt: time.Now(),
	}
	r.live++

	return ir.MakeHandle(idx, gen), nil
}

// lookup resolves h to its slot. Caller holds r.mu.
func (r *Registry) lookup(h ir.Handle) (*slot, error) {
	idx, ok := h.Slot()
	if !ok || int(idx) >= len(r.slots) {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	s := &r.slots[idx]
	if !s.inUse || s.gen != h.Generation() {
		return nil, fmt.Errorf("%w: %s", ErrInvalidHandle, h)
	}
	return s, nil
}

// lookupAlive resolves h and rejects doomed handles. Caller holds r.mu.
func (r *Registry) lookupAlive(h ir.Handle) (*slot, error) {
	s, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	if s.doomed {
		return nil, fmt.Errorf("%w: %s is scheduled for deletion", ErrInvalidHandle, h)
	}
	return s, nil
}

// Retain increments the reference count and returns the new count.
func (r *Registry) Retain(h ir.Handle) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookupAlive(h)
	if err != nil {
		return 0, err
	}
	s.refs++
	return s.refs, nil
}

// Release decrements the reference count and returns the new count.
//
// Reaching zero always succeeds and schedules deletion. Releasing a handle
// that is already scheduled fails with ErrInvalidHandle.
func (r *Registry) Release(h ir.Handle) (int, error) {
	r.mu.Lock()
	s, err := r.lookupAlive(h)
	if err != nil {
		r.mu.Unlock()
		return 0, err
	}
	s.refs--
	refs := s.refs
	var out []reaped
	if refs == 0 {
		s.doomed = true
		if s.owner == ir.NoHandle {
			if s.pins == 0 {
				out = append(out, r.reapLocked(h, s))
			}
		} else {
			s.released = r.clock(s.owner)
			r.markDoomedLocked(s.owner, h)
		}
	}
	r.mu.Unlock()

	r.finish(out)
	return refs, nil
}

// Pin records an internal reference that keeps h from being reaped.
// Doomed handles may be pinned; reaped ones may not.
func (r *Registry) Pin(h ir.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(h)
	if err != nil {
		return err
	}
	s.pins++
	return nil
}

// Unpin drops an internal reference taken with Pin.
func (r *Registry) Unpin(h ir.Handle) error {
	r.mu.Lock()
	s, err := r.lookup(h)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	if s.pins == 0 {
		r.mu.Unlock()
		return fmt.Errorf("unpin %s: not pinned", h)
	}
	s.pins--
	var out []reaped
	if s.pins == 0 && s.doomed && s.owner == ir.NoHandle {
		out = append(out, r.reapLocked(h, s))
	}
	r.mu.Unlock()

	r.finish(out)
	return nil
}

// Collect reaps the doomed children of owner whose linger window has passed
// at time now. It must be called from the owner's render goroutine at a block
// boundary. Returns the reaped handles.
func (r *Registry) Collect(owner ir.Handle, now float64) []ir.Handle {
	r.mu.Lock()
	set := r.doomed[owner]
	var out []reaped
	for h := range set {
		s, err := r.lookup(h)
		if err != nil {
			delete(set, h)
			continue
		}
		if s.pins > 0 {
			continue
		}
		if s.behavior.Linger && now-s.released <= s.behavior.LingerTimeout {
			continue
		}
		delete(set, h)
		out = append(out, r.reapLocked(h, s))
	}
	if len(set) == 0 {
		delete(r.doomed, owner)
	}
	r.mu.Unlock()

	r.finish(out)

	handles := make([]ir.Handle, len(out))
	for i, rp := range out {
		handles[i] = rp.h
	}
	return handles
}

// Pending reports how many doomed children of owner await reaping.
func (r *Registry) Pending(owner ir.Handle) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.doomed[owner])
}

func (r *Registry) markDoomedLocked(owner, h ir.Handle) {
	set, ok := r.doomed[owner]
	if !ok {
		set = make(map[ir.Handle]struct{})
		r.doomed[owner] = set
	}
	set[h] = struct{}{}
}

// reapLocked frees the slot. Caller holds r.mu and must pass the result to finish.
func (r *Registry) reapLocked(h ir.Handle, s *slot) reaped {
	out := reaped{h: h, typ: s.typ, userdata: s.userdata, free: s.free}
	idx, _ := h.Slot()
	*s = slot{gen: s.gen + 1}
	r.freed = append(r.freed, idx)
	r.live--
	return out
}

// finish runs destroy hooks and free callbacks outside the lock.
func (r *Registry) finish(out []reaped) {
	if len(out) == 0 {
		return
	}
	r.mu.Lock()
	hooks := make([]DestroyHook, len(r.hooks))
	copy(hooks, r.hooks)
	r.mu.Unlock()

	for _, rp := range out {
		for _, hook := range hooks {
			hook(rp.h, rp.typ)
		}
		if rp.free != nil {
			rp.free(rp.userdata)
		}
		r.logger.Debug("handle reaped", "handle", rp.h, "type", rp.typ)
	}
}

// Type returns the object type of h. Doomed handles still resolve.
func (r *Registry) Type(h ir.Handle) (ir.ObjectType, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(h)
	if err != nil {
		return 0, err
	}
	return s.typ, nil
}

// Info returns a snapshot of h's bookkeeping.
func (r *Registry) Info(h ir.Handle) (Info, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(h)
	if err != nil {
		return Info{}, err
	}
	return Info{
		Type:      s.typ,
		Owner:     s.owner,
		Refs:      s.refs,
		Pins:      s.pins,
		Doomed:    s.doomed,
		CreatedAt: s.createdAt,
		Behavior:  s.behavior,
	}, nil
}

// Alive reports whether h resolves and is not scheduled for deletion.
func (r *Registry) Alive(h ir.Handle) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, err := r.lookupAlive(h)
	return err == nil
}

// ConfigureDeleteBehavior replaces the deletion policy of h.
func (r *Registry) ConfigureDeleteBehavior(h ir.Handle, b DeleteBehavior) error {
	if b.LingerTimeout < 0 {
		return fmt.Errorf("linger timeout must be non-negative, got %g", b.LingerTimeout)
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookupAlive(h)
	if err != nil {
		return err
	}
	s.behavior = b
	return nil
}

// UserData returns the blob attached to h.
func (r *Registry) UserData(h ir.Handle) (any, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, err := r.lookup(h)
	if err != nil {
		return nil, err
	}
	return s.userdata, nil
}

// SetUserData attaches a blob to h. A previous blob with a free callback is
// freed exactly once, after the new one is installed.
func (r *Registry) SetUserData(h ir.Handle, data any, free FreeFunc) error {
	r.mu.Lock()
	s, err := r.lookup(h)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	oldData, oldFree := s.userdata, s.free
	s.userdata, s.free = data, free
	r.mu.Unlock()

	if oldFree != nil {
		oldFree(oldData)
	}
	return nil
}

// Live returns the number of handles not yet reaped.
func (r *Registry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// Handles lists every handle not yet reaped, optionally filtered by owner.
// Pass ir.NoHandle to list all.
func (r *Registry) Handles(owner ir.Handle) []ir.Handle {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []ir.Handle
	for i := range r.slots {
		s := &r.slots[i]
		if !s.inUse {
			continue
		}
		if owner != ir.NoHandle && s.owner != owner {
			continue
		}
		out = append(out, ir.MakeHandle(uint32(i), s.gen))
	}
	return out
}

// Reset reaps every handle regardless of references. Used at shutdown.
// Hooks are not run; free callbacks are.
func (r *Registry) Reset() {
	r.mu.Lock()
	var frees []reaped
	for i := range r.slots {
		s := &r.slots[i]
		if !s.inUse {
			continue
		}
		if s.free != nil {
			frees = append(frees, reaped{userdata: s.userdata, free: s.free})
		}
		*s = slot{gen: s.gen + 1}
		r.freed = append(r.freed, uint32(i))
	}
	r.live = 0
	r.doomed = make(map[ir.Handle]map[ir.Handle]struct{})
	r.mu.Unlock()

	for _, f := range frees {
		f.free(f.userdata)
	}
}
