package engine

import (
	"github.com/roach88/synthplane/internal/buffer"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/routing"
)

// Renderer is the DSP collaborator. The engine calls it only from a
// context's render step. Real-time contexts render concurrently, so a
// renderer shared between them must be safe for concurrent use.
//
// Implementations must not call back into the engine.
type Renderer interface {
	// ApplyProperty delivers a committed property value.
	ApplyProperty(h ir.Handle, p ir.Property, v ir.Value)

	// Render computes one block. It returns interleaved stereo samples
	// (len = 2*BlockSize) and any generator signals raised during the block.
	Render(f *Frame) ([]float32, []Signal)

	// ResetEffect clears an effect's internal state.
	ResetEffect(h ir.Handle)

	// Forget is called once when h is destroyed.
	Forget(h ir.Handle)
}

// OutputChannels is the channel count of rendered blocks.
const OutputChannels = 2

// Frame is the committed graph state of one context for one block.
type Frame struct {
	Context    ir.Handle
	Block      uint64
	Time       float64
	BlockSize  int
	SampleRate int
	Paused     bool

	// Objects lists every object of the context in handle order.
	Objects []ObjectState
	// Routes lists every edge in (source, destination) order, with the gain
	// and filter state to use for this block.
	Routes []routing.Snapshot
}

// ObjectState is the render-side view of one object.
type ObjectState struct {
	Handle     ir.Handle
	Type       ir.ObjectType
	Paused     bool
	Generators []ir.Handle    // sources only, in handle order
	EchoTaps   []EchoTap      // global echo only
	Buffer     *buffer.Buffer // buffer generators: the committed Buffer property
	Spec       *ObjectSpec
}

// Signal is a generator notification raised by the DSP.
type Signal struct {
	Type   ir.EventType // Looped or Finished
	Source ir.Handle
}

// NullRenderer renders silence and raises no signals.
type NullRenderer struct{}

func (NullRenderer) ApplyProperty(ir.Handle, ir.Property, ir.Value) {}

func (NullRenderer) Render(f *Frame) ([]float32, []Signal) {
	return make([]float32, f.BlockSize*OutputChannels), nil
}

func (NullRenderer) ResetEffect(ir.Handle) {}

func (NullRenderer) Forget(ir.Handle) {}
