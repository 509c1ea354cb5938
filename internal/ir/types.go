package ir

import "fmt"

// Handle is an opaque reference to a live engine object.
//
// The low 32 bits hold the arena slot index plus one, the high 32 bits hold
// the slot generation. The zero Handle is never valid.
type Handle uint64

// NoHandle is the zero handle. It never refers to an object.
const NoHandle Handle = 0

// MakeHandle packs a slot index and generation into a Handle.
func MakeHandle(slot uint32, gen uint32) Handle {
	return Handle(uint64(gen)<<32 | uint64(slot+1))
}

// Slot returns the arena slot index encoded in h.
// The second result is false for NoHandle.
func (h Handle) Slot() (uint32, bool) {
	low := uint32(h)
	if low == 0 {
		return 0, false
	}
	return low - 1, true
}

// Generation returns the slot generation encoded in h.
func (h Handle) Generation() uint32 {
	return uint32(h >> 32)
}

// String renders the handle for logs and traces.
func (h Handle) String() string {
	slot, ok := h.Slot()
	if !ok {
		return "h:none"
	}
	return fmt.Sprintf("h:%d.%d", slot, h.Generation())
}

// ObjectType tags every handle at creation. It never changes.
type ObjectType int

const (
	ObjectTypeContext ObjectType = iota
	ObjectTypeBuffer
	ObjectTypeBufferGenerator
	ObjectTypeStreamingGenerator
	ObjectTypeNoiseGenerator
	ObjectTypeDirectSource
	ObjectTypeAngularPannedSource
	ObjectTypeScalarPannedSource
	ObjectTypeSource3D
	ObjectTypeGlobalEcho
	ObjectTypeGlobalFDNReverb
	ObjectTypeStreamHandle
	ObjectTypeAutomationBatch
	ObjectTypeFastSineBankGenerator

	objectTypeCount
)

var objectTypeNames = [...]string{
	ObjectTypeContext:               "context",
	ObjectTypeBuffer:                "buffer",
	ObjectTypeBufferGenerator:       "buffer_generator",
	ObjectTypeStreamingGenerator:    "streaming_generator",
	ObjectTypeNoiseGenerator:        "noise_generator",
	ObjectTypeDirectSource:          "direct_source",
	ObjectTypeAngularPannedSource:   "angular_panned_source",
	ObjectTypeScalarPannedSource:    "scalar_panned_source",
	ObjectTypeSource3D:              "source_3d",
	ObjectTypeGlobalEcho:            "global_echo",
	ObjectTypeGlobalFDNReverb:       "global_fdn_reverb",
	ObjectTypeStreamHandle:          "stream_handle",
	ObjectTypeAutomationBatch:       "automation_batch",
	ObjectTypeFastSineBankGenerator: "fast_sine_bank_generator",
}

// String returns the snake_case name used in logs, traces and scenarios.
func (t ObjectType) String() string {
	if t < 0 || t >= objectTypeCount {
		return fmt.Sprintf("object_type(%d)", int(t))
	}
	return objectTypeNames[t]
}

// Valid reports whether t is a known object type.
func (t ObjectType) Valid() bool {
	return t >= 0 && t < objectTypeCount
}

// ParseObjectType resolves a snake_case name back to its ObjectType.
func ParseObjectType(name string) (ObjectType, bool) {
	for i, n := range objectTypeNames {
		if n == name {
			return ObjectType(i), true
		}
	}
	return 0, false
}

// IsSource reports whether objects of this type may be the origin of a route.
func (t ObjectType) IsSource() bool {
	switch t {
	case ObjectTypeDirectSource, ObjectTypeAngularPannedSource,
		ObjectTypeScalarPannedSource, ObjectTypeSource3D:
		return true
	}
	return false
}

// IsEffect reports whether objects of this type may be the destination of a route.
func (t ObjectType) IsEffect() bool {
	return t == ObjectTypeGlobalEcho || t == ObjectTypeGlobalFDNReverb
}

// IsGenerator reports whether objects of this type produce audio for sources.
func (t ObjectType) IsGenerator() bool {
	switch t {
	case ObjectTypeBufferGenerator, ObjectTypeStreamingGenerator,
		ObjectTypeNoiseGenerator, ObjectTypeFastSineBankGenerator:
		return true
	}
	return false
}

// IsPausable reports whether Play/Pause apply to this type.
func (t ObjectType) IsPausable() bool {
	return t == ObjectTypeContext || t.IsSource() || t.IsGenerator() || t.IsEffect()
}

// PannerStrategy selects the spatialization algorithm of a panned source.
type PannerStrategy int

const (
	PannerStrategyDelegate PannerStrategy = iota
	PannerStrategyHRTF
	PannerStrategyStereo

	pannerStrategyCount
)

// Valid reports whether s is a known strategy.
func (s PannerStrategy) Valid() bool { return s >= 0 && s < pannerStrategyCount }

func (s PannerStrategy) String() string {
	switch s {
	case PannerStrategyDelegate:
		return "delegate"
	case PannerStrategyHRTF:
		return "hrtf"
	case PannerStrategyStereo:
		return "stereo"
	}
	return fmt.Sprintf("panner_strategy(%d)", int(s))
}

// DistanceModel selects how 3D sources attenuate with distance.
type DistanceModel int

const (
	DistanceModelNone DistanceModel = iota
	DistanceModelLinear
	DistanceModelExponential
	DistanceModelInverse

	distanceModelCount
)

// NoiseType selects the algorithm of a noise generator.
type NoiseType int

const (
	NoiseTypeUniform NoiseType = iota
	NoiseTypeVM
	NoiseTypeFilteredBrown

	noiseTypeCount
)

// EventType tags entries of a context event queue.
type EventType int

const (
	EventTypeInvalid EventType = iota
	EventTypeLooped
	EventTypeFinished
	EventTypeUserAutomation
)

func (t EventType) String() string {
	switch t {
	case EventTypeLooped:
		return "looped"
	case EventTypeFinished:
		return "finished"
	case EventTypeUserAutomation:
		return "user_automation"
	}
	return "invalid"
}

// ParseEventType resolves an event type name.
func ParseEventType(name string) (EventType, bool) {
	for _, t := range []EventType{EventTypeLooped, EventTypeFinished, EventTypeUserAutomation} {
		if t.String() == name {
			return t, true
		}
	}
	return EventTypeInvalid, false
}

// InterpolationType governs the automation segment ending at a point.
type InterpolationType int

const (
	// InterpolationNone holds the previous value until the point's time, then jumps.
	InterpolationNone InterpolationType = iota
	// InterpolationLinear ramps from the previous point to this one.
	InterpolationLinear
)

func (t InterpolationType) String() string {
	if t == InterpolationLinear {
		return "linear"
	}
	return "none"
}

// Valid reports whether t is a known interpolation type.
func (t InterpolationType) Valid() bool {
	return t == InterpolationNone || t == InterpolationLinear
}

// AutomationCommandKind identifies the action of one automation command.
type AutomationCommandKind int

const (
	AutomationAppendProperty AutomationCommandKind = iota
	AutomationSendUserEvent
	AutomationClearProperty
	AutomationClearEvents
	AutomationClearAllProperties
)

func (k AutomationCommandKind) String() string {
	switch k {
	case AutomationAppendProperty:
		return "append_property"
	case AutomationSendUserEvent:
		return "send_user_event"
	case AutomationClearProperty:
		return "clear_property"
	case AutomationClearEvents:
		return "clear_events"
	case AutomationClearAllProperties:
		return "clear_all_properties"
	}
	return fmt.Sprintf("automation_command(%d)", int(k))
}
