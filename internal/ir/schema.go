package ir

import (
	"errors"
	"fmt"
	"math"
)

// Sentinel errors returned by value validation. Callers map them to
// engine error codes.
var (
	ErrShapeMismatch = errors.New("value shape does not match property")
	ErrOutOfRange    = errors.New("value out of range")
)

// PropertySpec declares how one property behaves.
type PropertySpec struct {
	Property Property
	Shape    Shape
	ReadOnly bool

	// HasRange bounds scalar values (Int and Double) to [Min, Max].
	HasRange bool
	Min, Max float64

	// Default is the value a new object starts with.
	Default Value

	// Accepts lists the object types an ObjectRef property may point to.
	Accepts []ObjectType
}

// Automatable reports whether the property may carry automation points.
func (s PropertySpec) Automatable() bool {
	return !s.ReadOnly && s.Shape.Automatable()
}

// Validate checks shape and range of v against the spec. It does not check
// object references for liveness; the property table does that.
func (s PropertySpec) Validate(v Value) error {
	if v == nil || v.Shape() != s.Shape {
		got := "nil"
		if v != nil {
			got = v.Shape().String()
		}
		return fmt.Errorf("%w: %s expects %s, got %s", ErrShapeMismatch, s.Property, s.Shape, got)
	}
	switch val := v.(type) {
	case Int:
		return s.checkRange(float64(val))
	case Double:
		return s.checkRange(float64(val))
	case Double3:
		return checkFinite(s.Property, val[:])
	case Double6:
		if err := checkFinite(s.Property, val[:]); err != nil {
			return err
		}
		if s.Property == PropOrientation {
			return checkOrientation(val)
		}
	case Biquad:
		return checkFinite(s.Property, []float64{val.B0, val.B1, val.B2, val.A1, val.A2, val.Gain})
	}
	return nil
}

func (s PropertySpec) checkRange(f float64) error {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return fmt.Errorf("%w: %s must be finite", ErrOutOfRange, s.Property)
	}
	if s.HasRange && (f < s.Min || f > s.Max) {
		return fmt.Errorf("%w: %s must be in [%g, %g], got %g", ErrOutOfRange, s.Property, s.Min, s.Max, f)
	}
	return nil
}

func checkFinite(p Property, c []float64) error {
	for _, f := range c {
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: %s must be finite", ErrOutOfRange, p)
		}
	}
	return nil
}

func checkOrientation(v Double6) error {
	at := math.Sqrt(v[0]*v[0] + v[1]*v[1] + v[2]*v[2])
	up := math.Sqrt(v[3]*v[3] + v[4]*v[4] + v[5]*v[5])
	if at == 0 || up == 0 {
		return fmt.Errorf("%w: orientation vectors must be non-zero", ErrOutOfRange)
	}
	dot := (v[0]*v[3] + v[1]*v[4] + v[2]*v[5]) / (at * up)
	if math.Abs(dot) > 1e-3 {
		return fmt.Errorf("%w: orientation vectors must be orthogonal", ErrOutOfRange)
	}
	return nil
}

func scalar(p Property, shape Shape, def float64, lo, hi float64) PropertySpec {
	spec := PropertySpec{Property: p, Shape: shape, HasRange: true, Min: lo, Max: hi}
	if shape == ShapeInt {
		spec.Default = Int(def)
	} else {
		spec.Default = Double(def)
	}
	return spec
}

func unbounded(p Property, def float64) PropertySpec {
	return PropertySpec{Property: p, Shape: ShapeDouble, Default: Double(def)}
}

func filter(p Property) PropertySpec {
	return PropertySpec{Property: p, Shape: ShapeBiquad, Default: BiquadIdentity()}
}

func readOnlyTime(p Property) PropertySpec {
	return PropertySpec{Property: p, Shape: ShapeDouble, ReadOnly: true, Default: Double(0)}
}

var inf = math.Inf(1)

// propertySpecs is indexed by Property.
var propertySpecs = [...]PropertySpec{
	PropAzimuth:                            scalar(PropAzimuth, ShapeDouble, 0, 0, 360),
	PropBuffer:                             {Property: PropBuffer, Shape: ShapeObject, Default: ObjectRef(NoHandle), Accepts: []ObjectType{ObjectTypeBuffer}},
	PropElevation:                          scalar(PropElevation, ShapeDouble, 0, -90, 90),
	PropGain:                               scalar(PropGain, ShapeDouble, 1, 0, inf),
	PropDefaultPannerStrategy:              scalar(PropDefaultPannerStrategy, ShapeInt, float64(PannerStrategyStereo), float64(PannerStrategyHRTF), float64(PannerStrategyStereo)),
	PropPanningScalar:                      scalar(PropPanningScalar, ShapeDouble, 0, -1, 1),
	PropPlaybackPosition:                   scalar(PropPlaybackPosition, ShapeDouble, 0, 0, inf),
	PropPosition:                           {Property: PropPosition, Shape: ShapeDouble3, Default: Double3{}},
	PropOrientation:                        {Property: PropOrientation, Shape: ShapeDouble6, Default: Double6{0, 1, 0, 0, 0, 1}},
	PropClosenessBoost:                     unbounded(PropClosenessBoost, 0),
	PropClosenessBoostDistance:             scalar(PropClosenessBoostDistance, ShapeDouble, 0, 0, inf),
	PropDistanceMax:                        scalar(PropDistanceMax, ShapeDouble, 50, 0, inf),
	PropDistanceModel:                      scalar(PropDistanceModel, ShapeInt, float64(DistanceModelLinear), 0, float64(distanceModelCount-1)),
	PropDistanceRef:                        scalar(PropDistanceRef, ShapeDouble, 1, 0, inf),
	PropRolloff:                            scalar(PropRolloff, ShapeDouble, 1, 0, inf),
	PropDefaultClosenessBoost:              unbounded(PropDefaultClosenessBoost, 0),
	PropDefaultClosenessBoostDistance:      scalar(PropDefaultClosenessBoostDistance, ShapeDouble, 0, 0, inf),
	PropDefaultDistanceMax:                 scalar(PropDefaultDistanceMax, ShapeDouble, 50, 0, inf),
	PropDefaultDistanceModel:               scalar(PropDefaultDistanceModel, ShapeInt, float64(DistanceModelLinear), 0, float64(distanceModelCount-1)),
	PropDefaultDistanceRef:                 scalar(PropDefaultDistanceRef, ShapeDouble, 1, 0, inf),
	PropDefaultRolloff:                     scalar(PropDefaultRolloff, ShapeDouble, 1, 0, inf),
	PropLooping:                            scalar(PropLooping, ShapeInt, 0, 0, 1),
	PropNoiseType:                          scalar(PropNoiseType, ShapeInt, float64(NoiseTypeUniform), 0, float64(noiseTypeCount-1)),
	PropPitchBend:                          scalar(PropPitchBend, ShapeDouble, 1, 0, inf),
	PropInputFilterEnabled:                 scalar(PropInputFilterEnabled, ShapeInt, 1, 0, 1),
	PropInputFilterCutoff:                  scalar(PropInputFilterCutoff, ShapeDouble, 2000, 0, 22050),
	PropMeanFreePath:                       scalar(PropMeanFreePath, ShapeDouble, 0.02, 0, 0.5),
	PropT60:                                scalar(PropT60, ShapeDouble, 1, 0, 100),
	PropLateReflectionsLFRolloff:           scalar(PropLateReflectionsLFRolloff, ShapeDouble, 1, 0, 2),
	PropLateReflectionsLFReference:         scalar(PropLateReflectionsLFReference, ShapeDouble, 200, 0, 22050),
	PropLateReflectionsHFRolloff:           scalar(PropLateReflectionsHFRolloff, ShapeDouble, 0.5, 0, 2),
	PropLateReflectionsHFReference:         scalar(PropLateReflectionsHFReference, ShapeDouble, 500, 0, 22050),
	PropLateReflectionsDiffusion:           scalar(PropLateReflectionsDiffusion, ShapeDouble, 1, 0, 1),
	PropLateReflectionsModulationDepth:     scalar(PropLateReflectionsModulationDepth, ShapeDouble, 0.01, 0, 0.3),
	PropLateReflectionsModulationFrequency: scalar(PropLateReflectionsModulationFrequency, ShapeDouble, 0.5, 0.01, 100),
	PropLateReflectionsDelay:               scalar(PropLateReflectionsDelay, ShapeDouble, 0.03, 0, 0.5),
	PropFilter:                             filter(PropFilter),
	PropFilterDirect:                       filter(PropFilterDirect),
	PropFilterEffects:                      filter(PropFilterEffects),
	PropFilterInput:                        filter(PropFilterInput),
	PropCurrentTime:                        readOnlyTime(PropCurrentTime),
	PropSuggestedAutomationTime:            readOnlyTime(PropSuggestedAutomationTime),
	PropFrequency:                          scalar(PropFrequency, ShapeDouble, 440, 0, inf),
}

var (
	clockProps     = []Property{PropCurrentTime, PropSuggestedAutomationTime}
	sourceProps    = append([]Property{PropGain, PropFilter, PropFilterDirect, PropFilterEffects}, clockProps...)
	generatorProps = append([]Property{PropGain, PropPitchBend}, clockProps...)
	effectProps    = append([]Property{PropGain, PropFilterInput}, clockProps...)
)

func with(base []Property, extra ...Property) []Property {
	out := make([]Property, 0, len(base)+len(extra))
	out = append(out, base...)
	return append(out, extra...)
}

// objectProperties lists the properties each object type accepts.
var objectProperties = map[ObjectType][]Property{
	ObjectTypeContext: with(clockProps,
		PropGain, PropPosition, PropOrientation,
		PropDefaultPannerStrategy, PropDefaultDistanceModel, PropDefaultDistanceRef,
		PropDefaultDistanceMax, PropDefaultRolloff, PropDefaultClosenessBoost,
		PropDefaultClosenessBoostDistance),
	ObjectTypeDirectSource:        with(sourceProps),
	ObjectTypeAngularPannedSource: with(sourceProps, PropAzimuth, PropElevation),
	ObjectTypeScalarPannedSource:  with(sourceProps, PropPanningScalar),
	ObjectTypeSource3D: with(sourceProps,
		PropPosition, PropOrientation, PropDistanceModel, PropDistanceRef,
		PropDistanceMax, PropRolloff, PropClosenessBoost, PropClosenessBoostDistance),
	ObjectTypeBufferGenerator:       with(generatorProps, PropBuffer, PropPlaybackPosition, PropLooping),
	ObjectTypeStreamingGenerator:    with(generatorProps, PropPlaybackPosition, PropLooping),
	ObjectTypeNoiseGenerator:        with(generatorProps, PropNoiseType),
	ObjectTypeFastSineBankGenerator: with(generatorProps, PropFrequency),
	ObjectTypeGlobalEcho:            with(effectProps),
	ObjectTypeGlobalFDNReverb: with(effectProps,
		PropMeanFreePath, PropT60, PropLateReflectionsLFRolloff, PropLateReflectionsLFReference,
		PropLateReflectionsHFRolloff, PropLateReflectionsHFReference, PropLateReflectionsDiffusion,
		PropLateReflectionsModulationDepth, PropLateReflectionsModulationFrequency,
		PropLateReflectionsDelay, PropInputFilterEnabled, PropInputFilterCutoff),
}

// applicability[t][p] is true when object type t accepts property p.
var applicability = func() map[ObjectType]map[Property]bool {
	m := make(map[ObjectType]map[Property]bool, len(objectProperties))
	for t, props := range objectProperties {
		set := make(map[Property]bool, len(props))
		for _, p := range props {
			set[p] = true
		}
		m[t] = set
	}
	return m
}()

// SpecOf returns the declaration of p regardless of object type.
func SpecOf(p Property) (PropertySpec, bool) {
	if !p.Valid() {
		return PropertySpec{}, false
	}
	return propertySpecs[p], true
}

// Lookup returns the declaration of p if object type t accepts it.
func Lookup(t ObjectType, p Property) (PropertySpec, bool) {
	if !applicability[t][p] {
		return PropertySpec{}, false
	}
	return propertySpecs[p], true
}

// PropertiesOf lists the properties accepted by t in declaration order.
func PropertiesOf(t ObjectType) []Property {
	props := objectProperties[t]
	out := make([]Property, len(props))
	copy(out, props)
	return out
}

// DefaultFor maps a context "Default*" property to the child property it seeds.
// Panner strategy has no child property; it is resolved at source creation.
var DefaultFor = map[Property]Property{
	PropDefaultDistanceModel:          PropDistanceModel,
	PropDefaultDistanceRef:            PropDistanceRef,
	PropDefaultDistanceMax:            PropDistanceMax,
	PropDefaultRolloff:                PropRolloff,
	PropDefaultClosenessBoost:         PropClosenessBoost,
	PropDefaultClosenessBoostDistance: PropClosenessBoostDistance,
}
