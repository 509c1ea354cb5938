package syz

import (
	"github.com/roach88/synthplane/internal/automation"
	"github.com/roach88/synthplane/internal/engine"
	"github.com/roach88/synthplane/internal/events"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/routing"
	"github.com/roach88/synthplane/internal/stream"
)

// Enumerations and values.
type (
	ObjectType            = ir.ObjectType
	Property              = ir.Property
	PannerStrategy        = ir.PannerStrategy
	DistanceModel         = ir.DistanceModel
	NoiseType             = ir.NoiseType
	EventType             = ir.EventType
	InterpolationType     = ir.InterpolationType
	AutomationCommandKind = ir.AutomationCommandKind

	Value     = ir.Value
	Int       = ir.Int
	Double    = ir.Double
	Double3   = ir.Double3
	Double6   = ir.Double6
	ObjectRef = ir.ObjectRef
	Biquad    = ir.Biquad
)

// Operation arguments and results.
type (
	RouteConfig       = engine.RouteConfig
	RouteSnapshot     = routing.Snapshot
	EchoTap           = engine.EchoTap
	SineWave          = engine.SineWave
	SineBankConfig    = engine.SineBankConfig
	DeleteBehavior    = handle.DeleteBehavior
	FreeFunc          = handle.FreeFunc
	Event             = events.Event
	AutomationPoint   = automation.Point
	AutomationCommand = automation.Command
	StreamDefinition  = stream.Definition
	Stream            = stream.Stream
	StreamOpenFunc    = stream.OpenFunc
)

var (
	DefaultRouteConfig = engine.DefaultRouteConfig

	SineBankSine     = engine.SineBankSine
	SineBankSquare   = engine.SineBankSquare
	SineBankTriangle = engine.SineBankTriangle
	SineBankSaw      = engine.SineBankSaw

	BiquadIdentity = ir.BiquadIdentity
	BiquadLowpass  = ir.BiquadLowpass
	BiquadHighpass = ir.BiquadHighpass
	BiquadBandpass = ir.BiquadBandpass

	ParseProperty = ir.ParseProperty
)

const (
	ObjectTypeContext               = ir.ObjectTypeContext
	ObjectTypeBuffer                = ir.ObjectTypeBuffer
	ObjectTypeBufferGenerator       = ir.ObjectTypeBufferGenerator
	ObjectTypeStreamingGenerator    = ir.ObjectTypeStreamingGenerator
	ObjectTypeNoiseGenerator        = ir.ObjectTypeNoiseGenerator
	ObjectTypeDirectSource          = ir.ObjectTypeDirectSource
	ObjectTypeAngularPannedSource   = ir.ObjectTypeAngularPannedSource
	ObjectTypeScalarPannedSource    = ir.ObjectTypeScalarPannedSource
	ObjectTypeSource3D              = ir.ObjectTypeSource3D
	ObjectTypeGlobalEcho            = ir.ObjectTypeGlobalEcho
	ObjectTypeGlobalFDNReverb       = ir.ObjectTypeGlobalFDNReverb
	ObjectTypeStreamHandle          = ir.ObjectTypeStreamHandle
	ObjectTypeAutomationBatch       = ir.ObjectTypeAutomationBatch
	ObjectTypeFastSineBankGenerator = ir.ObjectTypeFastSineBankGenerator
)

const (
	PannerStrategyDelegate = ir.PannerStrategyDelegate
	PannerStrategyHRTF     = ir.PannerStrategyHRTF
	PannerStrategyStereo   = ir.PannerStrategyStereo

	DistanceModelNone        = ir.DistanceModelNone
	DistanceModelLinear      = ir.DistanceModelLinear
	DistanceModelExponential = ir.DistanceModelExponential
	DistanceModelInverse     = ir.DistanceModelInverse

	NoiseTypeUniform       = ir.NoiseTypeUniform
	NoiseTypeVM            = ir.NoiseTypeVM
	NoiseTypeFilteredBrown = ir.NoiseTypeFilteredBrown

	EventTypeInvalid        = ir.EventTypeInvalid
	EventTypeLooped         = ir.EventTypeLooped
	EventTypeFinished       = ir.EventTypeFinished
	EventTypeUserAutomation = ir.EventTypeUserAutomation

	InterpolationNone   = ir.InterpolationNone
	InterpolationLinear = ir.InterpolationLinear

	AutomationAppendProperty     = ir.AutomationAppendProperty
	AutomationSendUserEvent      = ir.AutomationSendUserEvent
	AutomationClearProperty      = ir.AutomationClearProperty
	AutomationClearEvents        = ir.AutomationClearEvents
	AutomationClearAllProperties = ir.AutomationClearAllProperties
)

const (
	PropAzimuth                            = ir.PropAzimuth
	PropBuffer                             = ir.PropBuffer
	PropElevation                          = ir.PropElevation
	PropGain                               = ir.PropGain
	PropDefaultPannerStrategy              = ir.PropDefaultPannerStrategy
	PropPanningScalar                      = ir.PropPanningScalar
	PropPlaybackPosition                   = ir.PropPlaybackPosition
	PropPosition                           = ir.PropPosition
	PropOrientation                        = ir.PropOrientation
	PropClosenessBoost                     = ir.PropClosenessBoost
	PropClosenessBoostDistance             = ir.PropClosenessBoostDistance
	PropDistanceMax                        = ir.PropDistanceMax
	PropDistanceModel                      = ir.PropDistanceModel
	PropDistanceRef                        = ir.PropDistanceRef
	PropRolloff                            = ir.PropRolloff
	PropDefaultClosenessBoost              = ir.PropDefaultClosenessBoost
	PropDefaultClosenessBoostDistance      = ir.PropDefaultClosenessBoostDistance
	PropDefaultDistanceMax                 = ir.PropDefaultDistanceMax
	PropDefaultDistanceModel               = ir.PropDefaultDistanceModel
	PropDefaultDistanceRef                 = ir.PropDefaultDistanceRef
	PropDefaultRolloff                     = ir.PropDefaultRolloff
	PropLooping                            = ir.PropLooping
	PropNoiseType                          = ir.PropNoiseType
	PropPitchBend                          = ir.PropPitchBend
	PropInputFilterEnabled                 = ir.PropInputFilterEnabled
	PropInputFilterCutoff                  = ir.PropInputFilterCutoff
	PropMeanFreePath                       = ir.PropMeanFreePath
	PropT60                                = ir.PropT60
	PropLateReflectionsLFRolloff           = ir.PropLateReflectionsLFRolloff
	PropLateReflectionsLFReference         = ir.PropLateReflectionsLFReference
	PropLateReflectionsHFRolloff           = ir.PropLateReflectionsHFRolloff
	PropLateReflectionsHFReference         = ir.PropLateReflectionsHFReference
	PropLateReflectionsDiffusion           = ir.PropLateReflectionsDiffusion
	PropLateReflectionsModulationDepth     = ir.PropLateReflectionsModulationDepth
	PropLateReflectionsModulationFrequency = ir.PropLateReflectionsModulationFrequency
	PropLateReflectionsDelay               = ir.PropLateReflectionsDelay
	PropFilter                             = ir.PropFilter
	PropFilterDirect                       = ir.PropFilterDirect
	PropFilterEffects                      = ir.PropFilterEffects
	PropFilterInput                        = ir.PropFilterInput
	PropCurrentTime                        = ir.PropCurrentTime
	PropSuggestedAutomationTime            = ir.PropSuggestedAutomationTime
	PropFrequency                          = ir.PropFrequency
)
