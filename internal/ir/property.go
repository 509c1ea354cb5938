package ir

import "fmt"

// Property identifies one configurable attribute of an engine object.
type Property int

const (
	PropAzimuth Property = iota
	PropBuffer
	PropElevation
	PropGain
	PropDefaultPannerStrategy
	PropPanningScalar
	PropPlaybackPosition
	PropPosition
	PropOrientation
	PropClosenessBoost
	PropClosenessBoostDistance
	PropDistanceMax
	PropDistanceModel
	PropDistanceRef
	PropRolloff
	PropDefaultClosenessBoost
	PropDefaultClosenessBoostDistance
	PropDefaultDistanceMax
	PropDefaultDistanceModel
	PropDefaultDistanceRef
	PropDefaultRolloff
	PropLooping
	PropNoiseType
	PropPitchBend
	PropInputFilterEnabled
	PropInputFilterCutoff
	PropMeanFreePath
	PropT60
	PropLateReflectionsLFRolloff
	PropLateReflectionsLFReference
	PropLateReflectionsHFRolloff
	PropLateReflectionsHFReference
	PropLateReflectionsDiffusion
	PropLateReflectionsModulationDepth
	PropLateReflectionsModulationFrequency
	PropLateReflectionsDelay
	PropFilter
	PropFilterDirect
	PropFilterEffects
	PropFilterInput
	PropCurrentTime
	PropSuggestedAutomationTime
	PropFrequency

	propertyCount
)

var propertyNames = [...]string{
	PropAzimuth:                            "azimuth",
	PropBuffer:                             "buffer",
	PropElevation:                          "elevation",
	PropGain:                               "gain",
	PropDefaultPannerStrategy:              "default_panner_strategy",
	PropPanningScalar:                      "panning_scalar",
	PropPlaybackPosition:                   "playback_position",
	PropPosition:                           "position",
	PropOrientation:                        "orientation",
	PropClosenessBoost:                     "closeness_boost",
	PropClosenessBoostDistance:             "closeness_boost_distance",
	PropDistanceMax:                        "distance_max",
	PropDistanceModel:                      "distance_model",
	PropDistanceRef:                        "distance_ref",
	PropRolloff:                            "rolloff",
	PropDefaultClosenessBoost:              "default_closeness_boost",
	PropDefaultClosenessBoostDistance:      "default_closeness_boost_distance",
	PropDefaultDistanceMax:                 "default_distance_max",
	PropDefaultDistanceModel:               "default_distance_model",
	PropDefaultDistanceRef:                 "default_distance_ref",
	PropDefaultRolloff:                     "default_rolloff",
	PropLooping:                            "looping",
	PropNoiseType:                          "noise_type",
	PropPitchBend:                          "pitch_bend",
	PropInputFilterEnabled:                 "input_filter_enabled",
	PropInputFilterCutoff:                  "input_filter_cutoff",
	PropMeanFreePath:                       "mean_free_path",
	PropT60:                                "t60",
	PropLateReflectionsLFRolloff:           "late_reflections_lf_rolloff",
	PropLateReflectionsLFReference:         "late_reflections_lf_reference",
	PropLateReflectionsHFRolloff:           "late_reflections_hf_rolloff",
	PropLateReflectionsHFReference:         "late_reflections_hf_reference",
	PropLateReflectionsDiffusion:           "late_reflections_diffusion",
	PropLateReflectionsModulationDepth:     "late_reflections_modulation_depth",
	PropLateReflectionsModulationFrequency: "late_reflections_modulation_frequency",
	PropLateReflectionsDelay:               "late_reflections_delay",
	PropFilter:                             "filter",
	PropFilterDirect:                       "filter_direct",
	PropFilterEffects:                      "filter_effects",
	PropFilterInput:                        "filter_input",
	PropCurrentTime:                        "current_time",
	PropSuggestedAutomationTime:            "suggested_automation_time",
	PropFrequency:                          "frequency",
}

func (p Property) String() string {
	if p < 0 || p >= propertyCount {
		return fmt.Sprintf("property(%d)", int(p))
	}
	return propertyNames[p]
}

// Valid reports whether p is a known property.
func (p Property) Valid() bool {
	return p >= 0 && p < propertyCount
}

// ParseProperty resolves a snake_case property name.
func ParseProperty(name string) (Property, bool) {
	for i, n := range propertyNames {
		if n == name {
			return Property(i), true
		}
	}
	return 0, false
}

// AllProperties lists every property in declaration order.
func AllProperties() []Property {
	out := make([]Property, propertyCount)
	for i := range out {
		out[i] = Property(i)
	}
	return out
}
