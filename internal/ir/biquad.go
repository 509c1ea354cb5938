package ir

import (
	"fmt"
	"math"
)

// Biquad describes a second-order IIR section in normalized form
// (a0 == 1). IsWire marks the identity filter so the DSP can skip it.
type Biquad struct {
	B0     float64 `json:"b0"`
	B1     float64 `json:"b1"`
	B2     float64 `json:"b2"`
	A1     float64 `json:"a1"`
	A2     float64 `json:"a2"`
	Gain   float64 `json:"gain"`
	IsWire bool    `json:"is_wire"`
}

func (Biquad) Shape() Shape { return ShapeBiquad }
func (Biquad) value()       {}

// DesignSampleRate is the rate the designers assume. The DSP rescales
// coefficients when it runs at another rate.
const DesignSampleRate = 44100.0

// BiquadIdentity returns the passthrough filter.
func BiquadIdentity() Biquad {
	return Biquad{B0: 1, Gain: 1, IsWire: true}
}

// BiquadLowpass designs a lowpass filter at frequency with quality q.
func BiquadLowpass(frequency, q float64) (Biquad, error) {
	w, alpha, err := designParams(frequency, q)
	if err != nil {
		return Biquad{}, err
	}
	cos := math.Cos(w)
	return normalize((1-cos)/2, 1-cos, (1-cos)/2, 1+alpha, -2*cos, 1-alpha), nil
}

// BiquadHighpass designs a highpass filter at frequency with quality q.
func BiquadHighpass(frequency, q float64) (Biquad, error) {
	w, alpha, err := designParams(frequency, q)
	if err != nil {
		return Biquad{}, err
	}
	cos := math.Cos(w)
	return normalize((1+cos)/2, -(1 + cos), (1+cos)/2, 1+alpha, -2*cos, 1-alpha), nil
}

// BiquadBandpass designs a constant-peak bandpass filter at frequency
// with bandwidth bw in octaves.
func BiquadBandpass(frequency, bw float64) (Biquad, error) {
	if bw <= 0 {
		return Biquad{}, fmt.Errorf("bandwidth must be positive, got %g", bw)
	}
	w := 2 * math.Pi * frequency / DesignSampleRate
	if frequency <= 0 || frequency >= DesignSampleRate/2 {
		return Biquad{}, fmt.Errorf("frequency %g outside (0, %g)", frequency, DesignSampleRate/2)
	}
	alpha := math.Sin(w) * math.Sinh(math.Ln2/2*bw*w/math.Sin(w))
	cos := math.Cos(w)
	return normalize(alpha, 0, -alpha, 1+alpha, -2*cos, 1-alpha), nil
}

func designParams(frequency, q float64) (w, alpha float64, err error) {
	if frequency <= 0 || frequency >= DesignSampleRate/2 {
		return 0, 0, fmt.Errorf("frequency %g outside (0, %g)", frequency, DesignSampleRate/2)
	}
	if q <= 0 {
		return 0, 0, fmt.Errorf("q must be positive, got %g", q)
	}
	w = 2 * math.Pi * frequency / DesignSampleRate
	return w, math.Sin(w) / (2 * q), nil
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Biquad {
	return Biquad{
		B0:   b0 / a0,
		B1:   b1 / a0,
		B2:   b2 / a0,
		A1:   a1 / a0,
		A2:   a2 / a0,
		Gain: 1,
	}
}
