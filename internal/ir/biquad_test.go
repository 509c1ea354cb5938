package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBiquadIdentity(t *testing.T) {
	b := BiquadIdentity()
	assert.True(t, b.IsWire)
	assert.Equal(t, 1.0, b.B0)
	assert.Equal(t, 1.0, b.Gain)
}

func TestBiquadLowpass_UnityAtDC(t *testing.T) {
	b, err := BiquadLowpass(1000, 0.7071)
	require.NoError(t, err)
	assert.False(t, b.IsWire)

	// H(z=1) = (b0+b1+b2)/(1+a1+a2) must be 1 for a lowpass
	dc := (b.B0 + b.B1 + b.B2) / (1 + b.A1 + b.A2)
	assert.InDelta(t, 1.0, dc, 1e-9)
}

func TestBiquadHighpass_ZeroAtDC(t *testing.T) {
	b, err := BiquadHighpass(1000, 0.7071)
	require.NoError(t, err)

	dc := (b.B0 + b.B1 + b.B2) / (1 + b.A1 + b.A2)
	assert.InDelta(t, 0.0, dc, 1e-9)
}

func TestBiquadBandpass_ZeroAtDC(t *testing.T) {
	b, err := BiquadBandpass(2000, 1)
	require.NoError(t, err)

	dc := b.B0 + b.B1 + b.B2
	assert.InDelta(t, 0.0, dc, 1e-9)
}

func TestBiquadDesigners_RejectBadInput(t *testing.T) {
	_, err := BiquadLowpass(0, 1)
	assert.Error(t, err)
	_, err = BiquadHighpass(30000, 1)
	assert.Error(t, err)
	_, err = BiquadLowpass(1000, 0)
	assert.Error(t, err)
	_, err = BiquadBandpass(1000, -1)
	assert.Error(t, err)
}
