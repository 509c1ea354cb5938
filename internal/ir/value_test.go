package ir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValueSealed(t *testing.T) {
	// Compile-time check that every variant implements Value
	var _ Value = Int(1)
	var _ Value = Double(1.5)
	var _ Value = Double3{1, 2, 3}
	var _ Value = Double6{1, 2, 3, 4, 5, 6}
	var _ Value = BiquadIdentity()
	var _ Value = ObjectRef(MakeHandle(0, 1))
}

func TestValueShapes(t *testing.T) {
	assert.Equal(t, ShapeInt, Int(0).Shape())
	assert.Equal(t, ShapeDouble, Double(0).Shape())
	assert.Equal(t, ShapeDouble3, Double3{}.Shape())
	assert.Equal(t, ShapeDouble6, Double6{}.Shape())
	assert.Equal(t, ShapeBiquad, Biquad{}.Shape())
	assert.Equal(t, ShapeObject, ObjectRef(0).Shape())
}

func TestMarshalValue_AllVariants(t *testing.T) {
	values := []Value{
		Int(-7),
		Double(0.25),
		Double3{1, -2, 3.5},
		Double6{0, 1, 0, 0, 0, 1},
		Biquad{B0: 0.5, B1: 0.25, Gain: 1},
		ObjectRef(MakeHandle(4, 2)),
	}

	for _, v := range values {
		t.Run(v.Shape().String(), func(t *testing.T) {
			data, err := MarshalValue(v)
			require.NoError(t, err)
			assert.Contains(t, string(data), `"shape":"`+v.Shape().String()+`"`)
		})
	}
}

func TestUnmarshalValue_KeepsShape(t *testing.T) {
	data, err := MarshalValue(Double3{1, 2, 3})
	require.NoError(t, err)

	v, err := UnmarshalValue(data)
	require.NoError(t, err)
	assert.Equal(t, Double3{1, 2, 3}, v)
}

func TestUnmarshalValue_UnknownShape(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"shape":"string","value":"x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown shape")
}

func TestUnmarshalValue_BadPayload(t *testing.T) {
	_, err := UnmarshalValue([]byte(`{"shape":"double3","value":[1,2]}`))
	// Short arrays decode into a fixed array with zero padding, so this is accepted
	require.NoError(t, err)

	_, err = UnmarshalValue([]byte(`{"shape":"int","value":"seven"}`))
	require.Error(t, err)
}

func TestLerp(t *testing.T) {
	v, err := Lerp(Double(0), Double(10), 0.25)
	require.NoError(t, err)
	assert.Equal(t, Double(2.5), v)

	v, err = Lerp(Double3{0, 0, 0}, Double3{2, 4, 8}, 0.5)
	require.NoError(t, err)
	assert.Equal(t, Double3{1, 2, 4}, v)
}

func TestLerp_ClampsFraction(t *testing.T) {
	v, err := Lerp(Double(1), Double(3), -1)
	require.NoError(t, err)
	assert.Equal(t, Double(1), v)

	v, err = Lerp(Double(1), Double(3), 2)
	require.NoError(t, err)
	assert.Equal(t, Double(3), v)
}

func TestLerp_RejectsMismatch(t *testing.T) {
	_, err := Lerp(Double(1), Double3{}, 0.5)
	assert.Error(t, err)

	_, err = Lerp(Int(1), Int(2), 0.5)
	assert.Error(t, err)
}

func TestHandle_Encoding(t *testing.T) {
	h := MakeHandle(7, 3)
	slot, ok := h.Slot()
	require.True(t, ok)
	assert.Equal(t, uint32(7), slot)
	assert.Equal(t, uint32(3), h.Generation())
	assert.Equal(t, "h:7.3", h.String())

	_, ok = NoHandle.Slot()
	assert.False(t, ok)
}

func TestHandle_GenerationsDiffer(t *testing.T) {
	assert.NotEqual(t, MakeHandle(0, 1), MakeHandle(0, 2))
	assert.NotEqual(t, NoHandle, MakeHandle(0, 0))
}
