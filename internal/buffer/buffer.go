// Package buffer holds decoded audio buffers and the decoder front end that
// builds them from streams.
//
// Decoding is delegated: WAV to go-audio/wav, Ogg Vorbis to
// jfreymuth/oggvorbis and MP3 to hajimehoshi/go-mp3. Buffers are immutable
// once built and may be shared between generators.
package buffer

import (
	"errors"
	"fmt"
	"math"
)

var (
	// ErrInvalidBuffer is wrapped by FromFloat for inconsistent input.
	ErrInvalidBuffer = errors.New("invalid buffer")
	// ErrUnsupportedFormat is returned when no decoder recognizes the data.
	ErrUnsupportedFormat = errors.New("unsupported audio format")
)

// MaxChannels bounds the channel count of any buffer.
const MaxChannels = 16

// Buffer is interleaved float32 audio.
type Buffer struct {
	sampleRate int
	channels   int
	frames     int
	data       []float32
}

// FromFloat builds a buffer from interleaved samples. data is copied and must
// hold exactly frames*channels samples.
func FromFloat(sampleRate, channels, frames int, data []float32) (*Buffer, error) {
	switch {
	case sampleRate <= 0:
		return nil, fmt.Errorf("%w: sample rate %d", ErrInvalidBuffer, sampleRate)
	case channels <= 0 || channels > MaxChannels:
		return nil, fmt.Errorf("%w: %d channels", ErrInvalidBuffer, channels)
	case frames < 0 || frames*channels != len(data):
		return nil, fmt.Errorf("%w: %d frames of %d channels from %d samples", ErrInvalidBuffer, frames, channels, len(data))
	}
	for i, s := range data {
		if math.IsNaN(float64(s)) || math.IsInf(float64(s), 0) {
			return nil, fmt.Errorf("%w: sample %d is not finite", ErrInvalidBuffer, i)
		}
	}

	out := make([]float32, len(data))
	copy(out, data)
	return &Buffer{sampleRate: sampleRate, channels: channels, frames: frames, data: out}, nil
}

// SampleRate returns the buffer's native sample rate.
func (b *Buffer) SampleRate() int { return b.sampleRate }

// Channels returns the channel count.
func (b *Buffer) Channels() int { return b.channels }

// LengthInSamples returns the length in frames.
func (b *Buffer) LengthInSamples() int { return b.frames }

// LengthInSeconds returns the duration at the buffer's sample rate.
func (b *Buffer) LengthInSeconds() float64 {
	return float64(b.frames) / float64(b.sampleRate)
}

// SizeInBytes returns the memory held by the samples.
func (b *Buffer) SizeInBytes() int {
	return len(b.data) * 4
}

// Frame returns the samples of frame i. The slice aliases the buffer and
// must not be modified.
func (b *Buffer) Frame(i int) []float32 {
	return b.data[i*b.channels : (i+1)*b.channels]
}

// Samples returns every interleaved sample. The slice must not be modified.
func (b *Buffer) Samples() []float32 {
	return b.data
}
