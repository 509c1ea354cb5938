package buffer

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/go-audio/wav"
	gomp3 "github.com/hajimehoshi/go-mp3"
	"github.com/jfreymuth/oggvorbis"

	"github.com/roach88/synthplane/internal/stream"
)

// Format names a container recognized by Sniff.
type Format string

const (
	FormatUnknown Format = ""
	FormatWAV     Format = "wav"
	FormatOgg     Format = "ogg"
	FormatMP3     Format = "mp3"
)

// Sniff identifies a container from its first bytes.
func Sniff(head []byte) Format {
	switch {
	case len(head) >= 12 && bytes.Equal(head[:4], []byte("RIFF")) && bytes.Equal(head[8:12], []byte("WAVE")):
		return FormatWAV
	case len(head) >= 4 && bytes.Equal(head[:4], []byte("OggS")):
		return FormatOgg
	case len(head) >= 3 && bytes.Equal(head[:3], []byte("ID3")):
		return FormatMP3
	case len(head) >= 2 && head[0] == 0xFF && head[1]&0xE0 == 0xE0:
		return FormatMP3
	}
	return FormatUnknown
}

// Decode reads a complete encoded file from r.
func Decode(r io.ReadSeeker) (*Buffer, error) {
	head := make([]byte, 12)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF {
		if err == io.EOF {
			return nil, fmt.Errorf("decode: empty input: %w", ErrUnsupportedFormat)
		}
		return nil, fmt.Errorf("decode: %w", err)
	}
	if _, err := r.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("decode: rewind: %w", err)
	}

	switch f := Sniff(head[:n]); f {
	case FormatWAV:
		return decodeWAV(r)
	case FormatOgg:
		return decodeOgg(r)
	case FormatMP3:
		return decodeMP3(r)
	default:
		return nil, fmt.Errorf("decode: %w", ErrUnsupportedFormat)
	}
}

// DecodeStream decodes everything readable from s. The stream is not closed.
func DecodeStream(s stream.Stream) (*Buffer, error) {
	return Decode(stream.AsReadSeeker(s))
}

// DecodeBytes decodes an in-memory encoded file.
func DecodeBytes(data []byte) (*Buffer, error) {
	return Decode(bytes.NewReader(data))
}

func decodeWAV(r io.ReadSeeker) (*Buffer, error) {
	d := wav.NewDecoder(r)
	if !d.IsValidFile() {
		return nil, fmt.Errorf("decode wav: invalid file: %w", ErrUnsupportedFormat)
	}
	if d.WavAudioFormat != 1 {
		return nil, fmt.Errorf("decode wav: audio format %d: %w", d.WavAudioFormat, ErrUnsupportedFormat)
	}
	switch d.BitDepth {
	case 16, 24, 32:
	default:
		return nil, fmt.Errorf("decode wav: %d-bit samples: %w", d.BitDepth, ErrUnsupportedFormat)
	}

	pcm, err := d.FullPCMBuffer()
	if err != nil {
		return nil, fmt.Errorf("decode wav: %w", err)
	}
	channels := int(d.NumChans)
	if channels <= 0 {
		return nil, fmt.Errorf("decode wav: %d channels: %w", channels, ErrInvalidBuffer)
	}

	scale := float32(int64(1) << (d.BitDepth - 1))
	frames := len(pcm.Data) / channels
	data := make([]float32, frames*channels)
	for i := range data {
		data[i] = float32(pcm.Data[i]) / scale
	}
	return FromFloat(int(d.SampleRate), channels, frames, data)
}

func decodeOgg(r io.Reader) (*Buffer, error) {
	data, format, err := oggvorbis.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("decode ogg: %w", err)
	}
	if format.Channels <= 0 {
		return nil, fmt.Errorf("decode ogg: %d channels: %w", format.Channels, ErrInvalidBuffer)
	}
	frames := len(data) / format.Channels
	return FromFloat(format.SampleRate, format.Channels, frames, data[:frames*format.Channels])
}

// go-mp3 always produces 16-bit little-endian stereo.
const mp3Channels = 2

func decodeMP3(r io.Reader) (*Buffer, error) {
	dec, err := gomp3.NewDecoder(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}
	raw, err := io.ReadAll(dec)
	if err != nil {
		return nil, fmt.Errorf("decode mp3: %w", err)
	}

	samples := len(raw) / 2
	frames := samples / mp3Channels
	data := make([]float32, frames*mp3Channels)
	for i := range data {
		v := int16(binary.LittleEndian.Uint16(raw[2*i:]))
		data[i] = float32(v) / 32768.0
	}
	return FromFloat(dec.SampleRate(), mp3Channels, frames, data)
}
