package syz

import "github.com/roach88/synthplane/internal/engine"

// Streams, buffers and streaming generators.

// RegisterStreamProtocol makes protocol available to the FromStreamParams constructors.
func (c *Caller) RegisterStreamProtocol(protocol string, open StreamOpenFunc) Status {
	return do(c, func(l *engine.Library) error {
		return l.RegisterStreamProtocol(protocol, open)
	})
}

func (c *Caller) CreateStreamHandleFromFile(path string) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamHandleFromFile(path)
	})
}

func (c *Caller) CreateStreamHandleFromMemory(data []byte) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamHandleFromMemory(data)
	})
}

func (c *Caller) CreateStreamHandleFromCustom(def StreamDefinition) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamHandleFromCustom(def)
	})
}

func (c *Caller) CreateStreamHandleFromStreamParams(protocol, path string, param any) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamHandleFromStreamParams(protocol, path, param)
	})
}

// CreateBufferFromFloatArray copies interleaved samples into a new buffer.
func (c *Caller) CreateBufferFromFloatArray(sampleRate, channels, frames int, data []float32) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateBufferFromFloatArray(sampleRate, channels, frames, data)
	})
}

func (c *Caller) CreateBufferFromFile(path string) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateBufferFromFile(path)
	})
}

func (c *Caller) CreateBufferFromEncodedData(data []byte) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateBufferFromEncodedData(data)
	})
}

func (c *Caller) CreateBufferFromStreamParams(protocol, path string, param any) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateBufferFromStreamParams(protocol, path, param)
	})
}

// CreateBufferFromStreamHandle decodes a stream handle into a buffer. The stream handle is consumed.
func (c *Caller) CreateBufferFromStreamHandle(sh Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateBufferFromStreamHandle(sh)
	})
}

func (c *Caller) BufferChannels(h Handle) (int, Status) {
	return call(c, func(l *engine.Library) (int, error) {
		return l.BufferChannels(h)
	})
}

func (c *Caller) BufferLengthInSamples(h Handle) (int, Status) {
	return call(c, func(l *engine.Library) (int, error) {
		return l.BufferLengthInSamples(h)
	})
}

func (c *Caller) BufferLengthInSeconds(h Handle) (float64, Status) {
	return call(c, func(l *engine.Library) (float64, error) {
		return l.BufferLengthInSeconds(h)
	})
}

func (c *Caller) BufferSizeInBytes(h Handle) (int, Status) {
	return call(c, func(l *engine.Library) (int, error) {
		return l.BufferSizeInBytes(h)
	})
}

func (c *Caller) CreateStreamingGeneratorFromFile(ctx Handle, path string) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamingGeneratorFromFile(ctx, path)
	})
}

func (c *Caller) CreateStreamingGeneratorFromStreamParams(ctx Handle, protocol, path string, param any) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamingGeneratorFromStreamParams(ctx, protocol, path, param)
	})
}

func (c *Caller) CreateStreamingGeneratorFromStreamHandle(ctx, sh Handle) (Handle, Status) {
	return call(c, func(l *engine.Library) (Handle, error) {
		return l.CreateStreamingGeneratorFromStreamHandle(ctx, sh)
	})
}

// Package-level forms record errors on the process-wide caller.

func RegisterStreamProtocol(protocol string, open StreamOpenFunc) Status {
	return process.RegisterStreamProtocol(protocol, open)
}

func CreateStreamHandleFromFile(path string) (Handle, Status) {
	return process.CreateStreamHandleFromFile(path)
}

func CreateStreamHandleFromMemory(data []byte) (Handle, Status) {
	return process.CreateStreamHandleFromMemory(data)
}

func CreateStreamHandleFromCustom(def StreamDefinition) (Handle, Status) {
	return process.CreateStreamHandleFromCustom(def)
}

func CreateStreamHandleFromStreamParams(protocol, path string, param any) (Handle, Status) {
	return process.CreateStreamHandleFromStreamParams(protocol, path, param)
}

func CreateBufferFromFloatArray(sampleRate, channels, frames int, data []float32) (Handle, Status) {
	return process.CreateBufferFromFloatArray(sampleRate, channels, frames, data)
}

func CreateBufferFromFile(path string) (Handle, Status) {
	return process.CreateBufferFromFile(path)
}

func CreateBufferFromEncodedData(data []byte) (Handle, Status) {
	return process.CreateBufferFromEncodedData(data)
}

func CreateBufferFromStreamParams(protocol, path string, param any) (Handle, Status) {
	return process.CreateBufferFromStreamParams(protocol, path, param)
}

func CreateBufferFromStreamHandle(sh Handle) (Handle, Status) {
	return process.CreateBufferFromStreamHandle(sh)
}

func BufferChannels(h Handle) (int, Status) {
	return process.BufferChannels(h)
}

func BufferLengthInSamples(h Handle) (int, Status) {
	return process.BufferLengthInSamples(h)
}

func BufferLengthInSeconds(h Handle) (float64, Status) {
	return process.BufferLengthInSeconds(h)
}

func BufferSizeInBytes(h Handle) (int, Status) {
	return process.BufferSizeInBytes(h)
}

func CreateStreamingGeneratorFromFile(ctx Handle, path string) (Handle, Status) {
	return process.CreateStreamingGeneratorFromFile(ctx, path)
}

func CreateStreamingGeneratorFromStreamParams(ctx Handle, protocol, path string, param any) (Handle, Status) {
	return process.CreateStreamingGeneratorFromStreamParams(ctx, protocol, path, param)
}

func CreateStreamingGeneratorFromStreamHandle(ctx, sh Handle) (Handle, Status) {
	return process.CreateStreamingGeneratorFromStreamHandle(ctx, sh)
}
