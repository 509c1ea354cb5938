package engine

import (
	"github.com/roach88/synthplane/internal/buffer"
	"github.com/roach88/synthplane/internal/handle"
	"github.com/roach88/synthplane/internal/ir"
	"github.com/roach88/synthplane/internal/stream"
)

// RegisterStreamProtocol makes protocol available to the *FromStreamParams
// constructors.
func (l *Library) RegisterStreamProtocol(protocol string, open stream.OpenFunc) error {
	if err := l.enter(); err != nil {
		return err
	}
	if err := l.protocols.Register(protocol, open); err != nil {
		return classify(ir.NoHandle, err)
	}
	l.logger.Info("stream protocol registered", "protocol", protocol)
	return nil
}

// StreamProtocols lists the registered protocol names.
func (l *Library) StreamProtocols() []string {
	return l.protocols.Names()
}

// createUnowned allocates a context-independent object.
func (l *Library) createUnowned(obj *object) (ir.Handle, error) {
	h, err := l.handles.Create(obj.typ, ir.NoHandle, handle.DeleteBehavior{})
	if err != nil {
		return ir.NoHandle, classify(ir.NoHandle, err)
	}
	l.mu.Lock()
	l.objects[h] = obj
	l.mu.Unlock()
	if err := l.props.Init(h, obj.typ, nil); err != nil {
		_, _ = l.handles.Release(h)
		return ir.NoHandle, classify(h, err)
	}
	l.metrics.SetLive(l.handles.Live())
	l.logger.Debug("object created", "handle", h, "type", obj.typ)
	return h, nil
}

func (l *Library) newStreamHandle(s stream.Stream, err error) (ir.Handle, error) {
	if err != nil {
		return ir.NoHandle, classify(ir.NoHandle, err)
	}
	h, err := l.createUnowned(&object{typ: ir.ObjectTypeStreamHandle, stream: s})
	if err != nil {
		_ = s.Close()
		s.Destroy()
	}
	return h, err
}

// CreateStreamHandleFromFile opens a file as a stream handle.
func (l *Library) CreateStreamHandleFromFile(path string) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newStreamHandle(stream.FromFile(path))
}

// CreateStreamHandleFromMemory wraps a private copy of data.
func (l *Library) CreateStreamHandleFromMemory(data []byte) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newStreamHandle(stream.FromMemory(data), nil)
}

// CreateStreamHandleFromCustom wraps user callbacks.
func (l *Library) CreateStreamHandleFromCustom(def stream.Definition) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newStreamHandle(stream.FromCustom(def))
}

// CreateStreamHandleFromStreamParams opens a stream through a registered
// protocol.
func (l *Library) CreateStreamHandleFromStreamParams(protocol, path string, param any) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newStreamHandle(l.protocols.Open(protocol, path, param))
}

// consume takes the stream out of a stream handle. A stream handle can be
// consumed once.
func (l *Library) consume(sh ir.Handle) (stream.Stream, error) {
	obj, err := l.resolveType(sh, true, isType(ir.ObjectTypeStreamHandle), "a stream handle")
	if err != nil {
		return nil, err
	}
	obj.streamMu.Lock()
	defer obj.streamMu.Unlock()
	if obj.consumed {
		return nil, newError(CodeInvalidValue, sh, "stream handle already consumed")
	}
	obj.consumed = true
	s := obj.stream
	obj.stream = nil
	return s, nil
}

func (l *Library) newBuffer(b *buffer.Buffer, err error) (ir.Handle, error) {
	if err != nil {
		return ir.NoHandle, classify(ir.NoHandle, err)
	}
	return l.createUnowned(&object{typ: ir.ObjectTypeBuffer, spec: &ObjectSpec{Buffer: b}})
}

func decodeAndClose(s stream.Stream, err error) (*buffer.Buffer, error) {
	if err != nil {
		return nil, err
	}
	defer s.Destroy()
	defer s.Close()
	return buffer.DecodeStream(s)
}

// CreateBufferFromFloatArray copies interleaved float samples into a buffer.
func (l *Library) CreateBufferFromFloatArray(sampleRate, channels, frames int, data []float32) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newBuffer(buffer.FromFloat(sampleRate, channels, frames, data))
}

// CreateBufferFromFile decodes a file. With a buffer cache configured,
// unchanged files are decoded once.
func (l *Library) CreateBufferFromFile(path string) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	if l.files == nil {
		return l.newBuffer(buffer.LoadFile(path))
	}
	b, hit, err := l.files.Load(path)
	if err == nil {
		l.logger.Debug("buffer file loaded", "path", path, "cache_hit", hit)
	}
	return l.newBuffer(b, err)
}

// CreateBufferFromEncodedData decodes an in-memory file image.
func (l *Library) CreateBufferFromEncodedData(data []byte) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newBuffer(buffer.DecodeBytes(data))
}

// CreateBufferFromStreamParams decodes a stream opened through a protocol.
func (l *Library) CreateBufferFromStreamParams(protocol, path string, param any) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	return l.newBuffer(decodeAndClose(l.protocols.Open(protocol, path, param)))
}

// CreateBufferFromStreamHandle decodes and consumes a stream handle.
func (l *Library) CreateBufferFromStreamHandle(sh ir.Handle) (ir.Handle, error) {
	s, err := l.consume(sh)
	if err != nil {
		return ir.NoHandle, err
	}
	return l.newBuffer(decodeAndClose(s, nil))
}

func (l *Library) buffer(h ir.Handle) (*buffer.Buffer, error) {
	obj, err := l.resolveType(h, false, isType(ir.ObjectTypeBuffer), "a buffer")
	if err != nil {
		return nil, err
	}
	return obj.spec.Buffer, nil
}

// bufferOf returns the buffer a buffer generator currently plays, if any.
func (l *Library) bufferOf(gen ir.Handle) *buffer.Buffer {
	v, err := l.props.Get(gen, ir.PropBuffer)
	if err != nil {
		return nil
	}
	ref, ok := v.(ir.ObjectRef)
	if !ok || ir.Handle(ref) == ir.NoHandle {
		return nil
	}
	obj, err := l.lookupObject(ir.Handle(ref))
	if err != nil || obj.spec == nil {
		return nil
	}
	return obj.spec.Buffer
}

// BufferChannels returns the channel count of a buffer.
func (l *Library) BufferChannels(h ir.Handle) (int, error) {
	b, err := l.buffer(h)
	if err != nil {
		return 0, err
	}
	return b.Channels(), nil
}

// BufferLengthInSamples returns the frame count of a buffer.
func (l *Library) BufferLengthInSamples(h ir.Handle) (int, error) {
	b, err := l.buffer(h)
	if err != nil {
		return 0, err
	}
	return b.LengthInSamples(), nil
}

// BufferLengthInSeconds returns the duration of a buffer.
func (l *Library) BufferLengthInSeconds(h ir.Handle) (float64, error) {
	b, err := l.buffer(h)
	if err != nil {
		return 0, err
	}
	return b.LengthInSeconds(), nil
}

// BufferSizeInBytes returns the memory held by a buffer's samples.
func (l *Library) BufferSizeInBytes(h ir.Handle) (int, error) {
	b, err := l.buffer(h)
	if err != nil {
		return 0, err
	}
	return b.SizeInBytes(), nil
}

func (l *Library) newStreamingGenerator(ctx ir.Handle, s stream.Stream, err error) (ir.Handle, error) {
	if err != nil {
		return ir.NoHandle, classify(ir.NoHandle, err)
	}
	h, err := l.createChild(ctx, ir.ObjectTypeStreamingGenerator, &ObjectSpec{Stream: s}, nil)
	if err != nil {
		_ = s.Close()
		s.Destroy()
	}
	return h, err
}

// CreateStreamingGeneratorFromFile streams a file without decoding it
// up front.
func (l *Library) CreateStreamingGeneratorFromFile(ctx ir.Handle, path string) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	s, err := stream.FromFile(path)
	return l.newStreamingGenerator(ctx, s, err)
}

// CreateStreamingGeneratorFromStreamParams streams through a protocol.
func (l *Library) CreateStreamingGeneratorFromStreamParams(ctx ir.Handle, protocol, path string, param any) (ir.Handle, error) {
	if err := l.enter(); err != nil {
		return ir.NoHandle, err
	}
	s, err := l.protocols.Open(protocol, path, param)
	return l.newStreamingGenerator(ctx, s, err)
}

// CreateStreamingGeneratorFromStreamHandle streams and consumes a stream
// handle.
func (l *Library) CreateStreamingGeneratorFromStreamHandle(ctx ir.Handle, sh ir.Handle) (ir.Handle, error) {
	if _, err := l.context(ctx, true); err != nil {
		return ir.NoHandle, err
	}
	s, err := l.consume(sh)
	if err != nil {
		return ir.NoHandle, err
	}
	return l.newStreamingGenerator(ctx, s, nil)
}
