// Package stream implements the byte-oriented stream abstraction consumed by
// decoders: a protocol registry plus file, memory and callback streams.
//
// Every failure of an underlying operation surfaces as *Error carrying the
// callback's message verbatim. Nothing is retried.
package stream

import (
	"errors"
	"fmt"
	"io"
	"sync"
)

// Stream is an open byte source.
//
// Read follows io.Reader: short reads are allowed, io.EOF marks the end.
// SeekTo moves to an absolute byte position. Destroy releases any state
// associated with the stream after Close.
type Stream interface {
	Read(p []byte) (int, error)
	SeekTo(pos int64) error
	Close() error
	Destroy()
}

// Sizer is implemented by streams that may know their total length.
// Size returns -1 when the length is unknown.
type Sizer interface {
	Size() int64
}

// Error is a failed stream operation.
type Error struct {
	Op      string // open, read, seek, close
	Message string
	Err     error
}

func (e *Error) Error() string {
	return fmt.Sprintf("stream %s: %s", e.Op, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ErrNotSeekable is wrapped by seeks on streams without a seek callback.
var ErrNotSeekable = errors.New("stream is not seekable")

// ErrClosed is wrapped by operations on a closed stream.
var ErrClosed = errors.New("stream is closed")

func wrap(op string, err error) error {
	if err == nil || errors.Is(err, io.EOF) {
		return err
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Message: err.Error(), Err: err}
}

// Definition is a set of user callbacks backing a custom stream.
// Read is required; Seek, Close and Destroy are optional.
type Definition struct {
	Read    func(p []byte) (int, error)
	Seek    func(pos int64) error
	Close   func() error
	Destroy func()
	Length  int64 // total bytes; zero or negative when unknown
}

type callbackStream struct {
	def Definition

	mu        sync.Mutex
	closed    bool
	destroyed bool
}

// FromCustom wraps user callbacks as a Stream.
func FromCustom(def Definition) (Stream, error) {
	if def.Read == nil {
		return nil, &Error{Op: "open", Message: "custom stream has no read callback"}
	}
	return &callbackStream{def: def}, nil
}

func (s *callbackStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return 0, &Error{Op: "read", Message: ErrClosed.Error(), Err: ErrClosed}
	}

	n, err := s.def.Read(p)
	if n < 0 || n > len(p) {
		return 0, &Error{Op: "read", Message: fmt.Sprintf("callback returned %d bytes for a %d byte request", n, len(p))}
	}
	return n, wrap("read", err)
}

func (s *callbackStream) SeekTo(pos int64) error {
	if s.def.Seek == nil {
		return &Error{Op: "seek", Message: ErrNotSeekable.Error(), Err: ErrNotSeekable}
	}
	if pos < 0 {
		return &Error{Op: "seek", Message: fmt.Sprintf("negative position %d", pos)}
	}
	return wrap("seek", s.def.Seek(pos))
}

func (s *callbackStream) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return &Error{Op: "close", Message: ErrClosed.Error(), Err: ErrClosed}
	}
	s.closed = true
	s.mu.Unlock()

	if s.def.Close == nil {
		return nil
	}
	return wrap("close", s.def.Close())
}

func (s *callbackStream) Destroy() {
	s.mu.Lock()
	if s.destroyed {
		s.mu.Unlock()
		return
	}
	s.destroyed = true
	s.mu.Unlock()

	if s.def.Destroy != nil {
		s.def.Destroy()
	}
}

func (s *callbackStream) Size() int64 {
	if s.def.Length <= 0 {
		return -1
	}
	return s.def.Length
}

// readSeeker adapts a Stream to io.ReadSeeker.
type readSeeker struct {
	s   Stream
	pos int64
}

// AsReadSeeker adapts s for decoders that need io.ReadSeeker. Seeking
// relative to the end requires s to implement Sizer.
func AsReadSeeker(s Stream) io.ReadSeeker {
	return &readSeeker{s: s}
}

func (r *readSeeker) Read(p []byte) (int, error) {
	n, err := r.s.Read(p)
	r.pos += int64(n)
	return n, err
}

func (r *readSeeker) Seek(offset int64, whence int) (int64, error) {
	var abs int64
	switch whence {
	case io.SeekStart:
		abs = offset
	case io.SeekCurrent:
		abs = r.pos + offset
	case io.SeekEnd:
		sz, ok := r.s.(Sizer)
		if !ok || sz.Size() < 0 {
			return 0, &Error{Op: "seek", Message: "stream length is unknown"}
		}
		abs = sz.Size() + offset
	default:
		return 0, &Error{Op: "seek", Message: fmt.Sprintf("invalid whence %d", whence)}
	}
	if abs == r.pos {
		return abs, nil
	}
	if err := r.s.SeekTo(abs); err != nil {
		return 0, err
	}
	r.pos = abs
	return abs, nil
}
