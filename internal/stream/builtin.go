package stream

import (
	"bytes"
	"fmt"
	"io"
	"os"
)

// FromFile opens a file stream.
func FromFile(path string) (Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &Error{Op: "open", Message: err.Error(), Err: err}
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, &Error{Op: "open", Message: err.Error(), Err: err}
	}
	return FromCustom(Definition{
		Read: f.Read,
		Seek: func(pos int64) error {
			_, err := f.Seek(pos, io.SeekStart)
			return err
		},
		Close:  f.Close,
		Length: info.Size(),
	})
}

// FromMemory creates a stream over a private copy of data.
func FromMemory(data []byte) Stream {
	r := bytes.NewReader(bytes.Clone(data))
	s, _ := FromCustom(Definition{
		Read: r.Read,
		Seek: func(pos int64) error {
			_, err := r.Seek(pos, io.SeekStart)
			return err
		},
		Length: int64(len(data)),
	})
	return s
}

func openFile(_ string, path string, _ any) (Stream, error) {
	return FromFile(path)
}

func openMemory(_ string, _ string, param any) (Stream, error) {
	data, ok := param.([]byte)
	if !ok {
		return nil, &Error{Op: "open", Message: fmt.Sprintf("memory protocol expects []byte param, got %T", param)}
	}
	return FromMemory(data), nil
}
