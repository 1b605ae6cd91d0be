package lineio

import (
	"bufio"
	"io"
	"strings"
)

// Reader reads whole lines from an underlying stream, dropping their line
// terminators. If the underlying reader implements Name() string, so does the
// Reader.
type Reader struct {
	br   *bufio.Reader
	src  io.Reader
	name string
}

// NewReader returns a Reader around r; an r that is already a Reader is
// returned as is.
func NewReader(r io.Reader) *Reader {
	if lr, ok := r.(*Reader); ok {
		return lr
	}
	lr := &Reader{src: r}
	if br, ok := r.(*bufio.Reader); ok {
		lr.br = br
	} else {
		lr.br = bufio.NewReader(r)
	}
	if nom, ok := r.(interface{ Name() string }); ok {
		lr.name = nom.Name()
	}
	return lr
}

// Name returns the underlying reader's name, or "" if it has none.
func (lr *Reader) Name() string { return lr.name }

// Read implements io.Reader through the line buffer, so that raw reads and
// line reads may be interleaved.
func (lr *Reader) Read(p []byte) (int, error) { return lr.br.Read(p) }

// ReadLine reads up to and including the next line feed, returning the line
// without its "\n" or "\r\n" terminator. A final line with no terminator is
// returned with a nil error; io.EOF is returned only once no bytes remain.
func (lr *Reader) ReadLine() (string, error) {
	line, err := lr.br.ReadString('\n')
	if err == io.EOF && line != "" {
		err = nil
	}
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")
	return line, err
}

// Close closes the underlying reader if it is an io.Closer.
func (lr *Reader) Close() error {
	if cl, ok := lr.src.(io.Closer); ok {
		return cl.Close()
	}
	return nil
}
