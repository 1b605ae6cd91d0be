package flushio

import (
	"bufio"
	"errors"
	"io"
)

// WriteFlusher is a flush-able io.Writer.
type WriteFlusher interface {
	io.Writer
	Flush() error
}

// Discard is a WriteFlusher that drops all writes.
var Discard WriteFlusher = nopFlusher{io.Discard}

// NewWriteFlusher returns w if it already flushes, a no-op flushing wrapper if
// it is an in-memory buffer, or a new bufio.Writer otherwise.
func NewWriteFlusher(w io.Writer) WriteFlusher {
	if w == nil || w == io.Discard {
		return Discard
	}

	if wf, is := w.(WriteFlusher); is {
		return wf
	}

	// in memory buffers, as implemented by types like bytes.Buffer and
	// strings.Builder, do not need to be flushed
	type buffer interface {
		io.Writer
		Len() int
		Grow(n int)
		Reset()
	}
	if _, isBuffer := w.(buffer); isBuffer {
		return nopFlusher{w}
	}

	return bufio.NewWriter(w)
}

type nopFlusher struct{ io.Writer }

func (nf nopFlusher) Flush() error { return nil }

// WriteFlushCloser is a WriteFlusher that owns an underlying stream.
type WriteFlushCloser interface {
	WriteFlusher
	io.Closer
}

// NewWriteFlushCloser buffers writes into wc; its Close flushes before closing
// wc.
func NewWriteFlushCloser(wc io.WriteCloser) WriteFlushCloser {
	return flushCloser{NewWriteFlusher(wc), wc}
}

type flushCloser struct {
	WriteFlusher
	cl io.Closer
}

func (fc flushCloser) Close() error {
	return errors.Join(fc.Flush(), fc.cl.Close())
}

// Tee combines any number of WriteFlusher-s into a single one that writes into
// and flushes all of them. Nil arguments are ignored; nil is returned if none
// remain.
func Tee(wfs ...WriteFlusher) WriteFlusher {
	switch all := appendTee(nil, wfs...); len(all) {
	case 0:
		return nil
	case 1:
		return all[0]
	default:
		return all
	}
}

type tee []WriteFlusher

func (t tee) Write(p []byte) (n int, err error) {
	for _, wf := range t {
		n, err = wf.Write(p)
		if err != nil {
			return n, err
		}
		if n != len(p) {
			return n, io.ErrShortWrite
		}
	}
	return len(p), nil
}

func (t tee) Flush() (err error) {
	for _, wf := range t {
		if ferr := wf.Flush(); err == nil {
			err = ferr
		}
	}
	return err
}

func appendTee(all tee, some ...WriteFlusher) tee {
	for _, one := range some {
		if many, ok := one.(tee); ok {
			all = append(all, many...)
		} else if one != nil {
			all = append(all, one)
		}
	}
	return all
}
