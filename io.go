package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"reflect"

	"github.com/jcorbin/htrof/internal/flushio"
	"github.com/jcorbin/htrof/internal/lineio"
)

// Reserved object names; they resolve before any registered object.
const (
	stdObject  = "std"
	nullObject = "null"
)

// object is a named pair of endpoints; either side may be nil.
type object struct {
	in     *lineio.Reader
	out    flushio.WriteFlusher
	closer io.Closer
}

// ioCore holds the VM's standard streams and its registry of named objects.
type ioCore struct {
	in      *lineio.Reader
	out     flushio.WriteFlusher
	objects map[string]*object
}

var errReserved = errors.New("reserved object name")

// register binds name to the given endpoints, closing any object previously
// bound to it. Either endpoint may be nil; any endpoint that is an io.Closer is
// closed when the object is.
func (ioc *ioCore) register(name string, r io.Reader, w io.Writer) error {
	if name == stdObject || name == nullObject {
		return fmt.Errorf("%w %q", errReserved, name)
	}
	var (
		obj     object
		closers []io.Closer
	)
	if r != nil {
		obj.in = lineio.NewReader(r)
		if cl, ok := r.(io.Closer); ok {
			closers = append(closers, cl)
		}
	}
	if w != nil {
		if wc, ok := w.(io.WriteCloser); ok && !sameCloser(closers, wc) {
			fc := flushio.NewWriteFlushCloser(wc)
			obj.out = fc
			closers = append(closers, fc)
		} else {
			obj.out = flushio.NewWriteFlusher(w)
			closers = append(closers, flusherCloser{obj.out})
		}
	}
	obj.closer = multiCloser(closers)

	err := ioc.unregister(name)
	if errors.Is(err, os.ErrNotExist) {
		err = nil
	}
	if ioc.objects == nil {
		ioc.objects = make(map[string]*object)
	}
	ioc.objects[name] = &obj
	return err
}

// openFile registers the file at path under name: reads start at the top of
// the file, while writes append, creating the file if needed.
func (ioc *ioCore) openFile(name, path string) error {
	wf, err := os.OpenFile(path, os.O_WRONLY|os.O_APPEND|os.O_CREATE, 0o644)
	if err != nil {
		return err
	}
	rf, err := os.Open(path)
	if err != nil {
		wf.Close()
		return err
	}
	return ioc.register(name, rf, wf)
}

// unregister flushes, closes, and forgets the named object.
func (ioc *ioCore) unregister(name string) error {
	obj, defined := ioc.objects[name]
	if !defined {
		return fmt.Errorf("object %q %w", name, os.ErrNotExist)
	}
	delete(ioc.objects, name)
	return obj.closer.Close()
}

// Close closes every registered object, returning the first error; the
// standard streams are left open, but flushed.
func (ioc *ioCore) Close() (err error) {
	for _, name := range ioc.objectNames() {
		if cerr := ioc.unregister(name); err == nil {
			err = cerr
		}
	}
	if ferr := ioc.flushStd(); err == nil {
		err = ferr
	}
	return err
}

func (ioc *ioCore) objectNames() []string { return sortedNames(ioc.objects) }

func (ioc *ioCore) flushStd() error {
	if ioc.out != nil {
		return ioc.out.Flush()
	}
	return nil
}

// resolve returns the endpoints for name; ok is false when nothing is bound
// to it.
func (ioc *ioCore) resolve(name string) (in *lineio.Reader, out flushio.WriteFlusher, ok bool) {
	switch name {
	case stdObject:
		return ioc.in, ioc.out, true
	case nullObject:
		return nil, flushio.Discard, true
	}
	if obj, defined := ioc.objects[name]; defined {
		return obj.in, obj.out, true
	}
	return nil, nil, false
}

func (vm *VM) currentObject() string { return vm.env.system[sysObj].AsText() }

// readLine reads one line from the current object, expanding newline escapes;
// ok is false at end of input, when the object is not readable, or after an
// error.
func (vm *VM) readLine() (line string, ok bool) {
	name := vm.currentObject()
	in, _, defined := vm.resolve(name)
	if !defined {
		vm.logf("!", "read: no object %q", name)
		return "", false
	}
	if in == nil {
		return "", false
	}
	line, err := in.ReadLine()
	if err != nil {
		if err != io.EOF {
			vm.logf("!", "read %q: %v", name, err)
		}
		return "", false
	}
	return lineio.Expand(line), true
}

// writeString writes s verbatim to the current object and flushes it.
func (vm *VM) writeString(s string) {
	w := vm.currentWriter()
	if w == nil {
		return
	}
	if _, err := io.WriteString(w, s); err != nil {
		vm.logf("!", "write %q: %v", vm.currentObject(), err)
		return
	}
	vm.flushObject(w)
}

// currentWriter returns the current object's writable endpoint, or nil.
func (vm *VM) currentWriter() flushio.WriteFlusher {
	name := vm.currentObject()
	_, out, defined := vm.resolve(name)
	if !defined {
		vm.logf("!", "write: no object %q", name)
	}
	return out
}

func (vm *VM) flushObject(w flushio.WriteFlusher) {
	if err := w.Flush(); err != nil {
		vm.logf("!", "flush %q: %v", vm.currentObject(), err)
	}
}

// flush flushes the standard output along with every registered object.
func (vm *VM) flush() (err error) {
	for _, name := range vm.objectNames() {
		if out := vm.objects[name].out; out != nil {
			if ferr := out.Flush(); err == nil {
				err = ferr
			}
		}
	}
	if ferr := vm.flushStd(); err == nil {
		err = ferr
	}
	return err
}

type flusherCloser struct{ flushio.WriteFlusher }

func (fc flusherCloser) Close() error { return fc.Flush() }

type multiCloser []io.Closer

func (mc multiCloser) Close() (err error) {
	for i := len(mc) - 1; i >= 0; i-- {
		if cerr := mc[i].Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// sameCloser reports whether c is already among closers, as when a single
// read-write stream serves both endpoints.
func sameCloser(closers []io.Closer, c io.Closer) bool {
	if !reflect.TypeOf(c).Comparable() {
		return false
	}
	for _, other := range closers {
		if other == c {
			return true
		}
	}
	return false
}
