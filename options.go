package main

import (
	"bytes"
	"io"
	"time"

	"github.com/jcorbin/htrof/internal/flushio"
	"github.com/jcorbin/htrof/internal/lineio"
)

// VMOption configures a VM under New.
type VMOption interface{ apply(vm *VM) }

// VMOptions combines options into one, applied in order; nil options are
// skipped.
func VMOptions(opts ...VMOption) VMOption {
	var all options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil:
		case options:
			all = append(all, impl...)
		default:
			all = append(all, opt)
		}
	}
	if len(all) == 1 {
		return all[0]
	}
	return all
}

type options []VMOption

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		opt.apply(vm)
	}
}

var defaultOptions = VMOptions(
	withInput(bytes.NewReader(nil)),
	withOutput(io.Discard),
	withDelay(defaultDelay),
)

type withLogfn func(mess string, args ...interface{})

func (logfn withLogfn) apply(vm *VM) { vm.logfn = logfn }

type inputOption struct{ io.Reader }
type outputOption struct{ io.Writer }
type teeOption struct{ io.Writer }
type debugOption bool
type debugOutputOption struct{ io.Writer }
type underflowOption func(ip int) bool
type delayOption time.Duration

type objectOption struct {
	name string
	r    io.Reader
	w    io.Writer
}

func withInput(r io.Reader) inputOption     { return inputOption{r} }
func withOutput(w io.Writer) outputOption   { return outputOption{w} }
func withTee(w io.Writer) teeOption         { return teeOption{w} }
func withDelay(d time.Duration) delayOption { return delayOption(d) }

func (i inputOption) apply(vm *VM) {
	vm.in = lineio.NewReader(i.Reader)
}

func (o outputOption) apply(vm *VM) {
	if vm.out != nil {
		vm.out.Flush()
	}
	vm.out = flushio.NewWriteFlusher(o.Writer)
}

func (o teeOption) apply(vm *VM) {
	vm.out = flushio.Tee(vm.out, flushio.NewWriteFlusher(o.Writer))
}

func (o objectOption) apply(vm *VM) {
	if err := vm.register(o.name, o.r, o.w); err != nil {
		vm.logf("!", "object %q: %v", o.name, err)
	}
}

func (d debugOption) apply(vm *VM)       { vm.debug = bool(d) }
func (o debugOutputOption) apply(vm *VM) { vm.debugOut = o.Writer }
func (h underflowOption) apply(vm *VM)   { vm.onUnderflow = h }

func (d delayOption) apply(vm *VM) {
	vm.env.setDefault(sysDelay, Int(time.Duration(d).Milliseconds()))
}
