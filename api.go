package main

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jcorbin/htrof/internal/panicerr"
)

// New creates a VM with empty input, discarded output, and a one second
// wait delay, before applying any given options.
func New(opts ...VMOption) *VM {
	var vm VM
	vm.init()
	defaultOptions.apply(&vm)
	VMOptions(opts...).apply(&vm)
	return &vm
}

// Run executes the loaded program from its first instruction until it halts,
// returning why. Labels and variables persist across runs; both stacks are
// cleared at the start of each. The returned error is non-nil only when ctx
// ended the run, or the run failed unexpectedly.
func (vm *VM) Run(ctx context.Context) (halt Halt, err error) {
	err = panicerr.Recover("htrof", func() (rerr error) {
		halt, rerr = vm.run(ctx)
		return rerr
	})
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		vm.logf("#", "run failed: %+v", err)
	}
	return halt, err
}

// ResetScope selects what Reset clears.
type ResetScope int

const (
	// ResetAll clears the program, labels, stacks and user variables, restores
	// system variables, and closes every registered object.
	ResetAll ResetScope = iota

	// ResetProgram clears the program along with its conditional and label
	// tables.
	ResetProgram

	// ResetValues clears only the value stack.
	ResetValues
)

// Reset clears the state selected by scope.
func (vm *VM) Reset(scope ResetScope) error {
	vm.init()
	switch scope {
	case ResetValues:
		vm.values.Clear()
		return nil

	case ResetProgram:
		vm.resetProgram()
		return nil

	default:
		vm.resetProgram()
		vm.values = Stack{}
		vm.texts = Stack{}
		vm.rets = Stack{}
		vm.initMode = false
		vm.env.reset()
		return vm.ioCore.Close()
	}
}

func (vm *VM) resetProgram() {
	vm.prog = nil
	vm.ip = 0
	clear(vm.conds)
	clear(vm.labels)
}

// SetDebug toggles per-step snapshots during Run.
func (vm *VM) SetDebug(enabled bool) { vm.debug = enabled }

// Close flushes output, and closes every registered object.
func (vm *VM) Close() error { return vm.ioCore.Close() }

// Values returns a copy of the value stack, head first.
func (vm *VM) Values() []Value { return vm.values.Values() }

// Texts returns a copy of the text stack, head first.
func (vm *VM) Texts() []Value { return vm.texts.Values() }

// Lookup returns the value bound to name, checking system variables first.
func (vm *VM) Lookup(name string) (Value, bool) {
	vm.init()
	return vm.env.get(name)
}

// Len returns the number of loaded instructions.
func (vm *VM) Len() int { return len(vm.prog) }

// Pointer returns the instruction pointer as the last run left it.
func (vm *VM) Pointer() int { return vm.ip }

// WithInput sets the reader of the std object.
func WithInput(r io.Reader) VMOption { return withInput(r) }

// WithOutput sets the writer of the std object.
func WithOutput(w io.Writer) VMOption { return withOutput(w) }

// WithTee copies everything written to the std object into w as well.
func WithTee(w io.Writer) VMOption { return withTee(w) }

// WithObject registers an object under name; either r or w may be nil.
func WithObject(name string, r io.Reader, w io.Writer) VMOption {
	return objectOption{name, r, w}
}

func WithLogf(logfn func(mess string, args ...interface{})) VMOption { return withLogfn(logfn) }
func WithDebug(enabled bool) VMOption                                { return debugOption(enabled) }
func WithDebugOutput(w io.Writer) VMOption                           { return debugOutputOption{w} }
func WithDelay(d time.Duration) VMOption                             { return withDelay(d) }

// WithUnderflowHandler sets the function consulted after a stack underflows:
// returning true clears the underflow and continues the run, false halts it
// with HaltUnderflow. Without a handler every underflow halts the run.
func WithUnderflowHandler(handler func(ip int) bool) VMOption { return underflowOption(handler) }
