package main

import (
	"context"
	"fmt"
	"io"
	"strings"
)

// VM is the htrof machine: a program of instructions, loaded incrementally,
// run against two typed stacks, a label table, a subroutine return stack and a
// variable environment.
//
// A VM is owned by a single caller; none of its methods may be called
// concurrently.
type VM struct {
	logging
	ioCore

	prog  []instr     // append-only, replaced only by Reset
	conds map[int]int // conditional opener index -> block end index
	ip    int         // instruction pointer

	labels map[string]int // populated only by executing lbl
	rets   Stack          // subroutine return addresses, LIFO

	values Stack // numbers and null
	texts  Stack // text

	env environ

	initMode    bool
	debug       bool
	debugOut    io.Writer
	onUnderflow func(ip int) bool

	ctx context.Context
}

// instr is a single resolved instruction; literals carry their value and use
// the internal push code.
type instr struct {
	code opCode
	lit  Value
}

func (in instr) String() string {
	if in.code == vmCodePush {
		return in.lit.GoString()
	}
	return in.code.String()
}

func (vm *VM) init() {
	if vm.conds == nil {
		vm.conds = make(map[int]int)
	}
	if vm.labels == nil {
		vm.labels = make(map[string]int)
	}
	vm.env.init()
}

func (vm *VM) halt(err error) {
	// ignore any panics while trying to flush output
	func() {
		defer func() { recover() }()
		if ferr := vm.flush(); err == nil {
			err = ferr
		}
	}()
	vm.logf("#", "halt error: %v", err)
	panic(haltError{err})
}

func (vm *VM) context() context.Context {
	if vm.ctx == nil {
		return context.Background()
	}
	return vm.ctx
}

type haltError struct{ error }

func (err haltError) Error() string {
	if err.error != nil {
		return fmt.Sprintf("halted: %v", err.error)
	}
	return "halted"
}
func (err haltError) Unwrap() error { return err.error }

type logging struct {
	logfn func(mess string, args ...interface{})

	markWidth int
}

func (log *logging) withLogPrefix(prefix string) func() {
	logfn := log.logfn
	if logfn == nil {
		return func() {}
	}
	log.logfn = func(mess string, args ...interface{}) {
		logfn(prefix+mess, args...)
	}
	return func() {
		log.logfn = logfn
	}
}

func (log *logging) logf(mark, mess string, args ...interface{}) {
	if log.logfn == nil {
		return
	}
	if n := log.markWidth - len(mark); n > 0 {
		for _, r := range mark {
			mark = strings.Repeat(string(r), n) + mark
			break
		}
	} else if n < 0 {
		log.markWidth = len(mark)
	}
	if len(args) > 0 {
		mess = fmt.Sprintf(mess, args...)
	}
	log.logfn("%v %v", mark, mess)
}
