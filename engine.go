package main

import (
	"context"
	"strconv"
)

// Halt says why a Run stopped.
type Halt int

const (
	// HaltNormal means the instruction pointer ran off the end of the program.
	HaltNormal Halt = iota

	// HaltReturn means a ret popped the sentinel pushed at the start of the
	// run, returning past the outermost call frame.
	HaltReturn

	// HaltUnderflow means a stack underflowed and the underflow handler, if
	// any, declined to continue.
	HaltUnderflow

	// HaltCanceled means the run context ended; Run also returns its error.
	HaltCanceled
)

var haltNames = [...]string{
	"normal",
	"return past outermost",
	"underflow aborted",
	"canceled",
}

func (h Halt) String() string {
	if int(h) < len(haltNames) {
		return haltNames[h]
	}
	return "Halt(" + strconv.Itoa(int(h)) + ")"
}

func (vm *VM) run(ctx context.Context) (halt Halt, err error) {
	vm.init()

	defer func() {
		if ferr := vm.flush(); err == nil && ferr != nil {
			vm.logf("!", "flush: %v", ferr)
		}
		vm.logf("#", "halt %v @%v", halt, vm.ip)
	}()

	defer func() {
		if e := recover(); e != nil {
			he, ok := e.(haltError)
			if !ok {
				panic(e)
			}
			halt, err = HaltCanceled, he.error
		}
	}()

	vm.ctx = ctx
	defer func() { vm.ctx = nil }()

	vm.values.Clear()
	vm.texts.Clear()
	vm.initMode = false
	vm.rets.Clear()
	vm.rets.lifo = true
	vm.rets.Push(Int(sentinel))
	vm.ip = 0

	if vm.logfn != nil {
		defer vm.withLogPrefix("	")()
	}
	for vm.ip < len(vm.prog) {
		if err := ctx.Err(); err != nil {
			return HaltCanceled, err
		}

		vm.step()

		if vm.values.Underflow() || vm.texts.Underflow() {
			vm.logf("#", "stack underflow @%v", vm.ip)
			if vm.onUnderflow == nil || !vm.onUnderflow(vm.ip) {
				return HaltUnderflow, nil
			}
			vm.values.ClearUnderflow()
			vm.texts.ClearUnderflow()
		}

		if vm.ip < 0 {
			return HaltReturn, nil
		}

		vm.ip++
	}
	return HaltNormal, nil
}

func (vm *VM) step() {
	at := vm.ip
	in := vm.prog[at]
	if vm.initMode && !vmCodeInitVisible[in.code] {
		vm.logf(">", "@%v %v (init)", at, in)
		return
	}
	if vm.logfn != nil {
		vm.logf(">", "@%v %v -- r:%v v:%v t:%v", at, in,
			vm.rets.Values(), vm.values.Values(), vm.texts.Values())
	}
	vmCodeTable[in.code](vm)
	if vm.debug {
		vm.snapshot(at, in)
	}
}
