package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"reflect"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jcorbin/htrof/internal/logio"
	"github.com/jcorbin/htrof/internal/panicerr"
)

type vmTestCases []vmTestCase

func (vmts vmTestCases) run(t *testing.T) {
	{
		var exclusive []vmTestCase
		for _, vmt := range vmts {
			if vmt.exclusive {
				exclusive = append(exclusive, vmt)
			}
		}
		if len(exclusive) > 0 {
			vmts = exclusive
		}
	}
	for _, vmt := range vmts {
		if !t.Run(vmt.name, vmt.run) {
			return
		}
	}
}

func vmTest(name string) (vmt vmTestCase) {
	vmt.name = name
	return vmt
}

type optFunc func(vm *VM)

func (f optFunc) apply(vm *VM) { f(vm) }

type vmTestCase struct {
	name    string
	opts    []interface{}
	loads   [][]string
	ops     []func(vm *VM)
	expect  []func(t *testing.T, vm *VM)
	timeout time.Duration

	wantHalt    Halt
	wantErr     error
	wantLoadErr string

	exclusive bool
}

func (vmt vmTestCase) apply(wraps ...func(vmTestCase) vmTestCase) vmTestCase {
	for _, wrap := range wraps {
		vmt = wrap(vmt)
	}
	return vmt
}

func (vmt vmTestCase) exclusiveTest() vmTestCase {
	vmt.exclusive = true
	return vmt
}

func (vmt vmTestCase) withOptions(opts ...VMOption) vmTestCase {
	for _, opt := range opts {
		vmt.opts = append(vmt.opts, opt)
	}
	return vmt
}

// withProgram adds one Load call of the given lines.
func (vmt vmTestCase) withProgram(lines ...string) vmTestCase {
	vmt.loads = append(vmt.loads, lines)
	return vmt
}

func (vmt vmTestCase) withValues(values ...Value) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		vm.values.Push(values...)
	}))
	return vmt
}

func (vmt vmTestCase) withTexts(texts ...string) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		for _, s := range texts {
			vm.texts.Push(Text(s))
		}
	}))
	return vmt
}

func (vmt vmTestCase) withVar(name string, val Value) vmTestCase {
	vmt.opts = append(vmt.opts, optFunc(func(vm *VM) {
		vm.env.set(name, val)
	}))
	return vmt
}

func (vmt vmTestCase) withInput(input string) vmTestCase {
	vmt.opts = append(vmt.opts, WithInput(strings.NewReader(input)))
	return vmt
}

func (vmt vmTestCase) withDelay(delay time.Duration) vmTestCase {
	vmt.opts = append(vmt.opts, WithDelay(delay))
	return vmt
}

// withUnderflowAnswers installs an underflow handler that gives each answer
// in turn, and then declines.
func (vmt vmTestCase) withUnderflowAnswers(answers ...bool) vmTestCase {
	vmt.opts = append(vmt.opts, func(vmt *vmTestCase, t *testing.T) VMOption {
		remain := append([]bool(nil), answers...)
		return WithUnderflowHandler(func(ip int) bool {
			t.Logf("underflow @%v, %v answers remain", ip, len(remain))
			if len(remain) == 0 {
				return false
			}
			answer := remain[0]
			remain = remain[1:]
			return answer
		})
	})
	return vmt
}

func (vmt vmTestCase) do(ops ...func(vm *VM)) vmTestCase {
	vmt.ops = append(vmt.ops, ops...)
	return vmt
}

func (vmt vmTestCase) withTimeout(timeout time.Duration) vmTestCase {
	vmt.timeout = timeout
	return vmt
}

func (vmt vmTestCase) expectError(err error) vmTestCase {
	vmt.wantErr = err
	return vmt
}

func (vmt vmTestCase) expectLoadError(mess string) vmTestCase {
	vmt.wantLoadErr = mess
	return vmt
}

func (vmt vmTestCase) expectHalt(halt Halt) vmTestCase {
	vmt.wantHalt = halt
	return vmt
}

func (vmt vmTestCase) expectValues(values ...Value) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, values, nilIfEmpty(vm.Values()), "expected value stack")
	})
	return vmt
}

func (vmt vmTestCase) expectTexts(texts ...string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var want []Value
		for _, s := range texts {
			want = append(want, Text(s))
		}
		assert.Equal(t, want, nilIfEmpty(vm.Texts()), "expected text stack")
	})
	return vmt
}

func (vmt vmTestCase) expectUnderflow(values bool, texts bool) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, values, vm.values.Underflow(), "expected value stack underflow")
		assert.Equal(t, texts, vm.texts.Underflow(), "expected text stack underflow")
	})
	return vmt
}

func (vmt vmTestCase) expectProgLen(n int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, n, vm.Len(), "expected program length")
	})
	return vmt
}

func (vmt vmTestCase) expectProg(prog string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		parts := make([]string, len(vm.prog))
		for i, in := range vm.prog {
			parts[i] = in.String()
		}
		assert.Equal(t, prog, strings.Join(parts, " "), "expected program")
	})
	return vmt
}

func (vmt vmTestCase) expectPointer(ip int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, ip, vm.Pointer(), "expected instruction pointer")
	})
	return vmt
}

func (vmt vmTestCase) expectVar(name string, val Value) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		got, defined := vm.Lookup(name)
		if assert.True(t, defined, "expected %q to be defined", name) {
			assert.Equal(t, val, got, "expected %q value", name)
		}
	})
	return vmt
}

func (vmt vmTestCase) expectNoVar(name string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		_, defined := vm.Lookup(name)
		assert.False(t, defined, "expected %q to be undefined", name)
	})
	return vmt
}

func (vmt vmTestCase) expectUserVar(name string, val Value) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		got, defined := vm.env.user[name]
		if assert.True(t, defined, "expected user variable %q", name) {
			assert.Equal(t, val, got, "expected user variable %q value", name)
		}
	})
	return vmt
}

func (vmt vmTestCase) expectLabel(name string, at int) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		got, defined := vm.labels[name]
		if assert.True(t, defined, "expected label %q", name) {
			assert.Equal(t, at, got, "expected label %q index", name)
		}
	})
	return vmt
}

func (vmt vmTestCase) expectOutput(output string) vmTestCase {
	var out strings.Builder
	vmt.opts = append(vmt.opts, WithOutput(&out))
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		assert.Equal(t, output, out.String(), "expected output")
	})
	return vmt
}

func (vmt vmTestCase) expectDumpContains(part string) vmTestCase {
	vmt.expect = append(vmt.expect, func(t *testing.T, vm *VM) {
		var out strings.Builder
		vmDumper{vm: vm, out: &out}.dump()
		assert.Contains(t, out.String(), part, "expected dump content")
	})
	return vmt
}

func (vmt vmTestCase) run(t *testing.T) {
	defer func(then time.Time) {
		label := "PASS"
		if t.Failed() {
			label = "FAIL"
		}
		t.Logf("%v\t%v\t%v", label, t.Name(), time.Since(then))
	}(time.Now())

	var logs strings.Builder
	vm := vmt.buildVM(t, func(mess string, args ...interface{}) {
		fmt.Fprintf(&logs, mess, args...)
		logs.WriteByte('\n')
	})
	defer func() {
		if t.Failed() {
			t.Logf("VM log:\n%v", logs.String())
			vmt.dumpToTest(t, vm)
		}
	}()

	var loadErrs []error
	for _, lines := range vmt.loads {
		if err := vm.Load(lines...); err != nil {
			loadErrs = append(loadErrs, err)
		}
	}
	if vmt.wantLoadErr != "" {
		assert.ErrorContains(t, errors.Join(loadErrs...), vmt.wantLoadErr, "expected load error")
	} else {
		require.NoError(t, errors.Join(loadErrs...), "unexpected load error")
	}

	const defaultTimeout = time.Second
	timeout := vmt.timeout
	if timeout == 0 {
		timeout = defaultTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	halt, err := vmt.runVM(ctx, vm)
	if vmt.wantErr != nil {
		assert.True(t, errors.Is(err, vmt.wantErr), "expected error: %v\ngot: %+v", vmt.wantErr, err)
	} else {
		assert.NoError(t, err, "unexpected VM run error")
		assert.Equal(t, vmt.wantHalt, halt, "expected halt")
	}

	if !t.Failed() {
		for _, expect := range vmt.expect {
			expect(t, vm)
		}
	}
}

// runVM runs any ops directly against the VM, or else runs its program.
func (vmt vmTestCase) runVM(ctx context.Context, vm *VM) (halt Halt, rerr error) {
	defer func() {
		if err := vm.Close(); err != nil && rerr == nil {
			rerr = fmt.Errorf("vm.Close failed: %w", err)
		}
	}()

	if len(vmt.ops) == 0 {
		return vm.Run(ctx)
	}

	names := make([]string, len(vmt.ops))
	for i, op := range vmt.ops {
		names[i] = runtime.FuncForPC(reflect.ValueOf(op).Pointer()).Name()
	}
	return HaltNormal, panicerr.Recover("vmTestCase.ops", func() error {
		vm.ctx = ctx
		defer func() { vm.ctx = nil }()
		for i, op := range vmt.ops {
			vm.logf(">", "do[%v] %v", i, names[i])
			op(vm)
			if err := ctx.Err(); err != nil {
				return err
			}
		}
		return vm.flush()
	})
}

func (vmt vmTestCase) buildVM(t *testing.T, logfn func(mess string, args ...interface{})) *VM {
	opts := []VMOption{WithLogf(logfn)}
	for _, o := range vmt.opts {
		switch impl := o.(type) {
		case func(vmt *vmTestCase, t *testing.T) VMOption:
			opts = append(opts, impl(&vmt, t))
		case VMOption:
			opts = append(opts, impl)
		default:
			t.Logf("unsupported vmTestCase opt type %T", o)
			t.FailNow()
		}
	}
	return New(opts...)
}

func (vmt vmTestCase) dumpToTest(t *testing.T, vm *VM) {
	lw := logio.Writer{Logf: t.Logf}
	defer lw.Close()
	vmDumper{vm: vm, out: &lw}.dump()
}

//// utilities

func nilIfEmpty(vals []Value) []Value {
	if len(vals) == 0 {
		return nil
	}
	return vals
}

func lines(parts ...string) string {
	return strings.Join(parts, "\n") + "\n"
}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }
