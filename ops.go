package main

import (
	"strconv"
	"time"
)

//// Builtins

// Builtin operations take no arguments from the instruction stream: every
// operand is popped from the value stack, the text stack, or read from the
// variable environment. Where two operands are popped, the first one popped
// is called "a" and the second "b"; under the default FIFO mode this is the
// order in which they were pushed, so `5 3 -` leaves 2.

//// Arithmetic Operations

// add implements +, pushing a + b.
func (vm *VM) add() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(arithAdd.apply(a, b)) }

// sub implements -, pushing a - b.
func (vm *VM) sub() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(arithSub.apply(a, b)) }

// mul implements *, pushing a * b.
func (vm *VM) mul() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(arithMul.apply(a, b)) }

// div implements /, pushing a / b; a zero b is taken as 1.
func (vm *VM) div() {
	a, b := vm.values.Pop(), nonZero(vm.values.Pop())
	vm.values.Push(arithDiv.apply(a, b))
}

// mod implements %, pushing a % b; a zero b is taken as 1.
func (vm *VM) mod() {
	a, b := vm.values.Pop(), nonZero(vm.values.Pop())
	vm.values.Push(arithMod.apply(a, b))
}

// Division by zero is never an error; programs that want to detect it must
// compare the divisor themselves.

//// Comparison Operations

// eq implements = and ==, pushing 1 if a equals b, else 0.
func (vm *VM) eq() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(boolValue(a.equal(b))) }

// ne implements !=.
func (vm *VM) ne() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(boolValue(!a.equal(b))) }

// lt implements <, pushing 1 if a < b, else 0.
func (vm *VM) lt() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(boolValue(a.less(b))) }

// gt implements >, pushing 1 if a > b, else 0.
func (vm *VM) gt() { a, b := vm.values.Pop(), vm.values.Pop(); vm.values.Push(boolValue(b.less(a))) }

// seq pops texts a and b, pushing 1 onto the value stack if they are
// equal, else 0.
func (vm *VM) seq() { a, b := vm.texts.Pop(), vm.texts.Pop(); vm.values.Push(boolValue(a.equal(b))) }

// null pushes none.
func (vm *VM) null() { vm.values.Push(None) }

//// Control Operations

// The instruction pointer always advances by one after an instruction
// executes, so each jump stores the index just before its destination: a
// label's own index, the calling subrt's index, or a block's end index.

// sentinel is pushed onto the return stack at the start of every run; popping
// it ends the run.
const sentinel = -1

// lbl pops a name from the text stack and binds it to the current
// instruction; the label is only resolvable after this runs.
func (vm *VM) lbl() {
	name := vm.texts.Pop().AsText()
	vm.labels[name] = vm.ip
	vm.logf(">", "lbl %q -> @%v", name, vm.ip)
}

// jump implements goto: pop a name from the text stack, and jump to its
// label. Unknown labels are ignored.
func (vm *VM) jump() {
	name := vm.texts.Pop().AsText()
	if at, defined := vm.labels[name]; defined {
		vm.ip = at
	} else {
		vm.logf(">", "goto %q unresolved", name)
	}
}

// subrt is like goto, but first pushes a return address.
func (vm *VM) subrt() {
	name := vm.texts.Pop().AsText()
	if at, defined := vm.labels[name]; defined {
		vm.rets.Push(Int(int64(vm.ip)))
		vm.ip = at
	} else {
		vm.logf(">", "subrt %q unresolved", name)
	}
}

// ret pops a return address into the instruction pointer.
func (vm *VM) ret() {
	vm.ip = int(vm.rets.Pop().AsInt())
	vm.rets.ClearUnderflow()
}

// ifz implements if: pop a value, and skip to the block end if it is zero.
func (vm *VM) ifz() {
	if !vm.values.Pop().Truth() {
		vm.skip()
	}
}

// unless implements unif, the complement of if.
func (vm *VM) unless() {
	if vm.values.Pop().Truth() {
		vm.skip()
	}
}

func (vm *VM) skip() {
	if end, defined := vm.conds[vm.ip]; defined {
		vm.ip = end
	} else {
		vm.logf(">", "no block end for conditional @%v", vm.ip)
	}
}

// end terminates a conditional block; running it does nothing.
func (vm *VM) end() {}

// enterInit implements init: until uninit, only literals, lbl and end run.
func (vm *VM) enterInit() { vm.initMode = true }

func (vm *VM) exitInit() { vm.initMode = false }

// wait pauses for the number of milliseconds in the delay variable.
func (vm *VM) wait() {
	d := time.Duration(vm.env.system[sysDelay].AsInt()) * time.Millisecond
	if d <= 0 {
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	ctx := vm.context()
	select {
	case <-timer.C:
	case <-ctx.Done():
		vm.halt(ctx.Err())
	}
}

//// Variable Operations

// decl pops a name from the text stack and a value from the value stack,
// and binds them.
func (vm *VM) decl() {
	name, val := vm.texts.Pop().AsText(), vm.values.Pop()
	vm.env.set(name, val)
}

// sdecl pops a name, then a value, from the text stack, and binds them.
func (vm *VM) sdecl() {
	name, val := vm.texts.Pop().AsText(), vm.texts.Pop()
	vm.env.set(name, val)
}

// undecl removes the user binding for a name popped from the text stack.
func (vm *VM) undecl() {
	name := vm.texts.Pop().AsText()
	if !vm.env.unset(name) {
		vm.logf(">", "undecl %q: no user binding", name)
	}
}

// ref pops a name from the text stack, and pushes its bound value onto the
// stack matching its kind.
func (vm *VM) ref() {
	name := vm.texts.Pop().AsText()
	if val, defined := vm.env.get(name); defined {
		vm.pushValue(val)
	}
}

//// String Operations

// cat pops texts a and b, pushing a joined with b.
func (vm *VM) cat() {
	a, b := vm.texts.Pop(), vm.texts.Pop()
	vm.texts.Push(Text(a.AsText() + b.AsText()))
}

// split pops an index from the value stack and a text, pushing the text's
// halves before and after the index. Out of range indices push the text back
// whole.
func (vm *VM) split() {
	i, s := vm.values.Pop().AsInt(), vm.texts.Pop().AsText()
	runes := []rune(s)
	if i < 0 || i > int64(len(runes)) {
		vm.texts.Push(Text(s))
		return
	}
	vm.texts.Push(Text(string(runes[:i])), Text(string(runes[i:])))
}

func (vm *VM) str() { vm.texts.Push(Text(vm.values.Pop().String())) }

// num pops a text, pushing the number it spells, or none.
func (vm *VM) num() {
	val, err := parseLiteral(vm.texts.Pop().AsText())
	if err != nil || val.IsText() {
		val = None
	}
	vm.values.Push(val)
}

// length implements len, counting runes.
func (vm *VM) length() {
	n := len([]rune(vm.texts.Pop().AsText()))
	vm.values.Push(Int(int64(n)))
}

//// Stack Operations

func (vm *VM) dup() { val := vm.values.Pop(); vm.values.Push(val, val) }

func (vm *VM) sdup() { val := vm.texts.Pop(); vm.texts.Push(val, val) }

func (vm *VM) drop() { vm.values.Pop() }

func (vm *VM) sdrop() { vm.texts.Pop() }

// flip toggles the value stack between FIFO and LIFO.
func (vm *VM) flip() { vm.values.Flip() }

// sflip toggles the text stack.
func (vm *VM) sflip() { vm.texts.Flip() }

//// Input/Output Operations

// open pops a name from the text stack, and makes it the current object.
func (vm *VM) open() { vm.env.set(sysObj, Text(vm.texts.Pop().AsText())) }

// fopen pops a name then a file path from the text stack, and registers the
// file as an object under that name.
func (vm *VM) fopen() {
	name, path := vm.texts.Pop().AsText(), vm.texts.Pop().AsText()
	if err := vm.openFile(name, path); err != nil {
		vm.logf("!", "fopen %q: %v", name, err)
	}
}

// close pops a name from the text stack, and closes that object.
func (vm *VM) close() {
	name := vm.texts.Pop().AsText()
	if err := vm.unregister(name); err != nil {
		vm.logf("!", "close %q: %v", name, err)
	}
}

// read reads a line from the current object onto the text stack.
func (vm *VM) read() {
	line, ok := vm.readLine()
	vm.env.set(sysEOF, boolValue(!ok))
	if ok {
		vm.texts.Push(Text(line))
	}
}

func (vm *VM) write() { vm.writeString(vm.texts.Pop().AsText()) }

// dump writes a snapshot of the machine to the current object.
func (vm *VM) dump() {
	if w := vm.currentWriter(); w != nil {
		vmDumper{vm: vm, out: w}.dump()
		vm.flushObject(w)
	}
}

//// Internal primitives have no names.

// push takes the literal out of the current instruction and pushes it onto
// the stack matching its kind.
func (vm *VM) push() { vm.pushValue(vm.prog[vm.ip].lit) }

func (vm *VM) pushValue(val Value) {
	if val.IsText() {
		vm.texts.Push(val)
	} else {
		vm.values.Push(val)
	}
}

type opCode uint8

const (
	vmCodePush opCode = iota // <INTERNAL>  push a literal

	vmCodeAdd    // +       binary operation on the value stack
	vmCodeSub    // -       binary operation on the value stack
	vmCodeMul    // *       binary operation on the value stack
	vmCodeDiv    // /       binary operation on the value stack
	vmCodeMod    // %       binary operation on the value stack
	vmCodeEq     // = ==    comparison on the value stack
	vmCodeNe     // !=      comparison on the value stack
	vmCodeLt     // <       comparison on the value stack
	vmCodeGt     // >       comparison on the value stack
	vmCodeSeq    // seq     text equality
	vmCodeNull   // null    push none
	vmCodeLbl    // lbl     declare a label
	vmCodeGoto   // goto    jump to a label
	vmCodeSubrt  // subrt   call a label
	vmCodeRet    // ret     return from a call
	vmCodeIf     // if      skip block on zero
	vmCodeUnif   // unif    skip block on nonzero
	vmCodeEnd    // end     block terminator
	vmCodeInit   // init    enter init mode
	vmCodeUninit // uninit  leave init mode
	vmCodeWait   // wait    sleep for the delay variable
	vmCodeDecl   // decl    bind a value
	vmCodeSdecl  // sdecl   bind a text
	vmCodeUndecl // undecl  remove a user binding
	vmCodeRef    // ref     push a bound value
	vmCodeCat    // cat     join two texts
	vmCodeSplit  // split   split a text at an index
	vmCodeStr    // str     value to text
	vmCodeNum    // num     text to value
	vmCodeLen    // len     text length
	vmCodeDup    // dup     duplicate a value
	vmCodeSdup   // sdup    duplicate a text
	vmCodeDrop   // drop    discard a value
	vmCodeSdrop  // sdrop   discard a text
	vmCodeFlip   // flip    toggle value stack mode
	vmCodeSflip  // sflip   toggle text stack mode
	vmCodeOpen   // open    select the current object
	vmCodeFopen  // fopen   register a file object
	vmCodeClose  // close   close an object
	vmCodeRead   // read    read a line
	vmCodeWrite  // write   write a text
	vmCodeDump   // dump    write a machine snapshot

	vmCodeMax
)

func (code opCode) String() string {
	if code < vmCodeMax {
		return vmCodeNames[code]
	}
	return "op" + strconv.Itoa(int(code))
}

var (
	vmCodeTable       [vmCodeMax]func(vm *VM)
	vmCodeInitVisible [vmCodeMax]bool
)

var vmCodeNames = [vmCodeMax]string{
	"push",

	"add",
	"sub",
	"mul",
	"div",
	"mod",
	"eq",
	"ne",
	"lt",
	"gt",
	"seq",
	"null",
	"lbl",
	"goto",
	"subrt",
	"ret",
	"if",
	"unif",
	"end",
	"init",
	"uninit",
	"wait",
	"decl",
	"sdecl",
	"undecl",
	"ref",
	"cat",
	"split",
	"str",
	"num",
	"len",
	"dup",
	"sdup",
	"drop",
	"sdrop",
	"flip",
	"sflip",
	"open",
	"fopen",
	"close",
	"read",
	"write",
	"dump",
}

func init() {
	vmCodeTable = [...]func(vm *VM){
		(*VM).push,

		(*VM).add,
		(*VM).sub,
		(*VM).mul,
		(*VM).div,
		(*VM).mod,
		(*VM).eq,
		(*VM).ne,
		(*VM).lt,
		(*VM).gt,
		(*VM).seq,
		(*VM).null,
		(*VM).lbl,
		(*VM).jump,
		(*VM).subrt,
		(*VM).ret,
		(*VM).ifz,
		(*VM).unless,
		(*VM).end,
		(*VM).enterInit,
		(*VM).exitInit,
		(*VM).wait,
		(*VM).decl,
		(*VM).sdecl,
		(*VM).undecl,
		(*VM).ref,
		(*VM).cat,
		(*VM).split,
		(*VM).str,
		(*VM).num,
		(*VM).length,
		(*VM).dup,
		(*VM).sdup,
		(*VM).drop,
		(*VM).sdrop,
		(*VM).flip,
		(*VM).sflip,
		(*VM).open,
		(*VM).fopen,
		(*VM).close,
		(*VM).read,
		(*VM).write,
		(*VM).dump,
	}

	// init mode suppresses everything except these
	vmCodeInitVisible[vmCodePush] = true
	vmCodeInitVisible[vmCodeLbl] = true
	vmCodeInitVisible[vmCodeEnd] = true
	vmCodeInitVisible[vmCodeUninit] = true
}
