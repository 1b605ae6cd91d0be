/*
Package main implements htrof, FORTH backwards.

htrof is a small stack language written in Polish notation order: a program
is a flat sequence of tokens, and every builtin takes its operands from stacks
that earlier tokens filled. There are two stacks. Numbers and null go onto the
value stack; quoted text goes onto the text stack. A builtin knows which of
the two each of its operands comes from, so the stacks never need to be
juggled to get at a word's arguments.

Both stacks start out first-in first-out: the first operand popped is the
first one pushed, so

	5 3 -

leaves 2, and reads the way it would be written on paper. flip (for values)
and sflip (for texts) toggle a stack to last-in first-out removal; only the
removal end changes, values already stored keep their order.

Popping an empty stack is not an error. It returns the last value popped
again, and sets a sticky underflow flag that the machine checks after every
instruction; the host decides whether to continue or to halt.

Section 1: Tokens

Outside of double quotes, whitespace separates tokens. A quoted span is one
token, whitespace and all, and there is no escape for an embedded quote. The
two characters \n are replaced by a line feed anywhere in loaded text, before
tokenizing.

Each token is, in order of preference:

	a builtin name, matched without regard to case
	0x1F     a hexadecimal integer
	0b101    a binary integer
	3f       a float, parsed without its trailing f
	"text"   a text, without its quotes
	42       a decimal integer

Anything else is rejected. Program text is loaded one call at a time, and each
call either appends all of its instructions or none of them.

Section 2: Control

Labels are declared by running them, not by where they appear:

	"loop" lbl   ...   "loop" goto

jumps back to just after the lbl, but only once the lbl has run; a goto to an
undeclared label does nothing. That makes a preamble of declarations useful,
and init mode exists to run one: between init and uninit only literals, lbl
and end run, so

	init "sub" lbl ... ret uninit

declares sub without running its body. subrt calls a label, and ret returns
to just after the call. A ret with no call to return to ends the run.

if pops a value and, if it is zero, skips to the next end; unif skips on
nonzero. Conditionals do not nest: an if opened before the previous one's end
replaces it.

Section 3: Variables and objects

decl binds a text name to a value, sdecl binds one to a text, ref pushes a
binding back, and undecl removes one. The names delay (the wait length in
milliseconds), obj (the current I/O object) and eof (set by read) belong to
the system: assigning one of them updates it, and it can never be removed or
shadowed.

read and write move lines between the text stack and the current object. The
object std is the host's standard input and output, null discards, and fopen
registers a file under a new name:

	"log" "out.txt" fopen  "log" open  "hello" write
*/
package main
