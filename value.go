package main

import (
	"math"
	"strconv"
)

// Kind discriminates the datum carried by a Value.
type Kind uint8

const (
	KindNone Kind = iota
	KindInt
	KindFloat
	KindText
)

var kindNames = [...]string{"none", "int", "float", "text"}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return "Kind(" + strconv.Itoa(int(k)) + ")"
}

// Value is a tagged datum: a 64-bit integer, a 64-bit float, a text string, or
// none. Values are immutable and copied on every push and pop.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
}

// None is the zero Value.
var None Value

func Int(i int64) Value     { return Value{kind: KindInt, i: i} }
func Float(f float64) Value { return Value{kind: KindFloat, f: f} }
func Text(s string) Value   { return Value{kind: KindText, s: s} }

func boolValue(b bool) Value {
	if b {
		return Int(1)
	}
	return Int(0)
}

func (v Value) Kind() Kind    { return v.kind }
func (v Value) IsText() bool  { return v.kind == KindText }
func (v Value) IsFloat() bool { return v.kind == KindFloat }

// AsInt coerces v to an integer; none and text count as 0, floats truncate.
func (v Value) AsInt() int64 {
	switch v.kind {
	case KindInt:
		return v.i
	case KindFloat:
		return int64(v.f)
	}
	return 0
}

// AsFloat coerces v to a float; none and text count as 0.
func (v Value) AsFloat() float64 {
	switch v.kind {
	case KindInt:
		return float64(v.i)
	case KindFloat:
		return v.f
	}
	return 0
}

// Truth reports whether v is a nonzero number.
func (v Value) Truth() bool {
	switch v.kind {
	case KindInt:
		return v.i != 0
	case KindFloat:
		return v.f != 0
	}
	return false
}

// AsText returns the text content of v, or its printed form if v is not text.
func (v Value) AsText() string {
	if v.kind == KindText {
		return v.s
	}
	return v.String()
}

func (v Value) String() string {
	switch v.kind {
	case KindInt:
		return strconv.FormatInt(v.i, 10)
	case KindFloat:
		return strconv.FormatFloat(v.f, 'g', -1, 64)
	case KindText:
		return v.s
	}
	return "null"
}

func (v Value) GoString() string {
	switch v.kind {
	case KindText:
		return strconv.Quote(v.s)
	case KindFloat:
		return v.String() + "f"
	}
	return v.String()
}

func (v Value) equal(other Value) bool {
	if v.kind == KindText || other.kind == KindText {
		return v.kind == other.kind && v.s == other.s
	}
	if v.kind == KindFloat || other.kind == KindFloat {
		return v.AsFloat() == other.AsFloat()
	}
	return v.AsInt() == other.AsInt()
}

func (v Value) less(other Value) bool {
	if v.kind == KindFloat || other.kind == KindFloat {
		return v.AsFloat() < other.AsFloat()
	}
	return v.AsInt() < other.AsInt()
}

type arith struct {
	ints   func(a, b int64) int64
	floats func(a, b float64) float64
}

func (op arith) apply(a, b Value) Value {
	if a.kind == KindFloat || b.kind == KindFloat {
		return Float(op.floats(a.AsFloat(), b.AsFloat()))
	}
	return Int(op.ints(a.AsInt(), b.AsInt()))
}

var (
	arithAdd = arith{
		func(a, b int64) int64 { return a + b },
		func(a, b float64) float64 { return a + b },
	}
	arithSub = arith{
		func(a, b int64) int64 { return a - b },
		func(a, b float64) float64 { return a - b },
	}
	arithMul = arith{
		func(a, b int64) int64 { return a * b },
		func(a, b float64) float64 { return a * b },
	}
	arithDiv = arith{
		func(a, b int64) int64 { return a / b },
		func(a, b float64) float64 { return a / b },
	}
	arithMod = arith{
		func(a, b int64) int64 { return a % b },
		math.Mod,
	}
)

// nonZero substitutes 1 for a zero divisor.
func nonZero(v Value) Value {
	if v.Truth() {
		return v
	}
	if v.kind == KindFloat {
		return Float(1)
	}
	return Int(1)
}
