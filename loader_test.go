package main

import (
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenize(t *testing.T) {
	for _, tc := range []struct {
		in   string
		want []string
	}{
		{"", nil},
		{"  \t\n ", nil},
		{"1 2 +", []string{"1", "2", "+"}},
		{"\"hi there\" write", []string{`"hi there"`, "write"}},
		{`"a  b"x  y`, []string{`"a  b"x`, "y"}},
		{`"open ended`, []string{`"open ended`}},
		{"\"line\none\"\ndup", []string{"\"line\none\"", "dup"}},
	} {
		assert.Equal(t, tc.want, tokenize(tc.in), "tokenize(%q)", tc.in)
	}
}

func TestParseLiteral(t *testing.T) {
	for _, tc := range []struct {
		token string
		want  Value
	}{
		{"0x1F", Int(31)},
		{"0X1f", Int(31)},
		{"0b101", Int(5)},
		{"3f", Float(3)},
		{"-2.5F", Float(-2.5)},
		{`"hi there"`, Text("hi there")},
		{`""`, Text("")},
		{`"unterminated`, Text("unterminated")},
		{"42", Int(42)},
		{"-7", Int(-7)},
	} {
		got, err := parseLiteral(tc.token)
		if assert.NoError(t, err, "parseLiteral(%q)", tc.token) {
			assert.Equal(t, tc.want, got, "parseLiteral(%q)", tc.token)
		}
	}

	for _, token := range []string{"bogus", "0xZZ", "0b102", "xf", "1.5", "f"} {
		_, err := parseLiteral(token)
		assert.Error(t, err, "parseLiteral(%q)", token)
	}
}

func TestVM_Load(t *testing.T) {
	vmTestCases{
		vmTest("literals").
			withProgram(`0x1F 0b101 3f "hi there" 42 -7 null`).
			expectProg(`31 5 3f "hi there" 42 -7 null`),

		vmTest("caseless builtins").
			withProgram("DUP Drop sFlip == =").
			expectProg("dup drop sflip eq eq"),

		vmTest("escaped newline").
			withProgram(`"a\nb" write`).
			expectProg(`"a\nb" write`),

		vmTest("incremental").
			withProgram("1 2").
			withProgram("+").
			withProgram("3 4", "*").
			expectProg("1 2 add 3 4 mul").
			expectProgLen(6),

		vmTest("unknown token rolls back the call").
			withProgram("1 2 +").
			withProgram("3 bogus 4 junk").
			expectLoadError(`unknown token "bogus" @4`).
			expectProg("1 2 add"),

		vmTest("unclosed conditional rolls back the call").
			withProgram("1").
			withProgram("0 if 2", "3").
			expectLoadError("unclosed conditional @2").
			expectProg("1"),

		vmTest("conditional across lines of one call").
			withProgram("0 if", "1", "end 2").
			expectProg("0 if 1 end 2").
			expectValues(Int(2)),
	}.run(t)
}

func TestVM_Load_errors(t *testing.T) {
	vm := New()
	require.NoError(t, vm.Load("1 if 2 end"))
	require.Equal(t, map[int]int{1: 3}, vm.conds)

	err := vm.Load("0 if 5 end nope", "if 6")
	require.Error(t, err)

	var tokErr TokenError
	if assert.True(t, errors.As(err, &tokErr)) {
		assert.Equal(t, "nope", tokErr.Token)
		assert.Equal(t, 8, tokErr.At)
		assert.Error(t, tokErr.Unwrap())
	}
	var openErr UnclosedError
	if assert.True(t, errors.As(err, &openErr)) {
		assert.Equal(t, 8, openErr.At)
	}

	assert.Equal(t, 4, vm.Len(), "expected the failed call to leave no instructions")
	assert.Equal(t, map[int]int{1: 3}, vm.conds, "expected the failed call to leave no conditionals")
}

func TestVM_Load_conditionalsDoNotNest(t *testing.T) {
	vm := New()
	require.NoError(t, vm.Load("1 if 2 if 3 end"))
	assert.Equal(t, map[int]int{3: 5}, vm.conds, "expected the inner if to replace the outer")
}

type namedReader struct {
	io.Reader
	name string
}

func (nr namedReader) Name() string { return nr.name }

func TestVM_LoadFile(t *testing.T) {
	vm := New()
	require.NoError(t, vm.LoadFile("", namedReader{strings.NewReader(lines(
		`init "twice" lbl`,
		`  dup + ret`,
		`uninit`,
	)), "twice.htrof"}))
	assert.Equal(t, 7, vm.Len())

	err := vm.LoadFile("broken.htrof", strings.NewReader("1\n2 huh\n"))
	assert.EqualError(t, err, `broken.htrof: unknown token "huh" @9`)
	assert.Equal(t, 7, vm.Len())
}
