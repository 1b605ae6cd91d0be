package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"github.com/jcorbin/htrof/internal/fileinput"
	"github.com/jcorbin/htrof/internal/lineio"
)

// Load tokenizes and classifies the given lines, appending the resulting
// instructions to the program. Each call is atomic: if any token is rejected,
// or a conditional is left without its block end, nothing from the call is
// kept and the returned error joins a TokenError or UnclosedError for each
// problem.
func (vm *VM) Load(lines ...string) error {
	vm.init()

	text := lineio.Expand(strings.Join(lines, "\n"))
	mark := len(vm.prog)

	var (
		errs   []error
		paired []int
		open   = -1
	)
	for _, token := range tokenize(text) {
		at := len(vm.prog)
		in, err := classify(token)
		if err != nil {
			vm.logf("!", "unknown token %q @%v: %v", token, at, err)
			errs = append(errs, TokenError{Token: token, At: at, Err: err})
			continue
		}

		// only one conditional may be open at a time
		switch in.code {
		case vmCodeIf, vmCodeUnif:
			open = at
		case vmCodeEnd:
			if open >= 0 {
				vm.conds[open] = at
				paired = append(paired, open)
				open = -1
			}
		}

		vm.prog = append(vm.prog, in)
	}

	if open >= 0 {
		vm.logf("!", "unclosed conditional @%v", open)
		errs = append(errs, UnclosedError{At: open})
	}

	if len(errs) > 0 {
		for _, at := range paired {
			delete(vm.conds, at)
		}
		for i := mark; i < len(vm.prog); i++ {
			vm.prog[i] = instr{}
		}
		vm.prog = vm.prog[:mark]
		return errors.Join(errs...)
	}

	vm.logf("<", "loaded %v instructions", len(vm.prog)-mark)
	return nil
}

// LoadFile reads all of r and loads it as a single Load call.
func (vm *VM) LoadFile(name string, r io.Reader) error {
	src, err := fileinput.ReadLines(name, r)
	if err != nil {
		return err
	}
	vm.logf("<", "loading %v lines from %v", len(src.Lines), src.Name)
	if err := vm.Load(src.Lines...); err != nil {
		return fmt.Errorf("%v: %w", src.Name, err)
	}
	return nil
}

// tokenize splits text on whitespace, except within a "-quoted span, which is
// kept verbatim along with its quotes. There is no escape for an embedded
// quote; an unterminated span runs to the end of the text.
func tokenize(text string) (tokens []string) {
	var (
		sb     strings.Builder
		quoted bool
	)
	for _, r := range text {
		switch {
		case r == '"':
			quoted = !quoted
			sb.WriteRune(r)
		case !quoted && (unicode.IsSpace(r) || unicode.IsControl(r)):
			if sb.Len() > 0 {
				tokens = append(tokens, sb.String())
				sb.Reset()
			}
		default:
			sb.WriteRune(r)
		}
	}
	if sb.Len() > 0 {
		tokens = append(tokens, sb.String())
	}
	return tokens
}

func classify(token string) (instr, error) {
	if code, defined := builtins.lookup(token); defined {
		return instr{code: code}, nil
	}
	val, err := parseLiteral(token)
	if err != nil {
		return instr{}, err
	}
	return instr{code: vmCodePush, lit: val}, nil
}

// parseLiteral classifies a non-builtin token by its first matching form:
// 0x hex, 0b binary, a trailing f float, a leading quote text, or decimal.
func parseLiteral(token string) (Value, error) {
	lower := strings.ToLower(token)
	switch {
	case strings.HasPrefix(lower, "0x"):
		n, err := strconv.ParseInt(token[2:], 16, 64)
		if err != nil {
			return None, err
		}
		return Int(n), nil

	case strings.HasPrefix(lower, "0b"):
		n, err := strconv.ParseInt(token[2:], 2, 64)
		if err != nil {
			return None, err
		}
		return Int(n), nil

	case strings.HasSuffix(lower, "f"):
		f, err := strconv.ParseFloat(token[:len(token)-1], 64)
		if err != nil {
			return None, err
		}
		return Float(f), nil

	case strings.HasPrefix(token, `"`):
		return Text(strings.ReplaceAll(token, `"`, "")), nil

	default:
		n, err := strconv.ParseInt(token, 10, 64)
		if err != nil {
			return None, err
		}
		return Int(n), nil
	}
}

// TokenError reports a token that matched no builtin or literal form.
type TokenError struct {
	Token string
	At    int
	Err   error
}

func (err TokenError) Error() string {
	return fmt.Sprintf("unknown token %q @%v", err.Token, err.At)
}

func (err TokenError) Unwrap() error { return err.Err }

// UnclosedError reports a conditional with no block end in its Load call.
type UnclosedError struct{ At int }

func (err UnclosedError) Error() string {
	return fmt.Sprintf("unclosed conditional @%v", err.At)
}
